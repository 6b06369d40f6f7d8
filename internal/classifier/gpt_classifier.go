package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/notes-bot/internal/models"
)

type GPTResponse struct {
	Category string   `json:"category"`
	Keywords []string `json:"keywords"`
	Summary  string   `json:"summary"`
}

type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GPTConfig configures the OpenAI backed classifier.
type GPTConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	MaxTags     int
}

type GPTClassifier struct {
	client      chatCompleter
	model       string
	maxTokens   int
	temperature float64
	maxTags     int
	fallback    *KeywordClassifier
	logger      *zap.Logger
}

func NewGPTClassifier(cfg GPTConfig, logger *zap.Logger) *GPTClassifier {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	return newGPTClassifier(openai.NewClientWithConfig(oc), cfg, logger)
}

func newGPTClassifier(client chatCompleter, cfg GPTConfig, logger *zap.Logger) *GPTClassifier {
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 300
	}
	fallback := NewKeywordClassifier(cfg.MaxTags)
	return &GPTClassifier{
		client:      client,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		maxTags:     fallback.maxTags,
		fallback:    fallback,
		logger:      logger,
	}
}

// New returns the GPT classifier when an API key is configured and the
// keyword classifier otherwise.
func New(cfg GPTConfig, logger *zap.Logger) Classifier {
	if cfg.APIKey == "" {
		logger.Info("OpenAI API key not set, using keyword classifier")
		return NewKeywordClassifier(cfg.MaxTags)
	}
	return NewGPTClassifier(cfg, logger)
}

func (c *GPTClassifier) prompt(content string) string {
	return fmt.Sprintf(`Analyze the following note and provide:
- a single category, one of: %s
- relevant keywords/tags (max %d)
- a one sentence summary

Return the response as a JSON object with this structure:
{
    "category": "Category",
    "keywords": ["keyword1", "keyword2", ...],
    "summary": "brief_summary"
}

Note: %s`, strings.Join(models.NoteCategories, ", "), c.maxTags, content)
}

func (c *GPTClassifier) Suggest(ctx context.Context, content string) Suggestion {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: c.prompt(content),
				},
			},
			MaxTokens:   c.maxTokens,
			Temperature: float32(c.temperature),
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		},
	)
	if err != nil {
		c.logger.Error("Failed to get GPT response", zap.Error(err))
		return c.fallback.Suggest(ctx, content)
	}
	if len(resp.Choices) == 0 {
		c.logger.Error("GPT response has no choices")
		return c.fallback.Suggest(ctx, content)
	}

	var gptResponse GPTResponse
	response := strings.TrimSpace(resp.Choices[0].Message.Content)
	response = strings.TrimSuffix(strings.TrimPrefix(response, "```json"), "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(response)), &gptResponse); err != nil {
		c.logger.Error("Failed to parse GPT response",
			zap.Error(err),
			zap.String("response", response))
		return c.fallback.Suggest(ctx, content)
	}

	category, ok := KnownCategory(gptResponse.Category)
	if !ok {
		c.logger.Warn("GPT suggested unknown category",
			zap.String("category", gptResponse.Category))
		return c.fallback.Suggest(ctx, content)
	}

	tags := make([]string, 0, c.maxTags)
	for _, kw := range gptResponse.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" || len(tags) >= c.maxTags {
			continue
		}
		tags = append(tags, kw)
	}

	summary := strings.TrimSpace(gptResponse.Summary)
	if summary == "" {
		summary = Summarize(content)
	}
	return Suggestion{Category: category, Tags: tags, Summary: summary}
}
