package classifier

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestKeywordClassifier_Suggest(t *testing.T) {
	c := NewKeywordClassifier(3)

	tests := []struct {
		name     string
		content  string
		category string
		tags     []string
	}{
		{"meeting", "Meeting agenda for Monday #team", "Meeting", []string{"team", "meeting"}},
		{"todo", "todo: buy milk, buy bread", "Todo", []string{"todo"}},
		{"reference", "see https://go.dev/doc for the manual", "Reference", []string{"reference"}},
		{"default", "just some words", DefaultCategory, []string{}},
		{"hashtags capped", "#a #b #a #c #d", DefaultCategory, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Suggest(context.Background(), tt.content)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.tags, got.Tags)
		})
	}
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "first line", Summarize("\n  first line  \nsecond"))
	assert.Equal(t, "", Summarize("  \n "))

	long := Summarize(strings.Repeat("x", 200))
	assert.Equal(t, maxSummaryRunes, len([]rune(long)))
}

func TestKnownCategory(t *testing.T) {
	c, ok := KnownCategory(" work ")
	assert.True(t, ok)
	assert.Equal(t, "Work", c)

	_, ok = KnownCategory("general")
	assert.False(t, ok)
}

type fakeCompleter struct {
	content string
	err     error
	got     openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.got = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func TestGPTClassifier_Suggest(t *testing.T) {
	fake := &fakeCompleter{content: `{"category":"study","keywords":["Go","Concurrency"],"summary":"Notes on channels"}`}
	c := newGPTClassifier(fake, GPTConfig{MaxTags: 5}, zap.NewNop())

	got := c.Suggest(context.Background(), "channels and goroutines")
	assert.Equal(t, Suggestion{Category: "Study", Tags: []string{"go", "concurrency"}, Summary: "Notes on channels"}, got)
	assert.Equal(t, openai.GPT4oMini, fake.got.Model)
	assert.Contains(t, fake.got.Messages[0].Content, "Personal, Work, Study")
}

func TestGPTClassifier_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		fake *fakeCompleter
	}{
		{"api error", &fakeCompleter{err: errors.New("quota exceeded")}},
		{"not json", &fakeCompleter{content: "Category: Meeting"}},
		{"unknown category", &fakeCompleter{content: `{"category":"general","keywords":["x"]}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newGPTClassifier(tt.fake, GPTConfig{}, zap.NewNop())
			got := c.Suggest(context.Background(), "weekly meeting agenda")
			assert.Equal(t, "Meeting", got.Category)
			assert.Equal(t, []string{"meeting"}, got.Tags)
		})
	}
}

func TestNew_WithoutKeyUsesKeywords(t *testing.T) {
	c := New(GPTConfig{}, zap.NewNop())
	assert.IsType(t, &KeywordClassifier{}, c)
}
