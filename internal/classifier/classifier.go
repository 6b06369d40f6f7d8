package classifier

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/xaenox/notes-bot/internal/models"
)

// DefaultCategory is suggested when nothing in the content points elsewhere.
const DefaultCategory = "Personal"

const maxSummaryRunes = 140

// Suggestion is a proposed category, tag set and one-line summary for a note.
type Suggestion struct {
	Category string
	Tags     []string
	Summary  string
}

type Classifier interface {
	Suggest(ctx context.Context, content string) Suggestion
}

var categoryKeywords = []struct {
	category string
	keywords []string
}{
	{"Meeting", []string{"meeting", "agenda", "minutes", "standup", "call with"}},
	{"Project", []string{"project", "milestone", "roadmap", "release", "sprint"}},
	{"Work", []string{"deadline", "report", "client", "office", "task", "colleague"}},
	{"Study", []string{"study", "learn", "course", "lecture", "homework", "exam"}},
	{"Todo", []string{"todo", "to do", "buy", "remember to", "checklist", "- [ ]"}},
	{"Idea", []string{"idea", "brainstorm", "what if", "concept"}},
	{"Reference", []string{"http://", "https://", "docs", "manual", "how to"}},
	{"Personal", []string{"family", "friend", "home", "birthday", "holiday", "vacation", "trip"}},
}

// KeywordClassifier suggests a category by keyword hits and tags from
// hashtags. It needs no network.
type KeywordClassifier struct {
	maxTags int
}

func NewKeywordClassifier(maxTags int) *KeywordClassifier {
	if maxTags <= 0 {
		maxTags = 5
	}
	return &KeywordClassifier{maxTags: maxTags}
}

func (c *KeywordClassifier) Suggest(_ context.Context, content string) Suggestion {
	lower := strings.ToLower(content)

	category, best := DefaultCategory, 0
	for _, ck := range categoryKeywords {
		hits := 0
		for _, kw := range ck.keywords {
			hits += strings.Count(lower, kw)
		}
		if hits > best {
			category, best = ck.category, hits
		}
	}

	tags := make([]string, 0, c.maxTags)
	seen := make(map[string]bool)
	add := func(tag string) {
		tag = strings.ToLower(strings.Trim(tag, "#.,;:!?()[]\"'"))
		if tag == "" || seen[tag] || len(tags) >= c.maxTags {
			return
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	for _, word := range strings.Fields(content) {
		if strings.HasPrefix(word, "#") {
			add(word)
		}
	}
	if best > 0 {
		add(category)
	}

	return Suggestion{
		Category: category,
		Tags:     tags,
		Summary:  Summarize(content),
	}
}

// Summarize returns the first non-empty line of content, shortened to a
// single display line.
func Summarize(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxSummaryRunes {
			return line
		}
		runes := []rune(line)
		return strings.TrimSpace(string(runes[:maxSummaryRunes-1])) + "…"
	}
	return ""
}

// KnownCategory returns the canonical spelling of name if it is one of the
// note categories.
func KnownCategory(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, c := range models.NoteCategories {
		if strings.EqualFold(c, name) {
			return c, true
		}
	}
	return "", false
}
