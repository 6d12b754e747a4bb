package quiz

import (
	"context"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quizwhiz/backend/internal/models"
)

// DocumentProvider produces a raw quiz YAML document from a user prompt.
type DocumentProvider interface {
	GenerateQuizDocument(ctx context.Context, userPrompt string) (string, error)
}

// Loader turns a user prompt into an ordered question list by asking the
// generation provider and parsing its YAML output.
type Loader struct {
	provider DocumentProvider
}

func NewLoader(provider DocumentProvider) *Loader {
	return &Loader{provider: provider}
}

type document struct {
	Questions []models.Question `yaml:"questions"`
}

// Load requests a question set for the prompt and parses it.
func (l *Loader) Load(ctx context.Context, userPrompt string) ([]models.Question, error) {
	doc, err := l.provider.GenerateQuizDocument(ctx, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("quiz: generate: %w", err)
	}
	return Parse(doc)
}

// Parse decodes a quiz YAML document and validates it. Models occasionally
// wrap their output in a markdown code fence; strip it before decoding.
func Parse(raw string) ([]models.Question, error) {
	var doc document
	if err := yaml.Unmarshal([]byte(stripFence(raw)), &doc); err != nil {
		return nil, fmt.Errorf("quiz: parse: %w", err)
	}
	if len(doc.Questions) == 0 {
		return nil, fmt.Errorf("quiz: document contains no questions")
	}
	for i, q := range doc.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return nil, fmt.Errorf("quiz: question %d has no text", i)
		}
		if len(q.Options) == 0 {
			return nil, fmt.Errorf("quiz: question %d has no options", i)
		}
		if _, ok := q.Options[q.Answer]; !ok {
			return nil, fmt.Errorf("quiz: question %d answer %q is not an option key", i, q.Answer)
		}
	}
	return doc.Questions, nil
}

func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Drop an optional language tag on the fence line.
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		if first == "" || first == "yaml" || first == "yml" {
			s = s[idx+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
