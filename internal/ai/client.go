package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/quizwhiz/backend/internal/config"
)

const (
	hintMaxTokens     = 100
	questionMaxTokens = 1000
)

// ErrNotConfigured is returned when no API key is set.
var ErrNotConfigured = errors.New("ai: provider not configured")

// Client talks to a Groq-compatible OpenAI chat-completions endpoint. It is
// used for two things: generating a question set from a user prompt, and
// producing a short hint after a wrong answer.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiKey:  cfg.GroqAPIKey,
		baseURL: cfg.GroqBaseURL,
		model:   cfg.GroqModel,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages  []chatMessage `json:"messages"`
	Model     string        `json:"model"`
	MaxTokens int           `json:"max_tokens"`
	Stream    bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// complete sends a single-message user prompt and returns the completion text.
func (c *Client) complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if c.apiKey == "" {
		return "", ErrNotConfigured
	}

	body, err := json.Marshal(chatRequest{
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		Model:     c.model,
		MaxTokens: maxTokens,
		Stream:    false,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("ai: read response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("ai: decode response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if parsed.Error != nil {
			return "", fmt.Errorf("ai: provider error (%d): %s", resp.StatusCode, parsed.Error.Message)
		}
		return "", fmt.Errorf("ai: provider returned %d", resp.StatusCode)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("ai: empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

// Hint asks the provider for a short hint that nudges the player toward the
// correct option without revealing it.
func (c *Client) Hint(ctx context.Context, question, correct, wrong string) (string, error) {
	prompt := fmt.Sprintf(
		"Provide hints and help the user understand. Do not give the answer. Be brief. Don't give affirmations. Question: %s\nCorrect Answer: %s\nUser's Answer: %s",
		question, correct, wrong,
	)
	hint, err := c.complete(ctx, prompt, hintMaxTokens)
	if err != nil {
		log.Printf("[AI] hint request failed: %v", err)
		return "", err
	}
	return hint, nil
}

// GenerateQuizDocument asks the provider for a YAML question document based
// on the user's prompt. The raw YAML is returned; parsing lives in the quiz
// package.
func (c *Client) GenerateQuizDocument(ctx context.Context, userPrompt string) (string, error) {
	prompt := "Generate a set of multiple-choice questions based on the following prompt. " +
		"The number of questions should be specified if not default to 10. " +
		"Provide each question with options A, B, C, D, and the correct answer. " +
		"Respond with the YAML output and nothing else. " +
		"Output should be in YAML format:\n\n" +
		"questions:\n" +
		"  - question: \"Your question here\"\n" +
		"    options:\n" +
		"      A: \"Option A\"\n" +
		"      B: \"Option B\"\n" +
		"      C: \"Option C\"\n" +
		"      D: \"Option D\"\n" +
		"    answer: \"A\"\n\n" +
		"Prompt: " + userPrompt
	return c.complete(ctx, prompt, questionMaxTokens)
}
