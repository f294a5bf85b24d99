// Package recommend relays reading preferences to an OpenAI-compatible chat
// model and returns its Markdown recommendation list.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const (
	DefaultModel   = "deepseek-chat"
	DefaultBaseURL = "https://api.deepseek.com/v1"

	temperature     = 0.7
	recommendations = 5
)

var (
	ErrNotConfigured = errors.New("chat recommendations are not configured")
	ErrEmptyReply    = errors.New("chat model returned no choices")
)

type Preferences struct {
	IsAdult     bool   `json:"isAdult"`
	Genres      string `json:"genres"`
	SimilarTo   string `json:"similarTo"`
	Description string `json:"description"`
}

type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
}

type Recommender struct {
	client *openai.Client
	model  string
	logger *slog.Logger
}

// New returns a Recommender; a blank API key yields one whose Recommend
// always fails with ErrNotConfigured.
func New(cfg Config, logger *slog.Logger) *Recommender {
	if logger == nil {
		logger = slog.Default()
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	r := &Recommender{model: model, logger: logger}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return r
	}

	transportCfg := openai.DefaultConfig(apiKey)
	transportCfg.BaseURL = DefaultBaseURL
	if baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); baseURL != "" {
		transportCfg.BaseURL = baseURL
	}
	if cfg.HTTPClient != nil {
		transportCfg.HTTPClient = cfg.HTTPClient
	}
	r.client = openai.NewClientWithConfig(transportCfg)
	return r
}

func (r *Recommender) Configured() bool {
	return r != nil && r.client != nil
}

func (r *Recommender) Recommend(ctx context.Context, prefs Preferences) (string, error) {
	if !r.Configured() {
		return "", ErrNotConfigured
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(prefs)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyReply
	}

	r.logger.Debug("chat recommendation generated", "model", r.model, "adult", prefs.IsAdult, "tokens", resp.Usage.TotalTokens)
	return resp.Choices[0].Message.Content, nil
}

func BuildPrompt(prefs Preferences) string {
	adult := "No"
	kind := "manga/manhwa"
	if prefs.IsAdult {
		adult = "Yes"
		kind = "adult manga/manhwa"
	}

	var b strings.Builder
	b.WriteString("You are an AI specialized in manga/manhwa recommendations.\n")
	b.WriteString("The user has provided:\n")
	fmt.Fprintf(&b, "- Adult content: %s\n", adult)
	fmt.Fprintf(&b, "- Preferred genres: %s\n", orDefault(prefs.Genres, "None specified"))
	fmt.Fprintf(&b, "- Similar to: %s\n", orDefault(prefs.SimilarTo, "No specific title"))
	fmt.Fprintf(&b, "- Additional preferences: %s\n\n", orDefault(prefs.Description, "None"))
	fmt.Fprintf(&b, "Please recommend %d %s that match these preferences. ", recommendations, kind)
	b.WriteString("For each one give the title, a one-sentence synopsis and why it fits. ")
	b.WriteString("Format the answer as a Markdown bullet list.")
	return b.String()
}

func orDefault(value string, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
