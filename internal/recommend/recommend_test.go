package recommend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gabriel/manga-link-finder/internal/recommend"
)

func TestBuildPromptUsesDefaultsForBlankFields(t *testing.T) {
	prompt := recommend.BuildPrompt(recommend.Preferences{})

	for _, want := range []string{
		"- Adult content: No",
		"- Preferred genres: None specified",
		"- Similar to: No specific title",
		"- Additional preferences: None",
		"recommend 5 manga/manhwa",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptIncludesPreferences(t *testing.T) {
	prompt := recommend.BuildPrompt(recommend.Preferences{
		IsAdult:     true,
		Genres:      "Romance, Drama",
		SimilarTo:   "Sweet Home",
		Description: " slow burn ",
	})

	for _, want := range []string{
		"- Adult content: Yes",
		"- Preferred genres: Romance, Drama",
		"- Similar to: Sweet Home",
		"- Additional preferences: slow burn",
		"recommend 5 adult manga/manhwa",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("expected prompt to contain %q, got:\n%s", want, prompt)
		}
	}
}

func TestRecommendWithoutKeyIsNotConfigured(t *testing.T) {
	r := recommend.New(recommend.Config{}, nil)

	if r.Configured() {
		t.Fatalf("expected recommender without key to be unconfigured")
	}
	if _, err := r.Recommend(context.Background(), recommend.Preferences{}); !errors.Is(err, recommend.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestRecommendSendsPromptAndReturnsFirstChoice(t *testing.T) {
	var gotModel, gotPrompt, gotAuth string
	var gotTemperature float64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Model       string  `json:"model"`
			Temperature float64 `json:"temperature"`
			Messages    []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = body.Model
		gotTemperature = body.Temperature
		if len(body.Messages) > 0 {
			gotPrompt = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"- **Sweet Home**"},"finish_reason":"stop"}],"usage":{"total_tokens":12}}`))
	}))
	defer server.Close()

	r := recommend.New(recommend.Config{
		APIKey:     "test-key",
		BaseURL:    server.URL + "/v1/",
		Model:      "test-model",
		HTTPClient: server.Client(),
	}, nil)

	text, err := r.Recommend(context.Background(), recommend.Preferences{Genres: "Horror"})
	if err != nil {
		t.Fatalf("Recommend returned error: %v", err)
	}
	if text != "- **Sweet Home**" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected authorization header %q", gotAuth)
	}
	if gotModel != "test-model" {
		t.Fatalf("unexpected model %q", gotModel)
	}
	if gotTemperature < 0.69 || gotTemperature > 0.71 {
		t.Fatalf("unexpected temperature %v", gotTemperature)
	}
	if !strings.Contains(gotPrompt, "- Preferred genres: Horror") {
		t.Fatalf("expected preferences in prompt, got %q", gotPrompt)
	}
}

func TestRecommendSurfacesUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	r := recommend.New(recommend.Config{APIKey: "bad", BaseURL: server.URL, HTTPClient: server.Client()}, nil)
	if _, err := r.Recommend(context.Background(), recommend.Preferences{}); err == nil {
		t.Fatalf("expected upstream error")
	}
}

func TestRecommendWithNoChoicesFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"1","choices":[]}`))
	}))
	defer server.Close()

	r := recommend.New(recommend.Config{APIKey: "k", BaseURL: server.URL, HTTPClient: server.Client()}, nil)
	if _, err := r.Recommend(context.Background(), recommend.Preferences{}); !errors.Is(err, recommend.ErrEmptyReply) {
		t.Fatalf("expected ErrEmptyReply, got %v", err)
	}
}
