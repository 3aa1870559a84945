package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func testLLMConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		Provider:    config.ProviderGroq,
		Model:       "llama-3.3-70b-versatile",
		BaseURL:     baseURL,
		APIKey:      "test-key",
		Temperature: 0.3,
		TopP:        0.9,
		MaxTokens:   1024,
	}
}

func TestOpenAICompatibleComplete(t *testing.T) {
	var captured chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"category\":\"Network\"}"}}],"usage":{"prompt_tokens":120,"completion_tokens":40}}`))
	}))
	defer server.Close()

	client := NewOpenAICompatible(testLLMConfig(server.URL+"/"), server.Client())
	completion, err := client.Complete(context.Background(), "system", "IT Issue: wifi")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if completion.Text != `{"category":"Network"}` {
		t.Errorf("text = %q", completion.Text)
	}
	if completion.Usage.TotalTokens() != 160 {
		t.Errorf("usage = %+v", completion.Usage)
	}
	if captured.Model != "llama-3.3-70b-versatile" || captured.ResponseFormat.Type != "json_object" {
		t.Errorf("request = %+v", captured)
	}
	if captured.Temperature != 0.3 || captured.TopP != 0.9 || captured.MaxTokens != 1024 {
		t.Errorf("sampling = %+v", captured)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "IT Issue: wifi" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestOpenAICompatibleProviderError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"Invalid API Key"}}`))
	}))
	defer server.Close()

	client := NewOpenAICompatible(testLLMConfig(server.URL), server.Client())
	_, err := client.Complete(context.Background(), "system", "user")

	var providerErr *ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("error type = %T, want *ProviderError", err)
	}
	if providerErr.StatusCode != http.StatusUnauthorized || providerErr.Message != "Invalid API Key" {
		t.Errorf("provider error = %+v", providerErr)
	}
}

func TestNewCompleterRequiresKey(t *testing.T) {
	cfg := testLLMConfig("http://localhost")
	cfg.KeyErr = config.ErrMissingAPIKey

	if _, err := NewCompleter(cfg, nil); !errors.Is(err, config.ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}

	cfg.KeyErr = nil
	completer, err := NewCompleter(cfg, nil)
	if err != nil {
		t.Fatalf("NewCompleter: %v", err)
	}
	if completer.Name() != config.ProviderGroq {
		t.Errorf("name = %q", completer.Name())
	}
}
