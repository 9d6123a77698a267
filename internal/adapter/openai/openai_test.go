package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	core "github.com/stackhire/intake-gateway/internal/openai"
)

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestCreateCompletion(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		resp := core.NewCompletionResponse("gpt-4o-mini",
			core.ChatMessage{Role: core.RoleAssistant, Content: "hello back"},
			core.UsageBreakdown{PromptTokens: 3, CompletionTokens: 2, TotalTokens: 5})
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer upstream.Close()

	a, err := New(Config{APIKey: "test-key", BaseURL: upstream.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	temp := 0.3
	resp, err := a.CreateCompletion(context.Background(), core.ChatCompletionRequest{
		Model:       "gpt-4o-mini",
		Messages:    []core.ChatMessage{{Role: core.RoleUser, Content: "hello"}},
		Temperature: &temp,
	})
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if got := resp.Reply(); got != "hello back" {
		t.Fatalf("reply %q", got)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("authorization header %q", gotAuth)
	}
	if gotBody["model"] != "gpt-4o-mini" {
		t.Fatalf("model %v", gotBody["model"])
	}
	if gotBody["temperature"] != 0.3 {
		t.Fatalf("temperature %v", gotBody["temperature"])
	}
	if gotBody["stream"] != false {
		t.Fatalf("stream %v", gotBody["stream"])
	}
}

func TestCreateCompletionUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error","code":"invalid_api_key"}}`))
	}))
	defer upstream.Close()

	a, err := New(Config{APIKey: "wrong", BaseURL: upstream.URL})
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	_, err = a.CreateCompletion(context.Background(), core.ChatCompletionRequest{
		Model:    "gpt-4o-mini",
		Messages: []core.ChatMessage{{Role: core.RoleUser, Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected upstream error")
	}
	if !strings.Contains(err.Error(), "bad key") {
		t.Fatalf("error should carry the upstream message: %v", err)
	}
}

func TestCreateCompletionRequiresMessages(t *testing.T) {
	a, err := New(Config{APIKey: "key"})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := a.CreateCompletion(context.Background(), core.ChatCompletionRequest{Model: "m"}); err == nil {
		t.Fatal("expected error for empty messages")
	}
}
