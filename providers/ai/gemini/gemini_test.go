package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/leofalp/chatwidget/providers/ai"
)

func newTestProvider(url string) *GeminiProvider {
	return New().WithAPIKey("test-key").WithBaseURL(url).(*GeminiProvider)
}

func userTurn(text string) ai.Turn {
	return ai.Turn{Role: ai.RoleUser, Parts: []ai.Part{ai.TextPart(text)}}
}

func TestNew(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("GEMINI_API_BASE_URL", "")

	provider := New()
	if provider.baseURL != defaultBaseURL {
		t.Errorf("expected baseURL %q, got %q", defaultBaseURL, provider.baseURL)
	}
	if provider.apiKey != "env-key" {
		t.Errorf("expected apiKey from env, got %q", provider.apiKey)
	}
}

func TestWithBaseURL(t *testing.T) {
	provider := New().WithBaseURL("https://custom.api.com/").(*GeminiProvider)
	if provider.baseURL != "https://custom.api.com" {
		t.Errorf("expected trailing slash trimmed, got %q", provider.baseURL)
	}
	provider.WithBaseURL("")
	if provider.baseURL != "https://custom.api.com" {
		t.Errorf("expected empty base URL to be ignored, got %q", provider.baseURL)
	}
}

func TestSendMessage_Basic(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/gemini-1.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("missing or incorrect x-goog-api-key header: %s", r.Header.Get("x-goog-api-key"))
		}
		if r.Header.Get("Authorization") != "" {
			t.Errorf("unexpected Authorization header: %s", r.Header.Get("Authorization"))
		}

		var req generateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Contents) != 1 || req.Contents[0].Role != "user" || req.Contents[0].Parts[0].Text != "Hello" {
			t.Errorf("unexpected contents: %+v", req.Contents)
		}

		resp := generateContentResponse{
			Candidates: []candidate{{
				Content:      &content{Role: "model", Parts: []part{{Text: "Hi there"}}},
				FinishReason: "STOP",
			}},
			UsageMetadata: &usageMetadata{PromptTokenCount: 3, CandidatesTokenCount: 2, TotalTokenCount: 5},
			ResponseID:    "resp-1",
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	result, err := newTestProvider(server.URL).SendMessage(context.Background(), ai.ChatRequest{
		Turns: []ai.Turn{userTurn("Hello")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Content != "Hi there" {
		t.Errorf("Content = %q", result.Content)
	}
	if result.Model != defaultModel {
		t.Errorf("Model = %q, want default", result.Model)
	}
	if result.Id != "resp-1" || result.FinishReason != "stop" {
		t.Errorf("unexpected response metadata: %+v", result)
	}
	if result.Usage == nil || result.Usage.TotalTokens != 5 {
		t.Errorf("unexpected usage: %+v", result.Usage)
	}
}

func TestSendMessage_MissingAPIKey(t *testing.T) {
	provider := New().WithAPIKey("").(*GeminiProvider)
	_, err := provider.SendMessage(context.Background(), ai.ChatRequest{Turns: []ai.Turn{userTurn("x")}})

	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Kind != ai.ErrorKindAuth {
		t.Fatalf("expected auth ProviderError, got %v", err)
	}
}

func TestSendMessage_EmptyRequest(t *testing.T) {
	_, err := newTestProvider("http://unused").SendMessage(context.Background(), ai.ChatRequest{})

	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Kind != ai.ErrorKindInvalidRequest {
		t.Fatalf("expected invalid_request ProviderError, got %v", err)
	}
}

func TestSendMessage_HTTPErrorClassification(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ai.ErrorKind
		wantMessage string
	}{
		{"unauthorized", 401, `{"error":{"code":401,"message":"API key not valid"}}`, ai.ErrorKindAuth, "API key not valid"},
		{"forbidden", 403, `{"error":{"message":"denied"}}`, ai.ErrorKindAuth, "denied"},
		{"quota", 429, `{"error":{"code":429,"message":"Resource has been exhausted","status":"RESOURCE_EXHAUSTED"}}`, ai.ErrorKindQuota, "Resource has been exhausted"},
		{"bad request", 400, `{"error":{"message":"Invalid value at contents"}}`, ai.ErrorKindInvalidRequest, "Invalid value at contents"},
		{"not found", 404, `{"error":{"message":"model not found"`, ai.ErrorKindInvalidRequest, "model not found"},
		{"server", 503, `upstream unavailable`, ai.ErrorKindServer, "Service Unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestProvider(server.URL).SendMessage(context.Background(), ai.ChatRequest{Turns: []ai.Turn{userTurn("x")}})

			var pe *ai.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ai.ProviderError, got %T: %v", err, err)
			}
			if pe.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", pe.Kind, tt.wantKind)
			}
			if pe.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", pe.StatusCode, tt.status)
			}
			if pe.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", pe.Message, tt.wantMessage)
			}
			if !errors.Is(err, ai.ErrProvider) {
				t.Error("expected errors.Is(err, ai.ErrProvider)")
			}
		})
	}
}

func TestSendMessage_PromptBlocked(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"promptFeedback":{"blockReason":"SAFETY"}}`)
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).SendMessage(context.Background(), ai.ChatRequest{Turns: []ai.Turn{userTurn("x")}})

	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Kind != ai.ErrorKindSafety {
		t.Fatalf("expected safety ProviderError, got %v", err)
	}
	if !strings.Contains(pe.Message, "SAFETY") {
		t.Errorf("expected block reason in message, got %q", pe.Message)
	}
}

func TestSendMessage_UndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>gateway</html>`)
	}))
	defer server.Close()

	_, err := newTestProvider(server.URL).SendMessage(context.Background(), ai.ChatRequest{Turns: []ai.Turn{userTurn("x")}})

	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Kind != ai.ErrorKindBadResponse {
		t.Fatalf("expected bad_response ProviderError, got %v", err)
	}
}

func TestSendMessage_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		fmt.Fprint(w, `{}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := newTestProvider(server.URL).SendMessage(ctx, ai.ChatRequest{Turns: []ai.Turn{userTurn("x")}})

	var pe *ai.ProviderError
	if !errors.As(err, &pe) || pe.Kind != ai.ErrorKindNetwork {
		t.Fatalf("expected network ProviderError, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("expected deadline to be reachable through Unwrap")
	}
}

func TestSendMessage_CustomModelInPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.0-flash:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]},"finishReason":"STOP"}],"modelVersion":"gemini-2.0-flash-001"}`)
	}))
	defer server.Close()

	result, err := newTestProvider(server.URL).SendMessage(context.Background(), ai.ChatRequest{
		Model: "gemini-2.0-flash",
		Turns: []ai.Turn{userTurn("x")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Model != "gemini-2.0-flash-001" {
		t.Errorf("expected model version from response, got %q", result.Model)
	}
}
