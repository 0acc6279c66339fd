package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestNewProvider_Unknown(t *testing.T) {
	if _, err := NewProvider("nope", ProviderConfig{}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewProvider_MissingKey(t *testing.T) {
	for _, name := range []string{"gemini", "openai", "anthropic", "openrouter"} {
		t.Run(name, func(t *testing.T) {
			_, err := NewProvider(name, ProviderConfig{})
			if !errors.Is(err, ErrMissingAPIKey) {
				t.Errorf("NewProvider(%s) error = %v, want ErrMissingAPIKey", name, err)
			}
		})
	}

	// Ollama is self-hosted and needs no key.
	p, err := NewProvider("ollama", ProviderConfig{})
	if err != nil {
		t.Fatalf("ollama: unexpected error %v", err)
	}
	if p.Model() != DefaultModels["ollama"] {
		t.Errorf("ollama model = %q", p.Model())
	}
}

func TestNewProvider_DefaultModels(t *testing.T) {
	for _, name := range []string{"gemini", "openai", "anthropic", "openrouter"} {
		p, err := NewProvider(name, ProviderConfig{APIKey: "k"})
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if p.Name() != name {
			t.Errorf("Name() = %q, want %q", p.Name(), name)
		}
		if p.Model() != DefaultModels[name] {
			t.Errorf("%s model = %q, want %q", name, p.Model(), DefaultModels[name])
		}
	}
	if DefaultModels["gemini"] != "gemini-2.0-flash-lite" {
		t.Errorf("gemini default = %q", DefaultModels["gemini"])
	}
}

func TestAvailableProviders(t *testing.T) {
	want := []string{"anthropic", "gemini", "ollama", "openai", "openrouter"}
	got := AvailableProviders()
	if len(got) != len(want) {
		t.Fatalf("AvailableProviders() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("AvailableProviders()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "from-google")
	if got := APIKeyFromEnv("gemini"); got != "from-google" {
		t.Errorf("fallback env = %q", got)
	}

	t.Setenv("GEMINI_API_KEY", "from-gemini")
	if got := APIKeyFromEnv("gemini"); got != "from-gemini" {
		t.Errorf("primary env = %q", got)
	}

	if got := APIKeyFromEnv("ollama"); got != "" {
		t.Errorf("ollama key = %q, want empty", got)
	}
	if RequiresAPIKey("ollama") || !RequiresAPIKey("gemini") {
		t.Error("RequiresAPIKey mismatch")
	}
}

func TestSplitSystem(t *testing.T) {
	system, rest := splitSystem([]Message{
		{Role: RoleSystem, Content: "a"},
		{Role: RoleUser, Content: "u"},
		{Role: RoleSystem, Content: "b"},
	})
	if system != "a\n\nb" {
		t.Errorf("system = %q", system)
	}
	if len(rest) != 1 || rest[0].Content != "u" {
		t.Errorf("rest = %+v", rest)
	}
}

// geminiServer answers generateContent with reply and records the request body.
func geminiServer(t *testing.T, reply string, got *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("path = %s", r.URL.Path)
		}
		if key := r.Header.Get("x-goog-api-key"); key != "g-key" {
			t.Errorf("x-goog-api-key = %q", key)
		}
		if got != nil {
			if err := json.NewDecoder(r.Body).Decode(got); err != nil {
				t.Errorf("decode: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestGemini(t *testing.T, baseURL string) *GeminiProvider {
	t.Helper()
	p, err := NewGeminiProvider(ProviderConfig{APIKey: "g-key", BaseURL: baseURL, Model: "gemini-test"})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func TestGeminiProvider_Execute(t *testing.T) {
	var body map[string]any
	srv := geminiServer(t, `{
		"candidates": [{
			"content": {"role": "model", "parts": [
				{"text": "thinking...", "thought": true},
				{"text": "clean"},
				{"text": "ed"}
			]},
			"finishReason": "STOP"
		}],
		"usageMetadata": {"promptTokenCount": 21, "candidatesTokenCount": 4},
		"modelVersion": "gemini-test-001"
	}`, &body)

	resp, err := newTestGemini(t, srv.URL).Execute(context.Background(), Request{
		Messages: []Message{
			{Role: RoleSystem, Content: "sys prompt"},
			{Role: RoleUser, Content: "chunk text"},
		},
		MaxTokens: 256,
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if resp.Content != "cleaned" {
		t.Errorf("Content = %q, want thought parts skipped", resp.Content)
	}
	if resp.FinishReason != "STOP" || resp.Model != "gemini-test-001" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Usage != (Usage{InputTokens: 21, OutputTokens: 4}) {
		t.Errorf("usage = %+v", resp.Usage)
	}

	raw, _ := json.Marshal(body)
	for _, want := range []string{`"systemInstruction"`, `"sys prompt"`, `"chunk text"`, `"maxOutputTokens":256`} {
		if !strings.Contains(string(raw), want) {
			t.Errorf("request body missing %s: %s", want, raw)
		}
	}
	contents, _ := body["contents"].([]any)
	if len(contents) != 1 {
		t.Fatalf("contents = %v, want only the user message", body["contents"])
	}
	if role := contents[0].(map[string]any)["role"]; role != "user" {
		t.Errorf("role = %v", role)
	}
}

func TestGeminiProvider_NoCandidates(t *testing.T) {
	srv := geminiServer(t, `{"candidates": []}`, nil)

	_, err := newTestGemini(t, srv.URL).Execute(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestGeminiProvider_BlockedCandidate(t *testing.T) {
	srv := geminiServer(t, `{"candidates": [{"finishReason": "SAFETY"}]}`, nil)

	resp, err := newTestGemini(t, srv.URL).Execute(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("Execute() = %+v, %v; want ErrEmptyResponse", resp, err)
	}
	if !strings.Contains(err.Error(), "SAFETY") {
		t.Errorf("error %q does not name the finish reason", err)
	}
}

func TestOpenAIProvider_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Model != "gpt-test" || len(body.Messages) != 2 || body.Messages[0].Role != "system" {
			t.Errorf("unexpected request: %+v", body)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "c1", "object": "chat.completion", "created": 1, "model": "gpt-test-0001",
			"choices": [{"index": 0, "finish_reason": "stop",
				"message": {"role": "assistant", "content": "cleaned"}}],
			"usage": {"prompt_tokens": 11, "completion_tokens": 3, "total_tokens": 14}
		}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "sk-test", BaseURL: srv.URL, Model: "gpt-test"})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := p.Execute(context.Background(), Request{Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "user"},
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Content != "cleaned" || resp.Model != "gpt-test-0001" || resp.FinishReason != "stop" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Usage != (Usage{InputTokens: 11, OutputTokens: 3}) {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestOpenAIProvider_NoRetry(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"message": "boom", "type": "server_error"}}`))
	}))
	defer srv.Close()

	p, err := NewOpenAIProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := p.Execute(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}}); err == nil {
		t.Fatal("expected error")
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("server saw %d calls, want 1", n)
	}
}

func TestOpenAIProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "c", "object": "chat.completion", "model": "m", "choices": []}`))
	}))
	defer srv.Close()

	p, _ := NewOpenAIProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	_, err := p.Execute(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("error = %v, want ErrEmptyResponse", err)
	}
}

func TestOpenRouterProvider_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("HTTP-Referer"); got != "https://example.com" {
			t.Errorf("HTTP-Referer = %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "pagewash" {
			t.Errorf("X-Title = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "c", "object": "chat.completion", "model": "routed/model",
			"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "ok"}}]}`))
	}))
	defer srv.Close()

	p, err := NewOpenRouterProvider(ProviderConfig{
		APIKey:      "k",
		BaseURL:     srv.URL,
		HTTPReferer: "https://example.com",
		AppTitle:    "pagewash",
	})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Execute(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Content != "ok" || resp.Model != "routed/model" || p.Name() != "openrouter" {
		t.Errorf("resp = %+v name = %s", resp, p.Name())
	}
}

func TestAnthropicProvider_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body struct {
			System []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []json.RawMessage `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if len(body.System) != 1 || body.System[0].Text != "sys" || len(body.Messages) != 1 {
			t.Errorf("unexpected request: %+v", body)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-test",
			"content": [{"type": "text", "text": "clean "}, {"type": "text", "text": "text"}],
			"stop_reason": "end_turn",
			"usage": {"input_tokens": 7, "output_tokens": 2}
		}`))
	}))
	defer srv.Close()

	p, err := NewAnthropicProvider(ProviderConfig{APIKey: "k", BaseURL: srv.URL})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Execute(context.Background(), Request{Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "user"},
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Content != "clean text" || resp.Model != "claude-test" || resp.FinishReason != "end_turn" {
		t.Errorf("resp = %+v", resp)
	}
	if resp.Usage.InputTokens != 7 || resp.Usage.OutputTokens != 2 {
		t.Errorf("usage = %+v", resp.Usage)
	}
}

func TestOllamaProvider_Execute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" || r.Method != http.MethodPost {
			t.Errorf("%s %s", r.Method, r.URL.Path)
		}
		var req ollamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Stream || req.Model != "llama-test" || len(req.Messages) != 2 {
			t.Errorf("unexpected request: %+v", req)
		}
		if req.Options.NumPredict != DefaultMaxTokens {
			t.Errorf("num_predict = %d", req.Options.NumPredict)
		}
		_ = json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama-test",
			Message:         ollamaMessage{Role: "assistant", Content: "hi"},
			Done:            true,
			PromptEvalCount: 5,
			EvalCount:       1,
		})
	}))
	defer srv.Close()

	p, err := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL + "/", Model: "llama-test"})
	if err != nil {
		t.Fatal(err)
	}
	resp, err := p.Execute(context.Background(), Request{Messages: []Message{
		{Role: RoleSystem, Content: "sys"},
		{Role: RoleUser, Content: "user"},
	}})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if resp.Content != "hi" || resp.FinishReason != "stop" || resp.Usage.InputTokens != 5 {
		t.Errorf("resp = %+v", resp)
	}
}

func TestOllamaProvider_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p, _ := NewOllamaProvider(ProviderConfig{BaseURL: srv.URL})
	_, err := p.Execute(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "x"}}})
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "ollama returned status 404: model not found" {
		t.Errorf("error = %q", got)
	}
}

type stubProvider struct {
	resp *Response
	err  error
}

func (s stubProvider) Execute(context.Context, Request) (*Response, error) { return s.resp, s.err }
func (s stubProvider) Name() string                                        { return "stub" }
func (s stubProvider) Model() string                                       { return "stub-model" }

func TestWithObserver(t *testing.T) {
	if p := WithObserver(stubProvider{}, nil); p != (stubProvider{}) {
		t.Error("nil observer should return provider unchanged")
	}

	var events []CallEvent
	obs := ObserverFunc(func(_ context.Context, e CallEvent) { events = append(events, e) })

	ok := WithObserver(stubProvider{resp: &Response{Content: "x", Model: "served", Usage: Usage{InputTokens: 2, OutputTokens: 1}, FinishReason: "stop"}}, obs)
	if _, err := ok.Execute(context.Background(), Request{Messages: []Message{{Content: "abc"}, {Content: "de"}}}); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	bad := WithObserver(stubProvider{err: boom}, MultiObserver{obs})
	if _, err := bad.Execute(context.Background(), Request{}); !errors.Is(err, boom) {
		t.Fatalf("error = %v", err)
	}

	if len(events) != 2 {
		t.Fatalf("got %d events", len(events))
	}
	if e := events[0]; e.Provider != "stub" || e.Model != "served" || e.InputChars != 5 || e.Usage.OutputTokens != 1 || e.Err != nil {
		t.Errorf("success event = %+v", e)
	}
	if e := events[1]; e.Model != "stub-model" || !errors.Is(e.Err, boom) {
		t.Errorf("failure event = %+v", e)
	}
}

func TestUsage_Add(t *testing.T) {
	got := Usage{InputTokens: 1, OutputTokens: 2}.Add(Usage{InputTokens: 3, OutputTokens: 4})
	if got != (Usage{InputTokens: 4, OutputTokens: 6}) {
		t.Errorf("Add() = %+v", got)
	}
}
