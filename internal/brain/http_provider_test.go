package brain

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/abelbrown/moviefinder/internal/config"
)

func groqServer(t *testing.T, handler func(body map[string]any) (int, string)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("request body is not JSON: %v", err)
		}
		status, resp := handler(body)
		w.WriteHeader(status)
		io.WriteString(w, resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testGroq(endpoint string) *HTTPProvider {
	return NewHTTPProvider(GroqConfig(config.ModelSettings{
		Enabled:  true,
		APIKey:   "test-key",
		Endpoint: endpoint,
		Model:    "llama-3.3-70b-versatile",
	}))
}

func TestGroqGenerate(t *testing.T) {
	var seen map[string]any
	srv := groqServer(t, func(body map[string]any) (int, string) {
		seen = body
		return 200, `{"model":"llama-3.3-70b-versatile","choices":[{"message":{"content":"Watch **Interstellar**."}}]}`
	})

	resp, err := testGroq(srv.URL).Generate(context.Background(), Request{
		SystemPrompt: "You are a movie recommendation assistant.",
		UserPrompt:   "Recommend something",
		MaxTokens:    1024,
		Temperature:  0.7,
	})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != "Watch **Interstellar**." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Model != "llama-3.3-70b-versatile" {
		t.Errorf("Model = %q", resp.Model)
	}

	if seen["model"] != "llama-3.3-70b-versatile" {
		t.Errorf("model = %v", seen["model"])
	}
	if seen["temperature"] != 0.7 {
		t.Errorf("temperature = %v", seen["temperature"])
	}
	if seen["max_tokens"] != float64(1024) {
		t.Errorf("max_tokens = %v", seen["max_tokens"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 2 {
		t.Fatalf("messages = %v", seen["messages"])
	}
	if first := msgs[0].(map[string]any); first["role"] != "system" {
		t.Errorf("first message role = %v", first["role"])
	}
}

func TestGenerateAPIError(t *testing.T) {
	srv := groqServer(t, func(map[string]any) (int, string) {
		return 429, `{"error":"rate limited"}`
	})

	_, err := testGroq(srv.URL).Generate(context.Background(), Request{UserPrompt: "x"})
	if err == nil || !strings.Contains(err.Error(), "429") {
		t.Errorf("err = %v, want status 429", err)
	}
}

func TestGenerateUnavailable(t *testing.T) {
	p := NewHTTPProvider(GroqConfig(config.ModelSettings{Model: "m"}))
	if p.Available() {
		t.Fatal("groq without a key should be unavailable")
	}
	if _, err := p.Generate(context.Background(), Request{UserPrompt: "x"}); err == nil {
		t.Error("Generate should fail when unavailable")
	}
}

func TestGenerateHonorsContext(t *testing.T) {
	p := NewHTTPProvider(&ProviderConfig{
		Name:              "slow",
		Endpoint:          "http://127.0.0.1:1",
		Model:             "m",
		NoAuth:            true,
		RequestsPerMinute: 1,
		BuildBody:         buildOllamaBody,
		ParseResponse:     parseOllamaResponse,
	})
	// Drain the single token so the next call must wait a full minute.
	p.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := p.Generate(ctx, Request{UserPrompt: "x"}); err == nil {
		t.Error("expected rate limiter wait to fail on a short deadline")
	}
}

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if !strings.HasPrefix(body["prompt"].(string), "SYS\n\n") {
			t.Errorf("prompt = %v", body["prompt"])
		}
		io.WriteString(w, `{"model":"llama3","response":"Try Alien."}`)
	}))
	defer srv.Close()

	p := NewHTTPProvider(OllamaConfig(config.ModelSettings{Enabled: true, Endpoint: srv.URL + "/", Model: "llama3"}))
	if !p.Available() {
		t.Fatal("ollama with a model should be available without a key")
	}
	resp, err := p.Generate(context.Background(), Request{SystemPrompt: "SYS", UserPrompt: "hi"})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if resp.Content != "Try Alien." {
		t.Errorf("Content = %q", resp.Content)
	}
}

func TestDetectOllamaModel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"models":[{"name":"llama3"},{"name":"qwen2.5:7b-instruct"}]}`)
	}))
	defer srv.Close()

	if got := detectOllamaModel(srv.URL); got != "qwen2.5:7b-instruct" {
		t.Errorf("detectOllamaModel = %q", got)
	}
	if got := detectOllamaModel("http://127.0.0.1:1"); got != "" {
		t.Errorf("unreachable server should yield no model, got %q", got)
	}
}
