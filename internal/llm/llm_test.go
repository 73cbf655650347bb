package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ziadkadry99/dmrelay/internal/config"
)

func generationConfig(provider config.ProviderType) config.GenerationConfig {
	cfg := config.DefaultConfig().Generation
	cfg.Provider = provider
	return cfg
}

// --- Factory ---

func TestFactoryReturnsErrorForMissingOpenAIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewProvider(generationConfig(config.ProviderOpenAI)); err == nil {
		t.Error("expected error for openai with missing API key")
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	if _, err := NewProvider(generationConfig("unknown")); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestFactoryCreatesHuggingFaceWithoutToken(t *testing.T) {
	t.Setenv("HF_API_TOKEN", "")
	provider, err := NewProvider(generationConfig(config.ProviderHuggingFace))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hf, ok := provider.(*HuggingFaceProvider)
	if !ok {
		t.Fatal("expected *HuggingFaceProvider")
	}
	want := "https://api-inference.huggingface.co/models/facebook/mbart-large-50"
	if hf.endpoint != want {
		t.Errorf("endpoint = %q, want %q", hf.endpoint, want)
	}
	if hf.token != "" {
		t.Errorf("expected empty token, got %q", hf.token)
	}
}

func TestFactoryHuggingFaceEndpointOverride(t *testing.T) {
	t.Setenv("HF_API_TOKEN", "hf_test")
	cfg := generationConfig(config.ProviderHuggingFace)
	cfg.Endpoint = "http://mbart.internal/generate"

	provider, err := NewProvider(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hf := provider.(*HuggingFaceProvider)
	if hf.endpoint != cfg.Endpoint {
		t.Errorf("endpoint = %q, want %q", hf.endpoint, cfg.Endpoint)
	}
	if hf.token != "hf_test" {
		t.Errorf("token = %q, want hf_test", hf.token)
	}
}

func TestFactoryCreatesOllamaWithDefaultHost(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "")
	provider, err := NewProvider(generationConfig(config.ProviderOllama))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ollamaP, ok := provider.(*OllamaProvider)
	if !ok {
		t.Fatal("expected *OllamaProvider")
	}
	if ollamaP.baseURL != DefaultOllamaHost {
		t.Errorf("expected default host, got %q", ollamaP.baseURL)
	}
	if ollamaP.model != "llama3" {
		t.Errorf("expected default model llama3, got %q", ollamaP.model)
	}
}

func TestFactoryOllamaHostWithoutScheme(t *testing.T) {
	t.Setenv("OLLAMA_HOST", "10.0.0.5:11434")
	provider, err := NewProvider(generationConfig(config.ProviderOllama))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := provider.(*OllamaProvider).baseURL; got != "http://10.0.0.5:11434" {
		t.Errorf("baseURL = %q", got)
	}
}

func TestFactoryCreatesOpenAIProvider(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	provider, err := NewProvider(generationConfig(config.ProviderOpenAI))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if provider.Name() != "openai" {
		t.Errorf("expected name 'openai', got %q", provider.Name())
	}
}

// --- Hugging Face ---

func TestHuggingFaceSendsForcedToken(t *testing.T) {
	var got hfRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"generated_text":"Bonjour, merci pour votre message."}]`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider(srv.URL+"/models/facebook/mbart-large-50", "hf_secret")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Prompt:        "Bonjour",
		Language:      "fr",
		LanguageToken: "fr_XX",
		MaxTokens:     100,
		NumCandidates: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if auth != "Bearer hf_secret" {
		t.Errorf("Authorization = %q", auth)
	}
	if got.Inputs != "Bonjour" {
		t.Errorf("inputs = %q", got.Inputs)
	}
	if got.Parameters.ForcedBOSToken != "fr_XX" {
		t.Errorf("forced_bos_token = %q, want fr_XX", got.Parameters.ForcedBOSToken)
	}
	if got.Parameters.MaxLength != 100 || got.Parameters.NumReturnSequences != 1 {
		t.Errorf("parameters = %+v", got.Parameters)
	}
	if !got.Options.WaitForModel {
		t.Error("expected wait_for_model")
	}

	if len(resp.Candidates) != 1 || resp.Candidates[0].Text != "Bonjour, merci pour votre message." {
		t.Errorf("candidates = %+v", resp.Candidates)
	}
	if resp.Model != "facebook/mbart-large-50" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestHuggingFaceErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error":"Model facebook/mbart-large-50 is currently loading"}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider(srv.URL, "")
	_, err := p.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	if err == nil {
		t.Fatal("expected error for 503")
	}
	if !strings.Contains(err.Error(), "currently loading") {
		t.Errorf("error should carry upstream message, got %v", err)
	}
}

func TestHuggingFaceMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"generated_text":"not an array"}`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider(srv.URL, "")
	if _, err := p.Complete(context.Background(), CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for non-array body")
	}
}

func TestHuggingFaceHonorsContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewHuggingFaceProvider(srv.URL, "")
	if _, err := p.Complete(ctx, CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}

// --- Ollama ---

func TestOllamaForcesLanguageInSystemPrompt(t *testing.T) {
	var got ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"Hallo!"},"done":true}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "llama3")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Prompt:       "Hallo",
		Language:     "de",
		LanguageName: "German",
		MaxTokens:    100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got.Messages) != 2 || got.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", got.Messages)
	}
	if !strings.Contains(got.Messages[0].Content, "German") {
		t.Errorf("system prompt should name the language: %q", got.Messages[0].Content)
	}
	if got.Messages[1].Content != "Hallo" {
		t.Errorf("user message = %q", got.Messages[1].Content)
	}
	if got.Options.NumPredict != 100 {
		t.Errorf("num_predict = %d", got.Options.NumPredict)
	}
	if got.Stream {
		t.Error("stream must be false")
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Text != "Hallo!" {
		t.Errorf("candidates = %+v", resp.Candidates)
	}
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "missing")
	if _, err := p.Complete(context.Background(), CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for 404")
	}
}

// --- OpenAI ---

func TestOpenAIRequestsCandidates(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [
				{"index": 0, "message": {"role": "assistant", "content": "Ciao!"}, "finish_reason": "stop"}
			]
		}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider("test-key", srv.URL+"/v1", "gpt-4o-mini")
	resp, err := p.Complete(context.Background(), CompletionRequest{
		Prompt:        "Ciao",
		Language:      "it",
		LanguageName:  "Italian",
		MaxTokens:     100,
		NumCandidates: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["model"] != "gpt-4o-mini" {
		t.Errorf("model = %v", got["model"])
	}
	if got["n"] != float64(1) {
		t.Errorf("n = %v", got["n"])
	}
	if got["max_tokens"] != float64(100) {
		t.Errorf("max_tokens = %v", got["max_tokens"])
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Text != "Ciao!" {
		t.Errorf("candidates = %+v", resp.Candidates)
	}
}

func TestChatMessagesFallsBackToCode(t *testing.T) {
	msgs := chatMessages(CompletionRequest{Prompt: "x", Language: "sw"})
	if !strings.Contains(msgs[0].Content, "sw") {
		t.Errorf("expected language code in system prompt, got %q", msgs[0].Content)
	}
}

func TestHuggingFaceClientHasTimeout(t *testing.T) {
	p := NewHuggingFaceProvider(DefaultHuggingFaceBaseURL+"/facebook/mbart-large-50", "")
	if p.client.Timeout != huggingFaceTimeout {
		t.Errorf("client timeout = %v, want %v", p.client.Timeout, huggingFaceTimeout)
	}
}

func TestHuggingFaceResponseIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"generated_text":"` + strings.Repeat("a", maxHuggingFaceResponse) + `"}]`))
	}))
	defer srv.Close()

	p := NewHuggingFaceProvider(srv.URL, "")
	if _, err := p.Complete(context.Background(), CompletionRequest{Prompt: "hi"}); err == nil {
		t.Fatal("expected error for oversized response body")
	}
}
