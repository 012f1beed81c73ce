package speech

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestOpenAIProvider_Synthesize_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			t.Errorf("Expected path /audio/speech, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("Expected Authorization header Bearer test-key, got %s", r.Header.Get("Authorization"))
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if body["model"] != "tts-1" {
			t.Errorf("Expected model tts-1, got %v", body["model"])
		}
		if body["voice"] != "onyx" {
			t.Errorf("Expected voice onyx, got %v", body["voice"])
		}
		if !strings.HasPrefix(body["input"].(string), "DICTAMEN") {
			t.Errorf("Unexpected input: %v", body["input"])
		}

		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-audio"))
	}))
	defer server.Close()

	provider, err := NewOpenAIProvider(Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	audio, err := provider.Synthesize(context.Background(), Request{Text: "DICTAMEN SEMÁNTICO TCDS: prueba", Speed: 1})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if string(audio.Data) != "ID3-audio" {
		t.Errorf("Unexpected audio: %q", audio.Data)
	}
	if audio.Chunks != 1 {
		t.Errorf("Expected 1 chunk, got %d", audio.Chunks)
	}
	if provider.Name() != "openai" {
		t.Errorf("Expected name openai, got %s", provider.Name())
	}
}

func TestOpenAIProvider_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
	}))
	defer server.Close()

	provider, _ := NewOpenAIProvider(Config{APIKey: "bad-key", BaseURL: server.URL})

	if _, err := provider.Synthesize(context.Background(), Request{Text: "hola"}); err == nil {
		t.Fatal("Expected API error, got nil")
	}
}

func TestOpenAIProvider_MissingAPIKey(t *testing.T) {
	if _, err := NewOpenAIProvider(Config{}); err == nil {
		t.Fatal("Expected error for missing API key")
	}
}
