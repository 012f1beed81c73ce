package speech

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

func init() {
	// No pause between retries unless a test asks for one
	googleBackoff = func(int) time.Duration { return 0 }
}

func TestGoogleProvider_Synthesize(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/translate_tts" {
			t.Errorf("Expected path /translate_tts, got %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("tl") != "es" {
			t.Errorf("Expected tl=es, got %s", q.Get("tl"))
		}
		if q.Get("client") != "tw-ob" {
			t.Errorf("Expected client=tw-ob, got %s", q.Get("client"))
		}
		if q.Get("total") != "2" {
			t.Errorf("Expected total=2, got %s", q.Get("total"))
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("mp3-" + q.Get("idx") + ";"))
	}))
	defer server.Close()

	provider, err := NewGoogleProvider(Config{BaseURL: server.URL, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	long := "La conciencia analizada no logra sostener coherencia frente a su entorno y se fragmenta en el intento. Sus acciones no dejan huella."
	audio, err := provider.Synthesize(context.Background(), Request{Text: long, Lang: "es"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}

	if audio.Chunks != 2 {
		t.Errorf("Expected 2 chunks, got %d", audio.Chunks)
	}
	if string(audio.Data) != "mp3-0;mp3-1;" {
		t.Errorf("Expected chunks concatenated in order, got %q", audio.Data)
	}
	if audio.Format != "mp3" {
		t.Errorf("Expected mp3 format, got %s", audio.Format)
	}
	if requests.Load() != 2 {
		t.Errorf("Expected 2 requests, got %d", requests.Load())
	}
}

func TestGoogleProvider_DefaultBaseURLUsesTLD(t *testing.T) {
	provider, err := NewGoogleProvider(Config{TLD: "com.mx"})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}
	if provider.baseURL != "https://translate.google.com.mx" {
		t.Errorf("Unexpected base URL: %s", provider.baseURL)
	}

	u := provider.chunkURL("hola", "es", 1, 0, 1)
	want := "https://translate.google.com.mx/translate_tts?client=tw-ob&idx=0&ie=UTF-8&q=hola&textlen=4&tl=es&total=1&ttsspeed=1"
	if u != want {
		t.Errorf("Unexpected chunk URL:\n got %s\nwant %s", u, want)
	}
}

func TestGoogleProvider_RetriesTransientErrors(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("audio"))
	}))
	defer server.Close()

	provider, _ := NewGoogleProvider(Config{BaseURL: server.URL})
	audio, err := provider.Synthesize(context.Background(), Request{Text: "hola"})
	if err != nil {
		t.Fatalf("Expected success after retries, got %v", err)
	}
	if string(audio.Data) != "audio" {
		t.Errorf("Unexpected audio: %q", audio.Data)
	}
	if attempts.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts.Load())
	}
}

func TestGoogleProvider_BackoffStopsAtDeadline(t *testing.T) {
	orig := googleBackoff
	googleBackoff = func(int) time.Duration { return time.Hour }
	defer func() { googleBackoff = orig }()

	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider, _ := NewGoogleProvider(Config{BaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := provider.Synthesize(ctx, Request{Text: "hola"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Expected deadline error, got %v", err)
	}
	if d := time.Since(start); d > 2*time.Second {
		t.Errorf("Expected prompt return, took %v", d)
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected a single attempt before the deadline, got %d", attempts.Load())
	}
}

func TestGoogleProvider_NoRetryOnClientError(t *testing.T) {
	var attempts atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	provider, _ := NewGoogleProvider(Config{BaseURL: server.URL})
	if _, err := provider.Synthesize(context.Background(), Request{Text: "hola"}); err == nil {
		t.Fatal("Expected error for 403")
	}
	if attempts.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", attempts.Load())
	}
}

func TestGoogleProvider_EmptyBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider, _ := NewGoogleProvider(Config{BaseURL: server.URL})
	if _, err := provider.Synthesize(context.Background(), Request{Text: "hola"}); err == nil {
		t.Fatal("Expected error for empty audio")
	}
}

func TestGoogleProvider_EmptyText(t *testing.T) {
	provider, _ := NewGoogleProvider(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := provider.Synthesize(context.Background(), Request{Text: "  "}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("Expected ErrEmptyText, got %v", err)
	}
}

func TestGoogleProvider_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(strconv.Itoa(1)))
	}))
	defer server.Close()

	provider, _ := NewGoogleProvider(Config{BaseURL: server.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := provider.Synthesize(ctx, Request{Text: "hola"}); err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
}
