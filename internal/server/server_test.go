package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/omnikernel/internal/cache"
	"github.com/ppiankov/omnikernel/internal/model"
	"github.com/ppiankov/omnikernel/internal/pipeline"
	"github.com/ppiankov/omnikernel/internal/speech"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSynthesizer struct {
	err   error
	calls int
}

func (f *fakeSynthesizer) Name() string { return "fake" }

func (f *fakeSynthesizer) Synthesize(ctx context.Context, req speech.Request) (*speech.Audio, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &speech.Audio{Data: []byte("ID3-fake"), Format: "mp3", Chunks: 1}, nil
}

func newTestServer(t *testing.T, synth speech.Synthesizer) *Server {
	t.Helper()

	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false

	p, err := pipeline.NewPipeline(cfg, nil)
	require.NoError(t, err)
	if synth != nil {
		c := cache.NewMemoryCache(time.Minute, time.Minute)
		p.WithNarrator(speech.NewNarratorWithProvider(synth, speech.DefaultConfig(), c, nil))
	}

	return NewServer(p, cfg.Server, nil)
}

func do(s *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestRequestIDIsEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)

	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-Id"))
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/analyze", `{"prompt":"La verdad & la salud"}`)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		SemanticResponse string               `json:"semantic_response"`
		ForensicReport   model.ForensicReport `json:"forensic_report"`
		Matches          []string             `json:"matched_keywords"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, strings.HasPrefix(body.SemanticResponse, "DICTAMEN SEMÁNTICO TCDS:"))
	assert.Equal(t, model.VerdictEstable, body.ForensicReport.FinalVerdict)
	assert.Equal(t, "La verdad & la salud", body.ForensicReport.Input)
	assert.Equal(t, []string{"verdad", "salud"}, body.Matches)
	assert.NotContains(t, rec.Body.String(), `\u0026`)
}

func TestAnalyze_EmptyPrompt(t *testing.T) {
	s := newTestServer(t, nil)

	for _, body := range []string{`{"prompt":""}`, `{"prompt":"   "}`, `{}`} {
		rec := do(s, http.MethodPost, "/api/analyze", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)

		var env ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "Por favor, introduce un prompt.", env.Error.Message)
		assert.Equal(t, "empty_prompt", env.Error.Code)
	}
}

func TestAnalyze_EmptyBody(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/analyze", "/api/analyze/download"} {
		req := httptest.NewRequest(http.MethodPost, path, http.NoBody)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		s.Engine.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		var env ErrorEnvelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "empty_prompt", env.Error.Code, path)
		assert.Equal(t, "Por favor, introduce un prompt.", env.Error.Message, path)
	}
}

func TestAnalyze_InvalidJSON(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/analyze", `{"prompt":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_request")
}

func TestDownload(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/analyze/download", `{"prompt":"caos"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="tcds_forensic_report.json"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var report model.ForensicReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "caos", report.Input)
	assert.Len(t, report.Axioms, 3)
	assert.Contains(t, rec.Body.String(), "\n  \"input\": \"caos\"")
}

func TestSpeech_Disabled(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodPost, "/api/speech", `{"prompt":"caos"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "speech_disabled")
}

func TestSpeech(t *testing.T) {
	synth := &fakeSynthesizer{}
	s := newTestServer(t, synth)

	rec := do(s, http.MethodPost, "/api/speech", `{"prompt":"caos"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/mpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ID3-fake", rec.Body.String())
	assert.Equal(t, "false", rec.Header().Get("X-Narration-Cached"))

	rec = do(s, http.MethodPost, "/api/speech", `{"prompt":"caos"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Narration-Cached"))
	assert.Equal(t, 1, synth.calls)
}

func TestSpeech_EmptyPrompt(t *testing.T) {
	s := newTestServer(t, &fakeSynthesizer{})
	rec := do(s, http.MethodPost, "/api/speech", `{"prompt":""}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSpeech_ProviderFailure(t *testing.T) {
	s := newTestServer(t, &fakeSynthesizer{err: errors.New("quota exceeded")})
	rec := do(s, http.MethodPost, "/api/speech", `{"prompt":"caos"}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "quota exceeded")
}

func TestLexicon(t *testing.T) {
	s := newTestServer(t, nil)
	rec := do(s, http.MethodGet, "/api/lexicon", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Rules []model.KeywordRule `json:"rules"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Rules, 11)
	assert.Equal(t, "caos", body.Rules[0].Key)
	assert.Equal(t, "innovación", body.Rules[5].Key)
	assert.Equal(t, "incoherente", body.Rules[10].Key)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	s.Engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	cfg.Server.Addr = "127.0.0.1:0"

	p, err := pipeline.NewPipeline(cfg, nil)
	require.NoError(t, err)
	s := NewServer(p, cfg.Server, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
