package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/omnikernel/internal/util"
	"github.com/ppiankov/omnikernel/internal/worker"
)

const (
	googleChunkLimit = 100 // Max characters per translate_tts request
	googleMaxRetries = 3
	googleUserAgent  = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// googleBackoff returns the pause before retry attempt n (injectable for tests)
var googleBackoff = func(attempt int) time.Duration {
	return time.Duration(attempt) * 500 * time.Millisecond
}

// GoogleProvider narrates through the Google Translate TTS endpoint.
// Text is split into short chunks, each fetched as mp3 and concatenated.
type GoogleProvider struct {
	baseURL    string
	httpClient *http.Client
	limiter    *worker.Limiter
	config     Config
}

// NewGoogleProvider creates a new Google Translate TTS provider
func NewGoogleProvider(config Config) (*GoogleProvider, error) {
	tld := config.TLD
	if tld == "" {
		tld = "com"
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://translate.google." + tld
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &GoogleProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		limiter:    worker.NewLimiter(config.RequestsPerSecond, config.BurstSize),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return "google"
}

// Synthesize fetches every chunk in order and concatenates the mp3 frames
func (p *GoogleProvider) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	chunks := SplitText(req.Text, googleChunkLimit)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}

	lang := req.Lang
	if lang == "" {
		lang = "es"
	}
	speed := req.Speed
	if speed <= 0 {
		speed = 1
	}

	var buf bytes.Buffer
	for i, chunk := range chunks {
		endpoint := p.chunkURL(chunk, lang, speed, i, len(chunks))

		if err := p.limiter.Wait(ctx, endpoint); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}

		data, err := p.fetchWithRetry(ctx, endpoint)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		buf.Write(data)
	}

	return &Audio{
		Data:   buf.Bytes(),
		Format: "mp3",
		Chunks: len(chunks),
	}, nil
}

func (p *GoogleProvider) chunkURL(chunk, lang string, speed float64, idx, total int) string {
	q := url.Values{}
	q.Set("ie", "UTF-8")
	q.Set("q", chunk)
	q.Set("tl", lang)
	q.Set("client", "tw-ob")
	q.Set("ttsspeed", strconv.FormatFloat(speed, 'f', -1, 64))
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))
	return p.baseURL + "/translate_tts?" + q.Encode()
}

// fetchWithRetry retries transient failures (network errors, 429, 5xx)
func (p *GoogleProvider) fetchWithRetry(ctx context.Context, endpoint string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < googleMaxRetries; attempt++ {
		if attempt > 0 {
			// Retries are paced like first attempts and end with ctx
			if err := p.limiter.WaitWithDelay(ctx, endpoint, googleBackoff(attempt)); err != nil {
				return nil, fmt.Errorf("%w (last error: %v)", err, lastErr)
			}
		}

		data, retryable, err := p.fetch(ctx, endpoint)
		if err == nil {
			return data, nil
		}
		lastErr = err

		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (p *GoogleProvider) fetch(ctx context.Context, endpoint string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", googleUserAgent)
	req.Header.Set("Referer", p.baseURL+"/")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retryable, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if len(body) == 0 {
		return nil, false, fmt.Errorf("empty audio response")
	}

	return body, false, nil
}
