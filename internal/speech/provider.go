package speech

import (
	"context"
	"errors"
	"time"

	"github.com/ppiankov/omnikernel/internal/model"
)

var (
	// ErrDisabled is returned when narration is requested without a provider
	ErrDisabled = errors.New("speech synthesis disabled")

	// ErrEmptyText is returned when there is nothing to narrate
	ErrEmptyText = errors.New("no text to synthesize")
)

// Synthesizer defines the interface for text-to-speech providers
type Synthesizer interface {
	// Name returns the provider name
	Name() string

	// Synthesize renders text to audio
	Synthesize(ctx context.Context, req Request) (*Audio, error)
}

// Request contains the input for synthesis
type Request struct {
	Text  string
	Voice string  // Provider-specific voice name
	Lang  string  // BCP-47 language, e.g. "es"
	TLD   string  // Regional accent hint for Google, e.g. "com.mx"
	Speed float64 // 1.0 is normal speed
}

// Audio is the synthesized output
type Audio struct {
	Data   []byte
	Format string // Container format, e.g. "mp3"
	Chunks int    // Number of upstream requests needed
}

// Config holds speech provider configuration
type Config struct {
	Provider string // "google", "openai", or "" for disabled
	Model    string
	Voice    string
	Lang     string
	TLD      string
	Speed    float64
	APIKey   string
	BaseURL  string
	Timeout  time.Duration

	RequestsPerSecond float64
	BurstSize         int

	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults (narration disabled)
func DefaultConfig() Config {
	return Config{
		Lang:              "es",
		TLD:               "com.mx",
		Speed:             1.0,
		Timeout:           30 * time.Second,
		RequestsPerSecond: 2,
		BurstSize:         2,
	}
}

// ConfigFromModel converts model.SpeechConfig to speech.Config
func ConfigFromModel(c model.SpeechConfig, proxy model.ProxyConfig) Config {
	return Config{
		Provider:          c.Provider,
		Model:             c.Model,
		Voice:             c.Voice,
		Lang:              c.Lang,
		TLD:               c.TLD,
		Speed:             c.Speed,
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL,
		Timeout:           c.Timeout,
		RequestsPerSecond: c.RequestsPerSecond,
		BurstSize:         c.BurstSize,
		HTTPProxy:         proxy.HTTPProxy,
		HTTPSProxy:        proxy.HTTPSProxy,
		NoProxy:           proxy.NoProxy,
	}
}

// request builds a Request for text from the configured voice settings
func (c Config) request(text string) Request {
	return Request{
		Text:  text,
		Voice: c.Voice,
		Lang:  c.Lang,
		TLD:   c.TLD,
		Speed: c.Speed,
	}
}
