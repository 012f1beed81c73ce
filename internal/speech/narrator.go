package speech

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/omnikernel/internal/cache"
	"github.com/ppiankov/omnikernel/internal/logging"
	"github.com/ppiankov/omnikernel/internal/model"
)

// Narrator renders dictamen text to audio through a provider, with caching.
// A nil provider means narration is disabled.
type Narrator struct {
	provider Synthesizer
	cache    cache.Cache
	config   Config
	log      *logging.Logger
}

// NewNarrator creates a narrator for the configured provider
func NewNarrator(config Config, c cache.Cache, log *logging.Logger) (*Narrator, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, fmt.Errorf("create speech provider: %w", err)
	}
	return NewNarratorWithProvider(provider, config, c, log), nil
}

// NewNarratorWithProvider creates a narrator around an existing provider
func NewNarratorWithProvider(provider Synthesizer, config Config, c cache.Cache, log *logging.Logger) *Narrator {
	if log == nil {
		log = logging.Nop()
	}
	return &Narrator{
		provider: provider,
		cache:    c,
		config:   config,
		log:      log.With("component", "speech"),
	}
}

// IsEnabled reports whether a provider is configured
func (n *Narrator) IsEnabled() bool {
	return n != nil && n.provider != nil
}

// Provider returns the provider name, or "" when disabled
func (n *Narrator) Provider() string {
	if !n.IsEnabled() {
		return ""
	}
	return n.provider.Name()
}

// Narrate synthesizes text, serving repeated requests from the cache
func (n *Narrator) Narrate(ctx context.Context, text string) (*model.Narration, error) {
	if !n.IsEnabled() {
		return nil, ErrDisabled
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	name := n.provider.Name()
	key := n.cacheKey(name, text)

	if n.cache != nil {
		if data, ok := n.cache.Get(key); ok {
			n.log.Debug("narration cache hit", "provider", name, "bytes", len(data))
			return n.narration(data, true), nil
		}
	}

	if n.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.config.Timeout)
		defer cancel()
	}

	audio, err := n.provider.Synthesize(ctx, n.config.request(text))
	if err != nil {
		return nil, fmt.Errorf("%s synthesis: %w", name, err)
	}
	n.log.Debug("narration synthesized", "provider", name, "bytes", len(audio.Data), "chunks", audio.Chunks)

	if n.cache != nil {
		if err := n.cache.Set(key, audio.Data, 0); err != nil {
			n.log.Warn("narration cache write failed", "error", err)
		}
	}

	return n.narration(audio.Data, false), nil
}

// cacheKey covers every setting that reaches the provider request
func (n *Narrator) cacheKey(provider, text string) string {
	speed := n.config.Speed
	if speed <= 0 {
		speed = 1
	}
	return cache.NarrationKey(provider, n.config.Model, n.config.Voice,
		n.config.Lang+"-"+n.config.TLD, speed, text)
}

func (n *Narrator) narration(data []byte, cached bool) *model.Narration {
	return &model.Narration{
		Provider: n.provider.Name(),
		Voice:    n.config.Voice,
		Format:   "mp3",
		Bytes:    len(data),
		Cached:   cached,
		Audio:    data,
	}
}
