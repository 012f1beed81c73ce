package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ppiankov/omnikernel/internal/cache"
	"github.com/ppiankov/omnikernel/internal/logging"
)

type mockSynthesizer struct {
	mu    sync.Mutex
	calls []Request
	data  []byte
	err   error
}

func (m *mockSynthesizer) Name() string { return "mock" }

func (m *mockSynthesizer) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)
	if m.err != nil {
		return nil, m.err
	}
	return &Audio{Data: m.data, Format: "mp3", Chunks: 1}, nil
}

func TestNarrator_CachesAudio(t *testing.T) {
	synth := &mockSynthesizer{data: []byte("mp3")}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	n := NewNarratorWithProvider(synth, DefaultConfig(), c, nil)

	first, err := n.Narrate(context.Background(), "  DICTAMEN  ")
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Equal(t, "mock", first.Provider)
	assert.Equal(t, 3, first.Bytes)
	assert.Equal(t, []byte("mp3"), first.Audio)

	second, err := n.Narrate(context.Background(), "DICTAMEN")
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, []byte("mp3"), second.Audio)

	require.Len(t, synth.calls, 1)
	assert.Equal(t, "DICTAMEN", synth.calls[0].Text)
	assert.Equal(t, "es", synth.calls[0].Lang)
	assert.Equal(t, "com.mx", synth.calls[0].TLD)
}

func TestNarrator_CacheKeyFollowsSettings(t *testing.T) {
	synth := &mockSynthesizer{data: []byte("mp3")}
	c := cache.NewMemoryCache(time.Minute, time.Minute)

	base := DefaultConfig()
	faster := base
	faster.Speed = 1.25
	hd := base
	hd.Model = "tts-1-hd"
	unset := base
	unset.Speed = 0 // providers treat this as normal speed

	for _, cfg := range []Config{base, faster, hd, unset} {
		n := NewNarratorWithProvider(synth, cfg, c, nil)
		_, err := n.Narrate(context.Background(), "DICTAMEN")
		require.NoError(t, err)
	}

	require.Len(t, synth.calls, 3, "model and speed changes must miss the cache")
	assert.Equal(t, 1.25, synth.calls[1].Speed)
}

func TestNarrator_WithoutCache(t *testing.T) {
	synth := &mockSynthesizer{data: []byte("mp3")}
	n := NewNarratorWithProvider(synth, DefaultConfig(), nil, nil)

	for i := 0; i < 2; i++ {
		_, err := n.Narrate(context.Background(), "hola")
		require.NoError(t, err)
	}
	assert.Len(t, synth.calls, 2)
}

func TestNarrator_Disabled(t *testing.T) {
	var nilNarrator *Narrator
	assert.False(t, nilNarrator.IsEnabled())
	assert.Equal(t, "", nilNarrator.Provider())

	n := NewNarratorWithProvider(nil, DefaultConfig(), nil, nil)
	_, err := n.Narrate(context.Background(), "hola")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNarrator_EmptyText(t *testing.T) {
	n := NewNarratorWithProvider(&mockSynthesizer{}, DefaultConfig(), nil, nil)
	_, err := n.Narrate(context.Background(), " \n ")
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestNarrator_ProviderError(t *testing.T) {
	boom := errors.New("upstream down")
	synth := &mockSynthesizer{err: boom}
	c := cache.NewMemoryCache(time.Minute, time.Minute)
	n := NewNarratorWithProvider(synth, DefaultConfig(), c, nil)

	_, err := n.Narrate(context.Background(), "hola")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "mock synthesis")
	assert.Equal(t, 0, c.Len(), "failures must not be cached")
}

func TestNarrator_LogsCacheHit(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := &logging.Logger{SugaredLogger: zap.New(core).Sugar()}

	synth := &mockSynthesizer{data: []byte("mp3")}
	n := NewNarratorWithProvider(synth, DefaultConfig(), cache.NewMemoryCache(time.Minute, time.Minute), log)

	_, _ = n.Narrate(context.Background(), "hola")
	_, _ = n.Narrate(context.Background(), "hola")

	hits := logs.FilterMessage("narration cache hit").All()
	require.Len(t, hits, 1)
	assert.Equal(t, "speech", hits[0].ContextMap()["component"])
}

func TestNewNarrator_Disabled(t *testing.T) {
	n, err := NewNarrator(DefaultConfig(), nil, nil)
	require.NoError(t, err)
	assert.False(t, n.IsEnabled())
}
