package speech

import (
	"fmt"
	"strings"
)

// NewProvider creates a synthesizer based on configuration.
// An empty provider name returns (nil, nil): narration disabled.
func NewProvider(config Config) (Synthesizer, error) {
	switch strings.ToLower(strings.TrimSpace(config.Provider)) {
	case "google", "gtts":
		return NewGoogleProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "", "none":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown speech provider: %s (supported: google, openai)", config.Provider)
	}
}
