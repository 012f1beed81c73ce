package speech

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/ppiankov/omnikernel/internal/util"
)

// openAIInputLimit is the maximum input length accepted by /audio/speech
const openAIInputLimit = 4096

// OpenAIProvider narrates through OpenAI's speech endpoint
type OpenAIProvider struct {
	client *openai.Client
	config Config
}

// NewOpenAIProvider creates a new OpenAI speech provider
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	clientConfig.HTTPClient = util.NewHTTPClient(timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy)

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Synthesize renders text with the configured model and voice
func (p *OpenAIProvider) Synthesize(ctx context.Context, req Request) (*Audio, error) {
	chunks := SplitText(req.Text, openAIInputLimit)
	if len(chunks) == 0 {
		return nil, ErrEmptyText
	}

	model := openai.SpeechModel(p.config.Model)
	if model == "" {
		model = openai.TTSModel1
	}

	voice := openai.SpeechVoice(req.Voice)
	if voice == "" {
		voice = openai.VoiceOnyx // Formal, low register
	}

	var buf bytes.Buffer
	for i, chunk := range chunks {
		resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
			Model:          model,
			Input:          chunk,
			Voice:          voice,
			ResponseFormat: openai.SpeechResponseFormatMp3,
			Speed:          req.Speed,
		})
		if err != nil {
			return nil, fmt.Errorf("OpenAI API error (chunk %d/%d): %w", i+1, len(chunks), err)
		}

		_, err = io.Copy(&buf, resp)
		_ = resp.Close()
		if err != nil {
			return nil, fmt.Errorf("read audio: %w", err)
		}
	}

	if buf.Len() == 0 {
		return nil, fmt.Errorf("no audio from OpenAI")
	}

	return &Audio{
		Data:   buf.Bytes(),
		Format: "mp3",
		Chunks: len(chunks),
	}, nil
}
