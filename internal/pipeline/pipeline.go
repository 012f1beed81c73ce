package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/omnikernel/internal/axiom"
	"github.com/ppiankov/omnikernel/internal/cache"
	"github.com/ppiankov/omnikernel/internal/decode"
	"github.com/ppiankov/omnikernel/internal/logging"
	"github.com/ppiankov/omnikernel/internal/model"
	"github.com/ppiankov/omnikernel/internal/speech"
	"github.com/ppiankov/omnikernel/internal/synthesis"
)

// ErrEmptyInput is returned when there is no text to analyze
var ErrEmptyInput = errors.New("no input provided")

// EmptyInputMessage is the user-facing warning shown for blank input
const EmptyInputMessage = "Por favor, introduce un prompt."

// Pipeline orchestrates decode, evaluate and assemble, plus rendering and narration
type Pipeline struct {
	decoder   *decode.Decoder
	evaluator *axiom.Evaluator
	assembler *synthesis.Assembler
	renderer  *Renderer
	narrator  *speech.Narrator // Optional narrator (nil if disabled)
	fetcher   *Fetcher
	log       *logging.Logger
	config    *model.Config
}

// NewPipeline creates a new pipeline with the given configuration.
// A broken speech setup only disables narration; a broken lexicon file is an error.
func NewPipeline(cfg *model.Config, log *logging.Logger) (*Pipeline, error) {
	if log == nil {
		log = logging.Nop()
	}

	var extra []model.KeywordRule
	if cfg.Lexicon.Path != "" {
		rules, err := decode.LoadLexicon(cfg.Lexicon.Path)
		if err != nil {
			return nil, fmt.Errorf("load lexicon: %w", err)
		}
		extra = rules
		log.Debug("custom lexicon loaded", "path", cfg.Lexicon.Path, "rules", len(rules))
	}

	var narrator *speech.Narrator
	if cfg.Speech.Provider != "" {
		n, err := speech.NewNarrator(speech.ConfigFromModel(cfg.Speech, cfg.Proxy), cache.New(cfg.Cache), log)
		if err != nil {
			log.Warn("speech provider unavailable, narration disabled", "provider", cfg.Speech.Provider, "error", err)
		} else {
			narrator = n
		}
	}

	return &Pipeline{
		decoder:   decode.NewDecoder(extra...),
		evaluator: axiom.NewEvaluator(),
		assembler: synthesis.NewAssembler(),
		renderer:  NewRenderer(cfg.Output.IncludeFooter),
		narrator:  narrator,
		fetcher: NewFetcher(cfg.Fetch.Timeout, cfg.Fetch.UserAgent, cfg.Fetch.MaxBodyBytes,
			cfg.Fetch.RespectRobots, cfg.Proxy.HTTPProxy, cfg.Proxy.HTTPSProxy, cfg.Proxy.NoProxy),
		log:    log.With("component", "pipeline"),
		config: cfg,
	}, nil
}

// WithNarrator replaces the narrator, mainly for tests and custom providers
func (p *Pipeline) WithNarrator(n *speech.Narrator) *Pipeline {
	p.narrator = n
	return p
}

// Decoder returns the active keyword decoder
func (p *Pipeline) Decoder() *decode.Decoder {
	return p.decoder
}

// Renderer returns the report renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// NarrationEnabled reports whether a speech provider is configured
func (p *Pipeline) NarrationEnabled() bool {
	return p.narrator.IsEnabled()
}

// Analyze runs one input through the decoder, the axioms and the assembler.
// Blank input returns ErrEmptyInput; any other text always yields an analysis.
func (p *Pipeline) Analyze(ctx context.Context, input string) (*model.Analysis, error) {
	if strings.TrimSpace(input) == "" {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params, matches := p.decoder.DecodeWithMatches(input)
	axioms := p.evaluator.Evaluate(params)
	analysis := p.assembler.Analysis(input, params, axioms)
	analysis.Matches = matches

	p.log.Debug("analysis complete",
		"matches", matches,
		"final_verdict", analysis.Report.FinalVerdict,
	)

	return &analysis, nil
}

// AnalyzeURL fetches a page and analyzes its visible text
func (p *Pipeline) AnalyzeURL(ctx context.Context, rawURL string) (*model.Analysis, error) {
	page, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	text, err := pageText(page)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	p.log.Debug("page fetched", "url", page.FinalURL, "chars", len(text))

	return p.Analyze(ctx, text)
}

// Narrate synthesizes the dictamen and attaches the result to the analysis.
// When path is set the audio is written there. On failure the error is
// recorded as a narration warning and returned; the analysis stays valid.
func (p *Pipeline) Narrate(ctx context.Context, analysis *model.Analysis, path string) error {
	if !p.narrator.IsEnabled() {
		return speech.ErrDisabled
	}

	narration, err := p.narrator.Narrate(ctx, analysis.SemanticResponse)
	if err != nil {
		p.log.Warn("narration failed", "provider", p.narrator.Provider(), "error", err)
		analysis.Narration = &model.Narration{
			Provider: p.narrator.Provider(),
			Warnings: []string{err.Error()},
		}
		return err
	}

	if path != "" {
		if err := os.WriteFile(path, narration.Audio, 0644); err != nil {
			narration.Warnings = append(narration.Warnings, fmt.Sprintf("write audio: %v", err))
			analysis.Narration = narration
			return fmt.Errorf("write audio: %w", err)
		}
		narration.Path = path
	}

	analysis.Narration = narration
	return nil
}

// RenderReport writes the JSON and Markdown outputs for an analysis
func (p *Pipeline) RenderReport(analysis *model.Analysis, jsonPath string, mdPath string) error {
	if jsonPath != "" {
		if err := p.renderer.RenderJSON(analysis.Report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		p.log.Debug("wrote JSON report", "path", jsonPath)
	}

	if mdPath != "" {
		if err := p.renderer.RenderMarkdown(analysis, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		p.log.Debug("wrote Markdown report", "path", mdPath)
	}

	return nil
}
