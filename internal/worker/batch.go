package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/omnikernel/internal/model"
)

// Analyzer analyzes a single prompt
type Analyzer interface {
	Analyze(ctx context.Context, input string) (*model.Analysis, error)
}

// Prompt is one line of a batch input file
type Prompt struct {
	Line int    // 1-based line number in the source file
	Text string // Trimmed prompt text
}

// AnalyzeJob analyzes one prompt
type AnalyzeJob struct {
	Prompt   Prompt
	Analyzer Analyzer
}

// Execute executes the analysis job
func (j *AnalyzeJob) Execute(ctx context.Context) Result {
	analysis, err := j.Analyzer.Analyze(ctx, j.Prompt.Text)
	return &AnalyzeResult{
		Prompt:   j.Prompt,
		Analysis: analysis,
		Error:    err,
	}
}

// AnalyzeResult is the outcome of one batch prompt
type AnalyzeResult struct {
	Prompt   Prompt
	Analysis *model.Analysis
	Error    error
}

// GetError returns the error from the analysis
func (r *AnalyzeResult) GetError() error {
	return r.Error
}

// BatchProcessor analyzes many prompts concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(analyzer Analyzer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// ProcessPrompts analyzes prompts concurrently; results keep input order
func (b *BatchProcessor) ProcessPrompts(ctx context.Context, prompts []Prompt) []*AnalyzeResult {
	if len(prompts) == 0 {
		return []*AnalyzeResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for _, p := range prompts {
		pool.Submit(&AnalyzeJob{
			Prompt:   p,
			Analyzer: b.analyzer,
		})
	}

	results := pool.Wait()

	out := make([]*AnalyzeResult, len(results))
	for i, r := range results {
		out[i] = r.(*AnalyzeResult)
	}
	return out
}

// ProcessFile reads prompts from a file and analyzes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*AnalyzeResult, error) {
	prompts, err := ReadPromptsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}

	return b.ProcessPrompts(ctx, prompts), nil
}

// ReadPromptsFromFile reads one prompt per line, skipping blanks, # comments and duplicates
func ReadPromptsFromFile(filePath string) ([]Prompt, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var prompts []Prompt
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())

		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if !seen[text] {
			seen[text] = true
			prompts = append(prompts, Prompt{Line: line, Text: text})
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return prompts, nil
}
