package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/ppiankov/omnikernel/internal/pipeline"
	"github.com/ppiankov/omnikernel/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	batchMD      bool
	batchSpeak   bool
	// noFooter, noCache and the speech flags are defined in analyze.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Analyze many prompts from a file in parallel",
	Long: `Batch analyzes one prompt per line of the input file:
- Blank lines, # comments and duplicate prompts are skipped
- Prompts are analyzed in parallel with a configurable worker count
- One JSON report (and optionally Markdown and mp3) is written per prompt

Example:
  omnikernel batch prompts.txt
  omnikernel batch prompts.txt --concurrency 8 --output-dir ./dictamenes --md`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./omnikernel-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&batchMD, "md", false, "also write a Markdown report per prompt")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	batchCmd.Flags().BoolVar(&batchSpeak, "speak", false, "also narrate each dictamen to mp3")
	batchCmd.Flags().StringVar(&speechProvider, "speech-provider", "", "speech provider (google, openai)")
	batchCmd.Flags().StringVar(&speechVoice, "voice", "", "provider voice")
	batchCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the narration cache")
	batchCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	batchCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCommonFlags(cmd, cfg)
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}
	if batchSpeak && cfg.Speech.Provider == "" {
		cfg.Speech.Provider = "google"
	}

	log := newLogger(cfg)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  OmniKernel Batch Processing\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(stderr, "  Timeout:      %v\n", batchTimeout)
	if batchSpeak {
		fmt.Fprintf(stderr, "  Speech:       %s\n", cfg.Speech.Provider)
	}
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, log)
	if err != nil {
		return err
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	fmt.Fprintf(stderr, "✓ Analyzed %d prompts\n\n", len(results))

	successCount := 0
	failureCount := 0

	for _, result := range results {
		label := fmt.Sprintf("line %d", result.Prompt.Line)
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", label, result.Error)
			continue
		}

		base := filepath.Join(outputDir, reportBaseName(result.Prompt))
		mdPath := ""
		if batchMD {
			mdPath = base + ".md"
		}

		// Narrate before rendering so the Markdown report lists the audio
		if batchSpeak {
			if err := p.Narrate(ctx, result.Analysis, base+".mp3"); err != nil {
				fmt.Fprintf(stderr, "⚠ %s: narration skipped: %v\n", label, err)
			}
		}

		if err := p.RenderReport(result.Analysis, base+".json", mdPath); err != nil {
			failureCount++
			fmt.Fprintf(stderr, "✗ %s: %v\n", label, err)
			continue
		}

		successCount++
		fmt.Fprintf(stderr, "✓ %s: %s → %s\n", label, result.Analysis.Report.FinalVerdict, filepath.Base(base))
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "  Batch Complete\n")
	fmt.Fprintf(stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d prompts\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	return nil
}

// reportBaseName builds a unique, readable file stem for a prompt
func reportBaseName(p worker.Prompt) string {
	id := uuid.New().String()[:8]
	slug := slugify(p.Text, 40)
	if slug == "" {
		return fmt.Sprintf("%04d-%s", p.Line, id)
	}
	return fmt.Sprintf("%04d-%s-%s", p.Line, slug, id)
}

// slugify lowercases s and keeps letters and digits, joining runs of anything else with '-'
func slugify(s string, maxRunes int) string {
	var b strings.Builder
	dash := false
	n := 0

	for _, r := range strings.ToLower(s) {
		if n >= maxRunes {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			n++
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteRune('-')
			dash = true
			n++
		}
	}

	return strings.TrimRight(b.String(), "-")
}
