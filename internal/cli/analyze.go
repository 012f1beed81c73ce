package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/omnikernel/internal/model"
	"github.com/ppiankov/omnikernel/internal/pipeline"
)

var (
	inFile         string
	inURL          string
	outJSON        string
	outMD          string
	speakPath      string
	speechProvider string
	speechVoice    string
	timeout        time.Duration
	noCache        bool
	noFooter       bool
	httpProxy      string
	httpsProxy     string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [text]",
	Short: "Analyze a text and write the dictamen and forensic report",
	Long: `Analyze decodes the TCDS parameters from a text, evaluates the three
axioms and writes:
- the semantic dictamen to stdout
- the forensic report as JSON (default tcds_forensic_report.json)
- optionally a Markdown report and an mp3 narration

Input comes from the arguments, --file (plain text or HTML), --url, or stdin.

Example:
  omnikernel analyze "La burocracia frena la innovación"
  omnikernel analyze --file informe.html --md informe.md
  echo "pura voluntad" | omnikernel analyze --speak dictamen.mp3 --speech-provider google`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	// Input flags
	analyzeCmd.Flags().StringVarP(&inFile, "file", "f", "", "read input from a text or HTML file")
	analyzeCmd.Flags().StringVar(&inURL, "url", "", "fetch a web page and analyze its visible text")

	// Output flags
	analyzeCmd.Flags().StringVar(&outJSON, "json", pipeline.ReportFilename, "output JSON path (empty to skip)")
	analyzeCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	analyzeCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")

	// Speech flags
	analyzeCmd.Flags().StringVar(&speakPath, "speak", "", "write an mp3 narration of the dictamen to this path")
	analyzeCmd.Flags().StringVar(&speechProvider, "speech-provider", "", "speech provider (google, openai)")
	analyzeCmd.Flags().StringVar(&speechVoice, "voice", "", "provider voice (e.g. onyx for openai)")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the narration cache")

	// HTTP flags
	analyzeCmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout (fetch and narration)")
	analyzeCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	analyzeCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

// applyCommonFlags overlays flags that were set explicitly onto the loaded configuration
func applyCommonFlags(cmd *cobra.Command, cfg *model.Config) {
	flags := cmd.Flags()
	if flags.Changed("speech-provider") {
		cfg.Speech.Provider = speechProvider
		if cfg.Speech.Provider == "openai" && cfg.Speech.APIKey == "" {
			cfg.Speech.APIKey = os.Getenv("OPENAI_API_KEY")
		}
	}
	if flags.Changed("voice") {
		cfg.Speech.Voice = speechVoice
	}
	if flags.Changed("no-cache") {
		cfg.Cache.Enabled = !noCache
	}
	if flags.Changed("no-footer") {
		cfg.Output.IncludeFooter = !noFooter
	}
	if flags.Changed("http-proxy") {
		cfg.Proxy.HTTPProxy = httpProxy
	}
	if flags.Changed("https-proxy") {
		cfg.Proxy.HTTPSProxy = httpsProxy
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCommonFlags(cmd, cfg)
	if cmd.Flags().Changed("json") {
		cfg.Output.JSONPath = outJSON
	}
	if cmd.Flags().Changed("md") {
		cfg.Output.MarkdownPath = outMD
	}
	if speakPath != "" && cfg.Speech.Provider == "" {
		cfg.Speech.Provider = "google"
	}

	log := newLogger(cfg)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	p, err := pipeline.NewPipeline(cfg, log)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()

	var analysis *model.Analysis
	if inURL != "" {
		if verbose {
			fmt.Fprintf(stderr, "⚙️  Fetching %s...\n", inURL)
		}
		analysis, err = p.AnalyzeURL(ctx, inURL)
	} else {
		var text string
		text, err = pipeline.ReadInput(args, inFile, pipedStdin(cmd))
		if err == nil {
			analysis, err = p.Analyze(ctx, text)
		}
	}
	if errors.Is(err, pipeline.ErrEmptyInput) {
		fmt.Fprintf(stderr, "⚠ %s\n", pipeline.EmptyInputMessage)
		return fmt.Errorf("%w: %w", ErrReported, err)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if verbose {
		fmt.Fprintf(stderr, "✓ Decoded parameters: Q=%g Sigma=%g Phi=%g\n",
			analysis.Report.DecodedParameters.Q,
			analysis.Report.DecodedParameters.Sigma,
			analysis.Report.DecodedParameters.Phi)
	}

	// Narration never fails the analysis
	if speakPath != "" {
		if err := p.Narrate(ctx, analysis, speakPath); err != nil {
			fmt.Fprintf(stderr, "⚠ Narration skipped: %v\n", err)
		} else if verbose {
			fmt.Fprintf(stderr, "✓ Wrote narration: %s (%d bytes, cached=%v)\n",
				speakPath, analysis.Narration.Bytes, analysis.Narration.Cached)
		}
	}

	if err := p.RenderReport(analysis, cfg.Output.JSONPath, cfg.Output.MarkdownPath); err != nil {
		return fmt.Errorf("render failed: %w", err)
	}
	if verbose {
		if cfg.Output.JSONPath != "" {
			fmt.Fprintf(stderr, "✓ Wrote JSON: %s\n", cfg.Output.JSONPath)
		}
		if cfg.Output.MarkdownPath != "" {
			fmt.Fprintf(stderr, "✓ Wrote Markdown: %s\n", cfg.Output.MarkdownPath)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, analysis.SemanticResponse)
	p.Renderer().RenderSummary(out, analysis)

	return nil
}

// pipedStdin returns the command's input when it is not an interactive terminal
func pipedStdin(cmd *cobra.Command) io.Reader {
	in := cmd.InOrStdin()
	f, ok := in.(*os.File)
	if !ok {
		return in
	}
	info, err := f.Stat()
	if err != nil || info.Mode()&os.ModeCharDevice != 0 {
		return nil
	}
	return f
}
