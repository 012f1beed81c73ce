package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ppiankov/omnikernel/internal/pipeline"
	"github.com/ppiankov/omnikernel/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analysis API over HTTP",
	Long: `Serve starts the HTTP API:
  GET  /healthz                  liveness probe
  POST /api/analyze              {"prompt": "..."} → dictamen and forensic report
  POST /api/analyze/download     forensic report as tcds_forensic_report.json
  POST /api/speech               mp3 narration of the dictamen
  GET  /api/lexicon              active keyword table

Example:
  omnikernel serve --addr :8080
  OMNIKERNEL_SPEECH_PROVIDER=google omnikernel serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().StringVar(&speechProvider, "speech-provider", "", "speech provider (google, openai)")
	serveCmd.Flags().StringVar(&speechVoice, "voice", "", "provider voice")
	serveCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the narration cache")
	serveCmd.Flags().StringVar(&httpProxy, "http-proxy", "", "HTTP proxy URL (overrides HTTP_PROXY env var)")
	serveCmd.Flags().StringVar(&httpsProxy, "https-proxy", "", "HTTPS proxy URL (overrides HTTPS_PROXY env var)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCommonFlags(cmd, cfg)
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	log := newLogger(cfg)
	defer log.Sync()

	p, err := pipeline.NewPipeline(cfg, log)
	if err != nil {
		return err
	}
	if p.NarrationEnabled() {
		log.Info("narration enabled", "provider", cfg.Speech.Provider)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.NewServer(p, cfg.Server, log).Run(ctx)
}
