package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/omnikernel/internal/logging"
	"github.com/ppiankov/omnikernel/internal/model"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=..."
var Version = "0.1.0"

// ErrReported marks failures whose message was already printed for the user
var ErrReported = errors.New("already reported")

var (
	cfgFile string
	verbose bool
	logMode string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "omnikernel",
	Short: "OmniKernel - TCDS semantic dictamen generator",
	Long: `OmniKernel reads a free-text description of a situation, maps known
keywords to the TCDS parameters (Q, Sigma, Phi), evaluates three axioms
(LBCU, Vacuum Traction, E-Veto) and writes a prose dictamen plus a JSON
forensic report. The dictamen can optionally be narrated to mp3.

The analysis is rule-based: a static keyword table and closed-form
formulas. It does not perform causal or semantic inference.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "omnikernel v%s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.omnikernel/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "log format: dev or prod")

	// Bind flags to viper
	_ = viper.BindPFlag("output.verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("log.mode", rootCmd.PersistentFlags().Lookup("log-mode"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}

		viper.AddConfigPath(filepath.Join(home, ".omnikernel"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// OMNIKERNEL_SPEECH_PROVIDER overrides speech.provider, and so on
	viper.SetEnvPrefix("OMNIKERNEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// envKeys are bound explicitly so Unmarshal sees them without a config file.
// Every model.Config field must be listed.
var envKeys = []string{
	"speech.provider", "speech.model", "speech.voice", "speech.lang", "speech.tld",
	"speech.speed", "speech.api_key", "speech.base_url", "speech.timeout",
	"speech.requests_per_second", "speech.burst_size",
	"fetch.user_agent", "fetch.timeout", "fetch.max_body_bytes", "fetch.respect_robots",
	"proxy.http_proxy", "proxy.https_proxy", "proxy.no_proxy",
	"cache.enabled", "cache.dir", "cache.memory_ttl", "cache.disk_ttl",
	"concurrency.workers",
	"output.json_path", "output.markdown_path", "output.verbose", "output.include_footer",
	"server.addr", "server.allow_origins", "server.request_timeout",
	"lexicon.path",
	"log.mode",
}

// loadConfig merges defaults, config file, environment and bound flags
func loadConfig() (*model.Config, error) {
	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	cfg := model.DefaultConfig()
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	if cfg.Speech.APIKey == "" && strings.EqualFold(cfg.Speech.Provider, "openai") {
		cfg.Speech.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Log.Mode == "" {
		cfg.Log.Mode = "dev"
	}

	return cfg, nil
}

func newLogger(cfg *model.Config) *logging.Logger {
	log, err := logging.New(cfg.Log.Mode, cfg.Output.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: falling back to silent logger: %v\n", err)
		return logging.Nop()
	}
	return log
}
