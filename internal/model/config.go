package model

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the complete OmniKernel configuration
type Config struct {
	Speech      SpeechConfig      `yaml:"speech" mapstructure:"speech"`
	Fetch       FetchConfig       `yaml:"fetch" mapstructure:"fetch"`
	Proxy       ProxyConfig       `yaml:"proxy" mapstructure:"proxy"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Lexicon     LexiconConfig     `yaml:"lexicon" mapstructure:"lexicon"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// SpeechConfig controls narration of the dictamen
type SpeechConfig struct {
	Provider string        `yaml:"provider" mapstructure:"provider"` // "", google, openai
	Model    string        `yaml:"model,omitempty" mapstructure:"model"`
	Voice    string        `yaml:"voice,omitempty" mapstructure:"voice"`
	Lang     string        `yaml:"lang" mapstructure:"lang"`
	TLD      string        `yaml:"tld" mapstructure:"tld"`
	Speed    float64       `yaml:"speed" mapstructure:"speed"`
	APIKey   string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout  time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Pacing for providers that split text into several requests
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// FetchConfig controls retrieval of input text from URLs
type FetchConfig struct {
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// ProxyConfig routes every outbound request (speech providers, URL fetches).
// Empty values fall back to HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
type ProxyConfig struct {
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the narration audio cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig controls the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	JSONPath      string `yaml:"json_path" mapstructure:"json_path"`
	MarkdownPath  string `yaml:"markdown_path,omitempty" mapstructure:"markdown_path"`
	Verbose       bool   `yaml:"verbose" mapstructure:"verbose"`
	IncludeFooter bool   `yaml:"include_footer" mapstructure:"include_footer"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	AllowOrigins   []string      `yaml:"allow_origins" mapstructure:"allow_origins"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// LexiconConfig points at an optional YAML file of extra keyword rules
type LexiconConfig struct {
	Path string `yaml:"path,omitempty" mapstructure:"path"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"` // dev, prod
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	cacheDir := filepath.Join(os.TempDir(), "omnikernel-cache")
	if home, err := os.UserHomeDir(); err == nil {
		cacheDir = filepath.Join(home, ".omnikernel", "cache")
	}

	return &Config{
		Speech: SpeechConfig{
			Provider:          "", // Narration disabled by default
			Lang:              "es",
			TLD:               "com.mx",
			Speed:             1.0,
			Timeout:           30 * time.Second,
			RequestsPerSecond: 2,
			BurstSize:         2,
		},
		Fetch: FetchConfig{
			UserAgent:     "OmniKernel/1.0 (+https://github.com/ppiankov/omnikernel)",
			Timeout:       15 * time.Second,
			MaxBodyBytes:  2 << 20,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       cacheDir,
			MemoryTTL: 30 * time.Minute,
			DiskTTL:   7 * 24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			JSONPath:      "tcds_forensic_report.json",
			IncludeFooter: true,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowOrigins:   []string{"http://localhost:3000", "http://localhost:5173"},
			RequestTimeout: 60 * time.Second,
		},
		Log: LogConfig{
			Mode: "dev",
		},
	}
}
