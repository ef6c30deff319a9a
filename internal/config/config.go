package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	NSE      NSEConfig      `yaml:"nse" mapstructure:"nse"`
	Screener ScreenerConfig `yaml:"screener" mapstructure:"screener"`
	Forum    ForumConfig    `yaml:"forum" mapstructure:"forum"`
	Render   RenderConfig   `yaml:"render" mapstructure:"render"`
	Download DownloadConfig `yaml:"download" mapstructure:"download"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// NSEConfig configures the exchange feed client.
type NSEConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	UserAgent         string  `yaml:"user_agent" mapstructure:"user_agent"`
}

// ScreenerConfig configures the credit-rating scrape of the company profile page.
type ScreenerConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url"`
	PageTimeoutSecs int    `yaml:"page_timeout_secs" mapstructure:"page_timeout_secs"`
	DocTimeoutSecs  int    `yaml:"doc_timeout_secs" mapstructure:"doc_timeout_secs"`
}

// ForumConfig configures the discussion-forum thread export.
type ForumConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs       int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BatchSize         int     `yaml:"batch_size" mapstructure:"batch_size"`
}

// RenderConfig configures headless Chrome print-to-PDF.
type RenderConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	ChromePath  string `yaml:"chrome_path" mapstructure:"chrome_path"`
	SettleSecs  int    `yaml:"settle_secs" mapstructure:"settle_secs"`
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// DownloadConfig configures where and how runs write documents.
type DownloadConfig struct {
	BaseDir           string `yaml:"base_dir" mapstructure:"base_dir"`
	SaveAnnouncements bool   `yaml:"save_announcements" mapstructure:"save_announcements"`
	// IssueDocsPath overrides the built-in issue-document endpoint list.
	IssueDocsPath string `yaml:"issue_docs_path" mapstructure:"issue_docs_path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	// File receives log output. Empty logs to stderr.
	File string `yaml:"file" mapstructure:"file"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FILINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "filings.log")
	v.SetDefault("nse.base_url", "https://www.nseindia.com")
	v.SetDefault("nse.timeout_secs", 15)
	v.SetDefault("nse.requests_per_second", 3)
	v.SetDefault("nse.user_agent", "")
	v.SetDefault("screener.base_url", "https://www.screener.in")
	v.SetDefault("screener.page_timeout_secs", 15)
	v.SetDefault("screener.doc_timeout_secs", 30)
	v.SetDefault("forum.base_url", "https://forum.valuepickr.com")
	v.SetDefault("forum.timeout_secs", 30)
	v.SetDefault("forum.requests_per_second", 2)
	v.SetDefault("forum.batch_size", 200)
	v.SetDefault("render.enabled", true)
	v.SetDefault("render.chrome_path", "")
	v.SetDefault("render.settle_secs", 5)
	v.SetDefault("render.timeout_secs", 60)
	v.SetDefault("download.base_dir", ".")
	v.SetDefault("download.save_announcements", true)
	v.SetDefault("download.issue_docs_path", "")
	v.SetDefault("server.port", 8080)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command mode depends on.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "download":
		errs = append(errs, c.validateFeed()...)
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateFeed()...)
	case "forum":
		if strings.TrimSpace(c.Forum.BaseURL) == "" {
			errs = append(errs, "forum.base_url is required")
		}
		if c.Forum.TimeoutSecs <= 0 {
			errs = append(errs, "forum.timeout_secs must be > 0")
		}
		if c.Forum.RequestsPerSecond <= 0 {
			errs = append(errs, "forum.requests_per_second must be > 0")
		}
		if c.Forum.BatchSize <= 0 {
			errs = append(errs, "forum.batch_size must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateFeed() []string {
	var errs []string
	if strings.TrimSpace(c.NSE.BaseURL) == "" {
		errs = append(errs, "nse.base_url is required")
	}
	if c.NSE.TimeoutSecs <= 0 {
		errs = append(errs, "nse.timeout_secs must be > 0")
	}
	if c.NSE.RequestsPerSecond <= 0 {
		errs = append(errs, "nse.requests_per_second must be > 0")
	}
	if c.Screener.PageTimeoutSecs <= 0 || c.Screener.DocTimeoutSecs <= 0 {
		errs = append(errs, "screener timeouts must be > 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	if cfg.File != "" {
		zapCfg.OutputPaths = []string{cfg.File}
		zapCfg.ErrorOutputPaths = []string{cfg.File}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
