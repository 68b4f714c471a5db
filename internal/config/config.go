// internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Model   ModelConfig   `mapstructure:"model" yaml:"model"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Docker  DockerConfig  `mapstructure:"docker" yaml:"docker"`
	Memory  MemoryConfig  `mapstructure:"memory" yaml:"memory"`
	Agent   AgentConfig   `mapstructure:"agent" yaml:"agent"`
}

// ColorConfig maps log levels to terminal colors for the console encoder.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// LoggerConfig controls the zap logger setup.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"` // "console" or "json"
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"` // days
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ModelConfig describes the model endpoint used for the turn loop.
type ModelConfig struct {
	Name           string        `mapstructure:"name" yaml:"name"`
	BaseURL        string        `mapstructure:"base_url" yaml:"base_url"`
	APIKey         string        `mapstructure:"api_key" yaml:"api_key"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	Truncation     string        `mapstructure:"truncation" yaml:"truncation"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// BrowserConfig controls the local chromedp-backed browser computer.
type BrowserConfig struct {
	Headless bool   `mapstructure:"headless" yaml:"headless"`
	Width    int    `mapstructure:"width" yaml:"width"`
	Height   int    `mapstructure:"height" yaml:"height"`
	ExecPath string `mapstructure:"exec_path" yaml:"exec_path"`
	StartURL string `mapstructure:"start_url" yaml:"start_url"`
}

// DockerConfig controls the containerized desktop computer.
type DockerConfig struct {
	Container string `mapstructure:"container" yaml:"container"`
	Display   string `mapstructure:"display" yaml:"display"`
	Width     int    `mapstructure:"width" yaml:"width"`
	Height    int    `mapstructure:"height" yaml:"height"`
}

// MemoryConfig selects the memory providers attached to the agent. Empty
// paths disable the corresponding provider.
type MemoryConfig struct {
	FilePath   string `mapstructure:"file_path" yaml:"file_path"`
	SQLitePath string `mapstructure:"sqlite_path" yaml:"sqlite_path"`
}

// AgentConfig tunes the turn loop itself.
type AgentConfig struct {
	PrintSteps bool     `mapstructure:"print_steps" yaml:"print_steps"`
	Debug      bool     `mapstructure:"debug" yaml:"debug"`
	ShowImages bool     `mapstructure:"show_images" yaml:"show_images"`
	Blocklist  []string `mapstructure:"blocklist" yaml:"blocklist"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "cuakit")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Model --
	v.SetDefault("model.name", "computer-use-preview")
	v.SetDefault("model.base_url", "https://api.openai.com/v1")
	v.SetDefault("model.request_timeout", "2m")
	v.SetDefault("model.truncation", "auto")
	v.SetDefault("model.rate_limit_rps", 1.0)
	v.SetDefault("model.rate_limit_burst", 2)

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.width", 1024)
	v.SetDefault("browser.height", 768)
	v.SetDefault("browser.start_url", "https://bing.com")

	// -- Docker desktop --
	v.SetDefault("docker.container", "cua-desktop")
	v.SetDefault("docker.display", ":99")
	v.SetDefault("docker.width", 1280)
	v.SetDefault("docker.height", 720)

	// -- Agent --
	v.SetDefault("agent.print_steps", true)
	v.SetDefault("agent.debug", false)
	v.SetDefault("agent.show_images", false)
	v.SetDefault("agent.blocklist", defaultBlocklist)
}

// defaultBlocklist mirrors the stock disallowed-domain set. Matching is by
// hostname suffix, so entries cover their subdomains.
var defaultBlocklist = []string{
	"maliciousbook.com",
	"evilvideos.com",
	"darkwebforum.com",
	"shadytok.com",
	"suspiciouspins.com",
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Unmarshaling pure defaults cannot fail unless the struct tags drift.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object,
// binding sensitive values from the environment.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	v.BindEnv("model.api_key", "OPENAI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the rest of the system cannot
// tolerate. It is deliberately lenient about optional sections.
func (c *Config) Validate() error {
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	if c.Model.Name == "" {
		return fmt.Errorf("model.name must not be empty")
	}
	if c.Model.BaseURL == "" {
		return fmt.Errorf("model.base_url must not be empty")
	}
	if c.Browser.Width <= 0 || c.Browser.Height <= 0 {
		return fmt.Errorf("browser dimensions must be positive, got %dx%d", c.Browser.Width, c.Browser.Height)
	}
	if c.Docker.Width <= 0 || c.Docker.Height <= 0 {
		return fmt.Errorf("docker dimensions must be positive, got %dx%d", c.Docker.Width, c.Docker.Height)
	}
	if c.Model.RateLimitRPS < 0 {
		return fmt.Errorf("model.rate_limit_rps must not be negative")
	}
	return nil
}
