package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the top-level clientdash configuration.
type Config struct {
	// SourceURL is the published CSV export of the client sheet.
	SourceURL string `mapstructure:"source_url" validate:"omitempty,url"`

	// WebhookURL is the assistant endpoint chat messages are posted to.
	WebhookURL string `mapstructure:"webhook_url" validate:"omitempty,url"`

	FetchTimeout    time.Duration `mapstructure:"fetch_timeout" validate:"gt=0"`
	WebhookTimeout  time.Duration `mapstructure:"webhook_timeout" validate:"gt=0"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval" validate:"gte=1s"`

	PageSize int `mapstructure:"page_size" validate:"gte=1,lte=500"`

	Revenue Revenue `mapstructure:"revenue"`
	Server  Server  `mapstructure:"server"`
	Log     Log     `mapstructure:"log"`
	Output  Output  `mapstructure:"output"`
}

// Revenue configures the revenue series.
type Revenue struct {
	Periods   int     `mapstructure:"periods" validate:"gte=1,lte=60"`
	Baseline  float64 `mapstructure:"baseline" validate:"gte=0"`
	Increment float64 `mapstructure:"increment"`
}

// Server configures the HTTP API.
type Server struct {
	Addr string `mapstructure:"addr" validate:"required,hostname_port"`

	// Token, when set, is required as a bearer token on every API request.
	Token string `mapstructure:"token"`
}

// Log configures structured logging.
type Log struct {
	File       string `mapstructure:"file"`
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON       bool   `mapstructure:"json"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
}

// Output defines output preferences.
type Output struct {
	Color bool `mapstructure:"color"`
	Width int  `mapstructure:"width" validate:"gte=40"`
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// Load reads configuration from the given path (or the default location),
// applies CLIENTDASH_* environment overrides and returns a validated Config
// with all defaults applied. A .env file in the working directory is loaded
// first; variables already set in the environment win.
func Load(cfgFile string) (*Config, error) {
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", DefaultEnvFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(expandPath(cfgFile))
	} else {
		v.AddConfigPath(expandPath(DefaultConfigDir))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Read config file if it exists; missing file is not an error.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.SourceURL = strings.TrimSpace(cfg.SourceURL)
	cfg.WebhookURL = strings.TrimSpace(cfg.WebhookURL)
	cfg.Log.File = expandPath(cfg.Log.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source_url", "")
	v.SetDefault("webhook_url", DefaultWebhookURL)
	v.SetDefault("fetch_timeout", DefaultFetchTimeout)
	v.SetDefault("webhook_timeout", DefaultWebhookTimeout)
	v.SetDefault("refresh_interval", DefaultRefreshInterval)
	v.SetDefault("page_size", DefaultPageSize)
	v.SetDefault("revenue.periods", DefaultRevenue.Periods)
	v.SetDefault("revenue.baseline", DefaultRevenue.Baseline)
	v.SetDefault("revenue.increment", DefaultRevenue.Increment)
	v.SetDefault("server.addr", DefaultServer.Addr)
	v.SetDefault("server.token", "")
	v.SetDefault("log.file", DefaultLog.File)
	v.SetDefault("log.level", DefaultLog.Level)
	v.SetDefault("log.json", DefaultLog.JSON)
	v.SetDefault("log.max_size_mb", DefaultLog.MaxSizeMB)
	v.SetDefault("log.max_backups", DefaultLog.MaxBackups)
	v.SetDefault("log.max_age_days", DefaultLog.MaxAgeDays)
	v.SetDefault("output.color", DefaultOutput.Color)
	v.SetDefault("output.width", DefaultOutput.Width)
}

var validate = validator.New()

// Validate checks field constraints and reports every violation in one
// error.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value %v)", configKey(fe), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// configKey renders a validator namespace like "Config.Revenue.Periods" as
// the YAML key "revenue.periods".
func configKey(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 && !(s[i-1] >= 'A' && s[i-1] <= 'Z') {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ConfigDir returns the expanded configuration directory.
func ConfigDir() string {
	return expandPath(DefaultConfigDir)
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), DefaultConfigFile)
}
