package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	defaultHome         = "gemini://geminiprotocol.net/"
	defaultDBPath       = "gemterm.db"
	defaultFetchTimeout = 15 * time.Second
	defaultTickInterval = 200 * time.Millisecond
	defaultMaxRedirects = 5
	defaultMaxBodyBytes = 4 << 20
)

// Config holds runtime settings for the browser.
type Config struct {
	Home         string        `mapstructure:"home"`
	DBPath       string        `mapstructure:"db_path"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	MaxRedirects int           `mapstructure:"max_redirects"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	SOCKSProxy   string        `mapstructure:"socks_proxy"`
	DebugLog     string        `mapstructure:"debug_log"`
}

// Load reads defaults, then an optional TOML file, then GEMTERM_* env vars.
// The file is GEMTERM_CONFIG if set, else $XDG_CONFIG_HOME/gemterm/config.toml.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("home", defaultHome)
	v.SetDefault("db_path", defaultDBPath)
	v.SetDefault("fetch_timeout", defaultFetchTimeout)
	v.SetDefault("tick_interval", defaultTickInterval)
	v.SetDefault("max_redirects", defaultMaxRedirects)
	v.SetDefault("max_body_bytes", defaultMaxBodyBytes)
	v.SetDefault("socks_proxy", "")
	v.SetDefault("debug_log", "")

	v.SetConfigType("toml")
	if path := os.Getenv("GEMTERM_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "gemterm"))
		}
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GEMTERM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Home == "" {
		return errors.New("home is required")
	}
	home, err := url.Parse(c.Home)
	if err != nil {
		return fmt.Errorf("home is not a valid URL: %w", err)
	}
	if home.Scheme != "gemini" || home.Host == "" {
		return fmt.Errorf("home must be a gemini:// URL with a host: %s", c.Home)
	}
	if c.DBPath == "" {
		return errors.New("db_path is required")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch_timeout must be positive: %s", c.FetchTimeout)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive: %s", c.TickInterval)
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max_redirects must be between 0 and 10: %d", c.MaxRedirects)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive: %d", c.MaxBodyBytes)
	}
	return nil
}
