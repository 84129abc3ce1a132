package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/haneul-dev/budgetbook/pkg/auth"
)

// Config is the resolved application configuration.
type Config struct {
	APIBaseURL  string        `mapstructure:"api_base_url"`
	APITimeout  time.Duration `mapstructure:"api_timeout"`
	PageLimit   int           `mapstructure:"page_limit"`
	StaleTime   time.Duration `mapstructure:"stale_time"`
	GCTime      time.Duration `mapstructure:"gc_time"`
	Retry       int           `mapstructure:"retry"`
	SessionPath string        `mapstructure:"session_path"`
}

// Build resolves configuration from, in increasing precedence: defaults,
// a config file (config.yaml in the working directory or
// $HOME/.config/budgetbook), BUDGETBOOK_* environment variables, and
// command-line flags.
func Build(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("api_base_url", "http://localhost:8080/api")
	v.SetDefault("api_timeout", 10*time.Second)
	v.SetDefault("page_limit", 20)
	v.SetDefault("stale_time", 0)
	v.SetDefault("gc_time", 10*time.Minute)
	v.SetDefault("retry", 3)
	v.SetDefault("session_path", auth.DefaultSessionPath())

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/budgetbook")
	}

	v.SetEnvPrefix("BUDGETBOOK")
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; defaults and env cover everything.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && cfgFile != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
