// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	Port                 string        `mapstructure:"PORT"`
	DBURL                string        `mapstructure:"DB_URL"`
	GithubToken          string        `mapstructure:"GITHUB_TOKEN"`
	WebhookSecret        string        `mapstructure:"GITHUB_WEBHOOK_SECRET"`
	GithubOrg            string        `mapstructure:"GITHUB_ORG"`
	TrackedBranch        string        `mapstructure:"TRACKED_BRANCH"`
	Timezone             string        `mapstructure:"TIMEZONE"`
	UTCOffsetHours       int           `mapstructure:"UTC_OFFSET_HOURS"`
	BackfillInterval     time.Duration `mapstructure:"BACKFILL_INTERVAL"`
	BackfillLookbackDays int           `mapstructure:"BACKFILL_LOOKBACK_DAYS"`
	EnrichTimeout        time.Duration `mapstructure:"ENRICH_TIMEOUT"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("TRACKED_BRANCH", "main")
	viper.SetDefault("TIMEZONE", "America/Lima")
	viper.SetDefault("UTC_OFFSET_HOURS", -5)
	viper.SetDefault("BACKFILL_INTERVAL", "1h")
	viper.SetDefault("BACKFILL_LOOKBACK_DAYS", 30)
	viper.SetDefault("ENRICH_TIMEOUT", "10s")

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.GithubToken == "" {
		return nil, errors.New("GITHUB_TOKEN is a required configuration field")
	}
	if cfg.WebhookSecret == "" {
		return nil, errors.New("GITHUB_WEBHOOK_SECRET is a required configuration field")
	}
	if cfg.GithubOrg == "" {
		return nil, errors.New("GITHUB_ORG is a required configuration field")
	}

	return &cfg, nil
}
