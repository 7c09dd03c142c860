package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrMissingCredentials means no service-account secret is configured.
// This is fatal at startup: without it no fetch can ever succeed.
var ErrMissingCredentials = errors.New("config: GOOGLE_SERVICE_ACCOUNT is not set")

type Config struct {
	Env         string `mapstructure:"ENV"`
	Port        string `mapstructure:"PORT" validate:"required"`
	AdminKey    string `mapstructure:"ADMIN_KEY"`
	CORSAllowed string `mapstructure:"CORS_ALLOWED_ORIGINS"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`

	ServiceAccountJSON string `mapstructure:"GOOGLE_SERVICE_ACCOUNT"`
	SpreadsheetKey     string `mapstructure:"SPREADSHEET_KEY" validate:"required"`
	DealsSheet         string `mapstructure:"DEALS_SHEET" validate:"required"`
	StagesSheet        string `mapstructure:"STAGES_SHEET" validate:"required"`
	StagesRange        string `mapstructure:"STAGES_RANGE" validate:"required"`
	UsersSheet         string `mapstructure:"USERS_SHEET" validate:"required"`

	CacheTTL          time.Duration `mapstructure:"CACHE_TTL" validate:"gt=0"`
	MaxRetries        int           `mapstructure:"MAX_RETRIES" validate:"gte=1"`
	RetryDelay        time.Duration `mapstructure:"RETRY_DELAY" validate:"gt=0"`
	RequestsPerMinute int           `mapstructure:"SHEETS_RPM" validate:"gte=1"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("DEALS_SHEET", "Deals")
	v.SetDefault("STAGES_SHEET", "OtherParams")
	v.SetDefault("STAGES_RANGE", "A2:B12")
	v.SetDefault("USERS_SHEET", "Users")
	v.SetDefault("CACHE_TTL", "300s")
	v.SetDefault("MAX_RETRIES", 3)
	v.SetDefault("RETRY_DELAY", "5s")
	v.SetDefault("SHEETS_RPM", 60)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.ServiceAccountJSON == "" {
		return Config{}, ErrMissingCredentials
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
