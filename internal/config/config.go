// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"log"

	"github.com/spf13/viper"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	JWTSecret      string `mapstructure:"JWT_SECRET"`
	Port           string `mapstructure:"PORT"`
	DBHost         string `mapstructure:"DB_HOST"`
	DBPort         string `mapstructure:"DB_PORT"`
	DBUser         string `mapstructure:"DB_USER"`
	DBPassword     string `mapstructure:"DB_PASSWORD"`
	DBName         string `mapstructure:"DB_NAME"`
	DBSSLMode      string `mapstructure:"DB_SSLMODE"`
	RedisURL       string `mapstructure:"REDIS_URL"`
	AllowedOrigins string `mapstructure:"ALLOWED_ORIGINS"`
	Env            string `mapstructure:"APP_ENV"`

	TracingEnabled  bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint    string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampler  float64 `mapstructure:"TRACING_SAMPLER_RATIO"`

	// Rate limits for sensitive endpoints, requests per window.
	RateLimitSubmitMax      int `mapstructure:"RATE_LIMIT_SUBMIT_MAX"`
	RateLimitSubmitWindowS  int `mapstructure:"RATE_LIMIT_SUBMIT_WINDOW_SECONDS"`
	RateLimitResendMax      int `mapstructure:"RATE_LIMIT_RESEND_MAX"`
	RateLimitResendWindowS  int `mapstructure:"RATE_LIMIT_RESEND_WINDOW_SECONDS"`
	RateLimitRequestMax     int `mapstructure:"RATE_LIMIT_REQUEST_MAX"`
	RateLimitRequestWindowS int `mapstructure:"RATE_LIMIT_REQUEST_WINDOW_SECONDS"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if errors.As(err, &notFoundErr) {
			log.Println("Config file not found; using environment variables and defaults")
		} else {
			return nil, err
		}
	}

	env := viper.GetString("APP_ENV")
	if env != "" && env != "development" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			var notFoundErr viper.ConfigFileNotFoundError
			if !errors.As(err, &notFoundErr) {
				return nil, err
			}
		}
	}

	// Set default values for development
	viper.SetDefault("PORT", "8440")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "user")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "capmatch")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "*")
	viper.SetDefault("JWT_SECRET", "dev-secret-change-in-production")
	viper.SetDefault("APP_ENV", "development")

	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("TRACING_SAMPLER_RATIO", 1.0)

	viper.SetDefault("RATE_LIMIT_SUBMIT_MAX", 10)
	viper.SetDefault("RATE_LIMIT_SUBMIT_WINDOW_SECONDS", 3600)
	viper.SetDefault("RATE_LIMIT_RESEND_MAX", 3)
	viper.SetDefault("RATE_LIMIT_RESEND_WINDOW_SECONDS", 3600)
	viper.SetDefault("RATE_LIMIT_REQUEST_MAX", 20)
	viper.SetDefault("RATE_LIMIT_REQUEST_WINDOW_SECONDS", 3600)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
