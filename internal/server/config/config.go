package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	DatabaseURL string `mapstructure:"database_url"`
	AutoSetupDB bool   `mapstructure:"auto_setup_db"`

	// Settings for the local container started when AutoSetupDB is on.
	PostgresUser      string `mapstructure:"postgres_user"`
	PostgresPassword  string `mapstructure:"postgres_password"`
	PostgresDB        string `mapstructure:"postgres_db"`
	PostgresContainer string `mapstructure:"postgres_container"`
	PostgresPort      int    `mapstructure:"postgres_port"`

	APIHost string `mapstructure:"api_host"`
	APIPort string `mapstructure:"api_port"`

	// HubKey is the shared secret field hubs send with every batch.
	HubKey string `mapstructure:"hub_key"`

	ResetTokenSecret string        `mapstructure:"reset_token_secret"`
	ResetTokenTTL    time.Duration `mapstructure:"reset_token_ttl"`
	FrontendURL      string        `mapstructure:"frontend_url"`

	ResendAPIKey  string `mapstructure:"resend_api_key"`
	FromEmail     string `mapstructure:"from_email"`
	SkipEmailSend bool   `mapstructure:"skip_email_send"`

	AdminUser     string `mapstructure:"admin_user"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminEmail    string `mapstructure:"admin_email"`
}

// envKeys maps config keys to the environment variables they are read from.
var envKeys = map[string]string{
	"database_url":       "DATABASE_URL",
	"auto_setup_db":      "AUTO_SETUP_DB",
	"postgres_user":      "POSTGRES_USER",
	"postgres_password":  "POSTGRES_PASSWORD",
	"postgres_db":        "POSTGRES_DB",
	"postgres_container": "POSTGRES_CONTAINER",
	"postgres_port":      "POSTGRES_PORT",
	"api_host":           "API_HOST",
	"api_port":           "API_PORT",
	"hub_key":            "HUB_KEY",
	"reset_token_secret": "JWT_SECRET",
	"reset_token_ttl":    "RESET_TOKEN_TTL",
	"frontend_url":       "FRONTEND_URL",
	"resend_api_key":     "RESEND_API_KEY",
	"from_email":         "FROM_EMAIL",
	"skip_email_send":    "SKIP_EMAIL_SEND",
	"admin_user":         "ADMIN_USER",
	"admin_password":     "ADMIN_PASSWORD",
	"admin_email":        "ADMIN_EMAIL",
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	v := viper.New()

	for key, env := range envKeys {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", "8080")
	v.SetDefault("reset_token_ttl", "1h")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("from_email", "noreply@plantalytics.us")
	v.SetDefault("auto_setup_db", false)
	v.SetDefault("postgres_user", "plantalytics")
	v.SetDefault("postgres_db", "plantalytics")
	v.SetDefault("postgres_container", "plantalytics-postgres")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("skip_email_send", false)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the HTTP server cannot run without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" && !c.AutoSetupDB {
		return fmt.Errorf("DATABASE_URL environment variable not set")
	}
	if c.DatabaseURL == "" && c.PostgresPassword == "" {
		return fmt.Errorf("POSTGRES_PASSWORD must be set when AUTO_SETUP_DB starts a local database")
	}
	if c.HubKey == "" {
		return fmt.Errorf("HUB_KEY environment variable not set")
	}
	if c.ResetTokenSecret == "" {
		return fmt.Errorf("JWT_SECRET environment variable not set")
	}
	return nil
}
