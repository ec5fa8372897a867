package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string        `mapstructure:"PORT"`
	Env               string        `mapstructure:"ENV"`
	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32         `mapstructure:"DB_MIN_CONNS"`
	DBMaxConnLifetime time.Duration `mapstructure:"DB_MAX_CONN_LIFETIME"`
	DBMaxConnIdleTime time.Duration `mapstructure:"DB_MAX_CONN_IDLE_TIME"`
	SessionStore      string        `mapstructure:"SESSION_STORE"`
	SessionDBPath     string        `mapstructure:"SESSION_DB_PATH"`
	SessionSigningKey string        `mapstructure:"SESSION_SIGNING_KEY"`
	SessionTokenTTL   time.Duration `mapstructure:"SESSION_TOKEN_TTL"`
	CORSOrigins       []string      `mapstructure:"CORS_ORIGINS"`
	DefaultLocale     string        `mapstructure:"DEFAULT_LOCALE"`
}

// devSigningKey is only accepted when ENV=development.
const devSigningKey = "dental-clinic-development-signing-key"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("DB_MAX_CONN_LIFETIME", "1h")
	v.SetDefault("DB_MAX_CONN_IDLE_TIME", "30m")
	v.SetDefault("SESSION_STORE", "sqlite")
	v.SetDefault("SESSION_DB_PATH", "clinic-session.db")
	v.SetDefault("SESSION_TOKEN_TTL", "12h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:8081")
	v.SetDefault("DEFAULT_LOCALE", "vi-VN")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("DB_MAX_CONN_LIFETIME")
	v.BindEnv("DB_MAX_CONN_IDLE_TIME")
	v.BindEnv("SESSION_STORE")
	v.BindEnv("SESSION_DB_PATH")
	v.BindEnv("SESSION_SIGNING_KEY")
	v.BindEnv("SESSION_TOKEN_TTL")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("DEFAULT_LOCALE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.SessionSigningKey == "" && cfg.IsDev() {
		cfg.SessionSigningKey = devSigningKey
	}

	if cfg.IsDev() {
		log.Println("WARNING: ============================================================")
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: Session tokens are signed with a built-in development key.")
		log.Println("WARNING: Set ENV=production and SESSION_SIGNING_KEY before deploying.")
		log.Println("WARNING: ============================================================")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesPostgres reports whether clinic data lives in Postgres. Without a
// DATABASE_URL the server falls back to seeded in-memory repositories.
func (c *Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.SessionStore {
	case "sqlite":
		if c.SessionDBPath == "" {
			return fmt.Errorf("SESSION_DB_PATH is required when SESSION_STORE is \"sqlite\"")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when SESSION_STORE is \"postgres\"")
		}
	case "memory":
		if c.IsProduction() {
			return fmt.Errorf("SESSION_STORE=memory does not survive restarts and is not allowed in production")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be \"sqlite\", \"postgres\", or \"memory\", got %q", c.SessionStore)
	}

	if !c.IsDev() {
		if c.SessionSigningKey == "" {
			return fmt.Errorf("SESSION_SIGNING_KEY is required outside development (current ENV=%q)", c.Env)
		}
		if c.SessionSigningKey == devSigningKey {
			return fmt.Errorf("SESSION_SIGNING_KEY must not be the development key outside development")
		}
	}
	if len(c.SessionSigningKey) < 32 {
		return fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 bytes, got %d", len(c.SessionSigningKey))
	}

	if c.SessionTokenTTL <= 0 {
		return fmt.Errorf("SESSION_TOKEN_TTL must be positive")
	}

	if c.DBMaxConnLifetime < 0 || c.DBMaxConnIdleTime < 0 {
		return fmt.Errorf("DB_MAX_CONN_LIFETIME and DB_MAX_CONN_IDLE_TIME must not be negative")
	}

	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}

	return nil
}
