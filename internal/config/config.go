package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Supported storage backends.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	StorageBackend  string   `mapstructure:"STORAGE_BACKEND"`
	DataDir         string   `mapstructure:"DATA_DIR"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	MongoURI        string   `mapstructure:"MONGO_URI"`
	MongoDB         string   `mapstructure:"MONGO_DB"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
	AuthSecret      string   `mapstructure:"AUTH_SECRET"`
	DoctorPIN       string   `mapstructure:"DOCTOR_PIN"`
	SuggestDelayMS  int      `mapstructure:"SUGGEST_DELAY_MS"`
	RateLimitRPS    float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst  int64    `mapstructure:"RATE_LIMIT_BURST"`
	BackupDir       string   `mapstructure:"BACKUP_DIR"`
	BackupEveryHrs  int      `mapstructure:"BACKUP_INTERVAL_HOURS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORAGE_BACKEND", BackendFile)
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MONGO_DB", "clinicdesk")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("SUGGEST_DELAY_MS", 1500)
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("BACKUP_DIR", "./backups")
	v.SetDefault("BACKUP_INTERVAL_HOURS", 24)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORAGE_BACKEND")
	v.BindEnv("DATA_DIR")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("MONGO_URI")
	v.BindEnv("MONGO_DB")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUTH_SECRET")
	v.BindEnv("DOCTOR_PIN")
	v.BindEnv("SUGGEST_DELAY_MS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("BACKUP_DIR")
	v.BindEnv("BACKUP_INTERVAL_HOURS")

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

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside
// development mode the clinician login must be configured, and the chosen
// storage backend must have its connection settings.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendMemory, BackendFile:
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND is %q", BackendPostgres)
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required when STORAGE_BACKEND is %q", BackendMongo)
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q, %q, %q or %q, got %q",
			BackendMemory, BackendFile, BackendPostgres, BackendMongo, c.StorageBackend)
	}

	if !c.IsDev() {
		if c.AuthSecret == "" {
			return fmt.Errorf("AUTH_SECRET is required when ENV=%q", c.Env)
		}
		if c.DoctorPIN == "" {
			return fmt.Errorf("DOCTOR_PIN is required when ENV=%q", c.Env)
		}
	}

	if c.SuggestDelayMS < 0 {
		return fmt.Errorf("SUGGEST_DELAY_MS must not be negative, got %d", c.SuggestDelayMS)
	}
	return nil
}
