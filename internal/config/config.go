// Package config loads application configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// Config holds environment-driven configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Accrual  AccrualConfig  `mapstructure:"accrual"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Push     PushConfig     `mapstructure:"push"`
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// HTTPConfig contains transport settings.
type HTTPConfig struct {
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	AllowOrigins   string        `mapstructure:"allow_origins"`
}

// LoggingConfig contains logger preferences.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// AuthConfig configures token signing.
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// PostgresConfig describes database connection parameters. URL wins over the
// discrete fields when set.
type PostgresConfig struct {
	URL            string        `mapstructure:"url"`
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	User           string        `mapstructure:"user"`
	Password       string        `mapstructure:"password"`
	DBName         string        `mapstructure:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode"`
	MigrateTimeout time.Duration `mapstructure:"migrate_timeout"`
	QueryTimeout   time.Duration `mapstructure:"query_timeout"`
	MaxConns       int32         `mapstructure:"max_conns"`
	MinConns       int32         `mapstructure:"min_conns"`
}

// AccrualConfig holds the tunable parts of the accrual rules.
type AccrualConfig struct {
	OvertimeRate float64 `mapstructure:"overtime_rate"`
	Cron         string  `mapstructure:"cron"`
	Timezone     string  `mapstructure:"timezone"`
}

// ScheduleConfig configures shift generation.
type ScheduleConfig struct {
	DefaultStart string `mapstructure:"default_start"`
	Cron         string `mapstructure:"cron"`
}

// PushConfig holds VAPID credentials for web push.
type PushConfig struct {
	VAPIDPublicKey  string `mapstructure:"vapid_public_key"`
	VAPIDPrivateKey string `mapstructure:"vapid_private_key"`
	Subscriber      string `mapstructure:"subscriber"`
	TTL             int    `mapstructure:"ttl"`
}

// Load reads configuration from the environment (and an optional .env file)
// using viper with typed defaults and validation.
func Load() (*Config, error) {
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v := viper.New()
	v.SetEnvPrefix("JOBFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindEnvs(v); err != nil {
		return nil, fmt.Errorf("bind env: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("http.request_timeout", 5*time.Second)
	v.SetDefault("http.allow_origins", "*")

	v.SetDefault("auth.token_ttl", 72*time.Hour)

	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgres")
	v.SetDefault("postgres.db_name", "jobflow")
	v.SetDefault("postgres.ssl_mode", "disable")
	v.SetDefault("postgres.migrate_timeout", 30*time.Second)
	v.SetDefault("postgres.query_timeout", 5*time.Second)
	v.SetDefault("postgres.max_conns", 10)
	v.SetDefault("postgres.min_conns", 2)

	v.SetDefault("accrual.overtime_rate", 1.0)
	v.SetDefault("accrual.cron", "0 2 1 * *")
	v.SetDefault("accrual.timezone", "UTC")

	v.SetDefault("schedule.default_start", "09:00")
	v.SetDefault("schedule.cron", "")

	v.SetDefault("push.subscriber", "mailto:admin@jobflow.local")
	v.SetDefault("push.ttl", 60)
}

func bindEnvs(v *viper.Viper) error {
	keys := []string{
		"logging.level",
		"server.host",
		"server.port",
		"server.shutdown_timeout",
		"http.request_timeout",
		"http.allow_origins",
		"auth.token_ttl",
		"postgres.host",
		"postgres.port",
		"postgres.user",
		"postgres.password",
		"postgres.db_name",
		"postgres.ssl_mode",
		"postgres.migrate_timeout",
		"postgres.query_timeout",
		"postgres.max_conns",
		"postgres.min_conns",
		"accrual.overtime_rate",
		"accrual.cron",
		"accrual.timezone",
		"schedule.default_start",
		"schedule.cron",
		"push.vapid_public_key",
		"push.vapid_private_key",
		"push.subscriber",
		"push.ttl",
	}
	for _, k := range keys {
		if err := v.BindEnv(k); err != nil {
			return err
		}
	}

	// unprefixed names kept for existing deployments
	if err := v.BindEnv("postgres.url", "JOBFLOW_POSTGRES_URL", "DATABASE_URL"); err != nil {
		return err
	}
	return v.BindEnv("auth.jwt_secret", "JOBFLOW_AUTH_JWT_SECRET", "JWT_SECRET")
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.Server.Port == 0 {
		return errors.New("server.port is required")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret (JWT_SECRET) is required")
	}
	if c.Postgres.URL == "" {
		if c.Postgres.Host == "" {
			return errors.New("postgres.host is required")
		}
		if c.Postgres.User == "" || c.Postgres.DBName == "" {
			return errors.New("postgres credentials are required")
		}
	}
	if c.Accrual.OvertimeRate < 0 {
		return errors.New("accrual.overtime_rate must not be negative")
	}
	if _, err := time.Parse("15:04", c.Schedule.DefaultStart); err != nil {
		return fmt.Errorf("schedule.default_start: %w", err)
	}
	return nil
}

// ServerAddr returns host:port for HTTP server binding.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// DSN returns a Postgres connection string.
func (p PostgresConfig) DSN() string {
	if p.URL != "" {
		return p.URL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode,
	)
}
