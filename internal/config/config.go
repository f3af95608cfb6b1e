package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
	Tracing   TracingConfig
	Lock      LockConfig
	Cache     CacheConfig
	Health    HealthConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type SchedulerConfig struct {
	OverdueSpec  string
	ReminderSpec string
	ReminderDays int
	Timezone     string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type TracingConfig struct {
	Endpoint    string
	ServiceName string
}

type LockConfig struct {
	TTL time.Duration
}

type CacheConfig struct {
	TTL time.Duration
}

type HealthConfig struct {
	Timeout time.Duration
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "15s")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_HOST", "localhost")
	v.SetDefault("DATABASE_PORT", "5432")
	v.SetDefault("DATABASE_NAME", "lending_engine")
	v.SetDefault("DATABASE_USER", "postgres")
	v.SetDefault("DATABASE_PASSWORD", "")
	v.SetDefault("DATABASE_SSLMODE", "disable")
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 10)
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 5)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DATABASE_AUTO_MIGRATE", true)

	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SCHEDULER_OVERDUE_SPEC", "0 5 0 * * *")
	v.SetDefault("SCHEDULER_REMINDER_SPEC", "0 0 9 * * *")
	v.SetDefault("SCHEDULER_REMINDER_DAYS", 3)
	v.SetDefault("SCHEDULER_TIMEZONE", "UTC")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_SERVICE_NAME", "lending-engine")

	v.SetDefault("LOCK_TTL", "10s")
	v.SetDefault("CACHE_TTL", "24h")
	v.SetDefault("HEALTH_CHECK_TIMEOUT", "5s")
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	// .env values never override variables already set in the environment
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	return FromViper(v)
}

// FromViper builds and validates a Config from an already populated viper
// instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Env:          v.GetString("ENV"),
			ReadTimeout:  v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("SERVER_WRITE_TIMEOUT"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			Host:            v.GetString("DATABASE_HOST"),
			Port:            v.GetString("DATABASE_PORT"),
			Name:            v.GetString("DATABASE_NAME"),
			User:            v.GetString("DATABASE_USER"),
			Password:        v.GetString("DATABASE_PASSWORD"),
			SSLMode:         v.GetString("DATABASE_SSLMODE"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
			AutoMigrate:     v.GetBool("DATABASE_AUTO_MIGRATE"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Scheduler: SchedulerConfig{
			OverdueSpec:  v.GetString("SCHEDULER_OVERDUE_SPEC"),
			ReminderSpec: v.GetString("SCHEDULER_REMINDER_SPEC"),
			ReminderDays: v.GetInt("SCHEDULER_REMINDER_DAYS"),
			Timezone:     v.GetString("SCHEDULER_TIMEZONE"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Tracing: TracingConfig{
			Endpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: v.GetString("OTEL_SERVICE_NAME"),
		},
		Lock:   LockConfig{TTL: v.GetDuration("LOCK_TTL")},
		Cache:  CacheConfig{TTL: v.GetDuration("CACHE_TTL")},
		Health: HealthConfig{Timeout: v.GetDuration("HEALTH_CHECK_TIMEOUT")},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	if c.Database.URL == "" && c.Database.Host == "" {
		return fmt.Errorf("DATABASE_URL or DATABASE_HOST is required")
	}

	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("DATABASE_MAX_OPEN_CONNS must be greater than 0")
	}

	if c.Lock.TTL <= 0 {
		return fmt.Errorf("LOCK_TTL must be a positive duration")
	}

	if c.Scheduler.ReminderDays < 0 {
		return fmt.Errorf("SCHEDULER_REMINDER_DAYS must not be negative")
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}

	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	for name, spec := range map[string]string{
		"SCHEDULER_OVERDUE_SPEC":  c.Scheduler.OverdueSpec,
		"SCHEDULER_REMINDER_SPEC": c.Scheduler.ReminderSpec,
	} {
		if _, err := parser.Parse(spec); err != nil {
			return fmt.Errorf("%s must be a valid cron spec with seconds: %w", name, err)
		}
	}

	return nil
}

// DSN returns the postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Addr returns host:port of the redis server.
func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Env, "production") || strings.EqualFold(c.Server.Env, "prod")
}

// Location returns the scheduler timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
