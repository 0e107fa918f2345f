package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/refresh"
	"github.com/cmlabs-hris/hrms-attendance-go/internal/pkg/worktime"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Attendance AttendanceConfig
	Refresh    RefreshConfig
	Archive    ArchiveConfig
	CORS       CORSConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port     int
	Env      string
	LogLevel string
	Timezone string
	Storage  string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
	// APIKeyHash is the bcrypt hash of the key accepted by the token endpoint.
	APIKeyHash string
}

type AttendanceConfig struct {
	AutoCheckoutAfter time.Duration
	LateAfter         string
	SweepInterval     time.Duration
	MarkAbsent        bool
	MarkAbsentHour    int
}

type RefreshConfig struct {
	// Enabled starts dashboard auto refresh with the server.
	Enabled      bool
	Interval     time.Duration
	MaxRetries   int
	PauseOnError bool
}

// ArchiveConfig enables the daily report archive when Dir is set.
type ArchiveConfig struct {
	Dir  string
	Hour int
}

type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var (
		config = &Config{}
		errs   []error
	)

	config.App = AppConfig{
		Port:     getEnvInt("APP_PORT", 8080, &errs),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Timezone: getEnv("APP_TIMEZONE", "UTC"),
		Storage:  strings.ToLower(getEnv("STORAGE", StorageMemory)),
	}

	config.Database = DatabaseConfig{
		URL:      getEnv("DATABASE_URL", ""),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432, &errs),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "hrms_attendance"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25, &errs)),
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: getEnvDuration("JWT_ACCESS_EXPIRATION_TIME", time.Hour, &errs),
		APIKeyHash:       getEnv("AUTH_API_KEY_HASH", ""),
	}

	config.Attendance = AttendanceConfig{
		AutoCheckoutAfter: getEnvDuration("ATTENDANCE_AUTO_CHECKOUT_AFTER", worktime.DefaultAutoCheckoutAfter, &errs),
		LateAfter:         getEnv("ATTENDANCE_LATE_AFTER", "09:30"),
		SweepInterval:     getEnvDuration("ATTENDANCE_SWEEP_INTERVAL", 5*time.Minute, &errs),
		MarkAbsent:        getEnvBool("ATTENDANCE_MARK_ABSENT", false, &errs),
		MarkAbsentHour:    getEnvInt("ATTENDANCE_MARK_ABSENT_HOUR", 0, &errs),
	}

	config.Refresh = RefreshConfig{
		Enabled:      getEnvBool("REFRESH_ENABLED", false, &errs),
		Interval:     getEnvDuration("REFRESH_INTERVAL", refresh.DefaultInterval, &errs),
		MaxRetries:   getEnvInt("REFRESH_MAX_RETRIES", refresh.DefaultMaxRetries, &errs),
		PauseOnError: getEnvBool("REFRESH_PAUSE_ON_ERROR", true, &errs),
	}

	config.Archive = ArchiveConfig{
		Dir:  getEnv("REPORT_ARCHIVE_DIR", ""),
		Hour: getEnvInt("REPORT_ARCHIVE_HOUR", 1, &errs),
	}

	config.CORS = CORSConfig{
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}
	if len(config.CORS.AllowedOrigins) == 0 {
		config.CORS.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	switch c.App.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" && c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD or DATABASE_URL is required for postgres storage")
		}
	default:
		return fmt.Errorf("STORAGE must be %q or %q, got %q", StorageMemory, StoragePostgres, c.App.Storage)
	}

	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.Attendance.SweepInterval <= 0 {
		return fmt.Errorf("ATTENDANCE_SWEEP_INTERVAL must be positive")
	}
	if c.Attendance.MarkAbsentHour < 0 || c.Attendance.MarkAbsentHour > 23 {
		return fmt.Errorf("ATTENDANCE_MARK_ABSENT_HOUR must be between 0 and 23")
	}
	if c.Archive.Hour < 0 || c.Archive.Hour > 23 {
		return fmt.Errorf("REPORT_ARCHIVE_HOUR must be between 0 and 23")
	}
	if !refresh.ValidInterval(c.Refresh.Interval) {
		return fmt.Errorf("REFRESH_INTERVAL: %w", refresh.ErrInvalidInterval)
	}
	if c.Refresh.MaxRetries < 1 {
		return fmt.Errorf("REFRESH_MAX_RETRIES must be at least 1")
	}
	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// Location is the zone that calendar days and clock times are read in.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.App.Timezone, err)
	}
	return loc, nil
}

// Policy builds the attendance timing rules.
func (c *Config) Policy() (worktime.Policy, error) {
	if c.Attendance.AutoCheckoutAfter <= 0 {
		return worktime.Policy{}, fmt.Errorf("ATTENDANCE_AUTO_CHECKOUT_AFTER must be positive")
	}
	lateAfter, err := worktime.ParseTimeOfDay(c.Attendance.LateAfter)
	if err != nil {
		return worktime.Policy{}, fmt.Errorf("invalid ATTENDANCE_LATE_AFTER: %w", err)
	}
	return worktime.Policy{
		AutoCheckoutAfter: c.Attendance.AutoCheckoutAfter,
		LateAfter:         lateAfter,
	}, nil
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.App.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int, errs *[]error) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool, errs *[]error) bool {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration, errs *[]error) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
		return fallback
	}
	return d
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
