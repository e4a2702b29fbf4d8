// Package config provides configuration management and environment variable handling for the application
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/turnixpro/turnix/utils"
)

// ProductionConfig holds all configuration for the gestiones service
type ProductionConfig struct {
	Server     ServerConfig     `json:"server"`
	Sheets     SheetsConfig     `json:"sheets"`
	Allocation AllocationConfig `json:"allocation"`
	Cache      CacheConfig      `json:"cache"`
	Audit      AuditConfig      `json:"audit"`
	Archive    ArchiveConfig    `json:"archive"`
	Logging    LoggingConfig    `json:"logging"`
	Metrics    MetricsConfig    `json:"metrics"`
	Deployment DeploymentConfig `json:"deployment"`
}

type ServerConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	RequestTimeout  time.Duration `json:"request_timeout"`
	BodyLimit       int           `json:"body_limit"`
	AllowedOrigins  []string      `json:"allowed_origins"`
	RateLimit       int           `json:"rate_limit"` // requests per minute
}

type SheetsConfig struct {
	Provider        string        `json:"provider"` // google, memory
	SpreadsheetID   string        `json:"spreadsheet_id"`
	SheetName       string        `json:"sheet_name"`
	CredentialsPath []string      `json:"credentials_path"`
	RequestTimeout  time.Duration `json:"request_timeout"`
}

// AllocationConfig tunes the verify-after-write loop that assigns gestion ids
type AllocationConfig struct {
	Attempts         int           `json:"attempts"`
	CollisionDelay   time.Duration `json:"collision_delay"`
	UnconfirmedDelay time.Duration `json:"unconfirmed_delay"`
	Timeout          time.Duration `json:"timeout"`
}

type CacheConfig struct {
	Enabled     bool          `json:"enabled"`
	RedisURL    string        `json:"redis_url"`
	RedisDB     int           `json:"redis_db"`
	RedisPrefix string        `json:"redis_prefix"`
	TTL         time.Duration `json:"ttl"`
}

type AuditConfig struct {
	Enabled         bool          `json:"enabled"`
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

type ArchiveConfig struct {
	Dir              string        `json:"dir"`
	AutoOnExhaustion bool          `json:"auto_on_exhaustion"`
	Timeout          time.Duration `json:"timeout"`
	BackupFilePrefix string        `json:"backup_file_prefix"`
	BackupSheetName  string        `json:"backup_sheet_name"`
}

type LoggingConfig struct {
	Level      string `json:"level"`  // debug, info, warn, error
	Output     string `json:"output"` // stdout, file, both
	FilePath   string `json:"file_path"`
	MaxSize    int    `json:"max_size"` // MB
	MaxBackups int    `json:"max_backups"`
	MaxAge     int    `json:"max_age"` // days
	Compress   bool   `json:"compress"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type DeploymentConfig struct {
	Environment string `json:"environment"`
	Version     string `json:"version"`
	TimeZone    string `json:"time_zone"`
	Office      string `json:"office"`
}

// envFileCandidates lists where .env files are looked up, first match wins
var envFileCandidates = []string{
	".env.local",
	filepath.Join("resources", "env", ".env.local"),
	filepath.Join("env", ".env.local"),
	".env",
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	if _, err := loadEnvFile(envFileCandidates); err != nil {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg := &ProductionConfig{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "127.0.0.1"),
			Port:            getEnvInt("SERVER_PORT", 3000),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			RequestTimeout:  getEnvDuration("SERVER_REQUEST_TIMEOUT", 30*time.Second),
			BodyLimit:       getEnvInt("SERVER_BODY_LIMIT", 1024*1024), // 1MB
			AllowedOrigins:  getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"}),
			RateLimit:       getEnvInt("GLOBAL_RATE_LIMIT", 600),
		},
		Sheets: SheetsConfig{
			Provider:        getEnvString("SHEETS_PROVIDER", "google"),
			SpreadsheetID:   getEnvString("GOOGLE_SHEETS_SPREADSHEET_ID", ""),
			SheetName:       getEnvString("SHEET_NAME", "Sheet1"),
			CredentialsPath: getEnvStringSlice("GOOGLE_CREDENTIALS_PATH", []string{filepath.Join("credentials", "service-account.json"), filepath.Join("resources", "credentials", "service-account.json")}),
			RequestTimeout:  getEnvDuration("SHEETS_REQUEST_TIMEOUT", 10*time.Second),
		},
		Allocation: AllocationConfig{
			Attempts:         getEnvInt("ALLOCATION_ATTEMPTS", utils.DefaultAllocationAttempts),
			CollisionDelay:   getEnvDuration("ALLOCATION_COLLISION_DELAY", utils.DefaultCollisionDelay),
			UnconfirmedDelay: getEnvDuration("ALLOCATION_UNCONFIRMED_DELAY", utils.DefaultUnconfirmedDelay),
			Timeout:          getEnvDuration("ALLOCATION_TIMEOUT", utils.DefaultAllocationTimeout),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", false),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix: getEnvString("CACHE_REDIS_PREFIX", "turnix:"),
			TTL:         getEnvDuration("CACHE_TTL", 2*time.Second),
		},
		Audit: AuditConfig{
			Enabled:         getEnvBool("AUDIT_DB_ENABLED", false),
			Host:            getEnvString("AUDIT_DB_HOST", "localhost"),
			Port:            getEnvInt("AUDIT_DB_PORT", 5432),
			Name:            getEnvString("AUDIT_DB_NAME", "turnix"),
			User:            getEnvString("AUDIT_DB_USER", "turnix"),
			Password:        getEnvString("AUDIT_DB_PASSWORD", ""),
			SSLMode:         getEnvString("AUDIT_DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvInt("AUDIT_DB_MAX_OPEN_CONNS", 5),
			MaxIdleConns:    getEnvInt("AUDIT_DB_MAX_IDLE_CONNS", 2),
			ConnMaxLifetime: getEnvDuration("AUDIT_DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Archive: ArchiveConfig{
			Dir:              getEnvString("ARCHIVE_DIR", "backups"),
			AutoOnExhaustion: getEnvBool("ARCHIVE_AUTO_ON_EXHAUSTION", true),
			Timeout:          getEnvDuration("ARCHIVE_TIMEOUT", 2*time.Minute),
			BackupFilePrefix: getEnvString("ARCHIVE_BACKUP_PREFIX", "backup_turnix"),
			BackupSheetName:  getEnvString("ARCHIVE_BACKUP_SHEET", "Gestiones"),
		},
		Logging: LoggingConfig{
			Level:      getEnvString("LOG_LEVEL", "info"),
			Output:     getEnvString("LOG_OUTPUT", "both"),
			FilePath:   getEnvString("LOG_FILE_PATH", filepath.Join("logs", "turnix.log")),
			MaxSize:    getEnvInt("LOG_MAX_SIZE", 20),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
			MaxAge:     getEnvInt("LOG_MAX_AGE", 30),
			Compress:   getEnvBool("LOG_COMPRESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Deployment: DeploymentConfig{
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			TimeZone:    getEnvString("APP_TIMEZONE", "America/El_Salvador"),
			Office:      getEnvString("APP_OFFICE", "ElCongo"),
		},
	}

	// Validate the loaded configuration
	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadEnvFile loads the first existing file among candidates; variables already present in
// the environment are left untouched. It returns the path loaded, or "" when none exists.
func loadEnvFile(candidates []string) (string, error) {
	for _, p := range candidates {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return "", fmt.Errorf("failed to parse %s: %w", p, err)
		}
		return p, nil
	}
	return "", nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errors []string

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errors = append(errors, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errors = append(errors, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errors = append(errors, "SERVER_WRITE_TIMEOUT must be positive")
	}
	if cfg.Server.RequestTimeout <= 0 {
		errors = append(errors, "SERVER_REQUEST_TIMEOUT must be positive")
	}

	// Validate backing store configuration
	switch cfg.Sheets.Provider {
	case "google":
		if cfg.Sheets.SpreadsheetID == "" {
			errors = append(errors, "GOOGLE_SHEETS_SPREADSHEET_ID is required for the google provider")
		}
		if len(cfg.Sheets.CredentialsPath) == 0 {
			errors = append(errors, "GOOGLE_CREDENTIALS_PATH is required for the google provider")
		}
	case "memory":
	default:
		errors = append(errors, "SHEETS_PROVIDER must be one of: google, memory")
	}
	if cfg.Sheets.SheetName == "" {
		errors = append(errors, "SHEET_NAME is required")
	}

	// Validate allocation configuration
	if cfg.Allocation.Attempts < 1 {
		errors = append(errors, "ALLOCATION_ATTEMPTS must be at least 1")
	}
	if cfg.Allocation.CollisionDelay < 0 || cfg.Allocation.UnconfirmedDelay < 0 {
		errors = append(errors, "ALLOCATION delays must not be negative")
	}
	if cfg.Allocation.Timeout <= 0 {
		errors = append(errors, "ALLOCATION_TIMEOUT must be positive")
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled && cfg.Cache.RedisURL == "" {
		errors = append(errors, "CACHE_REDIS_URL is required when cache is enabled")
	}

	// Validate audit database if enabled
	if cfg.Audit.Enabled {
		if cfg.Audit.Host == "" {
			errors = append(errors, "AUDIT_DB_HOST is required when audit is enabled")
		}
		if cfg.Audit.Name == "" {
			errors = append(errors, "AUDIT_DB_NAME is required when audit is enabled")
		}
		if cfg.Audit.User == "" {
			errors = append(errors, "AUDIT_DB_USER is required when audit is enabled")
		}
	}

	if cfg.Archive.Dir == "" {
		errors = append(errors, "ARCHIVE_DIR is required")
	}

	// Validate logging configuration
	if cfg.Logging.Level != "" {
		validLevels := []string{"debug", "info", "warn", "error"}
		valid := false
		for _, level := range validLevels {
			if cfg.Logging.Level == level {
				valid = true
				break
			}
		}
		if !valid {
			errors = append(errors, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
		}
	}
	switch cfg.Logging.Output {
	case "stdout", "file", "both":
	default:
		errors = append(errors, "LOG_OUTPUT must be one of: stdout, file, both")
	}

	// Return validation errors if any
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errors, "; "))
	}

	return nil
}
