package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *ProductionConfig {
	return &ProductionConfig{
		Server: ServerConfig{
			Port:           3000,
			ReadTimeout:    time.Second,
			WriteTimeout:   time.Second,
			RequestTimeout: time.Second,
		},
		Sheets: SheetsConfig{
			Provider:        "google",
			SpreadsheetID:   "sheet-id",
			SheetName:       "Sheet1",
			CredentialsPath: []string{"service-account.json"},
		},
		Allocation: AllocationConfig{Attempts: 3, Timeout: time.Second},
		Archive:    ArchiveConfig{Dir: "backups"},
		Logging:    LoggingConfig{Level: "info", Output: "stdout"},
	}
}

func TestValidateProductionConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *ProductionConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*ProductionConfig) {}},
		{
			name:   "memory provider needs no spreadsheet",
			mutate: func(cfg *ProductionConfig) { cfg.Sheets = SheetsConfig{Provider: "memory", SheetName: "Sheet1"} },
		},
		{
			name:    "bad port",
			mutate:  func(cfg *ProductionConfig) { cfg.Server.Port = 0 },
			wantErr: "SERVER_PORT",
		},
		{
			name:    "google without spreadsheet id",
			mutate:  func(cfg *ProductionConfig) { cfg.Sheets.SpreadsheetID = "" },
			wantErr: "GOOGLE_SHEETS_SPREADSHEET_ID",
		},
		{
			name:    "unknown provider",
			mutate:  func(cfg *ProductionConfig) { cfg.Sheets.Provider = "excel" },
			wantErr: "SHEETS_PROVIDER",
		},
		{
			name:    "zero attempts",
			mutate:  func(cfg *ProductionConfig) { cfg.Allocation.Attempts = 0 },
			wantErr: "ALLOCATION_ATTEMPTS",
		},
		{
			name:    "negative delay",
			mutate:  func(cfg *ProductionConfig) { cfg.Allocation.CollisionDelay = -time.Second },
			wantErr: "delays must not be negative",
		},
		{
			name:    "cache without url",
			mutate:  func(cfg *ProductionConfig) { cfg.Cache = CacheConfig{Enabled: true} },
			wantErr: "CACHE_REDIS_URL",
		},
		{
			name:    "audit without host",
			mutate:  func(cfg *ProductionConfig) { cfg.Audit = AuditConfig{Enabled: true, Name: "turnix", User: "turnix"} },
			wantErr: "AUDIT_DB_HOST",
		},
		{
			name:    "bad log level",
			mutate:  func(cfg *ProductionConfig) { cfg.Logging.Level = "trace" },
			wantErr: "LOG_LEVEL",
		},
		{
			name:    "bad log output",
			mutate:  func(cfg *ProductionConfig) { cfg.Logging.Output = "syslog" },
			wantErr: "LOG_OUTPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := ValidateProductionConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateProductionConfig_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = -1
	cfg.Archive.Dir = ""

	err := ValidateProductionConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_PORT")
	assert.Contains(t, err.Error(), "ARCHIVE_DIR")
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("TURNIX_TEST_INT", "42")
	t.Setenv("TURNIX_TEST_BAD_INT", "forty")
	t.Setenv("TURNIX_TEST_BOOL", "true")
	t.Setenv("TURNIX_TEST_DURATION", "1500ms")
	t.Setenv("TURNIX_TEST_SLICE", " a, ,b ,c")

	assert.Equal(t, "fallback", getEnvString("TURNIX_TEST_MISSING", "fallback"))
	assert.Equal(t, 42, getEnvInt("TURNIX_TEST_INT", 1))
	assert.Equal(t, 1, getEnvInt("TURNIX_TEST_BAD_INT", 1))
	assert.True(t, getEnvBool("TURNIX_TEST_BOOL", false))
	assert.Equal(t, 1500*time.Millisecond, getEnvDuration("TURNIX_TEST_DURATION", time.Second))
	assert.Equal(t, []string{"a", "b", "c"}, getEnvStringSlice("TURNIX_TEST_SLICE", nil))
	assert.Equal(t, []string{"x"}, getEnvStringSlice("TURNIX_TEST_MISSING", []string{"x"}))
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TURNIX_TEST_FROM_FILE=sheet\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("TURNIX_TEST_FROM_FILE") })

	loaded, err := loadEnvFile([]string{filepath.Join(dir, ".env.local"), envPath})
	require.NoError(t, err)
	assert.Equal(t, envPath, loaded)
	assert.Equal(t, "sheet", os.Getenv("TURNIX_TEST_FROM_FILE"))
}

func TestLoadEnvFile_NoCandidates(t *testing.T) {
	loaded, err := loadEnvFile([]string{filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestLoadEnvFile_KeepsExistingEnvironment(t *testing.T) {
	t.Setenv("TURNIX_TEST_PRESET", "from-env")
	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TURNIX_TEST_PRESET=from-file\n"), 0o600))

	_, err := loadEnvFile([]string{envPath})
	require.NoError(t, err)
	assert.Equal(t, "from-env", os.Getenv("TURNIX_TEST_PRESET"))
}
