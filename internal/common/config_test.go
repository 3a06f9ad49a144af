package common

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"DB_URL", "PAGE_SOURCE", "OCR_DPI", "WORKERS", "LOG_LEVEL", "PUNCH_REQUIRE_USER_ID"} {
		t.Setenv(k, "")
	}

	cfg := LoadConfig()
	assert.Empty(t, cfg.Database.DSN)
	assert.Equal(t, PageSourceAuto, cfg.Pages.Source)
	assert.Equal(t, 300, cfg.Pages.DPI)
	assert.Equal(t, 6, cfg.Pages.PSM)
	assert.Equal(t, 4, cfg.Worker.Workers)
	assert.Equal(t, 3*time.Minute, cfg.Worker.ProcessTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.False(t, cfg.Extract.RequireUserID)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("DB_URL", "sqlite:runs.db")
	t.Setenv("DB_MAX_CONNS", "3")
	t.Setenv("PAGE_SOURCE", "OCR")
	t.Setenv("OCR_DPI", "not-a-number")
	t.Setenv("PROCESS_TIMEOUT", "45s")
	t.Setenv("PUNCH_REQUIRE_USER_ID", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()
	assert.Equal(t, "sqlite:runs.db", cfg.Database.DSN)
	assert.Equal(t, int32(3), cfg.Database.MaxConns)
	assert.Equal(t, PageSourceOCR, cfg.Pages.Source)
	assert.Equal(t, 300, cfg.Pages.DPI, "unparsable values keep the default")
	assert.Equal(t, 45*time.Second, cfg.Worker.ProcessTimeout)
	assert.True(t, cfg.Extract.RequireUserID)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestConfig_Validate(t *testing.T) {
	cfg := LoadConfig()
	cfg.Pages.Source = "magic"
	cfg.Worker.Workers = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, CodeConfig, CodeOf(err))
	assert.Contains(t, err.Error(), "PAGE_SOURCE")
	assert.Contains(t, err.Error(), "WORKERS")
}

func TestConfig_Validate_ToolPaths(t *testing.T) {
	for _, k := range []string{"PAGE_SOURCE", "OCR_DPI", "WORKERS", "TESSERACT", "TESSERACT_LANG"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	require.NoError(t, cfg.Validate())

	cfg.Pages.Tesseract = "  "
	cfg.Pages.TesseractLang = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, CodeConfig, CodeOf(err))
	assert.Contains(t, err.Error(), "'TESSERACT'")
	assert.Contains(t, err.Error(), "'TESSERACT_LANG'")
	assert.NotContains(t, err.Error(), "PDFTOTEXT")
}
