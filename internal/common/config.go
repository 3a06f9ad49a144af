package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Page source names accepted by PAGE_SOURCE and the -source flag.
const (
	PageSourceAuto      = "auto"
	PageSourcePDF       = "pdf"
	PageSourcePdftotext = "pdftotext"
	PageSourceOCR       = "ocr"
)

// PageSources lists the valid page source names.
var PageSources = []string{PageSourceAuto, PageSourcePDF, PageSourcePdftotext, PageSourceOCR}

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Pages    PagesConfig
	Extract  ExtractConfig
	Worker   WorkerConfig
	LogLevel slog.Level
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// PagesConfig holds page-text acquisition configuration
type PagesConfig struct {
	Source        string
	Pdftotext     string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	TessdataDir   string
	DPI           int
	PSM           int
	MaxPages      int
	NormalizeText bool
}

// ExtractConfig holds line-extraction configuration
type ExtractConfig struct {
	RulesFile     string
	RequireUserID bool
}

// WorkerConfig holds batch worker configuration
type WorkerConfig struct {
	Workers        int
	ProcessTimeout time.Duration
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             getEnv("DB_URL", ""),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Pages: PagesConfig{
			Source:        strings.ToLower(getEnv("PAGE_SOURCE", PageSourceAuto)),
			Pdftotext:     getEnv("PDFTOTEXT", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM", "pdftoppm"),
			Tesseract:     getEnv("TESSERACT", "tesseract"),
			TesseractLang: getEnv("TESSERACT_LANG", "eng"),
			TessdataDir:   getEnv("TESSDATA_PREFIX", ""),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			PSM:           getEnvAsInt("OCR_PSM", 6),
			MaxPages:      getEnvAsInt("MAX_PAGES", 0),
			NormalizeText: getEnvAsBool("PUNCH_NORMALIZE_TEXT", false),
		},
		Extract: ExtractConfig{
			RulesFile:     getEnv("PUNCH_RULES_FILE", ""),
			RequireUserID: getEnvAsBool("PUNCH_REQUIRE_USER_ID", false),
		},
		Worker: WorkerConfig{
			Workers:        getEnvAsInt("WORKERS", 4),
			ProcessTimeout: getEnvAsDuration("PROCESS_TIMEOUT", 3*time.Minute),
		},
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(value)); err == nil {
			return lvl
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("PAGE_SOURCE", c.Pages.Source, OneOf(PageSources...)).
		Field("PDFTOTEXT", c.Pages.Pdftotext, Required).
		Field("PDFTOPPM", c.Pages.Pdftoppm, Required).
		Field("TESSERACT", c.Pages.Tesseract, Required).
		Field("TESSERACT_LANG", c.Pages.TesseractLang, Required).
		Field("OCR_DPI", c.Pages.DPI, Positive).
		Field("WORKERS", c.Worker.Workers, Positive)
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}

// NewLogger builds the JSON slog logger used by every command.
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
