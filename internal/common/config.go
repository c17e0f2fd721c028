package common

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database  DatabaseConfig
	Intake    IntakeConfig
	SMTP      SMTPConfig
	LLM       LLMConfig
	OCR       OCRConfig
	Scheduler SchedulerConfig
}

// DatabaseConfig holds storage-related configuration
type DatabaseConfig struct {
	Path             string
	LogRetentionDays int // 0 = keep audit entries forever
}

// IntakeConfig holds intake collaborator configuration
type IntakeConfig struct {
	DropDir      string
	ProcessedDir string
	Marker       string
	BatchSize    int
}

// SMTPConfig holds outbound notification configuration
type SMTPConfig struct {
	Host     string
	Port     string
	From     string
	Username string
	Password string
}

// LLMConfig holds reasoning-service configuration
type LLMConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	Timeout     time.Duration
	MaxTokens   int
}

// OCRConfig holds text-extraction configuration
type OCRConfig struct {
	Pdftotext     string
	Mutool        string
	Pdftoppm      string
	Tesseract     string
	TesseractLang string
	DPI           int
	MaxPages      int
}

// SchedulerConfig holds the batch cadence for the daemon
type SchedulerConfig struct {
	Interval time.Duration
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Path:             getEnv("KYC_DB_PATH", "kyc_compliance.db"),
			LogRetentionDays: getEnvAsInt("KYC_LOG_RETENTION_DAYS", 0),
		},
		Intake: IntakeConfig{
			DropDir:      getEnv("KYC_DROP_DIR", "kyc_inbox"),
			ProcessedDir: getEnv("KYC_PROCESSED_DIR", ""),
			Marker:       getEnv("KYC_SUBJECT_MARKER", "KYC"),
			BatchSize:    getEnvAsInt("KYC_BATCH_SIZE", 5),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "localhost"),
			Port:     getEnv("SMTP_PORT", "1025"),
			From:     getEnv("SMTP_FROM", "kyc-compliance@example.com"),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
		},
		LLM: LLMConfig{
			APIKey:      getEnv("GROQ_API_KEY", ""),
			BaseURL:     getEnv("GROQ_BASE_URL", "https://api.groq.com/openai/v1"),
			Model:       getEnv("GROQ_MODEL", "llama-3.1-8b-instant"),
			Temperature: getEnvAsFloat32("GROQ_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("GROQ_TIMEOUT", 45*time.Second),
			MaxTokens:   getEnvAsInt("GROQ_MAX_TOKENS", 2000),
		},
		OCR: OCRConfig{
			Pdftotext:     getEnv("OCR_PDFTOTEXT", "pdftotext"),
			Mutool:        getEnv("OCR_MUTOOL", "mutool"),
			Pdftoppm:      getEnv("OCR_PDFTOPPM", "pdftoppm"),
			Tesseract:     getEnv("OCR_TESSERACT", "tesseract"),
			TesseractLang: getEnv("OCR_TESSERACT_LANG", "eng"),
			DPI:           getEnvAsInt("OCR_DPI", 300),
			MaxPages:      getEnvAsInt("OCR_MAX_PAGES", 0),
		},
		Scheduler: SchedulerConfig{
			Interval: getEnvAsDuration("KYC_BATCH_INTERVAL", 30*time.Minute),
		},
	}
}

// Validate checks the configuration needed by the document-to-decision
// pipeline. A missing reasoning-service key refuses to start rather than
// silently skipping validation.
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "GROQ_API_KEY is required", ErrConfiguration)
	}
	if c.Database.Path == "" {
		return NewAppError("CONFIG_ERROR", "KYC_DB_PATH is required", ErrConfiguration)
	}
	if c.Intake.DropDir == "" {
		return NewAppError("CONFIG_ERROR", "KYC_DROP_DIR is required", ErrConfiguration)
	}
	return nil
}

// ValidateSMTP checks the configuration needed by the notification sweep.
func (c *Config) ValidateSMTP() error {
	if c.SMTP.Host == "" || c.SMTP.Port == "" {
		return NewAppError("CONFIG_ERROR", "SMTP_HOST and SMTP_PORT are required", ErrConfiguration)
	}
	if c.SMTP.From == "" {
		return NewAppError("CONFIG_ERROR", "SMTP_FROM is required", ErrConfiguration)
	}
	return nil
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

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
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
