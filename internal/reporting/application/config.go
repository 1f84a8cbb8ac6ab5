package application

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"bptracker/internal/reporting/chart"
	"bptracker/internal/reporting/document"
)

// EmailConfig is the fixed envelope for e-mailed reports.
type EmailConfig struct {
	FromName string   `yaml:"from_name"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Subject  string   `yaml:"subject"`
	Body     string   `yaml:"body"`
}

// Config defines report rendering and e-mail settings.
type Config struct {
	InlineChart   chart.Options       `yaml:"inline_chart"`
	DocumentChart chart.Options       `yaml:"document_chart"`
	PDF           document.PDFOptions `yaml:"pdf"`
	Email         EmailConfig         `yaml:"email"`
}

// DefaultConfig returns the built-in report settings.
func DefaultConfig() Config {
	return Config{
		InlineChart:   chart.InlineOptions(),
		DocumentChart: chart.DocumentOptions(),
		PDF:           document.DefaultPDFOptions(),
		Email: EmailConfig{
			FromName: "Blood Pressure Tracker",
			Subject:  "Blood Pressure Report",
			Body:     "Please find attached the blood pressure report.",
		},
	}
}

// LoadConfig starts from defaults, applies the YAML file named by
// REPORT_CONFIG, then environment overrides.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("REPORT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	cfg.InlineChart.DPI = getenvFloatDefault("REPORT_INLINE_DPI", cfg.InlineChart.DPI)
	cfg.DocumentChart.DPI = getenvFloatDefault("REPORT_DOCUMENT_DPI", cfg.DocumentChart.DPI)
	cfg.DocumentChart.TickDays = getenvIntDefault("REPORT_DOCUMENT_TICK_DAYS", cfg.DocumentChart.TickDays)
	cfg.PDF.ImageWidthMM = getenvFloatDefault("REPORT_PDF_IMAGE_WIDTH_MM", cfg.PDF.ImageWidthMM)
	cfg.Email.FromName = getenvDefault("MAIL_FROM_NAME", cfg.Email.FromName)
	cfg.Email.From = getenvDefault("MAIL_FROM", cfg.Email.From)
	if to := splitCSV(os.Getenv("MAIL_TO")); len(to) > 0 {
		cfg.Email.To = to
	}
	cfg.Email.Subject = getenvDefault("MAIL_SUBJECT", cfg.Email.Subject)
	cfg.Email.Body = getenvDefault("MAIL_BODY", cfg.Email.Body)

	if cfg.InlineChart.DPI <= 0 || cfg.DocumentChart.DPI <= 0 {
		return cfg, errors.New("reporting: chart dpi must be positive")
	}
	if cfg.PDF.ImageWidthMM <= 0 {
		return cfg, errors.New("reporting: pdf image width must be positive")
	}
	return cfg, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitCSV(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	var result []string
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}
