package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"agendasync/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	CredentialsJSON string
	SpreadsheetID   string
	SheetName       string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	WebhookToken string
	AuthDisabled bool

	SchemaVersion    string
	ValidationStrict bool
	RequiredFields   []string
	LegacyTimeOffset bool
	AppendTimeout    time.Duration

	DedupEnabled   bool
	DedupCacheSize int
	DedupTTL       time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. The service fails fast here: a missing credential or token is
// a startup error, never a per-request surprise.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	appendTimeout, err := parseDuration("APPEND_TIMEOUT", "20s")
	if err != nil {
		return nil, err
	}
	dedupTTL, err := parseDuration("DEDUP_TTL", "24h")
	if err != nil {
		return nil, err
	}
	dedupCacheSize, err := parsePositiveInt("DEDUP_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		CredentialsJSON: os.Getenv("SHEETS_CREDENTIALS_JSON"),
		SpreadsheetID:   os.Getenv("SHEETS_SPREADSHEET_ID"),
		SheetName:       envOrDefault("SHEET_NAME", "Agendamentos"),

		HTTPAddr:        listenAddr(),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		WebhookToken: os.Getenv("WEBHOOK_TOKEN"),
		AuthDisabled: envBool("AUTH_DISABLED", false),

		SchemaVersion:    envOrDefault("SCHEMA_VERSION", domain.SchemaV5),
		ValidationStrict: envOrDefault("VALIDATION_MODE", "strict") == "strict",
		RequiredFields:   splitList(envOrDefault("REQUIRED_FIELDS", "vistoriador.nome,dataHoraInicio")),
		LegacyTimeOffset: envBool("LEGACY_TIME_OFFSET", false),
		AppendTimeout:    appendTimeout,

		DedupEnabled:   envBool("DEDUP_ENABLED", false),
		DedupCacheSize: dedupCacheSize,
		DedupTTL:       dedupTTL,
	}

	if mode := envOrDefault("VALIDATION_MODE", "strict"); mode != "strict" && mode != "lenient" {
		return nil, fmt.Errorf("invalid VALIDATION_MODE %q (want strict or lenient)", mode)
	}
	if cfg.CredentialsJSON == "" {
		return nil, errors.New("SHEETS_CREDENTIALS_JSON is required")
	}
	if cfg.SpreadsheetID == "" {
		return nil, errors.New("SHEETS_SPREADSHEET_ID is required")
	}
	if !cfg.AuthDisabled && cfg.WebhookToken == "" {
		return nil, errors.New("WEBHOOK_TOKEN is required unless AUTH_DISABLED=true")
	}

	return cfg, nil
}

// listenAddr resolves the listen address. HTTP_ADDR wins; PORT alone is
// honored for PaaS deployments that inject only a port number.
func listenAddr() string {
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":10000"
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v == "true" || v == "1"
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
