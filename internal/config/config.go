package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the VoiceInvoice server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  StorageConfig
	Model    ModelConfig
	Invoice  InvoiceConfig
}

type ServerConfig struct {
	Port            int
	Env             string
	RateLimitPerMin int
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL            string
	ResultCacheTTL time.Duration
}

// StorageConfig configures the S3-compatible object store holding incoming
// audio and rendered PDFs.
type StorageConfig struct {
	Endpoint    string
	AccessKey   string
	SecretKey   string
	Secure      bool
	AudioBucket string
	PDFBucket   string
}

// ModelConfig configures the inference resource and the policies around it.
type ModelConfig struct {
	Runtime          string // "sidecar" or "mock"
	InferenceTimeout time.Duration
	LoadRetries      int
	LoadBackoff      time.Duration
	IdleUnloadAfter  time.Duration
	Sidecar          SidecarConfig
}

type SidecarConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// InvoiceConfig holds the deterministic autofill defaults.
type InvoiceConfig struct {
	DefaultCurrency string
	DefaultTaxRate  float64
	DueInDays       int
}

var validRuntimes = map[string]bool{
	"sidecar": true,
	"mock":    true,
}

// Load reads configuration from environment variables and returns a validated
// Config. Returns an error naming the offending variable if any required
// value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            envInt("VOICEINVOICE_PORT", 8080),
			Env:             envString("VOICEINVOICE_ENV", "development"),
			RateLimitPerMin: envInt("RATE_LIMIT_PER_MIN", 60),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:            os.Getenv("REDIS_URL"),
			ResultCacheTTL: envDurationSecs("RESULT_CACHE_TTL_SECS", 15*time.Minute),
		},
		Storage: StorageConfig{
			Endpoint:    envString("MINIO_ENDPOINT", "localhost:9000"),
			AccessKey:   envString("MINIO_ACCESS_KEY", "minioadmin"),
			SecretKey:   envString("MINIO_SECRET_KEY", "minioadmin"),
			Secure:      envBool("MINIO_SECURE", false),
			AudioBucket: envString("MINIO_AUDIO_BUCKET", "audio-inputs"),
			PDFBucket:   envString("MINIO_PDF_BUCKET", "generated-invoices"),
		},
		Model: ModelConfig{
			Runtime:          envString("MODEL_RUNTIME", "sidecar"),
			InferenceTimeout: envDurationSecs("INFERENCE_TIMEOUT_SECS", 120*time.Second),
			LoadRetries:      envInt("MODEL_LOAD_RETRIES", 3),
			LoadBackoff:      envDuration("MODEL_LOAD_BACKOFF", 500*time.Millisecond),
			IdleUnloadAfter:  envDurationSecs("MODEL_IDLE_UNLOAD_SECS", 10*time.Minute),
			Sidecar: SidecarConfig{
				BaseURL: envString("SIDECAR_BASE_URL", "http://localhost:9900"),
				Model:   envString("SIDECAR_MODEL", "Qwen/Qwen2-Audio-7B-Instruct"),
				Timeout: envDurationSecs("SIDECAR_HTTP_TIMEOUT_SECS", 180*time.Second),
			},
		},
		Invoice: InvoiceConfig{
			DefaultCurrency: envString("DEFAULT_CURRENCY", "USD"),
			DefaultTaxRate:  envFloat("DEFAULT_TAX_RATE", 0.08),
			DueInDays:       envInt("INVOICE_DUE_IN_DAYS", 30),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Storage.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required")
	}
	if c.Storage.AudioBucket == "" || c.Storage.PDFBucket == "" {
		return fmt.Errorf("MINIO_AUDIO_BUCKET and MINIO_PDF_BUCKET must be non-empty")
	}

	if !validRuntimes[c.Model.Runtime] {
		return fmt.Errorf("MODEL_RUNTIME must be one of sidecar, mock; got %q", c.Model.Runtime)
	}
	if c.Model.Runtime == "sidecar" {
		if c.Model.Sidecar.BaseURL == "" {
			return fmt.Errorf("SIDECAR_BASE_URL is required when MODEL_RUNTIME is sidecar")
		}
		if !strings.HasPrefix(c.Model.Sidecar.BaseURL, "http://") && !strings.HasPrefix(c.Model.Sidecar.BaseURL, "https://") {
			return fmt.Errorf("SIDECAR_BASE_URL must start with http:// or https://, got %q", c.Model.Sidecar.BaseURL)
		}
	}
	if c.Model.InferenceTimeout <= 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT_SECS must be positive")
	}
	if c.Model.LoadRetries < 1 {
		return fmt.Errorf("MODEL_LOAD_RETRIES must be at least 1")
	}

	if len(c.Invoice.DefaultCurrency) != 3 {
		return fmt.Errorf("DEFAULT_CURRENCY must be a 3-letter ISO 4217 code, got %q", c.Invoice.DefaultCurrency)
	}
	if c.Invoice.DefaultTaxRate < 0 || c.Invoice.DefaultTaxRate > 1 {
		return fmt.Errorf("DEFAULT_TAX_RATE must be between 0 and 1, got %v", c.Invoice.DefaultTaxRate)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}

func envDurationSecs(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	secs, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return time.Duration(secs) * time.Second
}
