package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Port               string
	CORSAllowOrigin    []string
	ObjectStoreType    string
	ObjectStoreTimeout time.Duration
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	DatabaseURL        string
	Env                string
	JWTSecret          string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	UIRedirectURL      string
	AppBaseURL         string
	APIBaseURL         string
	LLMBaseURL         string
	LLMAPIKey          string
	LLMModels          []string
	LLMTimeout         time.Duration
	LLMMaxTokens       int
	PDFRendererURL     string
	PDFRenderTimeout   time.Duration
	DraftRatePerMinute float64
	DraftBurst         int
	SeedAdminEmail     string
	SeedUserDomain     string
}

var defaults = map[string]any{
	"port":                  "8080",
	"cors_allow_origins":    "http://localhost:5173",
	"object_store":          "local",
	"local_store_dir":       "./data",
	"object_store_timeout":  "30s",
	"env":                   "dev",
	"app_base_url":          "http://localhost:5173",
	"api_base_url":          "http://localhost:8080",
	"llm_base_url":          "https://openrouter.ai/api/v1",
	"llm_models":            "",
	"llm_timeout":           "60s",
	"llm_max_tokens":        2000,
	"pdf_render_timeout":    "30s",
	"draft_rate_per_minute": 6,
	"draft_burst":           3,
	"seed_admin_email":      "admin@urs.local",
	"seed_user_domain":      "urs.local",
}

// Load reads configuration from environment variables, an optional .env file
// and an optional config.yaml, in increasing order of precedence: file values
// lose to real environment variables.
func Load() Config {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}

	// Best-effort load of local files for dev convenience.
	for _, envFile := range []string{".env", "cmd/.env"} {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
		if err := v.MergeInConfig(); err == nil {
			log.Printf("config: loaded %s", envFile)
		}
	}
	v.SetConfigFile("")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("cmd")
	if err := v.MergeInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Printf("config: config.yaml ignored: %v", err)
		}
	}
	v.AutomaticEnv()

	return FromViper(v)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("env"))
	dbURL := v.GetString("database_url")
	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:               v.GetString("port"),
		CORSAllowOrigin:    splitAndTrim(v.GetString("cors_allow_origins")),
		ObjectStoreType:    normalizeStoreType(v.GetString("object_store")),
		ObjectStoreTimeout: v.GetDuration("object_store_timeout"),
		LocalStoreDir:      v.GetString("local_store_dir"),
		AWSRegion:          v.GetString("aws_region"),
		S3Bucket:           v.GetString("s3_bucket"),
		S3Prefix:           v.GetString("s3_prefix"),
		SSEKMSKeyID:        v.GetString("sse_kms_key_id"),
		DatabaseURL:        dbURL,
		Env:                env,
		JWTSecret:          v.GetString("jwt_secret"),
		GoogleClientID:     v.GetString("google_client_id"),
		GoogleClientSecret: v.GetString("google_client_secret"),
		GoogleRedirectURL:  v.GetString("google_redirect_url"),
		UIRedirectURL:      v.GetString("ui_redirect_url"),
		AppBaseURL:         strings.TrimRight(v.GetString("app_base_url"), "/"),
		APIBaseURL:         strings.TrimRight(v.GetString("api_base_url"), "/"),
		LLMBaseURL:         strings.TrimRight(v.GetString("llm_base_url"), "/"),
		LLMAPIKey:          v.GetString("llm_api_key"),
		LLMModels:          splitAndTrim(v.GetString("llm_models")),
		LLMTimeout:         v.GetDuration("llm_timeout"),
		LLMMaxTokens:       v.GetInt("llm_max_tokens"),
		PDFRendererURL:     v.GetString("pdf_renderer_url"),
		PDFRenderTimeout:   v.GetDuration("pdf_render_timeout"),
		DraftRatePerMinute: v.GetFloat64("draft_rate_per_minute"),
		DraftBurst:         v.GetInt("draft_burst"),
		SeedAdminEmail:     v.GetString("seed_admin_email"),
		SeedUserDomain:     v.GetString("seed_user_domain"),
	}
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
