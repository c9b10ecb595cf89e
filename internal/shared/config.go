package shared

import (
	"errors"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv      string
	HTTPAddr    string
	MetricsAddr string

	SerpAPIBase string
	SerpAPIKey  string
	Language    string

	LLMProvider    string
	OpenAIKey      string
	OpenAIModel    string
	OpenAIBase     string
	AnthropicKey   string
	AnthropicModel string
	LLMRPS         float64
	LLMCacheTTL    time.Duration

	SentimentProvider string
	HFToken           string
	HFBase            string
	HFModel           string

	ThemeSample   int
	SummarySample int

	SessionStore string
	SessionTTL   time.Duration
	RedisAddr    string
	RedisPass    string
	RedisDB      int

	Workers int
}

var defaults = map[string]any{
	"app_env":               "prod",
	"http_addr":             ":8080",
	"metrics_addr":          "",
	"serpapi_api_key":       "",
	"serpapi_base_url":      "https://serpapi.com",
	"reviews_language":      "en",
	"llm_provider":          "openai",
	"openai_api_key":        "",
	"openai_model":          "gpt-4.1-mini",
	"openai_base_url":       "",
	"anthropic_api_key":     "",
	"anthropic_model":       "claude-sonnet-4-5-20250929",
	"llm_rps":               0.0,
	"llm_cache_ttl_seconds": 0,
	"sentiment_provider":    "huggingface",
	"hf_api_token":          "",
	"hf_base_url":           "https://api-inference.huggingface.co",
	"hf_sentiment_model":    "distilbert-base-uncased-finetuned-sst-2-english",
	"theme_sample_size":     50,
	"summary_sample_size":   100,
	"session_store":         "memory",
	"session_ttl_seconds":   3600,
	"redis_addr":            "localhost:6379",
	"redis_password":        "",
	"redis_db":              0,
	"pipeline_workers":      4,
}

// Load reads .env (if present), the optional file at CONFIG_PATH, then the
// process environment; later sources win. Missing keys only warn here.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg(".env could not be read")
	}

	v := viper.New()
	for k, d := range defaults {
		v.SetDefault(k, d)
	}
	v.AutomaticEnv()
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("config file could not be read")
		}
	}

	c := Config{
		AppEnv:      v.GetString("app_env"),
		HTTPAddr:    v.GetString("http_addr"),
		MetricsAddr: v.GetString("metrics_addr"),

		SerpAPIBase: v.GetString("serpapi_base_url"),
		SerpAPIKey:  v.GetString("serpapi_api_key"),
		Language:    v.GetString("reviews_language"),

		LLMProvider:    v.GetString("llm_provider"),
		OpenAIKey:      v.GetString("openai_api_key"),
		OpenAIModel:    v.GetString("openai_model"),
		OpenAIBase:     v.GetString("openai_base_url"),
		AnthropicKey:   v.GetString("anthropic_api_key"),
		AnthropicModel: v.GetString("anthropic_model"),
		LLMRPS:         v.GetFloat64("llm_rps"),
		LLMCacheTTL:    time.Duration(v.GetInt("llm_cache_ttl_seconds")) * time.Second,

		SentimentProvider: v.GetString("sentiment_provider"),
		HFToken:           v.GetString("hf_api_token"),
		HFBase:            v.GetString("hf_base_url"),
		HFModel:           v.GetString("hf_sentiment_model"),

		ThemeSample:   v.GetInt("theme_sample_size"),
		SummarySample: v.GetInt("summary_sample_size"),

		SessionStore: v.GetString("session_store"),
		SessionTTL:   time.Duration(v.GetInt("session_ttl_seconds")) * time.Second,
		RedisAddr:    v.GetString("redis_addr"),
		RedisPass:    v.GetString("redis_password"),
		RedisDB:      v.GetInt("redis_db"),

		Workers: v.GetInt("pipeline_workers"),
	}
	c.warnMissing()
	return c
}

func (c Config) warnMissing() {
	if c.SerpAPIKey == "" {
		log.Warn().Msg("SERPAPI_API_KEY is empty; fetches need a per-request key")
	}
	if c.LLMProvider == "anthropic" && c.AnthropicKey == "" {
		log.Warn().Msg("ANTHROPIC_API_KEY is empty")
	}
	if c.LLMProvider != "anthropic" && c.OpenAIKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is empty")
	}
	if c.SentimentProvider == "huggingface" && c.HFToken == "" {
		log.Warn().Msg("HF_API_TOKEN is empty")
	}
}
