package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultNewsFeedURL     = "https://www.financejuice.com/feed"
	defaultHighFreqFeedURL = "https://www.financialjuice.com/feed.ashx?xy=rss"
	defaultFetchInterval   = 30 * time.Minute
	defaultPort            = "8080"
)

var defaultWatchlist = []string{"NVDA", "TSLA", "AAPL", "MSFT", "AMD", "AMZN", "GOOGL", "META"}

type Config struct {
	LLMProvider     string
	OpenAIAPIKey    string
	AnthropicAPIKey string
	LLMModel        string
	LLMMaxTokens    int

	FinnhubAPIKey string

	TelegramBotToken string
	TelegramChatID   string

	RedisURL string

	NewsFeedURL     string
	HighFreqFeedURL string
	Watchlist       []string

	FetchInterval time.Duration
	Port          string
}

// Load reads the environment into a Config, applying defaults. Invalid
// numeric or duration values are warned about and replaced by defaults
// rather than failing startup.
func Load() Config {
	cfg := Config{
		LLMProvider:      getenv("LLM_PROVIDER", "openai"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		LLMModel:         os.Getenv("LLM_MODEL"),
		FinnhubAPIKey:    os.Getenv("FINNHUB_API_KEY"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		RedisURL:         os.Getenv("REDIS_URL"),
		NewsFeedURL:      getenv("NEWS_FEED_URL", defaultNewsFeedURL),
		HighFreqFeedURL:  getenv("HIGH_FREQ_FEED_URL", defaultHighFreqFeedURL),
		Watchlist:        defaultWatchlist,
		FetchInterval:    defaultFetchInterval,
		Port:             getenv("PORT", defaultPort),
	}

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.LLMMaxTokens = n
		} else {
			slog.Warn("invalid LLM_MAX_TOKENS, using default", "value", v)
		}
	}

	if v := os.Getenv("WATCHLIST"); v != "" {
		var symbols []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
				symbols = append(symbols, s)
			}
		}
		if len(symbols) > 0 {
			cfg.Watchlist = symbols
		}
	}

	if v := os.Getenv("FETCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.FetchInterval = d
		} else {
			slog.Warn("invalid FETCH_INTERVAL, using default", "value", v)
		}
	}

	return cfg
}

// LLMAPIKey returns the credential matching the selected provider.
func (c Config) LLMAPIKey() string {
	if c.LLMProvider == "anthropic" {
		return c.AnthropicAPIKey
	}
	return c.OpenAIAPIKey
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
