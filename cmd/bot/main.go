package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/flying3615/news-state/internal/config"
	"github.com/flying3615/news-state/internal/dedup"
	"github.com/flying3615/news-state/internal/pipeline"
	"github.com/flying3615/news-state/pkg/congress"
	"github.com/flying3615/news-state/pkg/llm"
	"github.com/flying3615/news-state/pkg/news"
	"github.com/flying3615/news-state/pkg/notify"
	"github.com/flying3615/news-state/pkg/quote"
)

func main() {
	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	var store dedup.Store
	if cfg.RedisURL != "" {
		redisStore, err := dedup.NewRedisStore(cfg.RedisURL)
		if err != nil {
			log.Fatalf("error connecting to Redis: %v", err)
		}
		defer redisStore.Close()
		store = redisStore
	} else {
		slog.Warn("REDIS_URL not set, dedup marks will not survive restarts")
		store = dedup.NewMemoryStore()
	}

	var summarizer llm.Summarizer
	if key := cfg.LLMAPIKey(); key != "" {
		var err error
		summarizer, err = llm.New(cfg.LLMProvider, key, cfg.LLMModel, cfg.LLMMaxTokens)
		if err != nil {
			log.Fatalf("error configuring LLM provider: %v", err)
		}
	} else {
		slog.Warn("no LLM API key configured, summarization disabled")
	}

	var quotes quote.Lookup
	var trades pipeline.TradeSource
	if cfg.FinnhubAPIKey != "" {
		quotes = quote.NewFinnhubLookup(cfg.FinnhubAPIKey)
		trades = congress.NewClient(cfg.FinnhubAPIKey, cfg.Watchlist)
	} else {
		slog.Warn("FINNHUB_API_KEY not set, congress trades and quote annotations disabled")
	}

	p := &pipeline.Pipeline{
		Sources: []news.Source{
			news.NewFeedAdapter("MarketFeed", cfg.NewsFeedURL, 10),
			news.NewFeedAdapter("FinancialJuice", cfg.HighFreqFeedURL, 50),
		},
		Trades:     trades,
		Store:      store,
		Summarizer: summarizer,
		Quotes:     quotes,
		Notifier:   notify.NewTelegramClient(cfg.TelegramBotToken, cfg.TelegramChatID),
		QuoteDelay: time.Second,
	}

	go runScheduled(p, cfg.FetchInterval)

	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Market News Bot is running. Use /trigger to force a run.")
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/trigger", func(c *gin.Context) {
		force := c.Query("force") == "true"
		report, err := p.Run(c.Request.Context(), force)
		if err != nil {
			c.String(http.StatusInternalServerError, "run failed: %v", err)
			return
		}
		c.String(http.StatusOK, "Triggered manually (force=%v): %s", force, report)
	})

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}

func runScheduled(p *pipeline.Pipeline, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		slog.Info("scheduled run starting")
		if _, err := p.Run(context.Background(), false); err != nil {
			slog.Error("scheduled run failed", "error", err)
		}
	}
}
