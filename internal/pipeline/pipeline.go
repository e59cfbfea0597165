// Package pipeline is the ingestion-deduplication-enrichment-summarization
// core: it merges source adapter output, suppresses already-notified events,
// condenses the rest through a generative summarization step, joins live
// quotes back in, and dispatches a single formatted notification.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/flying3615/news-state/internal/dedup"
	"github.com/flying3615/news-state/pkg/congress"
	"github.com/flying3615/news-state/pkg/llm"
	"github.com/flying3615/news-state/pkg/news"
	"github.com/flying3615/news-state/pkg/notify"
	"github.com/flying3615/news-state/pkg/quote"
)

const (
	newsHeader  = "📢 **Market News Update**"
	tradeHeader = "🏛 **Congress Trading Activity**"

	tradeAnalysisFallback = "Trade analysis is unavailable for this run."
)

type TradeSource interface {
	Fetch(ctx context.Context) ([]congress.Trade, error)
}

// Pipeline holds the injected capabilities for one run. Summarizer, Quotes
// and Trades may be nil when their credentials are missing; the dependent
// steps then degrade to warned no-ops.
type Pipeline struct {
	Sources    []news.Source
	Trades     TradeSource
	Store      dedup.Store
	Summarizer llm.Summarizer
	Quotes     quote.Lookup
	Notifier   notify.Notifier

	// QuoteDelay spaces out quote lookups to respect the provider's
	// implicit rate limit.
	QuoteDelay time.Duration
}

// Run executes one full pipeline pass. With force set, dedup suppression is
// bypassed and no new marks are written, so forced runs are repeatable.
// The returned report is a short confirmation for the on-demand trigger;
// upstream failures degrade to partial output and are never returned as
// errors.
func (p *Pipeline) Run(ctx context.Context, force bool) (string, error) {
	slog.Info("pipeline run starting", "force", force)

	items := news.FetchAll(ctx, p.Sources)

	var trades []congress.Trade
	if p.Trades != nil {
		var err error
		trades, err = p.Trades.Fetch(ctx)
		if err != nil {
			slog.Error("error fetching trades", "error", err)
		}
	}
	slog.Info("fetch complete", "news", len(items), "trades", len(trades))

	freshNews := p.filterNews(ctx, items, force)
	freshTrades := p.filterTrades(ctx, trades, force)

	if len(freshNews) == 0 && len(freshTrades) == 0 {
		slog.Info("no new items to process")
		return "no new items", nil
	}

	var sections []string
	if s := p.newsSection(ctx, freshNews); s != "" {
		sections = append(sections, s)
	}
	if s := p.tradeSection(ctx, freshTrades); s != "" {
		sections = append(sections, s)
	}

	message := strings.Join(sections, "\n\n")
	if message == "" {
		slog.Warn("nothing to notify after summarization")
		return fmt.Sprintf("processed %d news items and %d trades, nothing to send", len(freshNews), len(freshTrades)), nil
	}

	if err := p.Notifier.Send(ctx, message); err != nil {
		// Never redo the dedup/summarization work for a failed send.
		slog.Error("error sending notification", "error", err)
	} else {
		slog.Info("notification sent")
	}

	return fmt.Sprintf("processed %d news items and %d trades", len(freshNews), len(freshTrades)), nil
}

// filterNews drops already-notified items and marks survivors immediately,
// so a later summarization failure cannot reprocess the same item forever.
func (p *Pipeline) filterNews(ctx context.Context, items []news.Item, force bool) []news.Item {
	fresh := make([]news.Item, 0, len(items))
	for _, item := range items {
		if p.keep(ctx, dedup.NewsKeyPrefix+item.ID, dedup.NewsTTL, force) {
			fresh = append(fresh, item)
		}
	}
	return fresh
}

func (p *Pipeline) filterTrades(ctx context.Context, trades []congress.Trade, force bool) []congress.Trade {
	fresh := make([]congress.Trade, 0, len(trades))
	for _, t := range trades {
		if p.keep(ctx, dedup.TradeKeyPrefix+t.Key(), dedup.TradeTTL, force) {
			fresh = append(fresh, t)
		}
	}
	return fresh
}

func (p *Pipeline) keep(ctx context.Context, key string, ttl time.Duration, force bool) bool {
	if force {
		return true
	}

	seen, err := p.Store.Has(ctx, key)
	if err != nil {
		// An unreachable store must not suppress delivery.
		slog.Error("dedup check failed", "key", key, "error", err)
	} else if seen {
		return false
	}

	if err := p.Store.Mark(ctx, key, ttl); err != nil {
		slog.Error("dedup mark failed", "key", key, "error", err)
	}
	return true
}

func (p *Pipeline) newsSection(ctx context.Context, items []news.Item) string {
	if len(items) == 0 {
		return ""
	}
	if p.Summarizer == nil {
		slog.Warn("summarizer not configured, skipping news summary", "items", len(items))
		return ""
	}

	summaries, err := p.Summarizer.SummarizeNews(ctx, items)
	if err != nil {
		slog.Error("error summarizing news", "error", err)
		return ""
	}
	slog.Info("news summarized", "in", len(items), "out", len(summaries))

	var b strings.Builder
	for _, item := range summaries {
		if strings.TrimSpace(item.Summary) == "" {
			slog.Warn("skipping invalid summary item", "title", item.Title)
			continue
		}

		line := "• " + item.Summary
		if item.HasSymbol() {
			line += p.quoteAnnotation(ctx, item.Symbol)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	if b.Len() == 0 {
		return ""
	}
	return newsHeader + "\n" + b.String()
}

// quoteAnnotation formats a live price suffix for one summary line. Any
// lookup failure yields an empty suffix; a missing quote never suppresses
// the underlying news item.
func (p *Pipeline) quoteAnnotation(ctx context.Context, symbol string) string {
	if p.Quotes == nil {
		return ""
	}

	select {
	case <-time.After(p.QuoteDelay):
	case <-ctx.Done():
		return ""
	}

	q, err := p.Quotes.Get(ctx, symbol)
	if err != nil {
		slog.Error("error fetching quote", "symbol", symbol, "error", err)
		return ""
	}
	if q == nil {
		slog.Warn("no quote data returned", "symbol", symbol)
		return ""
	}

	icon, sign := "🟢", "+"
	if q.ChangePercent < 0 {
		icon, sign = "🔴", ""
	}
	return fmt.Sprintf(" (%s: $%s, %s %s%s%%)",
		quote.NormalizeSymbol(symbol), formatNumber(q.Price), icon, sign, formatNumber(q.ChangePercent))
}

func (p *Pipeline) tradeSection(ctx context.Context, trades []congress.Trade) string {
	if len(trades) == 0 {
		return ""
	}
	if p.Summarizer == nil {
		slog.Warn("summarizer not configured, skipping trade analysis", "trades", len(trades))
		return ""
	}

	p.enrichTrades(ctx, trades)

	analysis, err := p.Summarizer.AnalyzeTrades(ctx, trades)
	if err != nil {
		slog.Error("error analyzing trades", "error", err)
		analysis = tradeAnalysisFallback
	}

	analysis = strings.TrimSpace(analysis)
	if analysis == "" {
		return ""
	}
	return tradeHeader + "\n" + analysis + "\n"
}

// enrichTrades populates CurrentPrice once per trade before analysis,
// reusing one quote per symbol within the run.
func (p *Pipeline) enrichTrades(ctx context.Context, trades []congress.Trade) {
	if p.Quotes == nil {
		return
	}

	prices := make(map[string]float64)
	for i := range trades {
		symbol := quote.NormalizeSymbol(trades[i].Symbol)
		if symbol == "" {
			continue
		}

		price, ok := prices[symbol]
		if !ok {
			select {
			case <-time.After(p.QuoteDelay):
			case <-ctx.Done():
				return
			}

			q, err := p.Quotes.Get(ctx, symbol)
			if err != nil || q == nil {
				slog.Warn("no quote for trade symbol", "symbol", symbol, "error", err)
				prices[symbol] = 0
				continue
			}
			price = q.Price
			prices[symbol] = price
		}

		if price > 0 {
			trades[i].CurrentPrice = price
		}
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
