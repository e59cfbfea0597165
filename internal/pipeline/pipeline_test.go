package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/flying3615/news-state/internal/dedup"
	"github.com/flying3615/news-state/pkg/congress"
	"github.com/flying3615/news-state/pkg/llm"
	"github.com/flying3615/news-state/pkg/news"
	"github.com/flying3615/news-state/pkg/quote"
)

type fakeSource struct {
	name  string
	items []news.Item
	err   error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context) ([]news.Item, error) {
	return f.items, f.err
}

type fakeTrades struct {
	trades []congress.Trade
	err    error
}

func (f *fakeTrades) Fetch(ctx context.Context) ([]congress.Trade, error) {
	return f.trades, f.err
}

type fakeSummarizer struct {
	items    []llm.SummaryItem
	analysis string
	newsErr  error
	tradeErr error

	newsCalls    int
	analyzedWith []congress.Trade
}

func (f *fakeSummarizer) SummarizeNews(ctx context.Context, items []news.Item) ([]llm.SummaryItem, error) {
	f.newsCalls++
	if f.newsErr != nil {
		return nil, f.newsErr
	}
	return f.items, nil
}

func (f *fakeSummarizer) AnalyzeTrades(ctx context.Context, trades []congress.Trade) (string, error) {
	f.analyzedWith = append([]congress.Trade(nil), trades...)
	if f.tradeErr != nil {
		return "", f.tradeErr
	}
	return f.analysis, nil
}

type fakeQuotes struct {
	quotes map[string]*quote.Quote
	errs   map[string]error
}

func (f *fakeQuotes) Get(ctx context.Context, symbol string) (*quote.Quote, error) {
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	return f.quotes[symbol], nil
}

type fakeNotifier struct {
	messages []string
	err      error
}

func (f *fakeNotifier) Send(ctx context.Context, text string) error {
	f.messages = append(f.messages, text)
	if f.err != nil {
		return f.err
	}
	return nil
}

func newsItems(source string, ids ...string) []news.Item {
	items := make([]news.Item, 0, len(ids))
	for _, id := range ids {
		items = append(items, news.Item{ID: id, Title: "title " + id, Source: source})
	}
	return items
}

func TestDedupIdempotence(t *testing.T) {
	store := dedup.NewMemoryStore()
	notifier := &fakeNotifier{}
	summarizer := &fakeSummarizer{items: []llm.SummaryItem{{Title: "T", Summary: "S"}}}

	p := &Pipeline{
		Sources:    []news.Source{&fakeSource{name: "A", items: newsItems("A", "n1", "n2")}},
		Store:      store,
		Summarizer: summarizer,
		Notifier:   notifier,
	}

	ctx := context.Background()

	_, err := p.Run(ctx, false)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(notifier.messages))

	report, err := p.Run(ctx, false)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(notifier.messages))
	assert.Equal(t, "no new items", report)
	assert.Equal(t, 1, summarizer.newsCalls)
}

func TestForceBypass(t *testing.T) {
	store := dedup.NewMemoryStore()
	notifier := &fakeNotifier{}

	p := &Pipeline{
		Sources:    []news.Source{&fakeSource{name: "A", items: newsItems("A", "n1")}},
		Store:      store,
		Summarizer: &fakeSummarizer{items: []llm.SummaryItem{{Summary: "S"}}},
		Notifier:   notifier,
	}

	ctx := context.Background()

	p.Run(ctx, true)
	p.Run(ctx, true)

	assert.Equal(t, 2, len(notifier.messages))
	// Forced runs must not write any dedup marks.
	assert.Equal(t, 0, store.Len())
}

func TestPartialSourceResilience(t *testing.T) {
	notifier := &fakeNotifier{}

	p := &Pipeline{
		Sources: []news.Source{
			&fakeSource{name: "broken", err: errors.New("upstream down")},
			&fakeSource{name: "healthy", items: newsItems("healthy", "n1")},
		},
		Store:      dedup.NewMemoryStore(),
		Summarizer: &fakeSummarizer{items: []llm.SummaryItem{{Summary: "survivor"}}},
		Notifier:   notifier,
	}

	_, err := p.Run(context.Background(), false)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(notifier.messages))
	assert.Equal(t, true, strings.Contains(notifier.messages[0], "survivor"))
}

func TestQuoteAnnotationFallback(t *testing.T) {
	notifier := &fakeNotifier{}

	p := &Pipeline{
		Sources:    []news.Source{&fakeSource{name: "A", items: newsItems("A", "n1")}},
		Store:      dedup.NewMemoryStore(),
		Summarizer: &fakeSummarizer{items: []llm.SummaryItem{{Summary: "chip news", Symbol: "NVDA"}}},
		Quotes:     &fakeQuotes{errs: map[string]error{"NVDA": errors.New("quote service down")}},
		Notifier:   notifier,
	}

	p.Run(context.Background(), false)

	assert.Equal(t, 1, len(notifier.messages))
	msg := notifier.messages[0]
	assert.Equal(t, true, strings.Contains(msg, "• chip news"))
	assert.Equal(t, false, strings.Contains(msg, "$"))
}

func TestInvalidSummaryItemsSkipped(t *testing.T) {
	notifier := &fakeNotifier{}

	p := &Pipeline{
		Sources: []news.Source{&fakeSource{name: "A", items: newsItems("A", "n1")}},
		Store:   dedup.NewMemoryStore(),
		Summarizer: &fakeSummarizer{items: []llm.SummaryItem{
			{Title: "no summary field"},
			{Summary: "kept"},
		}},
		Notifier: notifier,
	}

	p.Run(context.Background(), false)

	assert.Equal(t, 1, len(notifier.messages))
	msg := notifier.messages[0]
	assert.Equal(t, 1, strings.Count(msg, "• "))
	assert.Equal(t, true, strings.Contains(msg, "kept"))
}

func TestTradeAnalysisFallbackOnError(t *testing.T) {
	notifier := &fakeNotifier{}

	p := &Pipeline{
		Trades:     &fakeTrades{trades: []congress.Trade{{Symbol: "NVDA", TransactionDate: "2026-08-20", OwnerName: "Doe", Amount: 15000}}},
		Store:      dedup.NewMemoryStore(),
		Summarizer: &fakeSummarizer{tradeErr: errors.New("model exploded")},
		Notifier:   notifier,
	}

	_, err := p.Run(context.Background(), false)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, len(notifier.messages))
	assert.Equal(t, true, strings.Contains(notifier.messages[0], tradeAnalysisFallback))
}

func TestTradeEnrichment(t *testing.T) {
	summarizer := &fakeSummarizer{analysis: "analysis"}

	p := &Pipeline{
		Trades:     &fakeTrades{trades: []congress.Trade{{Symbol: "NVDA", TransactionDate: "2026-08-20", OwnerName: "Doe", Amount: 15000}}},
		Store:      dedup.NewMemoryStore(),
		Summarizer: summarizer,
		Quotes:     &fakeQuotes{quotes: map[string]*quote.Quote{"NVDA": {Price: 123.45, ChangePercent: -0.5}}},
		Notifier:   &fakeNotifier{},
	}

	p.Run(context.Background(), false)

	assert.Equal(t, 1, len(summarizer.analyzedWith))
	assert.Equal(t, 123.45, summarizer.analyzedWith[0].CurrentPrice)
}

func TestNotifierFailureDoesNotFailRun(t *testing.T) {
	p := &Pipeline{
		Sources:    []news.Source{&fakeSource{name: "A", items: newsItems("A", "n1")}},
		Store:      dedup.NewMemoryStore(),
		Summarizer: &fakeSummarizer{items: []llm.SummaryItem{{Summary: "S"}}},
		Notifier:   &fakeNotifier{err: errors.New("chat endpoint down")},
	}

	report, err := p.Run(context.Background(), false)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, strings.Contains(report, "processed 1 news items"))
}

func TestEndToEnd(t *testing.T) {
	notifier := &fakeNotifier{}
	summarizer := &fakeSummarizer{
		items: []llm.SummaryItem{
			{Title: "芯片", Summary: "芯片股大涨", Symbol: "NVDA"},
			{Title: "宏观", Summary: "宏观面平稳"},
		},
		analysis: "议员持续买入科技股",
	}

	p := &Pipeline{
		Sources: []news.Source{
			&fakeSource{name: "MarketFeed", items: newsItems("MarketFeed", "a1", "a2", "a3")},
			&fakeSource{name: "FinancialJuice", items: newsItems("FinancialJuice", "b1", "b2")},
		},
		Trades:     &fakeTrades{trades: []congress.Trade{{Symbol: "NVDA", TransactionDate: "2026-08-20", OwnerName: "Doe", TransactionType: "Purchase", Amount: 15000}}},
		Store:      dedup.NewMemoryStore(),
		Summarizer: summarizer,
		Quotes:     &fakeQuotes{quotes: map[string]*quote.Quote{"NVDA": {Price: 100, ChangePercent: 1.5}}},
		Notifier:   notifier,
	}

	report, err := p.Run(context.Background(), false)
	assert.Equal(t, nil, err)
	assert.Equal(t, true, strings.Contains(report, "5 news items"))
	assert.Equal(t, 1, len(notifier.messages))

	msg := notifier.messages[0]
	assert.Equal(t, true, strings.Contains(msg, newsHeader))
	assert.Equal(t, 2, strings.Count(msg, "• "))
	assert.Equal(t, true, strings.Contains(msg, "(NVDA: $100, 🟢 +1.5%)"))
	assert.Equal(t, true, strings.Contains(msg, "宏观面平稳\n"))
	assert.Equal(t, true, strings.Contains(msg, tradeHeader))
	assert.Equal(t, true, strings.Contains(msg, "议员持续买入科技股"))
}
