package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/flying3615/news-state/pkg/congress"
	"github.com/flying3615/news-state/pkg/news"
)

// SummaryItem is one validated entry of the summarization output. It is
// produced from untrusted model text and is not guaranteed to map 1:1 to
// input items.
type SummaryItem struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Symbol  string `json:"symbol"`
}

// HasSymbol reports whether the item carries a usable ticker symbol. Models
// sometimes emit the literal string "null" instead of a JSON null.
func (s SummaryItem) HasSymbol() bool {
	sym := strings.TrimSpace(s.Symbol)
	return sym != "" && !strings.EqualFold(sym, "null")
}

type Summarizer interface {
	SummarizeNews(ctx context.Context, items []news.Item) ([]SummaryItem, error)
	AnalyzeTrades(ctx context.Context, trades []congress.Trade) (string, error)
}

// New selects the configured text-generation provider. An empty model falls
// back to the provider's default.
func New(provider, apiKey, model string, maxTokens int) (Summarizer, error) {
	switch provider {
	case "", "openai":
		return NewOpenAIClient(apiKey, model, maxTokens), nil
	case "anthropic":
		return NewAnthropicClient(apiKey, model, maxTokens), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q (valid: openai, anthropic)", provider)
	}
}
