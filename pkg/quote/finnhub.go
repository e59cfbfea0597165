package quote

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	finnhub "github.com/Finnhub-Stock-API/finnhub-go/v2"
)

// Quote is a point-in-time price snapshot. Quotes are fetched fresh every
// run and never cached across runs.
type Quote struct {
	Price         float64
	ChangePercent float64
}

// Lookup resolves a ticker symbol to a live quote. A nil Quote with a nil
// error means the provider had no usable data for the symbol.
type Lookup interface {
	Get(ctx context.Context, symbol string) (*Quote, error)
}

const (
	rateLimitRetries = 2
	rateLimitBackoff = 2 * time.Second
)

type FinnhubLookup struct {
	client  *finnhub.DefaultApiService
	backoff time.Duration
}

func NewFinnhubLookup(apiKey string) *FinnhubLookup {
	cfg := finnhub.NewConfiguration()
	cfg.AddDefaultHeader("X-Finnhub-Token", apiKey)

	return &FinnhubLookup{
		client:  finnhub.NewAPIClient(cfg).DefaultApi,
		backoff: rateLimitBackoff,
	}
}

func (l *FinnhubLookup) Get(ctx context.Context, symbol string) (*Quote, error) {
	symbol = NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, nil
	}

	var res finnhub.Quote
	for attempt := 0; ; attempt++ {
		var httpRes *http.Response
		var err error

		res, httpRes, err = l.client.Quote(ctx).Symbol(symbol).Execute()
		if err == nil {
			break
		}

		rateLimited := httpRes != nil && httpRes.StatusCode == http.StatusTooManyRequests
		if !rateLimited || attempt >= rateLimitRetries {
			return nil, fmt.Errorf("quote %s: %w", symbol, err)
		}

		select {
		case <-time.After(l.backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	// A zero/absent current price means the symbol or endpoint shape is
	// the problem; retrying would not help.
	if res.C == nil || *res.C == 0 {
		return nil, nil
	}

	price := float64(*res.C)
	var previousClose float64
	if res.Pc != nil {
		previousClose = float64(*res.Pc)
	}

	return &Quote{
		Price:         price,
		ChangePercent: ChangePercent(price, previousClose),
	}, nil
}

// NormalizeSymbol strips stray currency markers and whitespace that
// generative output tends to attach to ticker symbols.
func NormalizeSymbol(symbol string) string {
	symbol = strings.TrimSpace(symbol)
	symbol = strings.TrimPrefix(symbol, "$")
	return strings.ToUpper(symbol)
}

// ChangePercent is the move versus previous close, rounded to two decimal
// places. A missing previous close yields zero rather than an error.
func ChangePercent(price, previousClose float64) float64 {
	if previousClose == 0 {
		return 0
	}
	return math.Round((price-previousClose)/previousClose*100*100) / 100
}
