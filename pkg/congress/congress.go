package congress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const baseURL = "https://finnhub.io/api/v1"

const (
	rateLimitRetries = 2
	rateLimitBackoff = 2 * time.Second

	// The watchlist symbols share one upstream rate limit, so per-symbol
	// requests are serialized with a delay rather than fanned out.
	symbolDelay = 500 * time.Millisecond
)

// Trade is one legislative trading disclosure for a watched symbol.
// CurrentPrice is zero until the pipeline enriches the trade with a quote.
type Trade struct {
	Symbol          string
	TransactionDate string
	OwnerName       string
	TransactionType string
	Amount          float64
	ExecutionPrice  float64
	CurrentPrice    float64
}

// Key is the synthesized identity of a trade; the upstream provides no
// stable id, so two trades with the same tuple are the same logical event.
func (t Trade) Key() string {
	return t.Symbol + "|" + t.TransactionDate + "|" + t.OwnerName + "|" +
		strconv.FormatFloat(t.Amount, 'f', -1, 64)
}

// Client polls legislative trading disclosures for a fixed symbol watchlist.
type Client struct {
	apiKey     string
	watchlist  []string
	httpClient *http.Client
	backoff    time.Duration
	delay      time.Duration
}

func NewClient(apiKey string, watchlist []string) *Client {
	return &Client{
		apiKey:     apiKey,
		watchlist:  watchlist,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		backoff:    rateLimitBackoff,
		delay:      symbolDelay,
	}
}

// Fetch returns all disclosures for the watchlist with a transaction date
// in the trailing 30 days. One symbol's failure never drops the others.
func (c *Client) Fetch(ctx context.Context) ([]Trade, error) {
	if c.apiKey == "" {
		slog.Warn("trading-data API token missing, skipping congress trades")
		return nil, nil
	}

	cutoff := time.Now().AddDate(0, 0, -30).Format("2006-01-02")

	var trades []Trade
	for i, symbol := range c.watchlist {
		if i > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				return trades, ctx.Err()
			}
		}

		symbolTrades, err := c.fetchSymbol(ctx, symbol, cutoff)
		if err != nil {
			slog.Error("error fetching congress trades", "symbol", symbol, "error", err)
			continue
		}
		trades = append(trades, symbolTrades...)
	}

	return trades, nil
}

func (c *Client) fetchSymbol(ctx context.Context, symbol, cutoff string) ([]Trade, error) {
	url := fmt.Sprintf("%s/stock/congressional-trading?symbol=%s&token=%s", baseURL, symbol, c.apiKey)

	var raw congressResponse
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("congress request %s: %w", symbol, err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("congress fetch %s: %w", symbol, err)
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < rateLimitRetries {
			resp.Body.Close()
			select {
			case <-time.After(c.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("congress fetch %s: unexpected status %s", symbol, resp.Status)
		}

		err = json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("congress decode %s: %w", symbol, err)
		}
		break
	}

	trades := make([]Trade, 0, len(raw.Data))
	for _, t := range raw.Data {
		if t.TransactionDate < cutoff {
			continue
		}

		sym := raw.Symbol
		if sym == "" {
			sym = symbol
		}

		trades = append(trades, Trade{
			Symbol:          sym,
			TransactionDate: t.TransactionDate,
			OwnerName:       t.Owner,
			TransactionType: t.TransactionType,
			Amount:          t.Amount,
			ExecutionPrice:  t.Price,
		})
	}

	return trades, nil
}

type congressResponse struct {
	Symbol string          `json:"symbol"`
	Data   []congressTrade `json:"data"`
}

type congressTrade struct {
	Owner           string  `json:"owner"`
	TransactionDate string  `json:"transactionDate"`
	TransactionType string  `json:"transactionType"`
	Amount          float64 `json:"amount"`
	Price           float64 `json:"price"`
}
