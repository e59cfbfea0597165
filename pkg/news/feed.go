package news

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

// Some feed hosts reject unidentified clients, so we present a browser UA.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	rateLimitRetries = 2
	rateLimitBackoff = 2 * time.Second
)

// FeedAdapter normalizes one RSS/Atom feed into Items, capped at limit.
type FeedAdapter struct {
	name    string
	feedURL string
	limit   int
	parser  *gofeed.Parser
	backoff time.Duration
}

func NewFeedAdapter(name, feedURL string, limit int) *FeedAdapter {
	parser := gofeed.NewParser()
	parser.UserAgent = userAgent

	return &FeedAdapter{
		name:    name,
		feedURL: feedURL,
		limit:   limit,
		parser:  parser,
		backoff: rateLimitBackoff,
	}
}

func (a *FeedAdapter) Name() string {
	return a.name
}

func (a *FeedAdapter) Fetch(ctx context.Context) ([]Item, error) {
	feed, err := a.parseWithRetry(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s fetch: %w", a.name, err)
	}

	items := make([]Item, 0, len(feed.Items))
	for _, raw := range feed.Items {
		if len(items) >= a.limit {
			break
		}

		id := raw.GUID
		if id == "" {
			id = raw.Link
		}
		if id == "" {
			id = raw.Title
		}
		if id == "" {
			continue
		}

		published := time.Now()
		if raw.PublishedParsed != nil {
			published = *raw.PublishedParsed
		}

		body := raw.Description
		if body == "" {
			body = raw.Content
		}

		items = append(items, Item{
			ID:          id,
			Title:       raw.Title,
			Link:        raw.Link,
			Body:        body,
			Source:      a.name,
			PublishedAt: published,
		})
	}

	return items, nil
}

// parseWithRetry retries rate-limited fetches a bounded number of times
// with a fixed backoff; any other failure is returned immediately.
func (a *FeedAdapter) parseWithRetry(ctx context.Context) (*gofeed.Feed, error) {
	var lastErr error
	for attempt := 0; attempt <= rateLimitRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(a.backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		feed, err := a.parser.ParseURLWithContext(a.feedURL, ctx)
		if err == nil {
			return feed, nil
		}
		lastErr = err

		var httpErr gofeed.HTTPError
		if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusTooManyRequests {
			return nil, err
		}
	}
	return nil, lastErr
}
