package news

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Item is one normalized news event from an upstream feed. Items are
// discarded after a pipeline run; only the ID survives as a dedup marker.
type Item struct {
	ID          string
	Title       string
	Link        string
	Body        string
	Source      string
	PublishedAt time.Time
}

type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]Item, error)
}

// FetchAll fetches every source concurrently and joins the results in
// source order. A failing source contributes nothing; the others are kept.
func FetchAll(ctx context.Context, sources []Source) []Item {
	results := make([][]Item, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()

			items, err := src.Fetch(ctx)
			if err != nil {
				slog.Error("error fetching feed", "source", src.Name(), "error", err)
				return
			}
			results[i] = items
		}(i, src)
	}
	wg.Wait()

	var merged []Item
	for _, items := range results {
		merged = append(merged, items...)
	}
	return merged
}
