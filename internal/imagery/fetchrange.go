package imagery

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"geosat/internal/common"
	"geosat/internal/tiles"
)

// MaxConcurrent is the number of tile requests allowed in flight per range
const MaxConcurrent = 4

// ProgressFunc receives (completed, total) after each tile. Calls are
// serialized and completed never decreases.
type ProgressFunc func(completed, total int)

// FetchRange downloads every tile of r with at most MaxConcurrent requests
// in flight. The first failure cancels the remaining work and is returned;
// no partial map is returned. Tiles fetched before a failure stay cached.
func FetchRange(ctx context.Context, fetcher TileFetcher, r tiles.Range, onProgress ProgressFunc) (map[tiles.Key][]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	total := r.Total()
	result := make(map[tiles.Key][]byte, total)
	var mu sync.Mutex

	sem := semaphore.NewWeighted(MaxConcurrent)
	g, gctx := errgroup.WithContext(ctx)

	slog.Info("fetching tiles", "component", "imagery", "provider", fetcher.Provider(),
		"range", r.String(), "tiles", total, "workers", MaxConcurrent)

	for key := range r.Tiles() {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		if gctx.Err() != nil {
			sem.Release(1)
			break
		}

		g.Go(func() error {
			defer sem.Release(1)

			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := fetcher.FetchTile(gctx, key)
			if err != nil {
				return err
			}

			mu.Lock()
			defer mu.Unlock()
			result[key] = data
			if onProgress != nil {
				onProgress(len(result), total)
			}
			return nil
		})
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrCancelled, ctx.Err())
	}
	if err != nil {
		return nil, err
	}
	if len(result) != total {
		return nil, fmt.Errorf("fetched %d of %d tiles", len(result), total)
	}

	return result, nil
}
