package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sourcegraph/conc/pool"
	"golang.org/x/time/rate"

	"github.com/desertthunder/vkx/internal/models"
	"github.com/desertthunder/vkx/internal/query"
	"github.com/desertthunder/vkx/internal/shared"
)

// ImportOpts contains configuration for bulk imports.
type ImportOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
}

// ImportItemResult is the outcome for one row.
type ImportItemResult struct {
	Request models.AddItemRequest
	IsNew   bool
	Err     error
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Total    int
	Added    int
	Existing int
	Skipped  int
	Failed   int
	Results  []ImportItemResult
}

// BulkImport adds reqs to a collection concurrently with rate limiting and progress tracking.
//
// Invalid rows and repeats of an earlier row are skipped before any request is made. Rows that
// another call is already adding are skipped too. The collection's views are invalidated once
// at the end if anything reached the server.
func (e *ContentEngine) BulkImport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	collectionID int64,
	reqs []models.AddItemRequest,
	opts ImportOpts,
) (*ImportResult, error) {
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &ImportResult{Total: len(reqs), Results: make([]ImportItemResult, 0, len(reqs))}

	seen := make(map[string]struct{}, len(reqs))
	jobs := make([]models.AddItemRequest, 0, len(reqs))
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			result.Skipped++
			sendProgress(prog, skippedUpdate(i+1, len(reqs), req, err.Error()))
			continue
		}
		if _, dup := seen[req.TargetKey()]; dup {
			result.Skipped++
			sendProgress(prog, skippedUpdate(i+1, len(reqs), req, "duplicate row"))
			continue
		}
		seen[req.TargetKey()] = struct{}{}
		jobs = append(jobs, req)
	}
	sendProgress(prog, validatedUpdate(len(jobs), len(reqs)))

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	var mu sync.Mutex
	completed := 0
	p := pool.New().WithContext(ctx).WithMaxGoroutines(opts.NumWorkers)
	for _, req := range jobs {
		p.Go(func(ctx context.Context) error {
			res := ImportItemResult{Request: req}
			if release, ok := e.acquire(collectionKey(collectionID, req)); !ok {
				res.Err = shared.ErrDuplicateInFlight
			} else {
				defer release()
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
				out, err := e.gateway.AddToCollection(ctx, collectionID, req)
				if err != nil {
					res.Err = err
				} else {
					res.IsNew = out.IsNew
				}
			}

			mu.Lock()
			defer mu.Unlock()
			completed++
			result.Results = append(result.Results, res)
			switch {
			case errors.Is(res.Err, shared.ErrDuplicateInFlight):
				result.Skipped++
			case res.Err != nil:
				result.Failed++
			case res.IsNew:
				result.Added++
			default:
				result.Existing++
			}
			sendProgress(prog, importedUpdate(completed, len(jobs), res))
			return nil
		})
	}
	waitErr := p.Wait()

	if result.Added+result.Existing > 0 {
		sendProgress(prog, reconcileUpdate(collectionID))
		invalidate(e.cache, query.CollectionContents, collectionID)
	}

	e.logger.Info("bulk import finished",
		"collection", collectionID, "added", result.Added, "existing", result.Existing,
		"skipped", result.Skipped, "failed", result.Failed)

	if waitErr != nil {
		return result, fmt.Errorf("import interrupted: %w", waitErr)
	}
	return result, nil
}
