// package tasks implements multi-step favorites operations with progress reporting.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/litfav/internal/formatter"
	"github.com/desertthunder/litfav/internal/models"
	"github.com/desertthunder/litfav/internal/shared"
	"golang.org/x/time/rate"
)

// Favoriter is the subset of favorites.Cache the engine drives.
type Favoriter interface {
	Add(ctx context.Context, key string) (bool, error)
	Remove(ctx context.Context, key string) (bool, error)
	Load(ctx context.Context, identity models.Identity) error
	Entries() []models.FavoriteEntry
}

// Engine defines the long-running favorites operations.
type Engine interface {
	// BulkFavorite adds (or removes) many authors concurrently.
	BulkFavorite(ctx context.Context, progress chan<- ProgressUpdate, keys []string, opts BulkOpts) (*BulkResult, error)

	// Export reloads the favorites of identity and writes them to disk.
	Export(ctx context.Context, progress chan<- ProgressUpdate, identity models.Identity, opts ExportOpts) (*ExportResult, error)
}

// FavoritesEngine implements [Engine] on top of a [Favoriter].
type FavoritesEngine struct {
	cache Favoriter
}

// NewFavoritesEngine creates a new FavoritesEngine.
func NewFavoritesEngine(cache Favoriter) *FavoritesEngine {
	return &FavoritesEngine{cache: cache}
}

// BulkOpts contains configuration for bulk favorite changes.
type BulkOpts struct {
	Remove     bool    // Remove instead of add
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Dispatches per second (default: 5)
}

// KeyResult is the outcome for one author.
type KeyResult struct {
	Key     string
	Changed bool
	Error   error
}

// BulkResult summarizes a [FavoritesEngine.BulkFavorite] run.
type BulkResult struct {
	Total     int
	Changed   int
	Unchanged int
	Failed    int
	Results   []KeyResult
}

// ExportOpts contains configuration for favorites exports.
type ExportOpts struct {
	Format         string // json, csv, markdown, txt
	Path           string // Output file, or directory for markdown with images
	DownloadImages bool   // Markdown only: save author images next to README.md
}

// ExportResult describes the files written by [FavoritesEngine.Export].
type ExportResult struct {
	Count int
	Files []string
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *FavoritesEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// normalizeKeys trims, normalizes and de-duplicates author keys, preserving order.
func normalizeKeys(keys []string) []string {
	seen := make(map[string]bool, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		id := models.AuthorIDFromKey(k)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// BulkFavorite changes the membership of every key using a rate-limited worker pool.
//
// Keys are de-duplicated first so no author is toggled twice concurrently. Individual failures
// are recorded per key; if any key failed because the session ended, that error is returned
// alongside the partial result.
func (e *FavoritesEngine) BulkFavorite(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	keys []string,
	opts BulkOpts,
) (*BulkResult, error) {
	ids := normalizeKeys(keys)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one author id", shared.ErrMissingArgument)
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	phase := bulkPhase(opts.Remove)
	result := &BulkResult{Total: len(ids), Results: make([]KeyResult, 0, len(ids))}
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan string, len(ids))
	results := make(chan KeyResult, len(ids))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.favoriteWorker(ctx, &wg, jobs, results, opts.Remove)
	}

	go func() {
		defer close(jobs)
		e.sendProgress(prog, bulkStartUpdate(phase, len(ids)))
		for _, id := range ids {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			jobs <- id
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	var sessionErr error
	for res := range results {
		result.Results = append(result.Results, res)
		switch {
		case res.Error != nil:
			result.Failed++
			if sessionErr == nil && (errors.Is(res.Error, shared.ErrAuthExpired) || errors.Is(res.Error, shared.ErrRefreshFailed)) {
				sessionErr = res.Error
			}
		case res.Changed:
			result.Changed++
		default:
			result.Unchanged++
		}
		e.sendProgress(prog, keyCompletedUpdate(phase, len(result.Results), len(ids), res))
	}

	if sessionErr != nil {
		return result, sessionErr
	}
	if err := ctx.Err(); err != nil && len(result.Results) < len(ids) {
		return result, fmt.Errorf("bulk favorite interrupted after %d of %d: %w", len(result.Results), len(ids), err)
	}
	return result, nil
}

// favoriteWorker applies one change per job until jobs is closed.
func (e *FavoritesEngine) favoriteWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	jobs <-chan string,
	results chan<- KeyResult,
	remove bool,
) {
	defer wg.Done()

	for id := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var (
			changed bool
			err     error
		)
		if remove {
			changed, err = e.cache.Remove(ctx, id)
		} else {
			changed, err = e.cache.Add(ctx, id)
		}
		results <- KeyResult{Key: id, Changed: changed, Error: err}
	}
}

// Export reloads the favorites of identity from the account service and writes them in opts.Format.
func (e *FavoritesEngine) Export(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	identity models.Identity,
	opts ExportOpts,
) (*ExportResult, error) {
	if _, err := formatter.Export("", nil, opts.Format); err != nil {
		return nil, err
	}

	e.sendProgress(prog, loadingUpdate(identity.Email))
	if err := e.cache.Load(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to load favorites: %w", err)
	}
	entries := e.cache.Entries()

	e.sendProgress(prog, exportUpdate(1, 2, fmt.Sprintf("Writing %d favorites as %s...", len(entries), opts.Format)))

	result := &ExportResult{Count: len(entries)}
	format := strings.ToLower(opts.Format)
	if (format == formatter.FormatMarkdown || format == "md") && opts.DownloadImages {
		md, err := formatter.WriteMarkdownExport(identity.Email, entries, opts.Path, true)
		if err != nil {
			return nil, err
		}
		result.Files = md.Files
	} else {
		path, err := formatter.WriteExport(identity.Email, entries, opts.Format, opts.Path)
		if err != nil {
			return nil, err
		}
		result.Files = []string{path}
	}

	e.sendProgress(prog, exportUpdate(2, 2, fmt.Sprintf("✓ Exported %d favorites", len(entries))))
	return result, nil
}
