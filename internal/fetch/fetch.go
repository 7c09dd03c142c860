// Package fetch wraps the spreadsheet source with retry-on-rate-limit
// and a short-lived cache. Deals, stages and users are fetched as one
// unit: either all three worksheets load or the attempt failed.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/dealdash/backend/internal/sheets"
)

// ErrFetchFailed covers both exhausted retries and non-transient source
// errors. Handlers map it to a terminal, user-visible notice.
var ErrFetchFailed = errors.New("fetch: spreadsheet load failed")

// Snapshot holds the three raw tables of one successful fetch.
type Snapshot struct {
	Deals  []sheets.Row
	Stages []sheets.Row
	Users  []sheets.Row
}

// Empty reports whether the snapshot carries no rows at all.
func (s Snapshot) Empty() bool {
	return len(s.Deals) == 0 && len(s.Stages) == 0 && len(s.Users) == 0
}

// Source is the slice of the sheets client the fetcher needs.
type Source interface {
	Records(ctx context.Context, worksheet string) ([]sheets.Row, error)
	Range(ctx context.Context, worksheet, a1 string) ([][]string, error)
}

// RetryPolicy decides which errors are worth another attempt and how
// long to wait between attempts.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	IsRetryable func(error) bool
}

// DefaultRetryPolicy retries only on the source's rate-limit signal.
func DefaultRetryPolicy(maxAttempts int, delay time.Duration) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       delay,
		IsRetryable: func(err error) bool { return errors.Is(err, sheets.ErrRateLimited) },
	}
}

// Notifier receives human-readable progress during retries and on
// terminal failure. The UI decides how to present them.
type Notifier interface {
	Waiting(attempt, maxAttempts int, delay time.Duration)
	Failed(err error)
}

// LogNotifier routes notices to a zerolog logger.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Waiting(attempt, maxAttempts int, delay time.Duration) {
	n.Logger.Warn().
		Int("attempt", attempt).
		Int("max_attempts", maxAttempts).
		Dur("delay", delay).
		Msg("sheets API quota reached, waiting before retry")
}

func (n LogNotifier) Failed(err error) {
	n.Logger.Error().Err(err).Msg("spreadsheet load failed")
}

// Names identifies the three worksheets and the fixed stage window.
type Names struct {
	Deals       string
	Stages      string
	StagesRange string
	Users       string
}

// Fetcher loads the three tables with retry and caches the result.
type Fetcher struct {
	source   Source
	names    Names
	policy   RetryPolicy
	cache    *Cache
	notifier Notifier
	sleep    func(time.Duration)
}

// New builds a fetcher. notifier may be nil; sleep defaults to
// time.Sleep and is injectable for tests.
func New(source Source, names Names, policy RetryPolicy, cache *Cache, notifier Notifier) *Fetcher {
	if notifier == nil {
		notifier = LogNotifier{Logger: zerolog.Nop()}
	}
	return &Fetcher{
		source:   source,
		names:    names,
		policy:   policy,
		cache:    cache,
		notifier: notifier,
		sleep:    time.Sleep,
	}
}

// WithSleep overrides the retry wait. Used by tests.
func (f *Fetcher) WithSleep(sleep func(time.Duration)) *Fetcher {
	f.sleep = sleep
	return f
}

// Load returns the current snapshot, from cache when fresh. On terminal
// failure the snapshot is empty and the error wraps ErrFetchFailed.
func (f *Fetcher) Load(ctx context.Context) (Snapshot, error) {
	return f.cache.GetOrFetch(func() (Snapshot, error) {
		return f.loadWithRetry(ctx)
	})
}

// Invalidate drops the cached snapshot.
func (f *Fetcher) Invalidate() {
	f.cache.Invalidate()
}

// CacheAge exposes the cache slot age for health reporting.
func (f *Fetcher) CacheAge() (time.Duration, bool) {
	return f.cache.Age()
}

func (f *Fetcher) loadWithRetry(ctx context.Context) (Snapshot, error) {
	var lastErr error
	for attempt := 1; attempt <= f.policy.MaxAttempts; attempt++ {
		snap, err := f.loadOnce(ctx)
		if err == nil {
			return snap, nil
		}
		if !f.policy.IsRetryable(err) {
			f.notifier.Failed(err)
			return Snapshot{}, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		lastErr = err
		f.notifier.Waiting(attempt, f.policy.MaxAttempts, f.policy.Delay)
		f.sleep(f.policy.Delay)
	}
	f.notifier.Failed(lastErr)
	return Snapshot{}, fmt.Errorf("%w: retries exhausted: %v", ErrFetchFailed, lastErr)
}

// loadOnce reads all three worksheets. The stage table is a fixed
// two-column window, so its rows are rebuilt with explicit headers.
func (f *Fetcher) loadOnce(ctx context.Context) (Snapshot, error) {
	deals, err := f.source.Records(ctx, f.names.Deals)
	if err != nil {
		return Snapshot{}, err
	}
	stageCells, err := f.source.Range(ctx, f.names.Stages, f.names.StagesRange)
	if err != nil {
		return Snapshot{}, err
	}
	users, err := f.source.Records(ctx, f.names.Users)
	if err != nil {
		return Snapshot{}, err
	}

	stages := make([]sheets.Row, 0, len(stageCells))
	for _, cells := range stageCells {
		row := sheets.Row{"Stage ID": "", "Stage Name": ""}
		if len(cells) > 0 {
			row["Stage ID"] = cells[0]
		}
		if len(cells) > 1 {
			row["Stage Name"] = cells[1]
		}
		stages = append(stages, row)
	}

	return Snapshot{Deals: deals, Stages: stages, Users: users}, nil
}
