package tasks

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lysyi3m/rss-aggregator/app/ingest"
)

var ErrRunInProgress = errors.New("ingestion run already in progress")

// Runner allows at most one ingestion run at a time, whether it was
// started by the scheduler or by an admin request.
type Runner struct {
	mu          sync.Mutex
	ingester    Ingester
	invalidator FeedInvalidator

	lastMu sync.RWMutex
	last   *ingest.RunSummary
}

func NewRunner(ingester Ingester, invalidator FeedInvalidator) *Runner {
	return &Runner{
		ingester:    ingester,
		invalidator: invalidator,
	}
}

// Run executes one ingestion run, or returns ErrRunInProgress immediately
// when another run holds the lock.
func (r *Runner) Run(ctx context.Context) (ingest.RunSummary, error) {
	if !r.mu.TryLock() {
		return ingest.RunSummary{}, ErrRunInProgress
	}
	defer r.mu.Unlock()

	summary, err := r.ingester.Run(ctx)

	r.lastMu.Lock()
	r.last = &summary
	r.lastMu.Unlock()

	if summary.ItemsAccepted > 0 || summary.ItemsPurged > 0 {
		r.invalidate(ctx)
	}

	return summary, err
}

// LastSummary returns the summary of the most recent completed run.
func (r *Runner) LastSummary() (ingest.RunSummary, bool) {
	r.lastMu.RLock()
	defer r.lastMu.RUnlock()

	if r.last == nil {
		return ingest.RunSummary{}, false
	}
	return *r.last, true
}

func (r *Runner) invalidate(ctx context.Context) {
	if r.invalidator == nil {
		return
	}
	if err := r.invalidator.InvalidateFeed(context.WithoutCancel(ctx)); err != nil {
		slog.Warn("Failed to invalidate feed cache", "error", err)
	}
}
