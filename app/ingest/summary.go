package ingest

import (
	"sync"
	"time"
)

// SourceError records a failure attributed to one stream.
type SourceError struct {
	SourceURL string `json:"sourceURL"`
	ErrorKind string `json:"errorKind"`
	Message   string `json:"message,omitempty"`
}

// RunSummary is the outcome of one ingestion run. It is not persisted.
type RunSummary struct {
	SourcesProcessed      int           `json:"sourcesProcessed"`
	ItemsAccepted         int           `json:"itemsAccepted"`
	ItemsFiltered         int           `json:"itemsFiltered"`
	ItemsSkippedDuplicate int           `json:"itemsSkippedDuplicate"`
	ItemsFailed           int           `json:"itemsFailed"`
	ItemsPurged           int64         `json:"itemsPurged"`
	PurgeError            string        `json:"purgeError,omitempty"`
	SourceErrors          []SourceError `json:"sourceErrors"`
	StartedAt             time.Time     `json:"startedAt"`
	Duration              time.Duration `json:"duration"`
}

// tally guards a RunSummary shared by concurrent item workers.
type tally struct {
	mu      sync.Mutex
	summary RunSummary
}

func newTally(startedAt time.Time) *tally {
	return &tally{summary: RunSummary{
		SourceErrors: []SourceError{},
		StartedAt:    startedAt,
	}}
}

func (t *tally) update(fn func(s *RunSummary)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(&t.summary)
}

func (t *tally) sourceError(sourceURL string, err error) {
	t.update(func(s *RunSummary) {
		s.SourceErrors = append(s.SourceErrors, SourceError{
			SourceURL: sourceURL,
			ErrorKind: ErrorKind(err),
			Message:   err.Error(),
		})
	})
}

func (t *tally) finish(now time.Time) RunSummary {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.summary.Duration = now.Sub(t.summary.StartedAt)
	return t.summary
}
