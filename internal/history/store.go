// Package history records publish runs in a local SQLite database so
// past deployments can be inspected after the fact.
package history

import (
	"context"
	"time"
)

// Outcome classifies how a publish run ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
)

// Run is one recorded publish invocation.
type Run struct {
	ID        string
	Account   string
	Repo      string
	Branch    string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   Outcome
	Commit    string // commit hash, empty when the run failed before committing
	Files     int
	Error     string // error text, empty on success
}

// Store persists publish runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	Recent(ctx context.Context, limit int) ([]Run, error)
	Close() error
}
