package domain

import (
	"context"
	"time"

	"ghrange/internal/adapters/transport/github"
)

// Transport is the port the crawl engine (C4) and range planner (C3)
// depend on, satisfied by the GraphQL transport (C1).
type Transport interface {
	CountRepositories(ctx context.Context, searchQuery string) (CountResult, error)
	SearchRepositories(ctx context.Context, searchQuery string, first int, after string, fetchedAt time.Time) (SearchPage, error)
}

// CountResult re-exports the outcome of a repository-count query.
type CountResult = github.CountResult

// Writer is the port the crawl engine writes normalized records through,
// satisfied by the repo layer (C5).
type Writer interface {
	// WriteBatch upserts the current-state row and inserts the snapshot row
	// for every record, all in one DB transaction.
	WriteBatch(ctx context.Context, records []RepositoryRecord) error
}

// Reader is a read-back capability over persisted repositories, declared
// separately from Writer so a read-only caller (e.g. an export CLI) can
// depend on just this.
type Reader interface {
	StreamRepositories(ctx context.Context, fn func(RepositoryRecord) error) error
}
