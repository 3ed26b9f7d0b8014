// Package domain holds the shared types and ports for the crawl service:
// the normalized repository record, the crawl result, and the interfaces
// the engine (C4) and writer (C5) depend on without naming their concrete
// transport/storage implementations.
package domain

import (
	"time"

	"ghrange/internal/adapters/transport/github"
)

// RepositoryRecord re-exports the normalized repository shape produced by
// the GraphQL transport.
type RepositoryRecord = github.RepositoryRecord

// SearchPage re-exports one page of search results.
type SearchPage = github.SearchPage

// RateLimitSnapshot re-exports the provider rate-limit reading.
type RateLimitSnapshot = github.RateLimitSnapshot

// CrawlResult is the crawl engine's public contract
type CrawlResult struct {
	RepositoriesWritten int
	RateLimitRemaining  *int
	FinishedAt          time.Time
}
