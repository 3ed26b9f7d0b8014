// Package module wires the crawl engine's adapters and service together.
package module

import (
	"time"

	"ghrange/internal/platform/config"
)

// Options is the crawl module's configuration surface, read from env via
// FromConfig.
type Options struct {
	GithubToken          string
	GithubGraphQLURL     string
	GithubMaxConcurrency int
	GithubPageSize       int
	GithubMaxRetries     int
	GithubInitialBackoff time.Duration
	GithubMaxBackoff     time.Duration
	GithubRequestTimeout time.Duration

	DatabaseDSN         string
	DatabaseStatementMs int
	DatabaseBatchSize   int

	TargetRepositoryCount int
	SearchResultLimit     int
	RangeStart            time.Time
}

// FromConfig reads CRAWL_GITHUB_* and CRAWL_DATABASE_* env vars, falling
// back to sane defaults where a value is absent.
func FromConfig(cfg config.Conf) Options {
	gh := cfg.Prefix("CRAWL_GITHUB_")
	db := cfg.Prefix("CRAWL_DATABASE_")
	run := cfg.Prefix("CRAWL_")

	rangeStart := run.MayString("RANGE_START", "2008-01-01T00:00:00Z")
	start, err := time.Parse(time.RFC3339, rangeStart)
	if err != nil {
		start = time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	return Options{
		GithubToken:          gh.MustString("TOKEN"),
		GithubGraphQLURL:     gh.MayString("GRAPHQL_URL", "https://api.github.com/graphql"),
		GithubMaxConcurrency: gh.MayInt("MAX_CONCURRENCY", 12),
		GithubPageSize:       gh.MayInt("PAGE_SIZE", 100),
		GithubMaxRetries:     gh.MayInt("MAX_RETRIES", 6),
		GithubInitialBackoff: gh.MayDuration("INITIAL_BACKOFF", 1*time.Second),
		GithubMaxBackoff:     gh.MayDuration("MAX_BACKOFF", 30*time.Second),
		GithubRequestTimeout: gh.MayDuration("REQUEST_TIMEOUT", 40*time.Second),

		DatabaseDSN:         db.MayString("DSN", "postgres://localhost:5432/ghrange?sslmode=disable"),
		DatabaseStatementMs: db.MayInt("STATEMENT_TIMEOUT", 60) * 1000,
		DatabaseBatchSize:   db.MayInt("BATCH_SIZE", 500),

		TargetRepositoryCount: run.MayInt("TARGET_REPOSITORY_COUNT", 100_000),
		SearchResultLimit:     run.MayInt("SEARCH_RESULT_LIMIT", 1000),
		RangeStart:            start,
	}
}
