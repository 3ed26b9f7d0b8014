package module

import (
	"context"

	"ghrange/internal/adapters/transport/github"
	"ghrange/internal/core/partition"
	"ghrange/internal/core/ratelimit"
	"ghrange/internal/modkit/repokit"
	"ghrange/internal/platform/config"
	"ghrange/internal/platform/store"
	"ghrange/internal/services/crawl/domain"
	"ghrange/internal/services/crawl/repo"
	"ghrange/internal/services/crawl/service"
)

// Ports exposes the crawl module's callable surface to a CLI entrypoint.
type Ports struct {
	Runner RunnerPort
}

// RunnerPort is the subset of the crawl engine a CLI shell needs.
type RunnerPort interface {
	Run(ctx context.Context, initialRange partition.TimeRange, targetCount int) (domain.CrawlResult, error)
}

// Module wires the GraphQL transport, rate-limit coordinator, range
// planner, and writer into a running crawl.Service.
type Module struct {
	opts Options
	svc  *service.Service
}

// New constructs a Module from a Conf and an already-open TxRunner (the
// caller owns store lifecycle — see cmd/ghrange-crawl for the Open/Close
// pairing).
func New(cfg config.Conf, db repokit.TxRunner) *Module {
	opts := FromConfig(cfg)

	transport := github.NewClient(github.Options{
		Endpoint:       opts.GithubGraphQLURL,
		Token:          opts.GithubToken,
		Timeout:        opts.GithubRequestTimeout,
		MaxRetries:     opts.GithubMaxRetries,
		InitialBackoff: opts.GithubInitialBackoff,
		MaxBackoff:     opts.GithubMaxBackoff,
	})

	coordinator := ratelimit.New(ratelimit.DefaultMinimumSleep)

	countFn := func(ctx context.Context, searchQuery string) (partition.CountResult, error) {
		res, err := transport.CountRepositories(ctx, searchQuery)
		if err != nil {
			return partition.CountResult{}, err
		}
		return partition.CountResult{
			RepositoryCount: res.RepositoryCount,
			RateLimit: ratelimit.Snapshot{
				Cost:      res.RateLimit.Cost,
				Remaining: res.RateLimit.Remaining,
				ResetAt:   res.RateLimit.ResetAt,
			},
			HasRateLimit: res.HasRateInfo,
		}, nil
	}
	planner := partition.NewPlanner(countFn, coordinator.Record, opts.SearchResultLimit)

	writer := repo.NewPG(db, opts.DatabaseStatementMs)

	svc := service.New(transport, writer, coordinator, planner, service.Config{
		MaxConcurrency: opts.GithubMaxConcurrency,
		PageSizeCap:    opts.GithubPageSize,
		BatchSize:      opts.DatabaseBatchSize,
		SearchLimit:    opts.SearchResultLimit,
	})

	return &Module{opts: opts, svc: svc}
}

// Name returns the module name.
func (m *Module) Name() string { return "crawl" }

// Ports returns the module ports.
func (m *Module) Ports() any { return Ports{Runner: m.svc} }

// Options returns the resolved configuration, so a CLI shell can read
// TargetRepositoryCount/RangeStart without re-parsing env itself.
func (m *Module) Options() Options { return m.opts }

// StoreConfigFromOptions builds the store.Config a CLI shell needs to open
// the Postgres pool this module's writer will run transactions against.
func StoreConfigFromOptions(o Options) store.Config {
	return store.Config{
		AppName: "ghrange-crawl",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         o.DatabaseDSN,
			MaxConns:    int32(o.GithubMaxConcurrency),
			SlowQueryMs: 500,
			LogSQL:      false,
		},
	}
}
