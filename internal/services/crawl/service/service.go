// Package service implements the crawl engine: it fans out one producer
// per range plan, bounded by a concurrency gate, and drains a single
// writer goroutine off the resulting record channel, using
// golang.org/x/sync/errgroup for the producer fan-out.
package service

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"ghrange/internal/core/partition"
	"ghrange/internal/core/ratelimit"
	"ghrange/internal/platform/logger"
	"ghrange/internal/services/crawl/domain"
)

// Config holds the crawl engine's tunables.
type Config struct {
	MaxConcurrency int // in-flight search requests; <=0 -> 12
	PageSizeCap    int // nodes per search call, capped at 100; <=0 -> 100
	BatchSize      int // writer flush size; <=0 -> 500
	SearchLimit    int // provider result-window limit; <=0 -> 1000
}

const (
	defaultMaxConcurrency = 12
	defaultPageSizeCap    = 100
	defaultBatchSize      = 500
	defaultSearchLimit    = 1000
)

func (c Config) withDefaults() Config {
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = defaultMaxConcurrency
	}
	if c.PageSizeCap <= 0 || c.PageSizeCap > 100 {
		c.PageSizeCap = defaultPageSizeCap
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaultBatchSize
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = defaultSearchLimit
	}
	return c
}

// Service is the crawl engine.
type Service struct {
	Transport   domain.Transport
	Writer      domain.Writer
	Coordinator *ratelimit.Coordinator
	Planner     *partition.Planner
	Cfg         Config

	log logger.Logger
}

// New constructs a Service. transport, writer, coordinator and planner must
// be non-nil.
func New(transport domain.Transport, writer domain.Writer, coordinator *ratelimit.Coordinator, planner *partition.Planner, cfg Config) *Service {
	if transport == nil {
		panic("crawl.Service requires a non nil Transport")
	}
	if writer == nil {
		panic("crawl.Service requires a non nil Writer")
	}
	if coordinator == nil {
		panic("crawl.Service requires a non nil rate-limit Coordinator")
	}
	if planner == nil {
		panic("crawl.Service requires a non nil Planner")
	}
	return &Service{
		Transport:   transport,
		Writer:      writer,
		Coordinator: coordinator,
		Planner:     planner,
		Cfg:         cfg.withDefaults(),
		log:         *logger.Named("crawl-engine"),
	}
}

// Run is the engine's public contract: plan the initial range, then drive
// Crawl. A planning failure aborts the run entirely — no plans means no
// work.
func (s *Service) Run(ctx context.Context, initialRange partition.TimeRange, targetCount int) (domain.CrawlResult, error) {
	plans, err := s.Planner.Plan(ctx, initialRange, targetCount)
	if err != nil {
		return domain.CrawlResult{}, err
	}
	return s.Crawl(ctx, plans)
}

// Crawl takes already-computed plans (Run does the planning), fans out
// one producer per plan, and drains a single writer until every
// producer has finished or the context is cancelled.
func (s *Service) Crawl(ctx context.Context, plans []partition.RangePlan) (domain.CrawlResult, error) {
	if len(plans) == 0 {
		return domain.CrawlResult{FinishedAt: time.Now().UTC()}, nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records := make(chan domain.RepositoryRecord, 2*s.Cfg.BatchSize)
	writerDone := make(chan struct{})
	var written int
	var rateLimitRemaining *int
	var writerErr error

	go func() {
		defer close(writerDone)
		written, rateLimitRemaining, writerErr = s.drain(ctx, records)
		if writerErr != nil {
			// Writer failures abort the crawl; stop producers from blocking
			// forever on a channel nobody drains.
			cancel()
		}
	}()

	g := &errgroup.Group{}
	g.SetLimit(s.Cfg.MaxConcurrency)
	seen := newSeenSet()
	for _, plan := range plans {
		g.Go(func() error {
			if err := s.produce(ctx, plan, records, seen); err != nil && !errors.Is(err, context.Canceled) {
				s.log.Error().Err(err).
					Time("start", plan.TimeRange.Start).
					Time("end", plan.TimeRange.End).
					Msg("crawl: producer stopped; other plans continue")
			}
			return nil // never propagate: one plan's failure must not cancel siblings.
		})
	}
	_ = g.Wait()
	close(records)
	<-writerDone

	if writerErr != nil {
		return domain.CrawlResult{}, writerErr
	}
	return domain.CrawlResult{
		RepositoriesWritten: written,
		RateLimitRemaining:  rateLimitRemaining,
		FinishedAt:          time.Now().UTC(),
	}, nil
}

// produce drains one RangePlan page by page, deduplicating against seen and
// enqueuing newly observed records.
func (s *Service) produce(ctx context.Context, plan partition.RangePlan, records chan<- domain.RepositoryRecord, seen *seenSet) error {
	remaining := plan.RequestedResults
	cursor := ""
	query := plan.TimeRange.SearchQuery()

	for remaining > 0 {
		pageSize := min(s.Cfg.PageSizeCap, remaining)

		if err := s.Coordinator.Acquire(ctx); err != nil {
			return err
		}

		fetchedAt := time.Now().UTC()
		page, err := s.Transport.SearchRepositories(ctx, query, pageSize, cursor, fetchedAt)
		if err != nil {
			return err
		}
		if page.HasRateInfo {
			s.Coordinator.Record(toCoordinatorSnapshot(page.RateLimit))
		}

		for _, rec := range page.Nodes {
			if !seen.insert(rec.NodeID) {
				continue
			}
			select {
			case records <- rec:
			case <-ctx.Done():
				return ctx.Err()
			}
			remaining--
			if remaining <= 0 {
				break
			}
		}

		if !page.HasNextPage || len(page.Nodes) == 0 {
			break
		}
		cursor = page.EndCursor
	}
	return nil
}

// drain is the single writer task: it buffers records up to BatchSize and
// flushes on a full buffer or channel close (with any residual).
func (s *Service) drain(ctx context.Context, records <-chan domain.RepositoryRecord) (written int, rateLimitRemaining *int, err error) {
	buf := make([]domain.RepositoryRecord, 0, s.Cfg.BatchSize)
	flush := func() error {
		if len(buf) == 0 {
			return nil
		}
		if err := s.Writer.WriteBatch(ctx, buf); err != nil {
			return err
		}
		written += len(buf)
		buf = buf[:0]
		return nil
	}

	for rec := range records {
		buf = append(buf, rec)
		if len(buf) >= s.Cfg.BatchSize {
			if err := flush(); err != nil {
				return written, rateLimitRemaining, err
			}
		}
	}
	if err := flush(); err != nil {
		return written, rateLimitRemaining, err
	}

	if remaining, ok := s.Coordinator.Remaining(); ok {
		rateLimitRemaining = &remaining
	}
	return written, rateLimitRemaining, nil
}

func toCoordinatorSnapshot(snap domain.RateLimitSnapshot) ratelimit.Snapshot {
	return ratelimit.Snapshot{Cost: snap.Cost, Remaining: snap.Remaining, ResetAt: snap.ResetAt}
}
