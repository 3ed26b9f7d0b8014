package partition

import (
	"context"

	"ghrange/internal/core/ratelimit"
	"ghrange/internal/platform/logger"
)

// CountResult is the outcome of one count query: a repository count plus an
// optional rate-limit snapshot to feed back into the coordinator.
type CountResult struct {
	RepositoryCount int
	RateLimit       ratelimit.Snapshot
	HasRateLimit    bool
}

// CountFunc executes a repository-count query for the given search string.
// Satisfied by the GraphQL transport's CountRepositories operation.
type CountFunc func(ctx context.Context, searchQuery string) (CountResult, error)

// Planner produces RangePlans that together yield totalNeeded repositories
// without any single plan exceeding searchLimit.
type Planner struct {
	count       CountFunc
	record      func(ratelimit.Snapshot)
	searchLimit int
	log         logger.Logger
}

// NewPlanner constructs a Planner. record may be nil if the caller doesn't
// want count-query rate-limit snapshots fed back into a coordinator.
func NewPlanner(count CountFunc, record func(ratelimit.Snapshot), searchLimit int) *Planner {
	return &Planner{
		count:       count,
		record:      record,
		searchLimit: searchLimit,
		log:         *logger.Named("range-planner"),
	}
}

type stackEntry struct {
	rng   TimeRange
	count *int
}

// Plan walks initial, bisecting any interval whose result count exceeds
// searchLimit, until the accumulated RequestedResults reaches totalNeeded or
// the search space is exhausted. The traversal is an explicit work stack
// (not recursion) so arbitrarily deep bisection never grows the Go stack,
// mirroring the iterative form in partitioner.py.
func (p *Planner) Plan(ctx context.Context, initial TimeRange, totalNeeded int) ([]RangePlan, error) {
	var planned []RangePlan
	stack := []stackEntry{{rng: initial}}
	remaining := totalNeeded

	for len(stack) > 0 && remaining > 0 {
		entry := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		count, err := p.resolveCount(ctx, entry)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			continue
		}

		if count > p.searchLimit {
			if !entry.rng.CanSplit() {
				p.log.Warn().
					Int("count", count).
					Int("search_limit", p.searchLimit).
					Time("start", entry.rng.Start).
					Time("end", entry.rng.End).
					Msg("range planner: search result count exceeds limit for unsplittable range; clamping to limit")
				count = p.searchLimit
			} else {
				older, newer := entry.rng.Split()
				olderCount, err := p.resolveCount(ctx, stackEntry{rng: older})
				if err != nil {
					return nil, err
				}
				newerCount, err := p.resolveCount(ctx, stackEntry{rng: newer})
				if err != nil {
					return nil, err
				}
				maxAvailable := min(count, p.searchLimit)
				if olderCount+newerCount < maxAvailable {
					// Splitting lost results to rounding/boundary effects; treat
					// this range as terminal rather than silently dropping them.
					count = maxAvailable
				} else {
					stack = append(stack, stackEntry{rng: older, count: &olderCount})
					stack = append(stack, stackEntry{rng: newer, count: &newerCount})
					continue
				}
			}
		}

		take := min(count, remaining)
		planned = append(planned, RangePlan{
			TimeRange:        entry.rng,
			RequestedResults: take,
			AvailableResults: count,
		})
		remaining -= take
	}

	return planned, nil
}

func (p *Planner) resolveCount(ctx context.Context, entry stackEntry) (int, error) {
	if entry.count != nil {
		return *entry.count, nil
	}
	res, err := p.count(ctx, entry.rng.SearchQuery())
	if err != nil {
		return 0, err
	}
	if p.record != nil && res.HasRateLimit {
		p.record(res.RateLimit)
	}
	return res.RepositoryCount, nil
}
