// Package partition implements the range planner (C3): it recursively
// bisects a creation-time interval so each leaf's result count fits under
// the search provider's result-window limit. Grounded on
// original_source/github_crawl/partitioner.py.
package partition

import (
	"time"
)

// TimeRange is a half-open interval [Start, End) in UTC.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Split divides the range into two equal halves. It panics if the range is
// too small to split; callers must check CanSplit first.
func (r TimeRange) Split() (first, second TimeRange) {
	delta := r.End.Sub(r.Start)
	mid := r.Start.Add(delta / 2)
	if !mid.After(r.Start) || !mid.Before(r.End) {
		panic("partition: TimeRange is too small to split further")
	}
	return TimeRange{Start: r.Start, End: mid}, TimeRange{Start: mid, End: r.End}
}

// Duration is the length of the interval.
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// CanSplit reports whether the interval is at least 2 seconds wide, the
// floor below which splitting stops making progress.
func (r TimeRange) CanSplit() bool {
	return r.Duration() >= 2*time.Second
}

// SearchQuery renders the interval as a GitHub repository-search query
// string: `created:>=<start> created:<<end> is:public
// sort:created-asc`.
func (r TimeRange) SearchQuery() string {
	const layout = "2006-01-02T15:04:05Z"
	start := r.Start.UTC().Format(layout)
	end := r.End.UTC().Format(layout)
	return "created:>=" + start + " created:<" + end + " is:public sort:created-asc"
}

// RangePlan is one leaf of the plan: a range to crawl along with how many
// of its available results are actually wanted.
type RangePlan struct {
	TimeRange        TimeRange
	RequestedResults int
	AvailableResults int
}
