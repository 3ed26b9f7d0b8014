package github

import (
	"time"

	ptime "ghrange/internal/platform/time"
)

// GraphQLError is one entry of a GraphQL response's top-level errors[] array.
type GraphQLError struct {
	Message    string         `json:"message"`
	Type       string         `json:"type,omitempty"`
	RetryAfter *float64       `json:"retryAfter,omitempty"`
	Path       []any          `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// envelope is the raw GraphQL HTTP response body.
type envelope struct {
	Data   *rawData       `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

// rawData is the decoded `data` subtree for both named operations; fields
// not relevant to the issued query are simply absent/zero.
type rawData struct {
	Search    *rawSearch    `json:"search,omitempty"`
	RateLimit *rawRateLimit `json:"rateLimit,omitempty"`
}

type rawRateLimit struct {
	Cost      int    `json:"cost"`
	Remaining int    `json:"remaining"`
	ResetAt   string `json:"resetAt"`
}

type rawSearch struct {
	RepositoryCount int           `json:"repositoryCount"`
	Nodes           []rawRepoNode `json:"nodes"`
	PageInfo        rawPageInfo   `json:"pageInfo"`
}

type rawPageInfo struct {
	HasNextPage bool   `json:"hasNextPage"`
	EndCursor   string `json:"endCursor"`
}

type rawRepoNode struct {
	ID              string  `json:"id"`
	DatabaseID      *int64  `json:"databaseId"`
	Name            string  `json:"name"`
	NameWithOwner   string  `json:"nameWithOwner"`
	Description     *string `json:"description"`
	StargazerCount  int     `json:"stargazerCount"`
	ForkCount       int     `json:"forkCount"`
	IsPrivate       bool    `json:"isPrivate"`
	IsFork          bool    `json:"isFork"`
	IsArchived      bool    `json:"isArchived"`
	CreatedAt       string  `json:"createdAt"`
	UpdatedAt       string  `json:"updatedAt"`
	PushedAt        *string `json:"pushedAt"`
	Owner           struct {
		Login    string `json:"login"`
		Typename string `json:"__typename"`
	} `json:"owner"`
	Watchers struct {
		TotalCount int `json:"totalCount"`
	} `json:"watchers"`
	Issues struct {
		TotalCount int `json:"totalCount"`
	} `json:"issues"`
	PrimaryLanguage *struct {
		Name string `json:"name"`
	} `json:"primaryLanguage"`
}

// RateLimitSnapshot is a point-in-time reading of the provider's rate-limit
// cost/remaining/resetAt trio.
type RateLimitSnapshot struct {
	Cost      int
	Remaining int
	ResetAt   time.Time
}

func snapshotFromRaw(r *rawRateLimit) (RateLimitSnapshot, bool) {
	if r == nil {
		return RateLimitSnapshot{}, false
	}
	resetAt, _ := time.Parse(time.RFC3339, r.ResetAt)
	return RateLimitSnapshot{Cost: r.Cost, Remaining: r.Remaining, ResetAt: resetAt.UTC()}, true
}

// RepositoryRecord is the canonical projection of a GraphQL repository node
// (extended schema — see DESIGN.md's Open Question decisions).
type RepositoryRecord struct {
	NodeID          string
	DatabaseID      *int64
	OwnerLogin      string
	OwnerType       string
	Name            string
	FullName        string
	Description     *string
	PrimaryLanguage *string
	StargazerCount  int
	ForkCount       int
	OpenIssueCount  int
	WatcherCount    int
	IsPrivate       bool
	IsFork          bool
	IsArchived      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
	PushedAt        *time.Time
	FetchedAt       time.Time
}

// SearchPage is the decoded result of one REPOSITORY_SEARCH_QUERY page.
type SearchPage struct {
	Nodes       []RepositoryRecord
	HasNextPage bool
	EndCursor   string
	RateLimit   RateLimitSnapshot
	HasRateInfo bool
}

// CountResult is the decoded result of one REPOSITORY_COUNT_QUERY call.
type CountResult struct {
	RepositoryCount int
	RateLimit       RateLimitSnapshot
	HasRateInfo     bool
}

func newRepositoryRecord(n rawRepoNode, fetchedAt time.Time) RepositoryRecord {
	rec := RepositoryRecord{
		NodeID:         n.ID,
		DatabaseID:     n.DatabaseID,
		OwnerLogin:     n.Owner.Login,
		OwnerType:      n.Owner.Typename,
		Name:           n.Name,
		FullName:       n.NameWithOwner,
		Description:    n.Description,
		StargazerCount: n.StargazerCount,
		ForkCount:      n.ForkCount,
		OpenIssueCount: n.Issues.TotalCount,
		WatcherCount:   n.Watchers.TotalCount,
		IsPrivate:      n.IsPrivate,
		IsFork:         n.IsFork,
		IsArchived:     n.IsArchived,
		FetchedAt:      fetchedAt,
	}
	if n.PrimaryLanguage != nil {
		rec.PrimaryLanguage = &n.PrimaryLanguage.Name
	}
	rec.CreatedAt = parseTimestamp(n.CreatedAt)
	rec.UpdatedAt = parseTimestamp(n.UpdatedAt)
	if n.PushedAt != nil {
		rec.PushedAt = ptime.Ptr(parseTimestamp(*n.PushedAt))
	}
	return rec
}

// parseTimestamp accepts the RFC3339 timestamps the GraphQL API emits.
func parseTimestamp(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t.UTC()
}
