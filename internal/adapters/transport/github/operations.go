package github

import (
	"context"
	"time"
)

// CountRepositories executes REPOSITORY_COUNT_QUERY for the given search
// query string, used by the range planner (C3) to size candidate intervals.
func (c *Client) CountRepositories(ctx context.Context, searchQuery string) (CountResult, error) {
	env, err := c.Execute(ctx, RepositoryCountQuery, map[string]any{"query": searchQuery})
	if err != nil {
		return CountResult{}, err
	}
	var out CountResult
	if env.Data.Search != nil {
		out.RepositoryCount = env.Data.Search.RepositoryCount
	}
	if snap, ok := snapshotFromRaw(env.Data.RateLimit); ok {
		out.RateLimit, out.HasRateInfo = snap, true
	}
	return out, nil
}

// SearchRepositories executes one page of REPOSITORY_SEARCH_QUERY, used by
// the crawl engine's producers. fetchedAt is captured once per page by the
// caller and stamped onto every node in the page.
func (c *Client) SearchRepositories(ctx context.Context, searchQuery string, first int, after string, fetchedAt time.Time) (SearchPage, error) {
	vars := map[string]any{"query": searchQuery, "first": first}
	if after != "" {
		vars["after"] = after
	} else {
		vars["after"] = nil
	}
	env, err := c.Execute(ctx, RepositorySearchQuery, vars)
	if err != nil {
		return SearchPage{}, err
	}

	var page SearchPage
	if env.Data.Search != nil {
		page.HasNextPage = env.Data.Search.PageInfo.HasNextPage
		page.EndCursor = env.Data.Search.PageInfo.EndCursor
		page.Nodes = make([]RepositoryRecord, 0, len(env.Data.Search.Nodes))
		for _, n := range env.Data.Search.Nodes {
			page.Nodes = append(page.Nodes, newRepositoryRecord(n, fetchedAt))
		}
	}
	if snap, ok := snapshotFromRaw(env.Data.RateLimit); ok {
		page.RateLimit, page.HasRateInfo = snap, true
	}
	return page, nil
}
