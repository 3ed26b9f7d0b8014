// Package repo implements the writer: a transactional batch upsert into
// the current-state table plus an append-only insert into the snapshot
// table, plus a streaming read-back. Adapted from services/backfill/repo's
// Binder/TxRunner idiom and grounded on
// original_source/github_crawl/db.py's upsert_repositories/stream_repositories.
package repo

import (
	"context"
	"fmt"

	"ghrange/internal/modkit/repokit"
	"ghrange/internal/services/crawl/domain"
)

const defaultStatementTimeoutMs = 60_000

const upsertRepositorySQL = `
	INSERT INTO github_repositories (
		node_id, database_id, owner_login, owner_type, name, full_name,
		description, primary_language, stargazer_count, fork_count,
		open_issue_count, watcher_count, is_private, is_fork, is_archived,
		created_at, updated_at, pushed_at, fetched_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		$11, $12, $13, $14, $15, $16, $17, $18, $19
	)
	ON CONFLICT (node_id) DO UPDATE SET
		database_id = EXCLUDED.database_id,
		owner_login = EXCLUDED.owner_login,
		owner_type = EXCLUDED.owner_type,
		name = EXCLUDED.name,
		full_name = EXCLUDED.full_name,
		description = EXCLUDED.description,
		primary_language = EXCLUDED.primary_language,
		stargazer_count = EXCLUDED.stargazer_count,
		fork_count = EXCLUDED.fork_count,
		open_issue_count = EXCLUDED.open_issue_count,
		watcher_count = EXCLUDED.watcher_count,
		is_private = EXCLUDED.is_private,
		is_fork = EXCLUDED.is_fork,
		is_archived = EXCLUDED.is_archived,
		created_at = EXCLUDED.created_at,
		updated_at = EXCLUDED.updated_at,
		pushed_at = EXCLUDED.pushed_at,
		fetched_at = EXCLUDED.fetched_at
`

const insertSnapshotSQL = `
	INSERT INTO github_repository_snapshots (
		repository_node_id, fetched_at, stargazer_count, fork_count,
		open_issue_count, watcher_count
	) VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (repository_node_id, fetched_at) DO NOTHING
`

const streamRepositoriesSQL = `
	SELECT
		node_id, database_id, owner_login, owner_type, name, full_name,
		description, primary_language, stargazer_count, fork_count,
		open_issue_count, watcher_count, is_private, is_fork, is_archived,
		created_at, updated_at, pushed_at, fetched_at
	FROM github_repositories
	ORDER BY stargazer_count DESC, node_id
`

// PG is the Postgres-backed writer and reader for crawled repositories.
type PG struct {
	DB                 repokit.TxRunner
	StatementTimeoutMs int
}

// NewPG constructs a PG writer/reader over the given transaction runner.
// statementTimeoutMs bounds every statement run inside WriteBatch/
// StreamRepositories' transactions (database_statement_timeout); 0 or
// negative falls back to defaultStatementTimeoutMs.
func NewPG(db repokit.TxRunner, statementTimeoutMs int) *PG {
	if db == nil {
		panic("crawl repo.PG requires a non nil TxRunner")
	}
	if statementTimeoutMs <= 0 {
		statementTimeoutMs = defaultStatementTimeoutMs
	}
	return &PG{DB: db, StatementTimeoutMs: statementTimeoutMs}
}

// WriteBatch upserts every record's current-state row and inserts its
// snapshot row in a single transaction, so a current-state row and its
// snapshot are never observable in an inconsistent form.
func (p *PG) WriteBatch(ctx context.Context, records []domain.RepositoryRecord) error {
	if len(records) == 0 {
		return nil
	}
	return p.DB.Tx(ctx, func(q repokit.Queryer) error {
		applyTxTuning(ctx, q, p.StatementTimeoutMs)
		for _, r := range records {
			if _, err := q.Exec(ctx, upsertRepositorySQL,
				r.NodeID, r.DatabaseID, r.OwnerLogin, r.OwnerType, r.Name, r.FullName,
				r.Description, r.PrimaryLanguage, r.StargazerCount, r.ForkCount,
				r.OpenIssueCount, r.WatcherCount, r.IsPrivate, r.IsFork, r.IsArchived,
				r.CreatedAt, r.UpdatedAt, r.PushedAt, r.FetchedAt,
			); err != nil {
				return err
			}
			if _, err := q.Exec(ctx, insertSnapshotSQL,
				r.NodeID, r.FetchedAt, r.StargazerCount, r.ForkCount, r.OpenIssueCount, r.WatcherCount,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

// StreamRepositories reads every persisted repository, ordered by
// stargazer count descending, invoking fn per row. Grounded on
// db.py's stream_repositories() — a read-back path alongside the write
// path above, so a downstream export/report can read what was crawled
// without a bespoke query.
func (p *PG) StreamRepositories(ctx context.Context, fn func(domain.RepositoryRecord) error) error {
	return p.DB.Tx(ctx, func(q repokit.Queryer) error {
		applyTxTuning(ctx, q, p.StatementTimeoutMs)
		rows, err := q.Query(ctx, streamRepositoriesSQL)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var r domain.RepositoryRecord
			if err := rows.Scan(
				&r.NodeID, &r.DatabaseID, &r.OwnerLogin, &r.OwnerType, &r.Name, &r.FullName,
				&r.Description, &r.PrimaryLanguage, &r.StargazerCount, &r.ForkCount,
				&r.OpenIssueCount, &r.WatcherCount, &r.IsPrivate, &r.IsFork, &r.IsArchived,
				&r.CreatedAt, &r.UpdatedAt, &r.PushedAt, &r.FetchedAt,
			); err != nil {
				return err
			}
			if err := fn(r); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

// applyTxTuning sets statement_timeout for the lifetime of the enclosing
// transaction, scoped per batch rather than per connection since
// repokit.TxRunner exposes no connection-init hook. SET doesn't accept bind
// parameters, so the configured value is interpolated directly; it is never
// attacker-controlled (sourced from Options.DatabaseStatementMs).
func applyTxTuning(ctx context.Context, q repokit.Queryer, statementTimeoutMs int) {
	_, _ = q.Exec(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", statementTimeoutMs))
}
