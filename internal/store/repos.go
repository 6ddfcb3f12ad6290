// internal/store/repos.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	apperrors "gitpulse/internal/errors"
	"gitpulse/internal/model"
)

// UpsertRepoOnPush inserts or updates the repository row for a push.
// The origin reports the repo's current visibility with every push, so
// is_private is always overwritten. last_push_at only ever moves forward:
// GREATEST keeps the stored value when a late-arriving push carries an older
// timestamp.
func (s *PG) UpsertRepoOnPush(ctx context.Context, name, fullName string, private bool, pushedAt time.Time) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO repos (name, full_name, is_private, last_push_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (name) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			is_private = EXCLUDED.is_private,
			last_push_at = GREATEST(repos.last_push_at, EXCLUDED.last_push_at),
			updated_at = now()`,
		name, fullName, private, pushedAt); err != nil {
		return fmt.Errorf("failed to upsert repo %s: %w", name, err)
	}
	return nil
}

// ActiveRepos lists active repositories ordered by most recent push.
func (s *PG) ActiveRepos(ctx context.Context, limit int) ([]model.Repository, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, full_name, is_active, is_private, last_push_at, created_at, updated_at
		FROM repos
		WHERE is_active
		ORDER BY last_push_at DESC NULLS LAST
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active repos: %w", err)
	}
	defer rows.Close()

	var repos []model.Repository
	for rows.Next() {
		var r model.Repository
		if err := rows.Scan(&r.ID, &r.Name, &r.FullName, &r.IsActive, &r.IsPrivate,
			&r.LastPushAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan repo row: %w", err)
		}
		repos = append(repos, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo rows: %w", err)
	}
	return repos, nil
}

// RepoByName fetches one repository.
func (s *PG) RepoByName(ctx context.Context, name string) (*model.Repository, error) {
	var r model.Repository
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, full_name, is_active, is_private, last_push_at, created_at, updated_at
		FROM repos WHERE name = $1`, name).
		Scan(&r.ID, &r.Name, &r.FullName, &r.IsActive, &r.IsPrivate,
			&r.LastPushAt, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.ErrRepoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get repo %s: %w", name, err)
	}
	return &r, nil
}

// RepoPrivacy maps repo name to its private flag, for display masking.
func (s *PG) RepoPrivacy(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT name, is_private FROM repos`)
	if err != nil {
		return nil, fmt.Errorf("failed to query repo privacy flags: %w", err)
	}
	defer rows.Close()

	private := make(map[string]bool)
	for rows.Next() {
		var name string
		var isPrivate bool
		if err := rows.Scan(&name, &isPrivate); err != nil {
			return nil, fmt.Errorf("failed to scan repo privacy row: %w", err)
		}
		private[name] = isPrivate
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo privacy rows: %w", err)
	}
	return private, nil
}

// ActiveRepoCount counts repos with a push at or after since.
func (s *PG) ActiveRepoCount(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx,
		`SELECT count(*)::int FROM repos WHERE last_push_at >= $1`, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count active repos: %w", err)
	}
	return n, nil
}
