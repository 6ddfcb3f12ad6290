// internal/store/commits.go
package store

import (
	"context"
	"fmt"
	"time"

	"gitpulse/internal/model"
)

// InsertCommit stores a commit event with insert-or-ignore semantics keyed
// by the commit id. The returned bool reports whether a row was actually
// inserted; a duplicate delivery returns false and changes nothing.
func (s *PG) InsertCommit(ctx context.Context, ev model.CommitEvent) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO commits (id, repo_name, author_username, author_avatar_url, message, additions, deletions, commit_url, pushed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		ev.ID, ev.RepoName, ev.AuthorUsername, ev.AuthorAvatarURL, ev.Message,
		ev.Additions, ev.Deletions, ev.CommitURL, ev.PushedAt)
	if err != nil {
		return false, fmt.Errorf("failed to insert commit %s: %w", ev.ID, err)
	}
	return tag.RowsAffected() > 0, nil
}

// RecentCommits returns commits ordered by push time descending.
func (s *PG) RecentCommits(ctx context.Context, limit, offset int) ([]model.CommitEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_name, author_username, author_avatar_url, message, additions, deletions, commit_url, pushed_at, created_at
		FROM commits
		ORDER BY pushed_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent commits: %w", err)
	}
	defer rows.Close()
	return scanCommits(rows)
}

// RepoCommits returns the most recent commits for one repository.
func (s *PG) RepoCommits(ctx context.Context, repoName string, limit int) ([]model.CommitEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_name, author_username, author_avatar_url, message, additions, deletions, commit_url, pushed_at, created_at
		FROM commits
		WHERE repo_name = $1
		ORDER BY pushed_at DESC
		LIMIT $2`, repoName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits for repo %s: %w", repoName, err)
	}
	defer rows.Close()
	return scanCommits(rows)
}

// CommitsMissingStats returns recent commits whose additions/deletions were
// never enriched (both still zero), oldest lookback bound by since.
func (s *PG) CommitsMissingStats(ctx context.Context, since time.Time, limit int) ([]model.CommitEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, repo_name, author_username, author_avatar_url, message, additions, deletions, commit_url, pushed_at, created_at
		FROM commits
		WHERE additions = 0 AND deletions = 0 AND pushed_at >= $1
		ORDER BY pushed_at DESC
		LIMIT $2`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query commits missing stats: %w", err)
	}
	defer rows.Close()
	return scanCommits(rows)
}

// UpdateCommitStats patches the line counts for one commit. The repair pass
// always writes the externally observed truth, so re-running is idempotent.
func (s *PG) UpdateCommitStats(ctx context.Context, id string, additions, deletions int) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE commits SET additions = $2, deletions = $3 WHERE id = $1`,
		id, additions, deletions); err != nil {
		return fmt.Errorf("failed to update stats for commit %s: %w", id, err)
	}
	return nil
}

// UpdateCommitAvatar patches the author avatar for one commit.
func (s *PG) UpdateCommitAvatar(ctx context.Context, id, avatarURL string) error {
	if _, err := s.pool.Exec(ctx,
		`UPDATE commits SET author_avatar_url = $2 WHERE id = $1`,
		id, avatarURL); err != nil {
		return fmt.Errorf("failed to update avatar for commit %s: %w", id, err)
	}
	return nil
}

type commitRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanCommits(rows commitRows) ([]model.CommitEvent, error) {
	var commits []model.CommitEvent
	for rows.Next() {
		var c model.CommitEvent
		if err := rows.Scan(&c.ID, &c.RepoName, &c.AuthorUsername, &c.AuthorAvatarURL,
			&c.Message, &c.Additions, &c.Deletions, &c.CommitURL, &c.PushedAt, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit row: %w", err)
		}
		commits = append(commits, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commit rows: %w", err)
	}
	return commits, nil
}
