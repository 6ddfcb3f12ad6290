// internal/store/contributors.go
package store

import (
	"context"
	"fmt"
	"time"
)

// BumpContributor records one newly stored commit for a username: creates
// the row on first sight, otherwise increments the running counter and
// advances last_commit_at if the commit is newer. Callers must only invoke
// this when the commit insert actually landed, so the counter stays equal to
// the number of stored commit events for the author.
func (s *PG) BumpContributor(ctx context.Context, username string, avatarURL *string, committedAt time.Time) error {
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO contributors (username, avatar_url, total_commits, last_commit_at, updated_at)
		VALUES ($1, $2, 1, $3, now())
		ON CONFLICT (username) DO UPDATE SET
			total_commits = contributors.total_commits + 1,
			avatar_url = COALESCE(EXCLUDED.avatar_url, contributors.avatar_url),
			last_commit_at = GREATEST(contributors.last_commit_at, EXCLUDED.last_commit_at),
			updated_at = now()`,
		username, avatarURL, committedAt); err != nil {
		return fmt.Errorf("failed to upsert contributor %s: %w", username, err)
	}
	return nil
}
