// internal/store/aggregates.go
package store

import (
	"context"
	"fmt"
	"time"

	"gitpulse/internal/model"
)

// WindowStats computes the rolling counters for commits pushed at or after
// from and, when to is non-nil, strictly before to.
func (s *PG) WindowStats(ctx context.Context, from time.Time, to *time.Time) (model.WindowStats, error) {
	var ws model.WindowStats
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)::int,
		       coalesce(sum(additions), 0)::int,
		       coalesce(sum(deletions), 0)::int,
		       count(DISTINCT author_username)::int
		FROM commits
		WHERE pushed_at >= $1 AND ($2::timestamptz IS NULL OR pushed_at < $2)`,
		from, to).Scan(&ws.Commits, &ws.Additions, &ws.Deletions, &ws.Contributors)
	if err != nil {
		return model.WindowStats{}, fmt.Errorf("failed to query window stats: %w", err)
	}
	return ws, nil
}

// TotalCommits counts every stored commit event.
func (s *PG) TotalCommits(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*)::int FROM commits`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	return n, nil
}

// DailyCounts groups commits since from by their local calendar date.
// offsetHours shifts the stored UTC instants to business-timezone wall time
// before the date is taken, so day boundaries match the Calendar's.
func (s *PG) DailyCounts(ctx context.Context, from time.Time, offsetHours int) ([]model.DayCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT to_char((pushed_at AT TIME ZONE 'UTC' + make_interval(hours => $2))::date, 'YYYY-MM-DD'),
		       count(*)::int
		FROM commits
		WHERE pushed_at >= $1
		GROUP BY 1
		ORDER BY 1`, from, offsetHours)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily counts: %w", err)
	}
	defer rows.Close()

	var days []model.DayCount
	for rows.Next() {
		var d model.DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, fmt.Errorf("failed to scan daily count row: %w", err)
		}
		days = append(days, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily count rows: %w", err)
	}
	return days, nil
}

// Leaderboard groups commits in the window by author, ordered by commit
// count descending with the username as an explicit total-order tie-break.
func (s *PG) Leaderboard(ctx context.Context, from time.Time, to *time.Time, limit int) ([]model.LeaderboardRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT author_username,
		       max(author_avatar_url),
		       count(*)::int,
		       coalesce(sum(additions), 0)::int,
		       coalesce(sum(deletions), 0)::int
		FROM commits
		WHERE pushed_at >= $1 AND ($2::timestamptz IS NULL OR pushed_at < $2)
		GROUP BY author_username
		ORDER BY count(*) DESC, author_username ASC
		LIMIT $3`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()
	return scanLeaderboardRows(rows)
}

// RepoTopContributors is the leaderboard grouping scoped to one repo, over
// its entire history.
func (s *PG) RepoTopContributors(ctx context.Context, repoName string, limit int) ([]model.LeaderboardRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT author_username,
		       max(author_avatar_url),
		       count(*)::int,
		       coalesce(sum(additions), 0)::int,
		       coalesce(sum(deletions), 0)::int
		FROM commits
		WHERE repo_name = $1
		GROUP BY author_username
		ORDER BY count(*) DESC, author_username ASC
		LIMIT $2`, repoName, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top contributors for repo %s: %w", repoName, err)
	}
	defer rows.Close()
	return scanLeaderboardRows(rows)
}

// RepoAuthorCounts groups window commits by (repo, author). Rows come back
// ordered repo first, then count descending, then username, so the first row
// per repo is its top contributor.
func (s *PG) RepoAuthorCounts(ctx context.Context, from time.Time) ([]model.RepoAuthorCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT repo_name, author_username, max(author_avatar_url), count(*)::int
		FROM commits
		WHERE pushed_at >= $1
		GROUP BY repo_name, author_username
		ORDER BY repo_name ASC, count(*) DESC, author_username ASC`, from)
	if err != nil {
		return nil, fmt.Errorf("failed to query repo author counts: %w", err)
	}
	defer rows.Close()

	var counts []model.RepoAuthorCount
	for rows.Next() {
		var c model.RepoAuthorCount
		if err := rows.Scan(&c.RepoName, &c.Username, &c.AvatarURL, &c.Commits); err != nil {
			return nil, fmt.Errorf("failed to scan repo author count row: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo author count rows: %w", err)
	}
	return counts, nil
}

// RepoGrowth ranks repos by window-over-window commit delta. A repo active
// in either window appears; the FULL OUTER JOIN keeps repos whose activity
// dropped to zero, with negative growth.
func (s *PG) RepoGrowth(ctx context.Context, currentStart, prevStart time.Time, limit int) ([]model.RepoGrowth, error) {
	rows, err := s.pool.Query(ctx, `
		WITH current_window AS (
			SELECT repo_name, count(*)::int AS commits
			FROM commits
			WHERE pushed_at >= $1
			GROUP BY repo_name
		),
		prev_window AS (
			SELECT repo_name, count(*)::int AS commits
			FROM commits
			WHERE pushed_at >= $2 AND pushed_at < $1
			GROUP BY repo_name
		)
		SELECT coalesce(c.repo_name, p.repo_name),
		       coalesce(c.commits, 0),
		       coalesce(p.commits, 0),
		       coalesce(c.commits, 0) - coalesce(p.commits, 0) AS growth
		FROM current_window c
		FULL OUTER JOIN prev_window p ON c.repo_name = p.repo_name
		ORDER BY growth DESC, 1 ASC
		LIMIT $3`, currentStart, prevStart, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query repo growth: %w", err)
	}
	defer rows.Close()

	var growth []model.RepoGrowth
	for rows.Next() {
		var g model.RepoGrowth
		if err := rows.Scan(&g.Name, &g.CurrentCommits, &g.PrevCommits, &g.Growth); err != nil {
			return nil, fmt.Errorf("failed to scan repo growth row: %w", err)
		}
		growth = append(growth, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating repo growth rows: %w", err)
	}
	return growth, nil
}

// NewContributorsSince counts authors whose first stored commit is at or
// after since.
func (s *PG) NewContributorsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
		SELECT count(*)::int FROM (
			SELECT author_username, min(pushed_at) AS first_commit
			FROM commits
			GROUP BY author_username
		) sub
		WHERE sub.first_commit >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count new contributors: %w", err)
	}
	return n, nil
}

// WeeklyBuckets groups commits since from into local-time week buckets
// labelled by the Monday date.
func (s *PG) WeeklyBuckets(ctx context.Context, from time.Time, offsetHours int) ([]model.BucketCount, error) {
	return s.bucketCounts(ctx, `
		SELECT to_char(date_trunc('week', pushed_at AT TIME ZONE 'UTC' + make_interval(hours => $2)), 'YYYY-MM-DD'),
		       count(*)::int
		FROM commits
		WHERE pushed_at >= $1
		GROUP BY 1
		ORDER BY 1`, from, offsetHours)
}

// MonthlyBuckets groups commits since from into local-time month buckets.
func (s *PG) MonthlyBuckets(ctx context.Context, from time.Time, offsetHours int) ([]model.BucketCount, error) {
	return s.bucketCounts(ctx, `
		SELECT to_char(date_trunc('month', pushed_at AT TIME ZONE 'UTC' + make_interval(hours => $2)), 'YYYY-MM'),
		       count(*)::int
		FROM commits
		WHERE pushed_at >= $1
		GROUP BY 1
		ORDER BY 1`, from, offsetHours)
}

func (s *PG) bucketCounts(ctx context.Context, query string, from time.Time, offsetHours int) ([]model.BucketCount, error) {
	rows, err := s.pool.Query(ctx, query, from, offsetHours)
	if err != nil {
		return nil, fmt.Errorf("failed to query bucket counts: %w", err)
	}
	defer rows.Close()

	var buckets []model.BucketCount
	for rows.Next() {
		var b model.BucketCount
		if err := rows.Scan(&b.Bucket, &b.Commits); err != nil {
			return nil, fmt.Errorf("failed to scan bucket count row: %w", err)
		}
		buckets = append(buckets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bucket count rows: %w", err)
	}
	return buckets, nil
}

type leaderboardRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanLeaderboardRows(rows leaderboardRows) ([]model.LeaderboardRow, error) {
	var board []model.LeaderboardRow
	for rows.Next() {
		var r model.LeaderboardRow
		if err := rows.Scan(&r.Username, &r.AvatarURL, &r.Commits, &r.Additions, &r.Deletions); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		board = append(board, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leaderboard rows: %w", err)
	}
	return board, nil
}
