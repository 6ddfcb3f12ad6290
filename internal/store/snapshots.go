// internal/store/snapshots.go
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitpulse/internal/model"
)

// HasWeeklySnapshot reports whether any entries were already archived for
// the given ISO (year, week).
func (s *PG) HasWeeklySnapshot(ctx context.Context, year, week int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM weekly_leaderboards WHERE year = $1 AND week = $2)`,
		year, week).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check snapshot for %d-W%d: %w", year, week, err)
	}
	return exists, nil
}

// InsertWeeklySnapshot bulk-inserts one archived entry per leaderboard
// member. The (year, week, username) uniqueness constraint rejects a
// concurrent duplicate archive of the same week.
func (s *PG) InsertWeeklySnapshot(ctx context.Context, entries []model.WeeklyLeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(`
			INSERT INTO weekly_leaderboards (year, week, username, avatar_url, commits, additions, deletions, rank)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			e.Year, e.Week, e.Username, e.AvatarURL, e.Commits, e.Additions, e.Deletions, e.Rank)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()
	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert weekly snapshot entry: %w", err)
		}
	}
	return nil
}

// WeeklySnapshot returns the archived leaderboard for one (year, week),
// ordered by rank. An empty result means the week was never archived.
func (s *PG) WeeklySnapshot(ctx context.Context, year, week int) ([]model.WeeklyLeaderboardEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT year, week, username, avatar_url, commits, additions, deletions, rank, created_at
		FROM weekly_leaderboards
		WHERE year = $1 AND week = $2
		ORDER BY rank ASC`, year, week)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot for %d-W%d: %w", year, week, err)
	}
	defer rows.Close()

	var entries []model.WeeklyLeaderboardEntry
	for rows.Next() {
		var e model.WeeklyLeaderboardEntry
		if err := rows.Scan(&e.Year, &e.Week, &e.Username, &e.AvatarURL,
			&e.Commits, &e.Additions, &e.Deletions, &e.Rank, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot rows: %w", err)
	}
	return entries, nil
}

// SnapshotWeeks lists the most recent distinct archived (year, week) pairs.
func (s *PG) SnapshotWeeks(ctx context.Context, limit int) ([]model.SnapshotWeek, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT year, week
		FROM weekly_leaderboards
		ORDER BY year DESC, week DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot weeks: %w", err)
	}
	defer rows.Close()

	var weeks []model.SnapshotWeek
	for rows.Next() {
		var w model.SnapshotWeek
		if err := rows.Scan(&w.Year, &w.Week); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot week row: %w", err)
		}
		weeks = append(weeks, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshot week rows: %w", err)
	}
	return weeks, nil
}
