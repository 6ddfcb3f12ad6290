// internal/snapshot/archiver.go

// Package snapshot freezes the current week's leaderboard into the
// immutable weekly history.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitpulse/internal/calendar"
	apperrors "gitpulse/internal/errors"
	"gitpulse/internal/model"
)

const (
	leaderboardSize = 10
	historyWeeksMax = 20
)

// Store is the slice of the event store the archiver uses.
type Store interface {
	Leaderboard(ctx context.Context, from time.Time, to *time.Time, limit int) ([]model.LeaderboardRow, error)
	HasWeeklySnapshot(ctx context.Context, year, week int) (bool, error)
	InsertWeeklySnapshot(ctx context.Context, entries []model.WeeklyLeaderboardEntry) error
	WeeklySnapshot(ctx context.Context, year, week int) ([]model.WeeklyLeaderboardEntry, error)
	SnapshotWeeks(ctx context.Context, limit int) ([]model.SnapshotWeek, error)
}

// Archiver materializes weekly leaderboard snapshots.
type Archiver struct {
	store  Store
	cal    *calendar.Calendar
	logger *slog.Logger
}

// NewArchiver creates a snapshot archiver.
func NewArchiver(store Store, cal *calendar.Calendar, logger *slog.Logger) *Archiver {
	return &Archiver{store: store, cal: cal, logger: logger}
}

// Result reports one archive attempt.
type Result struct {
	Archived bool   `json:"archived"`
	Year     int    `json:"year"`
	Week     int    `json:"week"`
	Members  int    `json:"members"`
	Message  string `json:"message"`
}

// Archive computes the current-week leaderboard (weekStart..now), assigns
// dense ranks 1..N in leaderboard order, and persists one entry per member
// for the current ISO (year, week). A week without commits is a no-op, as
// is a week that was already archived; the (year, week, username)
// uniqueness constraint backstops concurrent triggers.
func (a *Archiver) Archive(ctx context.Context) (*Result, error) {
	year, week := a.cal.ISOWeek(a.cal.Now())

	exists, err := a.store.HasWeeklySnapshot(ctx, year, week)
	if err != nil {
		return nil, fmt.Errorf("snapshot existence check: %w", err)
	}
	if exists {
		return &Result{
			Year: year, Week: week,
			Message: fmt.Sprintf("week %d of %d already archived", week, year),
		}, nil
	}

	board, err := a.store.Leaderboard(ctx, a.cal.WeekStart(), nil, leaderboardSize)
	if err != nil {
		return nil, fmt.Errorf("current week leaderboard: %w", err)
	}
	if len(board) == 0 {
		return &Result{
			Year: year, Week: week,
			Message: "no commits this week",
		}, nil
	}

	entries := make([]model.WeeklyLeaderboardEntry, 0, len(board))
	for i, member := range board {
		entries = append(entries, model.WeeklyLeaderboardEntry{
			Year:      year,
			Week:      week,
			Username:  member.Username,
			AvatarURL: member.AvatarURL,
			Commits:   member.Commits,
			Additions: member.Additions,
			Deletions: member.Deletions,
			Rank:      i + 1,
		})
	}
	if err := a.store.InsertWeeklySnapshot(ctx, entries); err != nil {
		return nil, fmt.Errorf("insert snapshot: %w", err)
	}

	a.logger.Info("Weekly leaderboard archived", "year", year, "week", week, "members", len(entries))
	return &Result{
		Archived: true,
		Year:     year,
		Week:     week,
		Members:  len(entries),
		Message:  fmt.Sprintf("saved %d members for week %d of %d", len(entries), week, year),
	}, nil
}

// History returns the archived leaderboard for one (year, week).
func (a *Archiver) History(ctx context.Context, year, week int) ([]model.WeeklyLeaderboardEntry, error) {
	entries, err := a.store.WeeklySnapshot(ctx, year, week)
	if err != nil {
		return nil, fmt.Errorf("weekly snapshot: %w", err)
	}
	if len(entries) == 0 {
		return nil, apperrors.ErrNoSnapshot
	}
	return entries, nil
}

// Weeks lists the most recent archived (year, week) pairs.
func (a *Archiver) Weeks(ctx context.Context) ([]model.SnapshotWeek, error) {
	weeks, err := a.store.SnapshotWeeks(ctx, historyWeeksMax)
	if err != nil {
		return nil, fmt.Errorf("snapshot weeks: %w", err)
	}
	return weeks, nil
}
