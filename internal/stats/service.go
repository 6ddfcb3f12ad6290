// internal/stats/service.go

// Package stats computes read-only, calendar-bounded statistics over the
// event store. Every method is a pure function of store state and the
// windows derived from the business calendar.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitpulse/internal/calendar"
	"gitpulse/internal/model"
)

// Lookback horizon for streak computation. Streaks longer than this are
// undercounted.
const streakHorizonDays = 90

// Store is the read-only slice of the event store the aggregator queries.
type Store interface {
	WindowStats(ctx context.Context, from time.Time, to *time.Time) (model.WindowStats, error)
	TotalCommits(ctx context.Context) (int, error)
	ActiveRepoCount(ctx context.Context, since time.Time) (int, error)
	DailyCounts(ctx context.Context, from time.Time, offsetHours int) ([]model.DayCount, error)
	Leaderboard(ctx context.Context, from time.Time, to *time.Time, limit int) ([]model.LeaderboardRow, error)
	RepoAuthorCounts(ctx context.Context, from time.Time) ([]model.RepoAuthorCount, error)
	RepoGrowth(ctx context.Context, currentStart, prevStart time.Time, limit int) ([]model.RepoGrowth, error)
	NewContributorsSince(ctx context.Context, since time.Time) (int, error)
	WeeklyBuckets(ctx context.Context, from time.Time, offsetHours int) ([]model.BucketCount, error)
	MonthlyBuckets(ctx context.Context, from time.Time, offsetHours int) ([]model.BucketCount, error)
	RecentCommits(ctx context.Context, limit, offset int) ([]model.CommitEvent, error)
	RepoPrivacy(ctx context.Context) (map[string]bool, error)
	ActiveRepos(ctx context.Context, limit int) ([]model.Repository, error)
	RepoByName(ctx context.Context, name string) (*model.Repository, error)
	RepoCommits(ctx context.Context, repoName string, limit int) ([]model.CommitEvent, error)
	RepoTopContributors(ctx context.Context, repoName string, limit int) ([]model.LeaderboardRow, error)
}

// Service is the aggregator.
type Service struct {
	store  Store
	cal    *calendar.Calendar
	logger *slog.Logger
}

// NewService creates an aggregator over the given store and calendar.
func NewService(store Store, cal *calendar.Calendar, logger *slog.Logger) *Service {
	return &Service{store: store, cal: cal, logger: logger}
}

// PeriodTotals are the summed counters of one window.
type PeriodTotals struct {
	Commits   int `json:"commits"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Overview is the live counter set for the dashboard header.
type Overview struct {
	CommitsToday       int          `json:"commits_today"`
	ActiveRepos        int          `json:"active_repos"`
	TeamStreak         int          `json:"team_streak"`
	TotalCommits       int          `json:"total_commits"`
	WeekStats          PeriodTotals `json:"week_stats"`
	MonthStats         PeriodTotals `json:"month_stats"`
	ActiveContributors int          `json:"active_contributors"`
}

// Overview computes the live counters: commits today (calendar day), repos
// and contributors active in the last 7 days, 7/30-day totals, the team
// streak and the all-time commit count.
func (s *Service) Overview(ctx context.Context) (*Overview, error) {
	now := s.cal.Now()
	todayStart := s.cal.TodayStart()
	weekAgo := now.AddDate(0, 0, -7)
	monthAgo := now.AddDate(0, 0, -30)

	todayStats, err := s.store.WindowStats(ctx, todayStart, nil)
	if err != nil {
		return nil, fmt.Errorf("today window: %w", err)
	}
	weekStats, err := s.store.WindowStats(ctx, weekAgo, nil)
	if err != nil {
		return nil, fmt.Errorf("week window: %w", err)
	}
	monthStats, err := s.store.WindowStats(ctx, monthAgo, nil)
	if err != nil {
		return nil, fmt.Errorf("month window: %w", err)
	}
	total, err := s.store.TotalCommits(ctx)
	if err != nil {
		return nil, fmt.Errorf("total commits: %w", err)
	}
	activeRepos, err := s.store.ActiveRepoCount(ctx, weekAgo)
	if err != nil {
		return nil, fmt.Errorf("active repos: %w", err)
	}
	streak, err := s.Streak(ctx)
	if err != nil {
		return nil, fmt.Errorf("streak: %w", err)
	}

	return &Overview{
		CommitsToday: todayStats.Commits,
		ActiveRepos:  activeRepos,
		TeamStreak:   streak,
		TotalCommits: total,
		WeekStats: PeriodTotals{
			Commits:   weekStats.Commits,
			Additions: weekStats.Additions,
			Deletions: weekStats.Deletions,
		},
		MonthStats: PeriodTotals{
			Commits:   monthStats.Commits,
			Additions: monthStats.Additions,
			Deletions: monthStats.Deletions,
		},
		ActiveContributors: weekStats.Contributors,
	}, nil
}

// Streak counts consecutive local calendar days with at least one commit,
// walking backward from today and stopping at the first empty day. Bounded
// by the lookback horizon.
func (s *Service) Streak(ctx context.Context) (int, error) {
	horizon := s.cal.TodayStart().AddDate(0, 0, -streakHorizonDays)
	days, err := s.store.DailyCounts(ctx, horizon, s.cal.OffsetHours())
	if err != nil {
		return 0, err
	}

	active := make(map[string]bool, len(days))
	for _, d := range days {
		active[d.Day] = true
	}

	streak := 0
	day := s.cal.TodayStart()
	for active[s.cal.DayKey(day)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak, nil
}

// Leaderboard is the top contributors over the trailing 7 days, ordered by
// commit count descending with a stable username tie-break.
func (s *Service) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardRow, error) {
	weekAgo := s.cal.Now().AddDate(0, 0, -7)
	board, err := s.store.Leaderboard(ctx, weekAgo, nil, limit)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	return board, nil
}

// Heatmap returns per-day commit counts for every day of the current local
// calendar year, zero-filled: the series always covers the full range, not
// only days with activity.
func (s *Service) Heatmap(ctx context.Context) ([]model.HeatmapDay, error) {
	start := s.cal.YearStart()
	end := s.cal.YearEnd()

	counts, err := s.store.DailyCounts(ctx, start, s.cal.OffsetHours())
	if err != nil {
		return nil, fmt.Errorf("daily counts: %w", err)
	}
	byDay := make(map[string]int, len(counts))
	for _, d := range counts {
		byDay[d.Day] = d.Count
	}

	var series []model.HeatmapDay
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := s.cal.DayKey(day)
		series = append(series, model.HeatmapDay{Date: key, Count: byDay[key]})
	}
	return series, nil
}
