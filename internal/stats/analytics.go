// internal/stats/analytics.go
package stats

import (
	"context"
	"fmt"

	"gitpulse/internal/model"
)

const (
	weeklyChartWeeks  = 12
	topGrowingRepoMax = 3
)

// Delta compares a metric across two adjacent windows.
type Delta struct {
	Current  int `json:"current"`
	Previous int `json:"previous"`
	Change   int `json:"change"`
}

// WowDeltas are the week-over-week comparisons, windowed to calendar weeks.
type WowDeltas struct {
	Commits      Delta `json:"commits"`
	Additions    Delta `json:"additions"`
	Deletions    Delta `json:"deletions"`
	Contributors Delta `json:"contributors"`
}

// MomDeltas are the trailing-30-day against previous-30-day comparisons.
type MomDeltas struct {
	Commits   Delta `json:"commits"`
	Additions Delta `json:"additions"`
	Deletions Delta `json:"deletions"`
}

// Velocity summarizes net line movement for the current calendar week.
type Velocity struct {
	NetLines                 int `json:"net_lines"`
	PrevNetLines             int `json:"prev_net_lines"`
	Change                   int `json:"change"`
	AvgCommitsPerContributor int `json:"avg_commits_per_contributor"`
}

// ContributorTrends tracks the contributor population.
type ContributorTrends struct {
	ActiveWowChange int `json:"active_wow_change"`
	NewThisMonth    int `json:"new_this_month"`
}

// CumulativePoint is one month of the running year-to-date commit total.
type CumulativePoint struct {
	Month      string `json:"month"`
	Commits    int    `json:"commits"`
	Cumulative int    `json:"cumulative"`
}

// Analytics is the growth-trend report.
type Analytics struct {
	Wow               WowDeltas           `json:"wow"`
	Mom               MomDeltas           `json:"mom"`
	Ytd               PeriodTotals        `json:"ytd"`
	WeeklyChart       []model.BucketCount `json:"weekly_chart"`
	Velocity          Velocity            `json:"velocity"`
	ContributorTrends ContributorTrends   `json:"contributor_trends"`
	TopGrowingRepos   []model.RepoGrowth  `json:"top_growing_repos"`
	CumulativeMonthly []CumulativePoint   `json:"cumulative_monthly"`
}

// Analytics computes the full growth report. Week windows are calendar
// weeks from the business calendar; month windows are trailing 30 days.
func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	now := s.cal.Now()
	weekStart := s.cal.WeekStart()
	prevWeekStart := s.cal.PrevWeekStart()
	thirtyDaysAgo := now.AddDate(0, 0, -30)
	sixtyDaysAgo := now.AddDate(0, 0, -60)
	ytdStart := s.cal.YearStart()

	curWeek, err := s.store.WindowStats(ctx, weekStart, nil)
	if err != nil {
		return nil, fmt.Errorf("current week window: %w", err)
	}
	prevWeek, err := s.store.WindowStats(ctx, prevWeekStart, &weekStart)
	if err != nil {
		return nil, fmt.Errorf("previous week window: %w", err)
	}
	curMonth, err := s.store.WindowStats(ctx, thirtyDaysAgo, nil)
	if err != nil {
		return nil, fmt.Errorf("current month window: %w", err)
	}
	prevMonth, err := s.store.WindowStats(ctx, sixtyDaysAgo, &thirtyDaysAgo)
	if err != nil {
		return nil, fmt.Errorf("previous month window: %w", err)
	}
	ytd, err := s.store.WindowStats(ctx, ytdStart, nil)
	if err != nil {
		return nil, fmt.Errorf("ytd window: %w", err)
	}
	weeklyChart, err := s.store.WeeklyBuckets(ctx, now.AddDate(0, 0, -7*weeklyChartWeeks), s.cal.OffsetHours())
	if err != nil {
		return nil, fmt.Errorf("weekly chart: %w", err)
	}
	newContribs, err := s.store.NewContributorsSince(ctx, thirtyDaysAgo)
	if err != nil {
		return nil, fmt.Errorf("new contributors: %w", err)
	}
	growth, err := s.store.RepoGrowth(ctx, weekStart, prevWeekStart, topGrowingRepoMax)
	if err != nil {
		return nil, fmt.Errorf("repo growth: %w", err)
	}
	monthly, err := s.store.MonthlyBuckets(ctx, ytdStart, s.cal.OffsetHours())
	if err != nil {
		return nil, fmt.Errorf("monthly buckets: %w", err)
	}

	curNet := curWeek.Additions - curWeek.Deletions
	prevNet := prevWeek.Additions - prevWeek.Deletions

	avgPerContributor := 0
	if curWeek.Contributors > 0 {
		avgPerContributor = (curWeek.Commits + curWeek.Contributors/2) / curWeek.Contributors
	}

	cumulative := make([]CumulativePoint, 0, len(monthly))
	runningTotal := 0
	for _, m := range monthly {
		runningTotal += m.Commits
		cumulative = append(cumulative, CumulativePoint{
			Month:      m.Bucket,
			Commits:    m.Commits,
			Cumulative: runningTotal,
		})
	}

	return &Analytics{
		Wow: WowDeltas{
			Commits:      delta(curWeek.Commits, prevWeek.Commits),
			Additions:    delta(curWeek.Additions, prevWeek.Additions),
			Deletions:    delta(curWeek.Deletions, prevWeek.Deletions),
			Contributors: delta(curWeek.Contributors, prevWeek.Contributors),
		},
		Mom: MomDeltas{
			Commits:   delta(curMonth.Commits, prevMonth.Commits),
			Additions: delta(curMonth.Additions, prevMonth.Additions),
			Deletions: delta(curMonth.Deletions, prevMonth.Deletions),
		},
		Ytd: PeriodTotals{
			Commits:   ytd.Commits,
			Additions: ytd.Additions,
			Deletions: ytd.Deletions,
		},
		WeeklyChart: weeklyChart,
		Velocity: Velocity{
			NetLines:                 curNet,
			PrevNetLines:             prevNet,
			Change:                   PctChange(curNet, prevNet),
			AvgCommitsPerContributor: avgPerContributor,
		},
		ContributorTrends: ContributorTrends{
			ActiveWowChange: PctChange(curWeek.Contributors, prevWeek.Contributors),
			NewThisMonth:    newContribs,
		},
		TopGrowingRepos:   growth,
		CumulativeMonthly: cumulative,
	}, nil
}

func delta(current, previous int) Delta {
	return Delta{Current: current, Previous: previous, Change: PctChange(current, previous)}
}
