// internal/stats/activity.go
package stats

import (
	"context"
	"fmt"
	"time"

	"gitpulse/internal/model"
)

const (
	// ActivityMaxLimit caps a single activity page.
	ActivityMaxLimit = 100
	// ActivityDefaultLimit is the page size when none is requested.
	ActivityDefaultLimit = 20

	repoListMax       = 12
	repoDetailCommits = 30
	repoTopContribMax = 10
)

// ActivityPage is one page of the commit feed.
type ActivityPage struct {
	Items   []model.ActivityItem `json:"items"`
	Total   int                  `json:"total"`
	HasMore bool                 `json:"has_more"`
}

// Activity returns the most recent commits with display normalization
// applied: co-author trailers stripped and private-repo messages replaced
// by their digest with the outbound link suppressed.
func (s *Service) Activity(ctx context.Context, limit, offset int) (*ActivityPage, error) {
	if limit < 1 || limit > ActivityMaxLimit {
		limit = ActivityDefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	commits, err := s.store.RecentCommits(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("recent commits: %w", err)
	}
	private, err := s.store.RepoPrivacy(ctx)
	if err != nil {
		return nil, fmt.Errorf("repo privacy: %w", err)
	}
	total, err := s.store.TotalCommits(ctx)
	if err != nil {
		return nil, fmt.Errorf("total commits: %w", err)
	}

	now := s.cal.Now()
	items := make([]model.ActivityItem, 0, len(commits))
	for _, c := range commits {
		items = append(items, s.toActivityItem(now, c, private[c.RepoName]))
	}

	// The feed only ever exposes the newest page window.
	if total > ActivityMaxLimit {
		total = ActivityMaxLimit
	}
	return &ActivityPage{
		Items:   items,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}

// RepoSummary is one entry of the repo list: latest push plus this week's
// volume and top contributor.
type RepoSummary struct {
	Name            string                `json:"name"`
	FullName        string                `json:"full_name"`
	LastPushAt      *time.Time            `json:"last_push_at"`
	CommitsThisWeek int                   `json:"commits_this_week"`
	TopContributor  *model.LeaderboardRow `json:"top_contributor_this_week"`
}

// Repos lists the most recently active repos with their calendar-week
// activity. The per-repo top contributor uses the same descending-count,
// username tie-break ordering as every other leaderboard.
func (s *Service) Repos(ctx context.Context) ([]RepoSummary, error) {
	repos, err := s.store.ActiveRepos(ctx, repoListMax)
	if err != nil {
		return nil, fmt.Errorf("active repos: %w", err)
	}
	counts, err := s.store.RepoAuthorCounts(ctx, s.cal.WeekStart())
	if err != nil {
		return nil, fmt.Errorf("repo author counts: %w", err)
	}

	type repoWeek struct {
		commits int
		top     *model.LeaderboardRow
	}
	byRepo := make(map[string]*repoWeek)
	for _, row := range counts {
		rw := byRepo[row.RepoName]
		if rw == nil {
			rw = &repoWeek{}
			byRepo[row.RepoName] = rw
		}
		rw.commits += row.Commits
		// Rows arrive ordered count desc then username, so the first row
		// per repo is its top contributor.
		if rw.top == nil {
			rw.top = &model.LeaderboardRow{
				Username:  row.Username,
				AvatarURL: row.AvatarURL,
				Commits:   row.Commits,
			}
		}
	}

	summaries := make([]RepoSummary, 0, len(repos))
	for _, r := range repos {
		summary := RepoSummary{
			Name:       r.Name,
			FullName:   r.FullName,
			LastPushAt: r.LastPushAt,
		}
		if rw := byRepo[r.Name]; rw != nil {
			summary.CommitsThisWeek = rw.commits
			summary.TopContributor = rw.top
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// RepoDetail is one repo's info, recent commits and all-time contributors.
type RepoDetail struct {
	Repo            RepoSummaryInfo        `json:"repo"`
	RecentCommits   []model.ActivityItem   `json:"recent_commits"`
	TopContributors []model.LeaderboardRow `json:"top_contributors"`
}

// RepoSummaryInfo is the repo header of a detail view.
type RepoSummaryInfo struct {
	Name       string     `json:"name"`
	FullName   string     `json:"full_name"`
	LastPushAt *time.Time `json:"last_push_at"`
}

// RepoDetail returns one repository's recent commits (normalized, masked if
// the repo is private) and its all-time top contributors.
func (s *Service) RepoDetail(ctx context.Context, name string) (*RepoDetail, error) {
	repo, err := s.store.RepoByName(ctx, name)
	if err != nil {
		return nil, err
	}
	commits, err := s.store.RepoCommits(ctx, name, repoDetailCommits)
	if err != nil {
		return nil, fmt.Errorf("repo commits: %w", err)
	}
	contributors, err := s.store.RepoTopContributors(ctx, name, repoTopContribMax)
	if err != nil {
		return nil, fmt.Errorf("repo contributors: %w", err)
	}

	now := s.cal.Now()
	items := make([]model.ActivityItem, 0, len(commits))
	for _, c := range commits {
		items = append(items, s.toActivityItem(now, c, repo.IsPrivate))
	}

	return &RepoDetail{
		Repo: RepoSummaryInfo{
			Name:       repo.Name,
			FullName:   repo.FullName,
			LastPushAt: repo.LastPushAt,
		},
		RecentCommits:   items,
		TopContributors: contributors,
	}, nil
}

func (s *Service) toActivityItem(now time.Time, c model.CommitEvent, isPrivate bool) model.ActivityItem {
	message := CleanMessage(c.Message)
	commitURL := c.CommitURL
	if isPrivate {
		message = MaskMessage(message)
		commitURL = maskedCommitURL
	}
	return model.ActivityItem{
		Repo:      c.RepoName,
		Author:    c.AuthorUsername,
		AvatarURL: c.AuthorAvatarURL,
		Message:   message,
		Time:      formatRelativeTime(now, c.PushedAt),
		Additions: c.Additions,
		Deletions: c.Deletions,
		CommitURL: commitURL,
		IsPrivate: isPrivate,
	}
}
