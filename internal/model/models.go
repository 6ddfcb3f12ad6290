// internal/model/models.go
package model

import "time"

// CommitEvent is one stored commit. The ID is the commit SHA assigned by the
// origin and is the idempotency key: at most one row ever exists per ID.
type CommitEvent struct {
	ID              string    `json:"id"`
	RepoName        string    `json:"repo_name"`
	AuthorUsername  string    `json:"author_username"`
	AuthorAvatarURL *string   `json:"author_avatar_url"`
	Message         string    `json:"message"`
	Additions       int       `json:"additions"`
	Deletions       int       `json:"deletions"`
	CommitURL       string    `json:"commit_url"`
	PushedAt        time.Time `json:"pushed_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// Repository is one tracked project, upserted on every ingested push.
type Repository struct {
	ID         int64      `json:"-"`
	Name       string     `json:"name"`
	FullName   string     `json:"full_name"`
	IsActive   bool       `json:"is_active"`
	IsPrivate  bool       `json:"is_private"`
	LastPushAt *time.Time `json:"last_push_at"`
	CreatedAt  time.Time  `json:"-"`
	UpdatedAt  time.Time  `json:"-"`
}

// WeeklyLeaderboardEntry is the immutable snapshot of one leaderboard member
// for a given ISO (year, week). Written once, never mutated.
type WeeklyLeaderboardEntry struct {
	Year      int       `json:"year"`
	Week      int       `json:"week"`
	Username  string    `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	Commits   int       `json:"commits"`
	Additions int       `json:"additions"`
	Deletions int       `json:"deletions"`
	Rank      int       `json:"rank"`
	CreatedAt time.Time `json:"created_at"`
}

// WindowStats holds the rolling counters for one time window.
type WindowStats struct {
	Commits      int `json:"commits"`
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	Contributors int `json:"contributors"`
}

// LeaderboardRow is one grouped-by-author row within a window.
type LeaderboardRow struct {
	Username  string  `json:"name"`
	AvatarURL *string `json:"avatar_url"`
	Commits   int     `json:"commits"`
	Additions int     `json:"additions"`
	Deletions int     `json:"deletions"`
}

// RepoGrowth compares one repo's commit volume across two adjacent windows.
// Repos active in either window appear; growth may be negative.
type RepoGrowth struct {
	Name           string `json:"name"`
	CurrentCommits int    `json:"current_commits"`
	PrevCommits    int    `json:"prev_commits"`
	Growth         int    `json:"growth"`
}

// HeatmapDay is one calendar day in the activity heatmap. Days without
// commits are present with a zero count.
type HeatmapDay struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DayCount is a raw per-day commit count keyed by local calendar date
// (YYYY-MM-DD in the business timezone).
type DayCount struct {
	Day   string
	Count int
}

// ActivityItem is one feed entry with display normalization applied:
// co-author trailers stripped and, for private repos, the message replaced by
// its digest and the link suppressed.
type ActivityItem struct {
	Repo      string  `json:"repo"`
	Author    string  `json:"author"`
	AvatarURL *string `json:"avatar_url"`
	Message   string  `json:"message"`
	Time      string  `json:"time"`
	Additions int     `json:"additions"`
	Deletions int     `json:"deletions"`
	CommitURL string  `json:"commit_url"`
	IsPrivate bool    `json:"is_private"`
}

// RepoAuthorCount is one (repo, author) grouping within a window, used to
// derive per-repo totals and the top contributor.
type RepoAuthorCount struct {
	RepoName  string
	Username  string
	AvatarURL *string
	Commits   int
}

// BucketCount is one time-bucketed commit count (weekly or monthly series).
type BucketCount struct {
	Bucket  string `json:"bucket"`
	Commits int    `json:"commits"`
}

// SnapshotWeek identifies one archived (year, week) pair.
type SnapshotWeek struct {
	Year int `json:"year"`
	Week int `json:"week"`
}
