// internal/github/client.go
package github

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"
)

const (
	maxRetries     = 3
	retryBaseDelay = 200 * time.Millisecond
)

// Client is a wrapper around the go-github client for the collaborator API:
// per-commit stat lookups plus the repo/commit listings the backfill uses.
type Client struct {
	gh     *github.Client
	logger *slog.Logger
}

// NewClient creates and configures a new Client instance.
// The provided token is used to create an authenticated http.Client.
func NewClient(token string, logger *slog.Logger) *Client {
	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	return &Client{
		gh:     github.NewClient(tc),
		logger: logger,
	}
}

// CommitStats holds the best-effort enrichment data for one commit.
type CommitStats struct {
	Additions       int
	Deletions       int
	AuthorAvatarURL string
}

// RepoInfo is the subset of repository metadata the backfill needs.
type RepoInfo struct {
	Name     string
	FullName string
	Private  bool
	PushedAt *time.Time
}

// CommitInfo is one listed commit, already narrowed to ingestion fields.
type CommitInfo struct {
	SHA             string
	AuthorUsername  string
	AuthorAvatarURL string
	Message         string
	URL             string
	Date            time.Time
}

// withRetry runs one API call, retrying transient server errors with
// backoff and waiting out primary rate limits. The final error is returned
// unwrapped so callers can inspect the GitHub error response.
func (c *Client) withRetry(ctx context.Context, op func() (*github.Response, error)) error {
	var err error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		var resp *github.Response
		resp, err = op()
		if err == nil {
			return nil
		}

		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			wait := time.Until(rateErr.Rate.Reset.Time)
			if wait < 0 {
				wait = 0
			}
			c.logger.Warn("GitHub rate limit hit, waiting for reset", "wait", wait.String())
			if err := sleepCtx(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if resp != nil && resp.StatusCode >= 500 && attempt < maxRetries {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			c.logger.Warn("GitHub API server error, retrying", "status", resp.StatusCode, "attempt", attempt, "delay", delay.String())
			if err := sleepCtx(ctx, delay); err != nil {
				return err
			}
			continue
		}

		return err
	}
	return err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CommitStats fetches additions/deletions and the canonical author avatar
// for a single commit. May fail per call; callers treat it as best effort.
func (c *Client) CommitStats(ctx context.Context, owner, repo, sha string) (*CommitStats, error) {
	var rc *github.RepositoryCommit
	err := c.withRetry(ctx, func() (*github.Response, error) {
		var resp *github.Response
		var err error
		rc, resp, err = c.gh.Repositories.GetCommit(ctx, owner, repo, sha, nil)
		return resp, err
	})
	if err != nil {
		return nil, err
	}
	stats := &CommitStats{
		AuthorAvatarURL: rc.GetAuthor().GetAvatarURL(),
	}
	if rc.Stats != nil {
		stats.Additions = rc.Stats.GetAdditions()
		stats.Deletions = rc.Stats.GetDeletions()
	}
	return stats, nil
}

// OrgRepos lists all repositories of an organization, most recently updated
// first. Handles API pagination transparently.
func (c *Client) OrgRepos(ctx context.Context, org string) ([]RepoInfo, error) {
	var all []RepoInfo

	opts := &github.RepositoryListByOrgOptions{
		Sort:        "updated",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		c.logger.Debug("Fetching org repos page", "org", org, "page", opts.Page)

		var repos []*github.Repository
		var resp *github.Response
		err := c.withRetry(ctx, func() (*github.Response, error) {
			var err error
			repos, resp, err = c.gh.Repositories.ListByOrg(ctx, org, opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, r := range repos {
			info := RepoInfo{
				Name:     r.GetName(),
				FullName: r.GetFullName(),
				Private:  r.GetPrivate(),
			}
			if r.PushedAt != nil {
				t := r.PushedAt.Time
				info.PushedAt = &t
			}
			all = append(all, info)
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// RepoCommits lists commits of one repository since a given time.
// Handles API pagination transparently.
func (c *Client) RepoCommits(ctx context.Context, owner, repo string, since time.Time) ([]CommitInfo, error) {
	var all []CommitInfo

	opts := &github.CommitsListOptions{
		Since:       since,
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		c.logger.Debug("Fetching commits page", "owner", owner, "repo", repo, "page", opts.Page)

		var commits []*github.RepositoryCommit
		var resp *github.Response
		err := c.withRetry(ctx, func() (*github.Response, error) {
			var err error
			commits, resp, err = c.gh.Repositories.ListCommits(ctx, owner, repo, opts)
			return resp, err
		})
		if err != nil {
			return nil, err
		}
		for _, rc := range commits {
			all = append(all, toCommitInfo(rc))
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, nil
}

// toCommitInfo narrows a github.RepositoryCommit, preferring the GitHub
// login over the raw git author name.
func toCommitInfo(rc *github.RepositoryCommit) CommitInfo {
	username := rc.GetAuthor().GetLogin()
	if username == "" {
		username = rc.GetCommit().GetAuthor().GetName()
	}
	if username == "" {
		username = "unknown"
	}
	return CommitInfo{
		SHA:             rc.GetSHA(),
		AuthorUsername:  username,
		AuthorAvatarURL: rc.GetAuthor().GetAvatarURL(),
		Message:         rc.GetCommit().GetMessage(),
		URL:             rc.GetHTMLURL(),
		Date:            rc.GetCommit().GetAuthor().GetDate().Time,
	}
}
