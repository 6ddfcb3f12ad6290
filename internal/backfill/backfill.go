// internal/backfill/backfill.go
package backfill

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"gitpulse/internal/calendar"
	ghclient "gitpulse/internal/github"
	"gitpulse/internal/ingest"
	"gitpulse/internal/model"
)

const (
	// Number of repositories to backfill in parallel
	concurrency = 5

	statsRepairWindow = 7 * 24 * time.Hour
	statsRepairLimit  = 200
	avatarRepairLimit = 500
)

// Store is the slice of the event store the backfiller writes through
// directly, outside the ingestion gateway.
type Store interface {
	UpsertRepoOnPush(ctx context.Context, name, fullName string, private bool, pushedAt time.Time) error
	CommitsMissingStats(ctx context.Context, since time.Time, limit int) ([]model.CommitEvent, error)
	UpdateCommitStats(ctx context.Context, id string, additions, deletions int) error
	RecentCommits(ctx context.Context, limit, offset int) ([]model.CommitEvent, error)
	UpdateCommitAvatar(ctx context.Context, id, avatarURL string) error
}

// Client is the GitHub surface the backfiller fetches from.
type Client interface {
	OrgRepos(ctx context.Context, org string) ([]ghclient.RepoInfo, error)
	RepoCommits(ctx context.Context, owner, repo string, since time.Time) ([]ghclient.CommitInfo, error)
	CommitStats(ctx context.Context, owner, repo, sha string) (*ghclient.CommitStats, error)
}

// Backfiller periodically reconciles the event store against the GitHub
// API: it discovers org repositories, replays commits the webhook missed,
// and repairs rows with missing line stats or stale avatars.
type Backfiller struct {
	store        Store
	client       Client
	gateway      *ingest.Gateway
	cal          *calendar.Calendar
	logger       *slog.Logger
	org          string
	interval     time.Duration
	lookbackDays int
}

// NewBackfiller creates a new Backfiller instance.
func NewBackfiller(store Store, client Client, gateway *ingest.Gateway, cal *calendar.Calendar, logger *slog.Logger, org string, interval time.Duration, lookbackDays int) *Backfiller {
	return &Backfiller{
		store:        store,
		client:       client,
		gateway:      gateway,
		cal:          cal,
		logger:       logger,
		org:          org,
		interval:     interval,
		lookbackDays: lookbackDays,
	}
}

// Start begins the continuous backfill process.
func (b *Backfiller) Start(ctx context.Context) {
	b.logger.Info("Starting backfiller", "org", b.org, "interval", b.interval.String(), "concurrency", concurrency)
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	b.runCycle(ctx) // Initial pass

	for {
		select {
		case <-ticker.C:
			b.runCycle(ctx)
		case <-ctx.Done():
			b.logger.Info("Backfiller shutting down", "reason", ctx.Err())
			return
		}
	}
}

// runCycle performs one backfill pass for all org repositories concurrently,
// then runs the two repair sweeps.
func (b *Backfiller) runCycle(ctx context.Context) {
	b.logger.Info("Starting new backfill cycle")

	repos, err := b.client.OrgRepos(ctx, b.org)
	if err != nil {
		b.logger.Error("Failed to list organization repositories", "org", b.org, "error", err)
		return
	}

	since := b.cal.Now().AddDate(0, 0, -b.lookbackDays)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, repo := range repos {
		repo := repo
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			err := b.backfillRepo(gctx, repo, since)
			if err != nil && !errors.Is(err, context.Canceled) {
				b.logger.Error("Failed to backfill repository", "repo", repo.Name, "error", err)
			}
			return nil
		})
	}
	g.Wait()

	b.repairStats(ctx)
	b.repairAvatars(ctx)

	b.logger.Info("Backfill cycle finished")
}

// backfillRepo registers one repository and replays its recent commits
// through the ingestion gateway. Replayed commits skip per-commit
// enrichment; the stats repair sweep fills line counts later.
func (b *Backfiller) backfillRepo(ctx context.Context, repo ghclient.RepoInfo, since time.Time) error {
	logger := b.logger.With("repo", repo.Name)

	pushedAt := since
	if repo.PushedAt != nil {
		pushedAt = *repo.PushedAt
	}
	if err := b.store.UpsertRepoOnPush(ctx, repo.Name, repo.FullName, repo.Private, pushedAt); err != nil {
		return err
	}

	commits, err := b.client.RepoCommits(ctx, b.org, repo.Name, since)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		return nil
	}
	logger.Info("Replaying commits", "count", len(commits))

	push := &ingest.Push{
		RepoName:     repo.Name,
		RepoFullName: repo.FullName,
		RepoOwner:    b.org,
		RepoPrivate:  repo.Private,
		PushedAt:     pushedAt,
		Enrich:       false,
	}
	for _, c := range commits {
		push.Commits = append(push.Commits, ingest.Commit{
			ID:        c.SHA,
			Author:    c.AuthorUsername,
			AvatarURL: c.AuthorAvatarURL,
			Message:   c.Message,
			URL:       c.URL,
			Timestamp: c.Date,
		})
	}
	return b.gateway.Process(ctx, push)
}

// repairStats fills in line stats for recent commits that still carry
// zero additions and deletions.
func (b *Backfiller) repairStats(ctx context.Context) {
	since := b.cal.Now().Add(-statsRepairWindow)
	commits, err := b.store.CommitsMissingStats(ctx, since, statsRepairLimit)
	if err != nil {
		b.logger.Error("Failed to list commits missing stats", "error", err)
		return
	}
	if len(commits) == 0 {
		return
	}
	b.logger.Info("Repairing commit stats", "count", len(commits))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, c := range commits {
		c := c
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			stats, err := b.client.CommitStats(gctx, b.org, c.RepoName, c.ID)
			if err != nil {
				b.logger.Warn("Failed to fetch commit stats", "repo", c.RepoName, "sha", c.ID, "error", err)
				return nil
			}
			if stats.Additions == 0 && stats.Deletions == 0 {
				return nil
			}
			if err := b.store.UpdateCommitStats(gctx, c.ID, stats.Additions, stats.Deletions); err != nil {
				b.logger.Error("Failed to update commit stats", "sha", c.ID, "error", err)
			}
			return nil
		})
	}
	g.Wait()
}

// repairAvatars refreshes avatar URLs on the most recent commits when the
// stored value no longer matches the commit's author on GitHub.
func (b *Backfiller) repairAvatars(ctx context.Context) {
	commits, err := b.store.RecentCommits(ctx, avatarRepairLimit, 0)
	if err != nil {
		b.logger.Error("Failed to list recent commits for avatar repair", "error", err)
		return
	}

	byRepo := make(map[string][]model.CommitEvent)
	for _, c := range commits {
		byRepo[c.RepoName] = append(byRepo[c.RepoName], c)
	}

	updated := 0
	for repo, repoCommits := range byRepo {
		if ctx.Err() != nil {
			return
		}
		// One stats lookup per commit is too chatty; the listing already
		// carries current avatars, so fetch the repo's recent commits once.
		fresh, err := b.client.RepoCommits(ctx, b.org, repo, b.cal.Now().AddDate(0, 0, -b.lookbackDays))
		if err != nil {
			b.logger.Warn("Failed to fetch commits for avatar repair", "repo", repo, "error", err)
			continue
		}
		avatars := make(map[string]string, len(fresh))
		for _, f := range fresh {
			if f.AuthorAvatarURL != "" {
				avatars[f.SHA] = f.AuthorAvatarURL
			}
		}
		for _, c := range repoCommits {
			current, ok := avatars[c.ID]
			if !ok {
				continue
			}
			stored := ""
			if c.AuthorAvatarURL != nil {
				stored = *c.AuthorAvatarURL
			}
			if current == stored {
				continue
			}
			if err := b.store.UpdateCommitAvatar(ctx, c.ID, current); err != nil {
				b.logger.Error("Failed to update commit avatar", "sha", c.ID, "error", err)
				continue
			}
			updated++
		}
	}
	if updated > 0 {
		b.logger.Info("Avatar repair finished", "updated", updated)
	}
}
