// internal/ingest/gateway.go
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gitpulse/internal/calendar"
	ghclient "gitpulse/internal/github"
	"gitpulse/internal/metrics"
	"gitpulse/internal/model"
)

// Store is the slice of the event store the gateway writes to.
type Store interface {
	InsertCommit(ctx context.Context, ev model.CommitEvent) (bool, error)
	UpsertRepoOnPush(ctx context.Context, name, fullName string, private bool, pushedAt time.Time) error
	BumpContributor(ctx context.Context, username string, avatarURL *string, committedAt time.Time) error
}

// Enricher fetches per-commit stats from the collaborator API. Calls may
// fail; the gateway absorbs failures and proceeds with defaults.
type Enricher interface {
	CommitStats(ctx context.Context, owner, repo, sha string) (*ghclient.CommitStats, error)
}

// Gateway applies one normalized push to the event store.
type Gateway struct {
	store         Store
	enricher      Enricher
	cal           *calendar.Calendar
	logger        *slog.Logger
	enrichTimeout time.Duration
}

// NewGateway creates an ingestion gateway. enricher may be nil, in which
// case no synchronous enrichment happens regardless of Push.Enrich.
func NewGateway(store Store, enricher Enricher, cal *calendar.Calendar, logger *slog.Logger, enrichTimeout time.Duration) *Gateway {
	return &Gateway{
		store:         store,
		enricher:      enricher,
		cal:           cal,
		logger:        logger,
		enrichTimeout: enrichTimeout,
	}
}

// Process applies a push: repo upsert, then each commit in payload order.
// Commit inserts are idempotent by id; the contributor counter only moves
// when the insert actually created a row, so redeliveries cannot inflate it.
// A persistence failure mid-batch leaves prior commits applied.
func (g *Gateway) Process(ctx context.Context, push *Push) error {
	logger := g.logger.With("repo", push.RepoName, "commits", len(push.Commits))

	pushedAt := push.PushedAt
	if pushedAt.IsZero() {
		pushedAt = g.cal.Now()
	}

	if err := g.store.UpsertRepoOnPush(ctx, push.RepoName, push.RepoFullName, push.RepoPrivate, pushedAt); err != nil {
		return fmt.Errorf("repo upsert: %w", err)
	}

	for _, commit := range push.Commits {
		if commit.Timestamp.IsZero() {
			commit.Timestamp = pushedAt
		}
		if err := g.processCommit(ctx, push, commit); err != nil {
			return fmt.Errorf("commit %s: %w", commit.ID, err)
		}
	}

	logger.Info("Push processed")
	return nil
}

func (g *Gateway) processCommit(ctx context.Context, push *Push, commit Commit) error {
	username := commit.Author
	if username == "" {
		username = push.Pusher
	}
	avatarURL := commit.AvatarURL
	if avatarURL == "" {
		avatarURL = push.PusherAvatar
	}

	additions, deletions := 0, 0
	if push.Enrich && g.enricher != nil {
		stats := g.enrich(ctx, push.RepoOwner, push.RepoName, commit.ID)
		if stats != nil {
			additions = stats.Additions
			deletions = stats.Deletions
			if stats.AuthorAvatarURL != "" {
				avatarURL = stats.AuthorAvatarURL
			}
		}
	}

	ev := model.CommitEvent{
		ID:             commit.ID,
		RepoName:       push.RepoName,
		AuthorUsername: username,
		Message:        commit.Message,
		Additions:      additions,
		Deletions:      deletions,
		CommitURL:      commit.URL,
		PushedAt:       commit.Timestamp,
	}
	if avatarURL != "" {
		ev.AuthorAvatarURL = &avatarURL
	}

	inserted, err := g.store.InsertCommit(ctx, ev)
	if err != nil {
		return err
	}
	if !inserted {
		metrics.RecordCommitDeduplicated()
		g.logger.Debug("Duplicate commit delivery skipped", "commit", commit.ID)
		return nil
	}
	metrics.RecordCommitIngested()

	return g.store.BumpContributor(ctx, username, ev.AuthorAvatarURL, commit.Timestamp)
}

// enrich performs the best-effort stats lookup with its own timeout, so one
// slow or unreachable call cannot stall the rest of the batch.
func (g *Gateway) enrich(ctx context.Context, owner, repo, sha string) *ghclient.CommitStats {
	enrichCtx, cancel := context.WithTimeout(ctx, g.enrichTimeout)
	defer cancel()

	stats, err := g.enricher.CommitStats(enrichCtx, owner, repo, sha)
	if err != nil {
		metrics.RecordEnrichmentFailure()
		g.logger.Warn("Commit enrichment failed, using defaults", "repo", repo, "commit", sha, "error", err)
		return nil
	}
	return stats
}
