//go:build integration

// cmd/service/integration_test.go
package main

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"gitpulse/internal/calendar"
	"gitpulse/internal/ingest"
	"gitpulse/internal/snapshot"
	"gitpulse/internal/stats"
	"gitpulse/internal/store"
)

func setupTestDatabase(ctx context.Context, t *testing.T) (*pgxpool.Pool, func()) {
	pgContainer, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	m, err := migrate.New("file://../../migrations", connStr)
	require.NoError(t, err)
	require.NoError(t, m.Up())

	dbpool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	teardown := func() {
		dbpool.Close()
		require.NoError(t, pgContainer.Terminate(ctx))
	}
	return dbpool, teardown
}

func TestIngestToStats_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	dbpool, teardown := setupTestDatabase(ctx, t)
	defer teardown()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	// Wednesday 2025-03-12 10:00 at UTC-5, ISO week 11.
	cal := calendar.New("America/Lima", -5, calendar.WithNow(func() time.Time {
		return time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)
	}))

	pg := store.NewPG(dbpool)
	require.NoError(t, pg.Ping(ctx))

	gateway := ingest.NewGateway(pg, nil, cal, logger, time.Second)
	statsSvc := stats.NewService(pg, cal, logger)
	archiver := snapshot.NewArchiver(pg, cal, logger)

	push := &ingest.Push{
		RepoName:     "api",
		RepoFullName: "acme/api",
		RepoOwner:    "acme",
		Pusher:       "ana",
		PushedAt:     time.Date(2025, time.March, 12, 15, 1, 0, 0, time.UTC),
		Commits: []ingest.Commit{
			{ID: "1111111", Author: "ana", Message: "Fix pagination", URL: "u1",
				Timestamp: time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)},
			{ID: "2222222", Author: "bob", Message: "Tighten retries", URL: "u2",
				Timestamp: time.Date(2025, time.March, 12, 15, 1, 0, 0, time.UTC)},
		},
	}

	// --- ACT ---
	require.NoError(t, gateway.Process(ctx, push))
	// Redeliver the exact same push; every effect must be idempotent.
	require.NoError(t, gateway.Process(ctx, push))

	// A late delivery carrying an older push timestamp must never move
	// last_push_at backwards.
	stale := *push
	stale.PushedAt = push.PushedAt.Add(-24 * time.Hour)
	stale.Commits = nil
	require.NoError(t, gateway.Process(ctx, &stale))

	// --- ASSERT ---
	// The redelivery was deduplicated at the row level, so the per-author
	// counters still match the number of stored commits.
	for _, username := range []string{"ana", "bob"} {
		var total int
		require.NoError(t, dbpool.QueryRow(ctx,
			`SELECT total_commits FROM contributors WHERE username = $1`, username).Scan(&total))
		assert.Equal(t, 1, total, "total_commits for %s", username)
	}

	var lastPush time.Time
	require.NoError(t, dbpool.QueryRow(ctx,
		`SELECT last_push_at FROM repos WHERE name = 'api'`).Scan(&lastPush))
	assert.True(t, lastPush.Equal(push.PushedAt), "last_push_at moved backwards: %s", lastPush)

	overview, err := statsSvc.Overview(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, overview.CommitsToday)
	assert.Equal(t, 2, overview.TotalCommits)
	assert.Equal(t, 1, overview.ActiveRepos)
	assert.Equal(t, 1, overview.TeamStreak)
	assert.Equal(t, 2, overview.ActiveContributors)

	board, err := statsSvc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board, 2)
	// Equal counts order by username.
	assert.Equal(t, "ana", board[0].Username)
	assert.Equal(t, "bob", board[1].Username)

	detail, err := statsSvc.RepoDetail(ctx, "api")
	require.NoError(t, err)
	assert.Equal(t, "acme/api", detail.Repo.FullName)
	assert.Len(t, detail.RecentCommits, 2)

	result, err := archiver.Archive(ctx)
	require.NoError(t, err)
	assert.True(t, result.Archived)
	assert.Equal(t, 2, result.Members)

	// A second trigger in the same week is a no-op.
	again, err := archiver.Archive(ctx)
	require.NoError(t, err)
	assert.False(t, again.Archived)

	history, err := archiver.History(ctx, result.Year, result.Week)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Rank)
	assert.Equal(t, "ana", history[0].Username)
}
