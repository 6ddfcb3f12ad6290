// internal/stats/activity_test.go
package stats

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"gitpulse/internal/model"
)

func TestService_Activity(t *testing.T) {
	cal := testCal()
	ctx := context.Background()

	pushedAt := cal.Now().Add(-2 * time.Hour)
	commits := []model.CommitEvent{
		{
			ID:             "aaa111",
			RepoName:       "public-api",
			AuthorUsername: "ana",
			Message:        "Fix pagination\n\nCo-Authored-By: Bob <bob@example.com>",
			CommitURL:      "https://github.com/acme/public-api/commit/aaa111",
			Additions:      12,
			Deletions:      3,
			PushedAt:       pushedAt,
		},
		{
			ID:             "bbb222",
			RepoName:       "secret-service",
			AuthorUsername: "bob",
			Message:        "Implement billing rollout",
			CommitURL:      "https://github.com/acme/secret-service/commit/bbb222",
			PushedAt:       pushedAt,
		},
	}

	t.Run("normalizes public commits and masks private ones", func(t *testing.T) {
		store := new(MockStore)
		svc := NewService(store, cal, testLogger())

		store.On("RecentCommits", ctx, 20, 0).Return(commits, nil).Once()
		store.On("RepoPrivacy", ctx).Return(map[string]bool{"secret-service": true}, nil).Once()
		store.On("TotalCommits", ctx).Return(2, nil).Once()

		page, err := svc.Activity(ctx, 20, 0)

		assert.NoError(t, err)
		assert.Len(t, page.Items, 2)

		public := page.Items[0]
		assert.Equal(t, "Fix pagination", public.Message)
		assert.Equal(t, "https://github.com/acme/public-api/commit/aaa111", public.CommitURL)
		assert.Equal(t, "2h ago", public.Time)
		assert.False(t, public.IsPrivate)

		private := page.Items[1]
		assert.Equal(t, MaskMessage("Implement billing rollout"), private.Message)
		assert.Equal(t, "#", private.CommitURL)
		assert.True(t, private.IsPrivate)

		assert.Equal(t, 2, page.Total)
		assert.False(t, page.HasMore)
		store.AssertExpectations(t)
	})

	t.Run("clamps an out-of-range limit to the default", func(t *testing.T) {
		store := new(MockStore)
		svc := NewService(store, cal, testLogger())

		store.On("RecentCommits", ctx, ActivityDefaultLimit, 0).Return([]model.CommitEvent{}, nil).Once()
		store.On("RepoPrivacy", ctx).Return(map[string]bool{}, nil).Once()
		store.On("TotalCommits", ctx).Return(0, nil).Once()

		_, err := svc.Activity(ctx, 5000, 0)

		assert.NoError(t, err)
		store.AssertExpectations(t)
	})

	t.Run("caps the reported total at the feed window", func(t *testing.T) {
		store := new(MockStore)
		svc := NewService(store, cal, testLogger())

		store.On("RecentCommits", ctx, 20, 60).Return([]model.CommitEvent{}, nil).Once()
		store.On("RepoPrivacy", ctx).Return(map[string]bool{}, nil).Once()
		store.On("TotalCommits", ctx).Return(5000, nil).Once()

		page, err := svc.Activity(ctx, 20, 60)

		assert.NoError(t, err)
		assert.Equal(t, ActivityMaxLimit, page.Total)
		// offset 60 + limit 20 < 100, so another page exists.
		assert.True(t, page.HasMore)
	})

	t.Run("last page of the window reports no more", func(t *testing.T) {
		store := new(MockStore)
		svc := NewService(store, cal, testLogger())

		store.On("RecentCommits", ctx, 20, 80).Return([]model.CommitEvent{}, nil).Once()
		store.On("RepoPrivacy", ctx).Return(map[string]bool{}, nil).Once()
		store.On("TotalCommits", ctx).Return(5000, nil).Once()

		page, err := svc.Activity(ctx, 20, 80)

		assert.NoError(t, err)
		assert.False(t, page.HasMore)
	})
}

func TestService_Repos(t *testing.T) {
	cal := testCal()
	ctx := context.Background()
	store := new(MockStore)
	svc := NewService(store, cal, testLogger())

	lastPush := cal.Now().Add(-time.Hour)
	store.On("ActiveRepos", ctx, 12).Return([]model.Repository{
		{Name: "api", FullName: "acme/api", LastPushAt: &lastPush},
		{Name: "web", FullName: "acme/web"},
	}, nil).Once()
	// Rows arrive ordered by repo, then count desc, then username.
	store.On("RepoAuthorCounts", ctx, cal.WeekStart()).Return([]model.RepoAuthorCount{
		{RepoName: "api", Username: "ana", Commits: 7},
		{RepoName: "api", Username: "bob", Commits: 3},
	}, nil).Once()

	repos, err := svc.Repos(ctx)

	assert.NoError(t, err)
	assert.Len(t, repos, 2)

	api := repos[0]
	assert.Equal(t, "api", api.Name)
	assert.Equal(t, 10, api.CommitsThisWeek)
	assert.Equal(t, "ana", api.TopContributor.Username)
	assert.Equal(t, 7, api.TopContributor.Commits)

	web := repos[1]
	assert.Equal(t, 0, web.CommitsThisWeek)
	assert.Nil(t, web.TopContributor)
	store.AssertExpectations(t)
}

func TestService_RepoDetail(t *testing.T) {
	cal := testCal()
	ctx := context.Background()

	t.Run("masks commits of a private repo", func(t *testing.T) {
		store := new(MockStore)
		svc := NewService(store, cal, testLogger())

		store.On("RepoByName", ctx, "vault").Return(&model.Repository{
			Name: "vault", FullName: "acme/vault", IsPrivate: true,
		}, nil).Once()
		store.On("RepoCommits", ctx, "vault", 30).Return([]model.CommitEvent{
			{ID: "ccc333", RepoName: "vault", AuthorUsername: "ana",
				Message: "Rotate signing keys", CommitURL: "https://github.com/acme/vault/commit/ccc333",
				PushedAt: cal.Now().Add(-10 * time.Minute)},
		}, nil).Once()
		store.On("RepoTopContributors", ctx, "vault", 10).Return([]model.LeaderboardRow{
			{Username: "ana", Commits: 40},
		}, nil).Once()

		detail, err := svc.RepoDetail(ctx, "vault")

		assert.NoError(t, err)
		assert.Equal(t, "vault", detail.Repo.Name)
		assert.Len(t, detail.RecentCommits, 1)
		assert.Equal(t, MaskMessage("Rotate signing keys"), detail.RecentCommits[0].Message)
		assert.Equal(t, "#", detail.RecentCommits[0].CommitURL)
		assert.Equal(t, "ana", detail.TopContributors[0].Username)
		store.AssertExpectations(t)
	})

	t.Run("propagates a missing repo", func(t *testing.T) {
		store := new(MockStore)
		svc := NewService(store, cal, testLogger())

		store.On("RepoByName", ctx, "ghost").Return(nil, assert.AnError).Once()

		_, err := svc.RepoDetail(ctx, "ghost")

		assert.Error(t, err)
		store.AssertNotCalled(t, "RepoCommits", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Date(2025, time.March, 12, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"seconds ago", now.Add(-30 * time.Second), "just now"},
		{"minutes ago", now.Add(-5 * time.Minute), "5m ago"},
		{"hours ago", now.Add(-3 * time.Hour), "3h ago"},
		{"days ago", now.AddDate(0, 0, -6), "6d ago"},
		{"months ago", now.AddDate(0, 0, -45), "1mo ago"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, formatRelativeTime(now, tt.t))
		})
	}
}
