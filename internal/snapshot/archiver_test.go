// internal/snapshot/archiver_test.go
package snapshot

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gitpulse/internal/calendar"
	apperrors "gitpulse/internal/errors"
	"gitpulse/internal/model"
)

// MockStore is a mock of the Store interface.
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Leaderboard(ctx context.Context, from time.Time, to *time.Time, limit int) ([]model.LeaderboardRow, error) {
	args := m.Called(ctx, from, to, limit)
	return args.Get(0).([]model.LeaderboardRow), args.Error(1)
}
func (m *MockStore) HasWeeklySnapshot(ctx context.Context, year, week int) (bool, error) {
	args := m.Called(ctx, year, week)
	return args.Bool(0), args.Error(1)
}
func (m *MockStore) InsertWeeklySnapshot(ctx context.Context, entries []model.WeeklyLeaderboardEntry) error {
	args := m.Called(ctx, entries)
	return args.Error(0)
}
func (m *MockStore) WeeklySnapshot(ctx context.Context, year, week int) ([]model.WeeklyLeaderboardEntry, error) {
	args := m.Called(ctx, year, week)
	return args.Get(0).([]model.WeeklyLeaderboardEntry), args.Error(1)
}
func (m *MockStore) SnapshotWeeks(ctx context.Context, limit int) ([]model.SnapshotWeek, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.SnapshotWeek), args.Error(1)
}

// Wednesday 2025-03-12 local time: ISO week 11 of 2025.
func testCal() *calendar.Calendar {
	return calendar.New("America/Lima", -5, calendar.WithNow(func() time.Time {
		return time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)
	}))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestArchiver_Archive(t *testing.T) {
	ctx := context.Background()
	cal := testCal()

	t.Run("archives the current week with dense ranks", func(t *testing.T) {
		store := new(MockStore)
		arch := NewArchiver(store, cal, testLogger())

		var noUpper *time.Time
		store.On("HasWeeklySnapshot", ctx, 2025, 11).Return(false, nil).Once()
		store.On("Leaderboard", ctx, cal.WeekStart(), noUpper, 10).Return([]model.LeaderboardRow{
			{Username: "ana", Commits: 9, Additions: 120, Deletions: 30},
			{Username: "bob", Commits: 9, Additions: 80, Deletions: 10},
			{Username: "eve", Commits: 2},
		}, nil).Once()

		var saved []model.WeeklyLeaderboardEntry
		store.On("InsertWeeklySnapshot", ctx, mock.Anything).Run(func(args mock.Arguments) {
			saved = args.Get(1).([]model.WeeklyLeaderboardEntry)
		}).Return(nil).Once()

		result, err := arch.Archive(ctx)

		require.NoError(t, err)
		assert.True(t, result.Archived)
		assert.Equal(t, 2025, result.Year)
		assert.Equal(t, 11, result.Week)
		assert.Equal(t, 3, result.Members)

		require.Len(t, saved, 3)
		// Ranks follow leaderboard order; the tied pair keeps its stable
		// username ordering.
		assert.Equal(t, 1, saved[0].Rank)
		assert.Equal(t, "ana", saved[0].Username)
		assert.Equal(t, 2, saved[1].Rank)
		assert.Equal(t, "bob", saved[1].Username)
		assert.Equal(t, 3, saved[2].Rank)
		assert.Equal(t, 2025, saved[2].Year)
		assert.Equal(t, 11, saved[2].Week)
		store.AssertExpectations(t)
	})

	t.Run("a week without commits is a no-op", func(t *testing.T) {
		store := new(MockStore)
		arch := NewArchiver(store, cal, testLogger())

		var noUpper *time.Time
		store.On("HasWeeklySnapshot", ctx, 2025, 11).Return(false, nil).Once()
		store.On("Leaderboard", ctx, cal.WeekStart(), noUpper, 10).Return([]model.LeaderboardRow{}, nil).Once()

		result, err := arch.Archive(ctx)

		require.NoError(t, err)
		assert.False(t, result.Archived)
		assert.Equal(t, "no commits this week", result.Message)
		store.AssertNotCalled(t, "InsertWeeklySnapshot", mock.Anything, mock.Anything)
	})

	t.Run("an already archived week is not rewritten", func(t *testing.T) {
		store := new(MockStore)
		arch := NewArchiver(store, cal, testLogger())

		store.On("HasWeeklySnapshot", ctx, 2025, 11).Return(true, nil).Once()

		result, err := arch.Archive(ctx)

		require.NoError(t, err)
		assert.False(t, result.Archived)
		store.AssertNotCalled(t, "Leaderboard", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		store.AssertNotCalled(t, "InsertWeeklySnapshot", mock.Anything, mock.Anything)
	})
}

func TestArchiver_History(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the stored week", func(t *testing.T) {
		store := new(MockStore)
		arch := NewArchiver(store, testCal(), testLogger())

		entries := []model.WeeklyLeaderboardEntry{{Year: 2025, Week: 10, Username: "ana", Rank: 1}}
		store.On("WeeklySnapshot", ctx, 2025, 10).Return(entries, nil).Once()

		got, err := arch.History(ctx, 2025, 10)

		require.NoError(t, err)
		assert.Equal(t, entries, got)
	})

	t.Run("missing week surfaces as a typed error", func(t *testing.T) {
		store := new(MockStore)
		arch := NewArchiver(store, testCal(), testLogger())

		store.On("WeeklySnapshot", ctx, 2025, 2).Return([]model.WeeklyLeaderboardEntry{}, nil).Once()

		_, err := arch.History(ctx, 2025, 2)

		assert.ErrorIs(t, err, apperrors.ErrNoSnapshot)
	})
}
