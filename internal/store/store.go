// internal/store/store.go

// Package store is the durable event store: the commit event log plus the
// derived repository, contributor and weekly leaderboard tables. All upserts
// are single-statement ON CONFLICT operations so concurrent writers to the
// same key cannot lose updates.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PG implements the event store on a pgx connection pool.
type PG struct {
	pool *pgxpool.Pool
}

// NewPG creates a store backed by the given pool.
func NewPG(pool *pgxpool.Pool) *PG {
	return &PG{pool: pool}
}

// Ping verifies database connectivity.
func (s *PG) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
