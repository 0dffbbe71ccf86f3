package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/solatis/pactkeeper/internal/types"
)

// DefaultRunLimit caps List when no limit is given.
const DefaultRunLimit = 50

// RunStore persists consumer test run history.
type RunStore struct {
	queries *Queries
}

// NewRunStore creates a RunStore over the named queries.
func NewRunStore(queries *Queries) *RunStore {
	return &RunStore{queries: queries}
}

// Record inserts one run. Timestamps are stored in UTC.
func (s *RunStore) Record(ctx context.Context, run types.RunRecord) error {
	_, err := s.queries.ExecContext(ctx, "insert-run",
		string(run.ID),
		run.Consumer,
		run.Provider,
		run.Outcome,
		run.Description,
		run.Mismatches,
		run.StartedAt.UTC(),
		run.FinishedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.ID, err)
	}
	return nil
}

// Get returns the run with the given ID, or types.ErrRunNotFound.
func (s *RunStore) Get(ctx context.Context, id types.RunID) (types.RunRecord, error) {
	var run types.RunRecord
	err := s.queries.GetContext(ctx, "get-run", &run, string(id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.RunRecord{}, fmt.Errorf("%w: %s", types.ErrRunNotFound, id)
	}
	if err != nil {
		return types.RunRecord{}, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// List returns the most recent runs, newest first.
func (s *RunStore) List(ctx context.Context, limit int) ([]types.RunRecord, error) {
	var runs []types.RunRecord
	if err := s.queries.SelectContext(ctx, "list-runs", &runs, normalizeLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return runs, nil
}

// ListFor returns the most recent runs of one consumer/provider pair, newest first.
func (s *RunStore) ListFor(ctx context.Context, consumer, provider string, limit int) ([]types.RunRecord, error) {
	var runs []types.RunRecord
	if err := s.queries.SelectContext(ctx, "list-runs-for-pair", &runs, consumer, provider, normalizeLimit(limit)); err != nil {
		return nil, fmt.Errorf("failed to list runs for %s/%s: %w", consumer, provider, err)
	}
	return runs, nil
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultRunLimit
	}
	return limit
}
