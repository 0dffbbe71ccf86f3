package types

import "time"

// RunRecord is the persisted outcome of one consumer test run.
type RunRecord struct {
	ID          RunID     `db:"run_id"`
	Consumer    string    `db:"consumer"`
	Provider    string    `db:"provider"`
	Outcome     string    `db:"outcome"`
	Description string    `db:"description"`
	Mismatches  int       `db:"mismatch_count"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
