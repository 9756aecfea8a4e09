package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelsmith/internal/services"
)

const unitColumns = "id, version, stage, scene_id, status, attempts, artifact, error_message, run_id, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUnit(row rowScanner) (*Unit, error) {
	var (
		unit      Unit
		status    string
		artifact  sql.NullString
		message   sql.NullString
		runID     sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&unit.ID, &unit.Version, &unit.Stage, &unit.SceneID, &status,
		&unit.Attempts, &artifact, &message, &runID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	unit.Status = Status(status)
	unit.Artifact = artifact.String
	unit.ErrorMessage = message.String
	unit.RunID = runID.String
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		unit.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		unit.UpdatedAt = ts
	}
	return &unit, nil
}

// EnsureUnit returns the unit for the given key, inserting a pending row when
// none exists yet.
func (s *Store) EnsureUnit(ctx context.Context, key Key) (*Unit, error) {
	if existing, err := s.Get(ctx, key); err != nil {
		return nil, err
	} else if existing != nil {
		return existing, nil
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	_, err := s.execWithRetry(
		ctx,
		`INSERT INTO stage_units (version, stage, scene_id, status, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?)
         ON CONFLICT (version, stage, scene_id) DO NOTHING`,
		key.Version, key.Stage, key.SceneID, StatusPending, timestamp, timestamp,
	)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "state", "ensure-unit", "insert unit", err)
	}
	return s.Get(ctx, key)
}

// Get fetches a unit by key. A missing unit returns nil without error.
func (s *Store) Get(ctx context.Context, key Key) (*Unit, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		`SELECT `+unitColumns+` FROM stage_units WHERE version = ? AND stage = ? AND scene_id = ?`,
		key.Version, key.Stage, key.SceneID)
	unit, err := scanUnit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "state", "get-unit", "scan unit", err)
	}
	return unit, nil
}

// transition updates a unit's status, guarded by the set of statuses the
// transition is legal from. Zero rows affected means the unit was in an
// unexpected state, which signals a concurrent writer.
func (s *Store) transition(ctx context.Context, id int64, to Status, from []Status, set string, args ...any) error {
	placeholders := make([]string, len(from))
	fromArgs := make([]any, len(from))
	for i, st := range from {
		placeholders[i] = "?"
		fromArgs[i] = string(st)
	}
	query := fmt.Sprintf(
		`UPDATE stage_units SET status = ?, updated_at = ?%s WHERE id = ? AND status IN (%s)`,
		set, strings.Join(placeholders, ", "))

	full := []any{string(to), time.Now().UTC().Format(time.RFC3339Nano)}
	full = append(full, args...)
	full = append(full, id)
	full = append(full, fromArgs...)

	res, err := s.execWithRetry(ctx, query, full...)
	if err != nil {
		return services.Wrap(services.ErrStorage, "state", "transition", fmt.Sprintf("update unit %d to %s", id, to), err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return services.Wrap(services.ErrStorage, "state", "transition", "rows affected", err)
	}
	if affected == 0 {
		return services.Wrap(services.ErrStale, "state", "transition",
			fmt.Sprintf("unit %d not in expected state for transition to %s", id, to), nil)
	}
	return nil
}

// MarkRunning claims a pending or previously failed unit and records the run
// that owns it.
func (s *Store) MarkRunning(ctx context.Context, id int64, runID string) error {
	return s.transition(ctx, id, StatusRunning,
		[]Status{StatusPending, StatusFailed},
		", attempts = attempts + 1, run_id = ?, error_message = NULL", runID)
}

// MarkDone completes a running unit and records the artifact it produced.
// Seeded reuse also lands here: a pending unit whose artifact was copied from
// an earlier version may be completed without ever running.
func (s *Store) MarkDone(ctx context.Context, id int64, artifact string) error {
	return s.transition(ctx, id, StatusDone,
		[]Status{StatusRunning, StatusPending},
		", artifact = ?", artifact)
}

// MarkFailed records a failure message on a running unit.
func (s *Store) MarkFailed(ctx context.Context, id int64, message string) error {
	return s.transition(ctx, id, StatusFailed,
		[]Status{StatusRunning},
		", error_message = ?", message)
}

// ResetRunning returns units abandoned mid-flight (crash, kill) to pending so
// the next run can claim them again.
func (s *Store) ResetRunning(ctx context.Context, version int) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE stage_units SET status = ?, updated_at = ? WHERE version = ? AND status = ?`,
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano), version, StatusRunning)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "state", "reset-running", "reset stuck units", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "state", "reset-running", "rows affected", err)
	}
	return affected, nil
}

// ResetFailed returns failed units for a version to pending.
func (s *Store) ResetFailed(ctx context.Context, version int) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE stage_units SET status = ?, error_message = NULL, updated_at = ? WHERE version = ? AND status = ?`,
		StatusPending, time.Now().UTC().Format(time.RFC3339Nano), version, StatusFailed)
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "state", "reset-failed", "reset failed units", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, services.Wrap(services.ErrStorage, "state", "reset-failed", "rows affected", err)
	}
	return affected, nil
}

// UnitsForVersion lists every unit recorded for a version, stage order first,
// then scene id.
func (s *Store) UnitsForVersion(ctx context.Context, version int) ([]Unit, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+unitColumns+` FROM stage_units WHERE version = ? ORDER BY id`, version)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "state", "list-units", "query units", err)
	}
	defer rows.Close()

	var units []Unit
	for rows.Next() {
		unit, err := scanUnit(rows)
		if err != nil {
			return nil, services.Wrap(services.ErrStorage, "state", "list-units", "scan unit", err)
		}
		units = append(units, *unit)
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "state", "list-units", "iterate units", err)
	}
	return units, nil
}

// Summary counts units per status for a version.
func (s *Store) Summary(ctx context.Context, version int) (map[Status]int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM stage_units WHERE version = ? GROUP BY status`, version)
	if err != nil {
		return nil, services.Wrap(services.ErrStorage, "state", "summary", "query counts", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, services.Wrap(services.ErrStorage, "state", "summary", "scan count", err)
		}
		counts[Status(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, services.Wrap(services.ErrStorage, "state", "summary", "iterate counts", err)
	}
	return counts, nil
}
