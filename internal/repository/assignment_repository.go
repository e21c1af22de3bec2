package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/observability"
)

// AssignmentRepository applies assignment deltas to the three edge tables.
// All three relation kinds are written inside one transaction: a failed
// sub-update rolls back everything. Untouched edges are never rewritten,
// so their assigned_at metadata survives.
type AssignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new AssignmentRepository
func NewAssignmentRepository(db *sql.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

type edgeRelation struct {
	table  string
	column string
	delta  models.AssignmentDelta
}

// Apply executes the delta set atomically. An all-noop delta set performs
// no writes, which makes repeated applications of the same target set
// idempotent.
func (r *AssignmentRepository) Apply(ctx context.Context, deviceID string, deltas models.AssignmentDeltaSet) error {
	relations := []edgeRelation{
		{"device_geofences", "geofence_id", deltas.Geofences},
		{"device_pois", "poi_id", deltas.POIs},
		{"device_groups", "group_id", deltas.Groups},
	}

	noop := true
	for _, rel := range relations {
		if !rel.delta.IsNoop() {
			noop = false
		}
	}
	if noop {
		return nil
	}

	ctx, span := observability.StartDBSpan(ctx, "apply", "device_assignments")
	defer span.End()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin assignment tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, rel := range relations {
		if err := applyRelation(ctx, tx, rel, deviceID, now); err != nil {
			err = fmt.Errorf("apply %s: %w", rel.table, err)
			observability.RecordError(span, err)
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		observability.RecordError(span, err)
		return err
	}
	return nil
}

func applyRelation(ctx context.Context, tx *sql.Tx, rel edgeRelation, deviceID string, now time.Time) error {
	deleteQuery := fmt.Sprintf(
		`DELETE FROM %s WHERE device_id = $1 AND %s = $2`, rel.table, rel.column)
	for _, id := range rel.delta.Removed {
		if _, err := tx.ExecContext(ctx, deleteQuery, deviceID, id); err != nil {
			return err
		}
	}

	insertQuery := fmt.Sprintf(
		`INSERT INTO %s (device_id, %s, assigned_at) VALUES ($1, $2, $3)`, rel.table, rel.column)
	for _, id := range rel.delta.Added {
		if _, err := tx.ExecContext(ctx, insertQuery, deviceID, id, now); err != nil {
			return err
		}
	}

	return nil
}
