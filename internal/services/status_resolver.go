package services

import (
	"context"
	"fmt"

	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/repository"
)

// SnapshotRepo is what the status resolver consumes from the document
// store: one lookup per named collection, nil when no document exists.
type SnapshotRepo interface {
	Current(ctx context.Context, deviceID string) (*models.SyncSnapshot, error)
	Backup(ctx context.Context, deviceID string) (*models.SyncSnapshot, error)
	History(ctx context.Context, deviceID string) (*models.SyncSnapshot, error)
}

// StatusResult is the resolved synchronization state for one device
type StatusResult struct {
	Status       models.SyncStatus
	CurrentSyncs *models.CurrentSyncs
	Record       *models.DeviceSyncRecord
}

// StatusResolver derives a device's sync status by cross-referencing the
// relational sync record against the in-flight session snapshots. The
// status is recomputed on every call and never stored; staleness between
// the two store reads is tolerated.
type StatusResolver struct {
	records   repository.SyncRecordRepo
	snapshots SnapshotRepo
}

// NewStatusResolver creates a new StatusResolver
func NewStatusResolver(records repository.SyncRecordRepo, snapshots SnapshotRepo) *StatusResolver {
	return &StatusResolver{records: records, snapshots: snapshots}
}

// Resolve computes the status and normalized current-syncs view for a
// device. Store lookup failures abort resolution for this device only and
// surface as ErrStoreUnavailable; the caller isolates them per device.
func (r *StatusResolver) Resolve(ctx context.Context, deviceID string, scope *models.EntityScope) (*StatusResult, error) {
	record, err := r.records.Get(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: sync record %s: %v", models.ErrStoreUnavailable, deviceID, err)
	}

	status := models.SyncStatusNA
	var selected *models.SyncSnapshot

	if record.NeverSynced() {
		// First sync: only the bootstrap history snapshot is authoritative.
		history, err := r.snapshots.History(ctx, deviceID)
		if err != nil {
			return nil, fmt.Errorf("%w: history snapshot %s: %v", models.ErrStoreUnavailable, deviceID, err)
		}
		if history != nil {
			status = models.SyncStatusPending
			if record.RingRequested() {
				// A ring already went out, so the first sync is in flight
				// rather than about to start.
				status = models.SyncStatusSyncing
			}
			selected = history
		}
		// No history snapshot: nothing to reconcile, status stays at the
		// default even when a ring was requested. The original behavior is
		// ambiguous in that combination and is preserved as no change.
	} else {
		current, err := r.snapshots.Current(ctx, deviceID)
		if err != nil {
			return nil, fmt.Errorf("%w: current snapshot %s: %v", models.ErrStoreUnavailable, deviceID, err)
		}
		if current != nil {
			status = models.SyncStatusPending
			backup, err := r.snapshots.Backup(ctx, deviceID)
			if err != nil {
				return nil, fmt.Errorf("%w: backup snapshot %s: %v", models.ErrStoreUnavailable, deviceID, err)
			}
			selected = current
			if backup != nil {
				// Backup entries win on collisions: they belong to the
				// newer session.
				selected = current.Overlay(backup)
			}
		} else {
			backup, err := r.snapshots.Backup(ctx, deviceID)
			if err != nil {
				return nil, fmt.Errorf("%w: backup snapshot %s: %v", models.ErrStoreUnavailable, deviceID, err)
			}
			if backup != nil {
				status = models.SyncStatusSyncing
				selected = backup
			} else if record.RingRequested() {
				// Something was requested once and has fully quiesced.
				status = models.SyncStatusSynced
			}
		}
	}

	currentSyncs := models.NewCurrentSyncs()
	if selected != nil {
		currentSyncs = refineCurrentSyncs(selected, scope)
		if currentSyncs.IsEmpty() {
			// Every pending entity was unassigned or deleted after the
			// session started; the snapshot is vacuous.
			status = models.SyncStatusSynced
		}
	}

	return &StatusResult{
		Status:       status,
		CurrentSyncs: currentSyncs,
		Record:       record,
	}, nil
}

// refineCurrentSyncs classifies every snapshot entry as either live
// (entity still in the tenant's visibility set) or removed (deleted or
// reassigned out of the tenant while the session was in flight).
func refineCurrentSyncs(snapshot *models.SyncSnapshot, scope *models.EntityScope) *models.CurrentSyncs {
	result := models.NewCurrentSyncs()

	for id, entry := range snapshot.Geofences {
		if scope.HasGeofence(id) {
			result.Geofences[id] = models.PendingSync{
				Action:     entry.Action,
				ModifiedBy: entry.LastModifiedBy,
				ModifiedAt: entry.LastModifiedTime,
			}
		} else {
			result.RemovedGeofences[id] = models.RemovedSync{
				Action: removedAction(entry.Action),
				Title:  entry.Title,
			}
		}
	}

	for id, entry := range snapshot.POIs {
		if scope.HasPOI(id) {
			result.POIs[id] = models.PendingSync{
				Action:     entry.Action,
				ModifiedBy: entry.LastModifiedBy,
				ModifiedAt: entry.LastModifiedTime,
			}
		} else {
			result.RemovedPOIs[id] = models.RemovedSync{
				Action: removedAction(entry.Action),
				Title:  entry.Title,
			}
		}
	}

	return result
}

// removedAction maps a pending action onto the removed-objects vocabulary.
// An in-flight remove of an already-gone entity is a decline; a pending
// add or edit of a vanished entity is a delete.
func removedAction(action string) string {
	if action == models.SnapshotActionRemove {
		return models.RemovedActionDecline
	}
	return models.RemovedActionDelete
}
