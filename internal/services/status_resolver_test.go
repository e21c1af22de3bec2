package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsync/server/internal/models"
)

func scopeWith(geofences, pois []string) *models.EntityScope {
	scope := &models.EntityScope{
		GeofenceIDs: make(map[string]struct{}),
		POIIDs:      make(map[string]struct{}),
	}
	for _, id := range geofences {
		scope.GeofenceIDs[id] = struct{}{}
	}
	for _, id := range pois {
		scope.POIIDs[id] = struct{}{}
	}
	return scope
}

func snapshotWith(geofences map[string]models.SnapshotEntry) *models.SyncSnapshot {
	return &models.SyncSnapshot{
		DeviceID:  "dev-1",
		Geofences: geofences,
		POIs:      map[string]models.SnapshotEntry{},
	}
}

func entry(action string) models.SnapshotEntry {
	return models.SnapshotEntry{
		Action:           action,
		Title:            "Zone A",
		LastModifiedBy:   "user-1",
		LastModifiedTime: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestStatusResolver_FirstSync(t *testing.T) {
	ctx := context.Background()
	ringSent := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	scope := scopeWith([]string{"g1"}, nil)

	t.Run("history present without ring is pending", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: map[string]*models.DeviceSyncRecord{
				"dev-1": {DeviceID: "dev-1", Watermark: 0},
			}},
			&fakeSnapshotRepo{history: map[string]*models.SyncSnapshot{
				"dev-1": snapshotWith(map[string]models.SnapshotEntry{"g1": entry(models.SnapshotActionAdd)}),
			}},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusPending, result.Status)
		assert.Contains(t, result.CurrentSyncs.Geofences, "g1")
	})

	t.Run("history present with ring escalates to syncing", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: map[string]*models.DeviceSyncRecord{
				"dev-1": {DeviceID: "dev-1", Watermark: 0, RingSent: &ringSent},
			}},
			&fakeSnapshotRepo{history: map[string]*models.SyncSnapshot{
				"dev-1": snapshotWith(map[string]models.SnapshotEntry{"g1": entry(models.SnapshotActionAdd)}),
			}},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSyncing, result.Status)
	})

	t.Run("no history and no ring stays N/A", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: map[string]*models.DeviceSyncRecord{
				"dev-1": {DeviceID: "dev-1", Watermark: 0},
			}},
			&fakeSnapshotRepo{},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusNA, result.Status)
		assert.True(t, result.CurrentSyncs.IsEmpty())
	})

	t.Run("no history with ring also stays N/A", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: map[string]*models.DeviceSyncRecord{
				"dev-1": {DeviceID: "dev-1", Watermark: 0, RingSent: &ringSent},
			}},
			&fakeSnapshotRepo{},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusNA, result.Status)
	})

	t.Run("missing record reads as never synced", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{},
			&fakeSnapshotRepo{history: map[string]*models.SyncSnapshot{
				"dev-1": snapshotWith(map[string]models.SnapshotEntry{"g1": entry(models.SnapshotActionAdd)}),
			}},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusPending, result.Status)
	})
}

func TestStatusResolver_AfterFirstSync(t *testing.T) {
	ctx := context.Background()
	ringSent := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	scope := scopeWith([]string{"g1", "g2"}, []string{"p1"})

	record := func() map[string]*models.DeviceSyncRecord {
		return map[string]*models.DeviceSyncRecord{
			"dev-1": {DeviceID: "dev-1", Watermark: 5, RingSent: &ringSent},
		}
	}

	t.Run("current present is pending", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: record()},
			&fakeSnapshotRepo{current: map[string]*models.SyncSnapshot{
				"dev-1": snapshotWith(map[string]models.SnapshotEntry{"g1": entry(models.SnapshotActionEdit)}),
			}},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusPending, result.Status)
		assert.Equal(t, models.SnapshotActionEdit, result.CurrentSyncs.Geofences["g1"].Action)
	})

	t.Run("backup entries win over current on collision", func(t *testing.T) {
		older := entry(models.SnapshotActionAdd)
		newer := entry(models.SnapshotActionEdit)
		newer.LastModifiedTime = older.LastModifiedTime.Add(time.Hour)

		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: record()},
			&fakeSnapshotRepo{
				current: map[string]*models.SyncSnapshot{
					"dev-1": snapshotWith(map[string]models.SnapshotEntry{"g1": older, "g2": entry(models.SnapshotActionAdd)}),
				},
				backup: map[string]*models.SyncSnapshot{
					"dev-1": snapshotWith(map[string]models.SnapshotEntry{"g1": newer}),
				},
			},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusPending, result.Status)
		assert.Equal(t, models.SnapshotActionEdit, result.CurrentSyncs.Geofences["g1"].Action)
		assert.Equal(t, newer.LastModifiedTime, result.CurrentSyncs.Geofences["g1"].ModifiedAt)
		assert.Contains(t, result.CurrentSyncs.Geofences, "g2")
	})

	t.Run("backup alone is syncing", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: record()},
			&fakeSnapshotRepo{backup: map[string]*models.SyncSnapshot{
				"dev-1": snapshotWith(map[string]models.SnapshotEntry{"g1": entry(models.SnapshotActionAdd)}),
			}},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSyncing, result.Status)
	})

	t.Run("no snapshots with ring sent is synced", func(t *testing.T) {
		resolver := NewStatusResolver(&fakeSyncRecordRepo{records: record()}, &fakeSnapshotRepo{})

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSynced, result.Status)
	})

	t.Run("no snapshots and no ring stays N/A", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: map[string]*models.DeviceSyncRecord{
				"dev-1": {DeviceID: "dev-1", Watermark: 5},
			}},
			&fakeSnapshotRepo{},
		)

		result, err := resolver.Resolve(ctx, "dev-1", scope)
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusNA, result.Status)
	})
}

func TestStatusResolver_Refinement(t *testing.T) {
	ctx := context.Background()
	ringSent := time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)
	records := &fakeSyncRecordRepo{records: map[string]*models.DeviceSyncRecord{
		"dev-1": {DeviceID: "dev-1", Watermark: 3, RingSent: &ringSent},
	}}

	t.Run("out-of-scope add is classified as delete", func(t *testing.T) {
		resolver := NewStatusResolver(records, &fakeSnapshotRepo{current: map[string]*models.SyncSnapshot{
			"dev-1": snapshotWith(map[string]models.SnapshotEntry{"gone": entry(models.SnapshotActionAdd)}),
		}})

		result, err := resolver.Resolve(ctx, "dev-1", scopeWith(nil, nil))
		require.NoError(t, err)
		assert.NotContains(t, result.CurrentSyncs.Geofences, "gone")
		removed := result.CurrentSyncs.RemovedGeofences["gone"]
		assert.Equal(t, models.RemovedActionDelete, removed.Action)
		assert.Equal(t, "Zone A", removed.Title)
	})

	t.Run("out-of-scope remove is classified as decline", func(t *testing.T) {
		resolver := NewStatusResolver(records, &fakeSnapshotRepo{current: map[string]*models.SyncSnapshot{
			"dev-1": snapshotWith(map[string]models.SnapshotEntry{"gone": entry(models.SnapshotActionRemove)}),
		}})

		result, err := resolver.Resolve(ctx, "dev-1", scopeWith(nil, nil))
		require.NoError(t, err)
		assert.Equal(t, models.RemovedActionDecline, result.CurrentSyncs.RemovedGeofences["gone"].Action)
	})

	t.Run("vacuous snapshot downgrades to synced", func(t *testing.T) {
		resolver := NewStatusResolver(records, &fakeSnapshotRepo{current: map[string]*models.SyncSnapshot{
			"dev-1": snapshotWith(map[string]models.SnapshotEntry{}),
		}})

		result, err := resolver.Resolve(ctx, "dev-1", scopeWith([]string{"g1"}, nil))
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusSynced, result.Status)
		assert.True(t, result.CurrentSyncs.IsEmpty())
	})

	t.Run("out-of-scope entries keep the snapshot non-vacuous", func(t *testing.T) {
		resolver := NewStatusResolver(records, &fakeSnapshotRepo{current: map[string]*models.SyncSnapshot{
			"dev-1": snapshotWith(map[string]models.SnapshotEntry{"gone": entry(models.SnapshotActionEdit)}),
		}})

		result, err := resolver.Resolve(ctx, "dev-1", scopeWith(nil, nil))
		require.NoError(t, err)
		assert.Equal(t, models.SyncStatusPending, result.Status)
	})
}

func TestStatusResolver_StoreFailures(t *testing.T) {
	ctx := context.Background()
	scope := scopeWith(nil, nil)
	boom := errors.New("connection refused")

	t.Run("record lookup failure", func(t *testing.T) {
		resolver := NewStatusResolver(&fakeSyncRecordRepo{err: boom}, &fakeSnapshotRepo{})

		_, err := resolver.Resolve(ctx, "dev-1", scope)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	})

	t.Run("snapshot lookup failure", func(t *testing.T) {
		resolver := NewStatusResolver(
			&fakeSyncRecordRepo{records: map[string]*models.DeviceSyncRecord{
				"dev-1": {DeviceID: "dev-1", Watermark: 2},
			}},
			&fakeSnapshotRepo{currentErr: boom},
		)

		_, err := resolver.Resolve(ctx, "dev-1", scope)
		require.Error(t, err)
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	})
}
