package repository

import (
	"context"
	"database/sql"

	"github.com/fieldsync/server/internal/models"
)

// SyncRecordRepository reads device sync bookkeeping rows. The row is
// created lazily by the push transport on first ring, so absence is a
// normal state and reads as (nil, nil), which the status resolver treats
// the same as watermark 0.
type SyncRecordRepository struct {
	db *sql.DB
}

// NewSyncRecordRepository creates a new SyncRecordRepository
func NewSyncRecordRepository(db *sql.DB) *SyncRecordRepository {
	return &SyncRecordRepository{db: db}
}

// Get retrieves the sync record for a device
func (r *SyncRecordRepository) Get(ctx context.Context, deviceID string) (*models.DeviceSyncRecord, error) {
	query := `SELECT device_id, watermark, ring_sent, sync_received, ack_received, created_at, updated_at
		FROM device_sync_records WHERE device_id = $1`

	var record models.DeviceSyncRecord
	err := r.db.QueryRowContext(ctx, query, deviceID).Scan(
		&record.DeviceID,
		&record.Watermark,
		&record.RingSent,
		&record.SyncReceived,
		&record.AckReceived,
		&record.CreatedAt,
		&record.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}
