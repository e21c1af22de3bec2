package repository

import (
	"context"
	"database/sql"

	"github.com/fieldsync/server/internal/models"
)

// DeviceRepository implements DeviceRepo for PostgreSQL/SQLite. Devices are
// always loaded with their three assignment edge sets; the sync engine
// works on explicit snapshots, never lazy associations.
type DeviceRepository struct {
	db *sql.DB
}

// NewDeviceRepository creates a new DeviceRepository
func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	query := `SELECT id, tenant_id, name, mode, device_type, registered_at, last_seen_at, is_active
			  FROM devices WHERE id = $1`

	var device models.Device
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&device.ID, &device.TenantID, &device.Name, &device.Mode,
		&device.DeviceType, &device.RegisteredAt, &device.LastSeenAt, &device.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := r.loadEdges(ctx, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) GetAllForTenant(ctx context.Context, tenantID string) ([]*models.Device, error) {
	query := `SELECT id, tenant_id, name, mode, device_type, registered_at, last_seen_at, is_active
			  FROM devices WHERE tenant_id = $1 AND is_active = TRUE ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		var device models.Device
		if err := rows.Scan(&device.ID, &device.TenantID, &device.Name, &device.Mode,
			&device.DeviceType, &device.RegisteredAt, &device.LastSeenAt, &device.IsActive); err != nil {
			return nil, err
		}
		devices = append(devices, &device)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, device := range devices {
		if err := r.loadEdges(ctx, device); err != nil {
			return nil, err
		}
	}
	return devices, nil
}

func (r *DeviceRepository) loadEdges(ctx context.Context, device *models.Device) error {
	var err error
	device.SyncedGeofences, err = r.edgeIDs(ctx,
		`SELECT geofence_id FROM device_geofences WHERE device_id = $1 ORDER BY geofence_id`, device.ID)
	if err != nil {
		return err
	}
	device.SyncedPOIs, err = r.edgeIDs(ctx,
		`SELECT poi_id FROM device_pois WHERE device_id = $1 ORDER BY poi_id`, device.ID)
	if err != nil {
		return err
	}
	device.SyncedGroups, err = r.edgeIDs(ctx,
		`SELECT group_id FROM device_groups WHERE device_id = $1 ORDER BY group_id`, device.ID)
	return err
}

func (r *DeviceRepository) edgeIDs(ctx context.Context, query, deviceID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
