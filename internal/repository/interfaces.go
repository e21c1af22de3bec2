package repository

import (
	"context"

	"github.com/fieldsync/server/internal/models"
)

// DeviceRepo defines device lookups with eagerly loaded assignment edges
type DeviceRepo interface {
	GetByID(ctx context.Context, id string) (*models.Device, error)
	GetAllForTenant(ctx context.Context, tenantID string) ([]*models.Device, error)
}

// SyncRecordRepo reads the per-device sync bookkeeping row. The push
// transport owns writes; a missing row reads as (nil, nil).
type SyncRecordRepo interface {
	Get(ctx context.Context, deviceID string) (*models.DeviceSyncRecord, error)
}

// AssignmentRepo applies assignment deltas to the three edge tables in one
// transaction
type AssignmentRepo interface {
	Apply(ctx context.Context, deviceID string, deltas models.AssignmentDeltaSet) error
}

// EntityRepo exposes the tenant-scoped reference entity universe
type EntityRepo interface {
	TenantExists(ctx context.Context, tenantID string) (bool, error)
	GeofenceIDs(ctx context.Context, tenantID string) ([]string, error)
	POIIDs(ctx context.Context, tenantID string) ([]string, error)
	GroupIDs(ctx context.Context, tenantID string) ([]string, error)
}

// UserRepo defines user lookups for actor resolution and notifier fan-out
type UserRepo interface {
	GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error)
	AdminsForTenant(ctx context.Context, tenantID string) ([]*models.User, error)
	UserIDsWithDeviceAccess(ctx context.Context, deviceID string) ([]string, error)
}
