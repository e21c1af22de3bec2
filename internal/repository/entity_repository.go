package repository

import (
	"context"
	"database/sql"
)

// EntityRepository exposes the tenant-scoped reference entity universe
type EntityRepository struct {
	db *sql.DB
}

// NewEntityRepository creates a new EntityRepository
func NewEntityRepository(db *sql.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// TenantExists reports whether the tenant is known
func (r *EntityRepository) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	var id string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM tenants WHERE id = $1`, tenantID).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GeofenceIDs returns all geofence ids in the tenant
func (r *EntityRepository) GeofenceIDs(ctx context.Context, tenantID string) ([]string, error) {
	return r.idList(ctx, `SELECT id FROM geofences WHERE tenant_id = $1`, tenantID)
}

// POIIDs returns all POI ids in the tenant
func (r *EntityRepository) POIIDs(ctx context.Context, tenantID string) ([]string, error) {
	return r.idList(ctx, `SELECT id FROM pois WHERE tenant_id = $1`, tenantID)
}

// GroupIDs returns all group ids in the tenant
func (r *EntityRepository) GroupIDs(ctx context.Context, tenantID string) ([]string, error) {
	return r.idList(ctx, `SELECT id FROM groups WHERE tenant_id = $1`, tenantID)
}

func (r *EntityRepository) idList(ctx context.Context, query, tenantID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, tenantID)
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
