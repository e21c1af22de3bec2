package services

import (
	"context"
	"fmt"

	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/repository"
)

// ScopeService resolves the tenant-scoped universe of valid geofence and
// POI ids. Read-only; fails with ErrNotFound only when the tenant itself
// does not exist.
type ScopeService struct {
	entityRepo repository.EntityRepo
}

// NewScopeService creates a new ScopeService
func NewScopeService(entityRepo repository.EntityRepo) *ScopeService {
	return &ScopeService{entityRepo: entityRepo}
}

// ResolveScope returns the entity visibility set for a tenant
func (s *ScopeService) ResolveScope(ctx context.Context, tenantID string) (*models.EntityScope, error) {
	exists, err := s.entityRepo.TenantExists(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: tenant lookup: %v", models.ErrStoreUnavailable, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: tenant %s", models.ErrNotFound, tenantID)
	}

	geofenceIDs, err := s.entityRepo.GeofenceIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: geofence scope: %v", models.ErrStoreUnavailable, err)
	}
	poiIDs, err := s.entityRepo.POIIDs(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("%w: poi scope: %v", models.ErrStoreUnavailable, err)
	}

	scope := &models.EntityScope{
		GeofenceIDs: make(map[string]struct{}, len(geofenceIDs)),
		POIIDs:      make(map[string]struct{}, len(poiIDs)),
	}
	for _, id := range geofenceIDs {
		scope.GeofenceIDs[id] = struct{}{}
	}
	for _, id := range poiIDs {
		scope.POIIDs[id] = struct{}{}
	}
	return scope, nil
}
