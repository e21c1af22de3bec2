package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsync/server/internal/models"
)

func TestScopeService_ResolveScope(t *testing.T) {
	ctx := context.Background()

	t.Run("builds the visibility set for a tenant", func(t *testing.T) {
		service := NewScopeService(&fakeEntityRepo{
			tenants:   map[string]bool{"tenant-1": true},
			geofences: map[string][]string{"tenant-1": {"g1", "g2"}},
			pois:      map[string][]string{"tenant-1": {"p1"}},
		})

		scope, err := service.ResolveScope(ctx, "tenant-1")
		require.NoError(t, err)
		assert.True(t, scope.HasGeofence("g1"))
		assert.True(t, scope.HasGeofence("g2"))
		assert.True(t, scope.HasPOI("p1"))
		assert.False(t, scope.HasGeofence("p1"))
		assert.False(t, scope.HasPOI("g1"))
	})

	t.Run("empty tenant yields an empty scope", func(t *testing.T) {
		service := NewScopeService(&fakeEntityRepo{
			tenants: map[string]bool{"tenant-1": true},
		})

		scope, err := service.ResolveScope(ctx, "tenant-1")
		require.NoError(t, err)
		assert.Empty(t, scope.GeofenceIDs)
		assert.Empty(t, scope.POIIDs)
	})

	t.Run("unknown tenant is not found", func(t *testing.T) {
		service := NewScopeService(&fakeEntityRepo{tenants: map[string]bool{}})

		_, err := service.ResolveScope(ctx, "ghost")
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("lookup failure is store unavailable", func(t *testing.T) {
		service := NewScopeService(&fakeEntityRepo{err: errors.New("connection reset")})

		_, err := service.ResolveScope(ctx, "tenant-1")
		assert.ErrorIs(t, err, models.ErrStoreUnavailable)
	})
}
