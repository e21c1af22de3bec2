package models

import "time"

// Geofence is a server-side reference object replicated to devices
type Geofence struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// POI is a point of interest replicated to devices
type POI struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Group of users replicated to devices
type Group struct {
	ID       string `json:"id"`
	TenantID string `json:"tenantId"`
	Title    string `json:"title"`
}

// EntityScope is the tenant-scoped universe of valid geofence and POI ids.
// Snapshot entries outside the scope belong to deleted or reassigned
// entities.
type EntityScope struct {
	GeofenceIDs map[string]struct{}
	POIIDs      map[string]struct{}
}

// HasGeofence reports whether the geofence id is still valid in the tenant
func (s *EntityScope) HasGeofence(id string) bool {
	_, ok := s.GeofenceIDs[id]
	return ok
}

// HasPOI reports whether the POI id is still valid in the tenant
func (s *EntityScope) HasPOI(id string) bool {
	_, ok := s.POIIDs[id]
	return ok
}
