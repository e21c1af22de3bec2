package models

import "time"

// SyncStatus is derived on every read, never persisted
type SyncStatus string

const (
	SyncStatusNA      SyncStatus = "N/A"
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSyncing SyncStatus = "syncing"
	SyncStatusSynced  SyncStatus = "synced"
)

// DeviceSyncRecord is the relational sync bookkeeping row for a device,
// created lazily on first ring. The push transport owns all writes; this
// engine only reads it. Watermark 0 means no sync has ever completed.
type DeviceSyncRecord struct {
	DeviceID     string     `json:"deviceId"`
	Watermark    int64      `json:"watermark"`
	RingSent     *time.Time `json:"ringSent,omitempty"`
	SyncReceived *time.Time `json:"syncReceived,omitempty"`
	AckReceived  *time.Time `json:"ackReceived,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// NeverSynced reports whether the device has yet to complete an initial sync
func (r *DeviceSyncRecord) NeverSynced() bool {
	return r == nil || r.Watermark == 0
}

// RingRequested reports whether a push has ever been requested
func (r *DeviceSyncRecord) RingRequested() bool {
	return r != nil && r.RingSent != nil
}

// Pending mutation actions carried by a snapshot entry
const (
	SnapshotActionAdd    = "add"
	SnapshotActionEdit   = "edit"
	SnapshotActionRemove = "remove"
)

// Actions in the removed-objects view. An entity that disappeared from the
// tenant while an add/edit was in flight reports "delete"; an in-flight
// remove whose entity is already gone reports "decline".
const (
	RemovedActionDelete  = "delete"
	RemovedActionDecline = "decline"
)

// SnapshotEntry describes one pending mutation for an entity, as written
// by the device-facing ingest pipeline. Title is captured at write time so
// the entity can still be named after it is deleted server-side.
type SnapshotEntry struct {
	Action           string    `bson:"action" json:"action"`
	Title            string    `bson:"title" json:"title"`
	LastModifiedBy   string    `bson:"last_modified_by" json:"lastModifiedBy"`
	LastModifiedTime time.Time `bson:"last_modified_time" json:"lastModifiedTime"`
}

// SyncSnapshot is one sync-session document from the document store
type SyncSnapshot struct {
	DeviceID  string                   `bson:"device_id" json:"deviceId"`
	Geofences map[string]SnapshotEntry `bson:"geofences" json:"geofences"`
	POIs      map[string]SnapshotEntry `bson:"pois" json:"pois"`
	StartedAt time.Time                `bson:"started_at" json:"startedAt"`
}

// Overlay returns a snapshot with over's entries merged on top of s.
// Entries in over win on id collisions. Neither input is modified.
func (s *SyncSnapshot) Overlay(over *SyncSnapshot) *SyncSnapshot {
	merged := &SyncSnapshot{
		DeviceID:  s.DeviceID,
		Geofences: make(map[string]SnapshotEntry, len(s.Geofences)+len(over.Geofences)),
		POIs:      make(map[string]SnapshotEntry, len(s.POIs)+len(over.POIs)),
		StartedAt: s.StartedAt,
	}
	for id, e := range s.Geofences {
		merged.Geofences[id] = e
	}
	for id, e := range over.Geofences {
		merged.Geofences[id] = e
	}
	for id, e := range s.POIs {
		merged.POIs[id] = e
	}
	for id, e := range over.POIs {
		merged.POIs[id] = e
	}
	return merged
}

// PendingSync is a live, still-valid entry in the current-syncs view
type PendingSync struct {
	Action     string    `json:"action"`
	ModifiedBy string    `json:"modifiedBy"`
	ModifiedAt time.Time `json:"modifiedAt"`
}

// RemovedSync is a current-syncs entry whose entity no longer exists in
// the tenant
type RemovedSync struct {
	Action string `json:"action"` // "delete" or "decline"
	Title  string `json:"title"`
}

// CurrentSyncs is the normalized view of everything still pending for a
// device, split into live entries and removed/declined entries
type CurrentSyncs struct {
	Geofences        map[string]PendingSync `json:"geofences"`
	POIs             map[string]PendingSync `json:"pois"`
	RemovedGeofences map[string]RemovedSync `json:"removedGeofences"`
	RemovedPOIs      map[string]RemovedSync `json:"removedPois"`
}

// NewCurrentSyncs returns an empty view with all maps allocated
func NewCurrentSyncs() *CurrentSyncs {
	return &CurrentSyncs{
		Geofences:        make(map[string]PendingSync),
		POIs:             make(map[string]PendingSync),
		RemovedGeofences: make(map[string]RemovedSync),
		RemovedPOIs:      make(map[string]RemovedSync),
	}
}

// IsEmpty reports whether nothing at all is pending. An empty view forces
// the overall status to "synced" even when a session document exists.
func (c *CurrentSyncs) IsEmpty() bool {
	return len(c.Geofences) == 0 && len(c.POIs) == 0 &&
		len(c.RemovedGeofences) == 0 && len(c.RemovedPOIs) == 0
}

// AssignmentDelta is the computed difference between a device's current
// edge set and the requested target set for one relation kind
type AssignmentDelta struct {
	Original  []string `json:"original"`
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Untouched []string `json:"untouched"`
}

// IsNoop reports whether applying the delta would change nothing
func (d AssignmentDelta) IsNoop() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// AssignmentDeltaSet carries one delta per relation kind. The kinds are
// independent edge tables and are never merged.
type AssignmentDeltaSet struct {
	Geofences AssignmentDelta `json:"geofences"`
	POIs      AssignmentDelta `json:"pois"`
	Groups    AssignmentDelta `json:"groups"`
}

// SyncEntities is the raw assignment target per relation kind
type SyncEntities struct {
	Geofences []string `json:"geofences"`
	POIs      []string `json:"pois"`
	Groups    []string `json:"groups"`
}

// SyncView is the per-device synchronization view returned to callers
type SyncView struct {
	DeviceID     string              `json:"deviceId"`
	DeviceName   string              `json:"deviceName"`
	Status       SyncStatus          `json:"status"`
	Watermark    int64               `json:"watermark"`
	RingSent     *time.Time          `json:"ringSent,omitempty"`
	SyncReceived *time.Time          `json:"syncReceived,omitempty"`
	AckReceived  *time.Time          `json:"ackReceived,omitempty"`
	SyncEntities SyncEntities        `json:"syncEntities"`
	CurrentSyncs *CurrentSyncs       `json:"currentSyncs,omitempty"`
	Delta        *AssignmentDeltaSet `json:"delta,omitempty"`
	Error        string              `json:"error,omitempty"`
}
