package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Device modes. Only tactical devices receive reference-data replicas.
const (
	ModeTactical = "tactical"
	ModeStandard = "standard"
)

// Device represents a field device registered with the fleet. The three
// Synced* slices are the current assignment edge sets, loaded eagerly by
// the repository; the reconciliation engine mutates only those edges,
// never the device record itself.
type Device struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Name         string    `json:"name"`
	Mode         string    `json:"mode"` // "tactical" or "standard"
	DeviceType   string    `json:"deviceType"`
	RegisteredAt time.Time `json:"registeredAt"`
	LastSeenAt   time.Time `json:"lastSeenAt"`
	IsActive     bool      `json:"isActive"`

	SyncedGeofences []string `json:"syncedGeofences"`
	SyncedPOIs      []string `json:"syncedPois"`
	SyncedGroups    []string `json:"syncedGroups"`
}

// IsTactical reports whether the device participates in reference-data sync
func (d *Device) IsTactical() bool {
	return d.Mode == ModeTactical
}

// NewDevice creates a device registration
func NewDevice(tenantID, name, mode, deviceType string) (*Device, error) {
	name = strings.TrimSpace(name)
	mode = strings.TrimSpace(strings.ToLower(mode))

	if name == "" {
		return nil, ErrEmptyDeviceName
	}
	if mode != ModeTactical && mode != ModeStandard {
		return nil, ErrInvalidDeviceMode
	}

	now := time.Now().UTC()
	return &Device{
		ID:           uuid.New().String(),
		TenantID:     tenantID,
		Name:         name,
		Mode:         mode,
		DeviceType:   deviceType,
		RegisteredAt: now,
		LastSeenAt:   now,
		IsActive:     true,
	}, nil
}

// Device errors
var (
	ErrEmptyDeviceName   = DeviceError{"device name cannot be empty"}
	ErrInvalidDeviceMode = DeviceError{"mode must be 'tactical' or 'standard'"}
)

type DeviceError struct {
	Message string
}

func (e DeviceError) Error() string {
	return e.Message
}
