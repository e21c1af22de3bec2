package services

import (
	"context"
	"sort"

	"github.com/fieldsync/server/internal/models"
)

// In-memory fakes for the repository interfaces. Shared by the service
// tests in this package.

type fakeDeviceRepo struct {
	devices map[string]*models.Device
	err     error
}

func (f *fakeDeviceRepo) GetByID(ctx context.Context, id string) (*models.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.devices[id], nil
}

func (f *fakeDeviceRepo) GetAllForTenant(ctx context.Context, tenantID string) ([]*models.Device, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Device
	for _, d := range f.devices {
		if d.TenantID == tenantID {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeAssignmentRepo applies deltas to the shared device map so a
// subsequent read observes the written edges, like the real edge tables.
type fakeAssignmentRepo struct {
	devices map[string]*models.Device
	applied []models.AssignmentDeltaSet
	err     error
}

func (f *fakeAssignmentRepo) Apply(ctx context.Context, deviceID string, deltas models.AssignmentDeltaSet) error {
	if f.err != nil {
		return f.err
	}
	f.applied = append(f.applied, deltas)
	if device, ok := f.devices[deviceID]; ok {
		device.SyncedGeofences = applyDelta(deltas.Geofences)
		device.SyncedPOIs = applyDelta(deltas.POIs)
		device.SyncedGroups = applyDelta(deltas.Groups)
	}
	return nil
}

func applyDelta(d models.AssignmentDelta) []string {
	out := append([]string{}, d.Untouched...)
	out = append(out, d.Added...)
	sort.Strings(out)
	return out
}

type fakeEntityRepo struct {
	tenants   map[string]bool
	geofences map[string][]string
	pois      map[string][]string
	groups    map[string][]string
	err       error
}

func (f *fakeEntityRepo) TenantExists(ctx context.Context, tenantID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.tenants[tenantID], nil
}

func (f *fakeEntityRepo) GeofenceIDs(ctx context.Context, tenantID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.geofences[tenantID], nil
}

func (f *fakeEntityRepo) POIIDs(ctx context.Context, tenantID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.pois[tenantID], nil
}

func (f *fakeEntityRepo) GroupIDs(ctx context.Context, tenantID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[tenantID], nil
}

type fakeSyncRecordRepo struct {
	records map[string]*models.DeviceSyncRecord
	err     error
}

func (f *fakeSyncRecordRepo) Get(ctx context.Context, deviceID string) (*models.DeviceSyncRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records[deviceID], nil
}

type fakeSnapshotRepo struct {
	current map[string]*models.SyncSnapshot
	backup  map[string]*models.SyncSnapshot
	history map[string]*models.SyncSnapshot

	currentErr error
	backupErr  error
	historyErr error
}

func (f *fakeSnapshotRepo) Current(ctx context.Context, deviceID string) (*models.SyncSnapshot, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return f.current[deviceID], nil
}

func (f *fakeSnapshotRepo) Backup(ctx context.Context, deviceID string) (*models.SyncSnapshot, error) {
	if f.backupErr != nil {
		return nil, f.backupErr
	}
	return f.backup[deviceID], nil
}

func (f *fakeSnapshotRepo) History(ctx context.Context, deviceID string) (*models.SyncSnapshot, error) {
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[deviceID], nil
}

type fakeUserRepo struct {
	byKey        map[string]*models.User
	admins       map[string][]*models.User
	deviceAccess map[string][]string
	err          error
}

func (f *fakeUserRepo) GetByAPIKey(ctx context.Context, apiKey string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byKey[apiKey], nil
}

func (f *fakeUserRepo) AdminsForTenant(ctx context.Context, tenantID string) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.admins[tenantID], nil
}

func (f *fakeUserRepo) UserIDsWithDeviceAccess(ctx context.Context, deviceID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.deviceAccess[deviceID], nil
}

type fakeNotifier struct {
	updated []string
	deleted []string
}

func (f *fakeNotifier) NotifyUpdated(ctx context.Context, actor *models.Actor, view *models.SyncView) {
	f.updated = append(f.updated, view.DeviceID)
}

func (f *fakeNotifier) NotifyDeleted(ctx context.Context, actor *models.Actor, deviceID string) {
	f.deleted = append(f.deleted, deviceID)
}
