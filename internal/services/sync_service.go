package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/observability"
	"github.com/fieldsync/server/internal/repository"
)

// Notifier pushes refreshed sync views to interested observers. Failures
// are the notifier's problem; implementations must never return them into
// the write path.
type Notifier interface {
	NotifyUpdated(ctx context.Context, actor *models.Actor, view *models.SyncView)
	NotifyDeleted(ctx context.Context, actor *models.Actor, deviceID string)
}

// SyncService orchestrates scope resolution, status resolution and
// assignment writes into the per-device and per-fleet sync views
type SyncService struct {
	devices     repository.DeviceRepo
	assignments repository.AssignmentRepo
	entities    repository.EntityRepo
	scope       *ScopeService
	resolver    *StatusResolver
	notifier    Notifier
	metrics     *observability.SyncMetrics
	maxParallel int
}

// NewSyncService creates a new SyncService. maxParallel bounds concurrent
// per-device status resolutions in batch reads; metrics may be nil.
func NewSyncService(
	devices repository.DeviceRepo,
	assignments repository.AssignmentRepo,
	entities repository.EntityRepo,
	scope *ScopeService,
	resolver *StatusResolver,
	notifier Notifier,
	metrics *observability.SyncMetrics,
	maxParallel int,
) *SyncService {
	if maxParallel <= 0 {
		maxParallel = 8
	}
	return &SyncService{
		devices:     devices,
		assignments: assignments,
		entities:    entities,
		scope:       scope,
		resolver:    resolver,
		notifier:    notifier,
		metrics:     metrics,
		maxParallel: maxParallel,
	}
}

// GetSyncInfo returns the sync view for every tactical device the actor
// can see. Scope and device set are resolved once; per-device status
// resolution fans out concurrently and a failed device carries an error
// marker instead of failing the batch.
func (s *SyncService) GetSyncInfo(ctx context.Context, actor *models.Actor) (map[string]*models.SyncView, error) {
	ctx, span := observability.StartServiceSpan(ctx, "sync", "GetSyncInfo")
	defer span.End()

	scope, err := s.scope.ResolveScope(ctx, actor.TenantID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	devices, err := s.devices.GetAllForTenant(ctx, actor.TenantID)
	if err != nil {
		err = fmt.Errorf("%w: device list: %v", models.ErrStoreUnavailable, err)
		observability.RecordError(span, err)
		return nil, err
	}

	tacticals := devices[:0:0]
	for _, device := range devices {
		if device.IsTactical() {
			tacticals = append(tacticals, device)
		}
	}

	// Each goroutine writes only its own slot; cancellation stops
	// dispatching new lookups but in-flight ones finish on their own.
	views := make([]*models.SyncView, len(tacticals))
	sem := make(chan struct{}, s.maxParallel)
	var wg sync.WaitGroup
	for i, device := range tacticals {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, device *models.Device) {
			defer wg.Done()
			defer func() { <-sem }()
			views[i] = s.deviceView(ctx, device, scope)
		}(i, device)
	}
	wg.Wait()

	result := make(map[string]*models.SyncView, len(tacticals))
	for _, view := range views {
		if view != nil {
			result[view.DeviceID] = view
		}
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// GetSyncInfoByID returns the sync view for one device. Devices outside
// the actor's tenant read as not found.
func (s *SyncService) GetSyncInfoByID(ctx context.Context, actor *models.Actor, deviceID string) (*models.SyncView, error) {
	ctx, span := observability.StartServiceSpan(ctx, "sync", "GetSyncInfoByID")
	defer span.End()

	device, err := s.visibleDevice(ctx, actor, deviceID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	scope, err := s.scope.ResolveScope(ctx, actor.TenantID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	result, err := s.resolver.Resolve(ctx, device.ID, scope)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return assembleView(device, result), nil
}

// PutSyncInfo replaces a device's assignment target sets. The target is
// validated against the tenant scope before any write, the three relation
// deltas are applied in one transaction, and the post-write view is
// re-read through the normal read path before observers are notified.
func (s *SyncService) PutSyncInfo(ctx context.Context, actor *models.Actor, req *models.PutSyncRequest) (*models.SyncView, error) {
	ctx, span := observability.StartServiceSpan(ctx, "sync", "PutSyncInfo")
	defer span.End()

	if !actor.IsAdmin() {
		err := fmt.Errorf("%w: assignment updates require the admin role", models.ErrPermissionDenied)
		observability.RecordError(span, err)
		return nil, err
	}

	device, err := s.visibleDevice(ctx, actor, req.DeviceID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	scope, err := s.scope.ResolveScope(ctx, actor.TenantID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if err := s.validateTargets(ctx, actor.TenantID, scope, &req.SyncEntities); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	deltas := models.AssignmentDeltaSet{
		Geofences: Diff(device.SyncedGeofences, req.SyncEntities.Geofences),
		POIs:      Diff(device.SyncedPOIs, req.SyncEntities.POIs),
		Groups:    Diff(device.SyncedGroups, req.SyncEntities.Groups),
	}

	if err := s.assignments.Apply(ctx, device.ID, deltas); err != nil {
		err = fmt.Errorf("%w: apply assignments: %v", models.ErrStoreUnavailable, err)
		observability.RecordError(span, err)
		return nil, err
	}
	s.metrics.RecordAssignmentWrite(ctx, observability.DeviceID(device.ID))

	view, err := s.GetSyncInfoByID(ctx, actor, device.ID)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	view.Delta = &deltas

	s.notifier.NotifyUpdated(ctx, actor, view)
	return view, nil
}

// visibleDevice loads a device and checks it against the actor's permitted
// set. A device in another tenant is indistinguishable from a missing one.
func (s *SyncService) visibleDevice(ctx context.Context, actor *models.Actor, deviceID string) (*models.Device, error) {
	device, err := s.devices.GetByID(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("%w: device lookup: %v", models.ErrStoreUnavailable, err)
	}
	if device == nil || device.TenantID != actor.TenantID {
		return nil, fmt.Errorf("%w: device %s", models.ErrNotFound, deviceID)
	}
	return device, nil
}

// validateTargets rejects target sets referencing ids outside the tenant
// scope before anything is written
func (s *SyncService) validateTargets(ctx context.Context, tenantID string, scope *models.EntityScope, target *models.SyncEntities) error {
	for _, id := range target.Geofences {
		if !scope.HasGeofence(id) {
			return fmt.Errorf("%w: geofence %s not in tenant scope", models.ErrInvalidPayload, id)
		}
	}
	for _, id := range target.POIs {
		if !scope.HasPOI(id) {
			return fmt.Errorf("%w: poi %s not in tenant scope", models.ErrInvalidPayload, id)
		}
	}

	if len(target.Groups) > 0 {
		groupIDs, err := s.entities.GroupIDs(ctx, tenantID)
		if err != nil {
			return fmt.Errorf("%w: group scope: %v", models.ErrStoreUnavailable, err)
		}
		valid := make(map[string]struct{}, len(groupIDs))
		for _, id := range groupIDs {
			valid[id] = struct{}{}
		}
		for _, id := range target.Groups {
			if _, ok := valid[id]; !ok {
				return fmt.Errorf("%w: group %s not in tenant scope", models.ErrInvalidPayload, id)
			}
		}
	}
	return nil
}

// deviceView computes one batch result slot. Resolution failures become
// per-device error markers so the rest of the batch survives.
func (s *SyncService) deviceView(ctx context.Context, device *models.Device, scope *models.EntityScope) *models.SyncView {
	start := time.Now()
	result, err := s.resolver.Resolve(ctx, device.ID, scope)
	s.metrics.RecordResolve(ctx, time.Since(start), err, observability.DeviceID(device.ID))
	if err != nil {
		observability.WithContext(ctx).WithField("device_id", device.ID).
			Errorf("status resolution failed: %v", err)
		return &models.SyncView{
			DeviceID:   device.ID,
			DeviceName: device.Name,
			Status:     models.SyncStatusNA,
			SyncEntities: models.SyncEntities{
				Geofences: device.SyncedGeofences,
				POIs:      device.SyncedPOIs,
				Groups:    device.SyncedGroups,
			},
			Error: err.Error(),
		}
	}
	return assembleView(device, result)
}

func assembleView(device *models.Device, result *StatusResult) *models.SyncView {
	view := &models.SyncView{
		DeviceID:   device.ID,
		DeviceName: device.Name,
		Status:     result.Status,
		SyncEntities: models.SyncEntities{
			Geofences: device.SyncedGeofences,
			POIs:      device.SyncedPOIs,
			Groups:    device.SyncedGroups,
		},
		CurrentSyncs: result.CurrentSyncs,
	}
	if result.Record != nil {
		view.Watermark = result.Record.Watermark
		view.RingSent = result.Record.RingSent
		view.SyncReceived = result.Record.SyncReceived
		view.AckReceived = result.Record.AckReceived
	}
	return view
}
