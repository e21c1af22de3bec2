package services

import (
	"context"

	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/observability"
	"github.com/fieldsync/server/internal/repository"
)

// SyncUpdatedPayload carries a refreshed per-device sync view
type SyncUpdatedPayload struct {
	DeviceID string           `json:"deviceId"`
	View     *models.SyncView `json:"view"`
}

// SyncDeletedPayload announces that a device's sync view is gone
type SyncDeletedPayload struct {
	DeviceID string `json:"deviceId"`
}

// SyncNotifier fans refreshed sync views out over the websocket hub to
// every admin with visibility of the device. Notification failures are
// logged and swallowed; they never fail the write that triggered them.
type SyncNotifier struct {
	hub   *WebSocketHub
	users repository.UserRepo
}

// NewSyncNotifier creates a new SyncNotifier
func NewSyncNotifier(hub *WebSocketHub, users repository.UserRepo) *SyncNotifier {
	return &SyncNotifier{hub: hub, users: users}
}

// NotifyUpdated pushes the refreshed view to permitted admins
func (n *SyncNotifier) NotifyUpdated(ctx context.Context, actor *models.Actor, view *models.SyncView) {
	recipients := n.recipients(ctx, actor, view.DeviceID)
	msg := WSMessage{
		Type:    WSTypeSyncUpdated,
		Payload: SyncUpdatedPayload{DeviceID: view.DeviceID, View: view},
	}
	for _, userID := range recipients {
		n.hub.SendToUser(userID, msg)
	}
}

// NotifyDeleted pushes a deletion notice to permitted admins
func (n *SyncNotifier) NotifyDeleted(ctx context.Context, actor *models.Actor, deviceID string) {
	recipients := n.recipients(ctx, actor, deviceID)
	msg := WSMessage{
		Type:    WSTypeSyncDeleted,
		Payload: SyncDeletedPayload{DeviceID: deviceID},
	}
	for _, userID := range recipients {
		n.hub.SendToUser(userID, msg)
	}
}

// recipients is the intersection of users with device-level visibility and
// admins in the actor's tenant
func (n *SyncNotifier) recipients(ctx context.Context, actor *models.Actor, deviceID string) []string {
	logger := observability.WithContext(ctx).WithField("device_id", deviceID)

	admins, err := n.users.AdminsForTenant(ctx, actor.TenantID)
	if err != nil {
		logger.Errorf("notifier: admin lookup failed: %v", err)
		return nil
	}
	visible, err := n.users.UserIDsWithDeviceAccess(ctx, deviceID)
	if err != nil {
		logger.Errorf("notifier: device access lookup failed: %v", err)
		return nil
	}

	visibleSet := make(map[string]struct{}, len(visible))
	for _, id := range visible {
		visibleSet[id] = struct{}{}
	}

	var recipients []string
	for _, admin := range admins {
		if _, ok := visibleSet[admin.ID]; ok {
			recipients = append(recipients, admin.ID)
		}
	}
	return recipients
}
