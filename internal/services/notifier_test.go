package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldsync/server/internal/models"
)

func notifierUsers() *fakeUserRepo {
	return &fakeUserRepo{
		admins: map[string][]*models.User{
			"tenant-1": {
				{ID: "admin-1", TenantID: "tenant-1", Role: models.RoleAdmin},
				{ID: "admin-2", TenantID: "tenant-1", Role: models.RoleAdmin},
			},
		},
		deviceAccess: map[string][]string{
			"dev-1": {"admin-1", "operator-1"},
		},
	}
}

func receiveMessage(t *testing.T, client *WSClient) WSMessage {
	t.Helper()
	select {
	case data := <-client.Send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(time.Second):
		t.Fatal("expected a notification")
		return WSMessage{}
	}
}

func assertSilent(t *testing.T, client *WSClient) {
	t.Helper()
	select {
	case <-client.Send:
		t.Fatal("client without device visibility must not be notified")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSyncNotifier_NotifyDeleted(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()

	notifier := NewSyncNotifier(hub, notifierUsers())

	// admin-1 is an admin with access to dev-1; admin-2 is an admin
	// without access; operator-1 has access but no elevated role.
	recipient := hub.NewClient("c1", "admin-1", nil)
	bystander := hub.NewClient("c2", "admin-2", nil)
	hub.Register(recipient)
	hub.Register(bystander)

	notifier.NotifyDeleted(context.Background(), adminActor(), "dev-1")

	msg := receiveMessage(t, recipient)
	assert.Equal(t, WSTypeSyncDeleted, msg.Type)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dev-1", payload["deviceId"])

	assertSilent(t, bystander)
}

func TestSyncNotifier_NotifyUpdated(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()

	notifier := NewSyncNotifier(hub, notifierUsers())

	recipient := hub.NewClient("c1", "admin-1", nil)
	hub.Register(recipient)

	view := &models.SyncView{DeviceID: "dev-1", DeviceName: "Alpha", Status: models.SyncStatusPending}
	notifier.NotifyUpdated(context.Background(), adminActor(), view)

	msg := receiveMessage(t, recipient)
	assert.Equal(t, WSTypeSyncUpdated, msg.Type)
	payload, ok := msg.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "dev-1", payload["deviceId"])
}

func TestSyncNotifier_LookupFailuresAreSwallowed(t *testing.T) {
	hub := NewWebSocketHub()
	go hub.Run()

	notifier := NewSyncNotifier(hub, &fakeUserRepo{err: errors.New("connection refused")})

	recipient := hub.NewClient("c1", "admin-1", nil)
	hub.Register(recipient)

	// Must not panic and must not deliver anything.
	notifier.NotifyDeleted(context.Background(), adminActor(), "dev-1")
	notifier.NotifyUpdated(context.Background(), adminActor(), &models.SyncView{DeviceID: "dev-1"})

	assertSilent(t, recipient)
}
