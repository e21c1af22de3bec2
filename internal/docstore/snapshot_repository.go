package docstore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/observability"
)

// Snapshot collections. Current holds the live unacknowledged session;
// Backup holds a session that was superseded before acknowledgment;
// History is consulted only for a device's very first sync.
const (
	collectionCurrent = "sync_sessions"
	collectionBackup  = "sync_session_backups"
	collectionHistory = "sync_first_history"
)

// SnapshotRepository reads sync-session snapshots. This engine never
// writes to the document store; the device-facing ingest pipeline owns the
// documents.
type SnapshotRepository struct {
	current *mongo.Collection
	backup  *mongo.Collection
	history *mongo.Collection
}

// NewSnapshotRepository creates a new SnapshotRepository
func NewSnapshotRepository(client *Client) *SnapshotRepository {
	db := client.Database()
	return &SnapshotRepository{
		current: db.Collection(collectionCurrent),
		backup:  db.Collection(collectionBackup),
		history: db.Collection(collectionHistory),
	}
}

// Current returns the live session snapshot, or nil if none is pending
func (r *SnapshotRepository) Current(ctx context.Context, deviceID string) (*models.SyncSnapshot, error) {
	return r.find(ctx, r.current, deviceID)
}

// Backup returns the superseded session snapshot, or nil
func (r *SnapshotRepository) Backup(ctx context.Context, deviceID string) (*models.SyncSnapshot, error) {
	return r.find(ctx, r.backup, deviceID)
}

// History returns the first-sync bootstrap snapshot, or nil
func (r *SnapshotRepository) History(ctx context.Context, deviceID string) (*models.SyncSnapshot, error) {
	return r.find(ctx, r.history, deviceID)
}

func (r *SnapshotRepository) find(ctx context.Context, coll *mongo.Collection, deviceID string) (*models.SyncSnapshot, error) {
	ctx, span := observability.StartDocStoreSpan(ctx, "findOne", coll.Name())
	defer span.End()

	var snapshot models.SyncSnapshot
	err := coll.FindOne(ctx, bson.M{"device_id": deviceID}).Decode(&snapshot)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	return &snapshot, nil
}
