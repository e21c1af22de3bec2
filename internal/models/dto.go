package models

import "time"

// PutSyncRequest for PUT /api/sync
type PutSyncRequest struct {
	DeviceID     string       `json:"deviceId"`
	SyncEntities SyncEntities `json:"syncEntities"`
}

// ErrorResponse is the standard error body
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse for GET /health
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
