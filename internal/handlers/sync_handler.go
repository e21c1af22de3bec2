package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fieldsync/server/internal/middleware"
	"github.com/fieldsync/server/internal/models"
	"github.com/fieldsync/server/internal/observability"
	"github.com/fieldsync/server/internal/services"
)

// SyncHandler exposes the sync reconciliation endpoints
type SyncHandler struct {
	syncService  *services.SyncService
	queryTimeout time.Duration
}

// NewSyncHandler creates a new SyncHandler. queryTimeout bounds the store
// work done on behalf of one request.
func NewSyncHandler(syncService *services.SyncService, queryTimeout time.Duration) *SyncHandler {
	if queryTimeout <= 0 {
		queryTimeout = 10 * time.Second
	}
	return &SyncHandler{syncService: syncService, queryTimeout: queryTimeout}
}

// GetSyncInfo returns the sync view for every device the actor can see
// @Summary Fleet sync info
// @Description Per-device sync status and assignments for the actor's fleet
// @Tags sync
// @Produce json
// @Success 200 {object} map[string]models.SyncView
// @Failure 401 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/sync [get]
func (h *SyncHandler) GetSyncInfo(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	views, err := h.syncService.GetSyncInfo(ctx, actor)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

// GetSyncInfoByID returns the sync view for one device
// @Summary Device sync info
// @Description Sync status and assignments for a single device
// @Tags sync
// @Produce json
// @Param deviceId path string true "Device ID"
// @Success 200 {object} models.SyncView
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/sync/{deviceId} [get]
func (h *SyncHandler) GetSyncInfoByID(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	deviceID := chi.URLParam(r, "deviceId")
	if deviceID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Device ID required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	view, err := h.syncService.GetSyncInfoByID(ctx, actor, deviceID)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// PutSyncInfo replaces a device's assignment target sets
// @Summary Update device assignments
// @Description Replace the geofence/POI/group target sets for a device
// @Tags sync
// @Accept json
// @Produce json
// @Param request body models.PutSyncRequest true "Target sets"
// @Success 200 {object} models.SyncView
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security ApiKeyAuth
// @Router /api/sync [put]
func (h *SyncHandler) PutSyncInfo(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetActorFromContext(r.Context())
	if actor == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.PutSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return
	}
	if req.DeviceID == "" {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Device ID is required"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.queryTimeout)
	defer cancel()

	view, err := h.syncService.PutSyncInfo(ctx, actor, &req)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (h *SyncHandler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrInvalidPayload):
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrStoreUnavailable):
		observability.WithContext(ctx).Errorf("store unavailable: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, models.ErrorResponse{Error: "Store unavailable"})
	default:
		observability.WithContext(ctx).Errorf("sync request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
