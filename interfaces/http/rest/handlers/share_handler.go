package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sysmap-backend/application/services"
	"sysmap-backend/pkg/common"
)

// ShareHandler handles redacted share HTTP requests
type ShareHandler struct {
	shares       *services.ShareService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewShareHandler creates a new share handler
func NewShareHandler(shares *services.ShareService, maxBodyBytes int64, logger *zap.Logger) *ShareHandler {
	return &ShareHandler{
		shares:       shares,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// CreateShareRequest represents the request body for creating a redacted share
type CreateShareRequest struct {
	Config map[string]interface{} `json:"config,omitempty"`
}

// CreateShare handles POST /api/maps/{mapID}/redacted
func (h *ShareHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	var req CreateShareRequest
	if r.ContentLength > 0 {
		if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
			common.RespondAppError(w, err)
			return
		}
	}

	clientKey := common.ExtractClientIP(r)

	result, err := h.shares.CreateShare(r.Context(), mapID, clientKey, req.Config)
	if err != nil {
		h.logger.Error("Failed to create redacted share",
			zap.String("mapID", mapID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, result)
}

// GetShare handles GET /api/redacted/{redactedID}
//
// Public endpoint. Never logs or returns anything tied to the original
// map, and never exposes the reverse link key.
func (h *ShareHandler) GetShare(w http.ResponseWriter, r *http.Request) {
	redactedID := chi.URLParam(r, "redactedID")
	if redactedID == "" {
		common.RespondError(w, http.StatusBadRequest, "Redacted ID is required")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "SAMEORIGIN")

	snapshot, err := h.shares.GetShare(r.Context(), redactedID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, snapshot)
}

// ListShares handles GET /api/maps/{mapID}/redacted
func (h *ShareHandler) ListShares(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	ids, err := h.shares.ListShares(r.Context(), mapID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"mapId":       mapID,
		"redactedIds": ids,
	})
}
