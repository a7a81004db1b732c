package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sysmap-backend/application/services"
	"sysmap-backend/pkg/common"
	"sysmap-backend/pkg/utils"
)

// ConnectionHandler handles connection-related HTTP requests
type ConnectionHandler struct {
	maps         *services.MapService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(maps *services.MapService, maxBodyBytes int64, logger *zap.Logger) *ConnectionHandler {
	return &ConnectionHandler{
		maps:         maps,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// RemoveConnectionRequest represents the request body for removing a connection
type RemoveConnectionRequest struct {
	Source string `json:"source" validate:"required,min=1"`
	Target string `json:"target" validate:"required,min=1"`
}

// RemoveConnectionResponse represents the response for removing a connection
type RemoveConnectionResponse struct {
	Message           string `json:"message"`
	RemovedConnection struct {
		Source string `json:"source"`
		Target string `json:"target"`
	} `json:"removedConnection"`
	RemainingLinks int `json:"remainingLinks"`
}

// NodeConnections handles GET /api/maps/{mapID}/nodes/{nodeID}/connections
func (h *ConnectionHandler) NodeConnections(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	nodeID := chi.URLParam(r, "nodeID")
	if mapID == "" || nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID and node ID are required")
		return
	}

	view, err := h.maps.NodeConnections(r.Context(), mapID, nodeID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, view)
}

// MapConnections handles GET /api/maps/{mapID}/connections
func (h *ConnectionHandler) MapConnections(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	connections, err := h.maps.MapConnections(r.Context(), mapID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, connections)
}

// RemoveConnection handles DELETE /api/maps/{mapID}/connections
func (h *ConnectionHandler) RemoveConnection(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	var req RemoveConnectionRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Source and target are required")
		return
	}

	result, err := h.maps.RemoveConnection(r.Context(), mapID, req.Source, req.Target)
	if err != nil {
		h.logger.Error("Failed to remove connection",
			zap.String("mapID", mapID),
			zap.String("source", req.Source),
			zap.String("target", req.Target),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	resp := RemoveConnectionResponse{
		Message:        "Connection removed successfully",
		RemainingLinks: result.RemainingLinks,
	}
	resp.RemovedConnection.Source = req.Source
	resp.RemovedConnection.Target = req.Target

	common.RespondJSON(w, http.StatusOK, resp)
}
