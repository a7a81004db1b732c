package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sysmap-backend/application/services"
	"sysmap-backend/domain/sysmap"
	"sysmap-backend/pkg/common"
	"sysmap-backend/pkg/utils"
)

// MapHandler handles map-related HTTP requests
type MapHandler struct {
	maps         *services.MapService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewMapHandler creates a new map handler
func NewMapHandler(maps *services.MapService, maxBodyBytes int64, logger *zap.Logger) *MapHandler {
	return &MapHandler{
		maps:         maps,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// CreateMapRequest represents the request body for creating a map
type CreateMapRequest struct {
	Name        string        `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description string        `json:"description,omitempty" validate:"omitempty,max=2000"`
	Nodes       []sysmap.Node `json:"nodes,omitempty"`
	Links       []sysmap.Link `json:"links,omitempty"`
}

// UpdateMapRequest represents the request body for updating map info
type UpdateMapRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
}

// ListMaps handles GET /api/maps
func (h *MapHandler) ListMaps(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.maps.ListMaps(r.Context())
	if err != nil {
		h.logger.Error("Failed to list maps", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, summaries)
}

// CreateMap handles POST /api/maps
func (h *MapHandler) CreateMap(w http.ResponseWriter, r *http.Request) {
	var req CreateMapRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	m, err := h.maps.CreateMap(r.Context(), req.Name, req.Description, req.Nodes, req.Links)
	if err != nil {
		h.logger.Error("Failed to create map", zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, m)
}

// GetMap handles GET /api/maps/{mapID}
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	m, err := h.maps.GetMap(r.Context(), mapID)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, m)
}

// UpdateMap handles PUT /api/maps/{mapID}
func (h *MapHandler) UpdateMap(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	var req UpdateMapRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	info, err := h.maps.UpdateMapInfo(r.Context(), mapID, req.Name, req.Description)
	if err != nil {
		h.logger.Error("Failed to update map", zap.String("mapID", mapID), zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, info)
}

// DeleteMap handles DELETE /api/maps/{mapID}
func (h *MapHandler) DeleteMap(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	if err := h.maps.DeleteMap(r.Context(), mapID); err != nil {
		h.logger.Error("Failed to delete map", zap.String("mapID", mapID), zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// CheckIntegrity handles GET /api/maps/{mapID}/integrity
func (h *MapHandler) CheckIntegrity(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	repair, _ := strconv.ParseBool(r.URL.Query().Get("repair"))

	report, err := h.maps.CheckIntegrity(r.Context(), mapID, repair)
	if err != nil {
		h.logger.Error("Failed to check integrity", zap.String("mapID", mapID), zap.Error(err))
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, report)
}
