package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"sysmap-backend/application/services"
	"sysmap-backend/domain/sysmap"
	"sysmap-backend/pkg/common"
	"sysmap-backend/pkg/utils"
)

// NodeHandler handles node-related HTTP requests
type NodeHandler struct {
	maps         *services.MapService
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(maps *services.MapService, maxBodyBytes int64, logger *zap.Logger) *NodeHandler {
	return &NodeHandler{
		maps:         maps,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// AddNodeRequest represents the request body for adding a node
type AddNodeRequest struct {
	ID          string   `json:"id,omitempty" validate:"omitempty,min=1,max=200"`
	Group       string   `json:"group,omitempty" validate:"omitempty,max=100"`
	Description string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Attributes  []string `json:"attributes,omitempty" validate:"omitempty,dive,max=200"`
	ParentNodes []string `json:"parentNodes,omitempty" validate:"omitempty,dive,min=1"`
}

// UpdateNodeRequest represents the request body for updating a node
type UpdateNodeRequest struct {
	Group       *string   `json:"group,omitempty" validate:"omitempty,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Attributes  *[]string `json:"attributes,omitempty" validate:"omitempty,dive,max=200"`
	ParentNodes *[]string `json:"parentNodes,omitempty"`
}

// RenameNodeRequest represents the request body for renaming a node
type RenameNodeRequest struct {
	NewID       string    `json:"newId" validate:"required,min=1,max=200"`
	Group       *string   `json:"group,omitempty" validate:"omitempty,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=2000"`
	Attributes  *[]string `json:"attributes,omitempty" validate:"omitempty,dive,max=200"`
	ParentNodes *[]string `json:"parentNodes,omitempty"`
}

// RenameNodeResponse represents the response for renaming a node
type RenameNodeResponse struct {
	Message      string      `json:"message"`
	OldID        string      `json:"oldId"`
	NewID        string      `json:"newId"`
	LinksUpdated int         `json:"linksUpdated"`
	LinksBefore  int         `json:"linksBefore"`
	LinksAfter   int         `json:"linksAfter"`
	Node         sysmap.Node `json:"node"`
}

// AddNode handles POST /api/maps/{mapID}/nodes
func (h *NodeHandler) AddNode(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	if mapID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID is required")
		return
	}

	var req AddNodeRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if req.ID == "" {
		req.ID = fmt.Sprintf("node-%d", time.Now().UnixMilli())
	}

	node := sysmap.Node{
		ID:          req.ID,
		Group:       req.Group,
		Description: req.Description,
		Attributes:  req.Attributes,
	}

	created, err := h.maps.AddNode(r.Context(), mapID, node, req.ParentNodes)
	if err != nil {
		h.logger.Error("Failed to add node",
			zap.String("mapID", mapID),
			zap.String("nodeID", req.ID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusCreated, created)
}

// UpdateNode handles PUT /api/maps/{mapID}/nodes/{nodeID}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	nodeID := chi.URLParam(r, "nodeID")
	if mapID == "" || nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID and node ID are required")
		return
	}

	var req UpdateNodeRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	patch := sysmap.NodePatch{
		Group:       req.Group,
		Description: req.Description,
		Attributes:  req.Attributes,
	}

	updated, err := h.maps.UpdateNode(r.Context(), mapID, nodeID, patch, req.ParentNodes)
	if err != nil {
		h.logger.Error("Failed to update node",
			zap.String("mapID", mapID),
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, updated)
}

// RenameNode handles PUT /api/maps/{mapID}/nodes/{nodeID}/rename
func (h *NodeHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	oldID := chi.URLParam(r, "nodeID")
	if mapID == "" || oldID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID and node ID are required")
		return
	}

	var req RenameNodeRequest
	if err := common.ParseJSONBody(w, r, &req, h.maxBodyBytes); err != nil {
		common.RespondAppError(w, err)
		return
	}

	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	if strings.TrimSpace(req.NewID) == "" {
		common.RespondError(w, http.StatusBadRequest, "New node ID cannot be empty")
		return
	}

	attrs := sysmap.NodePatch{
		Group:       req.Group,
		Description: req.Description,
		Attributes:  req.Attributes,
	}

	result, err := h.maps.RenameNode(r.Context(), mapID, oldID, strings.TrimSpace(req.NewID), attrs, req.ParentNodes)
	if err != nil {
		h.logger.Error("Failed to rename node",
			zap.String("mapID", mapID),
			zap.String("oldID", oldID),
			zap.String("newID", req.NewID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	common.RespondJSON(w, http.StatusOK, RenameNodeResponse{
		Message:      "Node renamed successfully",
		OldID:        result.OldID,
		NewID:        result.NewID,
		LinksUpdated: result.LinksUpdated,
		LinksBefore:  result.LinksBefore,
		LinksAfter:   result.LinksAfter,
		Node:         result.Node,
	})
}

// DeleteNode handles DELETE /api/maps/{mapID}/nodes/{nodeID}
func (h *NodeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	mapID := chi.URLParam(r, "mapID")
	nodeID := chi.URLParam(r, "nodeID")
	if mapID == "" || nodeID == "" {
		common.RespondError(w, http.StatusBadRequest, "Map ID and node ID are required")
		return
	}

	if err := h.maps.DeleteNode(r.Context(), mapID, nodeID); err != nil {
		h.logger.Error("Failed to delete node",
			zap.String("mapID", mapID),
			zap.String("nodeID", nodeID),
			zap.Error(err),
		)
		common.RespondAppError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
