// Package services orchestrates repository reads, domain mutations, and
// persistence for the HTTP layer.
package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sysmap-backend/domain/sysmap"
	"sysmap-backend/infrastructure/persistence/maps"
	"sysmap-backend/pkg/observability"
	"sysmap-backend/pkg/utils"
)

// MapInfo is the reduced view returned by metadata updates
type MapInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Updated     time.Time `json:"updated"`
}

// MapService owns every read-modify-write sequence against map
// documents. A per-map-id mutex serializes concurrent mutations of the
// same map inside this process, so interleaved edits cannot silently
// drop each other's writes.
type MapService struct {
	repo     *maps.Repository
	locks    *utils.KeyedMutex
	maxNodes int
	metrics  *observability.Collector
	logger   *zap.Logger
}

// NewMapService creates the service
func NewMapService(repo *maps.Repository, maxNodes int, metrics *observability.Collector, logger *zap.Logger) *MapService {
	return &MapService{
		repo:     repo,
		locks:    utils.NewKeyedMutex(),
		maxNodes: maxNodes,
		metrics:  metrics,
		logger:   logger,
	}
}

// ListMaps returns the metadata summaries of every map
func (s *MapService) ListMaps(ctx context.Context) ([]sysmap.Metadata, error) {
	return s.repo.ListMapSummaries(ctx)
}

// GetMap loads a full map document
func (s *MapService) GetMap(ctx context.Context, id string) (*sysmap.Map, error) {
	return s.repo.GetMap(ctx, id)
}

// CreateMap creates and persists a new map
func (s *MapService) CreateMap(ctx context.Context, name, description string, nodes []sysmap.Node, links []sysmap.Link) (*sysmap.Map, error) {
	return s.repo.CreateMap(ctx, name, description, nodes, links, s.maxNodes)
}

// UpdateMapInfo updates the map's name and/or description
func (s *MapService) UpdateMapInfo(ctx context.Context, id string, name, description *string) (*MapInfo, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	m, err := s.repo.GetMap(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil {
		m.Name = *name
	}
	if description != nil {
		m.Description = *description
	}
	m.Touch()

	if err := s.repo.SaveMap(ctx, m); err != nil {
		return nil, err
	}

	return &MapInfo{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Updated:     m.Updated,
	}, nil
}

// DeleteMap removes a map and its metadata entry
func (s *MapService) DeleteMap(ctx context.Context, id string) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	return s.repo.DeleteMap(ctx, id)
}

// AddNode appends a node and its parent links to a map
func (s *MapService) AddNode(ctx context.Context, mapID string, node sysmap.Node, parentIDs []string) (*sysmap.Node, error) {
	unlock := s.locks.Lock(mapID)
	defer unlock()

	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	if err := m.AddNode(node, parentIDs, s.maxNodes); err != nil {
		return nil, err
	}
	if err := s.repo.SaveMap(ctx, m); err != nil {
		return nil, err
	}

	s.metrics.NodesCreated.Inc()
	s.logger.Info("node added",
		zap.String("mapID", mapID),
		zap.String("nodeID", node.ID),
	)

	added := m.FindNode(node.ID)
	return added, nil
}

// UpdateNode patches a node and optionally replaces its parent links
func (s *MapService) UpdateNode(ctx context.Context, mapID, nodeID string, patch sysmap.NodePatch, parentIDs *[]string) (*sysmap.Node, error) {
	unlock := s.locks.Lock(mapID)
	defer unlock()

	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	node, err := m.UpdateNode(nodeID, patch, parentIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveMap(ctx, m); err != nil {
		return nil, err
	}

	return node, nil
}

// RenameNode changes a node's identity while rewriting every link that
// references it
func (s *MapService) RenameNode(ctx context.Context, mapID, oldID, newID string, attrs sysmap.NodePatch, parentIDs *[]string) (*sysmap.RenameResult, error) {
	unlock := s.locks.Lock(mapID)
	defer unlock()

	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	result, err := m.RenameNode(oldID, newID, attrs, parentIDs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveMap(ctx, m); err != nil {
		return nil, err
	}

	s.metrics.NodesRenamed.Inc()
	s.logger.Info("node renamed",
		zap.String("mapID", mapID),
		zap.String("oldID", oldID),
		zap.String("newID", newID),
		zap.Int("linksBefore", result.LinksBefore),
		zap.Int("linksAfter", result.LinksAfter),
	)

	return result, nil
}

// DeleteNode removes a node and every link touching it
func (s *MapService) DeleteNode(ctx context.Context, mapID, nodeID string) error {
	unlock := s.locks.Lock(mapID)
	defer unlock()

	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return err
	}

	if err := m.DeleteNode(nodeID); err != nil {
		return err
	}
	if err := s.repo.SaveMap(ctx, m); err != nil {
		return err
	}

	s.metrics.NodesDeleted.Inc()
	return nil
}

// RemoveConnection removes all links matching the exact pair
func (s *MapService) RemoveConnection(ctx context.Context, mapID, source, target string) (*sysmap.RemoveLinkResult, error) {
	unlock := s.locks.Lock(mapID)
	defer unlock()

	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	result, err := m.RemoveLink(source, target)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveMap(ctx, m); err != nil {
		return nil, err
	}

	return result, nil
}

// NodeConnections returns the enriched neighborhood of one node
func (s *MapService) NodeConnections(ctx context.Context, mapID, nodeID string) (*sysmap.ConnectionView, error) {
	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	return m.Connections(nodeID)
}

// MapConnections returns every link of a map with enriched endpoints
func (s *MapService) MapConnections(ctx context.Context, mapID string) (*sysmap.MapConnections, error) {
	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}
	return m.AllConnections(), nil
}

// CheckIntegrity partitions a map's links into valid and orphaned.
// When repair is true the orphaned links are dropped and the map saved.
func (s *MapService) CheckIntegrity(ctx context.Context, mapID string, repair bool) (*sysmap.IntegrityReport, error) {
	unlock := s.locks.Lock(mapID)
	defer unlock()

	m, err := s.repo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	report := m.ValidateIntegrity()
	if repair && !report.Consistent() {
		m.Links = report.ValidLinks
		m.Touch()
		if err := s.repo.SaveMap(ctx, m); err != nil {
			return nil, err
		}
		s.logger.Warn("dropped orphaned links",
			zap.String("mapID", mapID),
			zap.Int("orphaned", len(report.OrphanedLinks)),
		)
	}
	return report, nil
}
