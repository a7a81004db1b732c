// Package maps persists system-map documents and their metadata
// projection through the key-value store port.
package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sysmap-backend/domain/sysmap"
	"sysmap-backend/infrastructure/store"
	apperrors "sysmap-backend/pkg/errors"
)

// Store key layout
const (
	mapKeyPrefix   = "map:"
	metadataSetKey = "maps:list"

	// DefaultMapID names the map seeded on first boot
	DefaultMapID = "default"
)

// Repository loads and saves whole-map documents plus the metadata
// summary hash used by list views
type Repository struct {
	store   store.KVStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewRepository creates a repository over the given store. Every store
// call is bounded by timeout so a dead store fails the request instead
// of hanging it.
func NewRepository(kv store.KVStore, timeout time.Duration, logger *zap.Logger) *Repository {
	return &Repository{
		store:   kv,
		timeout: timeout,
		logger:  logger,
	}
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// storeError maps a raw store failure to the error taxonomy without
// leaking transport details upward
func storeError(op string, err error) error {
	return apperrors.NewUnavailableError("store", fmt.Errorf("%s: %w", op, err))
}

// GetMap loads a full map document
func (r *Repository) GetMap(ctx context.Context, id string) (*sysmap.Map, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := r.store.Get(ctx, mapKeyPrefix+id)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, apperrors.NewNotFoundError("map")
	}
	if err != nil {
		return nil, storeError("get map", err)
	}

	var m sysmap.Map
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.NewInternalError("stored map document is corrupt").WithCause(err)
	}
	return &m, nil
}

// SaveMap persists the full document, then recomputes and persists the
// metadata projection. Both writes carry the same updated timestamp.
// The two keys are not written transactionally; ReconcileMetadata
// repairs drift between them.
func (r *Repository) SaveMap(ctx context.Context, m *sysmap.Map) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	doc, err := json.Marshal(m)
	if err != nil {
		return apperrors.NewInternalError("failed to encode map document").WithCause(err)
	}
	if err := r.store.Set(ctx, mapKeyPrefix+m.ID, doc); err != nil {
		return storeError("save map", err)
	}

	if err := r.saveMetadata(ctx, m.Summary()); err != nil {
		return err
	}
	return nil
}

func (r *Repository) saveMetadata(ctx context.Context, meta sysmap.Metadata) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return apperrors.NewInternalError("failed to encode map metadata").WithCause(err)
	}
	if err := r.store.HSet(ctx, metadataSetKey, meta.ID, data); err != nil {
		return storeError("save map metadata", err)
	}
	return nil
}

// ListMapSummaries returns every metadata entry. Order is unspecified.
func (r *Repository) ListMapSummaries(ctx context.Context) ([]sysmap.Metadata, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	entries, err := r.store.HGetAll(ctx, metadataSetKey)
	if err != nil {
		return nil, storeError("list maps", err)
	}

	summaries := make([]sysmap.Metadata, 0, len(entries))
	for id, data := range entries {
		var meta sysmap.Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			// One corrupt entry should not take down the whole list
			r.logger.Warn("skipping corrupt map metadata entry",
				zap.String("mapID", id),
				zap.Error(err),
			)
			continue
		}
		summaries = append(summaries, meta)
	}
	return summaries, nil
}

// DeleteMap removes both the document and its metadata entry
func (r *Repository) DeleteMap(ctx context.Context, id string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if _, err := r.store.Get(ctx, mapKeyPrefix+id); err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return apperrors.NewNotFoundError("map")
		}
		return storeError("get map", err)
	}

	if err := r.store.HDelete(ctx, metadataSetKey, id); err != nil {
		return storeError("delete map metadata", err)
	}
	if err := r.store.Delete(ctx, mapKeyPrefix+id); err != nil {
		return storeError("delete map", err)
	}
	return nil
}

// CreateMap assigns a fresh id, applies graph defaults, stamps both
// timestamps, and persists the new map
func (r *Repository) CreateMap(ctx context.Context, name, description string, nodes []sysmap.Node, links []sysmap.Link, maxNodes int) (*sysmap.Map, error) {
	if name == "" {
		name = "Untitled Map"
	}
	if nodes == nil {
		nodes = []sysmap.Node{{ID: "Internet", Group: "External"}}
	}
	if maxNodes > 0 && len(nodes) > maxNodes {
		return nil, apperrors.NewLimitExceededError("node", maxNodes)
	}

	id := "map-" + uuid.New().String()
	m := sysmap.NewMap(id, name, description, nodes, links)

	if err := r.SaveMap(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// EnsureDefaultMap seeds a small starter map on first boot when no maps
// exist yet
func (r *Repository) EnsureDefaultMap(ctx context.Context, name string) error {
	summaries, err := r.ListMapSummaries(ctx)
	if err != nil {
		return err
	}
	if len(summaries) > 0 {
		return nil
	}

	m := sysmap.NewMap(DefaultMapID, name, "Default system map",
		[]sysmap.Node{
			{ID: "Internet", Group: "External"},
			{ID: "Router", Group: "Hardware"},
		},
		[]sysmap.Link{
			{Source: "Internet", Target: "Router"},
		},
	)

	if err := r.SaveMap(ctx, m); err != nil {
		return err
	}
	r.logger.Info("created default map", zap.String("mapID", m.ID))
	return nil
}

// ReconcileMetadata recomputes every metadata entry from its document
// and drops entries whose document no longer exists. It repairs drift
// from a save that wrote the document but failed on the projection; a
// document whose metadata write never landed is invisible to this pass,
// a known limit of the hash-based registry.
func (r *Repository) ReconcileMetadata(ctx context.Context) (int, error) {
	entries, err := r.ListMapSummaries(ctx)
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, meta := range entries {
		m, err := r.GetMap(ctx, meta.ID)
		if apperrors.IsNotFound(err) {
			reconCtx, cancel := r.withTimeout(ctx)
			if derr := r.store.HDelete(reconCtx, metadataSetKey, meta.ID); derr != nil {
				cancel()
				return repaired, storeError("delete stale metadata", derr)
			}
			cancel()
			repaired++
			continue
		}
		if err != nil {
			return repaired, err
		}

		fresh := m.Summary()
		if metadataDrifted(fresh, meta) {
			reconCtx, cancel := r.withTimeout(ctx)
			if serr := r.saveMetadata(reconCtx, fresh); serr != nil {
				cancel()
				return repaired, serr
			}
			cancel()
			repaired++
		}
	}
	return repaired, nil
}

// metadataDrifted reports whether a stored entry no longer matches the
// projection recomputed from the document
func metadataDrifted(fresh, stored sysmap.Metadata) bool {
	return fresh.Name != stored.Name ||
		fresh.Description != stored.Description ||
		fresh.NodeCount != stored.NodeCount ||
		!fresh.Updated.Equal(stored.Updated)
}
