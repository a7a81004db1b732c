// Package shares persists redacted snapshots and their private
// reverse-lookup records, all under the same TTL.
package shares

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sysmap-backend/domain/redaction"
	"sysmap-backend/infrastructure/store"
	apperrors "sysmap-backend/pkg/errors"
)

// Store key layout. The snapshot key is the only one ever served
// publicly; the link and index keys exist for internal cleanup and
// audit tooling and must never be read on a public path.
const (
	snapshotKeyPrefix = "redacted:"
	linkKeyPrefix     = "redacted:link:"
	indexKeyPrefix    = "redacted:index:"
)

// Repository stores redacted share artifacts
type Repository struct {
	store   store.KVStore
	timeout time.Duration
	logger  *zap.Logger
}

// NewRepository creates a repository over the given store
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

func storeError(op string, err error) error {
	return apperrors.NewUnavailableError("store", fmt.Errorf("%s: %w", op, err))
}

// SaveSnapshot persists the public snapshot and the private reverse
// link under the same TTL
func (r *Repository) SaveSnapshot(ctx context.Context, snapshot *redaction.RedactedMap, originalMapID string, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := json.Marshal(snapshot)
	if err != nil {
		return apperrors.NewInternalError("failed to encode redacted snapshot").WithCause(err)
	}

	if err := r.store.SetWithTTL(ctx, snapshotKeyPrefix+snapshot.ID, data, ttl); err != nil {
		return storeError("save redacted snapshot", err)
	}
	if err := r.store.SetWithTTL(ctx, linkKeyPrefix+snapshot.ID, []byte(originalMapID), ttl); err != nil {
		return storeError("save redacted reverse link", err)
	}
	return nil
}

// GetSnapshot reads the public snapshot key only. Snapshot ids are
// always UUIDs; the format check keeps crafted ids like "link:<id>"
// from reaching the private keys that share the prefix.
func (r *Repository) GetSnapshot(ctx context.Context, redactedID string) (*redaction.RedactedMap, error) {
	if uuid.Validate(redactedID) != nil {
		return nil, apperrors.NewNotFoundError("redacted map")
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := r.store.Get(ctx, snapshotKeyPrefix+redactedID)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, apperrors.NewNotFoundError("redacted map")
	}
	if err != nil {
		return nil, storeError("get redacted snapshot", err)
	}

	var snapshot redaction.RedactedMap
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, apperrors.NewInternalError("stored redacted snapshot is corrupt").WithCause(err)
	}
	return &snapshot, nil
}

// AddToIndex records the share in the per-original-map index set
func (r *Repository) AddToIndex(ctx context.Context, originalMapID, redactedID string, ttl time.Duration) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	if err := r.store.SAdd(ctx, indexKeyPrefix+originalMapID, redactedID, ttl); err != nil {
		return storeError("index redacted share", err)
	}
	return nil
}

// ListIndex returns the share ids recorded for a map
func (r *Repository) ListIndex(ctx context.Context, originalMapID string) ([]string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	members, err := r.store.SMembers(ctx, indexKeyPrefix+originalMapID)
	if err != nil {
		return nil, storeError("list redacted shares", err)
	}
	return members, nil
}

// OriginalMapID resolves the private reverse link for cleanup or audit
// tooling. Handlers must never route this to a public response.
func (r *Repository) OriginalMapID(ctx context.Context, redactedID string) (string, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := r.store.Get(ctx, linkKeyPrefix+redactedID)
	if errors.Is(err, store.ErrKeyNotFound) {
		return "", apperrors.NewNotFoundError("redacted map")
	}
	if err != nil {
		return "", storeError("get redacted reverse link", err)
	}
	return string(data), nil
}
