package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sysmap-backend/domain/redaction"
	"sysmap-backend/infrastructure/persistence/maps"
	"sysmap-backend/infrastructure/persistence/shares"
	apperrors "sysmap-backend/pkg/errors"
	"sysmap-backend/pkg/observability"
	"sysmap-backend/pkg/ratelimit"
)

// ShareResult is returned to the caller that created a redacted share
type ShareResult struct {
	RedactedID string `json:"redactedId"`
	PublicURL  string `json:"publicUrl"`
}

// ShareConfig carries the tunables for redacted sharing
type ShareConfig struct {
	TTL           time.Duration
	PublicBaseURL string
	LimitWindow   time.Duration
	LimitMax      int
	EnableIndex   bool
}

// ShareService creates and serves redacted snapshots. Creation is
// guarded by the rate limiter; reads touch only the public snapshot key.
type ShareService struct {
	mapsRepo   *maps.Repository
	sharesRepo *shares.Repository
	limiter    ratelimit.Limiter
	cfg        ShareConfig
	metrics    *observability.Collector
	logger     *zap.Logger
}

// NewShareService creates the service
func NewShareService(
	mapsRepo *maps.Repository,
	sharesRepo *shares.Repository,
	limiter ratelimit.Limiter,
	cfg ShareConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *ShareService {
	return &ShareService{
		mapsRepo:   mapsRepo,
		sharesRepo: sharesRepo,
		limiter:    limiter,
		cfg:        cfg,
		metrics:    metrics,
		logger:     logger,
	}
}

// CreateShare builds and persists an anonymized snapshot of a map.
// clientKey identifies the caller for rate limiting (source address).
func (s *ShareService) CreateShare(ctx context.Context, mapID, clientKey string, config map[string]interface{}) (*ShareResult, error) {
	allowed, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		return nil, apperrors.Wrap(err, "rate limiter")
	}
	if !allowed {
		s.metrics.SharesDenied.Inc()
		return nil, apperrors.NewRateLimitError(s.cfg.LimitMax, s.cfg.LimitWindow.String())
	}

	m, err := s.mapsRepo.GetMap(ctx, mapID)
	if err != nil {
		return nil, err
	}

	redactedID := uuid.New().String()
	snapshot := redaction.Redact(m, redactedID, config)

	if err := s.sharesRepo.SaveSnapshot(ctx, snapshot, m.ID, s.cfg.TTL); err != nil {
		return nil, err
	}

	if s.cfg.EnableIndex {
		if err := s.sharesRepo.AddToIndex(ctx, m.ID, redactedID, s.cfg.TTL); err != nil {
			// The share itself is live; a missing index entry only
			// degrades cleanup tooling.
			s.logger.Warn("failed to index redacted share",
				zap.String("redactedID", redactedID),
				zap.Error(err),
			)
		}
	}

	s.metrics.SharesCreated.Inc()
	s.logger.Info("created redacted share",
		zap.String("mapID", mapID),
		zap.String("redactedID", redactedID),
	)

	return &ShareResult{
		RedactedID: redactedID,
		PublicURL:  s.cfg.PublicBaseURL + "/redacted/" + redactedID,
	}, nil
}

// GetShare returns the public snapshot, or NotFound when it is absent
// or expired. It never reads the reverse-link key.
func (s *ShareService) GetShare(ctx context.Context, redactedID string) (*redaction.RedactedMap, error) {
	return s.sharesRepo.GetSnapshot(ctx, redactedID)
}

// ListShares returns the known share ids of a map. Only available when
// the index feature is enabled.
func (s *ShareService) ListShares(ctx context.Context, mapID string) ([]string, error) {
	if !s.cfg.EnableIndex {
		return nil, apperrors.NewValidationError("the redacted share index is disabled")
	}
	return s.sharesRepo.ListIndex(ctx, mapID)
}
