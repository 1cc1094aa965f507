package recents

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-poi-walks/internal/types"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	GetRecentWalks(ctx context.Context, limit int) (*types.RecentWalksResponse, error)
}

type ServiceImpl struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		repo:   repo,
		logger: logger,
	}
}

// GetRecentWalks clamps limit to [1, MaxLimit]; zero or negative means
// DefaultLimit.
func (s *ServiceImpl) GetRecentWalks(ctx context.Context, limit int) (*types.RecentWalksResponse, error) {
	ctx, span := otel.Tracer("RecentsService").Start(ctx, "GetRecentWalks")
	defer span.End()

	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	span.SetAttributes(attribute.Int("limit", limit))

	walks, err := s.repo.GetRecentWalks(ctx, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get recent walks")
		return nil, err
	}

	s.logger.DebugContext(ctx, "Recent walks retrieved", slog.Int("count", len(walks)))
	span.SetStatus(codes.Ok, "Recent walks retrieved")
	return &types.RecentWalksResponse{Walks: walks, Total: len(walks)}, nil
}
