package destinations

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/travelbooking/internal/domain"
	"github.com/Domenick1991/travelbooking/internal/repository"
)

type DestinationUseCase interface {
	List(ctx context.Context) ([]domain.Destination, error)
	GetByID(ctx context.Context, id int64) (*domain.Destination, error)
}

// Cache returns nil values without error on a miss.
type Cache interface {
	GetDestinations(ctx context.Context) ([]domain.Destination, error)
	SetDestinations(ctx context.Context, destinations []domain.Destination) error
	GetDestination(ctx context.Context, id int64) (*domain.Destination, error)
	SetDestination(ctx context.Context, d *domain.Destination) error
}

type DestinationService struct {
	repo   repository.DestinationRepository
	cache  Cache
	logger *slog.Logger
}

// NewDestinationService builds a read-through catalog. cache may be nil.
func NewDestinationService(repo repository.DestinationRepository, cache Cache, logger *slog.Logger) *DestinationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DestinationService{repo: repo, cache: cache, logger: logger}
}

func (s *DestinationService) List(ctx context.Context) ([]domain.Destination, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDestinations(ctx)
		if err != nil {
			s.logger.WarnContext(ctx, "destination cache read failed", "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	destinations, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetDestinations(ctx, destinations); err != nil {
			s.logger.WarnContext(ctx, "destination cache write failed", "error", err)
		}
	}
	return destinations, nil
}

func (s *DestinationService) GetByID(ctx context.Context, id int64) (*domain.Destination, error) {
	if s.cache != nil {
		cached, err := s.cache.GetDestination(ctx, id)
		if err != nil {
			s.logger.WarnContext(ctx, "destination cache read failed", "destination_id", id, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.SetDestination(ctx, d); err != nil {
			s.logger.WarnContext(ctx, "destination cache write failed", "destination_id", id, "error", err)
		}
	}
	return d, nil
}

var _ DestinationUseCase = (*DestinationService)(nil)
