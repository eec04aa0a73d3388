package flights

import (
	"context"
	"errors"
	"strings"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/Domenick1991/surgefare/internal/repository"
)

// MaxResults caps a search the same way storage does by default.
const MaxResults = 10

type FlightUseCase interface {
	Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	Get(ctx context.Context, flightID string) (*domain.Flight, error)
}

type FlightCache interface {
	GetFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, int64, bool, error)
	SetFlights(ctx context.Context, gen int64, filter domain.FlightFilter, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type FlightService struct {
	repo  repository.FlightRepository
	cache FlightCache
}

func NewFlightService(repo repository.FlightRepository, cache FlightCache) *FlightService {
	return &FlightService{repo: repo, cache: cache}
}

// Search matches cities exactly; an empty city matches any. Cache failures
// fall back to storage. A miss is filled under the generation read before
// storage, so an invalidation in between retires the write.
func (s *FlightService) Search(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	filter.DepartureCity = strings.TrimSpace(filter.DepartureCity)
	filter.ArrivalCity = strings.TrimSpace(filter.ArrivalCity)
	if filter.Limit <= 0 || filter.Limit > MaxResults {
		filter.Limit = MaxResults
	}
	log := logger.FromContext(ctx)

	var (
		gen      int64
		fillable bool
	)
	if s.cache != nil {
		cached, g, ok, err := s.cache.GetFlights(ctx, filter)
		if err != nil {
			log.WithError(err).Warn("flight cache read failed")
		}
		if ok {
			return cached, nil
		}
		gen, fillable = g, err == nil
	}

	flights, err := s.repo.ListFlights(ctx, filter)
	if err != nil {
		log.WithError(err).Error("list flights failed")
		return nil, domain.Persistence(err)
	}
	if fillable {
		if err := s.cache.SetFlights(ctx, gen, filter, flights); err != nil {
			log.WithError(err).Warn("flight cache write failed")
		}
	}
	return flights, nil
}

func (s *FlightService) Get(ctx context.Context, flightID string) (*domain.Flight, error) {
	flightID = strings.TrimSpace(flightID)
	if flightID == "" {
		return nil, domain.InvalidRequest("flightId is required")
	}
	f, err := s.repo.GetFlight(ctx, flightID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.FlightNotFound(flightID)
	}
	if err != nil {
		return nil, domain.Persistence(err)
	}
	return f, nil
}

// Invalidate drops cached searches after prices change outside the booking flow.
func (s *FlightService) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateFlights(ctx)
}

var _ FlightUseCase = (*FlightService)(nil)
