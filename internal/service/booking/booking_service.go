package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/kafka"
	"github.com/Domenick1991/surgefare/internal/ledger"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/Domenick1991/surgefare/internal/metrics"
	"github.com/Domenick1991/surgefare/internal/pnr"
	"github.com/Domenick1991/surgefare/internal/pricing"
	"github.com/Domenick1991/surgefare/internal/repository"
	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	defaultMaxAttempts = 3
	publishTimeout     = 5 * time.Second
)

type BookingUseCase interface {
	BookFlight(ctx context.Context, input BookFlightInput) (*domain.Confirmation, error)
	RecomputePrice(ctx context.Context, flightID string) (*domain.PriceUpdate, error)
	History(ctx context.Context) ([]domain.Booking, error)
	GetByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
	Wallet(ctx context.Context) (*domain.Wallet, error)
	ResetExpiredSurges(ctx context.Context) ([]domain.PriceUpdate, error)
}

// Cache is the part of the search cache the booking flow needs: every price
// change makes cached searches stale.
type Cache interface {
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

type Topics struct {
	Bookings      string
	Notifications string
	Pricing       string
}

type BookFlightInput struct {
	FlightID      string `json:"flightId"`
	PassengerName string `json:"passengerName"`
}

type BookingService struct {
	store       repository.Store
	ledger      *ledger.Ledger
	policy      pricing.Policy
	wallet      domain.WalletHandle
	maxAttempts int
	cache       Cache
	producer    Producer
	topics      Topics
	now         func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithPolicy(policy pricing.Policy) BookingServiceOption {
	return func(s *BookingService) {
		s.policy = policy
	}
}

func WithWallet(wallet domain.WalletHandle) BookingServiceOption {
	return func(s *BookingService) {
		s.wallet = wallet
	}
}

// WithMaxAttempts bounds how many reference codes are tried per booking.
func WithMaxAttempts(n int) BookingServiceOption {
	return func(s *BookingService) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

func WithCodes(codes pnr.Generator) BookingServiceOption {
	return func(s *BookingService) {
		s.ledger = ledger.New(codes)
	}
}

func WithCache(cache Cache) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
	}
}

func WithProducer(producer Producer, topics Topics) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.topics = topics
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(store repository.Store, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		store:       store,
		ledger:      ledger.New(pnr.NewRandom()),
		policy:      pricing.DefaultPolicy(),
		wallet:      domain.WalletHandle{ID: domain.DefaultWalletID, DefaultBalance: 50000},
		maxAttempts: defaultMaxAttempts,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// BookFlight reprices the flight and charges the wallet in one transaction.
// Reference collisions are retried with a fresh transaction.
func (s *BookingService) BookFlight(ctx context.Context, input BookFlightInput) (*domain.Confirmation, error) {
	start := time.Now()
	conf, err := s.bookFlight(ctx, input)
	metrics.BookingDuration.Observe(time.Since(start).Seconds())
	metrics.BookingsTotal.WithLabelValues(outcome(err)).Inc()
	return conf, err
}

func (s *BookingService) bookFlight(ctx context.Context, input BookFlightInput) (*domain.Confirmation, error) {
	flightID := strings.TrimSpace(input.FlightID)
	passenger := strings.TrimSpace(input.PassengerName)
	if flightID == "" || passenger == "" {
		return nil, domain.InvalidRequest("passengerName and flightId are required")
	}

	ctx = logger.WithFields(ctx, logrus.Fields{"flight_id": flightID})
	log := logger.FromContext(ctx)

	if _, err := s.store.GetFlight(ctx, flightID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.FlightNotFound(flightID)
		}
		return nil, s.persistence(ctx, "lookup flight", err)
	}

	var (
		conf    *domain.Confirmation
		attempt int
	)
	op := func() error {
		attempt++
		c, err := s.bookOnce(ctx, flightID, passenger)
		if err == nil {
			conf = c
			return nil
		}
		if errors.Is(err, domain.ErrReferenceCollision) {
			metrics.ReferenceCollisions.Inc()
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(err error, _ time.Duration) {
		log.WithError(err).WithField("attempt", attempt).Warn("booking reference collision, retrying")
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(s.maxAttempts-1)), ctx)
	err := backoff.RetryNotify(op, policy, notify)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrReferenceCollision):
		log.WithField("attempts", attempt).Error("booking reference generation exhausted")
		return nil, domain.ReferenceExhausted(s.maxAttempts, err)
	case isDomainError(err):
		return nil, err
	default:
		return nil, s.persistence(ctx, "book flight", err)
	}

	log.WithFields(logrus.Fields{
		"pnr":         conf.Booking.PNR,
		"final_price": conf.Booking.FinalPrice,
		"balance":     conf.WalletCurrentBalance,
	}).Info("flight booked")

	s.afterPricing(ctx, conf.Pricing)
	s.publishBooking(ctx, conf.Booking)
	return conf, nil
}

func (s *BookingService) bookOnce(ctx context.Context, flightID, passenger string) (*domain.Confirmation, error) {
	now := s.now().UTC()

	var (
		receipt *domain.Receipt
		update  domain.PriceUpdate
	)
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		flight, u, err := s.reprice(ctx, tx, flightID, now)
		if err != nil {
			return err
		}
		r, err := s.ledger.Book(ctx, tx, s.wallet, flight, passenger, now)
		if err != nil {
			return err
		}
		receipt, update = r, u
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &domain.Confirmation{
		Booking:               receipt.Booking,
		WalletPreviousBalance: receipt.PreviousBalance,
		WalletCurrentBalance:  receipt.CurrentBalance,
		Deducted:              receipt.Booking.FinalPrice,
		Pricing:               update,
	}, nil
}

// reprice locks the flight row, applies the pricing rules and persists the
// result. It returns the flight as it stands after the decision.
func (s *BookingService) reprice(ctx context.Context, tx repository.Tx, flightID string, now time.Time) (domain.Flight, domain.PriceUpdate, error) {
	f, err := tx.LockFlight(ctx, flightID)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Flight{}, domain.PriceUpdate{}, domain.FlightNotFound(flightID)
	}
	if err != nil {
		return domain.Flight{}, domain.PriceUpdate{}, fmt.Errorf("lock flight: %w", err)
	}

	recent, err := tx.CountBookingsSince(ctx, flightID, s.policy.WindowStart(now))
	if err != nil {
		return domain.Flight{}, domain.PriceUpdate{}, err
	}

	decision := s.policy.Recompute(*f, now, recent)
	if decision.Persist() {
		if err := tx.UpdateFlightPrice(ctx, flightID, decision.NewPrice, now); err != nil {
			return domain.Flight{}, domain.PriceUpdate{}, err
		}
	}
	return decision.Apply(*f, now), decision.Update(*f, recent), nil
}

func (s *BookingService) RecomputePrice(ctx context.Context, flightID string) (*domain.PriceUpdate, error) {
	flightID = strings.TrimSpace(flightID)
	if flightID == "" {
		return nil, domain.InvalidRequest("flightId is required")
	}
	ctx = logger.WithFields(ctx, logrus.Fields{"flight_id": flightID})

	now := s.now().UTC()
	var update domain.PriceUpdate
	err := s.store.InTx(ctx, func(tx repository.Tx) error {
		_, u, err := s.reprice(ctx, tx, flightID, now)
		update = u
		return err
	})
	if err != nil {
		if isDomainError(err) {
			return nil, err
		}
		return nil, s.persistence(ctx, "recompute price", err)
	}

	s.afterPricing(ctx, update)
	return &update, nil
}

// ResetExpiredSurges recomputes every surged flight and returns the updates
// that changed a price. Failures for one flight do not stop the sweep.
func (s *BookingService) ResetExpiredSurges(ctx context.Context) ([]domain.PriceUpdate, error) {
	surged, err := s.store.ListSurgedFlights(ctx)
	if err != nil {
		return nil, s.persistence(ctx, "list surged flights", err)
	}

	var (
		changed []domain.PriceUpdate
		errs    []error
	)
	for _, f := range surged {
		update, err := s.RecomputePrice(ctx, f.FlightID)
		if err != nil {
			errs = append(errs, fmt.Errorf("flight %s: %w", f.FlightID, err))
			continue
		}
		if update.Changed() {
			changed = append(changed, *update)
		}
	}
	return changed, errors.Join(errs...)
}

func (s *BookingService) History(ctx context.Context) ([]domain.Booking, error) {
	bookings, err := s.store.ListBookings(ctx)
	if err != nil {
		return nil, s.persistence(ctx, "list bookings", err)
	}
	return bookings, nil
}

func (s *BookingService) GetByPNR(ctx context.Context, code string) (*domain.Booking, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.InvalidRequest("PNR is required")
	}
	b, err := s.store.GetBookingByPNR(ctx, code)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.BookingNotFound(code)
	}
	if err != nil {
		return nil, s.persistence(ctx, "get booking", err)
	}
	return b, nil
}

// Wallet reads the balance without creating the wallet.
func (s *BookingService) Wallet(ctx context.Context) (*domain.Wallet, error) {
	w, err := s.store.GetWallet(ctx, s.wallet.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return &domain.Wallet{ID: s.wallet.ID, Balance: s.wallet.DefaultBalance}, nil
	}
	if err != nil {
		return nil, s.persistence(ctx, "get wallet", err)
	}
	return w, nil
}

func (s *BookingService) afterPricing(ctx context.Context, update domain.PriceUpdate) {
	metrics.PricingActions.WithLabelValues(string(update.Action)).Inc()
	if !update.Changed() {
		return
	}

	log := logger.FromContext(ctx).WithFields(logrus.Fields{
		"action":        update.Action,
		"current_price": update.CurrentPrice,
	})
	log.Info("flight price changed")

	if s.cache != nil {
		if err := s.cache.InvalidateFlights(ctx); err != nil {
			log.WithError(err).Warn("failed to invalidate flight cache")
		}
	}
	s.publish(ctx, s.topics.Pricing, update.FlightID, kafka.NewPriceEvent(update, s.now().UTC()))
}

func (s *BookingService) publishBooking(ctx context.Context, b domain.Booking) {
	event := kafka.NewBookingEvent(kafka.EventBookingCreated, b)
	s.publish(ctx, s.topics.Bookings, b.PNR, event)
	s.publish(ctx, s.topics.Notifications, b.PNR, event)
}

// publish never fails the caller: the booking is already committed.
func (s *BookingService) publish(ctx context.Context, topic, key string, event any) {
	if s.producer == nil || topic == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.producer.Publish(ctx, topic, key, event); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("topic", topic).Warn("failed to publish event")
	}
}

func (s *BookingService) persistence(ctx context.Context, op string, err error) error {
	logger.FromContext(ctx).WithError(err).Error(op + " failed")
	return domain.Persistence(fmt.Errorf("%s: %w", op, err))
}

func isDomainError(err error) bool {
	var derr *domain.Error
	return errors.As(err, &derr)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, domain.ErrInvalidRequest):
		return metrics.OutcomeInvalid
	case errors.Is(err, domain.ErrFlightNotFound):
		return metrics.OutcomeFlightNotFound
	case errors.Is(err, domain.ErrInsufficientFunds):
		return metrics.OutcomeInsufficientFunds
	case errors.Is(err, domain.ErrReferenceExhausted):
		return metrics.OutcomeReferenceExhausted
	default:
		return metrics.OutcomeError
	}
}

var _ BookingUseCase = (*BookingService)(nil)
