package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateReference is returned when a booking reference is already taken.
	ErrDuplicateReference = errors.New("duplicate booking reference")
)

const defaultFlightLimit = 10

type FlightRepository interface {
	GetFlight(ctx context.Context, flightID string) (*domain.Flight, error)
	ListFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error)
	ListSurgedFlights(ctx context.Context) ([]domain.Flight, error)
	// UpsertFlight creates the flight or leaves an existing one untouched.
	UpsertFlight(ctx context.Context, flight domain.Flight) error
}

type BookingRepository interface {
	ListBookings(ctx context.Context) ([]domain.Booking, error)
	GetBookingByPNR(ctx context.Context, pnr string) (*domain.Booking, error)
}

type WalletRepository interface {
	GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error)
}

// Tx is the set of writes allowed inside a booking transaction. Rows read
// through Lock* stay locked until the transaction ends.
type Tx interface {
	LockFlight(ctx context.Context, flightID string) (*domain.Flight, error)
	UpdateFlightPrice(ctx context.Context, flightID string, price int64, at time.Time) error
	CountBookingsSince(ctx context.Context, flightID string, since time.Time) (int, error)
	// LockWallet creates the wallet with its default balance if it is missing.
	LockWallet(ctx context.Context, wallet domain.WalletHandle) (*domain.Wallet, error)
	// DebitWallet subtracts amount only if the balance covers it. ok is false otherwise.
	DebitWallet(ctx context.Context, walletID string, amount int64) (balance int64, ok bool, err error)
	InsertBooking(ctx context.Context, booking *domain.Booking) error
}

type Store interface {
	FlightRepository
	BookingRepository
	WalletRepository
	// InTx commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(tx Tx) error) error
	Migrate(ctx context.Context) error
	Close() error
}

func flightLimit(filter domain.FlightFilter) int {
	if filter.Limit <= 0 {
		return defaultFlightLimit
	}
	return filter.Limit
}
