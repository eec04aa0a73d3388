package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/postgres.sql
var postgresSchema string

const (
	pgUniqueViolation = "23505"
	pgPNRConstraint   = "bookings_pnr_key"
)

// pgQuerier is satisfied by both *pgxpool.Pool and pgx.Tx.
type pgQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PGStore struct {
	db *pgxpool.Pool
}

func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Migrate(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *PGStore) Close() error {
	s.db.Close()
	return nil
}

// InTx runs fn in a read committed transaction. Row locks taken through Tx
// serialize conflicting bookings.
func (s *PGStore) InTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
	}()

	if err = fn(&pgTx{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PGStore) GetFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	return pgGetFlight(ctx, s.db, flightID, false)
}

func (s *PGStore) ListFlights(ctx context.Context, filter domain.FlightFilter) ([]domain.Flight, error) {
	return pgListFlights(ctx, s.db, filter)
}

func (s *PGStore) ListSurgedFlights(ctx context.Context) ([]domain.Flight, error) {
	return pgListSurgedFlights(ctx, s.db)
}

func (s *PGStore) UpsertFlight(ctx context.Context, flight domain.Flight) error {
	return pgUpsertFlight(ctx, s.db, flight)
}

func (s *PGStore) ListBookings(ctx context.Context) ([]domain.Booking, error) {
	return pgListBookings(ctx, s.db)
}

func (s *PGStore) GetBookingByPNR(ctx context.Context, pnr string) (*domain.Booking, error) {
	return pgGetBookingByPNR(ctx, s.db, pnr)
}

func (s *PGStore) GetWallet(ctx context.Context, walletID string) (*domain.Wallet, error) {
	return pgGetWallet(ctx, s.db, walletID, false)
}

type pgTx struct {
	q pgQuerier
}

func (t *pgTx) LockFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	return pgGetFlight(ctx, t.q, flightID, true)
}

func (t *pgTx) UpdateFlightPrice(ctx context.Context, flightID string, price int64, at time.Time) error {
	return pgUpdateFlightPrice(ctx, t.q, flightID, price, at)
}

func (t *pgTx) CountBookingsSince(ctx context.Context, flightID string, since time.Time) (int, error) {
	return pgCountBookingsSince(ctx, t.q, flightID, since)
}

func (t *pgTx) LockWallet(ctx context.Context, wallet domain.WalletHandle) (*domain.Wallet, error) {
	if _, err := t.q.Exec(ctx, `INSERT INTO wallets (id, balance) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING`, wallet.ID, wallet.DefaultBalance); err != nil {
		return nil, fmt.Errorf("ensure wallet: %w", err)
	}
	return pgGetWallet(ctx, t.q, wallet.ID, true)
}

func (t *pgTx) DebitWallet(ctx context.Context, walletID string, amount int64) (int64, bool, error) {
	return pgDebitWallet(ctx, t.q, walletID, amount)
}

func (t *pgTx) InsertBooking(ctx context.Context, booking *domain.Booking) error {
	return pgInsertBooking(ctx, t.q, booking)
}

func isPNRViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == pgPNRConstraint
}

var (
	_ Store = (*PGStore)(nil)
	_ Tx    = (*pgTx)(nil)
)
