// Package ledger charges the wallet and records the booking. It always runs
// inside a transaction owned by the caller so that a failure at any step
// leaves neither a debit nor a booking behind.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/pnr"
	"github.com/Domenick1991/surgefare/internal/repository"
)

type Ledger struct {
	codes pnr.Generator
}

func New(codes pnr.Generator) *Ledger {
	if codes == nil {
		codes = pnr.NewRandom()
	}
	return &Ledger{codes: codes}
}

// Book debits flight.CurrentPrice from the wallet and inserts the booking.
// The flight is a snapshot taken after repricing in the same transaction.
func (l *Ledger) Book(ctx context.Context, tx repository.Tx, wallet domain.WalletHandle, flight domain.Flight, passenger string, now time.Time) (*domain.Receipt, error) {
	w, err := tx.LockWallet(ctx, wallet)
	if err != nil {
		return nil, fmt.Errorf("lock wallet %s: %w", wallet.ID, err)
	}

	price := flight.CurrentPrice
	if w.Balance < price {
		return nil, domain.InsufficientFunds(price, w.Balance)
	}

	balance, ok, err := tx.DebitWallet(ctx, w.ID, price)
	if err != nil {
		return nil, fmt.Errorf("debit wallet %s: %w", w.ID, err)
	}
	if !ok {
		return nil, domain.InsufficientFunds(price, w.Balance)
	}

	booking := domain.Booking{
		PNR:           l.codes.Generate(),
		PassengerName: passenger,
		FlightID:      flight.FlightID,
		Airline:       flight.Airline,
		Route:         flight.Route(),
		FinalPrice:    price,
		BookingTime:   now,
	}
	if err := tx.InsertBooking(ctx, &booking); err != nil {
		if errors.Is(err, repository.ErrDuplicateReference) {
			return nil, domain.ReferenceCollision(booking.PNR, err)
		}
		return nil, fmt.Errorf("insert booking: %w", err)
	}

	return &domain.Receipt{
		Booking:         booking,
		PreviousBalance: w.Balance,
		CurrentBalance:  balance,
	}, nil
}
