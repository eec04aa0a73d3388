package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/pnr"
	"github.com/Domenick1991/surgefare/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTx struct {
	mock.Mock
}

func (m *MockTx) LockFlight(ctx context.Context, flightID string) (*domain.Flight, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockTx) UpdateFlightPrice(ctx context.Context, flightID string, price int64, at time.Time) error {
	return m.Called(ctx, flightID, price, at).Error(0)
}

func (m *MockTx) CountBookingsSince(ctx context.Context, flightID string, since time.Time) (int, error) {
	args := m.Called(ctx, flightID, since)
	return args.Int(0), args.Error(1)
}

func (m *MockTx) LockWallet(ctx context.Context, wallet domain.WalletHandle) (*domain.Wallet, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Wallet), args.Error(1)
}

func (m *MockTx) DebitWallet(ctx context.Context, walletID string, amount int64) (int64, bool, error) {
	args := m.Called(ctx, walletID, amount)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *MockTx) InsertBooking(ctx context.Context, booking *domain.Booking) error {
	return m.Called(ctx, booking).Error(0)
}

var (
	now    = time.Date(2026, 10, 15, 10, 30, 0, 0, time.UTC)
	handle = domain.WalletHandle{ID: domain.DefaultWalletID, DefaultBalance: 50000}
	flight = domain.Flight{
		FlightID:      "AI101",
		Airline:       "Air India",
		DepartureCity: "Delhi",
		ArrivalCity:   "Mumbai",
		BasePrice:     2500,
		CurrentPrice:  2750,
	}
)

func fixedCode(code string) pnr.Generator {
	return pnr.GeneratorFunc(func() string { return code })
}

func TestBook_Success(t *testing.T) {
	ctx := context.Background()
	tx := new(MockTx)
	tx.On("LockWallet", ctx, handle).Return(&domain.Wallet{ID: "main", Balance: 3000}, nil)
	tx.On("DebitWallet", ctx, "main", int64(2750)).Return(int64(250), true, nil)
	tx.On("InsertBooking", ctx, mock.MatchedBy(func(b *domain.Booking) bool {
		return b.PNR == "PNRAB12CD" && b.FinalPrice == 2750 && b.Route == "Delhi → Mumbai" &&
			b.Airline == "Air India" && b.PassengerName == "Asha" && b.BookingTime.Equal(now)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Booking).ID = 7
	}).Return(nil)

	receipt, err := New(fixedCode("PNRAB12CD")).Book(ctx, tx, handle, flight, "Asha", now)

	require.NoError(t, err)
	assert.Equal(t, int64(3000), receipt.PreviousBalance)
	assert.Equal(t, int64(250), receipt.CurrentBalance)
	assert.Equal(t, int64(7), receipt.Booking.ID)
	assert.Equal(t, "PNRAB12CD", receipt.Booking.PNR)
	tx.AssertExpectations(t)
}

func TestBook_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	tx := new(MockTx)
	tx.On("LockWallet", ctx, handle).Return(&domain.Wallet{ID: "main", Balance: 200}, nil)

	_, err := New(fixedCode("PNRAB12CD")).Book(ctx, tx, handle, flight, "Asha", now)

	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	var derr *domain.Error
	require.True(t, errors.As(err, &derr))
	assert.Equal(t, int64(2750), derr.Required)
	assert.Equal(t, int64(200), derr.Available)
	tx.AssertNotCalled(t, "DebitWallet", mock.Anything, mock.Anything, mock.Anything)
	tx.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
}

func TestBook_ConditionalDebitRejected(t *testing.T) {
	ctx := context.Background()
	tx := new(MockTx)
	tx.On("LockWallet", ctx, handle).Return(&domain.Wallet{ID: "main", Balance: 3000}, nil)
	tx.On("DebitWallet", ctx, "main", int64(2750)).Return(int64(0), false, nil)

	_, err := New(fixedCode("PNRAB12CD")).Book(ctx, tx, handle, flight, "Asha", now)

	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)
	tx.AssertNotCalled(t, "InsertBooking", mock.Anything, mock.Anything)
}

func TestBook_DuplicateReference(t *testing.T) {
	ctx := context.Background()
	tx := new(MockTx)
	tx.On("LockWallet", ctx, handle).Return(&domain.Wallet{ID: "main", Balance: 3000}, nil)
	tx.On("DebitWallet", ctx, "main", int64(2750)).Return(int64(250), true, nil)
	tx.On("InsertBooking", ctx, mock.Anything).
		Return(fmt.Errorf("%w: PNRAB12CD", repository.ErrDuplicateReference))

	_, err := New(fixedCode("PNRAB12CD")).Book(ctx, tx, handle, flight, "Asha", now)

	assert.ErrorIs(t, err, domain.ErrReferenceCollision)
	assert.ErrorIs(t, err, repository.ErrDuplicateReference)
}

func TestBook_StorageErrors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection reset")

	t.Run("lock wallet", func(t *testing.T) {
		tx := new(MockTx)
		tx.On("LockWallet", ctx, handle).Return(nil, boom)

		_, err := New(nil).Book(ctx, tx, handle, flight, "Asha", now)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, domain.KindPersistenceFailure, domain.KindOf(err))
	})

	t.Run("insert booking", func(t *testing.T) {
		tx := new(MockTx)
		tx.On("LockWallet", ctx, handle).Return(&domain.Wallet{ID: "main", Balance: 3000}, nil)
		tx.On("DebitWallet", ctx, "main", int64(2750)).Return(int64(250), true, nil)
		tx.On("InsertBooking", ctx, mock.Anything).Return(boom)

		_, err := New(nil).Book(ctx, tx, handle, flight, "Asha", now)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, domain.ErrReferenceCollision)
	})
}

func TestNew_DefaultsToRandomCodes(t *testing.T) {
	ctx := context.Background()
	tx := new(MockTx)
	tx.On("LockWallet", ctx, handle).Return(&domain.Wallet{ID: "main", Balance: 3000}, nil)
	tx.On("DebitWallet", ctx, "main", int64(2750)).Return(int64(250), true, nil)
	tx.On("InsertBooking", ctx, mock.Anything).Return(nil)

	receipt, err := New(nil).Book(ctx, tx, handle, flight, "Asha", now)

	require.NoError(t, err)
	assert.True(t, pnr.Valid(receipt.Booking.PNR), receipt.Booking.PNR)
}
