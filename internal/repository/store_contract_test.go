package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/pricing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contractNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

var (
	errAbort        = errors.New("abort")
	errInsufficient = errors.New("insufficient balance")
)

const racers = 5

// race starts n goroutines at once and waits for all of them.
func race(n int, fn func(i int)) {
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			fn(i)
		}(i)
	}
	close(start)
	wg.Wait()
}

func seedContractFlights(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	for _, f := range []domain.Flight{
		{FlightID: "AI101", Airline: "Air India", DepartureCity: "Delhi", ArrivalCity: "Mumbai", BasePrice: 2500},
		{FlightID: "IND203", Airline: "IndiGo", DepartureCity: "Mumbai", ArrivalCity: "Bangalore", BasePrice: 2200},
		{FlightID: "AI407", Airline: "Air India", DepartureCity: "Delhi", ArrivalCity: "Kolkata", BasePrice: 2800},
	} {
		require.NoError(t, s.UpsertFlight(ctx, f))
	}
}

// runStoreContract exercises behaviour every Store implementation must share.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("upsert keeps existing flight", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()

		require.NoError(t, s.UpsertFlight(ctx, domain.Flight{FlightID: "AI101", Airline: "Other", DepartureCity: "X", ArrivalCity: "Y", BasePrice: 1}))

		f, err := s.GetFlight(ctx, "AI101")
		require.NoError(t, err)
		assert.Equal(t, "Air India", f.Airline)
		assert.Equal(t, int64(2500), f.BasePrice)
		assert.Equal(t, int64(2500), f.CurrentPrice)
	})

	t.Run("get missing flight", func(t *testing.T) {
		s := newStore(t)
		_, err := s.GetFlight(context.Background(), "NOPE")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list flights filters by city", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()

		all, err := s.ListFlights(ctx, domain.FlightFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 3)

		fromDelhi, err := s.ListFlights(ctx, domain.FlightFilter{DepartureCity: "Delhi"})
		require.NoError(t, err)
		assert.Len(t, fromDelhi, 2)

		route, err := s.ListFlights(ctx, domain.FlightFilter{DepartureCity: "Delhi", ArrivalCity: "Kolkata"})
		require.NoError(t, err)
		require.Len(t, route, 1)
		assert.Equal(t, "AI407", route[0].FlightID)

		limited, err := s.ListFlights(ctx, domain.FlightFilter{Limit: 1})
		require.NoError(t, err)
		assert.Len(t, limited, 1)
	})

	t.Run("price update inside tx is visible after commit", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()

		err := s.InTx(ctx, func(tx Tx) error {
			f, err := tx.LockFlight(ctx, "AI101")
			if err != nil {
				return err
			}
			return tx.UpdateFlightPrice(ctx, f.FlightID, 2750, contractNow)
		})
		require.NoError(t, err)

		f, err := s.GetFlight(ctx, "AI101")
		require.NoError(t, err)
		assert.Equal(t, int64(2750), f.CurrentPrice)
		assert.True(t, f.PriceUpdatedAt.Equal(contractNow), f.PriceUpdatedAt)

		surged, err := s.ListSurgedFlights(ctx)
		require.NoError(t, err)
		require.Len(t, surged, 1)
		assert.Equal(t, "AI101", surged[0].FlightID)
	})

	t.Run("price below base is rejected", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()

		err := s.InTx(ctx, func(tx Tx) error {
			return tx.UpdateFlightPrice(ctx, "AI101", 100, contractNow)
		})
		assert.Error(t, err)
	})

	t.Run("wallet is created once and debited conditionally", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		handle := domain.WalletHandle{ID: domain.DefaultWalletID, DefaultBalance: 3000}

		_, err := s.GetWallet(ctx, handle.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		err = s.InTx(ctx, func(tx Tx) error {
			w, err := tx.LockWallet(ctx, handle)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(3000), w.Balance)

			balance, ok, err := tx.DebitWallet(ctx, handle.ID, 2750)
			if err != nil {
				return err
			}
			assert.True(t, ok)
			assert.Equal(t, int64(250), balance)

			_, ok, err = tx.DebitWallet(ctx, handle.ID, 251)
			if err != nil {
				return err
			}
			assert.False(t, ok)
			return nil
		})
		require.NoError(t, err)

		// a second lock must not reset the balance to the default
		err = s.InTx(ctx, func(tx Tx) error {
			w, err := tx.LockWallet(ctx, handle)
			if err != nil {
				return err
			}
			assert.Equal(t, int64(250), w.Balance)
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("rollback discards every write", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()
		handle := domain.WalletHandle{ID: domain.DefaultWalletID, DefaultBalance: 5000}

		require.NoError(t, s.InTx(ctx, func(tx Tx) error {
			_, err := tx.LockWallet(ctx, handle)
			return err
		}))

		err := s.InTx(ctx, func(tx Tx) error {
			if _, _, err := tx.DebitWallet(ctx, handle.ID, 2500); err != nil {
				return err
			}
			if err := tx.UpdateFlightPrice(ctx, "AI101", 2750, contractNow); err != nil {
				return err
			}
			if err := tx.InsertBooking(ctx, &domain.Booking{PNR: "PNRROLLBK", PassengerName: "A", FlightID: "AI101", Airline: "Air India", Route: "Delhi → Mumbai", FinalPrice: 2500, BookingTime: contractNow}); err != nil {
				return err
			}
			return errAbort
		})
		assert.ErrorIs(t, err, errAbort)

		w, err := s.GetWallet(ctx, handle.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(5000), w.Balance)

		f, err := s.GetFlight(ctx, "AI101")
		require.NoError(t, err)
		assert.Equal(t, int64(2500), f.CurrentPrice)

		_, err = s.GetBookingByPNR(ctx, "PNRROLLBK")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("duplicate reference is reported and rolled back", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()
		booking := domain.Booking{PNR: "PNRDUP001", PassengerName: "A", FlightID: "AI101", Airline: "Air India", Route: "Delhi → Mumbai", FinalPrice: 2500, BookingTime: contractNow}

		require.NoError(t, s.InTx(ctx, func(tx Tx) error {
			b := booking
			return tx.InsertBooking(ctx, &b)
		}))

		err := s.InTx(ctx, func(tx Tx) error {
			b := booking
			b.PassengerName = "B"
			return tx.InsertBooking(ctx, &b)
		})
		assert.ErrorIs(t, err, ErrDuplicateReference)

		got, err := s.GetBookingByPNR(ctx, "PNRDUP001")
		require.NoError(t, err)
		assert.Equal(t, "A", got.PassengerName)
	})

	t.Run("bookings are counted inside the window and listed newest first", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()

		times := []time.Duration{-6 * time.Minute, -5 * time.Minute, -time.Minute, 0}
		err := s.InTx(ctx, func(tx Tx) error {
			for i, d := range times {
				b := domain.Booking{
					PNR:           "PNRWIN00" + string(rune('0'+i)),
					PassengerName: "P",
					FlightID:      "AI101",
					Airline:       "Air India",
					Route:         "Delhi → Mumbai",
					FinalPrice:    2500,
					BookingTime:   contractNow.Add(d),
				}
				if err := tx.InsertBooking(ctx, &b); err != nil {
					return err
				}
				assert.NotZero(t, b.ID)
			}
			other := domain.Booking{PNR: "PNROTHER1", PassengerName: "P", FlightID: "IND203", Airline: "IndiGo", Route: "Mumbai → Bangalore", FinalPrice: 2200, BookingTime: contractNow}
			return tx.InsertBooking(ctx, &other)
		})
		require.NoError(t, err)

		err = s.InTx(ctx, func(tx Tx) error {
			n, err := tx.CountBookingsSince(ctx, "AI101", contractNow.Add(-5*time.Minute))
			if err != nil {
				return err
			}
			assert.Equal(t, 3, n)
			return nil
		})
		require.NoError(t, err)

		history, err := s.ListBookings(ctx)
		require.NoError(t, err)
		require.Len(t, history, 5)
		assert.True(t, history[0].BookingTime.Equal(contractNow))
		assert.True(t, history[4].BookingTime.Equal(contractNow.Add(-6*time.Minute)))
	})

	t.Run("concurrent debits never overdraw one balance", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		handle := domain.WalletHandle{ID: domain.DefaultWalletID, DefaultBalance: 3000}
		require.NoError(t, s.InTx(ctx, func(tx Tx) error {
			_, err := tx.LockWallet(ctx, handle)
			return err
		}))

		var debited atomic.Int32
		errs := make([]error, racers)
		race(racers, func(i int) {
			errs[i] = s.InTx(ctx, func(tx Tx) error {
				if _, err := tx.LockWallet(ctx, handle); err != nil {
					return err
				}
				// widen the gap between the read and the write
				time.Sleep(10 * time.Millisecond)
				_, ok, err := tx.DebitWallet(ctx, handle.ID, 2500)
				if err != nil {
					return err
				}
				if !ok {
					return errInsufficient
				}
				debited.Add(1)
				return nil
			})
		})

		for _, err := range errs {
			if err != nil {
				assert.ErrorIs(t, err, errInsufficient)
			}
		}
		assert.Equal(t, int32(1), debited.Load())
		w, err := s.GetWallet(ctx, handle.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(500), w.Balance)
	})

	t.Run("concurrent recomputes apply the surge once", func(t *testing.T) {
		s := newStore(t)
		seedContractFlights(t, s)
		ctx := context.Background()
		policy := pricing.DefaultPolicy()

		require.NoError(t, s.InTx(ctx, func(tx Tx) error {
			for i := 0; i < policy.SurgeThreshold; i++ {
				b := domain.Booking{
					PNR:           fmt.Sprintf("PNRRACE%02d", i),
					PassengerName: "P",
					FlightID:      "AI101",
					Airline:       "Air India",
					Route:         "Delhi → Mumbai",
					FinalPrice:    2500,
					BookingTime:   contractNow.Add(-time.Minute),
				}
				if err := tx.InsertBooking(ctx, &b); err != nil {
					return err
				}
			}
			return nil
		}))

		var applied atomic.Int32
		errs := make([]error, racers)
		race(racers, func(i int) {
			errs[i] = s.InTx(ctx, func(tx Tx) error {
				f, err := tx.LockFlight(ctx, "AI101")
				if err != nil {
					return err
				}
				n, err := tx.CountBookingsSince(ctx, f.FlightID, policy.WindowStart(contractNow))
				if err != nil {
					return err
				}
				time.Sleep(10 * time.Millisecond)
				d := policy.Recompute(*f, contractNow, n)
				if !d.Persist() {
					return nil
				}
				if err := tx.UpdateFlightPrice(ctx, f.FlightID, d.NewPrice, contractNow); err != nil {
					return err
				}
				if d.Action == domain.PriceActionSurge {
					applied.Add(1)
				}
				return nil
			})
		})

		for _, err := range errs {
			assert.NoError(t, err)
		}
		assert.Equal(t, int32(1), applied.Load())
		f, err := s.GetFlight(ctx, "AI101")
		require.NoError(t, err)
		assert.Equal(t, int64(2500+2500/10), f.CurrentPrice)
	})
}
