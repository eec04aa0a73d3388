package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, pnr, passenger_name, flight_id, airline, route, final_price, booking_time`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.PNR, &b.PassengerName, &b.FlightID, &b.Airline, &b.Route, &b.FinalPrice, &b.BookingTime); err != nil {
		return nil, err
	}
	b.BookingTime = b.BookingTime.UTC()
	return &b, nil
}

func pgListBookings(ctx context.Context, q pgQuerier) ([]domain.Booking, error) {
	rows, err := q.Query(ctx, `SELECT `+bookingColumns+` FROM bookings ORDER BY booking_time DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func pgGetBookingByPNR(ctx context.Context, q pgQuerier, pnr string) (*domain.Booking, error) {
	b, err := scanBooking(q.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE pnr=$1`, pnr))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get booking %s: %w", pnr, err)
	}
	return b, nil
}

func pgCountBookingsSince(ctx context.Context, q pgQuerier, flightID string, since time.Time) (int, error) {
	var n int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE flight_id=$1 AND booking_time >= $2`, flightID, since).Scan(&n); err != nil {
		return 0, fmt.Errorf("count bookings for %s: %w", flightID, err)
	}
	return n, nil
}

func pgInsertBooking(ctx context.Context, q pgQuerier, b *domain.Booking) error {
	err := q.QueryRow(ctx, `INSERT INTO bookings (pnr, passenger_name, flight_id, airline, route, final_price, booking_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`, b.PNR, b.PassengerName, b.FlightID, b.Airline, b.Route, b.FinalPrice, b.BookingTime).
		Scan(&b.ID)
	if isPNRViolation(err) {
		return fmt.Errorf("%w: %s", ErrDuplicateReference, b.PNR)
	}
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}
