package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/jackc/pgx/v5"
)

const flightColumns = `flight_id, airline, departure_city, arrival_city, base_price, current_price, price_updated_at, created_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.FlightID, &f.Airline, &f.DepartureCity, &f.ArrivalCity, &f.BasePrice, &f.CurrentPrice, &f.PriceUpdatedAt, &f.CreatedAt); err != nil {
		return nil, err
	}
	f.PriceUpdatedAt = f.PriceUpdatedAt.UTC()
	f.CreatedAt = f.CreatedAt.UTC()
	return &f, nil
}

func pgGetFlight(ctx context.Context, q pgQuerier, flightID string, forUpdate bool) (*domain.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE flight_id=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	f, err := scanFlight(q.QueryRow(ctx, query, flightID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get flight %s: %w", flightID, err)
	}
	return f, nil
}

func pgListFlights(ctx context.Context, q pgQuerier, filter domain.FlightFilter) ([]domain.Flight, error) {
	rows, err := q.Query(ctx, `SELECT `+flightColumns+` FROM flights
		WHERE ($1::text = '' OR departure_city = $1) AND ($2::text = '' OR arrival_city = $2)
		ORDER BY flight_id LIMIT $3`, filter.DepartureCity, filter.ArrivalCity, flightLimit(filter))
	if err != nil {
		return nil, fmt.Errorf("list flights: %w", err)
	}
	return collectFlights(rows)
}

func pgListSurgedFlights(ctx context.Context, q pgQuerier) ([]domain.Flight, error) {
	rows, err := q.Query(ctx, `SELECT `+flightColumns+` FROM flights WHERE current_price > base_price ORDER BY flight_id`)
	if err != nil {
		return nil, fmt.Errorf("list surged flights: %w", err)
	}
	return collectFlights(rows)
}

func collectFlights(rows pgx.Rows) ([]domain.Flight, error) {
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *f)
	}
	return flights, rows.Err()
}

func pgUpsertFlight(ctx context.Context, q pgQuerier, f domain.Flight) error {
	_, err := q.Exec(ctx, `INSERT INTO flights (flight_id, airline, departure_city, arrival_city, base_price, current_price)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (flight_id) DO NOTHING`, f.FlightID, f.Airline, f.DepartureCity, f.ArrivalCity, f.BasePrice)
	if err != nil {
		return fmt.Errorf("upsert flight %s: %w", f.FlightID, err)
	}
	return nil
}

func pgUpdateFlightPrice(ctx context.Context, q pgQuerier, flightID string, price int64, at time.Time) error {
	res, err := q.Exec(ctx, `UPDATE flights SET current_price=$1, price_updated_at=$2 WHERE flight_id=$3`, price, at, flightID)
	if err != nil {
		return fmt.Errorf("update flight price %s: %w", flightID, err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
