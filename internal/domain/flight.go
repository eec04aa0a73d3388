package domain

import (
	"fmt"
	"time"
)

type Flight struct {
	FlightID       string    `json:"flightId"`
	Airline        string    `json:"airline"`
	DepartureCity  string    `json:"departureCity"`
	ArrivalCity    string    `json:"arrivalCity"`
	BasePrice      int64     `json:"basePrice"`
	CurrentPrice   int64     `json:"currentPrice"`
	PriceUpdatedAt time.Time `json:"priceUpdatedAt"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Route is the human readable route snapshot stored on bookings.
func (f Flight) Route() string {
	return fmt.Sprintf("%s → %s", f.DepartureCity, f.ArrivalCity)
}

func (f Flight) Surged() bool {
	return f.CurrentPrice > f.BasePrice
}

type FlightFilter struct {
	DepartureCity string
	ArrivalCity   string
	Limit         int
}

// PriceAction is the outcome of a price recomputation.
type PriceAction string

const (
	PriceActionReset    PriceAction = "price_reset"
	PriceActionNoChange PriceAction = "no_change"
	PriceActionSurge    PriceAction = "surge_applied"
)

type PriceUpdate struct {
	Action         PriceAction `json:"action"`
	FlightID       string      `json:"flightId"`
	BasePrice      int64       `json:"basePrice"`
	CurrentPrice   int64       `json:"currentPrice"`
	Increase       int64       `json:"increase,omitempty"`
	RecentBookings int         `json:"recentBookings"`
}

func (u PriceUpdate) Changed() bool {
	return u.Action != PriceActionNoChange
}
