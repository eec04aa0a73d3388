package domain

import "time"

// Booking is immutable once persisted: airline, route and price are
// snapshots taken at booking time.
type Booking struct {
	ID            int64     `json:"-"`
	PNR           string    `json:"pnr"`
	PassengerName string    `json:"passengerName"`
	FlightID      string    `json:"flightId"`
	Airline       string    `json:"airline"`
	Route         string    `json:"route"`
	FinalPrice    int64     `json:"finalPrice"`
	BookingTime   time.Time `json:"bookingTime"`
}

// Receipt is what the ledger hands back after a successful charge.
type Receipt struct {
	Booking         Booking
	PreviousBalance int64
	CurrentBalance  int64
}

type Confirmation struct {
	Booking               Booking
	WalletPreviousBalance int64
	WalletCurrentBalance  int64
	Deducted              int64
	Pricing               PriceUpdate
}
