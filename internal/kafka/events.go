package kafka

import (
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/google/uuid"
)

const EventBookingCreated = "booking_created"

type BookingEvent struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	PNR           string    `json:"pnr"`
	FlightID      string    `json:"flight_id"`
	PassengerName string    `json:"passenger_name"`
	Airline       string    `json:"airline"`
	Route         string    `json:"route"`
	FinalPrice    int64     `json:"final_price"`
	BookingTime   time.Time `json:"booking_time"`
}

func NewBookingEvent(eventType string, b domain.Booking) BookingEvent {
	return BookingEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		PNR:           b.PNR,
		FlightID:      b.FlightID,
		PassengerName: b.PassengerName,
		Airline:       b.Airline,
		Route:         b.Route,
		FinalPrice:    b.FinalPrice,
		BookingTime:   b.BookingTime,
	}
}

// Booking rebuilds the booking snapshot carried by the event.
func (e BookingEvent) Booking() domain.Booking {
	return domain.Booking{
		PNR:           e.PNR,
		PassengerName: e.PassengerName,
		FlightID:      e.FlightID,
		Airline:       e.Airline,
		Route:         e.Route,
		FinalPrice:    e.FinalPrice,
		BookingTime:   e.BookingTime,
	}
}

// PriceEvent is published for price_reset and surge_applied decisions.
type PriceEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	FlightID     string    `json:"flight_id"`
	BasePrice    int64     `json:"base_price"`
	CurrentPrice int64     `json:"current_price"`
	Increase     int64     `json:"increase,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

func NewPriceEvent(update domain.PriceUpdate, at time.Time) PriceEvent {
	return PriceEvent{
		ID:           uuid.NewString(),
		Type:         string(update.Action),
		FlightID:     update.FlightID,
		BasePrice:    update.BasePrice,
		CurrentPrice: update.CurrentPrice,
		Increase:     update.Increase,
		OccurredAt:   at,
	}
}
