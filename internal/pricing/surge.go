// Package pricing decides how a flight's price moves with recent booking
// volume. It is pure: callers load the flight, count bookings and persist
// the decision themselves.
package pricing

import (
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
)

type Policy struct {
	// SurgeWindow is how far back bookings are counted.
	SurgeWindow    time.Duration
	SurgeThreshold int
	SurgePercent   int64
	// ResetAfter is how long a surge survives without a price update.
	ResetAfter time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		SurgeWindow:    5 * time.Minute,
		SurgeThreshold: 3,
		SurgePercent:   10,
		ResetAfter:     10 * time.Minute,
	}
}

type Decision struct {
	Action   domain.PriceAction
	NewPrice int64
	Increase int64
}

// Persist reports whether the decision must be written back together with a
// fresh price update timestamp.
func (d Decision) Persist() bool {
	return d.Action != domain.PriceActionNoChange
}

// WindowStart is the earliest booking time that counts towards a surge.
func (p Policy) WindowStart(now time.Time) time.Time {
	return now.Add(-p.SurgeWindow)
}

// Increase is the surge amount for a base price, rounded down.
func (p Policy) Increase(basePrice int64) int64 {
	if basePrice <= 0 {
		return 0
	}
	return basePrice * p.SurgePercent / 100
}

// Recompute applies the rules in order: reset an expired surge, keep an
// active surge, apply a new surge when the window holds enough bookings.
// A surge is always computed from the base price and never stacks.
func (p Policy) Recompute(f domain.Flight, now time.Time, recentBookings int) Decision {
	surged := f.CurrentPrice > f.BasePrice

	if surged && now.Sub(f.PriceUpdatedAt) > p.ResetAfter {
		return Decision{Action: domain.PriceActionReset, NewPrice: f.BasePrice}
	}
	if surged {
		return Decision{Action: domain.PriceActionNoChange, NewPrice: f.CurrentPrice}
	}
	if recentBookings >= p.SurgeThreshold {
		inc := p.Increase(f.BasePrice)
		return Decision{Action: domain.PriceActionSurge, NewPrice: f.BasePrice + inc, Increase: inc}
	}
	return Decision{Action: domain.PriceActionNoChange, NewPrice: f.CurrentPrice}
}

// Apply returns f with the decision written into it.
func (d Decision) Apply(f domain.Flight, now time.Time) domain.Flight {
	if !d.Persist() {
		return f
	}
	f.CurrentPrice = d.NewPrice
	f.PriceUpdatedAt = now
	return f
}

// Update describes the decision for callers outside the pricing package.
func (d Decision) Update(f domain.Flight, recentBookings int) domain.PriceUpdate {
	return domain.PriceUpdate{
		Action:         d.Action,
		FlightID:       f.FlightID,
		BasePrice:      f.BasePrice,
		CurrentPrice:   d.NewPrice,
		Increase:       d.Increase,
		RecentBookings: recentBookings,
	}
}
