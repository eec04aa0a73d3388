// Package seed holds the demo flight catalogue.
package seed

import (
	"context"
	"fmt"

	"github.com/Domenick1991/surgefare/internal/domain"
)

type FlightWriter interface {
	UpsertFlight(ctx context.Context, flight domain.Flight) error
}

var Flights = []domain.Flight{
	{FlightID: "AI101", Airline: "Air India", DepartureCity: "Delhi", ArrivalCity: "Mumbai", BasePrice: 2500},
	{FlightID: "IND203", Airline: "IndiGo", DepartureCity: "Mumbai", ArrivalCity: "Bangalore", BasePrice: 2200},
	{FlightID: "SG305", Airline: "SpiceJet", DepartureCity: "Bangalore", ArrivalCity: "Hyderabad", BasePrice: 2100},
	{FlightID: "AI407", Airline: "Air India", DepartureCity: "Delhi", ArrivalCity: "Kolkata", BasePrice: 2800},
	{FlightID: "IND512", Airline: "IndiGo", DepartureCity: "Kolkata", ArrivalCity: "Chennai", BasePrice: 2700},
	{FlightID: "VA621", Airline: "Vistara", DepartureCity: "Chennai", ArrivalCity: "Delhi", BasePrice: 2900},
	{FlightID: "SG730", Airline: "SpiceJet", DepartureCity: "Mumbai", ArrivalCity: "Goa", BasePrice: 2000},
	{FlightID: "AI845", Airline: "Air India", DepartureCity: "Bangalore", ArrivalCity: "Pune", BasePrice: 2300},
	{FlightID: "IND956", Airline: "IndiGo", DepartureCity: "Pune", ArrivalCity: "Ahmedabad", BasePrice: 2400},
	{FlightID: "VA102", Airline: "Vistara", DepartureCity: "Ahmedabad", ArrivalCity: "Jaipur", BasePrice: 2600},
	{FlightID: "SG214", Airline: "SpiceJet", DepartureCity: "Jaipur", ArrivalCity: "Mumbai", BasePrice: 2750},
	{FlightID: "AI326", Airline: "Air India", DepartureCity: "Hyderabad", ArrivalCity: "Kochi", BasePrice: 2850},
	{FlightID: "IND438", Airline: "IndiGo", DepartureCity: "Kochi", ArrivalCity: "Bangalore", BasePrice: 2350},
	{FlightID: "VA549", Airline: "Vistara", DepartureCity: "Delhi", ArrivalCity: "Chandigarh", BasePrice: 2050},
	{FlightID: "SG651", Airline: "SpiceJet", DepartureCity: "Chandigarh", ArrivalCity: "Delhi", BasePrice: 2100},
}

// Run inserts every catalogue flight that is not stored yet. Existing rows,
// including their current price, are left alone.
func Run(ctx context.Context, repo FlightWriter) (int, error) {
	for _, f := range Flights {
		if err := repo.UpsertFlight(ctx, f); err != nil {
			return 0, fmt.Errorf("seed flight %s: %w", f.FlightID, err)
		}
	}
	return len(Flights), nil
}
