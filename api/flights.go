package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/service/flights"
	"github.com/gin-gonic/gin"
)

// PriceRecomputer is the part of the booking service the flight routes use.
type PriceRecomputer interface {
	RecomputePrice(ctx context.Context, flightID string) (*domain.PriceUpdate, error)
}

type FlightHandler struct {
	service flights.FlightUseCase
	pricing PriceRecomputer
}

type flightResponse struct {
	FlightID      string `json:"flightId"`
	Airline       string `json:"airline"`
	DepartureCity string `json:"departureCity"`
	ArrivalCity   string `json:"arrivalCity"`
	BasePrice     int64  `json:"basePrice"`
	CurrentPrice  int64  `json:"currentPrice"`
	Surged        bool   `json:"surged"`
}

type priceResponse struct {
	Action       domain.PriceAction `json:"action"`
	FlightID     string             `json:"flightId"`
	BasePrice    int64              `json:"basePrice"`
	CurrentPrice int64              `json:"currentPrice"`
	Increase     int64              `json:"increase,omitempty"`
}

func NewFlightHandler(service flights.FlightUseCase, pricing PriceRecomputer) *FlightHandler {
	return &FlightHandler{service: service, pricing: pricing}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.search)
	router.POST("/:flightId/price", h.recompute)
}

func (h *FlightHandler) search(c *gin.Context) {
	result, err := h.service.Search(c.Request.Context(), domain.FlightFilter{
		DepartureCity: c.Query("departureCity"),
		ArrivalCity:   c.Query("arrivalCity"),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]flightResponse, 0, len(result))
	for _, f := range result {
		out = append(out, flightResponse{
			FlightID:      f.FlightID,
			Airline:       f.Airline,
			DepartureCity: f.DepartureCity,
			ArrivalCity:   f.ArrivalCity,
			BasePrice:     f.BasePrice,
			CurrentPrice:  f.CurrentPrice,
			Surged:        f.Surged(),
		})
	}
	respondList(c, out, len(out), "")
}

func (h *FlightHandler) recompute(c *gin.Context) {
	update, err := h.pricing.RecomputePrice(c.Request.Context(), c.Param("flightId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, priceResponse{
		Action:       update.Action,
		FlightID:     update.FlightID,
		BasePrice:    update.BasePrice,
		CurrentPrice: update.CurrentPrice,
		Increase:     update.Increase,
	})
}
