package api

import (
	"net/http"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/service/booking"
	"github.com/gin-gonic/gin"
)

const historyHint = "To download ticket, use: GET /api/tickets/:pnr"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	PassengerName string `json:"passengerName"`
	FlightID      string `json:"flightId"`
}

type walletResponse struct {
	PreviousBalance int64 `json:"previousBalance"`
	CurrentBalance  int64 `json:"currentBalance"`
	Deducted        int64 `json:"deducted"`
}

type bookingResponse struct {
	Booking domain.Booking `json:"booking"`
	Wallet  walletResponse `json:"wallet"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup, guards ...gin.HandlerFunc) {
	router.POST("", append(guards, h.create)...)
	router.GET("/history", h.history)
	router.GET("/:pnr", h.get)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.InvalidRequest("request body must be JSON with passengerName and flightId"))
		return
	}

	conf, err := h.service.BookFlight(c.Request.Context(), booking.BookFlightInput{
		FlightID:      req.FlightID,
		PassengerName: req.PassengerName,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondMessage(c, http.StatusCreated, "Booking created successfully", bookingResponse{
		Booking: conf.Booking,
		Wallet: walletResponse{
			PreviousBalance: conf.WalletPreviousBalance,
			CurrentBalance:  conf.WalletCurrentBalance,
			Deducted:        conf.Deducted,
		},
	})
}

func (h *BookingHandler) history(c *gin.Context) {
	bookings, err := h.service.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	respondList(c, bookings, len(bookings), historyHint)
}

func (h *BookingHandler) get(c *gin.Context) {
	b, err := h.service.GetByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, b)
}
