package api

import (
	_ "embed"
	"net/http"

	"github.com/Domenick1991/surgefare/internal/middleware"
	"github.com/Domenick1991/surgefare/internal/service/booking"
	"github.com/Domenick1991/surgefare/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

//go:embed openapi.json
var openAPISpec []byte

type RouterConfig struct {
	CORSOrigin string
	// BookingLimiter throttles POST /api/bookings per client. Nil disables it.
	BookingLimiter *middleware.ClientLimiter
}

func NewRouter(cfg RouterConfig, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.AccessLog(), middleware.CORS(cfg.CORSOrigin))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/openapi.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", openAPISpec)
	})
	router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/openapi.json"))))

	apiGroup := router.Group("/api")
	NewFlightHandler(flightSvc, bookingSvc).Register(apiGroup.Group("/flights"))
	NewBookingHandler(bookingSvc).Register(apiGroup.Group("/bookings"), middleware.RateLimit(cfg.BookingLimiter))
	NewTicketHandler(bookingSvc).Register(apiGroup.Group("/tickets"))
	NewWalletHandler(bookingSvc).Register(apiGroup.Group("/wallet"))

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, envelope{Error: &errorBody{Code: "NOT_FOUND", Message: "Route not found"}})
	})
	return router
}
