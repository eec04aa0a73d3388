package api

import (
	"net/http"

	"github.com/Domenick1991/surgefare/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	service booking.BookingUseCase
}

func NewWalletHandler(service booking.BookingUseCase) *WalletHandler {
	return &WalletHandler{service: service}
}

func (h *WalletHandler) Register(router *gin.RouterGroup) {
	router.GET("", h.get)
}

func (h *WalletHandler) get(c *gin.Context) {
	w, err := h.service.Wallet(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, w)
}
