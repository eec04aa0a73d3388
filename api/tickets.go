package api

import (
	"bytes"
	"net/http"

	"github.com/Domenick1991/surgefare/internal/service/booking"
	"github.com/Domenick1991/surgefare/internal/ticket"
	"github.com/gin-gonic/gin"
)

type TicketHandler struct {
	service booking.BookingUseCase
}

func NewTicketHandler(service booking.BookingUseCase) *TicketHandler {
	return &TicketHandler{service: service}
}

func (h *TicketHandler) Register(router *gin.RouterGroup) {
	router.GET("/:pnr", h.download)
}

// download renders the whole PDF before any header is written.
func (h *TicketHandler) download(c *gin.Context) {
	b, err := h.service.GetByPNR(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := ticket.Render(&buf, *b); err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+ticket.Filename(b.PNR))
	c.Data(http.StatusOK, ticket.ContentType, buf.Bytes())
}
