package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/gin-gonic/gin"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type envelope struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	Count   *int       `json:"count,omitempty"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

func respondList(c *gin.Context, data any, count int, message string) {
	c.JSON(http.StatusOK, envelope{Success: true, Data: data, Count: &count, Message: message})
}

func respondMessage(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: true, Message: message, Data: data})
}

// respondError maps a domain error to its HTTP status. Anything that is not a
// domain error is treated as a persistence failure and never leaks detail.
func respondError(c *gin.Context, err error) {
	kind := domain.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request.Context()).WithError(err).Error("request failed")
	}
	_ = c.Error(err)

	body := &errorBody{Code: string(kind), Message: domain.PublicMessage(err)}
	if details := detailsFor(err); details != nil {
		body.Details = details
	}
	c.AbortWithStatusJSON(status, envelope{Error: body})
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidRequest, domain.KindInsufficientFunds:
		return http.StatusBadRequest
	case domain.KindFlightNotFound, domain.KindBookingNotFound:
		return http.StatusNotFound
	case domain.KindReferenceExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func detailsFor(err error) any {
	if domain.KindOf(err) != domain.KindInsufficientFunds {
		return nil
	}
	var derr *domain.Error
	if !errors.As(err, &derr) {
		return nil
	}
	return gin.H{"required": derr.Required, "available": derr.Available}
}
