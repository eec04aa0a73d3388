package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindInvalidRequest     ErrorKind = "INVALID_REQUEST"
	KindFlightNotFound     ErrorKind = "FLIGHT_NOT_FOUND"
	KindBookingNotFound    ErrorKind = "BOOKING_NOT_FOUND"
	KindInsufficientFunds  ErrorKind = "INSUFFICIENT_FUNDS"
	KindReferenceCollision ErrorKind = "REFERENCE_COLLISION"
	KindReferenceExhausted ErrorKind = "REFERENCE_GENERATION_EXHAUSTED"
	KindPersistenceFailure ErrorKind = "PERSISTENCE_FAILURE"
)

// Error is the structured error returned by the booking core. Callers
// branch on Kind through errors.Is against the sentinels below.
type Error struct {
	Kind      ErrorKind
	Message   string
	Required  int64
	Available int64
	Err       error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

var (
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
	ErrFlightNotFound     = &Error{Kind: KindFlightNotFound}
	ErrBookingNotFound    = &Error{Kind: KindBookingNotFound}
	ErrInsufficientFunds  = &Error{Kind: KindInsufficientFunds}
	ErrReferenceCollision = &Error{Kind: KindReferenceCollision}
	ErrReferenceExhausted = &Error{Kind: KindReferenceExhausted}
	ErrPersistence        = &Error{Kind: KindPersistenceFailure}
)

func InvalidRequest(msg string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: msg}
}

func FlightNotFound(flightID string) *Error {
	return &Error{Kind: KindFlightNotFound, Message: fmt.Sprintf("Flight %s not found", flightID)}
}

func BookingNotFound(pnr string) *Error {
	return &Error{Kind: KindBookingNotFound, Message: fmt.Sprintf("Booking with PNR %s not found", pnr)}
}

func InsufficientFunds(required, available int64) *Error {
	return &Error{
		Kind:      KindInsufficientFunds,
		Message:   fmt.Sprintf("Insufficient balance. Required: ₹%d, Available: ₹%d", required, available),
		Required:  required,
		Available: available,
	}
}

func ReferenceCollision(pnr string, err error) *Error {
	return &Error{Kind: KindReferenceCollision, Message: fmt.Sprintf("booking reference %s already taken", pnr), Err: err}
}

func ReferenceExhausted(attempts int, err error) *Error {
	return &Error{
		Kind:    KindReferenceExhausted,
		Message: fmt.Sprintf("Unable to generate unique booking reference after %d attempts. Please try again.", attempts),
		Err:     err,
	}
}

// Persistence hides err behind a generic message; err is kept for logging only.
func Persistence(err error) *Error {
	return &Error{
		Kind:    KindPersistenceFailure,
		Message: "An error occurred while processing your booking. Please try again.",
		Err:     err,
	}
}

// KindOf returns the kind of a domain error, or KindPersistenceFailure for
// anything that is not one.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistenceFailure
}

// PublicMessage is the message safe to show to a caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindPersistenceFailure {
		return e.Message
	}
	return Persistence(nil).Message
}
