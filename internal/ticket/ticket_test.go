package ticket

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var booking = domain.Booking{
	PNR:           "PNRAB12CD",
	PassengerName: "Asha Verma",
	FlightID:      "AI101",
	Airline:       "Air India",
	Route:         "Delhi → Mumbai",
	FinalPrice:    2750,
	BookingTime:   time.Date(2026, 10, 15, 14, 5, 0, 0, time.UTC),
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, booking))

	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.True(t, bytes.Contains(buf.Bytes(), []byte("%%EOF")))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestRender_WriterError(t *testing.T) {
	assert.Error(t, Render(failingWriter{}, booking))
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "ticket-PNRAB12CD.pdf", Filename("PNRAB12CD"))
}

func TestPrintableRoute(t *testing.T) {
	assert.Equal(t, "Delhi - Mumbai", printableRoute("Delhi → Mumbai"))
}
