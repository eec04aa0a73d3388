package ticket

import (
	"fmt"
	"io"
	"strings"

	"github.com/Domenick1991/surgefare/internal/domain"
	"github.com/Domenick1991/surgefare/pkg/currency"
	"github.com/go-pdf/fpdf"
)

const (
	ContentType = "application/pdf"
	marginMM    = 18.0
)

// Filename is the attachment name offered for a ticket download.
func Filename(pnr string) string {
	return fmt.Sprintf("ticket-%s.pdf", pnr)
}

// Render writes a one-page e-ticket for b.
func Render(w io.Writer, b domain.Booking) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetTitle("Flight Ticket "+b.PNR, true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	width, _ := pdf.GetPageSize()
	contentWidth := width - 2*marginMM

	rule := func(gray int, lineWidth float64) {
		pdf.Ln(4)
		pdf.SetDrawColor(gray, gray, gray)
		pdf.SetLineWidth(lineWidth)
		y := pdf.GetY()
		pdf.Line(marginMM, y, width-marginMM, y)
		pdf.Ln(6)
	}
	label := func(text string) {
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(102, 102, 102)
		pdf.CellFormat(contentWidth, 5, text, "", 1, "L", false, 0, "")
		pdf.SetTextColor(0, 0, 0)
	}
	value := func(text string, size float64, bold bool) {
		style := ""
		if bold {
			style = "B"
		}
		pdf.SetFont("Helvetica", style, size)
		pdf.CellFormat(contentWidth, size*0.5, tr(text), "", 1, "L", false, 0, "")
		pdf.Ln(2)
	}
	section := func(title string) {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(contentWidth, 7, title, "", 1, "L", false, 0, "")
		pdf.Ln(1)
	}

	pdf.SetFont("Helvetica", "B", 26)
	pdf.CellFormat(contentWidth, 12, "FLIGHT TICKET", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.SetTextColor(102, 102, 102)
	pdf.CellFormat(contentWidth, 6, "E-Ticket Confirmation", "", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	rule(204, 0.4)

	label("BOOKING REFERENCE (PNR)")
	value(b.PNR, 20, true)
	rule(238, 0.2)

	section("PASSENGER INFORMATION")
	label("Passenger Name")
	value(b.PassengerName, 12, true)
	rule(238, 0.2)

	section("FLIGHT DETAILS")
	label("Airline")
	value(b.Airline, 12, false)
	label("Flight Number")
	value(b.FlightID, 12, false)
	label("Route")
	value(printableRoute(b.Route), 12, true)
	rule(238, 0.2)

	section("BOOKING & PAYMENT DETAILS")
	label("Booking Date & Time")
	value(b.BookingTime.Format("02 Jan 2006, 03:04 PM"), 12, false)
	label("Amount Paid")
	value("INR "+currency.Group(b.FinalPrice), 14, true)
	rule(204, 0.4)

	pdf.SetFont("Helvetica", "", 8.5)
	pdf.SetTextColor(136, 136, 136)
	pdf.CellFormat(contentWidth, 5, "Please carry a valid photo ID for verification at the airport.", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentWidth, 5, "This is a system-generated ticket and does not require a signature.", "", 1, "C", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render ticket %s: %w", b.PNR, err)
	}
	return pdf.Output(w)
}

// printableRoute swaps the arrow for a character the core fonts can draw.
func printableRoute(route string) string {
	return strings.ReplaceAll(route, "→", "-")
}
