package email

import (
	"bytes"
	"context"
	"fmt"

	"github.com/Domenick1991/surgefare/internal/kafka"
	"github.com/Domenick1991/surgefare/internal/logger"
	"github.com/Domenick1991/surgefare/internal/ticket"
	"github.com/Domenick1991/surgefare/pkg/currency"
	"github.com/sirupsen/logrus"
)

// Message is what would be handed to a mail relay.
type Message struct {
	Subject        string
	Body           string
	AttachmentName string
	Attachment     []byte
}

// Sender renders the ticket for a booking event and delivers it. Delivery is
// a log line: there is no mail relay in this deployment.
type Sender struct {
	deliver func(ctx context.Context, msg Message) error
}

func NewSender() *Sender {
	return &Sender{deliver: logDelivery}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Type != kafka.EventBookingCreated {
		return nil
	}
	msg, err := Compose(event)
	if err != nil {
		return err
	}
	return s.deliver(ctx, msg)
}

func Compose(event kafka.BookingEvent) (Message, error) {
	b := event.Booking()
	var pdf bytes.Buffer
	if err := ticket.Render(&pdf, b); err != nil {
		return Message{}, err
	}
	return Message{
		Subject: fmt.Sprintf("Your e-ticket %s", b.PNR),
		Body: fmt.Sprintf("Dear %s,\n\nYour %s flight %s (%s) is confirmed. Amount paid: %s.\n",
			b.PassengerName, b.Airline, b.FlightID, b.Route, currency.Format(b.FinalPrice)),
		AttachmentName: ticket.Filename(b.PNR),
		Attachment:     pdf.Bytes(),
	}, nil
}

func logDelivery(ctx context.Context, msg Message) error {
	logger.FromContext(ctx).WithFields(logrus.Fields{
		"subject":    msg.Subject,
		"attachment": msg.AttachmentName,
		"size":       len(msg.Attachment),
	}).Info("ticket e-mail sent")
	return nil
}
