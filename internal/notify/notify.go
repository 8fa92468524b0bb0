// Package notify formats lifecycle events into messages and hands them to a
// delivery backend. Delivery is best-effort: callers log failures and move on.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Kind identifies a lifecycle event.
type Kind string

const (
	QuoteSubmitted Kind = "quote.submitted"
	QuoteAccepted  Kind = "quote.accepted"
	QuoteRejected  Kind = "quote.rejected"
	OrderFulfilled Kind = "order.fulfilled"
	OrderCancelled Kind = "order.cancelled"
	RFQInvited     Kind = "rfq.invited"
)

// Event describes something a profile should hear about.
type Event struct {
	Kind           Kind      `json:"kind"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	RecipientEmail string    `json:"recipient_email"`
	RFQID          uuid.UUID `json:"rfq_id"`
	RFQTitle       string    `json:"rfq_title"`
	QuoteID        uuid.UUID `json:"quote_id,omitempty"`
	OrderID        uuid.UUID `json:"order_id,omitempty"`
	PONumber       string    `json:"po_number,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Message is a rendered notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier accepts events for delivery.
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// Format renders the subject and body for an event.
func Format(e Event) Message {
	m := Message{To: e.RecipientEmail}
	switch e.Kind {
	case QuoteSubmitted:
		m.Subject = fmt.Sprintf("New quote on %q", e.RFQTitle)
		m.Body = fmt.Sprintf("A supplier submitted quote %s on your RFQ %q (%s).", e.QuoteID, e.RFQTitle, e.RFQID)
	case QuoteAccepted:
		m.Subject = fmt.Sprintf("Quote accepted: %s", e.PONumber)
		m.Body = fmt.Sprintf("Your quote %s on %q was accepted. Purchase order %s (%s) has been created.",
			e.QuoteID, e.RFQTitle, e.PONumber, e.OrderID)
	case QuoteRejected:
		m.Subject = fmt.Sprintf("Quote declined on %q", e.RFQTitle)
		m.Body = fmt.Sprintf("Your quote %s on %q was declined by the buyer.", e.QuoteID, e.RFQTitle)
	case OrderFulfilled:
		m.Subject = fmt.Sprintf("Order %s fulfilled", e.PONumber)
		m.Body = fmt.Sprintf("The supplier marked purchase order %s for %q as fulfilled.", e.PONumber, e.RFQTitle)
	case OrderCancelled:
		m.Subject = fmt.Sprintf("Order %s cancelled", e.PONumber)
		m.Body = fmt.Sprintf("The supplier cancelled purchase order %s for %q.", e.PONumber, e.RFQTitle)
	case RFQInvited:
		m.Subject = fmt.Sprintf("You are invited to quote on %q", e.RFQTitle)
		m.Body = fmt.Sprintf("A buyer invited you to submit a quote on RFQ %q (%s).", e.RFQTitle, e.RFQID)
	default:
		m.Subject = string(e.Kind)
		m.Body = fmt.Sprintf("Event %s on RFQ %s.", e.Kind, e.RFQID)
	}
	return m
}

// LogNotifier formats events and writes them to the log instead of delivering them.
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(_ context.Context, e Event) error {
	m := Format(e)
	n.Logger.Info().
		Str("kind", string(e.Kind)).
		Str("recipient_id", e.RecipientID.String()).
		Str("to", m.To).
		Str("subject", m.Subject).
		Msg("notification")
	return nil
}
