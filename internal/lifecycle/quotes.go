package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"procurelink/internal/notify"
	"procurelink/models"
)

// SubmitQuote records a supplier's quote on an open RFQ. A supplier may quote
// at most once per RFQ.
func (m *Manager) SubmitQuote(ctx context.Context, rfqID, supplierID uuid.UUID, terms QuoteTerms) (*models.Quote, error) {
	terms.Currency = strings.ToUpper(strings.TrimSpace(terms.Currency))
	terms.Notes = strings.TrimSpace(terms.Notes)
	if err := validateTerms(&terms); err != nil {
		return nil, err
	}

	var (
		q   *models.Quote
		rfq *models.RFQ
	)
	err := m.store.Tx(ctx, func(tx Tx) error {
		if _, err := requireRole(ctx, tx, supplierID, models.RoleSupplier); err != nil {
			return err
		}
		var err error
		rfq, err = tx.GetRFQ(ctx, rfqID)
		if err != nil {
			return err
		}
		readable, err := canReadRFQ(ctx, tx, rfq, supplierID)
		if err != nil {
			return err
		}
		if !readable {
			return fmt.Errorf("rfq %s: %w", rfqID, ErrNotFound)
		}
		if rfq.Status != models.RFQOpen {
			return fmt.Errorf("rfq %s is %s: %w", rfqID, rfq.Status, ErrConflict)
		}
		_, err = tx.GetSupplierQuote(ctx, rfqID, supplierID)
		if err == nil {
			return fmt.Errorf("supplier %s already quoted on rfq %s: %w", supplierID, rfqID, ErrConflict)
		}
		if !isNotFound(err) {
			return err
		}

		now := m.now()
		q = &models.Quote{
			ID:           uuid.New(),
			RFQID:        rfqID,
			SupplierID:   supplierID,
			TotalPrice:   terms.TotalPrice,
			Currency:     terms.Currency,
			LeadTimeDays: terms.LeadTimeDays,
			Notes:        terms.Notes,
			Status:       models.QuoteSent,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		return tx.CreateQuote(ctx, q)
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info().Str("quote_id", q.ID.String()).Str("rfq_id", rfqID.String()).Msg("quote submitted")
	m.emit(ctx, rfq.BuyerID, notify.Event{Kind: notify.QuoteSubmitted, RFQID: rfqID, RFQTitle: rfq.Title, QuoteID: q.ID})
	return q, nil
}

// AcceptQuote closes the RFQ, accepts the quote and creates the purchase
// order as one atomic unit. Of two concurrent acceptances on the same RFQ
// exactly one succeeds; the other gets ErrConflict.
func (m *Manager) AcceptQuote(ctx context.Context, rfqID, quoteID, buyerID uuid.UUID) (*models.Order, error) {
	var (
		order *models.Order
		rfq   *models.RFQ
		quote *models.Quote
	)
	err := m.store.Tx(ctx, func(tx Tx) error {
		if _, err := requireRole(ctx, tx, buyerID, models.RoleBuyer); err != nil {
			return err
		}
		var err error
		rfq, err = tx.GetRFQ(ctx, rfqID)
		if err != nil {
			return err
		}
		if err := ownRFQ(ctx, tx, rfq, buyerID); err != nil {
			return err
		}
		quote, err = tx.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		if quote.RFQID != rfqID {
			return fmt.Errorf("quote %s on rfq %s: %w", quoteID, rfqID, ErrNotFound)
		}
		if rfq.Status != models.RFQOpen {
			return fmt.Errorf("rfq %s is already %s: %w", rfqID, rfq.Status, ErrConflict)
		}
		if quote.Status != models.QuoteSent {
			return fmt.Errorf("quote %s is %s: %w", quoteID, quote.Status, ErrConflict)
		}

		closed, err := tx.CloseRFQIfOpen(ctx, rfqID)
		if err != nil {
			return fmt.Errorf("close rfq: %w", err)
		}
		if !closed {
			return fmt.Errorf("rfq %s was closed concurrently: %w", rfqID, ErrConflict)
		}
		accepted, err := tx.TransitionQuote(ctx, quoteID, models.QuoteSent, models.QuoteAccepted)
		if err != nil {
			return fmt.Errorf("accept quote: %w", err)
		}
		if !accepted {
			return fmt.Errorf("quote %s changed concurrently: %w", quoteID, ErrConflict)
		}

		seq, err := tx.NextPOSequence(ctx)
		if err != nil {
			return fmt.Errorf("allocate po number: %w", err)
		}
		now := m.now()
		order = &models.Order{
			ID:           uuid.New(),
			RFQID:        rfqID,
			QuoteID:      quoteID,
			BuyerID:      buyerID,
			SupplierID:   quote.SupplierID,
			PONumber:     FormatPONumber(now, seq),
			TotalPrice:   quote.TotalPrice,
			Currency:     quote.Currency,
			LeadTimeDays: quote.LeadTimeDays,
			Status:       models.OrderCreated,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.logger.Info().
		Str("rfq_id", rfqID.String()).
		Str("quote_id", quoteID.String()).
		Str("order_id", order.ID.String()).
		Str("po_number", order.PONumber).
		Msg("quote accepted")
	m.emit(ctx, quote.SupplierID, notify.Event{
		Kind:     notify.QuoteAccepted,
		RFQID:    rfqID,
		RFQTitle: rfq.Title,
		QuoteID:  quoteID,
		OrderID:  order.ID,
		PONumber: order.PONumber,
	})
	return order, nil
}

// RejectQuote declines a sent quote. Rejecting a quote that is already
// rejected or accepted is a conflict.
func (m *Manager) RejectQuote(ctx context.Context, quoteID, buyerID uuid.UUID) (*models.Quote, error) {
	var (
		quote *models.Quote
		rfq   *models.RFQ
	)
	err := m.store.Tx(ctx, func(tx Tx) error {
		var err error
		quote, err = tx.GetQuote(ctx, quoteID)
		if err != nil {
			return err
		}
		rfq, err = tx.GetRFQ(ctx, quote.RFQID)
		if err != nil {
			return err
		}
		switch {
		case rfq.BuyerID == buyerID:
		case quote.SupplierID == buyerID:
			return fmt.Errorf("only the buyer may reject quote %s: %w", quoteID, ErrForbidden)
		default:
			return fmt.Errorf("quote %s: %w", quoteID, ErrNotFound)
		}
		if quote.Status != models.QuoteSent {
			return fmt.Errorf("quote %s is %s: %w", quoteID, quote.Status, ErrConflict)
		}
		ok, err := tx.TransitionQuote(ctx, quoteID, models.QuoteSent, models.QuoteRejected)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("quote %s changed concurrently: %w", quoteID, ErrConflict)
		}
		quote.Status = models.QuoteRejected
		quote.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, quote.SupplierID, notify.Event{Kind: notify.QuoteRejected, RFQID: rfq.ID, RFQTitle: rfq.Title, QuoteID: quoteID})
	return quote, nil
}

func (m *Manager) ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, page Page) ([]models.Quote, error) {
	return m.store.ListSupplierQuotes(ctx, supplierID, clampPage(page))
}
