package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"procurelink/internal/notify"
	"procurelink/models"
)

// CreateRFQ inserts an open RFQ and its items in one transaction.
func (m *Manager) CreateRFQ(ctx context.Context, buyerID uuid.UUID, in RFQInput) (*models.RFQ, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Category = strings.TrimSpace(in.Category)
	if err := validateRFQ(&in); err != nil {
		return nil, err
	}

	now := m.now()
	rfq := &models.RFQ{
		ID:          uuid.New(),
		BuyerID:     buyerID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		BudgetMin:   in.BudgetMin,
		BudgetMax:   in.BudgetMax,
		Status:      models.RFQOpen,
		CreatedAt:   now,
		Items:       make([]models.RFQItem, 0, len(in.Items)),
	}
	for i, it := range in.Items {
		rfq.Items = append(rfq.Items, models.RFQItem{
			ID:          uuid.New(),
			RFQID:       rfq.ID,
			Name:        strings.TrimSpace(it.Name),
			SKU:         strings.TrimSpace(it.SKU),
			Qty:         it.Qty,
			Unit:        strings.TrimSpace(it.Unit),
			TargetPrice: it.TargetPrice,
			Position:    i,
		})
	}

	err := m.store.Tx(ctx, func(tx Tx) error {
		if _, err := requireRole(ctx, tx, buyerID, models.RoleBuyer); err != nil {
			return err
		}
		return tx.CreateRFQ(ctx, rfq)
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info().Str("rfq_id", rfq.ID.String()).Str("buyer_id", buyerID.String()).Int("items", len(rfq.Items)).Msg("rfq created")
	return rfq, nil
}

// ListOpenRFQs is the public RFQ board.
func (m *Manager) ListOpenRFQs(ctx context.Context, filter RFQFilter) ([]models.RFQ, error) {
	filter.Page = clampPage(filter.Page)
	return m.store.ListOpenRFQs(ctx, filter)
}

func (m *Manager) ListBuyerRFQs(ctx context.Context, buyerID uuid.UUID, page Page) ([]models.RFQ, error) {
	return m.store.ListBuyerRFQs(ctx, buyerID, clampPage(page))
}

func (m *Manager) GetRFQ(ctx context.Context, callerID, rfqID uuid.UUID) (*models.RFQ, error) {
	rfq, err := m.store.GetRFQ(ctx, rfqID)
	if err != nil {
		return nil, err
	}
	readable, err := canReadRFQ(ctx, m.store, rfq, callerID)
	if err != nil {
		return nil, err
	}
	if !readable {
		return nil, fmt.Errorf("rfq %s: %w", rfqID, ErrNotFound)
	}
	return rfq, nil
}

// ListQuotesForRFQ returns every quote to the RFQ's buyer and only the
// caller's own quote to anyone else.
func (m *Manager) ListQuotesForRFQ(ctx context.Context, callerID, rfqID uuid.UUID) ([]models.Quote, error) {
	rfq, err := m.GetRFQ(ctx, callerID, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.BuyerID == callerID {
		return m.store.ListQuotesForRFQ(ctx, rfqID)
	}
	q, err := m.store.GetSupplierQuote(ctx, rfqID, callerID)
	if err != nil {
		if isNotFound(err) {
			return []models.Quote{}, nil
		}
		return nil, err
	}
	return []models.Quote{*q}, nil
}

// InviteSupplier targets an open RFQ at a supplier the buyer has an accepted
// connection with.
func (m *Manager) InviteSupplier(ctx context.Context, rfqID, buyerID, supplierID uuid.UUID) (*models.RFQInvitation, error) {
	var (
		inv *models.RFQInvitation
		rfq *models.RFQ
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
		if rfq.Status != models.RFQOpen {
			return fmt.Errorf("rfq %s is %s: %w", rfqID, rfq.Status, ErrConflict)
		}
		supplier, err := tx.GetProfile(ctx, supplierID)
		if err != nil {
			return fmt.Errorf("supplier %s: %w", supplierID, err)
		}
		if supplier.Role != models.RoleSupplier {
			return invalid("supplier_id", "must reference a supplier")
		}
		conn, err := tx.FindConnection(ctx, buyerID, supplierID)
		if err != nil && !isNotFound(err) {
			return err
		}
		if conn == nil || conn.Status != models.ConnectionAccepted {
			return fmt.Errorf("no accepted connection with supplier %s: %w", supplierID, ErrForbidden)
		}
		inv = &models.RFQInvitation{
			ID:         uuid.New(),
			RFQID:      rfqID,
			SupplierID: supplierID,
			CreatedAt:  m.now(),
		}
		return tx.CreateInvitation(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	m.emit(ctx, supplierID, notify.Event{Kind: notify.RFQInvited, RFQID: rfqID, RFQTitle: rfq.Title})
	return inv, nil
}

func (m *Manager) ListInvitations(ctx context.Context, supplierID uuid.UUID) ([]models.RFQInvitation, error) {
	return m.store.ListInvitations(ctx, supplierID)
}
