package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"procurelink/internal/lifecycle"
	"procurelink/models"
)

const rfqColumns = `id, buyer_id, title, description, category, budget_min, budget_max, status, created_at, closed_at`

const itemColumns = `id, rfq_id, name, sku, qty, unit, target_price, position`

func (s queries) GetRFQ(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	rfq := &models.RFQ{}
	query := `SELECT ` + rfqColumns + ` FROM rfqs WHERE id=$1`
	if err := s.get(ctx, rfq, query, id); err != nil {
		return nil, fmt.Errorf("rfq %s: %w", id, err)
	}
	items := []models.RFQItem{}
	query = `SELECT ` + itemColumns + ` FROM rfq_items WHERE rfq_id=$1 ORDER BY position ASC`
	if err := s.selectAll(ctx, &items, query, id); err != nil {
		return nil, err
	}
	rfq.Items = items
	return rfq, nil
}

func (s queries) ListOpenRFQs(ctx context.Context, filter lifecycle.RFQFilter) ([]models.RFQ, error) {
	query := `SELECT ` + rfqColumns + ` FROM rfqs WHERE status='open'`
	args := []interface{}{}
	if len(filter.Categories) > 0 {
		args = append(args, pq.Array(filter.Categories))
		query += fmt.Sprintf(" AND category = ANY($%d)", len(args))
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT %d OFFSET %d", filter.Page.Limit, filter.Page.Offset)

	rfqs := []models.RFQ{}
	if err := s.selectAll(ctx, &rfqs, query, args...); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, rfqs); err != nil {
		return nil, err
	}
	return rfqs, nil
}

func (s queries) ListBuyerRFQs(ctx context.Context, buyerID uuid.UUID, page lifecycle.Page) ([]models.RFQ, error) {
	query := `
        SELECT ` + rfqColumns + `
        FROM rfqs
        WHERE buyer_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3`
	rfqs := []models.RFQ{}
	if err := s.selectAll(ctx, &rfqs, query, buyerID, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	if err := s.attachItems(ctx, rfqs); err != nil {
		return nil, err
	}
	return rfqs, nil
}

// attachItems loads the items of every RFQ in one query.
func (s queries) attachItems(ctx context.Context, rfqs []models.RFQ) error {
	if len(rfqs) == 0 {
		return nil
	}
	ids := make([]string, len(rfqs))
	byID := make(map[uuid.UUID]int, len(rfqs))
	for i := range rfqs {
		ids[i] = rfqs[i].ID.String()
		byID[rfqs[i].ID] = i
		rfqs[i].Items = []models.RFQItem{}
	}
	items := []models.RFQItem{}
	query := `SELECT ` + itemColumns + ` FROM rfq_items WHERE rfq_id = ANY($1::uuid[]) ORDER BY rfq_id, position`
	if err := s.selectAll(ctx, &items, query, pq.Array(ids)); err != nil {
		return err
	}
	for _, it := range items {
		if i, ok := byID[it.RFQID]; ok {
			rfqs[i].Items = append(rfqs[i].Items, it)
		}
	}
	return nil
}

func (s queries) CreateRFQ(ctx context.Context, rfq *models.RFQ) error {
	query := `
        INSERT INTO rfqs
            (id, buyer_id, title, description, category, budget_min, budget_max, status, created_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	err := s.exec(ctx, query,
		rfq.ID, rfq.BuyerID, rfq.Title, rfq.Description, rfq.Category,
		rfq.BudgetMin, rfq.BudgetMax, rfq.Status, rfq.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rfq: %w", err)
	}
	itemQuery := `
        INSERT INTO rfq_items
            (id, rfq_id, name, sku, qty, unit, target_price, position)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)`
	for _, it := range rfq.Items {
		err := s.exec(ctx, itemQuery, it.ID, rfq.ID, it.Name, it.SKU, it.Qty, it.Unit, it.TargetPrice, it.Position)
		if err != nil {
			return fmt.Errorf("insert rfq item %d: %w", it.Position, err)
		}
	}
	return nil
}

// CloseRFQIfOpen takes the row lock; a concurrent closer blocks here and then
// sees zero rows.
func (s queries) CloseRFQIfOpen(ctx context.Context, rfqID uuid.UUID) (bool, error) {
	query := `UPDATE rfqs SET status='closed', closed_at=NOW() WHERE id=$1 AND status='open'`
	return s.execCAS(ctx, query, rfqID)
}

const invitationColumns = `id, rfq_id, supplier_id, created_at`

func (s queries) CreateInvitation(ctx context.Context, inv *models.RFQInvitation) error {
	query := `
        INSERT INTO rfq_invitations (id, rfq_id, supplier_id, created_at)
        VALUES ($1, $2, $3, $4)`
	return s.exec(ctx, query, inv.ID, inv.RFQID, inv.SupplierID, inv.CreatedAt)
}

func (s queries) ListInvitations(ctx context.Context, supplierID uuid.UUID) ([]models.RFQInvitation, error) {
	query := `SELECT ` + invitationColumns + ` FROM rfq_invitations WHERE supplier_id=$1 ORDER BY created_at DESC`
	invs := []models.RFQInvitation{}
	if err := s.selectAll(ctx, &invs, query, supplierID); err != nil {
		return nil, err
	}
	return invs, nil
}
