package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"procurelink/internal/lifecycle"
	"procurelink/models"
)

const orderColumns = `id, rfq_id, quote_id, buyer_id, supplier_id, po_number, total_price, currency, lead_time_days, status, created_at, updated_at`

func (s queries) NextPOSequence(ctx context.Context) (int64, error) {
	var seq int64
	if err := s.get(ctx, &seq, `SELECT nextval('po_number_seq')`); err != nil {
		return 0, err
	}
	return seq, nil
}

func (s queries) CreateOrder(ctx context.Context, o *models.Order) error {
	query := `
        INSERT INTO orders
            (id, rfq_id, quote_id, buyer_id, supplier_id, po_number, total_price, currency, lead_time_days, status, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	return s.exec(ctx, query,
		o.ID, o.RFQID, o.QuoteID, o.BuyerID, o.SupplierID, o.PONumber,
		o.TotalPrice, o.Currency, o.LeadTimeDays, o.Status, o.CreatedAt, o.UpdatedAt)
}

func (s queries) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	o := &models.Order{}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id=$1`
	if err := s.get(ctx, o, query, id); err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return o, nil
}

func (s queries) TransitionOrder(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus) (bool, error) {
	query := `UPDATE orders SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	return s.execCAS(ctx, query, orderID, from, to)
}

func (s queries) ListOrders(ctx context.Context, participantID uuid.UUID, page lifecycle.Page) ([]models.Order, error) {
	query := `
        SELECT ` + orderColumns + `
        FROM orders
        WHERE buyer_id = $1 OR supplier_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3`
	orders := []models.Order{}
	if err := s.selectAll(ctx, &orders, query, participantID, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	return orders, nil
}

type orderContextRow struct {
	models.Order
	Buyer    models.ProfileSummary `db:"buyer"`
	Supplier models.ProfileSummary `db:"supplier"`
	RFQ      models.RFQSummary     `db:"rfq"`
	Quote    models.Quote          `db:"quote"`
}

// GetOrderWithContext is the single read of an order with its participants,
// RFQ summary and accepted quote.
func (s queries) GetOrderWithContext(ctx context.Context, id uuid.UUID) (*models.OrderWithContext, error) {
	query := `
        SELECT
            o.id, o.rfq_id, o.quote_id, o.buyer_id, o.supplier_id, o.po_number,
            o.total_price, o.currency, o.lead_time_days, o.status, o.created_at, o.updated_at,
            b.id AS "buyer.id", b.org_name AS "buyer.org_name",
            b.contact_name AS "buyer.contact_name", b.contact_email AS "buyer.contact_email",
            s.id AS "supplier.id", s.org_name AS "supplier.org_name",
            s.contact_name AS "supplier.contact_name", s.contact_email AS "supplier.contact_email",
            r.id AS "rfq.id", r.title AS "rfq.title", r.category AS "rfq.category", r.status AS "rfq.status",
            q.id AS "quote.id", q.rfq_id AS "quote.rfq_id", q.supplier_id AS "quote.supplier_id",
            q.total_price AS "quote.total_price", q.currency AS "quote.currency",
            q.lead_time_days AS "quote.lead_time_days", q.notes AS "quote.notes",
            q.status AS "quote.status", q.created_at AS "quote.created_at", q.updated_at AS "quote.updated_at"
        FROM orders o
        JOIN profiles b ON b.id = o.buyer_id
        JOIN profiles s ON s.id = o.supplier_id
        JOIN rfqs r ON r.id = o.rfq_id
        JOIN quotes q ON q.id = o.quote_id
        WHERE o.id = $1`
	var row orderContextRow
	if err := s.get(ctx, &row, query, id); err != nil {
		return nil, fmt.Errorf("order %s: %w", id, err)
	}
	return &models.OrderWithContext{
		Order:    row.Order,
		Buyer:    row.Buyer,
		Supplier: row.Supplier,
		RFQ:      row.RFQ,
		Quote:    row.Quote,
	}, nil
}
