package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"procurelink/internal/lifecycle"
	"procurelink/models"
)

const quoteColumns = `id, rfq_id, supplier_id, total_price, currency, lead_time_days, notes, status, created_at, updated_at`

func (s queries) GetQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	q := &models.Quote{}
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE id=$1`
	if err := s.get(ctx, q, query, id); err != nil {
		return nil, fmt.Errorf("quote %s: %w", id, err)
	}
	return q, nil
}

func (s queries) GetSupplierQuote(ctx context.Context, rfqID, supplierID uuid.UUID) (*models.Quote, error) {
	q := &models.Quote{}
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE rfq_id=$1 AND supplier_id=$2`
	if err := s.get(ctx, q, query, rfqID, supplierID); err != nil {
		return nil, err
	}
	return q, nil
}

func (s queries) ListQuotesForRFQ(ctx context.Context, rfqID uuid.UUID) ([]models.Quote, error) {
	query := `SELECT ` + quoteColumns + ` FROM quotes WHERE rfq_id=$1 ORDER BY created_at DESC, id`
	quotes := []models.Quote{}
	if err := s.selectAll(ctx, &quotes, query, rfqID); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s queries) ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, page lifecycle.Page) ([]models.Quote, error) {
	query := `
        SELECT ` + quoteColumns + `
        FROM quotes
        WHERE supplier_id = $1
        ORDER BY created_at DESC, id
        LIMIT $2 OFFSET $3`
	quotes := []models.Quote{}
	if err := s.selectAll(ctx, &quotes, query, supplierID, page.Limit, page.Offset); err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s queries) CreateQuote(ctx context.Context, q *models.Quote) error {
	query := `
        INSERT INTO quotes
            (id, rfq_id, supplier_id, total_price, currency, lead_time_days, notes, status, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	return s.exec(ctx, query,
		q.ID, q.RFQID, q.SupplierID, q.TotalPrice, q.Currency, q.LeadTimeDays, q.Notes, q.Status, q.CreatedAt, q.UpdatedAt)
}

func (s queries) TransitionQuote(ctx context.Context, quoteID uuid.UUID, from, to models.QuoteStatus) (bool, error) {
	query := `UPDATE quotes SET status=$3, updated_at=NOW() WHERE id=$1 AND status=$2`
	return s.execCAS(ctx, query, quoteID, from, to)
}
