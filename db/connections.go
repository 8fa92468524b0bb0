package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"procurelink/models"
)

const connectionColumns = `id, buyer_id, supplier_id, requested_by, status, created_at, updated_at`

func (s queries) GetConnection(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	c := &models.Connection{}
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id=$1`
	if err := s.get(ctx, c, query, id); err != nil {
		return nil, fmt.Errorf("connection %s: %w", id, err)
	}
	return c, nil
}

func (s queries) FindConnection(ctx context.Context, buyerID, supplierID uuid.UUID) (*models.Connection, error) {
	c := &models.Connection{}
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE buyer_id=$1 AND supplier_id=$2`
	if err := s.get(ctx, c, query, buyerID, supplierID); err != nil {
		return nil, err
	}
	return c, nil
}

func (s queries) ListConnections(ctx context.Context, participantID uuid.UUID) ([]models.Connection, error) {
	query := `
        SELECT ` + connectionColumns + `
        FROM connections
        WHERE buyer_id = $1 OR supplier_id = $1
        ORDER BY created_at DESC`
	conns := []models.Connection{}
	if err := s.selectAll(ctx, &conns, query, participantID); err != nil {
		return nil, err
	}
	return conns, nil
}

func (s queries) CreateConnection(ctx context.Context, c *models.Connection) error {
	query := `
        INSERT INTO connections
            (id, buyer_id, supplier_id, requested_by, status, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)`
	return s.exec(ctx, query, c.ID, c.BuyerID, c.SupplierID, c.RequestedBy, c.Status, c.CreatedAt, c.UpdatedAt)
}

func (s queries) TransitionConnection(ctx context.Context, id uuid.UUID, from []models.ConnectionStatus, to models.ConnectionStatus) (bool, error) {
	states := make([]string, len(from))
	for i, f := range from {
		states[i] = string(f)
	}
	query := `UPDATE connections SET status=$3, updated_at=NOW() WHERE id=$1 AND status = ANY($2)`
	return s.execCAS(ctx, query, id, pq.Array(states), to)
}
