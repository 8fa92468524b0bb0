package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"procurelink/models"
)

// RequestConnection opens a pending buyer-supplier connection. Either side may
// ask; the counterparty answers.
func (m *Manager) RequestConnection(ctx context.Context, requesterID, counterpartyID uuid.UUID) (*models.Connection, error) {
	if requesterID == counterpartyID {
		return nil, invalid("counterparty_id", "must differ from the requester")
	}
	var conn *models.Connection
	err := m.store.Tx(ctx, func(tx Tx) error {
		requester, err := tx.GetProfile(ctx, requesterID)
		if isNotFound(err) {
			return fmt.Errorf("profile %s does not exist: %w", requesterID, ErrForbidden)
		}
		if err != nil {
			return err
		}
		counterparty, err := tx.GetProfile(ctx, counterpartyID)
		if err != nil {
			return fmt.Errorf("counterparty %s: %w", counterpartyID, err)
		}
		if requester.Role == counterparty.Role {
			return invalid("counterparty_id", "must have the opposite role")
		}

		buyerID, supplierID := requesterID, counterpartyID
		if requester.Role == models.RoleSupplier {
			buyerID, supplierID = counterpartyID, requesterID
		}
		_, err = tx.FindConnection(ctx, buyerID, supplierID)
		if err == nil {
			return fmt.Errorf("connection between %s and %s exists: %w", buyerID, supplierID, ErrConflict)
		}
		if !isNotFound(err) {
			return err
		}
		now := m.now()
		conn = &models.Connection{
			ID:          uuid.New(),
			BuyerID:     buyerID,
			SupplierID:  supplierID,
			RequestedBy: requesterID,
			Status:      models.ConnectionPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		return tx.CreateConnection(ctx, conn)
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// RespondConnection lets the counterparty accept or reject a pending request.
func (m *Manager) RespondConnection(ctx context.Context, connectionID, callerID uuid.UUID, accept bool) (*models.Connection, error) {
	to := models.ConnectionRejected
	if accept {
		to = models.ConnectionAccepted
	}
	return m.transitionConnection(ctx, connectionID, callerID, []models.ConnectionStatus{models.ConnectionPending}, to, true)
}

// BlockConnection blocks the relationship from either side.
func (m *Manager) BlockConnection(ctx context.Context, connectionID, callerID uuid.UUID) (*models.Connection, error) {
	from := []models.ConnectionStatus{models.ConnectionPending, models.ConnectionAccepted, models.ConnectionRejected}
	return m.transitionConnection(ctx, connectionID, callerID, from, models.ConnectionBlocked, false)
}

func (m *Manager) transitionConnection(ctx context.Context, id, callerID uuid.UUID, from []models.ConnectionStatus, to models.ConnectionStatus, counterpartyOnly bool) (*models.Connection, error) {
	var conn *models.Connection
	err := m.store.Tx(ctx, func(tx Tx) error {
		var err error
		conn, err = tx.GetConnection(ctx, id)
		if err != nil {
			return err
		}
		if !conn.Participant(callerID) {
			return fmt.Errorf("connection %s: %w", id, ErrNotFound)
		}
		if counterpartyOnly && conn.RequestedBy == callerID {
			return fmt.Errorf("connection %s must be answered by the counterparty: %w", id, ErrForbidden)
		}
		ok, err := tx.TransitionConnection(ctx, id, from, to)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("connection %s is %s: %w", id, conn.Status, ErrConflict)
		}
		conn.Status = to
		conn.UpdatedAt = m.now()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func (m *Manager) ListConnections(ctx context.Context, callerID uuid.UUID) ([]models.Connection, error) {
	return m.store.ListConnections(ctx, callerID)
}
