package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"procurelink/internal/notify"
	"procurelink/models"
)

// FulfillOrder marks a created order fulfilled. Only the supplier may do this.
func (m *Manager) FulfillOrder(ctx context.Context, orderID, supplierID uuid.UUID) (*models.Order, error) {
	return m.finishOrder(ctx, orderID, supplierID, models.OrderFulfilled, notify.OrderFulfilled)
}

// CancelOrder cancels a created order. Only the supplier may do this.
func (m *Manager) CancelOrder(ctx context.Context, orderID, supplierID uuid.UUID) (*models.Order, error) {
	return m.finishOrder(ctx, orderID, supplierID, models.OrderCancelled, notify.OrderCancelled)
}

func (m *Manager) finishOrder(ctx context.Context, orderID, callerID uuid.UUID, to models.OrderStatus, kind notify.Kind) (*models.Order, error) {
	var (
		order *models.Order
		title string
	)
	err := m.store.Tx(ctx, func(tx Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		switch callerID {
		case order.SupplierID:
		case order.BuyerID:
			return fmt.Errorf("only the supplier may move order %s to %s: %w", orderID, to, ErrForbidden)
		default:
			return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
		}
		if order.Status != models.OrderCreated {
			return fmt.Errorf("order %s is already %s: %w", orderID, order.Status, ErrConflict)
		}
		ok, err := tx.TransitionOrder(ctx, orderID, models.OrderCreated, to)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("order %s changed concurrently: %w", orderID, ErrConflict)
		}
		order.Status = to
		order.UpdatedAt = m.now()
		if rfq, err := tx.GetRFQ(ctx, order.RFQID); err == nil {
			title = rfq.Title
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	m.logger.Info().Str("order_id", orderID.String()).Str("status", string(to)).Msg("order status changed")
	m.emit(ctx, order.BuyerID, notify.Event{
		Kind:     kind,
		RFQID:    order.RFQID,
		RFQTitle: title,
		QuoteID:  order.QuoteID,
		OrderID:  order.ID,
		PONumber: order.PONumber,
	})
	return order, nil
}

// GetOrderWithContext returns the order read model to either participant.
func (m *Manager) GetOrderWithContext(ctx context.Context, callerID, orderID uuid.UUID) (*models.OrderWithContext, error) {
	order, err := m.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != callerID && order.SupplierID != callerID {
		return nil, fmt.Errorf("order %s: %w", orderID, ErrNotFound)
	}
	return m.store.GetOrderWithContext(ctx, orderID)
}

func (m *Manager) ListOrders(ctx context.Context, callerID uuid.UUID, page Page) ([]models.Order, error) {
	return m.store.ListOrders(ctx, callerID, clampPage(page))
}
