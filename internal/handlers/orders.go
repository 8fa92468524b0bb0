package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"procurelink/models"
)

func (h *Handler) GetOrdersHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	orders, err := h.Svc.ListOrders(r.Context(), caller, parsePaginationParams(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrderHandler returns the order with its participants, RFQ and quote.
func (h *Handler) GetOrderHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerID(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}
	order, err := h.Svc.GetOrderWithContext(r.Context(), caller, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

func (h *Handler) FulfillOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.finishOrder(w, r, h.Svc.FulfillOrder)
}

func (h *Handler) CancelOrderHandler(w http.ResponseWriter, r *http.Request) {
	h.finishOrder(w, r, h.Svc.CancelOrder)
}

func (h *Handler) finishOrder(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, orderID, supplierID uuid.UUID) (*models.Order, error)) {
	supplierID, ok := callerID(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "orderId")
	if !ok {
		return
	}
	order, err := op(r.Context(), orderID, supplierID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
