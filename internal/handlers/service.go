package handlers

import (
	"context"

	"github.com/google/uuid"

	"procurelink/internal/lifecycle"
	"procurelink/models"
)

// Service is the workflow API the handlers drive. *lifecycle.Manager
// implements it.
type Service interface {
	CreateProfile(ctx context.Context, id uuid.UUID, in lifecycle.ProfileInput) (*models.Profile, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in lifecycle.ProfileUpdate) (*models.Profile, error)

	CreateRFQ(ctx context.Context, buyerID uuid.UUID, in lifecycle.RFQInput) (*models.RFQ, error)
	ListOpenRFQs(ctx context.Context, filter lifecycle.RFQFilter) ([]models.RFQ, error)
	ListBuyerRFQs(ctx context.Context, buyerID uuid.UUID, page lifecycle.Page) ([]models.RFQ, error)
	GetRFQ(ctx context.Context, callerID, rfqID uuid.UUID) (*models.RFQ, error)
	ListQuotesForRFQ(ctx context.Context, callerID, rfqID uuid.UUID) ([]models.Quote, error)
	InviteSupplier(ctx context.Context, rfqID, buyerID, supplierID uuid.UUID) (*models.RFQInvitation, error)
	ListInvitations(ctx context.Context, supplierID uuid.UUID) ([]models.RFQInvitation, error)

	SubmitQuote(ctx context.Context, rfqID, supplierID uuid.UUID, terms lifecycle.QuoteTerms) (*models.Quote, error)
	AcceptQuote(ctx context.Context, rfqID, quoteID, buyerID uuid.UUID) (*models.Order, error)
	RejectQuote(ctx context.Context, quoteID, buyerID uuid.UUID) (*models.Quote, error)
	ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, page lifecycle.Page) ([]models.Quote, error)

	FulfillOrder(ctx context.Context, orderID, supplierID uuid.UUID) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, supplierID uuid.UUID) (*models.Order, error)
	GetOrderWithContext(ctx context.Context, callerID, orderID uuid.UUID) (*models.OrderWithContext, error)
	ListOrders(ctx context.Context, callerID uuid.UUID, page lifecycle.Page) ([]models.Order, error)

	RequestConnection(ctx context.Context, requesterID, counterpartyID uuid.UUID) (*models.Connection, error)
	RespondConnection(ctx context.Context, connectionID, callerID uuid.UUID, accept bool) (*models.Connection, error)
	BlockConnection(ctx context.Context, connectionID, callerID uuid.UUID) (*models.Connection, error)
	ListConnections(ctx context.Context, callerID uuid.UUID) ([]models.Connection, error)
}

var _ Service = (*lifecycle.Manager)(nil)
