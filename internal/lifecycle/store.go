package lifecycle

import (
	"context"

	"github.com/google/uuid"

	"procurelink/models"
)

// Page bounds a list query.
type Page struct {
	Limit  int
	Offset int
}

// RFQFilter narrows the public RFQ list.
type RFQFilter struct {
	Categories []string
	Page       Page
}

// Reader is the read side of the persistent store. Missing rows are reported
// as ErrNotFound.
type Reader interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	GetRFQ(ctx context.Context, id uuid.UUID) (*models.RFQ, error)
	ListOpenRFQs(ctx context.Context, filter RFQFilter) ([]models.RFQ, error)
	ListBuyerRFQs(ctx context.Context, buyerID uuid.UUID, page Page) ([]models.RFQ, error)

	GetQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error)
	GetSupplierQuote(ctx context.Context, rfqID, supplierID uuid.UUID) (*models.Quote, error)
	ListQuotesForRFQ(ctx context.Context, rfqID uuid.UUID) ([]models.Quote, error)
	ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, page Page) ([]models.Quote, error)

	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	GetOrderWithContext(ctx context.Context, id uuid.UUID) (*models.OrderWithContext, error)
	ListOrders(ctx context.Context, participantID uuid.UUID, page Page) ([]models.Order, error)

	GetConnection(ctx context.Context, id uuid.UUID) (*models.Connection, error)
	FindConnection(ctx context.Context, buyerID, supplierID uuid.UUID) (*models.Connection, error)
	ListConnections(ctx context.Context, participantID uuid.UUID) ([]models.Connection, error)

	ListInvitations(ctx context.Context, supplierID uuid.UUID) ([]models.RFQInvitation, error)
}

// Tx is a unit of work. The conditional transitions return false, nil when the
// row is not in the expected state, leaving it untouched.
type Tx interface {
	Reader

	CreateProfile(ctx context.Context, p *models.Profile) error
	UpdateProfile(ctx context.Context, p *models.Profile) error

	CreateRFQ(ctx context.Context, rfq *models.RFQ) error
	CloseRFQIfOpen(ctx context.Context, rfqID uuid.UUID) (bool, error)

	CreateQuote(ctx context.Context, q *models.Quote) error
	TransitionQuote(ctx context.Context, quoteID uuid.UUID, from, to models.QuoteStatus) (bool, error)

	NextPOSequence(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, o *models.Order) error
	TransitionOrder(ctx context.Context, orderID uuid.UUID, from, to models.OrderStatus) (bool, error)

	CreateConnection(ctx context.Context, c *models.Connection) error
	TransitionConnection(ctx context.Context, id uuid.UUID, from []models.ConnectionStatus, to models.ConnectionStatus) (bool, error)

	CreateInvitation(ctx context.Context, inv *models.RFQInvitation) error
}

// Store runs fn in a transaction: committed when fn returns nil, rolled back
// otherwise.
type Store interface {
	Reader
	Tx(ctx context.Context, fn func(tx Tx) error) error
}
