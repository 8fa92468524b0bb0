package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type (
	Role             string
	RFQStatus        string
	QuoteStatus      string
	OrderStatus      string
	ConnectionStatus string
)

const (
	RoleBuyer    Role = "buyer"
	RoleSupplier Role = "supplier"

	RFQOpen   RFQStatus = "open"
	RFQClosed RFQStatus = "closed"

	QuoteSent     QuoteStatus = "sent"
	QuoteAccepted QuoteStatus = "accepted"
	QuoteRejected QuoteStatus = "rejected"

	OrderCreated   OrderStatus = "created"
	OrderFulfilled OrderStatus = "fulfilled"
	OrderCancelled OrderStatus = "cancelled"

	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
	ConnectionBlocked  ConnectionStatus = "blocked"
)

// Valid reports whether r is a known account role.
func (r Role) Valid() bool { return r == RoleBuyer || r == RoleSupplier }

// Profile entity, one per account. ID is the identity provider subject.
type Profile struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Role         Role      `db:"role" json:"role"`
	OrgName      string    `db:"org_name" json:"org_name"`
	ContactName  string    `db:"contact_name" json:"contact_name"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
	Phone        string    `db:"phone" json:"phone"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// RFQ entity (request for quote).
type RFQ struct {
	ID          uuid.UUID           `db:"id" json:"id"`
	BuyerID     uuid.UUID           `db:"buyer_id" json:"buyer_id"`
	Title       string              `db:"title" json:"title"`
	Description string              `db:"description" json:"description"`
	Category    string              `db:"category" json:"category"`
	BudgetMin   decimal.NullDecimal `db:"budget_min" json:"budget_min"`
	BudgetMax   decimal.NullDecimal `db:"budget_max" json:"budget_max"`
	Status      RFQStatus           `db:"status" json:"status"`
	CreatedAt   time.Time           `db:"created_at" json:"created_at"`
	ClosedAt    *time.Time          `db:"closed_at" json:"closed_at,omitempty"`
	Items       []RFQItem           `db:"-" json:"items"`
}

// RFQItem is a line item of an RFQ. Immutable after creation.
type RFQItem struct {
	ID          uuid.UUID           `db:"id" json:"id"`
	RFQID       uuid.UUID           `db:"rfq_id" json:"rfq_id"`
	Name        string              `db:"name" json:"name"`
	SKU         string              `db:"sku" json:"sku"`
	Qty         decimal.Decimal     `db:"qty" json:"qty"`
	Unit        string              `db:"unit" json:"unit"`
	TargetPrice decimal.NullDecimal `db:"target_price" json:"target_price"`
	Position    int                 `db:"position" json:"-"`
}

// Quote entity: a supplier's priced response to an RFQ.
type Quote struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	RFQID        uuid.UUID       `db:"rfq_id" json:"rfq_id"`
	SupplierID   uuid.UUID       `db:"supplier_id" json:"supplier_id"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	Currency     string          `db:"currency" json:"currency"`
	LeadTimeDays int             `db:"lead_time_days" json:"lead_time_days"`
	Notes        string          `db:"notes" json:"notes"`
	Status       QuoteStatus     `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Order entity (purchase order), created when a quote is accepted.
type Order struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	RFQID        uuid.UUID       `db:"rfq_id" json:"rfq_id"`
	QuoteID      uuid.UUID       `db:"quote_id" json:"quote_id"`
	BuyerID      uuid.UUID       `db:"buyer_id" json:"buyer_id"`
	SupplierID   uuid.UUID       `db:"supplier_id" json:"supplier_id"`
	PONumber     string          `db:"po_number" json:"po_number"`
	TotalPrice   decimal.Decimal `db:"total_price" json:"total_price"`
	Currency     string          `db:"currency" json:"currency"`
	LeadTimeDays int             `db:"lead_time_days" json:"lead_time_days"`
	Status       OrderStatus     `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Connection is a standing buyer-supplier relationship.
type Connection struct {
	ID          uuid.UUID        `db:"id" json:"id"`
	BuyerID     uuid.UUID        `db:"buyer_id" json:"buyer_id"`
	SupplierID  uuid.UUID        `db:"supplier_id" json:"supplier_id"`
	RequestedBy uuid.UUID        `db:"requested_by" json:"requested_by"`
	Status      ConnectionStatus `db:"status" json:"status"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`
}

// Participant reports whether id is one side of the connection.
func (c *Connection) Participant(id uuid.UUID) bool {
	return c.BuyerID == id || c.SupplierID == id
}

// RFQInvitation targets an RFQ at a specific supplier.
type RFQInvitation struct {
	ID         uuid.UUID `db:"id" json:"id"`
	RFQID      uuid.UUID `db:"rfq_id" json:"rfq_id"`
	SupplierID uuid.UUID `db:"supplier_id" json:"supplier_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ProfileSummary is the public part of a profile embedded in read models.
type ProfileSummary struct {
	ID           uuid.UUID `db:"id" json:"id"`
	OrgName      string    `db:"org_name" json:"org_name"`
	ContactName  string    `db:"contact_name" json:"contact_name"`
	ContactEmail string    `db:"contact_email" json:"contact_email"`
}

// RFQSummary is the part of an RFQ embedded in read models.
type RFQSummary struct {
	ID       uuid.UUID `db:"id" json:"id"`
	Title    string    `db:"title" json:"title"`
	Category string    `db:"category" json:"category"`
	Status   RFQStatus `db:"status" json:"status"`
}

// OrderWithContext is the canonical order read model.
type OrderWithContext struct {
	Order    Order          `json:"order"`
	Buyer    ProfileSummary `json:"buyer"`
	Supplier ProfileSummary `json:"supplier"`
	RFQ      RFQSummary     `json:"rfq"`
	Quote    Quote          `json:"quote"`
}

// Summary returns the public part of the profile.
func (p *Profile) Summary() ProfileSummary {
	return ProfileSummary{ID: p.ID, OrgName: p.OrgName, ContactName: p.ContactName, ContactEmail: p.ContactEmail}
}

// Summary returns the read-model part of the RFQ.
func (r *RFQ) Summary() RFQSummary {
	return RFQSummary{ID: r.ID, Title: r.Title, Category: r.Category, Status: r.Status}
}
