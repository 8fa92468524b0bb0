// Package memstore is an in-process implementation of the lifecycle store.
// A transaction holds the store mutex for its whole duration and works on a
// copy of the state that replaces the live state only on commit.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"procurelink/internal/lifecycle"
	"procurelink/models"
)

type state struct {
	profiles    map[uuid.UUID]models.Profile
	rfqs        map[uuid.UUID]models.RFQ
	quotes      map[uuid.UUID]models.Quote
	orders      map[uuid.UUID]models.Order
	connections map[uuid.UUID]models.Connection
	invitations map[uuid.UUID]models.RFQInvitation
	poSeq       int64
}

func newState() state {
	return state{
		profiles:    map[uuid.UUID]models.Profile{},
		rfqs:        map[uuid.UUID]models.RFQ{},
		quotes:      map[uuid.UUID]models.Quote{},
		orders:      map[uuid.UUID]models.Order{},
		connections: map[uuid.UUID]models.Connection{},
		invitations: map[uuid.UUID]models.RFQInvitation{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		profiles:    cloneMap(s.profiles),
		rfqs:        cloneMap(s.rfqs),
		quotes:      cloneMap(s.quotes),
		orders:      cloneMap(s.orders),
		connections: cloneMap(s.connections),
		invitations: cloneMap(s.invitations),
		poSeq:       s.poSeq,
	}
}

// Store is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	state state
	nowFn func() time.Time
}

var _ lifecycle.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{state: newState(), nowFn: func() time.Time { return time.Now().UTC() }}
}

// Tx runs fn against a working copy and commits it when fn returns nil.
func (s *Store) Tx(ctx context.Context, fn func(tx lifecycle.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.state.clone()
	if err := fn(&txView{st: &work, now: s.nowFn}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) view() *txView { return &txView{st: &s.state, now: s.nowFn} }

func (s *Store) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetProfile(ctx, id)
}

func (s *Store) GetRFQ(ctx context.Context, id uuid.UUID) (*models.RFQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetRFQ(ctx, id)
}

func (s *Store) ListOpenRFQs(ctx context.Context, filter lifecycle.RFQFilter) ([]models.RFQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListOpenRFQs(ctx, filter)
}

func (s *Store) ListBuyerRFQs(ctx context.Context, buyerID uuid.UUID, page lifecycle.Page) ([]models.RFQ, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListBuyerRFQs(ctx, buyerID, page)
}

func (s *Store) GetQuote(ctx context.Context, id uuid.UUID) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetQuote(ctx, id)
}

func (s *Store) GetSupplierQuote(ctx context.Context, rfqID, supplierID uuid.UUID) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetSupplierQuote(ctx, rfqID, supplierID)
}

func (s *Store) ListQuotesForRFQ(ctx context.Context, rfqID uuid.UUID) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListQuotesForRFQ(ctx, rfqID)
}

func (s *Store) ListSupplierQuotes(ctx context.Context, supplierID uuid.UUID, page lifecycle.Page) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListSupplierQuotes(ctx, supplierID, page)
}

func (s *Store) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetOrder(ctx, id)
}

func (s *Store) GetOrderWithContext(ctx context.Context, id uuid.UUID) (*models.OrderWithContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetOrderWithContext(ctx, id)
}

func (s *Store) ListOrders(ctx context.Context, participantID uuid.UUID, page lifecycle.Page) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListOrders(ctx, participantID, page)
}

func (s *Store) GetConnection(ctx context.Context, id uuid.UUID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().GetConnection(ctx, id)
}

func (s *Store) FindConnection(ctx context.Context, buyerID, supplierID uuid.UUID) (*models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().FindConnection(ctx, buyerID, supplierID)
}

func (s *Store) ListConnections(ctx context.Context, participantID uuid.UUID) ([]models.Connection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListConnections(ctx, participantID)
}

func (s *Store) ListInvitations(ctx context.Context, supplierID uuid.UUID) ([]models.RFQInvitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().ListInvitations(ctx, supplierID)
}

// Snapshot returns copies of all quotes, RFQs and orders. Used by tests that
// check cross-entity invariants.
func (s *Store) Snapshot() (rfqs []models.RFQ, quotes []models.Quote, orders []models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.state.rfqs {
		rfqs = append(rfqs, r)
	}
	for _, q := range s.state.quotes {
		quotes = append(quotes, q)
	}
	for _, o := range s.state.orders {
		orders = append(orders, o)
	}
	return rfqs, quotes, orders
}

// txView operates on a state without locking; the caller holds the mutex.
type txView struct {
	st  *state
	now func() time.Time
}

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%s %s: %w", kind, id, lifecycle.ErrNotFound)
}

func paginate[T any](items []T, page lifecycle.Page) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}
	return items
}

func copyRFQ(r models.RFQ) models.RFQ {
	r.Items = append([]models.RFQItem(nil), r.Items...)
	return r
}

func (v *txView) GetProfile(_ context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := v.st.profiles[id]
	if !ok {
		return nil, notFound("profile", id)
	}
	return &p, nil
}

func (v *txView) CreateProfile(_ context.Context, p *models.Profile) error {
	if _, ok := v.st.profiles[p.ID]; ok {
		return fmt.Errorf("profile %s: %w", p.ID, lifecycle.ErrConflict)
	}
	v.st.profiles[p.ID] = *p
	return nil
}

func (v *txView) UpdateProfile(_ context.Context, p *models.Profile) error {
	if _, ok := v.st.profiles[p.ID]; !ok {
		return notFound("profile", p.ID)
	}
	v.st.profiles[p.ID] = *p
	return nil
}

func (v *txView) GetRFQ(_ context.Context, id uuid.UUID) (*models.RFQ, error) {
	r, ok := v.st.rfqs[id]
	if !ok {
		return nil, notFound("rfq", id)
	}
	r = copyRFQ(r)
	return &r, nil
}

func (v *txView) sortedRFQs(keep func(models.RFQ) bool) []models.RFQ {
	out := []models.RFQ{}
	for _, r := range v.st.rfqs {
		if keep(r) {
			out = append(out, copyRFQ(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (v *txView) ListOpenRFQs(_ context.Context, filter lifecycle.RFQFilter) ([]models.RFQ, error) {
	cats := map[string]bool{}
	for _, c := range filter.Categories {
		cats[c] = true
	}
	out := v.sortedRFQs(func(r models.RFQ) bool {
		return r.Status == models.RFQOpen && (len(cats) == 0 || cats[r.Category])
	})
	return paginate(out, filter.Page), nil
}

func (v *txView) ListBuyerRFQs(_ context.Context, buyerID uuid.UUID, page lifecycle.Page) ([]models.RFQ, error) {
	out := v.sortedRFQs(func(r models.RFQ) bool { return r.BuyerID == buyerID })
	return paginate(out, page), nil
}

func (v *txView) CreateRFQ(_ context.Context, rfq *models.RFQ) error {
	if _, ok := v.st.rfqs[rfq.ID]; ok {
		return fmt.Errorf("rfq %s: %w", rfq.ID, lifecycle.ErrConflict)
	}
	v.st.rfqs[rfq.ID] = copyRFQ(*rfq)
	return nil
}

func (v *txView) CloseRFQIfOpen(_ context.Context, rfqID uuid.UUID) (bool, error) {
	r, ok := v.st.rfqs[rfqID]
	if !ok || r.Status != models.RFQOpen {
		return false, nil
	}
	now := v.now()
	r.Status = models.RFQClosed
	r.ClosedAt = &now
	v.st.rfqs[rfqID] = r
	return true, nil
}

func (v *txView) GetQuote(_ context.Context, id uuid.UUID) (*models.Quote, error) {
	q, ok := v.st.quotes[id]
	if !ok {
		return nil, notFound("quote", id)
	}
	return &q, nil
}

func (v *txView) GetSupplierQuote(_ context.Context, rfqID, supplierID uuid.UUID) (*models.Quote, error) {
	for _, q := range v.st.quotes {
		if q.RFQID == rfqID && q.SupplierID == supplierID {
			return &q, nil
		}
	}
	return nil, fmt.Errorf("quote by %s on rfq %s: %w", supplierID, rfqID, lifecycle.ErrNotFound)
}

func (v *txView) sortedQuotes(keep func(models.Quote) bool) []models.Quote {
	out := []models.Quote{}
	for _, q := range v.st.quotes {
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (v *txView) ListQuotesForRFQ(_ context.Context, rfqID uuid.UUID) ([]models.Quote, error) {
	return v.sortedQuotes(func(q models.Quote) bool { return q.RFQID == rfqID }), nil
}

func (v *txView) ListSupplierQuotes(_ context.Context, supplierID uuid.UUID, page lifecycle.Page) ([]models.Quote, error) {
	out := v.sortedQuotes(func(q models.Quote) bool { return q.SupplierID == supplierID })
	return paginate(out, page), nil
}

func (v *txView) CreateQuote(_ context.Context, q *models.Quote) error {
	if _, ok := v.st.rfqs[q.RFQID]; !ok {
		return notFound("rfq", q.RFQID)
	}
	for _, existing := range v.st.quotes {
		if existing.RFQID == q.RFQID && existing.SupplierID == q.SupplierID {
			return fmt.Errorf("quote by %s on rfq %s: %w", q.SupplierID, q.RFQID, lifecycle.ErrConflict)
		}
	}
	v.st.quotes[q.ID] = *q
	return nil
}

func (v *txView) TransitionQuote(_ context.Context, quoteID uuid.UUID, from, to models.QuoteStatus) (bool, error) {
	q, ok := v.st.quotes[quoteID]
	if !ok || q.Status != from {
		return false, nil
	}
	q.Status = to
	q.UpdatedAt = v.now()
	v.st.quotes[quoteID] = q
	return true, nil
}

func (v *txView) NextPOSequence(_ context.Context) (int64, error) {
	v.st.poSeq++
	return v.st.poSeq, nil
}

func (v *txView) CreateOrder(_ context.Context, o *models.Order) error {
	if _, ok := v.st.quotes[o.QuoteID]; !ok {
		return notFound("quote", o.QuoteID)
	}
	for _, existing := range v.st.orders {
		if existing.QuoteID == o.QuoteID || existing.PONumber == o.PONumber {
			return fmt.Errorf("order for quote %s: %w", o.QuoteID, lifecycle.ErrConflict)
		}
	}
	v.st.orders[o.ID] = *o
	return nil
}

func (v *txView) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	o, ok := v.st.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	return &o, nil
}

func (v *txView) GetOrderWithContext(ctx context.Context, id uuid.UUID) (*models.OrderWithContext, error) {
	o, ok := v.st.orders[id]
	if !ok {
		return nil, notFound("order", id)
	}
	out := &models.OrderWithContext{Order: o}
	if p, ok := v.st.profiles[o.BuyerID]; ok {
		out.Buyer = p.Summary()
	}
	if p, ok := v.st.profiles[o.SupplierID]; ok {
		out.Supplier = p.Summary()
	}
	if r, ok := v.st.rfqs[o.RFQID]; ok {
		out.RFQ = r.Summary()
	}
	if q, ok := v.st.quotes[o.QuoteID]; ok {
		out.Quote = q
	}
	return out, nil
}

func (v *txView) ListOrders(_ context.Context, participantID uuid.UUID, page lifecycle.Page) ([]models.Order, error) {
	out := []models.Order{}
	for _, o := range v.st.orders {
		if o.BuyerID == participantID || o.SupplierID == participantID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return paginate(out, page), nil
}

func (v *txView) TransitionOrder(_ context.Context, orderID uuid.UUID, from, to models.OrderStatus) (bool, error) {
	o, ok := v.st.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	o.UpdatedAt = v.now()
	v.st.orders[orderID] = o
	return true, nil
}

func (v *txView) GetConnection(_ context.Context, id uuid.UUID) (*models.Connection, error) {
	c, ok := v.st.connections[id]
	if !ok {
		return nil, notFound("connection", id)
	}
	return &c, nil
}

func (v *txView) FindConnection(_ context.Context, buyerID, supplierID uuid.UUID) (*models.Connection, error) {
	for _, c := range v.st.connections {
		if c.BuyerID == buyerID && c.SupplierID == supplierID {
			return &c, nil
		}
	}
	return nil, fmt.Errorf("connection %s/%s: %w", buyerID, supplierID, lifecycle.ErrNotFound)
}

func (v *txView) ListConnections(_ context.Context, participantID uuid.UUID) ([]models.Connection, error) {
	out := []models.Connection{}
	for _, c := range v.st.connections {
		if c.Participant(participantID) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (v *txView) CreateConnection(_ context.Context, c *models.Connection) error {
	for _, existing := range v.st.connections {
		if existing.BuyerID == c.BuyerID && existing.SupplierID == c.SupplierID {
			return fmt.Errorf("connection %s/%s: %w", c.BuyerID, c.SupplierID, lifecycle.ErrConflict)
		}
	}
	v.st.connections[c.ID] = *c
	return nil
}

func (v *txView) TransitionConnection(_ context.Context, id uuid.UUID, from []models.ConnectionStatus, to models.ConnectionStatus) (bool, error) {
	c, ok := v.st.connections[id]
	if !ok {
		return false, nil
	}
	for _, f := range from {
		if c.Status == f {
			c.Status = to
			c.UpdatedAt = v.now()
			v.st.connections[id] = c
			return true, nil
		}
	}
	return false, nil
}

func (v *txView) CreateInvitation(_ context.Context, inv *models.RFQInvitation) error {
	for _, existing := range v.st.invitations {
		if existing.RFQID == inv.RFQID && existing.SupplierID == inv.SupplierID {
			return fmt.Errorf("invitation for %s on rfq %s: %w", inv.SupplierID, inv.RFQID, lifecycle.ErrConflict)
		}
	}
	v.st.invitations[inv.ID] = *inv
	return nil
}

func (v *txView) ListInvitations(_ context.Context, supplierID uuid.UUID) ([]models.RFQInvitation, error) {
	out := []models.RFQInvitation{}
	for _, inv := range v.st.invitations {
		if inv.SupplierID == supplierID {
			out = append(out, inv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}
