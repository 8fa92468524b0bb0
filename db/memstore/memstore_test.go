package memstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"procurelink/db/memstore"
	"procurelink/internal/lifecycle"
	"procurelink/models"
)

func seedRFQ(t *testing.T, s *memstore.Store, status models.RFQStatus, category string) models.RFQ {
	t.Helper()
	rfq := models.RFQ{
		ID:        uuid.New(),
		BuyerID:   uuid.New(),
		Title:     "Pallets",
		Category:  category,
		Status:    status,
		CreatedAt: time.Now(),
	}
	rfq.Items = []models.RFQItem{{ID: uuid.New(), RFQID: rfq.ID, Name: "Pallet", Qty: decimal.NewFromInt(10), Unit: "pcs"}}
	err := s.Tx(context.Background(), func(tx lifecycle.Tx) error {
		return tx.CreateRFQ(context.Background(), &rfq)
	})
	require.NoError(t, err)
	return rfq
}

func TestTxRollbackDiscardsWrites(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	id := uuid.New()

	boom := errors.New("boom")
	err := s.Tx(ctx, func(tx lifecycle.Tx) error {
		require.NoError(t, tx.CreateProfile(ctx, &models.Profile{ID: id, Role: models.RoleBuyer}))
		_, err := tx.GetProfile(ctx, id)
		require.NoError(t, err, "writes are visible inside the transaction")
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = s.GetProfile(ctx, id)
	require.ErrorIs(t, err, lifecycle.ErrNotFound)
}

func TestTxCancelledContext(t *testing.T) {
	s := memstore.New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := s.Tx(ctx, func(lifecycle.Tx) error { called = true; return nil })
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, called)
}

func TestCloseRFQIfOpenIsConditional(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	rfq := seedRFQ(t, s, models.RFQOpen, "wood")

	var first, second bool
	err := s.Tx(ctx, func(tx lifecycle.Tx) error {
		var err error
		if first, err = tx.CloseRFQIfOpen(ctx, rfq.ID); err != nil {
			return err
		}
		second, err = tx.CloseRFQIfOpen(ctx, rfq.ID)
		return err
	})
	require.NoError(t, err)
	require.True(t, first)
	require.False(t, second)

	got, err := s.GetRFQ(ctx, rfq.ID)
	require.NoError(t, err)
	require.Equal(t, models.RFQClosed, got.Status)
	require.NotNil(t, got.ClosedAt)
}

func TestUniqueQuotePerSupplier(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	rfq := seedRFQ(t, s, models.RFQOpen, "wood")
	supplier := uuid.New()

	insert := func() error {
		return s.Tx(ctx, func(tx lifecycle.Tx) error {
			return tx.CreateQuote(ctx, &models.Quote{
				ID: uuid.New(), RFQID: rfq.ID, SupplierID: supplier,
				TotalPrice: decimal.NewFromInt(5), Currency: "EUR", LeadTimeDays: 3, Status: models.QuoteSent,
			})
		})
	}
	require.NoError(t, insert())
	require.ErrorIs(t, insert(), lifecycle.ErrConflict)
}

func TestListOpenRFQsFilterAndPaging(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	seedRFQ(t, s, models.RFQOpen, "wood")
	seedRFQ(t, s, models.RFQOpen, "metal")
	seedRFQ(t, s, models.RFQOpen, "metal")
	seedRFQ(t, s, models.RFQClosed, "metal")

	all, err := s.ListOpenRFQs(ctx, lifecycle.RFQFilter{Page: lifecycle.Page{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, all, 3)
	for _, r := range all {
		require.Len(t, r.Items, 1)
	}

	metal, err := s.ListOpenRFQs(ctx, lifecycle.RFQFilter{Categories: []string{"metal"}, Page: lifecycle.Page{Limit: 10}})
	require.NoError(t, err)
	require.Len(t, metal, 2)

	page, err := s.ListOpenRFQs(ctx, lifecycle.RFQFilter{Page: lifecycle.Page{Limit: 2, Offset: 2}})
	require.NoError(t, err)
	require.Len(t, page, 1)

	empty, err := s.ListOpenRFQs(ctx, lifecycle.RFQFilter{Page: lifecycle.Page{Limit: 2, Offset: 10}})
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestReturnedRFQIsACopy(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	rfq := seedRFQ(t, s, models.RFQOpen, "wood")

	got, err := s.GetRFQ(ctx, rfq.ID)
	require.NoError(t, err)
	got.Items[0].Name = "changed"
	got.Status = models.RFQClosed

	again, err := s.GetRFQ(ctx, rfq.ID)
	require.NoError(t, err)
	require.Equal(t, "Pallet", again.Items[0].Name)
	require.Equal(t, models.RFQOpen, again.Status)
}

func TestTransitionConnectionFromSet(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	c := &models.Connection{ID: uuid.New(), BuyerID: uuid.New(), SupplierID: uuid.New(), Status: models.ConnectionRejected}
	require.NoError(t, s.Tx(ctx, func(tx lifecycle.Tx) error { return tx.CreateConnection(ctx, c) }))

	var ok bool
	err := s.Tx(ctx, func(tx lifecycle.Tx) error {
		var err error
		ok, err = tx.TransitionConnection(ctx, c.ID, []models.ConnectionStatus{models.ConnectionPending}, models.ConnectionAccepted)
		return err
	})
	require.NoError(t, err)
	require.False(t, ok)

	err = s.Tx(ctx, func(tx lifecycle.Tx) error {
		var err error
		ok, err = tx.TransitionConnection(ctx, c.ID,
			[]models.ConnectionStatus{models.ConnectionPending, models.ConnectionRejected}, models.ConnectionBlocked)
		return err
	})
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.GetConnection(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, models.ConnectionBlocked, got.Status)
}

func TestListOrdersByCreationTime(t *testing.T) {
	s := memstore.New()
	ctx := context.Background()
	buyer := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	order := func(po string, createdAt time.Time) models.Order {
		rfq := seedRFQ(t, s, models.RFQClosed, "wood")
		q := models.Quote{ID: uuid.New(), RFQID: rfq.ID, SupplierID: uuid.New(),
			TotalPrice: decimal.NewFromInt(5), Currency: "EUR", LeadTimeDays: 1, Status: models.QuoteAccepted}
		o := models.Order{ID: uuid.New(), RFQID: rfq.ID, QuoteID: q.ID, BuyerID: buyer, SupplierID: q.SupplierID,
			PONumber: po, Status: models.OrderCreated, CreatedAt: createdAt}
		require.NoError(t, s.Tx(ctx, func(tx lifecycle.Tx) error {
			if err := tx.CreateQuote(ctx, &q); err != nil {
				return err
			}
			return tx.CreateOrder(ctx, &o)
		}))
		return o
	}
	order("PO-2025-999999", base)
	order("PO-2025-1000000", base.Add(time.Minute))

	orders, err := s.ListOrders(ctx, buyer, lifecycle.Page{Limit: 10})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "PO-2025-1000000", orders[0].PONumber)
	require.Equal(t, "PO-2025-999999", orders[1].PONumber)
}
