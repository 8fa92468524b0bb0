// Package lifecycle enforces the RFQ -> Quote -> Order transition contract.
//
// Every mutating operation runs in a single store transaction. State conflicts
// are detected with conditional writes (compare-and-swap on status) inside that
// transaction, so concurrent callers cannot both win a transition and a failure
// at any step leaves all entities unchanged. Notifications are sent after commit.
//
// Access policy: a row the caller cannot read is reported as ErrNotFound, a row
// the caller can read but may not change as ErrForbidden.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"procurelink/internal/notify"
	"procurelink/models"
)

// Manager implements the procurement workflow on top of a Store.
type Manager struct {
	store    Store
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithNotifier sets the lifecycle event sink.
func WithNotifier(n notify.Notifier) Option {
	return func(m *Manager) { m.notifier = n }
}

// WithLogger replaces the global zerolog logger. Also used by the default
// notifier when no WithNotifier option is given.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides time.Now, used for timestamps and PO numbers.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// New builds a Manager over store. Without options it logs through the
// global logger, notifies through the log and stamps times in UTC.
func New(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		logger: log.Logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.notifier == nil {
		m.notifier = notify.LogNotifier{Logger: m.logger}
	}
	return m
}

// FormatPONumber renders a purchase order number from the allocation year and
// the store sequence value.
func FormatPONumber(t time.Time, seq int64) string {
	return fmt.Sprintf("PO-%d-%06d", t.Year(), seq)
}

func requireRole(ctx context.Context, r Reader, id uuid.UUID, role models.Role) (*models.Profile, error) {
	p, err := r.GetProfile(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("profile %s does not exist: %w", id, ErrForbidden)
	}
	if err != nil {
		return nil, err
	}
	if p.Role != role {
		return nil, fmt.Errorf("profile %s is a %s, %s required: %w", id, p.Role, role, ErrForbidden)
	}
	return p, nil
}

// canReadRFQ: open RFQs are public, closed ones are visible to the buyer and
// to suppliers that quoted on them.
func canReadRFQ(ctx context.Context, r Reader, rfq *models.RFQ, callerID uuid.UUID) (bool, error) {
	if rfq.Status == models.RFQOpen || rfq.BuyerID == callerID {
		return true, nil
	}
	_, err := r.GetSupplierQuote(ctx, rfq.ID, callerID)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func ownRFQ(ctx context.Context, r Reader, rfq *models.RFQ, callerID uuid.UUID) error {
	if rfq.BuyerID == callerID {
		return nil
	}
	readable, err := canReadRFQ(ctx, r, rfq, callerID)
	if err != nil {
		return err
	}
	if !readable {
		return fmt.Errorf("rfq %s: %w", rfq.ID, ErrNotFound)
	}
	return fmt.Errorf("rfq %s belongs to another buyer: %w", rfq.ID, ErrForbidden)
}

// emit delivers e to the recipient profile. Failures are logged only: the
// transition it reports is already committed.
func (m *Manager) emit(ctx context.Context, recipientID uuid.UUID, e notify.Event) {
	e.RecipientID = recipientID
	e.OccurredAt = m.now()
	if p, err := m.store.GetProfile(ctx, recipientID); err == nil {
		e.RecipientEmail = p.ContactEmail
	} else {
		m.logger.Warn().Err(err).Str("recipient_id", recipientID.String()).Msg("notification recipient lookup failed")
	}
	if err := m.notifier.Notify(ctx, e); err != nil {
		m.logger.Error().Err(err).Str("kind", string(e.Kind)).Msg("notification dispatch failed")
	}
}

func clampPage(p Page) Page {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}
