package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"procurelink/models"
)

// CreateProfile registers the caller's profile. id is the authenticated subject.
func (m *Manager) CreateProfile(ctx context.Context, id uuid.UUID, in ProfileInput) (*models.Profile, error) {
	in.OrgName = strings.TrimSpace(in.OrgName)
	in.ContactEmail = strings.TrimSpace(in.ContactEmail)
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	now := m.now()
	p := &models.Profile{
		ID:           id,
		Role:         in.Role,
		OrgName:      in.OrgName,
		ContactName:  strings.TrimSpace(in.ContactName),
		ContactEmail: in.ContactEmail,
		Phone:        strings.TrimSpace(in.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err := m.store.Tx(ctx, func(tx Tx) error {
		_, err := tx.GetProfile(ctx, id)
		if err == nil {
			return fmt.Errorf("profile %s already exists: %w", id, ErrConflict)
		}
		if !isNotFound(err) {
			return err
		}
		return tx.CreateProfile(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (m *Manager) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return m.store.GetProfile(ctx, id)
}

// UpdateProfile changes the caller's own contact fields. The role is immutable.
func (m *Manager) UpdateProfile(ctx context.Context, id uuid.UUID, in ProfileUpdate) (*models.Profile, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	var p *models.Profile
	err := m.store.Tx(ctx, func(tx Tx) error {
		var err error
		p, err = tx.GetProfile(ctx, id)
		if err != nil {
			return err
		}
		if in.Role != nil && *in.Role != p.Role {
			return invalid("role", "cannot be changed")
		}
		if in.OrgName != nil {
			p.OrgName = strings.TrimSpace(*in.OrgName)
		}
		if in.ContactName != nil {
			p.ContactName = strings.TrimSpace(*in.ContactName)
		}
		if in.ContactEmail != nil {
			p.ContactEmail = strings.TrimSpace(*in.ContactEmail)
		}
		if in.Phone != nil {
			p.Phone = strings.TrimSpace(*in.Phone)
		}
		p.UpdatedAt = m.now()
		return tx.UpdateProfile(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}
