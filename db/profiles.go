package db

import (
	"context"

	"github.com/google/uuid"

	"procurelink/models"
)

const profileColumns = `id, role, org_name, contact_name, contact_email, phone, created_at, updated_at`

func (s queries) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p := &models.Profile{}
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id=$1`
	if err := s.get(ctx, p, query, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (s queries) CreateProfile(ctx context.Context, p *models.Profile) error {
	query := `
        INSERT INTO profiles
            (id, role, org_name, contact_name, contact_email, phone, created_at, updated_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8)`
	return s.exec(ctx, query,
		p.ID, p.Role, p.OrgName, p.ContactName, p.ContactEmail, p.Phone, p.CreatedAt, p.UpdatedAt)
}

// UpdateProfile writes the contact fields. Role is never updated.
func (s queries) UpdateProfile(ctx context.Context, p *models.Profile) error {
	query := `
        UPDATE profiles
        SET org_name=$1, contact_name=$2, contact_email=$3, phone=$4, updated_at=$5
        WHERE id=$6`
	return s.exec(ctx, query, p.OrgName, p.ContactName, p.ContactEmail, p.Phone, p.UpdatedAt, p.ID)
}
