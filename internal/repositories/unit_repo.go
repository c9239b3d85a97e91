package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"homelyquad/internal/common"
	"homelyquad/internal/models"

	"github.com/jackc/pgx/v5"
)

// UnitRepository answers ownership and occupancy questions about rental units.
type UnitRepository interface {
	GetOwnership(ctx context.Context, unitID int64) (*models.UnitOwnership, error)
	HasActiveLease(ctx context.Context, unitID, tenantID int64, at time.Time) (bool, error)
}

type unitRepo struct {
	db DB
}

func NewUnitRepo(db DB) UnitRepository {
	return &unitRepo{db: db}
}

func (r *unitRepo) GetOwnership(ctx context.Context, unitID int64) (*models.UnitOwnership, error) {
	ownership := &models.UnitOwnership{}
	query := `
		SELECT u.id, u.premises_id, p.landlord_id, p.organization_id
		FROM units u
		JOIN premises p ON p.id = u.premises_id
		WHERE u.id = $1
	`
	err := r.db.QueryRow(ctx, query, unitID).Scan(
		&ownership.UnitID,
		&ownership.PremisesID,
		&ownership.LandlordID,
		&ownership.OrganizationID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("unit %d: %w", unitID, common.ErrNotFound)
		}
		return nil, err
	}
	return ownership, nil
}

func (r *unitRepo) HasActiveLease(ctx context.Context, unitID, tenantID int64, at time.Time) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM leases
			WHERE unit_id = $1 AND tenant_id = $2 AND status = 'active'
			AND start_date <= $3 AND (end_date IS NULL OR end_date >= $3)
		)
	`
	if err := r.db.QueryRow(ctx, query, unitID, tenantID, at).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}
