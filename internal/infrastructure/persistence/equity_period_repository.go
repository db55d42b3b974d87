package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// GormEquityPeriodRepository implements EquityPeriodRepository using GORM
type GormEquityPeriodRepository struct {
	db *gorm.DB
}

// NewGormEquityPeriodRepository creates a new GormEquityPeriodRepository
func NewGormEquityPeriodRepository(db *gorm.DB) *GormEquityPeriodRepository {
	return &GormEquityPeriodRepository{db: db}
}

// FindByID finds an equity period by its ID
func (r *GormEquityPeriodRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.EquityPeriod, error) {
	var period finance.EquityPeriod
	if err := r.db.WithContext(ctx).
		Preload("Partners").
		First(&period, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &period, nil
}

// FindOpenForUpdate locks the single open period. Returns nil without error
// when no period is open.
func (r *GormEquityPeriodRepository) FindOpenForUpdate(ctx context.Context) (*finance.EquityPeriod, error) {
	var period finance.EquityPeriod
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ?", finance.EquityPeriodStatusOpen).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Where("period_id = ?", period.ID).
		Find(&period.Partners).Error; err != nil {
		return nil, err
	}
	return &period, nil
}

// FindOpen returns the open period without locking, nil when none exists
func (r *GormEquityPeriodRepository) FindOpen(ctx context.Context) (*finance.EquityPeriod, error) {
	var period finance.EquityPeriod
	err := r.db.WithContext(ctx).
		Preload("Partners").
		Where("status = ?", finance.EquityPeriodStatusOpen).
		First(&period).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &period, nil
}

// ListClosed returns closed periods, oldest first
func (r *GormEquityPeriodRepository) ListClosed(ctx context.Context) ([]finance.EquityPeriod, error) {
	var periods []finance.EquityPeriod
	err := r.db.WithContext(ctx).
		Preload("Partners").
		Where("status = ?", finance.EquityPeriodStatusClosed).
		Order("start_date ASC").
		Find(&periods).Error
	if err != nil {
		return nil, err
	}
	return periods, nil
}

// Save creates or updates a period with its locked partner rows
func (r *GormEquityPeriodRepository) Save(ctx context.Context, period *finance.EquityPeriod) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(period).Error
}

// Ensure GormEquityPeriodRepository implements EquityPeriodRepository
var _ finance.EquityPeriodRepository = (*GormEquityPeriodRepository)(nil)
