package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// GormTreasuryRepository implements TreasuryRepository using GORM
type GormTreasuryRepository struct {
	db *gorm.DB
}

// NewGormTreasuryRepository creates a new GormTreasuryRepository
func NewGormTreasuryRepository(db *gorm.DB) *GormTreasuryRepository {
	return &GormTreasuryRepository{db: db}
}

// FindByID finds a treasury by its ID
func (r *GormTreasuryRepository) FindByID(ctx context.Context, id uuid.UUID) (*treasury.Treasury, error) {
	var t treasury.Treasury
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindForUpdate loads the treasury row under a FOR UPDATE lock so the balance
// check and the subsequent insert cannot interleave with a concurrent debit
func (r *GormTreasuryRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*treasury.Treasury, error) {
	var t treasury.Treasury
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&t, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

// FindAll finds all treasuries matching the filter
func (r *GormTreasuryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]treasury.Treasury, error) {
	var treasuries []treasury.Treasury
	query := r.db.WithContext(ctx).Model(&treasury.Treasury{})

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}

	orderBy := ValidateSortField(filter.OrderBy, TreasurySortFields, "name")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&treasuries).Error; err != nil {
		return nil, err
	}
	return treasuries, nil
}

// Save creates or updates a treasury
func (r *GormTreasuryRepository) Save(ctx context.Context, t *treasury.Treasury) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Ensure GormTreasuryRepository implements TreasuryRepository
var _ treasury.TreasuryRepository = (*GormTreasuryRepository)(nil)
