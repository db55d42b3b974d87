package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
)

// GormAdjustmentRepository implements AdjustmentRepository using GORM
type GormAdjustmentRepository struct {
	db *gorm.DB
}

// NewGormAdjustmentRepository creates a new GormAdjustmentRepository
func NewGormAdjustmentRepository(db *gorm.DB) *GormAdjustmentRepository {
	return &GormAdjustmentRepository{db: db}
}

// FindByID finds a stock adjustment by its ID
func (r *GormAdjustmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.StockAdjustment, error) {
	var adj trade.StockAdjustment
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&adj, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &adj, nil
}

// FindForUpdate loads the adjustment with lines under a FOR UPDATE lock
func (r *GormAdjustmentRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.StockAdjustment, error) {
	var adj trade.StockAdjustment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&adj, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// lines are loaded separately; FOR UPDATE cannot span the preload join
	if err := r.db.WithContext(ctx).
		Where("adjustment_id = ?", id).
		Order("created_at ASC").
		Find(&adj.Lines).Error; err != nil {
		return nil, err
	}
	return &adj, nil
}

// Save creates or updates a stock adjustment with its lines
func (r *GormAdjustmentRepository) Save(ctx context.Context, adjustment *trade.StockAdjustment) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(adjustment).Error
}

// Delete removes a stock adjustment and its lines
func (r *GormAdjustmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.AdjustmentLine{}, "adjustment_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.StockAdjustment{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// NextNumber issues the next adjustment number. Format: ADJ-00001.
func (r *GormAdjustmentRepository) NextNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, r.db, &trade.StockAdjustment{}, "ADJ")
}

// Ensure GormAdjustmentRepository implements AdjustmentRepository
var _ trade.AdjustmentRepository = (*GormAdjustmentRepository)(nil)
