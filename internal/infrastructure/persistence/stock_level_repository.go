package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/inventory"
)

// GormStockLevelRepository implements StockLevelRepository using GORM.
// Stock levels are the per-pair serialization anchors: posting locks the row
// with FOR UPDATE so concurrent postings against the same pair queue up.
type GormStockLevelRepository struct {
	db *gorm.DB
}

// NewGormStockLevelRepository creates a new GormStockLevelRepository
func NewGormStockLevelRepository(db *gorm.DB) *GormStockLevelRepository {
	return &GormStockLevelRepository{db: db}
}

// FindOrCreate returns the stock level row for the pair, creating it at zero
func (r *GormStockLevelRepository) FindOrCreate(ctx context.Context, warehouseID, productID uuid.UUID) (*inventory.StockLevel, error) {
	var level inventory.StockLevel
	err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		First(&level).Error
	if err == nil {
		return &level, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	created, err := inventory.NewStockLevel(warehouseID, productID)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "warehouse_id"}, {Name: "product_id"}},
			DoNothing: true,
		}).
		Create(created).Error; err != nil {
		return nil, err
	}
	// re-read in case a concurrent insert won the conflict
	if err := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		First(&level).Error; err != nil {
		return nil, err
	}
	return &level, nil
}

// FindForUpdate loads the row under a FOR UPDATE lock. It must run inside a
// transaction; the row must already exist.
func (r *GormStockLevelRepository) FindForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) (*inventory.StockLevel, error) {
	var level inventory.StockLevel
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("warehouse_id = ? AND product_id = ?", warehouseID, productID).
		First(&level).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.FindOrCreate(ctx, warehouseID, productID)
		}
		return nil, err
	}
	return &level, nil
}

// Save updates a stock level row
func (r *GormStockLevelRepository) Save(ctx context.Context, level *inventory.StockLevel) error {
	return r.db.WithContext(ctx).Save(level).Error
}

// Ensure GormStockLevelRepository implements StockLevelRepository
var _ inventory.StockLevelRepository = (*GormStockLevelRepository)(nil)
