package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// GormStockMovementRepository implements StockMovementRepository using GORM.
// The stock_movements table is append-only; rows are only ever inserted or
// soft-deleted, never updated in place.
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Append inserts a movement row
func (r *GormStockMovementRepository) Append(ctx context.Context, movement *inventory.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

// SoftDelete flags a movement as deleted so derived sums skip it
func (r *GormStockMovementRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("id = ?", id).
		Update("deleted", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// SumQuantity derives the current stock for a warehouse-product pair
func (r *GormStockMovementRepository) SumQuantity(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("warehouse_id = ? AND product_id = ? AND deleted = false", warehouseID, productID).
		Select("COALESCE(SUM(quantity), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// PurchaseCostPool aggregates the purchase-side pool for a product across all
// warehouses. Purchase returns carry negative quantities and shrink the pool.
func (r *GormStockMovementRepository) PurchaseCostPool(ctx context.Context, productID uuid.UUID, asOf *time.Time) (inventory.CostPool, error) {
	var row struct {
		TotalCost     decimal.Decimal
		TotalQuantity decimal.Decimal
	}
	query := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("product_id = ? AND deleted = false AND kind IN ?",
			productID,
			[]inventory.MovementKind{inventory.MovementKindPurchase, inventory.MovementKindPurchaseReturn})
	if asOf != nil {
		query = query.Where("moved_at <= ?", *asOf)
	}
	err := query.
		Select("COALESCE(SUM(unit_cost * quantity), 0) AS total_cost, COALESCE(SUM(quantity), 0) AS total_quantity").
		Scan(&row).Error
	if err != nil {
		return inventory.CostPool{}, err
	}
	return inventory.CostPool{TotalCost: row.TotalCost, TotalQuantity: row.TotalQuantity}, nil
}

// ListByWarehouseProduct returns the stock card rows, oldest first
func (r *GormStockMovementRepository) ListByWarehouseProduct(ctx context.Context, warehouseID, productID uuid.UUID, from, to *time.Time) ([]inventory.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("warehouse_id = ? AND product_id = ? AND deleted = false", warehouseID, productID)
	if from != nil {
		query = query.Where("moved_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("moved_at <= ?", *to)
	}

	var movements []inventory.StockMovement
	if err := query.Order("moved_at ASC, created_at ASC").Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

// ExistsBySource reports whether any live movement references the document
func (r *GormStockMovementRepository) ExistsBySource(ctx context.Context, source shared.DocumentRef) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("source_kind = ? AND source_id = ? AND deleted = false", source.Kind, source.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// SumSaleCost aggregates the cost of goods sold over the window, counting
// moved_at in [from, to)
func (r *GormStockMovementRepository) SumSaleCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&inventory.StockMovement{}).
		Where("kind = ? AND deleted = false AND moved_at >= ? AND moved_at < ?",
			inventory.MovementKindSale, from, to).
		Select("COALESCE(SUM(-quantity * unit_cost), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Ensure GormStockMovementRepository implements StockMovementRepository
var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
