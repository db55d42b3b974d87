package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// StockLevel is one row per (warehouse, product). It serves two purposes:
// it is the row locked during sale postings so concurrent availability checks
// cannot interleave, and it caches the movement sum for cheap reads. The cache
// is always recomputed from the movement rows inside the same transaction,
// never patched incrementally.
type StockLevel struct {
	shared.BaseAggregateRoot
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_wh_product,priority:1"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_level_wh_product,priority:2"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockLevel) TableName() string {
	return "stock_levels"
}

// NewStockLevel creates a stock level row for a warehouse-product pair
func NewStockLevel(warehouseID, productID uuid.UUID) (*StockLevel, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	return &StockLevel{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		WarehouseID:       warehouseID,
		ProductID:         productID,
		Quantity:          decimal.Zero,
	}, nil
}

// Refresh overwrites the cached quantity with a freshly derived movement sum
func (l *StockLevel) Refresh(derived decimal.Decimal) {
	l.Quantity = derived
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}

// CanFulfill reports whether the cached quantity covers the requested base-unit quantity
func (l *StockLevel) CanFulfill(quantity decimal.Decimal) bool {
	return l.Quantity.GreaterThanOrEqual(quantity)
}
