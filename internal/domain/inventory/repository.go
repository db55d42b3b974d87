package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// StockMovementRepository is the append-only store for stock ledger rows
type StockMovementRepository interface {
	// Append inserts a movement row. Movements are never updated.
	Append(ctx context.Context, movement *StockMovement) error
	// SoftDelete flags a movement as deleted, excluding it from derived sums
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// SumQuantity derives current stock for a warehouse-product pair
	SumQuantity(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error)
	// PurchaseCostPool aggregates the purchase-side pool for a product across
	// all warehouses, optionally windowed to movements at or before asOf
	PurchaseCostPool(ctx context.Context, productID uuid.UUID, asOf *time.Time) (CostPool, error)
	// ListByWarehouseProduct returns non-deleted movements for the stock card,
	// oldest first, windowed by the optional date range
	ListByWarehouseProduct(ctx context.Context, warehouseID, productID uuid.UUID, from, to *time.Time) ([]StockMovement, error)
	// ExistsBySource reports whether any non-deleted movement references the document
	ExistsBySource(ctx context.Context, source shared.DocumentRef) (bool, error)
	// SumSaleCost aggregates Σ(-qty × cost) over sale movements in the window
	// (the COGS-equivalent used by profit allocation)
	SumSaleCost(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// StockLevelRepository stores the per-pair lock anchors
type StockLevelRepository interface {
	// FindOrCreate returns the stock level row for the pair, creating it at zero
	FindOrCreate(ctx context.Context, warehouseID, productID uuid.UUID) (*StockLevel, error)
	// FindForUpdate loads the row under a FOR UPDATE lock; it must be called
	// inside a transaction
	FindForUpdate(ctx context.Context, warehouseID, productID uuid.UUID) (*StockLevel, error)
	Save(ctx context.Context, level *StockLevel) error
}
