package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// MovementKind represents the kind of stock movement
type MovementKind string

const (
	MovementKindPurchase       MovementKind = "PURCHASE"
	MovementKindSale           MovementKind = "SALE"
	MovementKindPurchaseReturn MovementKind = "PURCHASE_RETURN"
	MovementKindSaleReturn     MovementKind = "SALE_RETURN"
	MovementKindAdjustmentIn   MovementKind = "ADJUSTMENT_IN"
	MovementKindAdjustmentOut  MovementKind = "ADJUSTMENT_OUT"
	MovementKindTransferIn     MovementKind = "TRANSFER_IN"
	MovementKindTransferOut    MovementKind = "TRANSFER_OUT"
)

// String returns the string representation of MovementKind
func (k MovementKind) String() string {
	return string(k)
}

// IsValid returns true if the movement kind is valid
func (k MovementKind) IsValid() bool {
	switch k {
	case MovementKindPurchase,
		MovementKindSale,
		MovementKindPurchaseReturn,
		MovementKindSaleReturn,
		MovementKindAdjustmentIn,
		MovementKindAdjustmentOut,
		MovementKindTransferIn,
		MovementKindTransferOut:
		return true
	}
	return false
}

// IsInbound returns true for kinds that add stock
func (k MovementKind) IsInbound() bool {
	switch k {
	case MovementKindPurchase, MovementKindSaleReturn, MovementKindAdjustmentIn, MovementKindTransferIn:
		return true
	}
	return false
}

// IsPurchaseSide returns true for kinds that participate in the
// weighted-average cost pool
func (k MovementKind) IsPurchaseSide() bool {
	return k == MovementKindPurchase || k == MovementKindPurchaseReturn
}

// StockMovement is an immutable stock ledger row. Quantity is signed and
// always expressed in the product's base unit; UnitCost is captured at
// movement time. Rows are never updated - a correction soft-deletes the row,
// which excludes it from every derived sum.
type StockMovement struct {
	shared.BaseEntity
	WarehouseID uuid.UUID          `gorm:"type:uuid;not null;index:idx_stock_mv_wh_product,priority:1"`
	ProductID   uuid.UUID          `gorm:"type:uuid;not null;index:idx_stock_mv_wh_product,priority:2"`
	Kind        MovementKind       `gorm:"type:varchar(20);not null;index"`
	Quantity    decimal.Decimal    `gorm:"type:decimal(18,4);not null"` // signed, base units
	UnitCost    decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	Source      shared.DocumentRef `gorm:"embedded"`
	Deleted     bool               `gorm:"not null;default:false;index"`
	MovedAt     time.Time          `gorm:"type:timestamptz;not null;index"`
}

// TableName returns the table name for GORM
func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewStockMovement creates a stock movement row. The quantity sign must match
// the movement kind: inbound kinds are positive, outbound kinds negative.
func NewStockMovement(
	warehouseID, productID uuid.UUID,
	kind MovementKind,
	quantity decimal.Decimal,
	unitCost decimal.Decimal,
	source shared.DocumentRef,
) (*StockMovement, error) {
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_MOVEMENT_KIND", "Invalid movement kind")
	}
	if quantity.IsZero() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity cannot be zero")
	}
	if kind.IsInbound() && quantity.IsNegative() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Inbound movements require a positive quantity")
	}
	if !kind.IsInbound() && quantity.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Outbound movements require a negative quantity")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_COST", "Unit cost cannot be negative")
	}
	if source.IsZero() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Source document reference is required")
	}

	return &StockMovement{
		BaseEntity:  shared.NewBaseEntity(),
		WarehouseID: warehouseID,
		ProductID:   productID,
		Kind:        kind,
		Quantity:    quantity,
		UnitCost:    unitCost,
		Source:      source,
		MovedAt:     time.Now(),
	}, nil
}

// TotalCost returns the signed extended cost of the movement
func (m *StockMovement) TotalCost() decimal.Decimal {
	return m.Quantity.Mul(m.UnitCost)
}

// MarkDeleted soft-deletes the row, excluding it from derived sums.
// This is the only permitted mutation.
func (m *StockMovement) MarkDeleted() {
	m.Deleted = true
	m.UpdatedAt = time.Now()
}
