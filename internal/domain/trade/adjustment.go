package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// AdjustmentDirection says whether a count correction adds or removes stock
type AdjustmentDirection string

const (
	AdjustmentDirectionIn  AdjustmentDirection = "IN"
	AdjustmentDirectionOut AdjustmentDirection = "OUT"
)

// IsValid returns true if the direction is valid
func (d AdjustmentDirection) IsValid() bool {
	return d == AdjustmentDirectionIn || d == AdjustmentDirectionOut
}

// AdjustmentLine is a child entity of StockAdjustment
type AdjustmentLine struct {
	shared.BaseEntity
	AdjustmentID uuid.UUID           `gorm:"type:uuid;not null;index"`
	ProductID    uuid.UUID           `gorm:"type:uuid;not null"`
	Direction    AdjustmentDirection `gorm:"type:varchar(5);not null"`
	Unit         catalog.UnitKind    `gorm:"type:varchar(10);not null"`
	Quantity     decimal.Decimal     `gorm:"type:decimal(18,4);not null"` // positive; direction carries the sign
}

// TableName returns the table name for GORM
func (AdjustmentLine) TableName() string {
	return "adjustment_lines"
}

// StockAdjustment corrects counted stock against the ledger. Movement costs
// come from the product's average cost at posting time.
type StockAdjustment struct {
	shared.BaseAggregateRoot
	Number      string           `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status      DocumentStatus   `gorm:"type:varchar(20);not null;index"`
	WarehouseID uuid.UUID        `gorm:"type:uuid;not null"`
	Reason      string           `gorm:"type:varchar(300);not null"`
	Lines       []AdjustmentLine `gorm:"foreignKey:AdjustmentID;references:ID"`
	PostedAt    *time.Time       `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (StockAdjustment) TableName() string {
	return "stock_adjustments"
}

// NewStockAdjustment creates a draft adjustment
func NewStockAdjustment(number string, warehouseID uuid.UUID, reason string) (*StockAdjustment, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Adjustment number cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}
	if reason == "" {
		return nil, shared.NewDomainError("INVALID_REASON", "Adjustment reason is required")
	}
	return &StockAdjustment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Status:            DocumentStatusDraft,
		WarehouseID:       warehouseID,
		Reason:            reason,
		Lines:             make([]AdjustmentLine, 0),
	}, nil
}

func (a *StockAdjustment) ensureDraft() error {
	if a.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Posted adjustments are immutable")
	}
	return nil
}

// IsPosted reports whether the adjustment has been posted
func (a *StockAdjustment) IsPosted() bool {
	return a.Status == DocumentStatusPosted
}

// AddLine appends a correction line. Draft only.
func (a *StockAdjustment) AddLine(productID uuid.UUID, direction AdjustmentDirection, unit catalog.UnitKind, quantity decimal.Decimal) (*AdjustmentLine, error) {
	if err := a.ensureDraft(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Invalid adjustment direction")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Invalid unit kind")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	line := AdjustmentLine{
		BaseEntity:   shared.NewBaseEntity(),
		AdjustmentID: a.ID,
		ProductID:    productID,
		Direction:    direction,
		Unit:         unit,
		Quantity:     quantity,
	}
	a.Lines = append(a.Lines, line)
	a.UpdatedAt = time.Now()
	return &a.Lines[len(a.Lines)-1], nil
}

// MarkPosted flips the adjustment to POSTED
func (a *StockAdjustment) MarkPosted() error {
	if err := a.ensureDraft(); err != nil {
		return err
	}
	if len(a.Lines) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot post an adjustment without lines")
	}
	now := time.Now()
	a.Status = DocumentStatusPosted
	a.PostedAt = &now
	a.UpdatedAt = now
	a.IncrementVersion()
	return nil
}

// Ref returns the typed ledger reference for this adjustment
func (a *StockAdjustment) Ref() shared.DocumentRef {
	return shared.DocumentRef{Kind: shared.DocumentKindStockAdjustment, ID: a.ID}
}
