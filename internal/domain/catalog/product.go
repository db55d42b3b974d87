package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// UnitKind selects which of a product's two units a quantity is expressed in.
type UnitKind string

const (
	// UnitKindSmall is the base unit; all ledger quantities are stored in it.
	UnitKindSmall UnitKind = "SMALL"
	// UnitKindLarge is the bulk unit, converted to base via the product's factor.
	UnitKindLarge UnitKind = "LARGE"
)

// String returns the string representation of UnitKind
func (k UnitKind) String() string {
	return string(k)
}

// IsValid returns true if the unit kind is valid
func (k UnitKind) IsValid() bool {
	return k == UnitKindSmall || k == UnitKindLarge
}

// Product is the aggregate root for catalog items.
// AvgCost is a cache of a pure function over the stock ledger's purchase-side
// movements and is only ever written by the costing recalculation.
type Product struct {
	shared.BaseAggregateRoot
	Code         string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name         string          `gorm:"type:varchar(200);not null"`
	BaseUnit     string          `gorm:"type:varchar(30);not null"`
	LargeUnit    string          `gorm:"type:varchar(30)"`
	UnitFactor   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // base units per large unit; 0 = no large unit
	AvgCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	SellingPrice decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(code, name, baseUnit string) (*Product, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Product code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if baseUnit == "" {
		return nil, shared.NewDomainError("INVALID_UNIT", "Base unit cannot be empty")
	}

	return &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		BaseUnit:          baseUnit,
		UnitFactor:        decimal.Zero,
		AvgCost:           decimal.Zero,
		SellingPrice:      decimal.Zero,
	}, nil
}

// SetLargeUnit defines the bulk unit and its conversion factor to base units
func (p *Product) SetLargeUnit(name string, factor decimal.Decimal) error {
	if name == "" {
		return shared.NewDomainError("INVALID_UNIT", "Large unit name cannot be empty")
	}
	if factor.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_CONVERSION_RATE", "Unit factor must be positive")
	}
	p.LargeUnit = name
	p.UnitFactor = factor
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// HasLargeUnit reports whether the product defines a bulk unit
func (p *Product) HasLargeUnit() bool {
	return p.LargeUnit != "" && p.UnitFactor.IsPositive()
}

// ToBaseQuantity converts a quantity expressed in the given unit kind to base units.
// A large-unit quantity on a product without a large unit passes through unchanged;
// callers relying on conversion must define the unit first.
func (p *Product) ToBaseQuantity(quantity decimal.Decimal, unit UnitKind) (decimal.Decimal, error) {
	if !unit.IsValid() {
		return decimal.Zero, shared.NewDomainError("INVALID_UNIT", "Invalid unit kind")
	}
	if unit == UnitKindLarge && p.HasLargeUnit() {
		return quantity.Mul(p.UnitFactor), nil
	}
	return quantity, nil
}

// SetAvgCost persists a recalculated weighted-average cost.
// Only the costing recalculation should call this.
func (p *Product) SetAvgCost(cost decimal.Decimal) {
	p.AvgCost = cost.Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// OverrideSellingPrice applies a new selling price coming from a posted
// purchase invoice line
func (p *Product) OverrideSellingPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	p.SellingPrice = price.Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}
