package partner

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// PartnerType classifies the counterparty relationship
type PartnerType string

const (
	PartnerTypeCustomer    PartnerType = "CUSTOMER"
	PartnerTypeSupplier    PartnerType = "SUPPLIER"
	PartnerTypeShareholder PartnerType = "SHAREHOLDER"
)

// String returns the string representation of PartnerType
func (t PartnerType) String() string {
	return string(t)
}

// IsValid returns true if the partner type is valid
func (t PartnerType) IsValid() bool {
	switch t {
	case PartnerTypeCustomer, PartnerTypeSupplier, PartnerTypeShareholder:
		return true
	}
	return false
}

// Partner is the aggregate root for customers, suppliers and shareholders.
//
// CurrentBalance is a cache of a pure function over posted invoices, returns,
// payments and partner-tagged treasury transactions. It is only written by the
// balance recalculation; sign convention: positive = partner owes the company.
type Partner struct {
	shared.BaseAggregateRoot
	Name             string          `gorm:"type:varchar(200);not null"`
	Type             PartnerType     `gorm:"type:varchar(20);not null;index"`
	Phone            string          `gorm:"type:varchar(30)"`
	CurrentBalance   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CurrentCapital   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // shareholders only
	EquityPercentage decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // shareholders only
}

// TableName returns the table name for GORM
func (Partner) TableName() string {
	return "partners"
}

// NewPartner creates a new partner
func NewPartner(name string, partnerType PartnerType) (*Partner, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Partner name cannot be empty")
	}
	if !partnerType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTNER_TYPE", "Invalid partner type")
	}

	return &Partner{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Type:              partnerType,
		CurrentBalance:    decimal.Zero,
		CurrentCapital:    decimal.Zero,
		EquityPercentage:  decimal.Zero,
	}, nil
}

// IsShareholder reports whether the partner participates in equity allocation
func (p *Partner) IsShareholder() bool {
	return p.Type == PartnerTypeShareholder
}

// SetBalance persists a recalculated balance.
// Only the balance recalculation should call this.
func (p *Partner) SetBalance(balance decimal.Decimal) {
	p.CurrentBalance = balance.Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// AdjustCapital applies a capital injection (positive) or drawing (negative)
func (p *Partner) AdjustCapital(delta decimal.Decimal) error {
	if !p.IsShareholder() {
		return shared.NewDomainError("INVALID_PARTNER_TYPE", "Only shareholders carry capital")
	}
	next := p.CurrentCapital.Add(delta)
	if next.IsNegative() {
		return shared.NewDomainError("INSUFFICIENT_CAPITAL", "Capital cannot go negative")
	}
	p.CurrentCapital = next
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// SetEquityPercentage persists a recomputed share of total shareholder capital
func (p *Partner) SetEquityPercentage(percentage decimal.Decimal) {
	p.EquityPercentage = percentage.Round(4)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}
