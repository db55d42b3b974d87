package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// EquityPeriodStatus represents the lifecycle of a profit period
type EquityPeriodStatus string

const (
	EquityPeriodStatusOpen   EquityPeriodStatus = "OPEN"
	EquityPeriodStatusClosed EquityPeriodStatus = "CLOSED"
)

// EquityPeriodPartner locks a shareholder's percentage for the period.
// Percentages are frozen at period open and only rewritten by capital
// movements while the period is still open.
type EquityPeriodPartner struct {
	shared.BaseEntity
	PeriodID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartnerID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Percentage      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	CapitalSnapshot decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AllocatedProfit decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (EquityPeriodPartner) TableName() string {
	return "equity_period_partners"
}

// EquityPeriod is the aggregate root for a profit allocation window.
// At most one period may be open at a time.
type EquityPeriod struct {
	shared.BaseAggregateRoot
	StartDate time.Time             `gorm:"type:timestamptz;not null"`
	EndDate   *time.Time            `gorm:"type:timestamptz"`
	Status    EquityPeriodStatus    `gorm:"type:varchar(10);not null;index"`
	NetProfit decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Partners  []EquityPeriodPartner `gorm:"foreignKey:PeriodID;references:ID"`
	ClosedAt  *time.Time            `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (EquityPeriod) TableName() string {
	return "equity_periods"
}

// NewEquityPeriod opens a period starting at the given instant
func NewEquityPeriod(startDate time.Time) *EquityPeriod {
	return &EquityPeriod{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		StartDate:         startDate,
		Status:            EquityPeriodStatusOpen,
		NetProfit:         decimal.Zero,
		Partners:          make([]EquityPeriodPartner, 0),
	}
}

// IsOpen reports whether the period is still accumulating
func (p *EquityPeriod) IsOpen() bool {
	return p.Status == EquityPeriodStatusOpen
}

// LockPartner records a shareholder's percentage and capital snapshot for
// this period. Relocking an existing partner overwrites both in place.
func (p *EquityPeriod) LockPartner(partnerID uuid.UUID, percentage, capital decimal.Decimal) error {
	if !p.IsOpen() {
		return shared.NewDomainError("INVALID_STATE", "Cannot change partners on a closed period")
	}
	if partnerID == uuid.Nil {
		return shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if percentage.IsNegative() || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_INPUT", "Percentage must be between 0 and 100")
	}
	for idx := range p.Partners {
		if p.Partners[idx].PartnerID == partnerID {
			p.Partners[idx].Percentage = percentage
			p.Partners[idx].CapitalSnapshot = capital
			p.Partners[idx].UpdatedAt = time.Now()
			p.UpdatedAt = time.Now()
			return nil
		}
	}
	p.Partners = append(p.Partners, EquityPeriodPartner{
		BaseEntity:      shared.NewBaseEntity(),
		PeriodID:        p.ID,
		PartnerID:       partnerID,
		Percentage:      percentage,
		CapitalSnapshot: capital,
		AllocatedProfit: decimal.Zero,
	})
	p.UpdatedAt = time.Now()
	return nil
}

// Close allocates net profit across the locked percentages and seals the
// period. Returns the per-partner allocations.
func (p *EquityPeriod) Close(endDate time.Time, netProfit decimal.Decimal) ([]EquityPeriodPartner, error) {
	if !p.IsOpen() {
		return nil, shared.NewDomainError("ALREADY_PROCESSED", "Period is already closed")
	}
	if len(p.Partners) == 0 {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot close a period without locked shareholders")
	}
	if endDate.Before(p.StartDate) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Period end cannot precede its start")
	}

	hundred := decimal.NewFromInt(100)
	for idx := range p.Partners {
		p.Partners[idx].AllocatedProfit = netProfit.Mul(p.Partners[idx].Percentage).Div(hundred).Round(4)
		p.Partners[idx].UpdatedAt = time.Now()
	}

	now := time.Now()
	p.EndDate = &endDate
	p.NetProfit = netProfit
	p.Status = EquityPeriodStatusClosed
	p.ClosedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()
	p.AddDomainEvent(NewEquityPeriodClosedEvent(p))
	return p.Partners, nil
}

// Ref returns the typed ledger reference for this period
func (p *EquityPeriod) Ref() shared.DocumentRef {
	return shared.DocumentRef{Kind: shared.DocumentKindEquityPeriod, ID: p.ID}
}
