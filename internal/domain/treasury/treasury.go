package treasury

import (
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// Treasury is a cash-equivalent account (register, safe, bank account).
// Its balance is never stored: it is always Σ(transaction amounts).
type Treasury struct {
	shared.BaseAggregateRoot
	Name   string `gorm:"type:varchar(200);not null"`
	Active bool   `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Treasury) TableName() string {
	return "treasuries"
}

// NewTreasury creates a new treasury account
func NewTreasury(name string) (*Treasury, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Treasury name cannot be empty")
	}
	return &Treasury{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Active:            true,
	}, nil
}
