package treasury

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// TransactionType classifies treasury ledger rows
type TransactionType string

const (
	TransactionTypeCollection         TransactionType = "COLLECTION"
	TransactionTypePayment            TransactionType = "PAYMENT"
	TransactionTypeRefund             TransactionType = "REFUND"
	TransactionTypeIncome             TransactionType = "INCOME"
	TransactionTypeExpense            TransactionType = "EXPENSE"
	TransactionTypeSalary             TransactionType = "SALARY"
	TransactionTypeCommissionPayout   TransactionType = "COMMISSION_PAYOUT"
	TransactionTypeCommissionReversal TransactionType = "COMMISSION_REVERSAL"
	TransactionTypeCapitalDeposit     TransactionType = "CAPITAL_DEPOSIT"
	TransactionTypePartnerDrawing     TransactionType = "PARTNER_DRAWING"
	TransactionTypeDepreciation       TransactionType = "DEPRECIATION_EXPENSE"
	TransactionTypeProfitShare        TransactionType = "PROFIT_SHARE"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid returns true if the transaction type is valid
func (t TransactionType) IsValid() bool {
	switch t {
	case TransactionTypeCollection,
		TransactionTypePayment,
		TransactionTypeRefund,
		TransactionTypeIncome,
		TransactionTypeExpense,
		TransactionTypeSalary,
		TransactionTypeCommissionPayout,
		TransactionTypeCommissionReversal,
		TransactionTypeCapitalDeposit,
		TransactionTypePartnerDrawing,
		TransactionTypeDepreciation,
		TransactionTypeProfitShare:
		return true
	}
	return false
}

// Transaction is an immutable treasury ledger row. Amount is signed: positive
// rows add cash, negative rows remove it. Rows are never updated and never
// deleted - not even soft-deleted; reversals are new rows.
type Transaction struct {
	shared.BaseEntity
	TreasuryID  uuid.UUID          `gorm:"type:uuid;not null;index:idx_treasury_tx_treasury_time,priority:1"`
	Type        TransactionType    `gorm:"type:varchar(30);not null;index"`
	Amount      decimal.Decimal    `gorm:"type:decimal(18,4);not null"` // signed
	Description string             `gorm:"type:varchar(300)"`
	PartnerID   *uuid.UUID         `gorm:"type:uuid;index"`
	Source      shared.DocumentRef `gorm:"embedded"`
	OccurredAt  time.Time          `gorm:"type:timestamptz;not null;index:idx_treasury_tx_treasury_time,priority:2"`
}

// TableName returns the table name for GORM
func (Transaction) TableName() string {
	return "treasury_transactions"
}

// NewTransaction creates a treasury ledger row
func NewTransaction(
	treasuryID uuid.UUID,
	txType TransactionType,
	amount decimal.Decimal,
	description string,
) (*Transaction, error) {
	if treasuryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TREASURY", "Treasury ID cannot be empty")
	}
	if !txType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TRANSACTION_TYPE", "Invalid transaction type")
	}
	if amount.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Amount cannot be zero")
	}

	return &Transaction{
		BaseEntity:  shared.NewBaseEntity(),
		TreasuryID:  treasuryID,
		Type:        txType,
		Amount:      amount,
		Description: description,
		OccurredAt:  time.Now(),
	}, nil
}

// WithPartner tags the row against a partner so balance recalculation sees it
func (t *Transaction) WithPartner(partnerID uuid.UUID) *Transaction {
	t.PartnerID = &partnerID
	return t
}

// WithSource links the row to its source document
func (t *Transaction) WithSource(source shared.DocumentRef) *Transaction {
	t.Source = source
	return t
}

// IsDebit reports whether the row removes cash from the treasury
func (t *Transaction) IsDebit() bool {
	return t.Amount.IsNegative()
}
