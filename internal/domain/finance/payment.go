package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// InvoicePayment records a collection or settlement against an invoice's
// open balance. Amount is the cash received; Discount is forgiven balance
// that settles the invoice without touching the treasury.
type InvoicePayment struct {
	shared.BaseEntity
	InvoiceID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartnerID             uuid.UUID       `gorm:"type:uuid;not null;index"`
	TreasuryID            uuid.UUID       `gorm:"type:uuid;not null"`
	Amount                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Discount              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Overpayment           bool            `gorm:"not null;default:false"`
	TreasuryTransactionID *uuid.UUID      `gorm:"type:uuid"`
	ReceivedAt            time.Time       `gorm:"type:timestamptz;not null"`
	Note                  string          `gorm:"type:varchar(300)"`
}

// TableName returns the table name for GORM
func (InvoicePayment) TableName() string {
	return "invoice_payments"
}

// NewInvoicePayment creates a payment record
func NewInvoicePayment(invoiceID, partnerID, treasuryID uuid.UUID, amount, discount decimal.Decimal, receivedAt time.Time) (*InvoicePayment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if treasuryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TREASURY", "Treasury ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if discount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Discount cannot be negative")
	}
	return &InvoicePayment{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  invoiceID,
		PartnerID:  partnerID,
		TreasuryID: treasuryID,
		Amount:     amount,
		Discount:   discount,
		ReceivedAt: receivedAt,
	}, nil
}

// SettlementValue is what the payment settles against the invoice balance
func (p *InvoicePayment) SettlementValue() decimal.Decimal {
	return p.Amount.Add(p.Discount)
}

// FlagOverpayment marks the payment as having exceeded its installment
// schedule without failing the posting
func (p *InvoicePayment) FlagOverpayment() {
	p.Overpayment = true
	p.UpdatedAt = time.Now()
}

// LinkTreasuryTransaction ties the payment to its ledger row
func (p *InvoicePayment) LinkTreasuryTransaction(txID uuid.UUID) {
	p.TreasuryTransactionID = &txID
	p.UpdatedAt = time.Now()
}

// Ref returns the typed ledger reference for this payment
func (p *InvoicePayment) Ref() shared.DocumentRef {
	return shared.DocumentRef{Kind: shared.DocumentKindInvoicePayment, ID: p.ID}
}
