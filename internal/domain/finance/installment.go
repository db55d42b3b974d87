package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// InstallmentStatus represents the lifecycle of a single installment
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "PENDING"
	InstallmentStatusPaid    InstallmentStatus = "PAID"
	InstallmentStatusOverdue InstallmentStatus = "OVERDUE"
)

// String returns the string representation of InstallmentStatus
func (s InstallmentStatus) String() string {
	return string(s)
}

// Installment is one slice of an invoice's open balance with a due date.
// PaidAmount grows monotonically; the slice counts as settled only when
// PaidAmount equals Amount exactly.
type Installment struct {
	shared.BaseEntity
	InvoiceID  uuid.UUID         `gorm:"type:uuid;not null;index"`
	Sequence   int               `gorm:"not null"`
	DueDate    time.Time         `gorm:"type:date;not null;index"`
	Amount     decimal.Decimal   `gorm:"type:decimal(18,4);not null"`
	PaidAmount decimal.Decimal   `gorm:"type:decimal(18,4);not null;default:0"`
	Status     InstallmentStatus `gorm:"type:varchar(20);not null;index"`
	PaidAt     *time.Time        `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (Installment) TableName() string {
	return "installments"
}

// NewInstallment creates a pending installment slice
func NewInstallment(invoiceID uuid.UUID, sequence int, dueDate time.Time, amount decimal.Decimal) (*Installment, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if sequence < 1 {
		return nil, shared.NewDomainError("INVALID_SEQUENCE", "Installment sequence starts at 1")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment amount must be positive")
	}
	return &Installment{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  invoiceID,
		Sequence:   sequence,
		DueDate:    dueDate,
		Amount:     amount,
		PaidAmount: decimal.Zero,
		Status:     InstallmentStatusPending,
	}, nil
}

// Remaining returns the unpaid portion of the slice
func (i *Installment) Remaining() decimal.Decimal {
	return i.Amount.Sub(i.PaidAmount)
}

// IsSettled reports whether the slice is fully paid
func (i *Installment) IsSettled() bool {
	return i.Status == InstallmentStatusPaid
}

// Apply records value against the slice and returns the portion consumed.
// The status flips to PAID only on exact equality of PaidAmount and Amount.
func (i *Installment) Apply(value decimal.Decimal) (decimal.Decimal, error) {
	if i.Status == InstallmentStatusPaid {
		return decimal.Zero, shared.NewDomainError("ALREADY_PROCESSED", "Installment is already settled")
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Applied value must be positive")
	}

	consumed := decimal.Min(value, i.Remaining())
	i.PaidAmount = i.PaidAmount.Add(consumed)
	if i.PaidAmount.Equal(i.Amount) {
		now := time.Now()
		i.Status = InstallmentStatusPaid
		i.PaidAt = &now
	}
	i.UpdatedAt = time.Now()
	return consumed, nil
}

// MarkOverdue flips a pending slice past its due date to OVERDUE
func (i *Installment) MarkOverdue(asOf time.Time) bool {
	if i.Status != InstallmentStatusPending {
		return false
	}
	if !asOf.After(i.DueDate) {
		return false
	}
	i.Status = InstallmentStatusOverdue
	i.UpdatedAt = time.Now()
	return true
}

// BuildSchedule splits an open balance into monthly slices. Each slice is
// the balance divided by the month count truncated to 2 decimal places; the
// last slice absorbs the rounding remainder so the schedule sums exactly.
func BuildSchedule(invoiceID uuid.UUID, openBalance decimal.Decimal, months int, firstDueDate time.Time) ([]Installment, error) {
	if months < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Installment months must be at least 1")
	}
	if openBalance.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Open balance must be positive to schedule installments")
	}

	base := openBalance.Div(decimal.NewFromInt(int64(months))).Truncate(2)
	schedule := make([]Installment, 0, months)
	allocated := decimal.Zero
	for seq := 1; seq <= months; seq++ {
		amount := base
		if seq == months {
			amount = openBalance.Sub(allocated)
		}
		inst, err := NewInstallment(invoiceID, seq, firstDueDate.AddDate(0, seq-1, 0), amount)
		if err != nil {
			return nil, err
		}
		schedule = append(schedule, *inst)
		allocated = allocated.Add(amount)
	}
	return schedule, nil
}
