package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InstallmentRepository defines persistence operations for installments
type InstallmentRepository interface {
	// ExistsByInvoice guards against generating a schedule twice
	ExistsByInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error)
	// FindOpenByInvoiceForUpdate locks the invoice's unsettled installments
	// ordered by due date
	FindOpenByInvoiceForUpdate(ctx context.Context, invoiceID uuid.UUID) ([]Installment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]Installment, error)
	ListDueBefore(ctx context.Context, asOf time.Time) ([]Installment, error)
	SaveAll(ctx context.Context, installments []Installment) error
	Save(ctx context.Context, installment *Installment) error
}

// PaymentRepository defines persistence operations for invoice payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InvoicePayment, error)
	ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]InvoicePayment, error)
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]InvoicePayment, error)
	// SumSettledByInvoice aggregates amount plus discount across payments
	SumSettledByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	SumSettledByPartner(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error)
	Save(ctx context.Context, payment *InvoicePayment) error
}

// EquityPeriodRepository defines persistence operations for equity periods
type EquityPeriodRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*EquityPeriod, error)
	// FindOpenForUpdate locks the single open period, nil when none exists
	FindOpenForUpdate(ctx context.Context) (*EquityPeriod, error)
	FindOpen(ctx context.Context) (*EquityPeriod, error)
	ListClosed(ctx context.Context) ([]EquityPeriod, error)
	Save(ctx context.Context, period *EquityPeriod) error
}
