package trade

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// InvoiceRepository defines persistence operations for invoices
type InvoiceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	// FindForUpdate loads the invoice (with lines) under a FOR UPDATE lock
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Invoice, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Invoice, error)
	ListPostedByPartner(ctx context.Context, partnerID uuid.UUID) ([]Invoice, error)
	Save(ctx context.Context, invoice *Invoice) error
	Delete(ctx context.Context, id uuid.UUID) error
	// NextNumber issues the next document number for the kind
	NextNumber(ctx context.Context, kind InvoiceKind) (string, error)
	// SumPostedTotals aggregates posted invoice totals for the kind over a window
	SumPostedTotals(ctx context.Context, kind InvoiceKind, from, to time.Time) (decimal.Decimal, error)
}

// ReturnRepository defines persistence operations for returns
type ReturnRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Return, error)
	// FindForUpdate loads the return (with lines) under a FOR UPDATE lock
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Return, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Return, error)
	ListPostedByPartner(ctx context.Context, partnerID uuid.UUID) ([]Return, error)
	Save(ctx context.Context, ret *Return) error
	Delete(ctx context.Context, id uuid.UUID) error
	NextNumber(ctx context.Context, kind ReturnKind) (string, error)
	// SumPostedLineQuantity aggregates already-returned entered quantities of a
	// product against a source invoice (over-return guard)
	SumPostedLineQuantity(ctx context.Context, invoiceID, productID uuid.UUID) (decimal.Decimal, error)
	// SumPostedTotalsByInvoice aggregates posted return totals against an invoice
	SumPostedTotalsByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error)
	SumPostedTotals(ctx context.Context, kind ReturnKind, from, to time.Time) (decimal.Decimal, error)
}

// AdjustmentRepository defines persistence operations for stock adjustments
type AdjustmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockAdjustment, error)
	// FindForUpdate loads the adjustment (with lines) under a FOR UPDATE lock
	FindForUpdate(ctx context.Context, id uuid.UUID) (*StockAdjustment, error)
	Save(ctx context.Context, adjustment *StockAdjustment) error
	Delete(ctx context.Context, id uuid.UUID) error
	NextNumber(ctx context.Context) (string, error)
}

// TransferRepository defines persistence operations for warehouse transfers
type TransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WarehouseTransfer, error)
	// FindForUpdate loads the transfer (with lines) under a FOR UPDATE lock
	FindForUpdate(ctx context.Context, id uuid.UUID) (*WarehouseTransfer, error)
	Save(ctx context.Context, transfer *WarehouseTransfer) error
	Delete(ctx context.Context, id uuid.UUID) error
	NextNumber(ctx context.Context) (string, error)
}
