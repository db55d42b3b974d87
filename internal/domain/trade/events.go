package trade

import (
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// Event types for trade documents
const (
	EventTypeInvoicePosted  = "trade.invoice.posted"
	EventTypeReturnPosted   = "trade.return.posted"
	EventTypeAdjustmentDone = "trade.adjustment.posted"
	EventTypeTransferDone   = "trade.transfer.posted"
)

// InvoicePostedEvent is emitted when an invoice flips to POSTED
type InvoicePostedEvent struct {
	shared.BaseDomainEvent
	Number     string          `json:"number"`
	Kind       InvoiceKind     `json:"kind"`
	Total      decimal.Decimal `json:"total"`
	CashAmount decimal.Decimal `json:"cash_amount"`
}

// NewInvoicePostedEvent creates an InvoicePostedEvent
func NewInvoicePostedEvent(invoice *Invoice) *InvoicePostedEvent {
	return &InvoicePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePosted, "Invoice", invoice.ID),
		Number:          invoice.Number,
		Kind:            invoice.Kind,
		Total:           invoice.Total,
		CashAmount:      invoice.CashAmount(),
	}
}

// ReturnPostedEvent is emitted when a return flips to POSTED
type ReturnPostedEvent struct {
	shared.BaseDomainEvent
	Number string          `json:"number"`
	Kind   ReturnKind      `json:"kind"`
	Total  decimal.Decimal `json:"total"`
	Mode   RefundMode      `json:"mode"`
}

// NewReturnPostedEvent creates a ReturnPostedEvent
func NewReturnPostedEvent(ret *Return) *ReturnPostedEvent {
	return &ReturnPostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnPosted, "Return", ret.ID),
		Number:          ret.Number,
		Kind:            ret.Kind,
		Total:           ret.Total,
		Mode:            ret.Mode,
	}
}
