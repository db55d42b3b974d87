package finance

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// Event types for finance
const (
	EventTypePaymentOverpaid    = "finance.payment.overpaid"
	EventTypeEquityPeriodClosed = "finance.equity_period.closed"
)

// PaymentOverpaidEvent flags a payment that exceeded the invoice's open
// installment schedule. Informational, never fatal.
type PaymentOverpaidEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Excess    decimal.Decimal `json:"excess"`
}

// NewPaymentOverpaidEvent creates a PaymentOverpaidEvent
func NewPaymentOverpaidEvent(payment *InvoicePayment, excess decimal.Decimal) *PaymentOverpaidEvent {
	return &PaymentOverpaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentOverpaid, "InvoicePayment", payment.ID),
		InvoiceID:       payment.InvoiceID,
		Excess:          excess,
	}
}

// EquityPeriodClosedEvent is emitted when a profit period is sealed
type EquityPeriodClosedEvent struct {
	shared.BaseDomainEvent
	NetProfit decimal.Decimal `json:"net_profit"`
	Partners  int             `json:"partners"`
}

// NewEquityPeriodClosedEvent creates an EquityPeriodClosedEvent
func NewEquityPeriodClosedEvent(period *EquityPeriod) *EquityPeriodClosedEvent {
	return &EquityPeriodClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeEquityPeriodClosed, "EquityPeriod", period.ID),
		NetProfit:       period.NetProfit,
		Partners:        len(period.Partners),
	}
}
