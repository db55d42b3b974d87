package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/trade"
)

// ==================== Invoice DTOs ====================

// InvoiceLineInput represents one line of a draft invoice
type InvoiceLineInput struct {
	ProductID       uuid.UUID        `json:"product_id" binding:"required"`
	Unit            catalog.UnitKind `json:"unit" binding:"required"`
	Quantity        decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice       decimal.Decimal  `json:"unit_price" binding:"required"`
	NewSellingPrice *decimal.Decimal `json:"new_selling_price"`
}

// CreateInvoiceRequest represents a request to create a draft purchase or
// sales invoice
type CreateInvoiceRequest struct {
	Kind                    trade.InvoiceKind   `json:"kind" binding:"required"`
	PartnerID               uuid.UUID           `json:"partner_id" binding:"required"`
	WarehouseID             uuid.UUID           `json:"warehouse_id" binding:"required"`
	Lines                   []InvoiceLineInput  `json:"lines" binding:"required,min=1,dive"`
	Discount                *decimal.Decimal    `json:"discount"`
	PaymentMethod           trade.PaymentMethod `json:"payment_method" binding:"required"`
	PaidAmount              decimal.Decimal     `json:"paid_amount"`
	TreasuryID              *uuid.UUID          `json:"treasury_id"`
	CommissionRate          *decimal.Decimal    `json:"commission_rate"`
	InstallmentMonths       int                 `json:"installment_months"`
	InstallmentInterestRate decimal.Decimal     `json:"installment_interest_rate"`
}

// InvoiceLineResponse represents an invoice line in responses
type InvoiceLineResponse struct {
	ProductID       uuid.UUID        `json:"product_id"`
	Unit            catalog.UnitKind `json:"unit"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	LineTotal       decimal.Decimal  `json:"line_total"`
	NewSellingPrice *decimal.Decimal `json:"new_selling_price,omitempty"`
}

// InvoiceResponse represents an invoice in responses
type InvoiceResponse struct {
	ID               uuid.UUID             `json:"id"`
	Number           string                `json:"number"`
	Kind             trade.InvoiceKind     `json:"kind"`
	Status           trade.DocumentStatus  `json:"status"`
	PartnerID        uuid.UUID             `json:"partner_id"`
	WarehouseID      uuid.UUID             `json:"warehouse_id"`
	Lines            []InvoiceLineResponse `json:"lines"`
	Discount         decimal.Decimal       `json:"discount"`
	Total            decimal.Decimal       `json:"total"`
	PaymentMethod    trade.PaymentMethod   `json:"payment_method"`
	PaidAmount       decimal.Decimal       `json:"paid_amount"`
	RemainingBalance decimal.Decimal       `json:"remaining_balance"`
	TreasuryID       *uuid.UUID            `json:"treasury_id,omitempty"`
	CommissionRate   decimal.Decimal       `json:"commission_rate"`
	CommissionAmount decimal.Decimal       `json:"commission_amount"`
	CommissionPaid   bool                  `json:"commission_paid"`
	PostedAt         *time.Time            `json:"posted_at,omitempty"`
	CreatedAt        time.Time             `json:"created_at"`
	UpdatedAt        time.Time             `json:"updated_at"`
}

// ToInvoiceResponse converts an invoice aggregate to a response
func ToInvoiceResponse(inv *trade.Invoice) *InvoiceResponse {
	lines := make([]InvoiceLineResponse, 0, len(inv.Lines))
	for idx := range inv.Lines {
		line := inv.Lines[idx]
		lines = append(lines, InvoiceLineResponse{
			ProductID:       line.ProductID,
			Unit:            line.Unit,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			LineTotal:       line.LineTotal,
			NewSellingPrice: line.NewSellingPrice,
		})
	}
	return &InvoiceResponse{
		ID:               inv.ID,
		Number:           inv.Number,
		Kind:             inv.Kind,
		Status:           inv.Status,
		PartnerID:        inv.PartnerID,
		WarehouseID:      inv.WarehouseID,
		Lines:            lines,
		Discount:         inv.Discount,
		Total:            inv.Total,
		PaymentMethod:    inv.PaymentMethod,
		PaidAmount:       inv.PaidAmount,
		RemainingBalance: inv.RemainingBalance(),
		TreasuryID:       inv.TreasuryID,
		CommissionRate:   inv.CommissionRate,
		CommissionAmount: inv.CommissionAmount,
		CommissionPaid:   inv.CommissionPaid,
		PostedAt:         inv.PostedAt,
		CreatedAt:        inv.CreatedAt,
		UpdatedAt:        inv.UpdatedAt,
	}
}

// ==================== Return DTOs ====================

// ReturnLineInput represents one line of a draft return
type ReturnLineInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Unit      catalog.UnitKind `json:"unit" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal  `json:"unit_price" binding:"required"`
}

// CreateReturnRequest represents a request to create a draft return against a
// posted invoice
type CreateReturnRequest struct {
	Kind       trade.ReturnKind  `json:"kind" binding:"required"`
	InvoiceID  uuid.UUID         `json:"invoice_id" binding:"required"`
	Lines      []ReturnLineInput `json:"lines" binding:"required,min=1,dive"`
	Mode       trade.RefundMode  `json:"mode" binding:"required"`
	TreasuryID *uuid.UUID        `json:"treasury_id"`
}

// ReturnResponse represents a return in responses
type ReturnResponse struct {
	ID         uuid.UUID            `json:"id"`
	Number     string               `json:"number"`
	Kind       trade.ReturnKind     `json:"kind"`
	Status     trade.DocumentStatus `json:"status"`
	InvoiceID  uuid.UUID            `json:"invoice_id"`
	PartnerID  uuid.UUID            `json:"partner_id"`
	Total      decimal.Decimal      `json:"total"`
	Mode       trade.RefundMode     `json:"mode"`
	TreasuryID *uuid.UUID           `json:"treasury_id,omitempty"`
	PostedAt   *time.Time           `json:"posted_at,omitempty"`
	CreatedAt  time.Time            `json:"created_at"`
}

// ToReturnResponse converts a return aggregate to a response
func ToReturnResponse(ret *trade.Return) *ReturnResponse {
	return &ReturnResponse{
		ID:         ret.ID,
		Number:     ret.Number,
		Kind:       ret.Kind,
		Status:     ret.Status,
		InvoiceID:  ret.InvoiceID,
		PartnerID:  ret.PartnerID,
		Total:      ret.Total,
		Mode:       ret.Mode,
		TreasuryID: ret.TreasuryID,
		PostedAt:   ret.PostedAt,
		CreatedAt:  ret.CreatedAt,
	}
}

// ==================== Adjustment DTOs ====================

// AdjustmentLineInput represents one line of a draft stock adjustment
type AdjustmentLineInput struct {
	ProductID uuid.UUID                 `json:"product_id" binding:"required"`
	Direction trade.AdjustmentDirection `json:"direction" binding:"required"`
	Unit      catalog.UnitKind          `json:"unit" binding:"required"`
	Quantity  decimal.Decimal           `json:"quantity" binding:"required"`
}

// CreateAdjustmentRequest represents a request to create a draft stock
// adjustment
type CreateAdjustmentRequest struct {
	WarehouseID uuid.UUID             `json:"warehouse_id" binding:"required"`
	Reason      string                `json:"reason" binding:"required,min=1,max=500"`
	Lines       []AdjustmentLineInput `json:"lines" binding:"required,min=1,dive"`
}

// ==================== Transfer DTOs ====================

// TransferLineInput represents one line of a draft warehouse transfer
type TransferLineInput struct {
	ProductID uuid.UUID        `json:"product_id" binding:"required"`
	Unit      catalog.UnitKind `json:"unit" binding:"required"`
	Quantity  decimal.Decimal  `json:"quantity" binding:"required"`
}

// CreateTransferRequest represents a request to create a draft warehouse
// transfer
type CreateTransferRequest struct {
	FromWarehouseID uuid.UUID           `json:"from_warehouse_id" binding:"required"`
	ToWarehouseID   uuid.UUID           `json:"to_warehouse_id" binding:"required"`
	Lines           []TransferLineInput `json:"lines" binding:"required,min=1,dive"`
}
