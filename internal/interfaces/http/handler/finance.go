package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	financeapp "github.com/tradecore/backoffice/internal/application/finance"
)

// FinanceHandler handles installment, commission and equity endpoints
type FinanceHandler struct {
	BaseHandler
	installments *financeapp.InstallmentService
	commissions  *financeapp.CommissionService
	equity       *financeapp.EquityService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(
	installments *financeapp.InstallmentService,
	commissions *financeapp.CommissionService,
	equity *financeapp.EquityService,
) *FinanceHandler {
	return &FinanceHandler{
		installments: installments,
		commissions:  commissions,
		equity:       equity,
	}
}

// ApplyPaymentRequest represents a payment applied against an invoice
type ApplyPaymentRequest struct {
	TreasuryID uuid.UUID       `json:"treasury_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
	Discount   decimal.Decimal `json:"discount"`
	Note       string          `json:"note" binding:"max=500"`
}

// MarkOverdueRequest represents an overdue sweep request
type MarkOverdueRequest struct {
	AsOf *time.Time `json:"as_of"`
}

// PayCommissionRequest represents a commission payout request
type PayCommissionRequest struct {
	TreasuryID uuid.UUID `json:"treasury_id" binding:"required"`
}

// OpenPeriodRequest represents a request to open an equity period
type OpenPeriodRequest struct {
	Start time.Time `json:"start" binding:"required"`
}

// ClosePeriodRequest represents a request to close the open equity period
type ClosePeriodRequest struct {
	TreasuryID uuid.UUID `json:"treasury_id" binding:"required"`
	End        time.Time `json:"end" binding:"required"`
}

// CapitalMovementRequest represents a capital injection or drawing
type CapitalMovementRequest struct {
	PartnerID  uuid.UUID       `json:"partner_id" binding:"required"`
	TreasuryID uuid.UUID       `json:"treasury_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount" binding:"required"`
}

// GenerateSchedule creates the installment schedule for a posted invoice
func (h *FinanceHandler) GenerateSchedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid invoice ID")
		return
	}

	schedule, err := h.installments.GenerateSchedule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, schedule)
}

// ListSchedule retrieves the installment schedule of an invoice
func (h *FinanceHandler) ListSchedule(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid invoice ID")
		return
	}

	schedule, err := h.installments.ListSchedule(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, schedule)
}

// ApplyPayment applies a payment against the open installments of an invoice
func (h *FinanceHandler) ApplyPayment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid invoice ID")
		return
	}

	var req ApplyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	payment, err := h.installments.ApplyPayment(c.Request.Context(), financeapp.ApplyPaymentRequest{
		InvoiceID:  id,
		TreasuryID: req.TreasuryID,
		Amount:     req.Amount,
		Discount:   req.Discount,
		Note:       req.Note,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, payment)
}

// MarkOverdue flags pending installments whose due date has passed
func (h *FinanceHandler) MarkOverdue(c *gin.Context) {
	var req MarkOverdueRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}

	asOf := time.Now()
	if req.AsOf != nil {
		asOf = *req.AsOf
	}

	count, err := h.installments.MarkOverdue(c.Request.Context(), asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"marked": count})
}

// PayCommission pays out the commission of a posted sales invoice
func (h *FinanceHandler) PayCommission(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid invoice ID")
		return
	}

	var req PayCommissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.commissions.PayCommission(c.Request.Context(), id, req.TreasuryID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"invoice_id": id, "status": "paid"})
}

// OpenPeriod opens a new equity period
func (h *FinanceHandler) OpenPeriod(c *gin.Context) {
	var req OpenPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	period, err := h.equity.OpenPeriod(c.Request.Context(), req.Start)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, period)
}

// ClosePeriod closes the open equity period and allocates profit shares
func (h *FinanceHandler) ClosePeriod(c *gin.Context) {
	var req ClosePeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	period, err := h.equity.ClosePeriodAndAllocate(c.Request.Context(), req.TreasuryID, req.End)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, period)
}

// InjectCapital records a shareholder capital deposit
func (h *FinanceHandler) InjectCapital(c *gin.Context) {
	var req CapitalMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.equity.InjectCapital(c.Request.Context(), req.PartnerID, req.TreasuryID, req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{"partner_id": req.PartnerID, "amount": req.Amount})
}

// RecordDrawing records a shareholder drawing
func (h *FinanceHandler) RecordDrawing(c *gin.Context) {
	var req CapitalMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	if err := h.equity.RecordDrawing(c.Request.Context(), req.PartnerID, req.TreasuryID, req.Amount); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, gin.H{"partner_id": req.PartnerID, "amount": req.Amount})
}
