package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	treasuryapp "github.com/tradecore/backoffice/internal/application/treasury"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// TreasuryHandler handles treasury account and transaction endpoints
type TreasuryHandler struct {
	BaseHandler
	service *treasuryapp.Service
}

// NewTreasuryHandler creates a new TreasuryHandler
func NewTreasuryHandler(service *treasuryapp.Service) *TreasuryHandler {
	return &TreasuryHandler{service: service}
}

// CreateTreasuryRequest represents a request to open a treasury account
type CreateTreasuryRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// RecordTransactionRequest represents a manual treasury transaction
type RecordTransactionRequest struct {
	Type        string          `json:"type" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
	PartnerID   *uuid.UUID      `json:"partner_id"`
}

// Create opens a new treasury account
func (h *TreasuryHandler) Create(c *gin.Context) {
	var req CreateTreasuryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	t, err := h.service.CreateTreasury(c.Request.Context(), req.Name)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, t)
}

// RecordTransaction appends a transaction to a treasury ledger
func (h *TreasuryHandler) RecordTransaction(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid treasury ID")
		return
	}

	var req RecordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	tx, err := h.service.RecordTransaction(c.Request.Context(), treasuryapp.RecordTransactionRequest{
		TreasuryID:  id,
		Type:        treasury.TransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		PartnerID:   req.PartnerID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, tx)
}

// Balance returns the current derived balance of a treasury. With both from
// and to query parameters it returns the net movement over [from, to).
func (h *TreasuryHandler) Balance(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid treasury ID")
		return
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		h.BadRequest(c, "invalid from date")
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		h.BadRequest(c, "invalid to date")
		return
	}

	var balance decimal.Decimal
	if from != nil && to != nil {
		balance, err = h.service.BalanceBetween(c.Request.Context(), id, *from, *to)
	} else {
		balance, err = h.service.Balance(c.Request.Context(), id)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BalanceResponse{Balance: balance})
}

// ListTransactions retrieves transactions of a treasury, optionally bounded
// by from/to query parameters.
func (h *TreasuryHandler) ListTransactions(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid treasury ID")
		return
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		h.BadRequest(c, "invalid from date")
		return
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		h.BadRequest(c, "invalid to date")
		return
	}

	txs, err := h.service.ListTransactions(c.Request.Context(), id, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, txs)
}
