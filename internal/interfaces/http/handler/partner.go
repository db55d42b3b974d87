package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	partnerapp "github.com/tradecore/backoffice/internal/application/partner"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/interfaces/http/dto"
)

// PartnerHandler handles partner and warehouse endpoints
type PartnerHandler struct {
	BaseHandler
	service *partnerapp.Service
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(service *partnerapp.Service) *PartnerHandler {
	return &PartnerHandler{service: service}
}

// CreatePartnerRequest represents a request to register a partner
type CreatePartnerRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=200"`
	Type  string `json:"type" binding:"required,oneof=CUSTOMER SUPPLIER SHAREHOLDER"`
	Phone string `json:"phone" binding:"max=30"`
}

// CreateWarehouseRequest represents a request to register a warehouse
type CreateWarehouseRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=200"`
	Location string `json:"location" binding:"max=200"`
}

// BalanceResponse carries a derived balance
type BalanceResponse struct {
	Balance decimal.Decimal `json:"balance"`
}

// CreatePartner registers a new trading partner
func (h *PartnerHandler) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	p, err := h.service.CreatePartner(c.Request.Context(), req.Name, partner.PartnerType(req.Type), req.Phone)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, p)
}

// GetPartner retrieves a partner by ID
func (h *PartnerHandler) GetPartner(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid partner ID")
		return
	}

	p, err := h.service.GetPartner(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, p)
}

// ListPartners retrieves partners with pagination
func (h *PartnerHandler) ListPartners(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}
	if t := c.Query("type"); t != "" {
		filter.Filters = map[string]interface{}{"type": t}
	}

	partners, err := h.service.ListPartners(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, partners)
}

// RecalculateBalance rebuilds a partner balance from posted documents and
// treasury transactions.
func (h *PartnerHandler) RecalculateBalance(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid partner ID")
		return
	}

	balance, err := h.service.RecalculateBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, BalanceResponse{Balance: balance})
}

// CreateWarehouse registers a new warehouse
func (h *PartnerHandler) CreateWarehouse(c *gin.Context) {
	var req CreateWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	w, err := h.service.CreateWarehouse(c.Request.Context(), req.Name, req.Location)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, w)
}

// ListWarehouses retrieves warehouses with pagination
func (h *PartnerHandler) ListWarehouses(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	warehouses, err := h.service.ListWarehouses(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, warehouses)
}

func (h *PartnerHandler) bindFilter(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return shared.Filter{}, false
	}
	req.ApplyDefaults()
	return shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}, true
}
