package handler

import (
	"github.com/gin-gonic/gin"

	tradeapp "github.com/tradecore/backoffice/internal/application/trade"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/interfaces/http/dto"
)

// DocumentHandler handles trade document endpoints. Documents are created as
// drafts; posting them to the ledgers is a separate operation.
type DocumentHandler struct {
	BaseHandler
	documents *tradeapp.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(documents *tradeapp.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

func (h *DocumentHandler) bindFilter(c *gin.Context) (shared.Filter, bool) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return shared.Filter{}, false
	}
	req.ApplyDefaults()

	filter := shared.Filter{
		Page:     req.Page,
		PageSize: req.PageSize,
		OrderBy:  req.OrderBy,
		OrderDir: req.OrderDir,
		Search:   req.Search,
	}
	filters := map[string]interface{}{}
	if v := c.Query("kind"); v != "" {
		filters["kind"] = v
	}
	if v := c.Query("status"); v != "" {
		filters["status"] = v
	}
	if v := c.Query("partner_id"); v != "" {
		filters["partner_id"] = v
	}
	if len(filters) > 0 {
		filter.Filters = filters
	}
	return filter, true
}

// CreateInvoice creates a draft purchase or sales invoice
func (h *DocumentHandler) CreateInvoice(c *gin.Context) {
	var req tradeapp.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	inv, err := h.documents.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, inv)
}

// GetInvoice retrieves an invoice with its lines
func (h *DocumentHandler) GetInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid invoice ID")
		return
	}

	inv, err := h.documents.GetInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, inv)
}

// ListInvoices retrieves invoices with pagination
func (h *DocumentHandler) ListInvoices(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	invoices, err := h.documents.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, invoices)
}

// DeleteInvoice deletes a draft invoice
func (h *DocumentHandler) DeleteInvoice(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid invoice ID")
		return
	}

	if err := h.documents.DeleteInvoice(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// CreateReturn creates a draft purchase or sales return
func (h *DocumentHandler) CreateReturn(c *gin.Context) {
	var req tradeapp.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ret, err := h.documents.CreateReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ret)
}

// GetReturn retrieves a return with its lines
func (h *DocumentHandler) GetReturn(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid return ID")
		return
	}

	ret, err := h.documents.GetReturn(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ret)
}

// ListReturns retrieves returns with pagination
func (h *DocumentHandler) ListReturns(c *gin.Context) {
	filter, ok := h.bindFilter(c)
	if !ok {
		return
	}

	returns, err := h.documents.ListReturns(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, returns)
}

// DeleteReturn deletes a draft return
func (h *DocumentHandler) DeleteReturn(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid return ID")
		return
	}

	if err := h.documents.DeleteReturn(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// CreateAdjustment creates a draft stock adjustment
func (h *DocumentHandler) CreateAdjustment(c *gin.Context) {
	var req tradeapp.CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	adj, err := h.documents.CreateAdjustment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, adj)
}

// GetAdjustment retrieves a stock adjustment
func (h *DocumentHandler) GetAdjustment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid adjustment ID")
		return
	}

	adj, err := h.documents.GetAdjustment(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, adj)
}

// DeleteAdjustment deletes a draft stock adjustment
func (h *DocumentHandler) DeleteAdjustment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid adjustment ID")
		return
	}

	if err := h.documents.DeleteAdjustment(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

// CreateTransfer creates a draft warehouse transfer
func (h *DocumentHandler) CreateTransfer(c *gin.Context) {
	var req tradeapp.CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	trf, err := h.documents.CreateTransfer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, trf)
}

// GetTransfer retrieves a warehouse transfer
func (h *DocumentHandler) GetTransfer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid transfer ID")
		return
	}

	trf, err := h.documents.GetTransfer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, trf)
}

// DeleteTransfer deletes a draft warehouse transfer
func (h *DocumentHandler) DeleteTransfer(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		h.BadRequest(c, "invalid transfer ID")
		return
	}

	if err := h.documents.DeleteTransfer(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}
