package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	inventoryapp "github.com/tradecore/backoffice/internal/application/inventory"
)

// InventoryHandler handles stock query endpoints
type InventoryHandler struct {
	BaseHandler
	query *inventoryapp.QueryService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(query *inventoryapp.QueryService) *InventoryHandler {
	return &InventoryHandler{query: query}
}

// StockResponse carries a current stock quantity
type StockResponse struct {
	WarehouseID uuid.UUID       `json:"warehouse_id"`
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// AvgCostResponse carries a point-in-time weighted average cost
type AvgCostResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	AsOf      time.Time       `json:"as_of"`
	AvgCost   decimal.Decimal `json:"avg_cost"`
}

func (h *InventoryHandler) parseUUIDQuery(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Query(name))
	if err != nil {
		h.BadRequest(c, "invalid or missing "+name)
		return uuid.Nil, false
	}
	return id, true
}

// StockCard returns the movement history of a product in a warehouse with
// running quantity balances.
func (h *InventoryHandler) StockCard(c *gin.Context) {
	warehouseID, ok := h.parseUUIDQuery(c, "warehouse_id")
	if !ok {
		return
	}
	productID, ok := h.parseUUIDQuery(c, "product_id")
	if !ok {
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

	entries, err := h.query.StockCard(c.Request.Context(), warehouseID, productID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, entries)
}

// CurrentStock returns the on-hand quantity of a product in a warehouse
func (h *InventoryHandler) CurrentStock(c *gin.Context) {
	warehouseID, ok := h.parseUUIDQuery(c, "warehouse_id")
	if !ok {
		return
	}
	productID, ok := h.parseUUIDQuery(c, "product_id")
	if !ok {
		return
	}

	qty, err := h.query.CurrentStock(c.Request.Context(), warehouseID, productID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, StockResponse{
		WarehouseID: warehouseID,
		ProductID:   productID,
		Quantity:    qty,
	})
}

// AvgCost returns the weighted average cost of a product as of a given time.
// Without an as_of parameter it answers for now.
func (h *InventoryHandler) AvgCost(c *gin.Context) {
	productID, ok := h.parseUUIDQuery(c, "product_id")
	if !ok {
		return
	}
	asOfPtr, err := parseTimeQuery(c, "as_of")
	if err != nil {
		h.BadRequest(c, "invalid as_of date")
		return
	}
	asOf := time.Now()
	if asOfPtr != nil {
		asOf = *asOfPtr
	}

	cost, err := h.query.AvgCostAt(c.Request.Context(), productID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, AvgCostResponse{
		ProductID: productID,
		AsOf:      asOf,
		AvgCost:   cost,
	})
}
