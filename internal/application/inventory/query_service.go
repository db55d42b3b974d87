package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/inventory"
)

// QueryService answers read-only stock ledger questions: the stock card,
// current quantities, and historical average cost. It never mutates state.
type QueryService struct {
	movementRepo inventory.StockMovementRepository
	productRepo  catalog.ProductRepository
}

// NewQueryService creates a new inventory QueryService
func NewQueryService(movementRepo inventory.StockMovementRepository, productRepo catalog.ProductRepository) *QueryService {
	return &QueryService{movementRepo: movementRepo, productRepo: productRepo}
}

// StockCardEntry is one stock card line: a movement plus its running balance
type StockCardEntry struct {
	Movement inventory.StockMovement
	Balance  decimal.Decimal
}

// StockCard returns the movement history for a warehouse-product pair with a
// running balance, oldest first, windowed by the optional date range.
// The running balance starts from the movements before the window so the
// card is consistent with the ledger even when windowed.
func (s *QueryService) StockCard(ctx context.Context, warehouseID, productID uuid.UUID, from, to *time.Time) ([]StockCardEntry, error) {
	movements, err := s.movementRepo.ListByWarehouseProduct(ctx, warehouseID, productID, nil, to)
	if err != nil {
		return nil, err
	}

	entries := make([]StockCardEntry, 0, len(movements))
	balance := decimal.Zero
	for idx := range movements {
		m := movements[idx]
		balance = balance.Add(m.Quantity)
		if from != nil && m.MovedAt.Before(*from) {
			continue
		}
		entries = append(entries, StockCardEntry{Movement: m, Balance: balance})
	}
	return entries, nil
}

// CurrentStock derives the current quantity for a warehouse-product pair
// from the movement rows
func (s *QueryService) CurrentStock(ctx context.Context, warehouseID, productID uuid.UUID) (decimal.Decimal, error) {
	return s.movementRepo.SumQuantity(ctx, warehouseID, productID)
}

// AvgCostAt derives the product's weighted-average cost as it stood at the
// given instant, from the purchase-side movements at or before it
func (s *QueryService) AvgCostAt(ctx context.Context, productID uuid.UUID, asOf time.Time) (decimal.Decimal, error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return decimal.Zero, err
	}
	pool, err := s.movementRepo.PurchaseCostPool(ctx, productID, &asOf)
	if err != nil {
		return decimal.Zero, err
	}
	return inventory.WeightedAverageCost(pool), nil
}
