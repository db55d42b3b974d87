package inventory

import (
	"github.com/shopspring/decimal"
)

// CostPool is the aggregate over a product's non-deleted purchase and
// purchase-return movements across all warehouses.
type CostPool struct {
	TotalCost     decimal.Decimal // Σ(unit_cost × signed_qty)
	TotalQuantity decimal.Decimal // Σ(signed_qty)
}

// WeightedAverageCost derives the product's average cost from the pool.
//
// Purchase returns carry negative quantities, which removes that purchase's
// contribution from both sums; a full return restores the pre-purchase
// average. Sales never enter the pool. An empty or fully-returned pool yields
// zero.
func WeightedAverageCost(pool CostPool) decimal.Decimal {
	if pool.TotalQuantity.IsZero() {
		return decimal.Zero
	}
	return pool.TotalCost.Div(pool.TotalQuantity).Round(4)
}

// AccumulateCostPool folds a movement slice into a cost pool, skipping
// deleted rows and anything outside the purchase side.
func AccumulateCostPool(movements []StockMovement) CostPool {
	pool := CostPool{TotalCost: decimal.Zero, TotalQuantity: decimal.Zero}
	for i := range movements {
		m := &movements[i]
		if m.Deleted || !m.Kind.IsPurchaseSide() {
			continue
		}
		pool.TotalCost = pool.TotalCost.Add(m.Quantity.Mul(m.UnitCost))
		pool.TotalQuantity = pool.TotalQuantity.Add(m.Quantity)
	}
	return pool
}

// SumQuantities derives current stock from a movement slice, skipping deleted rows
func SumQuantities(movements []StockMovement) decimal.Decimal {
	total := decimal.Zero
	for i := range movements {
		if movements[i].Deleted {
			continue
		}
		total = total.Add(movements[i].Quantity)
	}
	return total
}
