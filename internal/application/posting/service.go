package posting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	financeapp "github.com/tradecore/backoffice/internal/application/finance"
	partnerapp "github.com/tradecore/backoffice/internal/application/partner"
	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// Service is the posting orchestrator. For each document type it runs the
// fixed posting sequence inside one transaction: validate the draft, lock and
// check stock for outbound lines, write stock movements, recalculate
// purchase-side costs, write the cash portion to the treasury, flip the
// document to posted, rederive the partner balance, and trigger downstream
// consumers. Any error rolls everything back.
type Service struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewService creates a new posting Service
func NewService(scope TransactionScope, logger *zap.Logger) *Service {
	return &Service{scope: scope, logger: logger}
}

// PostInvoice posts a draft purchase or sales invoice
func (s *Service) PostInvoice(ctx context.Context, invoiceID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != trade.DocumentStatusDraft {
			return shared.NewDomainError("INVALID_STATE", "Only draft documents can be posted")
		}
		if err := s.checkCounterparties(ctx, repos, inv.PartnerID, inv.WarehouseID); err != nil {
			return err
		}

		products, err := s.loadLineProducts(ctx, repos, invoiceProductIDs(inv))
		if err != nil {
			return err
		}

		if inv.Kind == trade.InvoiceKindSales {
			demand, err := salesDemand(inv, products)
			if err != nil {
				return err
			}
			if err := s.verifyAvailability(ctx, repos, inv.WarehouseID, demand); err != nil {
				return err
			}
		}

		if err := s.writeInvoiceMovements(ctx, repos, inv, products); err != nil {
			return err
		}
		if inv.Kind == trade.InvoiceKindPurchase {
			if err := s.settlePurchaseSide(ctx, repos, inv, products); err != nil {
				return err
			}
		}
		if err := s.refreshLevels(ctx, repos, inv.WarehouseID, invoiceProductIDs(inv)); err != nil {
			return err
		}

		if err := s.writeInvoiceCash(ctx, repos, inv); err != nil {
			return err
		}

		if err := inv.MarkPosted(); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}

		if _, err := partnerapp.DeriveBalance(ctx, repos, inv.PartnerID); err != nil {
			return err
		}

		if inv.InstallmentMonths > 0 {
			if _, err := financeapp.GenerateScheduleForInvoice(ctx, repos, inv, time.Now().AddDate(0, 1, 0)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("invoice posted", zap.String("invoice_id", invoiceID.String()))
	return nil
}

// PostReturn posts a draft purchase or sales return
func (s *Service) PostReturn(ctx context.Context, returnID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ret, err := repos.ReturnRepo().FindForUpdate(ctx, returnID)
		if err != nil {
			return err
		}
		if ret.Status != trade.DocumentStatusDraft {
			return shared.NewDomainError("INVALID_STATE", "Only draft documents can be posted")
		}

		inv, err := repos.InvoiceRepo().FindForUpdate(ctx, ret.InvoiceID)
		if err != nil {
			return err
		}
		if err := s.checkReturnAgainstSource(ctx, repos, ret, inv); err != nil {
			return err
		}

		products, err := s.loadLineProducts(ctx, repos, returnProductIDs(ret))
		if err != nil {
			return err
		}

		if ret.Kind == trade.ReturnKindPurchase {
			// goods leave the warehouse again, so availability applies
			demand, err := returnDemand(ret, products)
			if err != nil {
				return err
			}
			if err := s.verifyAvailability(ctx, repos, ret.WarehouseID, demand); err != nil {
				return err
			}
		}

		if err := s.writeReturnMovements(ctx, repos, ret, products); err != nil {
			return err
		}
		if ret.Kind == trade.ReturnKindPurchase {
			if err := s.recalculateCosts(ctx, repos, products); err != nil {
				return err
			}
		}
		if err := s.refreshLevels(ctx, repos, ret.WarehouseID, returnProductIDs(ret)); err != nil {
			return err
		}

		if err := s.writeReturnCash(ctx, repos, ret); err != nil {
			return err
		}

		if err := ret.MarkPosted(); err != nil {
			return err
		}
		if err := repos.ReturnRepo().Save(ctx, ret); err != nil {
			return err
		}

		if _, err := partnerapp.DeriveBalance(ctx, repos, ret.PartnerID); err != nil {
			return err
		}

		if ret.Kind == trade.ReturnKindSales {
			if _, err := financeapp.ReverseCommissionOnReturn(ctx, repos, ret, inv); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("return posted", zap.String("return_id", returnID.String()))
	return nil
}

// PostAdjustment posts a draft stock adjustment. Both directions are costed
// at the product's current average cost.
func (s *Service) PostAdjustment(ctx context.Context, adjustmentID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		adj, err := repos.AdjustmentRepo().FindForUpdate(ctx, adjustmentID)
		if err != nil {
			return err
		}
		if adj.Status != trade.DocumentStatusDraft {
			return shared.NewDomainError("INVALID_STATE", "Only draft documents can be posted")
		}

		productIDs := make([]uuid.UUID, 0, len(adj.Lines))
		for idx := range adj.Lines {
			productIDs = append(productIDs, adj.Lines[idx].ProductID)
		}
		products, err := s.loadLineProducts(ctx, repos, productIDs)
		if err != nil {
			return err
		}

		demand := map[uuid.UUID]decimal.Decimal{}
		for idx := range adj.Lines {
			line := &adj.Lines[idx]
			if line.Direction != trade.AdjustmentDirectionOut {
				continue
			}
			baseQty, err := products[line.ProductID].ToBaseQuantity(line.Quantity, line.Unit)
			if err != nil {
				return err
			}
			demand[line.ProductID] = demand[line.ProductID].Add(baseQty)
		}
		if err := s.verifyAvailability(ctx, repos, adj.WarehouseID, demand); err != nil {
			return err
		}

		for idx := range adj.Lines {
			line := &adj.Lines[idx]
			product := products[line.ProductID]
			baseQty, err := product.ToBaseQuantity(line.Quantity, line.Unit)
			if err != nil {
				return err
			}
			kind := inventory.MovementKindAdjustmentIn
			if line.Direction == trade.AdjustmentDirectionOut {
				kind = inventory.MovementKindAdjustmentOut
				baseQty = baseQty.Neg()
			}
			movement, err := inventory.NewStockMovement(adj.WarehouseID, product.ID, kind, baseQty, product.AvgCost, adj.Ref())
			if err != nil {
				return err
			}
			if err := repos.MovementRepo().Append(ctx, movement); err != nil {
				return err
			}
		}
		if err := s.refreshLevels(ctx, repos, adj.WarehouseID, productIDs); err != nil {
			return err
		}

		if err := adj.MarkPosted(); err != nil {
			return err
		}
		return repos.AdjustmentRepo().Save(ctx, adj)
	})
	if err != nil {
		return err
	}
	s.logger.Info("adjustment posted", zap.String("adjustment_id", adjustmentID.String()))
	return nil
}

// PostTransfer posts a draft warehouse transfer: one negative movement at the
// source and one positive at the destination per line, both at average cost.
func (s *Service) PostTransfer(ctx context.Context, transferID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		trf, err := repos.TransferRepo().FindForUpdate(ctx, transferID)
		if err != nil {
			return err
		}
		if trf.Status != trade.DocumentStatusDraft {
			return shared.NewDomainError("INVALID_STATE", "Only draft documents can be posted")
		}

		productIDs := make([]uuid.UUID, 0, len(trf.Lines))
		for idx := range trf.Lines {
			productIDs = append(productIDs, trf.Lines[idx].ProductID)
		}
		products, err := s.loadLineProducts(ctx, repos, productIDs)
		if err != nil {
			return err
		}

		demand := map[uuid.UUID]decimal.Decimal{}
		for idx := range trf.Lines {
			line := &trf.Lines[idx]
			baseQty, err := products[line.ProductID].ToBaseQuantity(line.Quantity, line.Unit)
			if err != nil {
				return err
			}
			demand[line.ProductID] = demand[line.ProductID].Add(baseQty)
		}
		if err := s.verifyAvailability(ctx, repos, trf.FromWarehouseID, demand); err != nil {
			return err
		}

		for idx := range trf.Lines {
			line := &trf.Lines[idx]
			product := products[line.ProductID]
			baseQty, err := product.ToBaseQuantity(line.Quantity, line.Unit)
			if err != nil {
				return err
			}
			out, err := inventory.NewStockMovement(trf.FromWarehouseID, product.ID, inventory.MovementKindTransferOut, baseQty.Neg(), product.AvgCost, trf.Ref())
			if err != nil {
				return err
			}
			if err := repos.MovementRepo().Append(ctx, out); err != nil {
				return err
			}
			in, err := inventory.NewStockMovement(trf.ToWarehouseID, product.ID, inventory.MovementKindTransferIn, baseQty, product.AvgCost, trf.Ref())
			if err != nil {
				return err
			}
			if err := repos.MovementRepo().Append(ctx, in); err != nil {
				return err
			}
		}
		if err := s.refreshLevels(ctx, repos, trf.FromWarehouseID, productIDs); err != nil {
			return err
		}
		if err := s.refreshLevels(ctx, repos, trf.ToWarehouseID, productIDs); err != nil {
			return err
		}

		if err := trf.MarkPosted(); err != nil {
			return err
		}
		return repos.TransferRepo().Save(ctx, trf)
	})
	if err != nil {
		return err
	}
	s.logger.Info("transfer posted", zap.String("transfer_id", transferID.String()))
	return nil
}

func (s *Service) checkCounterparties(ctx context.Context, repos TransactionalRepositories, partnerID, warehouseID uuid.UUID) error {
	if _, err := repos.PartnerRepo().FindByID(ctx, partnerID); err != nil {
		return err
	}
	if _, err := repos.WarehouseRepo().FindByID(ctx, warehouseID); err != nil {
		return err
	}
	return nil
}

func (s *Service) loadLineProducts(ctx context.Context, repos TransactionalRepositories, ids []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	products, err := repos.ProductRepo().FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for idx := range products {
		byID[products[idx].ID] = &products[idx]
	}
	for _, id := range ids {
		if _, ok := byID[id]; !ok {
			return nil, shared.ErrIntegrityViolation
		}
	}
	return byID, nil
}

// verifyAvailability locks the stock level row per demanded product, refreshes
// its cached quantity from the movement sums, and rejects the first shortfall.
// The locks are held for the rest of the transaction so concurrent postings
// against the same pairs serialize.
func (s *Service) verifyAvailability(ctx context.Context, repos TransactionalRepositories, warehouseID uuid.UUID, demand map[uuid.UUID]decimal.Decimal) error {
	for productID, required := range demand {
		if !required.IsPositive() {
			continue
		}
		level, err := repos.StockLevelRepo().FindForUpdate(ctx, warehouseID, productID)
		if err != nil {
			return err
		}
		current, err := repos.MovementRepo().SumQuantity(ctx, warehouseID, productID)
		if err != nil {
			return err
		}
		level.Refresh(current)
		if err := repos.StockLevelRepo().Save(ctx, level); err != nil {
			return err
		}
		if !level.CanFulfill(required) {
			return shared.ErrInsufficientStock
		}
	}
	return nil
}

// refreshLevels recomputes the cached per-pair quantities after movement writes
func (s *Service) refreshLevels(ctx context.Context, repos TransactionalRepositories, warehouseID uuid.UUID, productIDs []uuid.UUID) error {
	seen := map[uuid.UUID]bool{}
	for _, productID := range productIDs {
		if seen[productID] {
			continue
		}
		seen[productID] = true
		level, err := repos.StockLevelRepo().FindOrCreate(ctx, warehouseID, productID)
		if err != nil {
			return err
		}
		current, err := repos.MovementRepo().SumQuantity(ctx, warehouseID, productID)
		if err != nil {
			return err
		}
		level.Refresh(current)
		if err := repos.StockLevelRepo().Save(ctx, level); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeInvoiceMovements(ctx context.Context, repos TransactionalRepositories, inv *trade.Invoice, products map[uuid.UUID]*catalog.Product) error {
	for idx := range inv.Lines {
		line := &inv.Lines[idx]
		product := products[line.ProductID]
		baseQty, err := product.ToBaseQuantity(line.Quantity, line.Unit)
		if err != nil {
			return err
		}

		var movement *inventory.StockMovement
		if inv.Kind == trade.InvoiceKindPurchase {
			unitCost := line.LineTotal.Div(baseQty).Round(4)
			movement, err = inventory.NewStockMovement(inv.WarehouseID, product.ID, inventory.MovementKindPurchase, baseQty, unitCost, inv.Ref())
		} else {
			movement, err = inventory.NewStockMovement(inv.WarehouseID, product.ID, inventory.MovementKindSale, baseQty.Neg(), product.AvgCost, inv.Ref())
		}
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) writeReturnMovements(ctx context.Context, repos TransactionalRepositories, ret *trade.Return, products map[uuid.UUID]*catalog.Product) error {
	for idx := range ret.Lines {
		line := &ret.Lines[idx]
		product := products[line.ProductID]
		baseQty, err := product.ToBaseQuantity(line.Quantity, line.Unit)
		if err != nil {
			return err
		}

		var movement *inventory.StockMovement
		if ret.Kind == trade.ReturnKindPurchase {
			unitCost := line.LineTotal.Div(baseQty).Round(4)
			movement, err = inventory.NewStockMovement(ret.WarehouseID, product.ID, inventory.MovementKindPurchaseReturn, baseQty.Neg(), unitCost, ret.Ref())
		} else {
			movement, err = inventory.NewStockMovement(ret.WarehouseID, product.ID, inventory.MovementKindSaleReturn, baseQty, product.AvgCost, ret.Ref())
		}
		if err != nil {
			return err
		}
		if err := repos.MovementRepo().Append(ctx, movement); err != nil {
			return err
		}
	}
	return nil
}

// settlePurchaseSide recalculates average costs for the touched products and
// propagates explicit selling-price overrides from the invoice lines
func (s *Service) settlePurchaseSide(ctx context.Context, repos TransactionalRepositories, inv *trade.Invoice, products map[uuid.UUID]*catalog.Product) error {
	if err := s.recalculateCosts(ctx, repos, products); err != nil {
		return err
	}
	for idx := range inv.Lines {
		line := &inv.Lines[idx]
		if line.NewSellingPrice == nil {
			continue
		}
		product := products[line.ProductID]
		if err := product.OverrideSellingPrice(*line.NewSellingPrice); err != nil {
			return err
		}
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

// recalculateCosts rederives each product's weighted-average cost from the
// full purchase-side movement pool across all warehouses
func (s *Service) recalculateCosts(ctx context.Context, repos TransactionalRepositories, products map[uuid.UUID]*catalog.Product) error {
	for _, product := range products {
		pool, err := repos.MovementRepo().PurchaseCostPool(ctx, product.ID, nil)
		if err != nil {
			return err
		}
		product.SetAvgCost(inventory.WeightedAverageCost(pool))
		if err := repos.ProductRepo().Save(ctx, product); err != nil {
			return err
		}
	}
	return nil
}

// writeInvoiceCash writes the treasury row for the cash portion collected or
// paid at posting. Credit remainders never touch the treasury.
func (s *Service) writeInvoiceCash(ctx context.Context, repos TransactionalRepositories, inv *trade.Invoice) error {
	cash := inv.CashAmount()
	if !cash.IsPositive() {
		return nil
	}
	if inv.TreasuryID == nil {
		return shared.NewDomainError("INVALID_INPUT", "A treasury is required when cash is collected at posting")
	}

	txType := treasury.TransactionTypeCollection
	amount := cash
	if inv.Kind == trade.InvoiceKindPurchase {
		txType = treasury.TransactionTypePayment
		amount = cash.Neg()
	}
	row, err := treasury.NewTransaction(*inv.TreasuryID, txType, amount, "invoice "+inv.Number)
	if err != nil {
		return err
	}
	row = row.WithPartner(inv.PartnerID).WithSource(inv.Ref())
	return treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), row)
}

// writeReturnCash writes the refund row for cash-mode returns; credit-mode
// returns write nothing
func (s *Service) writeReturnCash(ctx context.Context, repos TransactionalRepositories, ret *trade.Return) error {
	if ret.Mode != trade.RefundModeCash || !ret.Total.IsPositive() {
		return nil
	}
	if ret.TreasuryID == nil {
		return shared.NewDomainError("INVALID_INPUT", "A treasury is required for cash refunds")
	}

	amount := ret.Total
	if ret.Kind == trade.ReturnKindSales {
		// cash leaves the register to refund the customer
		amount = amount.Neg()
	}
	row, err := treasury.NewTransaction(*ret.TreasuryID, treasury.TransactionTypeRefund, amount, "return "+ret.Number)
	if err != nil {
		return err
	}
	row = row.WithPartner(ret.PartnerID).WithSource(ret.Ref())
	return treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), row)
}

// checkReturnAgainstSource rejects returns exceeding the source invoice's
// line quantities or remaining value, counting previously posted returns
func (s *Service) checkReturnAgainstSource(ctx context.Context, repos TransactionalRepositories, ret *trade.Return, inv *trade.Invoice) error {
	returnedValue, err := repos.ReturnRepo().SumPostedTotalsByInvoice(ctx, inv.ID)
	if err != nil {
		return err
	}
	if returnedValue.Add(ret.Total).GreaterThan(inv.Total) {
		return shared.NewDomainError("RETURN_EXCEEDS_SOURCE", "Return value exceeds the invoice's remaining value")
	}

	seen := map[uuid.UUID]bool{}
	for idx := range ret.Lines {
		productID := ret.Lines[idx].ProductID
		if seen[productID] {
			continue
		}
		seen[productID] = true

		already, err := repos.ReturnRepo().SumPostedLineQuantity(ctx, inv.ID, productID)
		if err != nil {
			return err
		}
		if already.Add(ret.LineQuantity(productID)).GreaterThan(inv.LineQuantity(productID)) {
			return shared.NewDomainError("RETURN_EXCEEDS_SOURCE", "Return quantity exceeds the invoice's line quantity")
		}
	}
	return nil
}

func invoiceProductIDs(inv *trade.Invoice) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(inv.Lines))
	for idx := range inv.Lines {
		ids = append(ids, inv.Lines[idx].ProductID)
	}
	return ids
}

func returnProductIDs(ret *trade.Return) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(ret.Lines))
	for idx := range ret.Lines {
		ids = append(ids, ret.Lines[idx].ProductID)
	}
	return ids
}

func salesDemand(inv *trade.Invoice, products map[uuid.UUID]*catalog.Product) (map[uuid.UUID]decimal.Decimal, error) {
	demand := map[uuid.UUID]decimal.Decimal{}
	for idx := range inv.Lines {
		line := &inv.Lines[idx]
		baseQty, err := products[line.ProductID].ToBaseQuantity(line.Quantity, line.Unit)
		if err != nil {
			return nil, err
		}
		demand[line.ProductID] = demand[line.ProductID].Add(baseQty)
	}
	return demand, nil
}

func returnDemand(ret *trade.Return, products map[uuid.UUID]*catalog.Product) (map[uuid.UUID]decimal.Decimal, error) {
	demand := map[uuid.UUID]decimal.Decimal{}
	for idx := range ret.Lines {
		line := &ret.Lines[idx]
		baseQty, err := products[line.ProductID].ToBaseQuantity(line.Quantity, line.Unit)
		if err != nil {
			return nil, err
		}
		demand[line.ProductID] = demand[line.ProductID].Add(baseQty)
	}
	return demand, nil
}
