package posting

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradecore/backoffice/internal/application/apptest"
	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

type repoScope struct{ repos *apptest.Repos }

func (s repoScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s.repos)
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	repos     *apptest.Repos
	svc       *Service
	product   *catalog.Product
	supplier  *partner.Partner
	customer  *partner.Partner
	warehouse *partner.Warehouse
	second    *partner.Warehouse
	register  *treasury.Treasury
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	repos := apptest.NewRepos()

	product, err := catalog.NewProduct("WIDGET", "Widget", "pc")
	require.NoError(t, err)
	require.NoError(t, product.SetLargeUnit("box", dec("12")))
	require.NoError(t, repos.ProductRepo().Save(ctx, product))

	supplier, err := partner.NewPartner("Acme Supply", partner.PartnerTypeSupplier)
	require.NoError(t, err)
	require.NoError(t, repos.PartnerRepo().Save(ctx, supplier))

	customer, err := partner.NewPartner("Retail Co", partner.PartnerTypeCustomer)
	require.NoError(t, err)
	require.NoError(t, repos.PartnerRepo().Save(ctx, customer))

	warehouse, err := partner.NewWarehouse("Main", "HQ")
	require.NoError(t, err)
	require.NoError(t, repos.WarehouseRepo().Save(ctx, warehouse))

	second, err := partner.NewWarehouse("Annex", "Downtown")
	require.NoError(t, err)
	require.NoError(t, repos.WarehouseRepo().Save(ctx, second))

	register, err := treasury.NewTreasury("Main Register")
	require.NoError(t, err)
	require.NoError(t, repos.TreasuryRepo().Save(ctx, register))

	return &fixture{
		repos:     repos,
		svc:       NewService(repoScope{repos}, zap.NewNop()),
		product:   product,
		supplier:  supplier,
		customer:  customer,
		warehouse: warehouse,
		second:    second,
		register:  register,
	}
}

func (f *fixture) fundRegister(t *testing.T, amount string) {
	t.Helper()
	row, err := treasury.NewTransaction(f.register.ID, treasury.TransactionTypeIncome, dec(amount), "opening cash")
	require.NoError(t, err)
	require.NoError(t, f.repos.TreasuryTxRepo().Append(context.Background(), row))
}

// draftInvoice saves a single-line credit invoice in small units
func (f *fixture) draftInvoice(t *testing.T, kind trade.InvoiceKind, qty, price string) *trade.Invoice {
	t.Helper()
	partnerID := f.supplier.ID
	if kind == trade.InvoiceKindSales {
		partnerID = f.customer.ID
	}
	number, err := f.repos.InvoiceRepo().NextNumber(context.Background(), kind)
	require.NoError(t, err)
	inv, err := trade.NewInvoice(kind, number, partnerID, f.warehouse.ID)
	require.NoError(t, err)
	_, err = inv.AddLine(f.product.ID, catalog.UnitKindSmall, dec(qty), dec(price))
	require.NoError(t, err)
	require.NoError(t, f.repos.InvoiceRepo().Save(context.Background(), inv))
	return inv
}

// seedStock posts a purchase so sales have something to draw down
func (f *fixture) seedStock(t *testing.T, qty, cost string) {
	t.Helper()
	inv := f.draftInvoice(t, trade.InvoiceKindPurchase, qty, cost)
	require.NoError(t, f.svc.PostInvoice(context.Background(), inv.ID))
}

func (f *fixture) levelQuantity(t *testing.T, warehouseID uuid.UUID) decimal.Decimal {
	t.Helper()
	level, err := f.repos.StockLevelRepo().FindOrCreate(context.Background(), warehouseID, f.product.ID)
	require.NoError(t, err)
	return level.Quantity
}

func (f *fixture) movementsOfKind(kind inventory.MovementKind) []*inventory.StockMovement {
	out := make([]*inventory.StockMovement, 0)
	for _, m := range f.repos.Movements {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

func TestService_PostInvoice(t *testing.T) {
	ctx := context.Background()

	t.Run("credit purchase writes inbound movements and sets the average cost", func(t *testing.T) {
		f := newFixture(t)
		inv := f.draftInvoice(t, trade.InvoiceKindPurchase, "10", "5")

		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))

		assert.True(t, inv.IsPosted())
		require.NotNil(t, inv.PostedAt)

		moves := f.movementsOfKind(inventory.MovementKindPurchase)
		require.Len(t, moves, 1)
		assert.True(t, moves[0].Quantity.Equal(dec("10")))
		assert.True(t, moves[0].UnitCost.Equal(dec("5")))
		assert.Equal(t, inv.Ref(), moves[0].Source)

		assert.True(t, f.product.AvgCost.Equal(dec("5")))
		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("10")))

		// credit purchase: the company owes the supplier
		assert.True(t, f.supplier.CurrentBalance.Equal(dec("-50")), "got %s", f.supplier.CurrentBalance)
	})

	t.Run("second purchase shifts the weighted average", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")
		f.seedStock(t, "10", "10")

		assert.True(t, f.product.AvgCost.Equal(dec("7.5")), "got %s", f.product.AvgCost)
		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("20")))
	})

	t.Run("sales posting fails on insufficient stock", func(t *testing.T) {
		f := newFixture(t)
		inv := f.draftInvoice(t, trade.InvoiceKindSales, "5", "10")

		err := f.svc.PostInvoice(ctx, inv.ID)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.False(t, inv.IsPosted())
		assert.Empty(t, f.movementsOfKind(inventory.MovementKindSale))
	})

	t.Run("cash sale moves stock at average cost and collects into the treasury", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")

		inv := f.draftInvoice(t, trade.InvoiceKindSales, "4", "10")
		require.NoError(t, inv.SetPaymentTerms(trade.PaymentMethodCash, decimal.Zero, &f.register.ID))

		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))

		moves := f.movementsOfKind(inventory.MovementKindSale)
		require.Len(t, moves, 1)
		assert.True(t, moves[0].Quantity.Equal(dec("-4")))
		assert.True(t, moves[0].UnitCost.Equal(dec("5")), "sales move at average cost, got %s", moves[0].UnitCost)

		balance, err := f.repos.TreasuryTxRepo().SumAmount(ctx, f.register.ID)
		require.NoError(t, err)
		assert.True(t, balance.Equal(dec("40")))

		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("6")))
		// fully paid in cash: nothing left on the customer
		assert.True(t, f.customer.CurrentBalance.IsZero(), "got %s", f.customer.CurrentBalance)
	})

	t.Run("cash purchase fails when the treasury cannot cover it", func(t *testing.T) {
		f := newFixture(t)
		inv := f.draftInvoice(t, trade.InvoiceKindPurchase, "10", "5")
		require.NoError(t, inv.SetPaymentTerms(trade.PaymentMethodCash, decimal.Zero, &f.register.ID))

		err := f.svc.PostInvoice(ctx, inv.ID)
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.False(t, inv.IsPosted())
	})

	t.Run("large-unit lines convert to base quantities", func(t *testing.T) {
		f := newFixture(t)
		number, err := f.repos.InvoiceRepo().NextNumber(ctx, trade.InvoiceKindPurchase)
		require.NoError(t, err)
		inv, err := trade.NewInvoice(trade.InvoiceKindPurchase, number, f.supplier.ID, f.warehouse.ID)
		require.NoError(t, err)
		_, err = inv.AddLine(f.product.ID, catalog.UnitKindLarge, dec("2"), dec("24"))
		require.NoError(t, err)
		require.NoError(t, f.repos.InvoiceRepo().Save(ctx, inv))

		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))

		moves := f.movementsOfKind(inventory.MovementKindPurchase)
		require.Len(t, moves, 1)
		assert.True(t, moves[0].Quantity.Equal(dec("24")), "2 boxes of 12, got %s", moves[0].Quantity)
		assert.True(t, moves[0].UnitCost.Equal(dec("2")), "48 over 24 base units, got %s", moves[0].UnitCost)
	})

	t.Run("purchase line selling-price override reaches the product", func(t *testing.T) {
		f := newFixture(t)
		inv := f.draftInvoice(t, trade.InvoiceKindPurchase, "10", "5")
		require.NoError(t, inv.SetLineSellingPrice(inv.Lines[0].ID, dec("15")))

		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))
		assert.True(t, f.product.SellingPrice.Equal(dec("15")))
	})

	t.Run("installment request generates the amortization schedule", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")

		inv := f.draftInvoice(t, trade.InvoiceKindSales, "3", "100")
		require.NoError(t, inv.RequestInstallments(3, dec("10")))

		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))

		// 300 open plus 10% interest surcharge
		assert.True(t, inv.Total.Equal(dec("330")), "got %s", inv.Total)

		schedule, err := f.repos.InstallmentRepo().ListByInvoice(ctx, inv.ID)
		require.NoError(t, err)
		require.Len(t, schedule, 3)
		total := decimal.Zero
		for idx := range schedule {
			assert.Equal(t, idx+1, schedule[idx].Sequence)
			total = total.Add(schedule[idx].Amount)
		}
		assert.True(t, total.Equal(dec("330")), "slices must sum to the inflated balance, got %s", total)
	})

	t.Run("posting twice fails", func(t *testing.T) {
		f := newFixture(t)
		inv := f.draftInvoice(t, trade.InvoiceKindPurchase, "10", "5")
		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))

		err := f.svc.PostInvoice(ctx, inv.ID)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
	})
}

func TestService_PostReturn(t *testing.T) {
	ctx := context.Background()

	// postedSale posts a purchase to seed stock, then a credit sale
	postedSale := func(t *testing.T, f *fixture, qty, price string) *trade.Invoice {
		t.Helper()
		f.seedStock(t, "10", "5")
		inv := f.draftInvoice(t, trade.InvoiceKindSales, qty, price)
		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))
		return inv
	}

	draftReturn := func(t *testing.T, f *fixture, kind trade.ReturnKind, inv *trade.Invoice, qty, price string) *trade.Return {
		t.Helper()
		number, err := f.repos.ReturnRepo().NextNumber(ctx, kind)
		require.NoError(t, err)
		ret, err := trade.NewReturn(kind, number, inv)
		require.NoError(t, err)
		_, err = ret.AddLine(f.product.ID, catalog.UnitKindSmall, dec(qty), dec(price))
		require.NoError(t, err)
		require.NoError(t, f.repos.ReturnRepo().Save(ctx, ret))
		return ret
	}

	t.Run("credit sales return restocks and reduces the customer debt", func(t *testing.T) {
		f := newFixture(t)
		inv := postedSale(t, f, "4", "10")
		assert.True(t, f.customer.CurrentBalance.Equal(dec("40")))

		ret := draftReturn(t, f, trade.ReturnKindSales, inv, "1", "10")
		require.NoError(t, f.svc.PostReturn(ctx, ret.ID))

		assert.True(t, ret.IsPosted())
		moves := f.movementsOfKind(inventory.MovementKindSaleReturn)
		require.Len(t, moves, 1)
		assert.True(t, moves[0].Quantity.Equal(dec("1")))
		assert.True(t, moves[0].UnitCost.Equal(dec("5")), "restocks at average cost, got %s", moves[0].UnitCost)

		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("7")))
		assert.True(t, f.customer.CurrentBalance.Equal(dec("30")), "got %s", f.customer.CurrentBalance)
	})

	t.Run("return exceeding the sold quantity fails", func(t *testing.T) {
		f := newFixture(t)
		inv := postedSale(t, f, "4", "10")

		ret := draftReturn(t, f, trade.ReturnKindSales, inv, "5", "10")
		err := f.svc.PostReturn(ctx, ret.ID)
		assert.True(t, shared.IsDomainError(err, "RETURN_EXCEEDS_SOURCE"))
		assert.False(t, ret.IsPosted())
	})

	t.Run("cumulative returns against one invoice are capped", func(t *testing.T) {
		f := newFixture(t)
		inv := postedSale(t, f, "4", "10")

		first := draftReturn(t, f, trade.ReturnKindSales, inv, "3", "10")
		require.NoError(t, f.svc.PostReturn(ctx, first.ID))

		second := draftReturn(t, f, trade.ReturnKindSales, inv, "2", "10")
		err := f.svc.PostReturn(ctx, second.ID)
		assert.True(t, shared.IsDomainError(err, "RETURN_EXCEEDS_SOURCE"))
	})

	t.Run("cash sales return refunds from the register without touching the debt", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")
		f.fundRegister(t, "100")

		inv := f.draftInvoice(t, trade.InvoiceKindSales, "4", "10")
		require.NoError(t, inv.SetPaymentTerms(trade.PaymentMethodCash, decimal.Zero, &f.register.ID))
		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))

		ret := draftReturn(t, f, trade.ReturnKindSales, inv, "1", "10")
		require.NoError(t, ret.SetRefundMode(trade.RefundModeCash, &f.register.ID))
		require.NoError(t, f.svc.PostReturn(ctx, ret.ID))

		refunds := make([]*treasury.Transaction, 0)
		for _, tx := range f.repos.TreasuryTxs {
			if tx.Type == treasury.TransactionTypeRefund {
				refunds = append(refunds, tx)
			}
		}
		require.Len(t, refunds, 1)
		assert.True(t, refunds[0].Amount.Equal(dec("-10")), "cash leaves the register, got %s", refunds[0].Amount)

		// the sale was cash, so no debt existed and none was forgiven
		assert.True(t, f.customer.CurrentBalance.IsZero(), "got %s", f.customer.CurrentBalance)
	})

	t.Run("credit purchase return sends goods back and reduces what is owed", func(t *testing.T) {
		f := newFixture(t)
		purchase := f.draftInvoice(t, trade.InvoiceKindPurchase, "10", "5")
		require.NoError(t, f.svc.PostInvoice(ctx, purchase.ID))

		ret := draftReturn(t, f, trade.ReturnKindPurchase, purchase, "2", "5")
		require.NoError(t, f.svc.PostReturn(ctx, ret.ID))

		moves := f.movementsOfKind(inventory.MovementKindPurchaseReturn)
		require.Len(t, moves, 1)
		assert.True(t, moves[0].Quantity.Equal(dec("-2")))
		assert.True(t, moves[0].UnitCost.Equal(dec("5")))

		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("8")))
		assert.True(t, f.product.AvgCost.Equal(dec("5")), "full-cost return keeps the average, got %s", f.product.AvgCost)
		// owed 50 for the purchase, reduced by the 10 returned
		assert.True(t, f.supplier.CurrentBalance.Equal(dec("-40")), "got %s", f.supplier.CurrentBalance)
	})

	t.Run("purchase return fails when the goods already left", func(t *testing.T) {
		f := newFixture(t)
		purchase := f.draftInvoice(t, trade.InvoiceKindPurchase, "10", "5")
		require.NoError(t, f.svc.PostInvoice(ctx, purchase.ID))

		sale := f.draftInvoice(t, trade.InvoiceKindSales, "9", "10")
		require.NoError(t, f.svc.PostInvoice(ctx, sale.ID))

		ret := draftReturn(t, f, trade.ReturnKindPurchase, purchase, "2", "5")
		err := f.svc.PostReturn(ctx, ret.ID)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})
}

func TestService_PostAdjustment(t *testing.T) {
	ctx := context.Background()

	draftAdjustment := func(t *testing.T, f *fixture) *trade.StockAdjustment {
		t.Helper()
		number, err := f.repos.AdjustmentRepo().NextNumber(ctx)
		require.NoError(t, err)
		adj, err := trade.NewStockAdjustment(number, f.warehouse.ID, "cycle count")
		require.NoError(t, err)
		return adj
	}

	t.Run("both directions cost at the current average", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")

		adj := draftAdjustment(t, f)
		_, err := adj.AddLine(f.product.ID, trade.AdjustmentDirectionOut, catalog.UnitKindSmall, dec("3"))
		require.NoError(t, err)
		_, err = adj.AddLine(f.product.ID, trade.AdjustmentDirectionIn, catalog.UnitKindSmall, dec("1"))
		require.NoError(t, err)
		require.NoError(t, f.repos.AdjustmentRepo().Save(ctx, adj))

		require.NoError(t, f.svc.PostAdjustment(ctx, adj.ID))

		outs := f.movementsOfKind(inventory.MovementKindAdjustmentOut)
		ins := f.movementsOfKind(inventory.MovementKindAdjustmentIn)
		require.Len(t, outs, 1)
		require.Len(t, ins, 1)
		assert.True(t, outs[0].Quantity.Equal(dec("-3")))
		assert.True(t, ins[0].Quantity.Equal(dec("1")))
		assert.True(t, outs[0].UnitCost.Equal(dec("5")))
		assert.True(t, ins[0].UnitCost.Equal(dec("5")))

		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("8")))
		assert.True(t, adj.IsPosted())
	})

	t.Run("write-off beyond the stock on hand fails", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "2", "5")

		adj := draftAdjustment(t, f)
		_, err := adj.AddLine(f.product.ID, trade.AdjustmentDirectionOut, catalog.UnitKindSmall, dec("3"))
		require.NoError(t, err)
		require.NoError(t, f.repos.AdjustmentRepo().Save(ctx, adj))

		err = f.svc.PostAdjustment(ctx, adj.ID)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.False(t, adj.IsPosted())
	})
}

func TestService_PostTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves quantity between warehouses at average cost", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")

		number, err := f.repos.TransferRepo().NextNumber(ctx)
		require.NoError(t, err)
		trf, err := trade.NewWarehouseTransfer(number, f.warehouse.ID, f.second.ID)
		require.NoError(t, err)
		_, err = trf.AddLine(f.product.ID, catalog.UnitKindSmall, dec("4"))
		require.NoError(t, err)
		require.NoError(t, f.repos.TransferRepo().Save(ctx, trf))

		require.NoError(t, f.svc.PostTransfer(ctx, trf.ID))

		outs := f.movementsOfKind(inventory.MovementKindTransferOut)
		ins := f.movementsOfKind(inventory.MovementKindTransferIn)
		require.Len(t, outs, 1)
		require.Len(t, ins, 1)
		assert.True(t, outs[0].Quantity.Equal(dec("-4")))
		assert.True(t, ins[0].Quantity.Equal(dec("4")))
		assert.Equal(t, f.warehouse.ID, outs[0].WarehouseID)
		assert.Equal(t, f.second.ID, ins[0].WarehouseID)

		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("6")))
		level, err := f.repos.StockLevelRepo().FindOrCreate(ctx, f.second.ID, f.product.ID)
		require.NoError(t, err)
		assert.True(t, level.Quantity.Equal(dec("4")))
	})

	t.Run("fails when the source cannot cover the quantity", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "2", "5")

		number, err := f.repos.TransferRepo().NextNumber(ctx)
		require.NoError(t, err)
		trf, err := trade.NewWarehouseTransfer(number, f.warehouse.ID, f.second.ID)
		require.NoError(t, err)
		_, err = trf.AddLine(f.product.ID, catalog.UnitKindSmall, dec("3"))
		require.NoError(t, err)
		require.NoError(t, f.repos.TransferRepo().Save(ctx, trf))

		err = f.svc.PostTransfer(ctx, trf.ID)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	})
}

// staleReadScope serves documents the way a concurrent READ COMMITTED
// transaction would: the plain reads return a pre-commit snapshot while the
// locking reads see the committed row.
type staleReadScope struct {
	*apptest.Repos
	returns     trade.ReturnRepository
	adjustments trade.AdjustmentRepository
	transfers   trade.TransferRepository
}

func (s staleReadScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s staleReadScope) ReturnRepo() trade.ReturnRepository {
	if s.returns != nil {
		return s.returns
	}
	return s.Repos.ReturnRepo()
}

func (s staleReadScope) AdjustmentRepo() trade.AdjustmentRepository {
	if s.adjustments != nil {
		return s.adjustments
	}
	return s.Repos.AdjustmentRepo()
}

func (s staleReadScope) TransferRepo() trade.TransferRepository {
	if s.transfers != nil {
		return s.transfers
	}
	return s.Repos.TransferRepo()
}

type staleTransferRepo struct {
	trade.TransferRepository
	stale *trade.WarehouseTransfer
}

func (r staleTransferRepo) FindByID(_ context.Context, _ uuid.UUID) (*trade.WarehouseTransfer, error) {
	return r.stale, nil
}

type staleReturnRepo struct {
	trade.ReturnRepository
	stale *trade.Return
}

func (r staleReturnRepo) FindByID(_ context.Context, _ uuid.UUID) (*trade.Return, error) {
	return r.stale, nil
}

type staleAdjustmentRepo struct {
	trade.AdjustmentRepository
	stale *trade.StockAdjustment
}

func (r staleAdjustmentRepo) FindByID(_ context.Context, _ uuid.UUID) (*trade.StockAdjustment, error) {
	return r.stale, nil
}

// Postings must read the document through the locking read so two concurrent
// postings serialize: the loser re-reads the committed POSTED row and stops.
func TestService_PostingSerializesOnDocumentLock(t *testing.T) {
	ctx := context.Background()

	t.Run("transfer cannot post twice through a stale draft", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "90", "5")

		number, err := f.repos.TransferRepo().NextNumber(ctx)
		require.NoError(t, err)
		trf, err := trade.NewWarehouseTransfer(number, f.warehouse.ID, f.second.ID)
		require.NoError(t, err)
		_, err = trf.AddLine(f.product.ID, catalog.UnitKindSmall, dec("10"))
		require.NoError(t, err)
		require.NoError(t, f.repos.TransferRepo().Save(ctx, trf))

		snapshot := *trf
		require.NoError(t, f.svc.PostTransfer(ctx, trf.ID))

		staleSvc := NewService(staleReadScope{
			Repos:     f.repos,
			transfers: staleTransferRepo{f.repos.TransferRepo(), &snapshot},
		}, zap.NewNop())

		err = staleSvc.PostTransfer(ctx, trf.ID)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
		assert.Len(t, f.movementsOfKind(inventory.MovementKindTransferOut), 1)
		assert.True(t, f.levelQuantity(t, f.warehouse.ID).Equal(dec("80")), "got %s", f.levelQuantity(t, f.warehouse.ID))
	})

	t.Run("return cannot post twice through a stale draft", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")
		inv := f.draftInvoice(t, trade.InvoiceKindSales, "4", "10")
		require.NoError(t, f.svc.PostInvoice(ctx, inv.ID))

		number, err := f.repos.ReturnRepo().NextNumber(ctx, trade.ReturnKindSales)
		require.NoError(t, err)
		ret, err := trade.NewReturn(trade.ReturnKindSales, number, inv)
		require.NoError(t, err)
		_, err = ret.AddLine(f.product.ID, catalog.UnitKindSmall, dec("2"), dec("10"))
		require.NoError(t, err)
		require.NoError(t, f.repos.ReturnRepo().Save(ctx, ret))

		snapshot := *ret
		require.NoError(t, f.svc.PostReturn(ctx, ret.ID))

		staleSvc := NewService(staleReadScope{
			Repos:   f.repos,
			returns: staleReturnRepo{f.repos.ReturnRepo(), &snapshot},
		}, zap.NewNop())

		err = staleSvc.PostReturn(ctx, ret.ID)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
		assert.Len(t, f.movementsOfKind(inventory.MovementKindSaleReturn), 1)
	})

	t.Run("adjustment cannot post twice through a stale draft", func(t *testing.T) {
		f := newFixture(t)
		f.seedStock(t, "10", "5")

		number, err := f.repos.AdjustmentRepo().NextNumber(ctx)
		require.NoError(t, err)
		adj, err := trade.NewStockAdjustment(number, f.warehouse.ID, "cycle count")
		require.NoError(t, err)
		_, err = adj.AddLine(f.product.ID, trade.AdjustmentDirectionOut, catalog.UnitKindSmall, dec("3"))
		require.NoError(t, err)
		require.NoError(t, f.repos.AdjustmentRepo().Save(ctx, adj))

		snapshot := *adj
		require.NoError(t, f.svc.PostAdjustment(ctx, adj.ID))

		staleSvc := NewService(staleReadScope{
			Repos:       f.repos,
			adjustments: staleAdjustmentRepo{f.repos.AdjustmentRepo(), &snapshot},
		}, zap.NewNop())

		err = staleSvc.PostAdjustment(ctx, adj.ID)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
		assert.Len(t, f.movementsOfKind(inventory.MovementKindAdjustmentOut), 1)
	})
}

// A line whose unit no longer resolves must fail the posting up front, not
// slip past the availability check.
func TestService_PostInvoice_UnresolvableUnit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.seedStock(t, "10", "5")

	inv := f.draftInvoice(t, trade.InvoiceKindSales, "4", "10")
	inv.Lines[0].Unit = catalog.UnitKind("CRATE")
	require.NoError(t, f.repos.InvoiceRepo().Save(ctx, inv))

	err := f.svc.PostInvoice(ctx, inv.ID)
	require.Error(t, err)
	assert.True(t, shared.IsDomainError(err, "INVALID_UNIT"))
	assert.False(t, inv.IsPosted())
	assert.Empty(t, f.movementsOfKind(inventory.MovementKindSale))
}
