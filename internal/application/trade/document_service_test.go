package trade

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

func (s repoScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type fixture struct {
	repos     *apptest.Repos
	svc       *DocumentService
	product   *catalog.Product
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
	require.NoError(t, repos.ProductRepo().Save(ctx, product))

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
		svc:       NewDocumentService(repoScope{repos}, zap.NewNop()),
		product:   product,
		customer:  customer,
		warehouse: warehouse,
		second:    second,
		register:  register,
	}
}

func (f *fixture) invoiceRequest() CreateInvoiceRequest {
	return CreateInvoiceRequest{
		Kind:          trade.InvoiceKindSales,
		PartnerID:     f.customer.ID,
		WarehouseID:   f.warehouse.ID,
		PaymentMethod: trade.PaymentMethodCredit,
		Lines: []InvoiceLineInput{
			{ProductID: f.product.ID, Unit: catalog.UnitKindSmall, Quantity: dec("2"), UnitPrice: dec("50")},
		},
	}
}

func TestDocumentService_Invoices(t *testing.T) {
	ctx := context.Background()

	t.Run("drafts an invoice with a sequential number", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.svc.CreateInvoice(ctx, f.invoiceRequest())
		require.NoError(t, err)
		assert.Equal(t, "SI-00001", resp.Number)
		assert.Equal(t, trade.DocumentStatusDraft, resp.Status)
		assert.True(t, resp.Total.Equal(dec("100")))
		assert.Len(t, resp.Lines, 1)

		second, err := f.svc.CreateInvoice(ctx, f.invoiceRequest())
		require.NoError(t, err)
		assert.Equal(t, "SI-00002", second.Number)
	})

	t.Run("rejects unknown products", func(t *testing.T) {
		f := newFixture(t)
		req := f.invoiceRequest()
		req.Lines[0].ProductID = uuid.New()

		_, err := f.svc.CreateInvoice(ctx, req)
		assert.ErrorIs(t, err, shared.ErrIntegrityViolation)
	})

	t.Run("rejects unknown counterparties", func(t *testing.T) {
		f := newFixture(t)
		req := f.invoiceRequest()
		req.PartnerID = uuid.New()

		_, err := f.svc.CreateInvoice(ctx, req)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("applies discount and payment terms", func(t *testing.T) {
		f := newFixture(t)
		req := f.invoiceRequest()
		discount := dec("10")
		req.Discount = &discount
		req.PaymentMethod = trade.PaymentMethodCash
		req.TreasuryID = &f.register.ID

		resp, err := f.svc.CreateInvoice(ctx, req)
		require.NoError(t, err)
		assert.True(t, resp.Total.Equal(dec("90")))
		assert.Equal(t, trade.PaymentMethodCash, resp.PaymentMethod)
	})

	t.Run("deletes a draft", func(t *testing.T) {
		f := newFixture(t)
		resp, err := f.svc.CreateInvoice(ctx, f.invoiceRequest())
		require.NoError(t, err)

		require.NoError(t, f.svc.DeleteInvoice(ctx, resp.ID))
		_, err = f.svc.GetInvoice(ctx, resp.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("posted invoices cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		resp, err := f.svc.CreateInvoice(ctx, f.invoiceRequest())
		require.NoError(t, err)

		inv, err := f.repos.InvoiceRepo().FindByID(ctx, resp.ID)
		require.NoError(t, err)
		require.NoError(t, inv.MarkPosted())

		err = f.svc.DeleteInvoice(ctx, resp.ID)
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
	})

	t.Run("drafts referenced by ledger rows cannot be deleted", func(t *testing.T) {
		f := newFixture(t)
		resp, err := f.svc.CreateInvoice(ctx, f.invoiceRequest())
		require.NoError(t, err)

		inv, err := f.repos.InvoiceRepo().FindByID(ctx, resp.ID)
		require.NoError(t, err)
		movement, err := inventory.NewStockMovement(f.warehouse.ID, f.product.ID, inventory.MovementKindSale, dec("-1"), dec("5"), inv.Ref())
		require.NoError(t, err)
		require.NoError(t, f.repos.MovementRepo().Append(ctx, movement))

		err = f.svc.DeleteInvoice(ctx, resp.ID)
		assert.ErrorIs(t, err, shared.ErrDocumentReferenced)
	})
}

func TestDocumentService_Returns(t *testing.T) {
	ctx := context.Background()

	postedInvoice := func(t *testing.T, f *fixture) *InvoiceResponse {
		t.Helper()
		resp, err := f.svc.CreateInvoice(ctx, f.invoiceRequest())
		require.NoError(t, err)
		inv, err := f.repos.InvoiceRepo().FindByID(ctx, resp.ID)
		require.NoError(t, err)
		require.NoError(t, inv.MarkPosted())
		return resp
	}

	t.Run("drafts a return against a posted invoice", func(t *testing.T) {
		f := newFixture(t)
		inv := postedInvoice(t, f)

		resp, err := f.svc.CreateReturn(ctx, CreateReturnRequest{
			Kind:      trade.ReturnKindSales,
			InvoiceID: inv.ID,
			Mode:      trade.RefundModeCredit,
			Lines: []ReturnLineInput{
				{ProductID: f.product.ID, Unit: catalog.UnitKindSmall, Quantity: dec("1"), UnitPrice: dec("50")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "SR-00001", resp.Number)
		assert.True(t, resp.Total.Equal(dec("50")))
		assert.Equal(t, inv.ID, resp.InvoiceID)
	})

	t.Run("cash mode requires a treasury", func(t *testing.T) {
		f := newFixture(t)
		inv := postedInvoice(t, f)

		_, err := f.svc.CreateReturn(ctx, CreateReturnRequest{
			Kind:      trade.ReturnKindSales,
			InvoiceID: inv.ID,
			Mode:      trade.RefundModeCash,
			Lines: []ReturnLineInput{
				{ProductID: f.product.ID, Unit: catalog.UnitKindSmall, Quantity: dec("1"), UnitPrice: dec("50")},
			},
		})
		require.Error(t, err)
	})

	t.Run("deletes a draft return", func(t *testing.T) {
		f := newFixture(t)
		inv := postedInvoice(t, f)

		resp, err := f.svc.CreateReturn(ctx, CreateReturnRequest{
			Kind:      trade.ReturnKindSales,
			InvoiceID: inv.ID,
			Mode:      trade.RefundModeCredit,
			Lines: []ReturnLineInput{
				{ProductID: f.product.ID, Unit: catalog.UnitKindSmall, Quantity: dec("1"), UnitPrice: dec("50")},
			},
		})
		require.NoError(t, err)
		require.NoError(t, f.svc.DeleteReturn(ctx, resp.ID))
	})
}

func TestDocumentService_AdjustmentsAndTransfers(t *testing.T) {
	ctx := context.Background()

	t.Run("drafts an adjustment", func(t *testing.T) {
		f := newFixture(t)
		adj, err := f.svc.CreateAdjustment(ctx, CreateAdjustmentRequest{
			WarehouseID: f.warehouse.ID,
			Reason:      "cycle count",
			Lines: []AdjustmentLineInput{
				{ProductID: f.product.ID, Direction: trade.AdjustmentDirectionOut, Unit: catalog.UnitKindSmall, Quantity: dec("3")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "ADJ-00001", adj.Number)
		assert.Equal(t, "cycle count", adj.Reason)
		require.NoError(t, f.svc.DeleteAdjustment(ctx, adj.ID))
	})

	t.Run("an adjustment without a reason is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateAdjustment(ctx, CreateAdjustmentRequest{
			WarehouseID: f.warehouse.ID,
			Lines: []AdjustmentLineInput{
				{ProductID: f.product.ID, Direction: trade.AdjustmentDirectionIn, Unit: catalog.UnitKindSmall, Quantity: dec("3")},
			},
		})
		require.Error(t, err)
	})

	t.Run("drafts a transfer between distinct warehouses", func(t *testing.T) {
		f := newFixture(t)
		trf, err := f.svc.CreateTransfer(ctx, CreateTransferRequest{
			FromWarehouseID: f.warehouse.ID,
			ToWarehouseID:   f.second.ID,
			Lines: []TransferLineInput{
				{ProductID: f.product.ID, Unit: catalog.UnitKindSmall, Quantity: dec("4")},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, "TRF-00001", trf.Number)
	})

	t.Run("a transfer to the same warehouse is rejected", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.CreateTransfer(ctx, CreateTransferRequest{
			FromWarehouseID: f.warehouse.ID,
			ToWarehouseID:   f.warehouse.ID,
			Lines: []TransferLineInput{
				{ProductID: f.product.ID, Unit: catalog.UnitKindSmall, Quantity: dec("4")},
			},
		})
		require.Error(t, err)
	})
}
