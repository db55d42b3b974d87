package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

type equityFixture struct {
	*fixture
	alice *partner.Partner
	bob   *partner.Partner
	svc   *EquityService
}

func newEquityFixture(t *testing.T) *equityFixture {
	t.Helper()
	ctx := context.Background()
	f := newFixture(t)

	alice, err := partner.NewPartner("Alice", partner.PartnerTypeShareholder)
	require.NoError(t, err)
	require.NoError(t, alice.AdjustCapital(dec("6000")))
	alice.SetEquityPercentage(dec("60"))
	require.NoError(t, f.repos.PartnerRepo().Save(ctx, alice))

	bob, err := partner.NewPartner("Bob", partner.PartnerTypeShareholder)
	require.NoError(t, err)
	require.NoError(t, bob.AdjustCapital(dec("4000")))
	bob.SetEquityPercentage(dec("40"))
	require.NoError(t, f.repos.PartnerRepo().Save(ctx, bob))

	return &equityFixture{
		fixture: f,
		alice:   alice,
		bob:     bob,
		svc:     NewEquityService(repoScope{f.repos}, zap.NewNop()),
	}
}

// seedTradingResults sets up the profit components inside the period window:
// 1000 revenue, 100 sales returns, 50 cost of goods sold, 200 expenses.
func (f *equityFixture) seedTradingResults(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	number, err := f.repos.InvoiceRepo().NextNumber(ctx, trade.InvoiceKindSales)
	require.NoError(t, err)
	inv, err := trade.NewInvoice(trade.InvoiceKindSales, number, f.customer.ID, uuid.New())
	require.NoError(t, err)
	_, err = inv.AddLine(f.product.ID, catalog.UnitKindSmall, dec("10"), dec("100"))
	require.NoError(t, err)
	require.NoError(t, inv.MarkPosted())
	require.NoError(t, f.repos.InvoiceRepo().Save(ctx, inv))

	retNumber, err := f.repos.ReturnRepo().NextNumber(ctx, trade.ReturnKindSales)
	require.NoError(t, err)
	ret, err := trade.NewReturn(trade.ReturnKindSales, retNumber, inv)
	require.NoError(t, err)
	_, err = ret.AddLine(f.product.ID, catalog.UnitKindSmall, dec("1"), dec("100"))
	require.NoError(t, err)
	require.NoError(t, ret.MarkPosted())
	require.NoError(t, f.repos.ReturnRepo().Save(ctx, ret))

	movement, err := inventory.NewStockMovement(uuid.New(), f.product.ID, inventory.MovementKindSale, dec("-10"), dec("5"), inv.Ref())
	require.NoError(t, err)
	require.NoError(t, f.repos.MovementRepo().Append(ctx, movement))

	expense, err := treasury.NewTransaction(f.register.ID, treasury.TransactionTypeExpense, dec("-200"), "rent")
	require.NoError(t, err)
	require.NoError(t, f.repos.TreasuryTxRepo().Append(ctx, expense))
}

func TestEquityService_OpenPeriod(t *testing.T) {
	ctx := context.Background()

	t.Run("locks the current shareholder set", func(t *testing.T) {
		f := newEquityFixture(t)
		period, err := f.svc.OpenPeriod(ctx, time.Now())
		require.NoError(t, err)
		require.Len(t, period.Partners, 2)
		for idx := range period.Partners {
			if period.Partners[idx].PartnerID == f.alice.ID {
				assert.True(t, period.Partners[idx].Percentage.Equal(dec("60")))
				assert.True(t, period.Partners[idx].CapitalSnapshot.Equal(dec("6000")))
			}
		}
	})

	t.Run("a second open period is rejected", func(t *testing.T) {
		f := newEquityFixture(t)
		_, err := f.svc.OpenPeriod(ctx, time.Now())
		require.NoError(t, err)
		_, err = f.svc.OpenPeriod(ctx, time.Now())
		assert.True(t, shared.IsDomainError(err, "INVALID_STATE"))
	})
}

func TestEquityService_ClosePeriodAndAllocate(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates the period profit by locked percentages", func(t *testing.T) {
		f := newEquityFixture(t)
		f.fundRegister(t, "1000")

		start := time.Now().Add(-time.Hour)
		_, err := f.svc.OpenPeriod(ctx, start)
		require.NoError(t, err)

		f.seedTradingResults(t)

		closed, err := f.svc.ClosePeriodAndAllocate(ctx, f.register.ID, time.Now().Add(time.Hour))
		require.NoError(t, err)

		// 1000 revenue - 100 returns - 50 cogs - 200 expenses
		assert.True(t, closed.NetProfit.Equal(dec("650")), "got %s", closed.NetProfit)

		assert.True(t, f.alice.CurrentCapital.Equal(dec("6390")), "60%% of 650 on top of 6000, got %s", f.alice.CurrentCapital)
		assert.True(t, f.bob.CurrentCapital.Equal(dec("4260")), "got %s", f.bob.CurrentCapital)

		shares := decimal.Zero
		for _, tx := range f.repos.TreasuryTxs {
			if tx.Type == treasury.TransactionTypeProfitShare {
				shares = shares.Add(tx.Amount)
			}
		}
		assert.True(t, shares.Equal(dec("650")))

		// ratios held, so the recomputed percentages match the old ones
		assert.True(t, f.alice.EquityPercentage.Equal(dec("60")), "got %s", f.alice.EquityPercentage)

		next, err := f.repos.EquityPeriodRepo().FindOpen(ctx)
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.Equal(t, *closed.EndDate, next.StartDate)
	})

	t.Run("closing without an open period fails", func(t *testing.T) {
		f := newEquityFixture(t)
		_, err := f.svc.ClosePeriodAndAllocate(ctx, f.register.ID, time.Now())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("a loss debits the shareholders", func(t *testing.T) {
		f := newEquityFixture(t)
		f.fundRegister(t, "1000")

		_, err := f.svc.OpenPeriod(ctx, time.Now().Add(-time.Hour))
		require.NoError(t, err)

		expense, err := treasury.NewTransaction(f.register.ID, treasury.TransactionTypeExpense, dec("-100"), "rent")
		require.NoError(t, err)
		require.NoError(t, f.repos.TreasuryTxRepo().Append(ctx, expense))

		closed, err := f.svc.ClosePeriodAndAllocate(ctx, f.register.ID, time.Now().Add(time.Hour))
		require.NoError(t, err)
		assert.True(t, closed.NetProfit.Equal(dec("-100")))
		assert.True(t, f.alice.CurrentCapital.Equal(dec("5940")), "got %s", f.alice.CurrentCapital)
		assert.True(t, f.bob.CurrentCapital.Equal(dec("3960")), "got %s", f.bob.CurrentCapital)
	})
}

func TestEquityService_CapitalChanges(t *testing.T) {
	ctx := context.Background()

	t.Run("injection raises capital and reshuffles percentages", func(t *testing.T) {
		f := newEquityFixture(t)
		_, err := f.svc.OpenPeriod(ctx, time.Now())
		require.NoError(t, err)

		require.NoError(t, f.svc.InjectCapital(ctx, f.alice.ID, f.register.ID, dec("1000")))

		assert.True(t, f.alice.CurrentCapital.Equal(dec("7000")))
		assert.True(t, f.alice.EquityPercentage.Round(4).Equal(dec("63.6364")), "got %s", f.alice.EquityPercentage)
		assert.True(t, f.bob.EquityPercentage.Round(4).Equal(dec("36.3636")), "got %s", f.bob.EquityPercentage)
		assert.True(t, f.registerBalance(t).Equal(dec("1000")))

		// the open period's locked rows follow the new split
		period, err := f.repos.EquityPeriodRepo().FindOpen(ctx)
		require.NoError(t, err)
		for idx := range period.Partners {
			if period.Partners[idx].PartnerID == f.alice.ID {
				assert.True(t, period.Partners[idx].CapitalSnapshot.Equal(dec("7000")))
			}
		}
	})

	t.Run("drawing needs treasury cover", func(t *testing.T) {
		f := newEquityFixture(t)
		err := f.svc.RecordDrawing(ctx, f.alice.ID, f.register.ID, dec("500"))
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	})

	t.Run("funded drawing debits the register and the capital", func(t *testing.T) {
		f := newEquityFixture(t)
		f.fundRegister(t, "1000")
		require.NoError(t, f.svc.RecordDrawing(ctx, f.alice.ID, f.register.ID, dec("500")))
		assert.True(t, f.alice.CurrentCapital.Equal(dec("5500")))
		assert.True(t, f.registerBalance(t).Equal(dec("500")))
	})

	t.Run("zero delta is rejected", func(t *testing.T) {
		f := newEquityFixture(t)
		err := f.svc.InjectCapital(ctx, f.alice.ID, f.register.ID, decimal.Zero)
		assert.True(t, shared.IsDomainError(err, "INVALID_AMOUNT"))
	})
}
