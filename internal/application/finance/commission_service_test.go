package finance

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// commissionedSale posts a 1000 sales invoice carrying a 2% commission
func commissionedSale(t *testing.T, f *fixture) *trade.Invoice {
	t.Helper()
	ctx := context.Background()
	number, err := f.repos.InvoiceRepo().NextNumber(ctx, trade.InvoiceKindSales)
	require.NoError(t, err)
	inv, err := trade.NewInvoice(trade.InvoiceKindSales, number, f.customer.ID, uuid.New())
	require.NoError(t, err)
	_, err = inv.AddLine(f.product.ID, catalog.UnitKindSmall, dec("1"), dec("1000"))
	require.NoError(t, err)
	require.NoError(t, inv.SetCommissionRate(dec("2")))
	require.NoError(t, inv.MarkPosted())
	require.NoError(t, f.repos.InvoiceRepo().Save(ctx, inv))
	return inv
}

func TestCommissionService_PayCommission(t *testing.T) {
	ctx := context.Background()

	t.Run("pays the fixed commission out of the treasury", func(t *testing.T) {
		f := newFixture(t)
		f.fundRegister(t, "100")
		svc := NewCommissionService(repoScope{f.repos}, zap.NewNop())

		inv := commissionedSale(t, f)
		assert.True(t, inv.CommissionAmount.Equal(dec("20")))

		require.NoError(t, svc.PayCommission(ctx, inv.ID, f.register.ID))
		assert.True(t, inv.CommissionPaid)
		assert.True(t, f.registerBalance(t).Equal(dec("80")))
	})

	t.Run("paying twice fails", func(t *testing.T) {
		f := newFixture(t)
		f.fundRegister(t, "100")
		svc := NewCommissionService(repoScope{f.repos}, zap.NewNop())

		inv := commissionedSale(t, f)
		require.NoError(t, svc.PayCommission(ctx, inv.ID, f.register.ID))
		err := svc.PayCommission(ctx, inv.ID, f.register.ID)
		assert.ErrorIs(t, err, shared.ErrAlreadyProcessed)
	})

	t.Run("payout fails when the treasury cannot cover it", func(t *testing.T) {
		f := newFixture(t)
		svc := NewCommissionService(repoScope{f.repos}, zap.NewNop())

		inv := commissionedSale(t, f)
		err := svc.PayCommission(ctx, inv.ID, f.register.ID)
		assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
		assert.False(t, inv.CommissionPaid)
	})
}

func TestReverseCommissionOnReturn(t *testing.T) {
	ctx := context.Background()

	paidSale := func(t *testing.T, f *fixture) *trade.Invoice {
		t.Helper()
		f.fundRegister(t, "1000")
		inv := commissionedSale(t, f)
		svc := NewCommissionService(repoScope{f.repos}, zap.NewNop())
		require.NoError(t, svc.PayCommission(ctx, inv.ID, f.register.ID))
		return inv
	}

	draftReturn := func(t *testing.T, f *fixture, inv *trade.Invoice, total string) *trade.Return {
		t.Helper()
		number, err := f.repos.ReturnRepo().NextNumber(ctx, trade.ReturnKindSales)
		require.NoError(t, err)
		ret, err := trade.NewReturn(trade.ReturnKindSales, number, inv)
		require.NoError(t, err)
		_, err = ret.AddLine(f.product.ID, catalog.UnitKindSmall, dec("1"), dec(total))
		require.NoError(t, err)
		ret.TreasuryID = &f.register.ID
		return ret
	}

	t.Run("reverses the commission share of the returned value", func(t *testing.T) {
		f := newFixture(t)
		inv := paidSale(t, f)
		ret := draftReturn(t, f, inv, "250")

		reversal, err := ReverseCommissionOnReturn(ctx, f.repos, ret, inv)
		require.NoError(t, err)
		assert.True(t, reversal.Equal(dec("5")), "2%% of 250, got %s", reversal)
		assert.True(t, inv.CommissionAmount.Equal(dec("15")), "got %s", inv.CommissionAmount)
		assert.True(t, inv.CommissionPaid)

		// payout of 20 went out, 5 came back
		assert.True(t, f.registerBalance(t).Equal(dec("985")))
	})

	t.Run("reversal is capped at the commission left", func(t *testing.T) {
		f := newFixture(t)
		inv := paidSale(t, f)
		// a return worth more than the invoice would over-reverse otherwise
		ret := draftReturn(t, f, inv, "2000")

		reversal, err := ReverseCommissionOnReturn(ctx, f.repos, ret, inv)
		require.NoError(t, err)
		assert.True(t, reversal.Equal(dec("20")))
		assert.True(t, inv.CommissionAmount.IsZero())
		assert.False(t, inv.CommissionPaid, "nothing left clears the paid flag")
	})

	t.Run("unpaid commission is a no-op", func(t *testing.T) {
		f := newFixture(t)
		inv := commissionedSale(t, f)
		ret := draftReturn(t, f, inv, "250")

		reversal, err := ReverseCommissionOnReturn(ctx, f.repos, ret, inv)
		require.NoError(t, err)
		assert.True(t, reversal.IsZero())
		assert.True(t, inv.CommissionAmount.Equal(dec("20")))
	})

	t.Run("missing treasury fails instead of skipping the ledger row", func(t *testing.T) {
		f := newFixture(t)
		inv := paidSale(t, f)
		ret := draftReturn(t, f, inv, "250")
		ret.TreasuryID = nil
		inv.TreasuryID = nil

		_, err := ReverseCommissionOnReturn(ctx, f.repos, ret, inv)
		require.Error(t, err)
		assert.True(t, shared.IsDomainError(err, "INVALID_INPUT"))
		// the payout stays fully reconciled: nothing reduced, nothing written
		assert.True(t, inv.CommissionAmount.Equal(dec("20")))

		rows := 0
		for _, tx := range f.repos.TreasuryTxs {
			if tx.Type == treasury.TransactionTypeCommissionReversal {
				rows++
			}
		}
		assert.Zero(t, rows)
	})
}
