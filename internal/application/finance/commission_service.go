package finance

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// CommissionService pays out sales commissions and reverses them
// proportionally when goods come back.
type CommissionService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewCommissionService creates a new CommissionService
func NewCommissionService(scope TransactionScope, logger *zap.Logger) *CommissionService {
	return &CommissionService{scope: scope, logger: logger}
}

// PayCommission pays the commission due on a posted invoice out of the given
// treasury. Fatal when the invoice is not posted, nothing is due, or the
// commission was already paid.
func (s *CommissionService) PayCommission(ctx context.Context, invoiceID, treasuryID uuid.UUID) error {
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.InvoiceRepo().FindForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		payout := inv.CommissionAmount
		if err := inv.MarkCommissionPaid(); err != nil {
			return err
		}

		row, err := treasury.NewTransaction(treasuryID, treasury.TransactionTypeCommissionPayout, payout.Neg(), "commission payout "+inv.Number)
		if err != nil {
			return err
		}
		row = row.WithPartner(inv.PartnerID).WithSource(inv.Ref())
		if err := treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), row); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, inv)
	})
	if err != nil {
		return err
	}
	s.logger.Info("commission paid", zap.String("invoice_id", invoiceID.String()))
	return nil
}

// ReverseCommissionOnReturn undoes the paid-out commission share of a
// returned value: reversal = commission rate applied to the return total,
// which equals the original commission scaled by returnTotal/invoiceTotal.
// A no-op unless the invoice's commission was actually paid. The reversal is
// floored so the invoice's commission never goes negative, and the paid flag
// clears when nothing remains. Runs inside the caller's transaction.
func ReverseCommissionOnReturn(ctx context.Context, repos Repositories, ret *trade.Return, inv *trade.Invoice) (decimal.Decimal, error) {
	if inv.Kind != trade.InvoiceKindSales || !inv.CommissionPaid {
		return decimal.Zero, nil
	}

	reversal := ret.Total.Mul(inv.CommissionRate).Div(decimal.NewFromInt(100)).Round(4)
	if reversal.GreaterThan(inv.CommissionAmount) {
		reversal = inv.CommissionAmount
	}
	if !reversal.IsPositive() {
		return decimal.Zero, nil
	}

	treasuryID := ret.TreasuryID
	if treasuryID == nil {
		treasuryID = inv.TreasuryID
	}
	if treasuryID == nil {
		// the payout sits in the treasury ledger, so its reversal must too
		return decimal.Zero, shared.NewDomainError("INVALID_INPUT", "A treasury is required to reverse a paid commission")
	}
	row, err := treasury.NewTransaction(*treasuryID, treasury.TransactionTypeCommissionReversal, reversal, "commission reversal "+ret.Number)
	if err != nil {
		return decimal.Zero, err
	}
	row = row.WithPartner(inv.PartnerID).WithSource(ret.Ref())
	if err := treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), row); err != nil {
		return decimal.Zero, err
	}

	inv.ReduceCommission(reversal)
	if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
		return decimal.Zero, err
	}
	return reversal, nil
}
