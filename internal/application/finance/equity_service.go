package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// EquityService manages shareholder capital and periodic profit allocation.
// At most one equity period is open at a time, enforced under the open
// period's row lock.
type EquityService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewEquityService creates a new EquityService
func NewEquityService(scope TransactionScope, logger *zap.Logger) *EquityService {
	return &EquityService{scope: scope, logger: logger}
}

// OpenPeriod opens the first equity period, locking every shareholder's
// current percentage and capital into it. Fatal when a period is already open.
func (s *EquityService) OpenPeriod(ctx context.Context, start time.Time) (*finance.EquityPeriod, error) {
	var period *finance.EquityPeriod
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		existing, err := repos.EquityPeriodRepo().FindOpenForUpdate(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			return shared.NewDomainError("INVALID_STATE", "An equity period is already open")
		}
		period = finance.NewEquityPeriod(start)
		if err := lockShareholders(ctx, repos, period); err != nil {
			return err
		}
		return repos.EquityPeriodRepo().Save(ctx, period)
	})
	if err != nil {
		return nil, err
	}
	return period, nil
}

// ClosePeriodAndAllocate computes the open period's net profit, allocates it
// to the locked shareholder percentages as profit-share treasury rows plus
// capital increases, closes the period, and opens the next one in the same
// transaction.
func (s *EquityService) ClosePeriodAndAllocate(ctx context.Context, treasuryID uuid.UUID, end time.Time) (*finance.EquityPeriod, error) {
	var closed *finance.EquityPeriod
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		period, err := repos.EquityPeriodRepo().FindOpenForUpdate(ctx)
		if err != nil {
			return err
		}
		if period == nil {
			return shared.ErrNotFound
		}

		netProfit, err := periodNetProfit(ctx, repos, period.StartDate, end)
		if err != nil {
			return err
		}

		allocations, err := period.Close(end, netProfit)
		if err != nil {
			return err
		}
		for idx := range allocations {
			if err := allocateShare(ctx, repos, treasuryID, period, &allocations[idx]); err != nil {
				return err
			}
		}
		if err := repos.EquityPeriodRepo().Save(ctx, period); err != nil {
			return err
		}

		if err := syncPercentages(ctx, repos); err != nil {
			return err
		}
		next := finance.NewEquityPeriod(end)
		if err := lockShareholders(ctx, repos, next); err != nil {
			return err
		}
		if err := repos.EquityPeriodRepo().Save(ctx, next); err != nil {
			return err
		}

		closed = period
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("equity period closed",
		zap.String("period_id", closed.ID.String()),
		zap.String("net_profit", closed.NetProfit.String()))
	return closed, nil
}

// InjectCapital records a shareholder's capital deposit: treasury credit,
// capital increase, and a percentage recompute across all shareholders
// reflected on the open period's locked rows.
func (s *EquityService) InjectCapital(ctx context.Context, partnerID, treasuryID uuid.UUID, amount decimal.Decimal) error {
	return s.adjustCapital(ctx, partnerID, treasuryID, amount, treasury.TransactionTypeCapitalDeposit)
}

// RecordDrawing records a shareholder taking cash out: treasury debit under
// the balance guard, capital decrease, and the same percentage recompute.
func (s *EquityService) RecordDrawing(ctx context.Context, partnerID, treasuryID uuid.UUID, amount decimal.Decimal) error {
	return s.adjustCapital(ctx, partnerID, treasuryID, amount.Neg(), treasury.TransactionTypePartnerDrawing)
}

func (s *EquityService) adjustCapital(ctx context.Context, partnerID, treasuryID uuid.UUID, delta decimal.Decimal, txType treasury.TransactionType) error {
	if delta.IsZero() {
		return shared.NewDomainError("INVALID_AMOUNT", "Capital change cannot be zero")
	}
	return s.scope.Execute(ctx, func(repos Repositories) error {
		p, err := repos.PartnerRepo().FindByID(ctx, partnerID)
		if err != nil {
			return err
		}
		if err := p.AdjustCapital(delta); err != nil {
			return err
		}

		row, err := treasury.NewTransaction(treasuryID, txType, delta, string(txType)+" "+p.Name)
		if err != nil {
			return err
		}
		row = row.WithPartner(partnerID)
		if err := treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), row); err != nil {
			return err
		}
		if err := repos.PartnerRepo().Save(ctx, p); err != nil {
			return err
		}

		if err := syncPercentages(ctx, repos); err != nil {
			return err
		}
		return relockOpenPeriod(ctx, repos)
	})
}

// periodNetProfit aggregates the profit components over the period window:
// posted sales revenue minus sales returns, cost of goods sold from the stock
// ledger, and expense-type treasury rows (expenses, salaries, depreciation).
func periodNetProfit(ctx context.Context, repos Repositories, from, to time.Time) (decimal.Decimal, error) {
	revenue, err := repos.InvoiceRepo().SumPostedTotals(ctx, trade.InvoiceKindSales, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	salesReturns, err := repos.ReturnRepo().SumPostedTotals(ctx, trade.ReturnKindSales, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	cogs, err := repos.MovementRepo().SumSaleCost(ctx, from, to)
	if err != nil {
		return decimal.Zero, err
	}
	expenseRows, err := repos.TreasuryTxRepo().SumByTypes(ctx, []treasury.TransactionType{
		treasury.TransactionTypeExpense,
		treasury.TransactionTypeSalary,
		treasury.TransactionTypeDepreciation,
	}, from, to)
	if err != nil {
		return decimal.Zero, err
	}

	// expense rows are debits, so their sum is negative; adding it subtracts
	return revenue.Sub(salesReturns).Sub(cogs).Add(expenseRows).Round(4), nil
}

func allocateShare(ctx context.Context, repos Repositories, treasuryID uuid.UUID, period *finance.EquityPeriod, alloc *finance.EquityPeriodPartner) error {
	if alloc.AllocatedProfit.IsZero() {
		return nil
	}
	p, err := repos.PartnerRepo().FindByID(ctx, alloc.PartnerID)
	if err != nil {
		return err
	}
	if err := p.AdjustCapital(alloc.AllocatedProfit); err != nil {
		return err
	}
	row, err := treasury.NewTransaction(treasuryID, treasury.TransactionTypeProfitShare, alloc.AllocatedProfit, "profit share "+p.Name)
	if err != nil {
		return err
	}
	row = row.WithPartner(p.ID).WithSource(period.Ref())
	if err := treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), row); err != nil {
		return err
	}
	return repos.PartnerRepo().Save(ctx, p)
}

// syncPercentages recomputes every shareholder's percentage as
// capital / total shareholder capital x 100 and persists it
func syncPercentages(ctx context.Context, repos Repositories) error {
	shareholders, err := repos.PartnerRepo().FindByType(ctx, partner.PartnerTypeShareholder)
	if err != nil {
		return err
	}
	total := decimal.Zero
	for idx := range shareholders {
		total = total.Add(shareholders[idx].CurrentCapital)
	}
	for idx := range shareholders {
		pct := decimal.Zero
		if total.IsPositive() {
			pct = shareholders[idx].CurrentCapital.Div(total).Mul(decimal.NewFromInt(100))
		}
		shareholders[idx].SetEquityPercentage(pct)
		if err := repos.PartnerRepo().Save(ctx, &shareholders[idx]); err != nil {
			return err
		}
	}
	return nil
}

// relockOpenPeriod rewrites the open period's locked rows after a capital
// change; closed periods keep their historical locks.
func relockOpenPeriod(ctx context.Context, repos Repositories) error {
	period, err := repos.EquityPeriodRepo().FindOpenForUpdate(ctx)
	if err != nil || period == nil {
		return err
	}
	shareholders, err := repos.PartnerRepo().FindByType(ctx, partner.PartnerTypeShareholder)
	if err != nil {
		return err
	}
	for idx := range shareholders {
		sh := &shareholders[idx]
		if err := period.LockPartner(sh.ID, sh.EquityPercentage, sh.CurrentCapital); err != nil {
			return err
		}
	}
	return repos.EquityPeriodRepo().Save(ctx, period)
}

// lockShareholders seeds a fresh period with the current shareholder set
func lockShareholders(ctx context.Context, repos Repositories, period *finance.EquityPeriod) error {
	shareholders, err := repos.PartnerRepo().FindByType(ctx, partner.PartnerTypeShareholder)
	if err != nil {
		return err
	}
	for idx := range shareholders {
		sh := &shareholders[idx]
		if err := period.LockPartner(sh.ID, sh.EquityPercentage, sh.CurrentCapital); err != nil {
			return err
		}
	}
	return nil
}
