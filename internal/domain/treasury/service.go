package treasury

import (
	"context"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// AppendWithBalanceGuard inserts a ledger row, enforcing the non-negative
// balance invariant for debits. The caller must already be inside a
// transaction: the treasury row lock taken here serializes concurrent debits
// against the same treasury so the balance check and insert are atomic.
func AppendWithBalanceGuard(ctx context.Context, treasuries TreasuryRepository, ledger TransactionRepository, tx *Transaction) error {
	if tx.IsDebit() {
		if _, err := treasuries.FindForUpdate(ctx, tx.TreasuryID); err != nil {
			return err
		}
		balance, err := ledger.SumAmount(ctx, tx.TreasuryID)
		if err != nil {
			return err
		}
		if balance.Add(tx.Amount).IsNegative() {
			return shared.ErrInsufficientBalance
		}
	} else {
		if _, err := treasuries.FindByID(ctx, tx.TreasuryID); err != nil {
			return err
		}
	}
	return ledger.Append(ctx, tx)
}
