package finance

import (
	"context"

	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// TransactionScope provides transactional access to the repositories the
// finance workflows touch: payment application, commission payout and
// equity allocation all pair ledger writes with row locks.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to finance-side repositories within a
// transaction. All repositories returned share the same underlying database
// transaction.
type Repositories interface {
	PartnerRepo() partner.PartnerRepository
	MovementRepo() inventory.StockMovementRepository
	TreasuryRepo() treasury.TreasuryRepository
	TreasuryTxRepo() treasury.TransactionRepository
	InvoiceRepo() trade.InvoiceRepository
	ReturnRepo() trade.ReturnRepository
	InstallmentRepo() finance.InstallmentRepository
	PaymentRepo() finance.PaymentRepository
	EquityPeriodRepo() finance.EquityPeriodRepository
}
