package posting

import (
	"context"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// TransactionScope provides transactional access to every repository the
// posting workflow touches. A posting runs entirely inside one Execute call;
// any error rolls the whole document back to its pre-posting state.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// posting transaction. All repositories returned share the same underlying
// database transaction.
//
// Aggregate boundary notes:
//   - StockLevelRepo rows are the lock anchors for sale availability checks;
//     the cached quantity is always refreshed from MovementRepo sums inside
//     the same transaction.
//   - MovementRepo and TreasuryTxRepo are append-only ledgers. Movements
//     support soft delete; treasury rows support no delete at all.
type TransactionalRepositories interface {
	ProductRepo() catalog.ProductRepository
	PartnerRepo() partner.PartnerRepository
	WarehouseRepo() partner.WarehouseRepository
	MovementRepo() inventory.StockMovementRepository
	StockLevelRepo() inventory.StockLevelRepository
	TreasuryRepo() treasury.TreasuryRepository
	TreasuryTxRepo() treasury.TransactionRepository
	InvoiceRepo() trade.InvoiceRepository
	ReturnRepo() trade.ReturnRepository
	AdjustmentRepo() trade.AdjustmentRepository
	TransferRepo() trade.TransferRepository
	InstallmentRepo() finance.InstallmentRepository
	PaymentRepo() finance.PaymentRepository
	EquityPeriodRepo() finance.EquityPeriodRepository
}

// NoOpTransactionScope runs the function against fixed repositories without a
// real transaction. Useful for tests.
type NoOpTransactionScope struct {
	Products     catalog.ProductRepository
	Partners     partner.PartnerRepository
	Warehouses   partner.WarehouseRepository
	Movements    inventory.StockMovementRepository
	StockLevels  inventory.StockLevelRepository
	Treasuries   treasury.TreasuryRepository
	TreasuryTxs  treasury.TransactionRepository
	Invoices     trade.InvoiceRepository
	Returns      trade.ReturnRepository
	Adjustments  trade.AdjustmentRepository
	Transfers    trade.TransferRepository
	Installments finance.InstallmentRepository
	Payments     finance.PaymentRepository
	Periods      finance.EquityPeriodRepository
}

// Execute runs the function without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) ProductRepo() catalog.ProductRepository            { return s.Products }
func (s *NoOpTransactionScope) PartnerRepo() partner.PartnerRepository           { return s.Partners }
func (s *NoOpTransactionScope) WarehouseRepo() partner.WarehouseRepository       { return s.Warehouses }
func (s *NoOpTransactionScope) MovementRepo() inventory.StockMovementRepository  { return s.Movements }
func (s *NoOpTransactionScope) StockLevelRepo() inventory.StockLevelRepository   { return s.StockLevels }
func (s *NoOpTransactionScope) TreasuryRepo() treasury.TreasuryRepository        { return s.Treasuries }
func (s *NoOpTransactionScope) TreasuryTxRepo() treasury.TransactionRepository   { return s.TreasuryTxs }
func (s *NoOpTransactionScope) InvoiceRepo() trade.InvoiceRepository             { return s.Invoices }
func (s *NoOpTransactionScope) ReturnRepo() trade.ReturnRepository               { return s.Returns }
func (s *NoOpTransactionScope) AdjustmentRepo() trade.AdjustmentRepository       { return s.Adjustments }
func (s *NoOpTransactionScope) TransferRepo() trade.TransferRepository           { return s.Transfers }
func (s *NoOpTransactionScope) InstallmentRepo() finance.InstallmentRepository   { return s.Installments }
func (s *NoOpTransactionScope) PaymentRepo() finance.PaymentRepository           { return s.Payments }
func (s *NoOpTransactionScope) EquityPeriodRepo() finance.EquityPeriodRepository { return s.Periods }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
