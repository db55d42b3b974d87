package persistence

import (
	"context"

	"gorm.io/gorm"

	appfinance "github.com/tradecore/backoffice/internal/application/finance"
	"github.com/tradecore/backoffice/internal/application/posting"
	apptrade "github.com/tradecore/backoffice/internal/application/trade"
	apptreasury "github.com/tradecore/backoffice/internal/application/treasury"
	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// txRepositories provides all repositories bound to one transaction. Its
// getter set structurally satisfies every application context's repository
// interface, so one concrete type backs the four scopes below.
type txRepositories struct {
	tx *gorm.DB
}

func (r *txRepositories) ProductRepo() catalog.ProductRepository {
	return NewGormProductRepository(r.tx)
}

func (r *txRepositories) PartnerRepo() partner.PartnerRepository {
	return NewGormPartnerRepository(r.tx)
}

func (r *txRepositories) WarehouseRepo() partner.WarehouseRepository {
	return NewGormWarehouseRepository(r.tx)
}

func (r *txRepositories) MovementRepo() inventory.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

func (r *txRepositories) StockLevelRepo() inventory.StockLevelRepository {
	return NewGormStockLevelRepository(r.tx)
}

func (r *txRepositories) TreasuryRepo() treasury.TreasuryRepository {
	return NewGormTreasuryRepository(r.tx)
}

func (r *txRepositories) TreasuryTxRepo() treasury.TransactionRepository {
	return NewGormTreasuryTransactionRepository(r.tx)
}

func (r *txRepositories) InvoiceRepo() trade.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *txRepositories) ReturnRepo() trade.ReturnRepository {
	return NewGormReturnRepository(r.tx)
}

func (r *txRepositories) AdjustmentRepo() trade.AdjustmentRepository {
	return NewGormAdjustmentRepository(r.tx)
}

func (r *txRepositories) TransferRepo() trade.TransferRepository {
	return NewGormTransferRepository(r.tx)
}

func (r *txRepositories) InstallmentRepo() finance.InstallmentRepository {
	return NewGormInstallmentRepository(r.tx)
}

func (r *txRepositories) PaymentRepo() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *txRepositories) EquityPeriodRepo() finance.EquityPeriodRepository {
	return NewGormEquityPeriodRepository(r.tx)
}

// GormPostingScope implements the posting TransactionScope using GORM
// transactions
type GormPostingScope struct {
	db *gorm.DB
}

// NewGormPostingScope creates a new GormPostingScope
func NewGormPostingScope(db *gorm.DB) *GormPostingScope {
	return &GormPostingScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormPostingScope) Execute(ctx context.Context, fn func(repos posting.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx})
	})
}

// GormFinanceScope implements the finance TransactionScope using GORM
// transactions
type GormFinanceScope struct {
	db *gorm.DB
}

// NewGormFinanceScope creates a new GormFinanceScope
func NewGormFinanceScope(db *gorm.DB) *GormFinanceScope {
	return &GormFinanceScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormFinanceScope) Execute(ctx context.Context, fn func(repos appfinance.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx})
	})
}

// GormTreasuryScope implements the treasury TransactionScope using GORM
// transactions
type GormTreasuryScope struct {
	db *gorm.DB
}

// NewGormTreasuryScope creates a new GormTreasuryScope
func NewGormTreasuryScope(db *gorm.DB) *GormTreasuryScope {
	return &GormTreasuryScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormTreasuryScope) Execute(ctx context.Context, fn func(repos apptreasury.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx})
	})
}

// GormDocumentScope implements the trade document TransactionScope using GORM
// transactions
type GormDocumentScope struct {
	db *gorm.DB
}

// NewGormDocumentScope creates a new GormDocumentScope
func NewGormDocumentScope(db *gorm.DB) *GormDocumentScope {
	return &GormDocumentScope{db: db}
}

// Execute runs the given function within a database transaction
func (s *GormDocumentScope) Execute(ctx context.Context, fn func(repos apptrade.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&txRepositories{tx: tx})
	})
}

// Interface guards
var (
	_ posting.TransactionScope     = (*GormPostingScope)(nil)
	_ appfinance.TransactionScope  = (*GormFinanceScope)(nil)
	_ apptreasury.TransactionScope = (*GormTreasuryScope)(nil)
	_ apptrade.TransactionScope    = (*GormDocumentScope)(nil)
)
