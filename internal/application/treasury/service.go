package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	partnerapp "github.com/tradecore/backoffice/internal/application/partner"
	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// TransactionScope provides transactional access to the treasury-side
// repositories so the balance guard and insert run atomically.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to the repositories a financial transaction
// touches within one transaction
type Repositories interface {
	PartnerRepo() partner.PartnerRepository
	TreasuryRepo() treasury.TreasuryRepository
	TreasuryTxRepo() treasury.TransactionRepository
	InvoiceRepo() trade.InvoiceRepository
	ReturnRepo() trade.ReturnRepository
	PaymentRepo() finance.PaymentRepository
}

// Service handles treasury accounts, standalone financial transactions and
// balance queries
type Service struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewService creates a new treasury Service
func NewService(scope TransactionScope, logger *zap.Logger) *Service {
	return &Service{scope: scope, logger: logger}
}

// RecordTransactionRequest carries a standalone financial transaction:
// advances, expenses, incomes, salaries. Amount is signed.
type RecordTransactionRequest struct {
	TreasuryID  uuid.UUID
	Type        treasury.TransactionType
	Amount      decimal.Decimal
	Description string
	PartnerID   *uuid.UUID
}

// CreateTreasury registers a new treasury account
func (s *Service) CreateTreasury(ctx context.Context, name string) (*treasury.Treasury, error) {
	var created *treasury.Treasury
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		t, err := treasury.NewTreasury(name)
		if err != nil {
			return err
		}
		created = t
		return repos.TreasuryRepo().Save(ctx, t)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RecordTransaction appends a ledger row under the balance guard: a debit
// that would drive the treasury balance negative is rejected, with the check
// and insert in one transaction. Partner-tagged rows trigger a balance
// rederivation for that partner.
func (s *Service) RecordTransaction(ctx context.Context, req RecordTransactionRequest) (*treasury.Transaction, error) {
	var row *treasury.Transaction
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		tx, err := treasury.NewTransaction(req.TreasuryID, req.Type, req.Amount, req.Description)
		if err != nil {
			return err
		}
		if req.PartnerID != nil {
			tx = tx.WithPartner(*req.PartnerID)
		}
		ref, err := shared.NewDocumentRef(shared.DocumentKindManual, tx.ID)
		if err != nil {
			return err
		}
		tx = tx.WithSource(ref)

		if err := treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), tx); err != nil {
			return err
		}
		row = tx

		if req.PartnerID != nil {
			_, err = partnerapp.DeriveBalance(ctx, repos, *req.PartnerID)
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("treasury transaction recorded",
		zap.String("treasury_id", req.TreasuryID.String()),
		zap.String("type", req.Type.String()),
		zap.String("amount", req.Amount.String()))
	return row, nil
}

// Balance derives a treasury's current balance from its ledger rows
func (s *Service) Balance(ctx context.Context, treasuryID uuid.UUID) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		if _, err := repos.TreasuryRepo().FindByID(ctx, treasuryID); err != nil {
			return err
		}
		var err error
		balance, err = repos.TreasuryTxRepo().SumAmount(ctx, treasuryID)
		return err
	})
	return balance, err
}

// BalanceBetween derives the balance change over a date window
func (s *Service) BalanceBetween(ctx context.Context, treasuryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		sum, err = repos.TreasuryTxRepo().SumAmountBetween(ctx, treasuryID, from, to)
		return err
	})
	return sum, err
}

// ListTransactions returns a treasury's rows windowed by the optional range
func (s *Service) ListTransactions(ctx context.Context, treasuryID uuid.UUID, from, to *time.Time) ([]treasury.Transaction, error) {
	var rows []treasury.Transaction
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		rows, err = repos.TreasuryTxRepo().ListByTreasury(ctx, treasuryID, from, to)
		return err
	})
	return rows, err
}
