package treasury

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// TreasuryRepository defines persistence operations for treasury accounts
type TreasuryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Treasury, error)
	// FindForUpdate loads the treasury row under a FOR UPDATE lock so the
	// balance check and insert cannot interleave with a concurrent debit
	FindForUpdate(ctx context.Context, id uuid.UUID) (*Treasury, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Treasury, error)
	Save(ctx context.Context, t *Treasury) error
}

// TransactionRepository is the append-only store for treasury ledger rows.
// There is deliberately no delete operation of any kind.
type TransactionRepository interface {
	Append(ctx context.Context, tx *Transaction) error
	// SumAmount derives the current balance of a treasury
	SumAmount(ctx context.Context, treasuryID uuid.UUID) (decimal.Decimal, error)
	// SumAmountBetween derives the balance change over a date window
	SumAmountBetween(ctx context.Context, treasuryID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
	// SumByTypes aggregates rows of the given types over a date window across
	// all treasuries (profit allocation inputs)
	SumByTypes(ctx context.Context, types []TransactionType, from, to time.Time) (decimal.Decimal, error)
	// ListByPartner returns rows tagged against a partner, oldest first
	ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]Transaction, error)
	// ListByTreasury returns rows for a treasury windowed by the optional range
	ListByTreasury(ctx context.Context, treasuryID uuid.UUID, from, to *time.Time) ([]Transaction, error)
	// ExistsBySource reports whether any row references the document
	ExistsBySource(ctx context.Context, source shared.DocumentRef) (bool, error)
}
