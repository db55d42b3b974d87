package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// GormTreasuryTransactionRepository implements TransactionRepository using
// GORM. The treasury_transactions table is strictly append-only; nothing here
// updates or deletes a row.
type GormTreasuryTransactionRepository struct {
	db *gorm.DB
}

// NewGormTreasuryTransactionRepository creates a new GormTreasuryTransactionRepository
func NewGormTreasuryTransactionRepository(db *gorm.DB) *GormTreasuryTransactionRepository {
	return &GormTreasuryTransactionRepository{db: db}
}

// Append inserts a transaction row
func (r *GormTreasuryTransactionRepository) Append(ctx context.Context, tx *treasury.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// SumAmount derives the current balance of a treasury
func (r *GormTreasuryTransactionRepository) SumAmount(ctx context.Context, treasuryID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&treasury.Transaction{}).
		Where("treasury_id = ?", treasuryID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumAmountBetween derives the balance change over a window, counting
// occurred_at in [from, to)
func (r *GormTreasuryTransactionRepository) SumAmountBetween(ctx context.Context, treasuryID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&treasury.Transaction{}).
		Where("treasury_id = ? AND occurred_at >= ? AND occurred_at < ?", treasuryID, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumByTypes aggregates rows of the given types across all treasuries,
// counting occurred_at in [from, to)
func (r *GormTreasuryTransactionRepository) SumByTypes(ctx context.Context, types []treasury.TransactionType, from, to time.Time) (decimal.Decimal, error) {
	if len(types) == 0 {
		return decimal.Zero, nil
	}
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&treasury.Transaction{}).
		Where("type IN ? AND occurred_at >= ? AND occurred_at < ?", types, from, to).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// ListByPartner returns rows tagged against a partner, oldest first
func (r *GormTreasuryTransactionRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]treasury.Transaction, error) {
	var rows []treasury.Transaction
	if err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("occurred_at ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListByTreasury returns rows for a treasury windowed by the optional range
func (r *GormTreasuryTransactionRepository) ListByTreasury(ctx context.Context, treasuryID uuid.UUID, from, to *time.Time) ([]treasury.Transaction, error) {
	query := r.db.WithContext(ctx).Where("treasury_id = ?", treasuryID)
	if from != nil {
		query = query.Where("occurred_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("occurred_at <= ?", *to)
	}

	var rows []treasury.Transaction
	if err := query.Order("occurred_at ASC, created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ExistsBySource reports whether any row references the document
func (r *GormTreasuryTransactionRepository) ExistsBySource(ctx context.Context, source shared.DocumentRef) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&treasury.Transaction{}).
		Where("source_kind = ? AND source_id = ?", source.Kind, source.ID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Ensure GormTreasuryTransactionRepository implements TransactionRepository
var _ treasury.TransactionRepository = (*GormTreasuryTransactionRepository)(nil)
