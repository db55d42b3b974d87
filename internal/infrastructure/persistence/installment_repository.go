package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/finance"
)

// GormInstallmentRepository implements InstallmentRepository using GORM
type GormInstallmentRepository struct {
	db *gorm.DB
}

// NewGormInstallmentRepository creates a new GormInstallmentRepository
func NewGormInstallmentRepository(db *gorm.DB) *GormInstallmentRepository {
	return &GormInstallmentRepository{db: db}
}

// ExistsByInvoice guards against generating a schedule twice
func (r *GormInstallmentRepository) ExistsByInvoice(ctx context.Context, invoiceID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&finance.Installment{}).
		Where("invoice_id = ?", invoiceID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindOpenByInvoiceForUpdate locks the invoice's unsettled installments
// ordered by due date
func (r *GormInstallmentRepository) FindOpenByInvoiceForUpdate(ctx context.Context, invoiceID uuid.UUID) ([]finance.Installment, error) {
	var installments []finance.Installment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("invoice_id = ? AND status <> ?", invoiceID, finance.InstallmentStatusPaid).
		Order("sequence ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// ListByInvoice returns all installments of an invoice in schedule order
func (r *GormInstallmentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]finance.Installment, error) {
	var installments []finance.Installment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("sequence ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// ListDueBefore returns pending installments whose due date has passed
func (r *GormInstallmentRepository) ListDueBefore(ctx context.Context, asOf time.Time) ([]finance.Installment, error) {
	var installments []finance.Installment
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date < ?", finance.InstallmentStatusPending, asOf).
		Order("due_date ASC").
		Find(&installments).Error
	if err != nil {
		return nil, err
	}
	return installments, nil
}

// SaveAll persists a batch of installments
func (r *GormInstallmentRepository) SaveAll(ctx context.Context, installments []finance.Installment) error {
	if len(installments) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Save(&installments).Error
}

// Save persists a single installment
func (r *GormInstallmentRepository) Save(ctx context.Context, installment *finance.Installment) error {
	return r.db.WithContext(ctx).Save(installment).Error
}

// Ensure GormInstallmentRepository implements InstallmentRepository
var _ finance.InstallmentRepository = (*GormInstallmentRepository)(nil)
