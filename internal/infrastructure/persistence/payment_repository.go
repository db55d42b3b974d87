package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by its ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*finance.InvoicePayment, error) {
	var payment finance.InvoicePayment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// ListByInvoice returns the payments against an invoice, oldest first
func (r *GormPaymentRepository) ListByInvoice(ctx context.Context, invoiceID uuid.UUID) ([]finance.InvoicePayment, error) {
	var payments []finance.InvoicePayment
	err := r.db.WithContext(ctx).
		Where("invoice_id = ?", invoiceID).
		Order("received_at ASC, created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// ListByPartner returns the payments recorded for a partner, oldest first
func (r *GormPaymentRepository) ListByPartner(ctx context.Context, partnerID uuid.UUID) ([]finance.InvoicePayment, error) {
	var payments []finance.InvoicePayment
	err := r.db.WithContext(ctx).
		Where("partner_id = ?", partnerID).
		Order("received_at ASC, created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// SumSettledByInvoice aggregates amount plus discount across payments
func (r *GormPaymentRepository) SumSettledByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&finance.InvoicePayment{}).
		Where("invoice_id = ?", invoiceID).
		Select("COALESCE(SUM(amount + discount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumSettledByPartner aggregates amount plus discount across a partner's payments
func (r *GormPaymentRepository) SumSettledByPartner(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&finance.InvoicePayment{}).
		Where("partner_id = ?", partnerID).
		Select("COALESCE(SUM(amount + discount), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *finance.InvoicePayment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
