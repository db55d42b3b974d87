package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
)

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by its ID
func (r *GormInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	var invoice trade.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&invoice, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &invoice, nil
}

// FindForUpdate loads the invoice with lines under a FOR UPDATE lock
func (r *GormInvoiceRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.Invoice, error) {
	var invoice trade.Invoice
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&invoice, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// lines are loaded separately; FOR UPDATE cannot span the preload join
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", id).
		Order("created_at ASC").
		Find(&invoice.Lines).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

// FindAll finds all invoices matching the filter
func (r *GormInvoiceRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Invoice, error) {
	var invoices []trade.Invoice
	query := r.db.WithContext(ctx).Model(&trade.Invoice{}).Preload("Lines")

	if filter.Search != "" {
		query = query.Where("number ILIKE ?", "%"+filter.Search+"%")
	}
	if kind, ok := filter.Filters["kind"]; ok {
		query = query.Where("kind = ?", kind)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if partnerID, ok := filter.Filters["partner_id"]; ok {
		query = query.Where("partner_id = ?", partnerID)
	}

	orderBy := ValidateSortField(filter.OrderBy, InvoiceSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// ListPostedByPartner returns the partner's posted invoices, oldest first
func (r *GormInvoiceRepository) ListPostedByPartner(ctx context.Context, partnerID uuid.UUID) ([]trade.Invoice, error) {
	var invoices []trade.Invoice
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("partner_id = ? AND status = ?", partnerID, trade.DocumentStatusPosted).
		Order("posted_at ASC").
		Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

// Save creates or updates an invoice with its lines
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *trade.Invoice) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(invoice).Error
}

// Delete removes an invoice and its lines
func (r *GormInvoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.InvoiceLine{}, "invoice_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.Invoice{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// NextNumber issues the next document number for the kind.
// Format: PI-00001 / SI-00001.
func (r *GormInvoiceRepository) NextNumber(ctx context.Context, kind trade.InvoiceKind) (string, error) {
	prefix := "SI"
	if kind == trade.InvoiceKindPurchase {
		prefix = "PI"
	}
	return nextDocumentNumber(ctx, r.db, &trade.Invoice{}, prefix)
}

// SumPostedTotals aggregates posted invoice totals for the kind, counting
// posted_at in [from, to)
func (r *GormInvoiceRepository) SumPostedTotals(ctx context.Context, kind trade.InvoiceKind, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&trade.Invoice{}).
		Where("kind = ? AND status = ? AND posted_at >= ? AND posted_at < ?",
			kind, trade.DocumentStatusPosted, from, to).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// nextDocumentNumber issues the next sequential number for a numbered document
// table. It reads the highest existing number under the prefix; callers run it
// inside the posting transaction so concurrent drafts cannot collide.
func nextDocumentNumber(ctx context.Context, db *gorm.DB, model interface{}, prefix string) (string, error) {
	var numbers []string
	err := db.WithContext(ctx).
		Model(model).
		Where("number LIKE ?", prefix+"-%").
		Order("number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}

	next := 1
	if len(numbers) > 0 {
		last := numbers[0]
		parts := strings.Split(last, "-")
		if n, parseErr := strconv.Atoi(parts[len(parts)-1]); parseErr == nil {
			next = n + 1
		}
	}
	return fmt.Sprintf("%s-%05d", prefix, next), nil
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ trade.InvoiceRepository = (*GormInvoiceRepository)(nil)
