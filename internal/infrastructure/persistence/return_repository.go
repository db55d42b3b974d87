package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
)

// GormReturnRepository implements ReturnRepository using GORM
type GormReturnRepository struct {
	db *gorm.DB
}

// NewGormReturnRepository creates a new GormReturnRepository
func NewGormReturnRepository(db *gorm.DB) *GormReturnRepository {
	return &GormReturnRepository{db: db}
}

// FindByID finds a return by its ID
func (r *GormReturnRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.Return, error) {
	var ret trade.Return
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&ret, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &ret, nil
}

// FindForUpdate loads the return with lines under a FOR UPDATE lock
func (r *GormReturnRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.Return, error) {
	var ret trade.Return
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ret, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// lines are loaded separately; FOR UPDATE cannot span the preload join
	if err := r.db.WithContext(ctx).
		Where("return_id = ?", id).
		Order("created_at ASC").
		Find(&ret.Lines).Error; err != nil {
		return nil, err
	}
	return &ret, nil
}

// FindAll finds all returns matching the filter
func (r *GormReturnRepository) FindAll(ctx context.Context, filter shared.Filter) ([]trade.Return, error) {
	var returns []trade.Return
	query := r.db.WithContext(ctx).Model(&trade.Return{}).Preload("Lines")

	if filter.Search != "" {
		query = query.Where("number ILIKE ?", "%"+filter.Search+"%")
	}
	if kind, ok := filter.Filters["kind"]; ok {
		query = query.Where("kind = ?", kind)
	}
	if invoiceID, ok := filter.Filters["invoice_id"]; ok {
		query = query.Where("invoice_id = ?", invoiceID)
	}

	orderBy := ValidateSortField(filter.OrderBy, ReturnSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset((filter.Page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	if err := query.Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// ListPostedByPartner returns the partner's posted returns, oldest first
func (r *GormReturnRepository) ListPostedByPartner(ctx context.Context, partnerID uuid.UUID) ([]trade.Return, error) {
	var returns []trade.Return
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("partner_id = ? AND status = ?", partnerID, trade.DocumentStatusPosted).
		Order("posted_at ASC").
		Find(&returns).Error; err != nil {
		return nil, err
	}
	return returns, nil
}

// Save creates or updates a return with its lines
func (r *GormReturnRepository) Save(ctx context.Context, ret *trade.Return) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(ret).Error
}

// Delete removes a return and its lines
func (r *GormReturnRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.ReturnLine{}, "return_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.Return{}, "id = ?", id)
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
// Format: PR-00001 / SR-00001.
func (r *GormReturnRepository) NextNumber(ctx context.Context, kind trade.ReturnKind) (string, error) {
	prefix := "SR"
	if kind == trade.ReturnKindPurchase {
		prefix = "PR"
	}
	return nextDocumentNumber(ctx, r.db, &trade.Return{}, prefix)
}

// SumPostedLineQuantity aggregates already-returned entered quantities of a
// product against a source invoice
func (r *GormReturnRepository) SumPostedLineQuantity(ctx context.Context, invoiceID, productID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Table("return_lines").
		Joins("JOIN returns ON returns.id = return_lines.return_id").
		Where("returns.invoice_id = ? AND returns.status = ? AND return_lines.product_id = ?",
			invoiceID, trade.DocumentStatusPosted, productID).
		Select("COALESCE(SUM(return_lines.quantity), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumPostedTotalsByInvoice aggregates posted return totals against an invoice
func (r *GormReturnRepository) SumPostedTotalsByInvoice(ctx context.Context, invoiceID uuid.UUID) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&trade.Return{}).
		Where("invoice_id = ? AND status = ?", invoiceID, trade.DocumentStatusPosted).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// SumPostedTotals aggregates posted return totals for the kind, counting
// posted_at in [from, to)
func (r *GormReturnRepository) SumPostedTotals(ctx context.Context, kind trade.ReturnKind, from, to time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := r.db.WithContext(ctx).
		Model(&trade.Return{}).
		Where("kind = ? AND status = ? AND posted_at >= ? AND posted_at < ?",
			kind, trade.DocumentStatusPosted, from, to).
		Select("COALESCE(SUM(total), 0)").
		Scan(&sum).Error
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Ensure GormReturnRepository implements ReturnRepository
var _ trade.ReturnRepository = (*GormReturnRepository)(nil)
