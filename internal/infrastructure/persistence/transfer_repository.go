package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
)

// GormTransferRepository implements TransferRepository using GORM
type GormTransferRepository struct {
	db *gorm.DB
}

// NewGormTransferRepository creates a new GormTransferRepository
func NewGormTransferRepository(db *gorm.DB) *GormTransferRepository {
	return &GormTransferRepository{db: db}
}

// FindByID finds a warehouse transfer by its ID
func (r *GormTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*trade.WarehouseTransfer, error) {
	var tr trade.WarehouseTransfer
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&tr, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &tr, nil
}

// FindForUpdate loads the transfer with lines under a FOR UPDATE lock
func (r *GormTransferRepository) FindForUpdate(ctx context.Context, id uuid.UUID) (*trade.WarehouseTransfer, error) {
	var tr trade.WarehouseTransfer
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&tr, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	// lines are loaded separately; FOR UPDATE cannot span the preload join
	if err := r.db.WithContext(ctx).
		Where("transfer_id = ?", id).
		Order("created_at ASC").
		Find(&tr.Lines).Error; err != nil {
		return nil, err
	}
	return &tr, nil
}

// Save creates or updates a warehouse transfer with its lines
func (r *GormTransferRepository) Save(ctx context.Context, transfer *trade.WarehouseTransfer) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Save(transfer).Error
}

// Delete removes a warehouse transfer and its lines
func (r *GormTransferRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&trade.TransferLine{}, "transfer_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&trade.WarehouseTransfer{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// NextNumber issues the next transfer number. Format: TRF-00001.
func (r *GormTransferRepository) NextNumber(ctx context.Context) (string, error) {
	return nextDocumentNumber(ctx, r.db, &trade.WarehouseTransfer{}, "TRF")
}

// Ensure GormTransferRepository implements TransferRepository
var _ trade.TransferRepository = (*GormTransferRepository)(nil)
