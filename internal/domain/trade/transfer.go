package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// TransferLine is a child entity of WarehouseTransfer
type TransferLine struct {
	shared.BaseEntity
	TransferID uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID  uuid.UUID        `gorm:"type:uuid;not null"`
	Unit       catalog.UnitKind `gorm:"type:varchar(10);not null"`
	Quantity   decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (TransferLine) TableName() string {
	return "transfer_lines"
}

// WarehouseTransfer moves stock between two warehouses. Posting writes two
// movements per line: negative at the source, positive at the destination,
// both carrying the product's average cost.
type WarehouseTransfer struct {
	shared.BaseAggregateRoot
	Number          string         `gorm:"type:varchar(50);not null;uniqueIndex"`
	Status          DocumentStatus `gorm:"type:varchar(20);not null;index"`
	FromWarehouseID uuid.UUID      `gorm:"type:uuid;not null"`
	ToWarehouseID   uuid.UUID      `gorm:"type:uuid;not null"`
	Lines           []TransferLine `gorm:"foreignKey:TransferID;references:ID"`
	PostedAt        *time.Time     `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (WarehouseTransfer) TableName() string {
	return "warehouse_transfers"
}

// NewWarehouseTransfer creates a draft transfer
func NewWarehouseTransfer(number string, fromWarehouseID, toWarehouseID uuid.UUID) (*WarehouseTransfer, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Transfer number cannot be empty")
	}
	if fromWarehouseID == uuid.Nil || toWarehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Both warehouses are required")
	}
	if fromWarehouseID == toWarehouseID {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Source and destination warehouses must differ")
	}
	return &WarehouseTransfer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Status:            DocumentStatusDraft,
		FromWarehouseID:   fromWarehouseID,
		ToWarehouseID:     toWarehouseID,
		Lines:             make([]TransferLine, 0),
	}, nil
}

func (t *WarehouseTransfer) ensureDraft() error {
	if t.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Posted transfers are immutable")
	}
	return nil
}

// IsPosted reports whether the transfer has been posted
func (t *WarehouseTransfer) IsPosted() bool {
	return t.Status == DocumentStatusPosted
}

// AddLine appends a transfer line. Draft only.
func (t *WarehouseTransfer) AddLine(productID uuid.UUID, unit catalog.UnitKind, quantity decimal.Decimal) (*TransferLine, error) {
	if err := t.ensureDraft(); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
	}
	if !unit.IsValid() {
		return nil, shared.NewDomainError("INVALID_UNIT", "Invalid unit kind")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
	}

	line := TransferLine{
		BaseEntity: shared.NewBaseEntity(),
		TransferID: t.ID,
		ProductID:  productID,
		Unit:       unit,
		Quantity:   quantity,
	}
	t.Lines = append(t.Lines, line)
	t.UpdatedAt = time.Now()
	return &t.Lines[len(t.Lines)-1], nil
}

// MarkPosted flips the transfer to POSTED
func (t *WarehouseTransfer) MarkPosted() error {
	if err := t.ensureDraft(); err != nil {
		return err
	}
	if len(t.Lines) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot post a transfer without lines")
	}
	now := time.Now()
	t.Status = DocumentStatusPosted
	t.PostedAt = &now
	t.UpdatedAt = now
	t.IncrementVersion()
	return nil
}

// Ref returns the typed ledger reference for this transfer
func (t *WarehouseTransfer) Ref() shared.DocumentRef {
	return shared.DocumentRef{Kind: shared.DocumentKindTransfer, ID: t.ID}
}
