package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// ReturnKind distinguishes purchase returns from sales returns
type ReturnKind string

const (
	ReturnKindPurchase ReturnKind = "PURCHASE"
	ReturnKindSales    ReturnKind = "SALES"
)

// String returns the string representation of ReturnKind
func (k ReturnKind) String() string {
	return string(k)
}

// IsValid returns true if the return kind is valid
func (k ReturnKind) IsValid() bool {
	return k == ReturnKindPurchase || k == ReturnKindSales
}

// DocumentKind maps the return kind to its ledger reference kind
func (k ReturnKind) DocumentKind() shared.DocumentKind {
	if k == ReturnKindPurchase {
		return shared.DocumentKindPurchaseReturn
	}
	return shared.DocumentKindSalesReturn
}

// InvoiceKind returns the kind of invoice this return undoes
func (k ReturnKind) InvoiceKind() InvoiceKind {
	if k == ReturnKindPurchase {
		return InvoiceKindPurchase
	}
	return InvoiceKindSales
}

// ReturnLine is a child entity of Return
type ReturnLine struct {
	shared.BaseEntity
	ReturnID  uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID uuid.UUID        `gorm:"type:uuid;not null"`
	Unit      catalog.UnitKind `gorm:"type:varchar(10);not null"`
	Quantity  decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPrice decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	LineTotal decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (ReturnLine) TableName() string {
	return "return_lines"
}

// Return is the aggregate root for purchase and sales returns. Each return
// undoes part of a previously posted invoice; the posting workflow validates
// line quantities against what that invoice still holds.
type Return struct {
	shared.BaseAggregateRoot
	Number      string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Kind        ReturnKind      `gorm:"type:varchar(20);not null;index"`
	Status      DocumentStatus  `gorm:"type:varchar(20);not null;index"`
	InvoiceID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartnerID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID       `gorm:"type:uuid;not null"`
	Lines       []ReturnLine    `gorm:"foreignKey:ReturnID;references:ID"`
	Total       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Mode        RefundMode      `gorm:"type:varchar(10);not null"`
	TreasuryID  *uuid.UUID      `gorm:"type:uuid"`
	PostedAt    *time.Time      `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (Return) TableName() string {
	return "returns"
}

// NewReturn creates a draft return against a posted invoice
func NewReturn(kind ReturnKind, number string, invoice *Invoice) (*Return, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_RETURN_KIND", "Invalid return kind")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Return number cannot be empty")
	}
	if invoice == nil {
		return nil, shared.ErrIntegrityViolation
	}
	if !invoice.IsPosted() {
		return nil, shared.NewDomainError("INVALID_STATE", "Returns can only reference posted invoices")
	}
	if invoice.Kind != kind.InvoiceKind() {
		return nil, shared.NewDomainError("INTEGRITY_VIOLATION", "Return kind does not match the source invoice kind")
	}

	return &Return{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Kind:              kind,
		Status:            DocumentStatusDraft,
		InvoiceID:         invoice.ID,
		PartnerID:         invoice.PartnerID,
		WarehouseID:       invoice.WarehouseID,
		Lines:             make([]ReturnLine, 0),
		Total:             decimal.Zero,
		Mode:              RefundModeCredit,
	}, nil
}

func (r *Return) ensureDraft() error {
	if r.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Posted returns are immutable")
	}
	return nil
}

// IsPosted reports whether the return has been posted
func (r *Return) IsPosted() bool {
	return r.Status == DocumentStatusPosted
}

// AddLine appends a line and recomputes the total. Draft only.
func (r *Return) AddLine(productID uuid.UUID, unit catalog.UnitKind, quantity, unitPrice decimal.Decimal) (*ReturnLine, error) {
	if err := r.ensureDraft(); err != nil {
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
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Unit price cannot be negative")
	}

	line := ReturnLine{
		BaseEntity: shared.NewBaseEntity(),
		ReturnID:   r.ID,
		ProductID:  productID,
		Unit:       unit,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		LineTotal:  quantity.Mul(unitPrice).Round(4),
	}
	r.Lines = append(r.Lines, line)
	r.recalcTotal()
	return &r.Lines[len(r.Lines)-1], nil
}

// SetRefundMode selects cash or credit compensation. Draft only.
func (r *Return) SetRefundMode(mode RefundMode, treasuryID *uuid.UUID) error {
	if err := r.ensureDraft(); err != nil {
		return err
	}
	if !mode.IsValid() {
		return shared.NewDomainError("INVALID_REFUND_MODE", "Invalid refund mode")
	}
	if mode == RefundModeCash && treasuryID == nil {
		return shared.NewDomainError("INVALID_INPUT", "A treasury is required for cash refunds")
	}
	r.Mode = mode
	r.TreasuryID = treasuryID
	return nil
}

// MarkPosted flips the return to POSTED
func (r *Return) MarkPosted() error {
	if err := r.ensureDraft(); err != nil {
		return err
	}
	if len(r.Lines) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot post a return without lines")
	}
	now := time.Now()
	r.Status = DocumentStatusPosted
	r.PostedAt = &now
	r.UpdatedAt = now
	r.IncrementVersion()
	r.AddDomainEvent(NewReturnPostedEvent(r))
	return nil
}

// LineQuantity returns the entered quantity of a product summed across lines
func (r *Return) LineQuantity(productID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for idx := range r.Lines {
		if r.Lines[idx].ProductID == productID {
			total = total.Add(r.Lines[idx].Quantity)
		}
	}
	return total
}

func (r *Return) recalcTotal() {
	total := decimal.Zero
	for idx := range r.Lines {
		total = total.Add(r.Lines[idx].LineTotal)
	}
	r.Total = total.Round(4)
	r.UpdatedAt = time.Now()
}

// Ref returns the typed ledger reference for this return
func (r *Return) Ref() shared.DocumentRef {
	return shared.DocumentRef{Kind: r.Kind.DocumentKind(), ID: r.ID}
}
