package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// InvoiceKind distinguishes purchase invoices from sales invoices
type InvoiceKind string

const (
	InvoiceKindPurchase InvoiceKind = "PURCHASE"
	InvoiceKindSales    InvoiceKind = "SALES"
)

// String returns the string representation of InvoiceKind
func (k InvoiceKind) String() string {
	return string(k)
}

// IsValid returns true if the invoice kind is valid
func (k InvoiceKind) IsValid() bool {
	return k == InvoiceKindPurchase || k == InvoiceKindSales
}

// DocumentKind maps the invoice kind to its ledger reference kind
func (k InvoiceKind) DocumentKind() shared.DocumentKind {
	if k == InvoiceKindPurchase {
		return shared.DocumentKindPurchaseInvoice
	}
	return shared.DocumentKindSalesInvoice
}

// InvoiceLine is a child entity of Invoice. Quantity is in the entered unit;
// the posting workflow converts to base units against the product's factor.
type InvoiceLine struct {
	shared.BaseEntity
	InvoiceID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID        `gorm:"type:uuid;not null"`
	Unit            catalog.UnitKind `gorm:"type:varchar(10);not null"`
	Quantity        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UnitPrice       decimal.Decimal  `gorm:"type:decimal(18,4);not null"` // per entered unit
	LineTotal       decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	NewSellingPrice *decimal.Decimal `gorm:"type:decimal(18,4)"` // purchase lines may override the product's selling price
}

// TableName returns the table name for GORM
func (InvoiceLine) TableName() string {
	return "invoice_lines"
}

// Invoice is the aggregate root for purchase and sales invoices.
// Mutable while DRAFT; every field is frozen once POSTED.
type Invoice struct {
	shared.BaseAggregateRoot
	Number        string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Kind          InvoiceKind     `gorm:"type:varchar(20);not null;index"`
	Status        DocumentStatus  `gorm:"type:varchar(20);not null;index"`
	PartnerID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	WarehouseID   uuid.UUID       `gorm:"type:uuid;not null"`
	Lines         []InvoiceLine   `gorm:"foreignKey:InvoiceID;references:ID"`
	Discount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PaymentMethod PaymentMethod   `gorm:"type:varchar(10);not null"`
	PaidAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TreasuryID    *uuid.UUID      `gorm:"type:uuid"`
	// SettledAmount accumulates amount + settlement discount of payments
	// applied after posting
	SettledAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	// Commission (sales invoices)
	CommissionRate   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // percent
	CommissionAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	CommissionPaid   bool            `gorm:"not null;default:false"`

	// Installment plan request (generated after posting)
	InstallmentMonths       int             `gorm:"not null;default:0"`
	InstallmentInterestRate decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // percent

	PostedAt *time.Time `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (Invoice) TableName() string {
	return "invoices"
}

// NewInvoice creates a draft invoice
func NewInvoice(kind InvoiceKind, number string, partnerID, warehouseID uuid.UUID) (*Invoice, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_INVOICE_KIND", "Invalid invoice kind")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if partnerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTNER", "Partner ID cannot be empty")
	}
	if warehouseID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_WAREHOUSE", "Warehouse ID cannot be empty")
	}

	return &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Kind:              kind,
		Status:            DocumentStatusDraft,
		PartnerID:         partnerID,
		WarehouseID:       warehouseID,
		Lines:             make([]InvoiceLine, 0),
		Discount:          decimal.Zero,
		Total:             decimal.Zero,
		PaymentMethod:     PaymentMethodCredit,
		PaidAmount:        decimal.Zero,
		SettledAmount:     decimal.Zero,
	}, nil
}

func (i *Invoice) ensureDraft() error {
	if i.Status != DocumentStatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Posted invoices are immutable")
	}
	return nil
}

// IsPosted reports whether the invoice has been posted
func (i *Invoice) IsPosted() bool {
	return i.Status == DocumentStatusPosted
}

// AddLine appends a line and recomputes the total. Draft only.
func (i *Invoice) AddLine(productID uuid.UUID, unit catalog.UnitKind, quantity, unitPrice decimal.Decimal) (*InvoiceLine, error) {
	if err := i.ensureDraft(); err != nil {
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

	line := InvoiceLine{
		BaseEntity: shared.NewBaseEntity(),
		InvoiceID:  i.ID,
		ProductID:  productID,
		Unit:       unit,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		LineTotal:  quantity.Mul(unitPrice).Round(4),
	}
	i.Lines = append(i.Lines, line)
	i.recalcTotal()
	return &i.Lines[len(i.Lines)-1], nil
}

// SetLineSellingPrice records a selling-price override on a purchase line
func (i *Invoice) SetLineSellingPrice(lineID uuid.UUID, price decimal.Decimal) error {
	if err := i.ensureDraft(); err != nil {
		return err
	}
	if i.Kind != InvoiceKindPurchase {
		return shared.NewDomainError("INVALID_STATE", "Selling-price overrides apply to purchase invoices only")
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	for idx := range i.Lines {
		if i.Lines[idx].ID == lineID {
			p := price.Round(4)
			i.Lines[idx].NewSellingPrice = &p
			return nil
		}
	}
	return shared.ErrNotFound
}

// ApplyDiscount sets a whole-invoice discount and recomputes the total. Draft only.
func (i *Invoice) ApplyDiscount(discount decimal.Decimal) error {
	if err := i.ensureDraft(); err != nil {
		return err
	}
	if discount.IsNegative() {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot be negative")
	}
	if discount.GreaterThan(i.linesTotal()) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount cannot exceed the lines total")
	}
	i.Discount = discount
	i.recalcTotal()
	return nil
}

// SetPaymentTerms configures how the invoice settles. Draft only. The paid
// amount is validated against the final total at posting time.
func (i *Invoice) SetPaymentTerms(method PaymentMethod, paidAmount decimal.Decimal, treasuryID *uuid.UUID) error {
	if err := i.ensureDraft(); err != nil {
		return err
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_PAYMENT_METHOD", "Invalid payment method")
	}
	if paidAmount.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Paid amount cannot be negative")
	}
	i.PaymentMethod = method
	i.PaidAmount = paidAmount
	i.TreasuryID = treasuryID
	return nil
}

// SetCommissionRate sets the commission percentage. Draft only, sales only.
func (i *Invoice) SetCommissionRate(rate decimal.Decimal) error {
	if err := i.ensureDraft(); err != nil {
		return err
	}
	if i.Kind != InvoiceKindSales {
		return shared.NewDomainError("INVALID_STATE", "Commission applies to sales invoices only")
	}
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewDomainError("INVALID_RATE", "Commission rate must be between 0 and 100")
	}
	i.CommissionRate = rate
	return nil
}

// RequestInstallments asks for an amortization plan to be generated at posting
func (i *Invoice) RequestInstallments(months int, interestRate decimal.Decimal) error {
	if err := i.ensureDraft(); err != nil {
		return err
	}
	if months <= 0 {
		return shared.NewDomainError("INVALID_INPUT", "Installment months must be positive")
	}
	if interestRate.IsNegative() {
		return shared.NewDomainError("INVALID_RATE", "Interest rate cannot be negative")
	}
	i.InstallmentMonths = months
	i.InstallmentInterestRate = interestRate
	return nil
}

// CashAmount returns the portion of the total that reaches the treasury at posting
func (i *Invoice) CashAmount() decimal.Decimal {
	if i.PaymentMethod == PaymentMethodCash {
		return i.Total
	}
	return i.PaidAmount
}

// OpenBalance returns the portion left on the partner after posting cash
func (i *Invoice) OpenBalance() decimal.Decimal {
	return i.Total.Sub(i.CashAmount())
}

// RemainingBalance returns the open balance still unsettled by payments
func (i *Invoice) RemainingBalance() decimal.Decimal {
	return i.OpenBalance().Sub(i.SettledAmount)
}

// MarkPosted flips the invoice to POSTED. Fatal when not draft, empty, or when
// the paid amount exceeds the total. Commission is fixed here from the rate.
func (i *Invoice) MarkPosted() error {
	if err := i.ensureDraft(); err != nil {
		return err
	}
	if len(i.Lines) == 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot post an invoice without lines")
	}
	if i.CashAmount().GreaterThan(i.Total) {
		return shared.NewDomainError("INVALID_AMOUNT", "Paid amount cannot exceed the invoice total")
	}
	if i.CashAmount().IsPositive() && i.TreasuryID == nil {
		return shared.NewDomainError("INVALID_INPUT", "A treasury is required when cash is collected at posting")
	}

	i.CommissionAmount = i.Total.Mul(i.CommissionRate).Div(decimal.NewFromInt(100)).Round(4)
	now := time.Now()
	i.Status = DocumentStatusPosted
	i.PostedAt = &now
	i.UpdatedAt = now
	i.IncrementVersion()
	i.AddDomainEvent(NewInvoicePostedEvent(i))
	return nil
}

// ApplySettlement records a payment's debt reduction (amount + settlement
// discount). Posted only; fatal when it exceeds the remaining balance.
func (i *Invoice) ApplySettlement(value decimal.Decimal) error {
	if !i.IsPosted() {
		return shared.NewDomainError("INVALID_STATE", "Payments apply to posted invoices only")
	}
	if value.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Settlement value must be positive")
	}
	if value.GreaterThan(i.RemainingBalance()) {
		return shared.NewDomainError("INVALID_AMOUNT", "Cannot pay more than the remaining balance")
	}
	i.SettledAmount = i.SettledAmount.Add(value)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// InflateForInstallments grows the total and open balance by an interest
// surcharge before the amortization split
func (i *Invoice) InflateForInstallments(surcharge decimal.Decimal) error {
	if !i.IsPosted() {
		return shared.NewDomainError("INVALID_STATE", "Installment plans apply to posted invoices only")
	}
	if surcharge.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Surcharge cannot be negative")
	}
	i.Total = i.Total.Add(surcharge)
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// ReduceCommission subtracts a proportional reversal, flooring at zero and
// clearing the paid flag when nothing remains
func (i *Invoice) ReduceCommission(reversal decimal.Decimal) {
	remaining := i.CommissionAmount.Sub(reversal)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	i.CommissionAmount = remaining
	if remaining.LessThan(decimal.NewFromFloat(0.01)) {
		i.CommissionPaid = false
	}
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
}

// MarkCommissionPaid flags the commission as paid out
func (i *Invoice) MarkCommissionPaid() error {
	if !i.IsPosted() {
		return shared.NewDomainError("INVALID_STATE", "Commission applies to posted invoices only")
	}
	if i.CommissionPaid {
		return shared.ErrAlreadyProcessed
	}
	if !i.CommissionAmount.IsPositive() {
		return shared.NewDomainError("INVALID_STATE", "No commission due on this invoice")
	}
	i.CommissionPaid = true
	i.UpdatedAt = time.Now()
	i.IncrementVersion()
	return nil
}

// LineQuantity returns the entered quantity of a product summed across lines
func (i *Invoice) LineQuantity(productID uuid.UUID) decimal.Decimal {
	total := decimal.Zero
	for idx := range i.Lines {
		if i.Lines[idx].ProductID == productID {
			total = total.Add(i.Lines[idx].Quantity)
		}
	}
	return total
}

func (i *Invoice) linesTotal() decimal.Decimal {
	total := decimal.Zero
	for idx := range i.Lines {
		total = total.Add(i.Lines[idx].LineTotal)
	}
	return total
}

func (i *Invoice) recalcTotal() {
	i.Total = i.linesTotal().Sub(i.Discount).Round(4)
	i.UpdatedAt = time.Now()
}

// Ref returns the typed ledger reference for this invoice
func (i *Invoice) Ref() shared.DocumentRef {
	return shared.DocumentRef{Kind: i.Kind.DocumentKind(), ID: i.ID}
}
