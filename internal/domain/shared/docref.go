package shared

import (
	"github.com/google/uuid"
)

// DocumentKind identifies the kind of source document a ledger row points at.
// The set is closed: every ledger-effecting document type appears here.
type DocumentKind string

const (
	DocumentKindPurchaseInvoice DocumentKind = "PURCHASE_INVOICE"
	DocumentKindSalesInvoice    DocumentKind = "SALES_INVOICE"
	DocumentKindPurchaseReturn  DocumentKind = "PURCHASE_RETURN"
	DocumentKindSalesReturn     DocumentKind = "SALES_RETURN"
	DocumentKindStockAdjustment DocumentKind = "STOCK_ADJUSTMENT"
	DocumentKindTransfer        DocumentKind = "WAREHOUSE_TRANSFER"
	DocumentKindInvoicePayment  DocumentKind = "INVOICE_PAYMENT"
	DocumentKindEquityPeriod    DocumentKind = "EQUITY_PERIOD"
	DocumentKindManual          DocumentKind = "MANUAL"
)

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// IsValid returns true if the document kind is valid
func (k DocumentKind) IsValid() bool {
	switch k {
	case DocumentKindPurchaseInvoice,
		DocumentKindSalesInvoice,
		DocumentKindPurchaseReturn,
		DocumentKindSalesReturn,
		DocumentKindStockAdjustment,
		DocumentKindTransfer,
		DocumentKindInvoicePayment,
		DocumentKindEquityPeriod,
		DocumentKindManual:
		return true
	}
	return false
}

// DocumentRef is a typed reference to a source document. It replaces the
// stringly-typed reference_type/reference_id pair with a discriminated pair
// over the closed DocumentKind set.
type DocumentRef struct {
	Kind DocumentKind `gorm:"column:source_kind;type:varchar(30)" json:"kind"`
	ID   uuid.UUID    `gorm:"column:source_id;type:uuid" json:"id"`
}

// NewDocumentRef creates a document reference
func NewDocumentRef(kind DocumentKind, id uuid.UUID) (DocumentRef, error) {
	if !kind.IsValid() {
		return DocumentRef{}, NewDomainError("INVALID_DOCUMENT_KIND", "Invalid document kind")
	}
	if id == uuid.Nil {
		return DocumentRef{}, NewDomainError("INVALID_DOCUMENT_ID", "Document ID cannot be empty")
	}
	return DocumentRef{Kind: kind, ID: id}, nil
}

// IsZero reports whether the reference is unset.
func (r DocumentRef) IsZero() bool {
	return r.Kind == "" && r.ID == uuid.Nil
}

// Equals returns true if both references point at the same document
func (r DocumentRef) Equals(other DocumentRef) bool {
	return r.Kind == other.Kind && r.ID == other.ID
}
