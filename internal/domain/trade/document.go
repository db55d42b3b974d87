package trade

// DocumentStatus is the two-state document lifecycle. There is no reverse
// transition: a posted document is immutable.
type DocumentStatus string

const (
	DocumentStatusDraft  DocumentStatus = "DRAFT"
	DocumentStatusPosted DocumentStatus = "POSTED"
)

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is valid
func (s DocumentStatus) IsValid() bool {
	return s == DocumentStatusDraft || s == DocumentStatusPosted
}

// PaymentMethod selects how the counterparty settles an invoice
type PaymentMethod string

const (
	// PaymentMethodCash settles the full total at posting time
	PaymentMethodCash PaymentMethod = "CASH"
	// PaymentMethodCredit leaves an open balance on the partner; an optional
	// down payment may still reach the treasury at posting
	PaymentMethodCredit PaymentMethod = "CREDIT"
)

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// IsValid returns true if the payment method is valid
func (m PaymentMethod) IsValid() bool {
	return m == PaymentMethodCash || m == PaymentMethodCredit
}

// RefundMode selects how a return compensates the counterparty
type RefundMode string

const (
	// RefundModeCash pays the refund out of a treasury
	RefundModeCash RefundMode = "CASH"
	// RefundModeCredit adjusts the partner's open balance only
	RefundModeCredit RefundMode = "CREDIT"
)

// String returns the string representation of RefundMode
func (m RefundMode) String() string {
	return string(m)
}

// IsValid returns true if the refund mode is valid
func (m RefundMode) IsValid() bool {
	return m == RefundModeCash || m == RefundModeCredit
}
