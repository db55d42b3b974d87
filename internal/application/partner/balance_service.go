package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// BalanceRepositories is the repository subset the balance derivation reads.
// The posting transaction scope satisfies it, so the derivation can run both
// inside a posting transaction and standalone.
type BalanceRepositories interface {
	PartnerRepo() partner.PartnerRepository
	InvoiceRepo() trade.InvoiceRepository
	ReturnRepo() trade.ReturnRepository
	PaymentRepo() finance.PaymentRepository
	TreasuryTxRepo() treasury.TransactionRepository
}

// invoiceSign maps an invoice kind to its balance direction.
// Positive balance = partner owes the company.
func invoiceSign(kind trade.InvoiceKind) decimal.Decimal {
	if kind == trade.InvoiceKindSales {
		return decimal.NewFromInt(1)
	}
	return decimal.NewFromInt(-1)
}

// DeriveBalance recomputes a partner's balance from source rows and persists
// it. It is a pure query plus an idempotent write: running it twice with no
// intervening ledger writes yields the same value.
//
// Inputs, in order:
//   - posted invoices contribute their open balance (total minus the cash
//     collected at posting), signed by kind;
//   - posted credit-mode returns reduce that debt; cash-mode returns do not,
//     since cash leaving the register does not forgive credit debt;
//   - payments reduce debt by amount plus settlement discount;
//   - manual partner-tagged treasury rows (advances) not generated by any
//     document posting.
func DeriveBalance(ctx context.Context, repos BalanceRepositories, partnerID uuid.UUID) (decimal.Decimal, error) {
	p, err := repos.PartnerRepo().FindByID(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero

	invoices, err := repos.InvoiceRepo().ListPostedByPartner(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}
	kindByInvoice := make(map[uuid.UUID]trade.InvoiceKind, len(invoices))
	for idx := range invoices {
		inv := &invoices[idx]
		kindByInvoice[inv.ID] = inv.Kind
		balance = balance.Add(invoiceSign(inv.Kind).Mul(inv.OpenBalance()))
	}

	returns, err := repos.ReturnRepo().ListPostedByPartner(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}
	for idx := range returns {
		ret := &returns[idx]
		if ret.Mode != trade.RefundModeCredit {
			continue
		}
		balance = balance.Sub(invoiceSign(ret.Kind.InvoiceKind()).Mul(ret.Total))
	}

	payments, err := repos.PaymentRepo().ListByPartner(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}
	for idx := range payments {
		pay := &payments[idx]
		sign := invoiceSign(trade.InvoiceKindSales)
		if kind, ok := kindByInvoice[pay.InvoiceID]; ok {
			sign = invoiceSign(kind)
		}
		balance = balance.Sub(sign.Mul(pay.SettlementValue()))
	}

	rows, err := repos.TreasuryTxRepo().ListByPartner(ctx, partnerID)
	if err != nil {
		return decimal.Zero, err
	}
	for idx := range rows {
		row := &rows[idx]
		if !isManualAdvance(row) {
			continue
		}
		// cash in from the partner reduces their debt; cash out increases it
		balance = balance.Sub(row.Amount)
	}

	p.SetBalance(balance)
	if err := repos.PartnerRepo().Save(ctx, p); err != nil {
		return decimal.Zero, err
	}
	return p.CurrentBalance, nil
}

// isManualAdvance selects partner-tagged rows recorded directly against the
// treasury (advance collections/payments). Rows written by document postings
// carry a document source and are already counted through their documents.
func isManualAdvance(row *treasury.Transaction) bool {
	if !row.Source.IsZero() && row.Source.Kind != shared.DocumentKindManual {
		return false
	}
	switch row.Type {
	case treasury.TransactionTypeCollection, treasury.TransactionTypePayment, treasury.TransactionTypeRefund:
		return true
	}
	return false
}
