package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	partnerapp "github.com/tradecore/backoffice/internal/application/partner"
	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// InstallmentService generates amortization schedules and applies payments
// to them oldest-first.
type InstallmentService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewInstallmentService creates a new InstallmentService
func NewInstallmentService(scope TransactionScope, logger *zap.Logger) *InstallmentService {
	return &InstallmentService{scope: scope, logger: logger}
}

// GenerateScheduleForInvoice builds and persists the amortization schedule a
// posted invoice requested. Guarded against double generation; an optional
// interest rate inflates the invoice total and open balance before division.
// Runs inside the caller's transaction.
func GenerateScheduleForInvoice(ctx context.Context, repos Repositories, inv *trade.Invoice, firstDue time.Time) ([]finance.Installment, error) {
	if inv.InstallmentMonths <= 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invoice does not request an installment plan")
	}
	if !inv.IsPosted() {
		return nil, shared.NewDomainError("INVALID_STATE", "Installment schedules apply to posted invoices only")
	}
	exists, err := repos.InstallmentRepo().ExistsByInvoice(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.ErrAlreadyProcessed
	}

	open := inv.RemainingBalance()
	if !open.IsPositive() {
		return nil, shared.NewDomainError("INVALID_STATE", "Invoice has no open balance to schedule")
	}

	if inv.InstallmentInterestRate.IsPositive() {
		surcharge := open.Mul(inv.InstallmentInterestRate).Div(decimal.NewFromInt(100)).Round(4)
		if err := inv.InflateForInstallments(surcharge); err != nil {
			return nil, err
		}
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return nil, err
		}
		open = open.Add(surcharge)
	}

	schedule, err := finance.BuildSchedule(inv.ID, open, inv.InstallmentMonths, firstDue)
	if err != nil {
		return nil, err
	}
	if err := repos.InstallmentRepo().SaveAll(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// GenerateSchedule generates the schedule for an already posted invoice in
// its own transaction, due dates starting one month out.
func (s *InstallmentService) GenerateSchedule(ctx context.Context, invoiceID uuid.UUID) ([]finance.Installment, error) {
	var schedule []finance.Installment
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.InvoiceRepo().FindForUpdate(ctx, invoiceID)
		if err != nil {
			return err
		}
		schedule, err = GenerateScheduleForInvoice(ctx, repos, inv, time.Now().AddDate(0, 1, 0))
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("installment schedule generated",
		zap.String("invoice_id", invoiceID.String()),
		zap.Int("installments", len(schedule)))
	return schedule, nil
}

// ApplyPaymentRequest carries a payment against an invoice's open balance.
// Discount is debt forgiven on top of the cash received.
type ApplyPaymentRequest struct {
	InvoiceID  uuid.UUID
	TreasuryID uuid.UUID
	Amount     decimal.Decimal
	Discount   decimal.Decimal
	Note       string
}

// ApplyPayment settles part of a posted invoice. In one transaction it
// validates the settlement against the remaining balance, writes the treasury
// row, walks the open installments oldest-first under row locks, and rederives
// the partner balance. Value beyond the open installments flags the payment
// as overpaid without failing it.
func (s *InstallmentService) ApplyPayment(ctx context.Context, req ApplyPaymentRequest) (*finance.InvoicePayment, error) {
	var payment *finance.InvoicePayment
	var overpaidBy decimal.Decimal

	err := s.scope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.InvoiceRepo().FindForUpdate(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		payment, err = finance.NewInvoicePayment(inv.ID, inv.PartnerID, req.TreasuryID, req.Amount, req.Discount, time.Now())
		if err != nil {
			return err
		}
		payment.Note = req.Note

		// fatal when amount + discount exceeds the remaining balance
		if err := inv.ApplySettlement(payment.SettlementValue()); err != nil {
			return err
		}

		row, err := paymentLedgerRow(inv, payment)
		if err != nil {
			return err
		}
		if err := treasury.AppendWithBalanceGuard(ctx, repos.TreasuryRepo(), repos.TreasuryTxRepo(), row); err != nil {
			return err
		}
		payment.LinkTreasuryTransaction(row.ID)

		overpaidBy, err = applyToInstallments(ctx, repos, inv.ID, payment.SettlementValue())
		if err != nil {
			return err
		}
		if overpaidBy.IsPositive() {
			payment.FlagOverpayment()
		}

		if err := repos.PaymentRepo().Save(ctx, payment); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Save(ctx, inv); err != nil {
			return err
		}

		_, err = partnerapp.DeriveBalance(ctx, repos, inv.PartnerID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if overpaidBy.IsPositive() {
		s.logger.Warn("payment exceeds open installment schedule",
			zap.String("event", finance.EventTypePaymentOverpaid),
			zap.String("invoice_id", req.InvoiceID.String()),
			zap.String("payment_id", payment.ID.String()),
			zap.String("excess", overpaidBy.String()))
	}
	return payment, nil
}

// paymentLedgerRow builds the treasury row for a payment: collections flow in
// on sales invoices, payments flow out on purchase invoices.
func paymentLedgerRow(inv *trade.Invoice, payment *finance.InvoicePayment) (*treasury.Transaction, error) {
	txType := treasury.TransactionTypeCollection
	amount := payment.Amount
	if inv.Kind == trade.InvoiceKindPurchase {
		txType = treasury.TransactionTypePayment
		amount = payment.Amount.Neg()
	}
	row, err := treasury.NewTransaction(payment.TreasuryID, txType, amount, "invoice settlement "+inv.Number)
	if err != nil {
		return nil, err
	}
	return row.WithPartner(inv.PartnerID).WithSource(payment.Ref()), nil
}

// applyToInstallments walks the locked open installments oldest-first and
// returns the value left over after every slice is settled. An invoice
// without a schedule absorbs everything with no leftover.
func applyToInstallments(ctx context.Context, repos Repositories, invoiceID uuid.UUID, value decimal.Decimal) (decimal.Decimal, error) {
	open, err := repos.InstallmentRepo().FindOpenByInvoiceForUpdate(ctx, invoiceID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(open) == 0 {
		return decimal.Zero, nil
	}

	remaining := value
	for idx := range open {
		if !remaining.IsPositive() {
			break
		}
		consumed, err := open[idx].Apply(remaining)
		if err != nil {
			return decimal.Zero, err
		}
		remaining = remaining.Sub(consumed)
	}
	if err := repos.InstallmentRepo().SaveAll(ctx, open); err != nil {
		return decimal.Zero, err
	}
	return remaining, nil
}

// MarkOverdue flips pending installments past their due date to OVERDUE and
// returns how many changed
func (s *InstallmentService) MarkOverdue(ctx context.Context, asOf time.Time) (int, error) {
	flipped := 0
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		due, err := repos.InstallmentRepo().ListDueBefore(ctx, asOf)
		if err != nil {
			return err
		}
		for idx := range due {
			if due[idx].MarkOverdue(asOf) {
				flipped++
				if err := repos.InstallmentRepo().Save(ctx, &due[idx]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return flipped, nil
}

// ListSchedule returns an invoice's installments in sequence order
func (s *InstallmentService) ListSchedule(ctx context.Context, invoiceID uuid.UUID) ([]finance.Installment, error) {
	var schedule []finance.Installment
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		schedule, err = repos.InstallmentRepo().ListByInvoice(ctx, invoiceID)
		return err
	})
	return schedule, err
}
