package trade

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/finance"
	"github.com/tradecore/backoffice/internal/domain/inventory"
	"github.com/tradecore/backoffice/internal/domain/partner"
	"github.com/tradecore/backoffice/internal/domain/shared"
	"github.com/tradecore/backoffice/internal/domain/trade"
	"github.com/tradecore/backoffice/internal/domain/treasury"
)

// TransactionScope provides transactional access to the document-side
// repositories
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories provides access to the repositories the document layer touches
// within one transaction
type Repositories interface {
	ProductRepo() catalog.ProductRepository
	PartnerRepo() partner.PartnerRepository
	WarehouseRepo() partner.WarehouseRepository
	MovementRepo() inventory.StockMovementRepository
	TreasuryTxRepo() treasury.TransactionRepository
	InvoiceRepo() trade.InvoiceRepository
	ReturnRepo() trade.ReturnRepository
	AdjustmentRepo() trade.AdjustmentRepository
	TransferRepo() trade.TransferRepository
	PaymentRepo() finance.PaymentRepository
}

// DocumentService manages the draft lifecycle of trade documents. Drafts are
// freely editable and deletable; posting them is the posting orchestrator's
// job, and posted documents are immutable here.
type DocumentService struct {
	scope  TransactionScope
	logger *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(scope TransactionScope, logger *zap.Logger) *DocumentService {
	return &DocumentService{scope: scope, logger: logger}
}

// CreateInvoice creates a draft purchase or sales invoice
func (s *DocumentService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (*InvoiceResponse, error) {
	var created *trade.Invoice
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		if _, err := repos.PartnerRepo().FindByID(ctx, req.PartnerID); err != nil {
			return err
		}
		if _, err := repos.WarehouseRepo().FindByID(ctx, req.WarehouseID); err != nil {
			return err
		}

		number, err := repos.InvoiceRepo().NextNumber(ctx, req.Kind)
		if err != nil {
			return err
		}
		inv, err := trade.NewInvoice(req.Kind, number, req.PartnerID, req.WarehouseID)
		if err != nil {
			return err
		}

		productIDs := make([]uuid.UUID, 0, len(req.Lines))
		for idx := range req.Lines {
			productIDs = append(productIDs, req.Lines[idx].ProductID)
		}
		products, err := repos.ProductRepo().FindByIDs(ctx, productIDs)
		if err != nil {
			return err
		}
		known := make(map[uuid.UUID]struct{}, len(products))
		for idx := range products {
			known[products[idx].ID] = struct{}{}
		}

		for idx := range req.Lines {
			in := req.Lines[idx]
			if _, ok := known[in.ProductID]; !ok {
				return shared.ErrIntegrityViolation
			}
			line, err := inv.AddLine(in.ProductID, in.Unit, in.Quantity, in.UnitPrice)
			if err != nil {
				return err
			}
			if in.NewSellingPrice != nil {
				if err := inv.SetLineSellingPrice(line.ID, *in.NewSellingPrice); err != nil {
					return err
				}
			}
		}

		if req.Discount != nil {
			if err := inv.ApplyDiscount(*req.Discount); err != nil {
				return err
			}
		}
		if err := inv.SetPaymentTerms(req.PaymentMethod, req.PaidAmount, req.TreasuryID); err != nil {
			return err
		}
		if req.CommissionRate != nil {
			if err := inv.SetCommissionRate(*req.CommissionRate); err != nil {
				return err
			}
		}
		if req.InstallmentMonths > 0 {
			if err := inv.RequestInstallments(req.InstallmentMonths, req.InstallmentInterestRate); err != nil {
				return err
			}
		}

		created = inv
		return repos.InvoiceRepo().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice drafted",
		zap.String("invoice_id", created.ID.String()),
		zap.String("number", created.Number),
		zap.String("kind", created.Kind.String()))
	return ToInvoiceResponse(created), nil
}

// GetInvoice returns an invoice by ID
func (s *DocumentService) GetInvoice(ctx context.Context, id uuid.UUID) (*InvoiceResponse, error) {
	var inv *trade.Invoice
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		inv, err = repos.InvoiceRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToInvoiceResponse(inv), nil
}

// ListInvoices returns invoices matching the filter
func (s *DocumentService) ListInvoices(ctx context.Context, filter shared.Filter) ([]InvoiceResponse, error) {
	var invoices []trade.Invoice
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		invoices, err = repos.InvoiceRepo().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	responses := make([]InvoiceResponse, 0, len(invoices))
	for idx := range invoices {
		responses = append(responses, *ToInvoiceResponse(&invoices[idx]))
	}
	return responses, nil
}

// DeleteInvoice removes a draft invoice. Posted invoices are immutable, and a
// draft referenced by ledger rows or payments cannot be removed.
func (s *DocumentService) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.InvoiceRepo().FindForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if inv.IsPosted() {
			return shared.NewDomainError("INVALID_STATE", "Posted invoices cannot be deleted")
		}
		if err := s.ensureUnreferenced(ctx, repos, inv.Ref()); err != nil {
			return err
		}
		payments, err := repos.PaymentRepo().ListByInvoice(ctx, id)
		if err != nil {
			return err
		}
		if len(payments) > 0 {
			return shared.ErrDocumentReferenced
		}
		return repos.InvoiceRepo().Delete(ctx, id)
	})
}

// CreateReturn creates a draft return against a posted source invoice
func (s *DocumentService) CreateReturn(ctx context.Context, req CreateReturnRequest) (*ReturnResponse, error) {
	var created *trade.Return
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		inv, err := repos.InvoiceRepo().FindByID(ctx, req.InvoiceID)
		if err != nil {
			return err
		}

		number, err := repos.ReturnRepo().NextNumber(ctx, req.Kind)
		if err != nil {
			return err
		}
		ret, err := trade.NewReturn(req.Kind, number, inv)
		if err != nil {
			return err
		}
		for idx := range req.Lines {
			in := req.Lines[idx]
			if _, err := ret.AddLine(in.ProductID, in.Unit, in.Quantity, in.UnitPrice); err != nil {
				return err
			}
		}
		if err := ret.SetRefundMode(req.Mode, req.TreasuryID); err != nil {
			return err
		}

		created = ret
		return repos.ReturnRepo().Save(ctx, ret)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("return drafted",
		zap.String("return_id", created.ID.String()),
		zap.String("number", created.Number),
		zap.String("invoice_id", created.InvoiceID.String()))
	return ToReturnResponse(created), nil
}

// GetReturn returns a return by ID
func (s *DocumentService) GetReturn(ctx context.Context, id uuid.UUID) (*ReturnResponse, error) {
	var ret *trade.Return
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		ret, err = repos.ReturnRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ToReturnResponse(ret), nil
}

// ListReturns returns returns matching the filter
func (s *DocumentService) ListReturns(ctx context.Context, filter shared.Filter) ([]ReturnResponse, error) {
	var returns []trade.Return
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		returns, err = repos.ReturnRepo().FindAll(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	responses := make([]ReturnResponse, 0, len(returns))
	for idx := range returns {
		responses = append(responses, *ToReturnResponse(&returns[idx]))
	}
	return responses, nil
}

// DeleteReturn removes a draft return
func (s *DocumentService) DeleteReturn(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos Repositories) error {
		ret, err := repos.ReturnRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if ret.IsPosted() {
			return shared.NewDomainError("INVALID_STATE", "Posted returns cannot be deleted")
		}
		if err := s.ensureUnreferenced(ctx, repos, ret.Ref()); err != nil {
			return err
		}
		return repos.ReturnRepo().Delete(ctx, id)
	})
}

// CreateAdjustment creates a draft stock adjustment
func (s *DocumentService) CreateAdjustment(ctx context.Context, req CreateAdjustmentRequest) (*trade.StockAdjustment, error) {
	var created *trade.StockAdjustment
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		if _, err := repos.WarehouseRepo().FindByID(ctx, req.WarehouseID); err != nil {
			return err
		}
		number, err := repos.AdjustmentRepo().NextNumber(ctx)
		if err != nil {
			return err
		}
		adj, err := trade.NewStockAdjustment(number, req.WarehouseID, req.Reason)
		if err != nil {
			return err
		}
		for idx := range req.Lines {
			in := req.Lines[idx]
			if _, err := adj.AddLine(in.ProductID, in.Direction, in.Unit, in.Quantity); err != nil {
				return err
			}
		}
		created = adj
		return repos.AdjustmentRepo().Save(ctx, adj)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetAdjustment returns a stock adjustment by ID
func (s *DocumentService) GetAdjustment(ctx context.Context, id uuid.UUID) (*trade.StockAdjustment, error) {
	var adj *trade.StockAdjustment
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		adj, err = repos.AdjustmentRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// DeleteAdjustment removes a draft stock adjustment
func (s *DocumentService) DeleteAdjustment(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos Repositories) error {
		adj, err := repos.AdjustmentRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if adj.IsPosted() {
			return shared.NewDomainError("INVALID_STATE", "Posted adjustments cannot be deleted")
		}
		if err := s.ensureUnreferenced(ctx, repos, adj.Ref()); err != nil {
			return err
		}
		return repos.AdjustmentRepo().Delete(ctx, id)
	})
}

// CreateTransfer creates a draft warehouse transfer
func (s *DocumentService) CreateTransfer(ctx context.Context, req CreateTransferRequest) (*trade.WarehouseTransfer, error) {
	var created *trade.WarehouseTransfer
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		if _, err := repos.WarehouseRepo().FindByID(ctx, req.FromWarehouseID); err != nil {
			return err
		}
		if _, err := repos.WarehouseRepo().FindByID(ctx, req.ToWarehouseID); err != nil {
			return err
		}
		number, err := repos.TransferRepo().NextNumber(ctx)
		if err != nil {
			return err
		}
		tr, err := trade.NewWarehouseTransfer(number, req.FromWarehouseID, req.ToWarehouseID)
		if err != nil {
			return err
		}
		for idx := range req.Lines {
			in := req.Lines[idx]
			if _, err := tr.AddLine(in.ProductID, in.Unit, in.Quantity); err != nil {
				return err
			}
		}
		created = tr
		return repos.TransferRepo().Save(ctx, tr)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetTransfer returns a warehouse transfer by ID
func (s *DocumentService) GetTransfer(ctx context.Context, id uuid.UUID) (*trade.WarehouseTransfer, error) {
	var tr *trade.WarehouseTransfer
	err := s.scope.Execute(ctx, func(repos Repositories) error {
		var err error
		tr, err = repos.TransferRepo().FindByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tr, nil
}

// DeleteTransfer removes a draft warehouse transfer
func (s *DocumentService) DeleteTransfer(ctx context.Context, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos Repositories) error {
		tr, err := repos.TransferRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if tr.IsPosted() {
			return shared.NewDomainError("INVALID_STATE", "Posted transfers cannot be deleted")
		}
		if err := s.ensureUnreferenced(ctx, repos, tr.Ref()); err != nil {
			return err
		}
		return repos.TransferRepo().Delete(ctx, id)
	})
}

// ensureUnreferenced blocks deletion while stock movements or treasury rows
// still point at the document
func (s *DocumentService) ensureUnreferenced(ctx context.Context, repos Repositories, ref shared.DocumentRef) error {
	referenced, err := repos.MovementRepo().ExistsBySource(ctx, ref)
	if err != nil {
		return err
	}
	if referenced {
		return shared.ErrDocumentReferenced
	}
	referenced, err = repos.TreasuryTxRepo().ExistsBySource(ctx, ref)
	if err != nil {
		return err
	}
	if referenced {
		return shared.ErrDocumentReferenced
	}
	return nil
}
