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

// Service handles partner and warehouse operations
type Service struct {
	partnerRepo    partner.PartnerRepository
	warehouseRepo  partner.WarehouseRepository
	invoiceRepo    trade.InvoiceRepository
	returnRepo     trade.ReturnRepository
	paymentRepo    finance.PaymentRepository
	treasuryTxRepo treasury.TransactionRepository
}

// NewService creates a new partner Service
func NewService(
	partnerRepo partner.PartnerRepository,
	warehouseRepo partner.WarehouseRepository,
	invoiceRepo trade.InvoiceRepository,
	returnRepo trade.ReturnRepository,
	paymentRepo finance.PaymentRepository,
	treasuryTxRepo treasury.TransactionRepository,
) *Service {
	return &Service{
		partnerRepo:    partnerRepo,
		warehouseRepo:  warehouseRepo,
		invoiceRepo:    invoiceRepo,
		returnRepo:     returnRepo,
		paymentRepo:    paymentRepo,
		treasuryTxRepo: treasuryTxRepo,
	}
}

// CreatePartner registers a new partner
func (s *Service) CreatePartner(ctx context.Context, name string, partnerType partner.PartnerType, phone string) (*partner.Partner, error) {
	p, err := partner.NewPartner(name, partnerType)
	if err != nil {
		return nil, err
	}
	p.Phone = phone
	if err := s.partnerRepo.Save(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetPartner retrieves a partner by ID
func (s *Service) GetPartner(ctx context.Context, id uuid.UUID) (*partner.Partner, error) {
	return s.partnerRepo.FindByID(ctx, id)
}

// ListPartners retrieves partners with filtering and pagination
func (s *Service) ListPartners(ctx context.Context, filter shared.Filter) ([]partner.Partner, error) {
	return s.partnerRepo.FindAll(ctx, filter)
}

// CreateWarehouse registers a new warehouse
func (s *Service) CreateWarehouse(ctx context.Context, name, location string) (*partner.Warehouse, error) {
	w, err := partner.NewWarehouse(name, location)
	if err != nil {
		return nil, err
	}
	if err := s.warehouseRepo.Save(ctx, w); err != nil {
		return nil, err
	}
	return w, nil
}

// ListWarehouses retrieves all warehouses
func (s *Service) ListWarehouses(ctx context.Context, filter shared.Filter) ([]partner.Warehouse, error) {
	return s.warehouseRepo.FindAll(ctx, filter)
}

// RecalculateBalance rederives a partner's balance from source rows.
// The derivation is a pure query plus an idempotent write, so it does not
// need a surrounding transaction when invoked standalone.
func (s *Service) RecalculateBalance(ctx context.Context, partnerID uuid.UUID) (decimal.Decimal, error) {
	return DeriveBalance(ctx, serviceRepos{s}, partnerID)
}

// serviceRepos adapts the service's repositories to BalanceRepositories
type serviceRepos struct{ s *Service }

func (r serviceRepos) PartnerRepo() partner.PartnerRepository       { return r.s.partnerRepo }
func (r serviceRepos) InvoiceRepo() trade.InvoiceRepository         { return r.s.invoiceRepo }
func (r serviceRepos) ReturnRepo() trade.ReturnRepository           { return r.s.returnRepo }
func (r serviceRepos) PaymentRepo() finance.PaymentRepository       { return r.s.paymentRepo }
func (r serviceRepos) TreasuryTxRepo() treasury.TransactionRepository { return r.s.treasuryTxRepo }
