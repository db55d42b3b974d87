package partner

import (
	"context"

	"github.com/google/uuid"

	"github.com/tradecore/backoffice/internal/domain/shared"
)

// PartnerRepository defines persistence operations for partners
type PartnerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Partner, error)
	FindByType(ctx context.Context, partnerType PartnerType) ([]Partner, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Partner, error)
	Save(ctx context.Context, p *Partner) error
}

// WarehouseRepository defines persistence operations for warehouses
type WarehouseRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Warehouse, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]Warehouse, error)
	Save(ctx context.Context, w *Warehouse) error
}
