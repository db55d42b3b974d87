package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradecore/backoffice/internal/domain/catalog"
	"github.com/tradecore/backoffice/internal/domain/shared"
)

// ProductService handles product registration and catalog queries
type ProductService struct {
	productRepo catalog.ProductRepository
}

// NewProductService creates a new ProductService
func NewProductService(productRepo catalog.ProductRepository) *ProductService {
	return &ProductService{productRepo: productRepo}
}

// CreateProductRequest represents a request to register a product
type CreateProductRequest struct {
	Code         string           `json:"code" binding:"required,min=1,max=50"`
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	BaseUnit     string           `json:"base_unit" binding:"required,min=1,max=30"`
	LargeUnit    string           `json:"large_unit" binding:"max=30"`
	UnitFactor   *decimal.Decimal `json:"unit_factor"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

// CreateProduct registers a new catalog product. Codes are unique and
// normalized to upper case.
func (s *ProductService) CreateProduct(ctx context.Context, req CreateProductRequest) (*catalog.Product, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))

	if existing, err := s.productRepo.FindByCode(ctx, code); err == nil && existing != nil {
		return nil, shared.ErrAlreadyExists
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	product, err := catalog.NewProduct(code, req.Name, req.BaseUnit)
	if err != nil {
		return nil, err
	}
	if req.LargeUnit != "" {
		factor := decimal.Zero
		if req.UnitFactor != nil {
			factor = *req.UnitFactor
		}
		if err := product.SetLargeUnit(req.LargeUnit, factor); err != nil {
			return nil, err
		}
	}
	if req.SellingPrice != nil {
		if err := product.OverrideSellingPrice(*req.SellingPrice); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// GetProduct retrieves a product by ID
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// GetProductByCode retrieves a product by its code
func (s *ProductService) GetProductByCode(ctx context.Context, code string) (*catalog.Product, error) {
	return s.productRepo.FindByCode(ctx, code)
}

// ListProducts retrieves products with filtering and pagination
func (s *ProductService) ListProducts(ctx context.Context, filter shared.Filter) ([]catalog.Product, error) {
	return s.productRepo.FindAll(ctx, filter)
}
