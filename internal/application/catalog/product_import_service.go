package catalog

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradecore/backoffice/internal/domain/shared"
	csvimport "github.com/tradecore/backoffice/internal/infrastructure/import"
)

// productImportColumns are the expected CSV headers, in any order
var productImportColumns = []string{"code", "name", "base_unit"}

// maxImportErrors caps how many row errors a single import reports
const maxImportErrors = 100

// ProductImportService bulk-registers products from a CSV file
type ProductImportService struct {
	products *ProductService
	logger   *zap.Logger
}

// NewProductImportService creates a new ProductImportService
func NewProductImportService(products *ProductService, logger *zap.Logger) *ProductImportService {
	return &ProductImportService{products: products, logger: logger}
}

// ImportResult summarizes a bulk import run
type ImportResult struct {
	TotalRows int                  `json:"total_rows"`
	Imported  int                  `json:"imported"`
	Skipped   int                  `json:"skipped"`
	Errors    []csvimport.RowError `json:"errors,omitempty"`
}

// productImportRules returns the per-field validation rules for product rows
func productImportRules() []csvimport.FieldRule {
	return []csvimport.FieldRule{
		csvimport.Field("code").Required().String().Length(1, 50).Build(),
		csvimport.Field("name").Required().String().Length(1, 200).Build(),
		csvimport.Field("base_unit").Required().String().Length(1, 30).Build(),
		csvimport.Field("large_unit").String().MaxLength(30).Build(),
		csvimport.Field("unit_factor").Decimal().MinValue(decimal.Zero).Build(),
		csvimport.Field("selling_price").Decimal().MinValue(decimal.Zero).Build(),
	}
}

// Import reads the CSV stream and registers one product per valid row.
// Rows that fail validation or collide with existing codes are skipped
// and reported; valid rows are still imported.
func (s *ProductImportService) Import(ctx context.Context, r io.Reader) (*ImportResult, error) {
	parser, err := csvimport.NewCSVParser(r, csvimport.WithTrimSpace(true))
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unable to read CSV file: "+err.Error())
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unable to read CSV header: "+err.Error())
	}
	if missing := parser.ValidateHeaders(productImportColumns); len(missing) > 0 {
		return nil, shared.NewDomainError("INVALID_INPUT",
			"Missing required columns: "+strings.Join(missing, ", "))
	}

	rows, err := parser.ReadAllRows()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unable to read CSV rows: "+err.Error())
	}

	validator := csvimport.NewFieldValidator(productImportRules(), maxImportErrors)
	result := &ImportResult{TotalRows: len(rows)}

	for _, row := range rows {
		if !validator.ValidateRow(row) {
			result.Skipped++
			continue
		}

		req := CreateProductRequest{
			Code:     row.Get("code"),
			Name:     row.Get("name"),
			BaseUnit: row.Get("base_unit"),
		}
		if lu := row.Get("large_unit"); lu != "" {
			req.LargeUnit = lu
			if factor, err := decimal.NewFromString(row.Get("unit_factor")); err == nil {
				req.UnitFactor = &factor
			}
		}
		if sp := row.Get("selling_price"); sp != "" {
			if price, err := decimal.NewFromString(sp); err == nil {
				req.SellingPrice = &price
			}
		}

		if _, err := s.products.CreateProduct(ctx, req); err != nil {
			result.Skipped++
			validator.Errors().AddValidationError(row.LineNumber, "code",
				importErrorCode(err), err.Error())
			continue
		}
		result.Imported++
	}

	result.Errors = validator.Errors().Errors()
	s.logger.Info("product import finished",
		zap.Int("total", result.TotalRows),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func importErrorCode(err error) string {
	if errors.Is(err, shared.ErrAlreadyExists) {
		return "DUPLICATE"
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return "IMPORT_FAILED"
}
