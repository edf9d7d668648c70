package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/atelierjamel/traiteur-backend/pkg/config"
	"github.com/atelierjamel/traiteur-backend/pkg/db"
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
	"github.com/atelierjamel/traiteur-backend/pkg/metrics"
	"github.com/atelierjamel/traiteur-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service owns the product catalog: CRUD, name search and the CSV bulk
// import that replaces the whole catalog in one transaction.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error)
	ListAllProducts(ctx context.Context) ([]models.Product, error)
	SearchProducts(ctx context.Context, term string) ([]models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error)
}

type service struct {
	repo Repository
	tx   txRunner
	cfg  config.ImportConfig
	logg *logger.Logger
}

// NewService builds the catalog service with the required dependencies.
func NewService(repo Repository, tx txRunner, cfg config.ImportConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, tx: tx, cfg: cfg, logg: logg}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name required")
	}
	if input.PricePerKilo <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per kilo must be positive")
	}
	if input.PiecesPerKilo <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pieces per kilo must be positive")
	}

	product := &models.Product{
		Name:          name,
		Category:      input.Category,
		Status:        input.Status,
		PricePerKilo:  input.PricePerKilo,
		PiecesPerKilo: input.PiecesPerKilo,
		ImageURL:      input.ImageURL,
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context, params pagination.Params) (*ProductList, error) {
	list, err := s.repo.ListProducts(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return list, nil
}

func (s *service) ListAllProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.ListAllProducts(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return products, nil
}

func (s *service) SearchProducts(ctx context.Context, term string) ([]models.Product, error) {
	if strings.TrimSpace(term) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "search term required")
	}
	products, err := s.repo.SearchProducts(ctx, term)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search products")
	}
	return products, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if input.PricePerKilo != nil {
		if *input.PricePerKilo <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price per kilo must be positive")
		}
		updates["price_per_kilo"] = *input.PricePerKilo
	}
	if input.PiecesPerKilo != nil {
		if *input.PiecesPerKilo <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "pieces per kilo must be positive")
		}
		updates["pieces_per_kilo"] = *input.PiecesPerKilo
	}
	if input.ImageURL != nil {
		updates["image_url"] = *input.ImageURL
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdateProduct(ctx, productID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a product with this name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return s.GetProduct(ctx, productID)
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	// Order items keep their snapshot columns, so deleting a product never
	// touches existing orders.
	if err := s.repo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// ImportCSV replaces the whole catalog with the rows from r. Parsing happens
// up front; the clear and the batched inserts then share one transaction, so
// a failed import leaves the previous catalog intact. Rows that fail to parse
// are skipped and logged, not fatal.
func (s *service) ImportCSV(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	products, rowErrs, err := parseProductsCSV(r)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
	}

	skipped := len(multierr.Errors(rowErrs))
	if rowErrs != nil {
		s.logg.Warn(s.logg.WithField(ctx, "row_errors", rowErrs.Error()), "csv import skipped malformed rows")
	}
	if len(products) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "csv contains no importable rows")
	}

	summary := &ImportSummary{Skipped: skipped}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		cleared, err := clearCatalog(ctx, repo, s.cfg.ClearBatchSize, s.cfg.MaxClearLoops)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear catalog")
		}
		summary.Cleared = cleared

		if err := repo.CreateProducts(ctx, products, s.cfg.InsertBatch); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert products")
		}
		summary.Imported = len(products)
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ProductRowsImported.Add(float64(summary.Imported))
	ctx = s.logg.WithFields(ctx, map[string]any{
		"imported": summary.Imported,
		"cleared":  summary.Cleared,
		"skipped":  summary.Skipped,
	})
	s.logg.Info(ctx, "catalog import finished")
	return summary, nil
}
