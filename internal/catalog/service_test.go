package catalog

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/atelierjamel/traiteur-backend/pkg/config"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
	"github.com/atelierjamel/traiteur-backend/pkg/pagination"

	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
)

type stubCatalogRepo struct {
	products map[uuid.UUID]*models.Product
	txCalls  []string
}

func newStubCatalogRepo() *stubCatalogRepo {
	return &stubCatalogRepo{products: map[uuid.UUID]*models.Product{}}
}

func (s *stubCatalogRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubCatalogRepo) CreateProduct(_ context.Context, product *models.Product) (*models.Product, error) {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	s.products[product.ID] = product
	return product, nil
}

func (s *stubCatalogRepo) CreateProducts(_ context.Context, products []models.Product, _ int) error {
	s.txCalls = append(s.txCalls, "CreateProducts")
	for i := range products {
		p := products[i]
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		s.products[p.ID] = &p
	}
	return nil
}

func (s *stubCatalogRepo) FindProduct(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) FindProductByName(_ context.Context, name string) (*models.Product, error) {
	for _, p := range s.products {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCatalogRepo) ListProducts(_ context.Context, _ pagination.Params) (*ProductList, error) {
	list := &ProductList{}
	for _, p := range s.products {
		list.Products = append(list.Products, *p)
	}
	return list, nil
}

func (s *stubCatalogRepo) ListAllProducts(_ context.Context) ([]models.Product, error) {
	var all []models.Product
	for _, p := range s.products {
		all = append(all, *p)
	}
	return all, nil
}

func (s *stubCatalogRepo) SearchProducts(_ context.Context, term string) ([]models.Product, error) {
	var hits []models.Product
	for _, p := range s.products {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(term)) {
			hits = append(hits, *p)
		}
	}
	return hits, nil
}

func (s *stubCatalogRepo) UpdateProduct(_ context.Context, id uuid.UUID, updates map[string]any) error {
	p, ok := s.products[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if name, ok := updates["name"].(string); ok {
		p.Name = name
	}
	if url, ok := updates["image_url"].(string); ok {
		p.ImageURL = &url
	}
	return nil
}

func (s *stubCatalogRepo) DeleteProduct(_ context.Context, id uuid.UUID) error {
	if _, ok := s.products[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.products, id)
	return nil
}

func (s *stubCatalogRepo) DeleteBatch(_ context.Context, batchSize int) (int, error) {
	s.txCalls = append(s.txCalls, "DeleteBatch")
	n := 0
	for id := range s.products {
		if n == batchSize {
			break
		}
		delete(s.products, id)
		n++
	}
	return n, nil
}

type passthroughTx struct {
	runs int
}

func (p *passthroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	p.runs++
	return fn(nil)
}

func newCatalogService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, &passthroughTx{}, config.ImportConfig{
		ClearBatchSize: 200,
		MaxClearLoops:  100,
		InsertBatch:    200,
	}, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

func TestCreateProductValidation(t *testing.T) {
	svc := newCatalogService(t, newStubCatalogRepo())

	cases := []struct {
		name  string
		input CreateProductInput
	}{
		{"emptyName", CreateProductInput{Name: " ", PricePerKilo: 10, PiecesPerKilo: 10}},
		{"zeroPrice", CreateProductInput{Name: "Baklawa", PricePerKilo: 0, PiecesPerKilo: 10}},
		{"zeroYield", CreateProductInput{Name: "Baklawa", PricePerKilo: 10, PiecesPerKilo: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateProduct(context.Background(), tc.input)
			if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateAndSearchProducts(t *testing.T) {
	repo := newStubCatalogRepo()
	svc := newCatalogService(t, repo)

	created, err := svc.CreateProduct(context.Background(), CreateProductInput{
		Name: "Corne de gazelle", PricePerKilo: 32, PiecesPerKilo: 30,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("expected an id")
	}

	hits, err := svc.SearchProducts(context.Background(), "gazelle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}

	if _, err := svc.SearchProducts(context.Background(), "  "); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty term, got %v", err)
	}
}

func TestImportCSVReplacesCatalog(t *testing.T) {
	repo := newStubCatalogRepo()
	svc := newCatalogService(t, repo)

	// Pre-existing catalog that the import must clear.
	for i := 0; i < 3; i++ {
		if _, err := repo.CreateProduct(context.Background(), &models.Product{
			Name: "old-" + uuid.NewString(), PricePerKilo: 1, PiecesPerKilo: 1,
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	csv := strings.Join([]string{
		"product_name,pieces_per_kilo,price",
		"Baklawa,20,24.5",
		"bad-row,zero,10",
		"Makroud,25,18",
	}, "\n")

	summary, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Imported != 2 || summary.Cleared != 3 || summary.Skipped != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if len(repo.products) != 2 {
		t.Fatalf("expected 2 products after import, got %d", len(repo.products))
	}

	// Clear runs before the insert, both inside the transaction.
	if len(repo.txCalls) < 2 || repo.txCalls[len(repo.txCalls)-1] != "CreateProducts" {
		t.Fatalf("expected clear-then-insert, got %v", repo.txCalls)
	}
}

func TestImportCSVRejectsEmptyFile(t *testing.T) {
	svc := newCatalogService(t, newStubCatalogRepo())

	csv := "product_name,pieces_per_kilo,price\nbad,zero,1\n"
	_, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error when nothing imports, got %v", err)
	}
}
