package export

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"io"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/atelierjamel/traiteur-backend/internal/catalog"
	"github.com/atelierjamel/traiteur-backend/internal/orders"
	"github.com/atelierjamel/traiteur-backend/pkg/config"
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
	"github.com/atelierjamel/traiteur-backend/pkg/pagination"
)

type stubOrdersService struct {
	order      *models.Order
	recomputed bool
}

func (s *stubOrdersService) CreateOrder(_ context.Context, _ orders.CreateOrderInput) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrdersService) GetOrder(_ context.Context, _ uuid.UUID) (*models.Order, error) {
	return s.order, nil
}

func (s *stubOrdersService) ListOrders(_ context.Context, _ pagination.Params) (*orders.OrderList, error) {
	return nil, nil
}

func (s *stubOrdersService) UpdateOrder(_ context.Context, _ uuid.UUID, _ orders.UpdateOrderInput) (*models.Order, error) {
	return nil, nil
}

func (s *stubOrdersService) DeleteOrder(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubOrdersService) AddItem(_ context.Context, _ uuid.UUID, _ orders.ItemInput) (*orders.ItemMutationResult, error) {
	return nil, nil
}

func (s *stubOrdersService) UpdateItem(_ context.Context, _, _ uuid.UUID, _ orders.ItemPatch) (*orders.ItemMutationResult, error) {
	return nil, nil
}

func (s *stubOrdersService) DeleteItem(_ context.Context, _, _ uuid.UUID) (*orders.ItemMutationResult, error) {
	return nil, nil
}

func (s *stubOrdersService) RecomputeTotals(_ context.Context, _ uuid.UUID) (orders.Totals, error) {
	s.recomputed = true
	return orders.Totals{}, nil
}

type stubCatalogService struct {
	products []models.Product
}

func (s *stubCatalogService) CreateProduct(_ context.Context, _ catalog.CreateProductInput) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) GetProduct(_ context.Context, _ uuid.UUID) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) ListProducts(_ context.Context, _ pagination.Params) (*catalog.ProductList, error) {
	return nil, nil
}

func (s *stubCatalogService) ListAllProducts(_ context.Context) ([]models.Product, error) {
	return s.products, nil
}

func (s *stubCatalogService) SearchProducts(_ context.Context, _ string) ([]models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) UpdateProduct(_ context.Context, _ uuid.UUID, _ catalog.UpdateProductInput) (*models.Product, error) {
	return nil, nil
}

func (s *stubCatalogService) DeleteProduct(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubCatalogService) ImportCSV(_ context.Context, _ io.Reader) (*catalog.ImportSummary, error) {
	return nil, nil
}

type stubDownloader struct {
	objects map[string][]byte
	urls    map[string][]byte
}

func (s *stubDownloader) Download(_ context.Context, objectPath string) ([]byte, error) {
	if data, ok := s.objects[objectPath]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("object %s not found", objectPath)
}

func (s *stubDownloader) DownloadURL(_ context.Context, publicURL string) ([]byte, error) {
	if data, ok := s.urls[publicURL]; ok {
		return data, nil
	}
	return nil, fmt.Errorf("url %s not found", publicURL)
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, imaging.New(80, 80, color.White), imaging.JPEG))
	return buf.Bytes()
}

func strPtr(v string) *string { return &v }

func newExportService(t *testing.T, ordersSvc orders.Service, catalogSvc catalog.Service, store Downloader) Service {
	t.Helper()
	svc, err := NewService(ordersSvc, catalogSvc, store, config.ExportConfig{LogoObject: "data/logo.jpg"},
		logger.New(logger.Options{ServiceName: "test", Output: io.Discard}))
	require.NoError(t, err)
	return svc
}

func TestExportOrder(t *testing.T) {
	delivery := time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)
	imageURL := "https://storage.googleapis.com/bucket/data/product/images/baklawa.jpeg"
	order := &models.Order{
		ID:              uuid.New(),
		Name:            "Mariage Benali",
		CustomerName:    "Benali",
		CustomerAddress: strPtr("12 rue des Oliviers"),
		CustomerPhone:   strPtr("0550 12 34 56"),
		DeliveryDate:    &delivery,
		TotalPrice:      102.5,
		Items: []models.OrderItem{
			{ProductName: "Baklawa", Pieces: 40, PiecesPerKilo: 20, UnitPrice: 24.5, Weight: 2, TotalPrice: 49, ImageURL: &imageURL},
			{ProductName: "Makroud", Pieces: 75, PiecesPerKilo: 25, UnitPrice: 18, Weight: 3, TotalPrice: 54},
		},
	}
	ordersSvc := &stubOrdersService{order: order}
	store := &stubDownloader{
		objects: map[string][]byte{"data/logo.jpg": testJPEG(t)},
		urls:    map[string][]byte{imageURL: testJPEG(t)},
	}

	svc := newExportService(t, ordersSvc, &stubCatalogService{}, store)
	data, err := svc.ExportOrder(context.Background(), order.ID)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.True(t, ordersSvc.recomputed, "totals refresh before rendering")

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		value, err := f.GetCellValue("Order Items", cell)
		require.NoError(t, err)
		return value
	}

	assert.Equal(t, "Commande", get("C1"))
	assert.Equal(t, "Mariage Benali", get("D1"))
	assert.Equal(t, "Client", get("C2"))
	assert.Equal(t, "Benali", get("D2"))
	assert.Equal(t, "12 rue des Oliviers", get("D3"))
	assert.Equal(t, "0550 12 34 56", get("D4"))
	assert.Equal(t, "14/06/2025", get("D5"))

	assert.Equal(t, "Article", get("B10"))
	assert.Equal(t, "Prix total article", get("G10"))

	assert.Equal(t, "Baklawa", get("B11"))
	assert.Equal(t, "40", get("C11"))
	assert.Equal(t, "Makroud", get("B12"))

	assert.Equal(t, "Prix total de la commande:", get("B15"))
	assert.Equal(t, "102.5", get("C15"))

	pics, err := f.GetPictures("Order Items", "A11")
	require.NoError(t, err)
	assert.NotEmpty(t, pics, "item thumbnail embedded")
}

func TestExportOrderSurvivesMissingImages(t *testing.T) {
	imageURL := "https://storage.googleapis.com/bucket/missing.jpeg"
	order := &models.Order{
		ID:           uuid.New(),
		Name:         "Commande",
		CustomerName: "Client",
		Items: []models.OrderItem{
			{ProductName: "Baklawa", Pieces: 20, PiecesPerKilo: 20, UnitPrice: 24.5, Weight: 1, TotalPrice: 24.5, ImageURL: &imageURL},
		},
	}
	// Empty store: no logo, no thumbnails.
	svc := newExportService(t, &stubOrdersService{order: order}, &stubCatalogService{}, &stubDownloader{})

	data, err := svc.ExportOrder(context.Background(), order.ID)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	value, err := f.GetCellValue("Order Items", "B11")
	require.NoError(t, err)
	assert.Equal(t, "Baklawa", value)
}

func TestExportProducts(t *testing.T) {
	catalogSvc := &stubCatalogService{products: []models.Product{
		{Name: "Baklawa", Category: strPtr("patisserie"), Status: strPtr("active"), PiecesPerKilo: 20, PricePerKilo: 24.5},
		{Name: "Makroud", PiecesPerKilo: 25, PricePerKilo: 18},
	}}
	svc := newExportService(t, &stubOrdersService{}, catalogSvc, &stubDownloader{})

	data, err := svc.ExportProducts(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	get := func(cell string) string {
		value, err := f.GetCellValue("Products", cell)
		require.NoError(t, err)
		return value
	}

	assert.Equal(t, "Image", get("A1"))
	assert.Equal(t, "Product Name", get("B1"))
	assert.Equal(t, "Price", get("F1"))

	assert.Equal(t, "Baklawa", get("B2"))
	assert.Equal(t, "patisserie", get("C2"))
	assert.Equal(t, "24.5", get("F2"))
	assert.Equal(t, "Makroud", get("B3"))
	assert.Equal(t, "", get("C3"))
}
