package export

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/atelierjamel/traiteur-backend/internal/catalog"
	"github.com/atelierjamel/traiteur-backend/internal/orders"
	"github.com/atelierjamel/traiteur-backend/pkg/config"
	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
	pkgerrors "github.com/atelierjamel/traiteur-backend/pkg/errors"
	"github.com/atelierjamel/traiteur-backend/pkg/logger"
)

const (
	orderSheet   = "Order Items"
	productSheet = "Products"

	// Embedded thumbnails are square; rows grow to fit them.
	thumbSize       = 50
	thumbRowHeight  = 60
	orderHeaderRow  = 10
	deliveryDateFmt = "02/01/2006"
)

// Downloader is the object-store surface the exporters need.
type Downloader interface {
	Download(ctx context.Context, objectPath string) ([]byte, error)
	DownloadURL(ctx context.Context, publicURL string) ([]byte, error)
}

// Service renders orders and the product catalog as xlsx workbooks.
type Service interface {
	ExportOrder(ctx context.Context, orderID uuid.UUID) ([]byte, error)
	ExportProducts(ctx context.Context) ([]byte, error)
}

type service struct {
	orders   orders.Service
	products catalog.Service
	store    Downloader
	cfg      config.ExportConfig
	logg     *logger.Logger
}

// NewService builds the export service with the required dependencies.
func NewService(orderSvc orders.Service, productSvc catalog.Service, store Downloader, cfg config.ExportConfig, logg *logger.Logger) (Service, error) {
	if orderSvc == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if productSvc == nil {
		return nil, fmt.Errorf("catalog service required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{orders: orderSvc, products: productSvc, store: store, cfg: cfg, logg: logg}, nil
}

// ExportOrder renders one order as a delivery sheet: logo and customer block
// up top, the item table from row 10, one thumbnail per item and the order
// total underneath. Totals are recomputed first so the sheet never shows a
// stale figure.
func (s *service) ExportOrder(ctx context.Context, orderID uuid.UUID) ([]byte, error) {
	if _, err := s.orders.RecomputeTotals(ctx, orderID); err != nil {
		return nil, err
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := orderSheet
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create worksheet")
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create style")
	}

	for col, width := range map[string]float64{
		"A": 15, "B": 23, "C": 20, "D": 20, "E": 10, "F": 15, "G": 15,
	} {
		_ = f.SetColWidth(sheet, col, col, width)
	}

	s.placeLogo(ctx, f, sheet)

	labels := []struct {
		label string
		value any
	}{
		{"Commande", order.Name},
		{"Client", order.CustomerName},
		{"Adresse", deref(order.CustomerAddress)},
		{"Numéro de téléphone", deref(order.CustomerPhone)},
		{"Date de livraison", formatDeliveryDate(order)},
	}
	for i, entry := range labels {
		row := i + 1
		labelCell := fmt.Sprintf("C%d", row)
		_ = f.SetCellValue(sheet, labelCell, entry.label)
		_ = f.SetCellStyle(sheet, labelCell, labelCell, bold)
		_ = f.SetCellValue(sheet, fmt.Sprintf("D%d", row), entry.value)
	}

	headers := []string{"Article", "Nombre de pièces", "Pièces par kg", "Prix du kg", "Poid total article", "Prix total article"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+2, orderHeaderRow)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, bold)
	}

	row := orderHeaderRow + 1
	for i := range order.Items {
		item := &order.Items[i]
		values := []any{item.ProductName, item.Pieces, item.PiecesPerKilo, item.UnitPrice, item.Weight, item.TotalPrice}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+2, row)
			_ = f.SetCellValue(sheet, cell, value)
		}
		if item.ImageURL != nil && *item.ImageURL != "" {
			s.embedThumbnail(ctx, f, sheet, row, *item.ImageURL)
		}
		row++
	}

	totalRow := row + 2
	totalLabel := fmt.Sprintf("B%d", totalRow)
	_ = f.SetCellValue(sheet, totalLabel, "Prix total de la commande:")
	_ = f.SetCellStyle(sheet, totalLabel, totalLabel, bold)
	_ = f.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), order.TotalPrice)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render workbook")
	}
	return buf.Bytes(), nil
}

// ExportProducts renders the whole catalog, one row per product with its
// thumbnail in the first column.
func (s *service) ExportProducts(ctx context.Context) ([]byte, error) {
	products, err := s.products.ListAllProducts(ctx)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := productSheet
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create worksheet")
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create style")
	}

	headers := []string{"Image", "Product Name", "Category", "Status", "Pieces per Kilo", "Price"}
	widths := []float64{15, 30, 20, 15, 15, 10}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
		_ = f.SetCellStyle(sheet, cell, cell, bold)
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, widths[i])
	}

	for i := range products {
		product := &products[i]
		row := i + 2
		values := []any{nil, product.Name, deref(product.Category), deref(product.Status), product.PiecesPerKilo, product.PricePerKilo}
		for col, value := range values {
			if value == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, value)
		}
		if product.ImageURL != nil && *product.ImageURL != "" {
			s.embedThumbnail(ctx, f, sheet, row, *product.ImageURL)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "render workbook")
	}
	return buf.Bytes(), nil
}

// placeLogo anchors the company logo over A1:B8. A missing logo degrades to a
// sheet without one, not a failed export.
func (s *service) placeLogo(ctx context.Context, f *excelize.File, sheet string) {
	data, err := s.store.Download(ctx, s.cfg.LogoObject)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "object", s.cfg.LogoObject), "logo unavailable, exporting without it")
		return
	}
	resized, err := resizeJPEG(data, 0, 150)
	if err != nil {
		s.logg.Warn(ctx, "logo image not decodable, exporting without it")
		return
	}
	_ = f.AddPictureFromBytes(sheet, "A1", &excelize.Picture{
		Extension: ".jpg",
		File:      resized,
	})
}

// embedThumbnail drops a square thumbnail in column A of the given row and
// grows the row to fit. Broken image references are logged and skipped.
func (s *service) embedThumbnail(ctx context.Context, f *excelize.File, sheet string, row int, imageURL string) {
	data, err := s.store.DownloadURL(ctx, imageURL)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "image_url", imageURL), "image download failed, row exported without it")
		return
	}
	resized, err := resizeJPEG(data, thumbSize, thumbSize)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "image_url", imageURL), "image not decodable, row exported without it")
		return
	}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	err = f.AddPictureFromBytes(sheet, cell, &excelize.Picture{
		Extension: ".jpg",
		File:      resized,
		Format:    &excelize.GraphicOptions{OffsetX: 5, OffsetY: 5},
	})
	if err != nil {
		s.logg.Warn(ctx, "embedding image failed, row exported without it")
		return
	}
	_ = f.SetRowHeight(sheet, row, thumbRowHeight)
}

// resizeJPEG re-encodes data as a JPEG of the requested dimensions; a zero
// width or height keeps the aspect ratio.
func resizeJPEG(data []byte, width, height int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatDeliveryDate(order *models.Order) string {
	if order.DeliveryDate == nil {
		return ""
	}
	return order.DeliveryDate.Format(deliveryDateFmt)
}
