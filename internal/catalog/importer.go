package catalog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	"github.com/atelierjamel/traiteur-backend/pkg/db/models"
)

// Recognized CSV headers. product_name, price and pieces_per_kilo are
// required; the rest are optional.
const (
	columnName     = "product_name"
	columnCategory = "product_category"
	columnStatus   = "status"
	columnYield    = "pieces_per_kilo"
	columnPrice    = "price"
	columnImageURL = "picture_url"
)

// parseProductsCSV reads the whole CSV and returns the rows that parsed
// cleanly together with the accumulated per-row errors. A bad row never
// aborts the parse; callers decide whether partial imports are acceptable.
func parseProductsCSV(r io.Reader) (products []models.Product, rowErrs error, err error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("reading csv header: %w", err)
	}

	index := map[string]int{}
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, required := range []string{columnName, columnYield, columnPrice} {
		if _, ok := index[required]; !ok {
			return nil, nil, fmt.Errorf("csv is missing the %q column", required)
		}
	}

	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}

		product, err := productFromRecord(index, record)
		if err != nil {
			rowErrs = multierr.Append(rowErrs, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		products = append(products, *product)
	}

	return products, rowErrs, nil
}

func productFromRecord(index map[string]int, record []string) (*models.Product, error) {
	field := func(column string) string {
		i, ok := index[column]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	name := field(columnName)
	if name == "" {
		return nil, fmt.Errorf("empty product name")
	}

	yield, err := strconv.ParseFloat(field(columnYield), 64)
	if err != nil || yield <= 0 {
		return nil, fmt.Errorf("invalid pieces_per_kilo %q", field(columnYield))
	}

	price, err := strconv.ParseFloat(field(columnPrice), 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("invalid price %q", field(columnPrice))
	}

	product := &models.Product{
		Name:          name,
		PricePerKilo:  price,
		PiecesPerKilo: yield,
	}
	if v := field(columnCategory); v != "" {
		product.Category = &v
	}
	if v := field(columnStatus); v != "" {
		product.Status = &v
	}
	if v := field(columnImageURL); v != "" {
		product.ImageURL = &v
	}
	return product, nil
}

// clearCatalog deletes every product in bounded batches. The loop is capped:
// if the cap is hit the catalog is larger than maxLoops*batchSize and the
// import refuses to continue half-cleared.
func clearCatalog(ctx context.Context, repo Repository, batchSize, maxLoops int) (int, error) {
	if batchSize <= 0 {
		batchSize = 200
	}
	if maxLoops <= 0 {
		maxLoops = 100
	}

	total := 0
	for i := 0; i < maxLoops; i++ {
		deleted, err := repo.DeleteBatch(ctx, batchSize)
		if err != nil {
			return total, err
		}
		total += deleted
		if deleted == 0 {
			return total, nil
		}
	}
	return total, fmt.Errorf("catalog clear exceeded %d batches of %d", maxLoops, batchSize)
}
