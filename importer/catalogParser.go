package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bizdocs-backend/models"
	"bizdocs-backend/store"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

var headerAliases = map[string]string{
	"name":         "name",
	"item":         "name",
	"item name":    "name",
	"nama":         "name",
	"nama item":    "name",
	"type":         "type",
	"category":     "type",
	"jenis":        "type",
	"tipe":         "type",
	"price":        "price",
	"unit price":   "price",
	"harga":        "price",
	"harga satuan": "price",
}

// ErrInvalidSheet marks uploads that could not be read as a catalog sheet.
var ErrInvalidSheet = errors.New("invalid catalog sheet")

// CatalogRow is one parsed spreadsheet line.
type CatalogRow struct {
	Line  int
	Name  string
	Type  string
	Price decimal.Decimal
}

// ParseCatalogItems reads the first sheet of an .xlsx file. The header row
// must contain a name and a price column; type is optional. Rows without a
// name are skipped.
func ParseCatalogItems(reader io.Reader) ([]CatalogRow, error) {
	file, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("open excel file: %w", err)
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("excel file has no sheets")
	}

	rows, err := file.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("excel file is empty")
	}

	colMap := mapColumns(rows[0])
	for _, required := range []string{"name", "price"} {
		if _, ok := colMap[required]; !ok {
			return nil, fmt.Errorf("missing required column: %s", required)
		}
	}

	result := make([]CatalogRow, 0, len(rows)-1)
	for index := 1; index < len(rows); index++ {
		cells := rows[index]
		name := strings.TrimSpace(readCell(cells, colMap["name"]))
		if name == "" {
			continue
		}

		price, err := parsePrice(readCell(cells, colMap["price"]))
		if err != nil {
			return nil, fmt.Errorf("row %d invalid price: %w", index+1, err)
		}

		var typ string
		if idx, ok := colMap["type"]; ok {
			typ = strings.TrimSpace(readCell(cells, idx))
		}

		result = append(result, CatalogRow{Line: index + 1, Name: name, Type: typ, Price: price})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("excel file has no valid data rows")
	}
	return result, nil
}

// ImportCatalogItems parses reader and inserts every row. It stops at the
// first failed insert and reports how many rows were written before it.
func ImportCatalogItems(ctx context.Context, items store.Collection[models.CatalogItem], reader io.Reader) ([]models.CatalogItem, error) {
	rows, err := ParseCatalogItems(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSheet, err)
	}
	out := make([]models.CatalogItem, 0, len(rows))
	for _, r := range rows {
		stored, err := items.Insert(ctx, models.CatalogItem{Name: r.Name, Type: r.Type, Price: r.Price})
		if err != nil {
			return out, fmt.Errorf("row %d: %w", r.Line, err)
		}
		out = append(out, stored)
	}
	return out, nil
}

func mapColumns(header []string) map[string]int {
	mapped := make(map[string]int)
	for idx, col := range header {
		normalized := normalizeHeader(col)
		if normalized == "" {
			continue
		}
		canonical, ok := headerAliases[normalized]
		if !ok {
			continue
		}
		if _, exists := mapped[canonical]; !exists {
			mapped[canonical] = idx
		}
	}
	return mapped
}

func normalizeHeader(raw string) string {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(value, "\ufeff")
	value = strings.ToLower(value)
	value = strings.ReplaceAll(value, "_", " ")
	value = strings.Join(strings.Fields(value), " ")
	return value
}

func readCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func parsePrice(raw string) (decimal.Decimal, error) {
	value := strings.TrimSpace(raw)
	value = strings.TrimPrefix(strings.TrimPrefix(value, "Rp"), ".")
	value = strings.ReplaceAll(value, ",", "")
	value = strings.ReplaceAll(value, " ", "")
	if value == "" {
		return decimal.Zero, nil
	}
	price, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a number")
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("must not be negative")
	}
	return price, nil
}
