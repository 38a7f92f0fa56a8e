package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"perfumeshop/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type LookupWriter interface {
	Upsert(ctx context.Context, kind domain.LookupKind, name string) (*domain.Lookup, error)
}

// CSVImporter reads perfume catalog CSV files and upserts products keyed by
// (brand, name). Lookup values referenced by name are created on demand.
type CSVImporter struct {
	reader   *csv.Reader
	products ProductWriter
	lookups  LookupWriter
	logger   *zap.Logger
	ids      map[domain.LookupKind]map[string]int64
}

func NewCSVImporter(r io.Reader, products ProductWriter, lookups LookupWriter, logger *zap.Logger) *CSVImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:   csvr,
		products: products,
		lookups:  lookups,
		logger:   logger,
		ids:      make(map[domain.LookupKind]map[string]int64),
	}
}

type csvRow struct {
	line         int
	Name         string
	Description  string
	PictureURI   string
	Price        string
	Stock        string
	Volume       string
	DateDelivery string
	refs         map[domain.LookupKind]string
}

var lookupColumns = map[domain.LookupKind]string{
	domain.LookupBrand:       "brand",
	domain.LookupCategory:    "category",
	domain.LookupGender:      "gender",
	domain.LookupType:        "type",
	domain.LookupReleaseForm: "release_form",
}

// Run parses every row and upserts it. It stops at the first invalid row and
// returns how many products were saved before it.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, required := range []string{"name", "brand", "category", "price"} {
		if _, ok := index[required]; !ok {
			return 0, fmt.Errorf("missing required column %q", required)
		}
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.line = line
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}

	i.logger.Info("catalog import finished", zap.Int("products", imported))
	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	p, err := row.toProduct()
	if err != nil {
		return fmt.Errorf("line %d: %w", row.line, err)
	}
	for kind, name := range row.refs {
		id, err := i.lookupID(ctx, kind, name)
		if err != nil {
			return fmt.Errorf("line %d: %w", row.line, err)
		}
		switch kind {
		case domain.LookupBrand:
			p.BrandID = id
		case domain.LookupCategory:
			p.CategoryID = id
		case domain.LookupGender:
			p.GenderID = id
		case domain.LookupType:
			p.TypeID = id
		case domain.LookupReleaseForm:
			p.ReleaseFormID = id
		}
	}

	if _, err := i.products.Upsert(ctx, p); err != nil {
		return fmt.Errorf("line %d: upsert product %q: %w", row.line, p.Name, err)
	}
	i.logger.Debug("imported product", zap.Int("line", row.line), zap.String("name", p.Name))
	return nil
}

func (i *CSVImporter) lookupID(ctx context.Context, kind domain.LookupKind, name string) (int64, error) {
	if id, ok := i.ids[kind][name]; ok {
		return id, nil
	}
	l, err := i.lookups.Upsert(ctx, kind, name)
	if err != nil {
		return 0, fmt.Errorf("upsert %s %q: %w", kind, name, err)
	}
	if i.ids[kind] == nil {
		i.ids[kind] = make(map[string]int64)
	}
	i.ids[kind][name] = l.ID
	return l.ID, nil
}

func (r *csvRow) toProduct() (domain.Product, error) {
	if r.Name == "" || r.refs[domain.LookupBrand] == "" || r.refs[domain.LookupCategory] == "" || r.Price == "" {
		return domain.Product{}, fmt.Errorf("invalid product row (missing required fields) for %q", r.Name)
	}
	price, err := decimal.NewFromString(r.Price)
	if err != nil || !price.IsPositive() {
		return domain.Product{}, fmt.Errorf("invalid price %q for %q", r.Price, r.Name)
	}
	p := domain.Product{
		Name:        r.Name,
		Description: r.Description,
		PictureURI:  r.PictureURI,
		Price:       price.Round(2),
	}
	if p.Stock, err = atoiOrZero(r.Stock); err != nil || p.Stock < 0 {
		return domain.Product{}, fmt.Errorf("invalid stock %q for %q", r.Stock, r.Name)
	}
	if p.Volume, err = atoiOrZero(r.Volume); err != nil || p.Volume < 0 {
		return domain.Product{}, fmt.Errorf("invalid volume %q for %q", r.Volume, r.Name)
	}
	if r.DateDelivery != "" {
		if p.DateDelivery, err = time.Parse("2006-01-02", r.DateDelivery); err != nil {
			return domain.Product{}, fmt.Errorf("invalid date_delivery %q for %q", r.DateDelivery, r.Name)
		}
	}
	return p, nil
}

func atoiOrZero(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		Name:         pick(record, index, "name"),
		Description:  pick(record, index, "description"),
		PictureURI:   pick(record, index, "picture_uri"),
		Price:        pick(record, index, "price"),
		Stock:        pick(record, index, "stock"),
		Volume:       pick(record, index, "volume"),
		DateDelivery: pick(record, index, "date_delivery"),
		refs:         make(map[domain.LookupKind]string, len(lookupColumns)),
	}
	empty := row.Name == "" && row.Price == ""
	for kind, column := range lookupColumns {
		if v := pick(record, index, column); v != "" {
			row.refs[kind] = v
			empty = false
		}
	}
	if empty {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
