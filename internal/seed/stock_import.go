// Package seed bulk-loads stock from CSV files.
package seed

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"medeasy/pos/domain"
	"medeasy/pos/internal/logger"
	"medeasy/pos/internal/pos"
)

// Adder is the part of the Stock Ledger the importer needs.
type Adder interface {
	AddMedicine(ctx context.Context, tenantID int64, in pos.MedicineInput) (domain.Medicine, error)
}

// Result summarises an import. Errors holds one message per skipped row.
type Result struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

var required = []string{"name", "category", "expirydate", "quantity", "price"}

// ImportStock reads a CSV with a header row (name, category, expiryDate,
// quantity, price and an optional discount, in any order) and adds each row
// through the ledger, so arriving stock clears matching shortage notes.
// Rows that fail parsing or validation are skipped; read and storage failures
// abort the import.
func ImportStock(ctx context.Context, r io.Reader, ledger Adder, tenantID int64) (Result, error) {
	log := logger.FromContext(ctx)
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, domain.Validation("csv is empty")
	}
	if err != nil {
		return Result{}, domain.Validation("unable to read csv header: %v", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return Result{}, domain.Validation("csv header is missing column %q", name)
		}
	}

	var res Result
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				res.skip(line, err)
				continue
			}
			return res, readError(line, err)
		}

		in, err := parseRow(record, cols)
		if err != nil {
			res.skip(line, err)
			continue
		}
		if _, err := ledger.AddMedicine(ctx, tenantID, in); err != nil {
			var de *domain.Error
			if !errors.As(err, &de) {
				return res, fmt.Errorf("import row %d: %w", line, err)
			}
			res.skip(line, err)
			continue
		}
		res.Imported++
	}

	log.Info("stock import finished",
		zap.Int64("tenant_id", tenantID),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped))
	return res, nil
}

// readError reports a failure of the underlying reader. csv.Reader repeats
// such errors on every later call, so the import stops at the first one.
func readError(line int, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return domain.Validation("csv exceeds %d bytes", tooLarge.Limit)
	}
	return fmt.Errorf("read csv line %d: %w", line, err)
}

// ImportFile opens path and imports it with ImportStock.
func ImportFile(ctx context.Context, path string, ledger Adder, tenantID int64) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("open stock file: %w", err)
	}
	defer f.Close()
	return ImportStock(ctx, f, ledger, tenantID)
}

func (r *Result) skip(line int, err error) {
	r.Skipped++
	r.Errors = append(r.Errors, fmt.Sprintf("line %d: %v", line, err))
}

func parseRow(record []string, cols map[string]int) (pos.MedicineInput, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var in pos.MedicineInput
	in.Name = field("name")
	in.Category = field("category")

	expiry, err := domain.ParseDate(field("expirydate"))
	if err != nil {
		return in, err
	}
	in.ExpiryDate = expiry

	if in.Quantity, err = strconv.ParseInt(field("quantity"), 10, 64); err != nil {
		return in, domain.InvalidQuantity("invalid quantity %q", field("quantity"))
	}
	if in.Price, err = decimal.NewFromString(field("price")); err != nil {
		return in, domain.Validation("invalid price %q", field("price"))
	}
	in.Discount = decimal.Zero
	if d := field("discount"); d != "" {
		if in.Discount, err = decimal.NewFromString(d); err != nil {
			return in, domain.Validation("invalid discount %q", d)
		}
	}
	return in, nil
}
