// Package importer reads and writes transactions as CSV.
//
// Import maps columns by header name, so files exported by banks can be read
// as long as a mapping for date, description, amount and category is given.
// Export always writes the fixed layout Date,Description,Amount,Category,Type.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fintrack/internal/core"
)

// Field names a transaction attribute a CSV column can be mapped to.
type Field string

const (
	FieldDate        Field = "date"
	FieldDescription Field = "description"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldType        Field = "type"
)

// ExportHeader is the column layout written by Write.
var ExportHeader = []string{"Date", "Description", "Amount", "Category", "Type"}

var (
	ErrEmptyFile      = errors.New("csv file is empty")
	ErrMissingColumn  = errors.New("required column not found")
	ErrNoTransactions = errors.New("no valid transactions in file")
)

// Mapping associates fields with header names. Lookup is case-insensitive.
type Mapping map[Field]string

// DefaultMapping matches the export layout.
func DefaultMapping() Mapping {
	return Mapping{
		FieldDate:        "Date",
		FieldDescription: "Description",
		FieldAmount:      "Amount",
		FieldCategory:    "Category",
		FieldType:        "Type",
	}
}

// RowError reports a data row that could not be converted. Line is 1-based
// and counts the header.
type RowError struct {
	Line int
	Err  error
}

func (e RowError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e RowError) Unwrap() error { return e.Err }

// Result holds the converted rows and the rows that were rejected.
type Result struct {
	Transactions []core.Transaction
	Rejected     []RowError
}

// Read parses r into transactions owned by userID. Rows that fail to parse
// are collected in Result.Rejected and do not stop the import.
//
// When the type column is absent or empty the sign of the amount decides:
// negative is an expense, anything else income. An unknown category becomes
// Uncategorized.
func Read(r io.Reader, userID string, m Mapping, loc *time.Location) (Result, error) {
	if m == nil {
		m = DefaultMapping()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return Result{}, ErrEmptyFile
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header, m)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return res, fmt.Errorf("read csv: %w", err)
			}
			res.Rejected = append(res.Rejected, RowError{Line: pe.StartLine, Err: err})
			continue
		}
		line, _ := cr.FieldPos(0)
		if blank(record) {
			continue
		}
		t, err := convert(record, cols, userID, loc)
		if err != nil {
			res.Rejected = append(res.Rejected, RowError{Line: line, Err: err})
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res, nil
}

func resolveColumns(header []string, m Mapping) (map[Field]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := index[h]; !dup {
			index[h] = i
		}
	}
	cols := make(map[Field]int, len(m))
	for _, f := range []Field{FieldDate, FieldDescription, FieldAmount, FieldCategory, FieldType} {
		name, ok := m[f]
		if !ok || name == "" {
			continue
		}
		i, found := index[strings.ToLower(strings.TrimSpace(name))]
		if !found {
			if f == FieldType {
				continue
			}
			return nil, fmt.Errorf("%w: %s (%q)", ErrMissingColumn, f, name)
		}
		cols[f] = i
	}
	for _, f := range []Field{FieldDate, FieldDescription, FieldAmount, FieldCategory} {
		if _, ok := cols[f]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}
	return cols, nil
}

func convert(record []string, cols map[Field]int, userID string, loc *time.Location) (core.Transaction, error) {
	get := func(f Field) string {
		i, ok := cols[f]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := core.ParseDate("date", get(FieldDate), loc)
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := core.ParseMoney(get(FieldAmount))
	if err != nil {
		return core.Transaction{}, err
	}

	typ := core.Income
	if amount.Cents < 0 {
		typ = core.Expense
	}
	if raw := get(FieldType); raw != "" {
		if typ, err = core.ParseTransactionType(raw); err != nil {
			return core.Transaction{}, err
		}
	}

	category, err := core.ParseCategory(get(FieldCategory))
	if err != nil {
		category = core.Uncategorized
	}

	t := core.Transaction{
		UserID:      userID,
		Date:        date,
		Description: get(FieldDescription),
		Amount:      amount,
		Category:    category,
		Type:        typ,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// Write renders txs in the export layout. Dates are written as calendar days
// in loc.
func Write(w io.Writer, txs []core.Transaction, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range txs {
		date := ""
		if !t.Date.IsZero() {
			date = t.Date.In(loc).Format("2006-01-02")
		}
		row := []string{date, t.Description, t.Amount.String(), t.Category.String(), string(t.Type)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %s: %w", t.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// History renders txs as the CSV text handed to the AI flows.
func History(txs []core.Transaction, loc *time.Location) string {
	var b strings.Builder
	_ = Write(&b, txs, loc)
	return b.String()
}
