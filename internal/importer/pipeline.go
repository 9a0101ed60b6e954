package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// Status is the terminal state of one imported row.
type Status string

const (
	StatusImported Status = "imported"
	StatusSkipped  Status = "skipped"
	StatusFailed   Status = "failed"
)

// Reason explains a skipped or failed row.
type Reason string

const (
	ReasonMalformedDate    Reason = "malformed_date"
	ReasonMalformedAmount  Reason = "malformed_amount"
	ReasonZeroAmount       Reason = "zero_amount"
	ReasonDuplicate        Reason = "duplicate"
	ReasonStoreError       Reason = "store_error"
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// Mapping is the caller-confirmed column mapping for one import run. Column
// values are header names; Date and Amount are required. DateFormat is an
// optional Go time layout pinning the date column's format.
type Mapping struct {
	Date        string `json:"date"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Merchant    string `json:"merchant"`
	Account     string `json:"account"`
	DateFormat  string `json:"date_format"`
}

// RowOutcome is the per-row result of an import run. Row is the 1-based
// data row number (the header is row 0).
type RowOutcome struct {
	Row           int    `json:"row"`
	Status        Status `json:"status"`
	Reason        Reason `json:"reason,omitempty"`
	TransactionID int64  `json:"transaction_id,omitempty"`
}

// Report is the full outcome of one import run, in row order.
type Report struct {
	RunID    string       `json:"run_id"`
	Outcomes []RowOutcome `json:"outcomes"`
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
}

// TransactionStore is the persistence surface the pipeline writes through.
// Each Create call is its own atomic unit; the pipeline never opens a
// multi-row transaction.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) (int64, error)
	TransactionExists(ctx context.Context, date core.Date, amountCents int64, description string) (bool, error)
}

// Classifier assigns a category to a transaction candidate, or nil.
type Classifier interface {
	Classify(ctx context.Context, tx core.Transaction) (*int64, error)
}

// Pipeline orchestrates parse, map, validate, categorize, and persist for
// each row of an uploaded file.
type Pipeline struct {
	store      TransactionStore
	classifier Classifier
}

func NewPipeline(store TransactionStore, classifier Classifier) *Pipeline {
	return &Pipeline{store: store, classifier: classifier}
}

// Run imports raw CSV content under a confirmed mapping.
//
// Rows are processed sequentially and in isolation: a malformed or rejected
// row is recorded and the batch continues, and previously committed rows
// are never rolled back. The only batch-fatal condition is losing the
// store connection, which records the current and all remaining rows as
// failed/store_unavailable.
func (p *Pipeline) Run(ctx context.Context, raw []byte, mapping Mapping) (*Report, error) {
	tbl, err := parseCSV(raw)
	if err != nil {
		return nil, err
	}

	cols, err := resolveMapping(tbl, mapping)
	if err != nil {
		return nil, err
	}

	report := &Report{RunID: uuid.NewString()}
	seen := make(map[string]bool, len(tbl.rows))

	slog.InfoContext(ctx, "Import run started",
		"run_id", report.RunID,
		"rows", len(tbl.rows))

	for i, row := range tbl.rows {
		rowNum := i + 1

		outcome, fatal := p.processRow(ctx, tbl, row, rowNum, cols, mapping.DateFormat, seen)
		report.add(outcome)

		if fatal {
			for j := i + 1; j < len(tbl.rows); j++ {
				report.add(RowOutcome{Row: j + 1, Status: StatusFailed, Reason: ReasonStoreUnavailable})
			}
			break
		}
	}

	slog.InfoContext(ctx, "Import run finished",
		"run_id", report.RunID,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", report.Failed)

	return report, nil
}

// mappedColumns holds resolved column indexes; -1 means not mapped.
type mappedColumns struct {
	date, amount, description, merchant, account int
}

func resolveMapping(tbl *table, m Mapping) (mappedColumns, error) {
	cols := mappedColumns{
		date:        tbl.column(m.Date),
		amount:      tbl.column(m.Amount),
		description: tbl.column(m.Description),
		merchant:    tbl.column(m.Merchant),
		account:     tbl.column(m.Account),
	}
	var missing []string
	if cols.date < 0 {
		missing = append(missing, string(FieldDate))
	}
	if cols.amount < 0 {
		missing = append(missing, string(FieldAmount))
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("%w: %s", ErrUnmappedField, strings.Join(missing, ", "))
	}
	return cols, nil
}

// processRow handles one data row end to end. fatal is true only when the
// store connection is gone and the batch cannot continue.
func (p *Pipeline) processRow(ctx context.Context, tbl *table, row []string, rowNum int, cols mappedColumns, dateFormat string, seen map[string]bool) (RowOutcome, bool) {
	date, err := parseRowDate(tbl.cell(row, cols.date), dateFormat)
	if err != nil {
		return RowOutcome{Row: rowNum, Status: StatusFailed, Reason: ReasonMalformedDate}, false
	}

	cents, err := core.ParseAmountToCents(tbl.cell(row, cols.amount))
	if err != nil {
		return RowOutcome{Row: rowNum, Status: StatusFailed, Reason: ReasonMalformedAmount}, false
	}
	if cents == 0 {
		return RowOutcome{Row: rowNum, Status: StatusSkipped, Reason: ReasonZeroAmount}, false
	}

	description := tbl.cell(row, cols.description)

	// Deterministic dedup: a row matching an already-stored transaction, or
	// an earlier row in this batch, on date+amount+description is skipped.
	key := date.String() + "|" + core.FormatCents(cents) + "|" + strings.ToLower(description)
	if seen[key] {
		return RowOutcome{Row: rowNum, Status: StatusSkipped, Reason: ReasonDuplicate}, false
	}
	exists, err := p.store.TransactionExists(ctx, date, cents, description)
	if err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) {
			return RowOutcome{Row: rowNum, Status: StatusFailed, Reason: ReasonStoreUnavailable}, true
		}
		slog.WarnContext(ctx, "Duplicate probe failed, importing row anyway",
			"row", rowNum, "error", err)
	} else if exists {
		seen[key] = true
		return RowOutcome{Row: rowNum, Status: StatusSkipped, Reason: ReasonDuplicate}, false
	}

	tx := core.Transaction{
		Date:        date,
		Amount:      core.Money{Cents: cents},
		Description: description,
		Merchant:    tbl.cell(row, cols.merchant),
		AccountName: tbl.cell(row, cols.account),
		Source:      core.SourceImported,
	}

	if p.classifier != nil {
		categoryID, err := p.classifier.Classify(ctx, tx)
		if err != nil {
			// Classification is best-effort: the row imports uncategorized.
			slog.WarnContext(ctx, "Classification failed", "row", rowNum, "error", err)
		} else {
			tx.CategoryID = categoryID
		}
	}

	id, err := p.store.CreateTransaction(ctx, tx)
	if err != nil {
		if errors.Is(err, core.ErrStoreUnavailable) {
			return RowOutcome{Row: rowNum, Status: StatusFailed, Reason: ReasonStoreUnavailable}, true
		}
		slog.ErrorContext(ctx, "Row insert rejected", "row", rowNum, "error", err)
		return RowOutcome{Row: rowNum, Status: StatusFailed, Reason: ReasonStoreError}, false
	}

	seen[key] = true
	return RowOutcome{Row: rowNum, Status: StatusImported, TransactionID: id}, false
}

func (r *Report) add(o RowOutcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusImported:
		r.Imported++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
	}
}
