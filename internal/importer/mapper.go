package importer

import (
	"strings"
)

// Field is a target column of the transaction schema.
type Field string

const (
	FieldDate        Field = "date"
	FieldAmount      Field = "amount"
	FieldDescription Field = "description"
	FieldMerchant    Field = "merchant"
	FieldAccount     Field = "account"
)

// requiredFields must be mapped before an import may start.
var requiredFields = []Field{FieldDate, FieldAmount}

// Confidence says what evidence backed a column proposal.
type Confidence string

const (
	// ConfidenceHeader means the header text matched a known synonym.
	ConfidenceHeader Confidence = "header"
	// ConfidenceValues means only the sample values' shape matched.
	ConfidenceValues Confidence = "values"
)

// ColumnGuess is a proposed source column for one target field.
type ColumnGuess struct {
	Column     string     `json:"column"`
	Index      int        `json:"index"`
	Confidence Confidence `json:"confidence"`
}

// Proposal is the column mapper's best effort for an uploaded file. A
// required field with no plausible column appears in Unmapped and never in
// Fields; the caller must supply an explicit mapping before importing.
type Proposal struct {
	Headers   []string              `json:"headers"`
	Fields    map[Field]ColumnGuess `json:"fields"`
	Unmapped  []Field               `json:"unmapped"`
	TotalRows int                   `json:"total_rows"`
	Sample    [][]string            `json:"sample"`
}

// fieldSynonyms drive header-text detection, checked as case-insensitive
// substrings. Order matters: the first field whose synonym hits claims the
// column.
var fieldSynonyms = []struct {
	field    Field
	keywords []string
}{
	{FieldDate, []string{"date", "posted", "day", "time"}},
	{FieldAmount, []string{"amount", "amt", "value", "debit", "credit", "total", "sum", "price"}},
	{FieldDescription, []string{"description", "desc", "memo", "narrative", "details"}},
	{FieldMerchant, []string{"merchant", "payee", "vendor"}},
	{FieldAccount, []string{"account", "acct", "card", "bank", "wallet"}},
}

const sampleRowLimit = 10
const shapeProbeLimit = 5

// Inspect parses the header plus a sample of data rows and proposes a
// source column for each target field. Detection is header-synonym first,
// then sample-value shape for date and amount. Pure inspection: no side
// effects, nothing is persisted.
func Inspect(raw []byte) (*Proposal, error) {
	tbl, err := parseCSV(raw)
	if err != nil {
		return nil, err
	}

	sample := tbl.rows
	if len(sample) > sampleRowLimit {
		sample = sample[:sampleRowLimit]
	}

	p := &Proposal{
		Headers:   tbl.headers,
		Fields:    make(map[Field]ColumnGuess),
		TotalRows: len(tbl.rows),
		Sample:    sample,
	}

	claimed := make(map[int]bool)

	// Pass 1: header synonyms.
	for col, header := range tbl.headers {
		field, ok := fieldFromHeader(header)
		if !ok {
			continue
		}
		if _, taken := p.Fields[field]; taken || claimed[col] {
			continue
		}
		p.Fields[field] = ColumnGuess{Column: header, Index: col, Confidence: ConfidenceHeader}
		claimed[col] = true
	}

	// Pass 2: value shape for the required fields still missing.
	for col, header := range tbl.headers {
		if claimed[col] {
			continue
		}
		if _, have := p.Fields[FieldDate]; !have && columnLooksLike(tbl, sample, col, looksLikeDate) {
			p.Fields[FieldDate] = ColumnGuess{Column: header, Index: col, Confidence: ConfidenceValues}
			claimed[col] = true
			continue
		}
		if _, have := p.Fields[FieldAmount]; !have && columnLooksLike(tbl, sample, col, looksLikeAmount) {
			p.Fields[FieldAmount] = ColumnGuess{Column: header, Index: col, Confidence: ConfidenceValues}
			claimed[col] = true
		}
	}

	for _, f := range requiredFields {
		if _, ok := p.Fields[f]; !ok {
			p.Unmapped = append(p.Unmapped, f)
		}
	}

	return p, nil
}

func fieldFromHeader(header string) (Field, bool) {
	name := strings.ToLower(strings.TrimSpace(header))
	if name == "" {
		return "", false
	}
	for _, fs := range fieldSynonyms {
		for _, kw := range fs.keywords {
			if strings.Contains(name, kw) {
				return fs.field, true
			}
		}
	}
	return "", false
}

// columnLooksLike reports whether at least 80% of the non-empty sample
// values in a column satisfy the probe.
func columnLooksLike(tbl *table, sample [][]string, col int, probe func(string) bool) bool {
	var nonEmpty, hits int
	for _, row := range sample {
		v := tbl.cell(row, col)
		if v == "" {
			continue
		}
		nonEmpty++
		if probe(v) {
			hits++
		}
		if nonEmpty == shapeProbeLimit {
			break
		}
	}
	if nonEmpty == 0 {
		return false
	}
	return hits*5 >= nonEmpty*4
}
