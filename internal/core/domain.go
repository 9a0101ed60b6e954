package core

import (
	"errors"
	"strings"
	"time"
)

const (
	// SourceManual marks transactions created through the CRUD surface.
	SourceManual Source = "manual"
	// SourceImported marks transactions created by the CSV import pipeline.
	SourceImported Source = "imported"
)

const (
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodYearly  Period = "yearly"
)

const (
	MatchDescription MatchField = "description"
	MatchAmount      MatchField = "amount"
	MatchDate        MatchField = "date"
)

const (
	MatchContains MatchType = "contains"
	MatchExact    MatchType = "exact"
	MatchRegex    MatchType = "regex"
)

type (
	Source     string
	Period     string
	MatchField string
	MatchType  string

	// Date is a day-precision date. The time component is always midnight UTC.
	Date struct {
		time.Time
	}

	// Money is a signed amount in cents. Negative values are expenses.
	Money struct {
		Cents int64
	}

	Transaction struct {
		ID          int64
		Date        Date
		Amount      Money
		Description string
		Merchant    string
		AccountName string
		CategoryID  *int64
		Notes       string
		Source      Source
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// Category is a node in the category tree. ParentID is a weak reference
	// to another category; nil means root.
	Category struct {
		ID       int64
		Name     string
		ParentID *int64
		Icon     string
		Color    string
	}

	Budget struct {
		ID         int64
		Name       string
		Amount     Money
		Period     Period
		CategoryID *int64
		StartDate  Date
		EndDate    Date
		CreatedAt  time.Time
	}

	// Rule maps a pattern over a transaction field to a target category.
	// Rules are evaluated in ascending Priority order; the first match wins.
	Rule struct {
		ID         int64
		Priority   int
		MatchField MatchField
		MatchType  MatchType
		Pattern    string
		CategoryID int64
	}
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrZeroAmount       = errors.New("amount must be non-zero")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidPeriod    = errors.New("invalid period")
	ErrInvalidMatch     = errors.New("invalid match field or type")
	ErrEmptyPattern     = errors.New("empty pattern")

	ErrNotFound      = errors.New("not found")
	ErrDuplicateName = errors.New("name already exists")
	ErrCategoryCycle = errors.New("category parent chain would form a cycle")
	ErrCategoryInUse = errors.New("category is referenced and cannot be deleted")

	// ErrStoreUnavailable wraps persistence errors caused by a lost database
	// connection, as opposed to row-level constraint failures.
	ErrStoreUnavailable = errors.New("store unavailable")
)

// NewDate creates a Date from year, month, day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses an ISO (YYYY-MM-DD) date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String returns the ISO form.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MarshalJSON renders the date as an ISO string, or null when zero.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON accepts an ISO date string or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsExpense reports whether the amount is negative.
func (m Money) IsExpense() bool {
	return m.Cents < 0
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if t.Amount.Cents == 0 {
		return ErrZeroAmount
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	switch t.Source {
	case SourceManual, SourceImported:
	default:
		return errors.New("invalid transaction source")
	}
	return nil
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	if len(c.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if c.ParentID != nil && c.ID != 0 && *c.ParentID == c.ID {
		return ErrCategoryCycle
	}
	return nil
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	switch b.Period {
	case PeriodWeekly, PeriodMonthly, PeriodYearly:
	default:
		return ErrInvalidPeriod
	}
	if !b.StartDate.IsZero() && !b.EndDate.IsZero() && b.EndDate.Before(b.StartDate.Time) {
		return errors.New("end date must not be before start date")
	}
	return nil
}

func (r Rule) Validate() error {
	if len(strings.TrimSpace(r.Pattern)) == 0 {
		return ErrEmptyPattern
	}
	switch r.MatchField {
	case MatchDescription, MatchAmount, MatchDate:
	default:
		return ErrInvalidMatch
	}
	switch r.MatchType {
	case MatchContains, MatchExact, MatchRegex:
	default:
		return ErrInvalidMatch
	}
	if r.CategoryID <= 0 {
		return errors.New("rule requires a target category")
	}
	return nil
}

// FieldValue returns the transaction's value for a rule match field as the
// string the rule pattern is tested against.
func (t Transaction) FieldValue(f MatchField) string {
	switch f {
	case MatchDescription:
		return t.Description
	case MatchAmount:
		return FormatCents(t.Amount.Cents)
	case MatchDate:
		return t.Date.String()
	default:
		return ""
	}
}
