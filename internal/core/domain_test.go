package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-01-15")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if d.Year() != 2025 || d.Month() != time.January || d.Day() != 15 {
		t.Fatalf("ParseDate = %v", d)
	}

	if _, err := ParseDate("not-a-date"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("want ErrInvalidDate, got %v", err)
	}
	if _, err := ParseDate("15/01/2025"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("non-ISO layout should fail, got %v", err)
	}
}

func TestDateJSON(t *testing.T) {
	d := NewDate(2025, time.March, 7)
	b, err := d.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"2025-03-07"` {
		t.Fatalf("MarshalJSON = %s", b)
	}

	var back Date
	if err := back.UnmarshalJSON(b); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v != %v", back, d)
	}

	var zero Date
	if err := zero.UnmarshalJSON([]byte("null")); err != nil {
		t.Fatalf("UnmarshalJSON null: %v", err)
	}
	if !zero.IsZero() {
		t.Fatal("null should produce zero date")
	}
}

func TestTransactionValidate(t *testing.T) {
	valid := Transaction{
		Date:        NewDate(2025, time.January, 15),
		Amount:      Money{Cents: -2550},
		Description: "Coffee at Starbucks",
		Source:      SourceManual,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid transaction rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrZeroAmount},
		{"blank description", func(tx *Transaction) { tx.Description = "   " }, ErrEmptyDescription},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := valid
			tc.mutate(&tx)
			if err := tx.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}

	bad := valid
	bad.Source = "plaid"
	if err := bad.Validate(); err == nil {
		t.Fatal("unknown source should be rejected")
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "Food & Dining"}).Validate(); err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}
	if err := (Category{Name: ""}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatal("empty name should be rejected")
	}

	self := int64(3)
	if err := (Category{ID: 3, Name: "Loop", ParentID: &self}).Validate(); !errors.Is(err, ErrCategoryCycle) {
		t.Fatal("self-parent should be rejected")
	}
}

func TestBudgetValidate(t *testing.T) {
	valid := Budget{Name: "Groceries", Amount: Money{Cents: 50000}, Period: PeriodMonthly}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid budget rejected: %v", err)
	}

	bad := valid
	bad.Period = "quarterly"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidPeriod) {
		t.Fatal("unknown period should be rejected")
	}

	bad = valid
	bad.Amount = Money{Cents: -100}
	if err := bad.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatal("non-positive limit should be rejected")
	}

	bad = valid
	bad.StartDate = NewDate(2025, time.June, 1)
	bad.EndDate = NewDate(2025, time.May, 1)
	if err := bad.Validate(); err == nil {
		t.Fatal("end before start should be rejected")
	}
}

func TestRuleValidate(t *testing.T) {
	valid := Rule{Priority: 1, MatchField: MatchDescription, MatchType: MatchContains, Pattern: "starbucks", CategoryID: 7}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}

	bad := valid
	bad.MatchField = "merchant_city"
	if err := bad.Validate(); !errors.Is(err, ErrInvalidMatch) {
		t.Fatal("unknown match field should be rejected")
	}

	bad = valid
	bad.Pattern = " "
	if err := bad.Validate(); !errors.Is(err, ErrEmptyPattern) {
		t.Fatal("blank pattern should be rejected")
	}

	bad = valid
	bad.CategoryID = 0
	if err := bad.Validate(); err == nil {
		t.Fatal("missing target category should be rejected")
	}
}

func TestFieldValue(t *testing.T) {
	tx := Transaction{
		Date:        NewDate(2025, time.January, 15),
		Amount:      Money{Cents: -2550},
		Description: "Coffee at Starbucks",
	}
	if got := tx.FieldValue(MatchDescription); got != "Coffee at Starbucks" {
		t.Errorf("description field = %q", got)
	}
	if got := tx.FieldValue(MatchAmount); got != "-25.50" {
		t.Errorf("amount field = %q", got)
	}
	if got := tx.FieldValue(MatchDate); got != "2025-01-15" {
		t.Errorf("date field = %q", got)
	}
}
