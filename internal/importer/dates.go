package importer

import (
	"strings"
	"time"

	"fintrack/internal/core"
)

// dateLayouts are tried in order when no explicit layout is supplied. ISO
// first; the rest cover the common bank-export variants. Ambiguous
// day/month values resolve to the first layout that parses, so US ordering
// wins ties unless the caller pins a layout in the mapping.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"2006/01/02",
	"01/02/06",
	"02-01-2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// parseRowDate parses a date cell. When layout is non-empty only that
// layout is accepted.
func parseRowDate(value, layout string) (core.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return core.Date{}, core.ErrInvalidDate
	}
	if layout != "" {
		t, err := time.Parse(layout, value)
		if err != nil {
			return core.Date{}, core.ErrInvalidDate
		}
		return core.NewDate(t.Year(), t.Month(), t.Day()), nil
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, value); err == nil {
			return core.NewDate(t.Year(), t.Month(), t.Day()), nil
		}
	}
	return core.Date{}, core.ErrInvalidDate
}

// looksLikeDate reports whether a sample value parses under any known
// layout. Used by the column mapper's shape detection.
func looksLikeDate(value string) bool {
	_, err := parseRowDate(value, "")
	return err == nil
}

// looksLikeAmount reports whether a sample value parses as a monetary
// amount.
func looksLikeAmount(value string) bool {
	_, err := core.ParseAmountToCents(value)
	return err == nil
}
