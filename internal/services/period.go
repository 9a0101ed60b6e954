package services

import (
	"time"

	"fintrack/internal/core"
)

// PeriodWindow returns the calendar window containing ref for a budget
// period. Weeks start on Monday; months and years follow the calendar.
func PeriodWindow(period core.Period, ref time.Time) (core.Date, core.Date) {
	ref = ref.UTC()
	switch period {
	case core.PeriodWeekly:
		// time.Weekday has Sunday = 0; shift so Monday = 0
		offset := (int(ref.Weekday()) + 6) % 7
		start := ref.AddDate(0, 0, -offset)
		end := start.AddDate(0, 0, 6)
		return core.NewDate(start.Year(), start.Month(), start.Day()),
			core.NewDate(end.Year(), end.Month(), end.Day())
	case core.PeriodYearly:
		return core.NewDate(ref.Year(), time.January, 1),
			core.NewDate(ref.Year(), time.December, 31)
	default: // monthly
		start := core.NewDate(ref.Year(), ref.Month(), 1)
		end := start.AddDate(0, 1, -1)
		return start, core.NewDate(end.Year(), end.Month(), end.Day())
	}
}

// BudgetStatus grades spending against the limit: under 80% is "good",
// between 80% and 100% is "warning", at or past the limit is "over".
func BudgetStatus(spentCents, limitCents int64) string {
	switch {
	case spentCents >= limitCents:
		return "over"
	case spentCents*5 >= limitCents*4:
		return "warning"
	default:
		return "good"
	}
}
