package services

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestPeriodWindowWeekly(t *testing.T) {
	tests := []struct {
		name      string
		ref       time.Time
		wantStart string
		wantEnd   string
	}{
		{
			name:      "midweek",
			ref:       time.Date(2025, 3, 12, 15, 30, 0, 0, time.UTC), // Wednesday
			wantStart: "2025-03-10",
			wantEnd:   "2025-03-16",
		},
		{
			name:      "monday is its own week start",
			ref:       time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			wantStart: "2025-03-10",
			wantEnd:   "2025-03-16",
		},
		{
			name:      "sunday belongs to the preceding monday",
			ref:       time.Date(2025, 3, 16, 23, 59, 0, 0, time.UTC),
			wantStart: "2025-03-10",
			wantEnd:   "2025-03-16",
		},
		{
			name:      "week spanning a month boundary",
			ref:       time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), // Tuesday
			wantStart: "2025-03-31",
			wantEnd:   "2025-04-06",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := PeriodWindow(core.PeriodWeekly, tt.ref)
			if start.String() != tt.wantStart {
				t.Errorf("start = %s, want %s", start, tt.wantStart)
			}
			if end.String() != tt.wantEnd {
				t.Errorf("end = %s, want %s", end, tt.wantEnd)
			}
		})
	}
}

func TestPeriodWindowMonthly(t *testing.T) {
	start, end := PeriodWindow(core.PeriodMonthly, time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC))
	if start.String() != "2025-02-01" || end.String() != "2025-02-28" {
		t.Errorf("February window = %s..%s", start, end)
	}

	start, end = PeriodWindow(core.PeriodMonthly, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	if end.String() != "2024-02-29" {
		t.Errorf("leap February end = %s, want 2024-02-29", end)
	}

	start, end = PeriodWindow(core.PeriodMonthly, time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	if start.String() != "2025-12-01" || end.String() != "2025-12-31" {
		t.Errorf("December window = %s..%s", start, end)
	}
}

func TestPeriodWindowYearly(t *testing.T) {
	start, end := PeriodWindow(core.PeriodYearly, time.Date(2025, 7, 4, 0, 0, 0, 0, time.UTC))
	if start.String() != "2025-01-01" || end.String() != "2025-12-31" {
		t.Errorf("yearly window = %s..%s", start, end)
	}
}

func TestBudgetStatus(t *testing.T) {
	tests := []struct {
		spent, limit int64
		want         string
	}{
		{0, 10000, "good"},
		{7999, 10000, "good"},
		{8000, 10000, "warning"},
		{9999, 10000, "warning"},
		{10000, 10000, "over"},
		{15000, 10000, "over"},
	}

	for _, tt := range tests {
		if got := BudgetStatus(tt.spent, tt.limit); got != tt.want {
			t.Errorf("BudgetStatus(%d, %d) = %q, want %q", tt.spent, tt.limit, got, tt.want)
		}
	}
}
