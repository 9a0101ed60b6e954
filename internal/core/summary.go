package core

// CategorySpend is an amount aggregated under one category. A nil
// CategoryID means the uncategorized bucket.
type CategorySpend struct {
	CategoryID *int64
	Name       string
	Color      string
	Amount     Money
}

// SpendingReport is a chart-ready breakdown of spending by category over a
// date range.
type SpendingReport struct {
	Start Date
	End   Date
	Type  string // "expense" or "income"
	Data  []CategorySpend
	Total Money
}

// MonthPoint is one month in an income-vs-expense trend series.
type MonthPoint struct {
	Year    int
	Month   int // 1-12
	Income  Money
	Expense Money
}

// PeriodPoint is one time bucket in a spending-over-time series. Key is the
// bucket identifier: an ISO date for day and week buckets (the week's
// Monday), YYYY-MM for month buckets.
type PeriodPoint struct {
	Key     string
	Income  Money
	Expense Money
}

// CategoryPeriodSpend is one category's expense total inside one time
// bucket. A nil CategoryID means the uncategorized bucket.
type CategoryPeriodSpend struct {
	Key        string
	CategoryID *int64
	Name       string
	Color      string
	Amount     Money
}

// CategoryActivity summarizes one category's transactions over a range.
// Total keeps the sign of the underlying amounts.
type CategoryActivity struct {
	Name  string
	Count int
	Total Money
}

// RangeSummary is the overall financial picture of a date range. Expense
// is reported positive; Net is income minus expense.
type RangeSummary struct {
	Start      Date
	End        Date
	Income     Money
	Expense    Money
	Net        Money
	Count      int
	Average    Money // mean signed amount per transaction
	Categories []CategoryActivity
}

// BudgetProgress is a budget with its spending for the current period.
type BudgetProgress struct {
	Budget      Budget
	Spent       Money
	Remaining   Money
	PercentUsed float64
	PeriodStart Date
	PeriodEnd   Date
	Status      string // "good", "warning", "over"
}
