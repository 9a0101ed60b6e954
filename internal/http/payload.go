package http

import (
	"time"

	"fintrack/internal/core"
)

// Wire shapes for the JSON API. Amounts travel as integer cents plus a
// preformatted decimal string.

type transactionPayload struct {
	ID          int64     `json:"id"`
	Date        core.Date `json:"date"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Description string    `json:"description"`
	Merchant    string    `json:"merchant,omitempty"`
	AccountName string    `json:"account_name,omitempty"`
	CategoryID  *int64    `json:"category_id"`
	Notes       string    `json:"notes,omitempty"`
	Source      string    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toTransactionPayload(t core.Transaction) transactionPayload {
	return transactionPayload{
		ID:          t.ID,
		Date:        t.Date,
		AmountCents: t.Amount.Cents,
		Amount:      core.FormatCents(t.Amount.Cents),
		Description: t.Description,
		Merchant:    t.Merchant,
		AccountName: t.AccountName,
		CategoryID:  t.CategoryID,
		Notes:       t.Notes,
		Source:      string(t.Source),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func toTransactionPayloads(ts []core.Transaction) []transactionPayload {
	out := make([]transactionPayload, len(ts))
	for i, t := range ts {
		out[i] = toTransactionPayload(t)
	}
	return out
}

type categoryPayload struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	Icon     string `json:"icon,omitempty"`
	Color    string `json:"color,omitempty"`
}

func toCategoryPayload(c core.Category) categoryPayload {
	return categoryPayload{
		ID:       c.ID,
		Name:     c.Name,
		ParentID: c.ParentID,
		Icon:     c.Icon,
		Color:    c.Color,
	}
}

func toCategoryPayloads(cs []core.Category) []categoryPayload {
	out := make([]categoryPayload, len(cs))
	for i, c := range cs {
		out[i] = toCategoryPayload(c)
	}
	return out
}

// categoryNode is a category with its nested children, for the hierarchy
// endpoint.
type categoryNode struct {
	categoryPayload
	Children []*categoryNode `json:"children"`
}

func buildHierarchy(cs []core.Category) []*categoryNode {
	nodes := make(map[int64]*categoryNode, len(cs))
	for _, c := range cs {
		nodes[c.ID] = &categoryNode{
			categoryPayload: toCategoryPayload(c),
			Children:        []*categoryNode{},
		}
	}

	var roots []*categoryNode
	for _, c := range cs {
		node := nodes[c.ID]
		if c.ParentID != nil {
			if parent, ok := nodes[*c.ParentID]; ok {
				parent.Children = append(parent.Children, node)
				continue
			}
		}
		roots = append(roots, node)
	}
	return roots
}

type budgetPayload struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	AmountCents int64     `json:"amount_cents"`
	Amount      string    `json:"amount"`
	Period      string    `json:"period"`
	CategoryID  *int64    `json:"category_id"`
	StartDate   core.Date `json:"start_date"`
	EndDate     core.Date `json:"end_date"`
}

func toBudgetPayload(b core.Budget) budgetPayload {
	return budgetPayload{
		ID:          b.ID,
		Name:        b.Name,
		AmountCents: b.Amount.Cents,
		Amount:      core.FormatCents(b.Amount.Cents),
		Period:      string(b.Period),
		CategoryID:  b.CategoryID,
		StartDate:   b.StartDate,
		EndDate:     b.EndDate,
	}
}

type budgetProgressPayload struct {
	budgetPayload
	SpentCents     int64     `json:"spent_cents"`
	Spent          string    `json:"spent"`
	RemainingCents int64     `json:"remaining_cents"`
	Remaining      string    `json:"remaining"`
	PercentUsed    float64   `json:"percent_used"`
	PeriodStart    core.Date `json:"period_start"`
	PeriodEnd      core.Date `json:"period_end"`
	Status         string    `json:"status"`
}

func toBudgetProgressPayload(p core.BudgetProgress) budgetProgressPayload {
	return budgetProgressPayload{
		budgetPayload:  toBudgetPayload(p.Budget),
		SpentCents:     p.Spent.Cents,
		Spent:          core.FormatCents(p.Spent.Cents),
		RemainingCents: p.Remaining.Cents,
		Remaining:      core.FormatCents(p.Remaining.Cents),
		PercentUsed:    p.PercentUsed,
		PeriodStart:    p.PeriodStart,
		PeriodEnd:      p.PeriodEnd,
		Status:         p.Status,
	}
}

type rulePayload struct {
	ID         int64  `json:"id"`
	Priority   int    `json:"priority"`
	MatchField string `json:"match_field"`
	MatchType  string `json:"match_type"`
	Pattern    string `json:"pattern"`
	CategoryID int64  `json:"category_id"`
}

func toRulePayload(r core.Rule) rulePayload {
	return rulePayload{
		ID:         r.ID,
		Priority:   r.Priority,
		MatchField: string(r.MatchField),
		MatchType:  string(r.MatchType),
		Pattern:    r.Pattern,
		CategoryID: r.CategoryID,
	}
}

type categorySpendPayload struct {
	CategoryID  *int64 `json:"category_id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	AmountCents int64  `json:"amount_cents"`
	Amount      string `json:"amount"`
}

type spendingReportPayload struct {
	Start      core.Date              `json:"start"`
	End        core.Date              `json:"end"`
	Type       string                 `json:"type"`
	Data       []categorySpendPayload `json:"data"`
	TotalCents int64                  `json:"total_cents"`
	Total      string                 `json:"total"`
}

func toSpendingReportPayload(r *core.SpendingReport) spendingReportPayload {
	data := make([]categorySpendPayload, len(r.Data))
	for i, d := range r.Data {
		data[i] = categorySpendPayload{
			CategoryID:  d.CategoryID,
			Name:        d.Name,
			Color:       d.Color,
			AmountCents: d.Amount.Cents,
			Amount:      core.FormatCents(d.Amount.Cents),
		}
	}
	return spendingReportPayload{
		Start:      r.Start,
		End:        r.End,
		Type:       r.Type,
		Data:       data,
		TotalCents: r.Total.Cents,
		Total:      core.FormatCents(r.Total.Cents),
	}
}

// periodDatasets are the gap-filled series of a spending-over-time chart,
// one value per label.
type periodDatasets struct {
	IncomeCents  []int64 `json:"income_cents"`
	ExpenseCents []int64 `json:"expense_cents"`
	NetCents     []int64 `json:"net_cents"`
}

type periodSeriesPayload struct {
	Start    core.Date      `json:"start"`
	End      core.Date      `json:"end"`
	GroupBy  string         `json:"group_by"`
	Labels   []string       `json:"labels"`
	Datasets periodDatasets `json:"datasets"`
}

// categorySeriesPayload is one stacked-area dataset: a category's expense
// total per label. A nil CategoryID is the uncategorized bucket.
type categorySeriesPayload struct {
	CategoryID *int64  `json:"category_id"`
	Label      string  `json:"label"`
	Color      string  `json:"color"`
	DataCents  []int64 `json:"data_cents"`
}

type categoryTrendPayload struct {
	Start    core.Date                `json:"start"`
	End      core.Date                `json:"end"`
	GroupBy  string                   `json:"group_by"`
	Labels   []string                 `json:"labels"`
	Datasets []*categorySeriesPayload `json:"datasets"`
}

type histogramPayload struct {
	Start        core.Date `json:"start"`
	End          core.Date `json:"end"`
	Type         string    `json:"type"`
	Labels       []string  `json:"labels"`
	Data         []int     `json:"data"`
	Count        int       `json:"count"`
	MinCents     int64     `json:"min_cents"`
	Min          string    `json:"min"`
	MaxCents     int64     `json:"max_cents"`
	Max          string    `json:"max"`
	AverageCents int64     `json:"average_cents"`
	Average      string    `json:"average"`
}

type categoryActivityPayload struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	TotalCents int64  `json:"total_cents"`
	Total      string `json:"total"`
}

type rangeSummaryPayload struct {
	Start            core.Date                 `json:"start"`
	End              core.Date                 `json:"end"`
	IncomeCents      int64                     `json:"income_cents"`
	Income           string                    `json:"income"`
	ExpenseCents     int64                     `json:"expense_cents"`
	Expense          string                    `json:"expense"`
	NetCents         int64                     `json:"net_cents"`
	Net              string                    `json:"net"`
	TransactionCount int                       `json:"transaction_count"`
	AverageCents     int64                     `json:"average_cents"`
	Average          string                    `json:"average"`
	Categories       []categoryActivityPayload `json:"category_breakdown"`
}

func toRangeSummaryPayload(s *core.RangeSummary) rangeSummaryPayload {
	categories := make([]categoryActivityPayload, len(s.Categories))
	for i, c := range s.Categories {
		categories[i] = categoryActivityPayload{
			Name:       c.Name,
			Count:      c.Count,
			TotalCents: c.Total.Cents,
			Total:      core.FormatCents(c.Total.Cents),
		}
	}
	return rangeSummaryPayload{
		Start:            s.Start,
		End:              s.End,
		IncomeCents:      s.Income.Cents,
		Income:           core.FormatCents(s.Income.Cents),
		ExpenseCents:     s.Expense.Cents,
		Expense:          core.FormatCents(s.Expense.Cents),
		NetCents:         s.Net.Cents,
		Net:              core.FormatCents(s.Net.Cents),
		TransactionCount: s.Count,
		AverageCents:     s.Average.Cents,
		Average:          core.FormatCents(s.Average.Cents),
		Categories:       categories,
	}
}

type monthPointPayload struct {
	Year         int    `json:"year"`
	Month        int    `json:"month"`
	IncomeCents  int64  `json:"income_cents"`
	Income       string `json:"income"`
	ExpenseCents int64  `json:"expense_cents"`
	Expense      string `json:"expense"`
}

func toMonthPointPayloads(points []core.MonthPoint) []monthPointPayload {
	out := make([]monthPointPayload, len(points))
	for i, p := range points {
		out[i] = monthPointPayload{
			Year:         p.Year,
			Month:        p.Month,
			IncomeCents:  p.Income.Cents,
			Income:       core.FormatCents(p.Income.Cents),
			ExpenseCents: p.Expense.Cents,
			Expense:      core.FormatCents(p.Expense.Cents),
		}
	}
	return out
}
