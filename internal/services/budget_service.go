package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/core"
)

// BudgetStore is the persistence surface the budget service reads.
type BudgetStore interface {
	ListBudgets(ctx context.Context) ([]core.Budget, error)
	SubtreeCategoryIDs(ctx context.Context, id int64) ([]int64, error)
	SumExpenses(ctx context.Context, categoryIDs []int64, from, to core.Date) (int64, error)
}

type BudgetService struct {
	store BudgetStore
}

func NewBudgetService(store BudgetStore) *BudgetService {
	return &BudgetService{store: store}
}

// Summary computes each budget's spending for the period containing now.
// A budget tied to a category counts that category's whole subtree; a
// budget without a category counts all expenses. Explicit start/end dates
// clamp the period window.
func (s *BudgetService) Summary(ctx context.Context, now time.Time) ([]core.BudgetProgress, error) {
	budgets, err := s.store.ListBudgets(ctx)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	out := make([]core.BudgetProgress, 0, len(budgets))
	for _, b := range budgets {
		progress, err := s.progress(ctx, b, now)
		if err != nil {
			return nil, err
		}
		out = append(out, progress)
	}
	return out, nil
}

func (s *BudgetService) progress(ctx context.Context, b core.Budget, now time.Time) (core.BudgetProgress, error) {
	start, end := PeriodWindow(b.Period, now)
	if !b.StartDate.IsZero() && b.StartDate.After(start.Time) {
		start = b.StartDate
	}
	if !b.EndDate.IsZero() && b.EndDate.Before(end.Time) {
		end = b.EndDate
	}

	var categoryIDs []int64
	if b.CategoryID != nil {
		ids, err := s.store.SubtreeCategoryIDs(ctx, *b.CategoryID)
		if err != nil {
			return core.BudgetProgress{}, fmt.Errorf("budget %d category subtree: %w", b.ID, err)
		}
		categoryIDs = ids
	}

	spent, err := s.store.SumExpenses(ctx, categoryIDs, start, end)
	if err != nil {
		return core.BudgetProgress{}, fmt.Errorf("budget %d spending: %w", b.ID, err)
	}

	progress := core.BudgetProgress{
		Budget:      b,
		Spent:       core.Money{Cents: spent},
		Remaining:   core.Money{Cents: b.Amount.Cents - spent},
		PeriodStart: start,
		PeriodEnd:   end,
		Status:      BudgetStatus(spent, b.Amount.Cents),
	}
	if b.Amount.Cents > 0 {
		progress.PercentUsed = float64(spent) / float64(b.Amount.Cents) * 100
	}

	slog.DebugContext(ctx, "Budget progress computed",
		"budget_id", b.ID,
		"spent_cents", spent,
		"status", progress.Status)

	return progress, nil
}
