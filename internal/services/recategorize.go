package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// RecategorizeProcessor re-runs the rule engine over stored transactions.
// Scope "uncategorized" only fills empty categories; scope "all" also
// re-evaluates categorized transactions and moves them when the rules now
// answer differently.
type RecategorizeProcessor struct {
	storage *storage.Repository
}

func NewRecategorizeProcessor(storage *storage.Repository) *RecategorizeProcessor {
	return &RecategorizeProcessor{storage: storage}
}

// Process handles one recategorize job and returns how many transactions
// were updated.
func (p *RecategorizeProcessor) Process(ctx context.Context, msg *amqp.RecategorizeMessage) (int, error) {
	var (
		txs []core.Transaction
		err error
	)
	if msg.Scope == amqp.ScopeAll {
		txs, _, err = p.storage.ListTransactions(ctx, storage.TransactionFilter{})
	} else {
		txs, err = p.storage.ListUncategorized(ctx, 0)
	}
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	return p.apply(ctx, msg.Scope, txs)
}

// ProcessUncategorized fills empty categories for at most limit
// transactions. The worker's periodic scan uses this as a backup for lost
// messages; limit <= 0 means no cap.
func (p *RecategorizeProcessor) ProcessUncategorized(ctx context.Context, limit int) (int, error) {
	txs, err := p.storage.ListUncategorized(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("load uncategorized transactions: %w", err)
	}
	return p.apply(ctx, amqp.ScopeUncategorized, txs)
}

func (p *RecategorizeProcessor) apply(ctx context.Context, scope string, txs []core.Transaction) (int, error) {
	rules, err := p.storage.ListRules(ctx)
	if err != nil {
		return 0, fmt.Errorf("load rules: %w", err)
	}
	categoryIDs, err := p.storage.CategoryIDSet(ctx)
	if err != nil {
		return 0, fmt.Errorf("load category ids: %w", err)
	}
	engine := categorize.NewRuleEngine(rules, categoryIDs)

	updated := 0
	for _, t := range txs {
		categoryID, ok, err := engine.Classify(ctx, t)
		if err != nil {
			return updated, fmt.Errorf("classify transaction %d: %w", t.ID, err)
		}
		if !ok {
			continue
		}
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			continue
		}
		if err := p.storage.SetTransactionCategory(ctx, t.ID, &categoryID); err != nil {
			return updated, fmt.Errorf("set category for transaction %d: %w", t.ID, err)
		}
		updated++
	}

	slog.InfoContext(ctx, "Recategorization completed",
		"scope", scope,
		"scanned", len(txs),
		"updated", updated)

	return updated, nil
}
