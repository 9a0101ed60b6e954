// Package categorize assigns categories to transactions.
//
// Classification is modeled as a strategy capability so the import pipeline
// and transaction service depend only on the interface: the rule engine is
// the working implementation, and a placeholder ML strategy reserves the
// seam for a trained model.
package categorize

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
)

// Strategy proposes a category for a transaction. ok is false when the
// strategy has no answer; that is not an error.
type Strategy interface {
	Classify(ctx context.Context, tx core.Transaction) (categoryID int64, ok bool, err error)
}

// Categorizer runs strategies in order and returns the first answer.
// No answer from any strategy leaves the transaction uncategorized, which
// is a valid terminal state.
type Categorizer struct {
	strategies []Strategy
}

func New(strategies ...Strategy) *Categorizer {
	return &Categorizer{strategies: strategies}
}

// Classify returns the category proposed by the first strategy that has
// one, or nil when none do.
func (c *Categorizer) Classify(ctx context.Context, tx core.Transaction) (*int64, error) {
	for _, s := range c.strategies {
		id, ok, err := s.Classify(ctx, tx)
		if err != nil {
			return nil, err
		}
		if ok {
			slog.DebugContext(ctx, "Transaction classified",
				"category_id", id,
				"description", tx.Description)
			return &id, nil
		}
	}
	return nil, nil
}
