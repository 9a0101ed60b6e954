package categorize

import (
	"context"

	"fintrack/internal/core"
)

// MLStrategy is a placeholder for a trained text classifier. It never
// proposes a category; it exists so the pipeline wiring and the /api/ml
// endpoints are in place when a real model lands.
//
// A real implementation would vectorize the transaction text, score it
// against the trained model, and answer only above a confidence threshold.
type MLStrategy struct{}

func NewMLStrategy() *MLStrategy {
	return &MLStrategy{}
}

// Classify implements Strategy. The stub has no prediction for any input.
func (s *MLStrategy) Classify(context.Context, core.Transaction) (int64, bool, error) {
	return 0, false, nil
}

// Trained reports whether a model is loaded. Always false for the stub.
func (s *MLStrategy) Trained() bool {
	return false
}
