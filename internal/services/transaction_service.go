package services

import (
	"context"
	"fmt"
	"log/slog"

	"fintrack/internal/amqp"
	"fintrack/internal/categorize"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/storage"
)

// TransactionService orchestrates transaction writes: persistence,
// auto-categorization, and recategorize job publishing.
type TransactionService struct {
	storage    *storage.Repository
	amqpClient *amqp.Client
	logs       *log.StructuredLogger
}

func NewTransactionService(storage *storage.Repository, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		storage:    storage,
		amqpClient: amqpClient,
		logs:       log.NewStructuredLogger(log.NewComponent(log.ComponentTransaction)),
	}
}

// Create saves a transaction. When no category is supplied the current
// rule set is applied; no match leaves the transaction uncategorized.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (int64, error) {
	if t.Source == "" {
		t.Source = core.SourceManual
	}
	if err := t.Validate(); err != nil {
		return 0, err
	}

	if t.CategoryID == nil {
		categorizer, err := s.Categorizer(ctx)
		if err != nil {
			// Categorization is best-effort on manual creates
			slog.WarnContext(ctx, "Building categorizer failed, saving uncategorized", "error", err)
		} else {
			categoryID, err := categorizer.Classify(ctx, t)
			if err != nil {
				slog.WarnContext(ctx, "Classification failed, saving uncategorized", "error", err)
			} else {
				t.CategoryID = categoryID
			}
		}
	}

	id, err := s.storage.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}
	s.logs.LogTransactionCreated(ctx, id, t.Description, t.Amount.Cents)
	return id, nil
}

// Categorizer builds the strategy chain from the current rule set: rules
// first, then the ML placeholder.
func (s *TransactionService) Categorizer(ctx context.Context) (*categorize.Categorizer, error) {
	rules, err := s.storage.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	categoryIDs, err := s.storage.CategoryIDSet(ctx)
	if err != nil {
		return nil, fmt.Errorf("load category ids: %w", err)
	}
	engine := categorize.NewRuleEngine(rules, categoryIDs)
	return categorize.New(engine, categorize.NewMLStrategy()), nil
}

// RequestRecategorize publishes a recategorize job for the worker. Without
// a broker the job runs inline so the endpoint still works.
func (s *TransactionService) RequestRecategorize(ctx context.Context, scope string, ruleID int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, recategorizing inline", "scope", scope)
		_, err := NewRecategorizeProcessor(s.storage).Process(ctx, amqp.NewRecategorizeMessage(scope, ruleID))
		return err
	}
	return s.amqpClient.PublishRecategorize(ctx, scope, ruleID)
}

// Close closes both storage and AMQP connections.
func (s *TransactionService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close transaction service: %v", errs)
	}
	return nil
}
