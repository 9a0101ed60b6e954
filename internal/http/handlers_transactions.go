package http

import (
	"errors"
	"net/http"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/storage"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type transactionRequest struct {
	Date        core.Date `json:"date"`
	Amount      string    `json:"amount"`
	AmountCents *int64    `json:"amount_cents"`
	Description string    `json:"description"`
	Merchant    string    `json:"merchant"`
	AccountName string    `json:"account_name"`
	CategoryID  *int64    `json:"category_id"`
	Notes       string    `json:"notes"`
}

// toTransaction builds the domain record. Amount is accepted either as
// integer cents or as a decimal string in any supported format.
func (req transactionRequest) toTransaction() (core.Transaction, error) {
	cents := int64(0)
	switch {
	case req.AmountCents != nil:
		cents = *req.AmountCents
	case req.Amount != "":
		parsed, err := core.ParseAmountToCents(req.Amount)
		if err != nil {
			return core.Transaction{}, err
		}
		cents = parsed
	}

	return core.Transaction{
		Date:        req.Date,
		Amount:      core.Money{Cents: cents},
		Description: req.Description,
		Merchant:    req.Merchant,
		AccountName: req.AccountName,
		CategoryID:  req.CategoryID,
		Notes:       req.Notes,
	}, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := storage.TransactionFilter{
		Account: q.Get("account"),
		Source:  core.Source(q.Get("source")),
		Search:  q.Get("search"),
		Limit:   queryInt(q, "limit", defaultPageSize),
		Offset:  queryInt(q, "offset", 0),
	}
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var err error
	if filter.From, err = queryDate(q, "from"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if filter.To, err = queryDate(q, "to"); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if raw := q.Get("category_id"); raw != "" {
		id := int64(queryInt(q, "category_id", 0))
		if id <= 0 {
			writeError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		filter.CategoryID = &id
	}
	filter.Uncategorized = q.Get("uncategorized") == "true"

	for key, dst := range map[string]**int64{"min_amount": &filter.MinCents, "max_amount": &filter.MaxCents} {
		if raw := q.Get(key); raw != "" {
			cents, err := core.ParseAmountToCents(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid "+key)
				return
			}
			*dst = &cents
		}
	}

	transactions, total, err := s.repo.ListTransactions(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transactions": toTransactionPayloads(transactions),
		"total":        total,
		"limit":        filter.Limit,
		"offset":       filter.Offset,
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	tx.Source = core.SourceManual

	id, err := s.transactions.Create(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()

	created, err := s.repo.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionPayload(*created))
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := s.repo.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionPayload(*tx))
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.repo.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := req.toTransaction()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	// Source is fixed for the record's lifetime.
	tx.ID = id
	tx.Source = existing.Source

	if err := s.repo.UpdateTransaction(r.Context(), tx); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()

	updated, err := s.repo.GetTransaction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionPayload(*updated))
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.DeleteTransaction(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.repo.ListAccountNames(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if accounts == nil {
		accounts = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"accounts": accounts})
}

type bulkCategorizeRequest struct {
	TransactionIDs []int64 `json:"transaction_ids"`
	CategoryID     *int64  `json:"category_id"`
}

// handleBulkCategorize assigns one category (or none) to a set of
// transactions in a single statement.
func (s *Server) handleBulkCategorize(w http.ResponseWriter, r *http.Request) {
	var req bulkCategorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.TransactionIDs) == 0 {
		writeError(w, http.StatusUnprocessableEntity, "transaction_ids is empty")
		return
	}

	if req.CategoryID != nil {
		if _, err := s.repo.GetCategory(r.Context(), *req.CategoryID); err != nil {
			if errors.Is(err, core.ErrNotFound) {
				writeError(w, http.StatusUnprocessableEntity, "category does not exist")
				return
			}
			writeDomainError(w, err)
			return
		}
	}

	updated, err := s.repo.SetTransactionCategories(r.Context(), req.TransactionIDs, req.CategoryID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
}

type recategorizeRequest struct {
	Scope  string `json:"scope"`
	RuleID int64  `json:"rule_id"`
}

// handleRecategorize publishes a recategorize job for the worker.
func (s *Server) handleRecategorize(w http.ResponseWriter, r *http.Request) {
	var req recategorizeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch req.Scope {
	case "":
		req.Scope = amqp.ScopeUncategorized
	case amqp.ScopeUncategorized, amqp.ScopeAll:
	default:
		writeError(w, http.StatusUnprocessableEntity, "scope must be 'uncategorized' or 'all'")
		return
	}

	if err := s.transactions.RequestRecategorize(r.Context(), req.Scope, req.RuleID); err != nil {
		writeDomainError(w, err)
		return
	}
	s.invalidateReports()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "scope": req.Scope})
}
