package http

import (
	"net/http"
	"time"

	"fintrack/internal/core"
)

type budgetRequest struct {
	Name        string    `json:"name"`
	Amount      string    `json:"amount"`
	AmountCents *int64    `json:"amount_cents"`
	Period      string    `json:"period"`
	CategoryID  *int64    `json:"category_id"`
	StartDate   core.Date `json:"start_date"`
	EndDate     core.Date `json:"end_date"`
}

func (req budgetRequest) toBudget() (core.Budget, error) {
	cents := int64(0)
	switch {
	case req.AmountCents != nil:
		cents = *req.AmountCents
	case req.Amount != "":
		parsed, err := core.ParseAmountToCents(req.Amount)
		if err != nil {
			return core.Budget{}, err
		}
		cents = parsed
	}

	return core.Budget{
		Name:       req.Name,
		Amount:     core.Money{Cents: cents},
		Period:     core.Period(req.Period),
		CategoryID: req.CategoryID,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
	}, nil
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := s.repo.ListBudgets(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payloads := make([]budgetPayload, len(budgets))
	for i, b := range budgets {
		payloads[i] = toBudgetPayload(b)
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": payloads})
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := req.toBudget()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	id, err := s.repo.CreateBudget(r.Context(), budget)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	created, err := s.repo.GetBudget(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toBudgetPayload(*created))
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := s.repo.GetBudget(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetPayload(*budget))
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget, err := req.toBudget()
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	budget.ID = id

	if err := s.repo.UpdateBudget(r.Context(), budget); err != nil {
		writeDomainError(w, err)
		return
	}

	updated, err := s.repo.GetBudget(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBudgetPayload(*updated))
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.DeleteBudget(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleBudgetSummary reports each budget's spending for the period
// containing today.
func (s *Server) handleBudgetSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.budgets.Summary(r.Context(), time.Now())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payloads := make([]budgetProgressPayload, len(summary))
	for i, p := range summary {
		payloads[i] = toBudgetProgressPayload(p)
	}
	writeJSON(w, http.StatusOK, map[string]any{"budgets": payloads})
}
