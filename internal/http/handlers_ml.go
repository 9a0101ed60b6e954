package http

import (
	"net/http"

	"fintrack/internal/categorize"
	"fintrack/internal/core"
)

// handleMLStatus reports whether a trained classifier is available. The
// current strategy is a placeholder, so this always answers not-trained.
func (s *Server) handleMLStatus(w http.ResponseWriter, r *http.Request) {
	ml := categorize.NewMLStrategy()
	writeJSON(w, http.StatusOK, map[string]any{
		"trained":  ml.Trained(),
		"strategy": "none",
	})
}

type mlPredictRequest struct {
	Description string    `json:"description"`
	Merchant    string    `json:"merchant"`
	Amount      string    `json:"amount"`
	Date        core.Date `json:"date"`
}

func (s *Server) handleMLPredict(w http.ResponseWriter, r *http.Request) {
	var req mlPredictRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx := core.Transaction{
		Description: req.Description,
		Merchant:    req.Merchant,
		Date:        req.Date,
	}
	if req.Amount != "" {
		if cents, err := core.ParseAmountToCents(req.Amount); err == nil {
			tx.Amount = core.Money{Cents: cents}
		}
	}

	categoryID, ok, err := categorize.NewMLStrategy().Classify(r.Context(), tx)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var prediction *int64
	if ok {
		prediction = &categoryID
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category_id": prediction,
		"confidence":  0,
	})
}
