package http

import (
	"net/http"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
)

type ruleRequest struct {
	Priority   int    `json:"priority"`
	MatchField string `json:"match_field"`
	MatchType  string `json:"match_type"`
	Pattern    string `json:"pattern"`
	CategoryID int64  `json:"category_id"`
}

func (s *Server) handleListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := s.repo.ListRules(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	payloads := make([]rulePayload, len(rules))
	for i, rule := range rules {
		payloads[i] = toRulePayload(rule)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": payloads})
}

// handleCreateRule stores a rule and queues a recategorize pass over
// uncategorized transactions so the new rule takes effect.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req ruleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rule := core.Rule{
		Priority:   req.Priority,
		MatchField: core.MatchField(req.MatchField),
		MatchType:  core.MatchType(req.MatchType),
		Pattern:    req.Pattern,
		CategoryID: req.CategoryID,
	}

	id, err := s.repo.CreateRule(r.Context(), rule)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if err := s.transactions.RequestRecategorize(r.Context(), amqp.ScopeUncategorized, id); err != nil {
		// The rule is stored either way; the periodic scan will pick it up.
		s.logger.WarnContext(r.Context(), "Recategorize request failed after rule create",
			"rule_id", id, "error", err)
	}
	s.invalidateReports()

	created, err := s.repo.GetRule(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRulePayload(*created))
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.repo.DeleteRule(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
