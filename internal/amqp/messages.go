package amqp

import (
	"encoding/json"
	"time"
)

// Recategorize scopes. ScopeUncategorized re-runs rules only over
// transactions with no category; ScopeAll also revisits categorized ones.
const (
	ScopeUncategorized = "uncategorized"
	ScopeAll           = "all"
)

// RecategorizeMessage asks the worker to re-run the rule engine. The
// message carries only the scope and the triggering rule; the worker loads
// current rules and transactions from the database.
type RecategorizeMessage struct {
	Scope     string    `json:"scope"`
	RuleID    int64     `json:"rule_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecategorizeMessage(scope string, ruleID int64) *RecategorizeMessage {
	return &RecategorizeMessage{
		Scope:     scope,
		RuleID:    ruleID,
		Timestamp: time.Now(),
	}
}

func (m *RecategorizeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecategorizeMessageFromJSON(data []byte) (*RecategorizeMessage, error) {
	var msg RecategorizeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Scope == "" {
		msg.Scope = ScopeUncategorized
	}
	return &msg, nil
}
