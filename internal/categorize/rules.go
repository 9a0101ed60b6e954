package categorize

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"fintrack/internal/core"
)

// RuleEngine evaluates an explicitly ordered rule list against a
// transaction. Rules are evaluated in ascending priority order (ties broken
// by rule ID) and the first match wins. The engine holds its own copy of
// the rule set; construct a fresh engine after rules change.
type RuleEngine struct {
	rules []compiledRule
}

type compiledRule struct {
	rule core.Rule
	re   *regexp.Regexp // non-nil only for regex rules
}

// NewRuleEngine compiles and orders the rule set. Rules whose target
// category is not in validCategories are dropped up front (a deleted
// category must never be assigned), and regex rules that fail to compile
// are dropped with a warning rather than failing evaluation later.
func NewRuleEngine(rules []core.Rule, validCategories map[int64]bool) *RuleEngine {
	compiled := make([]compiledRule, 0, len(rules))
	for _, r := range rules {
		if !validCategories[r.CategoryID] {
			slog.Warn("Skipping rule with missing target category",
				"rule_id", r.ID,
				"category_id", r.CategoryID)
			continue
		}
		cr := compiledRule{rule: r}
		if r.MatchType == core.MatchRegex {
			re, err := regexp.Compile("(?i)" + r.Pattern)
			if err != nil {
				slog.Warn("Skipping rule with invalid regex",
					"rule_id", r.ID,
					"pattern", r.Pattern,
					"error", err)
				continue
			}
			cr.re = re
		}
		compiled = append(compiled, cr)
	}

	sort.SliceStable(compiled, func(i, j int) bool {
		a, b := compiled[i].rule, compiled[j].rule
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ID < b.ID
	})

	return &RuleEngine{rules: compiled}
}

// Classify implements Strategy. Description rules are matched against the
// description, the merchant name, and both combined, so a rule written for
// either field keeps working on bank exports that fill only one of them.
func (e *RuleEngine) Classify(_ context.Context, tx core.Transaction) (int64, bool, error) {
	for _, cr := range e.rules {
		if e.matches(cr, tx) {
			return cr.rule.CategoryID, true, nil
		}
	}
	return 0, false, nil
}

func (e *RuleEngine) matches(cr compiledRule, tx core.Transaction) bool {
	if cr.rule.MatchField == core.MatchDescription {
		for _, candidate := range descriptionCandidates(tx) {
			if matchValue(cr, candidate) {
				return true
			}
		}
		return false
	}
	return matchValue(cr, tx.FieldValue(cr.rule.MatchField))
}

func descriptionCandidates(tx core.Transaction) []string {
	out := make([]string, 0, 3)
	if tx.Merchant != "" {
		out = append(out, tx.Merchant)
	}
	if tx.Description != "" {
		out = append(out, tx.Description)
	}
	if tx.Merchant != "" && tx.Description != "" {
		out = append(out, tx.Merchant+" "+tx.Description)
	}
	return out
}

func matchValue(cr compiledRule, value string) bool {
	if value == "" {
		return false
	}
	switch cr.rule.MatchType {
	case core.MatchContains:
		return strings.Contains(strings.ToLower(value), strings.ToLower(cr.rule.Pattern))
	case core.MatchExact:
		return strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(cr.rule.Pattern))
	case core.MatchRegex:
		return cr.re.MatchString(value)
	default:
		return false
	}
}

// Len returns the number of usable rules after compilation.
func (e *RuleEngine) Len() int {
	return len(e.rules)
}
