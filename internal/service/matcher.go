package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
	"mailtriage/pkg/metrics"
)

// MatchResult names the action a single applicable rule selected for an
// email, plus which rule decided it.
type MatchResult struct {
	Action model.ActionType
	RuleID string
}

// candidate is one (action, priority) contribution during selection. Simple
// rules contribute at priority 0, granular entries at their own priority.
type candidate struct {
	action   model.ActionType
	priority int
	ruleID   string
}

// Matcher decides which rule, if any, applies to an inbound email.
type Matcher struct {
	rules  store.RuleStore
	logger *zap.Logger
	now    func() time.Time
}

func NewMatcher(rules store.RuleStore, logger *zap.Logger) *Matcher {
	return &Matcher{
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// Match returns the single applicable action for the email's sender and
// semantic type, or (nil, nil) when no rule applies. The winning rule's
// applied counter is incremented exactly once.
//
// Selection: rules whose sender field matches the address (substring, either
// direction), minus rules currently paused; simple rules contribute their
// pair at priority 0, granular rules every entry whose condition matches;
// highest priority wins, ties keep the first in rule-then-entry order.
func (m *Matcher) Match(ctx context.Context, sender string, semanticType model.SemanticType) (*MatchResult, error) {
	// An empty sender must be NoMatch. The store treats an empty term as
	// "list everything", which is right for listings but would match every
	// rule here.
	if strings.TrimSpace(sender) == "" {
		return nil, nil
	}

	matched, err := m.rules.ListRulesBySender(ctx, sender)
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}

	now := m.now()
	var best *candidate
	for _, r := range matched {
		if r.PausedAt(now) {
			continue
		}
		if r.IsGranular() {
			for _, g := range r.Granular {
				if g.Condition.SemanticType == semanticType {
					best = better(best, candidate{action: g.Action, priority: g.Priority, ruleID: r.ID})
				}
			}
			continue
		}
		if r.Simple.SemanticType == semanticType {
			best = better(best, candidate{action: r.Simple.Action, priority: 0, ruleID: r.ID})
		}
	}

	if best == nil {
		return nil, nil
	}

	if err := m.rules.IncrementTimesApplied(ctx, best.ruleID); err != nil {
		return nil, err
	}
	metrics.IncrementRuleMatched(string(best.action))

	m.logger.Debug("rule matched",
		zap.String("sender", sender),
		zap.String("semantic_type", string(semanticType)),
		zap.String("rule_id", best.ruleID),
		zap.String("action", string(best.action)),
	)
	return &MatchResult{Action: best.action, RuleID: best.ruleID}, nil
}

// better keeps the current winner on ties, so earlier rules and earlier
// granular entries win over later ones with equal priority.
func better(cur *candidate, next candidate) *candidate {
	if cur == nil || next.priority > cur.priority {
		return &next
	}
	return cur
}
