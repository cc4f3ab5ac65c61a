package model

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type RuleStatus string

const (
	RuleStatusActive RuleStatus = "active"
	RuleStatusPaused RuleStatus = "paused"
)

type ActionType string

const (
	ActionArchive       ActionType = "archive"
	ActionDelete        ActionType = "delete"
	ActionKeep          ActionType = "keep"
	ActionMarkImportant ActionType = "mark_important"
	ActionLabel         ActionType = "label"
)

type SemanticType string

const (
	SemanticInvoice      SemanticType = "invoice"
	SemanticMarketing    SemanticType = "marketing"
	SemanticNewsletter   SemanticType = "newsletter"
	SemanticNotification SemanticType = "notification"
	SemanticUpdate       SemanticType = "update"
	SemanticSecurity     SemanticType = "security"
)

type CreatedVia string

const (
	CreatedViaLearned        CreatedVia = "learned"
	CreatedViaConversational CreatedVia = "conversational"
	CreatedViaManual         CreatedVia = "manual"
)

// SimpleSpec is the payload of a non-granular rule: one semantic type
// mapped to one action.
type SimpleSpec struct {
	SemanticType SemanticType `json:"semantic_type"`
	Action       ActionType   `json:"action"`
}

// GranularCondition is one prioritized condition→action entry of a
// granular rule. Higher priority wins.
type GranularCondition struct {
	Condition ConditionSpec `json:"condition"`
	Action    ActionType    `json:"action"`
	Priority  int           `json:"priority"`
}

type ConditionSpec struct {
	SemanticType SemanticType `json:"semantic_type"`
}

// Rule is a standing automation directive for one sender. Exactly one of
// Simple / Granular is set; use NewSimpleRule or NewGranularRule so the
// invariant holds by construction.
type Rule struct {
	ID           string
	Sender       string
	Simple       *SimpleSpec
	Granular     []GranularCondition
	Status       RuleStatus
	PausedUntil  *time.Time
	TimesApplied int
	CreatedVia   CreatedVia
	CreatedAt    time.Time
}

func NewSimpleRule(sender string, semanticType SemanticType, action ActionType, via CreatedVia) *Rule {
	return &Rule{
		ID:         NewRuleID(),
		Sender:     sender,
		Simple:     &SimpleSpec{SemanticType: semanticType, Action: action},
		Status:     RuleStatusActive,
		CreatedVia: via,
		CreatedAt:  time.Now(),
	}
}

func NewGranularRule(sender string, conditions []GranularCondition, via CreatedVia) *Rule {
	return &Rule{
		ID:         NewRuleID(),
		Sender:     sender,
		Granular:   conditions,
		Status:     RuleStatusActive,
		CreatedVia: via,
		CreatedAt:  time.Now(),
	}
}

func NewRuleID() string {
	return "rule_" + newID()
}

// newID 时间戳加随机后缀，同一纳秒内创建也不会撞号
func newID() string {
	b := make([]byte, 4)
	rand.Read(b)
	return fmt.Sprintf("%d_%s", time.Now().UnixNano(), hex.EncodeToString(b))
}

func (r *Rule) IsGranular() bool {
	return r.Simple == nil
}

// PausedAt reports whether the rule is inactive at the given instant.
// A pause window in the future overrides status; an expired window does
// not reactivate a rule explicitly set to paused by the user.
func (r *Rule) PausedAt(now time.Time) bool {
	if r.Status == RuleStatusPaused {
		return true
	}
	return r.PausedUntil != nil && r.PausedUntil.After(now)
}

// Clone returns a deep copy so store snapshots cannot be mutated by callers.
func (r *Rule) Clone() *Rule {
	c := *r
	if r.Simple != nil {
		s := *r.Simple
		c.Simple = &s
	}
	if r.Granular != nil {
		c.Granular = make([]GranularCondition, len(r.Granular))
		copy(c.Granular, r.Granular)
	}
	if r.PausedUntil != nil {
		t := *r.PausedUntil
		c.PausedUntil = &t
	}
	return &c
}

// SenderMatches is the single substring comparison used everywhere a sender
// term is matched against a rule's sender field (triage, bulk commands,
// listings). Case-insensitive containment in either direction, so a domain
// rule like "csob.cz" matches "info@csob.cz" and vice versa.
func SenderMatches(ruleSender, term string) bool {
	a := strings.ToLower(strings.TrimSpace(ruleSender))
	b := strings.ToLower(strings.TrimSpace(term))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// MarshalJSON flattens the simple/granular variant into the wire shape the
// dashboard consumes.
func (r *Rule) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"rule_id":       r.ID,
		"sender":        r.Sender,
		"status":        r.Status,
		"paused_until":  r.PausedUntil,
		"times_applied": r.TimesApplied,
		"created_via":   r.CreatedVia,
		"created_at":    r.CreatedAt,
		"is_granular":   r.IsGranular(),
	}
	if r.Simple != nil {
		out["semantic_type"] = r.Simple.SemanticType
		out["action"] = r.Simple.Action
	}
	if r.Granular != nil {
		out["granular_rules"] = r.Granular
	}
	return json.Marshal(out)
}
