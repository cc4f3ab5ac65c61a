package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSenderMatches(t *testing.T) {
	tests := []struct {
		name       string
		ruleSender string
		term       string
		want       bool
	}{
		{name: "exact", ruleSender: "newsletter@shop.cz", term: "newsletter@shop.cz", want: true},
		{name: "domain term against full address", ruleSender: "newsletter@shop.cz", term: "shop.cz", want: true},
		{name: "full address against domain rule", ruleSender: "shop.cz", term: "newsletter@shop.cz", want: true},
		{name: "case insensitive", ruleSender: "Newsletter@Shop.CZ", term: "shop.cz", want: true},
		{name: "whitespace trimmed", ruleSender: " shop.cz ", term: "shop.cz", want: true},
		{name: "unrelated", ruleSender: "shop.cz", term: "github.com", want: false},
		{name: "empty term never matches", ruleSender: "shop.cz", term: "", want: false},
		{name: "empty rule sender never matches", ruleSender: "", term: "shop.cz", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SenderMatches(tt.ruleSender, tt.term))
		})
	}
}

func TestRulePausedAt(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name        string
		status      RuleStatus
		pausedUntil *time.Time
		want        bool
	}{
		{name: "active without window", status: RuleStatusActive, want: false},
		{name: "active with expired window", status: RuleStatusActive, pausedUntil: &past, want: false},
		{name: "future window overrides active status", status: RuleStatusActive, pausedUntil: &future, want: true},
		{name: "paused without window", status: RuleStatusPaused, want: true},
		{name: "paused stays paused after window expires", status: RuleStatusPaused, pausedUntil: &past, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewSimpleRule("a@x.com", SemanticMarketing, ActionDelete, CreatedViaManual)
			r.Status = tt.status
			r.PausedUntil = tt.pausedUntil
			assert.Equal(t, tt.want, r.PausedAt(now))
		})
	}
}

func TestRuleConstructorsEnforceVariant(t *testing.T) {
	simple := NewSimpleRule("a@x.com", SemanticInvoice, ActionArchive, CreatedViaLearned)
	assert.False(t, simple.IsGranular())
	require.NotNil(t, simple.Simple)
	assert.Nil(t, simple.Granular)
	assert.Equal(t, RuleStatusActive, simple.Status)

	granular := NewGranularRule("b@x.com", []GranularCondition{
		{Condition: ConditionSpec{SemanticType: SemanticMarketing}, Action: ActionDelete, Priority: 100},
	}, CreatedViaConversational)
	assert.True(t, granular.IsGranular())
	assert.Nil(t, granular.Simple)
	require.Len(t, granular.Granular, 1)
}

func TestRuleMarshalJSONFlattensVariant(t *testing.T) {
	simple := NewSimpleRule("a@x.com", SemanticInvoice, ActionArchive, CreatedViaLearned)
	b, err := json.Marshal(simple)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, simple.ID, out["rule_id"])
	assert.Equal(t, false, out["is_granular"])
	assert.Equal(t, "invoice", out["semantic_type"])
	assert.Equal(t, "archive", out["action"])
	assert.NotContains(t, out, "granular_rules")

	granular := NewGranularRule("b@x.com", []GranularCondition{
		{Condition: ConditionSpec{SemanticType: SemanticMarketing}, Action: ActionDelete, Priority: 100},
	}, CreatedViaConversational)
	b, err = json.Marshal(granular)
	require.NoError(t, err)

	out = map[string]any{}
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, true, out["is_granular"])
	assert.NotContains(t, out, "semantic_type")
	entries, ok := out["granular_rules"].([]any)
	require.True(t, ok)
	require.Len(t, entries, 1)
	entry, ok := entries[0].(map[string]any)
	require.True(t, ok)
	cond, ok := entry["condition"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "marketing", cond["semantic_type"])
	assert.Equal(t, float64(100), entry["priority"])
}

func TestIDGenerationIsCollisionFree(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		for _, id := range []string{NewRuleID(), NewProposalID(), NewEmailID()} {
			assert.False(t, seen[id], "duplicate id %s", id)
			seen[id] = true
		}
	}
	assert.True(t, strings.HasPrefix(NewRuleID(), "rule_"))
	assert.True(t, strings.HasPrefix(NewProposalID(), "prop_"))
	assert.True(t, strings.HasPrefix(NewEmailID(), "email_"))
}

func TestProposalToRule(t *testing.T) {
	p := &Proposal{
		ID:             "prop_9",
		Sender:         "billing@company.com",
		SemanticType:   SemanticInvoice,
		ProposedAction: ActionArchive,
		Status:         ProposalStatusPending,
	}
	r := p.ToRule()
	assert.Equal(t, "billing@company.com", r.Sender)
	require.NotNil(t, r.Simple)
	assert.Equal(t, SemanticInvoice, r.Simple.SemanticType)
	assert.Equal(t, ActionArchive, r.Simple.Action)
	assert.Equal(t, CreatedViaLearned, r.CreatedVia)
	assert.Equal(t, RuleStatusActive, r.Status)
	assert.NotEmpty(t, r.ID)
}

func TestValidateIntent(t *testing.T) {
	for _, k := range []IntentKind{
		IntentUnblockSender, IntentPauseRule, IntentResumeRule,
		IntentGranularRule, IntentListRules, IntentDeleteRule, IntentUnknown,
	} {
		assert.NoError(t, ValidateIntent(&Intent{Kind: k}))
	}
	assert.Error(t, ValidateIntent(nil))
	assert.Error(t, ValidateIntent(&Intent{Kind: "reorganize_inbox"}))
}
