package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

func TestStatsSnapshotDerivedFromStores(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	svc := NewStatsService(st, st, st, nil, zap.NewNop())

	// Two rules, one of them paused.
	require.NoError(t, st.CreateRule(ctx, model.NewSimpleRule("a@x.com", model.SemanticMarketing, model.ActionDelete, model.CreatedViaLearned)))
	paused := model.NewSimpleRule("b@x.com", model.SemanticInvoice, model.ActionKeep, model.CreatedViaManual)
	paused.Status = model.RuleStatusPaused
	require.NoError(t, st.CreateRule(ctx, paused))

	require.NoError(t, st.CreateProposal(ctx, &model.Proposal{
		ID:     "prop_1",
		Sender: "c@x.com",
		Status: model.ProposalStatusPending,
	}))

	require.NoError(t, st.CreateEmail(ctx, &model.InboundEmail{ID: "mail_1", Sender: "a@x.com", ReceivedAt: time.Now()}))
	require.NoError(t, st.CreateEmail(ctx, &model.InboundEmail{ID: "mail_2", Sender: "d@y.com", ReceivedAt: time.Now()}))
	require.NoError(t, st.SetRecommendation(ctx, "mail_1", &model.Recommendation{Action: model.ActionDelete, RuleID: "rule_x"}))

	stats, err := svc.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveRules)
	assert.Equal(t, 1, stats.PendingProposals)
	assert.Equal(t, 2, stats.EmailsProcessed)
	assert.Equal(t, 1, stats.ActionsAutomated)
}

func TestStatsSnapshotEmptyStores(t *testing.T) {
	st := store.NewMemory()
	svc := NewStatsService(st, st, st, nil, zap.NewNop())

	stats, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Stats{}, stats)
}
