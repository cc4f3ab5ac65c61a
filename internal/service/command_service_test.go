package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

func newTestCommandService(t *testing.T) (*CommandService, *store.Memory) {
	t.Helper()
	st := store.NewMemory()
	logger := zap.NewNop()
	return NewCommandService(
		NewResolver(nil, logger),
		NewExecutor(st, logger),
		logger,
	), st
}

func TestCommandServiceUnblockEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestCommandService(t)

	require.NoError(t, st.CreateRule(ctx, model.NewSimpleRule("newsletter@shop.cz", model.SemanticMarketing, model.ActionDelete, model.CreatedViaLearned)))
	require.NoError(t, st.CreateRule(ctx, model.NewSimpleRule("billing@other.com", model.SemanticInvoice, model.ActionKeep, model.CreatedViaManual)))

	res, err := svc.Submit(ctx, "zruš pravidla pro shop.cz")
	require.NoError(t, err)
	assert.Equal(t, model.IntentUnblockSender, res.Intent)
	assert.Contains(t, res.ResponseText, "shop.cz")

	rules, err := st.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "billing@other.com", rules[0].Sender)
}

func TestCommandServicePauseEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestCommandService(t)

	require.NoError(t, st.CreateRule(ctx, model.NewSimpleRule("a@x.com", model.SemanticMarketing, model.ActionDelete, model.CreatedViaLearned)))

	res, err := svc.Submit(ctx, "pozastav vše")
	require.NoError(t, err)
	assert.Equal(t, model.IntentPauseRule, res.Intent)

	rules, err := st.ListRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, model.RuleStatusPaused, rules[0].Status)
	assert.NotNil(t, rules[0].PausedUntil)
}

func TestCommandServiceUnknownStillAnswers(t *testing.T) {
	svc, _ := newTestCommandService(t)

	res, err := svc.Submit(context.Background(), "asdfgh qwerty")
	require.NoError(t, err)
	assert.Equal(t, model.IntentUnknown, res.Intent)
	assert.NotEmpty(t, res.ResponseText)
}

func TestCommandServiceCancelledContextAppliesNothing(t *testing.T) {
	svc, st := newTestCommandService(t)

	require.NoError(t, st.CreateRule(context.Background(), model.NewSimpleRule("newsletter@shop.cz", model.SemanticMarketing, model.ActionDelete, model.CreatedViaLearned)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Submit(ctx, "zruš pravidla pro shop.cz")
	assert.Error(t, err)

	rules, err := st.ListRules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 1)
}
