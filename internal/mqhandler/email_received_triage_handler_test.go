package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/mq"
	"mailtriage/internal/service"
	"mailtriage/internal/store"
	pkgmq "mailtriage/pkg/mq"
	"mailtriage/pkg/util"
)

// testDeduper points at a closed port; the deduper fails open, so every
// acquire succeeds and release is a no-op warn.
func testDeduper() *util.Deduper {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	return util.NewDeduper(rdb, time.Minute, zap.NewNop())
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) error { return nil }

type failingEmailStore struct {
	*store.Memory
}

func (f *failingEmailStore) SetRecommendation(context.Context, string, *model.Recommendation) error {
	return errors.New("db down")
}

func newTriageHandler(t *testing.T, emails store.EmailStore, rules *store.Memory) *EmailReceivedTriageHandler {
	t.Helper()
	logger := zap.NewNop()
	triage := service.NewTriageService(emails, service.NewMatcher(rules, logger), nopPublisher{}, logger)
	return NewEmailReceivedTriageHandler(triage, testDeduper(), logger)
}

func receivedEvent(t *testing.T, emailID, sender, semanticType string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(mq.EmailReceivedPayload{
		EmailID:      emailID,
		Sender:       sender,
		SemanticType: semanticType,
		ReceivedAt:   time.Now(),
	})
	require.NoError(t, err)
	return raw
}

func TestHandleEmailReceived(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	require.NoError(t, st.CreateRule(ctx, model.NewSimpleRule("shop.cz", model.SemanticMarketing, model.ActionDelete, model.CreatedViaLearned)))
	require.NoError(t, st.CreateEmail(ctx, &model.InboundEmail{ID: "mail_1", Sender: "promo@shop.cz"}))
	h := newTriageHandler(t, st, st)

	require.NoError(t, h.HandleEmailReceived(ctx, receivedEvent(t, "mail_1", "promo@shop.cz", "marketing")))

	stored, err := st.GetEmail(ctx, "mail_1")
	require.NoError(t, err)
	assert.Equal(t, model.EmailStatusTriaged, stored.Status)
	require.NotNil(t, stored.Recommendation)
	assert.Equal(t, model.ActionDelete, stored.Recommendation.Action)
}

func TestHandleEmailReceivedMalformedGoesToDLQ(t *testing.T) {
	st := store.NewMemory()
	h := newTriageHandler(t, st, st)

	err := h.HandleEmailReceived(context.Background(), json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgmq.ErrNonRetryable)
	assert.False(t, pkgmq.Retryable(err))
}

func TestHandleEmailReceivedUnknownEmailGoesToDLQ(t *testing.T) {
	st := store.NewMemory()
	h := newTriageHandler(t, st, st)

	err := h.HandleEmailReceived(context.Background(), receivedEvent(t, "mail_missing", "a@x.com", "update"))
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgmq.ErrNonRetryable)
}

func TestHandleEmailReceivedTransientFailureRetries(t *testing.T) {
	ctx := context.Background()
	rules := store.NewMemory()
	emails := &failingEmailStore{Memory: store.NewMemory()}
	require.NoError(t, emails.CreateEmail(ctx, &model.InboundEmail{ID: "mail_2", Sender: "a@x.com"}))
	h := newTriageHandler(t, emails, rules)

	// A store failure must surface as retryable so the consumer requeues.
	err := h.HandleEmailReceived(ctx, receivedEvent(t, "mail_2", "a@x.com", "update"))
	require.Error(t, err)
	assert.True(t, pkgmq.Retryable(err))
}

func TestHandleProposalCreated(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	h := NewProposalCreatedHandler(st, testDeduper(), zap.NewNop())

	raw, err := json.Marshal(mq.ProposalCreatedPayload{
		ProposalID:     "prop_7",
		Sender:         "billing@company.com",
		SemanticType:   "invoice",
		ProposedAction: "archive",
		Confidence:     0.9,
		SampleCount:    5,
		CreatedAt:      time.Now(),
	})
	require.NoError(t, err)
	require.NoError(t, h.HandleProposalCreated(ctx, raw))

	pending, err := st.ListPendingProposals(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "prop_7", pending[0].ID)
	assert.Equal(t, model.ProposalStatusPending, pending[0].Status)

	err = h.HandleProposalCreated(ctx, json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.ErrorIs(t, err, pkgmq.ErrNonRetryable)
}
