package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/service"
	"mailtriage/internal/store"
)

func newProposalRouter(st *store.Memory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewProposalHandler(service.NewProposalService(st, zap.NewNop()), st)
	r := gin.New()
	r.GET("/api/proposals", h.ListPending)
	r.POST("/api/proposals", h.Create)
	r.POST("/api/proposals/:id/approve", h.Approve)
	r.POST("/api/proposals/:id/reject", h.Reject)
	return r
}

func seedProposal(t *testing.T, st *store.Memory) *model.Proposal {
	t.Helper()
	p := &model.Proposal{
		ID:             "prop_42",
		Sender:         "billing@company.com",
		SenderDomain:   "company.com",
		SemanticType:   model.SemanticInvoice,
		ProposedAction: model.ActionArchive,
		Confidence:     0.91,
		SampleCount:    8,
		CreatedAt:      time.Now(),
		Status:         model.ProposalStatusPending,
	}
	require.NoError(t, st.CreateProposal(context.Background(), p))
	return p
}

func TestApproveProposalReturnsRule(t *testing.T) {
	st := store.NewMemory()
	seedProposal(t, st)
	r := newProposalRouter(st)

	w := doJSON(t, r, http.MethodPost, "/api/proposals/prop_42/approve", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Rule map[string]any `json:"rule"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "billing@company.com", resp.Rule["sender"])
	assert.Equal(t, "invoice", resp.Rule["semantic_type"])
	assert.Equal(t, "archive", resp.Rule["action"])
	assert.Equal(t, "learned", resp.Rule["created_via"])

	// A second approve hits nothing.
	w = doJSON(t, r, http.MethodPost, "/api/proposals/prop_42/approve", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRejectProposal(t *testing.T) {
	st := store.NewMemory()
	seedProposal(t, st)
	r := newProposalRouter(st)

	w := doJSON(t, r, http.MethodPost, "/api/proposals/prop_42/reject", nil)
	require.Equal(t, http.StatusOK, w.Code)

	rules, err := st.ListRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)

	w = doJSON(t, r, http.MethodPost, "/api/proposals/prop_42/reject", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateAndListProposals(t *testing.T) {
	st := store.NewMemory()
	r := newProposalRouter(st)

	w := doJSON(t, r, http.MethodPost, "/api/proposals", map[string]any{
		"sender":          "notifications@github.com",
		"sender_domain":   "github.com",
		"semantic_type":   "notification",
		"proposed_action": "archive",
		"confidence":      0.78,
		"sample_count":    15,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, "/api/proposals", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Proposals []map[string]any `json:"proposals"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Proposals, 1)
	assert.Equal(t, "notifications@github.com", resp.Proposals[0]["sender"])
	assert.Equal(t, "pending", resp.Proposals[0]["status"])
}
