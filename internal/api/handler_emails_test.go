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

type captivePublisher struct {
	keys []string
}

func (p *captivePublisher) Publish(routingKey string, _ any) error {
	p.keys = append(p.keys, routingKey)
	return nil
}

func newEmailRouter(st *store.Memory) (*gin.Engine, *captivePublisher) {
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	pub := &captivePublisher{}
	triage := service.NewTriageService(st, service.NewMatcher(st, logger), pub, logger)
	h := NewEmailHandler(triage, st)
	r := gin.New()
	r.POST("/api/emails", h.IntakeEmail)
	r.GET("/api/emails", h.ListEmails)
	r.GET("/api/emails/:id", h.GetEmail)
	return r, pub
}

func TestIntakeEmail(t *testing.T) {
	st := store.NewMemory()
	r, pub := newEmailRouter(st)

	w := doJSON(t, r, http.MethodPost, "/api/emails", map[string]any{
		"sender":        "newsletter@shop.cz",
		"subject":       "Velký výprodej",
		"semantic_type": "marketing",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		EmailID string `json:"email_id"`
		Status  string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.EmailID)
	assert.Equal(t, "queued", resp.Status)
	assert.Equal(t, []string{"email.received"}, pub.keys)

	// Missing sender is rejected before anything is stored.
	w = doJSON(t, r, http.MethodPost, "/api/emails", map[string]any{
		"subject":       "x",
		"semantic_type": "marketing",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEmail(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.CreateEmail(context.Background(), &model.InboundEmail{
		ID:         "mail_1",
		Sender:     "promo@shop.cz",
		Subject:    "Sleva",
		ReceivedAt: time.Now(),
	}))
	r, _ := newEmailRouter(st)

	w := doJSON(t, r, http.MethodGet, "/api/emails/mail_1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Email model.InboundEmail `json:"email"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "promo@shop.cz", resp.Email.Sender)

	w = doJSON(t, r, http.MethodGet, "/api/emails/mail_missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
