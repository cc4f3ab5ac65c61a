package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

type RuleHandler struct {
	rules store.RuleStore
}

func NewRuleHandler(rules store.RuleStore) *RuleHandler {
	return &RuleHandler{rules: rules}
}

// ListRules handles GET /api/rules; an optional ?sender= filters by the
// shared substring matching.
func (h *RuleHandler) ListRules(c *gin.Context) {
	rules, err := h.rules.ListRulesBySender(c.Request.Context(), c.Query("sender"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch rules"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

type createRuleRequest struct {
	Sender        string                    `json:"sender" binding:"required"`
	SemanticType  string                    `json:"semantic_type"`
	Action        string                    `json:"action"`
	GranularRules []model.GranularCondition `json:"granular_rules"`
}

// CreateRule handles POST /api/rules for manual rule creation. The request
// must carry exactly one form: semantic_type+action, or granular_rules.
func (h *RuleHandler) CreateRule(c *gin.Context) {
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	simple := req.SemanticType != "" && req.Action != ""
	granular := len(req.GranularRules) > 0
	if simple == granular {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rule must be either simple (semantic_type + action) or granular (granular_rules), not both"})
		return
	}

	var rule *model.Rule
	if simple {
		rule = model.NewSimpleRule(req.Sender, model.SemanticType(req.SemanticType), model.ActionType(req.Action), model.CreatedViaManual)
	} else {
		rule = model.NewGranularRule(req.Sender, req.GranularRules, model.CreatedViaManual)
	}

	if err := h.rules.CreateRule(c.Request.Context(), rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create rule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// PauseRule handles POST /api/rules/:id/pause.
func (h *RuleHandler) PauseRule(c *gin.Context) {
	h.setStatus(c, model.RuleStatusPaused)
}

// ResumeRule handles POST /api/rules/:id/resume. Resuming also clears any
// pause window so the rule is immediately eligible again.
func (h *RuleHandler) ResumeRule(c *gin.Context) {
	h.setStatus(c, model.RuleStatusActive)
}

func (h *RuleHandler) setStatus(c *gin.Context, status model.RuleStatus) {
	rule, err := h.rules.UpdateRule(c.Request.Context(), c.Param("id"), func(r *model.Rule) error {
		r.Status = status
		if status == model.RuleStatusActive {
			r.PausedUntil = nil
		}
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update rule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule handles DELETE /api/rules/:id.
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	err := h.rules.DeleteRule(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "rule not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete rule"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
