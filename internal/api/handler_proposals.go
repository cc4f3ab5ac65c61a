package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/model"
	"mailtriage/internal/service"
	"mailtriage/internal/store"
)

type ProposalHandler struct {
	proposalService *service.ProposalService
	proposals       store.ProposalStore
}

func NewProposalHandler(proposalService *service.ProposalService, proposals store.ProposalStore) *ProposalHandler {
	return &ProposalHandler{
		proposalService: proposalService,
		proposals:       proposals,
	}
}

// ListPending handles GET /api/proposals
func (h *ProposalHandler) ListPending(c *gin.Context) {
	proposals, err := h.proposalService.ListPending(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch proposals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// Approve handles POST /api/proposals/:id/approve; it returns the rule the
// proposal became.
func (h *ProposalHandler) Approve(c *gin.Context) {
	rule, err := h.proposalService.Approve(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to approve proposal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// Reject handles POST /api/proposals/:id/reject
func (h *ProposalHandler) Reject(c *gin.Context) {
	err := h.proposalService.Reject(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject proposal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rejected": true})
}

type createProposalRequest struct {
	Sender         string   `json:"sender" binding:"required"`
	SenderDomain   string   `json:"sender_domain"`
	SemanticType   string   `json:"semantic_type" binding:"required"`
	ProposedAction string   `json:"proposed_action" binding:"required"`
	Confidence     float64  `json:"confidence"`
	SampleCount    int      `json:"sample_count"`
	SampleSubjects []string `json:"sample_subjects"`
}

// Create handles POST /api/proposals. Proposals normally arrive over MQ from
// the pattern classifier; this endpoint exists for development and backfill.
func (h *ProposalHandler) Create(c *gin.Context) {
	var req createProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	p := &model.Proposal{
		ID:             model.NewProposalID(),
		Sender:         req.Sender,
		SenderDomain:   req.SenderDomain,
		SemanticType:   model.SemanticType(req.SemanticType),
		ProposedAction: model.ActionType(req.ProposedAction),
		Confidence:     req.Confidence,
		SampleCount:    req.SampleCount,
		SampleSubjects: req.SampleSubjects,
		CreatedAt:      time.Now(),
		Status:         model.ProposalStatusPending,
	}
	if err := h.proposals.CreateProposal(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create proposal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"proposal": p})
}
