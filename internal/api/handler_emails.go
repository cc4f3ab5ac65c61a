package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/model"
	"mailtriage/internal/service"
	"mailtriage/internal/store"
)

type EmailHandler struct {
	triage *service.TriageService
	emails store.EmailStore
}

func NewEmailHandler(triage *service.TriageService, emails store.EmailStore) *EmailHandler {
	return &EmailHandler{
		triage: triage,
		emails: emails,
	}
}

type intakeEmailRequest struct {
	Sender       string `json:"sender" binding:"required"`
	SenderName   string `json:"sender_name"`
	Subject      string `json:"subject" binding:"required"`
	Snippet      string `json:"snippet"`
	SemanticType string `json:"semantic_type" binding:"required"`
}

// IntakeEmail handles POST /api/emails: store the email and queue it for
// triage.
func (h *EmailHandler) IntakeEmail(c *gin.Context) {
	var req intakeEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	email := &model.InboundEmail{
		Sender:       req.Sender,
		SenderName:   req.SenderName,
		Subject:      req.Subject,
		Snippet:      req.Snippet,
		SemanticType: model.SemanticType(req.SemanticType),
	}
	emailID, err := h.triage.Intake(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to intake email"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email_id": emailID,
		"status":   "queued",
	})
}

// GetEmail handles GET /api/emails/:id
func (h *EmailHandler) GetEmail(c *gin.Context) {
	email, err := h.emails.GetEmail(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "email not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch email"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"email": email})
}

// ListEmails handles GET /api/emails
func (h *EmailHandler) ListEmails(c *gin.Context) {
	emails, err := h.emails.ListEmails(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch emails"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"emails": emails})
}
