package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mailtriage/internal/service"
)

type ChatHandler struct {
	commands *service.CommandService
}

func NewChatHandler(commands *service.CommandService) *ChatHandler {
	return &ChatHandler{commands: commands}
}

// SubmitCommand handles POST /api/chat/command. The intent tag in the
// response is diagnostic only; the chat surface displays response_text.
func (h *ChatHandler) SubmitCommand(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.commands.Submit(c.Request.Context(), req.Text)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to execute command"})
		return
	}

	c.JSON(http.StatusOK, result)
}
