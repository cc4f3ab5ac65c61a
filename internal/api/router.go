package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	authHandler *AuthHandler,
	ruleHandler *RuleHandler,
	proposalHandler *ProposalHandler,
	emailHandler *EmailHandler,
	chatHandler *ChatHandler,
	statsHandler *StatsHandler,
	jwtSecret string,
) *Router {
	r := gin.Default()
	r.Use(TraceMiddleware(), MetricsMiddleware())

	// Public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Protected
	auth := r.Group("/api")
	auth.Use(AuthMiddleware(jwtSecret))
	{
		auth.GET("/rules", ruleHandler.ListRules)
		auth.POST("/rules", ruleHandler.CreateRule)
		auth.POST("/rules/:id/pause", ruleHandler.PauseRule)
		auth.POST("/rules/:id/resume", ruleHandler.ResumeRule)
		auth.DELETE("/rules/:id", ruleHandler.DeleteRule)

		auth.GET("/proposals", proposalHandler.ListPending)
		auth.POST("/proposals", proposalHandler.Create)
		auth.POST("/proposals/:id/approve", proposalHandler.Approve)
		auth.POST("/proposals/:id/reject", proposalHandler.Reject)

		auth.POST("/emails", emailHandler.IntakeEmail)
		auth.GET("/emails", emailHandler.ListEmails)
		auth.GET("/emails/:id", emailHandler.GetEmail)

		auth.POST("/chat/command", chatHandler.SubmitCommand)

		auth.GET("/stats", statsHandler.GetStats)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
