package main

import (
	"go.uber.org/zap"

	"mailtriage/config"
	"mailtriage/internal/api"
	"mailtriage/internal/db"
	"mailtriage/internal/repository"
	"mailtriage/internal/service"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/mq"
	redisclient "mailtriage/pkg/redis"
)

func main() {
	// 1. Load config
	cfg := config.Load()

	log := logger.New()
	defer log.Sync()

	// 2. Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// 3. Init Redis (stats cache)
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	// 4. Init RabbitMQ publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// 5. Init repositories
	userRepo := repository.NewUserRepository(dbConn)
	ruleRepo := repository.NewRuleRepository(dbConn)
	proposalRepo := repository.NewProposalRepository(dbConn)
	emailRepo := repository.NewEmailRepository(dbConn)

	// 6. Init services
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret)
	matcher := service.NewMatcher(ruleRepo, log)
	triageService := service.NewTriageService(emailRepo, matcher, publisher, log)
	proposalService := service.NewProposalService(proposalRepo, log)
	statsService := service.NewStatsService(ruleRepo, proposalRepo, emailRepo, rdb, log)

	// The classifier strategy is optional: without an API key the resolver
	// runs purely on the keyword strategy.
	var classifier service.Strategy
	if cfg.Classifier.APIKey != "" {
		classifier = service.NewClassifierClient(cfg.Classifier.BaseURL, cfg.Classifier.Model, cfg.Classifier.APIKey)
		log.Info("command classifier enabled", zap.String("model", cfg.Classifier.Model))
	}
	resolver := service.NewResolver(classifier, log)
	executor := service.NewExecutor(ruleRepo, log)
	commandService := service.NewCommandService(resolver, executor, log)

	// 7. Init handlers
	authHandler := api.NewAuthHandler(authService)
	ruleHandler := api.NewRuleHandler(ruleRepo)
	proposalHandler := api.NewProposalHandler(proposalService, proposalRepo)
	emailHandler := api.NewEmailHandler(triageService, emailRepo)
	chatHandler := api.NewChatHandler(commandService)
	statsHandler := api.NewStatsHandler(statsService)

	// 8. Init router
	router := api.NewRouter(authHandler, ruleHandler, proposalHandler, emailHandler, chatHandler, statsHandler, cfg.JWT.Secret)

	// 9. Run server
	if err := router.Run(cfg.Server.Port); err != nil {
		log.Fatal("server start failed", zap.Error(err))
	}
}
