package main

import (
	"time"

	"go.uber.org/zap"

	"mailtriage/config"
	"mailtriage/internal/db"
	internalmq "mailtriage/internal/mq"
	"mailtriage/internal/mqhandler"
	"mailtriage/internal/repository"
	"mailtriage/internal/service"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/mq"
	redisclient "mailtriage/pkg/redis"
	"mailtriage/pkg/util"
)

func main() {
	// Load config
	cfg := config.Load()

	log := logger.New()
	defer log.Sync()

	log.Info("Starting triage worker...")

	// Init Redis
	rdb := redisclient.NewClient(cfg.Redis)
	defer rdb.Close()

	deduper := util.NewDeduper(rdb, time.Hour, log)

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	// Init repositories
	ruleRepo := repository.NewRuleRepository(dbConn)
	proposalRepo := repository.NewProposalRepository(dbConn)
	emailRepo := repository.NewEmailRepository(dbConn)

	// Init publisher for email.triaged events
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("failed to init publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Init services and handlers
	matcher := service.NewMatcher(ruleRepo, log)
	triageService := service.NewTriageService(emailRepo, matcher, publisher, log)
	triageHandler := mqhandler.NewEmailReceivedTriageHandler(triageService, deduper, log)
	proposalHandler := mqhandler.NewProposalCreatedHandler(proposalRepo, deduper, log)

	// (1) Consumer for triage
	consumerTriage, err := mq.NewConsumer(cfg.MQ.URL, "email.received.triage.q", internalmq.RoutingKeyEmailReceived, log)
	if err != nil {
		log.Fatal("failed to init triage consumer", zap.Error(err))
	}
	consumerTriage.SetHandler(triageHandler.HandleEmailReceived)
	go func() {
		if err := consumerTriage.StartConsuming(); err != nil {
			log.Fatal("triage consumer failed", zap.Error(err))
		}
	}()
	defer consumerTriage.Close()

	// (2) Consumer for proposal intake
	consumerProposal, err := mq.NewConsumer(cfg.MQ.URL, "proposal.created.intake.q", internalmq.RoutingKeyProposalCreated, log)
	if err != nil {
		log.Fatal("failed to init proposal consumer", zap.Error(err))
	}
	consumerProposal.SetHandler(proposalHandler.HandleProposalCreated)
	go func() {
		if err := consumerProposal.StartConsuming(); err != nil {
			log.Fatal("proposal consumer failed", zap.Error(err))
		}
	}()
	defer consumerProposal.Close()

	log.Info("All consumers started, worker is ready to process messages")

	// Keep worker running
	select {}
}
