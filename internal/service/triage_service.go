package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/mq"
	"mailtriage/internal/store"
	"mailtriage/pkg/logger"
	"mailtriage/pkg/metrics"
)

// Publisher is the slice of the MQ producer the triage pipeline needs.
type Publisher interface {
	Publish(routingKey string, payload any) error
}

// TriageService runs the per-email decision: ask the matcher which rule
// applies, persist the recommendation on the email, announce the outcome.
type TriageService struct {
	emails   store.EmailStore
	matcher  *Matcher
	producer Publisher
	logger   *zap.Logger
}

func NewTriageService(emails store.EmailStore, matcher *Matcher, producer Publisher, logger *zap.Logger) *TriageService {
	return &TriageService{
		emails:   emails,
		matcher:  matcher,
		producer: producer,
		logger:   logger,
	}
}

// Intake stores a freshly received email and publishes email.received so the
// worker picks it up for triage.
func (s *TriageService) Intake(ctx context.Context, e *model.InboundEmail) (string, error) {
	if e.ID == "" {
		e.ID = model.NewEmailID()
	}
	e.Status = model.EmailStatusReceived
	if e.ReceivedAt.IsZero() {
		e.ReceivedAt = time.Now()
	}

	if err := s.emails.CreateEmail(ctx, e); err != nil {
		return "", err
	}

	payload := mq.EmailReceivedPayload{
		EmailID:      e.ID,
		Sender:       e.Sender,
		Subject:      e.Subject,
		SemanticType: string(e.SemanticType),
		ReceivedAt:   e.ReceivedAt,
	}
	if err := s.producer.Publish(mq.RoutingKeyEmailReceived, payload); err != nil {
		return "", err
	}
	return e.ID, nil
}

// Triage decides the action for one email and records it. Idempotency is the
// caller's concern (the worker dedups deliveries); a second triage of the
// same email would increment the winning rule's counter again.
func (s *TriageService) Triage(ctx context.Context, emailID, sender string, semanticType model.SemanticType) error {
	start := time.Now()

	result, err := s.matcher.Match(ctx, sender, semanticType)
	if err != nil {
		metrics.IncrementEmailTriaged("error")
		return err
	}

	var rec *model.Recommendation
	outcome := "no_match"
	if result != nil {
		rec = &model.Recommendation{Action: result.Action, RuleID: result.RuleID}
		outcome = "automated"
	}

	if err := s.emails.SetRecommendation(ctx, emailID, rec); err != nil {
		metrics.IncrementEmailTriaged("error")
		return err
	}

	triaged := mq.EmailTriagedPayload{
		EmailID:   emailID,
		TriagedAt: time.Now(),
	}
	if rec != nil {
		triaged.Action = string(rec.Action)
		triaged.RuleID = rec.RuleID
	}
	if err := s.producer.Publish(mq.RoutingKeyEmailTriaged, triaged); err != nil {
		// The recommendation is already persisted; losing the announcement
		// is log-worthy but not a reason to nack and re-triage.
		s.logger.Warn("failed to publish triage outcome",
			zap.String("email_id", emailID),
			zap.Error(err),
		)
	}

	metrics.IncrementEmailTriaged(outcome)
	metrics.RecordTriageDuration(time.Since(start))

	logger.WithTrace(ctx, s.logger).Info("email triaged",
		zap.String("email_id", emailID),
		zap.String("outcome", outcome),
	)
	return nil
}
