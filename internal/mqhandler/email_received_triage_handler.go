package mqhandler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/mq"
	"mailtriage/internal/service"
	"mailtriage/internal/store"
	pkgmq "mailtriage/pkg/mq"
	"mailtriage/pkg/util"
)

// EmailReceivedTriageHandler consumes email.received events and runs triage.
// Deduped per email id: a redelivered event must not double-count a rule's
// applications.
type EmailReceivedTriageHandler struct {
	triage  *service.TriageService
	deduper *util.Deduper
	logger  *zap.Logger
}

func NewEmailReceivedTriageHandler(triage *service.TriageService, deduper *util.Deduper, logger *zap.Logger) *EmailReceivedTriageHandler {
	return &EmailReceivedTriageHandler{
		triage:  triage,
		deduper: deduper,
		logger:  logger,
	}
}

func (h *EmailReceivedTriageHandler) HandleEmailReceived(ctx context.Context, raw json.RawMessage) error {
	var p mq.EmailReceivedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		// 数据格式错误，重试也没用 → DLQ
		h.logger.Error("Malformed email.received payload", zap.Error(err))
		return fmt.Errorf("unmarshal email.received: %v: %w", err, pkgmq.ErrNonRetryable)
	}

	if !h.deduper.AcquireOnce(ctx, "triage", p.EmailID) {
		return nil
	}

	err := h.triage.Triage(ctx, p.EmailID, p.Sender, model.SemanticType(p.SemanticType))
	if errors.Is(err, store.ErrNotFound) {
		// 邮件不存在 — 不可重试
		h.logger.Warn("Email not found for triage", zap.String("email_id", p.EmailID))
		return fmt.Errorf("email %s not found: %w", p.EmailID, pkgmq.ErrNonRetryable)
	}
	if err != nil {
		// Transient failure: the delivery gets requeued, so the dedup key
		// must not make the retry look like a duplicate.
		h.deduper.Release(ctx, "triage", p.EmailID)
		return err
	}
	return nil
}
