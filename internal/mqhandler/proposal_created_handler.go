package mqhandler

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/mq"
	"mailtriage/internal/store"
	pkgmq "mailtriage/pkg/mq"
	"mailtriage/pkg/util"
)

// ProposalCreatedHandler stores rule proposals arriving from the external
// pattern classifier as pending, awaiting human approval.
type ProposalCreatedHandler struct {
	proposals store.ProposalStore
	deduper   *util.Deduper
	logger    *zap.Logger
}

func NewProposalCreatedHandler(proposals store.ProposalStore, deduper *util.Deduper, logger *zap.Logger) *ProposalCreatedHandler {
	return &ProposalCreatedHandler{
		proposals: proposals,
		deduper:   deduper,
		logger:    logger,
	}
}

func (h *ProposalCreatedHandler) HandleProposalCreated(ctx context.Context, raw json.RawMessage) error {
	var p mq.ProposalCreatedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		h.logger.Error("Malformed proposal.created payload", zap.Error(err))
		return fmt.Errorf("unmarshal proposal.created: %v: %w", err, pkgmq.ErrNonRetryable)
	}

	if !h.deduper.AcquireOnce(ctx, "proposal_intake", p.ProposalID) {
		return nil
	}

	proposal := &model.Proposal{
		ID:             p.ProposalID,
		Sender:         p.Sender,
		SenderDomain:   p.SenderDomain,
		SemanticType:   model.SemanticType(p.SemanticType),
		ProposedAction: model.ActionType(p.ProposedAction),
		Confidence:     p.Confidence,
		SampleCount:    p.SampleCount,
		SampleSubjects: p.SampleSubjects,
		CreatedAt:      p.CreatedAt,
		Status:         model.ProposalStatusPending,
	}
	if proposal.ID == "" {
		proposal.ID = model.NewProposalID()
	}

	if err := h.proposals.CreateProposal(ctx, proposal); err != nil {
		h.deduper.Release(ctx, "proposal_intake", p.ProposalID)
		return err
	}

	h.logger.Info("Proposal stored",
		zap.String("proposal_id", proposal.ID),
		zap.String("sender", proposal.Sender),
	)
	return nil
}
