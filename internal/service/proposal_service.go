package service

import (
	"context"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

// ProposalService exposes the approve/reject surface over pending rule
// proposals. Proposals themselves arrive from the external pattern
// classifier; this core never creates their content.
type ProposalService struct {
	proposals store.ProposalStore
	logger    *zap.Logger
}

func NewProposalService(proposals store.ProposalStore, logger *zap.Logger) *ProposalService {
	return &ProposalService{
		proposals: proposals,
		logger:    logger,
	}
}

func (s *ProposalService) ListPending(ctx context.Context) ([]*model.Proposal, error) {
	return s.proposals.ListPendingProposals(ctx)
}

// Approve converts the proposal 1:1 into a new active rule. The store makes
// the removal and the creation one atomic step.
func (s *ProposalService) Approve(ctx context.Context, id string) (*model.Rule, error) {
	rule, err := s.proposals.ApproveProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("proposal approved",
		zap.String("proposal_id", id),
		zap.String("rule_id", rule.ID),
		zap.String("sender", rule.Sender),
	)
	return rule, nil
}

// Reject discards the proposal; no rule is created.
func (s *ProposalService) Reject(ctx context.Context, id string) error {
	if err := s.proposals.RejectProposal(ctx, id); err != nil {
		return err
	}
	s.logger.Info("proposal rejected", zap.String("proposal_id", id))
	return nil
}
