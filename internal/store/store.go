package store

import (
	"context"
	"errors"
	"time"

	"mailtriage/internal/model"
)

// ErrNotFound is returned when an operation references an id that does not
// exist. Repositories translate pgx.ErrNoRows to this so services see one
// sentinel regardless of backend.
var ErrNotFound = errors.New("not found")

// RuleStore holds automation rules. Mutations are atomic with respect to
// concurrent readers; the bulk operations exist so conversational commands
// stay one atomic store call instead of read-modify-write loops.
type RuleStore interface {
	CreateRule(ctx context.Context, r *model.Rule) error
	GetRule(ctx context.Context, id string) (*model.Rule, error)
	ListRules(ctx context.Context) ([]*model.Rule, error)
	// ListRulesBySender filters by the shared case-insensitive substring
	// containment (model.SenderMatches); an empty term returns all rules.
	ListRulesBySender(ctx context.Context, term string) ([]*model.Rule, error)
	UpdateRule(ctx context.Context, id string, mutate func(*model.Rule) error) (*model.Rule, error)
	DeleteRule(ctx context.Context, id string) error
	// DeleteRulesBySender removes every rule matching the term and returns
	// how many were removed. Zero is not an error.
	DeleteRulesBySender(ctx context.Context, term string) (int, error)
	// PauseAllRules pauses every currently active rule until the given time
	// and returns how many were paused.
	PauseAllRules(ctx context.Context, until time.Time) (int, error)
	// IncrementTimesApplied bumps the counter of the rule that just decided
	// an email's action. Exactly one increment per matched email.
	IncrementTimesApplied(ctx context.Context, id string) error
	CountActiveRules(ctx context.Context) (int, error)
}

// ProposalStore holds pending rule proposals. Approve spans proposal removal
// and rule creation atomically: both happen or neither does.
type ProposalStore interface {
	CreateProposal(ctx context.Context, p *model.Proposal) error
	ListPendingProposals(ctx context.Context) ([]*model.Proposal, error)
	ApproveProposal(ctx context.Context, id string) (*model.Rule, error)
	RejectProposal(ctx context.Context, id string) error
	CountPendingProposals(ctx context.Context) (int, error)
}

// EmailStore holds inbound emails and their triage outcomes.
type EmailStore interface {
	CreateEmail(ctx context.Context, e *model.InboundEmail) error
	GetEmail(ctx context.Context, id string) (*model.InboundEmail, error)
	ListEmails(ctx context.Context) ([]*model.InboundEmail, error)
	SetRecommendation(ctx context.Context, id string, rec *model.Recommendation) error
	CountEmails(ctx context.Context) (int, error)
	CountAutomated(ctx context.Context) (int, error)
}
