package model

import (
	"time"
)

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusApproved ProposalStatus = "approved"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// Proposal is a candidate rule produced by the external pattern classifier.
// Immutable except for Status.
type Proposal struct {
	ID             string         `json:"proposal_id"`
	Sender         string         `json:"sender"`
	SenderDomain   string         `json:"sender_domain"`
	SemanticType   SemanticType   `json:"semantic_type"`
	ProposedAction ActionType     `json:"proposed_action"`
	Confidence     float64        `json:"confidence"`
	SampleCount    int            `json:"sample_count"`
	SampleSubjects []string       `json:"sample_subjects"`
	CreatedAt      time.Time      `json:"created_at"`
	Status         ProposalStatus `json:"status"`
}

func NewProposalID() string {
	return "prop_" + newID()
}

// ToRule converts an approved proposal 1:1 into a new active simple rule.
func (p *Proposal) ToRule() *Rule {
	return NewSimpleRule(p.Sender, p.SemanticType, p.ProposedAction, CreatedViaLearned)
}

func (p *Proposal) Clone() *Proposal {
	c := *p
	if p.SampleSubjects != nil {
		c.SampleSubjects = make([]string, len(p.SampleSubjects))
		copy(c.SampleSubjects, p.SampleSubjects)
	}
	return &c
}
