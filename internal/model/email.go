package model

import (
	"time"
)

type EmailStatus string

const (
	EmailStatusReceived EmailStatus = "received"
	EmailStatusTriaged  EmailStatus = "triaged"
)

// InboundEmail is an email handed to the triage core by the inbox
// collaborator. Only Sender and SemanticType drive matching; the rest is
// display data carried through untouched.
type InboundEmail struct {
	ID           string       `json:"email_id"`
	Sender       string       `json:"sender"`
	SenderName   string       `json:"sender_name"`
	Subject      string       `json:"subject"`
	Snippet      string       `json:"snippet"`
	SemanticType SemanticType `json:"semantic_type"`
	Status       EmailStatus  `json:"status"`
	ReceivedAt   time.Time    `json:"received_at"`

	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Recommendation is the triage outcome attached to an email: the action a
// matching rule selected, or nothing when no rule applies.
type Recommendation struct {
	Action ActionType `json:"action"`
	RuleID string     `json:"rule_id"`
}

func NewEmailID() string {
	return "email_" + newID()
}

func (e *InboundEmail) Clone() *InboundEmail {
	c := *e
	if e.Recommendation != nil {
		rec := *e.Recommendation
		c.Recommendation = &rec
	}
	return &c
}
