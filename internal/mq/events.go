package mq

import "time"

// Routing keys on the triage.events exchange.
const (
	RoutingKeyEmailReceived   = "email.received"
	RoutingKeyEmailTriaged    = "email.triaged"
	RoutingKeyProposalCreated = "proposal.created"
)

// EmailReceivedPayload 邮件收到事件的 payload
type EmailReceivedPayload struct {
	EmailID      string    `json:"email_id"`
	Sender       string    `json:"sender"`
	Subject      string    `json:"subject"`
	SemanticType string    `json:"semantic_type"`
	ReceivedAt   time.Time `json:"received_at"`
}

// EmailTriagedPayload 邮件分流完成事件的 payload；Action 为空表示没有命中规则
type EmailTriagedPayload struct {
	EmailID   string    `json:"email_id"`
	Action    string    `json:"action,omitempty"`
	RuleID    string    `json:"rule_id,omitempty"`
	TriagedAt time.Time `json:"triaged_at"`
}

// ProposalCreatedPayload 外部模式分类器产生的规则提案
type ProposalCreatedPayload struct {
	ProposalID     string    `json:"proposal_id"`
	Sender         string    `json:"sender"`
	SenderDomain   string    `json:"sender_domain"`
	SemanticType   string    `json:"semantic_type"`
	ProposedAction string    `json:"proposed_action"`
	Confidence     float64   `json:"confidence"`
	SampleCount    int       `json:"sample_count"`
	SampleSubjects []string  `json:"sample_subjects"`
	CreatedAt      time.Time `json:"created_at"`
}
