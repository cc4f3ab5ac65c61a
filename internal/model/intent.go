package model

import "fmt"

type IntentKind string

const (
	IntentUnblockSender IntentKind = "unblock_sender"
	IntentPauseRule     IntentKind = "pause_rule"
	IntentResumeRule    IntentKind = "resume_rule"
	IntentGranularRule  IntentKind = "granular_rule"
	IntentListRules     IntentKind = "list_rules"
	IntentDeleteRule    IntentKind = "delete_rule"
	IntentUnknown       IntentKind = "unknown"
)

// SenderUnknown is the sentinel used when a command names no extractable
// sender.
const SenderUnknown = "unknown"

// Intent is the structured result of resolving one free-text command.
// Every resolution strategy must return this exact shape so the executor
// never branches on which strategy produced it.
type Intent struct {
	Kind         IntentKind   `json:"intent"`
	Parameters   IntentParams `json:"parameters"`
	ResponseText string       `json:"response_text"`
}

// IntentParams is the flat parameter object shared by all intents; fields
// not used by a given kind stay empty.
type IntentParams struct {
	Sender       string `json:"sender,omitempty"`
	Action       string `json:"action,omitempty"`
	Duration     string `json:"duration,omitempty"`
	SemanticType string `json:"semantic_type,omitempty"`
}

// ValidateIntent rejects results outside the closed intent set. The resolver
// applies it to classifier output before letting it anywhere near the stores.
func ValidateIntent(in *Intent) error {
	if in == nil {
		return fmt.Errorf("intent is nil")
	}
	switch in.Kind {
	case IntentUnblockSender, IntentPauseRule, IntentResumeRule,
		IntentGranularRule, IntentListRules, IntentDeleteRule, IntentUnknown:
		return nil
	default:
		return fmt.Errorf("unknown intent kind %q", in.Kind)
	}
}
