package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

// defaultPauseWindow is the fixed window applied when a pause command names
// no reliable duration. Free-text durations are not trusted; two weeks is
// the minimal safe interpretation.
const defaultPauseWindow = 14 * 24 * time.Hour

// Executor applies a resolved Intent to the rule store and produces the
// confirmation text shown in chat. It never learns which strategy produced
// the intent.
type Executor struct {
	rules  store.RuleStore
	logger *zap.Logger
	now    func() time.Time
}

func NewExecutor(rules store.RuleStore, logger *zap.Logger) *Executor {
	return &Executor{
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// Execute runs the state transition for one intent. Malformed intents are
// rejected before any mutation; intents the core does not act on yet return
// a visibly "acknowledged, not actionable" confirmation instead of
// pretending success.
func (e *Executor) Execute(ctx context.Context, intent *model.Intent) (string, error) {
	if err := model.ValidateIntent(intent); err != nil {
		return "", err
	}

	switch intent.Kind {
	case model.IntentUnblockSender:
		return e.unblockSender(ctx, intent)
	case model.IntentPauseRule:
		return e.pauseAll(ctx, intent)
	case model.IntentListRules:
		return e.listRules(ctx, intent)
	case model.IntentGranularRule:
		// Building a correct multi-condition rule needs per-type actions the
		// utterance does not reliably carry, so this stays a no-op
		// acknowledgement for now.
		return intent.ResponseText, nil
	case model.IntentDeleteRule, model.IntentResumeRule:
		return "🛠️ Tuhle akci zatím neumím provést automaticky. Pravidlo můžeš upravit ručně v záložce Pravidla.", nil
	default: // model.IntentUnknown
		return intent.ResponseText, nil
	}
}

// unblockSender deletes every rule whose sender matches the term. Zero
// matches still confirms success: repeating the command must stay a
// predictable no-op.
func (e *Executor) unblockSender(ctx context.Context, intent *model.Intent) (string, error) {
	sender := strings.TrimSpace(intent.Parameters.Sender)
	if sender == "" || sender == model.SenderUnknown {
		// No usable sender term; deleting by a sentinel would hit rules the
		// user never named.
		return intent.ResponseText, nil
	}

	n, err := e.rules.DeleteRulesBySender(ctx, sender)
	if err != nil {
		return "", err
	}
	e.logger.Info("unblocked sender",
		zap.String("sender", sender),
		zap.Int("rules_removed", n),
	)
	return intent.ResponseText, nil
}

// pauseAll pauses every active rule for the default window. The command has
// no explicit target, so the whole rule set is the target; see the stats tab
// for which rules are affected.
func (e *Executor) pauseAll(ctx context.Context, intent *model.Intent) (string, error) {
	until := e.now().Add(defaultPauseWindow)
	n, err := e.rules.PauseAllRules(ctx, until)
	if err != nil {
		return "", err
	}
	e.logger.Info("paused all rules",
		zap.Int("rules_paused", n),
		zap.Time("paused_until", until),
	)
	return intent.ResponseText, nil
}

// listRules is read-only and shares the store's substring matching, so what
// a listing shows is exactly what a bulk command would hit.
func (e *Executor) listRules(ctx context.Context, intent *model.Intent) (string, error) {
	rules, err := e.rules.ListRulesBySender(ctx, intent.Parameters.Sender)
	if err != nil {
		return "", err
	}
	if len(rules) == 0 {
		return intent.ResponseText + "\nŽádná pravidla nenalezena.", nil
	}

	var b strings.Builder
	b.WriteString(intent.ResponseText)
	for _, r := range rules {
		b.WriteString("\n• ")
		b.WriteString(describeRule(r))
	}
	return b.String(), nil
}

func describeRule(r *model.Rule) string {
	status := string(r.Status)
	if r.IsGranular() {
		return fmt.Sprintf("%s: %d podmínek (%s)", r.Sender, len(r.Granular), status)
	}
	return fmt.Sprintf("%s: %s → %s (%s)", r.Sender, r.Simple.SemanticType, r.Simple.Action, status)
}
