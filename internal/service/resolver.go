package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"mailtriage/internal/model"
	"mailtriage/pkg/metrics"
)

// Strategy is one way of turning a free-text command into an Intent. Both
// implementations return the same validated shape, so callers never know
// which one ran.
type Strategy interface {
	Resolve(ctx context.Context, text string) (*model.Intent, error)
}

// Resolver maps one utterance to exactly one Intent. It never fails: if the
// configured classifier strategy errors, times out, or returns something
// outside the closed intent set, the deterministic keyword strategy answers
// instead and the caller only sees a successful resolution.
type Resolver struct {
	classifier Strategy // optional, may be nil
	keywords   *KeywordStrategy
	logger     *zap.Logger
}

func NewResolver(classifier Strategy, logger *zap.Logger) *Resolver {
	return &Resolver{
		classifier: classifier,
		keywords:   NewKeywordStrategy(),
		logger:     logger,
	}
}

func (r *Resolver) Resolve(ctx context.Context, text string) *model.Intent {
	if r.classifier != nil {
		intent, err := r.classifier.Resolve(ctx, text)
		if err == nil {
			if verr := model.ValidateIntent(intent); verr == nil {
				metrics.IncrementCommandResolved(string(intent.Kind), "classifier")
				return intent
			} else {
				err = verr
			}
		}
		r.logger.Warn("classifier resolution failed, falling back to keyword strategy",
			zap.Error(err),
		)
		metrics.IncrementClassifierFallback()
	}

	intent, _ := r.keywords.Resolve(ctx, text)
	metrics.IncrementCommandResolved(string(intent.Kind), "keyword")
	return intent
}

// Extraction patterns. Senders show up either as full addresses or as bare
// domain fragments after a preposition ("od alza.cz", "pro shop.cz").
var (
	emailPattern    = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	odPattern       = regexp.MustCompile(`\b(?:od|from)\s+([a-zA-Z0-9.@_-]+)`)
	proPattern      = regexp.MustCompile(`\b(?:pro|for)\s+([a-zA-Z0-9.@_-]+)`)
	durationPattern = regexp.MustCompile(`(\d+)\s*(den|dny|dn[íi]|day|days|t[ýy]den|t[ýy]dny|week|weeks|hodin\w*|hour|hours)`)
)

// defaultPauseDuration is what pause_rule gets when the utterance carries no
// parseable duration.
const defaultPauseDuration = "2 weeks"

// KeywordStrategy is the deterministic resolver: an ordered list of phrase
// checks against the lowercased input, first match wins. It has no external
// dependency and is always available.
type KeywordStrategy struct{}

func NewKeywordStrategy() *KeywordStrategy {
	return &KeywordStrategy{}
}

// Resolve never returns an error; unparseable input resolves to the unknown
// intent with a clarification prompt.
func (s *KeywordStrategy) Resolve(_ context.Context, text string) (*model.Intent, error) {
	t := strings.ToLower(text)

	// 1. Stop / cancel / negation → unblock a sender.
	if containsAny(t, "přestaň", "prestan", "zruš", "zrus", "nemazat", "stop", "cancel") {
		sender := extractSender(t)
		return &model.Intent{
			Kind:         model.IntentUnblockSender,
			Parameters:   model.IntentParams{Sender: sender},
			ResponseText: fmt.Sprintf("✅ Zrušil jsem pravidla pro %s. Emaily zůstanou v inboxu.", sender),
		}, nil
	}

	// 2. Pause.
	if containsAny(t, "vypni", "pozastav", "pauza", "pause") {
		duration := defaultPauseDuration
		if m := durationPattern.FindStringSubmatch(t); m != nil {
			duration = m[1] + " " + m[2]
		}
		return &model.Intent{
			Kind:         model.IntentPauseRule,
			Parameters:   model.IntentParams{Duration: duration},
			ResponseText: "⏸️ Pozastavil jsem všechna pravidla. Připomenu ti to později.",
		}, nil
	}

	// 3. Exception phrasing → granular rule.
	if containsAny(t, "ale ne", "jen", "but not", "only") {
		sender := model.SenderUnknown
		if m := odPattern.FindStringSubmatch(t); m != nil {
			sender = m[1]
		}
		return &model.Intent{
			Kind:         model.IntentGranularRule,
			Parameters:   model.IntentParams{Sender: sender},
			ResponseText: fmt.Sprintf("✅ Nastavil jsem granulární pravidla pro %s.", sender),
		}, nil
	}

	// 4. Listing.
	if containsAny(t, "ukaž", "ukaz", "seznam", "jaká", "jaka", "show", "list") {
		var sender string
		var response string
		if m := proPattern.FindStringSubmatch(t); m != nil {
			sender = m[1]
			response = fmt.Sprintf("📋 Zde jsou pravidla pro %s:", sender)
		} else {
			response = "📋 Zde je seznam všech pravidel."
		}
		return &model.Intent{
			Kind:         model.IntentListRules,
			Parameters:   model.IntentParams{Sender: sender},
			ResponseText: response,
		}, nil
	}

	// 5. No phrase matched.
	return &model.Intent{
		Kind:         model.IntentUnknown,
		ResponseText: "❓ Nerozuměl jsem přesně. Můžeš zkusit: 'Přestaň mazat od X', 'Ukaž pravidla', nebo 'Pozastavit'.",
	}, nil
}

// extractSender pulls a sender term out of an utterance: a full address
// first, then a token after "od"/"from" or "pro"/"for", else the sentinel.
func extractSender(t string) string {
	if m := emailPattern.FindString(t); m != "" {
		return m
	}
	if m := odPattern.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	if m := proPattern.FindStringSubmatch(t); m != nil {
		return m[1]
	}
	return model.SenderUnknown
}

func containsAny(t string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}
