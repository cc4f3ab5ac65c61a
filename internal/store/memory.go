package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"mailtriage/internal/model"
)

// Memory is the in-process implementation of all three stores. One RWMutex
// covers rules, proposals and emails, which makes proposal approval trivially
// atomic. Readers get deep copies, never live pointers.
type Memory struct {
	mu        sync.RWMutex
	rules     map[string]*model.Rule
	ruleOrder []string
	proposals map[string]*model.Proposal
	propOrder []string
	emails    map[string]*model.InboundEmail
	mailOrder []string
}

func NewMemory() *Memory {
	return &Memory{
		rules:     make(map[string]*model.Rule),
		proposals: make(map[string]*model.Proposal),
		emails:    make(map[string]*model.InboundEmail),
	}
}

// --- RuleStore ---

func (m *Memory) CreateRule(_ context.Context, r *model.Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertRuleLocked(r)
	return nil
}

// insertRuleLocked keeps insertion order so tie-breaking in the matcher
// ("first encountered wins") is deterministic.
func (m *Memory) insertRuleLocked(r *model.Rule) {
	if _, ok := m.rules[r.ID]; !ok {
		m.ruleOrder = append(m.ruleOrder, r.ID)
	}
	m.rules[r.ID] = r.Clone()
}

func (m *Memory) GetRule(_ context.Context, id string) (*model.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return r.Clone(), nil
}

func (m *Memory) ListRules(_ context.Context) ([]*model.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotRulesLocked(""), nil
}

func (m *Memory) ListRulesBySender(_ context.Context, term string) ([]*model.Rule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshotRulesLocked(term), nil
}

func (m *Memory) snapshotRulesLocked(term string) []*model.Rule {
	out := []*model.Rule{}
	for _, id := range m.ruleOrder {
		r, ok := m.rules[id]
		if !ok {
			continue
		}
		if term != "" && !model.SenderMatches(r.Sender, term) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out
}

func (m *Memory) UpdateRule(_ context.Context, id string, mutate func(*model.Rule) error) (*model.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Mutate a copy so a failing mutator leaves the stored rule untouched.
	c := r.Clone()
	if err := mutate(c); err != nil {
		return nil, err
	}
	c.ID = id
	m.rules[id] = c
	return c.Clone(), nil
}

func (m *Memory) DeleteRule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rules[id]; !ok {
		return ErrNotFound
	}
	delete(m.rules, id)
	m.dropRuleOrderLocked(id)
	return nil
}

func (m *Memory) dropRuleOrderLocked(id string) {
	for i, rid := range m.ruleOrder {
		if rid == id {
			m.ruleOrder = append(m.ruleOrder[:i], m.ruleOrder[i+1:]...)
			return
		}
	}
}

func (m *Memory) DeleteRulesBySender(_ context.Context, term string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range append([]string(nil), m.ruleOrder...) {
		r := m.rules[id]
		if r != nil && model.SenderMatches(r.Sender, term) {
			delete(m.rules, id)
			m.dropRuleOrderLocked(id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) PauseAllRules(_ context.Context, until time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, r := range m.rules {
		if r.Status != model.RuleStatusActive {
			continue
		}
		u := until
		r.Status = model.RuleStatusPaused
		r.PausedUntil = &u
		n++
	}
	return n, nil
}

func (m *Memory) IncrementTimesApplied(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rules[id]
	if !ok {
		return ErrNotFound
	}
	r.TimesApplied++
	return nil
}

func (m *Memory) CountActiveRules(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	n := 0
	for _, r := range m.rules {
		if !r.PausedAt(now) {
			n++
		}
	}
	return n, nil
}

// --- ProposalStore ---

func (m *Memory) CreateProposal(_ context.Context, p *model.Proposal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.proposals[p.ID]; !ok {
		m.propOrder = append(m.propOrder, p.ID)
	}
	m.proposals[p.ID] = p.Clone()
	return nil
}

func (m *Memory) ListPendingProposals(_ context.Context) ([]*model.Proposal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.Proposal{}
	for _, id := range m.propOrder {
		p, ok := m.proposals[id]
		if !ok || p.Status != model.ProposalStatusPending {
			continue
		}
		out = append(out, p.Clone())
	}
	return out, nil
}

// ApproveProposal removes the proposal and creates the converted rule inside
// one critical section; there is no interleaving where one exists without
// the other.
func (m *Memory) ApproveProposal(_ context.Context, id string) (*model.Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Status != model.ProposalStatusPending {
		return nil, ErrNotFound
	}
	rule := p.ToRule()
	m.insertRuleLocked(rule)
	delete(m.proposals, id)
	m.dropPropOrderLocked(id)
	return rule.Clone(), nil
}

func (m *Memory) RejectProposal(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.proposals[id]
	if !ok || p.Status != model.ProposalStatusPending {
		return ErrNotFound
	}
	delete(m.proposals, id)
	m.dropPropOrderLocked(id)
	return nil
}

func (m *Memory) dropPropOrderLocked(id string) {
	for i, pid := range m.propOrder {
		if pid == id {
			m.propOrder = append(m.propOrder[:i], m.propOrder[i+1:]...)
			return
		}
	}
}

func (m *Memory) CountPendingProposals(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, p := range m.proposals {
		if p.Status == model.ProposalStatusPending {
			n++
		}
	}
	return n, nil
}

// --- EmailStore ---

func (m *Memory) CreateEmail(_ context.Context, e *model.InboundEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.emails[e.ID]; !ok {
		m.mailOrder = append(m.mailOrder, e.ID)
	}
	m.emails[e.ID] = e.Clone()
	return nil
}

func (m *Memory) GetEmail(_ context.Context, id string) (*model.InboundEmail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.emails[id]
	if !ok {
		return nil, ErrNotFound
	}
	return e.Clone(), nil
}

func (m *Memory) ListEmails(_ context.Context) ([]*model.InboundEmail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*model.InboundEmail{}
	for _, id := range m.mailOrder {
		if e, ok := m.emails[id]; ok {
			out = append(out, e.Clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ReceivedAt.After(out[j].ReceivedAt)
	})
	return out, nil
}

func (m *Memory) SetRecommendation(_ context.Context, id string, rec *model.Recommendation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.emails[id]
	if !ok {
		return ErrNotFound
	}
	if rec != nil {
		r := *rec
		e.Recommendation = &r
	} else {
		e.Recommendation = nil
	}
	e.Status = model.EmailStatusTriaged
	return nil
}

func (m *Memory) CountEmails(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.emails), nil
}

func (m *Memory) CountAutomated(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, e := range m.emails {
		if e.Recommendation != nil {
			n++
		}
	}
	return n, nil
}
