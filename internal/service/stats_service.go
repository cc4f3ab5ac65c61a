package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"mailtriage/internal/store"
)

// Stats are derived projections over the stores, never authoritative state.
// They are recomputed on read; the Redis copy is a short-lived display cache.
type Stats struct {
	ActiveRules      int `json:"active_rules"`
	PendingProposals int `json:"pending_proposals"`
	EmailsProcessed  int `json:"emails_processed"`
	ActionsAutomated int `json:"actions_automated"`
}

const statsCacheKey = "stats:snapshot"
const statsCacheTTL = 30 * time.Second

type StatsService struct {
	rules     store.RuleStore
	proposals store.ProposalStore
	emails    store.EmailStore
	rdb       *redis.Client // optional, may be nil
	logger    *zap.Logger
}

func NewStatsService(rules store.RuleStore, proposals store.ProposalStore, emails store.EmailStore, rdb *redis.Client, logger *zap.Logger) *StatsService {
	return &StatsService{
		rules:     rules,
		proposals: proposals,
		emails:    emails,
		rdb:       rdb,
		logger:    logger,
	}
}

// Snapshot returns the current derived counters. Cache misses or Redis
// errors fall through to recomputation; stale cache can only be as old as
// the TTL.
func (s *StatsService) Snapshot(ctx context.Context) (*Stats, error) {
	if s.rdb != nil {
		if raw, err := s.rdb.Get(ctx, statsCacheKey).Bytes(); err == nil {
			var cached Stats
			if json.Unmarshal(raw, &cached) == nil {
				return &cached, nil
			}
		}
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if s.rdb != nil {
		if raw, err := json.Marshal(stats); err == nil {
			if err := s.rdb.Set(ctx, statsCacheKey, raw, statsCacheTTL).Err(); err != nil {
				s.logger.Warn("failed to cache stats snapshot", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *StatsService) compute(ctx context.Context) (*Stats, error) {
	activeRules, err := s.rules.CountActiveRules(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.proposals.CountPendingProposals(ctx)
	if err != nil {
		return nil, err
	}
	processed, err := s.emails.CountEmails(ctx)
	if err != nil {
		return nil, err
	}
	automated, err := s.emails.CountAutomated(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		ActiveRules:      activeRules,
		PendingProposals: pending,
		EmailsProcessed:  processed,
		ActionsAutomated: automated,
	}, nil
}
