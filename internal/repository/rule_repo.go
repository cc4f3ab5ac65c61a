package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

// senderMatchSQL mirrors model.SenderMatches: case-insensitive containment
// in either direction. Keep the two in sync — triage matching and
// conversational bulk commands must agree on what a sender term hits.
const senderMatchSQL = `(POSITION(LOWER($1) IN LOWER(sender)) > 0 OR POSITION(LOWER(sender) IN LOWER($1)) > 0)`

type RuleRepository struct {
	db *pgxpool.Pool
}

func NewRuleRepository(db *pgxpool.Pool) *RuleRepository {
	return &RuleRepository{db: db}
}

const ruleColumns = `id, sender, semantic_type, action, granular, status, paused_until, times_applied, created_via, created_at`

// CreateRule inserts a rule. The simple/granular variant is split across the
// semantic_type+action columns and the granular JSONB column.
func (r *RuleRepository) CreateRule(ctx context.Context, rule *model.Rule) error {
	query := `
        INSERT INTO rules (id, sender, semantic_type, action, granular, status, paused_until, times_applied, created_via, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	var semanticType, action *string
	var granular []byte
	if rule.Simple != nil {
		st := string(rule.Simple.SemanticType)
		ac := string(rule.Simple.Action)
		semanticType, action = &st, &ac
	} else {
		b, err := json.Marshal(rule.Granular)
		if err != nil {
			return fmt.Errorf("failed to encode granular conditions: %w", err)
		}
		granular = b
	}
	_, err := r.db.Exec(ctx, query,
		rule.ID, rule.Sender, semanticType, action, granular,
		rule.Status, rule.PausedUntil, rule.TimesApplied, rule.CreatedVia, rule.CreatedAt,
	)
	return err
}

// GetRule returns a rule by id.
func (r *RuleRepository) GetRule(ctx context.Context, id string) (*model.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = $1`
	rule, err := scanRule(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rule, err
}

// ListRules returns all rules in creation order.
func (r *RuleRepository) ListRules(ctx context.Context) ([]*model.Rule, error) {
	query := `SELECT ` + ruleColumns + ` FROM rules ORDER BY created_at, id`
	return r.queryRules(ctx, query)
}

// ListRulesBySender filters by the shared substring containment.
func (r *RuleRepository) ListRulesBySender(ctx context.Context, term string) ([]*model.Rule, error) {
	if term == "" {
		return r.ListRules(ctx)
	}
	query := `SELECT ` + ruleColumns + ` FROM rules WHERE ` + senderMatchSQL + ` ORDER BY created_at, id`
	return r.queryRules(ctx, query, term)
}

func (r *RuleRepository) queryRules(ctx context.Context, query string, args ...any) ([]*model.Rule, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rules := []*model.Rule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

// UpdateRule loads the row with a row lock, applies the mutator and writes
// the result back in the same transaction.
func (r *RuleRepository) UpdateRule(ctx context.Context, id string, mutate func(*model.Rule) error) (*model.Rule, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + ruleColumns + ` FROM rules WHERE id = $1 FOR UPDATE`
	rule, err := scanRule(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := mutate(rule); err != nil {
		return nil, err
	}
	rule.ID = id

	var semanticType, action *string
	var granular []byte
	if rule.Simple != nil {
		st := string(rule.Simple.SemanticType)
		ac := string(rule.Simple.Action)
		semanticType, action = &st, &ac
	} else {
		if granular, err = json.Marshal(rule.Granular); err != nil {
			return nil, fmt.Errorf("failed to encode granular conditions: %w", err)
		}
	}

	update := `
        UPDATE rules
        SET sender = $2, semantic_type = $3, action = $4, granular = $5,
            status = $6, paused_until = $7, times_applied = $8
        WHERE id = $1
    `
	if _, err := tx.Exec(ctx, update,
		id, rule.Sender, semanticType, action, granular,
		rule.Status, rule.PausedUntil, rule.TimesApplied,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rule, nil
}

// DeleteRule removes a rule by id.
func (r *RuleRepository) DeleteRule(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeleteRulesBySender removes every rule matching the term. Zero matches is
// a valid no-op, not an error.
func (r *RuleRepository) DeleteRulesBySender(ctx context.Context, term string) (int, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM rules WHERE `+senderMatchSQL, term)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// PauseAllRules pauses every active rule until the given time.
func (r *RuleRepository) PauseAllRules(ctx context.Context, until time.Time) (int, error) {
	query := `
        UPDATE rules
        SET status = 'paused', paused_until = $1
        WHERE status = 'active'
    `
	tag, err := r.db.Exec(ctx, query, until)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// IncrementTimesApplied bumps the applied counter of a matched rule.
func (r *RuleRepository) IncrementTimesApplied(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE rules SET times_applied = times_applied + 1 WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CountActiveRules counts rules that are eligible right now, honoring lazy
// pause expiry the same way the matcher does.
func (r *RuleRepository) CountActiveRules(ctx context.Context) (int, error) {
	query := `
        SELECT COUNT(*) FROM rules
        WHERE status = 'active' AND (paused_until IS NULL OR paused_until <= NOW())
    `
	var n int
	err := r.db.QueryRow(ctx, query).Scan(&n)
	return n, err
}

// scanRule rebuilds the simple/granular variant from one row.
func scanRule(row pgx.Row) (*model.Rule, error) {
	var rule model.Rule
	var semanticType, action *string
	var granular []byte
	err := row.Scan(
		&rule.ID,
		&rule.Sender,
		&semanticType,
		&action,
		&granular,
		&rule.Status,
		&rule.PausedUntil,
		&rule.TimesApplied,
		&rule.CreatedVia,
		&rule.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if granular != nil {
		if err := json.Unmarshal(granular, &rule.Granular); err != nil {
			return nil, fmt.Errorf("failed to decode granular conditions: %w", err)
		}
	} else if semanticType != nil && action != nil {
		rule.Simple = &model.SimpleSpec{
			SemanticType: model.SemanticType(*semanticType),
			Action:       model.ActionType(*action),
		}
	}
	return &rule, nil
}
