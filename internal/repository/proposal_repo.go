package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

type ProposalRepository struct {
	db *pgxpool.Pool
}

func NewProposalRepository(db *pgxpool.Pool) *ProposalRepository {
	return &ProposalRepository{db: db}
}

// CreateProposal inserts a pending proposal from the external classifier feed.
func (r *ProposalRepository) CreateProposal(ctx context.Context, p *model.Proposal) error {
	subjects, err := json.Marshal(p.SampleSubjects)
	if err != nil {
		return fmt.Errorf("failed to encode sample subjects: %w", err)
	}
	query := `
        INSERT INTO proposals (id, sender, sender_domain, semantic_type, proposed_action, confidence, sample_count, sample_subjects, created_at, status)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
    `
	_, err = r.db.Exec(ctx, query,
		p.ID, p.Sender, p.SenderDomain, p.SemanticType, p.ProposedAction,
		p.Confidence, p.SampleCount, subjects, p.CreatedAt, p.Status,
	)
	return err
}

// ListPendingProposals returns pending proposals oldest-first.
func (r *ProposalRepository) ListPendingProposals(ctx context.Context) ([]*model.Proposal, error) {
	query := `
        SELECT id, sender, sender_domain, semantic_type, proposed_action, confidence, sample_count, sample_subjects, created_at, status
        FROM proposals
        WHERE status = 'pending'
        ORDER BY created_at, id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	proposals := []*model.Proposal{}
	for rows.Next() {
		var p model.Proposal
		var subjects []byte
		err := rows.Scan(
			&p.ID, &p.Sender, &p.SenderDomain, &p.SemanticType, &p.ProposedAction,
			&p.Confidence, &p.SampleCount, &subjects, &p.CreatedAt, &p.Status,
		)
		if err != nil {
			return nil, err
		}
		if subjects != nil {
			if err := json.Unmarshal(subjects, &p.SampleSubjects); err != nil {
				return nil, fmt.Errorf("failed to decode sample subjects: %w", err)
			}
		}
		proposals = append(proposals, &p)
	}
	return proposals, rows.Err()
}

// ApproveProposal converts a pending proposal into a new active rule and
// removes the proposal, all in one transaction. There is no state where the
// proposal is gone but the rule does not exist, or the other way around.
func (r *ProposalRepository) ApproveProposal(ctx context.Context, id string) (*model.Rule, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
        SELECT sender, semantic_type, proposed_action
        FROM proposals
        WHERE id = $1 AND status = 'pending'
        FOR UPDATE
    `
	var sender, semanticType, action string
	err = tx.QueryRow(ctx, query, id).Scan(&sender, &semanticType, &action)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rule := model.NewSimpleRule(sender, model.SemanticType(semanticType), model.ActionType(action), model.CreatedViaLearned)

	insert := `
        INSERT INTO rules (id, sender, semantic_type, action, granular, status, paused_until, times_applied, created_via, created_at)
        VALUES ($1, $2, $3, $4, NULL, $5, NULL, 0, $6, $7)
    `
	if _, err := tx.Exec(ctx, insert,
		rule.ID, rule.Sender, string(rule.Simple.SemanticType), string(rule.Simple.Action),
		rule.Status, rule.CreatedVia, rule.CreatedAt,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM proposals WHERE id = $1`, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return rule, nil
}

// RejectProposal discards a pending proposal without creating anything.
func (r *ProposalRepository) RejectProposal(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM proposals WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CountPendingProposals counts pending proposals.
func (r *ProposalRepository) CountPendingProposals(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM proposals WHERE status = 'pending'`).Scan(&n)
	return n, err
}
