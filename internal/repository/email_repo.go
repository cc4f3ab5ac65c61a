package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"mailtriage/internal/model"
	"mailtriage/internal/store"
)

type EmailRepository struct {
	db *pgxpool.Pool
}

func NewEmailRepository(db *pgxpool.Pool) *EmailRepository {
	return &EmailRepository{db: db}
}

const emailColumns = `id, sender, sender_name, subject, snippet, semantic_type, status, recommended_action, recommended_rule_id, received_at`

// CreateEmail inserts an inbound email prior to triage.
func (r *EmailRepository) CreateEmail(ctx context.Context, e *model.InboundEmail) error {
	query := `
        INSERT INTO emails (id, sender, sender_name, subject, snippet, semantic_type, status, received_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err := r.db.Exec(ctx, query,
		e.ID, e.Sender, e.SenderName, e.Subject, e.Snippet, e.SemanticType, e.Status, e.ReceivedAt,
	)
	return err
}

// GetEmail returns an email by id.
func (r *EmailRepository) GetEmail(ctx context.Context, id string) (*model.InboundEmail, error) {
	query := `SELECT ` + emailColumns + ` FROM emails WHERE id = $1`
	e, err := scanEmail(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return e, err
}

// ListEmails returns all emails newest-first.
func (r *EmailRepository) ListEmails(ctx context.Context) ([]*model.InboundEmail, error) {
	query := `SELECT ` + emailColumns + ` FROM emails ORDER BY received_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	emails := []*model.InboundEmail{}
	for rows.Next() {
		e, err := scanEmail(rows)
		if err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}

// SetRecommendation stores the triage outcome and marks the email triaged.
// A nil recommendation records "no rule applies".
func (r *EmailRepository) SetRecommendation(ctx context.Context, id string, rec *model.Recommendation) error {
	var action, ruleID *string
	if rec != nil {
		a := string(rec.Action)
		action, ruleID = &a, &rec.RuleID
	}
	query := `
        UPDATE emails
        SET recommended_action = $2, recommended_rule_id = $3, status = 'triaged'
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, action, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CountEmails counts all stored emails.
func (r *EmailRepository) CountEmails(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM emails`).Scan(&n)
	return n, err
}

// CountAutomated counts emails a rule decided an action for.
func (r *EmailRepository) CountAutomated(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM emails WHERE recommended_action IS NOT NULL`).Scan(&n)
	return n, err
}

func scanEmail(row pgx.Row) (*model.InboundEmail, error) {
	var e model.InboundEmail
	var action, ruleID *string
	err := row.Scan(
		&e.ID, &e.Sender, &e.SenderName, &e.Subject, &e.Snippet,
		&e.SemanticType, &e.Status, &action, &ruleID, &e.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	if action != nil && ruleID != nil {
		e.Recommendation = &model.Recommendation{
			Action: model.ActionType(*action),
			RuleID: *ruleID,
		}
	}
	return &e, nil
}
