package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type UserContextRepo struct {
	db *sql.DB
}

func NewUserContextRepo(db *sql.DB) *UserContextRepo {
	return &UserContextRepo{db: db}
}

func (r *UserContextRepo) Get(ctx context.Context, accountID, userID string) (string, error) {
	var text string
	err := r.db.QueryRowContext(ctx,
		`SELECT context FROM user_contexts WHERE account_id = ? AND user_id = ?`,
		accountID, userID,
	).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query user context: %w", err)
	}
	return text, nil
}

// Set replaces the stored context wholesale; concurrent writers are
// last-write-wins.
func (r *UserContextRepo) Set(ctx context.Context, accountID, userID, text string) error {
	query := `INSERT INTO user_contexts (account_id, user_id, context) VALUES (?, ?, ?)
	          ON CONFLICT (account_id, user_id)
	          DO UPDATE SET context = excluded.context, updated_at = CURRENT_TIMESTAMP`
	if _, err := r.db.ExecContext(ctx, query, accountID, userID, text); err != nil {
		return fmt.Errorf("failed to store user context: %w", err)
	}
	return nil
}
