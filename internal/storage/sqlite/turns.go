package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/pulsebot/internal/core"
	"github.com/sandevgo/pulsebot/pkg/log"
)

type TurnsRepo struct {
	db *sql.DB
}

func NewTurnsRepo(db *sql.DB) *TurnsRepo {
	return &TurnsRepo{db: db}
}

func (r *TurnsRepo) Append(ctx context.Context, scope core.Scope, turn core.Turn) error {
	createdAt := turn.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `INSERT INTO turns (account_id, chat_id, bot_id, session, role, content, attachment_url, created_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		scope.AccountID, scope.ChatID, scope.BotID,
		turn.Session, turn.Role, turn.Content, turn.AttachmentURL, createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

func (r *TurnsRepo) Latest(ctx context.Context, scope core.Scope) (*core.Turn, error) {
	query := `SELECT id, session, role, content, attachment_url, created_at FROM turns
	          WHERE account_id = ? AND chat_id = ? AND bot_id = ?
	          ORDER BY created_at DESC, id DESC LIMIT 1`

	var t core.Turn
	err := r.db.QueryRowContext(ctx, query, scope.AccountID, scope.ChatID, scope.BotID).
		Scan(&t.ID, &t.Session, &t.Role, &t.Content, &t.AttachmentURL, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest turn: %w", err)
	}
	return &t, nil
}

func (r *TurnsRepo) BySession(ctx context.Context, scope core.Scope, session int) ([]core.Turn, error) {
	query := `SELECT id, session, role, content, attachment_url, created_at FROM turns
	          WHERE account_id = ? AND chat_id = ? AND bot_id = ? AND session = ?
	          ORDER BY created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, scope.AccountID, scope.ChatID, scope.BotID, session)
	if err != nil {
		return nil, fmt.Errorf("failed to query session turns: %w", err)
	}
	defer rows.Close()

	var turns []core.Turn
	for rows.Next() {
		var t core.Turn
		if err := rows.Scan(&t.ID, &t.Session, &t.Role, &t.Content, &t.AttachmentURL, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	log.FromCtx(ctx).Debug().Int("count", len(turns)).Int("session", session).Msg("loaded session turns")
	return turns, nil
}

func (r *TurnsRepo) Wipe(ctx context.Context, scope core.Scope) error {
	query := `DELETE FROM turns WHERE account_id = ? AND chat_id = ? AND bot_id = ?`
	res, err := r.db.ExecContext(ctx, query, scope.AccountID, scope.ChatID, scope.BotID)
	if err != nil {
		return fmt.Errorf("failed to wipe turns: %w", err)
	}

	affected, _ := res.RowsAffected()
	log.FromCtx(ctx).Info().Int64("turns", affected).Msg("wiped conversation history")
	return nil
}
