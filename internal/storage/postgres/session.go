package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auth-service/internal/models"
	"auth-service/internal/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SaveSession регистрирует новую активную сессию.
func (s *Storage) SaveSession(ctx context.Context, session *models.Session) error {
	const op = "storage.postgres.SaveSession"

	query := `
        INSERT INTO sessions(token_hash, user_id, issued_at, expires_at)
        VALUES ($1, $2, $3, $4)
    `

	_, err := s.db.Exec(ctx, query,
		session.TokenHash,
		session.UserID,
		session.IssuedAt,
		session.ExpiresAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RedeemSession атомарно гасит сессию: проверка членства и удаление —
// одно условное DELETE. Из двух конкурентных вызовов с одним токеном
// строку удалит ровно один; второй получит storage.ErrNotFound.
func (s *Storage) RedeemSession(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	const op = "storage.postgres.RedeemSession"

	query := `
		DELETE FROM sessions
		WHERE token_hash = $1 AND user_id = $2
		RETURNING user_id
	`

	var uid uuid.UUID
	err := s.db.QueryRow(ctx, query, tokenHash, userID).Scan(&uid)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RevokeSession удаляет сессию, если она есть; отсутствие — не ошибка.
func (s *Storage) RevokeSession(ctx context.Context, userID uuid.UUID, tokenHash string) error {
	const op = "storage.postgres.RevokeSession"

	query := `
		DELETE FROM sessions
		WHERE token_hash = $1 AND user_id = $2
	`

	if _, err := s.db.Exec(ctx, query, tokenHash, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RevokeAllSessions удаляет все сессии пользователя.
// Для неизвестного пользователя возвращает storage.ErrNotFound.
func (s *Storage) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	const op = "storage.postgres.RevokeAllSessions"

	const sel = `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`

	var exists bool
	if err := s.db.QueryRow(ctx, sel, userID).Scan(&exists); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !exists {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	const del = `DELETE FROM sessions WHERE user_id = $1`

	if _, err := s.db.Exec(ctx, del, userID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// DeleteExpiredSessions удаляет все просроченные сессии.
func (s *Storage) DeleteExpiredSessions(ctx context.Context, now time.Time) error {
	const op = "storage.postgres.DeleteExpiredSessions"

	query := `
        DELETE FROM sessions
        WHERE expires_at <= $1
    `

	if _, err := s.db.Exec(ctx, query, now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
