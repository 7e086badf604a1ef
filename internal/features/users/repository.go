// Package users — repository.go отвечает за все операции с таблицей users в БД.
// Каждая функция выполняет один SQL-запрос и возвращает результат или ошибку.
package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/signal-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Ensure регистрирует пользователя при первом контакте.
// На конфликте обновляет только username (тариф и бан не трогаем).
func (r *Repository) Ensure(ctx context.Context, telegramID int64, username string) error {
	query := `
		INSERT INTO users (telegram_id, username)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE
		SET username = EXCLUDED.username
	`
	if _, err := r.db.Exec(ctx, query, telegramID, username); err != nil {
		return fmt.Errorf("ошибка регистрации пользователя: %w", err)
	}
	return nil
}

// GetByID: если не найден — common.ErrUserNotFound.
func (r *Repository) GetByID(ctx context.Context, telegramID int64) (*User, error) {
	query := `
		SELECT telegram_id, username, tier, is_banned, created_at
		FROM users
		WHERE telegram_id = $1
	`
	var u User
	err := r.db.QueryRow(ctx, query, telegramID).Scan(
		&u.TelegramID, &u.Username, &u.Tier, &u.IsBanned, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (id=%d): %w", telegramID, err)
	}
	return &u, nil
}

// GetByUsername ищет пользователя по @username (без @).
func (r *Repository) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `
		SELECT telegram_id, username, tier, is_banned, created_at
		FROM users
		WHERE LOWER(username) = LOWER($1)
	`
	var u User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&u.TelegramID, &u.Username, &u.Tier, &u.IsBanned, &u.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка чтения пользователя (username=%s): %w", username, err)
	}
	return &u, nil
}

// SetBanned ставит или снимает бан.
func (r *Repository) SetBanned(ctx context.Context, telegramID int64, banned bool) error {
	query := `UPDATE users SET is_banned = $2 WHERE telegram_id = $1`
	tag, err := r.db.Exec(ctx, query, telegramID, banned)
	if err != nil {
		return fmt.Errorf("ошибка обновления бана: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrUserNotFound
	}
	return nil
}

// SetTier обновляет тариф пользователя.
func (r *Repository) SetTier(ctx context.Context, telegramID int64, tier string) error {
	query := `UPDATE users SET tier = $2 WHERE telegram_id = $1`
	if _, err := r.db.Exec(ctx, query, telegramID, tier); err != nil {
		return fmt.Errorf("ошибка обновления тарифа: %w", err)
	}
	return nil
}

// IsBanned проверяет флаг бана. Незарегистрированный пользователь не забанен.
func (r *Repository) IsBanned(ctx context.Context, telegramID int64) (bool, error) {
	query := `SELECT COALESCE((SELECT is_banned FROM users WHERE telegram_id = $1), FALSE)`
	var banned bool
	if err := r.db.QueryRow(ctx, query, telegramID).Scan(&banned); err != nil {
		return false, fmt.Errorf("ошибка проверки бана: %w", err)
	}
	return banned, nil
}

// Count возвращает общее число пользователей и число забаненных.
func (r *Repository) Count(ctx context.Context) (total, banned int64, err error) {
	query := `SELECT COUNT(*), COUNT(*) FILTER (WHERE is_banned) FROM users`
	if err := r.db.QueryRow(ctx, query).Scan(&total, &banned); err != nil {
		return 0, 0, fmt.Errorf("ошибка подсчёта пользователей: %w", err)
	}
	return total, banned, nil
}

// AllIDs возвращает идентификаторы всех незабаненных пользователей (для рассылки).
func (r *Repository) AllIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT telegram_id FROM users WHERE is_banned = FALSE`)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса пользователей: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
