// Package alerts — repository.go отвечает за операции с таблицей alerts.
package alerts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"serotonyl.ru/signal-bot/internal/common"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create добавляет алерт и возвращает его id.
func (r *Repository) Create(ctx context.Context, a *Alert) (int64, error) {
	query := `
		INSERT INTO alerts (user_id, symbol, target_price, direction)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query, a.UserID, a.Symbol, a.TargetPrice, a.Direction).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания алерта: %w", err)
	}
	return id, nil
}

// ListByUser возвращает алерты пользователя.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Alert, error) {
	query := `
		SELECT id, user_id, symbol, target_price, direction, created_at
		FROM alerts
		WHERE user_id = $1
		ORDER BY id
	`
	return r.queryAlerts(ctx, query, userID)
}

// ListAll возвращает все алерты (для фоновой сверки).
func (r *Repository) ListAll(ctx context.Context) ([]*Alert, error) {
	query := `
		SELECT id, user_id, symbol, target_price, direction, created_at
		FROM alerts
		ORDER BY id
	`
	return r.queryAlerts(ctx, query)
}

// Delete удаляет алерт по id (путь фоновой сверки).
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM alerts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("ошибка удаления алерта %d: %w", id, err)
	}
	return nil
}

// DeleteOwned удаляет алерт, только если он принадлежит пользователю.
func (r *Repository) DeleteOwned(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM alerts WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления алерта %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrAlertNotFound
	}
	return nil
}

func (r *Repository) queryAlerts(ctx context.Context, query string, args ...interface{}) ([]*Alert, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса алертов: %w", err)
	}
	defer rows.Close()

	var out []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.UserID, &a.Symbol, &a.TargetPrice, &a.Direction, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
