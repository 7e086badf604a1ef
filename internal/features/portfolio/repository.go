// Package portfolio — repository.go отвечает за операции с таблицей portfolio.
package portfolio

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

// Create добавляет позицию и возвращает её id.
func (r *Repository) Create(ctx context.Context, p *Position) (int64, error) {
	query := `
		INSERT INTO portfolio (user_id, symbol, amount, entry_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query, p.UserID, p.Symbol, p.Amount, p.EntryPrice).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания позиции: %w", err)
	}
	return id, nil
}

// ListByUser возвращает позиции пользователя.
func (r *Repository) ListByUser(ctx context.Context, userID int64) ([]*Position, error) {
	query := `
		SELECT id, user_id, symbol, amount, entry_price, created_at
		FROM portfolio
		WHERE user_id = $1
		ORDER BY id
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса портфеля: %w", err)
	}
	defer rows.Close()

	var out []*Position
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.UserID, &p.Symbol, &p.Amount, &p.EntryPrice, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// DeleteOwned удаляет позицию, только если она принадлежит пользователю.
func (r *Repository) DeleteOwned(ctx context.Context, id, userID int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM portfolio WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("ошибка удаления позиции %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrPositionNotFound
	}
	return nil
}
