// Package subscription — repository.go отвечает за операции с таблицами
// subscriptions и payments. Подтверждение оплаты — единственное место,
// где две записи обязаны появиться атомарно, поэтому оно выполняется
// в одной транзакции.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const upsertSubscription = `
	INSERT INTO subscriptions (user_id, tier, start_date, end_date, payment_id, notified)
	VALUES ($1, $2, $3, $4, $5, FALSE)
	ON CONFLICT (user_id) DO UPDATE
	SET tier = EXCLUDED.tier,
	    start_date = EXCLUDED.start_date,
	    end_date = EXCLUDED.end_date,
	    payment_id = EXCLUDED.payment_id,
	    notified = FALSE
`

// GetByUserID возвращает подписку пользователя или nil, если её нет.
// Отсутствие подписки — нормальное состояние, не ошибка.
func (r *Repository) GetByUserID(ctx context.Context, userID int64) (*Subscription, error) {
	query := `
		SELECT user_id, tier, start_date, end_date, COALESCE(payment_id, ''), notified
		FROM subscriptions
		WHERE user_id = $1
	`
	var s Subscription
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.Tier, &s.StartDate, &s.EndDate, &s.PaymentID, &s.Notified,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка чтения подписки (user_id=%d): %w", userID, err)
	}
	return &s, nil
}

// UpsertWithPayment атомарно перезаписывает подписку и вставляет запись
// о платеже. Либо происходят обе записи, либо ни одной: иначе можно выдать
// доступ без следа оплаты или наоборот. Заодно поднимаем users.tier.
func (r *Repository) UpsertWithPayment(ctx context.Context, sub *Subscription, p *Payment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertSubscription,
		sub.UserID, sub.Tier, sub.StartDate, sub.EndDate, sub.PaymentID,
	); err != nil {
		return fmt.Errorf("ошибка записи подписки: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO payments (user_id, amount, currency, status, payment_id, plan)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, p.UserID, p.Amount, p.Currency, p.Status, p.PaymentID, p.Plan); err != nil {
		return fmt.Errorf("ошибка записи платежа: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE users SET tier = $2 WHERE telegram_id = $1`, sub.UserID, sub.Tier,
	); err != nil {
		return fmt.Errorf("ошибка обновления тарифа: %w", err)
	}

	return tx.Commit(ctx)
}

// Upsert перезаписывает подписку без платежа (путь админ-гранта:
// выручка не подразумевается, запись payments не создаётся).
func (r *Repository) Upsert(ctx context.Context, sub *Subscription) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, upsertSubscription,
		sub.UserID, sub.Tier, sub.StartDate, sub.EndDate, sub.PaymentID,
	); err != nil {
		return fmt.Errorf("ошибка записи подписки: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`UPDATE users SET tier = $2 WHERE telegram_id = $1`, sub.UserID, sub.Tier,
	); err != nil {
		return fmt.Errorf("ошибка обновления тарифа: %w", err)
	}

	return tx.Commit(ctx)
}

// ExpiringUnnotified возвращает подписки, заканчивающиеся до deadline,
// по которым уведомление ещё не отправлялось.
func (r *Repository) ExpiringUnnotified(ctx context.Context, deadline time.Time) ([]*Subscription, error) {
	query := `
		SELECT user_id, tier, start_date, end_date, COALESCE(payment_id, ''), notified
		FROM subscriptions
		WHERE end_date <= $1 AND notified = FALSE
		ORDER BY end_date
	`
	rows, err := r.db.Query(ctx, query, deadline)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса истекающих подписок: %w", err)
	}
	defer rows.Close()

	var out []*Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.UserID, &s.Tier, &s.StartDate, &s.EndDate, &s.PaymentID, &s.Notified); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

// MarkNotified помечает подписку как уведомлённую (одно письмо на срок).
func (r *Repository) MarkNotified(ctx context.Context, userID int64) error {
	if _, err := r.db.Exec(ctx,
		`UPDATE subscriptions SET notified = TRUE WHERE user_id = $1`, userID,
	); err != nil {
		return fmt.Errorf("ошибка отметки уведомления: %w", err)
	}
	return nil
}

// CountActive возвращает число активных подписок на момент now.
func (r *Repository) CountActive(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM subscriptions WHERE end_date >= $1`, now,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта активных подписок: %w", err)
	}
	return n, nil
}

// RevenueByPlan агрегирует завершённые платежи по планам для /revenuereport.
type RevenueRow struct {
	Plan     string
	Currency string
	Payments int64
	Total    float64
}

func (r *Repository) RevenueByPlan(ctx context.Context) ([]RevenueRow, error) {
	query := `
		SELECT COALESCE(plan, ''), currency, COUNT(*), COALESCE(SUM(amount), 0)
		FROM payments
		WHERE status = 'completed'
		GROUP BY plan, currency
		ORDER BY SUM(amount) DESC
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса выручки: %w", err)
	}
	defer rows.Close()

	var out []RevenueRow
	for rows.Next() {
		var row RevenueRow
		if err := rows.Scan(&row.Plan, &row.Currency, &row.Payments, &row.Total); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
