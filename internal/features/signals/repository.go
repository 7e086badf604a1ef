// Package signals — repository.go отвечает за операции с таблицей signals.
package signals

import (
	"context"
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

const signalColumns = `id, pair, direction, entry_price, target_price, stop_loss, is_vip, outcome, created_at, resolved_at`

// Create добавляет новый сигнал в состоянии open и возвращает его id.
func (r *Repository) Create(ctx context.Context, s *Signal) (int64, error) {
	query := `
		INSERT INTO signals (pair, direction, entry_price, target_price, stop_loss, is_vip)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	var id int64
	err := r.db.QueryRow(ctx, query,
		s.Pair, s.Direction, s.EntryPrice, s.TargetPrice, s.StopLoss, s.IsVIP,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("ошибка создания сигнала: %w", err)
	}
	return id, nil
}

// Delete удаляет сигнал по id.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM signals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления сигнала: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return common.ErrSignalNotFound
	}
	return nil
}

// ListOpen возвращает все открытые сигналы. Терминальные сигналы
// фильтром исключены и фоновой сверкой больше не читаются.
func (r *Repository) ListOpen(ctx context.Context) ([]*Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE outcome = 'open' ORDER BY id`
	return r.querySignals(ctx, query)
}

// List возвращает последние limit сигналов нужного типа (VIP или free).
func (r *Repository) List(ctx context.Context, vip bool, limit int) ([]*Signal, error) {
	query := `SELECT ` + signalColumns + ` FROM signals WHERE is_vip = $1 ORDER BY created_at DESC LIMIT $2`
	return r.querySignals(ctx, query, vip, limit)
}

// MarkResolved переводит сигнал из open в терминальное состояние.
// Условие outcome='open' в WHERE делает переход односторонним:
// уже закрытый сигнал повторная запись не тронет.
func (r *Repository) MarkResolved(ctx context.Context, id int64, outcome string) error {
	query := `
		UPDATE signals
		SET outcome = $2, resolved_at = NOW()
		WHERE id = $1 AND outcome = 'open'
	`
	if _, err := r.db.Exec(ctx, query, id, outcome); err != nil {
		return fmt.Errorf("ошибка закрытия сигнала %d: %w", id, err)
	}
	return nil
}

// GetStats агрегирует сигналы по исходам.
func (r *Repository) GetStats(ctx context.Context) (*Stats, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE outcome = 'open'),
		       COUNT(*) FILTER (WHERE outcome = 'hit-target'),
		       COUNT(*) FILTER (WHERE outcome = 'hit-stop')
		FROM signals
	`
	var st Stats
	if err := r.db.QueryRow(ctx, query).Scan(&st.Total, &st.Open, &st.HitTarget, &st.HitStop); err != nil {
		return nil, fmt.Errorf("ошибка статистики сигналов: %w", err)
	}
	return &st, nil
}

// BestPairs возвращает пары с лучшим win-rate среди закрытых сигналов.
func (r *Repository) BestPairs(ctx context.Context, limit int) ([]PairStats, error) {
	query := `
		SELECT pair,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE outcome = 'hit-target')
		FROM signals
		WHERE outcome <> 'open'
		GROUP BY pair
		ORDER BY COUNT(*) FILTER (WHERE outcome = 'hit-target')::float / COUNT(*) DESC, COUNT(*) DESC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса лучших пар: %w", err)
	}
	defer rows.Close()

	var out []PairStats
	for rows.Next() {
		var ps PairStats
		if err := rows.Scan(&ps.Pair, &ps.Closed, &ps.HitTarget); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, ps)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}

func (r *Repository) querySignals(ctx context.Context, query string, args ...interface{}) ([]*Signal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса сигналов: %w", err)
	}
	defer rows.Close()

	out, err := scanSignals(rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanSignals(rows pgx.Rows) ([]*Signal, error) {
	var out []*Signal
	for rows.Next() {
		var s Signal
		if err := rows.Scan(
			&s.ID, &s.Pair, &s.Direction, &s.EntryPrice, &s.TargetPrice,
			&s.StopLoss, &s.IsVIP, &s.Outcome, &s.CreatedAt, &s.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения строк: %w", err)
	}
	return out, nil
}
