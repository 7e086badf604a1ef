// Package signals управляет торговыми сигналами: созданием админом,
// выдачей пользователям и фоновым отслеживанием исхода.
// models.go описывает структуры таблицы signals.
package signals

import "time"

// Направления сигнала.
const (
	DirectionLong  = "long"
	DirectionShort = "short"
)

// Исходы сигнала. open — начальное состояние; hit-target и hit-stop —
// терминальные, выхода из них нет.
const (
	OutcomeOpen      = "open"
	OutcomeHitTarget = "hit-target"
	OutcomeHitStop   = "hit-stop"
)

// Signal — торговый сигнал.
// Корректность уровней (target/stop по нужную сторону от entry) —
// ответственность создающего админа, валидацией не проверяется.
type Signal struct {
	ID          int64      `db:"id"`
	Pair        string     `db:"pair"`      // торговая пара, например "BTC/USDT"
	Direction   string     `db:"direction"` // long | short
	EntryPrice  float64    `db:"entry_price"`
	TargetPrice float64    `db:"target_price"`
	StopLoss    float64    `db:"stop_loss"`
	IsVIP       bool       `db:"is_vip"`
	Outcome     string     `db:"outcome"`
	CreatedAt   time.Time  `db:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at"`
}

// Resolved сообщает, достиг ли сигнал терминального состояния.
func (s *Signal) Resolved() bool {
	return s.Outcome != OutcomeOpen
}

// Stats — агрегированная статистика сигналов для /signalstats.
type Stats struct {
	Total     int64
	Open      int64
	HitTarget int64
	HitStop   int64
}

// WinRate — доля закрытых сигналов, достигших цели, в процентах.
func (st Stats) WinRate() float64 {
	closed := st.HitTarget + st.HitStop
	if closed == 0 {
		return 0
	}
	return float64(st.HitTarget) / float64(closed) * 100
}

// PairStats — статистика по одной паре для /bestpairs.
type PairStats struct {
	Pair      string
	Closed    int64
	HitTarget int64
}

// WinRate по паре.
func (ps PairStats) WinRate() float64 {
	if ps.Closed == 0 {
		return 0
	}
	return float64(ps.HitTarget) / float64(ps.Closed) * 100
}
