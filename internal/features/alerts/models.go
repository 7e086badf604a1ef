// Package alerts управляет ценовыми алертами пользователей и их фоновой
// сверкой с живыми ценами. models.go описывает структуры таблицы alerts.
package alerts

import "time"

// Направления алерта.
const (
	DirectionAbove = "above"
	DirectionBelow = "below"
)

// Alert — ценовой алерт. Создаётся пользователем, удаляется по срабатыванию
// или по запросу владельца. Состояния "сработал" в базе нет: сработавший
// алерт просто исчезает после доставки уведомления.
type Alert struct {
	ID          int64     `db:"id"`
	UserID      int64     `db:"user_id"`
	Symbol      string    `db:"symbol"` // тикер монеты ("BTC")
	TargetPrice float64   `db:"target_price"`
	Direction   string    `db:"direction"` // above | below
	CreatedAt   time.Time `db:"created_at"`
}
