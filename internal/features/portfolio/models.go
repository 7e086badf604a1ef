// Package portfolio управляет позициями портфеля пользователей.
// models.go описывает структуры таблицы portfolio.
package portfolio

import "time"

// Position — одна позиция портфеля. Создаётся и удаляется командами
// пользователя; на месте никогда не изменяется.
type Position struct {
	ID         int64     `db:"id"`
	UserID     int64     `db:"user_id"`
	Symbol     string    `db:"symbol"` // тикер монеты ("BTC")
	Amount     float64   `db:"amount"`
	EntryPrice float64   `db:"entry_price"`
	CreatedAt  time.Time `db:"created_at"`
}

// Cost — стоимость позиции по цене входа.
func (p *Position) Cost() float64 {
	return p.Amount * p.EntryPrice
}

// ValueAt — стоимость позиции по текущей цене.
func (p *Position) ValueAt(price float64) float64 {
	return p.Amount * price
}
