// Package signals — placeholder.go содержит псевдо-RSI для строки
// "momentum" в выдаче /signals.
//
// PlaceholderRSI — НЕ технический индикатор, а детерминированная заглушка:
// хеш от монеты и текущего часа, растянутый на шкалу 0..100. Уносить её
// в «настоящий» анализ или оптимизировать не нужно; реальный RSI считается
// только для графика /history (пакет charts).
package signals

import (
	"hash/fnv"
	"strings"
	"time"
)

// PlaceholderRSI возвращает псевдо-RSI монеты на текущий час.
// Для одной монеты в пределах часа значение стабильно.
func PlaceholderRSI(coin string, now time.Time) float64 {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(coin))))
	h.Write([]byte(now.UTC().Format("2006010215"))) // год-месяц-день-час
	return float64(h.Sum64() % 10001) / 100
}

// MomentumLabel переводит псевдо-RSI в подпись для пользователя.
func MomentumLabel(rsi float64) string {
	switch {
	case rsi >= 70:
		return "overbought"
	case rsi <= 30:
		return "oversold"
	default:
		return "neutral"
	}
}
