// Package common содержит общие утилиты, используемые во всём проекте.
// Сюда входят: форматирование цен и дат, работа с часовым поясом бота.
package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatUSD форматирует сумму в долларах: 1234.5 → "$1,234.50".
func FormatUSD(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	parts := strings.SplitN(s, ".", 2)
	intPart := parts[0]

	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	// Расставляем разделители тысяч справа налево
	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "$" + b.String() + "." + parts[1]
	if neg {
		out = "-" + out
	}
	return out
}

// FormatPrice форматирует цену монеты без лишних нулей.
// Крупные монеты — два знака, дешёвые — до шести.
func FormatPrice(v float64) string {
	var s string
	if v >= 1 {
		s = fmt.Sprintf("%.2f", v)
	} else {
		s = strconv.FormatFloat(v, 'f', 6, 64)
		s = strings.TrimRight(s, "0")
		s = strings.TrimRight(s, ".")
	}
	return s
}

// LoadLocation загружает часовой пояс из конфигурации.
// Если не удалось — используем UTC, бот должен работать в любом окружении.
func LoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatDateTime форматирует время в формат "02.01.2006 15:04" в заданном поясе.
// Используется для отображения дат подписок и платежей.
func FormatDateTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006 15:04")
}

// FormatDate форматирует только дату.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("02.01.2006")
}
