// Package users управляет пользователями бота: регистрацией при первом
// контакте, тарифом и баном. models.go описывает структуры таблицы users.
package users

import (
	"strconv"
	"time"
)

// Тарифы пользователя.
const (
	TierFree = "free"
	TierVIP  = "vip"
)

// User представляет пользователя бота в базе данных.
// Создаётся при первом сообщении и никогда не удаляется.
type User struct {
	TelegramID int64     `db:"telegram_id"` // Telegram user ID (первичный ключ)
	Username   string    `db:"username"`    // @username (может быть пустым)
	Tier       string    `db:"tier"`        // free | vip
	IsBanned   bool      `db:"is_banned"`   // Забаненным запрещены все действия
	CreatedAt  time.Time `db:"created_at"`  // Когда впервые написал боту
}

// DisplayName возвращает отображаемое имя пользователя.
func (u *User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	return "id" + strconv.FormatInt(u.TelegramID, 10)
}
