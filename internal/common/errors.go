// Package common — errors.go определяет пользовательские ошибки,
// которые используются во всех модулях бота.
// Эти ошибки позволяют обработчикам различать типы проблем
// и отправлять пользователю понятные сообщения.
package common

import "errors"

// Ошибки доступа
var (
	// ErrUserBanned — пользователь забанен, все действия запрещены
	ErrUserBanned = errors.New("user is banned")
	// ErrNotAdmin — пользователь не является администратором
	ErrNotAdmin = errors.New("admin access required")
	// ErrNotVIP — команда доступна только VIP-подписчикам
	ErrNotVIP = errors.New("VIP subscription required")
)

// Ошибки пользовательского ввода
var (
	// ErrInvalidAmount — некорректная сумма (ноль или отрицательная)
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInvalidPrice — некорректная цена
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidSymbol — символ монеты не распознан
	ErrInvalidSymbol = errors.New("unknown symbol")
	// ErrInvalidDirection — направление не above/below или long/short
	ErrInvalidDirection = errors.New("invalid direction")
	// ErrUnknownPlan — такого тарифа подписки нет
	ErrUnknownPlan = errors.New("unknown subscription plan")
)

// Ошибки сущностей
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("user not found")
	// ErrSignalNotFound — сигнал не найден
	ErrSignalNotFound = errors.New("signal not found")
	// ErrAlertNotFound — алерт не найден или принадлежит другому пользователю
	ErrAlertNotFound = errors.New("alert not found")
	// ErrPositionNotFound — позиция портфеля не найдена
	ErrPositionNotFound = errors.New("position not found")
)

// Ошибки админки
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("wrong password")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("too many attempts, try again in an hour")
	// ErrSessionExpired — сессия истекла
	ErrSessionExpired = errors.New("session expired, /login again")
)

// Ошибки стриминга
var (
	// ErrStreamLimit — достигнут лимит одновременных стримов
	ErrStreamLimit = errors.New("too many active streams, try later")
	// ErrNoActiveStream — у пользователя нет запущенного стрима
	ErrNoActiveStream = errors.New("no active stream")
)
