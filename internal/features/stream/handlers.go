// Package stream — handlers.go обрабатывает команды /livestream и /stopstream.
package stream

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
)

// Handler обрабатывает команды трансляций.
type Handler struct {
	manager *Manager
	api     *tgbotapi.BotAPI
}

func NewHandler(manager *Manager, api *tgbotapi.BotAPI) *Handler {
	return &Handler{manager: manager, api: api}
}

// HandleLiveStream — /livestream <symbol>. Новая трансляция заменяет
// предыдущую того же пользователя.
func (h *Handler) HandleLiveStream(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /livestream <symbol>\nExample: /livestream BTC")
		return
	}

	if err := h.manager.Start(ctx, userID, args[0]); err != nil {
		switch err {
		case common.ErrInvalidSymbol:
			h.send(chatID, "❌ Please provide a coin symbol, e.g. BTC.")
		case common.ErrStreamLimit:
			h.send(chatID, "⚠️ Too many live streams are running right now. Try again later.")
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка запуска трансляции")
			h.send(chatID, "⚠️ Could not start the stream. Please try again.")
		}
		return
	}
	h.send(chatID, "📡 Live stream started. Stop it anytime: /stopstream")
}

// HandleStopStream — /stopstream.
func (h *Handler) HandleStopStream(chatID, userID int64) {
	if err := h.manager.Stop(userID); err != nil {
		h.send(chatID, "ℹ️ You have no active stream.")
		return
	}
	h.send(chatID, "🛑 Stream stopped.")
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
