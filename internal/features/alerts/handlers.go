// Package alerts — handlers.go обрабатывает команды /setalert, /myalerts,
// /removealert.
package alerts

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
)

// Handler обрабатывает команды алертов.
type Handler struct {
	service *Service
	api     *tgbotapi.BotAPI
}

func NewHandler(service *Service, api *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, api: api}
}

// HandleSetAlert — /setalert <symbol> <price> <above|below>.
func (h *Handler) HandleSetAlert(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 3 {
		h.send(chatID, "Usage: /setalert <symbol> <price> <above|below>\nExample: /setalert BTC 50000 above")
		return
	}

	price, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		h.send(chatID, "❌ Price must be a number.")
		return
	}

	id, err := h.service.Add(ctx, userID, args[0], price, args[2])
	if err != nil {
		switch err {
		case common.ErrInvalidDirection:
			h.send(chatID, "❌ Direction must be above or below.")
		case common.ErrInvalidPrice:
			h.send(chatID, "❌ Price must be positive.")
		case common.ErrInvalidSymbol:
			h.send(chatID, "❌ Please provide a coin symbol, e.g. BTC.")
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка создания алерта")
			h.send(chatID, "⚠️ Failed to create the alert. Please try again.")
		}
		return
	}

	h.send(chatID, fmt.Sprintf("🔔 Alert #%d set: %s %s %s",
		id, strings.ToUpper(args[0]), args[2], common.FormatPrice(price)))
}

// HandleMyAlerts — /myalerts: список алертов пользователя.
func (h *Handler) HandleMyAlerts(ctx context.Context, chatID, userID int64) {
	items, err := h.service.ListByUser(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка выдачи алертов")
		h.send(chatID, "⚠️ Could not load your alerts.")
		return
	}
	if len(items) == 0 {
		h.send(chatID, "📭 You have no alerts. Create one: /setalert BTC 50000 above")
		return
	}

	var b strings.Builder
	b.WriteString("🔔 Your alerts:\n\n")
	for _, a := range items {
		fmt.Fprintf(&b, "#%d %s %s %s\n", a.ID, a.Symbol, a.Direction, common.FormatPrice(a.TargetPrice))
	}
	b.WriteString("\nRemove: /removealert <id>")
	h.send(chatID, b.String())
}

// HandleRemoveAlert — /removealert <id>. Удалить можно только свой алерт.
func (h *Handler) HandleRemoveAlert(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /removealert <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(chatID, "❌ Alert id must be a number.")
		return
	}

	if err := h.service.Remove(ctx, id, userID); err != nil {
		if err == common.ErrAlertNotFound {
			h.send(chatID, "❌ No such alert.")
		} else {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка удаления алерта")
			h.send(chatID, "⚠️ Failed to remove the alert.")
		}
		return
	}
	h.send(chatID, fmt.Sprintf("🗑 Alert #%d removed.", id))
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
