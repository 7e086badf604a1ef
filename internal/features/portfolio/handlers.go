// Package portfolio — handlers.go обрабатывает команды /addposition,
// /myportfolio, /removeposition.
package portfolio

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
)

// Handler обрабатывает команды портфеля.
type Handler struct {
	service *Service
	api     *tgbotapi.BotAPI
}

func NewHandler(service *Service, api *tgbotapi.BotAPI) *Handler {
	return &Handler{service: service, api: api}
}

// HandleAddPosition — /addposition <symbol> <amount> <entry_price>.
func (h *Handler) HandleAddPosition(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 3 {
		h.send(chatID, "Usage: /addposition <symbol> <amount> <entry_price>\nExample: /addposition BTC 0.5 43000")
		return
	}

	amount, err1 := strconv.ParseFloat(args[1], 64)
	entry, err2 := strconv.ParseFloat(args[2], 64)
	if err1 != nil || err2 != nil {
		h.send(chatID, "❌ Amount and price must be numbers.")
		return
	}

	id, err := h.service.Add(ctx, userID, args[0], amount, entry)
	if err != nil {
		switch err {
		case common.ErrInvalidAmount:
			h.send(chatID, "❌ Amount must be positive.")
		case common.ErrInvalidPrice:
			h.send(chatID, "❌ Entry price must be positive.")
		case common.ErrInvalidSymbol:
			h.send(chatID, "❌ Please provide a coin symbol, e.g. BTC.")
		default:
			log.WithError(err).WithField("user_id", userID).Error("Ошибка добавления позиции")
			h.send(chatID, "⚠️ Failed to add the position. Please try again.")
		}
		return
	}
	h.send(chatID, fmt.Sprintf("✅ Position #%d added: %s %s @ %s",
		id, args[1], strings.ToUpper(args[0]), common.FormatPrice(entry)))
}

// HandleMyPortfolio — /myportfolio: позиции с оценкой по текущим ценам.
func (h *Handler) HandleMyPortfolio(ctx context.Context, chatID, userID int64) {
	positions, prices, err := h.service.Valuation(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка оценки портфеля")
		h.send(chatID, "⚠️ Could not load your portfolio.")
		return
	}
	if len(positions) == 0 {
		h.send(chatID, "📭 Your portfolio is empty. Add a position: /addposition BTC 0.5 43000")
		return
	}

	var b strings.Builder
	b.WriteString("💼 *Your portfolio*\n\n")
	var totalCost, totalValue float64
	allPriced := true
	for _, p := range positions {
		totalCost += p.Cost()
		price, ok := prices[p.Symbol]
		if !ok {
			allPriced = false
			fmt.Fprintf(&b, "#%d %s: %s @ %s — current price n/a\n",
				p.ID, p.Symbol, trimFloat(p.Amount), common.FormatPrice(p.EntryPrice))
			continue
		}
		value := p.ValueAt(price)
		totalValue += value
		pnl := value - p.Cost()
		sign := "🟢"
		if pnl < 0 {
			sign = "🔴"
		}
		fmt.Fprintf(&b, "#%d %s: %s @ %s → %s %s %s\n",
			p.ID, p.Symbol, trimFloat(p.Amount), common.FormatPrice(p.EntryPrice),
			common.FormatUSD(value), sign, common.FormatUSD(pnl))
	}

	if allPriced {
		fmt.Fprintf(&b, "\nTotal: %s (cost %s)", common.FormatUSD(totalValue), common.FormatUSD(totalCost))
	} else {
		b.WriteString("\nSome prices are unavailable right now — totals omitted.")
	}
	h.sendMarkdown(chatID, b.String())
}

// HandleRemovePosition — /removeposition <id>.
func (h *Handler) HandleRemovePosition(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /removeposition <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(chatID, "❌ Position id must be a number.")
		return
	}

	if err := h.service.Remove(ctx, id, userID); err != nil {
		if err == common.ErrPositionNotFound {
			h.send(chatID, "❌ No such position.")
		} else {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка удаления позиции")
			h.send(chatID, "⚠️ Failed to remove the position.")
		}
		return
	}
	h.send(chatID, fmt.Sprintf("🗑 Position #%d removed.", id))
}

func trimFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', 8, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimRight(s, ".")
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

func (h *Handler) sendMarkdown(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := h.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
