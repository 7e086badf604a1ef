// Package signals — handlers.go обрабатывает команды сигналов.
// Выдача VIP-сигналов пагинируется: последний показанный список лежит
// в session.Store и листается командой "/vipsignals next".
package signals

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
	"serotonyl.ru/signal-bot/internal/session"
)

// Сколько сигналов держим в кэше пагинации за раз.
const fetchLimit = 25

// signalPage — закэшированная выдача для пагинации.
type signalPage struct {
	signals []*Signal
	offset  int
}

// Handler обрабатывает команды сигналов.
type Handler struct {
	service  *Service
	pages    *session.Store
	api      *tgbotapi.BotAPI
	pageSize int
}

func NewHandler(service *Service, pages *session.Store, api *tgbotapi.BotAPI, pageSize int) *Handler {
	return &Handler{service: service, pages: pages, api: api, pageSize: pageSize}
}

// HandleSignals — /signals: последние бесплатные сигналы со строкой
// momentum (псевдо-RSI, заглушка — см. placeholder.go).
func (h *Handler) HandleSignals(ctx context.Context, chatID int64) {
	sigs, err := h.service.List(ctx, false, h.pageSize)
	if err != nil {
		log.WithError(err).Error("Ошибка выдачи бесплатных сигналов")
		h.send(chatID, "⚠️ Could not load signals. Please try again.")
		return
	}
	if len(sigs) == 0 {
		h.send(chatID, "📭 No free signals right now. Check back later or go VIP: /subscribe")
		return
	}

	var b strings.Builder
	b.WriteString("📡 *Free signals*\n\n")
	now := time.Now()
	for _, s := range sigs {
		b.WriteString(formatSignal(s))
		rsi := PlaceholderRSI(market.PairBase(s.Pair), now)
		fmt.Fprintf(&b, "  momentum: %.0f (%s)\n\n", rsi, MomentumLabel(rsi))
	}
	b.WriteString("💎 VIP members get premium signals: /vipsignals")
	h.sendMarkdown(chatID, b.String())
}

// HandleVIPSignals — /vipsignals [next]: страница VIP-сигналов.
// Без аргумента — свежая выборка и первая страница, "next" — следующая
// страница из кэша.
func (h *Handler) HandleVIPSignals(ctx context.Context, chatID, userID int64, args []string) {
	wantNext := len(args) > 0 && strings.EqualFold(args[0], "next")

	var page *signalPage
	if wantNext {
		if raw, ok := h.pages.Get(userID); ok {
			page, _ = raw.(*signalPage)
		}
	}
	if page == nil {
		sigs, err := h.service.List(ctx, true, fetchLimit)
		if err != nil {
			log.WithError(err).WithField("user_id", userID).Error("Ошибка выдачи VIP-сигналов")
			h.send(chatID, "⚠️ Could not load signals. Please try again.")
			return
		}
		page = &signalPage{signals: sigs}
	}

	if len(page.signals) == 0 {
		h.send(chatID, "📭 No VIP signals yet. Stay tuned!")
		h.pages.Remove(userID)
		return
	}
	if page.offset >= len(page.signals) {
		h.send(chatID, "📭 No more signals. Run /vipsignals for a fresh list.")
		h.pages.Remove(userID)
		return
	}

	end := page.offset + h.pageSize
	if end > len(page.signals) {
		end = len(page.signals)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "💎 *VIP signals* (%d–%d of %d)\n\n", page.offset+1, end, len(page.signals))
	for _, s := range page.signals[page.offset:end] {
		b.WriteString(formatSignal(s))
		b.WriteString("\n")
	}
	if end < len(page.signals) {
		b.WriteString("➡️ More: `/vipsignals next`")
	}

	page.offset = end
	h.pages.Set(userID, page)
	h.sendMarkdown(chatID, b.String())
}

// HandleAddSignal — /addsignal <pair> <long|short> <entry> <target> <stop> [vip].
// Только для админов (гейт в роутере).
func (h *Handler) HandleAddSignal(ctx context.Context, chatID int64, args []string) {
	if len(args) < 5 {
		h.send(chatID, "Usage: /addsignal <pair> <long|short> <entry> <target> <stop> [vip]")
		return
	}

	entry, err1 := strconv.ParseFloat(args[2], 64)
	target, err2 := strconv.ParseFloat(args[3], 64)
	stop, err3 := strconv.ParseFloat(args[4], 64)
	if err1 != nil || err2 != nil || err3 != nil {
		h.send(chatID, "❌ Prices must be numbers.")
		return
	}
	vip := len(args) > 5 && strings.EqualFold(args[5], "vip")

	id, err := h.service.Add(ctx, args[0], args[1], entry, target, stop, vip)
	if err != nil {
		switch err {
		case common.ErrInvalidDirection:
			h.send(chatID, "❌ Direction must be long or short.")
		case common.ErrInvalidPrice:
			h.send(chatID, "❌ Prices must be positive.")
		default:
			log.WithError(err).Error("Ошибка создания сигнала")
			h.send(chatID, "⚠️ Failed to create the signal.")
		}
		return
	}
	h.send(chatID, fmt.Sprintf("✅ Signal #%d created.", id))
}

// HandleDelSignal — /delsignal <id>.
func (h *Handler) HandleDelSignal(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /delsignal <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.send(chatID, "❌ Signal id must be a number.")
		return
	}
	if err := h.service.Delete(ctx, id); err != nil {
		if err == common.ErrSignalNotFound {
			h.send(chatID, "❌ No such signal.")
		} else {
			log.WithError(err).Error("Ошибка удаления сигнала")
			h.send(chatID, "⚠️ Failed to delete the signal.")
		}
		return
	}
	h.send(chatID, fmt.Sprintf("🗑 Signal #%d deleted.", id))
}

// HandleSignalStats — /signalstats: сводка по исходам.
func (h *Handler) HandleSignalStats(ctx context.Context, chatID int64) {
	st, err := h.service.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка статистики сигналов")
		h.send(chatID, "⚠️ Failed to load signal stats.")
		return
	}
	h.sendMarkdown(chatID, fmt.Sprintf(
		"📊 *Signal stats*\n\nTotal: %d\nOpen: %d\n🎯 Hit target: %d\n🛑 Hit stop: %d\nWin rate: %.1f%%",
		st.Total, st.Open, st.HitTarget, st.HitStop, st.WinRate()))
}

// HandleBestPairs — /bestpairs: пары с лучшим win-rate.
func (h *Handler) HandleBestPairs(ctx context.Context, chatID int64) {
	pairs, err := h.service.BestPairs(ctx, 10)
	if err != nil {
		log.WithError(err).Error("Ошибка запроса лучших пар")
		h.send(chatID, "⚠️ Failed to load best pairs.")
		return
	}
	if len(pairs) == 0 {
		h.send(chatID, "📭 No closed signals yet.")
		return
	}

	var b strings.Builder
	b.WriteString("🏆 *Best pairs*\n\n")
	for i, ps := range pairs {
		fmt.Fprintf(&b, "%d. %s — %.1f%% (%d closed)\n", i+1, ps.Pair, ps.WinRate(), ps.Closed)
	}
	h.sendMarkdown(chatID, b.String())
}

// formatSignal — одна строка выдачи сигнала.
func formatSignal(s *Signal) string {
	status := "🟢 open"
	switch s.Outcome {
	case OutcomeHitTarget:
		status = "🎯 hit target"
	case OutcomeHitStop:
		status = "🛑 hit stop"
	}
	return fmt.Sprintf("#%d %s %s — entry %s, target %s, stop %s (%s)\n",
		s.ID, s.Pair, strings.ToUpper(s.Direction),
		common.FormatPrice(s.EntryPrice), common.FormatPrice(s.TargetPrice),
		common.FormatPrice(s.StopLoss), status)
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
