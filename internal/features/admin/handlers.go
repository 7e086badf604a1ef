// Package admin — handlers.go обрабатывает админ-команды:
// /login, /logout, /dashboard, /stats, /broadcast, /userinfo, /banuser, /unbanuser.
package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/features/signals"
	"serotonyl.ru/signal-bot/internal/features/subscription"
	"serotonyl.ru/signal-bot/internal/features/users"
)

// Handler обрабатывает команды админ-панели.
type Handler struct {
	service     *Service
	userService *users.Service
	subService  *subscription.Service
	sigService  *signals.Service
	api         *tgbotapi.BotAPI
}

func NewHandler(service *Service, userService *users.Service, subService *subscription.Service, sigService *signals.Service, api *tgbotapi.BotAPI) *Handler {
	return &Handler{
		service:     service,
		userService: userService,
		subService:  subService,
		sigService:  sigService,
		api:         api,
	}
}

// RequireSession — гейт для команд панели: пускает только залогиненного админа.
func (h *Handler) RequireSession(ctx context.Context, chatID, userID int64) bool {
	if h.service.IsAuthenticated(ctx, userID) {
		return true
	}
	h.send(chatID, "🔐 Please log in first: /login <password>")
	return false
}

// HandleLogin — /login <password>. Пароль приходит аргументом команды,
// поэтому сразу просим удалить сообщение.
func (h *Handler) HandleLogin(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) != 1 {
		h.send(chatID, "Usage: /login <password>")
		return
	}

	err := h.service.Login(ctx, userID, args[0])
	switch err {
	case nil:
		h.send(chatID, "✅ Logged in. Please delete your message with the password.\nPanel: /dashboard")
	case common.ErrNotAdmin:
		h.send(chatID, "❌ This command is for administrators only.")
	case common.ErrTooManyAttempts:
		h.send(chatID, "⛔ Too many failed attempts. Try again in an hour.")
	case common.ErrWrongPassword:
		h.send(chatID, "❌ Wrong password.")
	default:
		log.WithError(err).WithField("user_id", userID).Error("Ошибка входа в админ-панель")
		h.send(chatID, "⚠️ Login failed. Please try again.")
	}
}

// HandleLogout — /logout.
func (h *Handler) HandleLogout(ctx context.Context, chatID, userID int64) {
	if err := h.service.Logout(ctx, userID); err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка выхода из панели")
	}
	h.send(chatID, "👋 Logged out.")
}

// HandleDashboard — /dashboard: список доступных команд панели.
func (h *Handler) HandleDashboard(ctx context.Context, chatID, userID int64) {
	if !h.RequireSession(ctx, chatID, userID) {
		return
	}
	h.send(chatID, `🛠 Admin panel

/stats — service statistics
/revenuereport — revenue by plan
/broadcast <text> — message all users
/userinfo <id|@username> — user card
/banuser <id|@username> — ban a user
/unbanuser <id|@username> — lift a ban
/vipgrant <id|@username> <days> — grant VIP
/addsignal, /delsignal — manage signals
/logout — close the session`)
}

// HandleStats — /stats: сводка по пользователям, подпискам и сигналам.
func (h *Handler) HandleStats(ctx context.Context, chatID, userID int64) {
	if !h.RequireSession(ctx, chatID, userID) {
		return
	}

	total, banned, err := h.userService.Count(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка подсчёта пользователей")
		h.send(chatID, "⚠️ Could not load statistics.")
		return
	}
	activeSubs, err := h.subService.CountActive(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка подсчёта подписок")
		h.send(chatID, "⚠️ Could not load statistics.")
		return
	}
	sigStats, err := h.sigService.Stats(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка статистики сигналов")
		h.send(chatID, "⚠️ Could not load statistics.")
		return
	}

	h.send(chatID, fmt.Sprintf(`📊 Service statistics

👥 Users: %d (banned: %d)
⭐ Active subscriptions: %d
📈 Signals: %d total, %d open
🎯 Win rate: %.1f%%`,
		total, banned, activeSubs, sigStats.Total, sigStats.Open, sigStats.WinRate()))
}

// HandleBroadcast — /broadcast <text>: рассылка всем незабаненным.
// Рассылаем последовательно с паузой, чтобы не упереться в лимиты Telegram.
func (h *Handler) HandleBroadcast(ctx context.Context, chatID, userID int64, text string) {
	if !h.RequireSession(ctx, chatID, userID) {
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		h.send(chatID, "Usage: /broadcast <text>")
		return
	}

	ids, err := h.userService.AllIDs(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка выборки получателей рассылки")
		h.send(chatID, "⚠️ Could not load the recipient list.")
		return
	}

	sent, failed := 0, 0
	for _, id := range ids {
		msg := tgbotapi.NewMessage(id, "📢 "+text)
		if _, err := h.api.Send(msg); err != nil {
			// Пользователь мог заблокировать бота; пропускаем и идём дальше
			failed++
			continue
		}
		sent++
		time.Sleep(50 * time.Millisecond)
	}

	log.WithFields(log.Fields{"sent": sent, "failed": failed}).Info("Рассылка завершена")
	h.send(chatID, fmt.Sprintf("📢 Broadcast done: %d delivered, %d failed.", sent, failed))
}

// HandleUserInfo — /userinfo <id|@username>: карточка пользователя.
func (h *Handler) HandleUserInfo(ctx context.Context, chatID, userID int64, args []string) {
	if !h.RequireSession(ctx, chatID, userID) {
		return
	}
	if len(args) != 1 {
		h.send(chatID, "Usage: /userinfo <id|@username>")
		return
	}

	u, err := h.userService.Resolve(ctx, args[0])
	if err != nil {
		h.send(chatID, "❌ User not found.")
		return
	}

	loc := common.LoadLocation(h.service.cfg.AppTimezone)
	var b strings.Builder
	fmt.Fprintf(&b, "👤 %s\nID: %d\nTier: %s\nBanned: %v\nJoined: %s\n",
		u.DisplayName(), u.TelegramID, u.Tier, u.IsBanned, common.FormatDate(u.CreatedAt, loc))

	sub, err := h.subService.Get(ctx, u.TelegramID)
	if err == nil && sub != nil {
		fmt.Fprintf(&b, "Subscription: %s until %s", sub.Tier, common.FormatDateTime(sub.EndDate, loc))
	} else {
		b.WriteString("Subscription: none")
	}
	h.send(chatID, b.String())
}

// HandleBanUser — /banuser <id|@username>.
func (h *Handler) HandleBanUser(ctx context.Context, chatID, userID int64, args []string) {
	if !h.RequireSession(ctx, chatID, userID) {
		return
	}
	if len(args) != 1 {
		h.send(chatID, "Usage: /banuser <id|@username>")
		return
	}

	u, err := h.userService.Resolve(ctx, args[0])
	if err != nil {
		h.send(chatID, "❌ User not found.")
		return
	}
	if err := h.userService.Ban(ctx, u.TelegramID); err != nil {
		log.WithError(err).WithField("target", u.TelegramID).Error("Ошибка бана")
		h.send(chatID, "⚠️ Failed to ban the user.")
		return
	}
	h.send(chatID, fmt.Sprintf("🔨 User %s banned.", u.DisplayName()))
}

// HandleUnbanUser — /unbanuser <id|@username>.
func (h *Handler) HandleUnbanUser(ctx context.Context, chatID, userID int64, args []string) {
	if !h.RequireSession(ctx, chatID, userID) {
		return
	}
	if len(args) != 1 {
		h.send(chatID, "Usage: /unbanuser <id|@username>")
		return
	}

	u, err := h.userService.Resolve(ctx, args[0])
	if err != nil {
		h.send(chatID, "❌ User not found.")
		return
	}
	if err := h.userService.Unban(ctx, u.TelegramID); err != nil {
		log.WithError(err).WithField("target", u.TelegramID).Error("Ошибка разбана")
		h.send(chatID, "⚠️ Failed to unban the user.")
		return
	}
	h.send(chatID, fmt.Sprintf("✅ Ban lifted for %s.", u.DisplayName()))
}

func (h *Handler) send(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}
