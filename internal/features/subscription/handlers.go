// Package subscription — handlers.go обрабатывает команды подписки:
// /subscribe, /checkpayment, /mysub и админские /vipgrant, /revenuereport.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/config"
	"serotonyl.ru/signal-bot/internal/features/users"
	"serotonyl.ru/signal-bot/internal/payment"
	"serotonyl.ru/signal-bot/internal/session"
)

// Handler обрабатывает команды подписки.
type Handler struct {
	service     *Service
	userService *users.Service
	pay         *payment.Client
	sessions    *session.Store
	api         *tgbotapi.BotAPI
	cfg         *config.Config
}

func NewHandler(service *Service, userService *users.Service, pay *payment.Client, sessions *session.Store, api *tgbotapi.BotAPI, cfg *config.Config) *Handler {
	return &Handler{
		service:     service,
		userService: userService,
		pay:         pay,
		sessions:    sessions,
		api:         api,
		cfg:         cfg,
	}
}

// HandleSubscribe: без аргументов показывает тарифы, с кодом тарифа —
// выставляет инвойс и запоминает его в сессии до /checkpayment.
func (h *Handler) HandleSubscribe(ctx context.Context, chatID, userID int64, args []string) {
	if len(args) == 0 {
		var b strings.Builder
		b.WriteString("💎 *VIP Subscription Plans*\n\n")
		for _, p := range h.service.Plans() {
			fmt.Fprintf(&b, "• %s — %s %s (%d days)\n  `/subscribe %s`\n",
				p.Title, common.FormatPrice(p.Price), h.cfg.PaymentCurrency, p.Days, p.Code)
		}
		b.WriteString("\n" + disclaimer)
		h.sendMarkdown(chatID, b.String())
		return
	}

	plan, err := h.service.PlanByCode(strings.ToLower(args[0]))
	if err != nil {
		h.send(chatID, "❌ Unknown plan. Use /subscribe to see available plans.")
		return
	}

	invoice, err := h.pay.CreateInvoice(ctx, plan.Price, h.cfg.PaymentCurrency,
		fmt.Sprintf("%s subscription", plan.Title))
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Не удалось создать инвойс")
		if errors.Is(err, payment.ErrGatewayRejected) {
			h.send(chatID, "⚠️ Payment service rejected the request. Please contact support.")
		} else {
			h.send(chatID, "⚠️ Payment service is temporarily unavailable. Please try again later.")
		}
		return
	}

	h.sessions.Set(userID, &PendingInvoice{
		InvoiceID: invoice.ID,
		PlanCode:  plan.Code,
		Amount:    plan.Price,
	})

	h.sendMarkdown(chatID, fmt.Sprintf(
		"🧾 Invoice created for *%s* — %s %s.\n\n1. Pay here: %s\n2. Then run /checkpayment to activate your subscription.\n\nThe invoice expires in 1 hour.",
		plan.Title, common.FormatPrice(plan.Price), h.cfg.PaymentCurrency, invoice.PayURL))
}

// HandleCheckPayment проверяет инвойс из сессии и при статусе "paid"
// оформляет подписку. Недоступность шлюза трактуется как «неизвестно,
// попробуй позже» — никогда как «не оплачено».
func (h *Handler) HandleCheckPayment(ctx context.Context, chatID, userID int64) {
	raw, ok := h.sessions.Get(userID)
	pending, castOK := raw.(*PendingInvoice)
	if !ok || !castOK {
		h.send(chatID, "ℹ️ No pending invoice. Start with /subscribe.")
		return
	}

	invoice, err := h.pay.GetInvoice(ctx, pending.InvoiceID)
	if err != nil {
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			h.send(chatID, "⚠️ Payment service is temporarily unavailable. Your payment status is unknown — please run /checkpayment again in a minute.")
			return
		}
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки инвойса")
		if errors.Is(err, payment.ErrGatewayRejected) {
			h.send(chatID, "⚠️ Payment service rejected the request. Please contact support.")
			return
		}
		h.send(chatID, "⚠️ Could not check the invoice. Please try again later.")
		return
	}

	switch invoice.Status {
	case payment.StatusPaid:
		plan, err := h.service.PlanByCode(pending.PlanCode)
		if err != nil {
			// План из сессии всегда валиден, но на всякий случай
			log.WithField("plan", pending.PlanCode).Error("Неизвестный план в сессии")
			h.send(chatID, "⚠️ Something went wrong. Please contact support.")
			return
		}
		sub, err := h.service.ConfirmPayment(ctx, userID, plan, pending.Amount,
			strconv.FormatInt(pending.InvoiceID, 10))
		if err != nil {
			// Оплата прошла, но запись не закоммитилась: подписку НЕ считаем
			// выданной, пользователь повторит /checkpayment
			log.WithError(err).WithField("user_id", userID).Error("Ошибка оформления подписки")
			h.send(chatID, "⚠️ Payment received but there was a processing error. Please run /checkpayment again.")
			return
		}
		h.sessions.Remove(userID)
		h.send(chatID, fmt.Sprintf("✅ Payment confirmed! VIP active until %s. Enjoy /vipsignals 🚀",
			common.FormatDateTime(sub.EndDate, common.LoadLocation(h.cfg.AppTimezone))))

	case payment.StatusExpired:
		h.sessions.Remove(userID)
		h.send(chatID, "⌛ The invoice has expired. Start over with /subscribe.")

	default:
		h.send(chatID, "⏳ Payment not received yet. Pay the invoice, then run /checkpayment again.")
	}
}

// HandleMySub показывает состояние подписки пользователя.
func (h *Handler) HandleMySub(ctx context.Context, chatID, userID int64) {
	if h.cfg.IsAdmin(userID) {
		h.send(chatID, "👑 You are an admin — VIP access is permanent.")
		return
	}

	sub, err := h.service.Get(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка чтения подписки")
		h.send(chatID, "⚠️ Something went wrong. Please try again.")
		return
	}
	if sub == nil {
		h.send(chatID, "🆓 You are on the free tier. Use /subscribe to get VIP signals.")
		return
	}

	loc := common.LoadLocation(h.cfg.AppTimezone)
	if sub.ActiveAt(time.Now()) {
		h.send(chatID, fmt.Sprintf("💎 VIP active until %s.", common.FormatDateTime(sub.EndDate, loc)))
	} else {
		h.send(chatID, fmt.Sprintf("❌ Your VIP expired on %s. Use /subscribe to renew.",
			common.FormatDateTime(sub.EndDate, loc)))
	}
}

// HandleVIPGrant — /vipgrant <@user|id> <days>. Только для админов
// (гейт в роутере). Платёжной записи не создаёт.
func (h *Handler) HandleVIPGrant(ctx context.Context, chatID int64, args []string) {
	if len(args) != 2 {
		h.send(chatID, "Usage: /vipgrant <@username|user_id> <days>")
		return
	}

	target, err := h.userService.Resolve(ctx, args[0])
	if err != nil {
		h.send(chatID, "❌ User not found. They must have messaged the bot at least once.")
		return
	}
	days, err := strconv.Atoi(args[1])
	if err != nil || days <= 0 {
		h.send(chatID, "❌ Days must be a positive number.")
		return
	}

	sub, err := h.service.GrantVIP(ctx, target.TelegramID, days)
	if err != nil {
		log.WithError(err).WithField("user_id", target.TelegramID).Error("Ошибка выдачи VIP")
		h.send(chatID, "⚠️ Failed to grant VIP.")
		return
	}

	loc := common.LoadLocation(h.cfg.AppTimezone)
	h.send(chatID, fmt.Sprintf("✅ Granted VIP to %s until %s.",
		target.DisplayName(), common.FormatDateTime(sub.EndDate, loc)))
	h.send(target.TelegramID, fmt.Sprintf("🎁 You've been granted VIP for %d days! Check /vipsignals.", days))
}

// HandleRevenueReport — /revenuereport: выручка по планам.
func (h *Handler) HandleRevenueReport(ctx context.Context, chatID int64) {
	rows, err := h.service.Revenue(ctx)
	if err != nil {
		log.WithError(err).Error("Ошибка отчёта о выручке")
		h.send(chatID, "⚠️ Failed to build the revenue report.")
		return
	}
	if len(rows) == 0 {
		h.send(chatID, "💰 No completed payments yet.")
		return
	}

	var b strings.Builder
	b.WriteString("💰 *Revenue report*\n\n")
	var grand float64
	for _, row := range rows {
		fmt.Fprintf(&b, "• %s: %d payments, %s %s\n",
			row.Plan, row.Payments, common.FormatPrice(row.Total), row.Currency)
		grand += row.Total
	}
	fmt.Fprintf(&b, "\nTotal: %s", common.FormatPrice(grand))
	h.sendMarkdown(chatID, b.String())
}

const disclaimer = "⚠️ _Disclaimer: signals are for information only, not financial advice. All subscriptions are final — no refunds._"

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
