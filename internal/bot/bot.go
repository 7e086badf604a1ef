// Package bot содержит главный модуль бота — приём обновлений, гейтинг
// и маршрутизацию команд к обработчикам фич.
package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/bot/middleware"
	"serotonyl.ru/signal-bot/internal/config"
	"serotonyl.ru/signal-bot/internal/features/admin"
	"serotonyl.ru/signal-bot/internal/features/alerts"
	"serotonyl.ru/signal-bot/internal/features/portfolio"
	"serotonyl.ru/signal-bot/internal/features/signals"
	"serotonyl.ru/signal-bot/internal/features/stream"
	"serotonyl.ru/signal-bot/internal/features/subscription"
	"serotonyl.ru/signal-bot/internal/features/users"
	"serotonyl.ru/signal-bot/internal/market"
)

// Bot — главная структура бота, объединяющая все компоненты.
type Bot struct {
	api *tgbotapi.BotAPI
	cfg *config.Config

	limiter *middleware.Limiter
	parser  *CommandParser
	market  *market.Client

	userService *users.Service
	subService  *subscription.Service

	subHandler       *subscription.Handler
	signalHandler    *signals.Handler
	alertHandler     *alerts.Handler
	portfolioHandler *portfolio.Handler
	streamHandler    *stream.Handler
	adminHandler     *admin.Handler

	// ограничитель параллелизма обработки апдейтов
	inflight chan struct{}
}

// New создаёт новый экземпляр бота со всеми зависимостями.
func New(
	api *tgbotapi.BotAPI,
	cfg *config.Config,
	marketClient *market.Client,
	userService *users.Service,
	subService *subscription.Service,
	subHandler *subscription.Handler,
	signalHandler *signals.Handler,
	alertHandler *alerts.Handler,
	portfolioHandler *portfolio.Handler,
	streamHandler *stream.Handler,
	adminHandler *admin.Handler,
) *Bot {
	maxInFlight := cfg.BotMaxInflight
	if maxInFlight <= 0 {
		maxInFlight = 64
	}

	return &Bot{
		api:              api,
		cfg:              cfg,
		limiter:          middleware.NewLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow),
		parser:           NewCommandParser(api.Self.UserName),
		market:           marketClient,
		userService:      userService,
		subService:       subService,
		subHandler:       subHandler,
		signalHandler:    signalHandler,
		alertHandler:     alertHandler,
		portfolioHandler: portfolioHandler,
		streamHandler:    streamHandler,
		adminHandler:     adminHandler,
		inflight:         make(chan struct{}, maxInFlight),
	}
}

// Start запускает polling обновлений от Telegram.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.BotUpdateTimeoutSeconds

	updates := b.api.GetUpdatesChan(u)

	log.WithFields(log.Fields{
		"max_inflight": b.cfg.BotMaxInflight,
		"timeout_sec":  b.cfg.BotUpdateTimeoutSeconds,
	}).Info("Бот запущен и ожидает сообщения...")

	for {
		select {
		case <-ctx.Done():
			log.Info("Бот останавливается (ctx done)...")
			b.api.StopReceivingUpdates()
			b.limiter.Close()
			return

		case update, ok := <-updates:
			if !ok {
				log.Info("Канал updates закрыт, бот остановлен")
				b.limiter.Close()
				return
			}

			// лимит параллелизма
			b.inflight <- struct{}{}
			go func(upd tgbotapi.Update) {
				defer func() { <-b.inflight }()
				b.handleUpdate(ctx, upd)
			}(update)
		}
	}
}

// handleUpdate обрабатывает одно обновление от Telegram.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer middleware.Recover("update_handler")

	if update.Message == nil || update.Message.Text == "" || update.Message.From == nil {
		return
	}
	message := update.Message

	middleware.LogMessage(message)

	chatID := message.Chat.ID
	userID := message.From.ID

	// Бан — самая ранняя проверка: забаненный не тратит ни лимит, ни БД
	banned, err := b.userService.IsBanned(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("Ошибка проверки бана")
	}
	if banned {
		return
	}

	if !b.limiter.Allow(userID) {
		log.WithField("user_id", userID).Debug("rate limited")
		return
	}

	if err := b.userService.EnsureUser(ctx, userID, message.From.UserName); err != nil {
		log.WithError(err).WithField("user_id", userID).Warn("EnsureUser failed")
	}

	cmd, args, isCommand := b.parser.ParseCommand(message.Text)
	if !isCommand {
		return
	}

	b.routeCommand(ctx, chatID, userID, cmd, args)
}

// routeCommand маршрутизирует команду к нужному обработчику.
func (b *Bot) routeCommand(ctx context.Context, chatID, userID int64, cmd string, args []string) {
	switch cmd {
	case "start":
		b.sendMessage(chatID, startMessage)
	case "help":
		b.sendMessage(chatID, helpMessage)

	// --- Рыночные данные ---
	case "price":
		b.handlePrice(ctx, chatID, args)
	case "top":
		b.handleTop(ctx, chatID)
	case "history":
		b.handleHistory(ctx, chatID, args)

	// --- Сигналы ---
	case "signals":
		b.signalHandler.HandleSignals(ctx, chatID)
	case "vipsignals":
		if !b.requireVIP(ctx, chatID, userID) {
			return
		}
		b.signalHandler.HandleVIPSignals(ctx, chatID, userID, args)
	case "signalstats":
		b.signalHandler.HandleSignalStats(ctx, chatID)
	case "bestpairs":
		b.signalHandler.HandleBestPairs(ctx, chatID)

	// --- Подписка ---
	case "subscribe":
		b.subHandler.HandleSubscribe(ctx, chatID, userID, args)
	case "checkpayment":
		b.subHandler.HandleCheckPayment(ctx, chatID, userID)
	case "mysub":
		b.subHandler.HandleMySub(ctx, chatID, userID)

	// --- Алерты ---
	case "setalert":
		b.alertHandler.HandleSetAlert(ctx, chatID, userID, args)
	case "myalerts":
		b.alertHandler.HandleMyAlerts(ctx, chatID, userID)
	case "removealert":
		b.alertHandler.HandleRemoveAlert(ctx, chatID, userID, args)

	// --- Портфель ---
	case "addposition":
		b.portfolioHandler.HandleAddPosition(ctx, chatID, userID, args)
	case "myportfolio":
		b.portfolioHandler.HandleMyPortfolio(ctx, chatID, userID)
	case "removeposition":
		b.portfolioHandler.HandleRemovePosition(ctx, chatID, userID, args)

	// --- Трансляции (VIP) ---
	case "livestream":
		if !b.requireVIP(ctx, chatID, userID) {
			return
		}
		b.streamHandler.HandleLiveStream(ctx, chatID, userID, args)
	case "stopstream":
		b.streamHandler.HandleStopStream(chatID, userID)

	// --- Админ-панель ---
	case "login":
		b.adminHandler.HandleLogin(ctx, chatID, userID, args)
	case "logout":
		b.adminHandler.HandleLogout(ctx, chatID, userID)
	case "dashboard":
		b.adminHandler.HandleDashboard(ctx, chatID, userID)
	case "stats":
		b.adminHandler.HandleStats(ctx, chatID, userID)
	case "broadcast":
		b.adminHandler.HandleBroadcast(ctx, chatID, userID, strings.Join(args, " "))
	case "userinfo":
		b.adminHandler.HandleUserInfo(ctx, chatID, userID, args)
	case "banuser":
		b.adminHandler.HandleBanUser(ctx, chatID, userID, args)
	case "unbanuser":
		b.adminHandler.HandleUnbanUser(ctx, chatID, userID, args)
	case "vipgrant":
		if b.adminHandler.RequireSession(ctx, chatID, userID) {
			b.subHandler.HandleVIPGrant(ctx, chatID, args)
		}
	case "revenuereport":
		if b.adminHandler.RequireSession(ctx, chatID, userID) {
			b.subHandler.HandleRevenueReport(ctx, chatID)
		}
	case "addsignal":
		if b.adminHandler.RequireSession(ctx, chatID, userID) {
			b.signalHandler.HandleAddSignal(ctx, chatID, args)
		}
	case "delsignal":
		if b.adminHandler.RequireSession(ctx, chatID, userID) {
			b.signalHandler.HandleDelSignal(ctx, chatID, args)
		}

	default:
		b.sendMessage(chatID, "🤔 Unknown command. See /help")
	}
}

// requireVIP пускает дальше только пользователей с активной подпиской.
// Право проверяется на каждой команде, без кэша.
func (b *Bot) requireVIP(ctx context.Context, chatID, userID int64) bool {
	ok, err := b.subService.IsEntitled(ctx, userID)
	if err != nil {
		log.WithError(err).WithField("user_id", userID).Error("Ошибка проверки подписки")
		b.sendMessage(chatID, "⚠️ Could not verify your subscription. Please try again.")
		return false
	}
	if !ok {
		b.sendMessage(chatID, "⭐ This is a VIP feature. Subscribe: /subscribe")
		return false
	}
	return true
}

// sendMessage — утилита для отправки сообщений.
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки сообщения")
	}
}

// SendMessageToUser отправляет сообщение пользователю (для джобов).
func (b *Bot) SendMessageToUser(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить сообщение")
		return err
	}
	return nil
}

// SendToChannel публикует сообщение в VIP-канал.
func (b *Bot) SendToChannel(text string) {
	if b.cfg.VIPChannelID == 0 {
		return
	}
	msg := tgbotapi.NewMessage(b.cfg.VIPChannelID, text)
	if _, err := b.api.Send(msg); err != nil {
		log.WithError(err).WithField("channel_id", b.cfg.VIPChannelID).Error("Ошибка публикации в канал")
	}
}

const startMessage = `👋 Welcome to the crypto signal bot!

📈 Free: /price, /top, /history, /signals
⭐ VIP: /vipsignals, /livestream — see /subscribe
🔔 Alerts: /setalert, /myalerts
💼 Portfolio: /addposition, /myportfolio

Full command list: /help`

const helpMessage = `📖 Commands

Market data:
/price <symbol> — current price
/top — top-10 coins by market cap
/history <symbol> — 30-day chart with RSI

Signals:
/signals — free signals
/vipsignals — VIP signals (subscription required)
/signalstats — overall win rate
/bestpairs — best performing pairs

Subscription:
/subscribe — plans and payment
/checkpayment — check your invoice
/mysub — subscription status

Alerts:
/setalert <symbol> <price> <above|below>
/myalerts, /removealert <id>

Portfolio:
/addposition <symbol> <amount> <entry_price>
/myportfolio, /removeposition <id>

Live prices (VIP):
/livestream <symbol>, /stopstream`

// CommandParser разбирает команды вида /cmd@botname arg1 arg2.
type CommandParser struct {
	botName string
}

func NewCommandParser(botName string) *CommandParser {
	return &CommandParser{botName: strings.ToLower(botName)}
}

// ParseCommand разбирает текст на команду и аргументы.
// Суффикс @botname отбрасывается; чужой @mention — не наша команда.
func (p *CommandParser) ParseCommand(text string) (string, []string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	parts := strings.Fields(strings.TrimPrefix(text, "/"))
	if len(parts) == 0 {
		return "", nil, false
	}

	command := strings.ToLower(parts[0])
	if at := strings.Index(command, "@"); at >= 0 {
		if command[at+1:] != p.botName {
			return "", nil, false
		}
		command = command[:at]
	}
	if command == "" {
		return "", nil, false
	}

	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	return command, args, true
}
