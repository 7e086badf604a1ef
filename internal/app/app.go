// Package app инициализирует все компоненты приложения.
// app.go — точка сборки: создаёт БД-пул, клиентов внешних API,
// репозитории, сервисы, обработчики и собирает всё в один объект Bot.
package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/bot"
	"serotonyl.ru/signal-bot/internal/config"
	"serotonyl.ru/signal-bot/internal/db/postgres"
	"serotonyl.ru/signal-bot/internal/features/admin"
	"serotonyl.ru/signal-bot/internal/features/alerts"
	"serotonyl.ru/signal-bot/internal/features/portfolio"
	"serotonyl.ru/signal-bot/internal/features/signals"
	"serotonyl.ru/signal-bot/internal/features/stream"
	"serotonyl.ru/signal-bot/internal/features/subscription"
	"serotonyl.ru/signal-bot/internal/features/users"
	"serotonyl.ru/signal-bot/internal/jobs"
	"serotonyl.ru/signal-bot/internal/market"
	"serotonyl.ru/signal-bot/internal/payment"
	"serotonyl.ru/signal-bot/internal/session"
)

// App содержит все компоненты приложения.
type App struct {
	Bot       *bot.Bot
	Scheduler *jobs.Scheduler
	Streams   *stream.Manager
	DB        *pgxpool.Pool
	BotAPI    *tgbotapi.BotAPI

	paySessions  *session.Store
	pageSessions *session.Store
}

// New создаёт и инициализирует приложение.
// Порядок инициализации важен — компоненты зависят друг от друга.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// === 1. База данных ===
	pool, err := postgres.NewPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к БД: %w", err)
	}

	if err := runMigrations(ctx, pool); err != nil {
		return nil, fmt.Errorf("ошибка миграций: %w", err)
	}

	// === 2. Telegram Bot API ===
	botAPI, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Telegram API: %w", err)
	}
	botAPI.Debug = cfg.AppEnv == "development"
	log.Infof("Авторизован как @%s", botAPI.Self.UserName)

	// === 3. Клиенты внешних API ===
	marketClient := market.NewClient(cfg)
	marketClient.Ping(ctx)
	payClient := payment.NewClient(cfg)

	// === 4. Репозитории ===
	userRepo := users.NewRepository(pool)
	subRepo := subscription.NewRepository(pool)
	signalRepo := signals.NewRepository(pool)
	alertRepo := alerts.NewRepository(pool)
	portfolioRepo := portfolio.NewRepository(pool)
	adminRepo := admin.NewRepository(pool)

	// === 5. Сервисы ===
	userService := users.NewService(userRepo)
	subService := subscription.NewService(subRepo, userService, cfg)
	signalService := signals.NewService(signalRepo, marketClient)
	alertService := alerts.NewService(alertRepo, marketClient)
	portfolioService := portfolio.NewService(portfolioRepo, marketClient)
	adminService := admin.NewService(adminRepo, cfg)

	// === 6. Сессии (в памяти) ===
	// Отдельные хранилища: у ожидающих инвойсов и пагинации сигналов
	// один и тот же ключ (user_id), в общей мапе они бы затирали друг друга
	paySessions := session.NewStore(cfg.SessionTTL)
	pageSessions := session.NewStore(cfg.SessionTTL)

	// === 7. Трансляции цен ===
	sendToUser := func(userID int64, text string) {
		msg := tgbotapi.NewMessage(userID, text)
		if _, err := botAPI.Send(msg); err != nil {
			log.WithError(err).WithField("user_id", userID).Debug("Не удалось отправить тик")
		}
	}
	streams := stream.NewManager(marketClient, sendToUser, cfg.StreamMaxActive, cfg.StreamMinInterval)

	// === 8. Обработчики ===
	subHandler := subscription.NewHandler(subService, userService, payClient, paySessions, botAPI, cfg)
	signalHandler := signals.NewHandler(signalService, pageSessions, botAPI, cfg.SignalsPageSize)
	alertHandler := alerts.NewHandler(alertService, botAPI)
	portfolioHandler := portfolio.NewHandler(portfolioService, botAPI)
	streamHandler := stream.NewHandler(streams, botAPI)
	adminHandler := admin.NewHandler(adminService, userService, subService, signalService, botAPI)

	// === 9. Собираем бота ===
	b := bot.New(
		botAPI, cfg, marketClient,
		userService, subService,
		subHandler, signalHandler, alertHandler,
		portfolioHandler, streamHandler, adminHandler,
	)

	// === 10. Планировщик задач ===
	scheduler := jobs.NewScheduler(cfg, signalService, alertService, subService,
		b.SendMessageToUser, b.SendToChannel)

	return &App{
		Bot:          b,
		Scheduler:    scheduler,
		Streams:      streams,
		DB:           pool,
		BotAPI:       botAPI,
		paySessions:  paySessions,
		pageSessions: pageSessions,
	}, nil
}

// Close освобождает ресурсы в обратном порядке инициализации.
func (a *App) Close() {
	a.Streams.StopAll()
	a.paySessions.Close()
	a.pageSessions.Close()
	a.DB.Close()
}

// runMigrations выполняет все SQL-миграции.
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if err := postgres.EnsureMigrationsTable(ctx, pool); err != nil {
		return err
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migration001Users},
		{2, migration002Subscriptions},
		{3, migration003Signals},
		{4, migration004Portfolio},
		{5, migration005Alerts},
		{6, migration006Admin},
	}

	for _, m := range migrations {
		if err := postgres.ExecMigrationSQL(ctx, pool, m.version, m.sql); err != nil {
			return fmt.Errorf("миграция %d: %w", m.version, err)
		}
		log.Infof("Миграция %d применена", m.version)
	}

	return nil
}

// SQL-миграции встроены в код для упрощения деплоя.

var migration001Users = `
CREATE TABLE IF NOT EXISTS users (
    telegram_id BIGINT PRIMARY KEY,
    username VARCHAR(255),
    tier VARCHAR(16) DEFAULT 'free',
    is_banned BOOLEAN DEFAULT FALSE,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
`

var migration002Subscriptions = `
CREATE TABLE IF NOT EXISTS subscriptions (
    user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
    tier VARCHAR(16) NOT NULL DEFAULT 'vip',
    start_date TIMESTAMP NOT NULL,
    end_date TIMESTAMP NOT NULL,
    payment_id VARCHAR(255),
    notified BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_subscriptions_end_date ON subscriptions(end_date);

CREATE TABLE IF NOT EXISTS payments (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(telegram_id),
    amount DECIMAL(18,2) NOT NULL,
    currency VARCHAR(16) NOT NULL,
    status VARCHAR(16) NOT NULL,
    payment_id VARCHAR(255),
    plan VARCHAR(32),
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_payments_user_id ON payments(user_id);
CREATE INDEX IF NOT EXISTS idx_payments_status ON payments(status);
`

var migration003Signals = `
CREATE TABLE IF NOT EXISTS signals (
    id BIGSERIAL PRIMARY KEY,
    pair VARCHAR(32) NOT NULL,
    direction VARCHAR(8) NOT NULL,
    entry_price DOUBLE PRECISION NOT NULL,
    target_price DOUBLE PRECISION NOT NULL,
    stop_loss DOUBLE PRECISION NOT NULL,
    is_vip BOOLEAN DEFAULT FALSE,
    outcome VARCHAR(16) NOT NULL DEFAULT 'open',
    created_at TIMESTAMP DEFAULT NOW(),
    resolved_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_signals_outcome ON signals(outcome);
CREATE INDEX IF NOT EXISTS idx_signals_created_at ON signals(created_at DESC);
`

var migration004Portfolio = `
CREATE TABLE IF NOT EXISTS portfolio (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(telegram_id),
    symbol VARCHAR(16) NOT NULL,
    amount DOUBLE PRECISION NOT NULL,
    entry_price DOUBLE PRECISION NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_portfolio_user_id ON portfolio(user_id);
`

var migration005Alerts = `
CREATE TABLE IF NOT EXISTS alerts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(telegram_id),
    symbol VARCHAR(16) NOT NULL,
    target_price DOUBLE PRECISION NOT NULL,
    direction VARCHAR(8) NOT NULL,
    created_at TIMESTAMP DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_alerts_user_id ON alerts(user_id);
`

var migration006Admin = `
CREATE TABLE IF NOT EXISTS admin_sessions (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    session_token VARCHAR(255) NOT NULL,
    authenticated_at TIMESTAMP DEFAULT NOW(),
    expires_at TIMESTAMP NOT NULL,
    last_activity TIMESTAMP DEFAULT NOW(),
    is_active BOOLEAN DEFAULT TRUE
);
CREATE INDEX IF NOT EXISTS idx_admin_sessions_user_id ON admin_sessions(user_id);

CREATE TABLE IF NOT EXISTS admin_login_attempts (
    id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL,
    attempt_time TIMESTAMP DEFAULT NOW(),
    success BOOLEAN DEFAULT FALSE
);
CREATE INDEX IF NOT EXISTS idx_admin_login_attempts_user_id ON admin_login_attempts(user_id, attempt_time DESC);
`
