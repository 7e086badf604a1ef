// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Политика продления подписки: от какого момента считать новый срок.
const (
	// RenewFromNow — новый срок идёт от момента оплаты, остаток старого сгорает.
	// Так вёл себя бот исторически; оставлено поведением по умолчанию.
	RenewFromNow = "from_now"
	// RenewFromExpiry — новый срок прибавляется к концу текущего.
	RenewFromExpiry = "from_expiry"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDsRaw      string  `envconfig:"ADMIN_IDS" required:"true"`
	AdminIDs         []int64 `envconfig:"-"` // заполним вручную из ADMIN_IDS
	// Канал/группа, куда публикуются VIP-уведомления (результаты сигналов).
	// 0 — публикация отключена.
	VIPChannelID int64 `envconfig:"VIP_CHANNEL_ID" default:"0"`

	// --- Payment (Crypto Pay / @CryptoBot) ---
	CryptoPayToken string `envconfig:"CRYPTO_PAY_TOKEN" required:"true"`
	CryptoPayURL   string `envconfig:"CRYPTO_PAY_URL" default:"https://pay.crypt.bot/api"`

	// --- Market data ---
	CoinGeckoURL string `envconfig:"COINGECKO_URL" default:"https://api.coingecko.com/api/v3"`
	BinanceURL   string `envconfig:"BINANCE_URL" default:"https://api.binance.com"`
	BinanceWSURL string `envconfig:"BINANCE_WS_URL" default:"wss://stream.binance.com:9443/ws"`

	// --- Retry (единая политика для всех внешних вызовов) ---
	RetryAttempts int           `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RetryDelay    time.Duration `envconfig:"RETRY_DELAY" default:"2s"`
	HTTPTimeout   time.Duration `envconfig:"HTTP_TIMEOUT" default:"10s"`

	// --- Database ---
	// В Docker внутри контейнера "localhost" почти всегда неправильно.
	// Дефолт ставим "postgres" (имя сервиса в docker-compose), а для локалки переопределяй DB_HOST=localhost.
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"signal_bot"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"5"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"TIMEZONE" default:"UTC"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно. Иначе "go на каждый апдейт" = утечка памяти при флуде.
	BotMaxInflight          int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`

	// --- Admin ---
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH" required:"true"`

	// --- Subscription ---
	// Политика продления: from_now (остаток сгорает) или from_expiry (прибавляем к концу).
	SubRenewalPolicy string  `envconfig:"SUB_RENEWAL_POLICY" default:"from_now"`
	PlanMonthlyPrice float64 `envconfig:"PLAN_MONTHLY_PRICE" default:"50"`
	PlanQuarterPrice float64 `envconfig:"PLAN_QUARTER_PRICE" default:"130"`
	PlanYearlyPrice  float64 `envconfig:"PLAN_YEARLY_PRICE" default:"400"`
	PaymentCurrency  string  `envconfig:"PAYMENT_CURRENCY" default:"USDT"`

	// --- Background jobs ---
	// Интервал запуска фоновой сверки (сигналы и алерты), в минутах.
	JobIntervalMinutes int `envconfig:"JOB_INTERVAL_MINUTES" default:"5"`

	// --- Sessions / pagination ---
	SessionTTL      time.Duration `envconfig:"SESSION_TTL" default:"10m"`
	SignalsPageSize int           `envconfig:"SIGNALS_PAGE_SIZE" default:"5"`

	// --- Livestream ---
	StreamMaxActive int `envconfig:"STREAM_MAX_ACTIVE" default:"20"`
	// Минимальный интервал между сообщениями одного стрима, чтобы не флудить в чат.
	StreamMinInterval time.Duration `envconfig:"STREAM_MIN_INTERVAL" default:"5s"`

	// --- Rate Limiting ---
	RateLimitRequests int           `envconfig:"RATE_LIMIT_REQUESTS" default:"10"`
	RateLimitWindow   time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"1m"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате DSN.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// IsAdmin проверяет, входит ли пользователь в список администраторов.
// Администраторы задаются окружением и не зависят от состояния БД.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if len(c.AdminIDs) == 0 {
		return fmt.Errorf("ADMIN_IDS не задан")
	}
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("RETRY_ATTEMPTS должен быть > 0")
	}
	if c.JobIntervalMinutes <= 0 {
		return fmt.Errorf("JOB_INTERVAL_MINUTES должен быть > 0")
	}
	if c.SignalsPageSize <= 0 {
		return fmt.Errorf("SIGNALS_PAGE_SIZE должен быть > 0")
	}
	if c.SubRenewalPolicy != RenewFromNow && c.SubRenewalPolicy != RenewFromExpiry {
		return fmt.Errorf("SUB_RENEWAL_POLICY: ожидается %q или %q", RenewFromNow, RenewFromExpiry)
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}
