// Package subscription — service.go содержит машину состояний подписки.
// Право доступа выводится из таблицы подписок и списка администраторов;
// кэширования нет — каждый вызов видит последнее закоммиченное состояние.
package subscription

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/config"
	"serotonyl.ru/signal-bot/internal/features/users"
)

// Service — подписочная машина состояний.
type Service struct {
	repo        *Repository
	userService *users.Service
	cfg         *config.Config
	plans       []Plan
}

// NewService создаёт сервис подписок с тарифами из конфига.
func NewService(repo *Repository, userService *users.Service, cfg *config.Config) *Service {
	return &Service{
		repo:        repo,
		userService: userService,
		cfg:         cfg,
		plans: []Plan{
			{Code: "monthly", Title: "Monthly VIP", Days: 30, Price: cfg.PlanMonthlyPrice},
			{Code: "quarterly", Title: "Quarterly VIP", Days: 90, Price: cfg.PlanQuarterPrice},
			{Code: "yearly", Title: "Yearly VIP", Days: 365, Price: cfg.PlanYearlyPrice},
		},
	}
}

// Plans возвращает доступные тарифы.
func (s *Service) Plans() []Plan {
	return s.plans
}

// PlanByCode ищет тариф по коду.
func (s *Service) PlanByCode(code string) (Plan, error) {
	for _, p := range s.plans {
		if p.Code == code {
			return p, nil
		}
	}
	return Plan{}, common.ErrUnknownPlan
}

// IsEntitled проверяет право на VIP-функции.
// Администраторы из конфига имеют доступ всегда, без строки подписки.
// Остальные — только при подписке с end_date не раньше текущего момента.
func (s *Service) IsEntitled(ctx context.Context, userID int64) (bool, error) {
	if s.cfg.IsAdmin(userID) {
		return true, nil
	}

	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return false, err
	}
	if sub == nil {
		return false, nil
	}
	return sub.ActiveAt(time.Now()), nil
}

// Get возвращает подписку пользователя (nil — нет подписки).
func (s *Service) Get(ctx context.Context, userID int64) (*Subscription, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// renewalStart выбирает точку отсчёта нового срока по политике конфига.
// from_now: срок идёт от момента оплаты, остаток текущей подписки сгорает
// (историческое поведение). from_expiry: остаток сохраняется — новый срок
// прибавляется к концу действующей подписки.
func (s *Service) renewalStart(prev *Subscription, now time.Time) time.Time {
	if s.cfg.SubRenewalPolicy == config.RenewFromExpiry &&
		prev != nil && prev.ActiveAt(now) {
		return prev.EndDate
	}
	return now
}

// ConfirmPayment оформляет подписку по подтверждённо оплаченному инвойсу.
// Вызывается ТОЛЬКО после того, как платёжный шлюз вернул статус "paid".
// Подписка и запись платежа пишутся в одной транзакции.
func (s *Service) ConfirmPayment(ctx context.Context, userID int64, plan Plan, amount float64, invoiceRef string) (*Subscription, error) {
	now := time.Now()

	prev, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := s.renewalStart(prev, now)
	sub := &Subscription{
		UserID:    userID,
		Tier:      users.TierVIP,
		StartDate: start,
		EndDate:   start.Add(plan.Duration()),
		PaymentID: invoiceRef,
	}
	pay := &Payment{
		UserID:    userID,
		Amount:    amount,
		Currency:  s.cfg.PaymentCurrency,
		Status:    PaymentCompleted,
		PaymentID: invoiceRef,
		Plan:      plan.Code,
	}

	if err := s.repo.UpsertWithPayment(ctx, sub, pay); err != nil {
		return nil, fmt.Errorf("оформление подписки: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"plan":    plan.Code,
		"until":   sub.EndDate.Format(time.RFC3339),
	}).Info("Подписка оформлена по оплате")

	return sub, nil
}

// GrantVIP выдаёт VIP на days дней в обход оплаты (админ-команда).
// Пишется та же форма строки подписки с синтетическим payment_id;
// запись в payments не создаётся.
func (s *Service) GrantVIP(ctx context.Context, userID int64, days int) (*Subscription, error) {
	if days <= 0 {
		return nil, common.ErrInvalidAmount
	}
	now := time.Now()

	prev, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	start := s.renewalStart(prev, now)
	sub := &Subscription{
		UserID:    userID,
		Tier:      users.TierVIP,
		StartDate: start,
		EndDate:   start.Add(time.Duration(days) * 24 * time.Hour),
		PaymentID: "grant-" + uuid.NewString(),
	}

	if err := s.repo.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("выдача VIP: %w", err)
	}

	log.WithFields(log.Fields{
		"user_id": userID,
		"days":    days,
	}).Info("VIP выдан администратором")

	return sub, nil
}

// SendExpiryNotices уведомляет об истекающих подписках (горизонт 24 часа)
// и понижает тариф уже истёкших. Уведомление шлётся один раз на срок:
// флаг notified ставится только после успешной доставки, так что
// неудавшаяся отправка повторится в следующий час; продление сбрасывает флаг.
func (s *Service) SendExpiryNotices(ctx context.Context, send func(userID int64, text string) error) error {
	now := time.Now()

	subs, err := s.repo.ExpiringUnnotified(ctx, now.Add(24*time.Hour))
	if err != nil {
		return err
	}

	notified := notifyExpiring(subs, now, common.LoadLocation(s.cfg.AppTimezone), send,
		func(userID int64) error { return s.repo.MarkNotified(ctx, userID) },
		func(userID int64) error { return s.userService.SetTier(ctx, userID, users.TierFree) },
	)

	if notified > 0 {
		log.WithField("count", notified).Info("Отправлены уведомления об истечении подписок")
	}
	return nil
}

// notifyExpiring обходит подписки: активным шлёт напоминание об истечении,
// уже истёкшие понижает до free. Флаг notified ставится только после
// успешной доставки. Возвращает число отмеченных подписок.
func notifyExpiring(subs []*Subscription, now time.Time, loc *time.Location,
	send func(userID int64, text string) error,
	markNotified func(userID int64) error,
	demote func(userID int64) error,
) int {
	notified := 0
	for _, sub := range subs {
		var text string
		if sub.ActiveAt(now) {
			text = fmt.Sprintf("⏳ Your VIP subscription expires on %s. Use /subscribe to renew.",
				sub.EndDate.In(loc).Format("02.01.2006 15:04"))
		} else {
			text = "❌ Your VIP subscription has expired. Use /subscribe to renew."
			if err := demote(sub.UserID); err != nil {
				log.WithError(err).WithField("user_id", sub.UserID).Error("Не удалось понизить тариф")
			}
		}

		if err := send(sub.UserID, text); err != nil {
			log.WithError(err).WithField("user_id", sub.UserID).Warn("Напоминание не доставлено")
			continue
		}
		if err := markNotified(sub.UserID); err != nil {
			log.WithError(err).WithField("user_id", sub.UserID).Error("Не удалось отметить уведомление")
			continue
		}
		notified++
	}
	return notified
}

// CountActive — активные подписки (для /stats).
func (s *Service) CountActive(ctx context.Context) (int64, error) {
	return s.repo.CountActive(ctx, time.Now())
}

// Revenue — агрегаты по платежам (для /revenuereport).
func (s *Service) Revenue(ctx context.Context) ([]RevenueRow, error) {
	return s.repo.RevenueByPlan(ctx)
}
