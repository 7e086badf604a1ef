package subscription

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"serotonyl.ru/signal-bot/internal/config"
)

func serviceWithPolicy(policy string) *Service {
	return &Service{cfg: &config.Config{SubRenewalPolicy: policy}}
}

func TestActiveAtBoundary(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	sub := &Subscription{EndDate: now}
	assert.True(t, sub.ActiveAt(now), "end_date ровно сейчас — ещё активна")

	sub = &Subscription{EndDate: now.Add(time.Second)}
	assert.True(t, sub.ActiveAt(now))

	sub = &Subscription{EndDate: now.Add(-time.Second)}
	assert.False(t, sub.ActiveAt(now))
}

func TestRenewalStartFromNow(t *testing.T) {
	s := serviceWithPolicy(config.RenewFromNow)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	// Активная подписка: остаток сгорает, отсчёт от момента оплаты
	prev := &Subscription{EndDate: now.Add(10 * 24 * time.Hour)}
	assert.Equal(t, now, s.renewalStart(prev, now))

	// Без подписки — тоже от сейчас
	assert.Equal(t, now, s.renewalStart(nil, now))
}

func TestRenewalStartFromExpiry(t *testing.T) {
	s := serviceWithPolicy(config.RenewFromExpiry)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	// Активная подписка: новый срок прибавляется к её концу
	end := now.Add(10 * 24 * time.Hour)
	prev := &Subscription{EndDate: end}
	assert.Equal(t, end, s.renewalStart(prev, now))

	// Истёкшая подписка остатка не даёт
	expired := &Subscription{EndDate: now.Add(-time.Hour)}
	assert.Equal(t, now, s.renewalStart(expired, now))

	// Без подписки — от сейчас
	assert.Equal(t, now, s.renewalStart(nil, now))
}

// Неудавшаяся доставка не ставит флаг notified: напоминание должно
// повториться в следующем цикле.
func TestNotifyExpiringFailedSendRetries(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	subs := []*Subscription{
		{UserID: 1, EndDate: now.Add(2 * time.Hour)},
		{UserID: 2, EndDate: now.Add(3 * time.Hour)},
	}

	var marked []int64
	notified := notifyExpiring(subs, now, time.UTC,
		func(userID int64, text string) error {
			if userID == 1 {
				return errors.New("telegram: blocked by user")
			}
			return nil
		},
		func(userID int64) error {
			marked = append(marked, userID)
			return nil
		},
		func(userID int64) error { return nil },
	)

	assert.Equal(t, 1, notified)
	assert.Equal(t, []int64{2}, marked, "флаг ставится только при успешной доставке")
}

// Истёкшая подписка понижается до free, активная — нет.
func TestNotifyExpiringDemotesExpired(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	subs := []*Subscription{
		{UserID: 1, EndDate: now.Add(-time.Hour)},
		{UserID: 2, EndDate: now.Add(time.Hour)},
	}

	var demoted []int64
	var sent []string
	notified := notifyExpiring(subs, now, time.UTC,
		func(userID int64, text string) error {
			sent = append(sent, text)
			return nil
		},
		func(userID int64) error { return nil },
		func(userID int64) error {
			demoted = append(demoted, userID)
			return nil
		},
	)

	assert.Equal(t, 2, notified)
	assert.Equal(t, []int64{1}, demoted)
	assert.Contains(t, sent[0], "has expired")
	assert.Contains(t, sent[1], "expires on")
}

func TestPlanDuration(t *testing.T) {
	p := Plan{Code: "monthly", Days: 30}
	assert.Equal(t, 30*24*time.Hour, p.Duration())
}

func TestPlanByCode(t *testing.T) {
	cfg := &config.Config{
		PlanMonthlyPrice: 50,
		PlanQuarterPrice: 130,
		PlanYearlyPrice:  400,
	}
	s := NewService(nil, nil, cfg)

	p, err := s.PlanByCode("quarterly")
	assert.NoError(t, err)
	assert.Equal(t, 90, p.Days)
	assert.Equal(t, 130.0, p.Price)

	_, err = s.PlanByCode("weekly")
	assert.Error(t, err)
}
