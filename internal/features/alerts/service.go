// Package alerts — service.go содержит бизнес-логику алертов.
package alerts

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

// PriceSource — источник батч-цен (market.Client; в тестах — фейк).
type PriceSource interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Notifier доставляет уведомление пользователю. Ошибка означает,
// что доставка НЕ состоялась и алерт должен пережить цикл.
type Notifier func(userID int64, text string) error

// Service управляет алертами.
type Service struct {
	repo   *Repository
	prices PriceSource
}

func NewService(repo *Repository, prices PriceSource) *Service {
	return &Service{repo: repo, prices: prices}
}

// Add создаёт алерт после валидации ввода.
func (s *Service) Add(ctx context.Context, userID int64, symbol string, target float64, direction string) (int64, error) {
	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != DirectionAbove && direction != DirectionBelow {
		return 0, common.ErrInvalidDirection
	}
	if target <= 0 {
		return 0, common.ErrInvalidPrice
	}
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return 0, common.ErrInvalidSymbol
	}

	id, err := s.repo.Create(ctx, &Alert{
		UserID:      userID,
		Symbol:      symbol,
		TargetPrice: target,
		Direction:   direction,
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"alert_id":  id,
		"user_id":   userID,
		"symbol":    symbol,
		"direction": direction,
	}).Info("Алерт создан")
	return id, nil
}

// ListByUser возвращает алерты пользователя.
func (s *Service) ListByUser(ctx context.Context, userID int64) ([]*Alert, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Remove удаляет алерт пользователя.
func (s *Service) Remove(ctx context.Context, id, userID int64) error {
	return s.repo.DeleteOwned(ctx, id, userID)
}

// Reconcile — один цикл фоновой сверки алертов.
// Читает все алерты, батчем берёт цены и обрабатывает срабатывания.
// Монеты, отсутствующие в ответе батча, пропускаются без ошибки.
func (s *Service) Reconcile(ctx context.Context, notify Notifier) error {
	items, err := s.repo.ListAll(ctx)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, a := range items {
		sym := market.NormalizeSymbol(a.Symbol)
		if !seen[sym] {
			seen[sym] = true
			symbols = append(symbols, sym)
		}
	}

	prices, err := s.prices.GetPrices(ctx, symbols)
	if err != nil {
		return err
	}

	fired := reconcile(items, prices,
		func(a *Alert, price float64) error {
			return notify(a.UserID, alertMessage(a, price))
		},
		func(a *Alert) error {
			return s.repo.Delete(ctx, a.ID)
		},
	)

	if fired > 0 {
		log.WithFields(log.Fields{
			"job":   "alert_reconciliation",
			"total": len(items),
			"fired": fired,
		}).Info("Алерты сработали")
	}
	return nil
}
