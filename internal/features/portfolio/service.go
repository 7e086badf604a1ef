// Package portfolio — service.go содержит бизнес-логику портфеля,
// включая оценку стоимости по живым ценам.
package portfolio

import (
	"context"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

// PriceSource — источник батч-цен (market.Client; в тестах — фейк).
type PriceSource interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Service управляет портфелем.
type Service struct {
	repo   *Repository
	prices PriceSource
}

func NewService(repo *Repository, prices PriceSource) *Service {
	return &Service{repo: repo, prices: prices}
}

// Add создаёт позицию после валидации ввода.
func (s *Service) Add(ctx context.Context, userID int64, symbol string, amount, entryPrice float64) (int64, error) {
	if amount <= 0 {
		return 0, common.ErrInvalidAmount
	}
	if entryPrice <= 0 {
		return 0, common.ErrInvalidPrice
	}
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return 0, common.ErrInvalidSymbol
	}

	id, err := s.repo.Create(ctx, &Position{
		UserID:     userID,
		Symbol:     symbol,
		Amount:     amount,
		EntryPrice: entryPrice,
	})
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"position_id": id,
		"user_id":     userID,
		"symbol":      symbol,
	}).Info("Позиция добавлена")
	return id, nil
}

// Remove удаляет позицию пользователя.
func (s *Service) Remove(ctx context.Context, id, userID int64) error {
	return s.repo.DeleteOwned(ctx, id, userID)
}

// Valuation — позиции пользователя плюс текущие цены их монет.
// Монеты без цены в батче отсутствуют в мапе — обработчик покажет "n/a".
func (s *Service) Valuation(ctx context.Context, userID int64) ([]*Position, map[string]float64, error) {
	positions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if len(positions) == 0 {
		return nil, nil, nil
	}

	seen := make(map[string]bool)
	var symbols []string
	for _, p := range positions {
		if !seen[p.Symbol] {
			seen[p.Symbol] = true
			symbols = append(symbols, p.Symbol)
		}
	}

	prices, err := s.prices.GetPrices(ctx, symbols)
	if err != nil {
		// Портфель показываем и без цен: лучше частичный ответ, чем никакого
		log.WithError(err).WithField("user_id", userID).Warn("Цены для оценки портфеля недоступны")
		return positions, map[string]float64{}, nil
	}
	return positions, prices, nil
}
