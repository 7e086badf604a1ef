// Package signals — service.go содержит бизнес-логику сигналов.
package signals

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

// PriceSource — источник батч-цен. Реализуется market.Client;
// в тестах подменяется фейком.
type PriceSource interface {
	GetPrices(ctx context.Context, symbols []string) (map[string]float64, error)
}

// Service управляет жизненным циклом сигналов.
type Service struct {
	repo   *Repository
	prices PriceSource
}

func NewService(repo *Repository, prices PriceSource) *Service {
	return &Service{repo: repo, prices: prices}
}

// Add создаёт сигнал. Направление и положительность цен проверяются;
// взаимное расположение уровней — на совести админа.
func (s *Service) Add(ctx context.Context, pair, direction string, entry, target, stop float64, vip bool) (int64, error) {
	direction = strings.ToLower(strings.TrimSpace(direction))
	if direction != DirectionLong && direction != DirectionShort {
		return 0, common.ErrInvalidDirection
	}
	if entry <= 0 || target <= 0 || stop <= 0 {
		return 0, common.ErrInvalidPrice
	}

	sig := &Signal{
		Pair:        market.NormalizeSymbol(pair),
		Direction:   direction,
		EntryPrice:  entry,
		TargetPrice: target,
		StopLoss:    stop,
		IsVIP:       vip,
	}
	id, err := s.repo.Create(ctx, sig)
	if err != nil {
		return 0, err
	}

	log.WithFields(log.Fields{
		"signal_id": id,
		"pair":      sig.Pair,
		"direction": direction,
		"vip":       vip,
	}).Info("Сигнал создан")
	return id, nil
}

// Delete удаляет сигнал по id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

// List возвращает последние сигналы нужного типа.
func (s *Service) List(ctx context.Context, vip bool, limit int) ([]*Signal, error) {
	return s.repo.List(ctx, vip, limit)
}

// Stats и BestPairs — выборки для админ-команд.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	return s.repo.GetStats(ctx)
}

func (s *Service) BestPairs(ctx context.Context, limit int) ([]PairStats, error) {
	return s.repo.BestPairs(ctx, limit)
}

// ResolveOpenSignals — один цикл фоновой сверки.
// Читает все открытые сигналы, одним батчем запрашивает цены их пар
// и закрывает достигшие цели или стопа. По каждому закрытию вызывается
// notify (публикация в VIP-канал). Ошибка цикла логируется вызывающим
// и не влияет на следующие тики.
func (s *Service) ResolveOpenSignals(ctx context.Context, notify func(text string)) error {
	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}

	// Множество базовых монет открытых сигналов
	seen := make(map[string]bool)
	var symbols []string
	for _, sig := range open {
		base := market.PairBase(sig.Pair)
		if !seen[base] {
			seen[base] = true
			symbols = append(symbols, base)
		}
	}

	prices, err := s.prices.GetPrices(ctx, symbols)
	if err != nil {
		return err
	}

	resolved := resolveBatch(open, prices, func(sig *Signal, outcome string, price float64) error {
		if err := s.repo.MarkResolved(ctx, sig.ID, outcome); err != nil {
			return err
		}
		notify(outcomeMessage(sig, outcome, price))
		return nil
	})

	if resolved > 0 {
		log.WithFields(log.Fields{
			"job":      "signal_resolution",
			"open":     len(open),
			"resolved": resolved,
		}).Info("Сигналы закрыты фоновой сверкой")
	}
	return nil
}
