// Package signals — tracker.go реализует фоновую сверку открытых сигналов
// с живыми ценами. Алгоритм: один батч-запрос цен на все пары открытых
// сигналов, затем по каждому сигналу решение open → hit-target | hit-stop.
package signals

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

// resolveOutcome решает исход сигнала по текущей цене.
// Возвращает ("", false), если сигнал остаётся открытым.
//
// Проверка цели идёт РАНЬШЕ проверки стопа: если свеча прошила оба уровня,
// засчитываем цель. Это политика, а не выведенная истина — порядок менять
// нельзя, иначе история исходов перестанет воспроизводиться.
func resolveOutcome(s *Signal, price float64) (string, bool) {
	switch s.Direction {
	case DirectionLong:
		if price >= s.TargetPrice {
			return OutcomeHitTarget, true
		}
		if price <= s.StopLoss {
			return OutcomeHitStop, true
		}
	case DirectionShort:
		if price <= s.TargetPrice {
			return OutcomeHitTarget, true
		}
		if price >= s.StopLoss {
			return OutcomeHitStop, true
		}
	}
	return "", false
}

// resolveBatch прогоняет решение по батчу сигналов.
// Сигналы без цены в prices пропускаются: это временная дыра в данных,
// не ошибка — они будут пересмотрены на следующем цикле.
// apply вызывается ровно один раз на каждый новый исход.
func resolveBatch(sigs []*Signal, prices map[string]float64, apply func(s *Signal, outcome string, price float64) error) int {
	resolved := 0
	for _, s := range sigs {
		price, ok := prices[market.PairBase(s.Pair)]
		if !ok {
			continue
		}
		outcome, done := resolveOutcome(s, price)
		if !done {
			continue
		}
		if err := apply(s, outcome, price); err != nil {
			log.WithError(err).WithField("signal_id", s.ID).Error("Не удалось закрыть сигнал")
			continue
		}
		resolved++
	}
	return resolved
}

// outcomeMessage строит уведомление о закрытии сигнала для VIP-канала.
func outcomeMessage(s *Signal, outcome string, price float64) string {
	emoji := "🎯"
	verdict := "Target hit"
	if outcome == OutcomeHitStop {
		emoji = "🛑"
		verdict = "Stop loss hit"
	}
	return fmt.Sprintf("%s %s: %s %s @ %s (entry %s)",
		emoji, verdict, s.Pair, strings.ToUpper(s.Direction),
		common.FormatPrice(price), common.FormatPrice(s.EntryPrice))
}
