// Package alerts — reconciler.go реализует фоновую сверку алертов.
// Каждый запуск без состояния: читаем все алерты, одним батчем берём цены
// их монет и проверяем пороги. Сработал — уведомили и удалили.
package alerts

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

// triggered проверяет срабатывание алерта по текущей цене.
// Неравенства СТРОГИЕ (price > target, price < target) — в отличие от
// трекера сигналов с его ≥/≤. Асимметрия намеренная, сохраняем как есть.
func triggered(a *Alert, price float64) bool {
	switch a.Direction {
	case DirectionAbove:
		return price > a.TargetPrice
	case DirectionBelow:
		return price < a.TargetPrice
	}
	return false
}

// reconcile прогоняет один цикл сверки по уже загруженным алертам и ценам.
// Алерты без цены в батче пропускаются до следующего цикла.
//
// Порядок на срабатывании жёсткий: сначала notify, потом remove.
// Если доставка не удалась — строка остаётся, и алерт повторится на
// следующем цикле (at-least-once, никогда at-most-once).
func reconcile(items []*Alert, prices map[string]float64, notify func(a *Alert, price float64) error, remove func(a *Alert) error) int {
	fired := 0
	for _, a := range items {
		price, ok := prices[market.NormalizeSymbol(a.Symbol)]
		if !ok {
			continue
		}
		if !triggered(a, price) {
			continue
		}

		if err := notify(a, price); err != nil {
			log.WithError(err).WithFields(log.Fields{
				"alert_id": a.ID,
				"user_id":  a.UserID,
			}).Warn("Доставка алерта не удалась, оставляем до следующего цикла")
			continue
		}
		if err := remove(a); err != nil {
			// Уведомление ушло, а удаление нет: на следующем цикле пользователь
			// получит дубль. Это допустимо (at-least-once).
			log.WithError(err).WithField("alert_id", a.ID).Error("Не удалось удалить сработавший алерт")
			continue
		}
		fired++
	}
	return fired
}

// alertMessage — текст уведомления о срабатывании.
func alertMessage(a *Alert, price float64) string {
	arrow := "📈 above"
	if a.Direction == DirectionBelow {
		arrow = "📉 below"
	}
	return fmt.Sprintf("🔔 Price alert: %s is now %s — %s your target %s",
		market.NormalizeSymbol(a.Symbol), common.FormatPrice(price),
		arrow, common.FormatPrice(a.TargetPrice))
}
