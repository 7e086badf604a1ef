// Package market — retry.go реализует единую политику повторов для
// внешних вызовов: ограниченное число попыток с фиксированной паузой.
// Ею обёрнут каждый исходящий запрос шлюзов (рынок и платежи).
package market

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Retrier повторяет операцию при ошибке.
type Retrier struct {
	Attempts int           // сколько всего попыток (минимум 1)
	Delay    time.Duration // пауза между попытками
}

// Do выполняет fn до первого успеха. После исчерпания попыток возвращает
// последнюю ошибку. Пауза между попытками прерывается отменой контекста.
func (r Retrier) Do(ctx context.Context, op string, fn func() error) error {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 1; i <= attempts; i++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		log.WithError(lastErr).WithFields(log.Fields{
			"op":      op,
			"attempt": i,
			"of":      attempts,
		}).Warn("внешний вызов не удался")

		if i == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.Delay):
		}
	}
	return lastErr
}
