// Package middleware — сквозные проверки входящих обновлений.
// ratelimit.go ограничивает частоту команд на пользователя.
package middleware

import (
	"sync"
	"time"
)

// Limiter — скользящее окно запросов на пользователя. Забаненных и
// админов лимит не различает: гейтинг ролей живёт выше, в боте.
type Limiter struct {
	mu     sync.Mutex
	hits   map[int64][]time.Time
	limit  int
	window time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewLimiter(limit int, window time.Duration) *Limiter {
	l := &Limiter{
		hits:   make(map[int64][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go l.cleanup()
	return l
}

// Close останавливает фоновую очистку. Вызывается на shutdown.
func (l *Limiter) Close() {
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// Allow регистрирует запрос и сообщает, укладывается ли пользователь в лимит.
func (l *Limiter) Allow(userID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	recent := trim(l.hits[userID], now.Add(-l.window))
	if len(recent) >= l.limit {
		l.hits[userID] = recent
		return false
	}
	l.hits[userID] = append(recent, now)
	return true
}

// trim отбрасывает отметки старше cutoff, переиспользуя слайс.
func trim(times []time.Time, cutoff time.Time) []time.Time {
	out := times[:0]
	for _, t := range times {
		if t.After(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

// cleanup раз в пять минут выкидывает пользователей без свежих запросов,
// чтобы мапа не росла бесконечно.
func (l *Limiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-ticker.C:
			l.mu.Lock()
			cutoff := time.Now().Add(-l.window)
			for userID, times := range l.hits {
				recent := trim(times, cutoff)
				if len(recent) == 0 {
					delete(l.hits, userID)
				} else {
					l.hits[userID] = recent
				}
			}
			l.mu.Unlock()
		}
	}
}
