// Package stream управляет живыми трансляциями цен через websocket Binance.
// На пользователя — не больше одной трансляции; общее число ограничено.
package stream

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

// TickSource — источник тиков (market.Client; в тестах — фейк).
type TickSource interface {
	StreamTicks(ctx context.Context, symbol string) (<-chan market.Tick, error)
}

// Sender доставляет сообщение пользователю.
type Sender func(userID int64, text string)

type slot struct {
	cancel context.CancelFunc
	symbol string
}

// Manager следит за активными трансляциями. Слот освобождается на всех
// путях выхода: /stopstream, закрытие канала источником, остановка бота.
type Manager struct {
	source      TickSource
	send        Sender
	maxActive   int
	minInterval time.Duration

	mu    sync.Mutex
	slots map[int64]*slot
	wg    sync.WaitGroup
}

func NewManager(source TickSource, send Sender, maxActive int, minInterval time.Duration) *Manager {
	return &Manager{
		source:      source,
		send:        send,
		maxActive:   maxActive,
		minInterval: minInterval,
		slots:       make(map[int64]*slot),
	}
}

// Start запускает трансляцию для пользователя. Повторный запуск заменяет
// предыдущую трансляцию того же пользователя.
func (m *Manager) Start(ctx context.Context, userID int64, symbol string) error {
	symbol = market.NormalizeSymbol(symbol)
	if symbol == "" {
		return common.ErrInvalidSymbol
	}

	streamCtx, cancel := context.WithCancel(ctx)
	s := &slot{cancel: cancel, symbol: symbol}

	// Вытеснение предыдущего слота и занятие клетки — одна критическая
	// секция: два одновременных запуска от одного пользователя не должны
	// терять cancel друг друга.
	m.mu.Lock()
	if prev, ok := m.slots[userID]; ok {
		prev.cancel()
	} else if len(m.slots) >= m.maxActive {
		m.mu.Unlock()
		cancel()
		return common.ErrStreamLimit
	}
	m.slots[userID] = s
	m.mu.Unlock()

	ticks, err := m.source.StreamTicks(streamCtx, symbol)
	if err != nil {
		cancel()
		m.release(userID, s)
		return err
	}

	m.wg.Add(1)
	go m.pump(userID, s, ticks, cancel)

	log.WithFields(log.Fields{
		"user_id": userID,
		"symbol":  symbol,
	}).Info("Трансляция запущена")
	return nil
}

// Stop останавливает трансляцию пользователя.
func (m *Manager) Stop(userID int64) error {
	m.mu.Lock()
	s, ok := m.slots[userID]
	if ok {
		delete(m.slots, userID)
	}
	m.mu.Unlock()

	if !ok {
		return common.ErrNoActiveStream
	}
	s.cancel()
	log.WithField("user_id", userID).Info("Трансляция остановлена")
	return nil
}

// StopAll останавливает все трансляции и ждёт завершения горутин.
func (m *Manager) StopAll() {
	m.mu.Lock()
	for userID, s := range m.slots {
		s.cancel()
		delete(m.slots, userID)
	}
	m.mu.Unlock()
	m.wg.Wait()
}

// Active возвращает число активных трансляций.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.slots)
}

// pump читает тики и отправляет пользователю не чаще minInterval.
// Выход — когда источник закрыл канал или трансляцию отменили.
func (m *Manager) pump(userID int64, s *slot, ticks <-chan market.Tick, cancel context.CancelFunc) {
	defer m.wg.Done()
	defer cancel()
	defer m.release(userID, s)

	var lastSent time.Time
	for tick := range ticks {
		if time.Since(lastSent) < m.minInterval {
			continue
		}
		lastSent = time.Now()
		m.send(userID, "📡 "+s.symbol+"/USDT: "+common.FormatPrice(tick.Price))
	}
	m.send(userID, "📡 Stream for "+s.symbol+" ended.")
}

// release снимает слот, только если он всё ещё наш: пользователь мог уже
// запустить новую трансляцию, занявшую ту же клетку мапы.
func (m *Manager) release(userID int64, s *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.slots[userID]; ok && cur == s {
		delete(m.slots, userID)
	}
}
