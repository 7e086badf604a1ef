// Package session — явное хранилище состояния диалога по пользователю.
// Сюда складываются эфемерные данные между сообщениями: кэш выдачи
// сигналов для пагинации и ожидающий оплаты инвойс. Одно хранилище,
// узкий интерфейс Get/Set/Remove, записи с TTL — вместо глобальных мап,
// разбросанных по обработчикам.
package session

import (
	"sync"
	"time"
)

type entry struct {
	data      interface{}
	expiresAt time.Time
}

// Store — потокобезопасное хранилище состояния с TTL по ключу-пользователю.
type Store struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[int64]entry

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewStore создаёт хранилище. Фоновая горутина удаляет протухшие записи.
func NewStore(ttl time.Duration) *Store {
	s := &Store{
		ttl:    ttl,
		m:      make(map[int64]entry),
		stopCh: make(chan struct{}),
	}
	go s.cleanup()
	return s
}

// Close останавливает фоновую горутину очистки.
func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// Get возвращает состояние пользователя. Протухшая запись считается отсутствующей.
func (s *Store) Get(userID int64) (interface{}, bool) {
	s.mu.RLock()
	e, ok := s.m[userID]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		s.Remove(userID)
		return nil, false
	}
	return e.data, true
}

// Set сохраняет состояние пользователя, обновляя TTL.
func (s *Store) Set(userID int64, data interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = entry{data: data, expiresAt: time.Now().Add(s.ttl)}
}

// Remove удаляет состояние пользователя.
func (s *Store) Remove(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

func (s *Store) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			now := time.Now()
			s.mu.Lock()
			for id, e := range s.m {
				if now.After(e.expiresAt) {
					delete(s.m, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
