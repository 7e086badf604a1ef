package stream

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

// fakeSource отдаёт управляемый канал тиков; закрывается по отмене контекста,
// как настоящий websocket-клиент.
type fakeSource struct {
	mu    sync.Mutex
	chans []chan market.Tick
}

func (f *fakeSource) StreamTicks(ctx context.Context, symbol string) (<-chan market.Tick, error) {
	ch := make(chan market.Tick, 8)
	f.mu.Lock()
	f.chans = append(f.chans, ch)
	f.mu.Unlock()

	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (f *fakeSource) last() chan market.Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.chans[len(f.chans)-1]
}

// collector собирает отправленные пользователям сообщения.
type collector struct {
	mu   sync.Mutex
	msgs []string
}

func (c *collector) send(userID int64, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, text)
}

func (c *collector) all() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.msgs...)
}

func (c *collector) contains(substr string) bool {
	for _, m := range c.all() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

func TestManagerStartStop(t *testing.T) {
	src := &fakeSource{}
	col := &collector{}
	m := NewManager(src, col.send, 5, 0)

	require.NoError(t, m.Start(context.Background(), 1, "btc"))
	assert.Equal(t, 1, m.Active())

	require.NoError(t, m.Stop(1))
	m.StopAll() // дожидаемся горутины

	assert.Equal(t, 0, m.Active())
	assert.True(t, col.contains("ended"))
}

func TestManagerStopWithoutStream(t *testing.T) {
	m := NewManager(&fakeSource{}, (&collector{}).send, 5, 0)
	assert.ErrorIs(t, m.Stop(1), common.ErrNoActiveStream)
}

func TestManagerInvalidSymbol(t *testing.T) {
	m := NewManager(&fakeSource{}, (&collector{}).send, 5, 0)
	assert.ErrorIs(t, m.Start(context.Background(), 1, "  "), common.ErrInvalidSymbol)
}

func TestManagerSlotLimit(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src, (&collector{}).send, 1, 0)

	require.NoError(t, m.Start(context.Background(), 1, "btc"))
	assert.ErrorIs(t, m.Start(context.Background(), 2, "eth"), common.ErrStreamLimit)

	m.StopAll()
}

// Повторный запуск тем же пользователем заменяет трансляцию, а не
// упирается в лимит.
func TestManagerRestartReplacesOwnStream(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src, (&collector{}).send, 1, 0)

	require.NoError(t, m.Start(context.Background(), 1, "btc"))
	require.NoError(t, m.Start(context.Background(), 1, "eth"))
	assert.Equal(t, 1, m.Active())

	m.StopAll()
	assert.Equal(t, 0, m.Active())
}

// Гонка перезапусков от одного пользователя не должна терять cancel:
// каждая вытесненная трансляция обязана завершиться, иначе StopAll
// зависнет на wg.Wait().
func TestManagerConcurrentRestartsReleaseEverySlot(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src, (&collector{}).send, 5, 0)

	const racers = 8
	barrier := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-barrier
			_ = m.Start(context.Background(), 1, "btc")
		}()
	}
	close(barrier)
	wg.Wait()

	done := make(chan struct{})
	go func() {
		m.StopAll()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("StopAll не завершился: одна из вытесненных трансляций осталась без cancel")
	}
	assert.Equal(t, 0, m.Active())
}

// Лимит не перепрыгивается гонкой разных пользователей.
func TestManagerConcurrentDistinctUsersRespectLimit(t *testing.T) {
	src := &fakeSource{}
	m := NewManager(src, (&collector{}).send, 1, 0)

	const racers = 4
	barrier := make(chan struct{})
	var wg sync.WaitGroup
	errs := make([]error, racers)
	for i := 0; i < racers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-barrier
			errs[i] = m.Start(context.Background(), int64(i+1), "btc")
		}()
	}
	close(barrier)
	wg.Wait()

	started := 0
	for _, err := range errs {
		if err == nil {
			started++
		} else {
			assert.ErrorIs(t, err, common.ErrStreamLimit)
		}
	}
	assert.Equal(t, 1, started)
	assert.Equal(t, 1, m.Active())

	m.StopAll()
	assert.Equal(t, 0, m.Active())
}

func TestManagerDeliversTicks(t *testing.T) {
	src := &fakeSource{}
	col := &collector{}
	m := NewManager(src, col.send, 5, 0)

	require.NoError(t, m.Start(context.Background(), 1, "btc"))
	src.last() <- market.Tick{Symbol: "BTC", Price: 43000, Time: time.Now()}

	require.Eventually(t, func() bool {
		return col.contains("43000")
	}, time.Second, 10*time.Millisecond)

	m.StopAll()
}

// Тики чаще minInterval схлопываются: уходит только первый.
func TestManagerThrottlesTicks(t *testing.T) {
	src := &fakeSource{}
	col := &collector{}
	m := NewManager(src, col.send, 5, time.Hour)

	require.NoError(t, m.Start(context.Background(), 1, "btc"))
	ch := src.last()
	ch <- market.Tick{Symbol: "BTC", Price: 43000, Time: time.Now()}
	ch <- market.Tick{Symbol: "BTC", Price: 43001, Time: time.Now()}
	ch <- market.Tick{Symbol: "BTC", Price: 43002, Time: time.Now()}

	require.NoError(t, m.Stop(1))
	m.StopAll()

	priceMsgs := 0
	for _, msg := range col.all() {
		if strings.Contains(msg, "BTC/USDT:") {
			priceMsgs++
		}
	}
	assert.Equal(t, 1, priceMsgs)
}
