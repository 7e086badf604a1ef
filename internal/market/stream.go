// Package market — stream.go подключается к стриму Binance miniTicker
// и транслирует тики в канал. Одно подключение на один вызов StreamTicks;
// жизненным циклом управляет контекст вызывающего.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// miniTickerMessage — сообщение стрима <symbol>@miniTicker.
type miniTickerMessage struct {
	Symbol string `json:"s"`
	Close  string `json:"c"`
}

// StreamTicks открывает websocket к Binance и отдаёт тики цены в канал.
// Канал закрывается при отмене контекста, закрытии соединения удалённой
// стороной или ошибке чтения. Соединение всегда закрывается на выходе.
func (c *Client) StreamTicks(ctx context.Context, symbol string) (<-chan Tick, error) {
	pair := BinancePair(symbol)
	u := fmt.Sprintf("%s/%s@miniTicker", c.binanceWSURL, strings.ToLower(pair))

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u, nil)
	if err != nil {
		return nil, fmt.Errorf("подключение к стриму %s: %w", pair, err)
	}

	ticks := make(chan Tick)

	// Следим за контекстом: отмена рвёт соединение, и читающая горутина
	// выходит из ReadMessage с ошибкой.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go func() {
		defer close(ticks)
		defer conn.Close()

		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				// Обычный конец стрима: отмена контекста или закрытие сервером
				log.WithError(err).WithField("pair", pair).Debug("стрим завершён")
				return
			}

			var m miniTickerMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				log.WithError(err).WithField("pair", pair).Debug("не удалось разобрать тик")
				continue
			}
			price, err := strconv.ParseFloat(m.Close, 64)
			if err != nil {
				continue
			}

			select {
			case ticks <- Tick{Symbol: m.Symbol, Price: price, Time: time.Now()}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ticks, nil
}
