// Package charts рисует PNG-график цены для команды /history
// и считает индикаторы по свечам для подписи к графику.
package charts

import (
	"bytes"
	"fmt"
	"time"

	talib "github.com/markcheno/go-talib"
	chart "github.com/wcharczuk/go-chart/v2"

	"serotonyl.ru/signal-bot/internal/market"
)

// RSIPeriod — стандартный период RSI.
const RSIPeriod = 14

// closes вытаскивает цены закрытия из свечей.
func closes(klines []market.Kline) []float64 {
	out := make([]float64, 0, len(klines))
	for _, k := range klines {
		out = append(out, k.Close)
	}
	return out
}

// LatestRSI считает RSI(14) по ценам закрытия и возвращает последнее значение.
// Если свечей меньше, чем нужно для периода — возвращает false.
func LatestRSI(klines []market.Kline) (float64, bool) {
	c := closes(klines)
	if len(c) <= RSIPeriod {
		return 0, false
	}
	rsi := talib.Rsi(c, RSIPeriod)
	return rsi[len(rsi)-1], true
}

// RenderHistory рисует график закрытий за период.
// Возвращает готовый PNG для отправки в Telegram.
func RenderHistory(pair string, klines []market.Kline) ([]byte, error) {
	if len(klines) < 2 {
		return nil, fmt.Errorf("недостаточно свечей для графика (%d)", len(klines))
	}

	times := make([]time.Time, 0, len(klines))
	for _, k := range klines {
		times = append(times, k.OpenTime)
	}

	graph := chart.Chart{
		Title:  pair,
		Width:  900,
		Height: 450,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02.01 15:04"),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    pair,
				XValues: times,
				YValues: closes(klines),
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("рендер графика %s: %w", pair, err)
	}
	return buf.Bytes(), nil
}
