// Package market — тонкий клиент к публичным API рыночных данных
// (CoinGecko для цен и топа рынков, Binance для свечей и стрима).
// models.go описывает структуры данных, которые возвращает шлюз.
package market

import "time"

// Market — снимок рынка одной монеты из топа CoinGecko.
type Market struct {
	ID        string  // CoinGecko id ("bitcoin")
	Symbol    string  // тикер ("btc")
	Name      string  // название ("Bitcoin")
	PriceUSD  float64 // текущая цена в USD
	MarketCap float64 // капитализация
	Change24h float64 // изменение за 24ч, %
}

// Kline — одна OHLCV-свеча с Binance.
type Kline struct {
	OpenTime time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	Volume   float64
}

// Tick — одно обновление цены из стрима Binance.
type Tick struct {
	Symbol string
	Price  float64
	Time   time.Time
}
