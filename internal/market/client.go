// Package market — client.go выполняет REST-запросы к CoinGecko и Binance.
// Клиент не кэширует ответы: каждая команда и каждый тик фоновой джобы
// видят актуальные цены. Все вызовы обёрнуты в общий Retrier.
package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/config"
)

// Client — шлюз рыночных данных.
type Client struct {
	http         *http.Client
	coingeckoURL string
	binanceURL   string
	binanceWSURL string
	retry        Retrier
}

// NewClient создаёт шлюз с таймаутом и политикой повторов из конфига.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		http:         &http.Client{Timeout: cfg.HTTPTimeout},
		coingeckoURL: strings.TrimRight(cfg.CoinGeckoURL, "/"),
		binanceURL:   strings.TrimRight(cfg.BinanceURL, "/"),
		binanceWSURL: strings.TrimRight(cfg.BinanceWSURL, "/"),
		retry:        Retrier{Attempts: cfg.RetryAttempts, Delay: cfg.RetryDelay},
	}
}

// getJSON выполняет GET и декодирует ответ в out.
func (c *Client) getJSON(ctx context.Context, rawURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("статус %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// GetPrice возвращает текущую цену одной монеты в USD.
func (c *Client) GetPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := c.GetPrices(ctx, []string{symbol})
	if err != nil {
		return 0, err
	}
	price, ok := prices[NormalizeSymbol(symbol)]
	if !ok {
		return 0, fmt.Errorf("нет цены для %s", symbol)
	}
	return price, nil
}

// GetPrices батчем возвращает цены набора монет в USD.
// Ключи результата — нормализованные тикеры из запроса.
// Неизвестные монеты просто отсутствуют в ответе — это не ошибка,
// остальной батч остаётся валидным.
func (c *Client) GetPrices(ctx context.Context, symbols []string) (map[string]float64, error) {
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	// тикер → CoinGecko id; дубликаты схлопываем
	idForSymbol := make(map[string]string, len(symbols))
	for _, s := range symbols {
		idForSymbol[NormalizeSymbol(s)] = CoinID(s)
	}
	ids := make([]string, 0, len(idForSymbol))
	seen := make(map[string]bool, len(idForSymbol))
	for _, id := range idForSymbol {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	u := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd",
		c.coingeckoURL, url.QueryEscape(strings.Join(ids, ",")))

	var raw map[string]map[string]float64
	err := c.retry.Do(ctx, "coingecko.simple_price", func() error {
		return c.getJSON(ctx, u, &raw)
	})
	if err != nil {
		return nil, fmt.Errorf("запрос цен: %w", err)
	}

	out := make(map[string]float64, len(raw))
	for symbol, id := range idForSymbol {
		if entry, ok := raw[id]; ok {
			if usd, ok := entry["usd"]; ok {
				out[symbol] = usd
			}
		}
	}
	return out, nil
}

// coinMarket — строка ответа CoinGecko /coins/markets.
type coinMarket struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	Name           string  `json:"name"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	PriceChange24h float64 `json:"price_change_percentage_24h"`
}

// GetTopMarkets возвращает n крупнейших рынков по капитализации.
func (c *Client) GetTopMarkets(ctx context.Context, n int) ([]Market, error) {
	if n <= 0 {
		n = 10
	}
	u := fmt.Sprintf("%s/coins/markets?vs_currency=usd&order=market_cap_desc&per_page=%d&page=1",
		c.coingeckoURL, n)

	var raw []coinMarket
	err := c.retry.Do(ctx, "coingecko.markets", func() error {
		return c.getJSON(ctx, u, &raw)
	})
	if err != nil {
		return nil, fmt.Errorf("запрос топа рынков: %w", err)
	}

	out := make([]Market, 0, len(raw))
	for _, m := range raw {
		out = append(out, Market{
			ID:        m.ID,
			Symbol:    m.Symbol,
			Name:      m.Name,
			PriceUSD:  m.CurrentPrice,
			MarketCap: m.MarketCap,
			Change24h: m.PriceChange24h,
		})
	}
	return out, nil
}

// GetKlines возвращает последние limit свечей пары с Binance.
// interval — строка Binance: "1h", "4h", "1d" и т.д.
func (c *Client) GetKlines(ctx context.Context, symbol, interval string, limit int) ([]Kline, error) {
	if limit <= 0 {
		limit = 100
	}
	u := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		c.binanceURL, url.QueryEscape(BinancePair(symbol)), url.QueryEscape(interval), limit)

	// Binance отдаёт свечу массивом смешанных типов:
	// [openTime, "open", "high", "low", "close", "volume", closeTime, ...]
	var raw [][]json.RawMessage
	err := c.retry.Do(ctx, "binance.klines", func() error {
		return c.getJSON(ctx, u, &raw)
	})
	if err != nil {
		return nil, fmt.Errorf("запрос свечей %s: %w", symbol, err)
	}

	out := make([]Kline, 0, len(raw))
	for _, row := range raw {
		if len(row) < 6 {
			continue
		}
		var openTime int64
		if err := json.Unmarshal(row[0], &openTime); err != nil {
			continue
		}
		k := Kline{OpenTime: time.UnixMilli(openTime)}
		fields := []*float64{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume}
		ok := true
		for i, dst := range fields {
			var s string
			if err := json.Unmarshal(row[i+1], &s); err != nil {
				ok = false
				break
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				ok = false
				break
			}
			*dst = v
		}
		if ok {
			out = append(out, k)
		}
	}
	return out, nil
}

// Ping проверяет доступность обоих API на старте бота.
// Недоступность логируется, но не валит запуск: API могут ожить позже.
func (c *Client) Ping(ctx context.Context) {
	checks := map[string]string{
		"CoinGecko": c.coingeckoURL + "/ping",
		"Binance":   c.binanceURL + "/api/v3/ping",
	}
	for name, u := range checks {
		var out json.RawMessage
		if err := c.getJSON(ctx, u, &out); err != nil {
			log.WithError(err).Warnf("%s API недоступен", name)
		} else {
			log.Infof("%s API доступен", name)
		}
	}
}
