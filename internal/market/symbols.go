// Package market — symbols.go сопоставляет пользовательские тикеры
// с идентификаторами CoinGecko и парами Binance.
package market

import "strings"

// Известные тикеры → CoinGecko id. Для остальных берём тикер в нижнем
// регистре: для большинства монет он совпадает с id.
var coinIDs = map[string]string{
	"btc":   "bitcoin",
	"eth":   "ethereum",
	"bnb":   "binancecoin",
	"sol":   "solana",
	"xrp":   "ripple",
	"ada":   "cardano",
	"doge":  "dogecoin",
	"dot":   "polkadot",
	"ltc":   "litecoin",
	"trx":   "tron",
	"link":  "chainlink",
	"matic": "matic-network",
	"avax":  "avalanche-2",
	"atom":  "cosmos",
	"uni":   "uniswap",
	"xlm":   "stellar",
	"ton":   "the-open-network",
	"near":  "near",
	"shib":  "shiba-inu",
	"usdt":  "tether",
}

// CoinID возвращает CoinGecko id для тикера ("BTC" → "bitcoin").
func CoinID(symbol string) string {
	s := strings.ToLower(strings.TrimSpace(symbol))
	if id, ok := coinIDs[s]; ok {
		return id
	}
	return s
}

// NormalizeSymbol приводит тикер к каноническому виду для хранения: "btc " → "BTC".
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// BinancePair строит символ пары Binance из тикера: "BTC" → "BTCUSDT".
// Если пользователь уже передал пару (оканчивается на USDT) — оставляем как есть.
func BinancePair(symbol string) string {
	s := NormalizeSymbol(symbol)
	if strings.HasSuffix(s, "USDT") {
		return s
	}
	return s + "USDT"
}

// PairBase возвращает базовую монету торговой пары: "BTC/USDT" → "BTC", "ETHUSDT" → "ETH".
func PairBase(pair string) string {
	s := NormalizeSymbol(pair)
	if i := strings.IndexByte(s, '/'); i > 0 {
		return s[:i]
	}
	s = strings.TrimSuffix(s, "USDT")
	if s == "" {
		return "USDT"
	}
	return s
}
