package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoinID(t *testing.T) {
	assert.Equal(t, "bitcoin", CoinID("BTC"))
	assert.Equal(t, "bitcoin", CoinID(" btc "))
	assert.Equal(t, "avalanche-2", CoinID("AVAX"))
	// Неизвестный тикер — нижний регистр как есть
	assert.Equal(t, "pepe", CoinID("PEPE"))
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "BTC", NormalizeSymbol(" btc "))
	assert.Equal(t, "ETH", NormalizeSymbol("eth"))
	assert.Equal(t, "", NormalizeSymbol("   "))
}

func TestBinancePair(t *testing.T) {
	assert.Equal(t, "BTCUSDT", BinancePair("btc"))
	// Уже пара — не дублируем суффикс
	assert.Equal(t, "BTCUSDT", BinancePair("BTCUSDT"))
}

func TestPairBase(t *testing.T) {
	assert.Equal(t, "BTC", PairBase("BTC/USDT"))
	assert.Equal(t, "ETH", PairBase("ETHUSDT"))
	assert.Equal(t, "SOL", PairBase("sol"))
	assert.Equal(t, "USDT", PairBase("USDT"))
}
