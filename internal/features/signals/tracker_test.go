package signals

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longSignal(entry, target, stop float64) *Signal {
	return &Signal{ID: 1, Pair: "BTC/USDT", Direction: DirectionLong,
		EntryPrice: entry, TargetPrice: target, StopLoss: stop, Outcome: OutcomeOpen}
}

func shortSignal(entry, target, stop float64) *Signal {
	return &Signal{ID: 2, Pair: "ETH/USDT", Direction: DirectionShort,
		EntryPrice: entry, TargetPrice: target, StopLoss: stop, Outcome: OutcomeOpen}
}

func TestResolveOutcomeLong(t *testing.T) {
	s := longSignal(100, 120, 90)

	tests := []struct {
		name    string
		price   float64
		outcome string
		done    bool
	}{
		{"между уровнями — открыт", 110, "", false},
		{"цель достигнута", 125, OutcomeHitTarget, true},
		{"ровно цель — закрыт (нестрогое сравнение)", 120, OutcomeHitTarget, true},
		{"стоп пробит", 85, OutcomeHitStop, true},
		{"ровно стоп — закрыт", 90, OutcomeHitStop, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, done := resolveOutcome(s, tt.price)
			assert.Equal(t, tt.done, done)
			assert.Equal(t, tt.outcome, outcome)
		})
	}
}

func TestResolveOutcomeShort(t *testing.T) {
	s := shortSignal(100, 80, 110)

	outcome, done := resolveOutcome(s, 75)
	require.True(t, done)
	assert.Equal(t, OutcomeHitTarget, outcome)

	outcome, done = resolveOutcome(s, 80)
	require.True(t, done)
	assert.Equal(t, OutcomeHitTarget, outcome)

	outcome, done = resolveOutcome(s, 115)
	require.True(t, done)
	assert.Equal(t, OutcomeHitStop, outcome)

	_, done = resolveOutcome(s, 95)
	assert.False(t, done)
}

// Если цена удовлетворяет и цели, и стопу, побеждает цель.
func TestResolveOutcomeTargetBeatsStop(t *testing.T) {
	s := longSignal(100, 110, 150) // стоп выше цели — вырожденная конфигурация
	outcome, done := resolveOutcome(s, 120)
	require.True(t, done)
	assert.Equal(t, OutcomeHitTarget, outcome)

	sh := shortSignal(100, 90, 50)
	outcome, done = resolveOutcome(sh, 70)
	require.True(t, done)
	assert.Equal(t, OutcomeHitTarget, outcome)
}

func TestResolveOutcomeUnknownDirection(t *testing.T) {
	s := &Signal{Direction: "sideways", TargetPrice: 1, StopLoss: 2}
	_, done := resolveOutcome(s, 100)
	assert.False(t, done)
}

func TestResolveBatchSkipsMissingPrices(t *testing.T) {
	sigs := []*Signal{
		longSignal(100, 120, 90),  // BTC — цена есть, цель взята
		shortSignal(100, 80, 110), // ETH — цены нет, пропуск
	}
	prices := map[string]float64{"BTC": 125}

	var applied []*Signal
	n := resolveBatch(sigs, prices, func(s *Signal, outcome string, price float64) error {
		applied = append(applied, s)
		assert.Equal(t, OutcomeHitTarget, outcome)
		return nil
	})

	assert.Equal(t, 1, n)
	require.Len(t, applied, 1)
	assert.Equal(t, int64(1), applied[0].ID)
}

func TestResolveBatchOpenSignalsUntouched(t *testing.T) {
	sigs := []*Signal{longSignal(100, 120, 90)}
	prices := map[string]float64{"BTC": 105}

	n := resolveBatch(sigs, prices, func(*Signal, string, float64) error {
		t.Fatal("apply не должен вызываться для открытого сигнала")
		return nil
	})
	assert.Zero(t, n)
}

func TestResolveBatchApplyErrorNotCounted(t *testing.T) {
	sigs := []*Signal{longSignal(100, 120, 90)}
	prices := map[string]float64{"BTC": 125}

	n := resolveBatch(sigs, prices, func(*Signal, string, float64) error {
		return errors.New("db down")
	})
	assert.Zero(t, n)
}

func TestOutcomeMessage(t *testing.T) {
	s := longSignal(100, 120, 90)
	assert.Contains(t, outcomeMessage(s, OutcomeHitTarget, 121), "Target hit")
	assert.Contains(t, outcomeMessage(s, OutcomeHitStop, 89), "Stop loss hit")
	assert.Contains(t, outcomeMessage(s, OutcomeHitTarget, 121), "BTC/USDT")
}
