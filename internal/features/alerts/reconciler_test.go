package alerts

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func alertAbove(id int64, target float64) *Alert {
	return &Alert{ID: id, UserID: 100, Symbol: "BTC", TargetPrice: target, Direction: DirectionAbove}
}

func alertBelow(id int64, target float64) *Alert {
	return &Alert{ID: id, UserID: 100, Symbol: "BTC", TargetPrice: target, Direction: DirectionBelow}
}

func TestTriggeredStrictInequality(t *testing.T) {
	above := alertAbove(1, 50000)
	assert.True(t, triggered(above, 50001))
	assert.False(t, triggered(above, 50000), "равенство не срабатывает")
	assert.False(t, triggered(above, 49999))

	below := alertBelow(2, 50000)
	assert.True(t, triggered(below, 49999))
	assert.False(t, triggered(below, 50000), "равенство не срабатывает")
	assert.False(t, triggered(below, 50001))
}

func TestTriggeredUnknownDirection(t *testing.T) {
	a := &Alert{Direction: "sideways", TargetPrice: 1}
	assert.False(t, triggered(a, 100))
}

func TestReconcileNotifyThenRemove(t *testing.T) {
	items := []*Alert{alertAbove(1, 50000)}
	prices := map[string]float64{"BTC": 51000}

	var order []string
	n := reconcile(items, prices,
		func(a *Alert, price float64) error {
			order = append(order, "notify")
			assert.Equal(t, 51000.0, price)
			return nil
		},
		func(a *Alert) error {
			order = append(order, "remove")
			return nil
		},
	)

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"notify", "remove"}, order)
}

// Если доставка не удалась — строка остаётся, удаления не происходит.
func TestReconcileDeliveryFailureKeepsAlert(t *testing.T) {
	items := []*Alert{alertAbove(1, 50000)}
	prices := map[string]float64{"BTC": 51000}

	removed := false
	n := reconcile(items, prices,
		func(*Alert, float64) error { return errors.New("telegram down") },
		func(*Alert) error { removed = true; return nil },
	)

	assert.Zero(t, n)
	assert.False(t, removed, "remove не должен вызываться после неудачной доставки")
}

func TestReconcileSkipsMissingPrice(t *testing.T) {
	items := []*Alert{
		alertAbove(1, 50000),
		{ID: 2, UserID: 101, Symbol: "ETH", TargetPrice: 1000, Direction: DirectionAbove},
	}
	prices := map[string]float64{"BTC": 51000} // ETH нет

	var notified []int64
	n := reconcile(items, prices,
		func(a *Alert, _ float64) error { notified = append(notified, a.ID); return nil },
		func(*Alert) error { return nil },
	)

	assert.Equal(t, 1, n)
	assert.Equal(t, []int64{1}, notified)
}

func TestReconcileNotTriggeredUntouched(t *testing.T) {
	items := []*Alert{alertBelow(1, 40000)}
	prices := map[string]float64{"BTC": 45000}

	n := reconcile(items, prices,
		func(*Alert, float64) error {
			t.Fatal("notify не должен вызываться без срабатывания")
			return nil
		},
		func(*Alert) error { return nil },
	)
	assert.Zero(t, n)
}

func TestReconcileRemoveFailureStillCountsNothing(t *testing.T) {
	items := []*Alert{alertAbove(1, 50000)}
	prices := map[string]float64{"BTC": 51000}

	n := reconcile(items, prices,
		func(*Alert, float64) error { return nil },
		func(*Alert) error { return errors.New("db down") },
	)
	// Уведомление ушло, но в счётчик завершённых алерт не попал
	assert.Zero(t, n)
}

func TestAlertMessage(t *testing.T) {
	msg := alertMessage(alertAbove(1, 50000), 51000)
	require.Contains(t, msg, "BTC")
	assert.Contains(t, msg, "above")

	msg = alertMessage(alertBelow(2, 50000), 49000)
	assert.Contains(t, msg, "below")
}
