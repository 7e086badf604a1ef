package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatUSD(1234.5))
	assert.Equal(t, "$0.00", FormatUSD(0))
	assert.Equal(t, "$1,000,000.00", FormatUSD(1000000))
	assert.Equal(t, "$999.99", FormatUSD(999.99))
	assert.Equal(t, "-$1,234.50", FormatUSD(-1234.5))
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "43000.00", FormatPrice(43000))
	assert.Equal(t, "1.00", FormatPrice(1))
	// Дешёвые монеты — до шести знаков без хвостовых нулей
	assert.Equal(t, "0.000015", FormatPrice(0.000015))
	assert.Equal(t, "0.5", FormatPrice(0.5))
}

func TestLoadLocation(t *testing.T) {
	assert.Equal(t, time.UTC, LoadLocation("no/such-zone"))
	loc := LoadLocation("UTC")
	assert.Equal(t, time.UTC, loc)
}

func TestFormatDateTime(t *testing.T) {
	ts := time.Date(2026, 8, 28, 15, 4, 0, 0, time.UTC)
	assert.Equal(t, "28.08.2026 15:04", FormatDateTime(ts, time.UTC))
	assert.Equal(t, "28.08.2026", FormatDate(ts, time.UTC))
}
