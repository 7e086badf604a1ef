package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommandBasic(t *testing.T) {
	p := NewCommandParser("SignalBot")

	cmd, args, ok := p.ParseCommand("/price BTC")
	require.True(t, ok)
	assert.Equal(t, "price", cmd)
	assert.Equal(t, []string{"BTC"}, args)

	cmd, args, ok = p.ParseCommand("  /mysub  ")
	require.True(t, ok)
	assert.Equal(t, "mysub", cmd)
	assert.Nil(t, args)
}

func TestParseCommandNotACommand(t *testing.T) {
	p := NewCommandParser("SignalBot")

	_, _, ok := p.ParseCommand("hello there")
	assert.False(t, ok)

	_, _, ok = p.ParseCommand("")
	assert.False(t, ok)

	_, _, ok = p.ParseCommand("/")
	assert.False(t, ok)
}

func TestParseCommandBotMention(t *testing.T) {
	p := NewCommandParser("SignalBot")

	// Упоминание нашего бота — обычная команда
	cmd, args, ok := p.ParseCommand("/price@signalbot BTC")
	require.True(t, ok)
	assert.Equal(t, "price", cmd)
	assert.Equal(t, []string{"BTC"}, args)

	// Команда адресована другому боту — игнорируем
	_, _, ok = p.ParseCommand("/price@otherbot BTC")
	assert.False(t, ok)
}

func TestParseCommandLowercasesCommand(t *testing.T) {
	p := NewCommandParser("SignalBot")

	cmd, _, ok := p.ParseCommand("/PRICE btc")
	require.True(t, ok)
	assert.Equal(t, "price", cmd)
}
