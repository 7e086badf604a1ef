// market.go — обработчики команд рыночных данных: /price, /top, /history.
// Живут прямо в боте: у них нет ни БД, ни бизнес-логики, только клиент API.
package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/signal-bot/internal/charts"
	"serotonyl.ru/signal-bot/internal/common"
	"serotonyl.ru/signal-bot/internal/market"
)

const (
	topCount      = 10
	historyDays   = 30
	klineInterval = "1d"
)

// handlePrice — /price <symbol>.
func (b *Bot) handlePrice(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Usage: /price <symbol>\nExample: /price BTC")
		return
	}

	symbol := market.NormalizeSymbol(args[0])
	price, err := b.market.GetPrice(ctx, symbol)
	if err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("Ошибка запроса цены")
		b.sendMessage(chatID, "⚠️ Could not fetch the price. Check the symbol or try later.")
		return
	}
	b.sendMessage(chatID, fmt.Sprintf("💰 %s: %s", symbol, common.FormatPrice(price)))
}

// handleTop — /top: топ монет по капитализации.
func (b *Bot) handleTop(ctx context.Context, chatID int64) {
	markets, err := b.market.GetTopMarkets(ctx, topCount)
	if err != nil {
		log.WithError(err).Warn("Ошибка запроса топа монет")
		b.sendMessage(chatID, "⚠️ Could not fetch the market data. Try again later.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🏆 Top coins by market cap:\n\n")
	for i, m := range markets {
		arrow := "🟢"
		if m.Change24h < 0 {
			arrow = "🔴"
		}
		fmt.Fprintf(&sb, "%d. %s (%s): %s %s %.2f%%\n",
			i+1, m.Name, strings.ToUpper(m.Symbol), common.FormatPrice(m.PriceUSD), arrow, m.Change24h)
	}
	b.sendMessage(chatID, sb.String())
}

// handleHistory — /history <symbol>: PNG-график за 30 дней плюс RSI в подписи.
func (b *Bot) handleHistory(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.sendMessage(chatID, "Usage: /history <symbol>\nExample: /history BTC")
		return
	}

	symbol := market.NormalizeSymbol(args[0])
	klines, err := b.market.GetKlines(ctx, symbol, klineInterval, historyDays)
	if err != nil {
		log.WithError(err).WithField("symbol", symbol).Warn("Ошибка запроса истории")
		b.sendMessage(chatID, "⚠️ Could not fetch the history. Check the symbol or try later.")
		return
	}
	if len(klines) == 0 {
		b.sendMessage(chatID, "⚠️ No history available for this symbol.")
		return
	}

	png, err := charts.RenderHistory(symbol+"/USDT", klines)
	if err != nil {
		log.WithError(err).WithField("symbol", symbol).Error("Ошибка рендера графика")
		b.sendMessage(chatID, "⚠️ Could not render the chart. Try again later.")
		return
	}

	caption := fmt.Sprintf("📊 %s/USDT, %d days", symbol, historyDays)
	if rsi, ok := charts.LatestRSI(klines); ok {
		caption += fmt.Sprintf("\nRSI(14): %.1f", rsi)
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  symbol + ".png",
		Bytes: png,
	})
	photo.Caption = caption
	if _, err := b.api.Send(photo); err != nil {
		log.WithError(err).WithField("chat_id", chatID).Error("Ошибка отправки графика")
	}
}
