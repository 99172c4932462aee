package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/lmercier/pricewatch/internal/models"
	"gopkg.in/telebot.v4"
)

// NotifySweep broadcasts the price changes of a finished sweep to all
// subscribed chats. Sweeps without any price change are silent.
func (b *Bot) NotifySweep(ctx context.Context, summary *models.SweepSummary) {
	const opn = "bot.NotifySweep"
	log := b.log.With("op", opn)

	message := formatSweepMessage(summary)
	if message == "" {
		log.DebugContext(ctx, "No price changes, nothing to notify")
		return
	}

	chatIDs, err := b.repo.GetSubscribedChats(ctx)
	if err != nil {
		log.ErrorContext(ctx, "Failed to get subscribed chats", "error", err)
		return
	}

	for _, chatID := range chatIDs {
		if _, err = b.api.Send(telebot.ChatID(chatID), message); err != nil {
			// One unreachable chat must not silence the others.
			log.WarnContext(ctx, "Failed to notify chat", "chat_id", chatID, "error", err)
		}
	}

	log.InfoContext(ctx, "Sweep notifications sent", "chats", len(chatIDs))
}

// formatSweepMessage renders the changed items of a sweep, one line each.
// Returns "" when no item changed price.
func formatSweepMessage(summary *models.SweepSummary) string {
	var lines []string
	for _, item := range summary.Results {
		if !item.OK() || item.Result == nil || item.Result.Unchanged {
			continue
		}

		res := item.Result
		line := fmt.Sprintf("%s: %s → %s (%+.2f%%)",
			res.ASIN,
			formatPrice(res.OldPrice, res.Currency),
			formatPrice(res.NewPrice, res.Currency),
			res.VariationPercent)
		if res.OnPromotion {
			line += " — on promotion"
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return ""
	}

	return "Price changes:\n" + strings.Join(lines, "\n")
}

func formatPrice(price *float64, currency string) string {
	if price == nil {
		return "n/a"
	}

	return fmt.Sprintf("%.2f %s", *price, currency)
}
