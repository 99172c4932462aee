package bot

import (
	"context"
	"fmt"

	"gopkg.in/telebot.v4"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	msg := "Hello! I watch product prices for you.\n" +
		"/subscribe — receive price change notifications\n" +
		"/unsubscribe — stop receiving them"
	if err := ctx.Send(msg); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// subscribeHandler process command /subscribe.
func (b *Bot) subscribeHandler(ctx telebot.Context) error {
	chatID := ctx.Chat().ID
	b.log.Info("Chat subscribed to price notifications", "chat_id", chatID)

	if err := b.repo.SubscribeChat(context.Background(), chatID); err != nil {
		return fmt.Errorf("failed to subscribe chat: %w", err)
	}

	if err := ctx.Send("Subscribed. You will be notified when a tracked price changes."); err != nil {
		return fmt.Errorf("failed to send confirmation message: %w", err)
	}

	return nil
}

// unsubscribeHandler process command /unsubscribe.
func (b *Bot) unsubscribeHandler(ctx telebot.Context) error {
	chatID := ctx.Chat().ID
	b.log.Info("Chat unsubscribed from price notifications", "chat_id", chatID)

	if err := b.repo.UnsubscribeChat(context.Background(), chatID); err != nil {
		return fmt.Errorf("failed to unsubscribe chat: %w", err)
	}

	if err := ctx.Send("Unsubscribed. No more price notifications."); err != nil {
		return fmt.Errorf("failed to send confirmation message: %w", err)
	}

	return nil
}
