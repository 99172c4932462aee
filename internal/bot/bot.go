package bot

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lmercier/pricewatch/internal/repository/sqlite"
	"gopkg.in/telebot.v4"
)

// Bot notifies subscribed Telegram chats about price changes.
type Bot struct {
	api  API
	log  *slog.Logger
	repo sqlite.SubscriptionRepository
}

func NewBot(log *slog.Logger, repo sqlite.SubscriptionRepository, token string, poller time.Duration) (*Bot, error) {
	tgBot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", tgBot.Me.Username)

	return newFromAPI(log, repo, tgBot), nil
}

// newFromAPI wires routes on an already constructed API. Split out so tests
// can inject a fake.
func newFromAPI(log *slog.Logger, repo sqlite.SubscriptionRepository, api API) *Bot {
	botInstance := &Bot{api: api, log: log, repo: repo}
	botInstance.registerRoutes()

	return botInstance
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.api.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.api.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.api.Handle("/start", b.startHandler)
	b.api.Handle("/subscribe", b.subscribeHandler)
	b.api.Handle("/unsubscribe", b.unsubscribeHandler)
}
