package bot

import "gopkg.in/telebot.v4"

// API is the subset of the telebot bot used here, extracted so notification
// logic can be exercised without a live Telegram connection.
type API interface {
	// Handle lets you set the handler for some command name or one of the supported endpoints.
	Handle(endpoint interface{}, h telebot.HandlerFunc, m ...telebot.MiddlewareFunc)
	// Start brings bot into motion by consuming incoming updates.
	Start()
	// Stop gracefully shuts the poller down.
	Stop()

	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}
