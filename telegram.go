package homework

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// DefaultTelegramAPIURL is the public Telegram bot API.
const DefaultTelegramAPIURL = "https://api.telegram.org"

// TelegramNotifier sends messages to a single Telegram chat through a bot.
type TelegramNotifier struct {
	ChatID int64

	bot     *tele.Bot
	apiURL  string
	timeout time.Duration
	log     *zap.SugaredLogger
}

// NewTelegramNotifier builds a bot client for token. The bot only sends
// messages, so it never polls for updates and does not call getMe on start.
func NewTelegramNotifier(
	token string,
	chatID int64,
	options ...func(*TelegramNotifier)) (*TelegramNotifier, error) {

	if token == "" {
		return nil, errors.New("telegram token must be specified")
	}
	if chatID == 0 {
		return nil, errors.New("telegram chat ID must be specified")
	}
	tn := &TelegramNotifier{
		ChatID:  chatID,
		apiURL:  DefaultTelegramAPIURL,
		timeout: defaultRequestTimeout,
		log:     zap.NewNop().Sugar(),
	}
	for _, o := range options {
		o(tn)
	}
	bot, err := tele.NewBot(tele.Settings{
		URL:     tn.apiURL,
		Token:   token,
		Client:  initHTTPClient(tn.timeout),
		Offline: true,
		OnError: func(err error, _ tele.Context) {
			tn.log.Errorw("telegram bot error", "err", err)
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "error creating telegram bot")
	}
	tn.bot = bot
	return tn, nil
}

// WithTelegramLogger sets the logger used by the notifier.
func WithTelegramLogger(logger *zap.SugaredLogger) func(*TelegramNotifier) {
	return func(tn *TelegramNotifier) {
		tn.log = logger
	}
}

// WithTelegramAPIURL points the bot at another API host.
func WithTelegramAPIURL(apiURL string) func(*TelegramNotifier) {
	return func(tn *TelegramNotifier) {
		if apiURL != "" {
			tn.apiURL = apiURL
		}
	}
}

// WithTelegramTimeout sets the HTTP timeout for bot API calls.
func WithTelegramTimeout(timeout time.Duration) func(*TelegramNotifier) {
	return func(tn *TelegramNotifier) {
		tn.timeout = timeout
	}
}

// Notify sends message to the configured chat. telebot has no context
// support, so ctx is only checked before the call.
func (tn *TelegramNotifier) Notify(ctx context.Context, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := tn.bot.Send(tele.ChatID(tn.ChatID), message)
	if err != nil {
		return errors.Wrapf(err, "error sending telegram message to chat %d", tn.ChatID)
	}
	tn.log.Infow("sent telegram message",
		"chat_id", tn.ChatID,
		"message_id", msg.ID)
	return nil
}
