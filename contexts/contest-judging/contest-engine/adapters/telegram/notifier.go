package telegramadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"aquajudge/contexts/contest-judging/contest-engine/ports"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNoChat = errors.New("telegram notifier: no chat for notification")

// Sender is the subset of *tgbotapi.BotAPI the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts notifications to Telegram. Judges with a linked chat are
// messaged directly; everything else goes to the announcement channel.
type Notifier struct {
	bot           Sender
	channelChatID int64
	capture       func(error)
	logger        *slog.Logger
}

func NewNotifier(bot Sender, channelChatID int64, capture func(error), logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	if capture == nil {
		capture = func(error) {}
	}
	return &Notifier{
		bot:           bot,
		channelChatID: channelChatID,
		capture:       capture,
		logger:        logger,
	}
}

func (n *Notifier) Notify(ctx context.Context, notification ports.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	chatID := notification.ChatID
	if chatID == 0 {
		chatID = n.channelChatID
	}
	if chatID == 0 {
		n.logger.Debug("telegram notification dropped",
			"event", "contest_telegram_no_chat",
			"module", "contest-judging/contest-engine",
			"layer", "adapter",
			"topic", notification.Topic,
			"recipient_id", notification.RecipientID,
		)
		return nil
	}

	msg := tgbotapi.NewMessage(chatID, notification.Text)
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		if isSystemErr(err) {
			n.capture(err)
		}
		return err
	}
	return nil
}

// isSystemErr reports transport-level failures: rate limits, gateway errors
// and timeouts. Validation errors from the Bot API are not reported.
func isSystemErr(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") ||
		strings.Contains(s, "502") ||
		strings.Contains(s, "503") ||
		strings.Contains(s, "timeout")
}

var _ ports.Notifier = (*Notifier)(nil)
