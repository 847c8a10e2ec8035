package memory

import (
	"context"
	"log/slog"
	"sync"

	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

// Notifier keeps delivered notifications in memory. It backs dev runs
// without a Telegram token and the worker tests.
type Notifier struct {
	mu     sync.Mutex
	sent   []ports.Notification
	fail   error
	logger *slog.Logger
}

func NewNotifier(logger *slog.Logger) *Notifier {
	return &Notifier{logger: logger}
}

// FailWith makes every following Notify return err. A nil err restores
// delivery.
func (n *Notifier) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.fail = err
}

func (n *Notifier) Notify(ctx context.Context, notification ports.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail != nil {
		return n.fail
	}
	n.sent = append(n.sent, notification)
	if n.logger != nil {
		n.logger.Info("notification recorded",
			"event", "contest_notification_recorded",
			"module", "contest-judging/contest-engine",
			"layer", "adapter",
			"topic", notification.Topic,
			"recipient_id", notification.RecipientID,
		)
	}
	return nil
}

func (n *Notifier) Sent() []ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ports.Notification(nil), n.sent...)
}

var _ ports.Notifier = (*Notifier)(nil)
