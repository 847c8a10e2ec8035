package telegramadapter

import (
	"context"
	"errors"
	"testing"

	"aquajudge/contexts/contest-judging/contest-engine/ports"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func TestNotifierRoutesToJudgeChatOrChannel(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifier(sender, -100500, nil, nil)

	if err := notifier.Notify(context.Background(), ports.Notification{
		RecipientID: "judge-1",
		ChatID:      777,
		Topic:       ports.TopicJudgeInvited,
		Text:        "You are invited",
	}); err != nil {
		t.Fatalf("notify judge failed: %v", err)
	}
	if err := notifier.Notify(context.Background(), ports.Notification{
		Topic: ports.TopicContestFinalized,
		Text:  "Results are out",
	}); err != nil {
		t.Fatalf("notify channel failed: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(sender.sent))
	}
	if sender.sent[0].ChatID != 777 || sender.sent[1].ChatID != -100500 {
		t.Fatalf("unexpected chat routing: %d, %d", sender.sent[0].ChatID, sender.sent[1].ChatID)
	}
	if !sender.sent[1].DisableWebPagePreview {
		t.Fatal("expected link previews to be disabled")
	}
}

func TestNotifierWithoutChatDropsMessage(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifier(sender, 0, nil, nil)
	if err := notifier.Notify(context.Background(), ports.Notification{Text: "nobody listens"}); err != nil {
		t.Fatalf("notify failed: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no message, got %d", len(sender.sent))
	}
}

func TestNotifierCapturesOnlySystemErrors(t *testing.T) {
	var captured []error
	capture := func(err error) { captured = append(captured, err) }

	sender := &fakeSender{err: errors.New("Bad Request: chat not found")}
	notifier := NewNotifier(sender, 1, capture, nil)
	if err := notifier.Notify(context.Background(), ports.Notification{Text: "x"}); err == nil {
		t.Fatal("expected send error")
	}
	if len(captured) != 0 {
		t.Fatalf("expected validation error not to be captured, got %v", captured)
	}

	sender.err = errors.New("Too Many Requests: retry after 3 (429)")
	if err := notifier.Notify(context.Background(), ports.Notification{Text: "x"}); err == nil {
		t.Fatal("expected send error")
	}
	if len(captured) != 1 {
		t.Fatalf("expected rate limit to be captured, got %v", captured)
	}
}

func TestNotifierHonoursCancelledContext(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifier(sender, 1, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := notifier.Notify(ctx, ports.Notification{Text: "late"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled, got %v", err)
	}
}
