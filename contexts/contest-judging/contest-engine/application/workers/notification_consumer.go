package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "aquajudge/contexts/contest-judging/contest-engine/application"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

const defaultNotificationCG = "contest-engine-notification-cg"

// NotificationTopics are the events rendered into notifications.
var NotificationTopics = []string{
	ports.TopicContestPublished,
	ports.TopicSubmissionDecided,
	ports.TopicJudgeInvited,
	ports.TopicContestFinalized,
	ports.TopicContestCancelled,
}

type notificationPayload struct {
	ContestID    string `json:"contest_id"`
	ContestName  string `json:"contest_name"`
	SubmissionID string `json:"submission_id"`
	EntrantID    string `json:"entrant_id"`
	DisplayName  string `json:"display_name"`
	Decision     string `json:"decision"`
	Reason       string `json:"reason"`
	JudgeID      string `json:"judge_id"`
	RankedCount  int    `json:"ranked_count"`
	Podium       []struct {
		Rank        int    `json:"rank"`
		DisplayName string `json:"display_name"`
		FinalScore  string `json:"final_score"`
	} `json:"podium"`
}

// NotificationConsumer turns engine events into notifications. It runs after
// the state change committed, so a delivery failure is logged and reported
// but never undoes the change.
type NotificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Notifier      ports.Notifier
	Judges        ports.JudgeDirectory
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c NotificationConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultNotificationCG
	}
	for _, topic := range NotificationTopics {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.Handle); err != nil {
			logger.Error("notification consumer subscribe failed",
				"event", "contest_notification_subscribe_failed",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("notification consumer subscriptions active",
		"event", "contest_notification_consumer_started",
		"module", "contest-judging/contest-engine",
		"layer", "worker",
		"consumer_group", group,
		"topic_count", len(NotificationTopics),
	)
	return nil
}

func (c NotificationConsumer) Handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Dedup != nil {
		ttl := c.DedupTTL
		if ttl <= 0 {
			ttl = 7 * 24 * time.Hour
		}
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), time.Now().UTC().Add(ttl))
		if err != nil {
			return err
		}
		if alreadyProcessed {
			logger.Debug("notification replay skipped",
				"event", "contest_notification_replayed",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"event_id", event.EventID,
			)
			return nil
		}
	}

	var payload notificationPayload
	if err := json.Unmarshal(event.Data, &payload); err != nil {
		logger.Error("notification payload decode failed",
			"event", "contest_notification_decode_failed",
			"module", "contest-judging/contest-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}

	notification, ok := c.render(ctx, event.EventType, payload)
	if !ok {
		return nil
	}
	if err := c.Notifier.Notify(ctx, notification); err != nil {
		logger.Warn("notification delivery failed",
			"event", "contest_notification_delivery_failed",
			"module", "contest-judging/contest-engine",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"recipient_id", notification.RecipientID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("notification delivered",
		"event", "contest_notification_delivered",
		"module", "contest-judging/contest-engine",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"recipient_id", notification.RecipientID,
	)
	return nil
}

func (c NotificationConsumer) render(ctx context.Context, eventType string, payload notificationPayload) (ports.Notification, bool) {
	contest := payload.ContestName
	if contest == "" {
		contest = payload.ContestID
	}
	notification := ports.Notification{Topic: eventType}
	switch eventType {
	case ports.TopicContestPublished:
		notification.Text = fmt.Sprintf("Contest %q is open for entries.", contest)
	case ports.TopicSubmissionDecided:
		notification.RecipientID = payload.EntrantID
		if payload.Decision == "rejected" {
			notification.Text = fmt.Sprintf("Entry %q in %q was rejected: %s", payload.DisplayName, contest, payload.Reason)
		} else {
			notification.Text = fmt.Sprintf("Entry %q in %q was %s.", payload.DisplayName, contest, payload.Decision)
		}
	case ports.TopicJudgeInvited:
		notification.RecipientID = payload.JudgeID
		notification.Text = fmt.Sprintf("You are invited to judge %q. Please accept or decline the invitation.", contest)
		notification.ChatID = c.judgeChatID(ctx, payload.JudgeID)
	case ports.TopicContestFinalized:
		var b strings.Builder
		fmt.Fprintf(&b, "Results of %q are announced (%d ranked entries).", contest, payload.RankedCount)
		for _, place := range payload.Podium {
			fmt.Fprintf(&b, "\n%d. %s %s", place.Rank, place.DisplayName, place.FinalScore)
		}
		notification.Text = b.String()
	case ports.TopicContestCancelled:
		notification.Text = fmt.Sprintf("Contest %q was cancelled.", contest)
		if payload.Reason != "" {
			notification.Text += " Reason: " + payload.Reason
		}
	default:
		return ports.Notification{}, false
	}
	return notification, true
}

func (c NotificationConsumer) judgeChatID(ctx context.Context, judgeID string) int64 {
	if c.Judges == nil || judgeID == "" {
		return 0
	}
	profile, err := c.Judges.GetJudgeProfile(ctx, judgeID)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrJudgeNotFound) {
			application.ResolveLogger(c.Logger).Warn("judge profile lookup failed",
				"event", "contest_notification_judge_lookup_failed",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"judge_id", judgeID,
				"error", err.Error(),
			)
		}
		return 0
	}
	return profile.TelegramChatID
}
