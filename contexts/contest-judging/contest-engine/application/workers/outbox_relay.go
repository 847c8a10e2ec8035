package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "aquajudge/contexts/contest-judging/contest-engine/application"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

// OutboxRelay publishes persisted outbox records to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending rows in creation order and
// marks each row published only after the bus accepted it. It stops on the
// first failure so the next cycle resumes from that row.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("contest outbox list failed",
			"event", "contest_outbox_list_failed",
			"module", "contest-judging/contest-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("contest outbox relay found no pending rows",
			"event", "contest_outbox_relay_noop",
			"module", "contest-judging/contest-engine",
			"layer", "worker",
			"batch_size", limit,
		)
		return nil
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("contest outbox decode failed",
				"event", "contest_outbox_decode_failed",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("contest outbox publish failed",
				"event", "contest_outbox_publish_failed",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, r.now()); err != nil {
			logger.Error("contest outbox mark published failed",
				"event", "contest_outbox_mark_published_failed",
				"module", "contest-judging/contest-engine",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("contest outbox relay cycle completed",
		"event", "contest_outbox_relay_completed",
		"module", "contest-judging/contest-engine",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}

func (r OutboxRelay) now() time.Time {
	if r.Clock != nil {
		return r.Clock.Now().UTC()
	}
	return time.Now().UTC()
}
