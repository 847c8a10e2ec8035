package commands

import (
	"encoding/json"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

const sourceService = "contest-engine"

func newContestEnvelope(
	eventID string,
	eventType string,
	contestID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// All engine events are partitioned by contest so consumers observe one
	// contest's lifecycle in commit order.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    sourceService,
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "contest_id",
		PartitionKey:     contestID,
		Data:             payload,
	}, nil
}
