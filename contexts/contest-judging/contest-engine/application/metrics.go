package application

import (
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	"aquajudge/contexts/contest-judging/contest-engine/ports"
)

type noopMetrics struct{}

func (noopMetrics) ObserveTransition(entities.ContestStatus, entities.ContestStatus) {}
func (noopMetrics) ObserveScoreRecorded(entities.ScoreMode)                          {}
func (noopMetrics) ObserveFinalize(time.Duration, int)                               {}
func (noopMetrics) ObserveRejected(string, error)                                    {}

// ResolveMetrics returns a no-op sink when metrics are not wired.
func ResolveMetrics(metrics ports.Metrics) ports.Metrics {
	if metrics == nil {
		return noopMetrics{}
	}
	return metrics
}

// ObserveOutcome records err against operation when it is non-nil.
func ObserveOutcome(metrics ports.Metrics, operation string, err error) {
	if err != nil {
		ResolveMetrics(metrics).ObserveRejected(operation, err)
	}
}
