package metrics

import (
	"fmt"
	"testing"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestContestMetricsCountTransitionsAndRejections(t *testing.T) {
	before := testutil.ToFloat64(ContestTransitions.WithLabelValues("judging", "finalized"))
	Contest{}.ObserveTransition(entities.ContestStatusJudging, entities.ContestStatusFinalized)
	if got := testutil.ToFloat64(ContestTransitions.WithLabelValues("judging", "finalized")); got != before+1 {
		t.Fatalf("expected transition counter %v, got %v", before+1, got)
	}

	wrapped := fmt.Errorf("%w: judge j1", domainerrors.ErrQuotaExceeded)
	before = testutil.ToFloat64(RejectedOperations.WithLabelValues("invite_judge", "quota_exceeded"))
	Contest{}.ObserveRejected("invite_judge", wrapped)
	if got := testutil.ToFloat64(RejectedOperations.WithLabelValues("invite_judge", "quota_exceeded")); got != before+1 {
		t.Fatalf("expected rejected counter %v, got %v", before+1, got)
	}
}

func TestObserveJobCountsErrors(t *testing.T) {
	runs := testutil.ToFloat64(jobRuns.WithLabelValues("test_job"))
	errs := testutil.ToFloat64(jobErrors.WithLabelValues("test_job"))

	ObserveJob("test_job", time.Now(), nil)
	ObserveJob("test_job", time.Now(), fmt.Errorf("boom"))

	if got := testutil.ToFloat64(jobRuns.WithLabelValues("test_job")); got != runs+2 {
		t.Fatalf("expected %v runs, got %v", runs+2, got)
	}
	if got := testutil.ToFloat64(jobErrors.WithLabelValues("test_job")); got != errs+1 {
		t.Fatalf("expected %v errors, got %v", errs+1, got)
	}
}

func TestErrorKindFallsBackToInternal(t *testing.T) {
	if got := ErrorKind(fmt.Errorf("socket closed")); got != "internal" {
		t.Fatalf("expected internal, got %s", got)
	}
	if got := ErrorKind(nil); got != "none" {
		t.Fatalf("expected none, got %s", got)
	}
}
