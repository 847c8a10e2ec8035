package entities

import (
	"fmt"

	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
)

// The Check* functions are the store-level guards shared by every repository
// adapter. They run against the state visible inside the contest scope.

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{domainerrors.ErrConstraintViolation}, args...)...)
}

func CheckContestUpdate(prev Contest, next Contest) error {
	if prev.IsTerminal() {
		return violation("contest %s is %s", prev.ContestID, prev.Status)
	}
	if next.ContestID != prev.ContestID || next.ManagerID != prev.ManagerID || next.Category != prev.Category {
		return violation("contest %s identity fields are immutable", prev.ContestID)
	}
	if next.Status != prev.Status && !CanTransition(prev.Status, next.Status) {
		return violation("contest %s cannot move %s -> %s", prev.ContestID, prev.Status, next.Status)
	}
	return nil
}

func CheckContestDelete(contest Contest, submissionCount int) error {
	if contest.Status != ContestStatusDraft {
		return violation("contest %s is %s, only drafts can be deleted", contest.ContestID, contest.Status)
	}
	if submissionCount > 0 {
		return violation("contest %s is referenced by %d submissions", contest.ContestID, submissionCount)
	}
	return nil
}

func CheckNewSubmission(contest Contest, submission Submission) error {
	if submission.ContestID != contest.ContestID {
		return violation("submission %s belongs to contest %s", submission.SubmissionID, submission.ContestID)
	}
	if contest.Status != ContestStatusOngoing {
		return violation("contest %s is %s, submissions require ongoing", contest.ContestID, contest.Status)
	}
	if submission.Status != SubmissionStatusPending {
		return violation("submission %s must start pending", submission.SubmissionID)
	}
	return nil
}

func CheckSubmissionUpdate(contest Contest, prev Submission, next Submission) error {
	if contest.IsTerminal() {
		return violation("contest %s is %s", contest.ContestID, contest.Status)
	}
	if next.SubmissionID != prev.SubmissionID || next.ContestID != prev.ContestID || next.EntrantID != prev.EntrantID {
		return violation("submission %s identity fields are immutable", prev.SubmissionID)
	}
	if next.Status != prev.Status && !CanDecide(prev.Status, next.Status) {
		return violation("submission %s cannot move %s -> %s", prev.SubmissionID, prev.Status, next.Status)
	}
	if next.Status == SubmissionStatusRejected && next.RejectionReason == "" {
		return violation("submission %s rejected without reason", prev.SubmissionID)
	}
	switch {
	case prev.FinalScore != nil:
		if next.FinalScore == nil || !next.FinalScore.Equal(*prev.FinalScore) {
			return violation("submission %s final score already set", prev.SubmissionID)
		}
	case next.FinalScore != nil:
		if contest.Status != ContestStatusJudging {
			return violation("submission %s final score outside finalize", prev.SubmissionID)
		}
		if !next.IsApproved() {
			return violation("submission %s is %s, only approved submissions are scored", prev.SubmissionID, next.Status)
		}
		if !TotalInRange(*next.FinalScore) {
			return fmt.Errorf("%w: submission %s final score %s", domainerrors.ErrOutOfRange, prev.SubmissionID, next.FinalScore.String())
		}
	}
	return nil
}

// CheckAssignmentWrite validates a created or updated assignment against the
// other assignments of the same contest.
func CheckAssignmentWrite(contest Contest, existing []JudgeAssignment, next JudgeAssignment) error {
	if contest.IsTerminal() {
		return violation("contest %s is %s", contest.ContestID, contest.Status)
	}
	if next.ContestID != contest.ContestID {
		return violation("assignment %s belongs to contest %s", next.AssignmentID, next.ContestID)
	}
	if !next.Status.Valid() {
		return violation("assignment %s has unknown status %q", next.AssignmentID, next.Status)
	}
	active := 0
	for _, assignment := range existing {
		if assignment.AssignmentID == next.AssignmentID {
			continue
		}
		if assignment.JudgeID == next.JudgeID {
			return fmt.Errorf("%w: judge %s in contest %s", domainerrors.ErrAlreadyAssigned, next.JudgeID, contest.ContestID)
		}
		if assignment.Status.IsActive() {
			active++
		}
	}
	if next.Status.IsActive() && active+1 > contest.EffectiveJudgeQuota() {
		return fmt.Errorf("%w: contest %s holds %d active judges", domainerrors.ErrQuotaExceeded, contest.ContestID, active)
	}
	return nil
}

func CheckAssignmentDelete(contest Contest, assignment JudgeAssignment) error {
	if contest.AssignmentsLocked() {
		return violation("contest %s is %s, assignments are locked", contest.ContestID, contest.Status)
	}
	return nil
}

func CheckNewScore(
	contest Contest,
	submission Submission,
	assignments []JudgeAssignment,
	existing []Score,
	score Score,
) error {
	if contest.Status != ContestStatusJudging {
		return violation("contest %s is %s, scores require judging", contest.ContestID, contest.Status)
	}
	if submission.ContestID != contest.ContestID || score.ContestID != contest.ContestID || score.SubmissionID != submission.SubmissionID {
		return violation("score %s does not match submission %s", score.ScoreID, submission.SubmissionID)
	}
	if !submission.IsApproved() {
		return violation("submission %s is %s", submission.SubmissionID, submission.Status)
	}
	accepted := false
	for _, assignment := range assignments {
		if assignment.JudgeID == score.JudgeID && assignment.Status == AssignmentStatusAccepted {
			accepted = true
			break
		}
	}
	if !accepted {
		return violation("judge %s holds no accepted assignment in contest %s", score.JudgeID, contest.ContestID)
	}
	for _, current := range existing {
		if current.SubmissionID == score.SubmissionID && current.JudgeID == score.JudgeID {
			return fmt.Errorf("%w: submission %s judge %s", domainerrors.ErrDuplicateScore, score.SubmissionID, score.JudgeID)
		}
	}
	if !score.Mode.Valid() {
		return violation("score %s has unknown mode %q", score.ScoreID, score.Mode)
	}
	if !TotalInRange(score.Total) {
		return fmt.Errorf("%w: total %s", domainerrors.ErrOutOfRange, score.Total.String())
	}
	if !HasScorePrecision(score.Total) {
		return violation("score %s total %s exceeds %d decimal places", score.ScoreID, score.Total.String(), ScorePlaces)
	}
	return nil
}
