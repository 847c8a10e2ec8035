package ports

// Topics emitted by the contest engine. Every event is partitioned by contest_id.
const (
	TopicContestCreated            = "contest.created"
	TopicContestUpdated            = "contest.updated"
	TopicContestPublished          = "contest.published"
	TopicContestRegistrationClosed = "contest.registration_closed"
	TopicContestJudgingOpened      = "contest.judging_opened"
	TopicContestFinalized          = "contest.finalized"
	TopicContestCancelled          = "contest.cancelled"
	TopicSubmissionCreated         = "submission.created"
	TopicSubmissionDecided         = "submission.decided"
	TopicJudgeInvited              = "judge.invited"
	TopicJudgeResponded            = "judge.responded"
	TopicJudgeRemoved              = "judge.removed"
	TopicScoreRecorded             = "score.recorded"
)
