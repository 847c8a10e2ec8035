package ports

import (
	"context"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	"aquajudge/internal/shared/events"
)

type ActorRole string

const (
	ActorRoleManager ActorRole = "manager"
	ActorRoleExpert  ActorRole = "expert"
	ActorRoleEntrant ActorRole = "entrant"
)

// Actor is the caller identity supplied by the identity provider. It is
// trusted as given.
type Actor struct {
	UserID string
	Role   ActorRole
}

func (r ActorRole) Valid() bool {
	return r == ActorRoleManager || r == ActorRoleExpert || r == ActorRoleEntrant
}

type ContestFilter struct {
	Status    entities.ContestStatus
	ManagerID string
}

type SubmissionFilter struct {
	ContestID string
	EntrantID string
	Status    entities.SubmissionStatus
}

// ContestReader serves lock-free reads.
type ContestReader interface {
	GetContest(ctx context.Context, contestID string) (entities.Contest, error)
	ListContests(ctx context.Context, filter ContestFilter) ([]entities.Contest, error)
	GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error)
	ListSubmissions(ctx context.Context, filter SubmissionFilter) ([]entities.Submission, error)
	GetAssignment(ctx context.Context, assignmentID string) (entities.JudgeAssignment, error)
	ListAssignmentsByContest(ctx context.Context, contestID string) ([]entities.JudgeAssignment, error)
	ListAssignmentsByJudge(ctx context.Context, judgeID string) ([]entities.JudgeAssignment, error)
	ListScoresBySubmission(ctx context.Context, submissionID string) ([]entities.Score, error)
	ListScoresByContest(ctx context.Context, contestID string) ([]entities.Score, error)
}

// ContestScope is the view of one contest inside its mutual-exclusion scope.
// Writes become visible to other callers only when the scope commits.
type ContestScope interface {
	Contest(ctx context.Context) (entities.Contest, error)
	UpdateContest(ctx context.Context, contest entities.Contest) error
	DeleteContest(ctx context.Context) error

	GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error)
	ListSubmissions(ctx context.Context) ([]entities.Submission, error)
	CreateSubmission(ctx context.Context, submission entities.Submission) error
	UpdateSubmission(ctx context.Context, submission entities.Submission) error

	ListAssignments(ctx context.Context) ([]entities.JudgeAssignment, error)
	CreateAssignment(ctx context.Context, assignment entities.JudgeAssignment) error
	UpdateAssignment(ctx context.Context, assignment entities.JudgeAssignment) error
	DeleteAssignment(ctx context.Context, assignmentID string) error

	ListScores(ctx context.Context) ([]entities.Score, error)
	CreateScore(ctx context.Context, score entities.Score) error

	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type ContestRepository interface {
	ContestReader
	CreateContest(ctx context.Context, contest entities.Contest, envelope EventEnvelope) error
	// WithinContest serializes fn against every other mutation of the same
	// contest. fn's writes commit atomically when it returns nil and are
	// discarded otherwise.
	WithinContest(ctx context.Context, contestID string, fn func(ctx context.Context, scope ContestScope) error) error
}

type JudgeDirectory interface {
	GetJudgeProfile(ctx context.Context, judgeID string) (entities.JudgeProfile, error)
	ListJudgeProfiles(ctx context.Context) ([]entities.JudgeProfile, error)
	UpsertJudgeProfile(ctx context.Context, profile entities.JudgeProfile) error
}

// ResultsCache stores ranked results of finalized contests.
type ResultsCache interface {
	GetResults(ctx context.Context, contestID string) ([]entities.RankedSubmission, bool, error)
	PutResults(ctx context.Context, contestID string, results []entities.RankedSubmission) error
}

// Metrics receives domain-level observations. Implementations must be safe
// for concurrent use.
type Metrics interface {
	ObserveTransition(from entities.ContestStatus, to entities.ContestStatus)
	ObserveScoreRecorded(mode entities.ScoreMode)
	ObserveFinalize(duration time.Duration, ranked int)
	ObserveRejected(operation string, err error)
}

type Notification struct {
	RecipientID string
	ChatID      int64
	Topic       string
	Text        string
}

// Notifier delivers rendered notifications. ChatID zero means the default
// announcement channel.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
