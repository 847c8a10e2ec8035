package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
	seq       int64
}

type dedupRecord struct {
	payloadHash string
	expiresAt   time.Time
}

type Store struct {
	mu sync.RWMutex

	contests    map[string]entities.Contest
	submissions map[string]entities.Submission
	assignments map[string]entities.JudgeAssignment
	scores      map[string]entities.Score
	judges      map[string]entities.JudgeProfile
	outbox      map[string]outboxRecord
	outboxSeq   int64
	eventDedup  map[string]dedupRecord

	locks *contestLocks
	now   func() time.Time
}

func NewStore(seed []entities.Contest) *Store {
	contests := make(map[string]entities.Contest, len(seed))
	for _, contest := range seed {
		contests[contest.ContestID] = cloneContest(contest)
	}
	return &Store{
		contests:    contests,
		submissions: make(map[string]entities.Submission),
		assignments: make(map[string]entities.JudgeAssignment),
		scores:      make(map[string]entities.Score),
		judges:      make(map[string]entities.JudgeProfile),
		outbox:      make(map[string]outboxRecord),
		eventDedup:  make(map[string]dedupRecord),
		locks:       newContestLocks(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// SetNow replaces the store clock. Tests use it to pin timestamps.
func (s *Store) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	s.now = now
}

func (s *Store) CreateContest(_ context.Context, contest entities.Contest, envelope ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	contestID := strings.TrimSpace(contest.ContestID)
	if contestID == "" {
		return fmt.Errorf("%w: contest id is empty", domainerrors.ErrConstraintViolation)
	}
	if _, exists := s.contests[contestID]; exists {
		return fmt.Errorf("%w: contest %s already exists", domainerrors.ErrConstraintViolation, contestID)
	}
	if contest.Status != entities.ContestStatusDraft {
		return fmt.Errorf("%w: contest %s must start as draft", domainerrors.ErrConstraintViolation, contestID)
	}
	if err := s.appendOutboxLocked(envelope); err != nil {
		return err
	}
	s.contests[contestID] = cloneContest(contest)
	return nil
}

func (s *Store) GetContest(_ context.Context, contestID string) (entities.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contest, ok := s.contests[strings.TrimSpace(contestID)]
	if !ok {
		return entities.Contest{}, domainerrors.ErrContestNotFound
	}
	return cloneContest(contest), nil
}

func (s *Store) ListContests(_ context.Context, filter ports.ContestFilter) ([]entities.Contest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Contest, 0, len(s.contests))
	for _, contest := range s.contests {
		if filter.Status != "" && contest.Status != filter.Status {
			continue
		}
		if filter.ManagerID != "" && contest.ManagerID != filter.ManagerID {
			continue
		}
		items = append(items, cloneContest(contest))
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ContestID < items[j].ContestID
		}
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetSubmission(_ context.Context, submissionID string) (entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	submission, ok := s.submissions[strings.TrimSpace(submissionID)]
	if !ok {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return cloneSubmission(submission), nil
}

func (s *Store) ListSubmissions(_ context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Submission, 0)
	for _, submission := range s.submissions {
		if filter.ContestID != "" && submission.ContestID != filter.ContestID {
			continue
		}
		if filter.EntrantID != "" && submission.EntrantID != filter.EntrantID {
			continue
		}
		if filter.Status != "" && submission.Status != filter.Status {
			continue
		}
		items = append(items, cloneSubmission(submission))
	}
	sortSubmissions(items)
	return items, nil
}

func (s *Store) GetAssignment(_ context.Context, assignmentID string) (entities.JudgeAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assignment, ok := s.assignments[strings.TrimSpace(assignmentID)]
	if !ok {
		return entities.JudgeAssignment{}, domainerrors.ErrAssignmentNotFound
	}
	return assignment, nil
}

func (s *Store) ListAssignmentsByContest(_ context.Context, contestID string) ([]entities.JudgeAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignmentsLocked(func(a entities.JudgeAssignment) bool {
		return a.ContestID == strings.TrimSpace(contestID)
	}), nil
}

func (s *Store) ListAssignmentsByJudge(_ context.Context, judgeID string) ([]entities.JudgeAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assignmentsLocked(func(a entities.JudgeAssignment) bool {
		return a.JudgeID == strings.TrimSpace(judgeID)
	}), nil
}

func (s *Store) ListScoresBySubmission(_ context.Context, submissionID string) ([]entities.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scoresLocked(func(score entities.Score) bool {
		return score.SubmissionID == strings.TrimSpace(submissionID)
	}), nil
}

func (s *Store) ListScoresByContest(_ context.Context, contestID string) ([]entities.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scoresLocked(func(score entities.Score) bool {
		return score.ContestID == strings.TrimSpace(contestID)
	}), nil
}

func (s *Store) assignmentsLocked(keep func(entities.JudgeAssignment) bool) []entities.JudgeAssignment {
	items := make([]entities.JudgeAssignment, 0)
	for _, assignment := range s.assignments {
		if keep(assignment) {
			items = append(items, assignment)
		}
	}
	sortAssignments(items)
	return items
}

func (s *Store) scoresLocked(keep func(entities.Score) bool) []entities.Score {
	items := make([]entities.Score, 0)
	for _, score := range s.scores {
		if keep(score) {
			items = append(items, cloneScore(score))
		}
	}
	sortScores(items)
	return items
}

// WithinContest holds the contest lock for the whole of fn. fn works on a
// private copy of the contest aggregate which replaces the shared state only
// when fn returns nil.
func (s *Store) WithinContest(
	ctx context.Context,
	contestID string,
	fn func(ctx context.Context, scope ports.ContestScope) error,
) error {
	contestID = strings.TrimSpace(contestID)
	release, err := s.locks.acquire(ctx, contestID)
	if err != nil {
		return err
	}
	defer release()

	scope, err := s.openScope(contestID)
	if err != nil {
		return err
	}
	if err := fn(ctx, scope); err != nil {
		return err
	}
	return s.commit(scope)
}

func (s *Store) openScope(contestID string) (*contestScope, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	contest, ok := s.contests[contestID]
	if !ok {
		return nil, domainerrors.ErrContestNotFound
	}
	scope := &contestScope{
		contest:     cloneContest(contest),
		submissions: make(map[string]entities.Submission),
		assignments: make(map[string]entities.JudgeAssignment),
		scores:      make(map[string]entities.Score),
		removed:     make(map[string]struct{}),
	}
	for id, submission := range s.submissions {
		if submission.ContestID == contestID {
			scope.submissions[id] = cloneSubmission(submission)
		}
	}
	for id, assignment := range s.assignments {
		if assignment.ContestID == contestID {
			scope.assignments[id] = assignment
		}
	}
	for id, score := range s.scores {
		if score.ContestID == contestID {
			scope.scores[id] = cloneScore(score)
		}
	}
	return scope, nil
}

func (s *Store) commit(scope *contestScope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	scope.closed = true
	contestID := scope.contest.ContestID
	for _, envelope := range scope.outbox {
		if err := s.appendOutboxLocked(envelope); err != nil {
			return err
		}
	}
	if scope.deleted {
		delete(s.contests, contestID)
		for id, assignment := range s.assignments {
			if assignment.ContestID == contestID {
				delete(s.assignments, id)
			}
		}
		return nil
	}
	s.contests[contestID] = scope.contest
	for id, submission := range scope.submissions {
		s.submissions[id] = submission
	}
	for id := range scope.removed {
		delete(s.assignments, id)
	}
	for id, assignment := range scope.assignments {
		s.assignments[id] = assignment
	}
	for id, score := range scope.scores {
		s.scores[id] = score
	}
	return nil
}

func (s *Store) GetJudgeProfile(_ context.Context, judgeID string) (entities.JudgeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.judges[strings.TrimSpace(judgeID)]
	if !ok {
		return entities.JudgeProfile{}, domainerrors.ErrJudgeNotFound
	}
	return cloneProfile(profile), nil
}

func (s *Store) ListJudgeProfiles(_ context.Context) ([]entities.JudgeProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.JudgeProfile, 0, len(s.judges))
	for _, profile := range s.judges {
		items = append(items, cloneProfile(profile))
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].JudgeID < items[j].JudgeID
	})
	return items, nil
}

func (s *Store) UpsertJudgeProfile(_ context.Context, profile entities.JudgeProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	judgeID := strings.TrimSpace(profile.JudgeID)
	if judgeID == "" {
		return fmt.Errorf("%w: judge id is empty", domainerrors.ErrConstraintViolation)
	}
	s.judges[judgeID] = cloneProfile(profile)
	return nil
}

func (s *Store) appendOutboxLocked(envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	outboxID := strings.TrimSpace(envelope.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	if existing, ok := s.outbox[outboxID]; ok {
		if !bytes.Equal(existing.message.Payload, payload) {
			return fmt.Errorf("%w: outbox event %s reused", domainerrors.ErrConstraintViolation, outboxID)
		}
		return nil
	}
	createdAt := envelope.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = s.now()
	}
	s.outboxSeq++
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(envelope.EventType),
			PartitionKey: strings.TrimSpace(envelope.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
		seq: s.outboxSeq,
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows := make([]outboxRecord, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		return rows[i].seq < rows[j].seq
	})
	if len(rows) > limit {
		rows = rows[:limit]
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.message)
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return fmt.Errorf("%w: outbox row %s not found", domainerrors.ErrConstraintViolation, outboxID)
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.TrimSpace(eventID)
	existing, ok := s.eventDedup[key]
	if ok {
		if !existing.expiresAt.IsZero() && s.now().After(existing.expiresAt.UTC()) {
			delete(s.eventDedup, key)
		} else {
			if existing.payloadHash != strings.TrimSpace(payloadHash) {
				return false, fmt.Errorf("%w: event %s replayed with different payload", domainerrors.ErrConstraintViolation, key)
			}
			return true, nil
		}
	}

	s.eventDedup[key] = dedupRecord{
		payloadHash: strings.TrimSpace(payloadHash),
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

type contestScope struct {
	contest     entities.Contest
	submissions map[string]entities.Submission
	assignments map[string]entities.JudgeAssignment
	scores      map[string]entities.Score
	removed     map[string]struct{}
	outbox      []ports.EventEnvelope
	deleted     bool
	closed      bool
}

func (c *contestScope) usable() error {
	if c.closed {
		return fmt.Errorf("%w: contest scope already committed", domainerrors.ErrConstraintViolation)
	}
	if c.deleted {
		return domainerrors.ErrContestNotFound
	}
	return nil
}

func (c *contestScope) Contest(_ context.Context) (entities.Contest, error) {
	if err := c.usable(); err != nil {
		return entities.Contest{}, err
	}
	return cloneContest(c.contest), nil
}

func (c *contestScope) UpdateContest(_ context.Context, contest entities.Contest) error {
	if err := c.usable(); err != nil {
		return err
	}
	if err := entities.CheckContestUpdate(c.contest, contest); err != nil {
		return err
	}
	c.contest = cloneContest(contest)
	return nil
}

func (c *contestScope) DeleteContest(_ context.Context) error {
	if err := c.usable(); err != nil {
		return err
	}
	if err := entities.CheckContestDelete(c.contest, len(c.submissions)); err != nil {
		return err
	}
	c.deleted = true
	return nil
}

func (c *contestScope) GetSubmission(_ context.Context, submissionID string) (entities.Submission, error) {
	if err := c.usable(); err != nil {
		return entities.Submission{}, err
	}
	submission, ok := c.submissions[strings.TrimSpace(submissionID)]
	if !ok {
		return entities.Submission{}, domainerrors.ErrSubmissionNotFound
	}
	return cloneSubmission(submission), nil
}

func (c *contestScope) ListSubmissions(_ context.Context) ([]entities.Submission, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	items := make([]entities.Submission, 0, len(c.submissions))
	for _, submission := range c.submissions {
		items = append(items, cloneSubmission(submission))
	}
	sortSubmissions(items)
	return items, nil
}

func (c *contestScope) CreateSubmission(_ context.Context, submission entities.Submission) error {
	if err := c.usable(); err != nil {
		return err
	}
	if _, exists := c.submissions[submission.SubmissionID]; exists || strings.TrimSpace(submission.SubmissionID) == "" {
		return fmt.Errorf("%w: submission id %q unavailable", domainerrors.ErrConstraintViolation, submission.SubmissionID)
	}
	if err := entities.CheckNewSubmission(c.contest, submission); err != nil {
		return err
	}
	c.submissions[submission.SubmissionID] = cloneSubmission(submission)
	return nil
}

func (c *contestScope) UpdateSubmission(_ context.Context, submission entities.Submission) error {
	if err := c.usable(); err != nil {
		return err
	}
	prev, ok := c.submissions[submission.SubmissionID]
	if !ok {
		return domainerrors.ErrSubmissionNotFound
	}
	if err := entities.CheckSubmissionUpdate(c.contest, prev, submission); err != nil {
		return err
	}
	c.submissions[submission.SubmissionID] = cloneSubmission(submission)
	return nil
}

func (c *contestScope) ListAssignments(_ context.Context) ([]entities.JudgeAssignment, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	return c.assignmentList(), nil
}

func (c *contestScope) assignmentList() []entities.JudgeAssignment {
	items := make([]entities.JudgeAssignment, 0, len(c.assignments))
	for _, assignment := range c.assignments {
		items = append(items, assignment)
	}
	sortAssignments(items)
	return items
}

func (c *contestScope) CreateAssignment(_ context.Context, assignment entities.JudgeAssignment) error {
	if err := c.usable(); err != nil {
		return err
	}
	if _, exists := c.assignments[assignment.AssignmentID]; exists || strings.TrimSpace(assignment.AssignmentID) == "" {
		return fmt.Errorf("%w: assignment id %q unavailable", domainerrors.ErrConstraintViolation, assignment.AssignmentID)
	}
	if err := entities.CheckAssignmentWrite(c.contest, c.assignmentList(), assignment); err != nil {
		return err
	}
	c.assignments[assignment.AssignmentID] = assignment
	delete(c.removed, assignment.AssignmentID)
	return nil
}

func (c *contestScope) UpdateAssignment(_ context.Context, assignment entities.JudgeAssignment) error {
	if err := c.usable(); err != nil {
		return err
	}
	prev, ok := c.assignments[assignment.AssignmentID]
	if !ok {
		return domainerrors.ErrAssignmentNotFound
	}
	if prev.JudgeID != assignment.JudgeID {
		return fmt.Errorf("%w: assignment %s judge is immutable", domainerrors.ErrConstraintViolation, prev.AssignmentID)
	}
	if err := entities.CheckAssignmentWrite(c.contest, c.assignmentList(), assignment); err != nil {
		return err
	}
	c.assignments[assignment.AssignmentID] = assignment
	return nil
}

func (c *contestScope) DeleteAssignment(_ context.Context, assignmentID string) error {
	if err := c.usable(); err != nil {
		return err
	}
	assignment, ok := c.assignments[strings.TrimSpace(assignmentID)]
	if !ok {
		return domainerrors.ErrAssignmentNotFound
	}
	if err := entities.CheckAssignmentDelete(c.contest, assignment); err != nil {
		return err
	}
	delete(c.assignments, assignment.AssignmentID)
	c.removed[assignment.AssignmentID] = struct{}{}
	return nil
}

func (c *contestScope) ListScores(_ context.Context) ([]entities.Score, error) {
	if err := c.usable(); err != nil {
		return nil, err
	}
	items := make([]entities.Score, 0, len(c.scores))
	for _, score := range c.scores {
		items = append(items, cloneScore(score))
	}
	sortScores(items)
	return items, nil
}

func (c *contestScope) CreateScore(_ context.Context, score entities.Score) error {
	if err := c.usable(); err != nil {
		return err
	}
	if _, exists := c.scores[score.ScoreID]; exists || strings.TrimSpace(score.ScoreID) == "" {
		return fmt.Errorf("%w: score id %q unavailable", domainerrors.ErrConstraintViolation, score.ScoreID)
	}
	submission, ok := c.submissions[score.SubmissionID]
	if !ok {
		return domainerrors.ErrSubmissionNotFound
	}
	existing := make([]entities.Score, 0, len(c.scores))
	for _, current := range c.scores {
		existing = append(existing, current)
	}
	if err := entities.CheckNewScore(c.contest, submission, c.assignmentList(), existing, score); err != nil {
		return err
	}
	c.scores[score.ScoreID] = cloneScore(score)
	return nil
}

func (c *contestScope) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	if c.closed {
		return fmt.Errorf("%w: contest scope already committed", domainerrors.ErrConstraintViolation)
	}
	c.outbox = append(c.outbox, envelope)
	return nil
}

// contestLocks is a keyed mutex. Entries are dropped once no caller holds
// or waits for them.
type contestLocks struct {
	mu    sync.Mutex
	locks map[string]*contestLock
}

type contestLock struct {
	ch   chan struct{}
	refs int
}

func newContestLocks() *contestLocks {
	return &contestLocks{locks: make(map[string]*contestLock)}
}

func (l *contestLocks) acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[key]
	if !ok {
		lock = &contestLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lock
	}
	lock.refs++
	l.mu.Unlock()

	select {
	case lock.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, lock)
		return nil, ctx.Err()
	}
	return func() {
		<-lock.ch
		l.unref(key, lock)
	}, nil
}

func (l *contestLocks) unref(key string, lock *contestLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, key)
	}
}

func cloneContest(contest entities.Contest) entities.Contest {
	contest.AllowedSubCategories = append([]string(nil), contest.AllowedSubCategories...)
	contest.PublishedAt = cloneTime(contest.PublishedAt)
	contest.FinalizedAt = cloneTime(contest.FinalizedAt)
	contest.CancelledAt = cloneTime(contest.CancelledAt)
	return contest
}

func cloneSubmission(submission entities.Submission) entities.Submission {
	submission.MediaRefs = append([]string(nil), submission.MediaRefs...)
	if submission.FinalScore != nil {
		value := *submission.FinalScore
		submission.FinalScore = &value
	}
	submission.DecidedAt = cloneTime(submission.DecidedAt)
	return submission
}

func cloneScore(score entities.Score) entities.Score {
	if score.Criteria != nil {
		criteria := make(map[string]decimal.Decimal, len(score.Criteria))
		for name, value := range score.Criteria {
			criteria[name] = value
		}
		score.Criteria = criteria
	}
	return score
}

func cloneProfile(profile entities.JudgeProfile) entities.JudgeProfile {
	profile.Specialties = append([]string(nil), profile.Specialties...)
	return profile
}

func cloneTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	copied := *value
	return &copied
}

func sortSubmissions(items []entities.Submission) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].SubmittedAt.Equal(items[j].SubmittedAt) {
			return items[i].SubmissionID < items[j].SubmissionID
		}
		return items[i].SubmittedAt.Before(items[j].SubmittedAt)
	})
}

func sortAssignments(items []entities.JudgeAssignment) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].InvitedAt.Equal(items[j].InvitedAt) {
			return items[i].AssignmentID < items[j].AssignmentID
		}
		return items[i].InvitedAt.Before(items[j].InvitedAt)
	})
}

func sortScores(items []entities.Score) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].RecordedAt.Equal(items[j].RecordedAt) {
			return items[i].ScoreID < items[j].ScoreID
		}
		return items[i].RecordedAt.Before(items[j].RecordedAt)
	})
}

var (
	_ ports.ContestRepository = (*Store)(nil)
	_ ports.JudgeDirectory    = (*Store)(nil)
	_ ports.OutboxRepository  = (*Store)(nil)
	_ ports.EventDedupStore   = (*Store)(nil)
	_ ports.Clock             = (*Store)(nil)
	_ ports.IDGenerator       = (*Store)(nil)
)
