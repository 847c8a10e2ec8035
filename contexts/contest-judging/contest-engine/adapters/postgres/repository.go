package postgresadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"aquajudge/contexts/contest-judging/contest-engine/domain/entities"
	domainerrors "aquajudge/contexts/contest-judging/contest-engine/domain/errors"
	"aquajudge/contexts/contest-judging/contest-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateContest(ctx context.Context, contest entities.Contest, envelope ports.EventEnvelope) error {
	if contest.Status != entities.ContestStatusDraft {
		return fmt.Errorf("%w: contest %s must start as draft", domainerrors.ErrConstraintViolation, contest.ContestID)
	}
	row, err := contestModelFromEntity(contest)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w: contest %s already exists", domainerrors.ErrConstraintViolation, row.ContestID)
			}
			return r.logError("contest_repo_create_contest_failed", err, "contest_id", row.ContestID)
		}
		return r.appendOutbox(tx, envelope)
	})
	return err
}

func (r *Repository) GetContest(ctx context.Context, contestID string) (entities.Contest, error) {
	var row contestModel
	err := r.db.WithContext(ctx).
		Where("contest_id = ?", strings.TrimSpace(contestID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Contest{}, domainerrors.ErrContestNotFound
		}
		return entities.Contest{}, r.logError("contest_repo_get_contest_failed", err, "contest_id", strings.TrimSpace(contestID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListContests(ctx context.Context, filter ports.ContestFilter) ([]entities.Contest, error) {
	tx := r.db.WithContext(ctx).Model(&contestModel{})
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	if strings.TrimSpace(filter.ManagerID) != "" {
		tx = tx.Where("manager_id = ?", strings.TrimSpace(filter.ManagerID))
	}
	var rows []contestModel
	if err := tx.Order("created_at ASC, contest_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_contests_failed", err, "status", string(filter.Status))
	}
	items := make([]entities.Contest, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetSubmission(ctx context.Context, submissionID string) (entities.Submission, error) {
	return r.getSubmission(r.db.WithContext(ctx), "", submissionID)
}

func (r *Repository) getSubmission(tx *gorm.DB, contestID string, submissionID string) (entities.Submission, error) {
	query := tx.Where("submission_id = ?", strings.TrimSpace(submissionID))
	if contestID != "" {
		query = query.Where("contest_id = ?", contestID)
	}
	var row submissionModel
	if err := query.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Submission{}, domainerrors.ErrSubmissionNotFound
		}
		return entities.Submission{}, r.logError("contest_repo_get_submission_failed", err,
			"submission_id", strings.TrimSpace(submissionID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListSubmissions(ctx context.Context, filter ports.SubmissionFilter) ([]entities.Submission, error) {
	tx := r.db.WithContext(ctx).Model(&submissionModel{})
	if strings.TrimSpace(filter.ContestID) != "" {
		tx = tx.Where("contest_id = ?", strings.TrimSpace(filter.ContestID))
	}
	if strings.TrimSpace(filter.EntrantID) != "" {
		tx = tx.Where("entrant_id = ?", strings.TrimSpace(filter.EntrantID))
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", string(filter.Status))
	}
	return r.findSubmissions(tx)
}

func (r *Repository) findSubmissions(tx *gorm.DB) ([]entities.Submission, error) {
	var rows []submissionModel
	if err := tx.Order("submitted_at ASC, submission_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_submissions_failed", err)
	}
	items := make([]entities.Submission, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetAssignment(ctx context.Context, assignmentID string) (entities.JudgeAssignment, error) {
	var row assignmentModel
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", strings.TrimSpace(assignmentID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.JudgeAssignment{}, domainerrors.ErrAssignmentNotFound
		}
		return entities.JudgeAssignment{}, r.logError("contest_repo_get_assignment_failed", err,
			"assignment_id", strings.TrimSpace(assignmentID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListAssignmentsByContest(ctx context.Context, contestID string) ([]entities.JudgeAssignment, error) {
	return r.findAssignments(r.db.WithContext(ctx).Where("contest_id = ?", strings.TrimSpace(contestID)))
}

func (r *Repository) ListAssignmentsByJudge(ctx context.Context, judgeID string) ([]entities.JudgeAssignment, error) {
	return r.findAssignments(r.db.WithContext(ctx).Where("judge_id = ?", strings.TrimSpace(judgeID)))
}

func (r *Repository) findAssignments(tx *gorm.DB) ([]entities.JudgeAssignment, error) {
	var rows []assignmentModel
	if err := tx.Order("invited_at ASC, assignment_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_assignments_failed", err)
	}
	items := make([]entities.JudgeAssignment, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListScoresBySubmission(ctx context.Context, submissionID string) ([]entities.Score, error) {
	return r.findScores(r.db.WithContext(ctx).Where("submission_id = ?", strings.TrimSpace(submissionID)))
}

func (r *Repository) ListScoresByContest(ctx context.Context, contestID string) ([]entities.Score, error) {
	return r.findScores(r.db.WithContext(ctx).Where("contest_id = ?", strings.TrimSpace(contestID)))
}

func (r *Repository) findScores(tx *gorm.DB) ([]entities.Score, error) {
	var rows []scoreModel
	if err := tx.Order("recorded_at ASC, score_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_scores_failed", err)
	}
	items := make([]entities.Score, 0, len(rows))
	for _, row := range rows {
		item, err := row.toEntity()
		if err != nil {
			return nil, r.logError("contest_repo_decode_score_failed", err, "score_id", row.ScoreID)
		}
		items = append(items, item)
	}
	return items, nil
}

// WithinContest runs fn in one transaction holding a row lock on the contest.
// Every mutation of a contest goes through here, so the lock serializes them.
func (r *Repository) WithinContest(
	ctx context.Context,
	contestID string,
	fn func(ctx context.Context, scope ports.ContestScope) error,
) error {
	contestID = strings.TrimSpace(contestID)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row contestModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("contest_id = ?", contestID).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrContestNotFound
			}
			return r.logError("contest_repo_lock_contest_failed", err, "contest_id", contestID)
		}
		return fn(ctx, &contestScope{repo: r, tx: tx, contest: row.toEntity()})
	})
}

type contestScope struct {
	repo    *Repository
	tx      *gorm.DB
	contest entities.Contest
	deleted bool
}

func (s *contestScope) Contest(_ context.Context) (entities.Contest, error) {
	if s.deleted {
		return entities.Contest{}, domainerrors.ErrContestNotFound
	}
	return s.contest, nil
}

func (s *contestScope) UpdateContest(_ context.Context, contest entities.Contest) error {
	if err := entities.CheckContestUpdate(s.contest, contest); err != nil {
		return err
	}
	row, err := contestModelFromEntity(contest)
	if err != nil {
		return err
	}
	if err := s.tx.Save(&row).Error; err != nil {
		return s.repo.logError("contest_repo_update_contest_failed", err, "contest_id", row.ContestID)
	}
	s.contest = contest
	return nil
}

func (s *contestScope) DeleteContest(_ context.Context) error {
	var submissions int64
	if err := s.tx.Model(&submissionModel{}).Where("contest_id = ?", s.contest.ContestID).Count(&submissions).Error; err != nil {
		return s.repo.logError("contest_repo_count_submissions_failed", err, "contest_id", s.contest.ContestID)
	}
	if err := entities.CheckContestDelete(s.contest, int(submissions)); err != nil {
		return err
	}
	if err := s.tx.Where("contest_id = ?", s.contest.ContestID).Delete(&assignmentModel{}).Error; err != nil {
		return s.repo.logError("contest_repo_delete_assignments_failed", err, "contest_id", s.contest.ContestID)
	}
	if err := s.tx.Where("contest_id = ?", s.contest.ContestID).Delete(&contestModel{}).Error; err != nil {
		return s.repo.logError("contest_repo_delete_contest_failed", err, "contest_id", s.contest.ContestID)
	}
	s.deleted = true
	return nil
}

func (s *contestScope) GetSubmission(_ context.Context, submissionID string) (entities.Submission, error) {
	return s.repo.getSubmission(s.tx, s.contest.ContestID, submissionID)
}

func (s *contestScope) ListSubmissions(_ context.Context) ([]entities.Submission, error) {
	return s.repo.findSubmissions(s.tx.Model(&submissionModel{}).Where("contest_id = ?", s.contest.ContestID))
}

func (s *contestScope) CreateSubmission(_ context.Context, submission entities.Submission) error {
	if err := entities.CheckNewSubmission(s.contest, submission); err != nil {
		return err
	}
	row, err := submissionModelFromEntity(submission)
	if err != nil {
		return err
	}
	if err := s.tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: submission %s already exists", domainerrors.ErrConstraintViolation, row.SubmissionID)
		}
		return s.repo.logError("contest_repo_create_submission_failed", err, "submission_id", row.SubmissionID)
	}
	return nil
}

func (s *contestScope) UpdateSubmission(ctx context.Context, submission entities.Submission) error {
	prev, err := s.GetSubmission(ctx, submission.SubmissionID)
	if err != nil {
		return err
	}
	if err := entities.CheckSubmissionUpdate(s.contest, prev, submission); err != nil {
		return err
	}
	row, err := submissionModelFromEntity(submission)
	if err != nil {
		return err
	}
	if err := s.tx.Save(&row).Error; err != nil {
		return s.repo.logError("contest_repo_update_submission_failed", err, "submission_id", row.SubmissionID)
	}
	return nil
}

func (s *contestScope) ListAssignments(_ context.Context) ([]entities.JudgeAssignment, error) {
	return s.repo.findAssignments(s.tx.Where("contest_id = ?", s.contest.ContestID))
}

func (s *contestScope) CreateAssignment(ctx context.Context, assignment entities.JudgeAssignment) error {
	existing, err := s.ListAssignments(ctx)
	if err != nil {
		return err
	}
	if err := entities.CheckAssignmentWrite(s.contest, existing, assignment); err != nil {
		return err
	}
	row := assignmentModelFromEntity(assignment)
	if err := s.tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: judge %s in contest %s", domainerrors.ErrAlreadyAssigned, row.JudgeID, row.ContestID)
		}
		return s.repo.logError("contest_repo_create_assignment_failed", err, "assignment_id", row.AssignmentID)
	}
	return nil
}

func (s *contestScope) UpdateAssignment(ctx context.Context, assignment entities.JudgeAssignment) error {
	existing, err := s.ListAssignments(ctx)
	if err != nil {
		return err
	}
	prev, ok := findAssignment(existing, assignment.AssignmentID)
	if !ok {
		return domainerrors.ErrAssignmentNotFound
	}
	if prev.JudgeID != assignment.JudgeID {
		return fmt.Errorf("%w: assignment %s judge is immutable", domainerrors.ErrConstraintViolation, prev.AssignmentID)
	}
	if err := entities.CheckAssignmentWrite(s.contest, existing, assignment); err != nil {
		return err
	}
	row := assignmentModelFromEntity(assignment)
	if err := s.tx.Save(&row).Error; err != nil {
		return s.repo.logError("contest_repo_update_assignment_failed", err, "assignment_id", row.AssignmentID)
	}
	return nil
}

func (s *contestScope) DeleteAssignment(ctx context.Context, assignmentID string) error {
	existing, err := s.ListAssignments(ctx)
	if err != nil {
		return err
	}
	assignment, ok := findAssignment(existing, strings.TrimSpace(assignmentID))
	if !ok {
		return domainerrors.ErrAssignmentNotFound
	}
	if err := entities.CheckAssignmentDelete(s.contest, assignment); err != nil {
		return err
	}
	if err := s.tx.Where("assignment_id = ?", assignment.AssignmentID).Delete(&assignmentModel{}).Error; err != nil {
		return s.repo.logError("contest_repo_delete_assignment_failed", err, "assignment_id", assignment.AssignmentID)
	}
	return nil
}

func (s *contestScope) ListScores(_ context.Context) ([]entities.Score, error) {
	return s.repo.findScores(s.tx.Where("contest_id = ?", s.contest.ContestID))
}

func (s *contestScope) CreateScore(ctx context.Context, score entities.Score) error {
	submission, err := s.GetSubmission(ctx, score.SubmissionID)
	if err != nil {
		return err
	}
	assignments, err := s.ListAssignments(ctx)
	if err != nil {
		return err
	}
	existing, err := s.repo.findScores(s.tx.Where("submission_id = ?", submission.SubmissionID))
	if err != nil {
		return err
	}
	if err := entities.CheckNewScore(s.contest, submission, assignments, existing, score); err != nil {
		return err
	}
	row, err := scoreModelFromEntity(score)
	if err != nil {
		return err
	}
	if err := s.tx.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: submission %s judge %s", domainerrors.ErrDuplicateScore, row.SubmissionID, row.JudgeID)
		}
		return s.repo.logError("contest_repo_create_score_failed", err, "score_id", row.ScoreID)
	}
	return nil
}

func (s *contestScope) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	return s.repo.appendOutbox(s.tx, envelope)
}

func (r *Repository) GetJudgeProfile(ctx context.Context, judgeID string) (entities.JudgeProfile, error) {
	var row judgeProfileModel
	err := r.db.WithContext(ctx).
		Where("judge_id = ?", strings.TrimSpace(judgeID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.JudgeProfile{}, domainerrors.ErrJudgeNotFound
		}
		return entities.JudgeProfile{}, r.logError("contest_repo_get_judge_failed", err, "judge_id", strings.TrimSpace(judgeID))
	}
	return row.toEntity(), nil
}

func (r *Repository) ListJudgeProfiles(ctx context.Context) ([]entities.JudgeProfile, error) {
	var rows []judgeProfileModel
	if err := r.db.WithContext(ctx).Order("judge_id ASC").Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_judges_failed", err)
	}
	items := make([]entities.JudgeProfile, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertJudgeProfile(ctx context.Context, profile entities.JudgeProfile) error {
	row, err := judgeProfileModelFromEntity(profile)
	if err != nil {
		return err
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "judge_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"display_name":     row.DisplayName,
			"specialties":      row.Specialties,
			"telegram_chat_id": row.TelegramChatID,
			"updated_at":       row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("contest_repo_upsert_judge_failed", create.Error, "judge_id", row.JudgeID)
	}
	return nil
}

func (r *Repository) appendOutbox(tx *gorm.DB, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("contest_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("contest_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	if create.RowsAffected > 0 {
		return nil
	}
	var existing outboxModel
	if err := tx.Select("payload").
		Where("outbox_id = ?", row.OutboxID).
		First(&existing).Error; err != nil {
		return r.logError("contest_repo_append_outbox_load_existing_failed", err,
			"outbox_id", row.OutboxID,
		)
	}
	if !bytes.Equal(existing.Payload, row.Payload) {
		return fmt.Errorf("%w: outbox event %s reused", domainerrors.ErrConstraintViolation, row.OutboxID)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("seq ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("contest_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("contest_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: outbox row %s not found", domainerrors.ErrConstraintViolation, outboxID)
	}
	return nil
}

func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	now := time.Now().UTC()
	row := eventDedupModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: strings.TrimSpace(payloadHash),
		ExpiresAt:   expiresAt.UTC(),
		ProcessedAt: now,
	}
	// An expired reservation is reclaimed in place so the event is handled again.
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload_hash", "expires_at", "processed_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "contest_event_dedup.expires_at < ?", Vars: []any{now}},
		}},
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("contest_repo_reserve_event_failed", create.Error,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if create.RowsAffected > 0 {
		return false, nil
	}
	var existing eventDedupModel
	if err := r.db.WithContext(ctx).
		Select("payload_hash").
		Where("event_id = ?", row.EventID).
		First(&existing).Error; err != nil {
		return false, r.logError("contest_repo_reserve_event_load_existing_failed", err,
			"event_id", strings.TrimSpace(eventID),
		)
	}
	if existing.PayloadHash != row.PayloadHash {
		return false, fmt.Errorf("%w: event %s replayed with different payload", domainerrors.ErrConstraintViolation, row.EventID)
	}
	return true, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "contest-judging/contest-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("contest repository operation failed", fields...)
	return err
}

type contestModel struct {
	ContestID            string         `gorm:"column:contest_id;primaryKey"`
	Name                 string         `gorm:"column:name"`
	Category             string         `gorm:"column:category"`
	Status               string         `gorm:"column:status"`
	StartDate            time.Time      `gorm:"column:start_date"`
	EndDate              time.Time      `gorm:"column:end_date"`
	AllowedSubCategories datatypes.JSON `gorm:"column:allowed_sub_categories"`
	PrimaryFishType      string         `gorm:"column:primary_fish_type"`
	JudgeQuota           int            `gorm:"column:judge_quota"`
	ManagerID            string         `gorm:"column:manager_id"`
	CancelReason         string         `gorm:"column:cancel_reason"`
	CreatedAt            time.Time      `gorm:"column:created_at"`
	UpdatedAt            time.Time      `gorm:"column:updated_at"`
	PublishedAt          *time.Time     `gorm:"column:published_at"`
	FinalizedAt          *time.Time     `gorm:"column:finalized_at"`
	CancelledAt          *time.Time     `gorm:"column:cancelled_at"`
}

func (contestModel) TableName() string {
	return "contests"
}

func contestModelFromEntity(contest entities.Contest) (contestModel, error) {
	tags, err := encodeStrings(contest.AllowedSubCategories)
	if err != nil {
		return contestModel{}, err
	}
	return contestModel{
		ContestID:            strings.TrimSpace(contest.ContestID),
		Name:                 contest.Name,
		Category:             string(contest.Category),
		Status:               string(contest.Status),
		StartDate:            contest.StartDate.UTC(),
		EndDate:              contest.EndDate.UTC(),
		AllowedSubCategories: tags,
		PrimaryFishType:      contest.PrimaryFishType,
		JudgeQuota:           contest.JudgeQuota,
		ManagerID:            contest.ManagerID,
		CancelReason:         contest.CancelReason,
		CreatedAt:            contest.CreatedAt.UTC(),
		UpdatedAt:            contest.UpdatedAt.UTC(),
		PublishedAt:          normalizeOptionalTime(contest.PublishedAt),
		FinalizedAt:          normalizeOptionalTime(contest.FinalizedAt),
		CancelledAt:          normalizeOptionalTime(contest.CancelledAt),
	}, nil
}

func (m contestModel) toEntity() entities.Contest {
	return entities.Contest{
		ContestID:            m.ContestID,
		Name:                 m.Name,
		Category:             entities.ContestCategory(m.Category),
		Status:               entities.ContestStatus(m.Status),
		StartDate:            m.StartDate.UTC(),
		EndDate:              m.EndDate.UTC(),
		AllowedSubCategories: decodeStrings(m.AllowedSubCategories),
		PrimaryFishType:      m.PrimaryFishType,
		JudgeQuota:           m.JudgeQuota,
		ManagerID:            m.ManagerID,
		CancelReason:         m.CancelReason,
		CreatedAt:            m.CreatedAt.UTC(),
		UpdatedAt:            m.UpdatedAt.UTC(),
		PublishedAt:          normalizeOptionalTime(m.PublishedAt),
		FinalizedAt:          normalizeOptionalTime(m.FinalizedAt),
		CancelledAt:          normalizeOptionalTime(m.CancelledAt),
	}
}

type submissionModel struct {
	SubmissionID    string              `gorm:"column:submission_id;primaryKey"`
	ContestID       string              `gorm:"column:contest_id"`
	EntrantID       string              `gorm:"column:entrant_id"`
	DisplayName     string              `gorm:"column:display_name"`
	SubCategory     string              `gorm:"column:sub_category"`
	MediaRefs       datatypes.JSON      `gorm:"column:media_refs"`
	Status          string              `gorm:"column:status"`
	FinalScore      decimal.NullDecimal `gorm:"column:final_score;type:numeric(5,2)"`
	RejectionReason string              `gorm:"column:rejection_reason"`
	DecidedBy       string              `gorm:"column:decided_by"`
	SubmittedAt     time.Time           `gorm:"column:submitted_at"`
	DecidedAt       *time.Time          `gorm:"column:decided_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at"`
}

func (submissionModel) TableName() string {
	return "contest_submissions"
}

func submissionModelFromEntity(submission entities.Submission) (submissionModel, error) {
	media, err := encodeStrings(submission.MediaRefs)
	if err != nil {
		return submissionModel{}, err
	}
	row := submissionModel{
		SubmissionID:    strings.TrimSpace(submission.SubmissionID),
		ContestID:       strings.TrimSpace(submission.ContestID),
		EntrantID:       strings.TrimSpace(submission.EntrantID),
		DisplayName:     submission.DisplayName,
		SubCategory:     submission.SubCategory,
		MediaRefs:       media,
		Status:          string(submission.Status),
		RejectionReason: submission.RejectionReason,
		DecidedBy:       submission.DecidedBy,
		SubmittedAt:     submission.SubmittedAt.UTC(),
		DecidedAt:       normalizeOptionalTime(submission.DecidedAt),
		UpdatedAt:       submission.UpdatedAt.UTC(),
	}
	if submission.FinalScore != nil {
		row.FinalScore = decimal.NewNullDecimal(*submission.FinalScore)
	}
	return row, nil
}

func (m submissionModel) toEntity() entities.Submission {
	submission := entities.Submission{
		SubmissionID:    m.SubmissionID,
		ContestID:       m.ContestID,
		EntrantID:       m.EntrantID,
		DisplayName:     m.DisplayName,
		SubCategory:     m.SubCategory,
		MediaRefs:       decodeStrings(m.MediaRefs),
		Status:          entities.SubmissionStatus(m.Status),
		RejectionReason: m.RejectionReason,
		DecidedBy:       m.DecidedBy,
		SubmittedAt:     m.SubmittedAt.UTC(),
		DecidedAt:       normalizeOptionalTime(m.DecidedAt),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if m.FinalScore.Valid {
		value := m.FinalScore.Decimal
		submission.FinalScore = &value
	}
	return submission
}

type assignmentModel struct {
	AssignmentID string     `gorm:"column:assignment_id;primaryKey"`
	ContestID    string     `gorm:"column:contest_id"`
	JudgeID      string     `gorm:"column:judge_id"`
	InvitedBy    string     `gorm:"column:invited_by"`
	Status       string     `gorm:"column:status"`
	InvitedAt    time.Time  `gorm:"column:invited_at"`
	RespondedAt  *time.Time `gorm:"column:responded_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at"`
}

func (assignmentModel) TableName() string {
	return "judge_assignments"
}

func assignmentModelFromEntity(assignment entities.JudgeAssignment) assignmentModel {
	return assignmentModel{
		AssignmentID: strings.TrimSpace(assignment.AssignmentID),
		ContestID:    strings.TrimSpace(assignment.ContestID),
		JudgeID:      strings.TrimSpace(assignment.JudgeID),
		InvitedBy:    strings.TrimSpace(assignment.InvitedBy),
		Status:       string(assignment.Status),
		InvitedAt:    assignment.InvitedAt.UTC(),
		RespondedAt:  normalizeOptionalTime(assignment.RespondedAt),
		UpdatedAt:    assignment.UpdatedAt.UTC(),
	}
}

func (m assignmentModel) toEntity() entities.JudgeAssignment {
	return entities.JudgeAssignment{
		AssignmentID: m.AssignmentID,
		ContestID:    m.ContestID,
		JudgeID:      m.JudgeID,
		InvitedBy:    m.InvitedBy,
		Status:       entities.AssignmentStatus(m.Status),
		InvitedAt:    m.InvitedAt.UTC(),
		RespondedAt:  normalizeOptionalTime(m.RespondedAt),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

type scoreModel struct {
	ScoreID      string          `gorm:"column:score_id;primaryKey"`
	SubmissionID string          `gorm:"column:submission_id"`
	ContestID    string          `gorm:"column:contest_id"`
	JudgeID      string          `gorm:"column:judge_id"`
	Mode         string          `gorm:"column:mode"`
	Criteria     datatypes.JSON  `gorm:"column:criteria"`
	Total        decimal.Decimal `gorm:"column:total;type:numeric(5,2)"`
	RecordedAt   time.Time       `gorm:"column:recorded_at"`
}

func (scoreModel) TableName() string {
	return "judge_scores"
}

func scoreModelFromEntity(score entities.Score) (scoreModel, error) {
	row := scoreModel{
		ScoreID:      strings.TrimSpace(score.ScoreID),
		SubmissionID: strings.TrimSpace(score.SubmissionID),
		ContestID:    strings.TrimSpace(score.ContestID),
		JudgeID:      strings.TrimSpace(score.JudgeID),
		Mode:         string(score.Mode),
		Total:        score.Total,
		RecordedAt:   score.RecordedAt.UTC(),
	}
	row.Criteria = datatypes.JSON("{}")
	if len(score.Criteria) > 0 {
		raw, err := json.Marshal(score.Criteria)
		if err != nil {
			return scoreModel{}, err
		}
		row.Criteria = datatypes.JSON(raw)
	}
	return row, nil
}

func (m scoreModel) toEntity() (entities.Score, error) {
	score := entities.Score{
		ScoreID:      m.ScoreID,
		SubmissionID: m.SubmissionID,
		ContestID:    m.ContestID,
		JudgeID:      m.JudgeID,
		Mode:         entities.ScoreMode(m.Mode),
		Total:        m.Total,
		RecordedAt:   m.RecordedAt.UTC(),
	}
	if len(m.Criteria) > 0 {
		criteria := make(map[string]decimal.Decimal)
		if err := json.Unmarshal(m.Criteria, &criteria); err != nil {
			return entities.Score{}, err
		}
		if len(criteria) > 0 {
			score.Criteria = criteria
		}
	}
	return score, nil
}

type judgeProfileModel struct {
	JudgeID        string         `gorm:"column:judge_id;primaryKey"`
	DisplayName    string         `gorm:"column:display_name"`
	Specialties    datatypes.JSON `gorm:"column:specialties"`
	TelegramChatID int64          `gorm:"column:telegram_chat_id"`
	UpdatedAt      time.Time      `gorm:"column:updated_at"`
}

func (judgeProfileModel) TableName() string {
	return "judge_profiles"
}

func judgeProfileModelFromEntity(profile entities.JudgeProfile) (judgeProfileModel, error) {
	specialties, err := encodeStrings(profile.Specialties)
	if err != nil {
		return judgeProfileModel{}, err
	}
	row := judgeProfileModel{
		JudgeID:        strings.TrimSpace(profile.JudgeID),
		DisplayName:    profile.DisplayName,
		Specialties:    specialties,
		TelegramChatID: profile.TelegramChatID,
		UpdatedAt:      profile.UpdatedAt.UTC(),
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = time.Now().UTC()
	}
	return row, nil
}

func (m judgeProfileModel) toEntity() entities.JudgeProfile {
	return entities.JudgeProfile{
		JudgeID:        m.JudgeID,
		DisplayName:    m.DisplayName,
		Specialties:    decodeStrings(m.Specialties),
		TelegramChatID: m.TelegramChatID,
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	Seq          int64      `gorm:"column:seq;autoIncrement;<-:false"`
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "contest_outbox"
}

type eventDedupModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	ProcessedAt time.Time `gorm:"column:processed_at"`
}

func (eventDedupModel) TableName() string {
	return "contest_event_dedup"
}

func findAssignment(items []entities.JudgeAssignment, assignmentID string) (entities.JudgeAssignment, bool) {
	for _, item := range items {
		if item.AssignmentID == assignmentID {
			return item, true
		}
	}
	return entities.JudgeAssignment{}, false
}

func encodeStrings(values []string) (datatypes.JSON, error) {
	if values == nil {
		values = []string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func decodeStrings(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil || len(values) == 0 {
		return nil
	}
	return values
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.ContestRepository = (*Repository)(nil)
var _ ports.JudgeDirectory = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
