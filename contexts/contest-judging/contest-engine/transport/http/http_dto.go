package http

import "github.com/shopspring/decimal"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreateContestRequest struct {
	Name                 string   `json:"name"`
	Category             string   `json:"category,omitempty"`
	StartDate            string   `json:"start_date"`
	EndDate              string   `json:"end_date"`
	AllowedSubCategories []string `json:"allowed_sub_categories,omitempty"`
	PrimaryFishType      string   `json:"primary_fish_type,omitempty"`
}

type UpdateContestRequest struct {
	Name                 *string   `json:"name,omitempty"`
	StartDate            *string   `json:"start_date,omitempty"`
	EndDate              *string   `json:"end_date,omitempty"`
	AllowedSubCategories *[]string `json:"allowed_sub_categories,omitempty"`
	PrimaryFishType      *string   `json:"primary_fish_type,omitempty"`
}

type ChangeStatusRequest struct {
	Reason string `json:"reason,omitempty"`
}

type ContestResponse struct {
	ContestID            string   `json:"contest_id"`
	Name                 string   `json:"name"`
	Category             string   `json:"category"`
	Status               string   `json:"status"`
	StartDate            string   `json:"start_date"`
	EndDate              string   `json:"end_date"`
	AllowedSubCategories []string `json:"allowed_sub_categories"`
	PrimaryFishType      string   `json:"primary_fish_type,omitempty"`
	JudgeQuota           int      `json:"judge_quota"`
	ManagerID            string   `json:"manager_id"`
	CancelReason         string   `json:"cancel_reason,omitempty"`
	CreatedAt            string   `json:"created_at"`
	UpdatedAt            string   `json:"updated_at"`
	PublishedAt          string   `json:"published_at,omitempty"`
	FinalizedAt          string   `json:"finalized_at,omitempty"`
	CancelledAt          string   `json:"cancelled_at,omitempty"`
}

type ListContestsResponse struct {
	Items []ContestResponse `json:"items"`
}

type SubmitEntryRequest struct {
	DisplayName string   `json:"display_name"`
	SubCategory string   `json:"sub_category,omitempty"`
	MediaRefs   []string `json:"media_refs,omitempty"`
}

type DecideSubmissionRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason,omitempty"`
}

type SubmissionResponse struct {
	SubmissionID    string   `json:"submission_id"`
	ContestID       string   `json:"contest_id"`
	EntrantID       string   `json:"entrant_id"`
	DisplayName     string   `json:"display_name"`
	SubCategory     string   `json:"sub_category,omitempty"`
	MediaRefs       []string `json:"media_refs"`
	Status          string   `json:"status"`
	FinalScore      *string  `json:"final_score,omitempty"`
	RejectionReason string   `json:"rejection_reason,omitempty"`
	DecidedBy       string   `json:"decided_by,omitempty"`
	SubmittedAt     string   `json:"submitted_at"`
	DecidedAt       string   `json:"decided_at,omitempty"`
}

type ListSubmissionsResponse struct {
	Items []SubmissionResponse `json:"items"`
}

type InviteJudgeRequest struct {
	JudgeID string `json:"judge_id"`
}

type RespondAssignmentRequest struct {
	Decision string `json:"decision"`
}

type AssignmentResponse struct {
	AssignmentID string `json:"assignment_id"`
	ContestID    string `json:"contest_id"`
	JudgeID      string `json:"judge_id"`
	InvitedBy    string `json:"invited_by"`
	Status       string `json:"status"`
	InvitedAt    string `json:"invited_at"`
	RespondedAt  string `json:"responded_at,omitempty"`
}

type ListAssignmentsResponse struct {
	Items []AssignmentResponse `json:"items"`
}

type RegisterJudgeRequest struct {
	DisplayName    string   `json:"display_name"`
	Specialties    []string `json:"specialties"`
	TelegramChatID int64    `json:"telegram_chat_id,omitempty"`
}

type JudgeProfileResponse struct {
	JudgeID        string   `json:"judge_id"`
	DisplayName    string   `json:"display_name"`
	Specialties    []string `json:"specialties"`
	TelegramLinked bool     `json:"telegram_linked"`
}

type ListJudgesResponse struct {
	Items []JudgeProfileResponse `json:"items"`
}

// RecordScoreRequest accepts either per-criterion values (detailed mode) or a
// single total (quick mode). Values may be JSON numbers or decimal strings.
type RecordScoreRequest struct {
	Mode     string                     `json:"mode,omitempty"`
	Criteria map[string]decimal.Decimal `json:"criteria,omitempty"`
	Total    *decimal.Decimal           `json:"total,omitempty"`
}

type ScoreResponse struct {
	ScoreID      string            `json:"score_id"`
	SubmissionID string            `json:"submission_id"`
	JudgeID      string            `json:"judge_id"`
	Mode         string            `json:"mode"`
	Criteria     map[string]string `json:"criteria,omitempty"`
	Total        string            `json:"total"`
	RecordedAt   string            `json:"recorded_at"`
}

type ScoreBreakdownResponse struct {
	Submission SubmissionResponse `json:"submission"`
	Scores     []ScoreResponse    `json:"scores"`
}

type RankedSubmissionResponse struct {
	Rank         int    `json:"rank"`
	SubmissionID string `json:"submission_id"`
	EntrantID    string `json:"entrant_id"`
	DisplayName  string `json:"display_name"`
	SubCategory  string `json:"sub_category,omitempty"`
	FinalScore   string `json:"final_score"`
	ScoreCount   int    `json:"score_count"`
}

type ResultsResponse struct {
	ContestID   string                     `json:"contest_id"`
	ContestName string                     `json:"contest_name"`
	FinalizedAt string                     `json:"finalized_at,omitempty"`
	Rankings    []RankedSubmissionResponse `json:"rankings"`
}

type FinalizeResponse struct {
	Contest  ContestResponse            `json:"contest"`
	Rankings []RankedSubmissionResponse `json:"rankings"`
	Unscored []string                   `json:"unscored_submission_ids"`
}

type CriterionResponse struct {
	Name string `json:"name"`
	Max  string `json:"max"`
}

type CriteriaResponse struct {
	Category string              `json:"category"`
	MaxTotal string              `json:"max_total"`
	Criteria []CriterionResponse `json:"criteria"`
}
