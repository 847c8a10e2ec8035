package errors

import "errors"

var (
	ErrContestNotFound     = errors.New("contest not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrAssignmentNotFound  = errors.New("judge assignment not found")
	ErrJudgeNotFound       = errors.New("judge profile not found")
	ErrInvalidInput        = errors.New("invalid contest input")
	ErrInvalidTransition   = errors.New("invalid state transition")
	ErrInvalidState        = errors.New("operation not permitted in current contest status")
	ErrPreconditionFailed  = errors.New("contest precondition failed")
	ErrQuotaExceeded       = errors.New("judge quota exceeded")
	ErrAlreadyAssigned     = errors.New("judge already assigned to contest")
	ErrNotEligible         = errors.New("judge specialties do not match contest")
	ErrDuplicateScore      = errors.New("score already recorded for submission and judge")
	ErrOutOfRange          = errors.New("score out of range")
	ErrNotAuthorized       = errors.New("actor not authorized for operation")
	ErrConstraintViolation = errors.New("entity constraint violation")
	ErrResultsNotAvailable = errors.New("results are available only after finalize")
)
