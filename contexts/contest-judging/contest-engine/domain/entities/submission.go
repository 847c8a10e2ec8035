package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type SubmissionStatus string

const (
	SubmissionStatusPending  SubmissionStatus = "pending"
	SubmissionStatusApproved SubmissionStatus = "approved"
	SubmissionStatusRejected SubmissionStatus = "rejected"
)

type Submission struct {
	SubmissionID    string
	ContestID       string
	EntrantID       string
	DisplayName     string
	SubCategory     string
	MediaRefs       []string
	Status          SubmissionStatus
	FinalScore      *decimal.Decimal
	RejectionReason string
	DecidedBy       string
	SubmittedAt     time.Time
	DecidedAt       *time.Time
	UpdatedAt       time.Time
}

func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionStatusPending, SubmissionStatusApproved, SubmissionStatusRejected:
		return true
	default:
		return false
	}
}

// CanDecide reports whether a manager decision may move from -> to.
func CanDecide(from SubmissionStatus, to SubmissionStatus) bool {
	return from == SubmissionStatusPending &&
		(to == SubmissionStatusApproved || to == SubmissionStatusRejected)
}

func (s Submission) IsApproved() bool {
	return s.Status == SubmissionStatusApproved
}

func CountApproved(submissions []Submission) int {
	count := 0
	for _, submission := range submissions {
		if submission.IsApproved() {
			count++
		}
	}
	return count
}
