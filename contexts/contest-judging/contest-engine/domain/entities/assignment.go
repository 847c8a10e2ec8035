package entities

import "time"

type AssignmentStatus string

const (
	AssignmentStatusPending  AssignmentStatus = "pending"
	AssignmentStatusAccepted AssignmentStatus = "accepted"
	AssignmentStatusDeclined AssignmentStatus = "declined"
)

type JudgeAssignment struct {
	AssignmentID string
	ContestID    string
	JudgeID      string
	InvitedBy    string
	Status       AssignmentStatus
	InvitedAt    time.Time
	RespondedAt  *time.Time
	UpdatedAt    time.Time
}

type JudgeProfile struct {
	JudgeID        string
	DisplayName    string
	Specialties    []string
	TelegramChatID int64
	UpdatedAt      time.Time
}

func (s AssignmentStatus) Valid() bool {
	switch s {
	case AssignmentStatusPending, AssignmentStatusAccepted, AssignmentStatusDeclined:
		return true
	default:
		return false
	}
}

// IsActive reports whether the assignment counts against the judge quota.
func (s AssignmentStatus) IsActive() bool {
	return s == AssignmentStatusPending || s == AssignmentStatusAccepted
}

// CanRespond reports whether an invited judge may move from -> to.
func CanRespond(from AssignmentStatus, to AssignmentStatus) bool {
	return from == AssignmentStatusPending &&
		(to == AssignmentStatusAccepted || to == AssignmentStatusDeclined)
}

func CountActiveAssignments(assignments []JudgeAssignment) int {
	count := 0
	for _, assignment := range assignments {
		if assignment.Status.IsActive() {
			count++
		}
	}
	return count
}

func CountAcceptedAssignments(assignments []JudgeAssignment) int {
	count := 0
	for _, assignment := range assignments {
		if assignment.Status == AssignmentStatusAccepted {
			count++
		}
	}
	return count
}

// EligibleFor reports whether the judge's specialties intersect the contest's
// eligibility tags. Contests without tags accept any judge.
func (p JudgeProfile) EligibleFor(contest Contest) bool {
	tags := contest.EligibilityTags()
	if len(tags) == 0 {
		return true
	}
	for _, specialty := range p.Specialties {
		normalized := NormalizeTag(specialty)
		for _, tag := range tags {
			if normalized == tag {
				return true
			}
		}
	}
	return false
}
