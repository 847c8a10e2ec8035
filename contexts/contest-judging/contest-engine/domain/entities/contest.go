package entities

import (
	"strings"
	"time"
)

type ContestStatus string
type ContestCategory string

const (
	ContestStatusDraft     ContestStatus = "draft"
	ContestStatusOngoing   ContestStatus = "ongoing"
	ContestStatusClosed    ContestStatus = "closed"
	ContestStatusJudging   ContestStatus = "judging"
	ContestStatusFinalized ContestStatus = "finalized"
	ContestStatusCancelled ContestStatus = "cancelled"

	ContestCategoryContest          ContestCategory = "contest"
	ContestCategoryGeneralNews      ContestCategory = "general_news"
	ContestCategoryAnnouncementNews ContestCategory = "announcement_news"
)

// JudgeQuota is the maximum number of pending or accepted judge assignments
// a contest may hold.
const JudgeQuota = 3

var contestTransitions = map[ContestStatus][]ContestStatus{
	ContestStatusDraft:   {ContestStatusOngoing, ContestStatusCancelled},
	ContestStatusOngoing: {ContestStatusClosed, ContestStatusCancelled},
	ContestStatusClosed:  {ContestStatusJudging, ContestStatusCancelled},
	ContestStatusJudging: {ContestStatusFinalized, ContestStatusCancelled},
}

type Contest struct {
	ContestID            string
	Name                 string
	Category             ContestCategory
	Status               ContestStatus
	StartDate            time.Time
	EndDate              time.Time
	AllowedSubCategories []string
	PrimaryFishType      string
	JudgeQuota           int
	ManagerID            string
	CancelReason         string
	CreatedAt            time.Time
	UpdatedAt            time.Time
	PublishedAt          *time.Time
	FinalizedAt          *time.Time
	CancelledAt          *time.Time
}

func AllContestStatuses() []ContestStatus {
	return []ContestStatus{
		ContestStatusDraft,
		ContestStatusOngoing,
		ContestStatusClosed,
		ContestStatusJudging,
		ContestStatusFinalized,
		ContestStatusCancelled,
	}
}

func (s ContestStatus) Valid() bool {
	for _, status := range AllContestStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

func (s ContestStatus) IsTerminal() bool {
	return s == ContestStatusFinalized || s == ContestStatusCancelled
}

// CanTransition reports whether from -> to is an edge of the contest lifecycle.
func CanTransition(from ContestStatus, to ContestStatus) bool {
	for _, next := range contestTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (c Contest) IsTerminal() bool {
	return c.Status.IsTerminal()
}

func (c Contest) IsEditable() bool {
	return c.Status == ContestStatusDraft
}

// AssignmentsLocked reports whether judges can no longer be removed.
func (c Contest) AssignmentsLocked() bool {
	return c.Status == ContestStatusJudging || c.IsTerminal()
}

func (c Contest) EffectiveJudgeQuota() int {
	if c.JudgeQuota <= 0 {
		return JudgeQuota
	}
	return c.JudgeQuota
}

// EligibilityTags returns the normalized fish-type tags a judge must match.
// An empty result means the contest places no specialty restriction.
func (c Contest) EligibilityTags() []string {
	tags := make([]string, 0, len(c.AllowedSubCategories)+1)
	if primary := NormalizeTag(c.PrimaryFishType); primary != "" {
		tags = append(tags, primary)
	}
	return appendUniqueTags(tags, c.AllowedSubCategories...)
}

// AcceptsSubCategory reports whether an entry declaring tag may be submitted.
func (c Contest) AcceptsSubCategory(tag string) bool {
	normalized := NormalizeTag(tag)
	if len(c.AllowedSubCategories) == 0 {
		return true
	}
	for _, allowed := range c.AllowedSubCategories {
		if NormalizeTag(allowed) == normalized {
			return true
		}
	}
	return false
}

func (c Contest) ValidateBasics() bool {
	name := strings.TrimSpace(c.Name)
	if name == "" || len(name) > 200 {
		return false
	}
	if c.Category != ContestCategoryContest {
		return false
	}
	if c.StartDate.IsZero() || c.EndDate.IsZero() {
		return false
	}
	return !c.EndDate.Before(c.StartDate)
}

func NormalizeTag(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func NormalizeTags(values []string) []string {
	return appendUniqueTags(make([]string, 0, len(values)), values...)
}

func appendUniqueTags(dst []string, values ...string) []string {
	for _, value := range values {
		tag := NormalizeTag(value)
		if tag == "" {
			continue
		}
		seen := false
		for _, existing := range dst {
			if existing == tag {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, tag)
		}
	}
	return dst
}
