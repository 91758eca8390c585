package enums

import "fmt"

// ReleaseStatus tracks where a release sits in the review lifecycle.
type ReleaseStatus string

const (
	ReleaseStatusDraft       ReleaseStatus = "draft"
	ReleaseStatusUnderReview ReleaseStatus = "under_review"
	ReleaseStatusApproved    ReleaseStatus = "approved"
	ReleaseStatusRejected    ReleaseStatus = "rejected"
	ReleaseStatusDistributed ReleaseStatus = "distributed"
)

// ReleaseStatusAll is the filter sentinel that matches every status.
const ReleaseStatusAll = "all"

var validReleaseStatuses = []ReleaseStatus{
	ReleaseStatusDraft,
	ReleaseStatusUnderReview,
	ReleaseStatusApproved,
	ReleaseStatusRejected,
	ReleaseStatusDistributed,
}

var releaseStatusEdges = map[ReleaseStatus][]ReleaseStatus{
	ReleaseStatusDraft:       {ReleaseStatusDraft, ReleaseStatusUnderReview},
	ReleaseStatusUnderReview: {ReleaseStatusUnderReview, ReleaseStatusDraft, ReleaseStatusApproved, ReleaseStatusRejected},
	ReleaseStatusApproved:    {ReleaseStatusDistributed},
}

// ReleaseStatuses returns every known status in lifecycle order.
func ReleaseStatuses() []ReleaseStatus {
	out := make([]ReleaseStatus, len(validReleaseStatuses))
	copy(out, validReleaseStatuses)
	return out
}

// String implements fmt.Stringer.
func (s ReleaseStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ReleaseStatus.
func (s ReleaseStatus) IsValid() bool {
	for _, candidate := range validReleaseStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func (s ReleaseStatus) IsTerminal() bool {
	return s == ReleaseStatusRejected || s == ReleaseStatusDistributed
}

// CanTransitionTo reports whether next is reachable from s in one step.
func (s ReleaseStatus) CanTransitionTo(next ReleaseStatus) bool {
	for _, candidate := range releaseStatusEdges[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseReleaseStatus converts raw input into a ReleaseStatus.
func ParseReleaseStatus(value string) (ReleaseStatus, error) {
	for _, candidate := range validReleaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid release status %q", value)
}
