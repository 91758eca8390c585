package releases

import (
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
)

// Stats counts releases per status. The dashboard shows total, draft,
// under_review, approved and distributed; the review queue shows
// under_review as pending next to approved, rejected and distributed.
type Stats struct {
	Total       int `json:"total"`
	Draft       int `json:"draft"`
	UnderReview int `json:"under_review"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Distributed int `json:"distributed"`
}

// ComputeStats tallies list.
func ComputeStats(list []models.Release) Stats {
	stats := Stats{Total: len(list)}
	for _, rel := range list {
		switch rel.Status {
		case enums.ReleaseStatusDraft:
			stats.Draft++
		case enums.ReleaseStatusUnderReview:
			stats.UnderReview++
		case enums.ReleaseStatusApproved:
			stats.Approved++
		case enums.ReleaseStatusRejected:
			stats.Rejected++
		case enums.ReleaseStatusDistributed:
			stats.Distributed++
		}
	}
	return stats
}

// ReviewStats is the admin queue view of Stats.
type ReviewStats struct {
	Pending     int `json:"pending"`
	Approved    int `json:"approved"`
	Rejected    int `json:"rejected"`
	Distributed int `json:"distributed"`
}

// Review projects the counters shown to reviewers.
func (s Stats) Review() ReviewStats {
	return ReviewStats{
		Pending:     s.UnderReview,
		Approved:    s.Approved,
		Rejected:    s.Rejected,
		Distributed: s.Distributed,
	}
}
