package releases

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
)

// Filter narrows a release list. An empty SearchTerm matches everything and a
// Status of "" or "all" matches every status.
type Filter struct {
	SearchTerm string
	Status     string
}

// Validate rejects unknown statuses.
func (f Filter) Validate() error {
	if f.matchesAnyStatus() {
		return nil
	}
	if _, err := enums.ParseReleaseStatus(f.Status); err != nil {
		return pkgerrors.Validation("status", fmt.Sprintf("unknown status %q", f.Status))
	}
	return nil
}

func (f Filter) matchesAnyStatus() bool {
	return f.Status == "" || f.Status == enums.ReleaseStatusAll
}

// Matches reports whether rel passes both the search and the status test.
func (f Filter) Matches(rel models.Release) bool {
	if term := strings.ToLower(f.SearchTerm); term != "" {
		if !strings.Contains(strings.ToLower(rel.TrackTitle), term) &&
			!strings.Contains(strings.ToLower(rel.PrimaryArtist), term) {
			return false
		}
	}
	return f.matchesAnyStatus() || string(rel.Status) == f.Status
}

// ApplyFilter returns the releases matching f, preserving their order.
func ApplyFilter(list []models.Release, f Filter) []models.Release {
	out := make([]models.Release, 0, len(list))
	for _, rel := range list {
		if f.Matches(rel) {
			out = append(out, rel)
		}
	}
	return out
}
