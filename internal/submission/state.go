package submission

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
)

// State is a read-only snapshot of a wizard.
type State struct {
	ID               uuid.UUID             `json:"id"`
	Step             string                `json:"step"`
	StepNumber       int                   `json:"step_number"`
	EditingReleaseID *uuid.UUID            `json:"editing_release_id,omitempty"`
	Audio            *models.AssetRef      `json:"audio,omitempty"`
	Artwork          *models.AssetRef      `json:"artwork,omitempty"`
	Metadata         Metadata              `json:"metadata"`
	Errors           pkgerrors.FieldErrors `json:"errors"`
}

// Snapshot copies the wizard's current state.
func (w *Wizard) Snapshot() State {
	state := State{
		ID:         w.id,
		Step:       w.step.String(),
		StepNumber: int(w.step),
		Audio:      w.audio.Clone(),
		Artwork:    w.artwork.Clone(),
		Metadata:   w.metadata,
		Errors:     cloneFields(w.errors),
	}
	if w.editing != nil {
		id := w.editing.ID
		state.EditingReleaseID = &id
	}
	return state
}
