package enums

import "fmt"

// WizardStep is a position in the submission wizard.
type WizardStep int

const (
	WizardStepFiles     WizardStep = 1
	WizardStepMetadata  WizardStep = 2
	WizardStepReview    WizardStep = 3
	WizardStepCommitted WizardStep = 4
)

// String returns the step name used in API payloads and logs.
func (s WizardStep) String() string {
	switch s {
	case WizardStepFiles:
		return "collecting_files"
	case WizardStepMetadata:
		return "collecting_metadata"
	case WizardStepReview:
		return "reviewing"
	case WizardStepCommitted:
		return "committed"
	}
	return "unknown"
}

// CommitAction selects the status a wizard commit produces.
type CommitAction string

const (
	CommitActionSaveDraft       CommitAction = "save_draft"
	CommitActionSubmitForReview CommitAction = "submit_for_review"
)

// String implements fmt.Stringer.
func (a CommitAction) String() string {
	return string(a)
}

// TargetStatus returns the release status the action commits.
func (a CommitAction) TargetStatus() ReleaseStatus {
	if a == CommitActionSubmitForReview {
		return ReleaseStatusUnderReview
	}
	return ReleaseStatusDraft
}

// ParseCommitAction converts raw input into a CommitAction.
func ParseCommitAction(value string) (CommitAction, error) {
	switch CommitAction(value) {
	case CommitActionSaveDraft, CommitActionSubmitForReview:
		return CommitAction(value), nil
	}
	return "", fmt.Errorf("invalid commit action %q", value)
}

// IdentifierKind names a distribution identifier.
type IdentifierKind string

const (
	IdentifierKindISRC IdentifierKind = "isrc"
	IdentifierKindUPC  IdentifierKind = "upc"
)

// ParseIdentifierKind converts raw input into an IdentifierKind.
func ParseIdentifierKind(value string) (IdentifierKind, error) {
	switch IdentifierKind(value) {
	case IdentifierKindISRC, IdentifierKindUPC:
		return IdentifierKind(value), nil
	}
	return "", fmt.Errorf("invalid identifier kind %q", value)
}
