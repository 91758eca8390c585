package submission

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/internal/intake"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
)

type releaseReader interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Release, error)
}

// CommitResult is returned after a wizard commits.
type CommitResult struct {
	Step    string          `json:"step"`
	Release *models.Release `json:"release"`
	Wizard  State           `json:"wizard"`
}

// Service drives wizard sessions by id for the HTTP layer.
type Service interface {
	Start(ctx context.Context, owner string, editReleaseID *uuid.UUID) (State, error)
	State(ctx context.Context, id uuid.UUID) (State, error)
	Discard(ctx context.Context, id uuid.UUID) error
	AttachAudio(ctx context.Context, id uuid.UUID, c intake.Candidate) (State, error)
	AttachArtwork(ctx context.Context, id uuid.UUID, c intake.Candidate) (State, error)
	SetMetadata(ctx context.Context, id uuid.UUID, md Metadata) (State, error)
	GenerateIdentifier(ctx context.Context, id uuid.UUID, kind enums.IdentifierKind) (State, error)
	Next(ctx context.Context, id uuid.UUID) (State, error)
	Back(ctx context.Context, id uuid.UUID) (State, error)
	Commit(ctx context.Context, id uuid.UUID, action enums.CommitAction) (CommitResult, error)
}

type service struct {
	deps     Deps
	reader   releaseReader
	sessions *SessionStore
}

// NewService wires wizard sessions to their collaborators.
func NewService(deps Deps, reader releaseReader, sessions *SessionStore) (Service, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if reader == nil {
		return nil, fmt.Errorf("release reader required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store required")
	}
	return &service{deps: deps, reader: reader, sessions: sessions}, nil
}

func (s *service) Start(ctx context.Context, owner string, editReleaseID *uuid.UUID) (State, error) {
	var (
		w   *Wizard
		err error
	)
	if editReleaseID != nil {
		rel, getErr := s.reader.Get(ctx, *editReleaseID)
		if getErr != nil {
			return State{}, getErr
		}
		w, err = NewEditWizard(s.deps, owner, rel)
	} else {
		w, err = NewWizard(s.deps, owner)
	}
	if err != nil {
		return State{}, err
	}

	evicted := s.sessions.Add(w)
	logCtx := s.deps.Logger.WithFields(w.logCtx(ctx), map[string]any{"evicted_sessions": evicted})
	s.deps.Logger.Info(logCtx, "wizard started")
	return w.Snapshot(), nil
}

func (s *service) State(_ context.Context, id uuid.UUID) (State, error) {
	var state State
	err := s.sessions.With(id, func(w *Wizard) error {
		state = w.Snapshot()
		return nil
	})
	return state, err
}

func (s *service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.sessions.Delete(id); err != nil {
		return err
	}
	s.deps.Logger.Info(s.deps.Logger.WithWizardID(ctx, id.String()), "wizard discarded")
	return nil
}

func (s *service) AttachAudio(ctx context.Context, id uuid.UUID, c intake.Candidate) (State, error) {
	return s.mutate(id, func(w *Wizard) error {
		_, err := w.AttachAudio(ctx, c)
		return err
	})
}

func (s *service) AttachArtwork(ctx context.Context, id uuid.UUID, c intake.Candidate) (State, error) {
	return s.mutate(id, func(w *Wizard) error {
		_, err := w.AttachArtwork(ctx, c)
		return err
	})
}

func (s *service) SetMetadata(_ context.Context, id uuid.UUID, md Metadata) (State, error) {
	return s.mutate(id, func(w *Wizard) error {
		return w.SetMetadata(md)
	})
}

func (s *service) GenerateIdentifier(ctx context.Context, id uuid.UUID, kind enums.IdentifierKind) (State, error) {
	return s.mutate(id, func(w *Wizard) error {
		_, err := w.GenerateIdentifier(ctx, kind)
		return err
	})
}

func (s *service) Next(_ context.Context, id uuid.UUID) (State, error) {
	return s.mutate(id, func(w *Wizard) error {
		return w.Next()
	})
}

func (s *service) Back(_ context.Context, id uuid.UUID) (State, error) {
	return s.mutate(id, func(w *Wizard) error {
		w.Back()
		return nil
	})
}

func (s *service) Commit(ctx context.Context, id uuid.UUID, action enums.CommitAction) (CommitResult, error) {
	var result CommitResult
	err := s.sessions.With(id, func(w *Wizard) error {
		rel, err := w.Commit(ctx, action)
		if err != nil {
			return err
		}
		result = CommitResult{
			Step:    enums.WizardStepCommitted.String(),
			Release: rel,
			Wizard:  w.Snapshot(),
		}
		return nil
	})
	return result, err
}

func (s *service) mutate(id uuid.UUID, fn func(w *Wizard) error) (State, error) {
	var state State
	err := s.sessions.With(id, func(w *Wizard) error {
		if err := fn(w); err != nil {
			return err
		}
		state = w.Snapshot()
		return nil
	})
	return state, err
}
