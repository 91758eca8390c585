package users

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/releasedesk/pkg/enums"
	pkgerrors "github.com/angelmondragon/releasedesk/pkg/errors"
	"github.com/angelmondragon/releasedesk/pkg/logger"
)

// Profile is the single dashboard user the service acts on behalf of.
type Profile struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Email string         `json:"email"`
	Role  enums.UserRole `json:"role"`
}

// IsAdmin reports whether the profile may review releases.
func (p Profile) IsAdmin() bool {
	return p.Role == enums.UserRoleAdmin
}

// DefaultProfile is the profile a fresh process starts with.
func DefaultProfile() Profile {
	return Profile{
		ID:    "1",
		Name:  "Demo Artist",
		Email: "artist@demo.com",
		Role:  enums.UserRoleArtist,
	}
}

// ProfileUpdate replaces the editable settings.
type ProfileUpdate struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=artist label admin"`
}

// Store holds the current profile. Settings replace it wholesale.
type Store struct {
	mu       sync.RWMutex
	current  Profile
	validate *validator.Validate
	logg     *logger.Logger
}

// NewStore starts from initial, or the default profile when initial has no id.
func NewStore(initial Profile, logg *logger.Logger) *Store {
	if initial.ID == "" {
		initial = DefaultProfile()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	})
	return &Store{current: initial, validate: v, logg: logg}
}

// Current returns a copy of the current profile.
func (s *Store) Current() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update replaces name, email and role. The id never changes.
func (s *Store) Update(ctx context.Context, update ProfileUpdate) (Profile, error) {
	update.Name = strings.TrimSpace(update.Name)
	update.Email = strings.TrimSpace(update.Email)
	if err := s.validate.Struct(update); err != nil {
		return Profile{}, profileValidationError(err)
	}
	role, err := enums.ParseUserRole(update.Role)
	if err != nil {
		return Profile{}, pkgerrors.Validation("role", err.Error())
	}

	s.mu.Lock()
	s.current.Name = update.Name
	s.current.Email = update.Email
	s.current.Role = role
	updated := s.current
	s.mu.Unlock()

	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(s.logg.WithUserID(ctx, updated.ID), map[string]any{
			"role": updated.Role.String(),
		}), "profile updated")
	}
	return updated, nil
}

func profileValidationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "validation failed")
	}
	fields := pkgerrors.FieldErrors{}
	for _, fe := range errs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "email":
			fields[fe.Field()] = "must be a valid email"
		case "oneof":
			fields[fe.Field()] = fmt.Sprintf("must be one of %s", fe.Param())
		default:
			fields[fe.Field()] = "is invalid"
		}
	}
	return pkgerrors.ValidationFields(fields)
}
