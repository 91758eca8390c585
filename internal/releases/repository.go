package releases

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
)

var (
	// ErrNotFound is returned by repositories for an unknown release id.
	ErrNotFound = errors.New("release not found")
	// ErrDuplicateID is returned when Create reuses an existing id.
	ErrDuplicateID = errors.New("release id already exists")
)

// MutateFunc edits a release in place during an atomic read-modify-write.
// Returning an error aborts the update and leaves the stored record untouched.
type MutateFunc func(rel *models.Release) error

// Repository stores releases. Implementations hand out copies; callers never
// hold a pointer into the store.
type Repository interface {
	Create(ctx context.Context, rel *models.Release) error
	Get(ctx context.Context, id uuid.UUID) (*models.Release, error)
	// List returns every release in insertion order.
	List(ctx context.Context) ([]models.Release, error)
	Update(ctx context.Context, id uuid.UUID, mutate MutateFunc) (*models.Release, error)
	Delete(ctx context.Context, id uuid.UUID) error
	IdentifierInUse(ctx context.Context, kind enums.IdentifierKind, value string) (bool, error)
	Ping(ctx context.Context) error
}
