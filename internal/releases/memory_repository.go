package releases

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
)

// MemoryRepository keeps releases in process memory in insertion order.
type MemoryRepository struct {
	mu    sync.RWMutex
	order []uuid.UUID
	byID  map[uuid.UUID]*models.Release
}

// NewMemoryRepository returns an empty store.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[uuid.UUID]*models.Release)}
}

func (r *MemoryRepository) Create(_ context.Context, rel *models.Release) error {
	if rel == nil {
		return fmt.Errorf("release required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[rel.ID]; exists {
		return ErrDuplicateID
	}
	r.byID[rel.ID] = rel.Clone()
	r.order = append(r.order, rel.ID)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id uuid.UUID) (*models.Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rel, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rel.Clone(), nil
}

func (r *MemoryRepository) List(_ context.Context) ([]models.Release, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Release, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.byID[id].Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Update(_ context.Context, id uuid.UUID, mutate MutateFunc) (*models.Release, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	working := current.Clone()
	if err := mutate(working); err != nil {
		return nil, err
	}
	working.ID = id
	r.byID[id] = working
	return working.Clone(), nil
}

func (r *MemoryRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *MemoryRepository) IdentifierInUse(_ context.Context, kind enums.IdentifierKind, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, rel := range r.byID {
		switch kind {
		case enums.IdentifierKindISRC:
			if rel.ISRC == value {
				return true, nil
			}
		case enums.IdentifierKindUPC:
			if rel.UPC == value {
				return true, nil
			}
		default:
			return false, fmt.Errorf("unknown identifier kind %q", kind)
		}
	}
	return false, nil
}

func (r *MemoryRepository) Ping(context.Context) error {
	return nil
}
