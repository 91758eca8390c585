package releases

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/releasedesk/pkg/db"
	"github.com/angelmondragon/releasedesk/pkg/db/models"
	"github.com/angelmondragon/releasedesk/pkg/enums"
)

// errStaleWrite signals that another writer bumped the version between the
// read and the write of an Update.
var errStaleWrite = errors.New("release changed during update")

// GormRepository stores releases in SQLite through GORM.
type GormRepository struct {
	client *db.Client
}

// NewGormRepository migrates the releases table and returns the repository.
func NewGormRepository(ctx context.Context, client *db.Client) (*GormRepository, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if err := client.Migrate(ctx, &models.Release{}); err != nil {
		return nil, err
	}
	return &GormRepository{client: client}, nil
}

func (r *GormRepository) conn(ctx context.Context) *gorm.DB {
	return r.client.DB().WithContext(ctx)
}

func (r *GormRepository) Create(ctx context.Context, rel *models.Release) error {
	if rel == nil {
		return fmt.Errorf("release required")
	}
	if err := r.conn(ctx).Create(rel.Clone()).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return ErrDuplicateID
		}
		return fmt.Errorf("insert release: %w", err)
	}
	return nil
}

func (r *GormRepository) Get(ctx context.Context, id uuid.UUID) (*models.Release, error) {
	return findRelease(r.conn(ctx), id)
}

func (r *GormRepository) List(ctx context.Context) ([]models.Release, error) {
	var out []models.Release
	if err := r.conn(ctx).Order("rowid").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list releases: %w", err)
	}
	if out == nil {
		out = []models.Release{}
	}
	return out, nil
}

func (r *GormRepository) Update(ctx context.Context, id uuid.UUID, mutate MutateFunc) (*models.Release, error) {
	var updated *models.Release
	err := r.client.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := findRelease(tx, id)
		if err != nil {
			return err
		}
		readVersion := current.Version
		if err := mutate(current); err != nil {
			return err
		}
		current.ID = id
		res := tx.Model(&models.Release{}).
			Where("id = ? AND version = ?", id, readVersion).
			Select("*").
			Updates(current)
		if res.Error != nil {
			return fmt.Errorf("update release: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return errStaleWrite
		}
		updated = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *GormRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.conn(ctx).Where("id = ?", id).Delete(&models.Release{})
	if res.Error != nil {
		return fmt.Errorf("delete release: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepository) IdentifierInUse(ctx context.Context, kind enums.IdentifierKind, value string) (bool, error) {
	if value == "" {
		return false, nil
	}
	var column string
	switch kind {
	case enums.IdentifierKindISRC:
		column = "isrc"
	case enums.IdentifierKindUPC:
		column = "upc"
	default:
		return false, fmt.Errorf("unknown identifier kind %q", kind)
	}
	var count int64
	if err := r.conn(ctx).Model(&models.Release{}).Where(column+" = ?", value).Count(&count).Error; err != nil {
		return false, fmt.Errorf("count %s: %w", column, err)
	}
	return count > 0, nil
}

func (r *GormRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func findRelease(conn *gorm.DB, id uuid.UUID) (*models.Release, error) {
	var rel models.Release
	if err := conn.First(&rel, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find release: %w", err)
	}
	return &rel, nil
}
