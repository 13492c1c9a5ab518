// Package store is the persistence boundary for the catalog. Every read and
// write goes through a Store method, and every method derives the tenant from
// the ambient scope before touching the database; there is no way to pass a
// tenant in from a call site, and no query leaves without a tenant predicate.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
)

var (
	// ErrNotFound covers both "does not exist" and "exists under another
	// tenant"; callers can never tell the two apart.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateCategory means the tenant already has a category with that name.
	ErrDuplicateCategory = errors.New("category name already exists in this tenant")
	// ErrCategoryInUse blocks deletion of a category that properties still reference.
	ErrCategoryInUse = errors.New("category is referenced by existing properties")
)

// Store executes tenant-scoped catalog operations against the database.
type Store struct {
	db *gorm.DB
}

// New wraps a connected gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("tenant_id = ? AND name = ?", tenantID, category.Name).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateCategory
	}

	category.ID = uuid.New()
	category.TenantID = tenantID
	return s.db.WithContext(ctx).Create(category).Error
}

func (s *Store) CategoryByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return nil, err
	}

	var category models.Category
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&category).Error; err != nil {
		return nil, translate(err)
	}
	return &category, nil
}

func (s *Store) CategoryByName(ctx context.Context, name string) (*models.Category, error) {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return nil, err
	}

	if cached, ok := categoryFromCache(tenantID, name); ok {
		return cached, nil
	}

	var category models.Category
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&category).Error; err != nil {
		return nil, translate(err)
	}

	cacheCategory(&category)
	return &category, nil
}

// ResolveCategory is the search.CategoryResolver view of CategoryByName: a
// name the tenant has no category for resolves to (nil, nil), while storage
// faults come back as errors.
func (s *Store) ResolveCategory(ctx context.Context, name string) (*models.Category, error) {
	category, err := s.CategoryByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return nil, err
	}

	var categories []models.Category
	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// UpdateCategory persists name, description and schema edits. Properties
// already stored under the old schema are untouched; their bags are re-checked
// against the new schema only when they are next written.
func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return err
	}
	if category.TenantID != tenantID {
		return ErrNotFound
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Category{}).
		Where("tenant_id = ? AND name = ? AND id != ?", tenantID, category.Name, category.ID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateCategory
	}

	if err := s.db.WithContext(ctx).Save(category).Error; err != nil {
		return err
	}
	evictTenantCategories(tenantID)
	return nil
}

func (s *Store) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return err
	}

	category, err := s.CategoryByID(ctx, id)
	if err != nil {
		return err
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Property{}).
		Where("tenant_id = ? AND category_id = ?", tenantID, id).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrCategoryInUse
	}

	if err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Delete(category).Error; err != nil {
		return err
	}
	evictTenantCategories(tenantID)
	return nil
}

func (s *Store) CreateProperty(ctx context.Context, property *models.Property) error {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return err
	}

	property.ID = uuid.New()
	property.TenantID = tenantID
	return s.db.WithContext(ctx).Create(property).Error
}

func (s *Store) PropertyByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return nil, err
	}

	var property models.Property
	if err := s.db.WithContext(ctx).Preload("Category").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&property).Error; err != nil {
		return nil, translate(err)
	}
	return &property, nil
}

func (s *Store) UpdateProperty(ctx context.Context, property *models.Property) error {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return err
	}
	if property.TenantID != tenantID {
		return ErrNotFound
	}
	// The preloaded Category is read-only context; only property columns move.
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(property).Error
}

func (s *Store) DeleteProperty(ctx context.Context, id uuid.UUID) error {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Property{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
