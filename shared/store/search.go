package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/search"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
)

// SearchProperties executes a built FilterSpec and returns the matching page
// plus the total match count. The tenant predicate comes from the spec itself,
// captured when the filter was built; a spec without one is refused.
func (s *Store) SearchProperties(ctx context.Context, spec *search.FilterSpec) ([]models.Property, int64, error) {
	if spec == nil || spec.TenantID == "" {
		return nil, 0, tenantscope.ErrTenantRequired
	}

	q := s.db.WithContext(ctx).Model(&models.Property{}).
		Where("tenant_id = ?", spec.TenantID)

	if spec.MinPrice != nil {
		q = q.Where("price >= ?", *spec.MinPrice)
	}
	if spec.MaxPrice != nil {
		q = q.Where("price <= ?", *spec.MaxPrice)
	}
	if spec.Location != "" {
		q = q.Where("LOWER(location) LIKE ?", "%"+strings.ToLower(spec.Location)+"%")
	}
	if spec.CategoryID != nil {
		q = q.Where("category_id = ?", *spec.CategoryID)
	}
	if spec.Status != nil {
		q = q.Where("status = ?", *spec.Status)
	}

	q, err := s.applyAttributeFilter(q, spec)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	dir := "DESC"
	if !spec.SortDesc {
		dir = "ASC"
	}

	var properties []models.Property
	if err := q.Preload("Category").
		Order(fmt.Sprintf("%s %s", spec.SortColumn, dir)).
		Offset(spec.Page * spec.Size).
		Limit(spec.Size).
		Find(&properties).Error; err != nil {
		return nil, 0, err
	}
	return properties, total, nil
}

// applyAttributeFilter adds the AND-combined attribute predicates. On postgres
// this is a single jsonb containment check; the sqlite path (used by tests)
// compares each key through json_extract.
func (s *Store) applyAttributeFilter(q *gorm.DB, spec *search.FilterSpec) (*gorm.DB, error) {
	if len(spec.Attributes) == 0 {
		return q, nil
	}

	if s.db.Dialector.Name() == "postgres" {
		payload, err := json.Marshal(spec.Attributes.RawMap())
		if err != nil {
			return nil, fmt.Errorf("failed to encode attribute predicates: %w", err)
		}
		return q.Where("attributes @> ?", string(payload)), nil
	}

	for key, value := range spec.Attributes {
		q = q.Where("json_extract(attributes, ?) = ?", "$."+key, value.Raw())
	}
	return q, nil
}
