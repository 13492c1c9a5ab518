// Package search turns optional listing-search criteria into a single typed,
// tenant-scoped filter specification.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/schema"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
)

const (
	DefaultPage = 0
	DefaultSize = 20
	MaxSize     = 100
)

// ErrorKind classifies a filter-building failure.
type ErrorKind string

const (
	KindInvalidSortField   ErrorKind = "invalid_sort_field"
	KindInvalidFilterValue ErrorKind = "invalid_filter_value"
)

// FilterError describes why search criteria could not be turned into a filter.
type FilterError struct {
	Kind   ErrorKind
	Field  string
	Detail string
}

func (e *FilterError) Error() string {
	switch e.Kind {
	case KindInvalidSortField:
		return fmt.Sprintf("unsupported sort field '%s'", e.Field)
	case KindInvalidFilterValue:
		return fmt.Sprintf("invalid value for '%s': %s", e.Field, e.Detail)
	}
	return "invalid search criteria"
}

// Criteria is the raw, all-optional search input as it comes off the query
// string. Numeric bounds stay strings here so malformed input is reported by
// this package rather than lost in transport parsing.
type Criteria struct {
	MinPrice     string
	MaxPrice     string
	Location     string
	CategoryName string
	Status       string
	Attributes   map[string]string
	SortBy       string
	SortDir      string
	Page         int
	Size         int
}

// FilterSpec is the fully resolved, type-coerced constraint set a search
// executes. The tenant identifier is read from the ambient scope once at build
// time and is part of the spec from then on; a retained spec can never be
// executed unscoped.
type FilterSpec struct {
	TenantID   string
	MinPrice   *float64
	MaxPrice   *float64
	Location   string
	CategoryID *uuid.UUID
	Status     *models.PropertyStatus
	Attributes schema.Bag
	SortColumn string
	SortDesc   bool
	Page       int
	Size       int
}

// CategoryResolver resolves a category name within the current tenant scope.
// A name with no category in the tenant resolves to (nil, nil); a non-nil
// error means the lookup itself failed and is surfaced, not swallowed. The
// catalog store satisfies this.
type CategoryResolver interface {
	ResolveCategory(ctx context.Context, name string) (*models.Category, error)
}

// Only these logical names may be sorted on; each maps to the storage column it
// stands for. User-controlled identifiers never reach the query verbatim.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"price":     "price",
	"title":     "title",
	"location":  "location",
}

// Build resolves criteria against the current tenant into a FilterSpec.
//
// A category name that does not resolve within the tenant is logged and
// dropped rather than failing the search, so results come back unfiltered by
// category. A resolver fault is not a missing name and fails the build. Attribute predicate values are coerced using the resolved
// category's declared field types; predicates whose key the schema does not
// declare, or whose category is unresolved, carry the raw string. All
// dimensions combine with AND.
func Build(ctx context.Context, crit Criteria, categories CategoryResolver) (*FilterSpec, error) {
	tenantID, err := tenantscope.Require(ctx)
	if err != nil {
		return nil, err
	}

	spec := &FilterSpec{
		TenantID: tenantID,
		Location: strings.TrimSpace(crit.Location),
		SortDesc: true,
		Page:     crit.Page,
		Size:     crit.Size,
	}

	if spec.MinPrice, err = parseBound("minPrice", crit.MinPrice); err != nil {
		return nil, err
	}
	if spec.MaxPrice, err = parseBound("maxPrice", crit.MaxPrice); err != nil {
		return nil, err
	}

	if crit.Status != "" {
		status := models.PropertyStatus(strings.ToUpper(crit.Status))
		if !status.Valid() {
			return nil, &FilterError{Kind: KindInvalidFilterValue, Field: "status", Detail: crit.Status}
		}
		spec.Status = &status
	}

	sortBy := crit.SortBy
	if sortBy == "" {
		sortBy = "createdAt"
	}
	column, ok := sortColumns[sortBy]
	if !ok {
		return nil, &FilterError{Kind: KindInvalidSortField, Field: sortBy}
	}
	spec.SortColumn = column
	if strings.EqualFold(crit.SortDir, "ASC") {
		spec.SortDesc = false
	}

	if spec.Page < 0 {
		spec.Page = DefaultPage
	}
	if spec.Size <= 0 {
		spec.Size = DefaultSize
	}
	if spec.Size > MaxSize {
		spec.Size = MaxSize
	}

	var category *models.Category
	if crit.CategoryName != "" {
		category, err = categories.ResolveCategory(ctx, crit.CategoryName)
		if err != nil {
			return nil, err
		}
		if category == nil {
			logrus.WithFields(logrus.Fields{
				"tenant_id": tenantID,
				"category":  crit.CategoryName,
			}).Warn("Search with unresolved category, proceeding without category filter")
		} else {
			id := category.ID
			spec.CategoryID = &id
		}
	}

	if len(crit.Attributes) > 0 {
		spec.Attributes = make(schema.Bag, len(crit.Attributes))
		for key, raw := range crit.Attributes {
			spec.Attributes[key] = coercePredicate(category, key, raw)
		}
	}

	return spec, nil
}

// coercePredicate converts one attribute predicate's string value using the
// declared field type, falling back to the raw string whenever the category is
// unresolved, the key undeclared, or the value unparseable.
func coercePredicate(category *models.Category, key, raw string) schema.Value {
	if category == nil {
		return schema.StringValue(raw)
	}
	field, ok := category.AttributeSchema.Field(key)
	if !ok {
		return schema.StringValue(raw)
	}

	switch field.Type {
	case schema.TypeNumber:
		if strings.Contains(raw, ".") {
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				return schema.NumberValue(f)
			}
		} else if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return schema.NumberValue(float64(n))
		}
		return schema.StringValue(raw)
	case schema.TypeBoolean:
		return schema.BoolValue(strings.EqualFold(raw, "true"))
	default:
		return schema.StringValue(raw)
	}
}

func parseBound(name, raw string) (*float64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &FilterError{Kind: KindInvalidFilterValue, Field: name, Detail: raw}
	}
	return &f, nil
}
