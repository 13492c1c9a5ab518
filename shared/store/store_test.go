package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/assetmarket/go-marketplace/shared/config"
	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/schema"
	"github.com/assetmarket/go-marketplace/shared/search"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every query on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, config.MigrateAll(db))
	return New(db)
}

func scoped(tenant string) context.Context {
	return tenantscope.With(context.Background(), tenant)
}

var residentialSchema = schema.Schema{
	{Name: "bedrooms", Type: schema.TypeNumber, Required: true},
	{Name: "heating", Type: schema.TypeString},
}

func seedCategory(t *testing.T, s *Store, tenant, name string) *models.Category {
	t.Helper()
	category := &models.Category{Name: name, AttributeSchema: residentialSchema}
	require.NoError(t, s.CreateCategory(scoped(tenant), category))
	return category
}

func seedProperty(t *testing.T, s *Store, tenant string, categoryID uuid.UUID, title string, price float64, location string, attrs map[string]any) *models.Property {
	t.Helper()
	property := &models.Property{
		CategoryID: categoryID,
		Title:      title,
		Price:      price,
		Location:   location,
		Status:     models.StatusAvailable,
		Attributes: attrs,
	}
	require.NoError(t, s.CreateProperty(scoped(tenant), property))
	return property
}

func TestOperationsRequireTenantScope(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.ListCategories(ctx)
	assert.ErrorIs(t, err, tenantscope.ErrTenantRequired)
	assert.ErrorIs(t, s.CreateCategory(ctx, &models.Category{Name: "x"}), tenantscope.ErrTenantRequired)
	_, err = s.PropertyByID(ctx, uuid.New())
	assert.ErrorIs(t, err, tenantscope.ErrTenantRequired)
	_, _, err = s.SearchProperties(ctx, &search.FilterSpec{})
	assert.ErrorIs(t, err, tenantscope.ErrTenantRequired)
}

func TestCategoryNameUniquePerTenant(t *testing.T) {
	s := newTestStore(t)
	seedCategory(t, s, "acme", "Residential")

	err := s.CreateCategory(scoped("acme"), &models.Category{Name: "Residential"})
	assert.ErrorIs(t, err, ErrDuplicateCategory)

	// Another tenant may reuse the name.
	assert.NoError(t, s.CreateCategory(scoped("globex"), &models.Category{Name: "Residential"}))
}

func TestCrossTenantReadsLookLikeMissingRows(t *testing.T) {
	s := newTestStore(t)
	category := seedCategory(t, s, "acme", "Residential")
	property := seedProperty(t, s, "acme", category.ID, "Loft", 100, "Downtown", nil)

	_, err := s.CategoryByID(scoped("globex"), category.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.CategoryByName(scoped("globex"), "Residential")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.PropertyByID(scoped("globex"), property.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteProperty(scoped("globex"), property.ID), ErrNotFound)

	// The rightful tenant still sees everything.
	got, err := s.PropertyByID(scoped("acme"), property.ID)
	require.NoError(t, err)
	assert.Equal(t, "Loft", got.Title)
}

// The resolver view treats a missing name as no result, not a fault, while the
// strict getter keeps reporting it; an unscoped lookup is still refused.
func TestResolveCategoryMissingIsNotAFault(t *testing.T) {
	s := newTestStore(t)
	seedCategory(t, s, "acme", "Residential")

	category, err := s.ResolveCategory(scoped("globex"), "Residential")
	require.NoError(t, err)
	assert.Nil(t, category)

	_, err = s.CategoryByName(scoped("globex"), "Residential")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ResolveCategory(context.Background(), "Residential")
	assert.ErrorIs(t, err, tenantscope.ErrTenantRequired)

	resolved, err := s.ResolveCategory(scoped("acme"), "Residential")
	require.NoError(t, err)
	require.NotNil(t, resolved)
	assert.Equal(t, "Residential", resolved.Name)
}

func TestDeleteCategoryGuard(t *testing.T) {
	s := newTestStore(t)
	category := seedCategory(t, s, "acme", "Residential")
	property := seedProperty(t, s, "acme", category.ID, "Loft", 100, "Downtown", nil)

	assert.ErrorIs(t, s.DeleteCategory(scoped("acme"), category.ID), ErrCategoryInUse)

	require.NoError(t, s.DeleteProperty(scoped("acme"), property.ID))
	assert.NoError(t, s.DeleteCategory(scoped("acme"), category.ID))
}

func TestUpdatePropertyCrossTenantRefused(t *testing.T) {
	s := newTestStore(t)
	category := seedCategory(t, s, "acme", "Residential")
	property := seedProperty(t, s, "acme", category.ID, "Loft", 100, "Downtown", nil)

	property.Title = "Hijacked"
	assert.ErrorIs(t, s.UpdateProperty(scoped("globex"), property), ErrNotFound)
}

// Editing a category's schema never rewrites bags already stored; they are
// revalidated only on the property's next write.
func TestSchemaEditLeavesStoredBagsAlone(t *testing.T) {
	s := newTestStore(t)
	category := seedCategory(t, s, "acme", "Residential")
	property := seedProperty(t, s, "acme", category.ID, "Loft", 100, "Downtown",
		map[string]any{"bedrooms": float64(3)})

	category.AttributeSchema = schema.Schema{{Name: "floors", Type: schema.TypeNumber, Required: true}}
	require.NoError(t, s.UpdateCategory(scoped("acme"), category))

	got, err := s.PropertyByID(scoped("acme"), property.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"bedrooms": float64(3)}, got.Attributes)
}

func seedSearchFixture(t *testing.T, s *Store) uuid.UUID {
	t.Helper()
	category := seedCategory(t, s, "acme", "Residential")
	seedProperty(t, s, "acme", category.ID, "Starter", 200000, "Northside", map[string]any{"bedrooms": float64(2)})
	seedProperty(t, s, "acme", category.ID, "Family", 400000, "Riverside", map[string]any{"bedrooms": float64(3)})
	seedProperty(t, s, "acme", category.ID, "Villa", 600000, "Riverside Park", map[string]any{"bedrooms": float64(4)})
	seedProperty(t, s, "acme", category.ID, "Estate", 800000, "Hillcrest", map[string]any{"bedrooms": float64(6)})

	// A second tenant with deliberately identical-looking data.
	other := seedCategory(t, s, "globex", "Residential")
	seedProperty(t, s, "globex", other.ID, "Starter", 200000, "Northside", map[string]any{"bedrooms": float64(2)})
	seedProperty(t, s, "globex", other.ID, "Estate", 800000, "Hillcrest", map[string]any{"bedrooms": float64(6)})
	return category.ID
}

func buildSpec(t *testing.T, s *Store, tenant string, crit search.Criteria) *search.FilterSpec {
	t.Helper()
	spec, err := search.Build(scoped(tenant), crit, s)
	require.NoError(t, err)
	return spec
}

func titles(properties []models.Property) []string {
	out := make([]string, len(properties))
	for i, p := range properties {
		out[i] = p.Title
	}
	return out
}

func TestSearchMinPriceBound(t *testing.T) {
	s := newTestStore(t)
	seedSearchFixture(t, s)

	spec := buildSpec(t, s, "acme", search.Criteria{MinPrice: "500000", SortBy: "price", SortDir: "ASC"})
	properties, total, err := s.SearchProperties(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, []string{"Villa", "Estate"}, titles(properties))
}

func TestSearchPriceRangeInclusive(t *testing.T) {
	s := newTestStore(t)
	seedSearchFixture(t, s)

	spec := buildSpec(t, s, "acme", search.Criteria{MinPrice: "400000", MaxPrice: "600000", SortBy: "price", SortDir: "ASC"})
	properties, _, err := s.SearchProperties(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"Family", "Villa"}, titles(properties))
}

func TestSearchLocationSubstringCaseInsensitive(t *testing.T) {
	s := newTestStore(t)
	seedSearchFixture(t, s)

	spec := buildSpec(t, s, "acme", search.Criteria{Location: "RIVER", SortBy: "price", SortDir: "ASC"})
	properties, _, err := s.SearchProperties(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"Family", "Villa"}, titles(properties))
}

func TestSearchAttributePredicateCoerced(t *testing.T) {
	s := newTestStore(t)
	seedSearchFixture(t, s)

	spec := buildSpec(t, s, "acme", search.Criteria{
		CategoryName: "Residential",
		Attributes:   map[string]string{"bedrooms": "3"},
	})
	properties, total, err := s.SearchProperties(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, []string{"Family"}, titles(properties))
}

// Whatever the criteria, a search built under one tenant's scope never
// surfaces another tenant's rows.
func TestSearchTenantIsolation(t *testing.T) {
	s := newTestStore(t)
	seedSearchFixture(t, s)

	for _, crit := range []search.Criteria{
		{},
		{MinPrice: "0"},
		{Location: "Hillcrest"},
		{CategoryName: "Residential"},
		{CategoryName: "Residential", Attributes: map[string]string{"bedrooms": "6"}},
	} {
		spec := buildSpec(t, s, "acme", crit)
		properties, _, err := s.SearchProperties(context.Background(), spec)
		require.NoError(t, err)
		for _, p := range properties {
			assert.Equal(t, "acme", p.TenantID)
		}
	}

	spec := buildSpec(t, s, "globex", search.Criteria{})
	_, total, err := s.SearchProperties(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestSearchPagination(t *testing.T) {
	s := newTestStore(t)
	seedSearchFixture(t, s)

	spec := buildSpec(t, s, "acme", search.Criteria{SortBy: "price", SortDir: "ASC", Page: 1, Size: 2})
	properties, total, err := s.SearchProperties(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Equal(t, []string{"Villa", "Estate"}, titles(properties))
}

func TestSearchSortByAllowListedColumn(t *testing.T) {
	s := newTestStore(t)
	category := seedCategory(t, s, "acme", "Residential")
	seedProperty(t, s, "acme", category.ID, "First", 1, "A", nil)
	seedProperty(t, s, "acme", category.ID, "Second", 2, "B", nil)

	spec := buildSpec(t, s, "acme", search.Criteria{SortBy: "title", SortDir: "DESC"})
	properties, _, err := s.SearchProperties(context.Background(), spec)
	require.NoError(t, err)
	assert.Equal(t, []string{"Second", "First"}, titles(properties))
}
