package search

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assetmarket/go-marketplace/shared/models"
	"github.com/assetmarket/go-marketplace/shared/schema"
	"github.com/assetmarket/go-marketplace/shared/tenantscope"
)

type fakeResolver struct {
	categories map[string]*models.Category
}

func (r *fakeResolver) ResolveCategory(_ context.Context, name string) (*models.Category, error) {
	return r.categories[name], nil
}

type faultyResolver struct {
	err error
}

func (r *faultyResolver) ResolveCategory(context.Context, string) (*models.Category, error) {
	return nil, r.err
}

func scoped(tenant string) context.Context {
	return tenantscope.With(context.Background(), tenant)
}

func residentialResolver() (*fakeResolver, uuid.UUID) {
	id := uuid.New()
	return &fakeResolver{categories: map[string]*models.Category{
		"Residential": {
			ID:       id,
			TenantID: "acme",
			Name:     "Residential",
			AttributeSchema: schema.Schema{
				{Name: "bedrooms", Type: schema.TypeNumber, Required: true},
				{Name: "area", Type: schema.TypeNumber},
				{Name: "furnished", Type: schema.TypeBoolean},
				{Name: "heating", Type: schema.TypeString},
			},
		},
	}}, id
}

func TestBuildRequiresTenantScope(t *testing.T) {
	_, err := Build(context.Background(), Criteria{}, &fakeResolver{})
	assert.ErrorIs(t, err, tenantscope.ErrTenantRequired)
}

func TestBuildCapturesTenantAndDefaults(t *testing.T) {
	spec, err := Build(scoped("acme"), Criteria{}, &fakeResolver{})
	require.NoError(t, err)

	assert.Equal(t, "acme", spec.TenantID)
	assert.Equal(t, "created_at", spec.SortColumn)
	assert.True(t, spec.SortDesc)
	assert.Equal(t, DefaultPage, spec.Page)
	assert.Equal(t, DefaultSize, spec.Size)
	assert.Nil(t, spec.MinPrice)
	assert.Nil(t, spec.MaxPrice)
	assert.Nil(t, spec.Status)
	assert.Nil(t, spec.CategoryID)
}

func TestBuildPriceBounds(t *testing.T) {
	spec, err := Build(scoped("acme"), Criteria{MinPrice: "500000", MaxPrice: "900000.50"}, &fakeResolver{})
	require.NoError(t, err)
	require.NotNil(t, spec.MinPrice)
	require.NotNil(t, spec.MaxPrice)
	assert.Equal(t, 500000.0, *spec.MinPrice)
	assert.Equal(t, 900000.5, *spec.MaxPrice)
}

func TestBuildMalformedBound(t *testing.T) {
	_, err := Build(scoped("acme"), Criteria{MinPrice: "cheap"}, &fakeResolver{})
	var ferr *FilterError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, KindInvalidFilterValue, ferr.Kind)
	assert.Equal(t, "minPrice", ferr.Field)
}

func TestBuildStatus(t *testing.T) {
	spec, err := Build(scoped("acme"), Criteria{Status: "available"}, &fakeResolver{})
	require.NoError(t, err)
	require.NotNil(t, spec.Status)
	assert.Equal(t, models.StatusAvailable, *spec.Status)

	_, err = Build(scoped("acme"), Criteria{Status: "RENTED"}, &fakeResolver{})
	var ferr *FilterError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, KindInvalidFilterValue, ferr.Kind)
}

func TestBuildSortAllowList(t *testing.T) {
	for logical, column := range map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"price":     "price",
		"title":     "title",
		"location":  "location",
	} {
		spec, err := Build(scoped("acme"), Criteria{SortBy: logical, SortDir: "asc"}, &fakeResolver{})
		require.NoError(t, err)
		assert.Equal(t, column, spec.SortColumn)
		assert.False(t, spec.SortDesc)
	}

	// Anything off the allow-list is rejected, never passed through.
	for _, bad := range []string{"price; DROP TABLE properties", "tenant_id", "attributes"} {
		_, err := Build(scoped("acme"), Criteria{SortBy: bad}, &fakeResolver{})
		var ferr *FilterError
		require.ErrorAs(t, err, &ferr)
		assert.Equal(t, KindInvalidSortField, ferr.Kind)
	}
}

func TestBuildPaginationClamping(t *testing.T) {
	spec, err := Build(scoped("acme"), Criteria{Page: -3, Size: 1000}, &fakeResolver{})
	require.NoError(t, err)
	assert.Equal(t, 0, spec.Page)
	assert.Equal(t, MaxSize, spec.Size)
}

func TestBuildResolvesCategory(t *testing.T) {
	resolver, id := residentialResolver()
	spec, err := Build(scoped("acme"), Criteria{CategoryName: "Residential"}, resolver)
	require.NoError(t, err)
	require.NotNil(t, spec.CategoryID)
	assert.Equal(t, id, *spec.CategoryID)
}

// An unresolved category name drops the category dimension instead of failing
// the whole search.
func TestBuildUnknownCategoryFallsThrough(t *testing.T) {
	resolver, _ := residentialResolver()
	spec, err := Build(scoped("acme"), Criteria{
		CategoryName: "Commercial",
		Attributes:   map[string]string{"bedrooms": "3"},
	}, resolver)
	require.NoError(t, err)
	assert.Nil(t, spec.CategoryID)
	// With no schema to consult, predicate values stay raw strings.
	assert.Equal(t, schema.StringValue("3"), spec.Attributes["bedrooms"])
}

// Only a missing name falls through; a resolver that cannot answer at all
// fails the build instead of producing an unfiltered search.
func TestBuildResolverFaultSurfaces(t *testing.T) {
	boom := errors.New("pq: connection refused")
	_, err := Build(scoped("acme"), Criteria{CategoryName: "Residential"}, &faultyResolver{err: boom})
	assert.ErrorIs(t, err, boom)
}

func TestBuildAttributeCoercion(t *testing.T) {
	resolver, _ := residentialResolver()

	tests := []struct {
		name string
		key  string
		raw  string
		want schema.Value
	}{
		{"number without decimal point parses as integer", "bedrooms", "3", schema.NumberValue(3)},
		{"number with decimal point parses as float", "area", "72.5", schema.NumberValue(72.5)},
		{"unparseable number falls back to raw string", "bedrooms", "three", schema.StringValue("three")},
		{"boolean true any case", "furnished", "TRUE", schema.BoolValue(true)},
		{"boolean anything else is false", "furnished", "si", schema.BoolValue(false)},
		{"string stays raw", "heating", "gas", schema.StringValue("gas")},
		{"undeclared key stays raw", "garage", "2", schema.StringValue("2")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := Build(scoped("acme"), Criteria{
				CategoryName: "Residential",
				Attributes:   map[string]string{tc.key: tc.raw},
			}, resolver)
			require.NoError(t, err)
			assert.Equal(t, tc.want, spec.Attributes[tc.key])
		})
	}
}

// The spec is the same whatever order the dimensions were supplied in; building
// twice from identical criteria is deterministic.
func TestBuildDeterministic(t *testing.T) {
	resolver, _ := residentialResolver()
	crit := Criteria{
		MinPrice:     "100",
		MaxPrice:     "900",
		Location:     "riverside",
		CategoryName: "Residential",
		Attributes:   map[string]string{"bedrooms": "2", "furnished": "true"},
		SortBy:       "price",
		SortDir:      "ASC",
		Page:         1,
		Size:         10,
	}

	a, err := Build(scoped("acme"), crit, resolver)
	require.NoError(t, err)
	b, err := Build(scoped("acme"), crit, resolver)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
