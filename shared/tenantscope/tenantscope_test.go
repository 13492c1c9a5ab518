package tenantscope

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentAbsent(t *testing.T) {
	_, ok := Current(context.Background())
	assert.False(t, ok)
}

func TestRequireAbsent(t *testing.T) {
	_, err := Require(context.Background())
	assert.ErrorIs(t, err, ErrTenantRequired)
}

func TestWithAndCurrent(t *testing.T) {
	ctx := With(context.Background(), "acme")

	id, ok := Current(ctx)
	require.True(t, ok)
	assert.Equal(t, "acme", id)

	id, err := Require(ctx)
	require.NoError(t, err)
	assert.Equal(t, "acme", id)
}

func TestEmptyTenantIsAbsent(t *testing.T) {
	ctx := With(context.Background(), "")
	_, err := Require(ctx)
	assert.ErrorIs(t, err, ErrTenantRequired)
}

// Two requests handled at the same time each carry their own scope; neither can
// observe the other's tenant.
func TestSiblingContextsAreIndependent(t *testing.T) {
	parent := context.Background()
	ctx1 := With(parent, "tenant-one")
	ctx2 := With(parent, "tenant-two")

	id1, _ := Current(ctx1)
	id2, _ := Current(ctx2)
	assert.Equal(t, "tenant-one", id1)
	assert.Equal(t, "tenant-two", id2)

	_, ok := Current(parent)
	assert.False(t, ok, "parent context must stay unscoped")
}

func TestRescopingShadowsOuterTenant(t *testing.T) {
	ctx := With(With(context.Background(), "outer"), "inner")
	id, _ := Current(ctx)
	assert.Equal(t, "inner", id)
}
