package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bedroomsSchema = Schema{
	{Name: "bedrooms", Type: TypeNumber, Required: true},
}

func kindOf(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	return verr
}

func TestValidateMissingRequired(t *testing.T) {
	_, err := Validate(map[string]any{}, bedroomsSchema)
	verr := kindOf(t, err)
	assert.Equal(t, KindMissingRequired, verr.Kind)
	assert.Equal(t, "bedrooms", verr.Field)
}

func TestValidateTypeMismatch(t *testing.T) {
	_, err := Validate(map[string]any{"bedrooms": "three"}, bedroomsSchema)
	verr := kindOf(t, err)
	assert.Equal(t, KindTypeMismatch, verr.Kind)
	assert.Equal(t, "bedrooms", verr.Field)
	assert.Equal(t, TypeNumber, verr.Expected)
	assert.Equal(t, "string", verr.Actual)
}

func TestValidateUnknownField(t *testing.T) {
	_, err := Validate(map[string]any{"bedrooms": 3, "pool": true}, bedroomsSchema)
	verr := kindOf(t, err)
	assert.Equal(t, KindUnknownField, verr.Kind)
	assert.Equal(t, "pool", verr.Field)
}

func TestValidateAcceptsAndPreservesBag(t *testing.T) {
	bag, err := Validate(map[string]any{"bedrooms": 3}, bedroomsSchema)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"bedrooms": float64(3)}, normalize(bag.RawMap()))
}

func TestValidateEmptySchemaFailsClosed(t *testing.T) {
	for _, s := range []Schema{nil, {}} {
		_, err := Validate(map[string]any{"anything": "x"}, s)
		assert.Equal(t, KindSchemaNotConfigured, kindOf(t, err).Kind)

		// Even an empty bag is rejected until a schema exists.
		_, err = Validate(nil, s)
		assert.Equal(t, KindSchemaNotConfigured, kindOf(t, err).Kind)
	}
}

func TestValidateTable(t *testing.T) {
	full := Schema{
		{Name: "bedrooms", Type: TypeNumber, Required: true},
		{Name: "furnished", Type: TypeBoolean, Required: false},
		{Name: "heating", Type: TypeString, Required: true},
	}

	tests := []struct {
		name     string
		attrs    map[string]any
		wantKind ErrorKind // "" means accepted
		wantFld  string
	}{
		{"all present", map[string]any{"bedrooms": 2, "furnished": true, "heating": "gas"}, "", ""},
		{"optional omitted", map[string]any{"bedrooms": 2.5, "heating": "electric"}, "", ""},
		{"required string missing", map[string]any{"bedrooms": 2}, KindMissingRequired, "heating"},
		{"bool given number", map[string]any{"bedrooms": 2, "furnished": 1, "heating": "gas"}, KindTypeMismatch, "furnished"},
		{"number given bool", map[string]any{"bedrooms": true, "heating": "gas"}, KindTypeMismatch, "bedrooms"},
		{"nil counts as absent", map[string]any{"bedrooms": 2, "furnished": nil, "heating": "gas"}, "", ""},
		{"nil absent but required", map[string]any{"bedrooms": nil, "heating": "gas"}, KindMissingRequired, "bedrooms"},
		{"non-scalar value", map[string]any{"bedrooms": []any{1}, "heating": "gas"}, KindTypeMismatch, "bedrooms"},
		// Declaration order decides which failure surfaces first.
		{"first declared failure wins", map[string]any{"furnished": "yes"}, KindMissingRequired, "bedrooms"},
		// Unknown keys surface only once every declared field passed.
		{"schema pass precedes unknown scan", map[string]any{"garage": true}, KindMissingRequired, "bedrooms"},
		{"unknown after clean pass", map[string]any{"bedrooms": 1, "heating": "gas", "garage": true}, KindUnknownField, "garage"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bag, err := Validate(tc.attrs, full)
			if tc.wantKind == "" {
				require.NoError(t, err)
				require.NotNil(t, bag)
				return
			}
			verr := kindOf(t, err)
			assert.Equal(t, tc.wantKind, verr.Kind)
			assert.Equal(t, tc.wantFld, verr.Field)
		})
	}
}

// Validating an already-accepted bag against the same schema succeeds again and
// yields the identical bag.
func TestValidateIdempotent(t *testing.T) {
	attrs := map[string]any{"bedrooms": float64(4)}
	first, err := Validate(attrs, bedroomsSchema)
	require.NoError(t, err)

	second, err := Validate(first.RawMap(), bedroomsSchema)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFieldTypeUnmarshalRejectsUnknown(t *testing.T) {
	var f AttributeField
	err := json.Unmarshal([]byte(`{"name":"x","type":"date","required":false}`), &f)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","type":"Number","required":true}`), &f))
	assert.Equal(t, TypeNumber, f.Type)
}

func TestSchemaCheck(t *testing.T) {
	assert.NoError(t, Schema{{Name: "a", Type: TypeString}}.Check())
	assert.Error(t, Schema{{Name: "", Type: TypeString}}.Check())
	assert.Error(t, Schema{{Name: "a", Type: "date"}}.Check())
	assert.Error(t, Schema{{Name: "a", Type: TypeString}, {Name: "a", Type: TypeNumber}}.Check())
}

// normalize pushes integer raws through JSON so the comparison sees the same
// float64 shape the store round-trips.
func normalize(m map[string]any) map[string]any {
	b, _ := json.Marshal(m)
	var out map[string]any
	_ = json.Unmarshal(b, &out)
	return out
}
