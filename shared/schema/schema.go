// Package schema models the administrator-defined attribute schema a category
// imposes on its properties, and validates free-form attribute bags against it.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldType is the declared type of a schema field. Exactly three types exist;
// anything else is rejected at unmarshal time.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
)

// Valid reports whether t is one of the three declared types.
func (t FieldType) Valid() bool {
	switch t {
	case TypeString, TypeNumber, TypeBoolean:
		return true
	}
	return false
}

// UnmarshalJSON rejects any type name outside the closed set.
func (t *FieldType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ft := FieldType(strings.ToLower(s))
	if !ft.Valid() {
		return fmt.Errorf("unknown attribute field type %q", s)
	}
	*t = ft
	return nil
}

// AttributeField is a single typed field declaration in a category's schema.
type AttributeField struct {
	Name     string    `json:"name"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// Schema is a category's ordered list of field declarations. Order is preserved
// for display and determines which failure a bad submission reports first; it
// does not change whether a bag is accepted.
type Schema []AttributeField

// Field returns the declaration for name, if one exists.
func (s Schema) Field(name string) (AttributeField, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return AttributeField{}, false
}

// Check verifies the schema definition itself: non-empty unique field names and
// valid types. Called when an administrator creates or edits a category.
func (s Schema) Check() error {
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema field with empty name")
		}
		if !f.Type.Valid() {
			return fmt.Errorf("schema field %q has unknown type %q", f.Name, f.Type)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema field %q declared more than once", f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}
