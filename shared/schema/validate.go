package schema

import (
	"fmt"
	"sort"
)

// ErrorKind classifies a validation failure.
type ErrorKind string

const (
	KindMissingRequired     ErrorKind = "missing_required"
	KindTypeMismatch        ErrorKind = "type_mismatch"
	KindUnknownField        ErrorKind = "unknown_field"
	KindSchemaNotConfigured ErrorKind = "schema_not_configured"
)

// ValidationError describes why an attribute bag was rejected. Field, Expected
// and Actual are filled where they apply so the caller can correct the request.
type ValidationError struct {
	Kind     ErrorKind
	Field    string
	Expected FieldType
	Actual   string
}

func (e *ValidationError) Error() string {
	switch e.Kind {
	case KindMissingRequired:
		return fmt.Sprintf("attribute field '%s' is required for this category", e.Field)
	case KindTypeMismatch:
		return fmt.Sprintf("attribute field '%s' must be a %s, got %s", e.Field, e.Expected, e.Actual)
	case KindUnknownField:
		return fmt.Sprintf("attribute field '%s' is not recognized for this category", e.Field)
	case KindSchemaNotConfigured:
		return "category has no attribute schema defined; update the category first"
	}
	return "invalid attributes"
}

// Validate checks a submitted attribute bag against a category's schema and
// returns the accepted bag as typed values. Values are never coerced here; the
// bag that comes out carries exactly the scalars that went in.
//
// The check stops at the first failure. Schema fields are walked in declaration
// order, so a bag with several problems reports the earliest declared one; the
// unknown-key scan runs only after every declared field has passed.
//
// A category whose schema is empty or absent accepts nothing: defining the
// schema is a precondition for attributed properties, and submissions against
// an unconfigured category fail closed with KindSchemaNotConfigured.
func Validate(attrs map[string]any, s Schema) (Bag, error) {
	if len(s) == 0 {
		return nil, &ValidationError{Kind: KindSchemaNotConfigured}
	}

	bag := make(Bag, len(attrs))
	for _, field := range s {
		raw, present := attrs[field.Name]
		if !present || raw == nil {
			if field.Required {
				return nil, &ValidationError{Kind: KindMissingRequired, Field: field.Name}
			}
			continue
		}

		val, scalar := valueOf(raw)
		if !scalar || val.Type() != field.Type {
			return nil, &ValidationError{
				Kind:     KindTypeMismatch,
				Field:    field.Name,
				Expected: field.Type,
				Actual:   runtimeType(raw),
			}
		}
		bag[field.Name] = val
	}

	// Strict subset check: keys the schema does not declare are rejected, not
	// ignored. Sorted so the reported key is deterministic.
	unknown := make([]string, 0)
	for key := range attrs {
		if _, known := s.Field(key); !known {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &ValidationError{Kind: KindUnknownField, Field: unknown[0]}
	}

	return bag, nil
}

// runtimeType names a submitted value's type the way the error messages speak
// about types: string, number, boolean, or the Go type for everything else.
func runtimeType(raw any) string {
	if val, ok := valueOf(raw); ok {
		return string(val.Type())
	}
	if raw == nil {
		return "null"
	}
	return fmt.Sprintf("%T", raw)
}
