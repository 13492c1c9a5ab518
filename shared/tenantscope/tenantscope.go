// Package tenantscope carries the current tenant identity through a request's
// context. The scope is established once by the request-entry middleware and is
// read by every data access below it; because it lives on the request context it
// is released automatically on every exit path and can never leak into another
// request handled concurrently.
package tenantscope

import (
	"context"
	"errors"
)

// ErrTenantRequired is returned when a tenant-scoped operation runs without an
// established tenant scope.
var ErrTenantRequired = errors.New("no tenant resolved for this request")

type ctxKey struct{}

// With returns a copy of ctx scoped to the given tenant.
func With(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, ctxKey{}, tenantID)
}

// Current returns the tenant the context is scoped to, if any.
func Current(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

// Require returns the tenant the context is scoped to, or ErrTenantRequired.
// Store and filter-building code calls this before touching anything durable so
// that an unscoped request fails before any data access happens.
func Require(ctx context.Context) (string, error) {
	id, ok := Current(ctx)
	if !ok {
		return "", ErrTenantRequired
	}
	return id, nil
}
