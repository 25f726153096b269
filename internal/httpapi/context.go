package httpapi

import (
	"context"

	"github.com/example/campus-booking/internal/booking"
)

type contextKey string

const (
	principalContextKey     contextKey = "principal"
	reservationIDContextKey contextKey = "reservation_id"
	resourceIDContextKey    contextKey = "resource_id"
)

// ContextWithPrincipal returns a derived context containing the verified caller.
func ContextWithPrincipal(ctx context.Context, principal booking.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// PrincipalFromContext extracts the verified caller from context if available.
func PrincipalFromContext(ctx context.Context) (booking.Principal, bool) {
	principal, ok := ctx.Value(principalContextKey).(booking.Principal)
	return principal, ok
}

// ContextWithReservationID injects the reservation identifier resolved from the request path.
func ContextWithReservationID(ctx context.Context, reservationID string) context.Context {
	return context.WithValue(ctx, reservationIDContextKey, reservationID)
}

// ReservationIDFromContext extracts a reservation identifier previously associated with the context.
func ReservationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(reservationIDContextKey).(string)
	return id, ok
}

// ContextWithResourceID injects the resource identifier resolved from the request path.
func ContextWithResourceID(ctx context.Context, resourceID string) context.Context {
	return context.WithValue(ctx, resourceIDContextKey, resourceID)
}

// ResourceIDFromContext extracts a resource identifier previously associated with the context.
func ResourceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(resourceIDContextKey).(string)
	return id, ok
}
