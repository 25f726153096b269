package persistence

import (
	"context"
	"time"
)

// ReservationFilter narrows reservation queries.
type ReservationFilter struct {
	ResourceID   string
	RequesterID  string
	Statuses     []string
	StartsBefore *time.Time
	EndsAfter    *time.Time
}

// ReservationTx is the slice of the reservation repository available inside
// an open transaction. The overlap query and the write it guards must run
// through the same ReservationTx so they observe one database snapshot.
type ReservationTx interface {
	GetReservation(id string) (Reservation, error)
	InsertReservation(reservation Reservation) error
	UpdateReservation(reservation Reservation) error
	ListApprovedOverlapping(resourceID string, start, end time.Time, excludeID string) ([]Reservation, error)
}

// ReservationRepository stores reservations.
type ReservationRepository interface {
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	ListApprovedOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]Reservation, error)
	WithTransaction(ctx context.Context, fn func(tx ReservationTx) error) error
	MarkCompleted(ctx context.Context, reference time.Time) (int64, error)
}

// ResourceRepository stores bookable resources.
type ResourceRepository interface {
	CreateResource(ctx context.Context, resource Resource) error
	UpdateResource(ctx context.Context, resource Resource) error
	GetResource(ctx context.Context, id string) (Resource, error)
	ListResources(ctx context.Context) ([]Resource, error)
	DeleteResource(ctx context.Context, id string) error
}
