package booking

import (
	"context"
	"time"

	"github.com/example/campus-booking/internal/interval"
)

// Principal represents the pre-authorized caller invoking a service method.
// Authentication itself happens outside this core; the HTTP layer verifies
// the caller token and hands the resulting principal in.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Status is the lifecycle state of a reservation.
type Status string

const (
	// StatusPending awaits owner approval on a restricted resource.
	StatusPending Status = "pending"
	// StatusApproved is the only status that participates in conflict
	// detection.
	StatusApproved Status = "approved"
	// StatusDenied is terminal; set by owner/admin denial.
	StatusDenied Status = "denied"
	// StatusCancelled is terminal; set by requester or admin.
	StatusCancelled Status = "cancelled"
	// StatusCompleted is terminal; set by the completion sweep once the
	// reservation end has passed.
	StatusCompleted Status = "completed"
)

// Valid reports whether the status is one of the five legal states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether no further transition is legal out of the status.
func (s Status) Terminal() bool {
	switch s {
	case StatusDenied, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo encodes the lifecycle state machine:
//
//	pending  -> approved | denied
//	approved -> cancelled | completed
//
// Everything else is illegal.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusApproved || next == StatusDenied
	case StatusApproved:
		return next == StatusCancelled || next == StatusCompleted
	}
	return false
}

// Reservation is the central entity of the booking core. Start and End are
// always UTC and form the half-open interval [Start, End).
type Reservation struct {
	ID            string
	ResourceID    string
	RequesterID   string
	Start         time.Time
	End           time.Time
	Status        Status
	Justification string
	DenialReason  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Span returns the reservation interval.
func (r Reservation) Span() interval.Span {
	return interval.NewSpan(r.Start, r.End)
}

// ResourceAvailability is the per-resource configuration the validator and
// calendar projector consult. It is owned by the resource catalog
// collaborator and read-only here.
type ResourceAvailability struct {
	ResourceID string
	Title      string
	// OpenHour and CloseHour bound the daily local-time booking window
	// (0-23). Ignored when Open24Hours is set. OpenHour < CloseHour;
	// overnight windows are not supported.
	OpenHour    int
	CloseHour   int
	Open24Hours bool
	// Restricted resources require owner approval: bookings start pending.
	Restricted bool
}

// ResourceCatalog exposes the availability lookup consumed from the resource
// catalog collaborator. Implementations return ErrResourceNotFound for
// unknown ids.
type ResourceCatalog interface {
	ResourceAvailability(ctx context.Context, resourceID string) (ResourceAvailability, error)
}

// Policy is the process-wide booking policy, constructed once at startup and
// injected into every component that needs it.
type Policy struct {
	MinAdvanceNotice time.Duration
	MinDuration      time.Duration
	MaxDuration      time.Duration
	Timezone         string
}

// DefaultPolicy returns the institutional defaults.
func DefaultPolicy() Policy {
	return Policy{
		MinAdvanceNotice: time.Hour,
		MinDuration:      30 * time.Minute,
		MaxDuration:      8 * time.Hour,
		Timezone:         "America/New_York",
	}
}

// ReservationFilter narrows reservation listings.
type ReservationFilter struct {
	ResourceID   string
	RequesterID  string
	Statuses     []Status
	StartsBefore *time.Time
	EndsAfter    *time.Time
}

// Store is the transactional reservation storage the service writes through.
// ApprovedOverlapping outside a transaction serves display and standalone
// conflict queries only; write decisions always go through the Tx variant so
// the check and the write share one storage snapshot.
type Store interface {
	GetReservation(ctx context.Context, id string) (Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
	ApprovedOverlapping(ctx context.Context, resourceID string, span interval.Span, excludeID string) ([]Reservation, error)
	InTransaction(ctx context.Context, fn func(tx Tx) error) error
	SweepCompleted(ctx context.Context, reference time.Time) (int64, error)
}

// Tx is the slice of Store available inside an open transaction.
type Tx interface {
	GetReservation(id string) (Reservation, error)
	InsertReservation(reservation Reservation) error
	UpdateReservation(reservation Reservation) error
	ApprovedOverlapping(resourceID string, span interval.Span, excludeID string) ([]Reservation, error)
}

// Notification carries the post-commit facts handed to the notification
// collaborator after a status change.
type Notification struct {
	ReservationID string
	ResourceTitle string
	RequesterID   string
	Start         time.Time
	End           time.Time
	Status        Status
}

// Notifier is the fire-and-forget notification hook. Implementations must
// never influence the outcome of the booking operation that triggered them.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, notification Notification)
}
