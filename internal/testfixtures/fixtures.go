package testfixtures

import (
	"time"

	"github.com/example/campus-booking/internal/booking"
)

// ReferenceTime is the shared baseline instant tests derive from. It is a
// Tuesday at 15:04:05 UTC, which is 10:04:05 in America/New_York.
func ReferenceTime() time.Time {
	return time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)
}

// ReservationOption customises a reservation fixture.
type ReservationOption func(*booking.Reservation)

// NewReservation builds a sensible approved reservation starting two hours
// after ReferenceTime, then applies the supplied options.
func NewReservation(opts ...ReservationOption) booking.Reservation {
	start := ReferenceTime().Add(2 * time.Hour)
	reservation := booking.Reservation{
		ID:          "reservation-1",
		ResourceID:  "resource-1",
		RequesterID: "user-1",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      booking.StatusApproved,
		CreatedAt:   ReferenceTime(),
		UpdatedAt:   ReferenceTime(),
	}
	for _, opt := range opts {
		opt(&reservation)
	}
	return reservation
}

// WithReservationID overrides the fixture id.
func WithReservationID(id string) ReservationOption {
	return func(r *booking.Reservation) { r.ID = id }
}

// WithResourceID overrides the fixture resource id.
func WithResourceID(resourceID string) ReservationOption {
	return func(r *booking.Reservation) { r.ResourceID = resourceID }
}

// WithRequesterID overrides the fixture requester.
func WithRequesterID(requesterID string) ReservationOption {
	return func(r *booking.Reservation) { r.RequesterID = requesterID }
}

// WithInterval overrides the fixture interval.
func WithInterval(start, end time.Time) ReservationOption {
	return func(r *booking.Reservation) {
		r.Start = start
		r.End = end
	}
}

// WithStatus overrides the fixture status.
func WithStatus(status booking.Status) ReservationOption {
	return func(r *booking.Reservation) { r.Status = status }
}

// AvailabilityOption customises an availability fixture.
type AvailabilityOption func(*booking.ResourceAvailability)

// NewAvailability builds an unrestricted resource open 08:00 to 22:00 local
// time, then applies the supplied options.
func NewAvailability(opts ...AvailabilityOption) booking.ResourceAvailability {
	availability := booking.ResourceAvailability{
		ResourceID: "resource-1",
		Title:      "Study Room 101",
		OpenHour:   8,
		CloseHour:  22,
	}
	for _, opt := range opts {
		opt(&availability)
	}
	return availability
}

// WithAvailabilityResourceID overrides the availability resource id.
func WithAvailabilityResourceID(resourceID string) AvailabilityOption {
	return func(a *booking.ResourceAvailability) { a.ResourceID = resourceID }
}

// WithHours overrides the daily operating window.
func WithHours(open, close int) AvailabilityOption {
	return func(a *booking.ResourceAvailability) {
		a.OpenHour = open
		a.CloseHour = close
		a.Open24Hours = false
	}
}

// WithOpen24Hours marks the resource as always open.
func WithOpen24Hours() AvailabilityOption {
	return func(a *booking.ResourceAvailability) { a.Open24Hours = true }
}

// WithRestricted marks the resource as approval-required.
func WithRestricted() AvailabilityOption {
	return func(a *booking.ResourceAvailability) { a.Restricted = true }
}
