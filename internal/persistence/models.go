package persistence

import (
	"time"

	"github.com/example/campus-booking/internal/booking"
)

// Reservation is the storage representation of a booking. Times are UTC;
// Status holds one of the lifecycle state strings.
type Reservation struct {
	ID            string
	ResourceID    string
	RequesterID   string
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	Justification *string
	DenialReason  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Domain converts the storage row to the domain entity.
func (r Reservation) Domain() booking.Reservation {
	reservation := booking.Reservation{
		ID:          r.ID,
		ResourceID:  r.ResourceID,
		RequesterID: r.RequesterID,
		Start:       r.StartTime,
		End:         r.EndTime,
		Status:      booking.Status(r.Status),
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if r.Justification != nil {
		reservation.Justification = *r.Justification
	}
	if r.DenialReason != nil {
		reservation.DenialReason = *r.DenialReason
	}
	return reservation
}

// ReservationFromDomain converts a domain entity to its storage row.
func ReservationFromDomain(reservation booking.Reservation) Reservation {
	row := Reservation{
		ID:          reservation.ID,
		ResourceID:  reservation.ResourceID,
		RequesterID: reservation.RequesterID,
		StartTime:   reservation.Start.UTC(),
		EndTime:     reservation.End.UTC(),
		Status:      string(reservation.Status),
		CreatedAt:   reservation.CreatedAt.UTC(),
		UpdatedAt:   reservation.UpdatedAt.UTC(),
	}
	if reservation.Justification != "" {
		value := reservation.Justification
		row.Justification = &value
	}
	if reservation.DenialReason != "" {
		value := reservation.DenialReason
		row.DenialReason = &value
	}
	return row
}

// Resource is the storage representation of a bookable resource.
type Resource struct {
	ID          string
	Title       string
	Description *string
	Location    *string
	OpenHour    int
	CloseHour   int
	Open24Hours bool
	Restricted  bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Availability projects the resource onto the configuration the booking core
// consumes.
func (r Resource) Availability() booking.ResourceAvailability {
	return booking.ResourceAvailability{
		ResourceID:  r.ID,
		Title:       r.Title,
		OpenHour:    r.OpenHour,
		CloseHour:   r.CloseHour,
		Open24Hours: r.Open24Hours,
		Restricted:  r.Restricted,
	}
}
