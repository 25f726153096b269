package httpapi

import (
	"strings"
	"time"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/persistence"
	"github.com/example/campus-booking/internal/timeutil"
)

type reservationDTO struct {
	ID            string `json:"id"`
	ResourceID    string `json:"resource_id"`
	RequesterID   string `json:"requester_id"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Status        string `json:"status"`
	Justification string `json:"justification,omitempty"`
	DenialReason  string `json:"denial_reason,omitempty"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

func toReservationDTO(reservation booking.Reservation) reservationDTO {
	return reservationDTO{
		ID:            reservation.ID,
		ResourceID:    reservation.ResourceID,
		RequesterID:   reservation.RequesterID,
		Start:         reservation.Start.UTC().Format(time.RFC3339),
		End:           reservation.End.UTC().Format(time.RFC3339),
		Status:        string(reservation.Status),
		Justification: reservation.Justification,
		DenialReason:  reservation.DenialReason,
		CreatedAt:     reservation.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     reservation.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toReservationDTOs(reservations []booking.Reservation) []reservationDTO {
	if len(reservations) == 0 {
		return nil
	}
	dtos := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		dtos = append(dtos, toReservationDTO(reservation))
	}
	return dtos
}

type slotDTO struct {
	Offset int    `json:"offset_minutes"`
	State  string `json:"state"`
}

func toSlotDTOs(slots []booking.Slot) []slotDTO {
	dtos := make([]slotDTO, 0, len(slots))
	for _, slot := range slots {
		dtos = append(dtos, slotDTO{Offset: slot.OffsetMinutes, State: string(slot.State)})
	}
	return dtos
}

type monthDayDTO struct {
	Day         int  `json:"day"`
	HasBookings bool `json:"has_bookings"`
	BookedCount int  `json:"booked_count"`
}

func toMonthDayDTOs(days []booking.MonthDay) []monthDayDTO {
	dtos := make([]monthDayDTO, 0, len(days))
	for _, day := range days {
		dtos = append(dtos, monthDayDTO{Day: day.Day, HasBookings: day.HasBookings, BookedCount: day.BookedCount})
	}
	return dtos
}

type resourceDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Location    string `json:"location,omitempty"`
	OpenHour    int    `json:"open_hour"`
	CloseHour   int    `json:"close_hour"`
	Open24Hours bool   `json:"open_24_hours"`
	Restricted  bool   `json:"restricted"`
}

func toResourceDTO(resource persistence.Resource) resourceDTO {
	dto := resourceDTO{
		ID:          resource.ID,
		Title:       resource.Title,
		OpenHour:    resource.OpenHour,
		CloseHour:   resource.CloseHour,
		Open24Hours: resource.Open24Hours,
		Restricted:  resource.Restricted,
	}
	if resource.Description != nil {
		dto.Description = *resource.Description
	}
	if resource.Location != nil {
		dto.Location = *resource.Location
	}
	return dto
}

func toResourceDTOs(resources []persistence.Resource) []resourceDTO {
	dtos := make([]resourceDTO, 0, len(resources))
	for _, resource := range resources {
		dtos = append(dtos, toResourceDTO(resource))
	}
	return dtos
}

// parseTimestamp accepts either an RFC 3339 instant or, when the value
// carries no zone designator, a local wall-clock datetime interpreted in the
// institutional zone. HTML datetime-local inputs submit the latter form.
func parseTimestamp(value string, times *timeutil.Normalizer) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, nil
	}
	if instant, err := timeutil.ParseInstant(trimmed); err == nil {
		return instant, nil
	}
	wallClock, err := timeutil.ParseWallClock(trimmed)
	if err != nil {
		return time.Time{}, err
	}
	return times.Resolve(wallClock), nil
}
