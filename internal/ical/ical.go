// Package ical renders reservations as iCalendar documents for import into
// personal calendar clients.
package ical

import (
	"fmt"

	ics "github.com/arran4/golang-ical"

	"github.com/example/campus-booking/internal/booking"
)

// uidSuffix keeps exported event UIDs globally unique across calendar
// clients that merge feeds from several systems.
const uidSuffix = "@campus-booking"

// Export serializes the reservations into a VCALENDAR document. Each
// reservation becomes one VEVENT with the resource title as its summary;
// pending reservations are marked tentative and cancelled or denied ones
// cancelled, so subscribing clients track the lifecycle.
func Export(reservations []booking.Reservation, resourceTitles map[string]string) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)

	for _, reservation := range reservations {
		event := cal.AddEvent(reservation.ID + uidSuffix)
		event.SetDtStampTime(reservation.UpdatedAt.UTC())
		event.SetCreatedTime(reservation.CreatedAt.UTC())
		event.SetStartAt(reservation.Start.UTC())
		event.SetEndAt(reservation.End.UTC())
		event.SetSummary(eventSummary(reservation, resourceTitles))
		if reservation.Justification != "" {
			event.SetDescription(reservation.Justification)
		}
		event.SetStatus(eventStatus(reservation.Status))
	}

	return cal.Serialize()
}

// ExportOne serializes a single reservation.
func ExportOne(reservation booking.Reservation, resourceTitle string) string {
	titles := map[string]string{reservation.ResourceID: resourceTitle}
	return Export([]booking.Reservation{reservation}, titles)
}

func eventSummary(reservation booking.Reservation, resourceTitles map[string]string) string {
	title := resourceTitles[reservation.ResourceID]
	if title == "" {
		title = reservation.ResourceID
	}
	return fmt.Sprintf("Booking: %s", title)
}

func eventStatus(status booking.Status) ics.ObjectStatus {
	switch status {
	case booking.StatusPending:
		return ics.ObjectStatusTentative
	case booking.StatusDenied, booking.StatusCancelled:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusConfirmed
	}
}
