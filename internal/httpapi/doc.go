// Package httpapi provides HTTP handlers and middleware for the booking API.
//
// All endpoints require a bearer access token issued by the identity service;
// RequireCaller verifies the token signature and places the resulting
// principal in the request context. The router exposes:
//
//   - POST /bookings: requests a reservation. Body: {"resource_id","start",
//     "end","justification"}. Timestamps are RFC 3339 instants or zone-less
//     local datetimes interpreted in the institutional zone. Returns 201 with
//     the reservation, 409 with the conflicting reservations, or 422 with the
//     failed validation rule.
//   - GET /bookings, GET /bookings/{id}: reservation reads. Non-admin callers
//     see only their own reservations.
//   - POST /bookings/{id}/approve, /deny, /cancel: lifecycle transitions.
//     Approve and deny require an administrator; cancel is open to the
//     requester. Deny accepts an optional {"reason"} body.
//   - GET /bookings/{id}/calendar.ics: iCalendar export of one reservation.
//   - GET /conflicts?resource_id=&start=&end=&exclude_id=: standalone
//     conflict probe returning {"available","conflicts"}.
//   - GET /resources, POST /resources, GET/PUT/DELETE /resources/{id}:
//     resource catalog endpoints. Mutations require an administrator.
//   - GET /resources/{id}/calendar/day?date=YYYY-MM-DD: the 48 half-hour
//     slots of one local day with per-slot state.
//   - GET /resources/{id}/calendar/month?month=YYYY-MM: per-day booking
//     aggregates for a month view.
//
// Request/response DTOs live in dto.go so handlers and tests share the same
// ground truth.
package httpapi
