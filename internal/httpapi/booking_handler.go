package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/ical"
	"github.com/example/campus-booking/internal/timeutil"
)

type bookingService interface {
	CreateBooking(ctx context.Context, params booking.CreateBookingParams) (booking.Reservation, error)
	Approve(ctx context.Context, principal booking.Principal, reservationID string) (booking.Reservation, error)
	Deny(ctx context.Context, principal booking.Principal, reservationID, reason string) (booking.Reservation, error)
	Cancel(ctx context.Context, principal booking.Principal, reservationID string) (booking.Reservation, error)
	FindConflicts(ctx context.Context, resourceID string, start, end time.Time, excludeReservationID string) ([]booking.Reservation, error)
	GetReservation(ctx context.Context, principal booking.Principal, reservationID string) (booking.Reservation, error)
	ListReservations(ctx context.Context, principal booking.Principal, filter booking.ReservationFilter) ([]booking.Reservation, error)
}

// BookingHandler serves the reservation endpoints.
type BookingHandler struct {
	service   bookingService
	catalog   booking.ResourceCatalog
	times     *timeutil.Normalizer
	responder responder
}

// NewBookingHandler wires the handler dependencies.
func NewBookingHandler(service bookingService, catalog booking.ResourceCatalog, times *timeutil.Normalizer, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		service:   service,
		catalog:   catalog,
		times:     times,
		responder: newResponder(logger),
	}
}

type createBookingRequest struct {
	ResourceID    string `json:"resource_id"`
	Start         string `json:"start"`
	End           string `json:"end"`
	Justification string `json:"justification"`
}

// Create handles POST /bookings.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, err := parseTimestamp(req.Start, h.times)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	end, err := parseTimestamp(req.End, h.times)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.CreateBooking(r.Context(), booking.CreateBookingParams{
		Principal:     principal,
		ResourceID:    req.ResourceID,
		Start:         start,
		End:           end,
		Justification: req.Justification,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toReservationDTO(reservation))
}

// Get handles GET /bookings/{id}.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !principal.IsAdmin && reservation.RequesterID != principal.UserID {
		h.responder.handleServiceError(r.Context(), w, booking.ErrUnauthorized)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

// List handles GET /bookings.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservations, err := h.service.ListReservations(r.Context(), principal, buildReservationFilter(r.URL.Query()))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listBookingsResponse{
		Reservations: toReservationDTOs(reservations),
	})
}

type denyRequest struct {
	Reason string `json:"reason"`
}

// Transition handles POST /bookings/{id}/{action} for approve, deny and
// cancel.
func (h *BookingHandler) Transition(w http.ResponseWriter, r *http.Request, action string) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var reservation booking.Reservation
	var err error
	switch action {
	case "approve":
		reservation, err = h.service.Approve(r.Context(), principal, reservationID)
	case "deny":
		var req denyRequest
		if r.Body != nil {
			// The reason is optional; an empty body is fine.
			_ = json.NewDecoder(r.Body).Decode(&req)
		}
		reservation, err = h.service.Deny(r.Context(), principal, reservationID, req.Reason)
	case "cancel":
		reservation, err = h.service.Cancel(r.Context(), principal, reservationID)
	default:
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTO(reservation))
}

// Conflicts handles GET /conflicts.
func (h *BookingHandler) Conflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	resourceID := strings.TrimSpace(query.Get("resource_id"))
	if resourceID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	start, err := parseTimestamp(query.Get("start"), h.times)
	if err != nil || start.IsZero() {
		h.responder.handleServiceError(r.Context(), w, timeutil.ErrInvalidTimestamp)
		return
	}
	end, err := parseTimestamp(query.Get("end"), h.times)
	if err != nil || end.IsZero() {
		h.responder.handleServiceError(r.Context(), w, timeutil.ErrInvalidTimestamp)
		return
	}

	conflicts, err := h.service.FindConflicts(r.Context(), resourceID, start, end, strings.TrimSpace(query.Get("exclude_id")))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, conflictsResponse{
		Available: len(conflicts) == 0,
		Conflicts: toReservationDTOs(conflicts),
	})
}

// ExportICS handles GET /bookings/{id}/calendar.ics.
func (h *BookingHandler) ExportICS(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	reservationID, ok := ReservationIDFromContext(r.Context())
	if !ok || strings.TrimSpace(reservationID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidReservationID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	reservation, err := h.service.GetReservation(r.Context(), principal, reservationID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if !principal.IsAdmin && reservation.RequesterID != principal.UserID {
		h.responder.handleServiceError(r.Context(), w, booking.ErrUnauthorized)
		return
	}

	title := ""
	if h.catalog != nil {
		if availability, err := h.catalog.ResourceAvailability(r.Context(), reservation.ResourceID); err == nil {
			title = availability.Title
		}
	}

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="booking-`+reservation.ID+`.ics"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(ical.ExportOne(reservation, title))); err != nil {
		h.responder.loggerFor(r.Context()).ErrorContext(r.Context(), "failed to write calendar export", "error", err)
	}
}

func buildReservationFilter(query url.Values) booking.ReservationFilter {
	filter := booking.ReservationFilter{
		ResourceID:  strings.TrimSpace(query.Get("resource_id")),
		RequesterID: strings.TrimSpace(query.Get("requester_id")),
	}

	if statuses := strings.TrimSpace(query.Get("status")); statuses != "" {
		for _, value := range strings.Split(statuses, ",") {
			status := booking.Status(strings.TrimSpace(value))
			if status.Valid() {
				filter.Statuses = append(filter.Statuses, status)
			}
		}
	}

	return filter
}

type listBookingsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type conflictsResponse struct {
	Available bool             `json:"available"`
	Conflicts []reservationDTO `json:"conflicts"`
}
