package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/campus-booking/internal/booking"
)

var (
	errInvalidDate  = errors.New("date must be formatted as YYYY-MM-DD")
	errInvalidMonth = errors.New("month must be formatted as YYYY-MM")
)

type calendarService interface {
	ProjectDay(ctx context.Context, resourceID string, year int, month time.Month, day int) ([]booking.Slot, error)
	ProjectMonth(ctx context.Context, resourceID string, year int, month time.Month) ([]booking.MonthDay, error)
}

// CalendarHandler serves the calendar projection endpoints.
type CalendarHandler struct {
	service   calendarService
	responder responder
}

// NewCalendarHandler wires the handler dependencies.
func NewCalendarHandler(service calendarService, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{service: service, responder: newResponder(logger)}
}

// Day handles GET /resources/{id}/calendar/day?date=YYYY-MM-DD.
func (h *CalendarHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	date, err := time.Parse("2006-01-02", strings.TrimSpace(r.URL.Query().Get("date")))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidDate)
		return
	}

	slots, err := h.service.ProjectDay(r.Context(), resourceID, date.Year(), date.Month(), date.Day())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dayCalendarResponse{
		ResourceID: resourceID,
		Date:       date.Format("2006-01-02"),
		Slots:      toSlotDTOs(slots),
	})
}

// Month handles GET /resources/{id}/calendar/month?month=YYYY-MM.
func (h *CalendarHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resourceID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(resourceID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidResourceID)
		return
	}

	month, err := time.Parse("2006-01", strings.TrimSpace(r.URL.Query().Get("month")))
	if err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMonth)
		return
	}

	days, err := h.service.ProjectMonth(r.Context(), resourceID, month.Year(), month.Month())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, monthCalendarResponse{
		ResourceID: resourceID,
		Month:      month.Format("2006-01"),
		Days:       toMonthDayDTOs(days),
	})
}

type dayCalendarResponse struct {
	ResourceID string    `json:"resource_id"`
	Date       string    `json:"date"`
	Slots      []slotDTO `json:"slots"`
}

type monthCalendarResponse struct {
	ResourceID string        `json:"resource_id"`
	Month      string        `json:"month"`
	Days       []monthDayDTO `json:"days"`
}
