package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/logging"
	"github.com/example/campus-booking/internal/timeutil"
)

var (
	errBadRequestBody       = errors.New("the request body is not valid JSON")
	errInvalidReservationID = errors.New("a reservation id is required")
	errInvalidResourceID    = errors.New("a resource id is required")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// handleServiceError translates the booking error taxonomy to HTTP statuses:
// authorization failures map to 403, unknown entities to 404, validation
// failures to 422 carrying the failed rule, and conflicts and illegal
// transitions to 409. Everything else is a 500 without internal detail.
func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	logger := r.loggerFor(ctx)

	var ruleErr *booking.RuleError
	var conflictErr *booking.ConflictError

	switch {
	case errors.Is(err, booking.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "You are not allowed to perform this operation.",
		})
	case errors.Is(err, booking.ErrResourceNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "RESOURCE_NOT_FOUND",
			Message:   "The requested resource does not exist.",
		})
	case errors.Is(err, booking.ErrReservationNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{
			ErrorCode: "RESERVATION_NOT_FOUND",
			Message:   "The requested reservation does not exist.",
		})
	case errors.As(err, &conflictErr):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "SLOT_CONFLICT",
			Message:   "The requested time overlaps an existing booking.",
			Conflicts: toReservationDTOs(conflictErr.Conflicts),
		})
	case errors.Is(err, booking.ErrIllegalTransition):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ILLEGAL_TRANSITION",
			Message:   "The reservation state does not allow this operation.",
		})
	case errors.As(err, &ruleErr):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   ruleMessage(ruleErr.Rule),
			Rule:      string(ruleErr.Rule),
		})
	case errors.Is(err, timeutil.ErrInvalidTimestamp):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   ruleMessage(booking.RuleInvalidTimestamp),
			Rule:      string(booking.RuleInvalidTimestamp),
		})
	default:
		logger.ErrorContext(ctx, "internal error", "error", err, "error_kind", booking.ErrorKind(err))
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{
			Message: "An internal error occurred.",
		})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	return logging.OrDefault(ctx, r.logger)
}

func ruleMessage(rule booking.Rule) string {
	switch rule {
	case booking.RuleInvalidTimestamp:
		return "Start and end must be valid timestamps."
	case booking.RuleTooSoon:
		return "Bookings must be made further in advance."
	case booking.RuleInvalidRange:
		return "The end time must be after the start time."
	case booking.RuleTooShort:
		return "The booking is shorter than the minimum duration."
	case booking.RuleTooLong:
		return "The booking exceeds the maximum duration."
	case booking.RuleOutsideHours:
		return "The booking falls outside the resource's operating hours."
	default:
		return "The booking request is invalid."
	}
}

type errorResponse struct {
	ErrorCode string           `json:"error_code,omitempty"`
	Message   string           `json:"message"`
	Rule      string           `json:"rule,omitempty"`
	Conflicts []reservationDTO `json:"conflicts,omitempty"`
}
