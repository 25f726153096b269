package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-booking/internal/interval"
)

// Service orchestrates validation, conflict detection and persistence for
// reservation operations. Every mutation runs inside a storage transaction;
// the conflict check is re-executed inside that same transaction, which is
// what closes the check-then-act race between two simultaneous requesters.
// Correctness relies on the storage layer serializing concurrent writers to
// a resource's reservation set.
type Service struct {
	store       Store
	catalog     ResourceCatalog
	validator   *Validator
	notifier    Notifier
	months      *MonthCache
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewService wires dependencies for reservation operations. notifier and
// months may be nil.
func NewService(store Store, catalog ResourceCatalog, validator *Validator, notifier Notifier, months *MonthCache, idGenerator func() string, now func() time.Time, logger *slog.Logger) *Service {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:       store,
		catalog:     catalog,
		validator:   validator,
		notifier:    notifier,
		months:      months,
		idGenerator: idGenerator,
		now:         now,
		logger:      logger,
	}
}

// CreateBookingParams wraps the data required to request a reservation.
type CreateBookingParams struct {
	Principal     Principal
	ResourceID    string
	Start         time.Time
	End           time.Time
	Justification string
}

// CreateBooking validates the candidate interval, re-checks conflicts inside
// the insert transaction and persists the reservation. Reservations on
// restricted resources are created pending and skip the conflict check;
// pending never blocks and is re-checked at approval time. The post-commit
// notification fires only after a successful commit.
func (s *Service) CreateBooking(ctx context.Context, params CreateBookingParams) (Reservation, error) {
	if s == nil || s.store == nil || s.validator == nil {
		return Reservation{}, fmt.Errorf("booking service not configured")
	}
	if params.Principal.UserID == "" {
		return Reservation{}, ErrUnauthorized
	}

	logger := serviceLogger(ctx, s.logger, "create_booking", "resource_id", params.ResourceID)

	span, availability, err := s.validator.Validate(ctx, params.ResourceID, params.Start, params.End)
	if err != nil {
		logger.InfoContext(ctx, "booking rejected", "error_kind", ErrorKind(err))
		return Reservation{}, err
	}

	status := StatusApproved
	if availability.Restricted {
		status = StatusPending
	}

	now := s.now().UTC()
	reservation := Reservation{
		ID:            s.idGenerator(),
		ResourceID:    params.ResourceID,
		RequesterID:   params.Principal.UserID,
		Start:         span.Start,
		End:           span.End,
		Status:        status,
		Justification: params.Justification,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.store.InTransaction(ctx, func(tx Tx) error {
		if status == StatusApproved {
			conflicts, err := tx.ApprovedOverlapping(reservation.ResourceID, span, "")
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &ConflictError{Conflicts: conflicts}
			}
		}
		return tx.InsertReservation(reservation)
	})
	if err != nil {
		mapped := s.mapStoreError(err)
		logger.InfoContext(ctx, "booking not persisted", "error_kind", ErrorKind(mapped))
		return Reservation{}, mapped
	}

	s.invalidateProjections()
	s.notify(ctx, reservation, availability.Title)
	logger.InfoContext(ctx, "booking created", "reservation_id", reservation.ID, "status", string(reservation.Status))

	return reservation, nil
}

// Approve transitions a pending reservation to approved. The conflict check
// runs inside the same transaction that flips the status: time may have
// passed since the request was queued, and an overlap that has appeared
// since fails the approval rather than silently no-opping.
func (s *Service) Approve(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	return s.transition(ctx, principal, reservationID, StatusApproved, "")
}

// Deny transitions a pending reservation to denied, capturing the optional
// reason.
func (s *Service) Deny(ctx context.Context, principal Principal, reservationID, reason string) (Reservation, error) {
	return s.transition(ctx, principal, reservationID, StatusDenied, reason)
}

// Cancel transitions an approved reservation to cancelled. Requesters may
// cancel their own reservations; admins may cancel any.
func (s *Service) Cancel(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	return s.transition(ctx, principal, reservationID, StatusCancelled, "")
}

func (s *Service) transition(ctx context.Context, principal Principal, reservationID string, next Status, reason string) (Reservation, error) {
	if s == nil || s.store == nil {
		return Reservation{}, fmt.Errorf("booking service not configured")
	}
	if principal.UserID == "" {
		return Reservation{}, ErrUnauthorized
	}
	if (next == StatusApproved || next == StatusDenied) && !principal.IsAdmin {
		return Reservation{}, ErrUnauthorized
	}

	logger := serviceLogger(ctx, s.logger, "transition", "reservation_id", reservationID, "next_status", string(next))
	s.sweep(ctx)

	var updated Reservation
	err := s.store.InTransaction(ctx, func(tx Tx) error {
		reservation, err := tx.GetReservation(reservationID)
		if err != nil {
			return err
		}

		if next == StatusCancelled && reservation.RequesterID != principal.UserID && !principal.IsAdmin {
			return ErrUnauthorized
		}

		if !reservation.Status.CanTransitionTo(next) {
			return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, reservation.Status, next)
		}

		if next == StatusApproved {
			conflicts, err := tx.ApprovedOverlapping(reservation.ResourceID, reservation.Span(), reservation.ID)
			if err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return &ConflictError{Conflicts: conflicts}
			}
		}

		reservation.Status = next
		if next == StatusDenied {
			reservation.DenialReason = reason
		}
		reservation.UpdatedAt = s.now().UTC()

		if err := tx.UpdateReservation(reservation); err != nil {
			return err
		}
		updated = reservation
		return nil
	})
	if err != nil {
		mapped := s.mapStoreError(err)
		logger.InfoContext(ctx, "transition rejected", "error_kind", ErrorKind(mapped))
		return Reservation{}, mapped
	}

	s.invalidateProjections()
	s.notify(ctx, updated, s.resourceTitle(ctx, updated.ResourceID))
	logger.InfoContext(ctx, "transition applied", "status", string(updated.Status))

	return updated, nil
}

// FindConflicts returns every approved reservation for the resource that
// overlaps [start, end), excluding excludeReservationID when supplied. An
// empty result means the interval is free. This is the standalone read used
// for display and pre-checks; write decisions go through the in-transaction
// check instead.
func (s *Service) FindConflicts(ctx context.Context, resourceID string, start, end time.Time, excludeReservationID string) ([]Reservation, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("booking service not configured")
	}

	if _, err := s.catalog.ResourceAvailability(ctx, resourceID); err != nil {
		return nil, err
	}

	span := interval.NewSpan(start.UTC(), end.UTC())
	if !span.IsValid() {
		return nil, newRuleError(RuleInvalidRange, "end must be after start")
	}

	s.sweep(ctx)

	conflicts, err := s.store.ApprovedOverlapping(ctx, resourceID, span, excludeReservationID)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	return conflicts, nil
}

// GetReservation returns a single reservation after running the completion
// sweep, so callers never observe an approved reservation whose end has
// passed.
func (s *Service) GetReservation(ctx context.Context, principal Principal, reservationID string) (Reservation, error) {
	if s == nil || s.store == nil {
		return Reservation{}, fmt.Errorf("booking service not configured")
	}
	if principal.UserID == "" {
		return Reservation{}, ErrUnauthorized
	}

	s.sweep(ctx)

	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, s.mapStoreError(err)
	}
	return reservation, nil
}

// ListReservations enumerates reservations matching the filter. Non-admin
// principals are scoped to their own reservations.
func (s *Service) ListReservations(ctx context.Context, principal Principal, filter ReservationFilter) ([]Reservation, error) {
	if s == nil || s.store == nil {
		return nil, fmt.Errorf("booking service not configured")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}
	if !principal.IsAdmin {
		filter.RequesterID = principal.UserID
	}

	s.sweep(ctx)

	reservations, err := s.store.ListReservations(ctx, filter)
	if err != nil {
		return nil, s.mapStoreError(err)
	}
	return reservations, nil
}

// sweep lazily transitions past-due approved reservations to completed. It
// is idempotent: a second run over the same state changes nothing. Sweep
// failures are logged and do not block the read that triggered them.
func (s *Service) sweep(ctx context.Context) {
	if s == nil || s.store == nil {
		return
	}
	swept, err := s.store.SweepCompleted(ctx, s.now().UTC())
	if err != nil {
		serviceLogger(ctx, s.logger, "completion_sweep").WarnContext(ctx, "completion sweep failed", "error", err)
		return
	}
	if swept > 0 {
		s.invalidateProjections()
		serviceLogger(ctx, s.logger, "completion_sweep").InfoContext(ctx, "reservations completed", "count", swept)
	}
}

func (s *Service) invalidateProjections() {
	if s.months != nil {
		s.months.Invalidate()
	}
}

func (s *Service) notify(ctx context.Context, reservation Reservation, resourceTitle string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyStatusChange(ctx, Notification{
		ReservationID: reservation.ID,
		ResourceTitle: resourceTitle,
		RequesterID:   reservation.RequesterID,
		Start:         reservation.Start,
		End:           reservation.End,
		Status:        reservation.Status,
	})
}

func (s *Service) resourceTitle(ctx context.Context, resourceID string) string {
	if s.catalog == nil {
		return ""
	}
	availability, err := s.catalog.ResourceAvailability(ctx, resourceID)
	if err != nil {
		return ""
	}
	return availability.Title
}

// mapStoreError passes domain errors through verbatim and folds everything
// else into ErrPersistence, guaranteeing callers a closed error taxonomy.
func (s *Service) mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrReservationNotFound) ||
		errors.Is(err, ErrResourceNotFound) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrIllegalTransition) {
		return err
	}
	var conflictErr *ConflictError
	if errors.As(err, &conflictErr) {
		return err
	}
	var ruleErr *RuleError
	if errors.As(err, &ruleErr) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
