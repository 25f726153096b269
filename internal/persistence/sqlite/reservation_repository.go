package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/campus-booking/internal/persistence"
)

const reservationColumns = `id, resource_id, requester_id, start_time, end_time, status, justification, denial_reason, created_at, updated_at`

// Timestamps are stored as RFC 3339 UTC strings. With a fixed zone suffix the
// strings compare lexicographically in chronological order, so the overlap
// and sweep predicates run directly on the text columns.
const timeLayout = time.RFC3339

// ReservationRepository implements persistence.ReservationRepository on SQLite.
type ReservationRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
	retry  *RetryHelper
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{
		pool:   pool,
		mapper: NewErrorMapper(),
		retry:  NewRetryHelper(DefaultRetryConfig()),
	}
}

// GetReservation retrieves a reservation by ID.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, r.mapper.MapError(err)
	}
	return reservation, nil
}

// ListReservations lists reservations matching the filter, ordered by start
// time then ID.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	query, args := buildReservationListQuery(filter)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// ListApprovedOverlapping returns approved reservations on the resource whose
// half-open interval intersects [start, end), excluding excludeID when set.
func (r *ReservationRepository) ListApprovedOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]persistence.Reservation, error) {
	query, args := overlapQuery(resourceID, start, end, excludeID)

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

// WithTransaction runs fn inside a database transaction, retrying the whole
// transaction while the database is busy.
func (r *ReservationRepository) WithTransaction(ctx context.Context, fn func(tx persistence.ReservationTx) error) error {
	return r.retry.WithRetry(ctx, func() error {
		return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
			return fn(&reservationTx{tx: tx, mapper: r.mapper})
		})
	})
}

// MarkCompleted flips every approved reservation whose end is at or before
// the reference instant to completed and returns the number of rows changed.
func (r *ReservationRepository) MarkCompleted(ctx context.Context, reference time.Time) (int64, error) {
	referenceStr := reference.UTC().Format(timeLayout)

	result, err := r.pool.DB().ExecContext(ctx,
		"UPDATE reservations SET status = 'completed', updated_at = ? WHERE status = 'approved' AND end_time <= ?",
		referenceStr, referenceStr)
	if err != nil {
		return 0, r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return affected, nil
}

// reservationTx implements persistence.ReservationTx on an open *sql.Tx.
type reservationTx struct {
	tx     *sql.Tx
	mapper *ErrorMapper
}

func (t *reservationTx) GetReservation(id string) (persistence.Reservation, error) {
	row := t.tx.QueryRow("SELECT "+reservationColumns+" FROM reservations WHERE id = ?", id)
	reservation, err := scanReservation(row)
	if err != nil {
		return persistence.Reservation{}, t.mapper.MapError(err)
	}
	return reservation, nil
}

func (t *reservationTx) InsertReservation(reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := t.tx.Exec(`
		INSERT INTO reservations (id, resource_id, requester_id, start_time, end_time, status, justification, denial_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reservation.ID,
		reservation.ResourceID,
		reservation.RequesterID,
		reservation.StartTime.UTC().Format(timeLayout),
		reservation.EndTime.UTC().Format(timeLayout),
		reservation.Status,
		nullString(reservation.Justification),
		nullString(reservation.DenialReason),
		reservation.CreatedAt.UTC().Format(timeLayout),
		reservation.UpdatedAt.UTC().Format(timeLayout),
	)
	return t.mapper.MapError(err)
}

func (t *reservationTx) UpdateReservation(reservation persistence.Reservation) error {
	result, err := t.tx.Exec(`
		UPDATE reservations
		SET resource_id = ?, requester_id = ?, start_time = ?, end_time = ?, status = ?, justification = ?, denial_reason = ?, updated_at = ?
		WHERE id = ?`,
		reservation.ResourceID,
		reservation.RequesterID,
		reservation.StartTime.UTC().Format(timeLayout),
		reservation.EndTime.UTC().Format(timeLayout),
		reservation.Status,
		nullString(reservation.Justification),
		nullString(reservation.DenialReason),
		reservation.UpdatedAt.UTC().Format(timeLayout),
		reservation.ID,
	)
	if err != nil {
		return t.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (t *reservationTx) ListApprovedOverlapping(resourceID string, start, end time.Time, excludeID string) ([]persistence.Reservation, error) {
	query, args := overlapQuery(resourceID, start, end, excludeID)

	rows, err := t.tx.Query(query, args...)
	if err != nil {
		return nil, t.mapper.MapError(err)
	}
	defer rows.Close()

	return collectReservations(rows)
}

func overlapQuery(resourceID string, start, end time.Time, excludeID string) (string, []interface{}) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE resource_id = ?
		  AND status = 'approved'
		  AND start_time < ?
		  AND end_time > ?`
	args := []interface{}{
		resourceID,
		end.UTC().Format(timeLayout),
		start.UTC().Format(timeLayout),
	}

	if excludeID != "" {
		query += " AND id <> ?"
		args = append(args, excludeID)
	}

	query += " ORDER BY start_time ASC, id ASC"
	return query, args
}

func buildReservationListQuery(filter persistence.ReservationFilter) (string, []interface{}) {
	query := "SELECT " + reservationColumns + " FROM reservations"

	var conditions []string
	var args []interface{}

	if filter.ResourceID != "" {
		conditions = append(conditions, "resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.StartsBefore != nil {
		conditions = append(conditions, "start_time < ?")
		args = append(args, filter.StartsBefore.UTC().Format(timeLayout))
	}
	if filter.EndsAfter != nil {
		conditions = append(conditions, "end_time > ?")
		args = append(args, filter.EndsAfter.UTC().Format(timeLayout))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return query, args
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var reservation persistence.Reservation
	var startStr, endStr, createdStr, updatedStr string
	var justification, denialReason sql.NullString

	err := row.Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.RequesterID,
		&startStr,
		&endStr,
		&reservation.Status,
		&justification,
		&denialReason,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.Reservation{}, err
	}

	if justification.Valid {
		reservation.Justification = &justification.String
	}
	if denialReason.Valid {
		reservation.DenialReason = &denialReason.String
	}

	if reservation.StartTime, err = time.Parse(timeLayout, startStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if reservation.EndTime, err = time.Parse(timeLayout, endStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if reservation.CreatedAt, err = time.Parse(timeLayout, createdStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if reservation.UpdatedAt, err = time.Parse(timeLayout, updatedStr); err != nil {
		return persistence.Reservation{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return reservation, nil
}

func collectReservations(rows *sql.Rows) ([]persistence.Reservation, error) {
	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}
