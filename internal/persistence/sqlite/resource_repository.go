package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/campus-booking/internal/persistence"
)

const resourceColumns = `id, title, description, location, open_hour, close_hour, open_24_hours, restricted, created_at, updated_at`

// ResourceRepository implements persistence.ResourceRepository on SQLite.
type ResourceRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewResourceRepository creates a new SQLite resource repository.
func NewResourceRepository(pool *ConnectionPool) *ResourceRepository {
	return &ResourceRepository{pool: pool, mapper: NewErrorMapper()}
}

// CreateResource inserts a new resource.
func (r *ResourceRepository) CreateResource(ctx context.Context, resource persistence.Resource) error {
	if resource.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.DB().ExecContext(ctx, `
		INSERT INTO resources (id, title, description, location, open_hour, close_hour, open_24_hours, restricted, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		resource.ID,
		resource.Title,
		nullString(resource.Description),
		nullString(resource.Location),
		resource.OpenHour,
		resource.CloseHour,
		boolInt(resource.Open24Hours),
		boolInt(resource.Restricted),
		resource.CreatedAt.UTC().Format(timeLayout),
		resource.UpdatedAt.UTC().Format(timeLayout),
	)
	return r.mapper.MapError(err)
}

// UpdateResource updates an existing resource.
func (r *ResourceRepository) UpdateResource(ctx context.Context, resource persistence.Resource) error {
	result, err := r.pool.DB().ExecContext(ctx, `
		UPDATE resources
		SET title = ?, description = ?, location = ?, open_hour = ?, close_hour = ?, open_24_hours = ?, restricted = ?, updated_at = ?
		WHERE id = ?`,
		resource.Title,
		nullString(resource.Description),
		nullString(resource.Location),
		resource.OpenHour,
		resource.CloseHour,
		boolInt(resource.Open24Hours),
		boolInt(resource.Restricted),
		resource.UpdatedAt.UTC().Format(timeLayout),
		resource.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
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

// GetResource retrieves a resource by ID.
func (r *ResourceRepository) GetResource(ctx context.Context, id string) (persistence.Resource, error) {
	if id == "" {
		return persistence.Resource{}, persistence.ErrNotFound
	}

	row := r.pool.DB().QueryRowContext(ctx,
		"SELECT "+resourceColumns+" FROM resources WHERE id = ?", id)
	resource, err := scanResource(row)
	if err != nil {
		return persistence.Resource{}, r.mapper.MapError(err)
	}
	return resource, nil
}

// ListResources returns all resources ordered by title then ID.
func (r *ResourceRepository) ListResources(ctx context.Context) ([]persistence.Resource, error) {
	rows, err := r.pool.DB().QueryContext(ctx,
		"SELECT "+resourceColumns+" FROM resources ORDER BY title ASC, id ASC")
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var resources []persistence.Resource
	for rows.Next() {
		resource, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		resources = append(resources, resource)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return resources, nil
}

// DeleteResource removes a resource by ID. Resources with reservations are
// protected by the foreign key constraint.
func (r *ResourceRepository) DeleteResource(ctx context.Context, id string) error {
	result, err := r.pool.DB().ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id)
	if err != nil {
		return r.mapper.MapError(err)
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

func scanResource(row rowScanner) (persistence.Resource, error) {
	var resource persistence.Resource
	var description, location sql.NullString
	var open24, restricted int
	var createdStr, updatedStr string

	err := row.Scan(
		&resource.ID,
		&resource.Title,
		&description,
		&location,
		&resource.OpenHour,
		&resource.CloseHour,
		&open24,
		&restricted,
		&createdStr,
		&updatedStr,
	)
	if err != nil {
		return persistence.Resource{}, err
	}

	if description.Valid {
		resource.Description = &description.String
	}
	if location.Valid {
		resource.Location = &location.String
	}
	resource.Open24Hours = open24 != 0
	resource.Restricted = restricted != 0

	if resource.CreatedAt, err = time.Parse(timeLayout, createdStr); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if resource.UpdatedAt, err = time.Parse(timeLayout, updatedStr); err != nil {
		return persistence.Resource{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return resource, nil
}

func boolInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
