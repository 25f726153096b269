package testfixtures

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/interval"
)

// MemoryStore is an in-memory booking.Store for tests. Transactions run
// against a snapshot copy that replaces the live map only on success, and a
// single mutex serializes writers, matching the storage guarantees the
// service relies on for its in-transaction conflict check.
type MemoryStore struct {
	mu           sync.Mutex
	reservations map[string]booking.Reservation
	forcedErr    error
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reservations: make(map[string]booking.Reservation)}
}

// FailWith forces every subsequent store operation to fail with err. Passing
// nil restores normal behaviour.
func (s *MemoryStore) FailWith(err error) {
	s.mu.Lock()
	s.forcedErr = err
	s.mu.Unlock()
}

// Seed inserts reservations directly, bypassing transactions.
func (s *MemoryStore) Seed(reservations ...booking.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reservation := range reservations {
		s.reservations[reservation.ID] = reservation
	}
}

// GetReservation implements booking.Store.
func (s *MemoryStore) GetReservation(_ context.Context, id string) (booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcedErr != nil {
		return booking.Reservation{}, s.forcedErr
	}
	reservation, ok := s.reservations[id]
	if !ok {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return reservation, nil
}

// ListReservations implements booking.Store.
func (s *MemoryStore) ListReservations(_ context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcedErr != nil {
		return nil, s.forcedErr
	}

	var out []booking.Reservation
	for _, reservation := range s.reservations {
		if matchesFilter(reservation, filter) {
			out = append(out, reservation)
		}
	}
	sortReservations(out)
	return out, nil
}

// ApprovedOverlapping implements booking.Store.
func (s *MemoryStore) ApprovedOverlapping(_ context.Context, resourceID string, span interval.Span, excludeID string) ([]booking.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcedErr != nil {
		return nil, s.forcedErr
	}
	return approvedOverlapping(s.reservations, resourceID, span, excludeID), nil
}

// InTransaction implements booking.Store. The callback sees a copy of the
// current state; the copy becomes the new state only when the callback
// returns nil.
func (s *MemoryStore) InTransaction(_ context.Context, fn func(tx booking.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcedErr != nil {
		return s.forcedErr
	}

	snapshot := make(map[string]booking.Reservation, len(s.reservations))
	for id, reservation := range s.reservations {
		snapshot[id] = reservation
	}

	if err := fn(&memoryTx{data: snapshot}); err != nil {
		return err
	}
	s.reservations = snapshot
	return nil
}

// SweepCompleted implements booking.Store: approved reservations whose end is
// at or before the reference instant become completed.
func (s *MemoryStore) SweepCompleted(_ context.Context, reference time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.forcedErr != nil {
		return 0, s.forcedErr
	}

	var swept int64
	for id, reservation := range s.reservations {
		if reservation.Status == booking.StatusApproved && !reservation.End.After(reference) {
			reservation.Status = booking.StatusCompleted
			reservation.UpdatedAt = reference
			s.reservations[id] = reservation
			swept++
		}
	}
	return swept, nil
}

type memoryTx struct {
	data map[string]booking.Reservation
}

func (t *memoryTx) GetReservation(id string) (booking.Reservation, error) {
	reservation, ok := t.data[id]
	if !ok {
		return booking.Reservation{}, booking.ErrReservationNotFound
	}
	return reservation, nil
}

func (t *memoryTx) InsertReservation(reservation booking.Reservation) error {
	t.data[reservation.ID] = reservation
	return nil
}

func (t *memoryTx) UpdateReservation(reservation booking.Reservation) error {
	if _, ok := t.data[reservation.ID]; !ok {
		return booking.ErrReservationNotFound
	}
	t.data[reservation.ID] = reservation
	return nil
}

func (t *memoryTx) ApprovedOverlapping(resourceID string, span interval.Span, excludeID string) ([]booking.Reservation, error) {
	return approvedOverlapping(t.data, resourceID, span, excludeID), nil
}

func approvedOverlapping(data map[string]booking.Reservation, resourceID string, span interval.Span, excludeID string) []booking.Reservation {
	var out []booking.Reservation
	for _, reservation := range data {
		if reservation.ResourceID != resourceID || reservation.Status != booking.StatusApproved {
			continue
		}
		if excludeID != "" && reservation.ID == excludeID {
			continue
		}
		if span.Overlaps(reservation.Span()) {
			out = append(out, reservation)
		}
	}
	sortReservations(out)
	return out
}

func matchesFilter(reservation booking.Reservation, filter booking.ReservationFilter) bool {
	if filter.ResourceID != "" && reservation.ResourceID != filter.ResourceID {
		return false
	}
	if filter.RequesterID != "" && reservation.RequesterID != filter.RequesterID {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if reservation.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.StartsBefore != nil && !reservation.Start.Before(*filter.StartsBefore) {
		return false
	}
	if filter.EndsAfter != nil && !reservation.End.After(*filter.EndsAfter) {
		return false
	}
	return true
}

func sortReservations(reservations []booking.Reservation) {
	sort.Slice(reservations, func(i, j int) bool {
		if !reservations[i].Start.Equal(reservations[j].Start) {
			return reservations[i].Start.Before(reservations[j].Start)
		}
		return reservations[i].ID < reservations[j].ID
	})
}

// MemoryCatalog is an in-memory booking.ResourceCatalog for tests.
type MemoryCatalog struct {
	mu        sync.Mutex
	resources map[string]booking.ResourceAvailability
}

// NewMemoryCatalog returns a catalog holding the supplied resources.
func NewMemoryCatalog(resources ...booking.ResourceAvailability) *MemoryCatalog {
	catalog := &MemoryCatalog{resources: make(map[string]booking.ResourceAvailability)}
	for _, resource := range resources {
		catalog.resources[resource.ResourceID] = resource
	}
	return catalog
}

// Put adds or replaces a resource.
func (c *MemoryCatalog) Put(availability booking.ResourceAvailability) {
	c.mu.Lock()
	c.resources[availability.ResourceID] = availability
	c.mu.Unlock()
}

// ResourceAvailability implements booking.ResourceCatalog.
func (c *MemoryCatalog) ResourceAvailability(_ context.Context, resourceID string) (booking.ResourceAvailability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	availability, ok := c.resources[resourceID]
	if !ok {
		return booking.ResourceAvailability{}, booking.ErrResourceNotFound
	}
	return availability, nil
}
