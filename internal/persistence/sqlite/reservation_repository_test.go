package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/example/campus-booking/internal/persistence"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "booking.db") + "?_foreign_keys=on"
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		t.Fatalf("NewConnectionPool: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	return pool
}

func seedResource(t *testing.T, pool *ConnectionPool, id string) {
	t.Helper()
	now := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	err := NewResourceRepository(pool).CreateResource(context.Background(), persistence.Resource{
		ID:        id,
		Title:     "Study Room 101",
		OpenHour:  8,
		CloseHour: 22,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateResource: %v", err)
	}
}

func testReservation(id string, start time.Time, duration time.Duration) persistence.Reservation {
	return persistence.Reservation{
		ID:          id,
		ResourceID:  "resource-1",
		RequesterID: "user-1",
		StartTime:   start,
		EndTime:     start.Add(duration),
		Status:      "approved",
		CreatedAt:   start.Add(-24 * time.Hour),
		UpdatedAt:   start.Add(-24 * time.Hour),
	}
}

func insertReservation(t *testing.T, repo *ReservationRepository, reservation persistence.Reservation) {
	t.Helper()
	err := repo.WithTransaction(context.Background(), func(tx persistence.ReservationTx) error {
		return tx.InsertReservation(reservation)
	})
	if err != nil {
		t.Fatalf("InsertReservation %s: %v", reservation.ID, err)
	}
}

func TestReservationRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	repo := NewReservationRepository(pool)

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	justification := "project meeting"
	reservation := testReservation("r-1", start, time.Hour)
	reservation.Justification = &justification
	insertReservation(t, repo, reservation)

	loaded, err := repo.GetReservation(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if !loaded.StartTime.Equal(start) || !loaded.EndTime.Equal(start.Add(time.Hour)) {
		t.Fatalf("interval mismatch: %+v", loaded)
	}
	if loaded.Status != "approved" {
		t.Fatalf("status mismatch: %q", loaded.Status)
	}
	if loaded.Justification == nil || *loaded.Justification != justification {
		t.Fatalf("justification mismatch: %+v", loaded.Justification)
	}
	if loaded.DenialReason != nil {
		t.Fatalf("unexpected denial reason: %v", *loaded.DenialReason)
	}
	if loaded.StartTime.Location() != time.UTC {
		t.Fatalf("start not UTC: %v", loaded.StartTime)
	}
}

func TestGetReservationNotFound(t *testing.T) {
	pool := newTestPool(t)
	repo := NewReservationRepository(pool)

	_, err := repo.GetReservation(context.Background(), "missing")
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInsertDuplicateReservation(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	repo := NewReservationRepository(pool)

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	insertReservation(t, repo, testReservation("r-1", start, time.Hour))

	err := repo.WithTransaction(context.Background(), func(tx persistence.ReservationTx) error {
		return tx.InsertReservation(testReservation("r-1", start.Add(2*time.Hour), time.Hour))
	})
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestInsertReservationUnknownResource(t *testing.T) {
	pool := newTestPool(t)
	repo := NewReservationRepository(pool)

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	err := repo.WithTransaction(context.Background(), func(tx persistence.ReservationTx) error {
		return tx.InsertReservation(testReservation("r-1", start, time.Hour))
	})
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}

func TestListApprovedOverlapping(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	seedResource(t, pool, "resource-2")
	repo := NewReservationRepository(pool)

	base := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	insertReservation(t, repo, testReservation("r-1", base, time.Hour))

	pending := testReservation("r-2", base, time.Hour)
	pending.Status = "pending"
	insertReservation(t, repo, pending)

	other := testReservation("r-3", base, time.Hour)
	other.ResourceID = "resource-2"
	insertReservation(t, repo, other)

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		exclude string
		wantIDs []string
	}{
		{"identical interval", base, base.Add(time.Hour), "", []string{"r-1"}},
		{"overlap from left", base.Add(-30 * time.Minute), base.Add(30 * time.Minute), "", []string{"r-1"}},
		{"overlap from right", base.Add(30 * time.Minute), base.Add(90 * time.Minute), "", []string{"r-1"}},
		{"containing interval", base.Add(-time.Hour), base.Add(2 * time.Hour), "", []string{"r-1"}},
		{"contained interval", base.Add(15 * time.Minute), base.Add(45 * time.Minute), "", []string{"r-1"}},
		{"ends at start", base.Add(-time.Hour), base, "", nil},
		{"starts at end", base.Add(time.Hour), base.Add(2 * time.Hour), "", nil},
		{"excluded", base, base.Add(time.Hour), "r-1", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := repo.ListApprovedOverlapping(context.Background(), "resource-1", tc.start, tc.end, tc.exclude)
			if err != nil {
				t.Fatalf("ListApprovedOverlapping: %v", err)
			}
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("expected %d rows, got %+v", len(tc.wantIDs), got)
			}
			for i, id := range tc.wantIDs {
				if got[i].ID != id {
					t.Fatalf("expected %s at %d, got %s", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestUpdateReservation(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	repo := NewReservationRepository(pool)

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	insertReservation(t, repo, testReservation("r-1", start, time.Hour))

	reason := "maintenance window"
	err := repo.WithTransaction(context.Background(), func(tx persistence.ReservationTx) error {
		reservation, err := tx.GetReservation("r-1")
		if err != nil {
			return err
		}
		reservation.Status = "cancelled"
		reservation.DenialReason = &reason
		reservation.UpdatedAt = start.Add(time.Hour)
		return tx.UpdateReservation(reservation)
	})
	if err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	loaded, err := repo.GetReservation(context.Background(), "r-1")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if loaded.Status != "cancelled" || loaded.DenialReason == nil || *loaded.DenialReason != reason {
		t.Fatalf("update not applied: %+v", loaded)
	}

	err = repo.WithTransaction(context.Background(), func(tx persistence.ReservationTx) error {
		missing := testReservation("ghost", start, time.Hour)
		return tx.UpdateReservation(missing)
	})
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTransactionRollsBackOnError(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	repo := NewReservationRepository(pool)

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	sentinel := errors.New("abort")

	err := repo.WithTransaction(context.Background(), func(tx persistence.ReservationTx) error {
		if err := tx.InsertReservation(testReservation("r-1", start, time.Hour)); err != nil {
			return err
		}
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected sentinel error, got %v", err)
	}

	if _, err := repo.GetReservation(context.Background(), "r-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("insert survived rollback: %v", err)
	}
}

func TestConcurrentTransactionsAdmitOneOverlappingInsert(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	repo := NewReservationRepository(pool)

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	errConflict := errors.New("slot taken")

	const writers = 8
	results := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			results <- repo.WithTransaction(context.Background(), func(tx persistence.ReservationTx) error {
				overlaps, err := tx.ListApprovedOverlapping("resource-1", start, start.Add(time.Hour), "")
				if err != nil {
					return err
				}
				if len(overlaps) > 0 {
					return errConflict
				}
				return tx.InsertReservation(testReservation(fmt.Sprintf("r-%d", id), start, time.Hour))
			})
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded, conflicted := 0, 0
	for err := range results {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, errConflict):
			conflicted++
		default:
			t.Fatalf("unexpected transaction error: %v", err)
		}
	}
	if succeeded != 1 || conflicted != writers-1 {
		t.Fatalf("expected exactly one admitted writer, got %d admitted and %d conflicted", succeeded, conflicted)
	}

	stored, err := repo.ListApprovedOverlapping(context.Background(), "resource-1", start, start.Add(time.Hour), "")
	if err != nil {
		t.Fatalf("ListApprovedOverlapping: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("expected one stored reservation, got %d", len(stored))
	}
}

func TestMarkCompleted(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	repo := NewReservationRepository(pool)

	base := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	insertReservation(t, repo, testReservation("past", base.Add(-3*time.Hour), time.Hour))
	insertReservation(t, repo, testReservation("ending-now", base.Add(-time.Hour), time.Hour))
	insertReservation(t, repo, testReservation("future", base.Add(time.Hour), time.Hour))

	pendingPast := testReservation("pending-past", base.Add(-3*time.Hour), time.Hour)
	pendingPast.Status = "pending"
	insertReservation(t, repo, pendingPast)

	affected, err := repo.MarkCompleted(context.Background(), base)
	if err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	if affected != 2 {
		t.Fatalf("expected 2 completions, got %d", affected)
	}

	expect := map[string]string{
		"past":         "completed",
		"ending-now":   "completed",
		"future":       "approved",
		"pending-past": "pending",
	}
	for id, want := range expect {
		loaded, err := repo.GetReservation(context.Background(), id)
		if err != nil {
			t.Fatalf("GetReservation %s: %v", id, err)
		}
		if loaded.Status != want {
			t.Fatalf("%s: expected %s, got %s", id, want, loaded.Status)
		}
	}

	// A second sweep over the same state is a no-op.
	affected, err = repo.MarkCompleted(context.Background(), base)
	if err != nil {
		t.Fatalf("second MarkCompleted: %v", err)
	}
	if affected != 0 {
		t.Fatalf("sweep not idempotent: %d rows", affected)
	}
}

func TestListReservationsFilters(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	seedResource(t, pool, "resource-2")
	repo := NewReservationRepository(pool)

	base := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	insertReservation(t, repo, testReservation("r-1", base, time.Hour))

	byOther := testReservation("r-2", base.Add(2*time.Hour), time.Hour)
	byOther.RequesterID = "user-2"
	byOther.Status = "pending"
	insertReservation(t, repo, byOther)

	elsewhere := testReservation("r-3", base, time.Hour)
	elsewhere.ResourceID = "resource-2"
	insertReservation(t, repo, elsewhere)

	all, err := repo.ListReservations(context.Background(), persistence.ReservationFilter{})
	if err != nil {
		t.Fatalf("ListReservations: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(all))
	}

	mine, err := repo.ListReservations(context.Background(), persistence.ReservationFilter{RequesterID: "user-2"})
	if err != nil {
		t.Fatalf("filter by requester: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != "r-2" {
		t.Fatalf("unexpected rows: %+v", mine)
	}

	pending, err := repo.ListReservations(context.Background(), persistence.ReservationFilter{
		ResourceID: "resource-1",
		Statuses:   []string{"pending"},
	})
	if err != nil {
		t.Fatalf("filter by status: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "r-2" {
		t.Fatalf("unexpected rows: %+v", pending)
	}
}

func TestResourceRepositoryRoundTrip(t *testing.T) {
	pool := newTestPool(t)
	repo := NewResourceRepository(pool)

	now := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	location := "Library, 2nd floor"
	resource := persistence.Resource{
		ID:         "resource-1",
		Title:      "Study Room 101",
		Location:   &location,
		OpenHour:   8,
		CloseHour:  22,
		Restricted: true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := repo.CreateResource(context.Background(), resource); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	loaded, err := repo.GetResource(context.Background(), "resource-1")
	if err != nil {
		t.Fatalf("GetResource: %v", err)
	}
	if loaded.Title != "Study Room 101" || !loaded.Restricted || loaded.OpenHour != 8 || loaded.CloseHour != 22 {
		t.Fatalf("resource mismatch: %+v", loaded)
	}
	if loaded.Location == nil || *loaded.Location != location {
		t.Fatalf("location mismatch: %+v", loaded.Location)
	}

	loaded.Title = "Study Room 101A"
	loaded.UpdatedAt = now.Add(time.Hour)
	if err := repo.UpdateResource(context.Background(), loaded); err != nil {
		t.Fatalf("UpdateResource: %v", err)
	}

	listed, err := repo.ListResources(context.Background())
	if err != nil {
		t.Fatalf("ListResources: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Study Room 101A" {
		t.Fatalf("unexpected resources: %+v", listed)
	}

	if _, err := repo.GetResource(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteResourceWithReservationsFails(t *testing.T) {
	pool := newTestPool(t)
	seedResource(t, pool, "resource-1")
	resources := NewResourceRepository(pool)
	reservations := NewReservationRepository(pool)

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	insertReservation(t, reservations, testReservation("r-1", start, time.Hour))

	err := resources.DeleteResource(context.Background(), "resource-1")
	if !errors.Is(err, persistence.ErrForeignKeyViolation) {
		t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
	}
}
