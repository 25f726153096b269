package main

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/interval"
	"github.com/example/campus-booking/internal/persistence"
	"github.com/example/campus-booking/internal/persistence/sqlite"
)

func newAdapterFixture(t *testing.T) (*storeAdapter, *catalogAdapter) {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "bookingd_test.db") + "?_foreign_keys=on"
	pool, err := sqlite.NewConnectionPool(dsn)
	if err != nil {
		t.Fatalf("NewConnectionPool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	resourceRepo := sqlite.NewResourceRepository(pool)
	now := time.Date(2024, time.January, 2, 15, 0, 0, 0, time.UTC)
	if err := resourceRepo.CreateResource(context.Background(), persistence.Resource{
		ID:        "resource-1",
		Title:     "Study Room 101",
		OpenHour:  8,
		CloseHour: 22,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateResource: %v", err)
	}

	return newStoreAdapter(sqlite.NewReservationRepository(pool)), newCatalogAdapter(resourceRepo)
}

func TestStoreAdapterRoundTrip(t *testing.T) {
	store, _ := newAdapterFixture(t)
	ctx := context.Background()

	start := time.Date(2024, time.January, 3, 14, 0, 0, 0, time.UTC)
	reservation := booking.Reservation{
		ID:          "r-1",
		ResourceID:  "resource-1",
		RequesterID: "user-1",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      booking.StatusApproved,
		CreatedAt:   start,
		UpdatedAt:   start,
	}

	err := store.InTransaction(ctx, func(tx booking.Tx) error {
		return tx.InsertReservation(reservation)
	})
	if err != nil {
		t.Fatalf("InTransaction: %v", err)
	}

	fetched, err := store.GetReservation(ctx, "r-1")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if fetched.Status != booking.StatusApproved || !fetched.Start.Equal(start) {
		t.Fatalf("unexpected reservation: %+v", fetched)
	}

	overlaps, err := store.ApprovedOverlapping(ctx, "resource-1", interval.NewSpan(start.Add(30*time.Minute), start.Add(90*time.Minute)), "")
	if err != nil {
		t.Fatalf("ApprovedOverlapping: %v", err)
	}
	if len(overlaps) != 1 || overlaps[0].ID != "r-1" {
		t.Fatalf("unexpected overlaps: %+v", overlaps)
	}
}

func TestStoreAdapterMapsMissingReservation(t *testing.T) {
	store, _ := newAdapterFixture(t)

	if _, err := store.GetReservation(context.Background(), "ghost"); !errors.Is(err, booking.ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestStoreAdapterSweepCompletes(t *testing.T) {
	store, _ := newAdapterFixture(t)
	ctx := context.Background()

	start := time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)
	reservation := booking.Reservation{
		ID:          "r-past",
		ResourceID:  "resource-1",
		RequesterID: "user-1",
		Start:       start,
		End:         start.Add(time.Hour),
		Status:      booking.StatusApproved,
		CreatedAt:   start,
		UpdatedAt:   start,
	}
	if err := store.InTransaction(ctx, func(tx booking.Tx) error {
		return tx.InsertReservation(reservation)
	}); err != nil {
		t.Fatalf("InTransaction: %v", err)
	}

	swept, err := store.SweepCompleted(ctx, start.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("SweepCompleted: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept reservation, got %d", swept)
	}

	fetched, err := store.GetReservation(ctx, "r-past")
	if err != nil {
		t.Fatalf("GetReservation: %v", err)
	}
	if fetched.Status != booking.StatusCompleted {
		t.Fatalf("expected completed, got %s", fetched.Status)
	}
}

func TestCatalogAdapter(t *testing.T) {
	_, catalog := newAdapterFixture(t)
	ctx := context.Background()

	availability, err := catalog.ResourceAvailability(ctx, "resource-1")
	if err != nil {
		t.Fatalf("ResourceAvailability: %v", err)
	}
	if availability.Title != "Study Room 101" || availability.OpenHour != 8 || availability.CloseHour != 22 {
		t.Fatalf("unexpected availability: %+v", availability)
	}

	if _, err := catalog.ResourceAvailability(ctx, "ghost"); !errors.Is(err, booking.ErrResourceNotFound) {
		t.Fatalf("expected ErrResourceNotFound, got %v", err)
	}
}
