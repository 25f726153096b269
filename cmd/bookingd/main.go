package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/campus-booking/internal/booking"
	"github.com/example/campus-booking/internal/config"
	"github.com/example/campus-booking/internal/httpapi"
	"github.com/example/campus-booking/internal/interval"
	"github.com/example/campus-booking/internal/notify"
	"github.com/example/campus-booking/internal/persistence"
	"github.com/example/campus-booking/internal/persistence/sqlite"
	"github.com/example/campus-booking/internal/timeutil"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	now := time.Now

	times, err := timeutil.NewNormalizer(cfg.Timezone, now)
	if err != nil {
		logger.Error("failed to resolve timezone", "error", err)
		os.Exit(1)
	}

	reservationRepo := sqlite.NewReservationRepository(pool)
	resourceRepo := sqlite.NewResourceRepository(pool)

	store := newStoreAdapter(reservationRepo)
	catalog := newCatalogAdapter(resourceRepo)

	policy := cfg.Policy()
	months := booking.NewMonthCache(cfg.MonthCacheTTL, 64, now)
	validator := booking.NewValidator(catalog, policy, times)
	notifier := notify.NewLogNotifier(logger)
	service := booking.NewService(store, catalog, validator, notifier, months, idGenerator, now, logger)
	projector := booking.NewProjector(store, catalog, policy, times, months, logger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Bookings:  httpapi.NewBookingHandler(service, catalog, times, logger),
		Calendar:  httpapi.NewCalendarHandler(projector, logger),
		Resources: httpapi.NewResourceHandler(resourceRepo, idGenerator, now, logger),
		Middleware: []func(http.Handler) http.Handler{
			httpapi.RequestLogger(logger),
			httpapi.RequireCaller(httpapi.NewTokenVerifier(cfg.TokenSecret), logger),
		},
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("booking API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// storeAdapter bridges the SQLite reservation repository to the storage
// contract the booking service expects, translating persistence sentinels
// into the booking error taxonomy.
type storeAdapter struct {
	repo persistence.ReservationRepository
}

func newStoreAdapter(repo persistence.ReservationRepository) *storeAdapter {
	return &storeAdapter{repo: repo}
}

func (a *storeAdapter) GetReservation(ctx context.Context, id string) (booking.Reservation, error) {
	stored, err := a.repo.GetReservation(ctx, id)
	if err != nil {
		return booking.Reservation{}, mapReservationError(err)
	}
	return stored.Domain(), nil
}

func (a *storeAdapter) ListReservations(ctx context.Context, filter booking.ReservationFilter) ([]booking.Reservation, error) {
	stored, err := a.repo.ListReservations(ctx, toPersistenceFilter(filter))
	if err != nil {
		return nil, err
	}
	return toDomainReservations(stored), nil
}

func (a *storeAdapter) ApprovedOverlapping(ctx context.Context, resourceID string, span interval.Span, excludeID string) ([]booking.Reservation, error) {
	stored, err := a.repo.ListApprovedOverlapping(ctx, resourceID, span.Start, span.End, excludeID)
	if err != nil {
		return nil, err
	}
	return toDomainReservations(stored), nil
}

func (a *storeAdapter) InTransaction(ctx context.Context, fn func(tx booking.Tx) error) error {
	return a.repo.WithTransaction(ctx, func(tx persistence.ReservationTx) error {
		return fn(&txAdapter{tx: tx})
	})
}

func (a *storeAdapter) SweepCompleted(ctx context.Context, reference time.Time) (int64, error) {
	return a.repo.MarkCompleted(ctx, reference)
}

type txAdapter struct {
	tx persistence.ReservationTx
}

func (a *txAdapter) GetReservation(id string) (booking.Reservation, error) {
	stored, err := a.tx.GetReservation(id)
	if err != nil {
		return booking.Reservation{}, mapReservationError(err)
	}
	return stored.Domain(), nil
}

func (a *txAdapter) InsertReservation(reservation booking.Reservation) error {
	return a.tx.InsertReservation(persistence.ReservationFromDomain(reservation))
}

func (a *txAdapter) UpdateReservation(reservation booking.Reservation) error {
	if err := a.tx.UpdateReservation(persistence.ReservationFromDomain(reservation)); err != nil {
		return mapReservationError(err)
	}
	return nil
}

func (a *txAdapter) ApprovedOverlapping(resourceID string, span interval.Span, excludeID string) ([]booking.Reservation, error) {
	stored, err := a.tx.ListApprovedOverlapping(resourceID, span.Start, span.End, excludeID)
	if err != nil {
		return nil, err
	}
	return toDomainReservations(stored), nil
}

// catalogAdapter exposes the resource table as the availability lookup the
// validator and projector consume.
type catalogAdapter struct {
	repo persistence.ResourceRepository
}

func newCatalogAdapter(repo persistence.ResourceRepository) *catalogAdapter {
	return &catalogAdapter{repo: repo}
}

func (a *catalogAdapter) ResourceAvailability(ctx context.Context, resourceID string) (booking.ResourceAvailability, error) {
	resource, err := a.repo.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return booking.ResourceAvailability{}, booking.ErrResourceNotFound
		}
		return booking.ResourceAvailability{}, err
	}
	return resource.Availability(), nil
}

func mapReservationError(err error) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return fmt.Errorf("%w: %v", booking.ErrReservationNotFound, err)
	}
	return err
}

func toPersistenceFilter(filter booking.ReservationFilter) persistence.ReservationFilter {
	mapped := persistence.ReservationFilter{
		ResourceID:   filter.ResourceID,
		RequesterID:  filter.RequesterID,
		StartsBefore: filter.StartsBefore,
		EndsAfter:    filter.EndsAfter,
	}
	for _, status := range filter.Statuses {
		mapped.Statuses = append(mapped.Statuses, string(status))
	}
	return mapped
}

func toDomainReservations(stored []persistence.Reservation) []booking.Reservation {
	if len(stored) == 0 {
		return nil
	}
	reservations := make([]booking.Reservation, 0, len(stored))
	for _, record := range stored {
		reservations = append(reservations, record.Domain())
	}
	return reservations
}
