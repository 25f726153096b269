package booking

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/campus-booking/internal/interval"
	"github.com/example/campus-booking/internal/timeutil"
)

// SlotState classifies a calendar slot for display.
type SlotState string

const (
	SlotAvailable    SlotState = "available"
	SlotBooked       SlotState = "booked"
	SlotOutsideHours SlotState = "outside_hours"
	SlotTooSoon      SlotState = "too_soon"
)

// SlotWidth is the fixed calendar granularity.
const SlotWidth = 30 * time.Minute

// SlotsPerDay is the number of slots in a projected day. The full 24 hours
// are always shown; out-of-hours slots are marked rather than omitted so the
// UI renders a consistent grid.
const SlotsPerDay = 48

// Slot is one cell of the projected day grid, identified by its offset in
// minutes from local midnight. Slots are derived fresh on every request and
// never persisted.
type Slot struct {
	OffsetMinutes int
	State         SlotState
}

// MonthDay is the per-day aggregate of a month projection. Full slot detail
// is deliberately not included to keep the payload small.
type MonthDay struct {
	Day         int
	HasBookings bool
	BookedCount int
}

// Projector derives displayable calendar grids from availability
// configuration, existing reservations and the current time. It is a
// read-only consumer of the reservation set: its overlap math matches the
// write-path conflict check but is intentionally a separate operation, so a
// future change to write-side locking cannot be bypassed through a display
// path.
type Projector struct {
	store   Store
	catalog ResourceCatalog
	policy  Policy
	times   *timeutil.Normalizer
	months  *MonthCache
	logger  *slog.Logger
}

// NewProjector wires the projector dependencies. months may be nil to
// disable month caching.
func NewProjector(store Store, catalog ResourceCatalog, policy Policy, times *timeutil.Normalizer, months *MonthCache, logger *slog.Logger) *Projector {
	return &Projector{
		store:   store,
		catalog: catalog,
		policy:  policy,
		times:   times,
		months:  months,
		logger:  logger,
	}
}

// ProjectDay returns the 48 half-hour slots of the given local calendar day.
// Per-slot precedence is fixed: booked beats outside_hours beats too_soon
// beats available, so an existing reservation always takes visual
// precedence.
func (p *Projector) ProjectDay(ctx context.Context, resourceID string, year int, month time.Month, day int) ([]Slot, error) {
	if p == nil || p.store == nil {
		return nil, fmt.Errorf("calendar projector not configured")
	}

	availability, err := p.catalog.ResourceAvailability(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	p.sweep(ctx)

	dayStart := p.times.LocalDayStart(year, month, day)
	daySpan := interval.NewSpan(dayStart, dayStart.Add(24*time.Hour))

	approved, err := p.store.ApprovedOverlapping(ctx, resourceID, daySpan, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	earliest := p.times.Now().Add(p.policy.MinAdvanceNotice)

	slots := make([]Slot, 0, SlotsPerDay)
	for i := 0; i < SlotsPerDay; i++ {
		offset := i * int(SlotWidth/time.Minute)
		slotStart := dayStart.Add(time.Duration(offset) * time.Minute)
		slotSpan := interval.NewSpan(slotStart, slotStart.Add(SlotWidth))

		state := SlotAvailable
		switch {
		case overlapsAny(slotSpan, approved):
			state = SlotBooked
		case !availability.Open24Hours && outsideOperatingWindow(p.times.ToLocal(slotStart), availability):
			state = SlotOutsideHours
		case slotStart.Before(earliest):
			state = SlotTooSoon
		}

		slots = append(slots, Slot{OffsetMinutes: offset, State: state})
	}

	return slots, nil
}

// ProjectMonth aggregates one booked/free flag per local calendar day of the
// month, computed from a single range query and cached briefly. The cache is
// invalidated on every reservation write.
func (p *Projector) ProjectMonth(ctx context.Context, resourceID string, year int, month time.Month) ([]MonthDay, error) {
	if p == nil || p.store == nil {
		return nil, fmt.Errorf("calendar projector not configured")
	}

	if _, err := p.catalog.ResourceAvailability(ctx, resourceID); err != nil {
		return nil, err
	}

	p.sweep(ctx)

	key := monthCacheKey(resourceID, year, month)
	if p.months != nil {
		if days, ok := p.months.Get(key); ok {
			return days, nil
		}
	}

	monthStart := p.times.LocalDayStart(year, month, 1)
	nextMonthStart := p.times.LocalDayStart(year, month+1, 1)

	approved, err := p.store.ApprovedOverlapping(ctx, resourceID, interval.NewSpan(monthStart, nextMonthStart), "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	daysInMonth := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	days := make([]MonthDay, 0, daysInMonth)
	for day := 1; day <= daysInMonth; day++ {
		daySpan := interval.NewSpan(
			p.times.LocalDayStart(year, month, day),
			p.times.LocalDayStart(year, month, day+1),
		)
		count := 0
		for _, reservation := range approved {
			if daySpan.Overlaps(reservation.Span()) {
				count++
			}
		}
		days = append(days, MonthDay{Day: day, HasBookings: count > 0, BookedCount: count})
	}

	if p.months != nil {
		p.months.Store(key, days)
	}

	return days, nil
}

func (p *Projector) sweep(ctx context.Context) {
	swept, err := p.store.SweepCompleted(ctx, p.times.Now())
	if err != nil {
		serviceLogger(ctx, p.logger, "calendar_sweep").WarnContext(ctx, "completion sweep failed", "error", err)
		return
	}
	if swept > 0 && p.months != nil {
		p.months.Invalidate()
	}
}

func overlapsAny(span interval.Span, reservations []Reservation) bool {
	for _, reservation := range reservations {
		if span.Overlaps(reservation.Span()) {
			return true
		}
	}
	return false
}

// outsideOperatingWindow classifies by the slot's actual local time-of-day,
// matching the validator's boundary rule: a slot beginning at the opening
// boundary is inside, a slot ending at the closing boundary is inside. On
// daylight-saving transition days the nominal offset from midnight and the
// local clock disagree; the operating window follows the clock, as the
// validator does.
func outsideOperatingWindow(localStart time.Time, availability ResourceAvailability) bool {
	startMinute := localStart.Hour()*60 + localStart.Minute()
	endMinute := startMinute + int(SlotWidth/time.Minute)
	return startMinute < availability.OpenHour*60 || endMinute > availability.CloseHour*60
}
