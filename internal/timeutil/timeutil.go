// Package timeutil is the single source of truth for time handling in the
// booking core. All persisted instants are UTC. Wall-clock input collected
// from local datetime form fields carries no zone information and must pass
// through Normalizer.Resolve, which interprets it in the institutional zone
// using IANA rules. Already-zoned API and storage values parse through
// ParseInstant. Keeping the two entry points distinct is what prevents a
// naive local value from being stored shifted by the UTC offset.
package timeutil

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidTimestamp reports input that cannot be interpreted as a point in
// time. Callers treat it as a validation failure, not a fault.
var ErrInvalidTimestamp = errors.New("timeutil: invalid timestamp")

// wallClockLayouts are the accepted shapes for local datetime form input.
var wallClockLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// WallClock is a naive local date-time: a calendar position with no zone
// attached. It can only become an absolute instant through
// Normalizer.Resolve.
type WallClock struct {
	Year   int
	Month  time.Month
	Day    int
	Hour   int
	Minute int
	Second int
}

// ParseWallClock parses a zone-less local datetime string.
func ParseWallClock(value string) (WallClock, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return WallClock{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	for _, layout := range wallClockLayouts {
		parsed, err := time.Parse(layout, trimmed)
		if err != nil {
			continue
		}
		return WallClock{
			Year:   parsed.Year(),
			Month:  parsed.Month(),
			Day:    parsed.Day(),
			Hour:   parsed.Hour(),
			Minute: parsed.Minute(),
			Second: parsed.Second(),
		}, nil
	}
	return WallClock{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, trimmed)
}

// ParseInstant parses an RFC 3339 timestamp that carries explicit zone
// information and returns it normalized to UTC.
func ParseInstant(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrInvalidTimestamp)
	}
	if parsed, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return parsed.UTC(), nil
	}
	parsed, err := time.Parse(time.RFC3339, trimmed)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, trimmed)
	}
	return parsed.UTC(), nil
}

// Normalizer converts between UTC instants and the institutional local zone.
// The zero value is not usable; construct with NewNormalizer.
type Normalizer struct {
	location *time.Location
	now      func() time.Time
}

// NewNormalizer resolves the institutional IANA zone name and wires the time
// source. A nil now falls back to time.Now.
func NewNormalizer(zone string, now func() time.Time) (*Normalizer, error) {
	location, err := time.LoadLocation(strings.TrimSpace(zone))
	if err != nil {
		return nil, fmt.Errorf("timeutil: unknown timezone %q: %w", zone, err)
	}
	if now == nil {
		now = time.Now
	}
	return &Normalizer{location: location, now: now}, nil
}

// Now returns the current instant in UTC.
func (n *Normalizer) Now() time.Time {
	if n == nil || n.now == nil {
		return time.Now().UTC()
	}
	return n.now().UTC()
}

// Location exposes the institutional zone.
func (n *Normalizer) Location() *time.Location {
	if n == nil || n.location == nil {
		return time.UTC
	}
	return n.location
}

// Resolve interprets a wall-clock value in the institutional zone and returns
// the corresponding UTC instant. Daylight-saving transitions follow the IANA
// rules of the configured zone: a wall-clock time inside a spring-forward gap
// resolves to the instant after the gap, per time.Date semantics.
func (n *Normalizer) Resolve(wc WallClock) time.Time {
	return time.Date(wc.Year, wc.Month, wc.Day, wc.Hour, wc.Minute, wc.Second, 0, n.Location()).UTC()
}

// ToLocal re-expresses an instant in the institutional zone.
func (n *Normalizer) ToLocal(t time.Time) time.Time {
	return t.In(n.Location())
}

// LocalDayStart returns the UTC instant at which the given local calendar day
// begins.
func (n *Normalizer) LocalDayStart(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, n.Location()).UTC()
}
