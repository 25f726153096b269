// Package interval provides half-open time interval math for the booking
// core. An interval [start, end) includes its start instant and excludes its
// end instant, so back-to-back intervals that touch at an endpoint do not
// overlap.
package interval

import "time"

// Span is a half-open interval [Start, End) over absolute instants.
type Span struct {
	Start time.Time
	End   time.Time
}

// NewSpan builds a span from two instants.
func NewSpan(start, end time.Time) Span {
	return Span{Start: start, End: end}
}

// IsValid reports whether the span has positive length.
func (s Span) IsValid() bool {
	return s.End.After(s.Start)
}

// Duration returns the span length.
func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps reports whether two half-open spans intersect.
func (s Span) Overlaps(other Span) bool {
	return Overlaps(s.Start, s.End, other.Start, other.End)
}

// Contains reports whether the instant falls inside the span.
func (s Span) Contains(t time.Time) bool {
	return !t.Before(s.Start) && t.Before(s.End)
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
// Touching endpoints do not count as overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}
