package booking

import (
	"context"
	"time"

	"github.com/example/campus-booking/internal/interval"
	"github.com/example/campus-booking/internal/timeutil"
)

// Validator applies the booking rules to a candidate (resource, start, end)
// triple. It is side-effect free aside from the one read of the resource's
// availability configuration, so every rule can be unit-tested in isolation.
type Validator struct {
	catalog ResourceCatalog
	policy  Policy
	times   *timeutil.Normalizer
}

// NewValidator wires the validator dependencies.
func NewValidator(catalog ResourceCatalog, policy Policy, times *timeutil.Normalizer) *Validator {
	return &Validator{catalog: catalog, policy: policy, times: times}
}

// Validate checks the candidate interval against the rules in order,
// short-circuiting on the first failure:
//
//  1. both instants present             -> RuleInvalidTimestamp
//  2. start >= now + advance notice     -> RuleTooSoon
//  3. end > start                       -> RuleInvalidRange
//  4. duration >= minimum               -> RuleTooShort
//  5. duration <= maximum               -> RuleTooLong
//  6. resource exists                   -> ErrResourceNotFound
//  7. interval inside operating hours   -> RuleOutsideHours
//
// "Now" is read from the injected clock at validation time, not at
// request-receipt time, so long-queued requests are re-validated against
// current time. On success the interval is returned re-expressed in UTC
// together with the availability configuration consulted for rule 7.
func (v *Validator) Validate(ctx context.Context, resourceID string, start, end time.Time) (interval.Span, ResourceAvailability, error) {
	if start.IsZero() || end.IsZero() {
		return interval.Span{}, ResourceAvailability{}, newRuleError(RuleInvalidTimestamp, "start and end are required")
	}

	start = start.UTC()
	end = end.UTC()

	now := v.times.Now()
	earliest := now.Add(v.policy.MinAdvanceNotice)
	if start.Before(earliest) {
		return interval.Span{}, ResourceAvailability{}, newRuleError(RuleTooSoon,
			"start must be at least %s from now", v.policy.MinAdvanceNotice)
	}

	if !end.After(start) {
		return interval.Span{}, ResourceAvailability{}, newRuleError(RuleInvalidRange, "end must be after start")
	}

	duration := end.Sub(start)
	if duration < v.policy.MinDuration {
		return interval.Span{}, ResourceAvailability{}, newRuleError(RuleTooShort,
			"booking must last at least %s", v.policy.MinDuration)
	}
	if duration > v.policy.MaxDuration {
		return interval.Span{}, ResourceAvailability{}, newRuleError(RuleTooLong,
			"booking must not exceed %s", v.policy.MaxDuration)
	}

	availability, err := v.catalog.ResourceAvailability(ctx, resourceID)
	if err != nil {
		return interval.Span{}, ResourceAvailability{}, err
	}

	if !availability.Open24Hours {
		if err := v.checkOperatingHours(availability, start, end); err != nil {
			return interval.Span{}, ResourceAvailability{}, err
		}
	}

	return interval.NewSpan(start, end), availability, nil
}

// checkOperatingHours verifies the interval against the resource's daily
// local-time window. A start exactly on the opening boundary is legal, as is
// an end exactly on the closing boundary; an end even one second past the
// close is not. Because operating windows never wrap midnight, the interval
// must also fall within one local calendar day; an end at exactly local
// midnight counts as minute 1440 of the starting day.
func (v *Validator) checkOperatingHours(availability ResourceAvailability, start, end time.Time) error {
	localStart := v.times.ToLocal(start)
	localEnd := v.times.ToLocal(end)

	startMinute := localStart.Hour()*60 + localStart.Minute()
	endMinute := localEnd.Hour()*60 + localEnd.Minute()
	if localEnd.Second() != 0 || localEnd.Nanosecond() != 0 {
		// A sub-minute end extends past the floored minute, so it must
		// round up or an end of 22:00:30 would pass a 22:00 close.
		endMinute++
	}

	endDay := localEnd
	if endMinute == 0 {
		endMinute = 24 * 60
		endDay = localEnd.AddDate(0, 0, -1)
	}

	sameDay := localStart.Year() == endDay.Year() &&
		localStart.Month() == endDay.Month() &&
		localStart.Day() == endDay.Day()
	if !sameDay {
		return newRuleError(RuleOutsideHours, "booking must not span multiple days")
	}

	openMinute := availability.OpenHour * 60
	closeMinute := availability.CloseHour * 60
	if startMinute < openMinute || endMinute > closeMinute {
		return newRuleError(RuleOutsideHours, "booking must fall between %02d:00 and %02d:00 local time",
			availability.OpenHour, availability.CloseHour)
	}

	return nil
}
