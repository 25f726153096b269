package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    time.Time
		wantErr bool
	}{
		{
			name:  "utc",
			input: "2026-03-10T14:30:00Z",
			want:  time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "offset normalized to utc",
			input: "2026-03-10T09:30:00-05:00",
			want:  time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		},
		{
			name:  "fractional seconds",
			input: "2026-03-10T14:30:00.5Z",
			want:  time.Date(2026, 3, 10, 14, 30, 0, 500000000, time.UTC),
		},
		{name: "empty", input: "", wantErr: true},
		{name: "naive local", input: "2026-03-10T14:30:00", wantErr: true},
		{name: "garbage", input: "next tuesday", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseInstant(tc.input)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTimestamp) {
					t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
			if got.Location() != time.UTC {
				t.Fatalf("expected UTC location, got %s", got.Location())
			}
		})
	}
}

func TestParseWallClock(t *testing.T) {
	wc, err := ParseWallClock("2026-03-10T14:30")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wc.Year != 2026 || wc.Month != time.March || wc.Day != 10 || wc.Hour != 14 || wc.Minute != 30 {
		t.Fatalf("unexpected wall clock: %+v", wc)
	}

	if _, err := ParseWallClock("2026-03-10T14:30:00Z"); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("zoned input must not parse as wall clock, got %v", err)
	}
	if _, err := ParseWallClock(""); !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp for empty input, got %v", err)
	}
}

func TestNormalizerResolveUsesIANARules(t *testing.T) {
	n, err := NewNormalizer("America/New_York", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// EST, UTC-5: 2026-01-15 09:00 local is 14:00Z.
	winter := n.Resolve(WallClock{Year: 2026, Month: time.January, Day: 15, Hour: 9})
	if want := time.Date(2026, 1, 15, 14, 0, 0, 0, time.UTC); !winter.Equal(want) {
		t.Fatalf("winter: expected %s, got %s", want, winter)
	}

	// EDT, UTC-4: the same wall-clock time in July is 13:00Z.
	summer := n.Resolve(WallClock{Year: 2026, Month: time.July, Day: 15, Hour: 9})
	if want := time.Date(2026, 7, 15, 13, 0, 0, 0, time.UTC); !summer.Equal(want) {
		t.Fatalf("summer: expected %s, got %s", want, summer)
	}
}

func TestNormalizerRejectsUnknownZone(t *testing.T) {
	if _, err := NewNormalizer("Campus/Nowhere", nil); err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestNormalizerNowReturnsUTC(t *testing.T) {
	fixed := time.Date(2026, 3, 10, 9, 0, 0, 0, time.FixedZone("EST", -5*60*60))
	n, err := NewNormalizer("America/New_York", func() time.Time { return fixed })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now := n.Now()
	if now.Location() != time.UTC {
		t.Fatalf("expected UTC, got %s", now.Location())
	}
	if !now.Equal(fixed) {
		t.Fatalf("expected %s, got %s", fixed, now)
	}
}

func TestLocalDayStart(t *testing.T) {
	n, err := NewNormalizer("America/New_York", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := n.LocalDayStart(2026, time.January, 15)
	if want := time.Date(2026, 1, 15, 5, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Fatalf("expected %s, got %s", want, start)
	}
}
