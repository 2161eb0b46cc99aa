package dateparse

import (
	"errors"
	"testing"
	"time"
)

func testLocale() *Locale {
	return &Locale{
		Location:       time.UTC,
		DateFormat:     "02.01.2006",
		TimeFormat:     "15:04",
		LongDateFormat: "Monday, 02 January 2006",
		FirstWeekday:   0,
	}
}

// A fixed Wednesday keeps weekday arithmetic deterministic.
var wednesday = time.Date(2024, 6, 12, 14, 30, 0, 0, time.UTC)

func TestParseSingle(t *testing.T) {
	loc := testLocale()

	tests := []struct {
		name      string
		tokens    []string
		want      time.Time
		expectErr bool
	}{
		{
			name:   "today",
			tokens: []string{"today"},
			want:   time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "tomorrow",
			tokens: []string{"tomorrow"},
			want:   time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "yesterday",
			tokens: []string{"yesterday"},
			want:   time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "next monday",
			tokens: []string{"monday"},
			want:   time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "same weekday means next week",
			tokens: []string{"wednesday"},
			want:   time.Date(2024, 6, 19, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "iso date",
			tokens: []string{"2024-12-24"},
			want:   time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "locale date",
			tokens: []string{"24.12.2024"},
			want:   time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "day and month only",
			tokens: []string{"24.12."},
			want:   time.Date(2024, 12, 24, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "datetime",
			tokens: []string{"24.12.2024", "18:00"},
			want:   time.Date(2024, 12, 24, 18, 0, 0, 0, time.UTC),
		},
		{
			name:   "bare time means today",
			tokens: []string{"09:15"},
			want:   time.Date(2024, 6, 12, 9, 15, 0, 0, time.UTC),
		},
		{
			name:      "garbage",
			tokens:    []string{"definitely-not-a-date"},
			expectErr: true,
		},
		{
			name:      "empty",
			tokens:    nil,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSingle(tt.tokens, loc, wednesday)
			if (err != nil) != tt.expectErr {
				t.Fatalf("ParseSingle() error = %v, expectErr %v", err, tt.expectErr)
			}
			if tt.expectErr {
				var invalid *InvalidDateError
				if !errors.As(err, &invalid) {
					t.Fatalf("expected InvalidDateError, got %T", err)
				}
				return
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseSingle() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseRange(t *testing.T) {
	loc := testLocale()

	tests := []struct {
		name      string
		tokens    []string
		wantStart time.Time
		wantEnd   time.Time
		expectErr bool
	}{
		{
			name:      "single date covers that day",
			tokens:    []string{"2024-06-10"},
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 11, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "two dates inclusive end",
			tokens:    []string{"2024-06-10", "2024-06-12"},
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "date plus duration",
			tokens:    []string{"2024-06-10", "3d"},
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "week snaps to first weekday",
			tokens:    []string{"week"},
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 17, 0, 0, 0, 0, time.UTC),
		},
		{
			name:      "datetime end is exact",
			tokens:    []string{"2024-06-10", "2024-06-12", "18:00"},
			wantStart: time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			wantEnd:   time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC),
		},
		{
			name:      "inverted range",
			tokens:    []string{"2024-06-12", "2024-06-01"},
			expectErr: true,
		},
		{
			name:      "garbage",
			tokens:    []string{"nope"},
			expectErr: true,
		},
		{
			name:      "empty",
			tokens:    nil,
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end, err := ParseRange(tt.tokens, loc, wednesday)
			if (err != nil) != tt.expectErr {
				t.Fatalf("ParseRange() error = %v, expectErr %v", err, tt.expectErr)
			}
			if tt.expectErr {
				var invalid *InvalidDateError
				if !errors.As(err, &invalid) {
					t.Fatalf("expected InvalidDateError, got %T", err)
				}
				return
			}
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("ParseRange() = [%v, %v), want [%v, %v)", start, end, tt.wantStart, tt.wantEnd)
			}
			if !start.Before(end) {
				t.Errorf("ParseRange() returned start >= end without error")
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in        string
		want      time.Duration
		expectErr bool
	}{
		{in: "2d", want: 48 * time.Hour},
		{in: "1w", want: 7 * 24 * time.Hour},
		{in: "1w2d", want: 9 * 24 * time.Hour},
		{in: "1d12h", want: 36 * time.Hour},
		{in: "2h30m", want: 2*time.Hour + 30*time.Minute},
		{in: "90m", want: 90 * time.Minute},
		{in: "", expectErr: true},
		{in: "d", expectErr: true},
		{in: "soon", expectErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if (err != nil) != tt.expectErr {
				t.Fatalf("ParseDuration(%q) error = %v, expectErr %v", tt.in, err, tt.expectErr)
			}
			if !tt.expectErr && got != tt.want {
				t.Errorf("ParseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWeekStart(t *testing.T) {
	// 2024-06-12 is a Wednesday.
	day := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	monday := WeekStart(day, 0)
	if want := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC); !monday.Equal(want) {
		t.Errorf("WeekStart(wed, monday) = %v, want %v", monday, want)
	}

	sunday := WeekStart(day, 6)
	if want := time.Date(2024, 6, 9, 0, 0, 0, 0, time.UTC); !sunday.Equal(want) {
		t.Errorf("WeekStart(wed, sunday) = %v, want %v", sunday, want)
	}

	// A day already on the week start stays put.
	if got := WeekStart(monday, 0); !got.Equal(monday) {
		t.Errorf("WeekStart(monday, monday) = %v, want %v", got, monday)
	}
}

func TestDayBounds(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	at := time.Date(2024, 6, 12, 23, 59, 0, 0, zone)

	start := StartOfDay(at, zone)
	if want := time.Date(2024, 6, 12, 0, 0, 0, 0, zone); !start.Equal(want) {
		t.Errorf("StartOfDay = %v, want %v", start, want)
	}
	end := EndOfDay(at, zone)
	if want := time.Date(2024, 6, 13, 0, 0, 0, 0, zone); !end.Equal(want) {
		t.Errorf("EndOfDay = %v, want %v", end, want)
	}
}

func TestNaive(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	at := time.Date(2024, 6, 12, 9, 0, 0, 0, zone)
	got := Naive(at)
	want := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Naive kept the instant, not the wall clock: %v, want %v", got, want)
	}
}
