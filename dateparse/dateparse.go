package dateparse

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Locale carries the date and time conventions every parse and render
// step uses. It is built once from the configuration and passed
// explicitly, so the pipeline never reads ambient process state.
type Locale struct {
	Location       *time.Location
	DateFormat     string // e.g. "02.01.2006"
	TimeFormat     string // e.g. "15:04"
	LongDateFormat string // e.g. "Monday, 02 January 2006"
	FirstWeekday   int    // 0 = Monday .. 6 = Sunday
}

// InvalidDateError reports a date expression the parser could not make
// sense of, carrying the offending input text.
type InvalidDateError struct {
	Input string
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: %q", e.Input)
}

var weekdays = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// ParseSingle parses one date or datetime expression. It understands
// "today", "tomorrow", "yesterday", weekday names (next occurrence),
// the locale's date and datetime formats, ISO dates, a day-and-month
// form ("24.12.") completed with the current year, and a bare time of
// day (today at that time). Date-only expressions resolve to local
// midnight.
func ParseSingle(tokens []string, loc *Locale, now time.Time) (time.Time, error) {
	text := strings.TrimSpace(strings.Join(tokens, " "))
	if text == "" {
		return time.Time{}, &InvalidDateError{Input: text}
	}
	today := StartOfDay(now, loc.Location)

	switch strings.ToLower(text) {
	case "today":
		return today, nil
	case "tomorrow":
		return today.AddDate(0, 0, 1), nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}

	if wd, ok := weekdays[strings.ToLower(text)]; ok {
		days := (int(wd) - int(today.Weekday()) + 7) % 7
		if days == 0 {
			days = 7
		}
		return today.AddDate(0, 0, days), nil
	}

	layouts := []string{
		loc.DateFormat + " " + loc.TimeFormat,
		"2006-01-02 15:04",
		loc.DateFormat,
		"2006-01-02",
		"02.01.2006",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, text, loc.Location); err == nil {
			return t, nil
		}
	}

	// Day and month without a year, completed with the current one.
	if t, err := time.ParseInLocation("02.01.", text, loc.Location); err == nil {
		return time.Date(now.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc.Location), nil
	}

	// A bare time of day means today at that time.
	if t, err := time.ParseInLocation(loc.TimeFormat, text, loc.Location); err == nil {
		return time.Date(today.Year(), today.Month(), today.Day(),
			t.Hour(), t.Minute(), 0, 0, loc.Location), nil
	}

	return time.Time{}, &InvalidDateError{Input: text}
}

// ParseRange parses a free-form range expression into a half-open
// [start, end) interval. Supported forms:
//
//   - one date: that day
//   - "week": the current week (honoring the locale's first weekday)
//   - two dates: from the first up to and including the second
//   - a date followed by a duration ("monday 3d")
//
// A datetime start or end is used as the exact instant. Expressions
// that cannot be parsed, or that collapse to an empty or inverted
// range, fail with InvalidDateError.
func ParseRange(tokens []string, loc *Locale, now time.Time) (time.Time, time.Time, error) {
	joined := strings.Join(tokens, " ")
	if len(tokens) == 0 {
		return time.Time{}, time.Time{}, &InvalidDateError{Input: joined}
	}

	if len(tokens) == 1 && strings.EqualFold(tokens[0], "week") {
		start := WeekStart(StartOfDay(now, loc.Location), loc.FirstWeekday)
		return start, start.AddDate(0, 0, 7), nil
	}

	// Find the longest prefix that parses as the start expression.
	var start time.Time
	var startIsDate bool
	rest := tokens
	for i := len(tokens); i > 0; i-- {
		t, err := ParseSingle(tokens[:i], loc, now)
		if err != nil {
			continue
		}
		start = t
		startIsDate = isMidnight(t)
		rest = tokens[i:]
		break
	}
	if start.IsZero() {
		return time.Time{}, time.Time{}, &InvalidDateError{Input: joined}
	}

	var end time.Time
	switch {
	case len(rest) == 0:
		if startIsDate {
			end = start.AddDate(0, 0, 1)
		} else {
			end = EndOfDay(start, loc.Location)
		}
	default:
		if d, err := ParseDuration(strings.Join(rest, " ")); err == nil {
			end = start.Add(d)
			break
		}
		t, err := ParseSingle(rest, loc, now)
		if err != nil {
			return time.Time{}, time.Time{}, &InvalidDateError{Input: joined}
		}
		if isMidnight(t) {
			// A date end is inclusive: extend to the next midnight.
			end = t.AddDate(0, 0, 1)
		} else {
			end = t
		}
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, &InvalidDateError{Input: joined}
	}
	return start, end, nil
}

// ParseDuration parses durations like "2d", "1w", "1d12h" or anything
// time.ParseDuration accepts.
func ParseDuration(text string) (time.Duration, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, fmt.Errorf("dateparse.ParseDuration: empty input")
	}
	var total time.Duration
	num := ""
	consumed := false
	for i, r := range text {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'w' || r == 'd':
			if num == "" {
				return 0, fmt.Errorf("dateparse.ParseDuration: %q", text)
			}
			n, err := strconv.Atoi(num)
			if err != nil {
				return 0, fmt.Errorf("dateparse.ParseDuration: %q: %w", text, err)
			}
			if r == 'w' {
				total += time.Duration(n) * 7 * 24 * time.Hour
			} else {
				total += time.Duration(n) * 24 * time.Hour
			}
			num = ""
			consumed = true
		default:
			// Sub-day units: hand the remaining text to the standard
			// parser ("1d2h30m" -> 1d consumed here, 2h30m below).
			d, err := time.ParseDuration(num + text[i:])
			if err != nil {
				return 0, fmt.Errorf("dateparse.ParseDuration: %q: %w", text, err)
			}
			return total + d, nil
		}
	}
	if num != "" || !consumed {
		d, err := time.ParseDuration(text)
		if err != nil {
			return 0, fmt.Errorf("dateparse.ParseDuration: %q: %w", text, err)
		}
		return total + d, nil
	}
	return total, nil
}

// StartOfDay returns t's date at midnight in l.
func StartOfDay(t time.Time, l *time.Location) time.Time {
	t = t.In(l)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, l)
}

// EndOfDay returns the first instant after t's date, i.e. the
// exclusive bound of the day's half-open interval.
func EndOfDay(t time.Time, l *time.Location) time.Time {
	return StartOfDay(t, l).AddDate(0, 0, 1)
}

// WeekStart snaps t back to the start of its week. firstWeekday uses
// 0 = Monday .. 6 = Sunday.
func WeekStart(t time.Time, firstWeekday int) time.Time {
	// time.Weekday counts from Sunday; shift to Monday-based.
	wd := (int(t.Weekday()) + 6) % 7
	back := (wd - firstWeekday + 7) % 7
	return t.AddDate(0, 0, -back)
}

// Naive strips the zone from t, keeping the wall clock. Naive times
// are represented in UTC so they compare by wall clock alone; they are
// the currency of floating-event queries.
func Naive(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// SameDate reports whether a and b fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
