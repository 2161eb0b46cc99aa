package agenda

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/perbu/hobbes/event"
)

func TestVerticalMonthLayout(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	anchor := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	lines, err := VerticalMonth(nil, anchor, MonthOptions{
		Locale: testLocale(),
		Months: 1,
	})
	if err != nil {
		t.Fatal(err)
	}

	// Title, weekday header, five week rows, trailing separator.
	if len(lines) != 8 {
		t.Fatalf("got %d lines, want 8: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "June 2024") {
		t.Errorf("title line = %q, want it to contain June 2024", lines[0])
	}
	if lines[1] != "Mo Tu We Th Fr Sa Su" {
		t.Errorf("weekday header = %q", lines[1])
	}
	// June 1st 2024 is a Saturday: the first row holds only 1 and 2.
	if !strings.HasSuffix(lines[2], " 1  2") {
		t.Errorf("first week row = %q, want it to end with \" 1  2\"", lines[2])
	}
	if !strings.Contains(lines[4], "12") {
		t.Errorf("anchor week row = %q, want it to contain 12", lines[4])
	}
}

func TestVerticalMonthFirstWeekdaySunday(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	loc := testLocale()
	loc.FirstWeekday = 6 // Sunday
	anchor := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	lines, err := VerticalMonth(nil, anchor, MonthOptions{Locale: loc, Months: 1})
	if err != nil {
		t.Fatal(err)
	}
	if lines[1] != "Su Mo Tu We Th Fr Sa" {
		t.Errorf("weekday header = %q", lines[1])
	}
}

func TestVerticalMonthSpansMonths(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	anchor := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	lines, err := VerticalMonth(nil, anchor, MonthOptions{
		Locale: testLocale(),
		Months: 3,
	})
	if err != nil {
		t.Fatal(err)
	}
	joined := strings.Join(lines, "\n")
	for _, title := range []string{"June 2024", "July 2024", "August 2024"} {
		if !strings.Contains(joined, title) {
			t.Errorf("missing month %q", title)
		}
	}
}

func TestVerticalMonthHighlight(t *testing.T) {
	old := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = old }()

	day := time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC)
	coll := &fakeCollection{
		zoned: []event.Event{
			zonedAt("a", "Standup", day.Add(9*time.Hour), day.Add(10*time.Hour)),
		},
	}
	anchor := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)
	// Highlighting must query without error; with colors disabled the
	// layout is unchanged.
	lines, err := VerticalMonth(coll, anchor, MonthOptions{
		Locale:    testLocale(),
		Months:    1,
		Highlight: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(strings.Join(lines, "\n"), "20") {
		t.Errorf("day 20 missing from pane")
	}
}
