package gcal

import (
	"errors"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/perbu/hobbes/dateparse"
)

// fakeLister is a canned EventLister.
type fakeLister struct {
	items []*calendar.Event
	err   error
}

func (f *fakeLister) ListWindow(start, end time.Time) ([]*calendar.Event, error) {
	return f.items, f.err
}

func testLocale() *dateparse.Locale {
	return &dateparse.Locale{
		Location:       time.UTC,
		DateFormat:     "02.01.2006",
		TimeFormat:     "15:04",
		LongDateFormat: "Monday, 02 January 2006",
	}
}

func testSource(items []*calendar.Event, err error) *Source {
	return &Source{
		lister: &fakeLister{items: items, err: err},
		name:   "gcal",
		color:  "cyan",
		locale: testLocale(),
	}
}

func mixedItems() []*calendar.Event {
	return []*calendar.Event{
		{
			Id:      "timed-1",
			Summary: "Meeting with Bob",
			Start:   &calendar.EventDateTime{DateTime: "2024-06-10T10:00:00Z"},
			End:     &calendar.EventDateTime{DateTime: "2024-06-10T11:00:00Z"},
		},
		{
			Id:      "allday-1",
			Summary: "Company holiday",
			Start:   &calendar.EventDateTime{Date: "2024-06-10"},
			End:     &calendar.EventDateTime{Date: "2024-06-11"},
		},
	}
}

func TestLocalizedKeepsOnlyTimedEvents(t *testing.T) {
	s := testSource(mixedItems(), nil)
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	got, err := s.Localized(start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].UID() != "timed-1" {
		t.Fatalf("Localized = %d events, want only timed-1", len(got))
	}
	if got[0].AllDay() {
		t.Error("timed event marked all-day")
	}
	if want := time.Date(2024, 6, 10, 10, 0, 0, 0, time.UTC); !got[0].WallStart(time.UTC).Equal(want) {
		t.Errorf("WallStart = %v, want %v", got[0].WallStart(time.UTC), want)
	}
	if got[0].Calendar() != "gcal" || got[0].Color() != "cyan" {
		t.Errorf("source attributes not applied: %q %q", got[0].Calendar(), got[0].Color())
	}
}

func TestFloatingKeepsOnlyAllDayEvents(t *testing.T) {
	s := testSource(mixedItems(), nil)
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	got, err := s.Floating(start, start.AddDate(0, 0, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].UID() != "allday-1" {
		t.Fatalf("Floating = %d events, want only allday-1", len(got))
	}
	if !got[0].AllDay() {
		t.Error("all-day event not marked all-day")
	}
}

func TestEventsOnCombinesBothKinds(t *testing.T) {
	s := testSource(mixedItems(), nil)
	day := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	got, err := s.EventsOn(day)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("EventsOn = %d events, want 2", len(got))
	}
}

func TestListerErrorsPropagate(t *testing.T) {
	apiErr := errors.New("api unavailable")
	s := testSource(nil, apiErr)
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

	if _, err := s.Localized(start, start.AddDate(0, 0, 1)); !errors.Is(err, apiErr) {
		t.Errorf("Localized error = %v, want wrapped api error", err)
	}
	if _, err := s.Floating(start, start.AddDate(0, 0, 1)); !errors.Is(err, apiErr) {
		t.Errorf("Floating error = %v, want wrapped api error", err)
	}
}

func TestMalformedTimestampFails(t *testing.T) {
	s := testSource([]*calendar.Event{
		{
			Id:      "broken",
			Summary: "Bad clock",
			Start:   &calendar.EventDateTime{DateTime: "not-a-timestamp"},
		},
	}, nil)
	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	if _, err := s.Localized(start, start.AddDate(0, 0, 1)); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}
