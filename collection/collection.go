// Package collection provides read access to sets of calendar events
// and owns the canonical order used whenever events from different
// sources are combined.
package collection

import (
	"fmt"
	"sort"
	"time"

	"github.com/perbu/hobbes/dateparse"
	"github.com/perbu/hobbes/event"
)

// Collection is the query surface of a calendar backend. All three
// queries return events overlapping a half-open interval, in no
// particular order; ordering is imposed by the caller via
// SortCanonical. Localized takes zone-aware bounds, Floating takes
// naive wall-clock bounds (see dateparse.Naive), EventsOn covers one
// local calendar day.
type Collection interface {
	EventsOn(day time.Time) ([]event.Event, error)
	Localized(start, end time.Time) ([]event.Event, error)
	Floating(start, end time.Time) ([]event.Event, error)
}

// CanonicalLess is the total event order: wall-clock start in the
// display zone, then summary, then UID. It is the single ordering
// authority for merged event sets.
func CanonicalLess(a, b event.Event, l *time.Location) bool {
	as, bs := a.WallStart(l), b.WallStart(l)
	if !as.Equal(bs) {
		return as.Before(bs)
	}
	if a.Summary() != b.Summary() {
		return a.Summary() < b.Summary()
	}
	return a.UID() < b.UID()
}

// SortCanonical sorts events in place by the canonical order.
func SortCanonical(events []event.Event, l *time.Location) {
	sort.SliceStable(events, func(i, j int) bool {
		return CanonicalLess(events[i], events[j], l)
	})
}

// Multi combines several collections into one. Query errors from any
// member propagate unchanged.
type Multi []Collection

func (m Multi) EventsOn(day time.Time) ([]event.Event, error) {
	var out []event.Event
	for _, c := range m {
		evs, err := c.EventsOn(day)
		if err != nil {
			return nil, err
		}
		out = append(out, evs...)
	}
	return out, nil
}

func (m Multi) Localized(start, end time.Time) ([]event.Event, error) {
	var out []event.Event
	for _, c := range m {
		evs, err := c.Localized(start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, evs...)
	}
	return out, nil
}

func (m Multi) Floating(start, end time.Time) ([]event.Event, error) {
	var out []event.Event
	for _, c := range m {
		evs, err := c.Floating(start, end)
		if err != nil {
			return nil, err
		}
		out = append(out, evs...)
	}
	return out, nil
}

// dayWindow returns the zone-aware and naive bounds of one local
// calendar day.
func dayWindow(day time.Time, locale *dateparse.Locale) (start, end, naiveStart, naiveEnd time.Time) {
	start = dateparse.StartOfDay(day, locale.Location)
	end = dateparse.EndOfDay(day, locale.Location)
	return start, end, dateparse.Naive(start), dateparse.Naive(end)
}

// overlaps reports whether [s, e) intersects [qs, qe). Zero-length
// events count as an instant.
func overlaps(s, e, qs, qe time.Time) bool {
	if !e.After(s) {
		e = s.Add(time.Nanosecond)
	}
	return s.Before(qe) && e.After(qs)
}

func wrapErr(op string, err error) error {
	return fmt.Errorf("collection.%s: %w", op, err)
}
