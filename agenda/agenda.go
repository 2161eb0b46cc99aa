// Package agenda turns loose date expressions and a calendar
// collection into ordered, wrapped, colorized agenda lines. It is the
// pipeline behind the agenda, list and calendar views: resolve a
// range, partition it into days, merge zoned and floating events, and
// format the result.
package agenda

import (
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/perbu/hobbes/collection"
	"github.com/perbu/hobbes/dateparse"
	"github.com/perbu/hobbes/event"
	"github.com/perbu/hobbes/terminal"
)

// Range is a half-open [Start, End) interval. It lives for one
// pipeline invocation and is never persisted.
type Range struct {
	Start time.Time
	End   time.Time
}

// Line is one formatted output line with its presentation attributes.
// Produced by the formatter and consumed immediately by the printer.
type Line struct {
	Text  string
	Color string
	Bold  bool
}

// Render applies the line's color and weight for terminal output.
func (l Line) Render(boldForLight bool) string {
	s := l.Text
	if l.Color != "" {
		s = terminal.Colored(s, l.Color, boldForLight)
	}
	if l.Bold {
		s = terminal.Bold(s)
	}
	return s
}

// ResolveRange turns range tokens into a concrete interval. Empty
// tokens mean today: [start-of-today, start-of-tomorrow), stretched to
// defaultSpan when one is configured. Non-empty tokens go through the
// date-expression parser; unparseable input fails with
// dateparse.InvalidDateError.
func ResolveRange(tokens []string, locale *dateparse.Locale, now time.Time, defaultSpan *time.Duration) (Range, error) {
	if len(tokens) == 0 {
		start := dateparse.StartOfDay(now, locale.Location)
		if defaultSpan == nil {
			return Range{Start: start, End: dateparse.EndOfDay(start, locale.Location)}, nil
		}
		return Range{Start: start, End: start.Add(*defaultSpan)}, nil
	}
	start, end, err := dateparse.ParseRange(tokens, locale, now)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: start, End: end}, nil
}

// DayWindow describes the day-window view: anchor days, a day count
// and the week/show-all modifiers.
type DayWindow struct {
	Anchors     []time.Time // anchor dates; empty means today
	Days        int         // days per anchor; 0 means 2
	Week        bool        // snap anchors to week start, force 7 days
	ShowAllDays bool        // render days without events too
}

// ExpandDays expands the window into the flat, ascending day list the
// formatter walks. Days reachable from several anchors are kept as
// duplicates: each anchor contributes its window independently.
func ExpandDays(w DayWindow, locale *dateparse.Locale, now time.Time) []time.Time {
	anchors := w.Anchors
	if len(anchors) == 0 {
		anchors = []time.Time{dateparse.StartOfDay(now, locale.Location)}
	}
	days := w.Days
	if days <= 0 {
		days = 2
	}
	if w.Week {
		snapped := make([]time.Time, len(anchors))
		for i, a := range anchors {
			snapped[i] = dateparse.WeekStart(dateparse.StartOfDay(a, locale.Location), locale.FirstWeekday)
		}
		anchors = snapped
		days = 7
	}

	out := make([]time.Time, 0, len(anchors)*days)
	for offset := 0; offset < days; offset++ {
		for _, a := range anchors {
			out = append(out, dateparse.StartOfDay(a, locale.Location).AddDate(0, 0, offset))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// DayNames pairs each day with its header label: "Today:",
// "Tomorrow:", or the locale's long date format. The sequence is
// single-use; the formatter consumes it exactly once.
func DayNames(days []time.Time, locale *dateparse.Locale, now time.Time) iter.Seq2[time.Time, string] {
	today := dateparse.StartOfDay(now, locale.Location)
	tomorrow := today.AddDate(0, 0, 1)
	return func(yield func(time.Time, string) bool) {
		for _, day := range days {
			label := day.Format(locale.LongDateFormat)
			switch {
			case dateparse.SameDate(day, today):
				label = "Today:"
			case dateparse.SameDate(day, tomorrow):
				label = "Tomorrow:"
			}
			if !yield(day, label) {
				return
			}
		}
	}
}

// Partition splits r into per-day sub-ranges at local midnights. The
// sub-ranges are contiguous, non-overlapping and reassemble r exactly.
// With once set the range passes through whole, so the span is queried
// and rendered in one shot.
func Partition(r Range, once bool, l *time.Location) []Range {
	if once {
		return []Range{r}
	}
	var out []Range
	cursor := r.Start
	for cursor.Before(r.End) {
		dayEnd := dateparse.EndOfDay(cursor, l)
		if dayEnd.After(r.End) {
			dayEnd = r.End
		}
		out = append(out, Range{Start: cursor, End: dayEnd})
		cursor = dayEnd
	}
	return out
}

// sourceKind distinguishes where a merged event came from.
type sourceKind int

const (
	zonedKind sourceKind = iota
	floatingKind
)

// merged tags an event with its source kind. The tag exists only to
// keep the two query results distinguishable until the post-union
// sort; nothing downstream sees it.
type merged struct {
	ev   event.Event
	kind sourceKind
}

// Merge queries both event kinds overlapping r and combines them into
// one sequence under the canonical order. Both source lists are sorted
// individually and the union is sorted again: the collection's order
// is the single authority and is applied uniformly. With notstarted
// set, events already in progress at r.Start are dropped.
func Merge(coll collection.Collection, r Range, notstarted bool, locale *dateparse.Locale) ([]event.Event, error) {
	locStart := r.Start.In(locale.Location)
	locEnd := r.End.In(locale.Location)

	zoned, err := coll.Localized(locStart, locEnd)
	if err != nil {
		return nil, fmt.Errorf("agenda.Merge: localized: %w", err)
	}
	collection.SortCanonical(zoned, locale.Location)

	floating, err := coll.Floating(dateparse.Naive(locStart), dateparse.Naive(locEnd))
	if err != nil {
		return nil, fmt.Errorf("agenda.Merge: floating: %w", err)
	}
	collection.SortCanonical(floating, locale.Location)

	union := make([]merged, 0, len(zoned)+len(floating))
	for _, ev := range zoned {
		union = append(union, merged{ev: ev, kind: zonedKind})
	}
	for _, ev := range floating {
		union = append(union, merged{ev: ev, kind: floatingKind})
	}
	sort.SliceStable(union, func(i, j int) bool {
		return collection.CanonicalLess(union[i].ev, union[j].ev, locale.Location)
	})

	out := make([]event.Event, 0, len(union))
	for _, m := range union {
		if notstarted && m.ev.WallStart(locale.Location).Before(locStart) {
			continue
		}
		out = append(out, m.ev)
	}
	return out, nil
}

// Format carries everything event rendering needs: the template, an
// optional wrap width, and the static environment values templates may
// reference.
type Format struct {
	Template string
	Width    int
	Env      map[string]string
}

// renderEvents formats each event relative to the window, wraps the
// result and colorizes each physical line with the event's calendar
// color. A template referencing a missing field aborts the render.
func renderEvents(events []event.Event, window Range, f Format) ([]Line, error) {
	var out []Line
	for _, ev := range events {
		text, err := ev.Format(f.Template, event.Window{Start: window.Start, End: window.End}, f.Env)
		if err != nil {
			return nil, fmt.Errorf("agenda: rendering event %q: %w", ev.UID(), err)
		}
		for _, line := range terminal.Wrap(text, f.Width) {
			out = append(out, Line{Text: line, Color: ev.Color()})
		}
	}
	return out, nil
}

// noEvents is the placeholder emitted when a view produced nothing.
var noEvents = Line{Text: "No events", Bold: true}

// ListOptions configures the range pipeline.
type ListOptions struct {
	Locale      *dateparse.Locale
	Now         time.Time
	Format      Format
	Once        bool
	NotStarted  bool
	DefaultSpan *time.Duration
}

// List is the range pipeline: resolve the token range, partition it
// into days (or not, with Once), merge each partition and render one
// block per event in partition order.
func List(coll collection.Collection, tokens []string, opts ListOptions) ([]Line, error) {
	r, err := ResolveRange(tokens, opts.Locale, opts.Now, opts.DefaultSpan)
	if err != nil {
		return nil, err
	}

	var out []Line
	for _, part := range Partition(r, opts.Once, opts.Locale.Location) {
		events, err := Merge(coll, part, opts.NotStarted, opts.Locale)
		if err != nil {
			return nil, err
		}
		lines, err := renderEvents(events, part, opts.Format)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	if len(out) == 0 {
		out = []Line{noEvents}
	}
	return out, nil
}

// AgendaOptions configures the day-window pipeline.
type AgendaOptions struct {
	Locale *dateparse.Locale
	Now    time.Time
	Format Format
	Window DayWindow
}

// Agenda is the day-window pipeline: expand the anchors into labelled
// days and render each day's merged events under a bold header, blank
// lines separating the groups. Days without events are skipped unless
// the window asks for all of them.
func Agenda(coll collection.Collection, opts AgendaOptions) ([]Line, error) {
	days := ExpandDays(opts.Window, opts.Locale, opts.Now)

	var out []Line
	for day, label := range DayNames(days, opts.Locale, opts.Now) {
		dayRange := Range{
			Start: dateparse.StartOfDay(day, opts.Locale.Location),
			End:   dateparse.EndOfDay(day, opts.Locale.Location),
		}
		events, err := Merge(coll, dayRange, false, opts.Locale)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 && !opts.Window.ShowAllDays {
			continue
		}
		if len(out) > 0 {
			out = append(out, Line{})
		}
		out = append(out, Line{Text: label, Bold: true})
		lines, err := renderEvents(events, dayRange, opts.Format)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	if len(out) == 0 {
		out = []Line{noEvents}
	}
	return out, nil
}
