package event

import (
	"fmt"
	"strings"
	"time"

	"github.com/perbu/hobbes/dateparse"
)

// FormatKeyError reports a render template referencing a field no
// event exposes. It is fatal to the whole render: a broken template
// should not degrade into partial output.
type FormatKeyError struct {
	Key string
}

func (e *FormatKeyError) Error() string {
	return fmt.Sprintf("unknown template field: %q", e.Key)
}

// Window is the interval an event is rendered relative to, typically
// one day or the full queried range. Its bounds carry the display
// zone.
type Window struct {
	Start time.Time
	End   time.Time
}

// Event is the capability every calendar event exposes to the
// pipeline: identity, ordering inputs and template rendering. The
// pipeline never mutates events and never looks behind this interface.
type Event interface {
	UID() string
	Summary() string
	Calendar() string
	Color() string
	AllDay() bool

	// WallStart and WallEnd return the event bounds as wall-clock
	// times in the given zone. Zoned events convert; floating events
	// keep their wall clock whatever the zone.
	WallStart(l *time.Location) time.Time
	WallEnd(l *time.Location) time.Time

	// Format renders the event through a "{field}" template relative
	// to the active window. Unknown fields fail with FormatKeyError.
	Format(tmpl string, w Window, env map[string]string) (string, error)
}

// Attributes is the construction set shared by both event kinds.
type Attributes struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Calendar    string
	Color       string
	Start       time.Time
	End         time.Time
	AllDay      bool
}

type base struct {
	attrs  Attributes
	locale *dateparse.Locale
}

func (b *base) UID() string      { return b.attrs.UID }
func (b *base) Summary() string  { return b.attrs.Summary }
func (b *base) Calendar() string { return b.attrs.Calendar }
func (b *base) Color() string    { return b.attrs.Color }
func (b *base) AllDay() bool     { return b.attrs.AllDay }

// Zoned is an event whose times carry explicit timezone information.
type Zoned struct {
	base
}

// NewZoned builds a zoned event. Start and End keep the locations they
// come with.
func NewZoned(a Attributes, locale *dateparse.Locale) *Zoned {
	return &Zoned{base{attrs: a, locale: locale}}
}

func (z *Zoned) WallStart(l *time.Location) time.Time { return z.attrs.Start.In(l) }
func (z *Zoned) WallEnd(l *time.Location) time.Time   { return z.attrs.End.In(l) }

func (z *Zoned) Format(tmpl string, w Window, env map[string]string) (string, error) {
	return render(tmpl, &z.base, z, w, env)
}

// Floating is an event without timezone information, interpreted in
// whatever zone the viewer is in. Its times are stored as bare wall
// clocks.
type Floating struct {
	base
}

// NewFloating builds a floating event. The zone of a.Start and a.End
// is discarded; only the wall clock is kept.
func NewFloating(a Attributes, locale *dateparse.Locale) *Floating {
	a.Start = dateparse.Naive(a.Start)
	a.End = dateparse.Naive(a.End)
	return &Floating{base{attrs: a, locale: locale}}
}

func (f *Floating) WallStart(l *time.Location) time.Time { return rebuild(f.attrs.Start, l) }
func (f *Floating) WallEnd(l *time.Location) time.Time   { return rebuild(f.attrs.End, l) }

func (f *Floating) Format(tmpl string, w Window, env map[string]string) (string, error) {
	return render(tmpl, &f.base, f, w, env)
}

// rebuild reinterprets a naive wall clock in the given zone.
func rebuild(t time.Time, l *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), l)
}

// render expands every "{field}" in tmpl. Field values come from the
// event first, then from the static env map. Braces with no closing
// counterpart are an error; "{{" escapes a literal brace.
func render(tmpl string, b *base, ev Event, w Window, env map[string]string) (string, error) {
	loc := b.locale.Location
	if !w.Start.IsZero() {
		loc = w.Start.Location()
	}

	var out strings.Builder
	for len(tmpl) > 0 {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			out.WriteString(tmpl)
			break
		}
		out.WriteString(tmpl[:open])
		tmpl = tmpl[open+1:]
		if strings.HasPrefix(tmpl, "{") {
			out.WriteByte('{')
			tmpl = tmpl[1:]
			continue
		}
		closing := strings.IndexByte(tmpl, '}')
		if closing < 0 {
			return "", fmt.Errorf("event.Format: unclosed placeholder in %q", tmpl)
		}
		key := tmpl[:closing]
		tmpl = tmpl[closing+1:]

		val, ok := b.field(key, ev, loc, w)
		if !ok {
			val, ok = env[key]
		}
		if !ok {
			return "", &FormatKeyError{Key: key}
		}
		out.WriteString(val)
	}
	return out.String(), nil
}

func (b *base) field(key string, ev Event, loc *time.Location, w Window) (string, bool) {
	start := ev.WallStart(loc)
	end := ev.WallEnd(loc)

	switch key {
	case "title":
		return b.attrs.Summary, true
	case "description":
		return b.attrs.Description, true
	case "location":
		return b.attrs.Location, true
	case "calendar":
		return b.attrs.Calendar, true
	case "uid":
		return b.attrs.UID, true
	case "start-date":
		return start.Format(b.locale.DateFormat), true
	case "end-date":
		return end.Format(b.locale.DateFormat), true
	case "start-long":
		return start.Format(b.locale.LongDateFormat), true
	case "start-time":
		if b.attrs.AllDay {
			return "", true
		}
		return start.Format(b.locale.TimeFormat), true
	case "end-time":
		if b.attrs.AllDay {
			return "", true
		}
		return end.Format(b.locale.TimeFormat), true
	case "start":
		if b.attrs.AllDay {
			return start.Format(b.locale.DateFormat), true
		}
		return start.Format(b.locale.DateFormat + " " + b.locale.TimeFormat), true
	case "end":
		if b.attrs.AllDay {
			return end.Format(b.locale.DateFormat), true
		}
		return end.Format(b.locale.DateFormat + " " + b.locale.TimeFormat), true
	case "start-end-time-style":
		return b.timeStyle(start, end, w), true
	case "duration":
		return formatDuration(end.Sub(start)), true
	}
	return "", false
}

// timeStyle is the compact time column used by the default templates:
// "(all day)" for date events, otherwise "start-end" clipped to the
// window, with dates shown when the event leaks out of it.
func (b *base) timeStyle(start, end time.Time, w Window) string {
	if b.attrs.AllDay {
		return "(all day)"
	}
	startStr := start.Format(b.locale.TimeFormat)
	endStr := end.Format(b.locale.TimeFormat)
	if !w.Start.IsZero() {
		if start.Before(w.Start) {
			startStr = start.Format(b.locale.DateFormat + " " + b.locale.TimeFormat)
		}
		if !w.End.IsZero() && end.After(w.End) {
			endStr = end.Format(b.locale.DateFormat + " " + b.locale.TimeFormat)
		}
	}
	return startStr + "-" + endStr
}

func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	days := d / (24 * time.Hour)
	rest := d % (24 * time.Hour)
	hours := rest / time.Hour
	minutes := (rest % time.Hour) / time.Minute
	parts := ""
	if days > 0 {
		parts += fmt.Sprintf("%dd", days)
	}
	if hours > 0 {
		parts += fmt.Sprintf("%dh", hours)
	}
	if minutes > 0 || parts == "" {
		parts += fmt.Sprintf("%dm", minutes)
	}
	return parts
}
