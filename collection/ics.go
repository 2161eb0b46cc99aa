package collection

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"github.com/perbu/hobbes/dateparse"
	"github.com/perbu/hobbes/event"
)

// Recurring events are expanded per query; the cap keeps a runaway
// rule from producing an unbounded working set.
const maxOccurrences = 5000

// ICSSource names one ICS file and the presentation attributes its
// events inherit.
type ICSSource struct {
	Name  string
	Path  string
	Color string
}

// vevent is one parsed VEVENT. Recurrence is kept as the raw rule and
// expanded lazily against the query window.
type vevent struct {
	source   ICSSource
	uid      string
	summary  string
	desc     string
	location string
	start    time.Time
	end      time.Time
	allDay   bool
	floating bool
	rawRRule string
	exdates  []time.Time
}

// ICSCollection is a calendar collection backed by ICS files. It
// parses once at construction and answers overlap queries by
// expanding recurrences into the requested window.
type ICSCollection struct {
	locale *dateparse.Locale
	events []vevent
}

// NewICS reads and parses the given ICS sources.
func NewICS(sources []ICSSource, locale *dateparse.Locale) (*ICSCollection, error) {
	c := &ICSCollection{locale: locale}
	for _, src := range sources {
		body, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, wrapErr("NewICS", err)
		}
		evs, err := parseICS(src, body)
		if err != nil {
			return nil, fmt.Errorf("collection.NewICS: %s: %w", src.Path, err)
		}
		c.events = append(c.events, evs...)
	}
	return c, nil
}

// NewICSFromData builds a collection from an in-memory ICS payload,
// used by the import preview and by tests.
func NewICSFromData(src ICSSource, body []byte, locale *dateparse.Locale) (*ICSCollection, error) {
	evs, err := parseICS(src, body)
	if err != nil {
		return nil, wrapErr("NewICSFromData", err)
	}
	return &ICSCollection{locale: locale, events: evs}, nil
}

// parseICS parses one ICS payload into vevents. Events without a UID
// or DTSTART are rejected; the whole payload fails, matching the
// fatal-input error policy.
func parseICS(src ICSSource, body []byte) ([]vevent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	var out []vevent
	for _, comp := range cal.Events() {
		ev, err := parseVEvent(src, comp)
		if err != nil {
			return nil, fmt.Errorf("vevent: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func parseVEvent(src ICSSource, ve *ical.VEvent) (vevent, error) {
	out := vevent{source: src}

	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return out, errors.New("missing UID")
	}
	out.uid = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.desc = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.location = p.Value
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil || dtstart.Value == "" {
		return out, errors.New("missing DTSTART")
	}
	out.allDay = isDateValue(dtstart)
	out.floating = out.allDay || isFloatingValue(dtstart)

	var err error
	out.start, err = parsePropTime(dtstart)
	if err != nil {
		return out, fmt.Errorf("DTSTART: %w", err)
	}

	if dtend := ve.GetProperty(ical.ComponentPropertyDtEnd); dtend != nil && dtend.Value != "" {
		out.end, err = parsePropTime(dtend)
		if err != nil {
			return out, fmt.Errorf("DTEND: %w", err)
		}
	} else if out.allDay {
		out.end = out.start.AddDate(0, 0, 1)
	} else {
		out.end = out.start
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.rawRRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		// EXDATE carries its own TZID; parsing it in the wrong zone
		// yields a different instant and the exclusion never matches.
		tz, err := tzidLocation(p.ICalParameters)
		if err != nil {
			return out, fmt.Errorf("EXDATE: %w", err)
		}
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			t, err := parseICSTime(part, tz)
			if err != nil {
				return out, fmt.Errorf("EXDATE: %w", err)
			}
			out.exdates = append(out.exdates, t)
		}
	}
	return out, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

func isFloatingValue(p *ical.IANAProperty) bool {
	if tzs, ok := p.ICalParameters["TZID"]; ok && len(tzs) > 0 {
		return false
	}
	return !strings.HasSuffix(p.Value, "Z")
}

func parsePropTime(p *ical.IANAProperty) (time.Time, error) {
	tz, err := tzidLocation(p.ICalParameters)
	if err != nil {
		return time.Time{}, err
	}
	return parseICSTime(p.Value, tz)
}

// tzidLocation resolves a property's TZID parameter, nil when absent.
func tzidLocation(params map[string][]string) (*time.Location, error) {
	tzs, ok := params["TZID"]
	if !ok || len(tzs) == 0 {
		return nil, nil
	}
	loc, err := time.LoadLocation(tzs[0])
	if err != nil {
		return nil, fmt.Errorf("TZID %q: %w", tzs[0], err)
	}
	return loc, nil
}

// parseICSTime parses the three ICS time shapes: UTC ("...Z"), local
// date-time and bare date. Floating values are kept as wall clocks in
// UTC; a TZID, when given, wins.
func parseICSTime(v string, tz *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		if tz != nil {
			return time.ParseInLocation("20060102T150405", v, tz)
		}
		return time.ParseInLocation("20060102T150405", v, time.UTC)
	default:
		if tz != nil {
			return time.ParseInLocation("20060102", v, tz)
		}
		return time.ParseInLocation("20060102", v, time.UTC)
	}
}

// All returns every parsed event once, recurrences unexpanded. Events
// sharing a UID (recurrence overrides) stay together: groups appear in
// first-seen order, ordered by start within each group. Used by the
// import preview.
func (c *ICSCollection) All() []event.Event {
	var order []string
	groups := make(map[string][]vevent)
	for _, ve := range c.events {
		if _, ok := groups[ve.uid]; !ok {
			order = append(order, ve.uid)
		}
		groups[ve.uid] = append(groups[ve.uid], ve)
	}
	out := make([]event.Event, 0, len(c.events))
	for _, uid := range order {
		g := groups[uid]
		sort.SliceStable(g, func(i, j int) bool { return g[i].start.Before(g[j].start) })
		for _, ve := range g {
			out = append(out, c.build(ve, ve.start, ve.end))
		}
	}
	return out
}

func (c *ICSCollection) EventsOn(day time.Time) ([]event.Event, error) {
	start, end, naiveStart, naiveEnd := dayWindow(day, c.locale)
	zoned, err := c.Localized(start, end)
	if err != nil {
		return nil, err
	}
	floating, err := c.Floating(naiveStart, naiveEnd)
	if err != nil {
		return nil, err
	}
	return append(zoned, floating...), nil
}

func (c *ICSCollection) Localized(start, end time.Time) ([]event.Event, error) {
	return c.query(start, end, false)
}

func (c *ICSCollection) Floating(start, end time.Time) ([]event.Event, error) {
	return c.query(start, end, true)
}

func (c *ICSCollection) query(start, end time.Time, floating bool) ([]event.Event, error) {
	var out []event.Event
	for _, ve := range c.events {
		if ve.floating != floating {
			continue
		}
		occ, err := expand(ve, start, end)
		if err != nil {
			return nil, wrapErr("query", err)
		}
		for _, o := range occ {
			out = append(out, c.build(ve, o.start, o.end))
		}
	}
	return out, nil
}

type occurrence struct {
	start, end time.Time
}

// expand yields the concrete instances of ve overlapping [start, end).
// Non-recurring events produce at most one.
func expand(ve vevent, start, end time.Time) ([]occurrence, error) {
	if ve.rawRRule == "" {
		if overlaps(ve.start, ve.end, start, end) {
			return []occurrence{{ve.start, ve.end}}, nil
		}
		return nil, nil
	}

	r, err := rrule.StrToRRule(ve.rawRRule)
	if err != nil {
		return nil, fmt.Errorf("RRULE %q: %w", ve.rawRRule, err)
	}
	r.DTStart(ve.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ve.exdates {
		set.ExDate(ex.In(ve.start.Location()))
	}

	dur := ve.end.Sub(ve.start)
	// Widen the query left so instances that started earlier but still
	// overlap the window are found.
	windowStart := start.In(ve.start.Location()).Add(-dur)
	windowEnd := end.In(ve.start.Location())

	times := set.Between(windowStart, windowEnd, true)
	if len(times) > maxOccurrences {
		log.Printf("collection: %s: recurrence expansion capped at %d occurrences", ve.uid, maxOccurrences)
		times = times[:maxOccurrences]
	}

	var out []occurrence
	for _, t := range times {
		o := occurrence{start: t, end: t.Add(dur)}
		if overlaps(o.start, o.end, start, end) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (c *ICSCollection) build(ve vevent, start, end time.Time) event.Event {
	attrs := event.Attributes{
		UID:         ve.uid,
		Summary:     ve.summary,
		Description: ve.desc,
		Location:    ve.location,
		Calendar:    ve.source.Name,
		Color:       ve.source.Color,
		Start:       start,
		End:         end,
		AllDay:      ve.allDay,
	}
	if ve.floating {
		return event.NewFloating(attrs, c.locale)
	}
	return event.NewZoned(attrs, c.locale)
}
