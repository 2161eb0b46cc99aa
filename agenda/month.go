package agenda

import (
	"fmt"
	"strings"
	"time"

	"github.com/perbu/hobbes/collection"
	"github.com/perbu/hobbes/dateparse"
	"github.com/perbu/hobbes/terminal"
)

// The month pane is laid out in fixed cells: seven two-cell day
// columns separated by spaces, plus an optional week-number column.
const monthPaneWidth = 20

// MonthOptions configures the vertical month pane.
type MonthOptions struct {
	Locale     *dateparse.Locale
	Months     int  // number of months, anchor month first; 0 means 3
	WeekNumber bool // append ISO week numbers to each row
	Highlight  bool // mark days that have events
}

// VerticalMonth renders a stack of month grids starting at anchor's
// month. The anchor day is shown inverted; with Highlight set, days
// with events are shown bold in the first event's calendar color,
// which costs one collection query per day.
func VerticalMonth(coll collection.Collection, anchor time.Time, opts MonthOptions) ([]string, error) {
	months := opts.Months
	if months <= 0 {
		months = 3
	}
	anchor = dateparse.StartOfDay(anchor, opts.Locale.Location)

	var out []string
	first := time.Date(anchor.Year(), anchor.Month(), 1, 0, 0, 0, 0, opts.Locale.Location)
	for m := 0; m < months; m++ {
		month := first.AddDate(0, m, 0)
		lines, err := renderMonth(coll, month, anchor, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, lines...)
	}
	return out, nil
}

func renderMonth(coll collection.Collection, month, anchor time.Time, opts MonthOptions) ([]string, error) {
	locale := opts.Locale
	title := month.Format("January 2006")
	pad := (monthPaneWidth - terminal.DisplayWidth(title)) / 2
	if pad < 0 {
		pad = 0
	}
	out := []string{strings.Repeat(" ", pad) + terminal.Bold(title)}
	out = append(out, weekdayHeader(locale.FirstWeekday))

	// Walk week rows from the first day of the week containing the 1st.
	cursor := dateparse.WeekStart(month, locale.FirstWeekday)
	for cursor.Month() == month.Month() || cursor.Before(month) {
		row := make([]string, 0, 8)
		weekHasDays := false
		for i := 0; i < 7; i++ {
			day := cursor.AddDate(0, 0, i)
			if day.Month() != month.Month() {
				row = append(row, "  ")
				continue
			}
			weekHasDays = true
			cell, err := dayCell(coll, day, anchor, opts)
			if err != nil {
				return nil, err
			}
			row = append(row, cell)
		}
		if !weekHasDays {
			break
		}
		line := strings.Join(row, " ")
		if opts.WeekNumber {
			_, wk := cursor.ISOWeek()
			line += fmt.Sprintf(" %2d", wk)
		}
		out = append(out, line)
		cursor = cursor.AddDate(0, 0, 7)
	}
	out = append(out, "")
	return out, nil
}

func weekdayHeader(firstWeekday int) string {
	names := []string{"Mo", "Tu", "We", "Th", "Fr", "Sa", "Su"}
	cells := make([]string, 7)
	for i := 0; i < 7; i++ {
		cells[i] = names[(firstWeekday+i)%7]
	}
	return strings.Join(cells, " ")
}

func dayCell(coll collection.Collection, day, anchor time.Time, opts MonthOptions) (string, error) {
	cell := fmt.Sprintf("%2d", day.Day())
	if day.Equal(anchor) {
		return terminal.Inverse(cell), nil
	}
	if !opts.Highlight || coll == nil {
		return cell, nil
	}
	events, err := coll.EventsOn(day)
	if err != nil {
		return "", fmt.Errorf("agenda.VerticalMonth: %w", err)
	}
	if len(events) == 0 {
		return cell, nil
	}
	return terminal.Bold(terminal.Colored(cell, events[0].Color(), true)), nil
}
