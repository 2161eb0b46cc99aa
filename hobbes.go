package main

import (
	"context"
	_ "embed"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/perbu/hobbes/agenda"
	"github.com/perbu/hobbes/collection"
	"github.com/perbu/hobbes/config"
	"github.com/perbu/hobbes/dateparse"
	"github.com/perbu/hobbes/event"
	"github.com/perbu/hobbes/gcal"
	"github.com/perbu/hobbes/terminal"
)

//go:embed .version
var embeddedVersion string

// The calendar pane occupies a fixed left column; the event list gets
// the rest of the terminal.
const calendarPaneWidth = 25

func run(args []string) error {
	loader, err := config.NewFileLoader()
	if err != nil {
		return fmt.Errorf("config.NewFileLoader: %w", err)
	}
	cfg, err := loader.LoadConfig()
	if err != nil {
		return fmt.Errorf("loader.LoadConfig: %w", err)
	}
	locale, err := cfg.BuildLocale()
	if err != nil {
		return err
	}

	if len(args) < 1 || args[0] == "help" {
		usage()
		return nil
	}

	now := time.Now().In(locale.Location)

	switch args[0] {
	case "agenda":
		return runAgenda(args[1:], loader, cfg, locale, now)
	case "list":
		return runList(args[1:], loader, cfg, locale, now, false)
	case "calendar":
		return runList(args[1:], loader, cfg, locale, now, true)
	case "import":
		return runImport(args[1:], locale)
	default:
		usage()
		return fmt.Errorf("unknown command: %q", args[0])
	}
}

func usage() {
	fmt.Println("hobbes - terminal calendar, version", embeddedVersion)
	fmt.Println("Usage: hobbes <command> [flags] [dates...]")
	fmt.Println("Commands:")
	fmt.Println("  agenda   [dates...]     upcoming events grouped by day")
	fmt.Println("  list     [daterange]    events in a date range")
	fmt.Println("  calendar [daterange]    list view beside a month calendar")
	fmt.Println("  import   <file.ics>     preview events from an ICS file")
	fmt.Println("Example: hobbes agenda -days 7 monday")
}

// buildCollection assembles the configured sources into one queryable
// collection.
func buildCollection(loader config.Loader, cfg *config.Config, locale *dateparse.Locale) (collection.Collection, error) {
	var multi collection.Multi
	if len(cfg.Calendars) > 0 {
		sources := make([]collection.ICSSource, 0, len(cfg.Calendars))
		for _, cal := range cfg.Calendars {
			sources = append(sources, collection.ICSSource{Name: cal.Name, Path: cal.Path, Color: cal.Color})
		}
		ics, err := collection.NewICS(sources, locale)
		if err != nil {
			return nil, err
		}
		multi = append(multi, ics)
	}
	if cfg.Google != nil {
		src, err := gcal.NewSource(context.Background(), loader, *cfg.Google, locale)
		if err != nil {
			return nil, fmt.Errorf("gcal.NewSource: %w", err)
		}
		multi = append(multi, src)
	}
	if len(multi) == 0 {
		return nil, fmt.Errorf("no calendars configured")
	}
	return multi, nil
}

func runAgenda(args []string, loader config.Loader, cfg *config.Config, locale *dateparse.Locale, now time.Time) error {
	fs := flag.NewFlagSet("agenda", flag.ContinueOnError)
	days := fs.Int("days", 2, "number of days per anchor date")
	week := fs.Bool("week", false, "show whole weeks, anchors snapped to the week start")
	allDays := fs.Bool("all", false, "show days without events too")
	format := fs.String("format", cfg.View.EventFormat, "event format template")
	width := fs.Int("width", terminal.Width(), "wrap output to this width")
	if err := fs.Parse(args); err != nil {
		return err
	}

	anchors, err := parseAnchors(fs.Args(), locale, now)
	if err != nil {
		return err
	}
	coll, err := buildCollection(loader, cfg, locale)
	if err != nil {
		return err
	}

	lines, err := agenda.Agenda(coll, agenda.AgendaOptions{
		Locale: locale,
		Now:    now,
		Format: agenda.Format{Template: *format, Width: *width},
		Window: agenda.DayWindow{
			Anchors:     anchors,
			Days:        *days,
			Week:        *week,
			ShowAllDays: *allDays,
		},
	})
	if err != nil {
		return err
	}
	printLines(lines, cfg.BoldForLight())
	return nil
}

func runList(args []string, loader config.Loader, cfg *config.Config, locale *dateparse.Locale, now time.Time, withCalendar bool) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	once := fs.Bool("once", false, "query and render the whole range in one shot")
	notstarted := fs.Bool("notstarted", false, "hide events already in progress at the range start")
	format := fs.String("format", cfg.View.EventFormat, "event format template")
	weekNumber := fs.Bool("weeknumber", cfg.View.WeekNumbers, "show ISO week numbers in the calendar pane")
	width := fs.Int("width", 0, "wrap output to this width (0: fit the terminal)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	listWidth := *width
	if listWidth <= 0 {
		listWidth = terminal.Width()
		if withCalendar {
			listWidth -= calendarPaneWidth + 4
		}
	}

	defaultSpan, err := cfg.DefaultSpan()
	if err != nil {
		return err
	}
	coll, err := buildCollection(loader, cfg, locale)
	if err != nil {
		return err
	}

	lines, err := agenda.List(coll, fs.Args(), agenda.ListOptions{
		Locale:      locale,
		Now:         now,
		Format:      agenda.Format{Template: *format, Width: listWidth},
		Once:        *once,
		NotStarted:  *notstarted,
		DefaultSpan: defaultSpan,
	})
	if err != nil {
		return err
	}

	if !withCalendar {
		printLines(lines, cfg.BoldForLight())
		return nil
	}

	pane, err := agenda.VerticalMonth(coll, now, agenda.MonthOptions{
		Locale:     locale,
		WeekNumber: *weekNumber,
		Highlight:  cfg.View.HighlightEventDays,
	})
	if err != nil {
		return err
	}
	rendered := make([]string, 0, len(lines))
	for _, l := range lines {
		rendered = append(rendered, l.Render(cfg.BoldForLight()))
	}
	for _, row := range terminal.MergeColumns(pane, rendered, calendarPaneWidth, 4) {
		fmt.Println(row)
	}
	return nil
}

func runImport(args []string, locale *dateparse.Locale) error {
	if len(args) != 1 {
		return fmt.Errorf("import: expected exactly one ICS file")
	}
	body, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("os.ReadFile(%s): %w", args[0], err)
	}
	src := collection.ICSSource{Name: args[0]}
	coll, err := collection.NewICSFromData(src, body, locale)
	if err != nil {
		return err
	}
	for _, ev := range coll.All() {
		text, err := ev.Format("{start} {title}", event.Window{}, nil)
		if err != nil {
			return err
		}
		fmt.Println(text)
	}
	return nil
}

func parseAnchors(tokens []string, locale *dateparse.Locale, now time.Time) ([]time.Time, error) {
	anchors := make([]time.Time, 0, len(tokens))
	for _, tok := range tokens {
		t, err := dateparse.ParseSingle([]string{tok}, locale, now)
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, t)
	}
	return anchors, nil
}

func printLines(lines []agenda.Line, boldForLight bool) {
	for _, l := range lines {
		fmt.Println(l.Render(boldForLight))
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
