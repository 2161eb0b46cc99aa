// Package gcal adapts a Google Calendar into the collection query
// surface, so remote events flow through the same merge and format
// pipeline as local ICS files.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/perbu/hobbes/config"
	"github.com/perbu/hobbes/dateparse"
	"github.com/perbu/hobbes/event"
)

// Source is a read-only calendar collection backed by one Google
// calendar. Timed API events become zoned events; date-only events
// become floating all-day events.
type Source struct {
	lister EventLister
	name   string
	color  string
	locale *dateparse.Locale
}

// apiLister is the production EventLister.
type apiLister struct {
	service    *calendar.Service
	calendarID string
}

func (a *apiLister) ListWindow(start, end time.Time) ([]*calendar.Event, error) {
	events, err := a.service.Events.List(a.calendarID).
		ShowDeleted(false).
		SingleEvents(true).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		OrderBy("startTime").
		Do()
	if err != nil {
		return nil, fmt.Errorf("retrieving events: %w", err)
	}
	return events.Items, nil
}

// NewSource creates a Source, running the OAuth flow when no stored
// token exists.
func NewSource(ctx context.Context, loader config.Loader, cfg config.GoogleConfig, locale *dateparse.Locale) (*Source, error) {
	credBytes, err := loader.LoadCredentials()
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}

	token, err := loadOrObtainToken(credBytes, loader)
	if err != nil {
		return nil, fmt.Errorf("getting token: %w", err)
	}

	client, err := oauthClient(credBytes, token)
	if err != nil {
		return nil, err
	}

	srv, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("creating calendar service: %w", err)
	}

	return &Source{
		lister: &apiLister{service: srv, calendarID: cfg.CalendarID},
		name:   cfg.Name,
		color:  cfg.Color,
		locale: locale,
	}, nil
}

// loadOrObtainToken loads a token from storage or obtains a new one if necessary.
func loadOrObtainToken(credBytes []byte, loader config.Loader) (*oauth2.Token, error) {
	tokenBytes, err := loader.LoadToken()
	if err == nil { // Token found in storage
		var tok oauth2.Token
		if err := json.Unmarshal(tokenBytes, &tok); err != nil {
			return nil, fmt.Errorf("unmarshalling token: %w", err)
		}
		return &tok, nil
	}

	// No token found, initiate OAuth2 flow
	return getTokenFromWeb(credBytes, loader)
}

// oauthClient creates an OAuth2 client.
func oauthClient(credBytes []byte, token *oauth2.Token) (*http.Client, error) {
	conf, err := google.ConfigFromJSON(credBytes, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}
	return conf.Client(context.Background(), token), nil
}

// EventsOn returns the events overlapping one local calendar day.
func (s *Source) EventsOn(day time.Time) ([]event.Event, error) {
	start := dateparse.StartOfDay(day, s.locale.Location)
	end := dateparse.EndOfDay(day, s.locale.Location)
	zoned, err := s.Localized(start, end)
	if err != nil {
		return nil, err
	}
	floating, err := s.Floating(dateparse.Naive(start), dateparse.Naive(end))
	if err != nil {
		return nil, err
	}
	return append(zoned, floating...), nil
}

// Localized returns the timed events overlapping [start, end).
func (s *Source) Localized(start, end time.Time) ([]event.Event, error) {
	items, err := s.lister.ListWindow(start, end)
	if err != nil {
		return nil, fmt.Errorf("gcal.Localized: %w", err)
	}
	var out []event.Event
	for _, item := range items {
		if item.Start == nil || item.Start.DateTime == "" {
			continue
		}
		ev, err := s.zonedEvent(item)
		if err != nil {
			return nil, fmt.Errorf("gcal.Localized: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

// Floating returns the all-day events overlapping the naive wall-clock
// window [start, end). The API is queried with the window rebuilt in
// the locale's zone.
func (s *Source) Floating(start, end time.Time) ([]event.Event, error) {
	qStart := rebuild(start, s.locale.Location)
	qEnd := rebuild(end, s.locale.Location)
	items, err := s.lister.ListWindow(qStart, qEnd)
	if err != nil {
		return nil, fmt.Errorf("gcal.Floating: %w", err)
	}
	var out []event.Event
	for _, item := range items {
		if item.Start == nil || item.Start.Date == "" {
			continue
		}
		ev, err := s.floatingEvent(item)
		if err != nil {
			return nil, fmt.Errorf("gcal.Floating: %w", err)
		}
		out = append(out, ev)
	}
	return out, nil
}

func (s *Source) zonedEvent(item *calendar.Event) (event.Event, error) {
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return nil, fmt.Errorf("event %q start: %w", item.Id, err)
	}
	end := start
	if item.End != nil && item.End.DateTime != "" {
		end, err = time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return nil, fmt.Errorf("event %q end: %w", item.Id, err)
		}
	}
	return event.NewZoned(s.attrs(item, start, end, false), s.locale), nil
}

func (s *Source) floatingEvent(item *calendar.Event) (event.Event, error) {
	start, err := time.Parse("2006-01-02", item.Start.Date)
	if err != nil {
		return nil, fmt.Errorf("event %q start date: %w", item.Id, err)
	}
	end := start.AddDate(0, 0, 1)
	if item.End != nil && item.End.Date != "" {
		end, err = time.Parse("2006-01-02", item.End.Date)
		if err != nil {
			return nil, fmt.Errorf("event %q end date: %w", item.Id, err)
		}
	}
	return event.NewFloating(s.attrs(item, start, end, true), s.locale), nil
}

func (s *Source) attrs(item *calendar.Event, start, end time.Time, allDay bool) event.Attributes {
	return event.Attributes{
		UID:         item.Id,
		Summary:     item.Summary,
		Description: item.Description,
		Location:    item.Location,
		Calendar:    s.name,
		Color:       s.color,
		Start:       start,
		End:         end,
		AllDay:      allDay,
	}
}

func rebuild(t time.Time, l *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), l)
}
