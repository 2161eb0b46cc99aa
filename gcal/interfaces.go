package gcal

import (
	"time"

	"google.golang.org/api/calendar/v3"
)

// EventLister abstracts the events API so the source can be tested
// without the network.
type EventLister interface {
	ListWindow(start, end time.Time) ([]*calendar.Event, error)
}
