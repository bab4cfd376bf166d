// Package events finds community eco events by city and type.
package events

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

// TypeAll disables the type filter.
const TypeAll = "all"

const dateLayout = "2006-01-02"

type Event struct {
	LocationKey string    `json:"location"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Type        string    `json:"type"`
}

// Match returns the events whose location contains location and whose type
// equals eventType, both case-insensitively. Catalog order is kept.
func Match(catalog []Event, location, eventType string) []Event {
	fold := cases.Fold()
	query := fold.String(location)
	wantType := fold.String(eventType)

	var out []Event
	for _, e := range catalog {
		if !strings.Contains(fold.String(e.LocationKey), query) {
			continue
		}
		if eventType != TypeAll && fold.String(e.Type) != wantType {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FormatDate renders the event day as "Monday, January 2, 2006" in loc.
func FormatDate(e Event, loc *time.Location) string {
	d := e.Date
	if loc != nil {
		d = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	}
	return d.Format("Monday, January 2, 2006")
}

// DisplayLocation upper-cases the first letter of the location key.
func DisplayLocation(e Event) string {
	r, size := utf8.DecodeRuneInString(e.LocationKey)
	if r == utf8.RuneError {
		return e.LocationKey
	}
	return string(unicode.ToUpper(r)) + e.LocationKey[size:]
}

// Upcoming drops events that ended before now's calendar day.
func Upcoming(catalog []Event, now time.Time) []Event {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	var out []Event
	for _, e := range catalog {
		if !e.Date.Before(today) {
			out = append(out, e)
		}
	}
	return out
}
