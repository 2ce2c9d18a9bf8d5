// Package timefmt renders chain timestamps in US Eastern time.
package timefmt

import (
	"time"
	_ "time/tzdata"
)

const (
	// NotAvailable is returned when a transaction carries no block time
	NotAvailable = "N/A"

	layout = "2006-01-02 03:04:05 PM"
	zone   = "America/New_York"
)

var eastern = mustLoadLocation(zone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// FormatTimestamp converts unix seconds to "2006-01-02 03:04:05 PM ET".
// A nil or zero timestamp yields NotAvailable.
func FormatTimestamp(unixSeconds *int64) string {
	if unixSeconds == nil || *unixSeconds == 0 {
		return NotAvailable
	}
	return Format(time.Unix(*unixSeconds, 0))
}

// Format renders t in Eastern time.
func Format(t time.Time) string {
	return t.In(eastern).Format(layout) + " ET"
}

// CurrentTime returns the current time in Eastern time.
func CurrentTime() string {
	return Format(time.Now())
}
