package ident

import (
	"time"
	_ "time/tzdata"
)

// Eastern is U.S. Eastern civil time, the clock of the Capitol and of every
// publisher timestamp that lacks an offset.
var Eastern = mustLoad("America/New_York")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// FormatDateTime renders t as ISO-8601 with the Eastern offset in effect at t.
func FormatDateTime(t time.Time) string {
	return t.In(Eastern).Format("2006-01-02T15:04:05-07:00")
}

// FormatDate renders the calendar date of t in Eastern time.
func FormatDate(t time.Time) string {
	return t.In(Eastern).Format("2006-01-02")
}
