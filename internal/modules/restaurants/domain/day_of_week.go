package domain

import (
	"strings"
	"time"
)

// DayOfWeek keys the opening hours map with lowercase english day names.
type DayOfWeek string

const (
	Monday    DayOfWeek = "monday"
	Tuesday   DayOfWeek = "tuesday"
	Wednesday DayOfWeek = "wednesday"
	Thursday  DayOfWeek = "thursday"
	Friday    DayOfWeek = "friday"
	Saturday  DayOfWeek = "saturday"
	Sunday    DayOfWeek = "sunday"
)

// Week lists the days starting on Monday.
var Week = []DayOfWeek{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var allowedDays = map[string]DayOfWeek{
	string(Monday):    Monday,
	string(Tuesday):   Tuesday,
	string(Wednesday): Wednesday,
	string(Thursday):  Thursday,
	string(Friday):    Friday,
	string(Saturday):  Saturday,
	string(Sunday):    Sunday,
	"mon":             Monday,
	"tue":             Tuesday,
	"wed":             Wednesday,
	"thu":             Thursday,
	"fri":             Friday,
	"sat":             Saturday,
	"sun":             Sunday,
}

// ParseDayOfWeek accepts full or three letter day names in any casing.
func ParseDayOfWeek(raw string) (DayOfWeek, bool) {
	day, ok := allowedDays[strings.ToLower(strings.TrimSpace(raw))]
	return day, ok
}

// DayOf maps a time.Weekday onto its opening hours key.
func DayOf(w time.Weekday) DayOfWeek {
	if w == time.Sunday {
		return Sunday
	}
	return Week[int(w)-1]
}
