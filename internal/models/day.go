package models

// Day is an ISO weekday, MONDAY = 1 through SUNDAY = 7.
type Day int

const (
	Monday Day = iota + 1
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var dayNames = map[Day]string{
	Monday:    "MONDAY",
	Tuesday:   "TUESDAY",
	Wednesday: "WEDNESDAY",
	Thursday:  "THURSDAY",
	Friday:    "FRIDAY",
	Saturday:  "SATURDAY",
	Sunday:    "SUNDAY",
}

// String returns the upper-case weekday name, or "UNKNOWN" for out-of-range values.
func (d Day) String() string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether d is within MONDAY..SUNDAY.
func (d Day) Valid() bool {
	_, ok := dayNames[d]
	return ok
}
