package models

// TimetableSlot is a schedulable window in a school's weekly structure.
type TimetableSlot struct {
	ID              string    `db:"id"`
	SchoolID        string    `db:"school_id"`
	Day             Day       `db:"day_of_week"`
	StartsAt        TimeOfDay `db:"starts_at"`
	DurationMinutes int       `db:"duration_minutes"`

	// YearGroupIDs are the year groups the slot is relevant to.
	YearGroupIDs []string `db:"-"`
}

// EndsAt derives the slot's end from its start and duration.
func (s TimetableSlot) EndsAt() TimeOfDay {
	return s.StartsAt + TimeOfDay(s.DurationMinutes)
}

// TimeOfWeek returns the span the slot covers.
func (s TimetableSlot) TimeOfWeek() TimeOfWeek {
	return TimeOfWeek{Day: s.Day, StartsAt: s.StartsAt, EndsAt: s.EndsAt()}
}

// RelevantTo reports whether the slot serves the given year group.
func (s TimetableSlot) RelevantTo(yearGroupID string) bool {
	for _, id := range s.YearGroupIDs {
		if id == yearGroupID {
			return true
		}
	}
	return false
}

// Break is a busy period that is not a lesson but still occupies time,
// for the teachers and year groups it names.
type Break struct {
	ID       string    `db:"id"`
	SchoolID string    `db:"school_id"`
	Day      Day       `db:"day_of_week"`
	StartsAt TimeOfDay `db:"starts_at"`
	EndsAt   TimeOfDay `db:"ends_at"`

	TeacherIDs   []string `db:"-"`
	YearGroupIDs []string `db:"-"`
}

// TimeOfWeek returns the span the break covers.
func (b Break) TimeOfWeek() TimeOfWeek {
	return TimeOfWeek{Day: b.Day, StartsAt: b.StartsAt, EndsAt: b.EndsAt}
}

// AppliesToTeacher reports whether the break occupies the given teacher.
func (b Break) AppliesToTeacher(teacherID string) bool {
	for _, id := range b.TeacherIDs {
		if id == teacherID {
			return true
		}
	}
	return false
}

// AppliesToYearGroup reports whether the break occupies the given year group.
func (b Break) AppliesToYearGroup(yearGroupID string) bool {
	for _, id := range b.YearGroupIDs {
		if id == yearGroupID {
			return true
		}
	}
	return false
}

// Clash records the slots and breaks that overlap a queried time of week.
type Clash struct {
	Slots  []TimetableSlot
	Breaks []Break
}

// Size is the number of distinct overlapping commitments.
func (c Clash) Size() int {
	return len(c.Slots) + len(c.Breaks)
}
