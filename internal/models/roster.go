package models

// YearGroup is a cohort of pupils taught to the same timetable structure.
type YearGroup struct {
	ID       string `db:"id"`
	SchoolID string `db:"school_id"`
	Name     string `db:"name"`
}

// Pupil belongs to exactly one school and one year group.
type Pupil struct {
	ID          string `db:"id"`
	SchoolID    string `db:"school_id"`
	YearGroupID string `db:"year_group_id"`
}

// Teacher belongs to exactly one school.
type Teacher struct {
	ID       string `db:"id"`
	SchoolID string `db:"school_id"`
}

// Classroom belongs to exactly one school.
type Classroom struct {
	ID       string `db:"id"`
	SchoolID string `db:"school_id"`
}
