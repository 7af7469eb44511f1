package models

// Display colours for rendering timetables downstream, keyed by subject
// name. Kept as a lookup table rather than behaviour attached to the
// subject values themselves.
var subjectColours = map[string]string{
	"MATHS":     "#b3f2b3",
	"ENGLISH":   "#ffbfd6",
	"FRENCH":    "#c8d4e3",
	"SCIENCE":   "#ccffcc",
	"HISTORY":   "#e8dcc2",
	"GEOGRAPHY": "#b3e0f2",
	"ART":       "#fcc4a2",
	"MUSIC":     "#d6c4f5",
	"PE":        "#c4f5e1",
}

// Colours for the non-lesson components of a rendered timetable.
const (
	FreePeriodColour = "#feffba"
	BreakColour      = "#bfffe1"
	UnknownColour    = "#dadada"
)

// SubjectColour returns the display colour for a subject, falling back to a
// neutral grey for subjects without an assigned colour.
func SubjectColour(subject string) string {
	if colour, ok := subjectColours[subject]; ok {
		return colour
	}
	return UnknownColour
}
