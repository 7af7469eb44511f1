package solver

import (
	"fmt"
	"strings"

	"github.com/oakfield/timetable-solver/internal/ilp"
	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// VarKey uniquely identifies the binary decision variable for one
// (lesson, slot) pair.
type VarKey struct {
	LessonID string
	SlotID   string
}

// varKeySeparator joins the two IDs into a variable name. Keys stay
// reversible only while no ID contains the separator, which
// BuildVariables enforces before minting any.
const varKeySeparator = "::"

// Encode renders the key as a single reversible token.
func (k VarKey) Encode() string {
	return k.LessonID + varKeySeparator + k.SlotID
}

// DecodeVarKey reverses Encode.
func DecodeVarKey(encoded string) (VarKey, error) {
	parts := strings.Split(encoded, varKeySeparator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return VarKey{}, fmt.Errorf("malformed variable key %q", encoded)
	}
	return VarKey{LessonID: parts[0], SlotID: parts[1]}, nil
}

// DoubleKey identifies the pair variable for a lesson occupying two
// consecutive same-day slots as a double period.
type DoubleKey struct {
	LessonID string
	Slot1ID  string
	Slot2ID  string
}

// Variables holds the model variables for one solve.
type Variables struct {
	Decision map[VarKey]ilp.Var
	Doubles  map[DoubleKey]ilp.Var
}

// BuildVariables enumerates the structurally feasible (lesson, slot) pairs
// and declares one binary variable for each, plus pair variables for
// candidate double periods. Pairs where any implicated pupil, teacher or
// classroom is already fixed-busy are omitted entirely; leaving them out is
// what enforces the hard already-busy constraints without explicit
// inequalities.
func BuildVariables(snap *Snapshot, m *ilp.Model) (*Variables, error) {
	if err := validateKeyIDs(snap); err != nil {
		return nil, err
	}

	vars := &Variables{
		Decision: make(map[VarKey]ilp.Var),
		Doubles:  make(map[DoubleKey]ilp.Var),
	}

	for _, lesson := range snap.Lessons {
		ygID := snap.LessonYearGroup(lesson.ID)
		for _, slot := range snap.SlotsForYearGroup(ygID) {
			if lesson.HasUserDefinedSlot(slot.ID) {
				// Value already known to be 1; handled as a constant.
				continue
			}
			feasible, err := pairFeasible(snap, lesson, slot)
			if err != nil {
				return nil, err
			}
			if !feasible {
				continue
			}
			key := VarKey{LessonID: lesson.ID, SlotID: slot.ID}
			vars.Decision[key] = m.AddBinary(key.Encode())
		}
	}

	for _, lesson := range snap.Lessons {
		if lesson.TotalRequiredDoublePeriods == 0 && snap.Spec.AllowSplitLessonsWithinEachDay {
			continue
		}
		ygID := snap.LessonYearGroup(lesson.ID)
		for _, pair := range snap.ConsecutiveSlotPairs(ygID) {
			first, second := pair[0], pair[1]
			if !slotUsable(vars, lesson, first.ID) || !slotUsable(vars, lesson, second.ID) {
				continue
			}
			if lesson.HasUserDefinedSlot(first.ID) && lesson.HasUserDefinedSlot(second.ID) {
				// A wholly user-defined double; counted as a constant.
				continue
			}
			key := DoubleKey{LessonID: lesson.ID, Slot1ID: first.ID, Slot2ID: second.ID}
			name := fmt.Sprintf("%s%sdouble%s%s%s%s", lesson.ID, varKeySeparator, varKeySeparator, first.ID, varKeySeparator, second.ID)
			vars.Doubles[key] = m.AddBinary(name)
		}
	}

	return vars, nil
}

// validateKeyIDs rejects identifiers that would make variable keys
// ambiguous.
func validateKeyIDs(snap *Snapshot) error {
	for _, lesson := range snap.Lessons {
		if strings.Contains(lesson.ID, varKeySeparator) {
			return appErrors.Clone(appErrors.ErrDataIntegrity,
				fmt.Sprintf("lesson id %q contains the reserved sequence %q", lesson.ID, varKeySeparator))
		}
	}
	for _, slot := range snap.Slots {
		if strings.Contains(slot.ID, varKeySeparator) {
			return appErrors.Clone(appErrors.ErrDataIntegrity,
				fmt.Sprintf("slot id %q contains the reserved sequence %q", slot.ID, varKeySeparator))
		}
	}
	return nil
}

// slotUsable reports whether the lesson can occupy the slot at all, either
// through a decision variable or a user-defined pin.
func slotUsable(vars *Variables, lesson models.Lesson, slotID string) bool {
	if lesson.HasUserDefinedSlot(slotID) {
		return true
	}
	_, ok := vars.Decision[VarKey{LessonID: lesson.ID, SlotID: slotID}]
	return ok
}

// pairFeasible checks every implicated entity for an existing fixed
// commitment overlapping the slot.
func pairFeasible(snap *Snapshot, lesson models.Lesson, slot models.TimetableSlot) (bool, error) {
	window := slot.TimeOfWeek()

	for _, pupilID := range lesson.PupilIDs {
		pupil, ok := snap.Pupils[pupilID]
		if !ok {
			continue
		}
		busy, err := Busy(snap.PupilCommitments(pupil), window)
		if err != nil {
			return false, err
		}
		if busy {
			return false, nil
		}
	}

	if lesson.TeacherID.Valid {
		busy, err := Busy(snap.TeacherCommitments(lesson.TeacherID.String), window)
		if err != nil {
			return false, err
		}
		if busy {
			return false, nil
		}
	}

	if lesson.ClassroomID.Valid {
		busy, err := Busy(snap.ClassroomCommitments(lesson.ClassroomID.String), window)
		if err != nil {
			return false, err
		}
		if busy {
			return false, nil
		}
	}

	return true, nil
}
