package solver

import (
	"fmt"

	"github.com/oakfield/timetable-solver/internal/ilp"
	"github.com/oakfield/timetable-solver/internal/models"
)

// ConstraintBuilder translates a school's scheduling rules into linear
// constraints over the decision and double-period variables.
//
// The constraints fall into three groups:
//   - fulfillment and one-place-at-a-time constraints
//   - double period counting and linking
//   - structural constraints driven by the solution specification
type ConstraintBuilder struct {
	snap *Snapshot
	vars *Variables

	lessonVars  map[string][]ilp.Var
	lessonSlots map[string]map[string]ilp.Var
	lessonPairs map[string][]DoubleKey
	clashing    map[string][]models.TimetableSlot
}

func NewConstraintBuilder(snap *Snapshot, vars *Variables) *ConstraintBuilder {
	b := &ConstraintBuilder{
		snap:        snap,
		vars:        vars,
		lessonVars:  make(map[string][]ilp.Var),
		lessonSlots: make(map[string]map[string]ilp.Var),
		lessonPairs: make(map[string][]DoubleKey),
		clashing:    make(map[string][]models.TimetableSlot),
	}
	for key, v := range vars.Decision {
		b.lessonVars[key.LessonID] = append(b.lessonVars[key.LessonID], v)
		if b.lessonSlots[key.LessonID] == nil {
			b.lessonSlots[key.LessonID] = make(map[string]ilp.Var)
		}
		b.lessonSlots[key.LessonID][key.SlotID] = v
	}
	for key := range vars.Doubles {
		b.lessonPairs[key.LessonID] = append(b.lessonPairs[key.LessonID], key)
	}
	for _, slot := range snap.Slots {
		window := slot.TimeOfWeek()
		for _, other := range snap.Slots {
			if other.TimeOfWeek().Overlaps(window) {
				b.clashing[slot.ID] = append(b.clashing[slot.ID], other)
			}
		}
	}
	return b
}

// AddAll adds every applicable constraint to the model.
func (b *ConstraintBuilder) AddAll(m *ilp.Model) {
	b.addFulfillment(m)
	b.addPupilConstraints(m)
	b.addTeacherConstraints(m)
	b.addClassroomConstraints(m)
	b.addDoublePeriodConstraints(m)

	if !b.snap.Spec.AllowTriplePeriodsAndAbove {
		b.addTriplePeriodBan(m)
	}
	if !b.snap.Spec.AllowSplitLessonsWithinEachDay {
		b.addSplitLessonBan(m)
	}
}

// addFulfillment forces every lesson to be assigned exactly the number of
// slots it still requires. Both under- and over-allocation are invalid.
func (b *ConstraintBuilder) addFulfillment(m *ilp.Model) {
	for _, lesson := range b.snap.Lessons {
		terms := make([]ilp.Term, 0, len(b.lessonVars[lesson.ID]))
		for _, v := range b.lessonVars[lesson.ID] {
			terms = append(terms, ilp.Term{Var: v, Coeff: 1})
		}
		m.AddConstraint(ilp.Constraint{
			Name:  fmt.Sprintf("%s_taught_for_%d_additional_slots", lesson.ID, lesson.RequiredSolverSlots()),
			Terms: terms,
			Sense: ilp.Equal,
			RHS:   lesson.RequiredSolverSlots(),
		})
	}
}

// addPupilConstraints keeps every pupil in at most one place at a time.
// Variables for slots where the pupil is already fixed-busy were never
// created, so only free windows need the inequality.
func (b *ConstraintBuilder) addPupilConstraints(m *ilp.Model) {
	for _, pupil := range b.snap.Pupils {
		for _, slot := range b.snap.SlotsForYearGroup(pupil.YearGroupID) {
			var terms []ilp.Term
			for _, lesson := range b.snap.Lessons {
				if !lesson.InvolvesPupil(pupil.ID) {
					continue
				}
				terms = append(terms, b.lessonTermsAtClashingSlots(lesson.ID, slot.ID)...)
			}
			if len(terms) < 2 {
				continue
			}
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("pupil_%s_one_place_at_%s", pupil.ID, slot.ID),
				Terms: terms,
				Sense: ilp.LessEq,
				RHS:   1,
			})
		}
	}
}

// addTeacherConstraints keeps every teacher in at most one place at a
// time, constraining against all slots that clash with each window since
// the teacher can serve only one of them.
func (b *ConstraintBuilder) addTeacherConstraints(m *ilp.Model) {
	for teacherID := range b.snap.Teachers {
		for _, slot := range b.snap.Slots {
			var terms []ilp.Term
			for _, lesson := range b.snap.Lessons {
				if !lesson.TeacherID.Valid || lesson.TeacherID.String != teacherID {
					continue
				}
				terms = append(terms, b.lessonTermsAtClashingSlots(lesson.ID, slot.ID)...)
			}
			if len(terms) < 2 {
				continue
			}
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("teacher_%s_one_place_at_%s", teacherID, slot.ID),
				Terms: terms,
				Sense: ilp.LessEq,
				RHS:   1,
			})
		}
	}
}

// addClassroomConstraints keeps every classroom hosting at most one lesson
// at a time.
func (b *ConstraintBuilder) addClassroomConstraints(m *ilp.Model) {
	for classroomID := range b.snap.Classrooms {
		for _, slot := range b.snap.Slots {
			var terms []ilp.Term
			for _, lesson := range b.snap.Lessons {
				if !lesson.ClassroomID.Valid || lesson.ClassroomID.String != classroomID {
					continue
				}
				terms = append(terms, b.lessonTermsAtClashingSlots(lesson.ID, slot.ID)...)
			}
			if len(terms) < 2 {
				continue
			}
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("classroom_%s_one_lesson_at_%s", classroomID, slot.ID),
				Terms: terms,
				Sense: ilp.LessEq,
				RHS:   1,
			})
		}
	}
}

func (b *ConstraintBuilder) lessonTermsAtClashingSlots(lessonID, slotID string) []ilp.Term {
	slotVars := b.lessonSlots[lessonID]
	if slotVars == nil {
		return nil
	}
	var terms []ilp.Term
	for _, clashSlot := range b.clashing[slotID] {
		if v, ok := slotVars[clashSlot.ID]; ok {
			terms = append(terms, ilp.Term{Var: v, Coeff: 1})
		}
	}
	return terms
}

// addDoublePeriodConstraints links each pair variable to its two slot
// variables with the standard linearization (p <= x1, p <= x2,
// p >= x1 + x2 - 1) and constrains the pair count per lesson. A pair with
// one user-defined end degenerates to p == x_other: the double exists
// exactly when the solver fills the adjacent slot.
func (b *ConstraintBuilder) addDoublePeriodConstraints(m *ilp.Model) {
	for key, p := range b.vars.Doubles {
		x1, has1 := b.decisionVar(key.LessonID, key.Slot1ID)
		x2, has2 := b.decisionVar(key.LessonID, key.Slot2ID)

		switch {
		case has1 && has2:
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("%s_double_could_start_at_%s", key.LessonID, key.Slot1ID),
				Terms: []ilp.Term{{Var: p, Coeff: 1}, {Var: x1, Coeff: -1}},
				Sense: ilp.LessEq,
				RHS:   0,
			})
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("%s_double_could_end_at_%s", key.LessonID, key.Slot2ID),
				Terms: []ilp.Term{{Var: p, Coeff: 1}, {Var: x2, Coeff: -1}},
				Sense: ilp.LessEq,
				RHS:   0,
			})
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("%s_double_forced_at_%s_%s", key.LessonID, key.Slot1ID, key.Slot2ID),
				Terms: []ilp.Term{{Var: x1, Coeff: 1}, {Var: x2, Coeff: 1}, {Var: p, Coeff: -1}},
				Sense: ilp.LessEq,
				RHS:   1,
			})
		case has1:
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("%s_double_with_fixed_%s", key.LessonID, key.Slot2ID),
				Terms: []ilp.Term{{Var: p, Coeff: 1}, {Var: x1, Coeff: -1}},
				Sense: ilp.Equal,
				RHS:   0,
			})
		case has2:
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("%s_double_with_fixed_%s", key.LessonID, key.Slot1ID),
				Terms: []ilp.Term{{Var: p, Coeff: 1}, {Var: x2, Coeff: -1}},
				Sense: ilp.Equal,
				RHS:   0,
			})
		}
	}

	for _, lesson := range b.snap.Lessons {
		if lesson.TotalRequiredDoublePeriods == 0 {
			continue
		}
		required := lesson.TotalRequiredDoublePeriods - b.fixedAdjacentDoubles(lesson, 0)
		if required < 0 {
			required = 0
		}
		terms := make([]ilp.Term, 0, len(b.lessonPairs[lesson.ID]))
		for _, key := range b.lessonPairs[lesson.ID] {
			terms = append(terms, ilp.Term{Var: b.vars.Doubles[key], Coeff: 1})
		}
		m.AddConstraint(ilp.Constraint{
			Name:  fmt.Sprintf("%s_must_have_%d_additional_double_periods", lesson.ID, required),
			Terms: terms,
			Sense: ilp.Equal,
			RHS:   required,
		})
	}
}

// fixedAdjacentDoubles counts the lesson's wholly user-defined consecutive
// pairs, on one day or across the week when day is zero.
func (b *ConstraintBuilder) fixedAdjacentDoubles(lesson models.Lesson, day models.Day) int {
	count := 0
	for _, pair := range b.snap.ConsecutiveSlotPairs(b.snap.LessonYearGroup(lesson.ID)) {
		if day != 0 && pair[0].Day != day {
			continue
		}
		if lesson.HasUserDefinedSlot(pair[0].ID) && lesson.HasUserDefinedSlot(pair[1].ID) {
			count++
		}
	}
	return count
}

// addTriplePeriodBan forbids three or more chronologically consecutive
// same-day slots per lesson. User-defined slots enter as constants; runs
// the user has already filled beyond the limit are left alone.
func (b *ConstraintBuilder) addTriplePeriodBan(m *ilp.Model) {
	for _, lesson := range b.snap.Lessons {
		ygID := b.snap.LessonYearGroup(lesson.ID)
		for _, triple := range b.snap.ConsecutiveSlotTriples(ygID) {
			var terms []ilp.Term
			fixed := 0
			for _, slot := range triple {
				if lesson.HasUserDefinedSlot(slot.ID) {
					fixed++
					continue
				}
				if v, ok := b.decisionVar(lesson.ID, slot.ID); ok {
					terms = append(terms, ilp.Term{Var: v, Coeff: 1})
				}
			}
			rhs := 2 - fixed
			if len(terms) == 0 || rhs < 0 {
				continue
			}
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("%s_no_triple_from_%s", lesson.ID, triple[0].ID),
				Terms: terms,
				Sense: ilp.LessEq,
				RHS:   rhs,
			})
		}
	}
}

// addSplitLessonBan limits each lesson to a single contiguous block per
// day: total periods on the day minus double periods on the day is the
// number of distinct blocks, and must not exceed one.
func (b *ConstraintBuilder) addSplitLessonBan(m *ilp.Model) {
	for _, lesson := range b.snap.Lessons {
		ygID := b.snap.LessonYearGroup(lesson.ID)
		for _, day := range b.snap.DaysPresent() {
			var terms []ilp.Term
			fixedSingles := 0
			for _, slot := range b.snap.SlotsForYearGroup(ygID) {
				if slot.Day != day {
					continue
				}
				if lesson.HasUserDefinedSlot(slot.ID) {
					fixedSingles++
					continue
				}
				if v, ok := b.decisionVar(lesson.ID, slot.ID); ok {
					terms = append(terms, ilp.Term{Var: v, Coeff: 1})
				}
			}
			if len(terms) == 0 {
				continue
			}
			for _, key := range b.lessonPairs[lesson.ID] {
				if slot, ok := b.snap.SlotByID(key.Slot1ID); ok && slot.Day == day {
					terms = append(terms, ilp.Term{Var: b.vars.Doubles[key], Coeff: -1})
				}
			}
			// The user may themselves have split the lesson; clamp their
			// contribution so their data never makes the model unsolvable.
			fixedBlocks := fixedSingles - b.fixedAdjacentDoubles(lesson, day)
			if fixedBlocks > 1 {
				fixedBlocks = 1
			}
			m.AddConstraint(ilp.Constraint{
				Name:  fmt.Sprintf("no_split_%s_on_%s", lesson.ID, day),
				Terms: terms,
				Sense: ilp.LessEq,
				RHS:   1 - fixedBlocks,
			})
		}
	}
}

func (b *ConstraintBuilder) decisionVar(lessonID, slotID string) (ilp.Var, bool) {
	slotVars := b.lessonSlots[lessonID]
	if slotVars == nil {
		return 0, false
	}
	v, ok := slotVars[slotID]
	return v, ok
}
