package solver

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// Read contracts the loader needs, declared here at the consumer. All
// methods accept a queryer so the whole load happens on one transaction.
type LessonReader interface {
	ListBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Lesson, error)
}

type SlotReader interface {
	ListBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.TimetableSlot, error)
}

type BreakReader interface {
	ListBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Break, error)
}

type RosterReader interface {
	PupilsBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Pupil, error)
	TeachersBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Teacher, error)
	ClassroomsBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.Classroom, error)
	YearGroupsBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.YearGroup, error)
}

// InputLoader builds an immutable snapshot of one school's unsolved
// scheduling problem.
type InputLoader interface {
	Load(ctx context.Context, schoolID string, spec models.SolutionSpecification) (*Snapshot, error)
}

// Snapshot is everything relevant to one solve, read consistently and
// discarded after constraint construction.
type Snapshot struct {
	SchoolID string
	Spec     models.SolutionSpecification

	// Lessons still requiring allocation. Fully satisfied lessons are kept
	// separately: they generate no variables but their slots stay occupied.
	Lessons      []models.Lesson
	FixedLessons []models.Lesson

	Slots      []models.TimetableSlot
	Breaks     []models.Break
	Pupils     map[string]models.Pupil
	Teachers   map[string]models.Teacher
	Classrooms map[string]models.Classroom
	YearGroups map[string]models.YearGroup

	// Problems lists insufficient-input conditions found while building the
	// snapshot. A non-empty list means the model must not be built.
	Problems []string

	slotsByID       map[string]models.TimetableSlot
	slotsByYG       map[string][]models.TimetableSlot
	lessonYearGroup map[string]string
}

// NewSnapshot assembles and indexes a snapshot from raw records. Lessons
// whose required slot count is already met by user-defined slots are moved
// to FixedLessons.
func NewSnapshot(
	schoolID string,
	spec models.SolutionSpecification,
	lessons []models.Lesson,
	slots []models.TimetableSlot,
	breaks []models.Break,
	pupils []models.Pupil,
	teachers []models.Teacher,
	classrooms []models.Classroom,
	yearGroups []models.YearGroup,
) *Snapshot {
	snap := &Snapshot{
		SchoolID:        schoolID,
		Spec:            spec,
		Breaks:          breaks,
		Pupils:          make(map[string]models.Pupil, len(pupils)),
		Teachers:        make(map[string]models.Teacher, len(teachers)),
		Classrooms:      make(map[string]models.Classroom, len(classrooms)),
		YearGroups:      make(map[string]models.YearGroup, len(yearGroups)),
		slotsByID:       make(map[string]models.TimetableSlot, len(slots)),
		slotsByYG:       make(map[string][]models.TimetableSlot),
		lessonYearGroup: make(map[string]string, len(lessons)),
	}

	for _, p := range pupils {
		snap.Pupils[p.ID] = p
	}
	for _, t := range teachers {
		snap.Teachers[t.ID] = t
	}
	for _, c := range classrooms {
		snap.Classrooms[c.ID] = c
	}
	for _, yg := range yearGroups {
		snap.YearGroups[yg.ID] = yg
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		if slots[i].StartsAt != slots[j].StartsAt {
			return slots[i].StartsAt < slots[j].StartsAt
		}
		return slots[i].ID < slots[j].ID
	})
	snap.Slots = slots
	for _, s := range slots {
		snap.slotsByID[s.ID] = s
		for _, ygID := range s.YearGroupIDs {
			snap.slotsByYG[ygID] = append(snap.slotsByYG[ygID], s)
		}
	}

	for _, lesson := range lessons {
		ygID, ok := snap.yearGroupForLesson(lesson)
		if !ok {
			snap.Problems = append(snap.Problems,
				fmt.Sprintf("lesson %s has no pupils, so no timetable structure applies to it", lesson.ID))
			continue
		}
		snap.lessonYearGroup[lesson.ID] = ygID

		if lesson.RequiredSolverSlots() == 0 {
			snap.FixedLessons = append(snap.FixedLessons, lesson)
			continue
		}
		if len(snap.slotsByYG[ygID]) == 0 {
			snap.Problems = append(snap.Problems,
				fmt.Sprintf("year group %s has lessons to schedule but no relevant timetable slots", ygID))
			continue
		}
		snap.Lessons = append(snap.Lessons, lesson)
	}

	if len(snap.Lessons) == 0 && len(snap.Problems) == 0 {
		snap.Problems = append(snap.Problems, "no lessons require allocation for this school")
	}
	return snap
}

func (s *Snapshot) yearGroupForLesson(lesson models.Lesson) (string, bool) {
	for _, pupilID := range lesson.PupilIDs {
		if pupil, ok := s.Pupils[pupilID]; ok {
			return pupil.YearGroupID, true
		}
	}
	return "", false
}

// SlotByID looks a slot up by identity.
func (s *Snapshot) SlotByID(id string) (models.TimetableSlot, bool) {
	slot, ok := s.slotsByID[id]
	return slot, ok
}

// LessonYearGroup is the year group the lesson's pupils belong to.
func (s *Snapshot) LessonYearGroup(lessonID string) string {
	return s.lessonYearGroup[lessonID]
}

// SlotsForYearGroup returns the year group's slots in chronological order.
func (s *Snapshot) SlotsForYearGroup(ygID string) []models.TimetableSlot {
	return s.slotsByYG[ygID]
}

// ConsecutiveSlotPairs returns the chronologically consecutive same-day
// slot pairs for a year group, the candidates for double periods.
func (s *Snapshot) ConsecutiveSlotPairs(ygID string) [][2]models.TimetableSlot {
	slots := s.slotsByYG[ygID]
	var pairs [][2]models.TimetableSlot
	for i := 1; i < len(slots); i++ {
		if slots[i].Day == slots[i-1].Day {
			pairs = append(pairs, [2]models.TimetableSlot{slots[i-1], slots[i]})
		}
	}
	return pairs
}

// ConsecutiveSlotTriples returns runs of three chronologically consecutive
// same-day slots for a year group.
func (s *Snapshot) ConsecutiveSlotTriples(ygID string) [][3]models.TimetableSlot {
	slots := s.slotsByYG[ygID]
	var triples [][3]models.TimetableSlot
	for i := 2; i < len(slots); i++ {
		if slots[i].Day == slots[i-1].Day && slots[i-1].Day == slots[i-2].Day {
			triples = append(triples, [3]models.TimetableSlot{slots[i-2], slots[i-1], slots[i]})
		}
	}
	return triples
}

// DaysPresent are the distinct weekdays appearing among the snapshot's slots.
func (s *Snapshot) DaysPresent() []models.Day {
	seen := map[models.Day]bool{}
	var days []models.Day
	for _, slot := range s.Slots {
		if !seen[slot.Day] {
			seen[slot.Day] = true
			days = append(days, slot.Day)
		}
	}
	return days
}

// AllLessons is every lesson in the snapshot, solvable or fully fixed.
func (s *Snapshot) AllLessons() []models.Lesson {
	all := make([]models.Lesson, 0, len(s.Lessons)+len(s.FixedLessons))
	all = append(all, s.Lessons...)
	all = append(all, s.FixedLessons...)
	return all
}

// PupilCommitments gathers a pupil's fixed slots and applicable breaks.
func (s *Snapshot) PupilCommitments(pupil models.Pupil) Commitments {
	var c Commitments
	for _, lesson := range s.AllLessons() {
		if !lesson.InvolvesPupil(pupil.ID) {
			continue
		}
		c.Slots = append(c.Slots, s.userDefinedSlots(lesson)...)
	}
	for _, brk := range s.Breaks {
		if brk.AppliesToYearGroup(pupil.YearGroupID) {
			c.Breaks = append(c.Breaks, brk)
		}
	}
	return c
}

// TeacherCommitments gathers a teacher's fixed slots and applicable breaks.
func (s *Snapshot) TeacherCommitments(teacherID string) Commitments {
	var c Commitments
	for _, lesson := range s.AllLessons() {
		if lesson.TeacherID.Valid && lesson.TeacherID.String == teacherID {
			c.Slots = append(c.Slots, s.userDefinedSlots(lesson)...)
		}
	}
	for _, brk := range s.Breaks {
		if brk.AppliesToTeacher(teacherID) {
			c.Breaks = append(c.Breaks, brk)
		}
	}
	return c
}

// ClassroomCommitments gathers a classroom's fixed occupancy.
func (s *Snapshot) ClassroomCommitments(classroomID string) Commitments {
	var c Commitments
	for _, lesson := range s.AllLessons() {
		if lesson.ClassroomID.Valid && lesson.ClassroomID.String == classroomID {
			c.Slots = append(c.Slots, s.userDefinedSlots(lesson)...)
		}
	}
	return c
}

func (s *Snapshot) userDefinedSlots(lesson models.Lesson) []models.TimetableSlot {
	var slots []models.TimetableSlot
	for _, slotID := range lesson.UserDefinedSlotIDs {
		if slot, ok := s.slotsByID[slotID]; ok {
			slots = append(slots, slot)
		}
	}
	return slots
}

// SQLInputLoader loads snapshots from Postgres. The whole read happens on a
// single REPEATABLE READ read-only transaction so concurrent mutations
// cannot interleave with the snapshot.
type SQLInputLoader struct {
	db      *sqlx.DB
	lessons LessonReader
	slots   SlotReader
	breaks  BreakReader
	roster  RosterReader
}

func NewSQLInputLoader(db *sqlx.DB, lessons LessonReader, slots SlotReader, breaks BreakReader, roster RosterReader) *SQLInputLoader {
	return &SQLInputLoader{db: db, lessons: lessons, slots: slots, breaks: breaks, roster: roster}
}

func (l *SQLInputLoader) Load(ctx context.Context, schoolID string, spec models.SolutionSpecification) (*Snapshot, error) {
	tx, err := l.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open snapshot transaction")
	}
	defer func() { _ = tx.Rollback() }()

	lessons, err := l.lessons.ListBySchool(ctx, tx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	slots, err := l.slots.ListBySchool(ctx, tx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slots")
	}
	breaks, err := l.breaks.ListBySchool(ctx, tx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load breaks")
	}
	pupils, err := l.roster.PupilsBySchool(ctx, tx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load pupils")
	}
	teachers, err := l.roster.TeachersBySchool(ctx, tx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	classrooms, err := l.roster.ClassroomsBySchool(ctx, tx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classrooms")
	}
	yearGroups, err := l.roster.YearGroupsBySchool(ctx, tx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year groups")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close snapshot transaction")
	}

	return NewSnapshot(schoolID, spec, lessons, slots, breaks, pupils, teachers, classrooms, yearGroups), nil
}
