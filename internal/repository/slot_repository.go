package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/oakfield/timetable-solver/internal/models"
)

// SlotRepository manages persistence for timetable slots.
type SlotRepository struct{}

// NewSlotRepository constructs a SlotRepository.
func NewSlotRepository() *SlotRepository {
	return &SlotRepository{}
}

// ListBySchool returns every timetable slot for the school with its year
// group relevance populated.
func (r *SlotRepository) ListBySchool(ctx context.Context, q sqlx.QueryerContext, schoolID string) ([]models.TimetableSlot, error) {
	const query = `SELECT id, school_id, day_of_week, starts_at, duration_minutes
		FROM timetable_slots WHERE school_id = $1 ORDER BY day_of_week, starts_at, id`
	var slots []models.TimetableSlot
	if err := sqlx.SelectContext(ctx, q, &slots, query, schoolID); err != nil {
		return nil, fmt.Errorf("list timetable slots: %w", err)
	}
	if len(slots) == 0 {
		return slots, nil
	}

	index := make(map[string]*models.TimetableSlot, len(slots))
	for i := range slots {
		index[slots[i].ID] = &slots[i]
	}

	type link struct {
		SlotID      string `db:"slot_id"`
		YearGroupID string `db:"year_group_id"`
	}
	var links []link
	const linkQuery = `SELECT sy.slot_id, sy.year_group_id
		FROM slot_year_groups sy JOIN timetable_slots s ON s.id = sy.slot_id
		WHERE s.school_id = $1 ORDER BY sy.slot_id, sy.year_group_id`
	if err := sqlx.SelectContext(ctx, q, &links, linkQuery, schoolID); err != nil {
		return nil, fmt.Errorf("list slot year groups: %w", err)
	}
	for _, l := range links {
		if slot, ok := index[l.SlotID]; ok {
			slot.YearGroupIDs = append(slot.YearGroupIDs, l.YearGroupID)
		}
	}

	return slots, nil
}
