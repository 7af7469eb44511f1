// Package solver implements the constraint-based timetabling core: clash
// detection, input snapshotting, decision-variable construction, constraint
// generation, engine invocation and atomic solution application.
package solver

import (
	"fmt"

	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

// Commitments are the fixed slots and breaks an entity is already tied to.
type Commitments struct {
	Slots  []models.TimetableSlot
	Breaks []models.Break
}

// CheckClash filters an entity's commitments for overlap with the queried
// window. It returns nil when nothing overlaps. Finding more than one
// distinct overlapping commitment means the at-most-one-commitment
// invariant has been broken upstream, which is fatal rather than a result.
func CheckClash(c Commitments, window models.TimeOfWeek) (*models.Clash, error) {
	clash := models.Clash{}
	for _, slot := range c.Slots {
		if slot.TimeOfWeek().Overlaps(window) {
			clash.Slots = append(clash.Slots, slot)
		}
	}
	for _, brk := range c.Breaks {
		if brk.TimeOfWeek().Overlaps(window) {
			clash.Breaks = append(clash.Breaks, brk)
		}
	}

	switch clash.Size() {
	case 0:
		return nil, nil
	case 1:
		return &clash, nil
	default:
		return nil, appErrors.Wrap(
			fmt.Errorf("%d overlapping commitments at %s", clash.Size(), window),
			appErrors.ErrDataIntegrity.Code,
			appErrors.ErrDataIntegrity.Status,
			appErrors.ErrDataIntegrity.Message,
		)
	}
}

// Busy reports whether the entity has any commitment overlapping the window.
func Busy(c Commitments, window models.TimeOfWeek) (bool, error) {
	clash, err := CheckClash(c, window)
	if err != nil {
		return false, err
	}
	return clash != nil, nil
}
