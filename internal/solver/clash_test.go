package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakfield/timetable-solver/internal/models"
	appErrors "github.com/oakfield/timetable-solver/pkg/errors"
)

func window(day models.Day, startHour, endHour int) models.TimeOfWeek {
	return models.TimeOfWeek{
		Day:      day,
		StartsAt: models.NewTimeOfDay(startHour, 0),
		EndsAt:   models.NewTimeOfDay(endHour, 0),
	}
}

func TestCheckClashNoOverlap(t *testing.T) {
	commitments := Commitments{
		Slots: []models.TimetableSlot{
			{ID: "s1", Day: models.Monday, StartsAt: models.NewTimeOfDay(9, 0), DurationMinutes: 60},
		},
	}

	clash, err := CheckClash(commitments, window(models.Monday, 11, 12))
	require.NoError(t, err)
	assert.Nil(t, clash)
}

func TestCheckClashTouchingBoundariesDoNotClash(t *testing.T) {
	commitments := Commitments{
		Slots: []models.TimetableSlot{
			{ID: "s1", Day: models.Monday, StartsAt: models.NewTimeOfDay(9, 0), DurationMinutes: 60},
		},
		Breaks: []models.Break{
			{ID: "b1", Day: models.Monday, StartsAt: models.NewTimeOfDay(11, 0), EndsAt: models.NewTimeOfDay(12, 0)},
		},
	}

	// 10:00-11:00 ends exactly when the break starts and starts exactly
	// when the slot ends.
	clash, err := CheckClash(commitments, window(models.Monday, 10, 11))
	require.NoError(t, err)
	assert.Nil(t, clash)
}

func TestCheckClashSingleOverlap(t *testing.T) {
	commitments := Commitments{
		Slots: []models.TimetableSlot{
			{ID: "s1", Day: models.Monday, StartsAt: models.NewTimeOfDay(9, 0), DurationMinutes: 60},
		},
	}

	clash, err := CheckClash(commitments, window(models.Monday, 9, 10))
	require.NoError(t, err)
	require.NotNil(t, clash)
	assert.Equal(t, 1, clash.Size())
	assert.Equal(t, "s1", clash.Slots[0].ID)

	busy, err := Busy(commitments, window(models.Monday, 9, 10))
	require.NoError(t, err)
	assert.True(t, busy)
}

func TestCheckClashMultipleOverlapsIsFatal(t *testing.T) {
	commitments := Commitments{
		Slots: []models.TimetableSlot{
			{ID: "s1", Day: models.Monday, StartsAt: models.NewTimeOfDay(9, 0), DurationMinutes: 60},
		},
		Breaks: []models.Break{
			{ID: "b1", Day: models.Monday, StartsAt: models.NewTimeOfDay(9, 30), EndsAt: models.NewTimeOfDay(10, 30)},
		},
	}

	_, err := CheckClash(commitments, window(models.Monday, 9, 11))
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, appErrors.ErrDataIntegrity))

	_, err = Busy(commitments, window(models.Monday, 9, 11))
	assert.Error(t, err)
}

func TestCheckClashIgnoresOtherDays(t *testing.T) {
	commitments := Commitments{
		Slots: []models.TimetableSlot{
			{ID: "s1", Day: models.Tuesday, StartsAt: models.NewTimeOfDay(9, 0), DurationMinutes: 60},
		},
	}

	busy, err := Busy(commitments, window(models.Monday, 9, 10))
	require.NoError(t, err)
	assert.False(t, busy)
}
