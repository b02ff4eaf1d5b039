package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func TestValidateSchedule(t *testing.T) {
	valid := &domain.Schedule{Day: 1, TimeSlot: domain.TimeSlots[0], TeacherID: 1, SectionID: 2, SubjectID: 3}
	require.NoError(t, ValidateSchedule(valid))

	weekend := *valid
	weekend.Day = 6
	assert.Error(t, ValidateSchedule(&weekend))

	lunch := *valid
	lunch.TimeSlot = "12:00-13:00"
	assert.Error(t, ValidateSchedule(&lunch))

	noTeacher := *valid
	noTeacher.TeacherID = 0
	assert.Error(t, ValidateSchedule(&noTeacher))
}

func TestValidateSchedulesRejectsDuplicatePairs(t *testing.T) {
	schedules := []*domain.Schedule{
		{Day: 1, TimeSlot: domain.TimeSlots[0], TeacherID: 1, SectionID: 2, SubjectID: 3},
		{Day: 2, TimeSlot: domain.TimeSlots[1], TeacherID: 1, SectionID: 2, SubjectID: 4},
	}
	require.NoError(t, ValidateSchedules(schedules))

	schedules = append(schedules, &domain.Schedule{Day: 3, TimeSlot: domain.TimeSlots[2], TeacherID: 5, SectionID: 2, SubjectID: 3})
	assert.Error(t, ValidateSchedules(schedules))
}
