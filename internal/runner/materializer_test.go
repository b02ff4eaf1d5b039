package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func sampleSchedules() []*domain.Schedule {
	return []*domain.Schedule{
		{Day: 1, TimeSlot: domain.TimeSlots[0], TeacherID: 1, SectionID: 1, SubjectID: 1},
		{Day: 1, TimeSlot: domain.TimeSlots[1], TeacherID: 2, SectionID: 1, SubjectID: 2},
		{Day: 2, TimeSlot: domain.TimeSlots[0], TeacherID: 1, SectionID: 2, SubjectID: 1},
	}
}

func TestMaterializeIsIdempotent(t *testing.T) {
	store := &memoryStore{}

	inserted, err := Materialize(store, sampleSchedules(), false)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	inserted, err = Materialize(store, sampleSchedules(), false)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)
	assert.Len(t, store.rows(), 3)
}

func TestMaterializeClearExisting(t *testing.T) {
	store := &memoryStore{schedules: []scheduleKey{{day: 5, timeSlot: domain.TimeSlots[7], teacherID: 9, sectionID: 9, subjectID: 9}}}

	inserted, err := Materialize(store, sampleSchedules(), true)
	require.NoError(t, err)
	assert.Equal(t, 3, inserted)

	rows := store.rows()
	assert.Len(t, rows, 3)
	assert.NotContains(t, rows, scheduleKey{day: 5, timeSlot: domain.TimeSlots[7], teacherID: 9, sectionID: 9, subjectID: 9})
}

func TestMaterializeRollsBackOnFailure(t *testing.T) {
	existing := scheduleKey{day: 5, timeSlot: domain.TimeSlots[7], teacherID: 9, sectionID: 9, subjectID: 9}
	store := &memoryStore{schedules: []scheduleKey{existing}, failInsertAfter: 3}

	inserted, err := Materialize(store, sampleSchedules(), true)
	assert.Equal(t, 0, inserted)

	var persistErr *PersistenceError
	require.ErrorAs(t, err, &persistErr)
	assert.ErrorIs(t, err, errInjected)

	// 已经插入的两条以及删除操作都被回滚
	assert.Equal(t, []scheduleKey{existing}, store.rows())
}
