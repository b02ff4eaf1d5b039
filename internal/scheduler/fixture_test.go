package scheduler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// dedicatedProblem 构造一个一定可以无冲突排出的问题：每个科目都有一位专职教师
func dedicatedProblem(t *testing.T, sections, subjects int) *Problem {
	t.Helper()

	var (
		teacherList []*domain.Teacher
		sectionList []*domain.Section
		subjectList []*domain.Subject
	)
	for i := 1; i <= subjects; i++ {
		subjectList = append(subjectList, &domain.Subject{ID: int64(i), Name: "科目", Code: "KM"})
		teacherList = append(teacherList, &domain.Teacher{ID: int64(100 + i), Name: "教师", SubjectIDs: []int64{int64(i)}})
	}
	for i := 1; i <= sections; i++ {
		sectionList = append(sectionList, &domain.Section{ID: int64(10 + i), Name: "班级"})
	}

	p, err := NewProblem(teacherList, sectionList, subjectList)
	require.NoError(t, err)
	return p
}

func testParameters(seed int64) *Parameters {
	params := DefaultParameters()
	params.Seed = seed
	params.Workers = 3
	params.MOGA.TimeLimit = 0
	return params
}

func gene(sectionID, subjectID int64, day int32, slot int, teacherID int64) Gene {
	return Gene{SectionID: sectionID, SubjectID: subjectID, Day: day, Slot: slot, TeacherID: teacherID}
}
