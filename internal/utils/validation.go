package utils

import (
	"fmt"
	"slices"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func ValidateSchedule(s *domain.Schedule) error {
	if !slices.Contains(domain.WeekDays, s.Day) {
		return fmt.Errorf("星期 %d 不在周一到周五之间", s.Day)
	}
	if !slices.Contains(domain.TimeSlots, s.TimeSlot) {
		return fmt.Errorf("时间段 %s 不存在", s.TimeSlot)
	}
	if s.TeacherID <= 0 || s.SectionID <= 0 || s.SubjectID <= 0 {
		return fmt.Errorf("课表中的教师、班级和科目都必须指定")
	}
	return nil
}

// ValidateSchedules 检查每一条课表是否合法，并且同一个班级的同一门科目只出现一次
func ValidateSchedules(schedules []*domain.Schedule) error {
	type pair struct {
		sectionID int64
		subjectID int64
	}

	seen := make(map[pair]bool, len(schedules))
	for i, s := range schedules {
		if err := ValidateSchedule(s); err != nil {
			return fmt.Errorf("第 %d 条课表不合法: %w", i+1, err)
		}

		key := pair{s.SectionID, s.SubjectID}
		if seen[key] {
			return fmt.Errorf("班级 %d 的科目 %d 被重复安排", s.SectionID, s.SubjectID)
		}
		seen[key] = true
	}
	return nil
}
