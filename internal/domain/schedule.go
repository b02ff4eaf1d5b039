package domain

import "time"

// 一周五天上课，用 1~5 表示周一到周五
var WeekDays = []int32{1, 2, 3, 4, 5}

// 每天八节课，上午四节下午四节，中间的午休不算作课时
var TimeSlots = []string{
	"07:30-08:30",
	"08:30-09:30",
	"09:30-10:30",
	"10:30-11:30",
	"13:00-14:00",
	"14:00-15:00",
	"15:00-16:00",
	"16:00-17:00",
}

type Schedule struct {
	ID        int64     `json:"id"`
	Day       int32     `json:"day"`
	TimeSlot  string    `json:"timeSlot"`
	TeacherID int64     `json:"teacherID"`
	SectionID int64     `json:"sectionID"`
	SubjectID int64     `json:"subjectID"`
	CreatedAt time.Time `json:"createdAt"`
}

type ScheduleMetrics struct {
	TeacherConflicts int     `json:"teacherConflicts"`
	SectionConflicts int     `json:"sectionConflicts"`
	LoadVariance     float64 `json:"loadVariance"`
	Suitability      int     `json:"suitability"`
}

type OptimizationResult struct {
	RunID                string          `json:"runID"`
	Strategy             string          `json:"strategy"`
	InsertedCount        int             `json:"insertedCount"`
	Metrics              ScheduleMetrics `json:"metrics"`
	Generations          int             `json:"generations"`
	TimedOut             bool            `json:"timedOut"`
	ExecutionTimeSeconds float64         `json:"executionTimeSeconds"`
	FinishedAt           time.Time       `json:"finishedAt"`
}

// ScheduleWriter 是在同一个事务中写入课表所需要的操作
type ScheduleWriter interface {
	DeleteAllSchedules() error
	ScheduleExists(s *Schedule) (bool, error)
	InsertSchedule(s *Schedule) error
}
