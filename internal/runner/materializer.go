package runner

import (
	"fmt"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// PersistenceError 表示保存排课结果时出错，此时整个事务已经回滚
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("保存排课结果失败: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// ScheduleStore 在一个事务中执行 fn，fn 返回错误时回滚
type ScheduleStore interface {
	WithScheduleTx(fn func(domain.ScheduleWriter) error) error
}

/**
 * Materialize 在同一个事务中保存课表
 * clearExisting 为 true 时先删除已有的全部课表
 * 每一条课表先检查 (day, time_slot, teacher, section, subject) 是否已经存在，不存在才插入
 * 返回新插入的条数
 */
func Materialize(store ScheduleStore, schedules []*domain.Schedule, clearExisting bool) (int, error) {
	inserted := 0

	err := store.WithScheduleTx(func(w domain.ScheduleWriter) error {
		inserted = 0

		if clearExisting {
			if err := w.DeleteAllSchedules(); err != nil {
				return err
			}
		}

		for _, s := range schedules {
			exists, err := w.ScheduleExists(s)
			if err != nil {
				return err
			}
			if exists {
				continue
			}
			if err := w.InsertSchedule(s); err != nil {
				return err
			}
			inserted++
		}

		return nil
	})
	if err != nil {
		return 0, &PersistenceError{Err: err}
	}

	return inserted, nil
}
