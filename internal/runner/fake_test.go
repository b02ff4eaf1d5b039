package runner

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

var errInjected = errors.New("injected failure")

type scheduleKey struct {
	day       int32
	timeSlot  string
	teacherID int64
	sectionID int64
	subjectID int64
}

func keyOf(s *domain.Schedule) scheduleKey {
	return scheduleKey{s.Day, s.TimeSlot, s.TeacherID, s.SectionID, s.SubjectID}
}

// memoryStore 是一个带事务语义的内存存储：fn 返回错误时丢弃事务中的全部修改
type memoryStore struct {
	mu        sync.Mutex
	teachers  []*domain.Teacher
	sections  []*domain.Section
	subjects  []*domain.Subject
	schedules []scheduleKey

	failInsertAfter int // 大于 0 时，第 failInsertAfter 次插入失败
	inserts         int
}

func (s *memoryStore) GetAllTeachers() ([]*domain.Teacher, error) { return s.teachers, nil }
func (s *memoryStore) GetAllSections() ([]*domain.Section, error) { return s.sections, nil }
func (s *memoryStore) GetAllSubjects() ([]*domain.Subject, error) { return s.subjects, nil }

func (s *memoryStore) WithScheduleTx(fn func(domain.ScheduleWriter) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memoryTx{store: s, rows: slices.Clone(s.schedules)}
	if err := fn(tx); err != nil {
		return err
	}
	s.schedules = tx.rows
	return nil
}

func (s *memoryStore) rows() []scheduleKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.schedules)
}

type memoryTx struct {
	store *memoryStore
	rows  []scheduleKey
}

func (tx *memoryTx) DeleteAllSchedules() error {
	tx.rows = nil
	return nil
}

func (tx *memoryTx) ScheduleExists(s *domain.Schedule) (bool, error) {
	return slices.Contains(tx.rows, keyOf(s)), nil
}

func (tx *memoryTx) InsertSchedule(s *domain.Schedule) error {
	tx.store.inserts++
	if tx.store.failInsertAfter > 0 && tx.store.inserts >= tx.store.failInsertAfter {
		return errInjected
	}
	tx.rows = append(tx.rows, keyOf(s))
	return nil
}

type memoryCache struct {
	mu      sync.Mutex
	holder  string
	results map[string]*domain.OptimizationResult
}

func (c *memoryCache) AcquireRunLock(_ context.Context, runID string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holder != "" {
		return false, nil
	}
	c.holder = runID
	return true, nil
}

func (c *memoryCache) ReleaseRunLock(_ context.Context, runID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.holder == runID {
		c.holder = ""
	}
	return nil
}

func (c *memoryCache) SaveLastResult(_ context.Context, result *domain.OptimizationResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.results == nil {
		c.results = make(map[string]*domain.OptimizationResult)
	}
	c.results[result.Strategy] = result
	return nil
}

type recordingNotifier struct {
	reports []*domain.OptimizationResult
}

func (n *recordingNotifier) NotifyOptimizationReport(_ context.Context, result *domain.OptimizationResult) error {
	n.reports = append(n.reports, result)
	return nil
}
