package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) scanSchedules(ctx context.Context, query string, args ...any) ([]*domain.Schedule, error) {
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedules := make([]*domain.Schedule, 0)
	for rows.Next() {
		s := &domain.Schedule{}
		dst := []any{&s.ID, &s.Day, &s.TimeSlot, &s.TeacherID, &s.SectionID, &s.SubjectID, &s.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		schedules = append(schedules, s)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return schedules, nil
}

func (r *Repository) GetAllSchedules() ([]*domain.Schedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, day, time_slot, teacher_id, section_id, subject_id, created_at
		FROM schedules ORDER BY day, time_slot, section_id
	`
	return r.scanSchedules(ctx, query)
}

func (r *Repository) GetSchedulesByTeacherID(teacherID int64) ([]*domain.Schedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, day, time_slot, teacher_id, section_id, subject_id, created_at
		FROM schedules WHERE teacher_id = $1 ORDER BY day, time_slot
	`
	return r.scanSchedules(ctx, query, teacherID)
}

func (r *Repository) GetSchedulesBySectionID(sectionID int64) ([]*domain.Schedule, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, day, time_slot, teacher_id, section_id, subject_id, created_at
		FROM schedules WHERE section_id = $1 ORDER BY day, time_slot
	`
	return r.scanSchedules(ctx, query, sectionID)
}

func (r *Repository) CreateSchedule(s *domain.Schedule) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	return insertSchedule(ctx, r.dbpool, s)
}

// queryRower 可以是 *sql.DB 也可以是 *sql.Tx
type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertSchedule(ctx context.Context, q queryRower, s *domain.Schedule) error {
	query := `
		INSERT INTO schedules (day, time_slot, teacher_id, section_id, subject_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	args := []any{s.Day, s.TimeSlot, s.TeacherID, s.SectionID, s.SubjectID}
	return q.QueryRowContext(ctx, query, args...).Scan(&s.ID, &s.CreatedAt)
}

// scheduleTx 在同一个事务中实现 domain.ScheduleWriter
type scheduleTx struct {
	ctx context.Context
	tx  *sql.Tx
}

func (t *scheduleTx) DeleteAllSchedules() error {
	_, err := t.tx.ExecContext(t.ctx, `DELETE FROM schedules`)
	return err
}

func (t *scheduleTx) ScheduleExists(s *domain.Schedule) (bool, error) {
	isExists := false

	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedules
			WHERE day = $1 AND time_slot = $2 AND teacher_id = $3 AND section_id = $4 AND subject_id = $5
		)
	`
	args := []any{s.Day, s.TimeSlot, s.TeacherID, s.SectionID, s.SubjectID}
	if err := t.tx.QueryRowContext(t.ctx, query, args...).Scan(&isExists); err != nil {
		return false, err
	}

	return isExists, nil
}

func (t *scheduleTx) InsertSchedule(s *domain.Schedule) error {
	return insertSchedule(t.ctx, t.tx, s)
}

// WithScheduleTx 在一个事务中执行 fn，fn 返回错误时整个事务回滚
func (r *Repository) WithScheduleTx(fn func(domain.ScheduleWriter) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&scheduleTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
