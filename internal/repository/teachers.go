package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

// scanTeachers 把 teachers LEFT JOIN teacher_subjects 的结果组装为教师列表，查询结果需要按教师 id 排序
func scanTeachers(rows *sql.Rows) ([]*domain.Teacher, error) {
	teachers := make([]*domain.Teacher, 0)
	teachersMap := make(map[int64]*domain.Teacher)

	for rows.Next() {
		var row struct {
			ID        int64
			Name      string
			CreatedAt time.Time
			Version   int32
			SubjectID sql.NullInt64
		}

		dst := []any{&row.ID, &row.Name, &row.CreatedAt, &row.Version, &row.SubjectID}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		teacher, exists := teachersMap[row.ID]
		if !exists {
			// 说明此时是第一次查到这个教师
			teacher = &domain.Teacher{
				ID:         row.ID,
				Name:       row.Name,
				SubjectIDs: make([]int64, 0),
				CreatedAt:  row.CreatedAt,
				Version:    row.Version,
			}
			teachersMap[row.ID] = teacher
			teachers = append(teachers, teacher)
		}

		// subjectID 为空表示这个教师还没有登记任何可以任教的科目
		if row.SubjectID.Valid {
			teacher.SubjectIDs = append(teacher.SubjectIDs, row.SubjectID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return teachers, nil
}

func (r *Repository) GetAllTeachers() ([]*domain.Teacher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT t.id, t.name, t.created_at, t.version, ts.subject_id
		FROM teachers t
		LEFT JOIN teacher_subjects ts ON t.id = ts.teacher_id
		ORDER BY t.id, ts.subject_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTeachers(rows)
}

func (r *Repository) GetTeacherByID(id int64) (*domain.Teacher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT t.id, t.name, t.created_at, t.version, ts.subject_id
		FROM teachers t
		LEFT JOIN teacher_subjects ts ON t.id = ts.teacher_id
		WHERE t.id = $1
		ORDER BY ts.subject_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers, err := scanTeachers(rows)
	if err != nil {
		return nil, err
	}
	if len(teachers) == 0 {
		return nil, sql.ErrNoRows
	}

	return teachers[0], nil
}

// GetTeachersBySubjectID 返回可以教授该科目的教师（包含他们可以教授的全部科目）
func (r *Repository) GetTeachersBySubjectID(subjectID int64) ([]*domain.Teacher, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT t.id, t.name, t.created_at, t.version, ts.subject_id
		FROM teachers t
		LEFT JOIN teacher_subjects ts ON t.id = ts.teacher_id
		WHERE t.id IN (SELECT teacher_id FROM teacher_subjects WHERE subject_id = $1)
		ORDER BY t.id, ts.subject_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, subjectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTeachers(rows)
}

func (r *Repository) CreateTeacher(teacher *domain.Teacher) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO teachers (name)
		VALUES ($1)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, teacher.Name).Scan(&teacher.ID, &teacher.CreatedAt, &teacher.Version); err != nil {
		return err
	}

	for _, subjectID := range teacher.SubjectIDs {
		query = `
			INSERT INTO teacher_subjects (teacher_id, subject_id)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, teacher.ID, subjectID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
