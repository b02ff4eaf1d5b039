package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) scanSubjects(ctx context.Context, query string, args ...any) ([]*domain.Subject, error) {
	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := make([]*domain.Subject, 0)
	for rows.Next() {
		subject := &domain.Subject{}
		dst := []any{&subject.ID, &subject.Name, &subject.Code, &subject.Description, &subject.CreatedAt, &subject.Version}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		subjects = append(subjects, subject)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return subjects, nil
}

func (r *Repository) GetAllSubjects() ([]*domain.Subject, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT id, name, code, description, created_at, version
		FROM subjects ORDER BY id
	`
	return r.scanSubjects(ctx, query)
}

// GetSubjectsBySectionID 返回班级需要开设的科目，班级没有指定科目时返回所有科目
func (r *Repository) GetSubjectsBySectionID(sectionID int64) ([]*domain.Subject, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT s.id, s.name, s.code, s.description, s.created_at, s.version
		FROM subjects s
		WHERE NOT EXISTS (SELECT 1 FROM section_subjects WHERE section_id = $1)
		   OR s.id IN (SELECT subject_id FROM section_subjects WHERE section_id = $1)
		ORDER BY s.id
	`
	return r.scanSubjects(ctx, query, sectionID)
}

func (r *Repository) CreateSubject(subject *domain.Subject) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		INSERT INTO subjects (name, code, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, version
	`
	if err := r.dbpool.QueryRowContext(ctx, query, subject.Name, subject.Code, subject.Description).Scan(&subject.ID, &subject.CreatedAt, &subject.Version); err != nil {
		return err
	}

	return nil
}
