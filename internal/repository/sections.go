package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (r *Repository) GetAllSections() ([]*domain.Section, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT s.id, s.name, s.created_at, s.version, ss.subject_id
		FROM sections s
		LEFT JOIN section_subjects ss ON s.id = ss.section_id
		ORDER BY s.id, ss.subject_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := make([]*domain.Section, 0)
	sectionsMap := make(map[int64]*domain.Section)

	for rows.Next() {
		var row struct {
			ID        int64
			Name      string
			CreatedAt time.Time
			Version   int32
			SubjectID sql.NullInt64
		}

		if err := rows.Scan(&row.ID, &row.Name, &row.CreatedAt, &row.Version, &row.SubjectID); err != nil {
			return nil, err
		}

		section, exists := sectionsMap[row.ID]
		if !exists {
			section = &domain.Section{
				ID:         row.ID,
				Name:       row.Name,
				SubjectIDs: make([]int64, 0),
				CreatedAt:  row.CreatedAt,
				Version:    row.Version,
			}
			sectionsMap[row.ID] = section
			sections = append(sections, section)
		}

		// 没有关联任何科目的班级会开设所有科目
		if row.SubjectID.Valid {
			section.SubjectIDs = append(section.SubjectIDs, row.SubjectID.Int64)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *Repository) CreateSection(section *domain.Section) error {
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
		INSERT INTO sections (name)
		VALUES ($1)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, section.Name).Scan(&section.ID, &section.CreatedAt, &section.Version); err != nil {
		return err
	}

	for _, subjectID := range section.SubjectIDs {
		query = `
			INSERT INTO section_subjects (section_id, subject_id)
			VALUES ($1, $2)
		`
		if _, err := tx.ExecContext(ctx, query, section.ID, subjectID); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
