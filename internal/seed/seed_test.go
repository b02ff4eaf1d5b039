package seed

import (
	"math/rand"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

type memoryRepository struct {
	subjects []*domain.Subject
	teachers []*domain.Teacher
	sections []*domain.Section
	users    []*domain.User
}

func (m *memoryRepository) GetAllSubjects() ([]*domain.Subject, error) { return m.subjects, nil }

func (m *memoryRepository) CreateSubject(subject *domain.Subject) error {
	for _, s := range m.subjects {
		if s.Name == subject.Name {
			return &pgconn.PgError{Code: "23505", ConstraintName: "subjects_name_key"}
		}
	}
	subject.ID = int64(len(m.subjects) + 1)
	m.subjects = append(m.subjects, subject)
	return nil
}

func (m *memoryRepository) CreateTeacher(teacher *domain.Teacher) error {
	teacher.ID = int64(len(m.teachers) + 1)
	m.teachers = append(m.teachers, teacher)
	return nil
}

func (m *memoryRepository) CreateSection(section *domain.Section) error {
	section.ID = int64(len(m.sections) + 1)
	m.sections = append(m.sections, section)
	return nil
}

func (m *memoryRepository) CreateUser(user *domain.User) error {
	user.ID = int64(len(m.users) + 1)
	m.users = append(m.users, user)
	return nil
}

func TestSeedRealData(t *testing.T) {
	repo := &memoryRepository{}
	require.NoError(t, SeedRealData(repo))

	require.Len(t, repo.subjects, 6)
	assert.Equal(t, "YW", repo.subjects[0].Code)
	assert.Len(t, repo.teachers, 6)
	assert.Len(t, repo.sections, 3)

	// 每门科目恰好有一位专任教师
	for i, teacher := range repo.teachers {
		assert.Equal(t, []int64{repo.subjects[i].ID}, teacher.SubjectIDs)
	}

	problem, err := scheduler.NewProblem(repo.teachers, repo.sections, repo.subjects)
	require.NoError(t, err)
	assert.Len(t, problem.Requirements(), 18)
}

func TestSeedRealDataSkipsExistingSubjects(t *testing.T) {
	repo := &memoryRepository{}
	require.NoError(t, SeedRealData(repo))
	require.NoError(t, SeedRealData(repo))

	assert.Len(t, repo.subjects, 6)
	assert.Len(t, repo.teachers, 6)
}

func TestSeedRandomData(t *testing.T) {
	cfg := &config.Config{}
	cfg.Seed.RandomTeachers = 4
	cfg.Seed.RandomSections = 3

	repo := &memoryRepository{}
	assert.Error(t, SeedRandomData(repo, cfg, rand.New(rand.NewSource(1))))

	require.NoError(t, SeedRealData(repo))
	require.NoError(t, SeedRandomData(repo, cfg, rand.New(rand.NewSource(1))))
	assert.Len(t, repo.teachers, 10)
	assert.Len(t, repo.sections, 6)
}

func TestSeedRandomUsers(t *testing.T) {
	cfg := &config.Config{}
	cfg.Seed.User.Password = "password"
	cfg.Email.UserDomain = "example.com"

	repo := &memoryRepository{}
	assert.Equal(t, 2, SeedRandomUsers(repo, cfg, rand.New(rand.NewSource(1)), 2))
	for _, user := range repo.users {
		assert.Equal(t, domain.RoleViewer, user.Role)
	}
}
