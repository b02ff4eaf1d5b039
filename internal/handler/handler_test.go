package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/cache"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/runner"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"golang.org/x/crypto/bcrypt"
)

type fakeRepository struct {
	users     map[string]*domain.User
	teachers  []*domain.Teacher
	sections  []*domain.Section
	subjects  []*domain.Subject
	schedules []*domain.Schedule
}

func (f *fakeRepository) GetUserByID(id int64) (*domain.User, error) {
	for _, u := range f.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetUserByUsername(username string) (*domain.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetAllTeachers() ([]*domain.Teacher, error) { return f.teachers, nil }

func (f *fakeRepository) GetTeacherByID(id int64) (*domain.Teacher, error) {
	for _, t := range f.teachers {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeRepository) GetTeachersBySubjectID(subjectID int64) ([]*domain.Teacher, error) {
	teachers := make([]*domain.Teacher, 0)
	for _, t := range f.teachers {
		for _, id := range t.SubjectIDs {
			if id == subjectID {
				teachers = append(teachers, t)
			}
		}
	}
	return teachers, nil
}

func (f *fakeRepository) GetAllSections() ([]*domain.Section, error) { return f.sections, nil }
func (f *fakeRepository) GetAllSubjects() ([]*domain.Subject, error) { return f.subjects, nil }

func (f *fakeRepository) GetSubjectsBySectionID(int64) ([]*domain.Subject, error) {
	return f.subjects, nil
}

func (f *fakeRepository) GetAllSchedules() ([]*domain.Schedule, error) { return f.schedules, nil }

func (f *fakeRepository) GetSchedulesByTeacherID(teacherID int64) ([]*domain.Schedule, error) {
	schedules := make([]*domain.Schedule, 0)
	for _, s := range f.schedules {
		if s.TeacherID == teacherID {
			schedules = append(schedules, s)
		}
	}
	return schedules, nil
}

func (f *fakeRepository) GetSchedulesBySectionID(sectionID int64) ([]*domain.Schedule, error) {
	schedules := make([]*domain.Schedule, 0)
	for _, s := range f.schedules {
		if s.SectionID == sectionID {
			schedules = append(schedules, s)
		}
	}
	return schedules, nil
}

func (f *fakeRepository) CreateSchedule(s *domain.Schedule) error {
	s.ID = int64(len(f.schedules) + 1)
	s.CreatedAt = time.Now()
	f.schedules = append(f.schedules, s)
	return nil
}

type fakeOptimizer struct {
	err      error
	strategy scheduler.StrategyName
	opts     runner.Options
	result   *domain.OptimizationResult
}

func (f *fakeOptimizer) RunOptimization(_ context.Context, strategy scheduler.StrategyName, opts runner.Options) (*domain.OptimizationResult, error) {
	f.strategy, f.opts = strategy, opts
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeResults map[string]*domain.OptimizationResult

func (f fakeResults) GetLastResult(_ context.Context, strategy string) (*domain.OptimizationResult, error) {
	if r, ok := f[strategy]; ok {
		return r, nil
	}
	return nil, cache.ErrNoResult
}

type HandlerSuite struct {
	suite.Suite

	repo      *fakeRepository
	optimizer *fakeOptimizer
	results   fakeResults
	handler   *Handler
}

func (s *HandlerSuite) SetupTest() {
	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	s.Require().NoError(err)

	s.repo = &fakeRepository{
		users: map[string]*domain.User{
			"admin":  {ID: 1, Username: "admin", PasswordHash: string(hash), Role: domain.RoleAdmin, IsActive: true},
			"viewer": {ID: 2, Username: "viewer", PasswordHash: string(hash), Role: domain.RoleViewer, IsActive: true},
		},
		teachers: []*domain.Teacher{{ID: 1, Name: "王老师", SubjectIDs: []int64{1}}},
		sections: []*domain.Section{{ID: 1, Name: "一班"}},
		subjects: []*domain.Subject{{ID: 1, Name: "语文", Code: "YW"}},
	}
	s.optimizer = &fakeOptimizer{result: &domain.OptimizationResult{RunID: "run-1", Strategy: "moga", InsertedCount: 1}}
	s.results = fakeResults{}

	cfg := &config.Config{}
	cfg.JWT.Secret = "secret"
	cfg.JWT.Expiration = 3600

	h, err := NewHandler(cfg, s.repo, s.optimizer, s.results)
	s.Require().NoError(err)
	h.RegisterRoutes()
	s.handler = h
}

func (s *HandlerSuite) do(method, path string, body any, cookie *http.Cookie) Response {
	var reader bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&reader).Encode(body))
	}

	req := httptest.NewRequest(method, path, &reader)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	s.handler.Mux.ServeHTTP(rec, req)

	var resp Response
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func (s *HandlerSuite) login(username string) *http.Cookie {
	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"username":"`+username+`","password":"password"}`))
	rec := httptest.NewRecorder()
	s.handler.Mux.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == tokenCookieName {
			return c
		}
	}
	s.FailNow("登录没有返回 token")
	return nil
}

func (s *HandlerSuite) TestLoginWrongPassword() {
	resp := s.do(http.MethodPost, "/auth/login", map[string]string{"username": "admin", "password": "wrong"}, nil)
	s.False(resp.Success)
	s.Equal("用户名不存在或密码错误", resp.Message)
}

func (s *HandlerSuite) TestRequiresLogin() {
	resp := s.do(http.MethodGet, "/teachers", nil, nil)
	s.False(resp.Success)
	s.Equal("用户未登录", resp.Message)
}

func (s *HandlerSuite) TestMe() {
	resp := s.do(http.MethodGet, "/auth/me", nil, s.login("viewer"))
	s.True(resp.Success)
	s.Equal("viewer", resp.Data.(map[string]any)["username"])
}

func (s *HandlerSuite) TestInactiveUserCannotLogin() {
	s.repo.users["viewer"].IsActive = false

	resp := s.do(http.MethodPost, "/auth/login", map[string]string{"username": "viewer", "password": "password"}, nil)
	s.False(resp.Success)
	s.Equal("账号已被停用", resp.Message)
}

func (s *HandlerSuite) TestListTeachers() {
	resp := s.do(http.MethodGet, "/teachers", nil, s.login("viewer"))
	s.True(resp.Success)
	s.Len(resp.Data, 1)

	resp = s.do(http.MethodGet, "/teachers/1", nil, s.login("viewer"))
	s.True(resp.Success)

	resp = s.do(http.MethodGet, "/teachers/42", nil, s.login("viewer"))
	s.False(resp.Success)
	s.Equal("教师不存在", resp.Message)
}

func (s *HandlerSuite) TestCreateScheduleRequiresAdmin() {
	body := map[string]any{"day": 1, "timeSlot": domain.TimeSlots[0], "teacherID": 1, "sectionID": 1, "subjectID": 1}

	resp := s.do(http.MethodPost, "/schedules", body, s.login("viewer"))
	s.False(resp.Success)
	s.Equal("权限不足", resp.Message)

	resp = s.do(http.MethodPost, "/schedules", body, s.login("admin"))
	s.True(resp.Success)
	s.Len(s.repo.schedules, 1)
}

func (s *HandlerSuite) TestCreateScheduleRejectsUnknownSlot() {
	body := map[string]any{"day": 1, "timeSlot": "12:00-13:00", "teacherID": 1, "sectionID": 1, "subjectID": 1}

	resp := s.do(http.MethodPost, "/schedules", body, s.login("admin"))
	s.False(resp.Success)
	s.Empty(s.repo.schedules)
}

func (s *HandlerSuite) TestGenerateSchedules() {
	resp := s.do(http.MethodPost, "/schedules/generate/ant-colony", map[string]bool{"clearExisting": true}, s.login("admin"))
	s.True(resp.Success)
	s.Equal("排课成功", resp.Message)
	s.Equal(scheduler.StrategyAntColony, s.optimizer.strategy)
	s.True(s.optimizer.opts.ClearExisting)
}

func (s *HandlerSuite) TestGenerateSchedulesWithoutBody() {
	resp := s.do(http.MethodPost, "/schedules/generate/moga", nil, s.login("admin"))
	s.True(resp.Success)
	s.False(s.optimizer.opts.ClearExisting)
}

func (s *HandlerSuite) TestGenerateSchedulesReportsConflicts() {
	s.optimizer.result.Metrics.SectionConflicts = 2

	resp := s.do(http.MethodPost, "/schedules/generate/moga", nil, s.login("admin"))
	s.True(resp.Success)
	s.Equal("排课完成，但仍存在冲突", resp.Message)
}

func (s *HandlerSuite) TestGenerateSchedulesTimedOut() {
	s.optimizer.result.TimedOut = true

	resp := s.do(http.MethodPost, "/schedules/generate/hill-climbing", nil, s.login("admin"))
	s.True(resp.Success)
	s.Equal("排课达到时间上限，已保存目前找到的最优解", resp.Message)
	s.Equal(true, resp.Data.(map[string]any)["timedOut"])
}

func (s *HandlerSuite) TestGenerateSchedulesUnknownStrategy() {
	resp := s.do(http.MethodPost, "/schedules/generate/tabu-search", nil, s.login("admin"))
	s.False(resp.Success)
	s.Equal("不支持的排课算法", resp.Message)
	s.Empty(s.optimizer.strategy)
}

func (s *HandlerSuite) TestGenerateSchedulesInProgress() {
	s.optimizer.err = runner.ErrRunInProgress

	resp := s.do(http.MethodPost, "/schedules/generate/moga", nil, s.login("admin"))
	s.False(resp.Success)
	s.Equal("已有排课任务正在运行，请稍后再试", resp.Message)
}

func (s *HandlerSuite) TestLastOptimizationResult() {
	resp := s.do(http.MethodGet, "/schedules/generate/last?strategy=moga", nil, s.login("admin"))
	s.True(resp.Success)
	s.Nil(resp.Data)

	s.results["moga"] = &domain.OptimizationResult{RunID: "run-9", Strategy: "moga"}
	resp = s.do(http.MethodGet, "/schedules/generate/last?strategy=moga", nil, s.login("admin"))
	s.True(resp.Success)
	s.Equal("run-9", resp.Data.(map[string]any)["runID"])
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func TestReadIDParamRejectsInvalid(t *testing.T) {
	h, err := NewHandler(&config.Config{}, &fakeRepository{}, &fakeOptimizer{}, fakeResults{})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err = h.readIDParam(req, "id")
	assert.Error(t, err)
}
