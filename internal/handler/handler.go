package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/config"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/runner"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
)

// Repository 是 handler 需要用到的数据库操作
type Repository interface {
	GetUserByID(id int64) (*domain.User, error)
	GetUserByUsername(username string) (*domain.User, error)

	GetAllTeachers() ([]*domain.Teacher, error)
	GetTeacherByID(id int64) (*domain.Teacher, error)
	GetTeachersBySubjectID(subjectID int64) ([]*domain.Teacher, error)
	GetAllSections() ([]*domain.Section, error)
	GetAllSubjects() ([]*domain.Subject, error)
	GetSubjectsBySectionID(sectionID int64) ([]*domain.Subject, error)

	GetAllSchedules() ([]*domain.Schedule, error)
	GetSchedulesByTeacherID(teacherID int64) ([]*domain.Schedule, error)
	GetSchedulesBySectionID(sectionID int64) ([]*domain.Schedule, error)
	CreateSchedule(s *domain.Schedule) error
}

type Optimizer interface {
	RunOptimization(ctx context.Context, strategy scheduler.StrategyName, opts runner.Options) (*domain.OptimizationResult, error)
}

type ResultReader interface {
	GetLastResult(ctx context.Context, strategy string) (*domain.OptimizationResult, error)
}

type Handler struct {
	validate   *validator.Validate
	config     *config.Config
	repository Repository
	translator ut.Translator
	optimizer  Optimizer
	results    ResultReader

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, optimizer Optimizer, results ResultReader) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:   validate,
		config:     cfg,
		repository: repo,
		translator: trans,
		optimizer:  optimizer,
		results:    results,

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.With(h.auth).Get("/me", h.Me)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.Route("/teachers", func(r chi.Router) {
			r.Get("/", h.GetAllTeachers)
			r.Get("/subject/{id}", h.GetTeachersBySubject)
			r.With(h.teacher).Get("/{id}", h.GetTeacher)
		})

		r.Get("/sections", h.GetAllSections)

		r.Route("/subjects", func(r chi.Router) {
			r.Get("/", h.GetAllSubjects)
			r.Get("/section/{id}", h.GetSubjectsBySection)
		})

		r.Route("/schedules", func(r chi.Router) {
			r.Get("/", h.GetAllSchedules)
			r.Get("/teacher/{id}", h.GetSchedulesByTeacher)
			r.Get("/section/{id}", h.GetSchedulesBySection)
			r.With(h.RequiredRole([]domain.Role{domain.RoleAdmin})).Post("/", h.CreateSchedule)
			r.Route("/generate", func(r chi.Router) {
				r.Use(h.RequiredRole([]domain.Role{domain.RoleAdmin}))
				r.Get("/last", h.GetLastOptimizationResult)
				r.With(h.strategy).Post("/{strategy}", h.GenerateSchedules)
			})
		})
	})
}
