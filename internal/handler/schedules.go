package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/cache"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/runner"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/scheduler"
	"github.com/sysu-ecnc-dev/timetable/backend/internal/utils"
)

func (h *Handler) GetAllSchedules(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.repository.GetAllSchedules()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取课表成功", schedules)
}

func (h *Handler) GetSchedulesByTeacher(w http.ResponseWriter, r *http.Request) {
	teacherID, err := h.readIDParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, "教师ID无效")
		return
	}

	schedules, err := h.repository.GetSchedulesByTeacherID(teacherID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取教师课表成功", schedules)
}

func (h *Handler) GetSchedulesBySection(w http.ResponseWriter, r *http.Request) {
	sectionID, err := h.readIDParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, "班级ID无效")
		return
	}

	schedules, err := h.repository.GetSchedulesBySectionID(sectionID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班级课表成功", schedules)
}

func (h *Handler) CreateSchedule(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Day       int32  `json:"day" validate:"required,min=1,max=5"`
		TimeSlot  string `json:"timeSlot" validate:"required"`
		TeacherID int64  `json:"teacherID" validate:"required,gt=0"`
		SectionID int64  `json:"sectionID" validate:"required,gt=0"`
		SubjectID int64  `json:"subjectID" validate:"required,gt=0"`
	}

	if err := h.readJSON(w, r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	schedule := &domain.Schedule{
		Day:       req.Day,
		TimeSlot:  req.TimeSlot,
		TeacherID: req.TeacherID,
		SectionID: req.SectionID,
		SubjectID: req.SubjectID,
	}
	if err := utils.ValidateSchedule(schedule); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateSchedule(schedule); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr):
			switch pgErr.ConstraintName {
			case "schedules_assignment_key":
				h.errorResponse(w, r, "该课表已存在")
			case "schedules_teacher_id_fkey":
				h.errorResponse(w, r, "教师不存在")
			case "schedules_section_id_fkey":
				h.errorResponse(w, r, "班级不存在")
			case "schedules_subject_id_fkey":
				h.errorResponse(w, r, "科目不存在")
			default:
				h.internalServerError(w, r, err)
			}
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "创建课表成功", schedule)
}

func (h *Handler) GenerateSchedules(w http.ResponseWriter, r *http.Request) {
	strategy := r.Context().Value(StrategyCtx).(scheduler.StrategyName)

	var req struct {
		ClearExisting bool `json:"clearExisting"`
	}
	// 请求体可以为空
	if err := h.readJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		h.badRequest(w, r, err)
		return
	}

	// 客户端断开连接不应该打断正在保存的排课结果
	result, err := h.optimizer.RunOptimization(context.WithoutCancel(r.Context()), strategy, runner.Options{
		ClearExisting: req.ClearExisting,
	})
	if err != nil {
		var cfgErr *scheduler.ConfigurationError
		var persistErr *runner.PersistenceError
		switch {
		case errors.Is(err, runner.ErrRunInProgress):
			h.errorResponse(w, r, "已有排课任务正在运行，请稍后再试")
		case errors.As(err, &cfgErr):
			h.errorResponse(w, r, cfgErr.Error())
		case errors.As(err, &persistErr):
			h.internalServerError(w, r, err)
		case errors.Is(err, context.DeadlineExceeded):
			h.errorResponse(w, r, "排课超时")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	// 仍然存在冲突时排课结果也会被保存，但需要提醒用户
	msg := "排课成功"
	switch {
	case result.Metrics.TeacherConflicts > 0 || result.Metrics.SectionConflicts > 0:
		msg = "排课完成，但仍存在冲突"
	case result.TimedOut:
		msg = "排课达到时间上限，已保存目前找到的最优解"
	}
	h.successResponse(w, r, msg, result)
}

func (h *Handler) GetLastOptimizationResult(w http.ResponseWriter, r *http.Request) {
	strategy, err := scheduler.ParseStrategy(r.URL.Query().Get("strategy"))
	if err != nil {
		h.errorResponse(w, r, "不支持的排课算法")
		return
	}

	result, err := h.results.GetLastResult(r.Context(), string(strategy))
	if err != nil {
		switch {
		case errors.Is(err, cache.ErrNoResult):
			h.successResponse(w, r, "暂无排课结果", nil)
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "获取排课结果成功", result)
}
