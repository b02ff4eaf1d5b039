package handler

import (
	"net/http"

	"github.com/sysu-ecnc-dev/timetable/backend/internal/domain"
)

func (h *Handler) GetAllTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.repository.GetAllTeachers()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有教师成功", teachers)
}

func (h *Handler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	teacher := r.Context().Value(TeacherCtx).(*domain.Teacher)

	h.successResponse(w, r, "获取教师信息成功", teacher)
}

func (h *Handler) GetTeachersBySubject(w http.ResponseWriter, r *http.Request) {
	subjectID, err := h.readIDParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, "科目ID无效")
		return
	}

	teachers, err := h.repository.GetTeachersBySubjectID(subjectID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取科目的任课教师成功", teachers)
}
