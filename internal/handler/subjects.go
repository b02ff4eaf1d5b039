package handler

import "net/http"

func (h *Handler) GetAllSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.repository.GetAllSubjects()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有科目成功", subjects)
}

func (h *Handler) GetSubjectsBySection(w http.ResponseWriter, r *http.Request) {
	sectionID, err := h.readIDParam(r, "id")
	if err != nil {
		h.errorResponse(w, r, "班级ID无效")
		return
	}

	subjects, err := h.repository.GetSubjectsBySectionID(sectionID)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取班级的科目成功", subjects)
}
