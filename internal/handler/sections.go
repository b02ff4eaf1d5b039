package handler

import "net/http"

func (h *Handler) GetAllSections(w http.ResponseWriter, r *http.Request) {
	sections, err := h.repository.GetAllSections()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取所有班级成功", sections)
}
