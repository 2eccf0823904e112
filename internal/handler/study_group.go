package handler

import (
	"net/http"

	"github.com/Freeeeeet/tutorhub/internal/service"
)

type createStudyGroupRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Subject     string `json:"subject" validate:"required,max=100"`
	Description string `json:"description"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Time        string `json:"time" validate:"required,datetime=15:04"`
	Duration    int    `json:"duration" validate:"required,gt=0"`
}

type updateStudyGroupRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Subject     *string `json:"subject" validate:"omitempty,max=100"`
	Description *string `json:"description"`
	Date        *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time        *string `json:"time" validate:"omitempty,datetime=15:04"`
	Duration    *int    `json:"duration"`
}

// CreateStudyGroup handles POST /api/studyGroups
func (h *Handler) CreateStudyGroup(w http.ResponseWriter, r *http.Request) {
	var req createStudyGroupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	group, err := h.groups.Create(r.Context(), principal(r), service.StudyGroupInput{
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Duration:    req.Duration,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, group)
}

// ListStudyGroups handles GET /api/studyGroups
func (h *Handler) ListStudyGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.List(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

// GetStudyGroup handles GET /api/studyGroups/{id}
func (h *Handler) GetStudyGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	group, err := h.groups.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// UpdateStudyGroup handles PATCH /api/studyGroups/{id}
func (h *Handler) UpdateStudyGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateStudyGroupRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	group, err := h.groups.Update(r.Context(), principal(r), id, service.StudyGroupUpdate{
		Title:       req.Title,
		Subject:     req.Subject,
		Description: req.Description,
		Date:        req.Date,
		Time:        req.Time,
		Duration:    req.Duration,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, group)
}

// DeleteStudyGroup handles DELETE /api/studyGroups/{id}
func (h *Handler) DeleteStudyGroup(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.groups.Delete(r.Context(), principal(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "study group deleted successfully"})
}
