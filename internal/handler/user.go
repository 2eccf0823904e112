package handler

import (
	"net/http"

	"github.com/Freeeeeet/tutorhub/internal/service"
)

// updateUserRequest has no chat id field. Chats are linked by the bot only.
type updateUserRequest struct {
	Name       *string   `json:"name" validate:"omitempty,min=1,max=100"`
	Username   *string   `json:"username" validate:"omitempty,min=3,max=50"`
	Email      *string   `json:"email" validate:"omitempty,email"`
	Subjects   *[]string `json:"subjects" validate:"omitempty,dive,required"`
	GradeLevel *string   `json:"gradeLevel"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// GetMe handles GET /api/users/me
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), principal(r).UserID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetUser handles GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateUser handles PUT /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.users.Update(r.Context(), principal(r), id, service.ProfileUpdate{
		Name:       req.Name,
		Username:   req.Username,
		Email:      req.Email,
		Subjects:   req.Subjects,
		GradeLevel: req.GradeLevel,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ChangePassword handles PATCH /api/users/{id}/password
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.users.ChangePassword(r.Context(), principal(r), id, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password updated successfully"})
}
