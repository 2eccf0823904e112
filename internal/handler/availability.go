package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type availabilitySlotRequest struct {
	Day       string    `json:"day" validate:"required,datetime=2006-01-02"`
	Subject   string    `json:"subject" validate:"required,max=100"`
	StartTime timestamp `json:"startTime" validate:"required"`
	EndTime   timestamp `json:"endTime" validate:"required"`
}

type createAvailabilityRequest struct {
	Availability []availabilitySlotRequest `json:"availability" validate:"required,min=1,dive"`
}

type createAvailabilityResponse struct {
	Message      string                    `json:"message"`
	Availability []*model.AvailabilitySlot `json:"availability"`
}

type updateAvailabilityRequest struct {
	Subject    *string    `json:"subject" validate:"omitempty,max=100"`
	StartTime  *timestamp `json:"startTime"`
	EndTime    *timestamp `json:"endTime"`
	IsActive   *bool      `json:"isActive"`
	DisableDay bool       `json:"disableDay"`
}

type disableDayResponse struct {
	Message       string `json:"message"`
	Day           string `json:"day"`
	DisabledSlots int64  `json:"disabledSlots"`
}

// pathID parses the {id} URL parameter, writing a 400 when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// CreateAvailability handles POST /api/tutors/availability
func (h *Handler) CreateAvailability(w http.ResponseWriter, r *http.Request) {
	var req createAvailabilityRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	inputs := make([]service.SlotInput, 0, len(req.Availability))
	for _, s := range req.Availability {
		inputs = append(inputs, service.SlotInput{
			Day:       s.Day,
			Subject:   s.Subject,
			StartTime: s.StartTime.Time,
			EndTime:   s.EndTime.Time,
		})
	}

	slots, err := h.availability.Create(r.Context(), principal(r), inputs)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, createAvailabilityResponse{
		Message:      "availability added successfully",
		Availability: slots,
	})
}

// ListAvailability handles GET /api/tutors/availability
// Students may narrow the listing with ?subject= and ?active=true.
func (h *Handler) ListAvailability(w http.ResponseWriter, r *http.Request) {
	filter := repository.AvailabilityFilter{Subject: r.URL.Query().Get("subject")}
	if v := r.URL.Query().Get("active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "active must be true or false")
			return
		}
		filter.ActiveOnly = active
	}

	slots, err := h.availability.List(r.Context(), principal(r), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, slots)
}

// UpdateAvailability handles PATCH /api/tutors/availability/{id}
func (h *Handler) UpdateAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateAvailabilityRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	res, err := h.availability.Update(r.Context(), principal(r), id, service.SlotUpdate{
		Subject:    req.Subject,
		StartTime:  req.StartTime.ptr(),
		EndTime:    req.EndTime.ptr(),
		IsActive:   req.IsActive,
		DisableDay: req.DisableDay,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if res.Slot == nil {
		writeJSON(w, http.StatusOK, disableDayResponse{
			Message:       fmt.Sprintf("all slots on %s disabled", res.DisabledDay),
			Day:           res.DisabledDay,
			DisabledSlots: res.DisabledSlots,
		})
		return
	}

	writeJSON(w, http.StatusOK, res.Slot)
}

// DeleteAvailability handles DELETE /api/tutors/availability/{id}
func (h *Handler) DeleteAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.availability.Delete(r.Context(), principal(r), id); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "availability deleted successfully"})
}
