package handler

import (
	"net/http"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/google/uuid"
)

type createBookingRequest struct {
	Tutor          uuid.UUID  `json:"tutor" validate:"required"`
	Subject        string     `json:"subject" validate:"required,max=100"`
	BookingTime    timestamp  `json:"bookingTime" validate:"required"`
	Duration       int        `json:"duration" validate:"required,gt=0"`
	AvailabilityID *uuid.UUID `json:"availabilityId"`
}

type updateBookingRequest struct {
	Status      *model.BookingStatus `json:"status"`
	BookingTime *timestamp           `json:"bookingTime"`
	Duration    *int                 `json:"duration"`
}

// CreateBooking handles POST /api/bookings
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.bookings.Create(r.Context(), principal(r), service.BookingInput{
		TutorID:        req.Tutor,
		Subject:        req.Subject,
		BookingTime:    req.BookingTime.Time,
		Duration:       req.Duration,
		AvailabilityID: req.AvailabilityID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// ListTutorBookings handles GET /api/bookings/tutor
func (h *Handler) ListTutorBookings(w http.ResponseWriter, r *http.Request) {
	calendar, err := h.bookings.ListForTutor(r.Context(), principal(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar)
}

// ListStudentBookings handles GET /api/bookings/student
func (h *Handler) ListStudentBookings(w http.ResponseWriter, r *http.Request) {
	calendar, err := h.bookings.ListForStudent(r.Context(), principal(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, calendar)
}

// UpdateBooking handles PATCH /api/bookings/{id}
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req updateBookingRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	booking, err := h.bookings.Update(r.Context(), principal(r), id, service.BookingUpdate{
		Status:      req.Status,
		BookingTime: req.BookingTime.ptr(),
		Duration:    req.Duration,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, booking)
}
