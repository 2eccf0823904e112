package model

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"   // waiting for the tutor
	BookingStatusConfirmed BookingStatus = "confirmed" // accepted by the tutor
	BookingStatusCompleted BookingStatus = "completed" // session took place
	BookingStatusCancelled BookingStatus = "cancelled" // cancelled by the student
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCompleted || s == BookingStatusCancelled
}

type Booking struct {
	ID             uuid.UUID     `json:"id"`
	StudentID      uuid.UUID     `json:"student"`
	TutorID        uuid.UUID     `json:"tutor"`
	Subject        string        `json:"subject"`
	BookingTime    time.Time     `json:"bookingTime"`
	Duration       int           `json:"duration"` // minutes
	Status         BookingStatus `json:"status"`
	AvailabilityID *uuid.UUID    `json:"availabilityId,omitempty"`
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
}

func (b *Booking) EndTime() time.Time {
	return b.BookingTime.Add(time.Duration(b.Duration) * time.Minute)
}

// Overlaps reports whether the booking intersects [start, end).
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.BookingTime.Before(end) && b.EndTime().After(start)
}

// CalendarEvent is the calendar-friendly projection of a booking.
type CalendarEvent struct {
	ID            uuid.UUID      `json:"id"`
	Title         string         `json:"title"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	ExtendedProps map[string]any `json:"extendedProps"`
}
