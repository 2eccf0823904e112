// Package events announces schedule changes to other systems after commit.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
)

const (
	SubjectAvailabilityCreated = "availability.created"
	SubjectBookingCreated      = "booking.created"
	SubjectBookingUpdated      = "booking.updated"
)

type Publisher interface {
	PublishAvailabilityCreated(ctx context.Context, event AvailabilityCreatedEvent) error
	PublishBookingCreated(ctx context.Context, event BookingEvent) error
	PublishBookingUpdated(ctx context.Context, event BookingEvent) error
}

type AvailabilityCreatedEvent struct {
	EventType  string      `json:"event_type"`
	TutorID    uuid.UUID   `json:"tutor_id"`
	SlotIDs    []uuid.UUID `json:"slot_ids"`
	Days       []string    `json:"days"`
	OccurredAt time.Time   `json:"occurred_at"`
}

func NewAvailabilityCreatedEvent(tutorID uuid.UUID, slots []*model.AvailabilitySlot, at time.Time) AvailabilityCreatedEvent {
	event := AvailabilityCreatedEvent{
		EventType:  SubjectAvailabilityCreated,
		TutorID:    tutorID,
		SlotIDs:    make([]uuid.UUID, 0, len(slots)),
		OccurredAt: at,
	}
	seen := make(map[string]bool)
	for _, slot := range slots {
		event.SlotIDs = append(event.SlotIDs, slot.ID)
		if !seen[slot.Day] {
			seen[slot.Day] = true
			event.Days = append(event.Days, slot.Day)
		}
	}
	return event
}

type BookingEvent struct {
	EventType      string              `json:"event_type"`
	BookingID      uuid.UUID           `json:"booking_id"`
	StudentID      uuid.UUID           `json:"student_id"`
	TutorID        uuid.UUID           `json:"tutor_id"`
	Subject        string              `json:"subject"`
	BookingTime    time.Time           `json:"booking_time"`
	Duration       int                 `json:"duration"`
	Status         model.BookingStatus `json:"status"`
	PreviousStatus model.BookingStatus `json:"previous_status,omitempty"`
	OccurredAt     time.Time           `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *model.Booking, previous model.BookingStatus, at time.Time) BookingEvent {
	return BookingEvent{
		EventType:      eventType,
		BookingID:      b.ID,
		StudentID:      b.StudentID,
		TutorID:        b.TutorID,
		Subject:        b.Subject,
		BookingTime:    b.BookingTime,
		Duration:       b.Duration,
		Status:         b.Status,
		PreviousStatus: previous,
		OccurredAt:     at,
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishAvailabilityCreated(context.Context, AvailabilityCreatedEvent) error { return nil }
func (Nop) PublishBookingCreated(context.Context, BookingEvent) error                  { return nil }
func (Nop) PublishBookingUpdated(context.Context, BookingEvent) error                  { return nil }

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) PublishAvailabilityCreated(ctx context.Context, event AvailabilityCreatedEvent) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishAvailabilityCreated(ctx, event))
	}
	return errors.Join(errs...)
}

func (m Multi) PublishBookingCreated(ctx context.Context, event BookingEvent) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishBookingCreated(ctx, event))
	}
	return errors.Join(errs...)
}

func (m Multi) PublishBookingUpdated(ctx context.Context, event BookingEvent) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishBookingUpdated(ctx, event))
	}
	return errors.Join(errs...)
}
