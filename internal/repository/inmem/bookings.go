package inmem

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
)

type BookingRepository struct {
	db *DB
}

func copyBooking(b model.Booking) *model.Booking {
	if b.AvailabilityID != nil {
		id := *b.AvailabilityID
		b.AvailabilityID = &id
	}
	return &b
}

func (r *BookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.bookings[booking.ID]; ok {
		return model.ErrDuplicate
	}

	now := r.db.now()
	booking.CreatedAt, booking.UpdatedAt = now, now
	r.db.bookings[booking.ID] = *copyBooking(*booking)
	return nil
}

func (r *BookingRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Booking, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	b, ok := r.db.bookings[id]
	if !ok {
		return nil, nil
	}
	return copyBooking(b), nil
}

func (r *BookingRepository) filter(keep func(*model.Booking) bool) []*model.Booking {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	bookings := []*model.Booking{}
	for _, b := range r.db.bookings {
		if c := copyBooking(b); keep(c) {
			bookings = append(bookings, c)
		}
	}
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].BookingTime.Before(bookings[j].BookingTime) })
	return bookings
}

func (r *BookingRepository) ListByStudent(_ context.Context, studentID uuid.UUID) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.StudentID == studentID }), nil
}

func (r *BookingRepository) ListByTutor(_ context.Context, tutorID uuid.UUID) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool { return b.TutorID == tutorID }), nil
}

// FindOverlapping returns the tutor's non-cancelled bookings intersecting [start, end).
func (r *BookingRepository) FindOverlapping(_ context.Context, tutorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Booking, error) {
	return r.filter(func(b *model.Booking) bool {
		if b.TutorID != tutorID || b.Status == model.BookingStatusCancelled {
			return false
		}
		if excludeID != nil && b.ID == *excludeID {
			return false
		}
		return b.Overlaps(start, end)
	}), nil
}

func (r *BookingRepository) Update(_ context.Context, booking *model.Booking) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.bookings[booking.ID]
	if !ok {
		return errors.New("booking not found")
	}

	stored.Status = booking.Status
	stored.BookingTime = booking.BookingTime
	stored.Duration = booking.Duration
	stored.UpdatedAt = r.db.now()
	r.db.bookings[booking.ID] = stored

	booking.UpdatedAt = stored.UpdatedAt
	return nil
}
