package inmem

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository"
	"github.com/google/uuid"
)

var errSlotNotFound = errors.New("slot not found")

type AvailabilityRepository struct {
	db *DB
}

func (r *AvailabilityRepository) Create(_ context.Context, slot *model.AvailabilitySlot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.slots[slot.ID]; ok {
		return model.ErrDuplicate
	}

	now := r.db.now()
	slot.CreatedAt, slot.UpdatedAt = now, now
	stored := *slot
	stored.TutorProfile = nil
	r.db.slots[slot.ID] = stored
	return nil
}

func (r *AvailabilityRepository) GetByID(_ context.Context, id uuid.UUID) (*model.AvailabilitySlot, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	slot, ok := r.db.slots[id]
	if !ok {
		return nil, nil
	}
	return &slot, nil
}

func (r *AvailabilityRepository) filter(keep func(model.AvailabilitySlot) bool) []*model.AvailabilitySlot {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	slots := []*model.AvailabilitySlot{}
	for _, slot := range r.db.slots {
		if keep(slot) {
			slot := slot
			slots = append(slots, &slot)
		}
	}
	sort.Slice(slots, func(i, j int) bool { return slots[i].StartTime.Before(slots[j].StartTime) })
	return slots
}

func (r *AvailabilityRepository) ListByTutor(_ context.Context, tutorID uuid.UUID) ([]*model.AvailabilitySlot, error) {
	return r.filter(func(s model.AvailabilitySlot) bool { return s.TutorID == tutorID }), nil
}

func (r *AvailabilityRepository) ListByTutorDay(_ context.Context, tutorID uuid.UUID, day string) ([]*model.AvailabilitySlot, error) {
	return r.filter(func(s model.AvailabilitySlot) bool { return s.TutorID == tutorID && s.Day == day }), nil
}

func (r *AvailabilityRepository) List(_ context.Context, f repository.AvailabilityFilter) ([]*model.AvailabilitySlot, error) {
	return r.filter(func(s model.AvailabilitySlot) bool {
		return (f.Subject == "" || s.Subject == f.Subject) && (!f.ActiveOnly || s.IsActive)
	}), nil
}

func (r *AvailabilityRepository) Update(_ context.Context, slot *model.AvailabilitySlot) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.slots[slot.ID]
	if !ok {
		return errSlotNotFound
	}

	stored.Subject = slot.Subject
	stored.StartTime = slot.StartTime
	stored.EndTime = slot.EndTime
	stored.Duration = slot.Duration
	stored.IsActive = slot.IsActive
	stored.UpdatedAt = r.db.now()
	r.db.slots[slot.ID] = stored

	slot.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *AvailabilityRepository) SetActiveForDay(_ context.Context, tutorID uuid.UUID, day string, active bool) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	now := r.db.now()
	for id, slot := range r.db.slots {
		if slot.TutorID == tutorID && slot.Day == day {
			slot.IsActive = active
			slot.UpdatedAt = now
			r.db.slots[id] = slot
			n++
		}
	}
	return n, nil
}

func (r *AvailabilityRepository) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	slot, ok := r.db.slots[id]
	if !ok {
		return errSlotNotFound
	}
	slot.IsActive = active
	slot.UpdatedAt = r.db.now()
	r.db.slots[id] = slot
	return nil
}

func (r *AvailabilityRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.slots[id]; !ok {
		return errSlotNotFound
	}
	delete(r.db.slots, id)

	// mirrors ON DELETE SET NULL
	for bid, b := range r.db.bookings {
		if b.AvailabilityID != nil && *b.AvailabilityID == id {
			b.AvailabilityID = nil
			r.db.bookings[bid] = b
		}
	}
	return nil
}

func (r *AvailabilityRepository) DeactivateEndedBefore(_ context.Context, t time.Time) (int64, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	var n int64
	now := r.db.now()
	for id, slot := range r.db.slots {
		if slot.IsActive && slot.EndTime.Before(t) {
			slot.IsActive = false
			slot.UpdatedAt = now
			r.db.slots[id] = slot
			n++
		}
	}
	return n, nil
}
