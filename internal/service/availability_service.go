package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/events"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SlotInput is one entry of an availability batch.
type SlotInput struct {
	Day       string
	Subject   string
	StartTime time.Time
	EndTime   time.Time
}

// SlotUpdate holds the optional fields of an availability edit.
// DisableDay deactivates every slot of the slot's day and ignores the rest.
type SlotUpdate struct {
	Subject    *string
	StartTime  *time.Time
	EndTime    *time.Time
	IsActive   *bool
	DisableDay bool
}

// SlotUpdateResult is either the edited slot or the number of slots disabled.
type SlotUpdateResult struct {
	Slot          *model.AvailabilitySlot
	DisabledDay   string
	DisabledSlots int64
}

type AvailabilityService struct {
	tx        TxManager
	slots     AvailabilityRepository
	bookings  BookingRepository
	users     UserRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewAvailabilityService(
	tx TxManager,
	slots AvailabilityRepository,
	bookings BookingRepository,
	users UserRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *AvailabilityService {
	return &AvailabilityService{
		tx:        tx,
		slots:     slots,
		bookings:  bookings,
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock replaces the time source used for past-time checks.
func (s *AvailabilityService) WithClock(now func() time.Time) *AvailabilityService {
	s.now = now
	return s
}

// Create validates the whole batch against the tutor's existing schedule and
// then stores it. Nothing is written if any slot is rejected.
func (s *AvailabilityService) Create(ctx context.Context, p auth.Principal, inputs []SlotInput) ([]*model.AvailabilitySlot, error) {
	if !p.IsTutor() {
		return nil, forbiddenError("only tutors can add availability")
	}
	if len(inputs) == 0 {
		return nil, validationError("availability must contain at least one slot")
	}

	now := s.now()
	var created []*model.AvailabilitySlot

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.tx.LockTutorSchedule(ctx, p.UserID); err != nil {
			return err
		}

		// day -> existing slots plus the ones accepted earlier in this batch
		schedule := make(map[string][]*model.AvailabilitySlot)
		batch := make([]*model.AvailabilitySlot, 0, len(inputs))

		for _, in := range inputs {
			if _, _, err := model.DayBounds(in.Day); err != nil {
				return validationError("day %q must be formatted as YYYY-MM-DD", in.Day)
			}

			start, end := in.StartTime.UTC(), in.EndTime.UTC()
			if start.Before(now) {
				return validationError("start time for %s cannot be in the past", in.Subject)
			}
			if !end.After(start) {
				return validationError("end time for %s must be after start time", in.Subject)
			}
			if start.Format(model.DayLayout) != in.Day {
				return validationError("start time for %s must fall on %s", in.Subject, in.Day)
			}

			daySlots, ok := schedule[in.Day]
			if !ok {
				existing, err := s.slots.ListByTutorDay(ctx, p.UserID, in.Day)
				if err != nil {
					return fmt.Errorf("get day schedule: %w", err)
				}
				daySlots = existing
			}

			if latest := latestStarting(daySlots); latest != nil && start.Before(latest.EndTime) {
				return validationError("the start time for %s must be after %s",
					in.Subject, latest.EndTime.Format(time.RFC3339))
			}

			slot := &model.AvailabilitySlot{
				ID:        uuid.New(),
				TutorID:   p.UserID,
				Day:       in.Day,
				Subject:   in.Subject,
				StartTime: start,
				EndTime:   end,
				Duration:  model.DurationMinutes(start, end),
				IsActive:  true,
			}
			schedule[in.Day] = append(daySlots, slot)
			batch = append(batch, slot)
		}

		for _, slot := range batch {
			if err := s.slots.Create(ctx, slot); err != nil {
				return err
			}
		}

		created = batch
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Availability created",
		zap.String("tutor_id", p.UserID.String()),
		zap.Int("slots", len(created)))

	if err := s.publisher.PublishAvailabilityCreated(ctx, events.NewAvailabilityCreatedEvent(p.UserID, created, now)); err != nil {
		s.logger.Warn("Failed to publish availability event", zap.Error(err))
	}

	return created, nil
}

// latestStarting returns the slot with the greatest start time.
func latestStarting(slots []*model.AvailabilitySlot) *model.AvailabilitySlot {
	var latest *model.AvailabilitySlot
	for _, slot := range slots {
		if latest == nil || slot.StartTime.After(latest.StartTime) {
			latest = slot
		}
	}
	return latest
}

// List returns the tutor's own slots, or for a student every slot in the
// system with the owning tutor's public profile attached.
func (s *AvailabilityService) List(ctx context.Context, p auth.Principal, filter repository.AvailabilityFilter) ([]*model.AvailabilitySlot, error) {
	if p.IsTutor() {
		slots, err := s.slots.ListByTutor(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("get tutor slots: %w", err)
		}
		return slots, nil
	}

	slots, err := s.slots.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	if len(slots) == 0 {
		return slots, nil
	}

	tutorIDs := make([]uuid.UUID, 0)
	seen := make(map[uuid.UUID]bool)
	for _, slot := range slots {
		if !seen[slot.TutorID] {
			seen[slot.TutorID] = true
			tutorIDs = append(tutorIDs, slot.TutorID)
		}
	}

	tutors, err := s.users.GetByIDs(ctx, tutorIDs)
	if err != nil {
		return nil, fmt.Errorf("get tutors: %w", err)
	}

	profiles := make(map[uuid.UUID]*model.TutorProfile, len(tutors))
	for _, t := range tutors {
		profiles[t.ID] = t.PublicProfile()
	}
	for _, slot := range slots {
		slot.TutorProfile = profiles[slot.TutorID]
	}

	return slots, nil
}

// loadOwnedSlot enforces tutor role and ownership and refuses slots that
// already have a live booking inside them.
func (s *AvailabilityService) loadOwnedSlot(ctx context.Context, p auth.Principal, id uuid.UUID, action string) (*model.AvailabilitySlot, error) {
	if !p.IsTutor() {
		return nil, forbiddenError("only tutors can %s availability", action)
	}

	slot, err := s.slots.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}
	if slot == nil {
		return nil, notFoundError("availability not found")
	}
	if slot.TutorID != p.UserID {
		return nil, forbiddenError("you can only %s your own availability", action)
	}

	return slot, nil
}

func (s *AvailabilityService) hasBookings(ctx context.Context, tutorID uuid.UUID, start, end time.Time) (bool, error) {
	booked, err := s.bookings.FindOverlapping(ctx, tutorID, start, end, nil)
	if err != nil {
		return false, fmt.Errorf("find bookings: %w", err)
	}
	return len(booked) > 0, nil
}

// Update edits one slot, or with DisableDay deactivates the slot's whole day.
func (s *AvailabilityService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, upd SlotUpdate) (*SlotUpdateResult, error) {
	var result SlotUpdateResult

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		slot, err := s.loadOwnedSlot(ctx, p, id, "update")
		if err != nil {
			return err
		}
		if err := s.tx.LockTutorSchedule(ctx, slot.TutorID); err != nil {
			return err
		}

		booked, err := s.hasBookings(ctx, slot.TutorID, slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}
		if booked {
			return conflictError("cannot modify availability with existing bookings")
		}

		if upd.DisableDay {
			dayStart, dayEnd, err := model.DayBounds(slot.Day)
			if err != nil {
				return fmt.Errorf("parse slot day: %w", err)
			}
			booked, err := s.hasBookings(ctx, slot.TutorID, dayStart, dayEnd)
			if err != nil {
				return err
			}
			if booked {
				return conflictError("cannot disable a day with existing bookings")
			}

			n, err := s.slots.SetActiveForDay(ctx, slot.TutorID, slot.Day, false)
			if err != nil {
				return err
			}
			result.DisabledDay = slot.Day
			result.DisabledSlots = n
			return nil
		}

		if upd.Subject != nil {
			slot.Subject = *upd.Subject
		}
		if upd.StartTime != nil {
			start := upd.StartTime.UTC()
			if start.Before(s.now()) {
				return validationError("start time cannot be in the past")
			}
			if start.Format(model.DayLayout) != slot.Day {
				return validationError("start time must fall on %s", slot.Day)
			}
			slot.StartTime = start
		}
		if upd.EndTime != nil {
			slot.EndTime = upd.EndTime.UTC()
		}
		if !slot.EndTime.After(slot.StartTime) {
			return validationError("end time must be after start time")
		}
		if upd.IsActive != nil {
			slot.IsActive = *upd.IsActive
		}
		slot.Duration = model.DurationMinutes(slot.StartTime, slot.EndTime)

		if err := s.slots.Update(ctx, slot); err != nil {
			return err
		}
		result.Slot = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Slot != nil {
		s.logger.Info("Availability updated", zap.String("slot_id", id.String()))
	} else {
		s.logger.Info("Availability day disabled",
			zap.String("tutor_id", p.UserID.String()),
			zap.String("day", result.DisabledDay),
			zap.Int64("slots", result.DisabledSlots))
	}

	return &result, nil
}

// Delete removes a slot nobody has booked into.
func (s *AvailabilityService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		slot, err := s.loadOwnedSlot(ctx, p, id, "delete")
		if err != nil {
			return err
		}
		if err := s.tx.LockTutorSchedule(ctx, slot.TutorID); err != nil {
			return err
		}

		booked, err := s.hasBookings(ctx, slot.TutorID, slot.StartTime, slot.EndTime)
		if err != nil {
			return err
		}
		if booked {
			return conflictError("cannot delete availability with existing bookings")
		}

		return s.slots.Delete(ctx, slot.ID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("Availability deleted", zap.String("slot_id", id.String()))
	return nil
}

// ExpirePastSlots deactivates every slot that has already ended.
func (s *AvailabilityService) ExpirePastSlots(ctx context.Context) (int64, error) {
	n, err := s.slots.DeactivateEndedBefore(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Expired past availability", zap.Int64("slots", n))
	}
	return n, nil
}
