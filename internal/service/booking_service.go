package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/events"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingInput struct {
	TutorID        uuid.UUID
	Subject        string
	BookingTime    time.Time
	Duration       int
	AvailabilityID *uuid.UUID
}

// BookingUpdate holds optional changes. Time fields are honoured only for
// students; a tutor may only move the status.
type BookingUpdate struct {
	Status      *model.BookingStatus
	BookingTime *time.Time
	Duration    *int
}

type BookingService struct {
	tx        TxManager
	bookings  BookingRepository
	slots     AvailabilityRepository
	users     UserRepository
	publisher events.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewBookingService(
	tx TxManager,
	bookings BookingRepository,
	slots AvailabilityRepository,
	users UserRepository,
	publisher events.Publisher,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		tx:        tx,
		bookings:  bookings,
		slots:     slots,
		users:     users,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *BookingService) WithClock(now func() time.Time) *BookingService {
	s.now = now
	return s
}

// Create бронирует занятие у репетитора. The booking starts pending; a
// referenced availability slot is consumed.
func (s *BookingService) Create(ctx context.Context, p auth.Principal, in BookingInput) (*model.Booking, error) {
	if !p.IsStudent() {
		return nil, forbiddenError("only students can book tutors")
	}
	if in.Duration <= 0 {
		return nil, validationError("duration must be a positive number of minutes")
	}

	booking := &model.Booking{
		ID:             uuid.New(),
		StudentID:      p.UserID,
		TutorID:        in.TutorID,
		Subject:        in.Subject,
		BookingTime:    in.BookingTime.UTC(),
		Duration:       in.Duration,
		Status:         model.BookingStatusPending,
		AvailabilityID: in.AvailabilityID,
	}

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		tutor, err := s.users.GetByID(ctx, in.TutorID)
		if err != nil {
			return fmt.Errorf("get tutor: %w", err)
		}
		if tutor == nil || !tutor.IsTutor() {
			return notFoundError("tutor not found")
		}

		if err := s.tx.LockTutorSchedule(ctx, in.TutorID); err != nil {
			return err
		}

		if in.AvailabilityID != nil {
			slot, err := s.slots.GetByID(ctx, *in.AvailabilityID)
			if err != nil {
				return fmt.Errorf("get slot: %w", err)
			}
			if slot == nil {
				return notFoundError("availability not found")
			}
			if slot.TutorID != in.TutorID {
				return validationError("availability does not belong to this tutor")
			}
			if !slot.IsActive {
				return conflictError("this availability is no longer open for booking")
			}
		}

		overlapping, err := s.bookings.FindOverlapping(ctx, in.TutorID, booking.BookingTime, booking.EndTime(), nil)
		if err != nil {
			return fmt.Errorf("find overlapping bookings: %w", err)
		}
		if len(overlapping) > 0 {
			return conflictError("this time slot is already booked for the tutor")
		}

		if err := s.bookings.Create(ctx, booking); err != nil {
			return err
		}

		if in.AvailabilityID != nil {
			if err := s.slots.SetActive(ctx, *in.AvailabilityID, false); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("student_id", booking.StudentID.String()),
		zap.String("tutor_id", booking.TutorID.String()))

	event := events.NewBookingEvent(events.SubjectBookingCreated, booking, "", s.now())
	if err := s.publisher.PublishBookingCreated(ctx, event); err != nil {
		s.logger.Warn("Failed to publish booking event", zap.Error(err))
	}

	return booking, nil
}

// ListForTutor returns the tutor's bookings as calendar events.
func (s *BookingService) ListForTutor(ctx context.Context, p auth.Principal) ([]model.CalendarEvent, error) {
	if !p.IsTutor() {
		return nil, forbiddenError("only tutors can view tutor bookings")
	}

	bookings, err := s.bookings.ListByTutor(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("get tutor bookings: %w", err)
	}
	return s.toCalendar(ctx, bookings, "student", func(b *model.Booking) uuid.UUID { return b.StudentID })
}

// ListForStudent returns the student's bookings as calendar events.
func (s *BookingService) ListForStudent(ctx context.Context, p auth.Principal) ([]model.CalendarEvent, error) {
	if !p.IsStudent() {
		return nil, forbiddenError("only students can view student bookings")
	}

	bookings, err := s.bookings.ListByStudent(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("get student bookings: %w", err)
	}
	return s.toCalendar(ctx, bookings, "tutor", func(b *model.Booking) uuid.UUID { return b.TutorID })
}

// toCalendar projects bookings and names the other party under key.
func (s *BookingService) toCalendar(
	ctx context.Context,
	bookings []*model.Booking,
	key string,
	counterpart func(*model.Booking) uuid.UUID,
) ([]model.CalendarEvent, error) {
	ids := make([]uuid.UUID, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, counterpart(b))
	}

	names := make(map[uuid.UUID]string)
	if len(ids) > 0 {
		users, err := s.users.GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("get booking participants: %w", err)
		}
		for _, u := range users {
			names[u.ID] = u.Name
		}
	}

	result := make([]model.CalendarEvent, 0, len(bookings))
	for _, b := range bookings {
		result = append(result, model.CalendarEvent{
			ID:    b.ID,
			Title: fmt.Sprintf("%s - %s", b.Subject, b.Status),
			Start: b.BookingTime,
			End:   b.EndTime(),
			ExtendedProps: map[string]any{
				key:        names[counterpart(b)],
				"status":   b.Status,
				"duration": b.Duration,
			},
		})
	}
	return result, nil
}

// checkTransition enforces who may move a booking to which status.
func checkTransition(p auth.Principal, current, target model.BookingStatus) error {
	switch target {
	case model.BookingStatusConfirmed, model.BookingStatusCompleted, model.BookingStatusCancelled:
	default:
		return validationError("invalid status update: %q", target)
	}

	if p.IsTutor() && target == model.BookingStatusCancelled {
		return forbiddenError("tutors cannot cancel student bookings")
	}
	if p.IsStudent() && target != model.BookingStatusCancelled {
		return forbiddenError("students can only cancel bookings")
	}

	if current.IsTerminal() && current != target {
		return conflictError("booking is already %s", current)
	}
	return nil
}

// Update applies a status transition and, for students, a reschedule.
func (s *BookingService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, upd BookingUpdate) (*model.Booking, error) {
	var (
		booking  *model.Booking
		previous model.BookingStatus
	)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		current, err := s.bookings.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if current == nil {
			return notFoundError("booking not found")
		}
		if current.StudentID != p.UserID && current.TutorID != p.UserID {
			return forbiddenError("you are not a participant of this booking")
		}

		if err := s.tx.LockTutorSchedule(ctx, current.TutorID); err != nil {
			return err
		}
		// re-read under the lock
		if current, err = s.bookings.GetByID(ctx, id); err != nil {
			return fmt.Errorf("get booking: %w", err)
		}
		if current == nil {
			return notFoundError("booking not found")
		}
		previous = current.Status

		if upd.Status != nil {
			if err := checkTransition(p, current.Status, *upd.Status); err != nil {
				return err
			}
		}

		reschedule := p.IsStudent() && (upd.BookingTime != nil || upd.Duration != nil)
		if reschedule {
			if current.Status.IsTerminal() {
				return conflictError("cannot reschedule a %s booking", current.Status)
			}
			if upd.BookingTime != nil {
				current.BookingTime = upd.BookingTime.UTC()
			}
			if upd.Duration != nil {
				if *upd.Duration <= 0 {
					return validationError("duration must be a positive number of minutes")
				}
				current.Duration = *upd.Duration
			}

			overlapping, err := s.bookings.FindOverlapping(ctx, current.TutorID, current.BookingTime, current.EndTime(), &current.ID)
			if err != nil {
				return fmt.Errorf("find overlapping bookings: %w", err)
			}
			if len(overlapping) > 0 {
				return conflictError("this time slot is already booked for the tutor")
			}
		}

		if upd.Status != nil {
			current.Status = *upd.Status
		}

		if err := s.bookings.Update(ctx, current); err != nil {
			return err
		}
		booking = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Booking updated",
		zap.String("booking_id", booking.ID.String()),
		zap.String("status", string(booking.Status)),
		zap.String("previous_status", string(previous)))

	event := events.NewBookingEvent(events.SubjectBookingUpdated, booking, previous, s.now())
	if err := s.publisher.PublishBookingUpdated(ctx, event); err != nil {
		s.logger.Warn("Failed to publish booking event", zap.Error(err))
	}

	return booking, nil
}
