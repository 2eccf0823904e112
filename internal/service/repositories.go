package service

import (
	"context"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository"
	"github.com/google/uuid"
)

// TxManager runs fn atomically. LockTutorSchedule serialises schedule writes
// for one tutor until the surrounding transaction ends.
type TxManager interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockTutorSchedule(ctx context.Context, tutorID uuid.UUID) error
}

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error)
	GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
}

type AvailabilityRepository interface {
	Create(ctx context.Context, slot *model.AvailabilitySlot) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySlot, error)
	ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.AvailabilitySlot, error)
	ListByTutorDay(ctx context.Context, tutorID uuid.UUID, day string) ([]*model.AvailabilitySlot, error)
	List(ctx context.Context, filter repository.AvailabilityFilter) ([]*model.AvailabilitySlot, error)
	Update(ctx context.Context, slot *model.AvailabilitySlot) error
	SetActiveForDay(ctx context.Context, tutorID uuid.UUID, day string, active bool) (int64, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeactivateEndedBefore(ctx context.Context, t time.Time) (int64, error)
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Booking, error)
	ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.Booking, error)
	FindOverlapping(ctx context.Context, tutorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Booking, error)
	Update(ctx context.Context, booking *model.Booking) error
}

type StudyGroupRepository interface {
	Create(ctx context.Context, group *model.StudyGroup) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.StudyGroup, error)
	List(ctx context.Context) ([]*model.StudyGroup, error)
	ListIDsByParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Update(ctx context.Context, group *model.StudyGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
}
