package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// RegisterInput describes a new account. Used by seeding and tests; the API
// has no sign-up endpoint.
type RegisterInput struct {
	Name       string
	Username   string
	Email      string
	Password   string
	Role       model.Role
	Subjects   []string
	GradeLevel string
}

// ProfileUpdate holds optional profile changes; nil means unchanged.
type ProfileUpdate struct {
	Name       *string
	Username   *string
	Email      *string
	Subjects   *[]string
	GradeLevel *string
}

type UserService struct {
	users  UserRepository
	slots  AvailabilityRepository
	groups StudyGroupRepository
	logger *zap.Logger
}

func NewUserService(
	users UserRepository,
	slots AvailabilityRepository,
	groups StudyGroupRepository,
	logger *zap.Logger,
) *UserService {
	return &UserService{
		users:  users,
		slots:  slots,
		groups: groups,
		logger: logger,
	}
}

// Register создаёт пользователя с хешированным паролем
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if !in.Role.Valid() {
		return nil, validationError("role must be student or tutor")
	}
	if in.GradeLevel != "" && !model.ValidGradeLevel(in.GradeLevel) {
		return nil, validationError("grade level must be one of %s", strings.Join(model.GradeLevels, ", "))
	}
	if len(in.Password) < minPasswordLength {
		return nil, validationError("password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Username:     in.Username,
		Email:        strings.ToLower(in.Email),
		PasswordHash: string(hash),
		Role:         in.Role,
		Subjects:     in.Subjects,
		GradeLevel:   in.GradeLevel,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, conflictError("email or username already in use")
		}
		return nil, err
	}

	s.logger.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)))

	return user, nil
}

// Get returns a profile with its derived id lists filled in.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("user not found")
	}

	if err := s.fillDerived(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByTelegramChat returns the account linked to a Telegram chat.
func (s *UserService) GetByTelegramChat(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := s.users.GetByTelegramChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get user by telegram chat: %w", err)
	}
	if user == nil {
		return nil, notFoundError("no account is linked to this chat")
	}
	return user, nil
}

func (s *UserService) fillDerived(ctx context.Context, user *model.User) error {
	user.TutoringAvailability = nil
	if user.IsTutor() {
		slots, err := s.slots.ListByTutor(ctx, user.ID)
		if err != nil {
			return fmt.Errorf("get tutor slots: %w", err)
		}
		user.TutoringAvailability = make([]uuid.UUID, 0, len(slots))
		for _, slot := range slots {
			user.TutoringAvailability = append(user.TutoringAvailability, slot.ID)
		}
	}

	groups, err := s.groups.ListIDsByParticipant(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("get joined study groups: %w", err)
	}
	user.JoinedStudyGroups = groups
	return nil
}

// Update changes the caller's own profile.
func (s *UserService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, upd ProfileUpdate) (*model.User, error) {
	if p.UserID != id {
		return nil, forbiddenError("you can only update your own profile")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("user not found")
	}

	if upd.GradeLevel != nil {
		if !model.ValidGradeLevel(*upd.GradeLevel) {
			return nil, validationError("grade level must be one of %s", strings.Join(model.GradeLevels, ", "))
		}
		user.GradeLevel = *upd.GradeLevel
	}
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Username != nil {
		user.Username = *upd.Username
	}
	if upd.Email != nil {
		user.Email = strings.ToLower(*upd.Email)
	}
	if upd.Subjects != nil {
		user.Subjects = *upd.Subjects
	}
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, conflictError("email or username already in use")
		}
		return nil, err
	}

	if err := s.fillDerived(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("Profile updated", zap.String("user_id", id.String()))
	return user, nil
}

// ChangePassword replaces the caller's own password after checking the
// current one.
func (s *UserService) ChangePassword(ctx context.Context, p auth.Principal, id uuid.UUID, current, next string) error {
	if p.UserID != id {
		return forbiddenError("you can only update your own password")
	}
	if len(next) < minPasswordLength {
		return validationError("password must be at least %d characters", minPasswordLength)
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return notFoundError("user not found")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return validationError("current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, id, string(hash)); err != nil {
		return err
	}

	s.logger.Info("Password changed", zap.String("user_id", id.String()))
	return nil
}

// LinkTelegramChat привязывает чат к аккаунту пользователя
func (s *UserService) LinkTelegramChat(ctx context.Context, p auth.Principal, chatID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, notFoundError("user not found")
	}

	user.TelegramChatID = &chatID
	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, model.ErrDuplicate) {
			return nil, conflictError("this chat is already linked to another account")
		}
		return nil, err
	}

	s.logger.Info("Telegram chat linked",
		zap.String("user_id", user.ID.String()),
		zap.Int64("chat_id", chatID))
	return user, nil
}
