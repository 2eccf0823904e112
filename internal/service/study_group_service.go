package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const groupTimeLayout = "15:04"

type StudyGroupInput struct {
	Title       string
	Subject     string
	Description string
	Date        string
	Time        string
	Duration    int
}

type StudyGroupUpdate struct {
	Title       *string
	Subject     *string
	Description *string
	Date        *string
	Time        *string
	Duration    *int
}

type StudyGroupService struct {
	groups StudyGroupRepository
	logger *zap.Logger
}

func NewStudyGroupService(groups StudyGroupRepository, logger *zap.Logger) *StudyGroupService {
	return &StudyGroupService{groups: groups, logger: logger}
}

func validateMeeting(date, clock string, duration int) error {
	if _, err := time.Parse(model.DayLayout, date); err != nil {
		return validationError("date must be formatted as YYYY-MM-DD")
	}
	if _, err := time.Parse(groupTimeLayout, clock); err != nil {
		return validationError("time must be formatted as HH:MM")
	}
	if duration <= 0 {
		return validationError("duration must be a positive number of minutes")
	}
	return nil
}

// Create opens a study group with the creator as its first participant.
func (s *StudyGroupService) Create(ctx context.Context, p auth.Principal, in StudyGroupInput) (*model.StudyGroup, error) {
	if !p.IsStudent() {
		return nil, forbiddenError("only students can create study groups")
	}
	if err := validateMeeting(in.Date, in.Time, in.Duration); err != nil {
		return nil, err
	}

	group := &model.StudyGroup{
		ID:           uuid.New(),
		Title:        in.Title,
		Subject:      in.Subject,
		Description:  in.Description,
		Date:         in.Date,
		Time:         in.Time,
		Duration:     in.Duration,
		CreatorID:    p.UserID,
		Participants: []uuid.UUID{p.UserID},
	}

	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("Study group created",
		zap.String("group_id", group.ID.String()),
		zap.String("creator_id", p.UserID.String()))

	return group, nil
}

func (s *StudyGroupService) List(ctx context.Context) ([]*model.StudyGroup, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list study groups: %w", err)
	}
	return groups, nil
}

func (s *StudyGroupService) Get(ctx context.Context, id uuid.UUID) (*model.StudyGroup, error) {
	group, err := s.groups.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get study group: %w", err)
	}
	if group == nil {
		return nil, notFoundError("study group not found")
	}
	return group, nil
}

func (s *StudyGroupService) loadOwned(ctx context.Context, p auth.Principal, id uuid.UUID, action string) (*model.StudyGroup, error) {
	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.CreatorID != p.UserID {
		return nil, forbiddenError("only the creator can %s this study group", action)
	}
	return group, nil
}

// Update edits a group. Once others have joined, the meeting itself
// (subject, date, time) is frozen.
func (s *StudyGroupService) Update(ctx context.Context, p auth.Principal, id uuid.UUID, upd StudyGroupUpdate) (*model.StudyGroup, error) {
	group, err := s.loadOwned(ctx, p, id, "update")
	if err != nil {
		return nil, err
	}

	changesMeeting := (upd.Subject != nil && *upd.Subject != group.Subject) ||
		(upd.Date != nil && *upd.Date != group.Date) ||
		(upd.Time != nil && *upd.Time != group.Time)
	if changesMeeting && group.HasOtherParticipants() {
		return nil, conflictError("cannot change subject, date, or time once other participants have joined")
	}

	if upd.Title != nil {
		group.Title = *upd.Title
	}
	if upd.Subject != nil {
		group.Subject = *upd.Subject
	}
	if upd.Description != nil {
		group.Description = *upd.Description
	}
	if upd.Date != nil {
		group.Date = *upd.Date
	}
	if upd.Time != nil {
		group.Time = *upd.Time
	}
	if upd.Duration != nil {
		group.Duration = *upd.Duration
	}
	if err := validateMeeting(group.Date, group.Time, group.Duration); err != nil {
		return nil, err
	}

	if err := s.groups.Update(ctx, group); err != nil {
		return nil, err
	}

	s.logger.Info("Study group updated", zap.String("group_id", id.String()))
	return group, nil
}

// Delete removes a group that nobody else has joined.
func (s *StudyGroupService) Delete(ctx context.Context, p auth.Principal, id uuid.UUID) error {
	group, err := s.loadOwned(ctx, p, id, "delete")
	if err != nil {
		return err
	}
	if group.HasOtherParticipants() {
		return conflictError("cannot delete a study group with other participants")
	}

	if err := s.groups.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Study group deleted", zap.String("group_id", id.String()))
	return nil
}
