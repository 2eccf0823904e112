package inmem

import (
	"context"
	"errors"
	"slices"
	"sort"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
)

var errGroupNotFound = errors.New("study group not found")

type StudyGroupRepository struct {
	db *DB
}

func copyGroup(g model.StudyGroup) *model.StudyGroup {
	g.Participants = slices.Clone(g.Participants)
	if g.Participants == nil {
		g.Participants = []uuid.UUID{}
	}
	return &g
}

func (r *StudyGroupRepository) Create(_ context.Context, group *model.StudyGroup) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.groups[group.ID]; ok {
		return model.ErrDuplicate
	}

	now := r.db.now()
	group.CreatedAt, group.UpdatedAt = now, now
	r.db.groups[group.ID] = *copyGroup(*group)
	return nil
}

func (r *StudyGroupRepository) GetByID(_ context.Context, id uuid.UUID) (*model.StudyGroup, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	g, ok := r.db.groups[id]
	if !ok {
		return nil, nil
	}
	return copyGroup(g), nil
}

func (r *StudyGroupRepository) List(_ context.Context) ([]*model.StudyGroup, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	groups := []*model.StudyGroup{}
	for _, g := range r.db.groups {
		groups = append(groups, copyGroup(g))
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Date != groups[j].Date {
			return groups[i].Date < groups[j].Date
		}
		return groups[i].Time < groups[j].Time
	})
	return groups, nil
}

func (r *StudyGroupRepository) ListIDsByParticipant(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	var joined []*model.StudyGroup
	for _, g := range r.db.groups {
		if slices.Contains(g.Participants, userID) {
			joined = append(joined, copyGroup(g))
		}
	}
	sort.Slice(joined, func(i, j int) bool { return joined[i].CreatedAt.Before(joined[j].CreatedAt) })

	ids := make([]uuid.UUID, 0, len(joined))
	for _, g := range joined {
		ids = append(ids, g.ID)
	}
	return ids, nil
}

func (r *StudyGroupRepository) Update(_ context.Context, group *model.StudyGroup) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.groups[group.ID]
	if !ok {
		return errGroupNotFound
	}

	stored.Title = group.Title
	stored.Subject = group.Subject
	stored.Description = group.Description
	stored.Date = group.Date
	stored.Time = group.Time
	stored.Duration = group.Duration
	stored.UpdatedAt = r.db.now()
	r.db.groups[group.ID] = stored

	group.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *StudyGroupRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.groups[id]; !ok {
		return errGroupNotFound
	}
	delete(r.db.groups, id)
	return nil
}

// AddParticipant is used to seed membership; joining is not exposed over HTTP.
func (r *StudyGroupRepository) AddParticipant(_ context.Context, groupID, userID uuid.UUID) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	g, ok := r.db.groups[groupID]
	if !ok {
		return errGroupNotFound
	}
	if !slices.Contains(g.Participants, userID) {
		g.Participants = append(slices.Clone(g.Participants), userID)
		r.db.groups[groupID] = g
	}
	return nil
}
