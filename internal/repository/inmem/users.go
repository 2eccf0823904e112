package inmem

import (
	"context"
	"errors"
	"slices"
	"sort"
	"strings"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
)

type UserRepository struct {
	db *DB
}

func copyUser(u model.User) *model.User {
	u.Subjects = slices.Clone(u.Subjects)
	if u.TelegramChatID != nil {
		id := *u.TelegramChatID
		u.TelegramChatID = &id
	}
	u.TutoringAvailability = nil
	u.JoinedStudyGroups = nil
	return &u
}

// taken reports whether another user already owns the username, email or chat.
func (r *UserRepository) taken(u *model.User) bool {
	for id, other := range r.db.users {
		if id == u.ID {
			continue
		}
		if strings.EqualFold(other.Username, u.Username) || strings.EqualFold(other.Email, u.Email) {
			return true
		}
		if u.TelegramChatID != nil && other.TelegramChatID != nil && *u.TelegramChatID == *other.TelegramChatID {
			return true
		}
	}
	return false
}

func (r *UserRepository) Create(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, ok := r.db.users[user.ID]; ok || r.taken(user) {
		return model.ErrDuplicate
	}

	now := r.db.now()
	user.CreatedAt, user.UpdatedAt = now, now
	r.db.users[user.ID] = *copyUser(*user)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, nil
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByTelegramChatID(_ context.Context, chatID int64) (*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	for _, u := range r.db.users {
		if u.TelegramChatID != nil && *u.TelegramChatID == chatID {
			return copyUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepository) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*model.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	users := []*model.User{}
	seen := make(map[uuid.UUID]bool)
	for _, id := range ids {
		if u, ok := r.db.users[id]; ok && !seen[id] {
			seen[id] = true
			users = append(users, copyUser(u))
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Name < users[j].Name })
	return users, nil
}

func (r *UserRepository) Update(_ context.Context, user *model.User) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.users[user.ID]
	if !ok {
		return errors.New("user not found")
	}
	if r.taken(user) {
		return model.ErrDuplicate
	}

	user.CreatedAt = stored.CreatedAt
	user.UpdatedAt = r.db.now()
	user.PasswordHash = stored.PasswordHash
	user.Role = stored.Role
	r.db.users[user.ID] = *copyUser(*user)
	return nil
}

func (r *UserRepository) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	stored, ok := r.db.users[id]
	if !ok {
		return errors.New("user not found")
	}
	stored.PasswordHash = hash
	stored.UpdatedAt = r.db.now()
	r.db.users[id] = stored
	return nil
}
