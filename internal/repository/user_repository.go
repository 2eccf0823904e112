package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, username, email, password_hash, role, subjects, grade_level, telegram_chat_id, created_at, updated_at`

type UserRepository struct {
	*base.Repository
}

func NewUserRepository(db *base.Repository) *UserRepository {
	return &UserRepository{Repository: db}
}

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.Subjects,
		&user.GradeLevel,
		&user.TelegramChatID,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create создаёт нового пользователя
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, name, username, email, password_hash, role, subjects, grade_level, telegram_chat_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		user.ID,
		user.Name,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		nonNilStrings(user.Subjects),
		user.GradeLevel,
		user.TelegramChatID,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return model.ErrDuplicate
		}
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return user, nil
}

// GetByTelegramChatID находит пользователя по привязанному чату
func (r *UserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_chat_id = $1`

	user, err := scanUser(r.QueryRow(ctx, query, chatID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by telegram chat: %w", err)
	}

	return user, nil
}

// GetByIDs получает пользователей по списку ID
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.User, error) {
	if len(ids) == 0 {
		return []*model.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1) ORDER BY name`

	rows, err := r.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get users by ids: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return users, nil
}

// Update обновляет данные пользователя
func (r *UserRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, username = $2, email = $3, subjects = $4, grade_level = $5, telegram_chat_id = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		user.Name,
		user.Username,
		user.Email,
		nonNilStrings(user.Subjects),
		user.GradeLevel,
		user.TelegramChatID,
		user.ID,
	).Scan(&user.UpdatedAt)

	if err != nil {
		if base.IsUniqueViolation(err) {
			return model.ErrDuplicate
		}
		if base.IsNotFound(err) {
			return fmt.Errorf("user not found")
		}
		return fmt.Errorf("update user: %w", err)
	}

	return nil
}

// UpdatePassword сохраняет новый хеш пароля
func (r *UserRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2`,
		hash, id,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user not found")
	}
	return nil
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
