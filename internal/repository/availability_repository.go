package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const availabilityColumns = `id, tutor_id, day, subject, start_time, end_time, duration_minutes, is_active, created_at, updated_at`

// AvailabilityFilter narrows the system-wide slot listing.
type AvailabilityFilter struct {
	Subject    string
	ActiveOnly bool
}

type AvailabilityRepository struct {
	*base.Repository
}

func NewAvailabilityRepository(db *base.Repository) *AvailabilityRepository {
	return &AvailabilityRepository{Repository: db}
}

func scanSlot(row pgx.Row) (*model.AvailabilitySlot, error) {
	var slot model.AvailabilitySlot
	err := row.Scan(
		&slot.ID,
		&slot.TutorID,
		&slot.Day,
		&slot.Subject,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Duration,
		&slot.IsActive,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	slot.StartTime = slot.StartTime.UTC()
	slot.EndTime = slot.EndTime.UTC()
	return &slot, nil
}

func (r *AvailabilityRepository) collect(rows pgx.Rows) ([]*model.AvailabilitySlot, error) {
	defer rows.Close()

	slots := []*model.AvailabilitySlot{}
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate slots: %w", err)
	}
	return slots, nil
}

// Create создаёт новый слот
func (r *AvailabilityRepository) Create(ctx context.Context, slot *model.AvailabilitySlot) error {
	query := `
		INSERT INTO availability (id, tutor_id, day, subject, start_time, end_time, duration_minutes, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.ID,
		slot.TutorID,
		slot.Day,
		slot.Subject,
		slot.StartTime,
		slot.EndTime,
		slot.Duration,
		slot.IsActive,
	).Scan(&slot.CreatedAt, &slot.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID получает слот по ID
func (r *AvailabilityRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AvailabilitySlot, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE id = $1`

	slot, err := scanSlot(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// ListByTutor получает все слоты учителя
func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.AvailabilitySlot, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE tutor_id = $1 ORDER BY start_time`

	rows, err := r.Query(ctx, query, tutorID)
	if err != nil {
		return nil, fmt.Errorf("get slots by tutor: %w", err)
	}
	return r.collect(rows)
}

// ListByTutorDay returns the tutor's slots of one calendar day ordered by start.
func (r *AvailabilityRepository) ListByTutorDay(ctx context.Context, tutorID uuid.UUID, day string) ([]*model.AvailabilitySlot, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availability WHERE tutor_id = $1 AND day = $2 ORDER BY start_time`

	rows, err := r.Query(ctx, query, tutorID, day)
	if err != nil {
		return nil, fmt.Errorf("get slots by tutor day: %w", err)
	}
	return r.collect(rows)
}

// List returns slots of every tutor.
func (r *AvailabilityRepository) List(ctx context.Context, filter AvailabilityFilter) ([]*model.AvailabilitySlot, error) {
	query := `
		SELECT ` + availabilityColumns + `
		FROM availability
		WHERE ($1 = '' OR subject = $1)
		  AND (NOT $2 OR is_active)
		ORDER BY start_time
	`

	rows, err := r.Query(ctx, query, filter.Subject, filter.ActiveOnly)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return r.collect(rows)
}

// Update сохраняет изменённые поля слота
func (r *AvailabilityRepository) Update(ctx context.Context, slot *model.AvailabilitySlot) error {
	query := `
		UPDATE availability
		SET subject = $1, start_time = $2, end_time = $3, duration_minutes = $4, is_active = $5, updated_at = now()
		WHERE id = $6
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		slot.Subject,
		slot.StartTime,
		slot.EndTime,
		slot.Duration,
		slot.IsActive,
		slot.ID,
	).Scan(&slot.UpdatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("slot not found")
		}
		return fmt.Errorf("update slot: %w", err)
	}

	return nil
}

// SetActiveForDay flips is_active on every slot of the tutor for the day.
func (r *AvailabilityRepository) SetActiveForDay(ctx context.Context, tutorID uuid.UUID, day string, active bool) (int64, error) {
	query := `
		UPDATE availability
		SET is_active = $1, updated_at = now()
		WHERE tutor_id = $2 AND day = $3
	`

	affected, err := r.ExecAffected(ctx, query, active, tutorID, day)
	if err != nil {
		return 0, fmt.Errorf("set day active: %w", err)
	}
	return affected, nil
}

// SetActive обновляет активность слота
func (r *AvailabilityRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE availability SET is_active = $1, updated_at = now() WHERE id = $2`

	affected, err := r.ExecAffected(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("set slot active: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// Delete удаляет слот
func (r *AvailabilityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM availability WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("slot not found")
	}

	return nil
}

// DeactivateEndedBefore marks every still active slot that ended before t.
func (r *AvailabilityRepository) DeactivateEndedBefore(ctx context.Context, t time.Time) (int64, error) {
	query := `
		UPDATE availability
		SET is_active = false, updated_at = now()
		WHERE is_active AND end_time < $1
	`

	affected, err := r.ExecAffected(ctx, query, t)
	if err != nil {
		return 0, fmt.Errorf("deactivate ended slots: %w", err)
	}
	return affected, nil
}
