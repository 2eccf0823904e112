package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const studyGroupColumns = `
	g.id, g.title, g.subject, g.description, g.meet_date, g.meet_time, g.duration_minutes, g.creator_id,
	COALESCE(ARRAY(SELECT p.user_id FROM study_group_participants p WHERE p.study_group_id = g.id ORDER BY p.joined_at), '{}'),
	g.created_at, g.updated_at`

type StudyGroupRepository struct {
	*base.Repository
}

func NewStudyGroupRepository(db *base.Repository) *StudyGroupRepository {
	return &StudyGroupRepository{Repository: db}
}

func scanStudyGroup(row pgx.Row) (*model.StudyGroup, error) {
	var group model.StudyGroup
	err := row.Scan(
		&group.ID,
		&group.Title,
		&group.Subject,
		&group.Description,
		&group.Date,
		&group.Time,
		&group.Duration,
		&group.CreatorID,
		&group.Participants,
		&group.CreatedAt,
		&group.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// Create inserts the group together with its initial participants.
func (r *StudyGroupRepository) Create(ctx context.Context, group *model.StudyGroup) error {
	return r.InTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO study_groups (id, title, subject, description, meet_date, meet_time, duration_minutes, creator_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING created_at, updated_at
		`

		err := r.QueryRow(
			ctx, query,
			group.ID,
			group.Title,
			group.Subject,
			group.Description,
			group.Date,
			group.Time,
			group.Duration,
			group.CreatorID,
		).Scan(&group.CreatedAt, &group.UpdatedAt)
		if err != nil {
			return fmt.Errorf("create study group: %w", err)
		}

		for _, userID := range group.Participants {
			_, err := r.ExecAffected(ctx,
				`INSERT INTO study_group_participants (study_group_id, user_id) VALUES ($1, $2)`,
				group.ID, userID,
			)
			if err != nil {
				return fmt.Errorf("add study group participant: %w", err)
			}
		}
		return nil
	})
}

func (r *StudyGroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.StudyGroup, error) {
	query := `SELECT ` + studyGroupColumns + ` FROM study_groups g WHERE g.id = $1`

	group, err := scanStudyGroup(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get study group by id: %w", err)
	}
	return group, nil
}

func (r *StudyGroupRepository) List(ctx context.Context) ([]*model.StudyGroup, error) {
	query := `SELECT ` + studyGroupColumns + ` FROM study_groups g ORDER BY g.meet_date, g.meet_time`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list study groups: %w", err)
	}
	defer rows.Close()

	groups := []*model.StudyGroup{}
	for rows.Next() {
		group, err := scanStudyGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("scan study group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate study groups: %w", err)
	}
	return groups, nil
}

// ListIDsByParticipant returns the ids of the groups the user takes part in.
func (r *StudyGroupRepository) ListIDsByParticipant(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.Query(ctx,
		`SELECT study_group_id FROM study_group_participants WHERE user_id = $1 ORDER BY joined_at`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list joined study groups: %w", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, fmt.Errorf("collect joined study groups: %w", err)
	}
	return ids, nil
}

func (r *StudyGroupRepository) Update(ctx context.Context, group *model.StudyGroup) error {
	query := `
		UPDATE study_groups
		SET title = $1, subject = $2, description = $3, meet_date = $4, meet_time = $5, duration_minutes = $6, updated_at = now()
		WHERE id = $7
		RETURNING updated_at
	`

	err := r.QueryRow(
		ctx, query,
		group.Title,
		group.Subject,
		group.Description,
		group.Date,
		group.Time,
		group.Duration,
		group.ID,
	).Scan(&group.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("study group not found")
		}
		return fmt.Errorf("update study group: %w", err)
	}
	return nil
}

func (r *StudyGroupRepository) Delete(ctx context.Context, id uuid.UUID) error {
	affected, err := r.ExecAffected(ctx, `DELETE FROM study_groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete study group: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("study group not found")
	}
	return nil
}

// AddParticipant records membership; joining is not exposed over HTTP.
func (r *StudyGroupRepository) AddParticipant(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := r.ExecAffected(ctx,
		`INSERT INTO study_group_participants (study_group_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("add study group participant: %w", err)
	}
	return nil
}
