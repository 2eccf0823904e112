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

const bookingColumns = `id, student_id, tutor_id, subject, booking_time, duration_minutes, status, availability_id, created_at, updated_at`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(db *base.Repository) *BookingRepository {
	return &BookingRepository{Repository: db}
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.StudentID,
		&booking.TutorID,
		&booking.Subject,
		&booking.BookingTime,
		&booking.Duration,
		&booking.Status,
		&booking.AvailabilityID,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	booking.BookingTime = booking.BookingTime.UTC()
	return &booking, nil
}

func (r *BookingRepository) list(ctx context.Context, what, query string, args ...any) ([]*model.Booking, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get bookings by %s: %w", what, err)
	}
	defer rows.Close()

	bookings := []*model.Booking{}
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bookings: %w", err)
	}
	return bookings, nil
}

// Create создаёт новое бронирование
func (r *BookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (id, student_id, tutor_id, subject, booking_time, duration_minutes, status, availability_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		booking.ID,
		booking.StudentID,
		booking.TutorID,
		booking.Subject,
		booking.BookingTime,
		booking.Duration,
		booking.Status,
		booking.AvailabilityID,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	booking, err := scanBooking(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return booking, nil
}

// ListByStudent получает все бронирования студента
func (r *BookingRepository) ListByStudent(ctx context.Context, studentID uuid.UUID) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE student_id = $1 ORDER BY booking_time`
	return r.list(ctx, "student", query, studentID)
}

// ListByTutor получает все бронирования учителя
func (r *BookingRepository) ListByTutor(ctx context.Context, tutorID uuid.UUID) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE tutor_id = $1 ORDER BY booking_time`
	return r.list(ctx, "tutor", query, tutorID)
}

// FindOverlapping returns the tutor's non-cancelled bookings intersecting
// [start, end). excludeID, when set, is left out of the result.
func (r *BookingRepository) FindOverlapping(ctx context.Context, tutorID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]*model.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE tutor_id = $1
		  AND status <> 'cancelled'
		  AND booking_time < $3
		  AND booking_time + make_interval(mins => duration_minutes) > $2
		  AND ($4::uuid IS NULL OR id <> $4::uuid)
		ORDER BY booking_time
	`
	return r.list(ctx, "interval", query, tutorID, start, end, excludeID)
}

// Update сохраняет статус и время бронирования
func (r *BookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, booking_time = $2, duration_minutes = $3, updated_at = now()
		WHERE id = $4
		RETURNING updated_at
	`

	err := r.QueryRow(ctx, query, booking.Status, booking.BookingTime, booking.Duration, booking.ID).Scan(&booking.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return fmt.Errorf("booking not found")
		}
		return fmt.Errorf("update booking: %w", err)
	}

	return nil
}
