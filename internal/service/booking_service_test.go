package service_test

import (
	"context"
	"sync"
	"testing"

	"github.com/Freeeeeet/tutorhub/internal/events"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBooking_CreateAgainstSlot(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	student := env.student(t, "bob")
	ctx := context.Background()

	slot := env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))

	b, err := env.bookings.Create(ctx, student, service.BookingInput{
		TutorID:        tutor.UserID,
		Subject:        "Math",
		BookingTime:    at(10, 0),
		Duration:       60,
		AvailabilityID: &slot.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusPending, b.Status)
	assert.Equal(t, student.UserID, b.StudentID)
	assert.Equal(t, tutor.UserID, b.TutorID)
	assert.Equal(t, at(11, 0), b.EndTime())

	stored, err := env.db.Availability().GetByID(ctx, slot.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsActive, "booked slot is consumed")

	require.Len(t, env.publisher.created, 1)
	assert.Equal(t, events.SubjectBookingCreated, env.publisher.created[0].EventType)
	assert.Equal(t, b.ID, env.publisher.created[0].BookingID)

	// the consumed slot can't be booked again
	_, err = env.bookings.Create(ctx, env.student(t, "dave"), service.BookingInput{
		TutorID:        tutor.UserID,
		Subject:        "Math",
		BookingTime:    at(10, 0),
		Duration:       30,
		AvailabilityID: &slot.ID,
	})
	requireKind(t, err, service.KindConflict)
}

func TestBooking_CreateRejections(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	other := env.tutor(t, "carol")
	student := env.student(t, "bob")
	ctx := context.Background()

	otherSlot := env.addSlot(t, other, "Math", at(10, 0), at(11, 0))
	missing := uuid.New()

	tests := []struct {
		name   string
		caller func() service.BookingInput
		kind   service.Kind
	}{
		{"unknown tutor", func() service.BookingInput {
			return service.BookingInput{TutorID: uuid.New(), Subject: "Math", BookingTime: at(10, 0), Duration: 60}
		}, service.KindNotFound},
		{"tutor id of a student", func() service.BookingInput {
			return service.BookingInput{TutorID: student.UserID, Subject: "Math", BookingTime: at(10, 0), Duration: 60}
		}, service.KindNotFound},
		{"missing availability", func() service.BookingInput {
			return service.BookingInput{TutorID: tutor.UserID, Subject: "Math", BookingTime: at(10, 0), Duration: 60, AvailabilityID: &missing}
		}, service.KindNotFound},
		{"availability of another tutor", func() service.BookingInput {
			return service.BookingInput{TutorID: tutor.UserID, Subject: "Math", BookingTime: at(10, 0), Duration: 60, AvailabilityID: &otherSlot.ID}
		}, service.KindValidation},
		{"non-positive duration", func() service.BookingInput {
			return service.BookingInput{TutorID: tutor.UserID, Subject: "Math", BookingTime: at(10, 0)}
		}, service.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.bookings.Create(ctx, student, tt.caller())
			requireKind(t, err, tt.kind)
		})
	}

	_, err := env.bookings.Create(ctx, tutor, service.BookingInput{TutorID: other.UserID, Subject: "Math", BookingTime: at(10, 0), Duration: 60})
	requireKind(t, err, service.KindForbidden)
	assert.Empty(t, env.publisher.created)
}

func TestBooking_CreateOverlap(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	bob := env.student(t, "bob")
	dave := env.student(t, "dave")
	ctx := context.Background()

	first := env.book(t, bob, tutor, at(10, 0), 60)

	_, err := env.bookings.Create(ctx, dave, service.BookingInput{
		TutorID: tutor.UserID, Subject: "Math", BookingTime: at(10, 30), Duration: 60,
	})
	requireKind(t, err, service.KindConflict)

	// back-to-back is fine
	env.book(t, dave, tutor, at(11, 0), 30)

	// a cancelled booking no longer blocks its interval
	_, err = env.bookings.Update(ctx, bob, first.ID, service.BookingUpdate{Status: ptr(model.BookingStatusCancelled)})
	require.NoError(t, err)
	env.book(t, dave, tutor, at(10, 0), 60)
}

func TestBooking_ConcurrentCreateSingleWinner(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	ctx := context.Background()

	const attempts = 10
	in := service.BookingInput{TutorID: tutor.UserID, Subject: "Math", BookingTime: at(10, 0), Duration: 60}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < attempts; i++ {
		p := env.student(t, uuid.NewString())

		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.bookings.Create(ctx, p, in)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case service.KindOf(err) == service.KindConflict:
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, attempts-1, conflicts)
}

func TestBooking_StatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	student := env.student(t, "bob")
	ctx := context.Background()

	b := env.book(t, student, tutor, at(10, 0), 60)

	_, err := env.bookings.Update(ctx, student, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusConfirmed)})
	requireKind(t, err, service.KindForbidden)

	_, err = env.bookings.Update(ctx, tutor, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusCancelled)})
	requireKind(t, err, service.KindForbidden)

	_, err = env.bookings.Update(ctx, tutor, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatus("archived"))})
	requireKind(t, err, service.KindValidation)

	_, err = env.bookings.Update(ctx, tutor, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusPending)})
	requireKind(t, err, service.KindValidation)

	confirmed, err := env.bookings.Update(ctx, tutor, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusConfirmed)})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, confirmed.Status)

	completed, err := env.bookings.Update(ctx, tutor, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, completed.Status)

	_, err = env.bookings.Update(ctx, student, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusCancelled)})
	requireKind(t, err, service.KindConflict)

	// repeating the current terminal status is a no-op
	again, err := env.bookings.Update(ctx, tutor, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCompleted, again.Status)

	require.Len(t, env.publisher.updated, 3)
	assert.Equal(t, model.BookingStatusPending, env.publisher.updated[0].PreviousStatus)
	assert.Equal(t, model.BookingStatusConfirmed, env.publisher.updated[0].Status)
}

func TestBooking_UpdateGuards(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	student := env.student(t, "bob")
	stranger := env.student(t, "eve")
	otherTutor := env.tutor(t, "carol")
	ctx := context.Background()

	b := env.book(t, student, tutor, at(10, 0), 60)

	_, err := env.bookings.Update(ctx, tutor, uuid.New(), service.BookingUpdate{Status: ptr(model.BookingStatusConfirmed)})
	requireKind(t, err, service.KindNotFound)

	_, err = env.bookings.Update(ctx, stranger, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusCancelled)})
	requireKind(t, err, service.KindForbidden)

	_, err = env.bookings.Update(ctx, otherTutor, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusConfirmed)})
	requireKind(t, err, service.KindForbidden)
}

func TestBooking_Reschedule(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	bob := env.student(t, "bob")
	dave := env.student(t, "dave")
	ctx := context.Background()

	mine := env.book(t, bob, tutor, at(10, 0), 60)
	env.book(t, dave, tutor, at(12, 0), 60)

	_, err := env.bookings.Update(ctx, bob, mine.ID, service.BookingUpdate{BookingTime: ptr(at(11, 30))})
	requireKind(t, err, service.KindConflict)

	unchanged, err := env.db.Bookings().GetByID(ctx, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, at(10, 0), unchanged.BookingTime)

	// moving within its own old interval does not collide with itself
	moved, err := env.bookings.Update(ctx, bob, mine.ID, service.BookingUpdate{BookingTime: ptr(at(10, 30)), Duration: ptr(90)})
	require.NoError(t, err)
	assert.Equal(t, at(10, 30), moved.BookingTime)
	assert.Equal(t, 90, moved.Duration)

	_, err = env.bookings.Update(ctx, bob, mine.ID, service.BookingUpdate{Duration: ptr(0)})
	requireKind(t, err, service.KindValidation)

	// time fields from the tutor are ignored
	confirmed, err := env.bookings.Update(ctx, tutor, mine.ID, service.BookingUpdate{
		Status:      ptr(model.BookingStatusConfirmed),
		BookingTime: ptr(at(15, 0)),
	})
	require.NoError(t, err)
	assert.Equal(t, at(10, 30), confirmed.BookingTime)
}

func TestBooking_CalendarViews(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	student := env.student(t, "bob")
	ctx := context.Background()

	env.book(t, student, tutor, at(13, 0), 45)
	env.book(t, student, tutor, at(10, 0), 60)

	tutorView, err := env.bookings.ListForTutor(ctx, tutor)
	require.NoError(t, err)
	require.Len(t, tutorView, 2)
	assert.Equal(t, "Math - pending", tutorView[0].Title)
	assert.Equal(t, at(10, 0), tutorView[0].Start)
	assert.Equal(t, at(11, 0), tutorView[0].End)
	assert.Equal(t, "bob", tutorView[0].ExtendedProps["student"])
	assert.Equal(t, 60, tutorView[0].ExtendedProps["duration"])

	studentView, err := env.bookings.ListForStudent(ctx, student)
	require.NoError(t, err)
	require.Len(t, studentView, 2)
	assert.Equal(t, "alice", studentView[1].ExtendedProps["tutor"])
	assert.Equal(t, at(13, 45), studentView[1].End)

	_, err = env.bookings.ListForTutor(ctx, student)
	requireKind(t, err, service.KindForbidden)
	_, err = env.bookings.ListForStudent(ctx, tutor)
	requireKind(t, err, service.KindForbidden)

	empty, err := env.bookings.ListForTutor(ctx, env.tutor(t, "carol"))
	require.NoError(t, err)
	assert.Empty(t, empty)
}
