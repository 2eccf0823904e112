package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailability_CreateBatch(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	ctx := context.Background()

	slots, err := env.availability.Create(ctx, tutor, []service.SlotInput{
		{Day: testDay, Subject: "Math", StartTime: at(10, 0), EndTime: at(11, 0)},
		{Day: testDay, Subject: "Physics", StartTime: at(11, 0), EndTime: at(12, 30)},
		{Day: "2025-03-11", Subject: "Math", StartTime: at(10, 0).AddDate(0, 0, 1), EndTime: at(11, 0).AddDate(0, 0, 1)},
	})
	require.NoError(t, err)
	require.Len(t, slots, 3)

	for _, s := range slots {
		assert.True(t, s.IsActive)
		assert.Equal(t, tutor.UserID, s.TutorID)
	}
	assert.Equal(t, 60, slots[0].Duration)
	assert.Equal(t, 90, slots[1].Duration)

	require.Len(t, env.publisher.availability, 1)
	assert.Len(t, env.publisher.availability[0].SlotIDs, 3)
	assert.Equal(t, []string{testDay, "2025-03-11"}, env.publisher.availability[0].Days)

	profile, err := env.users.Get(ctx, tutor.UserID)
	require.NoError(t, err)
	assert.Len(t, profile.TutoringAvailability, 3)
}

func TestAvailability_CreateRejections(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	student := env.student(t, "bob")
	ctx := context.Background()

	_, err := env.availability.Create(ctx, student, []service.SlotInput{
		{Day: testDay, Subject: "Math", StartTime: at(10, 0), EndTime: at(11, 0)},
	})
	requireKind(t, err, service.KindForbidden)

	tests := []struct {
		name  string
		input []service.SlotInput
	}{
		{"empty batch", nil},
		{"bad day", []service.SlotInput{{Day: "10/03/2025", Subject: "Math", StartTime: at(10, 0), EndTime: at(11, 0)}}},
		{"in the past", []service.SlotInput{{Day: "2025-02-01", Subject: "Math", StartTime: testNow.AddDate(0, -1, 0), EndTime: testNow}}},
		{"end before start", []service.SlotInput{{Day: testDay, Subject: "Math", StartTime: at(11, 0), EndTime: at(10, 0)}}},
		{"zero length", []service.SlotInput{{Day: testDay, Subject: "Math", StartTime: at(11, 0), EndTime: at(11, 0)}}},
		{"start on another day", []service.SlotInput{{Day: testDay, Subject: "Math", StartTime: at(9, 0).AddDate(0, 0, 1), EndTime: at(10, 0).AddDate(0, 0, 1)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.availability.Create(ctx, tutor, tt.input)
			requireKind(t, err, service.KindValidation)
		})
	}
}

func TestAvailability_OverlapWithExisting(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))

	_, err := env.availability.Create(context.Background(), tutor, []service.SlotInput{
		{Day: testDay, Subject: "Math", StartTime: at(10, 30), EndTime: at(11, 30)},
	})
	requireKind(t, err, service.KindValidation)
	assert.Equal(t, "the start time for Math must be after 2025-03-10T11:00:00Z", err.Error())

	// another tutor's schedule is independent
	other := env.tutor(t, "carol")
	env.addSlot(t, other, "Math", at(10, 30), at(11, 30))
}

func TestAvailability_BatchIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	ctx := context.Background()

	_, err := env.availability.Create(ctx, tutor, []service.SlotInput{
		{Day: testDay, Subject: "Math", StartTime: at(10, 0), EndTime: at(11, 0)},
		{Day: testDay, Subject: "Physics", StartTime: at(10, 30), EndTime: at(12, 0)},
	})
	requireKind(t, err, service.KindValidation)
	assert.Contains(t, err.Error(), "Physics")

	slots, err := env.availability.List(ctx, tutor, repository.AvailabilityFilter{})
	require.NoError(t, err)
	assert.Empty(t, slots)
	assert.Empty(t, env.publisher.availability)
}

func TestAvailability_ListByRole(t *testing.T) {
	env := newTestEnv(t)
	alice := env.tutor(t, "alice")
	carol := env.tutor(t, "carol")
	student := env.student(t, "bob")
	ctx := context.Background()

	env.addSlot(t, alice, "Math", at(10, 0), at(11, 0))
	env.addSlot(t, carol, "Physics", at(9, 0), at(10, 0))

	own, err := env.availability.List(ctx, alice, repository.AvailabilityFilter{})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Nil(t, own[0].TutorProfile)

	all, err := env.availability.List(ctx, student, repository.AvailabilityFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Physics", all[0].Subject, "ordered by start time")
	require.NotNil(t, all[0].TutorProfile)
	assert.Equal(t, "carol", all[0].TutorProfile.Name)
	assert.Equal(t, "alice", all[1].TutorProfile.Name)

	math, err := env.availability.List(ctx, student, repository.AvailabilityFilter{Subject: "Math"})
	require.NoError(t, err)
	require.Len(t, math, 1)
	assert.Equal(t, alice.UserID, math[0].TutorID)
}

func TestAvailability_UpdateAndDisableDay(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	ctx := context.Background()

	first := env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))
	env.addSlot(t, tutor, "Math", at(12, 0), at(13, 0))

	res, err := env.availability.Update(ctx, tutor, first.ID, service.SlotUpdate{
		Subject: ptr("Algebra"),
		EndTime: ptr(at(11, 30)),
	})
	require.NoError(t, err)
	require.NotNil(t, res.Slot)
	assert.Equal(t, "Algebra", res.Slot.Subject)
	assert.Equal(t, 90, res.Slot.Duration)

	_, err = env.availability.Update(ctx, tutor, first.ID, service.SlotUpdate{EndTime: ptr(at(9, 0))})
	requireKind(t, err, service.KindValidation)

	// the slot stays on its day
	_, err = env.availability.Update(ctx, tutor, first.ID, service.SlotUpdate{
		StartTime: ptr(at(10, 0).AddDate(0, 0, 1)),
		EndTime:   ptr(at(11, 0).AddDate(0, 0, 1)),
	})
	requireKind(t, err, service.KindValidation)

	res, err = env.availability.Update(ctx, tutor, first.ID, service.SlotUpdate{DisableDay: true})
	require.NoError(t, err)
	assert.Nil(t, res.Slot)
	assert.Equal(t, testDay, res.DisabledDay)
	assert.EqualValues(t, 2, res.DisabledSlots)

	slots, err := env.availability.List(ctx, tutor, repository.AvailabilityFilter{})
	require.NoError(t, err)
	for _, s := range slots {
		assert.False(t, s.IsActive)
	}
}

func TestAvailability_UpdateGuards(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	other := env.tutor(t, "carol")
	student := env.student(t, "bob")
	ctx := context.Background()

	slot := env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))

	_, err := env.availability.Update(ctx, student, slot.ID, service.SlotUpdate{Subject: ptr("x")})
	requireKind(t, err, service.KindForbidden)

	_, err = env.availability.Update(ctx, tutor, uuid.New(), service.SlotUpdate{Subject: ptr("x")})
	requireKind(t, err, service.KindNotFound)

	_, err = env.availability.Update(ctx, other, slot.ID, service.SlotUpdate{Subject: ptr("x")})
	requireKind(t, err, service.KindForbidden)

	err = env.availability.Delete(ctx, other, slot.ID)
	requireKind(t, err, service.KindForbidden)
}

func TestAvailability_BookedSlotIsFrozen(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	student := env.student(t, "bob")
	ctx := context.Background()

	booked := env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))
	free := env.addSlot(t, tutor, "Math", at(14, 0), at(15, 0))
	env.book(t, student, tutor, at(10, 0), 60)

	_, err := env.availability.Update(ctx, tutor, booked.ID, service.SlotUpdate{Subject: ptr("Physics")})
	requireKind(t, err, service.KindConflict)

	err = env.availability.Delete(ctx, tutor, booked.ID)
	requireKind(t, err, service.KindConflict)

	// the free slot can change, but its day can't be disabled
	_, err = env.availability.Update(ctx, tutor, free.ID, service.SlotUpdate{DisableDay: true})
	requireKind(t, err, service.KindConflict)

	require.NoError(t, env.availability.Delete(ctx, tutor, free.ID))
}

func TestAvailability_CancelledBookingUnfreezesSlot(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	student := env.student(t, "bob")
	ctx := context.Background()

	slot := env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))
	b := env.book(t, student, tutor, at(10, 0), 60)

	_, err := env.bookings.Update(ctx, student, b.ID, service.BookingUpdate{Status: ptr(model.BookingStatusCancelled)})
	require.NoError(t, err)

	require.NoError(t, env.availability.Delete(ctx, tutor, slot.ID))
}

func TestAvailability_ExpirePastSlots(t *testing.T) {
	env := newTestEnv(t)
	tutor := env.tutor(t, "alice")
	ctx := context.Background()

	env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))
	env.addSlot(t, tutor, "Math", at(12, 0), at(13, 0))

	n, err := env.availability.WithClock(func() time.Time { return at(12, 30) }).ExpirePastSlots(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	slots, err := env.availability.List(ctx, tutor, repository.AvailabilityFilter{})
	require.NoError(t, err)
	assert.False(t, slots[0].IsActive)
	assert.True(t, slots[1].IsActive)
}

func TestAvailability_PublishFailureDoesNotFailRequest(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("nats down")
	tutor := env.tutor(t, "alice")

	env.addSlot(t, tutor, "Math", at(10, 0), at(11, 0))
}
