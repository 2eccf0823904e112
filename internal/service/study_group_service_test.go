package service_test

import (
	"context"
	"testing"

	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroup(t *testing.T, env *testEnv) (*service.StudyGroupService, service.StudyGroupInput) {
	t.Helper()
	return env.groups, service.StudyGroupInput{
		Title:    "Calculus crew",
		Subject:  "Math",
		Date:     testDay,
		Time:     "18:00",
		Duration: 90,
	}
}

func TestStudyGroup_CreateAndRead(t *testing.T) {
	env := newTestEnv(t)
	groups, in := newGroup(t, env)
	student := env.student(t, "bob")
	ctx := context.Background()

	g, err := groups.Create(ctx, student, in)
	require.NoError(t, err)
	assert.Equal(t, student.UserID, g.CreatorID)
	assert.Equal(t, []uuid.UUID{student.UserID}, g.Participants)

	got, err := groups.Get(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, "Calculus crew", got.Title)

	list, err := groups.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = groups.Get(ctx, uuid.New())
	requireKind(t, err, service.KindNotFound)

	_, err = groups.Create(ctx, env.tutor(t, "alice"), in)
	requireKind(t, err, service.KindForbidden)

	bad := in
	bad.Time = "6pm"
	_, err = groups.Create(ctx, student, bad)
	requireKind(t, err, service.KindValidation)
}

func TestStudyGroup_UpdateAndDelete(t *testing.T) {
	env := newTestEnv(t)
	groups, in := newGroup(t, env)
	creator := env.student(t, "bob")
	member := env.student(t, "dave")
	ctx := context.Background()

	g, err := groups.Create(ctx, creator, in)
	require.NoError(t, err)

	_, err = groups.Update(ctx, member, g.ID, service.StudyGroupUpdate{Title: ptr("mine now")})
	requireKind(t, err, service.KindForbidden)

	// alone in the group the creator may move the meeting
	moved, err := groups.Update(ctx, creator, g.ID, service.StudyGroupUpdate{Time: ptr("19:00")})
	require.NoError(t, err)
	assert.Equal(t, "19:00", moved.Time)

	require.NoError(t, env.db.StudyGroups().AddParticipant(ctx, g.ID, member.UserID))

	_, err = groups.Update(ctx, creator, g.ID, service.StudyGroupUpdate{Date: ptr("2025-03-11")})
	requireKind(t, err, service.KindConflict)

	renamed, err := groups.Update(ctx, creator, g.ID, service.StudyGroupUpdate{Title: ptr("Calc II"), Description: ptr("bring notes")})
	require.NoError(t, err)
	assert.Equal(t, "Calc II", renamed.Title)

	err = groups.Delete(ctx, creator, g.ID)
	requireKind(t, err, service.KindConflict)

	err = groups.Delete(ctx, member, g.ID)
	requireKind(t, err, service.KindForbidden)

	solo, err := groups.Create(ctx, creator, in)
	require.NoError(t, err)
	require.NoError(t, groups.Delete(ctx, creator, solo.ID))

	_, err = groups.Get(ctx, solo.ID)
	requireKind(t, err, service.KindNotFound)
}
