package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/auth"
	"github.com/Freeeeeet/tutorhub/internal/events"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/Freeeeeet/tutorhub/internal/repository/inmem"
	"github.com/Freeeeeet/tutorhub/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

const testDay = "2025-03-10"

func at(hour, minute int) time.Time {
	return time.Date(2025, 3, 10, hour, minute, 0, 0, time.UTC)
}

type recordingPublisher struct {
	mu           sync.Mutex
	availability []events.AvailabilityCreatedEvent
	created      []events.BookingEvent
	updated      []events.BookingEvent
	err          error
}

func (p *recordingPublisher) PublishAvailabilityCreated(_ context.Context, e events.AvailabilityCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.availability = append(p.availability, e)
	return p.err
}

func (p *recordingPublisher) PublishBookingCreated(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return p.err
}

func (p *recordingPublisher) PublishBookingUpdated(_ context.Context, e events.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updated = append(p.updated, e)
	return p.err
}

type testEnv struct {
	db           *inmem.DB
	publisher    *recordingPublisher
	availability *service.AvailabilityService
	bookings     *service.BookingService
	users        *service.UserService
	groups       *service.StudyGroupService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := inmem.NewDB()
	pub := &recordingPublisher{}
	logger := zap.NewNop()
	clock := func() time.Time { return testNow }

	return &testEnv{
		db:        db,
		publisher: pub,
		availability: service.NewAvailabilityService(db, db.Availability(), db.Bookings(), db.Users(), pub, logger).
			WithClock(clock),
		bookings: service.NewBookingService(db, db.Bookings(), db.Availability(), db.Users(), pub, logger).
			WithClock(clock),
		users:  service.NewUserService(db.Users(), db.Availability(), db.StudyGroups(), logger),
		groups: service.NewStudyGroupService(db.StudyGroups(), logger),
	}
}

func (e *testEnv) addUser(t *testing.T, name string, role model.Role) auth.Principal {
	t.Helper()

	u := &model.User{
		ID:       uuid.New(),
		Name:     name,
		Username: name,
		Email:    name + "@example.com",
		Role:     role,
		Subjects: []string{"Math"},
	}
	require.NoError(t, e.db.Users().Create(context.Background(), u))
	return auth.Principal{UserID: u.ID, Role: role}
}

func (e *testEnv) tutor(t *testing.T, name string) auth.Principal {
	return e.addUser(t, name, model.RoleTutor)
}

func (e *testEnv) student(t *testing.T, name string) auth.Principal {
	return e.addUser(t, name, model.RoleStudent)
}

func (e *testEnv) addSlot(t *testing.T, tutor auth.Principal, subject string, start, end time.Time) *model.AvailabilitySlot {
	t.Helper()

	slots, err := e.availability.Create(context.Background(), tutor, []service.SlotInput{
		{Day: start.Format(model.DayLayout), Subject: subject, StartTime: start, EndTime: end},
	})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	return slots[0]
}

func (e *testEnv) book(t *testing.T, student, tutor auth.Principal, start time.Time, minutes int) *model.Booking {
	t.Helper()

	b, err := e.bookings.Create(context.Background(), student, service.BookingInput{
		TutorID:     tutor.UserID,
		Subject:     "Math",
		BookingTime: start,
		Duration:    minutes,
	})
	require.NoError(t, err)
	return b
}

func requireKind(t *testing.T, err error, kind service.Kind) {
	t.Helper()

	require.Error(t, err)
	var svcErr *service.Error
	require.True(t, errors.As(err, &svcErr), "expected *service.Error, got %T: %v", err, err)
	require.Equal(t, kind, svcErr.Kind, "unexpected kind for %q", err)
}

func ptr[T any](v T) *T {
	return &v
}
