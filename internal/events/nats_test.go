package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Freeeeeet/tutorhub/internal/events"
	"github.com/Freeeeeet/tutorhub/internal/model"
	"github.com/google/uuid"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNatsPublisher_PublishesJSON(t *testing.T) {
	srv := natsserver.RunRandClientPortServer()
	defer srv.Shutdown()

	publisher, err := events.NewNatsPublisher(srv.ClientURL(), zap.NewNop())
	require.NoError(t, err)
	defer publisher.Close()

	nc, err := nats.Connect(srv.ClientURL())
	require.NoError(t, err)
	defer nc.Close()

	created, err := nc.SubscribeSync(events.SubjectBookingCreated)
	require.NoError(t, err)
	slots, err := nc.SubscribeSync(events.SubjectAvailabilityCreated)
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	booking := &model.Booking{
		ID:          uuid.New(),
		StudentID:   uuid.New(),
		TutorID:     uuid.New(),
		Subject:     "Math",
		BookingTime: time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
		Duration:    60,
		Status:      model.BookingStatusPending,
	}
	ctx := context.Background()
	require.NoError(t, publisher.PublishBookingCreated(ctx, events.NewBookingEvent(events.SubjectBookingCreated, booking, "", time.Now())))

	msg, err := created.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var got events.BookingEvent
	require.NoError(t, json.Unmarshal(msg.Data, &got))
	assert.Equal(t, events.SubjectBookingCreated, got.EventType)
	assert.Equal(t, booking.ID, got.BookingID)
	assert.Equal(t, model.BookingStatusPending, got.Status)
	assert.True(t, booking.BookingTime.Equal(got.BookingTime))

	slot := &model.AvailabilitySlot{ID: uuid.New(), Day: "2025-03-10"}
	require.NoError(t, publisher.PublishAvailabilityCreated(ctx, events.NewAvailabilityCreatedEvent(uuid.New(), []*model.AvailabilitySlot{slot, slot}, time.Now())))

	msg, err = slots.NextMsg(2 * time.Second)
	require.NoError(t, err)

	var av events.AvailabilityCreatedEvent
	require.NoError(t, json.Unmarshal(msg.Data, &av))
	assert.Len(t, av.SlotIDs, 2)
	assert.Equal(t, []string{"2025-03-10"}, av.Days)
}

func TestNewNatsPublisher_Unreachable(t *testing.T) {
	_, err := events.NewNatsPublisher("nats://127.0.0.1:1", zap.NewNop())
	require.Error(t, err)
}
