package notify

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"studioz/internal/events"
	"studioz/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifierAvailabilityUpdated(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	n := NewNotifier(bus, client, &logger)
	ctx := context.Background()

	var busPayload events.AvailabilityEventPayload
	bus.Subscribe(events.EventAvailabilityUpdated, func(e *events.Event) error {
		return json.Unmarshal(e.Payload, &busPayload)
	})

	sub := client.Subscribe(ctx, "availability:10")
	defer sub.Close()
	_, err = sub.Receive(ctx)
	require.NoError(t, err)

	n.AvailabilityUpdated(ctx, 10, "2026-01-15")

	assert.Equal(t, int64(10), busPayload.ItemID)
	assert.Equal(t, "2026-01-15", busPayload.Date)

	select {
	case msg := <-sub.Channel():
		var redisPayload events.AvailabilityEventPayload
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &redisPayload))
		assert.Equal(t, int64(10), redisPayload.ItemID)
	case <-time.After(2 * time.Second):
		t.Fatal("no message on availability channel")
	}
}

func TestNotifierReservationChanged(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	// No Redis configured; the bus still receives the event.
	n := NewNotifier(bus, nil, &logger)

	var got events.ReservationEventPayload
	bus.Subscribe(events.EventReservationExpired, func(e *events.Event) error {
		return json.Unmarshal(e.Payload, &got)
	})

	r := &models.Reservation{
		ID:         "res-1",
		CustomerID: "cust-1",
		ItemID:     10,
		Date:       "2026-01-15",
		TimeSlots:  []string{"14:00"},
		Status:     models.StatusExpired,
		TotalPrice: 100,
	}
	n.ReservationChanged(context.Background(), events.EventReservationExpired, r)

	assert.Equal(t, "res-1", got.ReservationID)
	assert.Equal(t, models.StatusExpired, got.Status)
}

func TestNotifierNil(t *testing.T) {
	var n *Notifier
	// Must not panic.
	n.AvailabilityUpdated(context.Background(), 10, "2026-01-15")
	n.ReservationChanged(context.Background(), events.EventReservationCreated, nil)
}
