package notify

import (
	"errors"
	"io"
	"testing"
	"time"

	"studioz/internal/events"
	"studioz/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	sent     []tgbotapi.MessageConfig
	failures int
	attempts int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.attempts++
	if f.attempts <= f.failures {
		return tgbotapi.Message{}, errors.New("telegram unavailable")
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func TestVendorAlerts(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	sender := &fakeSender{}

	alerts := NewVendorAlerts(sender, 42, &logger)
	alerts.Register(bus)

	err := bus.PublishJSON(events.EventReservationCreated, events.ReservationEventPayload{
		ReservationID: "res-1",
		ItemName:      "Rehearsal Room A",
		Date:          "2026-01-15",
		TimeSlots:     []string{"14:00", "15:00"},
		Status:        models.StatusPending,
		TotalPrice:    200,
	})
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Contains(t, msg.Text, "New reservation")
	assert.Contains(t, msg.Text, "res-1")
	assert.Contains(t, msg.Text, "Rehearsal Room A")
	assert.Contains(t, msg.Text, "14:00, 15:00")
	assert.Contains(t, msg.Text, "200.00")
}

func TestVendorAlertsMalformedPayload(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	sender := &fakeSender{}

	alerts := NewVendorAlerts(sender, 42, &logger)
	alerts.Register(bus)

	bus.Publish(&events.Event{Type: events.EventReservationExpired, Payload: []byte("not json")})
	assert.Empty(t, sender.sent)
}

func TestVendorAlertsRetriesSend(t *testing.T) {
	logger := zerolog.New(io.Discard)
	bus := events.NewEventBus()
	sender := &fakeSender{failures: 2}

	alerts := NewVendorAlerts(sender, 42, &logger)
	alerts.retry = RetryPolicy{MaxRetries: 3, InitialDelay: time.Millisecond}
	alerts.Register(bus)

	err := bus.PublishJSON(events.EventReservationConfirmed, events.ReservationEventPayload{
		ReservationID: "res-1",
		Date:          "2026-01-15",
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sender.attempts)
	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Text, "Reservation confirmed")
}
