package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"studioz/internal/domain"
	"studioz/internal/events"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// VendorAlerts forwards reservation events to the studio staff chat.
type VendorAlerts struct {
	bot    domain.TelegramSender
	chatID int64
	retry  RetryPolicy
	logger *zerolog.Logger
}

func NewVendorAlerts(bot domain.TelegramSender, chatID int64, logger *zerolog.Logger) *VendorAlerts {
	return &VendorAlerts{
		bot:    bot,
		chatID: chatID,
		retry: RetryPolicy{
			MaxRetries:   3,
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
		},
		logger: logger,
	}
}

// Register subscribes the alert handlers on the bus.
func (v *VendorAlerts) Register(bus *events.EventBus) {
	for _, eventType := range []string{
		events.EventReservationCreated,
		events.EventReservationConfirmed,
		events.EventReservationCancelled,
		events.EventReservationExpired,
	} {
		bus.Subscribe(eventType, v.handle)
	}
}

func (v *VendorAlerts) handle(event *events.Event) error {
	var payload events.ReservationEventPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		v.logger.Warn().Err(err).Str("type", event.Type).Msg("malformed reservation event payload")
		return nil
	}

	msg := tgbotapi.NewMessage(v.chatID, formatAlert(event.Type, payload))

	var err error
	for attempt := 1; attempt <= v.retry.MaxRetries; attempt++ {
		if _, err = v.bot.Send(msg); err == nil {
			return nil
		}
		if attempt < v.retry.MaxRetries {
			time.Sleep(v.retry.NextDelay(attempt))
		}
	}
	v.logger.Warn().Err(err).Str("reservation_id", payload.ReservationID).Msg("failed to send vendor alert")
	return nil
}

func formatAlert(eventType string, p events.ReservationEventPayload) string {
	var header string
	switch eventType {
	case events.EventReservationCreated:
		header = "🆕 New reservation"
	case events.EventReservationConfirmed:
		header = "✅ Reservation confirmed"
	case events.EventReservationCancelled:
		header = "❌ Reservation cancelled"
	case events.EventReservationExpired:
		header = "⌛ Hold expired"
	default:
		header = "Reservation update"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", header)
	fmt.Fprintf(&b, "ID: %s\n", p.ReservationID)
	if p.ItemName != "" {
		fmt.Fprintf(&b, "Room: %s\n", p.ItemName)
	}
	fmt.Fprintf(&b, "Date: %s\n", p.Date)
	if len(p.TimeSlots) > 0 {
		fmt.Fprintf(&b, "Slots: %s\n", strings.Join(p.TimeSlots, ", "))
	}
	if p.TotalPrice > 0 {
		fmt.Fprintf(&b, "Total: %.2f", p.TotalPrice)
	}
	return strings.TrimRight(b.String(), "\n")
}
