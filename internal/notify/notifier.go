package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"studioz/internal/events"
	"studioz/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Notifier announces availability and reservation changes on the
// in-process bus and, when Redis is configured, on per-item and
// per-customer pub/sub channels. Delivery is fire-and-forget: failures
// are logged and swallowed so the triggering operation is unaffected.
type Notifier struct {
	bus    *events.EventBus
	redis  *redis.Client
	logger *zerolog.Logger
}

func NewNotifier(bus *events.EventBus, redisClient *redis.Client, logger *zerolog.Logger) *Notifier {
	return &Notifier{bus: bus, redis: redisClient, logger: logger}
}

func (n *Notifier) AvailabilityUpdated(ctx context.Context, itemID int64, date string) {
	if n == nil {
		return
	}

	payload := events.AvailabilityEventPayload{ItemID: itemID, Date: date}
	if err := n.bus.PublishJSON(events.EventAvailabilityUpdated, payload); err != nil {
		n.logger.Warn().Err(err).Int64("item_id", itemID).Msg("failed to publish availability event")
	}

	n.publishRedis(ctx, fmt.Sprintf("availability:%d", itemID), payload)
}

func (n *Notifier) ReservationChanged(ctx context.Context, eventType string, r *models.Reservation) {
	if n == nil || r == nil {
		return
	}

	payload := events.ReservationEventPayload{
		ReservationID: r.ID,
		CustomerID:    r.CustomerID,
		ItemID:        r.ItemID,
		Status:        r.Status,
		Date:          r.Date,
		TimeSlots:     r.TimeSlots,
		TotalPrice:    r.TotalPrice,
		Expiration:    r.Expiration,
	}
	if err := n.bus.PublishJSON(eventType, payload); err != nil {
		n.logger.Warn().Err(err).Str("reservation_id", r.ID).Msg("failed to publish reservation event")
	}

	if r.CustomerID != "" {
		n.publishRedis(ctx, fmt.Sprintf("customer:%s:reservations", r.CustomerID), payload)
	}
}

func (n *Notifier) publishRedis(ctx context.Context, channel string, payload interface{}) {
	if n.redis == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := n.redis.Publish(ctx, channel, data).Err(); err != nil {
		n.logger.Warn().Err(err).Str("channel", channel).Msg("redis publish failed")
	}
}
