package domain

import (
	"context"
	"time"

	"studioz/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Store is the persistence surface the reservation service depends on.
type Store interface {
	GetItemByID(id int64) (*models.Item, error)
	GetStudioByID(id int64) (*models.Studio, error)
	GetItems() []models.Item

	GetDateTimes(ctx context.Context, itemID int64, date string) ([]string, bool, error)
	ReleaseSlots(ctx context.Context, itemID int64, date string, released, defaultHours []string) ([]string, error)

	CreateReservationWithHold(ctx context.Context, r *models.Reservation, defaultHours []string) error
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	ConfirmReservation(ctx context.Context, id string, fromVersion int64, now time.Time) error
	UpdateReservationStatusWithVersion(ctx context.Context, id string, fromVersion int64, status string) error
	GetExpiredPending(ctx context.Context, now time.Time) ([]*models.Reservation, error)
	MarkExpired(ctx context.Context, ids []string) (int64, error)
	DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	GetCustomerReservations(ctx context.Context, customerID string) ([]*models.Reservation, error)

	AddCartEntry(ctx context.Context, entry *models.CartEntry) error
	RemoveCartEntriesByReservationIDs(ctx context.Context, reservationIDs []string) (int64, error)
	GetCartEntries(ctx context.Context, customerID string) ([]*models.CartEntry, error)

	GetAddOnsByIDs(ctx context.Context, ids []string) ([]*models.AddOn, error)
}

// Notifier fans out change announcements. Implementations are
// fire-and-forget: a delivery failure never fails the operation that
// triggered it.
type Notifier interface {
	AvailabilityUpdated(ctx context.Context, itemID int64, date string)
	ReservationChanged(ctx context.Context, eventType string, r *models.Reservation)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ReservationService is the application surface exposed over HTTP.
type ReservationService interface {
	ValidateReservationDate(date string) error
	CreateReservation(ctx context.Context, req *models.CreateReservationRequest) (*models.Reservation, error)
	ConfirmReservation(ctx context.Context, id string) (*models.Reservation, error)
	CancelReservation(ctx context.Context, id string) (*models.Reservation, error)
	RejectReservation(ctx context.Context, id string) (*models.Reservation, error)
	GetReservation(ctx context.Context, id string) (*models.Reservation, error)
	GetCustomerReservations(ctx context.Context, customerID string) ([]*models.Reservation, error)
	GetCart(ctx context.Context, customerID string) ([]*models.CartEntry, error)
	GetAvailability(ctx context.Context, itemID int64, date string) ([]string, error)
	RescheduleOptions(ctx context.Context, reservationID string, date string) ([]string, error)
	GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error)
	ExpirePendingReservations(ctx context.Context) (int, error)
	CleanupOldExpiredReservations(ctx context.Context) (int64, error)
}

// TelegramSender is the subset of the bot API used for vendor alerts.
type TelegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}
