package models

import "time"

// Reservation is a hold or booking of hourly slots on one item and date.
// Expiration is meaningful only while Status is pending.
type Reservation struct {
	ID         string    `json:"id"`
	ItemID     int64     `json:"item_id"`
	StudioID   int64     `json:"studio_id"`
	CustomerID string    `json:"customer_id,omitempty"`
	Date       string    `json:"date"`
	TimeSlots  []string  `json:"time_slots"`
	Status     string    `json:"status"`
	Expiration time.Time `json:"expiration"`
	ItemPrice  float64   `json:"item_price"`
	TotalPrice float64   `json:"total_price"`
	AddOnIDs   []string  `json:"add_on_ids,omitempty"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Version    int64     `json:"version"`
}

// IsExpired reports whether a pending reservation is past its hold deadline.
func (r *Reservation) IsExpired(now time.Time) bool {
	return r.Status == StatusPending && now.After(r.Expiration)
}

// CartEntry is a lightweight pointer from a customer's cart to a pending
// reservation. Entries are pruned when the reservation leaves pending
// without being confirmed.
type CartEntry struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	ReservationID string    `json:"reservation_id"`
	ItemID        int64     `json:"item_id"`
	Date          string    `json:"date"`
	CreatedAt     time.Time `json:"created_at"`
}

// CreateReservationRequest carries the customer's slot selection. Either
// TimeSlots is set explicitly, or StartTime plus DurationHours expands
// into consecutive hourly slots.
type CreateReservationRequest struct {
	ItemID        int64    `json:"item_id"`
	CustomerID    string   `json:"customer_id,omitempty"`
	Date          string   `json:"date"`
	TimeSlots     []string `json:"time_slots,omitempty"`
	StartTime     string   `json:"start_time,omitempty"`
	DurationHours int      `json:"duration_hours,omitempty"`
	AddOnIDs      []string `json:"add_on_ids,omitempty"`
	Comment       string   `json:"comment,omitempty"`
}
