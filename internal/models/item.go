package models

import "time"

// Studio groups bookable items under one vendor.
type Studio struct {
	ID    int64  `yaml:"id" json:"id"`
	Name  string `yaml:"name" json:"name"`
	City  string `yaml:"city,omitempty" json:"city,omitempty"`
	Phone string `yaml:"phone,omitempty" json:"phone,omitempty"`
}

// TimeRange is an operating-hours window, e.g. {Start: "09:00", End: "18:00"}.
// Slots are generated for [Start, End).
type TimeRange struct {
	Start string `yaml:"start" json:"start"`
	End   string `yaml:"end" json:"end"`
}

// Item is a bookable unit (a rentable room or rig) owned by a studio.
// Availability holds the OPEN hourly slots per date; a slot absent from
// Times is held or booked.
type Item struct {
	ID             int64              `yaml:"id" json:"id"`
	StudioID       int64              `yaml:"studio_id" json:"studio_id"`
	Name           string             `yaml:"name" json:"name"`
	Description    string             `yaml:"description,omitempty" json:"description,omitempty"`
	PricePerHour   float64            `yaml:"price_per_hour" json:"price_per_hour"`
	OperatingHours []TimeRange        `yaml:"operating_hours,omitempty" json:"operating_hours,omitempty"`
	OperatingDays  []string           `yaml:"operating_days,omitempty" json:"operating_days,omitempty"`
	Availability   []DateAvailability `yaml:"availability,omitempty" json:"availability,omitempty"`
	SortOrder      int64              `yaml:"sort_order" json:"sort_order"`
	IsActive       bool               `yaml:"is_active" json:"is_active"`
	CreatedAt      time.Time          `yaml:"-" json:"created_at"`
	UpdatedAt      time.Time          `yaml:"-" json:"updated_at"`
}

// DateAvailability is one calendar date's open slot set. Times are unique
// and sorted ascending. In the catalog it acts as a per-date override of
// the item's operating hours.
type DateAvailability struct {
	Date  string   `yaml:"date" json:"date"`
	Times []string `yaml:"times" json:"times"`
}

// AddOn is an extra priced service attached to a reservation.
// PricePer is either "hour" (multiplied by slot count) or "session".
type AddOn struct {
	ID       string  `yaml:"id" json:"id"`
	Name     string  `yaml:"name" json:"name"`
	Price    float64 `yaml:"price" json:"price"`
	PricePer string  `yaml:"price_per" json:"price_per"`
}
