package slots

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"studioz/internal/models"
)

// Pure slot-set arithmetic over canonical hour labels ("HH:00").
// All functions return new values; callers persist results explicitly.

// Initialize returns the existing availability list or an empty one.
func Initialize(existing []models.DateAvailability) []models.DateAvailability {
	if existing == nil {
		return []models.DateAvailability{}
	}
	return existing
}

// FindOrCreateDate returns the availability entry for date, creating one
// seeded with defaultHours when absent. The (possibly extended) list is
// returned alongside the entry.
func FindOrCreateDate(availability []models.DateAvailability, date string, defaultHours []string) ([]models.DateAvailability, models.DateAvailability) {
	for _, entry := range availability {
		if entry.Date == date {
			return availability, entry
		}
	}

	entry := models.DateAvailability{Date: date, Times: Add(nil, defaultHours)}
	out := make([]models.DateAvailability, len(availability), len(availability)+1)
	copy(out, availability)
	out = append(out, entry)
	return out, entry
}

// Generate returns durationHours consecutive hour labels starting at
// startTime's hour. Hours wrap at 24.
func Generate(startTime string, durationHours int) []string {
	start := hourOf(startTime)
	out := make([]string, 0, durationHours)
	for i := 0; i < durationHours; i++ {
		out = append(out, fmt.Sprintf("%02d:00", (start+i)%24))
	}
	return out
}

// AllAvailable reports whether every requested slot is in available.
func AllAvailable(requested, available []string) bool {
	set := make(map[string]struct{}, len(available))
	for _, s := range available {
		set[s] = struct{}{}
	}
	for _, s := range requested {
		if _, ok := set[s]; !ok {
			return false
		}
	}
	return true
}

// Remove returns available minus toRemove, order preserved.
func Remove(available, toRemove []string) []string {
	drop := make(map[string]struct{}, len(toRemove))
	for _, s := range toRemove {
		drop[s] = struct{}{}
	}
	out := make([]string, 0, len(available))
	for _, s := range available {
		if _, ok := drop[s]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// Add returns the deduplicated union of available and toAdd in ascending
// order. String sort is sufficient for zero-padded "HH:00" labels.
func Add(available, toAdd []string) []string {
	set := make(map[string]struct{}, len(available)+len(toAdd))
	for _, s := range available {
		set[s] = struct{}{}
	}
	for _, s := range toAdd {
		set[s] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// HoursFromRanges expands operating-hours ranges into the enumerated
// hourly slots in [start, end), deduplicated and sorted. Empty ranges
// yield the full 24-hour set.
func HoursFromRanges(ranges []models.TimeRange) []string {
	if len(ranges) == 0 {
		return fullDay()
	}

	var hours []string
	for _, r := range ranges {
		start := hourOf(r.Start)
		end := hourOf(r.End)
		for h := start; h < end; h++ {
			hours = append(hours, fmt.Sprintf("%02d:00", h))
		}
	}
	if len(hours) == 0 {
		return fullDay()
	}
	return Add(nil, hours)
}

// IsOperatingDay reports whether date's weekday name is in operatingDays.
// An empty list means open every day.
func IsOperatingDay(date time.Time, operatingDays []string) bool {
	if len(operatingDays) == 0 {
		return true
	}
	weekday := date.Weekday().String()
	for _, d := range operatingDays {
		if strings.EqualFold(strings.TrimSpace(d), weekday) {
			return true
		}
	}
	return false
}

func fullDay() []string {
	out := make([]string, 0, 24)
	for h := 0; h < 24; h++ {
		out = append(out, fmt.Sprintf("%02d:00", h))
	}
	return out
}

// hourOf parses the hour component of "HH:00"-shaped input. Malformed
// values degrade to hour 0; format validation happens upstream.
func hourOf(s string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(s), ":")
	h, err := strconv.Atoi(head)
	if err != nil || h < 0 || h > 23 {
		return 0
	}
	return h
}
