package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"studioz/internal/cache"
	"studioz/internal/database"
	"studioz/internal/domain"
	"studioz/internal/events"
	"studioz/internal/models"
	"studioz/internal/slots"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ReservationService struct {
	store         domain.Store
	notifier      domain.Notifier
	cache         *cache.AvailabilityCache
	holdMinutes   int
	maxDays       int
	retentionDays int
	logger        *zerolog.Logger
}

func NewReservationService(
	store domain.Store,
	notifier domain.Notifier,
	availCache *cache.AvailabilityCache,
	holdMinutes, maxDays, retentionDays int,
	logger *zerolog.Logger,
) *ReservationService {
	if holdMinutes <= 0 {
		holdMinutes = models.DefaultHoldMinutes
	}
	if maxDays <= 0 {
		maxDays = 365
	}
	if retentionDays <= 0 {
		retentionDays = models.DefaultRetentionDays
	}
	return &ReservationService{
		store:         store,
		notifier:      notifier,
		cache:         availCache,
		holdMinutes:   holdMinutes,
		maxDays:       maxDays,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

func (s *ReservationService) ValidateReservationDate(date string) error {
	parsed, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", date, database.ErrInvalidInput)
	}

	// Проверяем, что дата не в прошлом
	if parsed.Before(time.Now().AddDate(0, 0, -1)) {
		return database.ErrPastDate
	}

	// Проверяем максимальную дату
	if parsed.After(time.Now().AddDate(0, 0, s.maxDays)) {
		return database.ErrDateTooFar
	}

	return nil
}

// defaultHoursFor resolves the full open-slot list an untouched date
// starts from: an explicit per-date override on the item wins, otherwise
// the operating-hours ranges apply. A closed weekday yields no slots.
func (s *ReservationService) defaultHoursFor(item *models.Item, date string) []string {
	for _, entry := range item.Availability {
		if entry.Date == date {
			return entry.Times
		}
	}

	parsed, err := time.Parse(models.DateFormat, date)
	if err != nil {
		return nil
	}
	if !slots.IsOperatingDay(parsed, item.OperatingDays) {
		return nil
	}
	return slots.HoursFromRanges(item.OperatingHours)
}

func (s *ReservationService) CreateReservation(ctx context.Context, req *models.CreateReservationRequest) (*models.Reservation, error) {
	if err := s.ValidateReservationDate(req.Date); err != nil {
		return nil, err
	}

	item, err := s.store.GetItemByID(req.ItemID)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, fmt.Errorf("item %d is not active: %w", item.ID, database.ErrNotFound)
	}

	requested, err := requestedSlots(req)
	if err != nil {
		return nil, err
	}

	defaultHours := s.defaultHoursFor(item, req.Date)
	if len(defaultHours) == 0 {
		return nil, fmt.Errorf("item %d is closed on %s: %w", item.ID, req.Date, database.ErrSlotUnavailable)
	}

	total, addOnIDs, err := s.priceReservation(ctx, item, requested, req.AddOnIDs)
	if err != nil {
		return nil, err
	}

	r := &models.Reservation{
		ID:         uuid.NewString(),
		ItemID:     item.ID,
		StudioID:   item.StudioID,
		CustomerID: req.CustomerID,
		Date:       req.Date,
		TimeSlots:  requested,
		Status:     models.StatusPending,
		Expiration: time.Now().Add(time.Duration(s.holdMinutes) * time.Minute),
		ItemPrice:  item.PricePerHour,
		TotalPrice: total,
		AddOnIDs:   addOnIDs,
		Comment:    req.Comment,
	}

	if err := s.store.CreateReservationWithHold(ctx, r, defaultHours); err != nil {
		return nil, err
	}

	if r.CustomerID != "" {
		entry := &models.CartEntry{
			ID:            uuid.NewString(),
			CustomerID:    r.CustomerID,
			ReservationID: r.ID,
			ItemID:        r.ItemID,
			Date:          r.Date,
		}
		// The hold already stands; a cart write failure must not undo it.
		if err := s.store.AddCartEntry(ctx, entry); err != nil {
			s.logger.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to add cart entry")
		}
	}

	s.announceSlotChange(ctx, r.ItemID, r.Date)
	s.notifier.ReservationChanged(ctx, events.EventReservationCreated, r)

	s.logger.Info().
		Str("reservation_id", r.ID).
		Int64("item_id", r.ItemID).
		Str("date", r.Date).
		Strs("slots", r.TimeSlots).
		Time("expiration", r.Expiration).
		Msg("reservation created")

	return r, nil
}

// requestedSlots normalizes the slot selection: an explicit list is
// deduplicated and sorted, otherwise start time and duration expand
// into consecutive hours.
func requestedSlots(req *models.CreateReservationRequest) ([]string, error) {
	if len(req.TimeSlots) > 0 {
		return slots.Add(nil, req.TimeSlots), nil
	}
	if req.StartTime != "" && req.DurationHours > 0 {
		return slots.Generate(req.StartTime, req.DurationHours), nil
	}
	return nil, fmt.Errorf("either time_slots or start_time with duration_hours is required: %w", database.ErrInvalidInput)
}

// priceReservation computes item price times slot count plus add-ons.
// Hourly add-ons multiply by the slot count, per-session ones are
// charged once.
func (s *ReservationService) priceReservation(ctx context.Context, item *models.Item, requested []string, addOnIDs []string) (float64, []string, error) {
	total := item.PricePerHour * float64(len(requested))
	if len(addOnIDs) == 0 {
		return total, nil, nil
	}

	addOns, err := s.store.GetAddOnsByIDs(ctx, addOnIDs)
	if err != nil {
		return 0, nil, err
	}
	if len(addOns) != len(addOnIDs) {
		return 0, nil, fmt.Errorf("unknown add-on in %v: %w", addOnIDs, database.ErrNotFound)
	}

	resolved := make([]string, 0, len(addOns))
	for _, a := range addOns {
		switch a.PricePer {
		case models.PricePerHour:
			total += a.Price * float64(len(requested))
		default:
			total += a.Price
		}
		resolved = append(resolved, a.ID)
	}
	return total, resolved, nil
}

func (s *ReservationService) ConfirmReservation(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Status != models.StatusPending {
		return nil, fmt.Errorf("reservation %s is %s: %w", id, r.Status, database.ErrInvalidStatus)
	}

	now := time.Now()
	if r.IsExpired(now) {
		// The hold lapsed before the sweeper got to it; expire it now
		// instead of confirming a dead hold.
		s.expireReservations(ctx, []*models.Reservation{r})
		return nil, fmt.Errorf("hold on reservation %s lapsed at %s: %w",
			id, r.Expiration.Format(time.RFC3339), database.ErrReservationExpired)
	}

	if err := s.store.ConfirmReservation(ctx, id, r.Version, now); err != nil {
		if errors.Is(err, database.ErrConcurrentModification) {
			// Either lost the race to the sweeper or the deadline guard
			// rejected a confirm that slipped past the in-memory check.
			if current, getErr := s.store.GetReservation(ctx, id); getErr == nil {
				if current.Status == models.StatusExpired {
					return nil, fmt.Errorf("reservation %s already expired: %w", id, database.ErrReservationExpired)
				}
				if current.IsExpired(time.Now()) {
					s.expireReservations(ctx, []*models.Reservation{current})
					return nil, fmt.Errorf("hold on reservation %s lapsed at %s: %w",
						id, current.Expiration.Format(time.RFC3339), database.ErrReservationExpired)
				}
			}
		}
		return nil, err
	}

	updated, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.notifier.ReservationChanged(ctx, events.EventReservationConfirmed, updated)
	s.logger.Info().Str("reservation_id", id).Msg("reservation confirmed")
	return updated, nil
}

func (s *ReservationService) CancelReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return s.releaseAndTransition(ctx, id, models.StatusCancelled, events.EventReservationCancelled,
		models.StatusPending, models.StatusConfirmed)
}

func (s *ReservationService) RejectReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return s.releaseAndTransition(ctx, id, models.StatusRejected, events.EventReservationRejected,
		models.StatusPending)
}

// releaseAndTransition moves a reservation to a terminal status, gives
// its slots back and prunes cart pointers.
func (s *ReservationService) releaseAndTransition(ctx context.Context, id, toStatus, eventType string, allowedFrom ...string) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, status := range allowedFrom {
		if r.Status == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("reservation %s is %s: %w", id, r.Status, database.ErrInvalidStatus)
	}

	if err := s.store.UpdateReservationStatusWithVersion(ctx, id, r.Version, toStatus); err != nil {
		return nil, err
	}

	if _, err := s.store.ReleaseSlots(ctx, r.ItemID, r.Date, r.TimeSlots, s.releaseDefaults(r)); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", id).Msg("failed to release slots")
	}

	if _, err := s.store.RemoveCartEntriesByReservationIDs(ctx, []string{id}); err != nil {
		s.logger.Error().Err(err).Str("reservation_id", id).Msg("failed to prune cart entries")
	}

	updated, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	s.announceSlotChange(ctx, r.ItemID, r.Date)
	s.notifier.ReservationChanged(ctx, eventType, updated)
	s.logger.Info().Str("reservation_id", id).Str("status", toStatus).Msg("reservation closed")
	return updated, nil
}

func (s *ReservationService) GetReservation(ctx context.Context, id string) (*models.Reservation, error) {
	return s.store.GetReservation(ctx, id)
}

func (s *ReservationService) GetCustomerReservations(ctx context.Context, customerID string) ([]*models.Reservation, error) {
	return s.store.GetCustomerReservations(ctx, customerID)
}

func (s *ReservationService) GetCart(ctx context.Context, customerID string) ([]*models.CartEntry, error) {
	return s.store.GetCartEntries(ctx, customerID)
}

func (s *ReservationService) GetReservationsByDateRange(ctx context.Context, start, end time.Time) ([]*models.Reservation, error) {
	return s.store.GetReservationsByDateRange(ctx, start, end)
}

// GetAvailability returns the open slots for an item and date without
// touching the stored state. Untouched dates report their default hours.
func (s *ReservationService) GetAvailability(ctx context.Context, itemID int64, date string) ([]string, error) {
	if err := s.ValidateReservationDate(date); err != nil {
		return nil, err
	}

	item, err := s.store.GetItemByID(itemID)
	if err != nil {
		return nil, err
	}

	if times, hit := s.cache.Get(ctx, itemID, date); hit {
		return times, nil
	}

	times, seeded, err := s.store.GetDateTimes(ctx, itemID, date)
	if err != nil {
		return nil, err
	}
	if !seeded {
		times = s.defaultHoursFor(item, date)
	}

	s.cache.Set(ctx, itemID, date, times)
	return times, nil
}

// RescheduleOptions lists the start times on the target date that can
// fit the reservation's slot count in consecutive hours.
func (s *ReservationService) RescheduleOptions(ctx context.Context, reservationID, date string) ([]string, error) {
	r, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return nil, err
	}

	available, err := s.GetAvailability(ctx, r.ItemID, date)
	if err != nil {
		return nil, err
	}

	starts := make([]string, 0, len(available))
	for _, start := range available {
		if slots.AllAvailable(slots.Generate(start, len(r.TimeSlots)), available) {
			starts = append(starts, start)
		}
	}
	return starts, nil
}

// ExpirePendingReservations releases lapsed holds. Slots come back
// first, then cart pointers go, then the rows flip to expired; a crash
// mid-way leaves rows for the next sweep thanks to idempotent release.
func (s *ReservationService) ExpirePendingReservations(ctx context.Context) (int, error) {
	lapsed, err := s.store.GetExpiredPending(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to list lapsed holds: %w", err)
	}
	if len(lapsed) == 0 {
		return 0, nil
	}

	return s.expireReservations(ctx, lapsed), nil
}

func (s *ReservationService) expireReservations(ctx context.Context, lapsed []*models.Reservation) int {
	released := make([]*models.Reservation, 0, len(lapsed))
	ids := make([]string, 0, len(lapsed))

	for _, r := range lapsed {
		if _, err := s.store.ReleaseSlots(ctx, r.ItemID, r.Date, r.TimeSlots, s.releaseDefaults(r)); err != nil {
			// Left pending; the next sweep picks it up again.
			s.logger.Error().Err(err).Str("reservation_id", r.ID).Msg("failed to release lapsed hold")
			continue
		}
		released = append(released, r)
		ids = append(ids, r.ID)
	}

	if len(ids) == 0 {
		return 0
	}

	if _, err := s.store.RemoveCartEntriesByReservationIDs(ctx, ids); err != nil {
		s.logger.Error().Err(err).Msg("failed to prune cart entries for expired holds")
	}

	marked, err := s.store.MarkExpired(ctx, ids)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to mark holds expired")
		return 0
	}

	for _, r := range released {
		s.announceSlotChange(ctx, r.ItemID, r.Date)
		expired := *r
		expired.Status = models.StatusExpired
		s.notifier.ReservationChanged(ctx, events.EventReservationExpired, &expired)
	}

	s.logger.Info().Int64("count", marked).Msg("expired lapsed holds")
	return int(marked)
}

// CleanupOldExpiredReservations deletes expired rows past retention.
func (s *ReservationService) CleanupOldExpiredReservations(ctx context.Context) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.store.DeleteExpiredBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info().Int64("count", deleted).Time("cutoff", cutoff).Msg("cleaned up old expired reservations")
	}
	return deleted, nil
}

// releaseDefaults resolves the default hours for a slot release. An item
// that has left the catalog does not block the release; the untouched-date
// seed just starts empty.
func (s *ReservationService) releaseDefaults(r *models.Reservation) []string {
	item, err := s.store.GetItemByID(r.ItemID)
	if err != nil {
		s.logger.Warn().Err(err).Str("reservation_id", r.ID).Msg("item missing from catalog, releasing without default hours")
		return nil
	}
	return s.defaultHoursFor(item, r.Date)
}

func (s *ReservationService) announceSlotChange(ctx context.Context, itemID int64, date string) {
	s.cache.Invalidate(ctx, itemID, date)
	s.notifier.AvailabilityUpdated(ctx, itemID, date)
}
