package database

import (
	"context"
	"testing"
	"time"

	"studioz/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultHours = []string{"09:00", "10:00", "11:00", "12:00", "13:00", "14:00", "15:00", "16:00"}

func TestCreateReservationWithHold(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := "2026-01-15"

	r := testReservation(10, date, []string{"14:00", "15:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, r, defaultHours))
	assert.Equal(t, int64(1), r.Version)

	times, ok, err := db.GetDateTimes(ctx, 10, date)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotContains(t, times, "14:00")
	assert.NotContains(t, times, "15:00")
	assert.Contains(t, times, "09:00")

	stored, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, []string{"14:00", "15:00"}, stored.TimeSlots)
	assert.Equal(t, "cust-1", stored.CustomerID)
}

func TestCreateReservationWithHold_Overlap(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := "2026-01-15"

	first := testReservation(10, date, []string{"14:00", "15:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, first, defaultHours))

	// 15:00 is already held; the whole request fails, 16:00 is not taken.
	second := testReservation(10, date, []string{"15:00", "16:00"})
	err := db.CreateReservationWithHold(ctx, second, defaultHours)
	assert.ErrorIs(t, err, ErrSlotUnavailable)

	times, _, err := db.GetDateTimes(ctx, 10, date)
	require.NoError(t, err)
	assert.Contains(t, times, "16:00")

	_, err = db.GetReservation(ctx, second.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReleaseSlots(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	date := "2026-01-15"

	r := testReservation(10, date, []string{"14:00", "15:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, r, defaultHours))

	released, err := db.ReleaseSlots(ctx, 10, date, r.TimeSlots, defaultHours)
	require.NoError(t, err)
	assert.Contains(t, released, "14:00")
	assert.Contains(t, released, "15:00")
	assert.Equal(t, defaultHours, released)

	// Idempotent: releasing again changes nothing.
	again, err := db.ReleaseSlots(ctx, 10, date, r.TimeSlots, defaultHours)
	require.NoError(t, err)
	assert.Equal(t, released, again)
}

func TestReleaseSlots_SeedsUntouchedDate(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	times, err := db.ReleaseSlots(ctx, 10, "2026-02-01", []string{"10:00"}, []string{"09:00", "10:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00"}, times)
}

func TestUpdateReservationStatusWithVersion(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(10, "2026-01-15", []string{"09:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, r, defaultHours))

	require.NoError(t, db.UpdateReservationStatusWithVersion(ctx, r.ID, 1, models.StatusConfirmed))

	// Stale version loses the race.
	err := db.UpdateReservationStatusWithVersion(ctx, r.ID, 1, models.StatusCancelled)
	assert.ErrorIs(t, err, ErrConcurrentModification)

	stored, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, int64(2), stored.Version)
}

func TestConfirmReservation(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(10, "2026-01-15", []string{"09:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, r, defaultHours))

	require.NoError(t, db.ConfirmReservation(ctx, r.ID, 1, time.Now()))

	stored, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, stored.Status)
	assert.Equal(t, int64(2), stored.Version)

	// Confirming twice loses on both the status and version guards.
	err = db.ConfirmReservation(ctx, r.ID, 2, time.Now())
	assert.ErrorIs(t, err, ErrConcurrentModification)
}

func TestConfirmReservation_LapsedHoldRejected(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(10, "2026-01-15", []string{"09:00"})
	r.Expiration = time.Now().Add(-time.Second)
	require.NoError(t, db.CreateReservationWithHold(ctx, r, defaultHours))

	// The version matches but the deadline has passed, so the row stays
	// pending for the sweeper.
	err := db.ConfirmReservation(ctx, r.ID, 1, time.Now())
	assert.ErrorIs(t, err, ErrConcurrentModification)

	stored, err := db.GetReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, stored.Status)
	assert.Equal(t, int64(1), stored.Version)
}

func TestExpiredPendingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	overdue := testReservation(10, "2026-01-15", []string{"09:00"})
	overdue.Expiration = time.Now().Add(-time.Minute)
	require.NoError(t, db.CreateReservationWithHold(ctx, overdue, defaultHours))

	fresh := testReservation(10, "2026-01-15", []string{"10:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, fresh, defaultHours))

	expired, err := db.GetExpiredPending(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.Equal(t, overdue.ID, expired[0].ID)

	marked, err := db.MarkExpired(ctx, []string{overdue.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	// Second sweep finds nothing.
	expired, err = db.GetExpiredPending(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, expired)

	// Marking again is a no-op thanks to the status guard.
	marked, err = db.MarkExpired(ctx, []string{overdue.ID})
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestMarkExpired_SkipsConfirmed(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	r := testReservation(10, "2026-01-15", []string{"09:00"})
	r.Expiration = time.Now().Add(-time.Minute)
	require.NoError(t, db.CreateReservationWithHold(ctx, r, defaultHours))
	require.NoError(t, db.UpdateReservationStatusWithVersion(ctx, r.ID, 1, models.StatusConfirmed))

	marked, err := db.MarkExpired(ctx, []string{r.ID})
	require.NoError(t, err)
	assert.Zero(t, marked)
}

func TestDeleteExpiredBefore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	old := testReservation(10, "2025-11-01", []string{"09:00"})
	old.Expiration = time.Now().AddDate(0, 0, -40)
	require.NoError(t, db.CreateReservationWithHold(ctx, old, defaultHours))
	_, err := db.MarkExpired(ctx, []string{old.ID})
	require.NoError(t, err)

	deleted, err := db.DeleteExpiredBefore(ctx, time.Now().AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = db.GetReservation(ctx, old.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetReservationsByDateRange(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	inRange := testReservation(10, "2026-01-15", []string{"09:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, inRange, defaultHours))
	outOfRange := testReservation(10, "2026-03-01", []string{"09:00"})
	require.NoError(t, db.CreateReservationWithHold(ctx, outOfRange, defaultHours))

	start, _ := time.Parse(models.DateFormat, "2026-01-01")
	end, _ := time.Parse(models.DateFormat, "2026-01-31")
	got, err := db.GetReservationsByDateRange(ctx, start, end)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, inRange.ID, got[0].ID)
}
