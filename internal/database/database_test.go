package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"studioz/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"), &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	db.SetCatalog(
		[]models.Studio{{ID: 1, Name: "Downtown Studios"}},
		[]models.Item{{
			ID:           10,
			StudioID:     1,
			Name:         "Rehearsal Room A",
			PricePerHour: 100,
			IsActive:     true,
		}},
	)
	return db
}

func testReservation(itemID int64, date string, timeSlots []string) *models.Reservation {
	return &models.Reservation{
		ID:         uuid.NewString(),
		ItemID:     itemID,
		StudioID:   1,
		CustomerID: "cust-1",
		Date:       date,
		TimeSlots:  timeSlots,
		Status:     models.StatusPending,
		Expiration: time.Now().Add(15 * time.Minute),
		ItemPrice:  100,
		TotalPrice: 100 * float64(len(timeSlots)),
	}
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	logger := zerolog.Nop()
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
}

func TestCatalogLookups(t *testing.T) {
	db := setupTestDB(t)

	item, err := db.GetItemByID(10)
	require.NoError(t, err)
	assert.Equal(t, "Rehearsal Room A", item.Name)

	_, err = db.GetItemByID(999)
	assert.ErrorIs(t, err, ErrNotFound)

	studio, err := db.GetStudioByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Downtown Studios", studio.Name)

	assert.Len(t, db.GetItems(), 1)
}

func TestAddOns(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	err := db.SyncAddOns(ctx, []models.AddOn{
		{ID: "engineer", Name: "Sound Engineer", Price: 20, PricePer: models.PricePerHour},
		{ID: "mic-kit", Name: "Microphone Kit", Price: 20, PricePer: models.PricePerSession},
	})
	require.NoError(t, err)

	// Upsert overwrites the price.
	err = db.SyncAddOns(ctx, []models.AddOn{
		{ID: "engineer", Name: "Sound Engineer", Price: 25, PricePer: models.PricePerHour},
	})
	require.NoError(t, err)

	addOns, err := db.GetAddOnsByIDs(ctx, []string{"engineer", "mic-kit", "missing"})
	require.NoError(t, err)
	assert.Len(t, addOns, 2)

	byID := map[string]*models.AddOn{}
	for _, a := range addOns {
		byID[a.ID] = a
	}
	assert.Equal(t, 25.0, byID["engineer"].Price)

	empty, err := db.GetAddOnsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestCartEntries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	first := &models.CartEntry{
		ID: uuid.NewString(), CustomerID: "cust-1",
		ReservationID: "res-1", ItemID: 10, Date: "2026-01-15",
	}
	second := &models.CartEntry{
		ID: uuid.NewString(), CustomerID: "cust-2",
		ReservationID: "res-2", ItemID: 10, Date: "2026-01-16",
	}
	require.NoError(t, db.AddCartEntry(ctx, first))
	require.NoError(t, db.AddCartEntry(ctx, second))

	// One statement removes pointers across customers.
	removed, err := db.RemoveCartEntriesByReservationIDs(ctx, []string{"res-1", "res-2"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	entries, err := db.GetCartEntries(ctx, "cust-1")
	require.NoError(t, err)
	assert.Empty(t, entries)

	removed, err = db.RemoveCartEntriesByReservationIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
