package export

import (
	"io"
	"testing"
	"time"

	"studioz/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type fakeCatalog struct{}

func (fakeCatalog) GetItemByID(id int64) (*models.Item, error) {
	return &models.Item{ID: id, Name: "Rehearsal Room A"}, nil
}

func TestReservationsToExcel(t *testing.T) {
	logger := zerolog.New(io.Discard)
	e := NewExporter(t.TempDir(), fakeCatalog{}, &logger)

	reservations := []*models.Reservation{
		{
			ID:         "res-1",
			ItemID:     10,
			Date:       "2026-01-15",
			TimeSlots:  []string{"14:00", "15:00"},
			Status:     models.StatusConfirmed,
			CustomerID: "cust-1",
			TotalPrice: 200,
			CreatedAt:  time.Now(),
		},
		{
			ID:        "res-2",
			ItemID:    10,
			Date:      "2026-01-16",
			TimeSlots: []string{"09:00"},
			Status:    models.StatusExpired,
			CreatedAt: time.Now(),
		},
	}

	start, _ := time.Parse(models.DateFormat, "2026-01-15")
	end, _ := time.Parse(models.DateFormat, "2026-01-16")

	path, err := e.ReservationsToExcel(reservations, start, end)
	require.NoError(t, err)
	assert.FileExists(t, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	id, err := f.GetCellValue("Reservations", "A3")
	require.NoError(t, err)
	assert.Equal(t, "res-1", id)

	room, err := f.GetCellValue("Reservations", "B3")
	require.NoError(t, err)
	assert.Equal(t, "Rehearsal Room A", room)

	slots, err := f.GetCellValue("Reservations", "D3")
	require.NoError(t, err)
	assert.Equal(t, "14:00, 15:00", slots)

	status, err := f.GetCellValue("Reservations", "E4")
	require.NoError(t, err)
	assert.Equal(t, models.StatusExpired, status)
}
