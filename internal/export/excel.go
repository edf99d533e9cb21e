package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"studioz/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

// Catalog resolves item names for export rows.
type Catalog interface {
	GetItemByID(id int64) (*models.Item, error)
}

// Exporter writes reservation reports as XLSX files.
type Exporter struct {
	path    string
	catalog Catalog
	logger  *zerolog.Logger
}

func NewExporter(path string, catalog Catalog, logger *zerolog.Logger) *Exporter {
	return &Exporter{path: path, catalog: catalog, logger: logger}
}

// ReservationsToExcel writes the reservations for a period into a
// spreadsheet and returns the file path.
func (e *Exporter) ReservationsToExcel(reservations []*models.Reservation, startDate, endDate time.Time) (string, error) {
	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reservations"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheetName, "A1", fmt.Sprintf("Period: %s - %s",
		startDate.Format("02.01.2006"), endDate.Format("02.01.2006")))
	_ = f.MergeCell(sheetName, "A1", "I1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headers := []string{"ID", "Room", "Date", "Slots", "Status", "Customer", "Price", "Comment", "Created"}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for i, r := range reservations {
		row := i + 3

		itemName := fmt.Sprintf("item %d", r.ItemID)
		if item, err := e.catalog.GetItemByID(r.ItemID); err == nil {
			itemName = item.Name
		}

		_ = f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), r.ID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), itemName)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), r.Date)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), strings.Join(r.TimeSlots, ", "))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), r.Status)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), r.CustomerID)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), r.TotalPrice)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), r.Comment)
		_ = f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), r.CreatedAt.Format("02.01.2006 15:04"))

		if styleID, err := statusStyle(f, r.Status); err == nil {
			cell := fmt.Sprintf("E%d", row)
			_ = f.SetCellStyle(sheetName, cell, cell, styleID)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 38)
	_ = f.SetColWidth(sheetName, "B", "B", 25)
	_ = f.SetColWidth(sheetName, "C", "I", 16)
	_ = f.SetColWidth(sheetName, "D", "D", 30)

	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservations_%s_to_%s.xlsx",
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	e.logger.Info().Str("file_path", filePath).Int("rows", len(reservations)).Msg("Excel file created")
	return filePath, nil
}

func statusStyle(f *excelize.File, status string) (int, error) {
	var color string
	switch status {
	case models.StatusConfirmed:
		color = "#C6EFCE"
	case models.StatusPending:
		color = "#FFEB9C"
	case models.StatusCancelled, models.StatusRejected, models.StatusExpired:
		color = "#FFC7CE"
	default:
		color = "#FFFFFF"
	}
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
	})
}
