package export

import (
	"fmt"

	"sharekeep/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Bookings"

// BookingsReport renders the owner's bookings as an XLSX workbook.
func BookingsReport(bookings []models.BookingView) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headers := []string{"ID", "Item", "Booker", "Email", "Start", "End", "Status"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheetName, cell, h)
	}

	style, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	_ = f.SetCellStyle(sheetName, "A1", "G1", style)

	for row, b := range bookings {
		values := []interface{}{
			b.ID,
			b.Item.Name,
			b.Booker.Name,
			b.Booker.Email,
			b.Start.Format("2006-01-02 15:04"),
			b.End.Format("2006-01-02 15:04"),
			b.Status,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheetName, cell, v)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "G", 20)
	_ = f.DeleteSheet("Sheet1")

	return f, nil
}
