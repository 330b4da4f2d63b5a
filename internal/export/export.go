// Package export renders booking listings as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"time"

	"shareit/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName   = "Bookings"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var headers = []string{"ID", "Item", "Booker", "Start", "End", "Status"}

// statusFills colours the status cell of each row.
var statusFills = map[models.BookingStatus]string{
	models.StatusWaiting:  "#FFEB9C",
	models.StatusApproved: "#C6EFCE",
	models.StatusRejected: "#FFC7CE",
}

// WriteBookingsXLSX writes one row per booking, in the given order, to w.
func WriteBookingsXLSX(w io.Writer, bookings []*models.Booking) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("error removing default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("error creating header style: %w", err)
	}
	for col, title := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		_ = f.SetCellValue(SheetName, cell, title)
		_ = f.SetCellStyle(SheetName, cell, cell, headerStyle)
	}

	styles := make(map[models.BookingStatus]int, len(statusFills))
	for status, color := range statusFills {
		style, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		})
		if err != nil {
			return fmt.Errorf("error creating status style: %w", err)
		}
		styles[status] = style
	}

	for i, b := range bookings {
		row := i + 2
		values := []any{
			b.ID,
			b.ItemName,
			b.BookerName,
			b.Start.UTC().Format(time.RFC3339),
			b.End.UTC().Format(time.RFC3339),
			string(b.Status),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(SheetName, cell, v); err != nil {
				return fmt.Errorf("error writing cell %s: %w", cell, err)
			}
		}
		if style, ok := styles[b.Status]; ok {
			cell, _ := excelize.CoordinatesToCellName(len(values), row)
			_ = f.SetCellStyle(SheetName, cell, cell, style)
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 8)
	_ = f.SetColWidth(SheetName, "B", "C", 25)
	_ = f.SetColWidth(SheetName, "D", "E", 22)
	_ = f.SetColWidth(SheetName, "F", "F", 12)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}
