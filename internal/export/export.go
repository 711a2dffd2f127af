package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"parkspot-backend/internal/model"
)

var header = []string{
	"id", "user_email", "sub_spot_id", "start_time", "end_time",
	"status", "vehicle_type", "comment", "created_at",
}

func row(b model.Booking) []string {
	return []string{
		strconv.FormatInt(b.ID, 10),
		b.User.Email,
		strconv.FormatInt(b.SubSpotID, 10),
		b.StartTime.UTC().Format(time.RFC3339),
		b.EndTime.UTC().Format(time.RFC3339),
		b.Status,
		b.VehicleType,
		b.Comment,
		b.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// WriteBookingsCSV renders the bookings as CSV with a header row.
func WriteBookingsCSV(w io.Writer, bookings []model.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, b := range bookings {
		if err := cw.Write(row(b)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// BookingsXLSX builds an Excel workbook with one sheet of bookings for the
// requested period. The caller owns closing the returned file.
func BookingsXLSX(bookings []model.Booking, from, to time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	const sheet = "Bookings"
	index, err := f.NewSheet(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	_ = f.SetCellValue(sheet, "A1", fmt.Sprintf("Period: %s - %s",
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02")))

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheet, "A1", "A1", titleStyle)
	lastCol, _ := excelize.ColumnNumberToName(len(header))
	_ = f.MergeCell(sheet, "A1", lastCol+"1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font: &excelize.Font{Bold: true},
	})
	for i, h := range header {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(sheet, cell, h)
		_ = f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for r, b := range bookings {
		for c, v := range row(b) {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+3)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}

	_ = f.SetColWidth(sheet, "A", lastCol, 22)
	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// FileName builds the download name for an export over [from, to].
func FileName(ext string, from, to time.Time) string {
	return fmt.Sprintf("bookings_%s_to_%s.%s",
		from.UTC().Format("2006-01-02"), to.UTC().Format("2006-01-02"), ext)
}
