// Package report renders booking exports for the admin console.
package report

import (
	"fmt"
	"io"
	"math"
	"time"

	"carrental/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Bookings"
	summarySheet  = "Summary"
)

var bookingHeaders = []string{
	"ID", "Car", "Customer", "Email", "From", "To", "Status",
	"Total", "Penalty", "Displayed total", "Card", "Pickup", "Comment", "Checked out",
	"Days",
}

// Lookup resolves the names shown next to booking ids.
type Lookup struct {
	Cars     []models.Car
	Accounts []models.Account
	Places   []models.Place
}

// WriteBookings writes an xlsx workbook with one row per booking and a
// per-status summary sheet.
func WriteBookings(w io.Writer, bookings []models.Booking, lookup Lookup) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(bookingsSheet)
	if err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}
	_ = f.DeleteSheet("Sheet1")

	if err := writeHeader(f, bookingsSheet, bookingHeaders); err != nil {
		return err
	}

	cars := make(map[int64]models.Car, len(lookup.Cars))
	for _, c := range lookup.Cars {
		cars[c.ID] = c
	}
	accounts := make(map[string]models.Account, len(lookup.Accounts))
	for _, a := range lookup.Accounts {
		accounts[a.ID] = a
	}
	places := make(map[string]models.Place, len(lookup.Places))
	for _, p := range lookup.Places {
		places[p.ID] = p
	}

	for i, b := range bookings {
		row := i + 2
		carName := fmt.Sprintf("#%d", b.CarID)
		if c, ok := cars[b.CarID]; ok {
			carName = c.DisplayName()
		}
		acc := accounts[b.UserID]
		var comment, pickup string
		if b.Comment != nil {
			comment = *b.Comment
		}
		if b.PlaceID != nil {
			pickup = *b.PlaceID
			if p, ok := places[pickup]; ok {
				pickup = p.Name
			}
		}

		values := []interface{}{
			b.ID, carName, acc.Name, acc.Email, b.DateTimeFrom, b.DateTo, b.Status.Label(),
			b.Total, b.PenaltyAmount(), b.DisplayedTotal(), "**** " + b.Last4CC, pickup, comment,
			b.CheckedOutTime().UTC().Format(time.RFC3339), rentalDays(b),
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(bookingsSheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 6)
	_ = f.SetColWidth(bookingsSheet, "B", "F", 20)
	_ = f.SetColWidth(bookingsSheet, "G", "L", 14)
	_ = f.SetColWidth(bookingsSheet, "M", "N", 28)
	_ = f.SetColWidth(bookingsSheet, "O", "O", 6)

	if err := writeSummary(f, bookings); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// rentalDays is the billed day count, 0 when either date does not parse.
func rentalDays(b models.Booking) int {
	start, end := b.StartTime(), b.EndTime()
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return 0
	}
	return int(math.Ceil(float64(end.Sub(start).Milliseconds()) / models.DayMs))
}

func writeSummary(f *excelize.File, bookings []models.Booking) error {
	if err := writeHeader(f, summarySheet, []string{"Status", "Bookings", "Revenue"}); err != nil {
		return err
	}

	counts := make(map[models.BookingStatus]int)
	revenue := make(map[models.BookingStatus]float64)
	for _, b := range bookings {
		counts[b.Status]++
		revenue[b.Status] += b.DisplayedTotal()
	}

	row := 2
	var totalCount int
	var totalRevenue float64
	for _, s := range models.Statuses {
		values := []interface{}{s.Label(), counts[s], revenue[s]}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
		totalCount += counts[s]
		totalRevenue += revenue[s]
		row++
	}

	values := []interface{}{"Total", totalCount, totalRevenue}
	cell, _ := excelize.CoordinatesToCellName(1, row)
	if err := f.SetSheetRow(summarySheet, cell, &values); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		_ = f.SetCellStyle(summarySheet, cell, fmt.Sprintf("C%d", row), style)
	}
	_ = f.SetColWidth(summarySheet, "A", "C", 16)
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	values := make([]interface{}, len(headers))
	for i, h := range headers {
		values[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &values); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	return f.SetCellStyle(sheet, "A1", last, style)
}
