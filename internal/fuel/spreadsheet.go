package fuel

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zombor/fuel-tracker/internal/extract"
)

// XLSXContentType is the MIME type of exported workbooks
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	exportSheet   = "Yakit_Kayitlari"
	templateSheet = "Veri Girişi Şablonu"
)

// ColumnMapping names the spreadsheet column holding each trip field. Empty
// entries are guessed from the header row.
type ColumnMapping struct {
	Date        string `json:"date"`
	Odometer    string `json:"odometer"`
	Distance    string `json:"distance"`
	Consumption string `json:"consumption"`
	FuelPrice   string `json:"fuel_price"`
}

// ImportResult reports what an import saved
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Mapping  ColumnMapping `json:"mapping"`
	Trips    []*Trip       `json:"trips"`
}

var lowerTurkish = cases.Lower(language.Turkish)

// guessColumn returns the first header containing one of the keywords,
// trying keywords in order
func guessColumn(headers []string, keywords ...string) string {
	lower := make([]string, len(headers))
	for i, h := range headers {
		lower[i] = lowerTurkish.String(h)
	}
	for _, k := range keywords {
		for i, h := range lower {
			if strings.Contains(h, k) {
				return headers[i]
			}
		}
	}
	return ""
}

func (m ColumnMapping) withGuesses(headers []string) ColumnMapping {
	if m.Date == "" {
		m.Date = guessColumn(headers, "tarih", "date", "zaman")
	}
	if m.Odometer == "" {
		m.Odometer = guessColumn(headers, "güncel", "current", "odo", "sayaç")
	}
	if m.Distance == "" {
		m.Distance = guessColumn(headers, "yapılan", "distance", "mesafe", "trip")
	}
	if m.Consumption == "" {
		m.Consumption = guessColumn(headers, "ortalama", "avg", "consumption", "tüketim")
	}
	if m.FuelPrice == "" {
		m.FuelPrice = guessColumn(headers, "fiyat", "price", "tutar", "cost")
	}
	return m
}

// cellNumber reads a cell as a plain number first, then with the receipt
// number rules so "6,5" is accepted
func cellNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v, true
	}
	return extract.ParseNumber(s)
}

// cellWhole reads a whole-number cell such as an odometer reading, where
// "45.231" groups thousands
func cellWhole(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	return extract.ParseWhole(s)
}

var cellDateLayouts = []string{"2006-01-02", "02.01.2006", "2.1.2006", "02/01/2006", "01-02-06"}

// cellDate reads an Excel serial date or a formatted date string
func cellDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if serial, err := strconv.ParseFloat(s, 64); err == nil {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, false
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	for _, layout := range cellDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ImportTrips saves the rows of the first sheet as trips. Rows without a
// positive distance and consumption are skipped, unreadable dates fall back
// to today.
func (s *Service) ImportTrips(data []byte, mapping ColumnMapping) (*ImportResult, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %v: %w", err, ErrInvalidInput)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", ErrInvalidInput)
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("sheet %s has no data rows: %w", sheets[0], ErrInvalidInput)
	}

	headers := rows[0]
	mapping = mapping.withGuesses(headers)
	if mapping.Distance == "" || mapping.Consumption == "" {
		return nil, fmt.Errorf("distance and consumption columns are required: %w", ErrInvalidInput)
	}

	index := make(map[string]int, len(headers))
	for i, h := range headers {
		index[h] = i
	}
	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	now := s.timeSource.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	result := &ImportResult{Mapping: mapping, Trips: make([]*Trip, 0, len(rows)-1)}

	for _, row := range rows[1:] {
		distance, ok := cellNumber(cell(row, mapping.Distance))
		if !ok || distance <= 0 {
			result.Skipped++
			continue
		}
		consumption, ok := cellNumber(cell(row, mapping.Consumption))
		if !ok || consumption <= 0 {
			result.Skipped++
			continue
		}

		date, ok := cellDate(cell(row, mapping.Date))
		if !ok {
			date = today
		}

		trip := &Trip{
			ID:          s.idGenerator.Generate(),
			Date:        date,
			Distance:    distance,
			Consumption: &consumption,
			Source:      MethodImport,
			CreatedAt:   now,
		}
		if odometer, ok := cellWhole(cell(row, mapping.Odometer)); ok && odometer > 0 {
			trip.Odometer = &odometer
		}
		if price, ok := cellNumber(cell(row, mapping.FuelPrice)); ok && price > 0 {
			trip.FuelPrice = &price
		}
		trip.derive()

		if err := s.db.SaveTrip(trip); err != nil {
			return nil, fmt.Errorf("saving imported trip: %w", err)
		}
		result.Trips = append(result.Trips, trip)
		result.Imported++
	}

	slog.Info("Imported trips", "imported", result.Imported, "skipped", result.Skipped)
	return result, nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func newWorkbook(sheet string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	return f, nil
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func optional(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

// ExportTrips writes every trip, oldest first, to an XLSX workbook that
// ImportTrips can read back
func (s *Service) ExportTrips() ([]byte, error) {
	trips, err := s.ListTrips()
	if err != nil {
		return nil, err
	}

	f, err := newWorkbook(exportSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	err = writeRow(f, exportSheet, 1,
		"Tarih",
		"Güncel KM",
		"Yapılan KM",
		"Ort. Tüketim (L/100km)",
		"Benzin Fiyatı (TL)",
		"Harcanan Yakıt (L)",
		"Maliyet (TL)",
		"KM Başı Maliyet (TL)",
		"Notlar",
	)
	if err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	for i := range trips {
		t := trips[len(trips)-1-i]
		var cost any = ""
		if t.Cost != nil {
			cost = toLira(*t.Cost)
		}
		err := writeRow(f, exportSheet, i+2,
			t.Date.Format("2006-01-02"),
			optional(t.Odometer),
			t.Distance,
			optional(t.Consumption),
			optional(t.FuelPrice),
			optional(t.FuelConsumed),
			cost,
			optional(t.CostPerKm),
			t.Notes,
		)
		if err != nil {
			return nil, fmt.Errorf("writing trip %s: %w", t.ID, err)
		}
	}

	_ = f.SetColWidth(exportSheet, "A", "A", 12)
	_ = f.SetColWidth(exportSheet, "B", "H", 16)
	_ = f.SetColWidth(exportSheet, "I", "I", 40)

	return workbookBytes(f)
}

// TripTemplate returns an empty import workbook with one example row
func (s *Service) TripTemplate() ([]byte, error) {
	f, err := newWorkbook(templateSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := writeRow(f, templateSheet, 1, "Tarih", "Güncel KM", "Yapılan KM", "Ortalama Tüketim", "Benzin Fiyatı"); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	today := s.timeSource.Now().Format("2006-01-02")
	if err := writeRow(f, templateSheet, 2, today, 15000, 45, 6.5, 42.50); err != nil {
		return nil, fmt.Errorf("writing example: %w", err)
	}

	return workbookBytes(f)
}
