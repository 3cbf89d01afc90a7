package fuel

import (
	"bytes"
	"fmt"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

// sequenceIDGenerator hands out trip-1, trip-2, ...
type sequenceIDGenerator struct {
	n int
}

func (g *sequenceIDGenerator) Generate() string {
	g.n++
	return fmt.Sprintf("trip-%d", g.n)
}

func workbook(rows ...[]any) []byte {
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		Expect(err).NotTo(HaveOccurred())
		Expect(f.SetSheetRow("Sheet1", cell, &row)).To(Succeed())
	}
	buf, err := f.WriteToBuffer()
	Expect(err).NotTo(HaveOccurred())
	return buf.Bytes()
}

var _ = Describe("Spreadsheets", func() {
	var (
		db      *mockDB
		timeSrc *mockTimeSource
		service *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		timeSrc = &mockTimeSource{now: time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, nil, nil, newMockStorage(), &sequenceIDGenerator{}, timeSrc)
	})

	Describe("ImportTrips", func() {
		var (
			data    []byte
			mapping ColumnMapping
			result  *ImportResult
			err     error
		)

		BeforeEach(func() {
			mapping = ColumnMapping{}
			data = workbook(
				[]any{"Date", "Distance", "Avg consumption", "Price"},
				[]any{"16.10.2026", "120", "6,8", "44.9"},
				[]any{"", "0", "6", ""},
				[]any{"15.10.2026", "50"},
			)
		})

		JustBeforeEach(func() {
			result, err = service.ImportTrips(data, mapping)
		})

		When("the headers can be guessed", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should map the columns", func() {
				Expect(result.Mapping).To(Equal(ColumnMapping{
					Date:        "Date",
					Distance:    "Distance",
					Consumption: "Avg consumption",
					FuelPrice:   "Price",
				}))
			})

			It("should skip rows without distance or consumption", func() {
				Expect(result.Imported).To(Equal(1))
				Expect(result.Skipped).To(Equal(2))
			})

			It("should save the trip with derived values", func() {
				Expect(db.trips).To(HaveKey("trip-1"))
				trip := db.trips["trip-1"]
				Expect(trip.Date).To(Equal(day(2026, 10, 16)))
				Expect(trip.Distance).To(Equal(120.0))
				Expect(*trip.Consumption).To(Equal(6.8))
				Expect(*trip.FuelPrice).To(Equal(44.9))
				Expect(*trip.FuelConsumed).To(Equal(8.16))
				Expect(trip.Source).To(Equal(MethodImport))
			})
		})

		When("a column mapping is given", func() {
			BeforeEach(func() {
				data = workbook(
					[]any{"Gün", "Kilometre", "L/100"},
					[]any{"2026-10-01", 80, 5.5},
				)
				mapping = ColumnMapping{Date: "Gün", Distance: "Kilometre", Consumption: "L/100"}
			})

			It("should use it", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(result.Imported).To(Equal(1))
				Expect(result.Trips[0].Date).To(Equal(day(2026, 10, 1)))
				Expect(result.Trips[0].FuelPrice).To(BeNil())
				Expect(result.Trips[0].Cost).To(BeNil())
			})
		})

		When("the date cannot be read", func() {
			BeforeEach(func() {
				data = workbook(
					[]any{"Tarih", "Yapılan KM", "Ortalama Tüketim"},
					[]any{"dün", 80, 5.5},
				)
			})

			It("should use today", func() {
				Expect(result.Trips[0].Date).To(Equal(day(2026, 10, 17)))
			})
		})

		When("no consumption column is found", func() {
			BeforeEach(func() {
				data = workbook(
					[]any{"Tarih", "Mesafe"},
					[]any{"2026-10-01", 80},
				)
			})

			It("returns ErrInvalidInput", func() {
				Expect(err).To(MatchError(ErrInvalidInput))
			})
		})

		When("the sheet has only a header", func() {
			BeforeEach(func() {
				data = workbook([]any{"Tarih", "Mesafe"})
			})

			It("returns ErrInvalidInput", func() {
				Expect(err).To(MatchError(ErrInvalidInput))
			})
		})

		When("the file is not a workbook", func() {
			BeforeEach(func() {
				data = []byte("Tarih,Mesafe\n")
			})

			It("returns ErrInvalidInput", func() {
				Expect(err).To(MatchError(ErrInvalidInput))
			})
		})
	})

	Describe("TripTemplate", func() {
		It("should import as one example trip", func() {
			data, err := service.TripTemplate()
			Expect(err).NotTo(HaveOccurred())

			result, err := service.ImportTrips(data, ColumnMapping{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Imported).To(Equal(1))

			trip := result.Trips[0]
			Expect(trip.Date).To(Equal(day(2026, 10, 17)))
			Expect(*trip.Odometer).To(Equal(15000.0))
			Expect(trip.Distance).To(Equal(45.0))
			Expect(*trip.Cost).To(Equal(12431))
		})
	})

	Describe("ExportTrips", func() {
		BeforeEach(func() {
			first := &Trip{ID: "a", Date: day(2026, 10, 1), Odometer: float(45000), Distance: 100, Consumption: float(6.5), FuelPrice: float(45), Notes: "işe gidiş"}
			first.derive()
			second := &Trip{ID: "b", Date: day(2026, 10, 2), Distance: 20, Consumption: float(7)}
			second.derive()
			db.trips["a"] = first
			db.trips["b"] = second
		})

		It("should write a header and one row per trip, oldest first", func() {
			data, err := service.ExportTrips()
			Expect(err).NotTo(HaveOccurred())

			f, err := excelize.OpenReader(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			Expect(f.GetSheetList()).To(Equal([]string{"Yakit_Kayitlari"}))
			rows, err := f.GetRows("Yakit_Kayitlari")
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(3))
			Expect(rows[0][0]).To(Equal("Tarih"))
			Expect(rows[1][0]).To(Equal("2026-10-01"))
			Expect(rows[1][8]).To(Equal("işe gidiş"))
			Expect(rows[2][0]).To(Equal("2026-10-02"))
		})

		It("should read back through ImportTrips", func() {
			data, err := service.ExportTrips()
			Expect(err).NotTo(HaveOccurred())

			other := NewServiceWithDeps(newMockDB(), nil, nil, newMockStorage(), &sequenceIDGenerator{}, timeSrc)
			result, err := other.ImportTrips(data, ColumnMapping{})
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Imported).To(Equal(2))
			Expect(result.Mapping.Consumption).To(Equal("Ort. Tüketim (L/100km)"))
			Expect(*result.Trips[0].Cost).To(Equal(*db.trips["a"].Cost))
			Expect(*result.Trips[0].Odometer).To(Equal(45000.0))
		})
	})

	Describe("cellWhole", func() {
		It("should read grouped thousands", func() {
			v, ok := cellWhole("45.231")
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(45231.0))
		})

		It("should reject an empty cell", func() {
			_, ok := cellWhole(" ")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("cellDate", func() {
		It("should read Excel serial dates", func() {
			date, ok := cellDate("45658")
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(day(2025, 1, 1)))
		})

		It("should read Turkish formatted dates", func() {
			date, ok := cellDate("05.03.2026")
			Expect(ok).To(BeTrue())
			Expect(date).To(Equal(day(2026, 3, 5)))
		})

		It("should reject anything else", func() {
			_, ok := cellDate("yesterday")
			Expect(ok).To(BeFalse())
		})
	})
})
