package fuel

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Maintenance", func() {
	var (
		db      *mockDB
		idGen   *mockIDGenerator
		service *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		idGen = &mockIDGenerator{id: "m1"}
		service = NewServiceWithDeps(db, nil, nil, newMockStorage(), idGen,
			&mockTimeSource{now: time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)})
		db.trips["t1"] = &Trip{ID: "t1", Date: day(2026, 10, 1), Odometer: float(44800)}
		db.purchases["p1"] = &Purchase{ID: "p1", Date: day(2026, 10, 10), Odometer: float(45000)}
	})

	Describe("CreateMaintenance", func() {
		var (
			input  MaintenanceInput
			report *MaintenanceReport
			err    error
		)

		BeforeEach(func() {
			input = MaintenanceInput{Title: "Yağ değişimi", IntervalKm: float(10000)}
		})

		JustBeforeEach(func() {
			report, err = service.CreateMaintenance(input)
		})

		When("only a title and an interval are given", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should default to a distance based item", func() {
				Expect(report.Kind).To(Equal(MaintenanceByKm))
			})

			It("should start from the highest odometer in the log", func() {
				Expect(report.LastKm).To(Equal(45000.0))
				Expect(report.NextDueKm).To(Equal(55000.0))
			})

			It("should warn 1000 km ahead", func() {
				Expect(report.NotifyBeforeKm).To(Equal(1000.0))
			})

			It("should report the remaining distance", func() {
				Expect(report.Status).To(Equal(MaintenanceOK))
				Expect(*report.RemainingKm).To(Equal(10000.0))
				Expect(report.RemainingDays).To(BeNil())
			})

			It("should save the item", func() {
				Expect(db.maintenance).To(HaveKey("m1"))
			})
		})

		When("the last service odometer is given", func() {
			BeforeEach(func() {
				input.LastKm = float(44000)
				input.NotifyBeforeKm = float(500)
			})

			It("should count the interval from it", func() {
				Expect(report.NextDueKm).To(Equal(54000.0))
				Expect(report.NotifyBeforeKm).To(Equal(500.0))
			})
		})

		When("the item is date based", func() {
			BeforeEach(func() {
				input = MaintenanceInput{Title: "Muayene", Kind: MaintenanceByDate, DueDate: "2026-11-01"}
			})

			It("should warn 30 days ahead", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(report.NotifyBeforeDays).To(Equal(30))
			})

			It("should report the remaining days", func() {
				Expect(*report.RemainingDays).To(Equal(15))
				Expect(report.Status).To(Equal(MaintenanceWarning))
				Expect(report.RemainingKm).To(BeNil())
			})
		})

		When("the log is empty", func() {
			BeforeEach(func() {
				db.trips = map[string]*Trip{}
				db.purchases = map[string]*Purchase{}
			})

			It("should start from zero", func() {
				Expect(report.NextDueKm).To(Equal(10000.0))
			})
		})

		DescribeTable("rejecting invalid input",
			func(mutate func(*MaintenanceInput)) {
				input := MaintenanceInput{Title: "Yağ değişimi", IntervalKm: float(10000)}
				mutate(&input)
				_, err := service.CreateMaintenance(input)
				Expect(errors.Is(err, ErrInvalidInput)).To(BeTrue())
				Expect(db.maintenance).To(BeEmpty())
			},
			Entry("blank title", func(in *MaintenanceInput) { in.Title = "  " }),
			Entry("unknown type", func(in *MaintenanceInput) { in.Kind = "hours" }),
			Entry("missing interval", func(in *MaintenanceInput) { in.IntervalKm = nil }),
			Entry("zero interval", func(in *MaintenanceInput) { in.IntervalKm = float(0) }),
			Entry("negative last km", func(in *MaintenanceInput) { in.LastKm = float(-1) }),
			Entry("negative notice", func(in *MaintenanceInput) { in.NotifyBeforeKm = float(-1) }),
			Entry("date item without a due date", func(in *MaintenanceInput) { in.Kind = MaintenanceByDate }),
			Entry("malformed due date", func(in *MaintenanceInput) {
				in.Kind = MaintenanceByBoth
				in.DueDate = "01.11.2026"
			}),
			Entry("negative day notice", func(in *MaintenanceInput) {
				in.Kind = MaintenanceByDate
				in.DueDate = "2026-11-01"
				days := -1
				in.NotifyBeforeDays = &days
			}),
		)

		When("saving fails", func() {
			BeforeEach(func() {
				db.saveErr = errors.New("disk full")
			})

			It("should return the error", func() {
				Expect(err).To(MatchError(ContainSubstring("disk full")))
			})
		})
	})

	Describe("status", func() {
		today := day(2026, 10, 17)

		DescribeTable("distance based items",
			func(odometer float64, status MaintenanceStatus) {
				item := &MaintenanceItem{Kind: MaintenanceByKm, NextDueKm: 55000, NotifyBeforeKm: 1000}
				Expect(maintenanceReport(item, odometer, today).Status).To(Equal(status))
			},
			Entry("far from due", 53000.0, MaintenanceOK),
			Entry("inside the notice", 54500.0, MaintenanceWarning),
			Entry("exactly at the notice", 54000.0, MaintenanceWarning),
			Entry("exactly due", 55000.0, MaintenanceWarning),
			Entry("overdue", 55500.0, MaintenanceCritical),
		)

		DescribeTable("date based items",
			func(due time.Time, status MaintenanceStatus) {
				item := &MaintenanceItem{Kind: MaintenanceByDate, DueDate: &due, NotifyBeforeDays: 30}
				Expect(maintenanceReport(item, 0, today).Status).To(Equal(status))
			},
			Entry("far from due", day(2026, 12, 31), MaintenanceOK),
			Entry("inside the notice", day(2026, 11, 1), MaintenanceWarning),
			Entry("due today", day(2026, 10, 17), MaintenanceWarning),
			Entry("overdue", day(2026, 10, 10), MaintenanceCritical),
		)

		It("should take the worse status for items due both ways", func() {
			due := day(2026, 10, 10)
			item := &MaintenanceItem{
				Kind:             MaintenanceByBoth,
				NextDueKm:        55000,
				NotifyBeforeKm:   1000,
				DueDate:          &due,
				NotifyBeforeDays: 30,
			}
			report := maintenanceReport(item, 45000, today)
			Expect(report.Status).To(Equal(MaintenanceCritical))
			Expect(*report.RemainingKm).To(Equal(10000.0))
			Expect(*report.RemainingDays).To(Equal(-7))
		})
	})

	Describe("listing", func() {
		BeforeEach(func() {
			inspection := day(2026, 10, 20)
			db.maintenance["a"] = &MaintenanceItem{ID: "a", Title: "Lastik rotasyonu", Kind: MaintenanceByKm, NextDueKm: 50000, NotifyBeforeKm: 1000}
			db.maintenance["b"] = &MaintenanceItem{ID: "b", Title: "Yağ değişimi", Kind: MaintenanceByKm, NextDueKm: 45500, NotifyBeforeKm: 1000}
			db.maintenance["c"] = &MaintenanceItem{ID: "c", Title: "Muayene", Kind: MaintenanceByDate, DueDate: &inspection, NotifyBeforeDays: 30}
		})

		It("should order items by urgency", func() {
			reports, err := service.ListMaintenance()
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(3))
			Expect(reports[0].ID).To(Equal("c"))
			Expect(reports[1].ID).To(Equal("b"))
			Expect(reports[2].ID).To(Equal("a"))
		})

		It("should only return items needing attention when asked for due ones", func() {
			reports, err := service.DueMaintenance()
			Expect(err).NotTo(HaveOccurred())
			Expect(reports).To(HaveLen(2))
			Expect(reports[0].Status).To(Equal(MaintenanceWarning))
			Expect(reports[1].ID).To(Equal("b"))
		})

		It("should return a single item with its status", func() {
			report, err := service.GetMaintenance("b")
			Expect(err).NotTo(HaveOccurred())
			Expect(*report.RemainingKm).To(Equal(500.0))
			Expect(report.Status).To(Equal(MaintenanceWarning))
		})

		It("returns ErrNotFound for a missing item", func() {
			_, err := service.GetMaintenance("missing")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("disk error")
			})

			It("should return the error", func() {
				_, err := service.ListMaintenance()
				Expect(err).To(MatchError(ContainSubstring("disk error")))
			})
		})
	})

	Describe("CompleteMaintenance", func() {
		BeforeEach(func() {
			inspection := day(2026, 10, 20)
			db.maintenance["oil"] = &MaintenanceItem{ID: "oil", Title: "Yağ değişimi", Kind: MaintenanceByKm, IntervalKm: 10000, LastKm: 35000, NextDueKm: 45000, NotifyBeforeKm: 1000}
			db.maintenance["insp"] = &MaintenanceItem{ID: "insp", Title: "Muayene", Kind: MaintenanceByDate, DueDate: &inspection, NotifyBeforeDays: 30}
		})

		It("should restart a distance based item from the current odometer", func() {
			report, err := service.CompleteMaintenance("oil", MaintenanceDone{})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.LastKm).To(Equal(45000.0))
			Expect(report.NextDueKm).To(Equal(55000.0))
			Expect(report.Status).To(Equal(MaintenanceOK))
			Expect(db.maintenance["oil"].UpdatedAt).To(Equal(time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)))
		})

		It("should restart from the given odometer", func() {
			report, err := service.CompleteMaintenance("oil", MaintenanceDone{Odometer: float(44000)})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.NextDueKm).To(Equal(54000.0))
		})

		It("should move a date based item to the new due date", func() {
			report, err := service.CompleteMaintenance("insp", MaintenanceDone{DueDate: "2028-10-20"})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.DueDate.Format("2006-01-02")).To(Equal("2028-10-20"))
			Expect(report.Status).To(Equal(MaintenanceOK))
		})

		It("should require a due date for date based items", func() {
			_, err := service.CompleteMaintenance("insp", MaintenanceDone{})
			Expect(errors.Is(err, ErrInvalidInput)).To(BeTrue())
		})

		It("should reject a negative odometer", func() {
			_, err := service.CompleteMaintenance("oil", MaintenanceDone{Odometer: float(-5)})
			Expect(errors.Is(err, ErrInvalidInput)).To(BeTrue())
		})

		It("returns ErrNotFound for a missing item", func() {
			_, err := service.CompleteMaintenance("missing", MaintenanceDone{})
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})

	Describe("DeleteMaintenance", func() {
		BeforeEach(func() {
			db.maintenance["m1"] = &MaintenanceItem{ID: "m1", Title: "Yağ değişimi"}
		})

		It("should remove the item", func() {
			Expect(service.DeleteMaintenance("m1")).To(Succeed())
			Expect(db.maintenance).To(BeEmpty())
		})

		It("returns ErrNotFound for a missing item", func() {
			err := service.DeleteMaintenance("missing")
			Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
		})
	})
})
