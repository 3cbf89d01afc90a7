package fuel

import (
	"encoding/json"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Statistics", func() {
	var (
		db      *mockDB
		timeSrc *mockTimeSource
		service *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		timeSrc = &mockTimeSource{now: time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, nil, nil, newMockStorage(), &mockIDGenerator{id: "id"}, timeSrc)
	})

	Describe("Summary", func() {
		var (
			year    string
			summary *Summary
			err     error
		)

		BeforeEach(func() {
			year = ""
			db.purchases["p1"] = &Purchase{ID: "p1", Date: day(2026, 3, 1), Amount: 100000, Liters: 40, PricePerLiter: 25}
			db.purchases["p2"] = &Purchase{ID: "p2", Date: day(2025, 12, 1), Amount: 50000, Liters: 20, PricePerLiter: 25}
			cost := 17500
			db.trips["t1"] = &Trip{
				ID:           "t1",
				Date:         day(2026, 3, 2),
				Distance:     100,
				FuelPrice:    float(30),
				FuelConsumed: float(7),
				Cost:         &cost,
			}
			db.trips["t2"] = &Trip{ID: "t2", Date: day(2026, 3, 3), Distance: 50}
		})

		JustBeforeEach(func() {
			summary, err = service.Summary(year)
		})

		When("summarising all time", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.Year).To(Equal("all"))
			})

			It("should total every purchase", func() {
				Expect(summary.PurchaseCount).To(Equal(2))
				Expect(summary.TotalSpent).To(Equal(150000))
				Expect(summary.TotalLiters).To(Equal(60.0))
			})

			It("should weight the average price by liters", func() {
				Expect(summary.WeightedAvgPrice).To(Equal(25.0))
			})

			It("should total every trip", func() {
				Expect(summary.TripCount).To(Equal(2))
				Expect(summary.TotalDistance).To(Equal(150.0))
				Expect(summary.TotalCost).To(Equal(17500))
			})

			It("should average consumption over trips with fuel use only", func() {
				Expect(summary.AvgConsumption).To(Equal(7.0))
			})

			It("should average cost over the total distance", func() {
				Expect(summary.AvgCostPerKm).To(Equal(1.17))
			})

			It("should report the newest fuel price", func() {
				Expect(summary.LastFuelPrice).To(Equal(30.0))
			})
		})

		When("summarising one year", func() {
			BeforeEach(func() {
				year = "2025"
			})

			It("should only count that year", func() {
				Expect(summary.Year).To(Equal("2025"))
				Expect(summary.PurchaseCount).To(Equal(1))
				Expect(summary.TotalSpent).To(Equal(50000))
				Expect(summary.TripCount).To(BeZero())
				Expect(summary.AvgConsumption).To(BeZero())
			})
		})

		When("the year is malformed", func() {
			BeforeEach(func() {
				year = "26"
			})

			It("returns ErrInvalidInput", func() {
				Expect(err).To(MatchError(ErrInvalidInput))
			})
		})

		When("the log is empty", func() {
			BeforeEach(func() {
				db = newMockDB()
				service = NewServiceWithDeps(db, nil, nil, newMockStorage(), &mockIDGenerator{id: "id"}, timeSrc)
			})

			It("should return zero values", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.WeightedAvgPrice).To(BeZero())
				Expect(summary.LastFuelPrice).To(BeZero())
			})
		})
	})

	Describe("lastFuelPrice", func() {
		var purchases []*Purchase

		BeforeEach(func() {
			purchases = []*Purchase{{Date: day(2026, 5, 1), PricePerLiter: 44}}
		})

		It("should prefer the trip when dated the same day", func() {
			trips := []*Trip{{Date: day(2026, 5, 1), FuelPrice: float(45)}}
			price, ok := lastFuelPrice(purchases, trips)
			Expect(ok).To(BeTrue())
			Expect(price).To(Equal(45.0))
		})

		It("should prefer a strictly newer purchase", func() {
			trips := []*Trip{{Date: day(2026, 4, 30), FuelPrice: float(45)}}
			price, _ := lastFuelPrice(purchases, trips)
			Expect(price).To(Equal(44.0))
		})

		It("should report false without prices", func() {
			_, ok := lastFuelPrice(nil, []*Trip{{Date: day(2026, 5, 1)}})
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Budget", func() {
		It("should return the default budget when none is saved", func() {
			Expect(service.GetBudget()).To(Equal(DefaultBudget))
		})

		It("should return a saved budget", func() {
			budget := Budget{MonthlyLimit: 200000, Enabled: true, WarningThreshold: 90}
			Expect(service.SetBudget(budget)).To(Succeed())
			Expect(service.GetBudget()).To(Equal(budget))
		})

		It("should reject a negative limit", func() {
			Expect(service.SetBudget(Budget{MonthlyLimit: -1, WarningThreshold: 80})).To(MatchError(ErrInvalidInput))
		})

		It("should reject a threshold outside 1 to 100", func() {
			Expect(service.SetBudget(Budget{MonthlyLimit: 1, WarningThreshold: 0})).To(MatchError(ErrInvalidInput))
			Expect(service.SetBudget(Budget{MonthlyLimit: 1, WarningThreshold: 101})).To(MatchError(ErrInvalidInput))
		})
	})

	Describe("BudgetStatus", func() {
		var (
			month  string
			status *BudgetStatus
			err    error
		)

		BeforeEach(func() {
			month = ""
			data, _ := json.Marshal(Budget{MonthlyLimit: 100000, Enabled: true, WarningThreshold: 80})
			db.settings[budgetSetting] = data
			db.purchases["p1"] = &Purchase{ID: "p1", Date: day(2026, 10, 3), Amount: 50000}
			db.purchases["p2"] = &Purchase{ID: "p2", Date: day(2026, 10, 15), Amount: 35000}
			db.purchases["p3"] = &Purchase{ID: "p3", Date: day(2026, 9, 30), Amount: 99999}
		})

		JustBeforeEach(func() {
			status, err = service.BudgetStatus(month)
		})

		When("checking the current month", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(status.Month).To(Equal("2026-10"))
			})

			It("should only count purchases of the month", func() {
				Expect(status.Spent).To(Equal(85000))
				Expect(status.Remaining).To(Equal(15000))
			})

			It("should warn past the threshold", func() {
				Expect(status.Percent).To(Equal(85.0))
				Expect(status.Warning).To(BeTrue())
				Expect(status.Exceeded).To(BeFalse())
			})

			It("should count the days left after today", func() {
				Expect(status.RemainingDays).To(Equal(14))
			})
		})

		When("the budget is exceeded", func() {
			BeforeEach(func() {
				db.purchases["p4"] = &Purchase{ID: "p4", Date: day(2026, 10, 16), Amount: 30000}
			})

			It("should not report a negative remainder", func() {
				Expect(status.Exceeded).To(BeTrue())
				Expect(status.Remaining).To(BeZero())
				Expect(status.Percent).To(Equal(115.0))
			})
		})

		When("the budget is disabled", func() {
			BeforeEach(func() {
				data, _ := json.Marshal(Budget{MonthlyLimit: 100000, Enabled: false, WarningThreshold: 80})
				db.settings[budgetSetting] = data
			})

			It("should not warn", func() {
				Expect(status.Warning).To(BeFalse())
			})

			When("the spending is over the limit", func() {
				BeforeEach(func() {
					db.purchases["p4"] = &Purchase{ID: "p4", Date: day(2026, 10, 16), Amount: 30000}
				})

				It("should not flag it as exceeded", func() {
					Expect(status.Percent).To(Equal(115.0))
					Expect(status.Exceeded).To(BeFalse())
				})
			})
		})

		When("checking a past month", func() {
			BeforeEach(func() {
				month = "2026-09"
			})

			It("should have no days left", func() {
				Expect(status.Spent).To(Equal(99999))
				Expect(status.RemainingDays).To(BeZero())
			})
		})

		When("checking a future month", func() {
			BeforeEach(func() {
				month = "2026-11"
			})

			It("should count the whole month", func() {
				Expect(status.Spent).To(BeZero())
				Expect(status.RemainingDays).To(Equal(30))
			})
		})

		When("the month is malformed", func() {
			BeforeEach(func() {
				month = "10/2026"
			})

			It("returns ErrInvalidInput", func() {
				Expect(err).To(MatchError(ErrInvalidInput))
			})
		})
	})
})
