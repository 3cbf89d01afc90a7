package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseDashboard", func() {
	var (
		text string
		data DashboardData
	)

	JustBeforeEach(func() {
		data = ParseDashboard(text)
	})

	When("all readouts are visible", func() {
		BeforeEach(func() {
			text = "ODO 45231 km\nORT 6,8 L/100km\nTRIP A 345,6 km"
		})

		It("should read the odometer", func() {
			Expect(data.Odometer).NotTo(BeNil())
			Expect(*data.Odometer).To(Equal(45231.0))
		})

		It("should read the consumption", func() {
			Expect(data.Consumption).NotTo(BeNil())
			Expect(*data.Consumption).To(BeNumerically("~", 6.8, 1e-9))
		})

		It("should read the trip distance", func() {
			Expect(data.Distance).NotTo(BeNil())
			Expect(*data.Distance).To(BeNumerically("~", 345.6, 1e-9))
		})

		It("should keep the raw text", func() {
			Expect(data.RawText).To(Equal(text))
		})
	})

	When("OCR confused a digit with a letter", func() {
		BeforeEach(func() {
			text = "ODO 45O31 KM"
		})

		It("should repair the odometer", func() {
			Expect(*data.Odometer).To(Equal(45031.0))
		})
	})

	When("the odometer is out of range", func() {
		BeforeEach(func() {
			text = "1234567 KM"
		})

		It("should leave it unset", func() {
			Expect(data.Odometer).To(BeNil())
		})
	})

	When("only a date and a time are shown", func() {
		BeforeEach(func() {
			text = "17.10.2026 14:22"
		})

		It("should not mistake the year for the odometer", func() {
			Expect(data.Odometer).To(BeNil())
		})
	})

	When("the keyword consumption is implausible", func() {
		BeforeEach(func() {
			text = "ORTALAMA 30,5\n5,9 L"
		})

		It("should fall back to the generic pattern", func() {
			Expect(data.Consumption).NotTo(BeNil())
			Expect(*data.Consumption).To(BeNumerically("~", 5.9, 1e-9))
		})
	})

	When("distance has no keyword", func() {
		BeforeEach(func() {
			text = "45231 KM\n128,4 KM"
		})

		It("should skip implausible distances", func() {
			Expect(*data.Distance).To(BeNumerically("~", 128.4, 1e-9))
		})

		It("should still read the odometer", func() {
			Expect(*data.Odometer).To(Equal(45231.0))
		})
	})

	When("the unit L/100KM is the only km mention", func() {
		BeforeEach(func() {
			text = "6,8 L/100KM"
		})

		It("should not read a distance", func() {
			Expect(data.Distance).To(BeNil())
		})

		It("should read the consumption", func() {
			Expect(*data.Consumption).To(BeNumerically("~", 6.8, 1e-9))
		})
	})

	When("the average speed is shown", func() {
		BeforeEach(func() {
			text = "ORT. HIZ 52 KM/H"
		})

		It("should read the speed", func() {
			Expect(data.AvgSpeed).NotTo(BeNil())
			Expect(*data.AvgSpeed).To(Equal(52.0))
		})

		It("should not read it as consumption or distance", func() {
			Expect(data.Consumption).To(BeNil())
			Expect(data.Distance).To(BeNil())
		})
	})

	When("the average speed sits on the upper bound", func() {
		BeforeEach(func() {
			text = "ORT. HIZ 250 KM/H"
		})

		It("should keep it", func() {
			Expect(data.AvgSpeed).NotTo(BeNil())
			Expect(*data.AvgSpeed).To(Equal(250.0))
		})
	})

	When("the average speed is above the upper bound", func() {
		BeforeEach(func() {
			text = "ORT. HIZ 251 KM/H"
		})

		It("should drop it", func() {
			Expect(data.AvgSpeed).To(BeNil())
		})
	})

	When("the text is empty", func() {
		BeforeEach(func() {
			text = ""
		})

		It("should return an empty result", func() {
			Expect(data.Empty()).To(BeTrue())
		})
	})
})

var _ = Describe("Parser limits", func() {
	It("should apply custom ranges", func() {
		limits := DefaultLimits
		limits.DashboardConsumption = Range{Min: 3, Max: 5}
		data := New(limits).Dashboard("ORT 6,8 L/100")
		Expect(data.Consumption).To(BeNil())
	})
})
