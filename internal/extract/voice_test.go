package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseVoice", func() {
	var (
		transcript string
		data       VoiceData
	)

	JustBeforeEach(func() {
		data = ParseVoice(transcript)
	})

	When("numbers are spelled out", func() {
		BeforeEach(func() {
			transcript = "elli kilometre yaptım tüketim altı virgül beş"
		})

		It("should read the distance", func() {
			Expect(data.Distance).NotTo(BeNil())
			Expect(*data.Distance).To(Equal(50.0))
		})

		It("should read the consumption", func() {
			Expect(data.Consumption).NotTo(BeNil())
			Expect(*data.Consumption).To(Equal(6.5))
		})

		It("should not read a price", func() {
			Expect(data.FuelPrice).To(BeNil())
		})
	})

	When("numbers are dictated as digits", func() {
		BeforeEach(func() {
			transcript = "50 km yaptım, 6.5 tüketim"
		})

		It("should read both values", func() {
			Expect(*data.Distance).To(Equal(50.0))
			Expect(*data.Consumption).To(Equal(6.5))
		})
	})

	When("the transcript is upper-case Turkish", func() {
		BeforeEach(func() {
			transcript = "TÜKETİM 7 VİRGÜL 2"
		})

		It("should still match the keywords", func() {
			Expect(*data.Consumption).To(BeNumerically("~", 7.2, 1e-9))
		})
	})

	When("half is spoken", func() {
		BeforeEach(func() {
			transcript = "altı buçuk litre"
		})

		It("should add a half", func() {
			Expect(*data.Consumption).To(Equal(6.5))
		})
	})

	When("the first consumption pattern is implausible", func() {
		BeforeEach(func() {
			transcript = "45 litre aldım ortalama 7"
		})

		It("should fall back to the next pattern", func() {
			Expect(*data.Consumption).To(Equal(7.0))
		})
	})

	When("a fuel price is spoken", func() {
		BeforeEach(func() {
			transcript = "bir litre benzin 45 lira"
		})

		It("should read the price", func() {
			Expect(data.FuelPrice).NotTo(BeNil())
			Expect(*data.FuelPrice).To(Equal(45.0))
		})

		It("should not take the article as a quantity", func() {
			Expect(data.Consumption).To(BeNil())
		})
	})

	When("the price is implausible", func() {
		BeforeEach(func() {
			transcript = "fiyat 150"
		})

		It("should discard it", func() {
			Expect(data.FuelPrice).To(BeNil())
		})
	})

	When("the price is given per liter", func() {
		BeforeEach(func() {
			transcript = "litresi 44 nokta 90"
		})

		It("should read the decimal price", func() {
			Expect(*data.FuelPrice).To(BeNumerically("~", 44.90, 1e-9))
		})
	})

	When("the transcript is unintelligible", func() {
		BeforeEach(func() {
			transcript = "merhaba nasılsın"
		})

		It("should return an empty result", func() {
			Expect(data).To(Equal(VoiceData{}))
		})
	})
})

var _ = Describe("spellNumbers", func() {
	DescribeTable("cardinals",
		func(input, expected string) {
			Expect(spellNumbers(input)).To(Equal(expected))
		},
		Entry("compound hundreds", "iki yüz elli km", "250 km"),
		Entry("thousands", "bin iki yüz", "1200"),
		Entry("tens and units", "elli altı", "56"),
		Entry("separate numbers", "beş altı", "5 6"),
		Entry("plain hundred", "yüz", "100"),
		Entry("lone article", "bir litre", "bir litre"),
		Entry("article next to a number", "bir , beş", "1 , 5"),
		Entry("trailing punctuation", "elli, tamam", "50, tamam"),
	)

	It("should join a spoken half", func() {
		Expect(prepareTranscript("bir buçuk")).To(Equal("1.5"))
	})
})
