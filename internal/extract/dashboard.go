package extract

import (
	"regexp"
	"strings"
)

var (
	odometerKmRe   = regexp.MustCompile(`(?:^|[^\d.,])(\d{1,3}[.,]\d{3}|\d{4,6})\s*KM(?:[^/A-Z]|$)`)
	odometerBareRe = regexp.MustCompile(`(?:^|[^\d.,:/])(\d{4,6})(?:[^\d.,:/]|$)`)

	// Ordered by reliability; later patterns are fallbacks.
	consumptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*L\s*/\s*100`),
		regexp.MustCompile(`(?:ORTALAMA|AVERAGE|AVG|ORT)\.?\s*:?\s*(\d+(?:[.,]\d+)?)`),
		regexp.MustCompile(`(\d+[.,]\d+)\s*L(?:[^A-Z]|$)`),
	}
	distancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:YOLCULUK|MESAFE|GUNLUK|TRIP)\s*[AB]?\s*:?\s*(\d+(?:[.,]\d+)?)`),
		regexp.MustCompile(`(?:^|[^\d.,/])(\d+(?:[.,]\d+)?)\s*KM(?:[^/A-Z]|$)`),
	}
	avgSpeedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:ORT\.?\s*HIZ|AVG\.?\s*SPEED|Ø)\s*:?\s*(\d+(?:[.,]\d+)?)`),
		regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*KM\s*/\s*H`),
	}
)

var dashboardFields = []func(p *Parser, text string, out *DashboardData){
	func(p *Parser, text string, out *DashboardData) {
		if v, ok := extractOdometer(text, p.limits.Odometer); ok {
			out.Odometer = ptr(v)
		}
	},
	func(p *Parser, text string, out *DashboardData) {
		if v, ok := firstInRange(text, consumptionPatterns, p.limits.DashboardConsumption); ok {
			out.Consumption = ptr(v)
		}
	},
	func(p *Parser, text string, out *DashboardData) {
		if v, ok := firstInRange(text, distancePatterns, p.limits.DashboardDistance); ok {
			out.Distance = ptr(v)
		}
	},
	func(p *Parser, text string, out *DashboardData) {
		if v, ok := firstInRange(text, avgSpeedPatterns, p.limits.AvgSpeed); ok {
			out.AvgSpeed = ptr(v)
		}
	},
}

// Dashboard extracts odometer, consumption, trip distance and average speed
// from OCR text of an instrument cluster. Glyph repair runs after upper
// casing and only touches numeric runs.
func (p *Parser) Dashboard(text string) DashboardData {
	normalized := FixGlyphs(upperFold(text))
	out := DashboardData{RawText: text}
	for _, field := range dashboardFields {
		field(p, normalized, &out)
	}
	return out
}

// extractOdometer prefers numbers carrying a KM unit and falls back to bare
// 4-6 digit tokens that are not part of a decimal, a date or a time.
func extractOdometer(text string, r Range) (float64, bool) {
	for _, re := range []*regexp.Regexp{odometerKmRe, odometerBareRe} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, ok := parseFinite(digitsOnly(m[1]))
			if ok && r.Contains(v) {
				return v, true
			}
		}
	}
	return 0, false
}

// firstInRange tries the patterns in order and returns the first captured
// value inside r
func firstInRange(text string, patterns []*regexp.Regexp, r Range) (float64, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v, ok := ParseNumber(strings.TrimSpace(m[1]))
			if ok && r.Contains(v) {
				return v, true
			}
		}
	}
	return 0, false
}
