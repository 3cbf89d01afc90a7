package extract

import (
	"regexp"
	"strings"
)

var (
	spokenSeparators = strings.NewReplacer("virgül", ",", "nokta", ".", "buçuk", ".5")
	spokenDecimal    = regexp.MustCompile(`(\d)\s*([.,])\s*(\d)`)

	voiceDistancePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+[.,]?\d*)\s*(?:km|kilometre)`),
		regexp.MustCompile(`(\d+[.,]?\d*)\s*(?:yol|mesafe)`),
		regexp.MustCompile(`yaptım?\s*(\d+[.,]?\d*)`),
	}
	voiceConsumptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+[.,]?\d*)\s*(?:tüketim|litre|l/100)`),
		regexp.MustCompile(`tüketim\s*(\d+[.,]?\d*)`),
		regexp.MustCompile(`(?:ortalama|ort)\s*(\d+[.,]?\d*)`),
	}
	voicePricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d+[.,]?\d*)\s*(?:lira|tl|₺)`),
		regexp.MustCompile(`fiyat\s*(\d+[.,]?\d*)`),
		regexp.MustCompile(`litresi\s*(\d+[.,]?\d*)`),
	}
)

var voiceFields = []func(p *Parser, text string, out *VoiceData){
	func(p *Parser, text string, out *VoiceData) {
		if v, ok := firstSpoken(text, voiceDistancePatterns, nil); ok {
			out.Distance = ptr(v)
		}
	},
	func(p *Parser, text string, out *VoiceData) {
		if v, ok := firstSpoken(text, voiceConsumptionPatterns, &p.limits.VoiceConsumption); ok {
			out.Consumption = ptr(v)
		}
	},
	func(p *Parser, text string, out *VoiceData) {
		if v, ok := firstSpoken(text, voicePricePatterns, &p.limits.VoicePrice); ok {
			out.FuelPrice = ptr(v)
		}
	},
}

// Voice extracts distance, consumption and fuel price from a Turkish speech
// transcript such as "50 km yaptım, tüketim altı virgül beş".
func (p *Parser) Voice(transcript string) VoiceData {
	text := prepareTranscript(transcript)
	var out VoiceData
	for _, field := range voiceFields {
		field(p, text, &out)
	}
	return out
}

// prepareTranscript lower-cases the transcript and rewrites spoken numbers
// into digits: "altı virgül beş" -> "6,5".
func prepareTranscript(s string) string {
	// strings.ToLower maps İ to i plus a combining dot
	s = strings.ReplaceAll(strings.ToLower(s), "\u0307", "")
	s = spokenSeparators.Replace(s)
	s = spellNumbers(s)
	return spokenDecimal.ReplaceAllString(s, "${1}${2}${3}")
}

// firstSpoken returns the first match of the first pattern whose value is
// accepted. A nil range accepts any number.
func firstSpoken(text string, patterns []*regexp.Regexp, r *Range) (float64, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		v, ok := ParseNumber(m[1])
		if !ok {
			continue
		}
		if r == nil || r.Contains(v) {
			return v, true
		}
	}
	return 0, false
}
