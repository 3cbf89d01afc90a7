package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ParseNumber converts a locale formatted number into a float.
//
// The last separator is the decimal point and every earlier separator is a
// thousands separator ("1.250,50" -> 1250.5, "45.203" -> 45.203), unless the
// last separator also appears earlier ("1.234.567"). Readouts that are always
// whole numbers go through ParseWhole instead. Anything that is not a finite
// number reports false.
func ParseNumber(s string) (float64, bool) {
	clean := strings.TrimRight(numericChars(s), ".,")
	if strings.Trim(clean, ".,") == "" {
		return 0, false
	}

	last := strings.LastIndexAny(clean, ".,")
	if last == -1 {
		return parseFinite(clean)
	}

	intPart, frac := clean[:last], clean[last+1:]
	sep := clean[last]
	intDigits := digitsOnly(intPart)
	if intDigits == "" {
		intDigits = "0"
	}

	if len(frac) != 2 && strings.IndexByte(intPart, sep) >= 0 {
		return parseFinite(intDigits + frac)
	}
	return parseFinite(intDigits + "." + frac)
}

// groupedRe matches a number whose separators all group three digits
var groupedRe = regexp.MustCompile(`^\d{1,3}(?:[.,]\d{3})+$`)

// ParseWhole reads a whole-number readout such as an odometer, where a
// separator before three digits groups thousands ("45.231" -> 45231). Other
// values are parsed with ParseNumber and rounded.
func ParseWhole(s string) (float64, bool) {
	if groupedRe.MatchString(numericChars(s)) {
		return parseFinite(digitsOnly(s))
	}
	v, ok := ParseNumber(s)
	if !ok {
		return 0, false
	}
	return math.Round(v), true
}

// numericChars keeps the digits and separators of s
func numericChars(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func digitsOnly(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// glyphRun matches numeric looking runs. A run has to start with a digit so
// keyword text is never rewritten.
var glyphRun = regexp.MustCompile(`\d[\dOoIlL.,]*`)

// FixGlyphs repairs characters OCR commonly confuses with digits: O and o
// become 0, and I, l and L become 1 when both neighbours are digits.
func FixGlyphs(s string) string {
	return glyphRun.ReplaceAllStringFunc(s, func(run string) string {
		b := []byte(run)
		for i, c := range b {
			if c == 'O' || c == 'o' {
				b[i] = '0'
			}
		}
		for i := 1; i < len(b)-1; i++ {
			switch b[i] {
			case 'I', 'l', 'L':
				if isDigit(b[i-1]) && isDigit(b[i+1]) {
					b[i] = '1'
				}
			}
		}
		return string(b)
	})
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// foldKeywords strips combining marks so keyword matching does not depend on
// Turkish diacritics (FİYAT -> FIYAT, ÖDENECEK -> ODENECEK). Transformers
// carry state, so a fresh chain is built per call.
func foldKeywords(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// upperFold upper-cases and folds a line for keyword matching
func upperFold(s string) string {
	return foldKeywords(strings.ToUpper(s))
}

// divide2 divides and rounds half away from zero to two decimals
func divide2(a, b float64) (float64, bool) {
	if b == 0 {
		return 0, false
	}
	v, _ := decimal.NewFromFloat(a).Div(decimal.NewFromFloat(b)).Round(2).Float64()
	return v, true
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
