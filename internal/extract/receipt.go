package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// receiptDoc is the input shared by the receipt extractors
type receiptDoc struct {
	text  string
	lines []string // trimmed, upper-cased, folded; empty lines dropped
	orig  []string // trimmed source lines, index aligned with lines
}

func newReceiptDoc(text string) *receiptDoc {
	doc := &receiptDoc{text: text}
	for _, l := range strings.Split(text, "\n") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		doc.orig = append(doc.orig, l)
		doc.lines = append(doc.lines, upperFold(l))
	}
	return doc
}

// firstLine returns the index of the first line containing any keyword
func (d *receiptDoc) firstLine(keywords ...string) int {
	for i, l := range d.lines {
		if containsAny(l, keywords...) {
			return i
		}
	}
	return -1
}

var (
	totalKeywords   = []string{"GENEL TOPLAM", "NIHAI TOPLAM", "TOPLAM", "TUTAR", "ODENECEK"}
	litersKeywords  = []string{"LITRE", "MIKTAR", "LT"}
	priceKeywords   = []string{"B.FIYAT", "FIYAT", "BIRIM"}
	stationExcluded = []string{"FIS", "NO:", "TARIH"}

	dateRe    = regexp.MustCompile(`(?:^|\D)(\d{1,2})[./-](\d{1,2})[./-](\d{4}|\d{2})(?:\D|$)`)
	amountRe  = regexp.MustCompile(`(\d+(?:[.,]\d{3})*[.,]\d{2})(?:\D|$)`)
	litersRe  = regexp.MustCompile(`(\d+[.,]\d+)\s*(?:LITRE|LTR|LT)(?:[^A-Z]|$)`)
	decimalRe = regexp.MustCompile(`\d+[.,]\d+`)
)

// receiptFields are applied in order; each writes a disjoint field
var receiptFields = []func(p *Parser, doc *receiptDoc, out *ReceiptData){
	func(p *Parser, doc *receiptDoc, out *ReceiptData) {
		if v, ok := extractDate(doc.text); ok {
			out.Date = v
		}
	},
	func(p *Parser, doc *receiptDoc, out *ReceiptData) {
		if v, ok := extractTotal(doc); ok && p.limits.Amount.Contains(v) {
			out.TotalAmount = ptr(v)
		}
	},
	func(p *Parser, doc *receiptDoc, out *ReceiptData) {
		if v, ok := extractLiters(doc); ok && p.limits.Quantity.Contains(v) {
			out.Liters = ptr(v)
		}
	},
	func(p *Parser, doc *receiptDoc, out *ReceiptData) {
		if v, ok := extractPricePerLiter(doc); ok && p.limits.ReceiptPrice.Contains(v) {
			out.PricePerLiter = ptr(v)
		}
	},
	func(p *Parser, doc *receiptDoc, out *ReceiptData) {
		if v, ok := extractStation(doc); ok {
			out.Station = v
		}
	},
}

// Receipt extracts the fields of a fuel receipt from OCR text and fills
// missing quantities through cross-field inference.
func (p *Parser) Receipt(text string) ReceiptData {
	doc := newReceiptDoc(text)
	var out ReceiptData
	for _, field := range receiptFields {
		field(p, doc, &out)
	}
	p.infer(&out)
	return out
}

// extractDate finds the first DD.MM.YYYY style date and returns it as
// YYYY-MM-DD. Two digit years are taken as 20YY.
func extractDate(text string) (string, bool) {
	m := dateRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	year, _ := strconv.Atoi(m[3])
	if len(m[3]) == 2 {
		year += 2000
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", false
	}
	return t.Format("2006-01-02"), true
}

// extractTotal takes the last amount on the first total line
func extractTotal(doc *receiptDoc) (float64, bool) {
	i := doc.firstLine(totalKeywords...)
	if i < 0 {
		return 0, false
	}
	matches := amountRe.FindAllStringSubmatch(doc.lines[i], -1)
	if len(matches) == 0 {
		return 0, false
	}
	return ParseNumber(matches[len(matches)-1][1])
}

// extractLiters needs the number to sit right before the unit
func extractLiters(doc *receiptDoc) (float64, bool) {
	for _, l := range doc.lines {
		if !containsAny(l, litersKeywords...) {
			continue
		}
		if m := litersRe.FindStringSubmatch(l); m != nil {
			return ParseNumber(m[1])
		}
	}
	return 0, false
}

func extractPricePerLiter(doc *receiptDoc) (float64, bool) {
	i := doc.firstLine(priceKeywords...)
	if i < 0 {
		return 0, false
	}
	m := decimalRe.FindString(doc.lines[i])
	if m == "" {
		return 0, false
	}
	return ParseNumber(m)
}

// extractStation picks the first line that looks like a header rather than
// receipt metadata
func extractStation(doc *receiptDoc) (string, bool) {
	for i, l := range doc.lines {
		if utf8.RuneCountInString(doc.orig[i]) <= 3 || containsAny(l, stationExcluded...) {
			continue
		}
		return titleStation(doc.orig[i]), true
	}
	return "", false
}

// titleStation applies Turkish casing only when the line has a dotted or
// dotless i. OCR often drops the dot from İ, and Turkish rules would then
// turn every plain I into ı.
func titleStation(s string) string {
	tag := language.Und
	if strings.ContainsAny(s, "İı") {
		tag = language.Turkish
	}
	return cases.Title(tag).String(s)
}

// infer derives a missing quantity or unit price from the other two fields.
// It never overwrites an extracted value.
func (p *Parser) infer(out *ReceiptData) {
	if out.TotalAmount != nil && out.PricePerLiter != nil && out.Liters == nil {
		if v, ok := divide2(*out.TotalAmount, *out.PricePerLiter); ok && p.limits.Quantity.Contains(v) {
			out.Liters = ptr(v)
		}
	}
	if out.TotalAmount != nil && out.Liters != nil && out.PricePerLiter == nil {
		if v, ok := divide2(*out.TotalAmount, *out.Liters); ok && p.limits.ReceiptPrice.Contains(v) {
			out.PricePerLiter = ptr(v)
		}
	}
}
