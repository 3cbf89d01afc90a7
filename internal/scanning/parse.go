package scanning

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/zombor/fuel-tracker/internal/extract"
)

const excerptLength = 100

// extractJSONObject returns the first balanced {...} span in a model reply
// that is valid JSON. Markdown fences and surrounding prose are ignored.
func extractJSONObject(reply string) ([]byte, error) {
	text := strings.ReplaceAll(reply, "```json", "")
	text = strings.ReplaceAll(text, "```", "")

	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchingBrace(text, start); end >= 0 {
			candidate := []byte(text[start : end+1])
			if json.Valid(candidate) {
				return candidate, nil
			}
		}

		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, fmt.Errorf("%w: %q", ErrMalformedResponse, excerpt(reply))
}

// matchingBrace returns the index of the brace closing the one at start, or
// -1. Braces inside string literals do not count.
func matchingBrace(text string, start int) int {
	depth := 0
	inString, escaped := false, false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) > excerptLength {
		return string(r[:excerptLength])
	}
	return s
}

// lenientNumber accepts a JSON number, a numeric string such as "1.250,50"
// or null. Anything else decodes as unset.
type lenientNumber struct {
	value *float64
	text  string // set when the value came as a string
}

func (n *lenientNumber) UnmarshalJSON(b []byte) error {
	n.value, n.text = nil, ""
	b = bytes.TrimSpace(b)

	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		n.text = s
		if v, ok := extract.ParseNumber(s); ok {
			n.value = &v
		}
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	n.value = &v
	return nil
}

// within returns the value when it is in range
func (n lenientNumber) within(r extract.Range) *float64 {
	if n.value == nil || !r.Contains(*n.value) {
		return nil
	}
	v := *n.value
	return &v
}

// wholeWithin reads the value as a whole number, so a string like "45.231"
// groups thousands, and returns it when it is in range
func (n lenientNumber) wholeWithin(r extract.Range) *float64 {
	if n.value == nil {
		return nil
	}
	v := math.Round(*n.value)
	if n.text != "" {
		whole, ok := extract.ParseWhole(n.text)
		if !ok {
			return nil
		}
		v = whole
	}
	if !r.Contains(v) {
		return nil
	}
	return &v
}

type visionReceipt struct {
	PricePerLiter lenientNumber `json:"pricePerLiter"`
	TotalAmount   lenientNumber `json:"totalAmount"`
	Liters        lenientNumber `json:"liters"`
	Date          *string       `json:"date"`
	Station       *string       `json:"station"`
}

type visionDashboard struct {
	Odometer    lenientNumber `json:"odometer"`
	Consumption lenientNumber `json:"consumption"`
	Distance    lenientNumber `json:"distance"`
	AvgSpeed    lenientNumber `json:"avgSpeed"`
}

// parseReceiptReply decodes a receipt reply, dropping implausible values
func parseReceiptReply(reply string, limits extract.Limits) (extract.ReceiptData, error) {
	raw, err := extractJSONObject(reply)
	if err != nil {
		return extract.ReceiptData{}, err
	}

	var v visionReceipt
	if err := json.Unmarshal(raw, &v); err != nil {
		return extract.ReceiptData{}, fmt.Errorf("%w: %q", ErrMalformedResponse, excerpt(reply))
	}

	data := extract.ReceiptData{
		TotalAmount:   v.TotalAmount.within(limits.Amount),
		Liters:        v.Liters.within(limits.Quantity),
		PricePerLiter: v.PricePerLiter.within(limits.ReceiptPrice),
	}
	if v.Date != nil {
		if d, err := time.Parse("2006-01-02", strings.TrimSpace(*v.Date)); err == nil {
			data.Date = d.Format("2006-01-02")
		}
	}
	if v.Station != nil {
		data.Station = strings.TrimSpace(*v.Station)
	}
	return data, nil
}

// parseDashboardReply decodes a dashboard reply, dropping implausible values
func parseDashboardReply(reply string, limits extract.Limits) (extract.DashboardData, error) {
	raw, err := extractJSONObject(reply)
	if err != nil {
		return extract.DashboardData{}, err
	}

	var v visionDashboard
	if err := json.Unmarshal(raw, &v); err != nil {
		return extract.DashboardData{}, fmt.Errorf("%w: %q", ErrMalformedResponse, excerpt(reply))
	}

	data := extract.DashboardData{
		Consumption: v.Consumption.within(limits.DashboardConsumption),
		Distance:    v.Distance.within(limits.DashboardDistance),
		AvgSpeed:    v.AvgSpeed.within(limits.AvgSpeed),
		Odometer:    v.Odometer.wholeWithin(limits.Odometer),
		RawText:     reply,
	}
	return data, nil
}
