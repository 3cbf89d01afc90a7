// Package extract turns noisy OCR output of fuel receipts and dashboard
// displays, and speech transcripts, into structured numeric fields.
//
// Every function in this package is pure: no I/O, no shared mutable state.
// A field that cannot be extracted, or whose value falls outside its
// plausibility range, is left unset. Extraction never returns an error.
package extract

import "math"

// ReceiptData contains the fields read from a fuel receipt
type ReceiptData struct {
	Date          string   `json:"date,omitempty"` // YYYY-MM-DD
	TotalAmount   *float64 `json:"totalAmount,omitempty"`
	Liters        *float64 `json:"liters,omitempty"`
	PricePerLiter *float64 `json:"pricePerLiter,omitempty"`
	Station       string   `json:"station,omitempty"`
}

// Readable reports whether the receipt yielded the minimum usable signal.
// A receipt with neither a total nor a quantity could not be read.
func (d ReceiptData) Readable() bool {
	return d.TotalAmount != nil || d.Liters != nil
}

// DashboardData contains the readouts of a vehicle instrument cluster
type DashboardData struct {
	Odometer    *float64 `json:"odometer,omitempty"` // whole kilometers
	Consumption *float64 `json:"consumption,omitempty"` // L/100km
	Distance    *float64 `json:"distance,omitempty"` // km
	AvgSpeed    *float64 `json:"avgSpeed,omitempty"` // km/h
	RawText     string   `json:"rawText,omitempty"`
}

// Empty reports whether no readout was extracted
func (d DashboardData) Empty() bool {
	return d.Odometer == nil && d.Consumption == nil && d.Distance == nil && d.AvgSpeed == nil
}

// VoiceData contains the values recognised in a spoken entry
type VoiceData struct {
	Distance    *float64 `json:"distance,omitempty"`
	Consumption *float64 `json:"consumption,omitempty"`
	FuelPrice   *float64 `json:"fuelPrice,omitempty"`
}

// Range is a plausibility bound for an extracted value. Bounds are
// inclusive unless the matching Open flag is set.
type Range struct {
	Min     float64
	Max     float64
	MinOpen bool
	MaxOpen bool
}

// open returns a range excluding both bounds
func open(lo, hi float64) Range {
	return Range{Min: lo, Max: hi, MinOpen: true, MaxOpen: true}
}

// Contains reports whether v is a finite value inside the range
func (r Range) Contains(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	if v < r.Min || (r.MinOpen && v == r.Min) {
		return false
	}
	return v < r.Max || (!r.MaxOpen && v == r.Max)
}

// Limits groups the plausibility ranges used by a Parser. The receipt and
// voice price bounds are kept separate on purpose.
type Limits struct {
	Amount               Range // receipt total
	Quantity             Range // receipt liters
	ReceiptPrice         Range
	Odometer             Range
	DashboardConsumption Range
	DashboardDistance    Range
	AvgSpeed             Range
	VoiceConsumption     Range
	VoicePrice           Range
}

// DefaultLimits are the ranges used by the package level Parse functions
var DefaultLimits = Limits{
	Amount:               open(0, math.Inf(1)),
	Quantity:             Range{Min: 0, Max: 200, MinOpen: true},
	ReceiptPrice:         open(10, 60),
	Odometer:             Range{Min: 1000, Max: 999999},
	DashboardConsumption: Range{Min: 3, Max: 25},
	DashboardDistance:    Range{Min: 0, Max: 2000},
	AvgSpeed:             Range{Min: 0, Max: 250, MinOpen: true},
	VoiceConsumption:     open(0, 30),
	VoicePrice:           open(10, 100),
}

// Parser runs the extractors with a fixed set of limits. A Parser is
// immutable and safe for concurrent use.
type Parser struct {
	limits Limits
}

// New creates a Parser with the given limits
func New(limits Limits) *Parser {
	return &Parser{limits: limits}
}

// Limits returns the ranges the parser enforces
func (p *Parser) Limits() Limits {
	return p.limits
}

var defaultParser = New(DefaultLimits)

// ParseReceipt extracts receipt fields using DefaultLimits
func ParseReceipt(text string) ReceiptData {
	return defaultParser.Receipt(text)
}

// ParseDashboard extracts dashboard readouts using DefaultLimits
func ParseDashboard(text string) DashboardData {
	return defaultParser.Dashboard(text)
}

// ParseVoice extracts trip values from a transcript using DefaultLimits
func ParseVoice(transcript string) VoiceData {
	return defaultParser.Voice(transcript)
}

func ptr(v float64) *float64 {
	return &v
}
