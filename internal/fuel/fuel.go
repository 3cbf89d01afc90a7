// Package fuel keeps a personal log of fuel purchases and trips, fed by
// receipt and dashboard scans or spoken entries.
package fuel

import (
	"errors"
	"time"

	"github.com/zombor/fuel-tracker/internal/extract"
	"github.com/zombor/fuel-tracker/internal/scanning"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when an entry is missing required values
	ErrInvalidInput = errors.New("invalid input")
	// ErrOCRUnavailable is returned when no OCR engine is configured
	ErrOCRUnavailable = errors.New("ocr engine not configured")
)

// ScanMethod selects how an image is read
type ScanMethod string

const (
	MethodOCR    ScanMethod = "ocr"
	MethodAI     ScanMethod = "ai"
	MethodManual ScanMethod = "manual"
	MethodVoice  ScanMethod = "voice"
	MethodImport ScanMethod = "import"
)

// ScanStatus reports whether a scan produced usable values. An unreadable
// scan is a normal result, not an error.
type ScanStatus string

const (
	ScanStatusOK         ScanStatus = "ok"
	ScanStatusUnreadable ScanStatus = "unreadable"
)

// Purchase is a fuel purchase
type Purchase struct {
	ID            string     `json:"id"`
	Date          time.Time  `json:"date"`
	Station       string     `json:"station,omitempty"`
	Amount        int        `json:"amount"` // Amount in kuruş
	Liters        float64    `json:"liters"`
	PricePerLiter float64    `json:"price_per_liter"` // TL per liter
	Odometer      *float64   `json:"odometer,omitempty"`
	Source        ScanMethod `json:"source"`
	Photo         string     `json:"photo,omitempty"`
	ContentType   string     `json:"content_type,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Trip is a driving log entry. Fuel used and cost are derived when the
// entry is saved.
type Trip struct {
	ID           string     `json:"id"`
	Date         time.Time  `json:"date"`
	Odometer     *float64   `json:"odometer,omitempty"`
	Distance     float64    `json:"distance"`              // km
	Consumption  *float64   `json:"consumption,omitempty"` // L/100km
	AvgSpeed     *float64   `json:"avg_speed,omitempty"`   // km/h
	FuelPrice    *float64   `json:"fuel_price,omitempty"`  // TL per liter
	FuelConsumed *float64   `json:"fuel_consumed,omitempty"`
	Cost         *int       `json:"cost,omitempty"` // kuruş
	CostPerKm    *float64   `json:"cost_per_km,omitempty"`
	Notes        string     `json:"notes,omitempty"`
	Source       ScanMethod `json:"source"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Budget is the monthly spending limit
type Budget struct {
	MonthlyLimit     int  `json:"monthly_limit"` // kuruş
	Enabled          bool `json:"enabled"`
	WarningThreshold int  `json:"warning_threshold"` // percent
}

// DefaultBudget applies until a budget is saved
var DefaultBudget = Budget{
	MonthlyLimit:     300000,
	Enabled:          false,
	WarningThreshold: 80,
}

// MaintenanceKind says whether an item falls due by distance, by date or
// by whichever comes first
type MaintenanceKind string

const (
	MaintenanceByKm   MaintenanceKind = "km"
	MaintenanceByDate MaintenanceKind = "date"
	MaintenanceByBoth MaintenanceKind = "both"
)

// MaintenanceStatus is how close an item is to being due
type MaintenanceStatus string

const (
	MaintenanceOK       MaintenanceStatus = "ok"
	MaintenanceWarning  MaintenanceStatus = "warning"
	MaintenanceCritical MaintenanceStatus = "critical"
)

// MaintenanceItem is a recurring service reminder such as an oil change
type MaintenanceItem struct {
	ID               string          `json:"id"`
	Title            string          `json:"title"`
	Kind             MaintenanceKind `json:"type"`
	IntervalKm       float64         `json:"interval_km,omitempty"`
	LastKm           float64         `json:"last_km,omitempty"`
	NextDueKm        float64         `json:"next_due_km,omitempty"`
	NotifyBeforeKm   float64         `json:"notify_before_km,omitempty"`
	DueDate          *time.Time      `json:"due_date,omitempty"`
	NotifyBeforeDays int             `json:"notify_before_days,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

func (m *MaintenanceItem) byKm() bool {
	return m.Kind == MaintenanceByKm || m.Kind == MaintenanceByBoth
}

func (m *MaintenanceItem) byDate() bool {
	return m.Kind == MaintenanceByDate || m.Kind == MaintenanceByBoth
}

// ReceiptScan is the result of reading a receipt
type ReceiptScan struct {
	Method  ScanMethod          `json:"method"`
	Status  ScanStatus          `json:"status"`
	Receipt extract.ReceiptData `json:"receipt"`
	Text    string              `json:"text,omitempty"`
}

// DashboardScan is the result of reading an instrument cluster
type DashboardScan struct {
	Method    ScanMethod             `json:"method"`
	Mode      scanning.DashboardMode `json:"mode"`
	Status    ScanStatus             `json:"status"`
	Dashboard extract.DashboardData  `json:"dashboard"`
}

// VoiceScan is the result of parsing a spoken entry
type VoiceScan struct {
	Status ScanStatus        `json:"status"`
	Voice  extract.VoiceData `json:"voice"`
}
