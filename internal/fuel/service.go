package fuel

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/zombor/fuel-tracker/internal/extract"
	"github.com/zombor/fuel-tracker/internal/scanning"
)

// IDGenerator generates unique IDs for purchases and trips
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (g *uuidGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// OCR recognises the raw text in an image
type OCR interface {
	Recognize(ctx context.Context, data []byte, contentType string, progress scanning.ProgressFunc) (string, error)
}

// Vision reads receipts and dashboards with a multimodal model
type Vision interface {
	AnalyzeReceipt(ctx context.Context, data []byte, contentType string, progress scanning.ProgressFunc) (extract.ReceiptData, error)
	AnalyzeDashboard(ctx context.Context, data []byte, contentType string, mode scanning.DashboardMode, progress scanning.ProgressFunc) (extract.DashboardData, error)
}

// Service handles fuel log operations
type Service struct {
	db          DB
	ocr         OCR
	vision      Vision
	storage     Storage
	parser      *extract.Parser
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time
// source. ocr or vision may be nil when not configured.
func NewService(db DB, ocr OCR, vision Vision, storage Storage) *Service {
	return NewServiceWithDeps(db, ocr, vision, storage, &uuidGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, ocr OCR, vision Vision, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		ocr:         ocr,
		vision:      vision,
		storage:     storage,
		parser:      extract.New(extract.DefaultLimits),
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// SetVision replaces the vision reader. The adapter is built after the
// service because its first credential source reads the service's database.
func (s *Service) SetVision(vision Vision) {
	s.vision = vision
}

func logProgress(operation string) scanning.ProgressFunc {
	return func(percent int) {
		slog.Debug("Scan progress", "operation", operation, "percent", percent)
	}
}

// ParseMethod validates a scan method name, defaulting to OCR
func ParseMethod(s string) (ScanMethod, error) {
	switch ScanMethod(strings.ToLower(strings.TrimSpace(s))) {
	case "", MethodOCR:
		return MethodOCR, nil
	case MethodAI:
		return MethodAI, nil
	}
	return "", fmt.Errorf("unknown scan method %q: %w", s, ErrInvalidInput)
}

// ScanReceipt reads a receipt photo with OCR and the regex parser, or with
// the vision model when method is MethodAI
func (s *Service) ScanReceipt(ctx context.Context, data []byte, contentType string, method ScanMethod) (*ReceiptScan, error) {
	scan := &ReceiptScan{Method: method}

	switch method {
	case MethodOCR:
		text, err := s.recognize(ctx, data, contentType, "receipt")
		if err != nil {
			return nil, err
		}
		scan.Text = text
		scan.Receipt = s.parser.Receipt(text)
	case MethodAI:
		if s.vision == nil {
			return nil, scanning.ErrNoCredential
		}
		receipt, err := s.vision.AnalyzeReceipt(ctx, data, contentType, logProgress("receipt"))
		if err != nil {
			slog.Error("Failed to scan receipt",
				"method", method,
				"content_type", contentType,
				"file_size", len(data),
				"error", err,
			)
			return nil, fmt.Errorf("analyzing receipt: %w", err)
		}
		scan.Receipt = receipt
	default:
		return nil, fmt.Errorf("unknown scan method %q: %w", method, ErrInvalidInput)
	}

	scan.Status = ScanStatusOK
	if !scan.Receipt.Readable() {
		scan.Status = ScanStatusUnreadable
		slog.Info("Receipt could not be read", "method", method, "file_size", len(data))
	}
	return scan, nil
}

// ParseReceiptText runs the receipt parser on text recognised elsewhere,
// for example by OCR on the client
func (s *Service) ParseReceiptText(text string) *ReceiptScan {
	scan := &ReceiptScan{
		Method:  MethodOCR,
		Status:  ScanStatusOK,
		Receipt: s.parser.Receipt(text),
		Text:    text,
	}
	if !scan.Receipt.Readable() {
		scan.Status = ScanStatusUnreadable
	}
	return scan
}

// ScanDashboard reads an instrument cluster photo. The mode limits which
// readouts are kept.
func (s *Service) ScanDashboard(ctx context.Context, data []byte, contentType string, method ScanMethod, mode scanning.DashboardMode) (*DashboardScan, error) {
	var dashboard extract.DashboardData

	switch method {
	case MethodOCR:
		text, err := s.recognize(ctx, data, contentType, "dashboard")
		if err != nil {
			return nil, err
		}
		dashboard = s.parser.Dashboard(text)
	case MethodAI:
		if s.vision == nil {
			return nil, scanning.ErrNoCredential
		}
		var err error
		dashboard, err = s.vision.AnalyzeDashboard(ctx, data, contentType, mode, logProgress("dashboard"))
		if err != nil {
			slog.Error("Failed to scan dashboard",
				"method", method,
				"mode", mode,
				"content_type", contentType,
				"file_size", len(data),
				"error", err,
			)
			return nil, fmt.Errorf("analyzing dashboard: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown scan method %q: %w", method, ErrInvalidInput)
	}

	return newDashboardScan(method, mode, dashboard), nil
}

// ParseDashboardText runs the dashboard parser on recognised text
func (s *Service) ParseDashboardText(text string, mode scanning.DashboardMode) *DashboardScan {
	return newDashboardScan(MethodOCR, mode, s.parser.Dashboard(text))
}

func newDashboardScan(method ScanMethod, mode scanning.DashboardMode, dashboard extract.DashboardData) *DashboardScan {
	dashboard = applyMode(dashboard, mode)
	scan := &DashboardScan{
		Method:    method,
		Mode:      mode,
		Status:    ScanStatusOK,
		Dashboard: dashboard,
	}
	if dashboard.Empty() {
		scan.Status = ScanStatusUnreadable
	}
	return scan
}

// applyMode drops readouts the mode did not ask for. The odometer is kept
// in every mode.
func applyMode(d extract.DashboardData, mode scanning.DashboardMode) extract.DashboardData {
	switch mode {
	case scanning.DashboardConsumption:
		d.Distance, d.AvgSpeed = nil, nil
	case scanning.DashboardDistance:
		d.Consumption = nil
	}
	return d
}

// ParseVoice parses a spoken trip entry
func (s *Service) ParseVoice(transcript string) *VoiceScan {
	voice := s.parser.Voice(transcript)
	scan := &VoiceScan{Status: ScanStatusOK, Voice: voice}
	if voice.Distance == nil && voice.Consumption == nil && voice.FuelPrice == nil {
		scan.Status = ScanStatusUnreadable
	}
	return scan
}

func (s *Service) recognize(ctx context.Context, data []byte, contentType, operation string) (string, error) {
	if s.ocr == nil {
		return "", ErrOCRUnavailable
	}
	text, err := s.ocr.Recognize(ctx, data, contentType, logProgress(operation))
	if err != nil {
		slog.Error("Failed to recognize text",
			"operation", operation,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		return "", fmt.Errorf("recognizing %s text: %w", operation, err)
	}
	return text, nil
}

var (
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	repeatedSpaces      = regexp.MustCompile(`\s+`)
)

// sanitizeFilename cleans up a filename by removing special characters and
// truncating long phone generated names
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	base = unsafeFilenameChars.ReplaceAllString(base, "")
	base = repeatedSpaces.ReplaceAllString(base, " ")
	base = strings.TrimSpace(base)

	if len(base) > 50 {
		base = base[:50]
	}
	if base == "" {
		base = "receipt"
	}

	if ext != "" {
		ext = "." + unsafeFilenameChars.ReplaceAllString(ext[1:], "")
	}
	return base + ext
}
