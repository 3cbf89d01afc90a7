package fuel

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/zombor/fuel-tracker/internal/scanning"
)

// maxUploadSize handles high-resolution phone photos
const maxUploadSize = int64(50 << 20)

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// corsError writes a JSON error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, scanning.ErrNoCredential), errors.Is(err, ErrOCRUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, scanning.ErrMalformedResponse):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeScanError reports a failed scan. Anything that is not a client or
// configuration error came from the OCR engine or the vision provider.
func writeScanError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		code = http.StatusBadGateway
	}
	corsError(w, err.Error(), code)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

// contentTypeFor determines the content type from the part header or the
// file extension
func contentTypeFor(header *multipart.FileHeader) string {
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		switch strings.ToLower(filepath.Ext(header.Filename)) {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		case ".xlsx":
			contentType = XLSXContentType
		default:
			contentType = "application/octet-stream"
		}
	}
	return strings.ToLower(strings.TrimSpace(contentType))
}

// readUpload reads the "file" part of a multipart form. It writes the error
// response itself and returns nil on failure.
func readUpload(w http.ResponseWriter, r *http.Request, required bool) (*Upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		corsError(w, errorMsg, http.StatusBadRequest)
		return nil, false
	}

	f, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) && !required {
		return nil, true
	}
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		errorMsg := "No file provided"
		if errors.Is(err, http.ErrMissingFile) {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		corsError(w, errorMsg, http.StatusBadRequest)
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		corsError(w, "Error reading file. Please try again.", http.StatusInternalServerError)
		return nil, false
	}

	return &Upload{
		Filename:    header.Filename,
		ContentType: contentTypeFor(header),
		Data:        data,
	}, true
}

// handleScanReceipt reads an uploaded receipt photo
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r, true)
	if !ok {
		return
	}
	method, err := ParseMethod(r.FormValue("method"))
	if err != nil {
		corsError(w, err.Error(), http.StatusBadRequest)
		return
	}

	scan, err := s.service.ScanReceipt(r.Context(), upload.Data, upload.ContentType, method)
	if err != nil {
		slog.Error("Error scanning receipt", "filename", upload.Filename, "method", method, "error", err)
		writeScanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// handleParseReceipt parses receipt text recognised by the client
func (s *Server) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, s.service.ParseReceiptText(req.Text))
}

// handleScanDashboard reads an uploaded instrument cluster photo
func (s *Server) handleScanDashboard(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r, true)
	if !ok {
		return
	}
	method, err := ParseMethod(r.FormValue("method"))
	if err != nil {
		corsError(w, err.Error(), http.StatusBadRequest)
		return
	}
	mode, err := scanning.ParseDashboardMode(r.FormValue("mode"))
	if err != nil {
		corsError(w, err.Error(), http.StatusBadRequest)
		return
	}

	scan, err := s.service.ScanDashboard(r.Context(), upload.Data, upload.ContentType, method, mode)
	if err != nil {
		slog.Error("Error scanning dashboard", "filename", upload.Filename, "method", method, "mode", mode, "error", err)
		writeScanError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, scan)
}

// handleParseDashboard parses dashboard text recognised by the client
func (s *Server) handleParseDashboard(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
		Mode string `json:"mode"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	mode, err := scanning.ParseDashboardMode(req.Mode)
	if err != nil {
		corsError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, s.service.ParseDashboardText(req.Text, mode))
}

// handleParseVoice parses a speech transcript
func (s *Server) handleParseVoice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Transcript string `json:"transcript"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	writeJSON(w, http.StatusOK, s.service.ParseVoice(req.Transcript))
}

// handleCreatePurchase saves a purchase. A multipart request carries the
// purchase as JSON in the "purchase" field and the receipt photo in "file".
func (s *Server) handleCreatePurchase(w http.ResponseWriter, r *http.Request) {
	var (
		input PurchaseInput
		photo *Upload
	)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		var ok bool
		if photo, ok = readUpload(w, r, false); !ok {
			return
		}
		if err := json.Unmarshal([]byte(r.FormValue("purchase")), &input); err != nil {
			corsError(w, "Invalid purchase", http.StatusBadRequest)
			return
		}
	} else if !decodeJSON(w, r, &input) {
		return
	}

	purchase, err := s.service.CreatePurchase(input, photo)
	if err != nil {
		slog.Error("Error creating purchase", "error", err)
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, purchase)
}

// handleListPurchases returns all purchases
func (s *Server) handleListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := s.service.ListPurchases()
	if err != nil {
		slog.Error("Error listing purchases", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, purchases)
}

// handleGetPurchase returns a single purchase
func (s *Server) handleGetPurchase(w http.ResponseWriter, r *http.Request) {
	purchase, err := s.service.GetPurchase(r.PathValue("id"))
	if err != nil {
		corsError(w, "Purchase not found", statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, purchase)
}

// handleGetPurchasePhoto returns the receipt photo of a purchase
func (s *Server) handleGetPurchasePhoto(w http.ResponseWriter, r *http.Request) {
	data, contentType, err := s.service.GetPurchasePhoto(r.PathValue("id"))
	if err != nil {
		corsError(w, "Photo not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeletePurchase deletes a purchase
func (s *Server) handleDeletePurchase(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeletePurchase(r.PathValue("id")); err != nil {
		slog.Error("Error deleting purchase", "error", err)
		corsError(w, "Error deleting purchase", statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCreateTrip saves a trip
func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var input TripInput
	if !decodeJSON(w, r, &input) {
		return
	}

	trip, err := s.service.CreateTrip(input)
	if err != nil {
		slog.Error("Error creating trip", "error", err)
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, trip)
}

// handleListTrips returns all trips
func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.service.ListTrips()
	if err != nil {
		slog.Error("Error listing trips", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, trips)
}

// handleGetTrip returns a single trip
func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.service.GetTrip(r.PathValue("id"))
	if err != nil {
		corsError(w, "Trip not found", statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, trip)
}

// handleDeleteTrip deletes a trip
func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteTrip(r.PathValue("id")); err != nil {
		corsError(w, "Error deleting trip", statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// writeWorkbook sends an XLSX download
func writeWorkbook(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", XLSXContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}

// handleExportTrips downloads every trip as a spreadsheet
func (s *Server) handleExportTrips(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.ExportTrips()
	if err != nil {
		slog.Error("Error exporting trips", "error", err)
		corsError(w, "Error exporting trips", http.StatusInternalServerError)
		return
	}

	writeWorkbook(w, fmt.Sprintf("yakit_kayitlari_%s.xlsx", time.Now().Format("2006-01-02")), data)
}

// handleTripTemplate downloads an empty import spreadsheet
func (s *Server) handleTripTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := s.service.TripTemplate()
	if err != nil {
		slog.Error("Error creating template", "error", err)
		corsError(w, "Error creating template", http.StatusInternalServerError)
		return
	}

	writeWorkbook(w, "yakit_takip_sablon.xlsx", data)
}

// handleImportTrips saves the rows of an uploaded spreadsheet as trips. An
// optional "mapping" field overrides the guessed columns.
func (s *Server) handleImportTrips(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r, true)
	if !ok {
		return
	}

	var mapping ColumnMapping
	if raw := r.FormValue("mapping"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
			corsError(w, "Invalid column mapping", http.StatusBadRequest)
			return
		}
	}

	result, err := s.service.ImportTrips(upload.Data, mapping)
	if err != nil {
		slog.Error("Error importing trips", "filename", upload.Filename, "error", err)
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleSummary returns the statistics for ?year=YYYY or all time
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summary(r.URL.Query().Get("year"))
	if err != nil {
		slog.Error("Error computing summary", "error", err)
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// handleGetBudget returns the budget status for ?month=YYYY-MM or the
// current month
func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	status, err := s.service.BudgetStatus(r.URL.Query().Get("month"))
	if err != nil {
		slog.Error("Error computing budget", "error", err)
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// handleSetBudget saves the budget
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var budget Budget
	if !decodeJSON(w, r, &budget) {
		return
	}

	if err := s.service.SetBudget(budget); err != nil {
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, budget)
}

// handleGetVisionKey reports whether a key is stored, never the key itself
func (s *Server) handleGetVisionKey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{
		"configured": s.service.HasVisionKey(),
	})
}

// handleSetVisionKey stores the user's Gemini key
func (s *Server) handleSetVisionKey(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key string `json:"key"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.service.SetVisionKey(req.Key); err != nil {
		corsError(w, err.Error(), statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleClearVisionKey removes the stored key
func (s *Server) handleClearVisionKey(w http.ResponseWriter, r *http.Request) {
	if err := s.service.ClearVisionKey(); err != nil {
		slog.Error("Error clearing vision key", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleCreateMaintenance saves a maintenance reminder
func (s *Server) handleCreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var input MaintenanceInput
	if !decodeJSON(w, r, &input) {
		return
	}

	report, err := s.service.CreateMaintenance(input)
	if err != nil {
		slog.Error("Error creating maintenance item", "error", err)
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusCreated, report)
}

// handleListMaintenance returns every maintenance item, or with ?due=true
// only the ones needing attention
func (s *Server) handleListMaintenance(w http.ResponseWriter, r *http.Request) {
	list := s.service.ListMaintenance
	if r.URL.Query().Get("due") == "true" {
		list = s.service.DueMaintenance
	}

	reports, err := list()
	if err != nil {
		slog.Error("Error listing maintenance items", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, reports)
}

// handleGetMaintenance returns a single maintenance item
func (s *Server) handleGetMaintenance(w http.ResponseWriter, r *http.Request) {
	report, err := s.service.GetMaintenance(r.PathValue("id"))
	if err != nil {
		corsError(w, "Maintenance item not found", statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleCompleteMaintenance marks a maintenance item as done. The body is
// optional for distance based items.
func (s *Server) handleCompleteMaintenance(w http.ResponseWriter, r *http.Request) {
	var done MaintenanceDone
	if r.ContentLength != 0 && !decodeJSON(w, r, &done) {
		return
	}

	report, err := s.service.CompleteMaintenance(r.PathValue("id"), done)
	if err != nil {
		corsError(w, err.Error(), statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// handleDeleteMaintenance deletes a maintenance item
func (s *Server) handleDeleteMaintenance(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteMaintenance(r.PathValue("id")); err != nil {
		corsError(w, "Error deleting maintenance item", statusFor(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handlePredictions returns the driving forecasts
func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request) {
	predictions, err := s.service.Predictions()
	if err != nil {
		slog.Error("Error computing predictions", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, predictions)
}
