package fuel

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
)

const (
	defaultNotifyBeforeKm   = 1000
	defaultNotifyBeforeDays = 30
)

// MaintenanceInput is a new maintenance reminder. Distance based items need
// an interval, date based items a due date.
type MaintenanceInput struct {
	Title            string          `json:"title"`
	Kind             MaintenanceKind `json:"type"` // km when empty
	IntervalKm       *float64        `json:"interval_km"`
	LastKm           *float64        `json:"last_km"` // current odometer when empty
	NotifyBeforeKm   *float64        `json:"notify_before_km"`
	DueDate          string          `json:"due_date"` // YYYY-MM-DD
	NotifyBeforeDays *int            `json:"notify_before_days"`
}

// MaintenanceDone records a completed service
type MaintenanceDone struct {
	Odometer *float64 `json:"odometer"` // current odometer when empty
	DueDate  string   `json:"due_date"` // next due date, required for date only items
}

// MaintenanceReport is an item with its status against the current
// odometer and date
type MaintenanceReport struct {
	*MaintenanceItem
	Status        MaintenanceStatus `json:"status"`
	RemainingKm   *float64          `json:"remaining_km,omitempty"`
	RemainingDays *int              `json:"remaining_days,omitempty"`
}

func parseDueDate(s string) (*time.Time, error) {
	d, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q: %w", s, ErrInvalidInput)
	}
	return &d, nil
}

// currentOdometer returns the highest odometer reading in the log, 0 when
// there is none
func (s *Service) currentOdometer() (float64, error) {
	trips, err := s.db.ListTrips()
	if err != nil {
		return 0, fmt.Errorf("listing trips: %w", err)
	}
	purchases, err := s.db.ListPurchases()
	if err != nil {
		return 0, fmt.Errorf("listing purchases: %w", err)
	}

	var odometer float64
	for _, t := range trips {
		if t.Odometer != nil && *t.Odometer > odometer {
			odometer = *t.Odometer
		}
	}
	for _, p := range purchases {
		if p.Odometer != nil && *p.Odometer > odometer {
			odometer = *p.Odometer
		}
	}
	return odometer, nil
}

func (s *Service) today() time.Time {
	now := s.timeSource.Now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// CreateMaintenance saves a maintenance reminder
func (s *Service) CreateMaintenance(input MaintenanceInput) (*MaintenanceReport, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", ErrInvalidInput)
	}

	kind := input.Kind
	switch kind {
	case "":
		kind = MaintenanceByKm
	case MaintenanceByKm, MaintenanceByDate, MaintenanceByBoth:
	default:
		return nil, fmt.Errorf("unknown maintenance type %q: %w", kind, ErrInvalidInput)
	}

	odometer, err := s.currentOdometer()
	if err != nil {
		return nil, err
	}

	now := s.timeSource.Now()
	item := &MaintenanceItem{
		ID:        s.idGenerator.Generate(),
		Title:     title,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if item.byKm() {
		if !positive(input.IntervalKm) {
			return nil, fmt.Errorf("interval_km is required: %w", ErrInvalidInput)
		}
		last := odometer
		if input.LastKm != nil {
			if *input.LastKm < 0 {
				return nil, fmt.Errorf("last_km cannot be negative: %w", ErrInvalidInput)
			}
			last = *input.LastKm
		}
		item.IntervalKm = *input.IntervalKm
		item.LastKm = last
		item.NextDueKm = last + *input.IntervalKm

		item.NotifyBeforeKm = defaultNotifyBeforeKm
		if input.NotifyBeforeKm != nil {
			if *input.NotifyBeforeKm < 0 {
				return nil, fmt.Errorf("notify_before_km cannot be negative: %w", ErrInvalidInput)
			}
			item.NotifyBeforeKm = *input.NotifyBeforeKm
		}
	}

	if item.byDate() {
		if input.DueDate == "" {
			return nil, fmt.Errorf("due_date is required: %w", ErrInvalidInput)
		}
		if item.DueDate, err = parseDueDate(input.DueDate); err != nil {
			return nil, err
		}

		item.NotifyBeforeDays = defaultNotifyBeforeDays
		if input.NotifyBeforeDays != nil {
			if *input.NotifyBeforeDays < 0 {
				return nil, fmt.Errorf("notify_before_days cannot be negative: %w", ErrInvalidInput)
			}
			item.NotifyBeforeDays = *input.NotifyBeforeDays
		}
	}

	if err := s.db.SaveMaintenance(item); err != nil {
		return nil, fmt.Errorf("saving maintenance item to database: %w", err)
	}
	slog.Info("Maintenance item created", "id", item.ID, "title", item.Title, "type", item.Kind)

	return maintenanceReport(item, odometer, s.today()), nil
}

// dueStatus grades a remaining distance or day count against the notice
// given before it falls due
func dueStatus(remaining, notifyBefore float64) MaintenanceStatus {
	switch {
	case remaining < 0:
		return MaintenanceCritical
	case remaining <= notifyBefore:
		return MaintenanceWarning
	}
	return MaintenanceOK
}

var statusRank = map[MaintenanceStatus]int{
	MaintenanceOK:       0,
	MaintenanceWarning:  1,
	MaintenanceCritical: 2,
}

func worse(a, b MaintenanceStatus) MaintenanceStatus {
	if statusRank[b] > statusRank[a] {
		return b
	}
	return a
}

// maintenanceReport derives the status of an item. Items due both ways
// take the worse of the two.
func maintenanceReport(item *MaintenanceItem, odometer float64, today time.Time) *MaintenanceReport {
	report := &MaintenanceReport{MaintenanceItem: item, Status: MaintenanceOK}

	if item.byKm() {
		remaining := round2(item.NextDueKm - odometer)
		report.RemainingKm = &remaining
		report.Status = worse(report.Status, dueStatus(remaining, item.NotifyBeforeKm))
	}
	if item.byDate() && item.DueDate != nil {
		remaining := int(days(today, *item.DueDate))
		report.RemainingDays = &remaining
		report.Status = worse(report.Status, dueStatus(float64(remaining), float64(item.NotifyBeforeDays)))
	}

	return report
}

// urgency orders reports, lower is more urgent. A day counts as 100 km.
func (r *MaintenanceReport) urgency() float64 {
	if r.RemainingKm != nil {
		return *r.RemainingKm
	}
	if r.RemainingDays != nil {
		return float64(*r.RemainingDays) * 100
	}
	return 0
}

// ListMaintenance returns every maintenance item with its status, most
// urgent first
func (s *Service) ListMaintenance() ([]*MaintenanceReport, error) {
	items, err := s.db.ListMaintenance()
	if err != nil {
		return nil, fmt.Errorf("listing maintenance items: %w", err)
	}
	odometer, err := s.currentOdometer()
	if err != nil {
		return nil, err
	}

	today := s.today()
	reports := make([]*MaintenanceReport, 0, len(items))
	for _, item := range items {
		reports = append(reports, maintenanceReport(item, odometer, today))
	}
	sort.Slice(reports, func(i, j int) bool {
		ui, uj := reports[i].urgency(), reports[j].urgency()
		if ui != uj {
			return ui < uj
		}
		return reports[i].Title < reports[j].Title
	})
	return reports, nil
}

// DueMaintenance returns the items in warning or critical state, most
// urgent first
func (s *Service) DueMaintenance() ([]*MaintenanceReport, error) {
	reports, err := s.ListMaintenance()
	if err != nil {
		return nil, err
	}
	due := make([]*MaintenanceReport, 0, len(reports))
	for _, r := range reports {
		if r.Status != MaintenanceOK {
			due = append(due, r)
		}
	}
	return due, nil
}

// GetMaintenance retrieves a maintenance item with its status
func (s *Service) GetMaintenance(id string) (*MaintenanceReport, error) {
	item, err := s.db.GetMaintenance(id)
	if err != nil {
		return nil, fmt.Errorf("getting maintenance item: %w", err)
	}
	odometer, err := s.currentOdometer()
	if err != nil {
		return nil, err
	}
	return maintenanceReport(item, odometer, s.today()), nil
}

// CompleteMaintenance records that the service was done. Distance based
// items restart their interval from the given or current odometer; date
// based items move to the given due date.
func (s *Service) CompleteMaintenance(id string, done MaintenanceDone) (*MaintenanceReport, error) {
	item, err := s.db.GetMaintenance(id)
	if err != nil {
		return nil, fmt.Errorf("getting maintenance item: %w", err)
	}
	odometer, err := s.currentOdometer()
	if err != nil {
		return nil, err
	}

	if item.byKm() {
		last := odometer
		if done.Odometer != nil {
			if *done.Odometer < 0 {
				return nil, fmt.Errorf("odometer cannot be negative: %w", ErrInvalidInput)
			}
			last = *done.Odometer
		}
		item.LastKm = last
		item.NextDueKm = last + item.IntervalKm
	}

	switch {
	case done.DueDate != "" && item.byDate():
		if item.DueDate, err = parseDueDate(done.DueDate); err != nil {
			return nil, err
		}
	case item.Kind == MaintenanceByDate:
		return nil, fmt.Errorf("due_date is required for date based items: %w", ErrInvalidInput)
	}

	item.UpdatedAt = s.timeSource.Now()
	if err := s.db.SaveMaintenance(item); err != nil {
		return nil, fmt.Errorf("saving maintenance item to database: %w", err)
	}
	slog.Info("Maintenance done", "id", item.ID, "title", item.Title, "last_km", item.LastKm)

	return maintenanceReport(item, odometer, s.today()), nil
}

// DeleteMaintenance removes a maintenance item
func (s *Service) DeleteMaintenance(id string) error {
	if err := s.db.DeleteMaintenance(id); err != nil {
		slog.Warn("Failed to delete maintenance item", "id", id, "error", err)
		return fmt.Errorf("deleting maintenance item from database: %w", err)
	}
	return nil
}
