package fuel

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// TripInput is a trip as entered or confirmed by the user. When the
// distance is missing it is taken from the odometer difference to the
// previous trip, and a missing fuel price falls back to the last known one.
type TripInput struct {
	Date        string     `json:"date"` // YYYY-MM-DD, today when empty
	Odometer    *float64   `json:"odometer"`
	Distance    *float64   `json:"distance"`
	Consumption *float64   `json:"consumption"`
	AvgSpeed    *float64   `json:"avg_speed"`
	FuelPrice   *float64   `json:"fuel_price"`
	Notes       string     `json:"notes"`
	Source      ScanMethod `json:"source"`
}

// CreateTrip saves a trip and derives its fuel use and cost
func (s *Service) CreateTrip(input TripInput) (*Trip, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	date, err := parseDate(input.Date, now)
	if err != nil {
		return nil, err
	}

	trips, err := s.db.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}

	distance, err := tripDistance(input, trips)
	if err != nil {
		return nil, err
	}

	price := input.FuelPrice
	if !positive(price) {
		purchases, err := s.db.ListPurchases()
		if err != nil {
			return nil, fmt.Errorf("listing purchases: %w", err)
		}
		if last, ok := lastFuelPrice(purchases, trips); ok {
			price = &last
		} else {
			price = nil
		}
	}

	source := input.Source
	if source == "" {
		source = MethodManual
	}

	trip := &Trip{
		ID:          id,
		Date:        date,
		Odometer:    input.Odometer,
		Distance:    distance,
		Consumption: input.Consumption,
		AvgSpeed:    input.AvgSpeed,
		FuelPrice:   price,
		Notes:       strings.TrimSpace(input.Notes),
		Source:      source,
		CreatedAt:   now,
	}
	trip.derive()

	if err := s.db.SaveTrip(trip); err != nil {
		return nil, fmt.Errorf("saving trip to database: %w", err)
	}
	return trip, nil
}

// tripDistance returns the entered distance, or the odometer difference to
// the highest earlier odometer reading
func tripDistance(input TripInput, trips []*Trip) (float64, error) {
	if positive(input.Distance) {
		return *input.Distance, nil
	}
	if !positive(input.Odometer) {
		return 0, fmt.Errorf("distance or odometer is required: %w", ErrInvalidInput)
	}

	var previous float64
	for _, t := range trips {
		if t.Odometer != nil && *t.Odometer < *input.Odometer && *t.Odometer > previous {
			previous = *t.Odometer
		}
	}
	if previous == 0 {
		return 0, fmt.Errorf("no earlier odometer reading to derive the distance from: %w", ErrInvalidInput)
	}
	return round2(*input.Odometer - previous), nil
}

// derive computes fuel used, cost and cost per km when consumption and
// price are known
func (t *Trip) derive() {
	t.FuelConsumed, t.Cost, t.CostPerKm = nil, nil, nil
	if t.Consumption == nil || t.Distance <= 0 {
		return
	}

	distance := decimal.NewFromFloat(t.Distance)
	fuel := distance.Mul(decimal.NewFromFloat(*t.Consumption)).Div(decimal.NewFromInt(100))
	consumed, _ := fuel.Round(2).Float64()
	t.FuelConsumed = &consumed

	if t.FuelPrice == nil {
		return
	}
	cost := fuel.Mul(decimal.NewFromFloat(*t.FuelPrice))
	kurus := int(cost.Shift(2).Round(0).IntPart())
	t.Cost = &kurus
	if perKm, ok := ratio2(cost, distance); ok {
		t.CostPerKm = &perKm
	}
}

// ListTrips returns all trips, newest first
func (s *Service) ListTrips() ([]*Trip, error) {
	trips, err := s.db.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].Date.Equal(trips[j].Date) {
			return trips[i].Date.After(trips[j].Date)
		}
		return trips[i].CreatedAt.After(trips[j].CreatedAt)
	})
	return trips, nil
}

// GetTrip retrieves a trip by ID
func (s *Service) GetTrip(id string) (*Trip, error) {
	trip, err := s.db.GetTrip(id)
	if err != nil {
		return nil, fmt.Errorf("getting trip: %w", err)
	}
	return trip, nil
}

// DeleteTrip removes a trip
func (s *Service) DeleteTrip(id string) error {
	if err := s.db.DeleteTrip(id); err != nil {
		slog.Warn("Failed to delete trip", "id", id, "error", err)
		return fmt.Errorf("deleting trip from database: %w", err)
	}
	return nil
}
