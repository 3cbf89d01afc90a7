package fuel

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

const budgetSetting = "budget"

// Summary aggregates the log for one year or for all time
type Summary struct {
	Year             string  `json:"year"`
	PurchaseCount    int     `json:"purchase_count"`
	TripCount        int     `json:"trip_count"`
	TotalSpent       int     `json:"total_spent"` // kuruş, from purchases
	TotalLiters      float64 `json:"total_liters"`
	WeightedAvgPrice float64 `json:"weighted_avg_price"` // TL per liter
	TotalDistance    float64 `json:"total_distance"`
	TotalCost        int     `json:"total_cost"` // kuruş, estimated from trips
	AvgCostPerKm     float64 `json:"avg_cost_per_km"`
	AvgConsumption   float64 `json:"avg_consumption"` // L/100km
	LastFuelPrice    float64 `json:"last_fuel_price"`
}

// BudgetStatus is the spending against the budget for one month
type BudgetStatus struct {
	Month         string  `json:"month"` // YYYY-MM
	Budget        Budget  `json:"budget"`
	Spent         int     `json:"spent"`     // kuruş
	Remaining     int     `json:"remaining"` // kuruş, never negative
	Percent       float64 `json:"percent"`
	Warning       bool    `json:"warning"`
	Exceeded      bool    `json:"exceeded"`
	RemainingDays int     `json:"remaining_days"`
}

// parseYear accepts "", "all" or a four digit year
func parseYear(year string) (int, error) {
	if year == "" || year == "all" {
		return 0, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil || len(year) != 4 {
		return 0, fmt.Errorf("invalid year %q: %w", year, ErrInvalidInput)
	}
	return y, nil
}

// Summary computes totals and averages for the year, or all time when the
// year is empty or "all"
func (s *Service) Summary(year string) (*Summary, error) {
	y, err := parseYear(year)
	if err != nil {
		return nil, err
	}

	purchases, err := s.db.ListPurchases()
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	trips, err := s.db.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}

	summary := &Summary{Year: "all"}
	if y != 0 {
		summary.Year = year
	}
	if price, ok := lastFuelPrice(purchases, trips); ok {
		summary.LastFuelPrice = price
	}

	var spent, liters, distance, cost, fuelUsed, fuelDistance decimal.Decimal
	for _, p := range purchases {
		if y != 0 && p.Date.Year() != y {
			continue
		}
		summary.PurchaseCount++
		spent = spent.Add(decimal.NewFromInt(int64(p.Amount)))
		liters = liters.Add(decimal.NewFromFloat(p.Liters))
	}
	for _, t := range trips {
		if y != 0 && t.Date.Year() != y {
			continue
		}
		summary.TripCount++
		d := decimal.NewFromFloat(t.Distance)
		distance = distance.Add(d)
		if t.Cost != nil {
			cost = cost.Add(decimal.NewFromInt(int64(*t.Cost)))
		}
		if t.FuelConsumed != nil && *t.FuelConsumed > 0 && t.Distance > 0 {
			fuelUsed = fuelUsed.Add(decimal.NewFromFloat(*t.FuelConsumed))
			fuelDistance = fuelDistance.Add(d)
		}
	}

	summary.TotalSpent = int(spent.IntPart())
	summary.TotalLiters, _ = liters.Round(2).Float64()
	summary.TotalDistance, _ = distance.Round(2).Float64()
	summary.TotalCost = int(cost.IntPart())

	// spent is in kuruş, prices are in lira
	summary.WeightedAvgPrice, _ = ratio2(spent.Shift(-2), liters)
	summary.AvgCostPerKm, _ = ratio2(cost.Shift(-2), distance)
	summary.AvgConsumption, _ = ratio2(fuelUsed.Mul(decimal.NewFromInt(100)), fuelDistance)

	return summary, nil
}

// lastFuelPrice returns the price of the most recent purchase or trip. A
// purchase wins only when it is strictly newer.
func lastFuelPrice(purchases []*Purchase, trips []*Trip) (float64, bool) {
	var lastPurchase *Purchase
	for _, p := range purchases {
		if p.PricePerLiter > 0 && (lastPurchase == nil || p.Date.After(lastPurchase.Date)) {
			lastPurchase = p
		}
	}
	var lastTrip *Trip
	for _, t := range trips {
		if t.FuelPrice != nil && (lastTrip == nil || t.Date.After(lastTrip.Date)) {
			lastTrip = t
		}
	}

	switch {
	case lastPurchase != nil && lastTrip != nil:
		if lastPurchase.Date.After(lastTrip.Date) {
			return lastPurchase.PricePerLiter, true
		}
		return *lastTrip.FuelPrice, true
	case lastPurchase != nil:
		return lastPurchase.PricePerLiter, true
	case lastTrip != nil:
		return *lastTrip.FuelPrice, true
	}
	return 0, false
}

// GetBudget returns the saved budget or DefaultBudget
func (s *Service) GetBudget() (Budget, error) {
	data, err := s.db.GetSetting(budgetSetting)
	if err != nil {
		return Budget{}, fmt.Errorf("getting budget: %w", err)
	}
	if data == nil {
		return DefaultBudget, nil
	}

	var budget Budget
	if err := json.Unmarshal(data, &budget); err != nil {
		return Budget{}, fmt.Errorf("unmarshaling budget: %w", err)
	}
	return budget, nil
}

// SetBudget saves the budget
func (s *Service) SetBudget(budget Budget) error {
	if budget.MonthlyLimit < 0 {
		return fmt.Errorf("monthly limit must not be negative: %w", ErrInvalidInput)
	}
	if budget.WarningThreshold < 1 || budget.WarningThreshold > 100 {
		return fmt.Errorf("warning threshold must be between 1 and 100: %w", ErrInvalidInput)
	}

	data, err := json.Marshal(budget)
	if err != nil {
		return fmt.Errorf("marshaling budget: %w", err)
	}
	if err := s.db.PutSetting(budgetSetting, data); err != nil {
		return fmt.Errorf("saving budget: %w", err)
	}
	return nil
}

// BudgetStatus compares the purchases of a month (YYYY-MM, the current month
// when empty) with the budget
func (s *Service) BudgetStatus(month string) (*BudgetStatus, error) {
	now := s.timeSource.Now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if month != "" {
		var err error
		start, err = time.Parse("2006-01", month)
		if err != nil {
			return nil, fmt.Errorf("parsing month %q: %w", month, ErrInvalidInput)
		}
	}
	end := start.AddDate(0, 1, 0)

	budget, err := s.GetBudget()
	if err != nil {
		return nil, err
	}
	purchases, err := s.db.ListPurchases()
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}

	status := &BudgetStatus{
		Month:  start.Format("2006-01"),
		Budget: budget,
	}
	for _, p := range purchases {
		if !p.Date.Before(start) && p.Date.Before(end) {
			status.Spent += p.Amount
		}
	}

	if remaining := budget.MonthlyLimit - status.Spent; remaining > 0 {
		status.Remaining = remaining
	}
	if percent, ok := ratio2(decimal.NewFromInt(int64(status.Spent*100)), decimal.NewFromInt(int64(budget.MonthlyLimit))); ok {
		status.Percent = percent
	}
	if budget.Enabled {
		status.Exceeded = budget.MonthlyLimit > 0 && status.Spent > budget.MonthlyLimit
		status.Warning = status.Percent >= float64(budget.WarningThreshold)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch {
	case !today.Before(end):
		status.RemainingDays = 0
	case today.Before(start):
		status.RemainingDays = int(end.Sub(start).Hours() / 24)
	default:
		status.RemainingDays = int(end.AddDate(0, 0, -1).Sub(today).Hours() / 24)
	}

	return status, nil
}
