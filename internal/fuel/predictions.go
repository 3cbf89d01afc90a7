package fuel

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// defaultRefuelDays is the refuel interval assumed until two purchases exist
const defaultRefuelDays = 7

// Predictions extrapolates the driving log. Nothing is predicted until
// there are at least two trips.
type Predictions struct {
	Available            bool                   `json:"available"`
	AvgDailyKm           float64                `json:"avg_daily_km"`
	NextRefuelDate       string                 `json:"next_refuel_date,omitempty"` // YYYY-MM-DD
	NextMaintenance      *MaintenancePrediction `json:"next_maintenance,omitempty"`
	MonthCost            int                    `json:"month_cost"`             // kuruş, trips so far this month
	EstimatedMonthlyCost int                    `json:"estimated_monthly_cost"` // kuruş
}

// MaintenancePrediction is the distance based item expected to fall due
// first at the current daily average
type MaintenancePrediction struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Date  string `json:"date"` // YYYY-MM-DD
}

func days(from, to time.Time) float64 {
	return to.Sub(from).Hours() / 24
}

// avgDailyKm divides the distance covered between the first and the last
// trip by the days between them. The odometer difference is used when both
// ends have a reading, otherwise the distances of the later trips are summed.
func avgDailyKm(trips []*Trip) float64 {
	first, last := trips[0], trips[len(trips)-1]
	span := days(first.Date, last.Date)
	if span <= 0 {
		return 0
	}

	var total decimal.Decimal
	if first.Odometer != nil && last.Odometer != nil && *last.Odometer > *first.Odometer {
		total = decimal.NewFromFloat(*last.Odometer - *first.Odometer)
	} else {
		for _, t := range trips[1:] {
			total = total.Add(decimal.NewFromFloat(t.Distance))
		}
	}
	avg, _ := total.Div(decimal.NewFromFloat(span)).Round(2).Float64()
	return avg
}

// nextRefuel adds the average gap between purchases, or defaultRefuelDays,
// to the last purchase or, without purchases, to the last trip
func nextRefuel(purchases []*Purchase, lastTrip time.Time) time.Time {
	if len(purchases) == 0 {
		return lastTrip.AddDate(0, 0, defaultRefuelDays)
	}

	first, last := purchases[0].Date, purchases[len(purchases)-1].Date
	gap := defaultRefuelDays
	if len(purchases) > 1 {
		gap = int(days(first, last) / float64(len(purchases)-1))
	}
	return last.AddDate(0, 0, gap)
}

// Predictions estimates the average daily distance, the next refuel, the
// next distance based maintenance and this month's trip cost
func (s *Service) Predictions() (*Predictions, error) {
	trips, err := s.db.ListTrips()
	if err != nil {
		return nil, fmt.Errorf("listing trips: %w", err)
	}
	if len(trips) < 2 {
		return &Predictions{}, nil
	}
	purchases, err := s.db.ListPurchases()
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	reports, err := s.ListMaintenance()
	if err != nil {
		return nil, err
	}

	sort.Slice(trips, func(i, j int) bool { return trips[i].Date.Before(trips[j].Date) })
	sort.Slice(purchases, func(i, j int) bool { return purchases[i].Date.Before(purchases[j].Date) })

	today := s.today()
	p := &Predictions{
		Available:  true,
		AvgDailyKm: avgDailyKm(trips),
	}
	p.NextRefuelDate = nextRefuel(purchases, trips[len(trips)-1].Date).Format("2006-01-02")

	if p.AvgDailyKm > 0 {
		var soonest time.Time
		for _, r := range reports {
			if r.RemainingKm == nil || *r.RemainingKm <= 0 {
				continue
			}
			due := today.AddDate(0, 0, int(*r.RemainingKm/p.AvgDailyKm))
			if p.NextMaintenance == nil || due.Before(soonest) {
				soonest = due
				p.NextMaintenance = &MaintenancePrediction{
					ID:    r.ID,
					Title: r.Title,
					Date:  due.Format("2006-01-02"),
				}
			}
		}
	}

	var spent decimal.Decimal
	for _, t := range trips {
		if t.Cost != nil && t.Date.Year() == today.Year() && t.Date.Month() == today.Month() {
			spent = spent.Add(decimal.NewFromInt(int64(*t.Cost)))
		}
	}
	p.MonthCost = int(spent.IntPart())
	daysInMonth := time.Date(today.Year(), today.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
	p.EstimatedMonthlyCost = int(spent.Div(decimal.NewFromInt(int64(today.Day()))).
		Mul(decimal.NewFromInt(int64(daysInMonth))).Round(0).IntPart())

	return p, nil
}
