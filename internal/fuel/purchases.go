package fuel

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseInput is a purchase as entered or confirmed by the user. Amounts
// are in lira. Two of total, liters and price are enough, the third is
// derived.
type PurchaseInput struct {
	Date          string     `json:"date"` // YYYY-MM-DD, today when empty
	Station       string     `json:"station"`
	TotalAmount   *float64   `json:"total_amount"`
	Liters        *float64   `json:"liters"`
	PricePerLiter *float64   `json:"price_per_liter"`
	Odometer      *float64   `json:"odometer"`
	Source        ScanMethod `json:"source"`
}

// Upload is a photo attached to an entry
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing date %q: %w", s, ErrInvalidInput)
	}
	return date, nil
}

func positive(v *float64) bool {
	return v != nil && *v > 0
}

// completePurchase fills in the one missing value of total, liters and price
func completePurchase(in PurchaseInput) (total, liters, price float64, err error) {
	switch {
	case positive(in.TotalAmount) && positive(in.Liters):
		total, liters = *in.TotalAmount, *in.Liters
		price, _ = ratio2(decimal.NewFromFloat(total), decimal.NewFromFloat(liters))
		if positive(in.PricePerLiter) {
			price = *in.PricePerLiter
		}
	case positive(in.TotalAmount) && positive(in.PricePerLiter):
		total, price = *in.TotalAmount, *in.PricePerLiter
		liters, _ = ratio2(decimal.NewFromFloat(total), decimal.NewFromFloat(price))
	case positive(in.Liters) && positive(in.PricePerLiter):
		liters, price = *in.Liters, *in.PricePerLiter
		total, _ = decimal.NewFromFloat(liters).Mul(decimal.NewFromFloat(price)).Round(2).Float64()
	default:
		return 0, 0, 0, fmt.Errorf("two of total amount, liters and price per liter are required: %w", ErrInvalidInput)
	}
	return total, liters, price, nil
}

// CreatePurchase saves a purchase with an optional receipt photo
func (s *Service) CreatePurchase(input PurchaseInput, photo *Upload) (*Purchase, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	date, err := parseDate(input.Date, now)
	if err != nil {
		return nil, err
	}
	total, liters, price, err := completePurchase(input)
	if err != nil {
		return nil, err
	}

	source := input.Source
	if source == "" {
		source = MethodManual
	}

	purchase := &Purchase{
		ID:            id,
		Date:          date,
		Station:       strings.TrimSpace(input.Station),
		Amount:        toKurus(total),
		Liters:        liters,
		PricePerLiter: price,
		Odometer:      input.Odometer,
		Source:        source,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if photo != nil && len(photo.Data) > 0 {
		savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, sanitizeFilename(photo.Filename)), photo.Data)
		if err != nil {
			return nil, fmt.Errorf("saving photo: %w", err)
		}
		purchase.Photo = savedPath
		purchase.ContentType = photo.ContentType
	}

	if err := s.db.SavePurchase(purchase); err != nil {
		if purchase.Photo != "" {
			s.storage.Delete(purchase.Photo)
		}
		return nil, fmt.Errorf("saving purchase to database: %w", err)
	}

	return purchase, nil
}

// GetPurchase retrieves a purchase by ID
func (s *Service) GetPurchase(id string) (*Purchase, error) {
	purchase, err := s.db.GetPurchase(id)
	if err != nil {
		return nil, fmt.Errorf("getting purchase: %w", err)
	}
	return purchase, nil
}

// ListPurchases returns all purchases, newest first
func (s *Service) ListPurchases() ([]*Purchase, error) {
	purchases, err := s.db.ListPurchases()
	if err != nil {
		return nil, fmt.Errorf("listing purchases: %w", err)
	}
	sort.Slice(purchases, func(i, j int) bool {
		if !purchases[i].Date.Equal(purchases[j].Date) {
			return purchases[i].Date.After(purchases[j].Date)
		}
		return purchases[i].CreatedAt.After(purchases[j].CreatedAt)
	})
	return purchases, nil
}

// DeletePurchase removes a purchase and its photo
func (s *Service) DeletePurchase(id string) error {
	purchase, err := s.db.GetPurchase(id)
	if err != nil {
		return fmt.Errorf("getting purchase for deletion: %w", err)
	}

	if purchase.Photo != "" {
		if err := s.storage.Delete(purchase.Photo); err != nil {
			slog.Warn("Failed to delete photo", "photo", purchase.Photo, "error", err)
		}
	}

	if err := s.db.DeletePurchase(id); err != nil {
		return fmt.Errorf("deleting purchase from database: %w", err)
	}
	return nil
}

// GetPurchasePhoto retrieves the receipt photo of a purchase
func (s *Service) GetPurchasePhoto(id string) ([]byte, string, error) {
	purchase, err := s.db.GetPurchase(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting purchase: %w", err)
	}
	if purchase.Photo == "" {
		return nil, "", fmt.Errorf("purchase %s has no photo: %w", id, ErrNotFound)
	}

	data, err := s.storage.Get(purchase.Photo)
	if err != nil {
		return nil, "", fmt.Errorf("getting purchase photo: %w", err)
	}
	return data, purchase.ContentType, nil
}
