package service

import (
	"fmt"
	"math"
	"time"

	"carrental/internal/domain"
	"carrental/internal/models"
)

// Pricing computes rental totals: whole days, rounded up, at the daily price
// plus the surcharge.
type Pricing struct {
	SurchargeRate float64
}

func NewPricing(surchargeRate float64) Pricing {
	if surchargeRate < 0 {
		surchargeRate = models.DefaultSurchargeRate
	}
	return Pricing{SurchargeRate: surchargeRate}
}

// RentalDays is the number of started days between from and to.
func RentalDays(from, to time.Time) (int, error) {
	ms := to.Sub(from).Milliseconds()
	if ms <= 0 {
		return 0, fmt.Errorf("%w: end must be after start", domain.ErrInvalidDateRange)
	}
	return int(math.Ceil(float64(ms) / models.DayMs)), nil
}

func (p Pricing) Quote(price float64, rentFrom, rentTo string) (models.Quote, error) {
	from, err := models.ParseDate(rentFrom)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: start %q", domain.ErrInvalidDateRange, rentFrom)
	}
	to, err := models.ParseDate(rentTo)
	if err != nil {
		return models.Quote{}, fmt.Errorf("%w: end %q", domain.ErrInvalidDateRange, rentTo)
	}
	days, err := RentalDays(from, to)
	if err != nil {
		return models.Quote{}, err
	}

	subtotal := float64(days) * price
	return models.Quote{
		Days:     days,
		Subtotal: subtotal,
		GST:      subtotal * p.SurchargeRate,
		Total:    subtotal * (1 + p.SurchargeRate),
	}, nil
}
