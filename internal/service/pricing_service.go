package service

import (
	"math"
	"time"

	"locadora/internal/config"
)

// PricingService computes rental prices, late penalties and mileage
// surcharges. It is a pure function of its inputs and the injected config;
// rounding happens once, at the final total, via Round2.
type PricingService struct {
	cfg config.PricingConfig
}

func NewPricingService(cfg config.PricingConfig) *PricingService {
	return &PricingService{cfg: cfg}
}

// RentalDays converts a period into billable whole days: ceiling of the
// duration, minimum 1.
func RentalDays(start, end time.Time) int {
	if !end.After(start) {
		return 1
	}
	hours := end.Sub(start).Hours()
	days := int(math.Ceil(hours / 24))
	if days < 1 {
		days = 1
	}
	return days
}

// Quote returns the base price for the given number of days. Discount tiers
// do not stack; the highest applicable tier wins.
func (p *PricingService) Quote(days int, dailyRate float64) float64 {
	if days < 1 {
		days = 1
	}
	total := float64(days) * dailyRate
	switch {
	case days >= p.cfg.LongTierDays:
		total *= 1 - p.cfg.LongTierDiscount
	case days >= p.cfg.ShortTierDays:
		total *= 1 - p.cfg.ShortTierDiscount
	}
	return total
}

// LatePenalty charges for returning after the scheduled end. Which formula
// applies is a configuration choice, see config.LatePolicyStepped and
// config.LatePolicyProportional.
func (p *PricingService) LatePenalty(scheduledEnd, actualReturn time.Time, dailyRate, base float64, days int) float64 {
	if !actualReturn.After(scheduledEnd) {
		return 0
	}
	late := actualReturn.Sub(scheduledEnd)

	if p.cfg.LatePolicy == config.LatePolicyProportional {
		fullDays := int(late.Hours() / 24)
		if fullDays <= 0 || days < 1 {
			return 0
		}
		return float64(fullDays) * (base / float64(days)) * p.cfg.LateDailyFraction
	}

	// Stepped: per started hour up to a day, then a flat fee plus one daily rate.
	hours := late.Hours()
	if hours <= 24 {
		return math.Ceil(hours) * p.cfg.LateHourlyFee
	}
	return p.cfg.LateFlatFee + dailyRate
}

// MileageSurcharge charges driven kilometers beyond the free allowance.
func (p *PricingService) MileageSurcharge(km float64) float64 {
	over := km - p.cfg.MileageAllowanceKm
	if over <= 0 {
		return 0
	}
	return over * p.cfg.MileagePerKmRate
}

// Round2 rounds a monetary amount to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
