package config

import (
	"fmt"
	"os"
	"strconv"
)

// Late penalty policies. Two formulas existed historically; the active one is
// picked by configuration instead of being hard-coded.
const (
	LatePolicyStepped      = "stepped"
	LatePolicyProportional = "proportional"
)

// Overlap conventions for the availability check. "exclusive" treats periods
// as half-open [start, end) so back-to-back bookings are allowed; "inclusive"
// keeps the legacy behavior that blocks bookings touching at the boundary.
const (
	OverlapExclusive = "exclusive"
	OverlapInclusive = "inclusive"
)

type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	StripeSecretKey     string
	StripeWebhookSecret string

	Pricing PricingConfig

	// OverlapPolicy selects the availability boundary convention.
	OverlapPolicy string

	// NoShowGrace is how many hours past the scheduled start a reserved
	// rental may sit before the cleanup job cancels it.
	NoShowGraceHours int
}

// PricingConfig holds every tunable the pricing engine uses. Nothing in the
// engine reads globals; overriding these in tests is enough to exercise it.
type PricingConfig struct {
	LongTierDays      int
	LongTierDiscount  float64
	ShortTierDays     int
	ShortTierDiscount float64

	MileageAllowanceKm float64
	MileagePerKmRate   float64

	LatePolicy        string
	LateHourlyFee     float64
	LateFlatFee       float64
	LateDailyFraction float64
}

// DefaultPricing returns the rates the business has been running on.
func DefaultPricing() PricingConfig {
	return PricingConfig{
		LongTierDays:       7,
		LongTierDiscount:   0.10,
		ShortTierDays:      3,
		ShortTierDiscount:  0.05,
		MileageAllowanceKm: 100,
		MileagePerKmRate:   0.5,
		LatePolicy:         LatePolicyStepped,
		LateHourlyFee:      10,
		LateFlatFee:        240,
		LateDailyFraction:  0.5,
	}
}

// Load reads the configuration from the environment. godotenv is expected to
// have been called by main before this.
func Load() (*Config, error) {
	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		JWTSecret:           os.Getenv("JWT_SECRET"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		Pricing:             DefaultPricing(),
		OverlapPolicy:       getEnv("OVERLAP_POLICY", OverlapExclusive),
		NoShowGraceHours:    getEnvInt("NO_SHOW_GRACE_HOURS", 24),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	if p := os.Getenv("LATE_PENALTY_POLICY"); p != "" {
		if p != LatePolicyStepped && p != LatePolicyProportional {
			return nil, fmt.Errorf("unknown LATE_PENALTY_POLICY %q", p)
		}
		cfg.Pricing.LatePolicy = p
	}
	if cfg.OverlapPolicy != OverlapExclusive && cfg.OverlapPolicy != OverlapInclusive {
		return nil, fmt.Errorf("unknown OVERLAP_POLICY %q", cfg.OverlapPolicy)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
