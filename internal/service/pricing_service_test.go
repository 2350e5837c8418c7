package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"locadora/internal/config"
)

func TestRentalDays(t *testing.T) {
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"two hours rounds up to one day", base.Add(2 * time.Hour), 1},
		{"exactly one day", base.Add(24 * time.Hour), 1},
		{"one day and one hour", base.Add(25 * time.Hour), 2},
		{"exactly three days", base.Add(72 * time.Hour), 3},
		{"zero duration clamps to one", base, 1},
		{"end before start clamps to one", base.Add(-time.Hour), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RentalDays(base, tt.end))
		})
	}
}

func TestQuoteDiscountTiers(t *testing.T) {
	p := NewPricingService(config.DefaultPricing())

	tests := []struct {
		name string
		days int
		rate float64
		want float64
	}{
		{"below short tier no discount", 2, 100, 200},
		{"short tier boundary", 3, 100, 285},
		{"inside short tier", 6, 100, 570},
		{"long tier boundary", 7, 100, 630},
		{"long tier beats short tier", 10, 50, 450},
		{"days below one clamps", 0, 100, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, p.Quote(tt.days, tt.rate), 1e-9)
		})
	}
}

func TestQuoteIsDeterministic(t *testing.T) {
	p := NewPricingService(config.DefaultPricing())
	first := p.Quote(7, 123.45)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.Quote(7, 123.45))
	}
}

func TestMileageSurcharge(t *testing.T) {
	p := NewPricingService(config.DefaultPricing())

	assert.Equal(t, 0.0, p.MileageSurcharge(0))
	assert.Equal(t, 0.0, p.MileageSurcharge(50))
	assert.Equal(t, 0.0, p.MileageSurcharge(100))
	assert.InDelta(t, 25.0, p.MileageSurcharge(150), 1e-9)
	assert.InDelta(t, 0.25, p.MileageSurcharge(100.5), 1e-9)
}

func TestLatePenaltyStepped(t *testing.T) {
	p := NewPricingService(config.DefaultPricing())
	end := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		returned time.Time
		want     float64
	}{
		{"on time", end, 0},
		{"early", end.Add(-time.Hour), 0},
		{"thirty minutes bills one hour", end.Add(30 * time.Minute), 10},
		{"five hours", end.Add(5 * time.Hour), 50},
		{"exactly one day", end.Add(24 * time.Hour), 240},
		{"past one day flat plus daily rate", end.Add(25 * time.Hour), 340},
		{"two days same as one", end.Add(48 * time.Hour), 340},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.LatePenalty(end, tt.returned, 100, 285, 3)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestLatePenaltyProportional(t *testing.T) {
	cfg := config.DefaultPricing()
	cfg.LatePolicy = config.LatePolicyProportional
	p := NewPricingService(cfg)
	end := time.Date(2025, 6, 4, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		returned time.Time
		want     float64
	}{
		{"on time", end, 0},
		{"under a full day is free", end.Add(12 * time.Hour), 0},
		{"one full day", end.Add(26 * time.Hour), 1 * (285.0 / 3) * 0.5},
		{"two full days", end.Add(50 * time.Hour), 2 * (285.0 / 3) * 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.LatePenalty(end, tt.returned, 100, 285, 3)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 47.5, Round2(47.5))
	assert.Equal(t, 95.0, Round2(94.99999999999999))
	assert.Equal(t, 0.1, Round2(0.10000000000000003))
	assert.Equal(t, 285.0, Round2(285.00000000000006))
}
